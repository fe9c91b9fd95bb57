package table

import (
	"container/list"
	"time"

	enc "github.com/named-data/ndnd/std/encoding"
	"github.com/ndnfwd/corefwd/defn"
)

// CsPolicy is the eviction policy a ContentStore enforces once full.
type CsPolicy int

const (
	CsPolicyLru CsPolicy = iota
)

// baseCsEntry is one cached Data packet, indexed by its full name
// (including the implicit digest). It is kept alongside the encoded
// wire form so a cache hit can be replayed byte-for-byte.
type baseCsEntry struct {
	index     uint64
	data      *defn.FwData
	wire      []byte
	staleTime time.Time
	elem      *list.Element
}

// Index returns an opaque identifier for the entry (its insertion
// sequence number).
func (e *baseCsEntry) Index() uint64 { return e.index }

// StaleTime returns the time after which the entry is considered
// stale and excluded from MustBeFresh lookups.
func (e *baseCsEntry) StaleTime() time.Time { return e.staleTime }

// Copy returns the entry's decoded Data and its wire encoding.
func (e *baseCsEntry) Copy() (*defn.FwData, []byte, error) {
	return e.data, e.wire, nil
}

// ContentStore caches Data packets keyed by full name, serving future
// Interests without a trip to the producer when the cached entry
// satisfies them. Capacity is bounded in packets; once
// full, the configured eviction policy reclaims space.
type ContentStore interface {
	// Insert adds or replaces the cached entry for data.
	Insert(data *defn.FwData, wire []byte)
	// Find returns the best cached entry satisfying interest, or nil.
	Find(interest *defn.FwInterest) *baseCsEntry
	// Erase removes the cached entry with the given full name, if any.
	Erase(fullName enc.Name)
	// Size returns the number of packets currently cached.
	Size() int
}

// memoryCs is the default in-memory ContentStore, an LRU cache keyed
// by full name in a map; the NameTree it is constructed with is not
// used for indexing.
type memoryCs struct {
	tree     *NameTree
	capacity int
	lru      *list.List // front = most recently used
	byName   map[string]*baseCsEntry
	nextIdx  uint64
}

// NewMemoryContentStore constructs an in-memory LRU ContentStore
// holding at most capacity packets.
func NewMemoryContentStore(tree *NameTree, capacity int) ContentStore {
	return &memoryCs{
		tree:     tree,
		capacity: capacity,
		lru:      list.New(),
		byName:   make(map[string]*baseCsEntry),
	}
}

func (c *memoryCs) Insert(data *defn.FwData, wire []byte) {
	key := data.FullName().String()
	if existing, ok := c.byName[key]; ok {
		existing.data = data
		existing.wire = wire
		existing.staleTime = data.FreshnessExpiry
		c.lru.MoveToFront(existing.elem)
		return
	}

	c.nextIdx++
	entry := &baseCsEntry{
		index:     c.nextIdx,
		data:      data,
		wire:      wire,
		staleTime: data.FreshnessExpiry,
	}
	entry.elem = c.lru.PushFront(entry)
	c.byName[key] = entry

	for c.capacity > 0 && len(c.byName) > c.capacity {
		back := c.lru.Back()
		if back == nil {
			break
		}
		victim := back.Value.(*baseCsEntry)
		c.lru.Remove(back)
		delete(c.byName, victim.data.FullName().String())
	}
}

func (c *memoryCs) Find(interest *defn.FwInterest) *baseCsEntry {
	now := time.Now()
	if !interest.CanBePrefix {
		name := interest.NameV
		for key, entry := range c.byName {
			if entry.data.NameV.Equal(name) {
				_ = key
				if interest.MustBeFresh && now.After(entry.staleTime) {
					continue
				}
				c.lru.MoveToFront(entry.elem)
				return entry
			}
		}
		return nil
	}

	// CanBePrefix: scan the subtree for the best (longest-name, then
	// most-recently-inserted) match, matching the exhaustive "find
	// best match under the prefix" semantics without claiming a
	// specific index order.
	var best *baseCsEntry
	for _, entry := range c.byName {
		if !interest.NameV.IsPrefix(entry.data.FullName()) {
			continue
		}
		if interest.MustBeFresh && now.After(entry.staleTime) {
			continue
		}
		if best == nil || len(entry.data.NameV) > len(best.data.NameV) ||
			(len(entry.data.NameV) == len(best.data.NameV) && entry.index > best.index) {
			best = entry
		}
	}
	if best != nil {
		c.lru.MoveToFront(best.elem)
	}
	return best
}

func (c *memoryCs) Erase(fullName enc.Name) {
	key := fullName.String()
	if entry, ok := c.byName[key]; ok {
		c.lru.Remove(entry.elem)
		delete(c.byName, key)
	}
}

func (c *memoryCs) Size() int { return len(c.byName) }
