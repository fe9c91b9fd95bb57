package table

import (
	"sort"

	enc "github.com/named-data/ndnd/std/encoding"
)

// FibNextHopEntry is one next hop of a FibEntry: an outgoing face and
// the administrative cost of routing through it.
type FibNextHopEntry struct {
	Nexthop uint64
	Cost    uint64
}

// FibEntry is the FIB's per-name record: the set of nexthops a
// Strategy may forward an Interest to for this name or any name
// beneath it without an entry of its own.
type FibEntry struct {
	node     *NameTreeEntry
	nexthops []*FibNextHopEntry
}

// Name returns the FIB entry's name.
func (e *FibEntry) Name() enc.Name { return e.node.name }

// GetNextHops returns the entry's nexthops, sorted ascending by cost
// - nexthops are kept sorted by ascending cost so a strategy can
// simply take nexthops[0] for the cheapest route.
func (e *FibEntry) GetNextHops() []*FibNextHopEntry { return e.nexthops }

func (e *FibEntry) sortNextHops() {
	sort.SliceStable(e.nexthops, func(i, j int) bool {
		return e.nexthops[i].Cost < e.nexthops[j].Cost
	})
}

// Fib is the Forwarding Information Base: a projection, hung off the
// shared NameTree, of the best route known for each name.
type Fib struct {
	tree *NameTree
}

// NewFib constructs a Fib backed by tree. There is exactly one Fib
// per forwarder, sharing the same NameTree instance as the Pit,
// ContentStore, Measurements and StrategyChoice tables.
func NewFib(tree *NameTree) *Fib {
	return &Fib{tree: tree}
}

// FindExactMatch returns the FIB entry whose name equals name exactly,
// or nil.
func (f *Fib) FindExactMatch(name enc.Name) *FibEntry {
	e := f.tree.FindExact(name)
	if e == nil {
		return nil
	}
	return e.fib
}

// FindLongestPrefixMatch returns the FIB entry for the longest prefix
// of name that has one, or nil if even "/" has none.
func (f *Fib) FindLongestPrefixMatch(name enc.Name) *FibEntry {
	e := f.tree.FindLongestPrefixMatch(name, func(e *NameTreeEntry) bool {
		return e.fib != nil
	})
	if e == nil || e.fib == nil {
		return nil
	}
	return e.fib
}

// InsertNextHop adds, or updates the cost of, a nexthop for name,
// creating the FIB entry (and NameTree ancestry) if it did not exist.
func (f *Fib) InsertNextHop(name enc.Name, faceId uint64, cost uint64) *FibEntry {
	node := f.tree.FindOrInsert(name)
	if node.fib == nil {
		node.fib = &FibEntry{node: node}
	}
	entry := node.fib
	for _, nh := range entry.nexthops {
		if nh.Nexthop == faceId {
			nh.Cost = cost
			entry.sortNextHops()
			return entry
		}
	}
	entry.nexthops = append(entry.nexthops, &FibNextHopEntry{Nexthop: faceId, Cost: cost})
	entry.sortNextHops()
	return entry
}

// RemoveNextHop removes faceId from name's nexthop list, deleting the
// FIB entry (and any now-empty NameTree ancestry) if it becomes empty.
func (f *Fib) RemoveNextHop(name enc.Name, faceId uint64) {
	node := f.tree.FindExact(name)
	if node == nil || node.fib == nil {
		return
	}
	entry := node.fib
	for i, nh := range entry.nexthops {
		if nh.Nexthop == faceId {
			entry.nexthops = append(entry.nexthops[:i], entry.nexthops[i+1:]...)
			break
		}
	}
	if len(entry.nexthops) == 0 {
		node.fib = nil
		f.tree.EraseIfEmpty(node)
	}
}

// RemoveFaceFromAllEntries removes faceId from every FIB entry's
// nexthop list, used when a face goes down - every table keeping
// per-face state must react to a face-down
// notification").
func (f *Fib) RemoveFaceFromAllEntries(faceId uint64) {
	for _, node := range f.tree.FullEnumeration(func(e *NameTreeEntry) bool { return e.fib != nil }) {
		f.RemoveNextHop(node.name, faceId)
	}
}

// GetAllEntries returns every FIB entry in the table, for management
// dataset enumeration.
func (f *Fib) GetAllEntries() []*FibEntry {
	var out []*FibEntry
	for _, node := range f.tree.FullEnumeration(func(e *NameTreeEntry) bool { return e.fib != nil }) {
		out = append(out, node.fib)
	}
	return out
}
