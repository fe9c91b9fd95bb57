package table

import (
	"bytes"
	"time"

	"github.com/dgraph-io/badger/v4"
	enc "github.com/named-data/ndnd/std/encoding"
	"github.com/ndnfwd/corefwd/defn"
)

// badgerCs is a ContentStore backed by an on-disk badger database,
// selected via the tables.cs_policy config key. It
// trades the in-memory store's microsecond lookup for surviving a
// daemon restart with a warm cache, which is useful on a repeater
// that reboots more often than its upstream content changes.
//
// Keys are the Data's full name wire encoding; values are a
// fixed-width freshness-expiry (unix nanos, big-endian) followed by
// the raw Data wire. Eviction is FIFO by insertion order, tracked in
// an in-memory slice, since badger itself has no notion of recency.
type badgerCs struct {
	db       *badger.DB
	capacity int
	order    []string // fifo insertion order of keys, oldest first
}

// NewBadgerContentStore opens (or creates) a badger database at dir
// and wraps it as a ContentStore.
func NewBadgerContentStore(dir string, capacity int) (ContentStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	c := &badgerCs{db: db, capacity: capacity}
	_ = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			c.order = append(c.order, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	return c, nil
}

// Close releases the underlying badger database.
func (c *badgerCs) Close() error { return c.db.Close() }

func encodeCsValue(expiry time.Time, wire []byte) []byte {
	buf := make([]byte, 8+len(wire))
	nanos := uint64(expiry.UnixNano())
	for i := 0; i < 8; i++ {
		buf[i] = byte(nanos >> (56 - 8*i))
	}
	copy(buf[8:], wire)
	return buf
}

func decodeCsValue(v []byte) (time.Time, []byte) {
	var nanos uint64
	for i := 0; i < 8; i++ {
		nanos = nanos<<8 | uint64(v[i])
	}
	return time.Unix(0, int64(nanos)), v[8:]
}

func (c *badgerCs) Insert(data *defn.FwData, wire []byte) {
	key := data.FullName().BytesInner()
	val := encodeCsValue(data.FreshnessExpiry, wire)

	isNew := true
	_ = c.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == nil {
			isNew = false
		}
		return txn.Set(key, val)
	})
	if isNew {
		c.order = append(c.order, string(key))
		c.evictIfNeeded()
	}
}

func (c *badgerCs) evictIfNeeded() {
	for c.capacity > 0 && len(c.order) > c.capacity {
		victim := c.order[0]
		c.order = c.order[1:]
		_ = c.db.Update(func(txn *badger.Txn) error {
			return txn.Delete([]byte(victim))
		})
	}
}

func (c *badgerCs) Find(interest *defn.FwInterest) *baseCsEntry {
	now := time.Now()
	var best *baseCsEntry

	_ = c.db.View(func(txn *badger.Txn) error {
		if !interest.CanBePrefix {
			key := interest.NameV.BytesInner()
			item, err := txn.Get(key)
			if err != nil {
				return nil
			}
			return item.Value(func(v []byte) error {
				expiry, wire := decodeCsValue(v)
				if interest.MustBeFresh && now.After(expiry) {
					return nil
				}
				best = &baseCsEntry{
					data:      &defn.FwData{NameV: interest.NameV, FreshnessExpiry: expiry, Content: wire},
					wire:      append([]byte(nil), wire...),
					staleTime: expiry,
				}
				return nil
			})
		}

		prefix := interest.NameV.BytesInner()
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := item.KeyCopy(nil)
			_ = item.Value(func(v []byte) error {
				expiry, wire := decodeCsValue(v)
				if interest.MustBeFresh && now.After(expiry) {
					return nil
				}
				if best == nil || bytes.Compare(key, []byte(best.data.NameV.BytesInner())) > 0 {
					best = &baseCsEntry{
						data:      &defn.FwData{NameV: interest.NameV, FreshnessExpiry: expiry, Content: wire},
						wire:      append([]byte(nil), wire...),
						staleTime: expiry,
					}
				}
				return nil
			})
		}
		return nil
	})
	return best
}

func (c *badgerCs) Erase(fullName enc.Name) {
	key := fullName.BytesInner()
	_ = c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
	for i, k := range c.order {
		if k == string(key) {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *badgerCs) Size() int { return len(c.order) }
