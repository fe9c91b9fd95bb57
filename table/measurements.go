package table

import (
	"time"

	enc "github.com/named-data/ndnd/std/encoding"
	"github.com/ndnfwd/corefwd/core"
)

// MeasurementsDefaultLifetime is how long a freshly created
// MeasurementsEntry survives without being extended.
const MeasurementsDefaultLifetime = 4 * time.Second

// MeasurementsEntry is the Measurements table's per-name record: a
// bag of strategy-defined info slots, type-indexed so unrelated
// strategies never collide, plus an expiry that any strategy may push
// out but never pull in - extension is monotonic, so calling extend
// with an earlier time than the current expiry is a
// no-op").
type MeasurementsEntry struct {
	node   *NameTreeEntry
	info   map[string]any
	expiry time.Time
	event  interface{ Cancel() }
}

// Name returns the entry's name.
func (e *MeasurementsEntry) Name() enc.Name { return e.node.name }

// Get returns the strategy-info value stored under key, if any.
func (e *MeasurementsEntry) Get(key string) (any, bool) {
	v, ok := e.info[key]
	return v, ok
}

// Set stores a strategy-info value under key, replacing any previous
// value of a possibly different type.
func (e *MeasurementsEntry) Set(key string, v any) {
	e.info[key] = v
}

// ClearInfo discards every strategy-owned value on this entry, called
// when the StrategyChoice governing its namespace changes so a new
// strategy never observes stale state left by the old one.
func (e *MeasurementsEntry) ClearInfo() { e.info = make(map[string]any) }

// Expiry returns the entry's current expiry time.
func (e *MeasurementsEntry) Expiry() time.Time { return e.expiry }

// Extend pushes the entry's expiry out to at least now+d, never
// pulling it in (the monotonic rule above).
func (e *MeasurementsEntry) Extend(d time.Duration) {
	candidate := time.Now().Add(d)
	if candidate.After(e.expiry) {
		e.expiry = candidate
	}
}

// SetExpiryEvent attaches the cancellation handle for the entry's
// expiry timer, cancelling any previous one first.
func (e *MeasurementsEntry) SetExpiryEvent(ev interface{ Cancel() }) {
	if e.event != nil {
		e.event.Cancel()
	}
	e.event = ev
}

// Measurements is the per-name strategy measurements table hung off
// the shared NameTree, where a strategy can keep per-namespace state
// (per-face RTT/loss stats, for example) across Interest and Data
// events. The best-route strategy in this module does not use it.
type Measurements struct {
	tree *NameTree
}

// NewMeasurements constructs a Measurements table backed by tree.
func NewMeasurements(tree *NameTree) *Measurements {
	return &Measurements{tree: tree}
}

// FindOrInsert returns the entry for name, creating one with a fresh
// default-lifetime expiry if it did not already exist.
func (m *Measurements) FindOrInsert(name enc.Name) *MeasurementsEntry {
	node := m.tree.FindOrInsert(name)
	if node.measurements == nil {
		node.measurements = &MeasurementsEntry{
			node:   node,
			info:   make(map[string]any),
			expiry: time.Now().Add(MeasurementsDefaultLifetime),
		}
	}
	return node.measurements
}

// FindLongestPrefixMatch returns the measurements entry for the
// longest matching prefix of name, or nil.
func (m *Measurements) FindLongestPrefixMatch(name enc.Name) *MeasurementsEntry {
	e := m.tree.FindLongestPrefixMatch(name, func(e *NameTreeEntry) bool {
		return e.measurements != nil
	})
	if e == nil {
		return nil
	}
	return e.measurements
}

// Erase removes an entry whose expiry has passed. Called from the
// owning loop's scheduled expiry event.
func (m *Measurements) Erase(entry *MeasurementsEntry) {
	node := entry.node
	node.measurements = nil
	m.tree.EraseIfEmpty(node)
}

// scheduleExpiry re-arms entry's expiry timer on loop, replacing any
// existing one, and is called whenever the entry's expiry is set or
// extended so the sweep always reflects the latest deadline.
func (m *Measurements) scheduleExpiry(loop *core.Loop, entry *MeasurementsEntry) {
	entry.SetExpiryEvent(loop.ScheduleAt(entry.expiry, func() {
		if time.Now().Before(entry.expiry) {
			// expiry was extended after this timer was armed but
			// before it fired; rearm instead of erasing.
			m.scheduleExpiry(loop, entry)
			return
		}
		m.Erase(entry)
	}))
}

// InsertAndSchedule is the usual way strategies obtain a measurements
// entry: get-or-create it and make sure its expiry sweep is armed on
// loop.
func (m *Measurements) InsertAndSchedule(loop *core.Loop, name enc.Name) *MeasurementsEntry {
	entry := m.FindOrInsert(name)
	m.scheduleExpiry(loop, entry)
	return entry
}
