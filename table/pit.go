package table

import (
	"time"

	enc "github.com/named-data/ndnd/std/encoding"
	"github.com/ndnfwd/corefwd/defn"
)

// PitInRecord tracks one face an Interest arrived on, so Data (or a
// Nack) can later be sent back out that face.
type PitInRecord struct {
	Face            uint64
	LatestNonce     uint32
	LatestTimestamp time.Time
	LatestInterest  *defn.FwInterest
	PitToken        []byte
	ExpirationTime  time.Time
}

// PitOutRecord tracks one face an Interest was forwarded out, so a
// later Nack or Data arriving on that face can be matched back to the
// request that caused it.
type PitOutRecord struct {
	Face            uint64
	LatestNonce     uint32
	LatestTimestamp time.Time
	LatestInterest  *defn.FwInterest
	ExpirationTime  time.Time
	NackReason      defn.NackReason
	HasNack         bool

	// SuppressionInterval is the current retransmission-suppression
	// backoff interval for this out-record, maintained by whichever
	// strategy governs the entry's namespace. It lives
	// here rather than in a strategy-owned side table because at most
	// one strategy ever acts on a given PIT entry at a time.
	SuppressionInterval time.Duration
}

// PitEntry is the Pit's per-(name, selectors) record: the set of
// in-records and out-records for one Interest that has not yet been
// fully satisfied, expired, or straggled off.
type PitEntry struct {
	node              *NameTreeEntry
	encname           enc.Name
	canBePrefix       bool
	mustBeFresh       bool
	forwardingHintNew enc.Name
	selectors         defn.Selectors

	inRecords  map[uint64]*PitInRecord
	outRecords map[uint64]*PitOutRecord

	expirationTime time.Time
	satisfied      bool
	token          uint32

	// strategyInfo holds the values a strategy has chosen to keep on
	// this entry, type-indexed by key like MeasurementsEntry.info.
	// Cleared whenever the StrategyChoice governing this entry's
	// namespace changes.
	strategyInfo map[string]any

	expiryEvent interface{ Cancel() }
}

// EncName returns the entry's name.
func (e *PitEntry) EncName() enc.Name { return e.encname }

// CanBePrefix returns the entry's CanBePrefix selector.
func (e *PitEntry) CanBePrefix() bool { return e.canBePrefix }

// MustBeFresh returns the entry's MustBeFresh selector.
func (e *PitEntry) MustBeFresh() bool { return e.mustBeFresh }

// ForwardingHintNew returns the entry's forwarding hint, if any.
func (e *PitEntry) ForwardingHintNew() enc.Name { return e.forwardingHintNew }

// InRecords returns the entry's in-records keyed by face.
func (e *PitEntry) InRecords() map[uint64]*PitInRecord { return e.inRecords }

// OutRecords returns the entry's out-records keyed by face.
func (e *PitEntry) OutRecords() map[uint64]*PitOutRecord { return e.outRecords }

// ExpirationTime returns the entry's current expiration time: the
// latest of its in-records' expirations: a PIT entry's lifetime is
// the maximum over all of its in-records.
func (e *PitEntry) ExpirationTime() time.Time { return e.expirationTime }

func (e *PitEntry) setExpirationTime(t time.Time) { e.expirationTime = t }

// RenewExpiration recomputes the entry's expiration time as the
// maximum of its current value and every in-record's expiration, so
// that a new or extended in-record always extends the entry's
// unsatisfy timer and never shortens it.
func (e *PitEntry) RenewExpiration() {
	max := e.expirationTime
	for _, r := range e.inRecords {
		if r.ExpirationTime.After(max) {
			max = r.ExpirationTime
		}
	}
	e.setExpirationTime(max)
}

// StrategyInfo returns the value a strategy previously stored under
// key on this entry, if any.
func (e *PitEntry) StrategyInfo(key string) (any, bool) {
	v, ok := e.strategyInfo[key]
	return v, ok
}

// SetStrategyInfo stores a strategy-owned value under key.
func (e *PitEntry) SetStrategyInfo(key string, v any) {
	e.strategyInfo[key] = v
}

// ClearStrategyInfo discards every strategy-owned value on this
// entry, called when the StrategyChoice governing its namespace
// changes so a new strategy never observes stale state left by the
// old one.
func (e *PitEntry) ClearStrategyInfo() {
	e.strategyInfo = make(map[string]any)
}

// Satisfied reports whether Data has already been returned for this
// entry (it is kept around briefly afterward as a straggler, to
// absorb duplicate Data/loops.
func (e *PitEntry) Satisfied() bool { return e.satisfied }

// SetSatisfied marks the entry's satisfaction state.
func (e *PitEntry) SetSatisfied(s bool) { e.satisfied = s }

// Token returns the entry's PIT token, an opaque per-entry value faces
// may echo back to let the forwarder skip a full name lookup.
func (e *PitEntry) Token() uint32 { return e.token }

// ClearInRecords removes all in-records.
func (e *PitEntry) ClearInRecords() { e.inRecords = make(map[uint64]*PitInRecord) }

// ClearOutRecords removes all out-records.
func (e *PitEntry) ClearOutRecords() { e.outRecords = make(map[uint64]*PitOutRecord) }

// InsertInRecord creates or updates the in-record for faceId, storing
// the Interest's nonce and pitToken, and returns the record, whether a
// record for this face already existed, and (if so) its previous
// nonce - used by duplicate-nonce detection on retransmission
// (used by nonce loop detection).
func (e *PitEntry) InsertInRecord(interest *defn.FwInterest, faceId uint64, pitToken []byte) (*PitInRecord, bool, uint32) {
	now := time.Now()
	nonce, _ := interest.NonceV.Get()

	if existing, ok := e.inRecords[faceId]; ok {
		prevNonce := existing.LatestNonce
		existing.LatestNonce = nonce
		existing.LatestTimestamp = now
		existing.LatestInterest = interest
		existing.PitToken = pitToken
		existing.ExpirationTime = now.Add(interest.Lifetime())
		return existing, true, prevNonce
	}

	record := &PitInRecord{
		Face:            faceId,
		LatestNonce:     nonce,
		LatestTimestamp: now,
		LatestInterest:  interest,
		PitToken:        pitToken,
		ExpirationTime:  now.Add(interest.Lifetime()),
	}
	e.inRecords[faceId] = record
	return record, false, 0
}

// InsertOutRecord creates or updates the out-record for faceId.
func (e *PitEntry) InsertOutRecord(interest *defn.FwInterest, faceId uint64) *PitOutRecord {
	now := time.Now()
	nonce, _ := interest.NonceV.Get()

	if existing, ok := e.outRecords[faceId]; ok {
		existing.LatestNonce = nonce
		existing.LatestTimestamp = now
		existing.LatestInterest = interest
		existing.ExpirationTime = now.Add(interest.Lifetime())
		existing.HasNack = false
		return existing
	}

	record := &PitOutRecord{
		Face:            faceId,
		LatestNonce:     nonce,
		LatestTimestamp: now,
		LatestInterest:  interest,
		ExpirationTime:  now.Add(interest.Lifetime()),
	}
	e.outRecords[faceId] = record
	return record
}

// Pit is the Pending Interest Table: the set of Interests forwarded
// downstream (toward content) but not yet satisfied, indexed through
// the shared NameTree by (name, selectors).
type Pit struct {
	tree    *NameTree
	nextTok uint32
}

// NewPit constructs a Pit backed by tree.
func NewPit(tree *NameTree) *Pit {
	return &Pit{tree: tree}
}

// FindOrInsert returns the PIT entry matching (interest.NameV,
// interest.CanBePrefix, interest.MustBeFresh, selectors), creating one
// if none of the existing entries at that name collapse with it
// (two Interests collapse into one PIT entry when they share a
// name and an equal selector set).
func (p *Pit) FindOrInsert(interest *defn.FwInterest) (entry *PitEntry, isNew bool) {
	node := p.tree.FindOrInsert(interest.NameV)
	for _, e := range node.pitEntries {
		if e.canBePrefix == interest.CanBePrefix &&
			e.mustBeFresh == interest.MustBeFresh &&
			e.selectors.Equal(interest.Selectors) {
			return e, false
		}
	}

	p.nextTok++
	entry := &PitEntry{
		node:              node,
		encname:           interest.NameV,
		canBePrefix:       interest.CanBePrefix,
		mustBeFresh:       interest.MustBeFresh,
		forwardingHintNew: interest.ForwardingHintNew,
		selectors:         interest.Selectors,
		inRecords:         make(map[uint64]*PitInRecord),
		outRecords:        make(map[uint64]*PitOutRecord),
		expirationTime:    time.Now().Add(interest.Lifetime()),
		strategyInfo:      make(map[string]any),
		token:             p.nextTok,
	}
	node.pitEntries = append(node.pitEntries, entry)
	return entry, true
}

// FindAtExact returns the PIT entries attached directly to name, with
// no prefix matching. Used by the Nack pipeline, which looks up the
// Nacked Interest's own name rather than a Data's full name.
func (p *Pit) FindAtExact(name enc.Name) []*PitEntry {
	node := p.tree.FindExact(name)
	if node == nil {
		return nil
	}
	return node.pitEntries
}

// FindAllMatching returns every PIT entry whose name is a prefix of
// (or equal to) data's full name and whose CanBePrefix/MustBeFresh
// selectors are satisfied - i.e. every PIT entry data would satisfy
// (the Data pipeline's "find the PIT entries satisfied by this
// Data" step).
func (p *Pit) FindAllMatching(data *defn.FwData) []*PitEntry {
	now := time.Now()
	var out []*PitEntry
	full := data.FullName()
	for i := len(full); i >= 0; i-- {
		node := p.tree.FindExact(full.Prefix(i))
		if node == nil {
			continue
		}
		for _, e := range node.pitEntries {
			interest := &defn.FwInterest{
				NameV:       e.encname,
				CanBePrefix: e.canBePrefix,
				MustBeFresh: e.mustBeFresh,
			}
			if interest.Matches(data, now) {
				out = append(out, e)
			}
		}
	}
	return out
}

// Erase removes entry from the PIT, cancelling its expiry timer if it
// has one and dropping the owning NameTree node if it becomes empty.
func (p *Pit) Erase(entry *PitEntry) {
	if entry.expiryEvent != nil {
		entry.expiryEvent.Cancel()
	}
	node := entry.node
	for i, e := range node.pitEntries {
		if e == entry {
			node.pitEntries = append(node.pitEntries[:i], node.pitEntries[i+1:]...)
			break
		}
	}
	p.tree.EraseIfEmpty(node)
}

// SetExpiryEvent attaches a cancellation handle for the entry's
// unsatisfy/straggler timer, cancelling any handle previously attached
// (replacing a timer must cancel the old handle first).
func (e *PitEntry) SetExpiryEvent(ev interface{ Cancel() }) {
	if e.expiryEvent != nil {
		e.expiryEvent.Cancel()
	}
	e.expiryEvent = ev
}

// Size returns the number of live PIT entries.
func (p *Pit) Size() int {
	total := 0
	for _, node := range p.tree.FullEnumeration(func(e *NameTreeEntry) bool { return len(e.pitEntries) > 0 }) {
		total += len(node.pitEntries)
	}
	return total
}
