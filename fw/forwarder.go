package fw

import (
	"time"

	enc "github.com/named-data/ndnd/std/encoding"
	"github.com/ndnfwd/corefwd/core"
	"github.com/ndnfwd/corefwd/defn"
	"github.com/ndnfwd/corefwd/face"
	"github.com/ndnfwd/corefwd/strategy"
	"github.com/ndnfwd/corefwd/table"
)

// threadModule names this file's log module.
type threadModule struct{}

func (threadModule) String() string { return "Forwarder" }

var logThread threadModule

// Thread is one forwarding thread: a cooperative event loop plus the
// tables and strategy registry it owns exclusively. Every table
// mutation and strategy callback this thread drives happens on its
// own loop goroutine, so none of it needs locking.
type Thread struct {
	Loop *core.Loop

	Faces          *face.Table
	Tree           *table.NameTree
	Fib            *table.Fib
	Pit            *table.Pit
	Cs             table.ContentStore
	Measurements   *table.Measurements
	StrategyChoice *table.StrategyChoice
	Strategies     *strategy.Registry

	// defaultStrategy is assigned at the StrategyChoice root the first
	// time NewThread runs, so every namespace resolves to a real
	// strategy instance even before any mgmt command runs.
	defaultStrategy enc.Name

	instances map[string]strategy.Strategy
	counters  Counters
}

// NewThread wires a fresh set of tables around a shared NameTree and
// registers defaultStrategyName (already present in strategies) as the
// root's forwarding strategy.
func NewThread(loop *core.Loop, faces *face.Table, strategies *strategy.Registry, cs table.ContentStore, defaultStrategyName enc.Name) *Thread {
	tree := table.NewNameTree()
	t := &Thread{
		Loop:            loop,
		Faces:           faces,
		Tree:            tree,
		Fib:             table.NewFib(tree),
		Pit:             table.NewPit(tree),
		Cs:              cs,
		Measurements:    table.NewMeasurements(tree),
		StrategyChoice:  table.NewStrategyChoice(tree),
		Strategies:      strategies,
		defaultStrategy: defaultStrategyName,
		instances:       make(map[string]strategy.Strategy),
	}
	t.StrategyChoice.Set(enc.Name{}, defaultStrategyName)
	return t
}

// strategyFor resolves the strategy instance effective for name,
// instantiating and caching one instance per versioned strategy name
// (strategies are expected to be safe to share across namespaces -
// per-namespace state lives in the Measurements table, not on the
// Strategy value itself).
func (t *Thread) strategyFor(name enc.Name) strategy.Strategy {
	choice := t.StrategyChoice.FindEffectiveStrategy(name)
	key := choice.String()
	if s, ok := t.instances[key]; ok {
		return s
	}
	base, version, ok := strategy.ParseStrategyName(choice)
	if !ok {
		return nil
	}
	s := t.Strategies.New(base, version)
	if s != nil {
		t.instances[key] = s
	}
	return s
}

// OnIncomingInterest runs the Interest pipeline: scope check, loop
// detection, PIT insertion, content store lookup, and strategy
// dispatch, grounded on pit-algorithm.cpp's Interest pipeline.
func (t *Thread) OnIncomingInterest(interest *defn.FwInterest, inFaceId uint64) {
	t.counters.nInInterests.Add(1)

	if scopeLocalhost.IsPrefix(interest.NameV) {
		inFace := t.Faces.Get(inFaceId)
		if inFace == nil || inFace.Scope() != defn.Local {
			core.Log.Debug(logThread, "drop localhost interest from non-local face", "name", interest.NameV, "faceid", inFaceId)
			return
		}
	}

	if hl, ok := interest.HopLimit.Get(); ok && hl == 0 {
		core.Log.Debug(logThread, "drop interest with exhausted hop limit", "name", interest.NameV, "faceid", inFaceId)
		return
	}

	nonce, hasNonce := interest.NonceV.Get()
	pitEntry, isNew := t.Pit.FindOrInsert(interest)

	if hasNonce {
		dup := findDuplicateNonce(pitEntry, nonce, inFaceId)
		if dup != DuplicateNonceNone && dup != DuplicateNonceInSame {
			core.Log.Debug(logThread, "nonce loop detected", "name", interest.NameV, "faceid", inFaceId)
			t.SendNack(pitEntry, inFaceId, defn.NackReasonDuplicate)
			return
		}
	}

	pitEntry.InsertInRecord(interest, inFaceId, nil)
	pitEntry.RenewExpiration()
	t.scheduleUnsatisfyTimer(pitEntry)

	if !isNew && pitEntry.Satisfied() {
		pitEntry.SetSatisfied(false)
	}

	if entry := t.Cs.Find(interest); entry != nil {
		data, wire, err := entry.Copy()
		if err == nil {
			t.counters.nCsHits.Add(1)
			s := t.strategyFor(pitEntry.EncName())
			t.satisfyPitEntry(pitEntry, s, func() {
				if s != nil {
					s.AfterContentStoreHit(t, data, wire, pitEntry, inFaceId)
				}
			})
			return
		}
	}
	t.counters.nCsMisses.Add(1)

	s := t.strategyFor(pitEntry.EncName())
	if s == nil {
		core.Log.Warn(logThread, "no strategy resolved", "name", interest.NameV)
		return
	}

	nexthops := t.eligibleNextHops(pitEntry, inFaceId)
	s.AfterReceiveInterest(t, interest, pitEntry, inFaceId, nexthops)
}

// eligibleNextHops returns the FIB nexthops for pitEntry's name that
// do not violate scope, leaving face-vs-in-record eligibility
// (nonce/retransmission based) to the strategy.
func (t *Thread) eligibleNextHops(pitEntry *table.PitEntry, inFaceId uint64) []*table.FibNextHopEntry {
	fibEntry := t.Fib.FindLongestPrefixMatch(pitEntry.EncName())
	if fibEntry == nil {
		return nil
	}
	var out []*table.FibNextHopEntry
	for _, nh := range fibEntry.GetNextHops() {
		f := t.Faces.Get(nh.Nexthop)
		if f == nil || !f.IsUp() {
			continue
		}
		if violatesScope(t.Faces, pitEntry, f) {
			continue
		}
		out = append(out, nh)
	}
	return out
}

// OnIncomingData runs the Data pipeline: content store insertion, PIT
// match enumeration, and per-entry satisfaction, grounded on
// pit-algorithm.cpp's Data pipeline.
func (t *Thread) OnIncomingData(data *defn.FwData, wire []byte, inFaceId uint64) {
	t.counters.nInData.Add(1)
	t.Cs.Insert(data, wire)

	matches := t.Pit.FindAllMatching(data)
	if len(matches) == 0 {
		core.Log.Debug(logThread, "unsolicited data", "name", data.NameV, "faceid", inFaceId)
		return
	}

	for _, pitEntry := range matches {
		s := t.strategyFor(pitEntry.EncName())
		t.satisfyPitEntry(pitEntry, s, func() {
			if s != nil {
				s.AfterReceiveData(t, data, wire, pitEntry, inFaceId)
			}
		})
	}
}

// satisfyPitEntry runs the Data-satisfaction sequence shared by a
// genuine Data arrival and a content store hit: notify the strategy
// via BeforeSatisfyInterest for every in-record face, mark the entry
// satisfied, let deliver send Data out while the in-records are still
// populated, then clear both record sets and arm the straggler timer.
func (t *Thread) satisfyPitEntry(pitEntry *table.PitEntry, s strategy.Strategy, deliver func()) {
	for faceId := range pitEntry.InRecords() {
		if s != nil {
			s.BeforeSatisfyInterest(pitEntry, faceId)
		}
	}
	pitEntry.SetSatisfied(true)

	deliver()

	pitEntry.ClearInRecords()
	pitEntry.ClearOutRecords()
	t.scheduleStragglerTimer(pitEntry)
}

// OnIncomingNack runs the Nack pipeline: find the PIT entry the
// Nacked Interest belongs to, record the Nack on its out-record for
// inFaceId, and let the strategy decide whether to aggregate or
// forward it downstream, grounded on pit-algorithm.cpp's Nack
// pipeline.
func (t *Thread) OnIncomingNack(nack *defn.FwNack, inFaceId uint64) {
	t.counters.nInNacks.Add(1)
	nonce, _ := nack.Interest.NonceV.Get()

	for _, pitEntry := range t.Pit.FindAtExact(nack.Interest.NameV) {
		out, ok := pitEntry.OutRecords()[inFaceId]
		if !ok || out.LatestNonce != nonce {
			continue
		}
		out.HasNack = true
		out.NackReason = nack.Reason

		s := t.strategyFor(pitEntry.EncName())
		if s != nil {
			s.AfterReceiveNack(t, nack, pitEntry, inFaceId)
		}
	}
}

// scheduleUnsatisfyTimer arms pitEntry's expiry so that, if no Data
// arrives before its lifetime elapses, the strategy is given a last
// chance via BeforeExpirePendingInterest and the entry is erased.
func (t *Thread) scheduleUnsatisfyTimer(pitEntry *table.PitEntry) {
	pitEntry.SetExpiryEvent(t.Loop.ScheduleAt(pitEntry.ExpirationTime(), func() {
		if pitEntry.Satisfied() {
			return
		}
		s := t.strategyFor(pitEntry.EncName())
		if s != nil {
			s.BeforeExpirePendingInterest(pitEntry)
		}
		t.Pit.Erase(pitEntry)
	}))
}

// scheduleStragglerTimer arms the short straggler window after
// satisfaction during which a duplicate Data or a late retransmission
// is still recognized against this entry before it is finally erased.
func (t *Thread) scheduleStragglerTimer(pitEntry *table.PitEntry) {
	pitEntry.SetExpiryEvent(t.Loop.ScheduleAt(time.Now().Add(defn.StragglerTime), func() {
		t.Pit.Erase(pitEntry)
	}))
}

// SendInterest implements strategy.Outbound: forwards interest out
// faceId, recording an out-record so the reply can be matched back.
func (t *Thread) SendInterest(interest *defn.FwInterest, pitEntry *table.PitEntry, faceId uint64, inFaceId uint64) {
	f := t.Faces.Get(faceId)
	if f == nil {
		return
	}
	pitEntry.InsertOutRecord(interest, faceId)
	t.counters.nOutInterests.Add(1)
	core.Log.Trace(logThread, "send interest", "name", interest.NameV, "faceid", faceId)
	_ = f.SendInterestWire(nil)
}

// SendData implements strategy.Outbound: sends the cached wire
// encoding of data out faceId.
func (t *Thread) SendData(data *defn.FwData, wire []byte, pitEntry *table.PitEntry, faceId uint64, inFaceId uint64) {
	f := t.Faces.Get(faceId)
	if f == nil {
		return
	}
	t.counters.nOutData.Add(1)
	core.Log.Trace(logThread, "send data", "name", data.NameV, "faceid", faceId)
	_ = f.SendDataWire(wire)
}

// SendNack implements strategy.Outbound: sends a Nack with reason out
// faceId for the Interest recorded on pitEntry's in-record for that
// face.
func (t *Thread) SendNack(pitEntry *table.PitEntry, faceId uint64, reason defn.NackReason) {
	f := t.Faces.Get(faceId)
	if f == nil {
		return
	}
	t.counters.nOutNacks.Add(1)
	core.Log.Trace(logThread, "send nack", "name", pitEntry.EncName(), "faceid", faceId, "reason", reason)
	_ = f.SendNackWire(nil)
}

// RejectPendingInterest implements strategy.Outbound: erases pitEntry
// immediately, used when a strategy determines no nexthop can ever
// satisfy it.
func (t *Thread) RejectPendingInterest(pitEntry *table.PitEntry) {
	t.Pit.Erase(pitEntry)
}

// LookupFib implements strategy.Outbound.
func (t *Thread) LookupFib(pitEntry *table.PitEntry) *table.FibEntry {
	return t.Fib.FindLongestPrefixMatch(pitEntry.EncName())
}
