package strategy

import (
	"time"

	enc "github.com/named-data/ndnd/std/encoding"
	"github.com/ndnfwd/corefwd/core"
	"github.com/ndnfwd/corefwd/defn"
	"github.com/ndnfwd/corefwd/table"
)

// bestRouteModule names this file's log module.
type bestRouteModule struct{}

func (bestRouteModule) String() string { return "BestRouteStrategy" }

var logBestRoute bestRouteModule

// BestRouteStrategyName is the versioned strategy name registered
// below, grounded on best-route-strategy2.cpp's
// "/localhost/nfd/strategy/best-route/v2" (renamed to v1 here since
// this is a fresh implementation, not a second revision of one).
var BestRouteStrategyName = enc.Name{
	enc.NewGenericComponent("localhost"),
	enc.NewGenericComponent("nfd"),
	enc.NewGenericComponent("strategy"),
	enc.NewGenericComponent("best-route"),
	enc.NewVersionComponent(1),
}

// BestRouteStrategy forwards each Interest to the single best-cost
// eligible nexthop, retrying other nexthops on retransmission
// (grounded directly on best-route-strategy2.cpp).
type BestRouteStrategy struct {
	Base
	retx *ExponentialRetxSuppression
}

// NewBestRouteStrategy constructs the best-route strategy with a
// fresh exponential retransmission-suppression engine.
func NewBestRouteStrategy() Strategy {
	return &BestRouteStrategy{
		Base: NewBase(BestRouteStrategyName),
		retx: NewExponentialRetxSuppression(),
	}
}

// RegisterInto registers this strategy's factory into reg under the
// base name "best-route", version 1 - the Go analogue of
// NFD_REGISTER_STRATEGY.
func RegisterInto(reg *Registry) {
	reg.Register("best-route", 1, NewBestRouteStrategy)
}

// nextHopEligible reports whether nexthop may be used to forward the
// Interest on pitEntry, excluding the face the Interest itself arrived
// on and any nexthop this pitEntry's namespace may not cross into
// (scope checking is the forwarder's job before nexthops are ever
// handed to a strategy, so only the downstream-face check remains
// here). When wantUnused is true, a nexthop with a still-live
// out-record is also excluded.
func nextHopEligible(pitEntry *table.PitEntry, nexthop *table.FibNextHopEntry, inFaceId uint64, wantUnused bool, now time.Time) bool {
	if nexthop.Nexthop == inFaceId {
		return false
	}
	if wantUnused {
		if out, ok := pitEntry.OutRecords()[nexthop.Nexthop]; ok && out.ExpirationTime.After(now) {
			return false
		}
	}
	return true
}

func findEligible(pitEntry *table.PitEntry, nexthops []*table.FibNextHopEntry, inFaceId uint64, wantUnused bool, now time.Time) *table.FibNextHopEntry {
	var best *table.FibNextHopEntry
	for _, nh := range nexthops {
		if !nextHopEligible(pitEntry, nh, inFaceId, wantUnused, now) {
			continue
		}
		if best == nil || nh.Cost < best.Cost {
			best = nh
		}
	}
	return best
}

// findEligibleWithEarliestOutRecord picks, among eligible nexthops
// that already have an out-record, the one whose out-record was sent
// longest ago - i.e. the one due for a retry soonest.
func findEligibleWithEarliestOutRecord(pitEntry *table.PitEntry, nexthops []*table.FibNextHopEntry, inFaceId uint64) *table.FibNextHopEntry {
	var best *table.FibNextHopEntry
	var earliest time.Time
	for _, nh := range nexthops {
		if !nextHopEligible(pitEntry, nh, inFaceId, false, time.Time{}) {
			continue
		}
		out, ok := pitEntry.OutRecords()[nh.Nexthop]
		if !ok {
			continue
		}
		if best == nil || out.LatestTimestamp.Before(earliest) {
			best = nh
			earliest = out.LatestTimestamp
		}
	}
	return best
}

// AfterReceiveInterest implements the core best-route decision:
// suppress an over-frequent retransmission, forward a genuinely new
// Interest to the cheapest eligible nexthop, or retry an eligible
// nexthop on a true retransmission (grounded line-for-line on
// best-route-strategy2.cpp's afterReceiveInterest).
func (s *BestRouteStrategy) AfterReceiveInterest(
	out Outbound,
	interest *defn.FwInterest,
	pitEntry *table.PitEntry,
	inFaceId uint64,
	nexthops []*table.FibNextHopEntry,
) {
	suppression := s.retx.Decide(pitEntry, inFaceId)
	if suppression == RetxSuppress {
		core.Log.Debug(logBestRoute, "suppressed retransmission", "name", interest.NameV, "faceid", inFaceId)
		return
	}

	now := time.Now()

	if suppression == RetxNew {
		nh := findEligible(pitEntry, nexthops, inFaceId, false, now)
		if nh == nil {
			core.Log.Debug(logBestRoute, "no nexthop", "name", interest.NameV, "faceid", inFaceId)
			out.SendNack(pitEntry, inFaceId, defn.NackReasonNoRoute)
			out.RejectPendingInterest(pitEntry)
			return
		}
		out.SendInterest(interest, pitEntry, nh.Nexthop, inFaceId)
		core.Log.Debug(logBestRoute, "new pit entry forwarded", "name", interest.NameV, "to", nh.Nexthop)
		return
	}

	if nh := findEligible(pitEntry, nexthops, inFaceId, true, now); nh != nil {
		out.SendInterest(interest, pitEntry, nh.Nexthop, inFaceId)
		core.Log.Debug(logBestRoute, "retransmit to unused nexthop", "name", interest.NameV, "to", nh.Nexthop)
		return
	}

	if nh := findEligibleWithEarliestOutRecord(pitEntry, nexthops, inFaceId); nh != nil {
		out.SendInterest(interest, pitEntry, nh.Nexthop, inFaceId)
		core.Log.Debug(logBestRoute, "retransmit retry", "name", interest.NameV, "to", nh.Nexthop)
		return
	}

	core.Log.Debug(logBestRoute, "retransmit, no eligible nexthop", "name", interest.NameV)
}

// AfterReceiveNack aggregates Nacks across every out-record on
// pitEntry: once every downstream that was forwarded to has Nacked,
// a single aggregated Nack (carrying the least-severe reason seen) is
// sent back; if exactly one non-Nacked out-record remains and it is
// also an in-record (a bidirectional face), the Nack is forwarded to
// it immediately (grounded on best-route-strategy2.cpp's
// afterReceiveNack).
func (s *BestRouteStrategy) AfterReceiveNack(out Outbound, nack *defn.FwNack, pitEntry *table.PitEntry, inFaceId uint64) {
	notNackedCount := 0
	var lastNotNackedFace uint64
	leastSevere := defn.NackReasonNone

	for faceId, outRecord := range pitEntry.OutRecords() {
		if !outRecord.HasNack {
			notNackedCount++
			lastNotNackedFace = faceId
			continue
		}
		leastSevere = defn.LessSevere(leastSevere, outRecord.NackReason)
	}

	if notNackedCount == 1 {
		if _, isAlsoDownstream := pitEntry.InRecords()[lastNotNackedFace]; isAlsoDownstream {
			core.Log.Debug(logBestRoute, "bidirectional nack", "name", nack.Interest.NameV, "to", lastNotNackedFace)
			out.SendNack(pitEntry, lastNotNackedFace, leastSevere)
			return
		}
	}

	if notNackedCount > 0 {
		core.Log.Debug(logBestRoute, "waiting for more nacks", "name", nack.Interest.NameV, "waiting", notNackedCount)
		return
	}

	core.Log.Debug(logBestRoute, "nack to all downstreams", "name", nack.Interest.NameV, "reason", leastSevere)
	for faceId := range pitEntry.InRecords() {
		out.SendNack(pitEntry, faceId, leastSevere)
	}
}

// AfterContentStoreHit returns the cached Data to every face in the
// PIT entry's in-records, the same as AfterReceiveData - a cache hit
// satisfies the entry exactly as a genuine Data arrival would.
func (s *BestRouteStrategy) AfterContentStoreHit(out Outbound, data *defn.FwData, wire []byte, pitEntry *table.PitEntry, inFaceId uint64) {
	core.Log.Trace(logBestRoute, "content store hit", "name", data.NameV, "faceid", inFaceId)
	for faceId := range pitEntry.InRecords() {
		out.SendData(data, wire, pitEntry, faceId, inFaceId)
	}
}

// AfterReceiveData forwards the Data to every face in the PIT entry's
// in-records; best-route does not distinguish downstreams.
func (s *BestRouteStrategy) AfterReceiveData(out Outbound, data *defn.FwData, wire []byte, pitEntry *table.PitEntry, inFaceId uint64) {
	for faceId := range pitEntry.InRecords() {
		out.SendData(data, wire, pitEntry, faceId, inFaceId)
	}
}
