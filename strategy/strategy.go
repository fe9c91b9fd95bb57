// Package strategy defines the pluggable forwarding-decision interface
// and its built-in implementations.
package strategy

import (
	enc "github.com/named-data/ndnd/std/encoding"
	"github.com/ndnfwd/corefwd/defn"
	"github.com/ndnfwd/corefwd/table"
)

// Outbound is the set of primitives a Strategy uses to act on the
// forwarder's behalf: send packets and reject pending Interests. It is
// implemented by the forwarder (fw.Thread in package fw) and passed
// into every Strategy so that strategies never touch faces directly
// a strategy never writes to a table or a face directly; it only
// calls back into the outbound primitives.
type Outbound interface {
	SendInterest(interest *defn.FwInterest, pitEntry *table.PitEntry, faceId uint64, inFaceId uint64)
	SendData(data *defn.FwData, wire []byte, pitEntry *table.PitEntry, faceId uint64, inFaceId uint64)
	SendNack(pitEntry *table.PitEntry, faceId uint64, reason defn.NackReason)
	RejectPendingInterest(pitEntry *table.PitEntry)
	LookupFib(pitEntry *table.PitEntry) *table.FibEntry
}

// Strategy is the forwarding-decision interface every namespace is
// bound to through the StrategyChoice table. Every
// callback receives the Outbound handle to act through; callbacks
// left at their default (embedding Base) are no-ops, matching the
// teacher's pattern of strategies overriding only what they need.
type Strategy interface {
	// Name returns the strategy's versioned name, e.g.
	// /localhost/nfd/strategy/best-route/v1.
	Name() enc.Name

	AfterReceiveInterest(out Outbound, interest *defn.FwInterest, pitEntry *table.PitEntry, inFaceId uint64, nexthops []*table.FibNextHopEntry)
	AfterContentStoreHit(out Outbound, data *defn.FwData, wire []byte, pitEntry *table.PitEntry, inFaceId uint64)
	AfterReceiveData(out Outbound, data *defn.FwData, wire []byte, pitEntry *table.PitEntry, inFaceId uint64)
	AfterReceiveNack(out Outbound, nack *defn.FwNack, pitEntry *table.PitEntry, inFaceId uint64)
	BeforeSatisfyInterest(pitEntry *table.PitEntry, inFaceId uint64)
	BeforeExpirePendingInterest(pitEntry *table.PitEntry)
}

// Base provides no-op defaults for every Strategy callback a concrete
// strategy does not need to override, mirroring NFD's StrategyBase
// embedding pattern.
type Base struct {
	name enc.Name
}

// NewBase constructs a Base carrying the given versioned strategy
// name.
func NewBase(name enc.Name) Base { return Base{name: name} }

func (b Base) Name() enc.Name { return b.name }

func (Base) AfterReceiveInterest(Outbound, *defn.FwInterest, *table.PitEntry, uint64, []*table.FibNextHopEntry) {
}
func (Base) AfterContentStoreHit(Outbound, *defn.FwData, []byte, *table.PitEntry, uint64) {}
func (Base) AfterReceiveData(Outbound, *defn.FwData, []byte, *table.PitEntry, uint64)     {}
func (Base) AfterReceiveNack(Outbound, *defn.FwNack, *table.PitEntry, uint64)             {}
func (Base) BeforeSatisfyInterest(*table.PitEntry, uint64)                                {}
func (Base) BeforeExpirePendingInterest(*table.PitEntry)                                  {}

// Registry maps a strategy's base name (without version, e.g.
// "best-route") to the set of versions it supports and a factory for
// each concrete instance. It is the Go analogue of NFD's
// package-level strategyInit/StrategyVersions pair, but instance-owned
// rather than global so tests never leak registrations between
// packages.
type Registry struct {
	versions  map[string][]uint64
	factories map[string]map[uint64]func() Strategy
}

// NewRegistry constructs an empty strategy Registry.
func NewRegistry() *Registry {
	return &Registry{
		versions:  make(map[string][]uint64),
		factories: make(map[string]map[uint64]func() Strategy),
	}
}

// Register adds one versioned strategy factory under baseName (e.g.
// "best-route", version 1).
func (r *Registry) Register(baseName string, version uint64, factory func() Strategy) {
	r.versions[baseName] = append(r.versions[baseName], version)
	if r.factories[baseName] == nil {
		r.factories[baseName] = make(map[uint64]func() Strategy)
	}
	r.factories[baseName][version] = factory
}

// Versions returns the known versions of baseName, and whether it is
// registered at all.
func (r *Registry) Versions(baseName string) ([]uint64, bool) {
	v, ok := r.versions[baseName]
	return v, ok
}

// New instantiates the strategy registered under (baseName, version),
// or nil if unknown.
func (r *Registry) New(baseName string, version uint64) Strategy {
	byVersion, ok := r.factories[baseName]
	if !ok {
		return nil
	}
	factory, ok := byVersion[version]
	if !ok {
		return nil
	}
	return factory()
}
