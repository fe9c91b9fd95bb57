package mgmt

import (
	mgmt "github.com/named-data/ndnd/std/ndn/mgmt_2022"
	"github.com/ndnfwd/corefwd/fw"
)

// ForwarderStatusModule reports aggregate counters across every
// forwarding thread.
type ForwarderStatusModule struct {
	threads []*fw.Thread
}

// NewForwarderStatusModule constructs a ForwarderStatusModule
// reporting across threads.
func NewForwarderStatusModule(threads []*fw.Thread) *ForwarderStatusModule {
	return &ForwarderStatusModule{threads: threads}
}

func (f *ForwarderStatusModule) String() string { return "mgmt-status" }

// Handle dispatches status.
func (f *ForwarderStatusModule) Handle(verb string, params *mgmt.ControlArgs) Response {
	switch verb {
	case "status":
		return f.status()
	default:
		return unsupportedVerb(verb)
	}
}

// ForwarderStatusSnapshot is the forwarder-wide status dataset: one
// packet counter total per kind, summed across every thread.
type ForwarderStatusSnapshot struct {
	NInInterests  uint64
	NOutInterests uint64
	NInData       uint64
	NOutData      uint64
	NInNacks      uint64
	NOutNacks     uint64
	NCsHits       uint64
	NCsMisses     uint64
}

func (f *ForwarderStatusModule) status() Response {
	var snapshot ForwarderStatusSnapshot
	for _, t := range f.threads {
		c := t.Counters()
		snapshot.NInInterests += c.NInInterests()
		snapshot.NOutInterests += c.NOutInterests()
		snapshot.NInData += c.NInData()
		snapshot.NOutData += c.NOutData()
		snapshot.NInNacks += c.NInNacks()
		snapshot.NOutNacks += c.NOutNacks()
		snapshot.NCsHits += c.NCsHits()
		snapshot.NCsMisses += c.NCsMisses()
	}
	return dataset(snapshot)
}
