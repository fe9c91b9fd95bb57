package mgmt

import (
	mgmt "github.com/named-data/ndnd/std/ndn/mgmt_2022"
	"github.com/ndnfwd/corefwd/core"
	"github.com/ndnfwd/corefwd/fw"
)

// csModule names this file's log module.
type csModule struct{}

func (csModule) String() string { return "mgmt-cs" }

var logCs csModule

// CsModule handles info queries against one forwarding thread's
// content store. Capacity is fixed at construction (CS eviction
// policy and reconfiguration are out of scope), so this module only
// ever reports, never mutates.
type CsModule struct {
	thread *fw.Thread
}

// NewCsModule constructs a CsModule bound to thread.
func NewCsModule(thread *fw.Thread) *CsModule { return &CsModule{thread: thread} }

func (c *CsModule) String() string { return "mgmt-cs" }

// Handle dispatches info.
func (c *CsModule) Handle(verb string, params *mgmt.ControlArgs) Response {
	switch verb {
	case "info":
		return c.info()
	default:
		return unsupportedVerb(verb)
	}
}

// CsInfoSnapshot mirrors NFD's CsInfo dataset: current packet count
// plus accumulated hit/miss counters.
type CsInfoSnapshot struct {
	NCsEntries int
	NHits      uint64
	NMisses    uint64
}

func (c *CsModule) info() Response {
	var snapshot CsInfoSnapshot
	done := make(chan struct{})
	c.thread.Loop.Post(func() {
		snapshot.NCsEntries = c.thread.Cs.Size()
		close(done)
	})
	<-done

	counters := c.thread.Counters()
	snapshot.NHits = counters.NCsHits()
	snapshot.NMisses = counters.NCsMisses()

	core.Log.Debug(logCs, "cs info", "entries", snapshot.NCsEntries, "hits", snapshot.NHits, "misses", snapshot.NMisses)
	return dataset(snapshot)
}
