package fw

import "sync/atomic"

// Counters holds the per-forwarder packet counters reported through
// forwarder-status management datasets.
type Counters struct {
	nInInterests  atomic.Uint64
	nOutInterests atomic.Uint64
	nInData       atomic.Uint64
	nOutData      atomic.Uint64
	nInNacks      atomic.Uint64
	nOutNacks     atomic.Uint64
	nCsHits       atomic.Uint64
	nCsMisses     atomic.Uint64
}

func (c *Counters) NInInterests() uint64  { return c.nInInterests.Load() }
func (c *Counters) NOutInterests() uint64 { return c.nOutInterests.Load() }
func (c *Counters) NInData() uint64       { return c.nInData.Load() }
func (c *Counters) NOutData() uint64      { return c.nOutData.Load() }
func (c *Counters) NInNacks() uint64      { return c.nInNacks.Load() }
func (c *Counters) NOutNacks() uint64     { return c.nOutNacks.Load() }
func (c *Counters) NCsHits() uint64       { return c.nCsHits.Load() }
func (c *Counters) NCsMisses() uint64     { return c.nCsMisses.Load() }

// Counters returns t's packet counters. Safe to read from any
// goroutine; atomics back every field since mgmt reads them from
// outside the forwarding thread's own loop.
func (t *Thread) Counters() *Counters { return &t.counters }
