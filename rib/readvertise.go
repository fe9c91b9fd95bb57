package rib

import (
	"math/rand"
	"time"

	enc "github.com/named-data/ndnd/std/encoding"
	"github.com/ndnfwd/corefwd/core"
	"github.com/ndnfwd/corefwd/defn"
)

// readvertiseModule names this file's log module.
type readvertiseModule struct{}

func (readvertiseModule) String() string { return "Readvertise" }

var logReadvertise readvertiseModule

// RibReadvertise is notified of every route addition and removal in
// the RIB. A Rib may have any number of readvertisers registered via
// AddReadvertiser.
type RibReadvertise interface {
	Announce(name enc.Name, route *Route)
	Withdraw(name enc.Name, route *Route)
}

// ReadvertisedRoute is the prefix actually sent to a Destination, plus
// the RIB routes that caused it to be readvertised - a route and its
// readvertised form can differ, since a Policy may translate or
// aggregate the prefix it advertises upstream.
type ReadvertisedRoute struct {
	Prefix enc.Name
	Routes []*Route
}

// Policy decides whether a newly added RIB route should be
// readvertised, and if so under what prefix.
type Policy interface {
	HandleNewRoute(name enc.Name, route *Route) (prefix enc.Name, ok bool)
	RefreshInterval() time.Duration
}

// Destination is where readvertised routes are announced to - a
// routing protocol daemon, an upstream NFD-RIB, or (in tests) a fake.
// Advertise/Withdraw each invoke exactly one of onSuccess/onFailure,
// possibly after network round trips, which is why they take
// callbacks rather than returning an error synchronously.
type Destination interface {
	Advertise(rr ReadvertisedRoute, onSuccess func(), onFailure func(error))
	Withdraw(rr ReadvertisedRoute, onSuccess func(), onFailure func(error))
	IsAvailable() bool
}

// Readvertiser drives a Policy and a Destination: it watches the RIB
// for route changes, asks the Policy what to readvertise, and invokes
// the Destination to announce or withdraw it, retrying a failed
// attempt with the same exponential back-off shape as the FibUpdater.
type Readvertiser struct {
	loop     *core.Loop
	policy   Policy
	dest     Destination
	store    *ReadvertiseStore
	outbound map[string]*outboundRoute
}

// outboundRoute tracks one readvertised prefix's in-flight state: the
// RIB routes it aggregates and the back-off to wait before retrying a
// failed announcement.
type outboundRoute struct {
	rr      ReadvertisedRoute
	backoff time.Duration
}

// NewReadvertiser constructs a Readvertiser. store may be nil, in
// which case readvertised routes are not persisted across restarts.
func NewReadvertiser(loop *core.Loop, policy Policy, dest Destination, store *ReadvertiseStore) *Readvertiser {
	return &Readvertiser{
		loop:     loop,
		policy:   policy,
		dest:     dest,
		store:    store,
		outbound: make(map[string]*outboundRoute),
	}
}

// Announce implements RibReadvertise. If the policy declines the
// route, or it is already known to be successfully announced (per the
// store), nothing is sent.
func (rv *Readvertiser) Announce(name enc.Name, route *Route) {
	prefix, ok := rv.policy.HandleNewRoute(name, route)
	if !ok {
		return
	}
	key := prefix.String()
	if rv.store != nil && rv.store.IsAnnounced(key) {
		return
	}
	out, exists := rv.outbound[key]
	if !exists {
		out = &outboundRoute{rr: ReadvertisedRoute{Prefix: prefix}, backoff: defn.FibUpdateRetryMin}
		rv.outbound[key] = out
	}
	out.rr.Routes = append(out.rr.Routes, route)
	rv.send(key)
}

// Withdraw implements RibReadvertise.
func (rv *Readvertiser) Withdraw(name enc.Name, route *Route) {
	prefix, ok := rv.policy.HandleNewRoute(name, route)
	if !ok {
		return
	}
	key := prefix.String()
	out, exists := rv.outbound[key]
	if !exists {
		return
	}
	for i, r := range out.rr.Routes {
		if r == route {
			out.rr.Routes = append(out.rr.Routes[:i], out.rr.Routes[i+1:]...)
			break
		}
	}
	if len(out.rr.Routes) > 0 {
		return
	}
	delete(rv.outbound, key)
	rv.dest.Withdraw(out.rr, func() {
		if rv.store != nil {
			rv.store.MarkWithdrawn(key)
		}
	}, func(err error) {
		core.Log.Warn(logReadvertise, "readvertise withdraw failed", "prefix", prefix, "error", err)
	})
}

func (rv *Readvertiser) send(key string) {
	out, ok := rv.outbound[key]
	if !ok {
		return
	}
	rv.dest.Advertise(out.rr, func() {
		out.backoff = defn.FibUpdateRetryMin
		if rv.store != nil {
			rv.store.MarkAnnounced(key)
		}
	}, func(err error) {
		core.Log.Warn(logReadvertise, "readvertise announce failed, retrying", "prefix", out.rr.Prefix, "error", err)
		delay := rv.nextBackoff(out)
		rv.loop.Schedule(delay, func() { rv.send(key) })
	})
}

func (rv *Readvertiser) nextBackoff(out *outboundRoute) time.Duration {
	jitter := time.Duration(rand.Int63n(int64(defn.FibUpdateJitter)*2+1)) - defn.FibUpdateJitter
	delay := out.backoff + jitter
	if delay < 0 {
		delay = out.backoff
	}
	out.backoff *= 2
	if out.backoff > defn.FibUpdateRetryMax {
		out.backoff = defn.FibUpdateRetryMax
	}
	return delay
}
