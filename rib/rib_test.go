package rib

import (
	"testing"
	"time"

	enc "github.com/named-data/ndnd/std/encoding"
	"github.com/named-data/ndnd/std/ndn/mgmt_2022"
	"github.com/ndnfwd/corefwd/core"
	"github.com/ndnfwd/corefwd/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRib(t *testing.T) (*Rib, *table.Fib, func()) {
	t.Helper()
	ribLoop := core.NewLoop()
	mainLoop := core.NewLoop()
	go ribLoop.Run()
	go mainLoop.Run()

	nt := table.NewNameTree()
	fib := table.NewFib(nt)
	updater := NewFibUpdater(ribLoop, mainLoop, fib)
	r := NewRib(ribLoop, updater)

	return r, fib, func() {
		ribLoop.Stop()
		mainLoop.Stop()
	}
}

// settle gives the RIB loop and main loop time to drain the posted
// closures a test triggered - both loops run cooperatively and a
// batch crosses loops twice (rib -> main -> rib), so a short sleep
// after posting is enough to observe the end state.
func settle() {
	time.Sleep(50 * time.Millisecond)
}

func TestRibAddRouteProjectsToFib(t *testing.T) {
	r, fib, stop := newTestRib(t)
	defer stop()

	name, _ := enc.NameFromStr("/a")
	r.loop.Post(func() {
		r.AddRoute(name, &Route{FaceId: 1, Origin: mgmt_2022.RouteOriginStatic, Cost: 10})
	})
	settle()

	entry := fib.FindExactMatch(name)
	require.NotNil(t, entry)
	hops := entry.GetNextHops()
	require.Len(t, hops, 1)
	assert.Equal(t, uint64(1), hops[0].Nexthop)
	assert.Equal(t, uint64(10), hops[0].Cost)
}

func TestRibChildInheritProjectsToDescendant(t *testing.T) {
	r, fib, stop := newTestRib(t)
	defer stop()

	parent, _ := enc.NameFromStr("/net")
	child, _ := enc.NameFromStr("/net/example")

	r.loop.Post(func() {
		r.AddRoute(parent, &Route{FaceId: 7, Origin: mgmt_2022.RouteOriginStatic, Cost: 5, Flags: uint64(mgmt_2022.RouteFlagChildInherit)})
	})
	settle()

	r.loop.Post(func() {
		r.getOrCreate(child)
		r.recomputeAndApply()
	})
	settle()

	entry := fib.FindExactMatch(child)
	require.NotNil(t, entry)
	require.Len(t, entry.GetNextHops(), 1)
	assert.Equal(t, uint64(7), entry.GetNextHops()[0].Nexthop)
}

func TestRibCaptureStopsInheritance(t *testing.T) {
	r, fib, stop := newTestRib(t)
	defer stop()

	grandparent, _ := enc.NameFromStr("/net")
	parent, _ := enc.NameFromStr("/net/example")
	child, _ := enc.NameFromStr("/net/example/sub")

	r.loop.Post(func() {
		r.AddRoute(grandparent, &Route{FaceId: 1, Origin: mgmt_2022.RouteOriginStatic, Cost: 1, Flags: uint64(mgmt_2022.RouteFlagChildInherit)})
	})
	settle()

	r.loop.Post(func() {
		r.AddRoute(parent, &Route{FaceId: 2, Origin: mgmt_2022.RouteOriginStatic, Cost: 1, Flags: uint64(mgmt_2022.RouteFlagCapture)})
	})
	settle()

	r.loop.Post(func() {
		r.getOrCreate(child)
		r.recomputeAndApply()
	})
	settle()

	entry := fib.FindExactMatch(child)
	if entry != nil {
		for _, nh := range entry.GetNextHops() {
			assert.NotEqual(t, uint64(1), nh.Nexthop)
		}
	}
}

func TestRibRemoveFaceWithdrawsRoute(t *testing.T) {
	r, fib, stop := newTestRib(t)
	defer stop()

	name, _ := enc.NameFromStr("/a")
	r.loop.Post(func() {
		r.AddRoute(name, &Route{FaceId: 1, Origin: mgmt_2022.RouteOriginStatic, Cost: 10})
	})
	settle()

	r.loop.Post(func() {
		r.RemoveFace(1)
	})
	settle()

	assert.Nil(t, fib.FindExactMatch(name))
}

func TestRibAddRouteReplacesSameRegistration(t *testing.T) {
	r, fib, stop := newTestRib(t)
	defer stop()

	name, _ := enc.NameFromStr("/a")
	r.loop.Post(func() {
		r.AddRoute(name, &Route{FaceId: 1, Origin: mgmt_2022.RouteOriginStatic, Cost: 10})
	})
	settle()

	r.loop.Post(func() {
		r.AddRoute(name, &Route{FaceId: 1, Origin: mgmt_2022.RouteOriginStatic, Cost: 20})
	})
	settle()

	entry := fib.FindExactMatch(name)
	require.NotNil(t, entry)
	hops := entry.GetNextHops()
	require.Len(t, hops, 1)
	assert.Equal(t, uint64(20), hops[0].Cost)
}
