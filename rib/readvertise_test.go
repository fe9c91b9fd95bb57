package rib

import (
	"testing"
	"time"

	enc "github.com/named-data/ndnd/std/encoding"
	"github.com/named-data/ndnd/std/ndn/mgmt_2022"
	"github.com/ndnfwd/corefwd/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedPolicy struct {
	prefix enc.Name
}

func (p *fixedPolicy) HandleNewRoute(name enc.Name, route *Route) (enc.Name, bool) {
	return p.prefix, true
}

func (p *fixedPolicy) RefreshInterval() time.Duration { return time.Hour }

type fakeDestination struct {
	advertised []ReadvertisedRoute
	failNext   bool
	withdrawn  []ReadvertisedRoute
}

func (d *fakeDestination) Advertise(rr ReadvertisedRoute, onSuccess func(), onFailure func(error)) {
	if d.failNext {
		d.failNext = false
		onFailure(assert.AnError)
		return
	}
	d.advertised = append(d.advertised, rr)
	onSuccess()
}

func (d *fakeDestination) Withdraw(rr ReadvertisedRoute, onSuccess func(), onFailure func(error)) {
	d.withdrawn = append(d.withdrawn, rr)
	onSuccess()
}

func (d *fakeDestination) IsAvailable() bool { return true }

func TestReadvertiserAnnouncesNewRoute(t *testing.T) {
	loop := core.NewLoop()
	go loop.Run()
	defer loop.Stop()

	prefix, _ := enc.NameFromStr("/upstream")
	name, _ := enc.NameFromStr("/a")
	dest := &fakeDestination{}
	rv := NewReadvertiser(loop, &fixedPolicy{prefix: prefix}, dest, nil)

	route := &Route{FaceId: 1, Origin: mgmt_2022.RouteOriginStatic, Cost: 1}
	rv.Announce(name, route)

	require.Len(t, dest.advertised, 1)
	assert.True(t, dest.advertised[0].Prefix.Equal(prefix))
}

func TestReadvertiserWithdrawsWhenLastRouteRemoved(t *testing.T) {
	loop := core.NewLoop()
	go loop.Run()
	defer loop.Stop()

	prefix, _ := enc.NameFromStr("/upstream")
	name, _ := enc.NameFromStr("/a")
	dest := &fakeDestination{}
	rv := NewReadvertiser(loop, &fixedPolicy{prefix: prefix}, dest, nil)

	route := &Route{FaceId: 1, Origin: mgmt_2022.RouteOriginStatic, Cost: 1}
	rv.Announce(name, route)
	rv.Withdraw(name, route)

	require.Len(t, dest.withdrawn, 1)
	assert.True(t, dest.withdrawn[0].Prefix.Equal(prefix))
}

func TestReadvertiserRetriesOnFailure(t *testing.T) {
	loop := core.NewLoop()
	go loop.Run()
	defer loop.Stop()

	prefix, _ := enc.NameFromStr("/upstream")
	name, _ := enc.NameFromStr("/a")
	dest := &fakeDestination{failNext: true}
	rv := NewReadvertiser(loop, &fixedPolicy{prefix: prefix}, dest, nil)

	out := &outboundRoute{backoff: time.Millisecond}
	rv.outbound[prefix.String()] = out
	out.rr.Prefix = prefix
	out.rr.Routes = append(out.rr.Routes, &Route{FaceId: 1, Origin: mgmt_2022.RouteOriginStatic, Cost: 1})

	loop.Post(func() { rv.send(prefix.String()) })
	time.Sleep(50 * time.Millisecond)

	require.Len(t, dest.advertised, 1)
}
