package mgmt

import (
	"time"

	mgmt "github.com/named-data/ndnd/std/ndn/mgmt_2022"
	"github.com/named-data/ndnd/std/types/optional"
	"github.com/ndnfwd/corefwd/core"
	"github.com/ndnfwd/corefwd/rib"
)

// ribMgmtModule names this file's log module.
type ribMgmtModule struct{}

func (ribMgmtModule) String() string { return "mgmt-rib" }

var logRibMgmt ribMgmtModule

// RibModule handles register/unregister/list commands against a RIB.
// Every mutation is posted onto the RIB's own loop.
type RibModule struct {
	loop *core.Loop
	rib  *rib.Rib
}

// NewRibModule constructs a RibModule bound to r, running on loop.
func NewRibModule(loop *core.Loop, r *rib.Rib) *RibModule {
	return &RibModule{loop: loop, rib: r}
}

func (r *RibModule) String() string { return "mgmt-rib" }

// Handle dispatches one of register, unregister, list.
func (r *RibModule) Handle(verb string, params *mgmt.ControlArgs) Response {
	switch verb {
	case "register":
		return r.register(params)
	case "unregister":
		return r.unregister(params)
	case "list":
		return r.list()
	default:
		return unsupportedVerb(verb)
	}
}

func (r *RibModule) register(params *mgmt.ControlArgs) Response {
	if params == nil || params.Name == nil {
		return badParams("ControlParameters is incorrect (missing Name)")
	}
	faceId, ok := params.FaceId.Get()
	if !ok || faceId == 0 {
		return badParams("ControlParameters is incorrect (missing FaceId)")
	}

	origin := mgmt.RouteOrigin(params.Origin.GetOr(uint64(mgmt.RouteOriginApp)))
	cost := params.Cost.GetOr(0)
	flags := params.Flags.GetOr(uint64(mgmt.RouteFlagChildInherit))

	var expirationPeriod *time.Duration
	if expiry, ok := params.ExpirationPeriod.Get(); ok {
		d := time.Duration(expiry) * time.Millisecond
		expirationPeriod = &d
	}

	route := &rib.Route{
		FaceId:           faceId,
		Origin:           origin,
		Cost:             cost,
		Flags:            flags,
		ExpirationPeriod: expirationPeriod,
	}

	done := make(chan struct{})
	r.loop.Post(func() {
		r.rib.AddRoute(params.Name, route)
		close(done)
	})
	<-done

	core.Log.Info(logRibMgmt, "created route", "name", params.Name, "faceid", faceId, "origin", origin, "cost", cost)

	resp := &mgmt.ControlArgs{
		Name:   params.Name,
		FaceId: optional.Some(faceId),
		Origin: optional.Some(uint64(origin)),
		Cost:   optional.Some(cost),
		Flags:  optional.Some(flags),
	}
	if expirationPeriod != nil {
		resp.ExpirationPeriod = optional.Some(uint64(expirationPeriod.Milliseconds()))
	}
	return ok(resp)
}

func (r *RibModule) unregister(params *mgmt.ControlArgs) Response {
	if params == nil || params.Name == nil {
		return badParams("ControlParameters is incorrect (missing Name)")
	}
	faceId, ok := params.FaceId.Get()
	if !ok {
		return badParams("ControlParameters is incorrect (missing FaceId)")
	}
	origin := mgmt.RouteOrigin(params.Origin.GetOr(uint64(mgmt.RouteOriginApp)))

	done := make(chan struct{})
	r.loop.Post(func() {
		r.rib.RemoveRoute(params.Name, faceId, origin)
		close(done)
	})
	<-done

	core.Log.Info(logRibMgmt, "removed route", "name", params.Name, "faceid", faceId, "origin", origin)
	return ok(&mgmt.ControlArgs{
		Name:   params.Name,
		FaceId: optional.Some(faceId),
		Origin: optional.Some(uint64(origin)),
	})
}

// RibRouteSnapshot is one registered route within a RibEntrySnapshot.
type RibRouteSnapshot struct {
	FaceId uint64
	Origin mgmt.RouteOrigin
	Cost   uint64
	Flags  uint64
}

// RibEntrySnapshot is one RIB list entry returned by list.
type RibEntrySnapshot struct {
	Name   string
	Routes []RibRouteSnapshot
}

func (r *RibModule) list() Response {
	var snapshot []RibEntrySnapshot
	done := make(chan struct{})
	r.loop.Post(func() {
		for _, node := range r.rib.AllNodes() {
			if node.IsEmpty() {
				continue
			}
			var routes []RibRouteSnapshot
			for _, rt := range node.Routes() {
				routes = append(routes, RibRouteSnapshot{FaceId: rt.FaceId, Origin: rt.Origin, Cost: rt.Cost, Flags: rt.Flags})
			}
			snapshot = append(snapshot, RibEntrySnapshot{Name: node.Name().String(), Routes: routes})
		}
		close(done)
	})
	<-done
	return dataset(snapshot)
}
