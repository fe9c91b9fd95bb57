// Package rib implements the Routing Information Base: the separate
// loop and table that computes inherited routes and projects them
// onto the forwarder's FIB through a FibUpdater.
package rib

import (
	"time"

	"github.com/named-data/ndnd/std/ndn/mgmt_2022"
)

// Route is one registered route at a RIB entry's name: a face, the
// origin that registered it, its administrative cost, and the flags
// governing how it is inherited by descendant names.
type Route struct {
	FaceId           uint64
	Origin           mgmt_2022.RouteOrigin
	Cost             uint64
	Flags            uint64
	ExpirationPeriod *time.Duration
}

// sameRegistration reports whether r and o identify the same
// registration slot: a RIB entry holds at most one route per
// (face, origin) pair, and re-registering replaces it rather than
// appending a duplicate.
func (r *Route) sameRegistration(o *Route) bool {
	return r.FaceId == o.FaceId && r.Origin == o.Origin
}

func (r *Route) childInherit() bool {
	return mgmt_2022.RouteFlagChildInherit.IsSet(r.Flags)
}

func (r *Route) capture() bool {
	return mgmt_2022.RouteFlagCapture.IsSet(r.Flags)
}

// clone returns a shallow copy, used when a route is adopted into a
// descendant's inherited-routes set so mutating the original later
// never retroactively changes history already projected to the FIB.
func (r *Route) clone() *Route {
	c := *r
	return &c
}
