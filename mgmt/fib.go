package mgmt

import (
	mgmt "github.com/named-data/ndnd/std/ndn/mgmt_2022"
	"github.com/named-data/ndnd/std/types/optional"
	"github.com/ndnfwd/corefwd/core"
	"github.com/ndnfwd/corefwd/fw"
)

// fibModule names this file's log module.
type fibModule struct{}

func (fibModule) String() string { return "mgmt-fib" }

var logFib fibModule

// FibModule handles add-nexthop/remove-nexthop/list commands against
// one forwarding thread's FIB. Every mutation is posted onto the
// thread's own loop, since the FIB is owned exclusively by it.
type FibModule struct {
	thread *fw.Thread
}

// NewFibModule constructs a FibModule bound to thread.
func NewFibModule(thread *fw.Thread) *FibModule { return &FibModule{thread: thread} }

func (f *FibModule) String() string { return "mgmt-fib" }

// Handle dispatches one of add-nexthop, remove-nexthop, list.
func (f *FibModule) Handle(verb string, params *mgmt.ControlArgs) Response {
	switch verb {
	case "add-nexthop":
		return f.add(params)
	case "remove-nexthop":
		return f.remove(params)
	case "list":
		return f.list()
	default:
		return unsupportedVerb(verb)
	}
}

func (f *FibModule) add(params *mgmt.ControlArgs) Response {
	if params == nil || params.Name == nil {
		return badParams("ControlParameters is incorrect (missing Name)")
	}
	faceId, ok := params.FaceId.Get()
	if !ok || faceId == 0 {
		return badParams("ControlParameters is incorrect (missing FaceId)")
	}
	if f.thread.Faces.Get(faceId) == nil {
		return faceNotFound()
	}
	cost := params.Cost.GetOr(0)

	done := make(chan struct{})
	f.thread.Loop.Post(func() {
		f.thread.Fib.InsertNextHop(params.Name, faceId, cost)
		close(done)
	})
	<-done

	core.Log.Info(logFib, "created nexthop", "name", params.Name, "faceid", faceId, "cost", cost)
	return ok(&mgmt.ControlArgs{
		Name:   params.Name,
		FaceId: optional.Some(faceId),
		Cost:   optional.Some(cost),
	})
}

func (f *FibModule) remove(params *mgmt.ControlArgs) Response {
	if params == nil || params.Name == nil {
		return badParams("ControlParameters is incorrect (missing Name)")
	}
	faceId, ok := params.FaceId.Get()
	if !ok {
		return badParams("ControlParameters is incorrect (missing FaceId)")
	}

	done := make(chan struct{})
	f.thread.Loop.Post(func() {
		f.thread.Fib.RemoveNextHop(params.Name, faceId)
		close(done)
	})
	<-done

	core.Log.Info(logFib, "removed nexthop", "name", params.Name, "faceid", faceId)
	return ok(&mgmt.ControlArgs{Name: params.Name, FaceId: optional.Some(faceId)})
}

// FibEntrySnapshot is one FIB list entry returned by list.
type FibEntrySnapshot struct {
	Name     string
	NextHops []NextHopSnapshot
}

// NextHopSnapshot is one nexthop within a FibEntrySnapshot.
type NextHopSnapshot struct {
	FaceId uint64
	Cost   uint64
}

func (f *FibModule) list() Response {
	var snapshot []FibEntrySnapshot
	done := make(chan struct{})
	f.thread.Loop.Post(func() {
		for _, entry := range f.thread.Fib.GetAllEntries() {
			var hops []NextHopSnapshot
			for _, nh := range entry.GetNextHops() {
				hops = append(hops, NextHopSnapshot{FaceId: nh.Nexthop, Cost: nh.Cost})
			}
			snapshot = append(snapshot, FibEntrySnapshot{Name: entry.Name().String(), NextHops: hops})
		}
		close(done)
	})
	<-done
	return dataset(snapshot)
}
