package rib

import (
	"math/rand"
	"time"

	enc "github.com/named-data/ndnd/std/encoding"
	"github.com/ndnfwd/corefwd/core"
	"github.com/ndnfwd/corefwd/defn"
	"github.com/ndnfwd/corefwd/table"
)

// fibUpdaterModule names this file's log module.
type fibUpdaterModule struct{}

func (fibUpdaterModule) String() string { return "FibUpdater" }

var logFibUpdater fibUpdaterModule

// Action is what a FibUpdate does to the named face's nexthop entry.
type Action int

const (
	ActionRemove Action = iota
	ActionAdd
)

func (a Action) String() string {
	if a == ActionAdd {
		return "add"
	}
	return "remove"
}

// FibUpdate is one nexthop change the RIB wants applied to the
// forwarder's FIB.
type FibUpdate struct {
	Name   enc.Name
	FaceId uint64
	Cost   uint64
	Action Action
}

// Applier applies a batch of FibUpdates to the forwarder's FIB,
// returning an error if (and only if) none of the batch took effect -
// a batch either succeeds atomically or fails atomically. The default
// Applier backed by a real table.Fib can never fail; the indirection
// exists so tests can inject failures to exercise the retry path.
type Applier func(updates []FibUpdate) error

// FibUpdater issues FIB update batches asynchronously onto the main
// loop and retries a failed batch with exponential back-off, ensuring
// only one batch is ever in flight at a time.
type FibUpdater struct {
	ribLoop  *core.Loop
	mainLoop *core.Loop
	apply    Applier

	pending  []pendingBatch
	inFlight bool
}

type pendingBatch struct {
	updates   []FibUpdate
	onSuccess func()
	onFailure func(error)
	backoff   time.Duration
}

// NewFibUpdater constructs a FibUpdater that issues batches onto
// mainLoop (where fib lives) and resumes callbacks on ribLoop (where
// the Rib that requested them lives).
func NewFibUpdater(ribLoop, mainLoop *core.Loop, fib *table.Fib) *FibUpdater {
	return &FibUpdater{
		ribLoop:  ribLoop,
		mainLoop: mainLoop,
		apply:    fibApplier(fib),
	}
}

// fibApplier returns the default Applier: applies every update to fib
// directly. Since fib is an in-process table, this never fails.
func fibApplier(fib *table.Fib) Applier {
	return func(updates []FibUpdate) error {
		for _, u := range updates {
			switch u.Action {
			case ActionAdd:
				fib.InsertNextHop(u.Name, u.FaceId, u.Cost)
			case ActionRemove:
				fib.RemoveNextHop(u.Name, u.FaceId)
			}
		}
		return nil
	}
}

// SetApplier overrides the Applier used to actually apply a batch,
// for injecting failures in tests.
func (u *FibUpdater) SetApplier(a Applier) { u.apply = a }

// Apply queues a FIB update batch. If no batch is currently in
// flight, it is issued immediately; otherwise it waits behind the
// ones ahead of it. onSuccess/onFailure run on the RIB loop.
func (u *FibUpdater) Apply(updates []FibUpdate, onSuccess func(), onFailure func(error)) {
	u.pending = append(u.pending, pendingBatch{
		updates:   updates,
		onSuccess: onSuccess,
		onFailure: onFailure,
		backoff:   defn.FibUpdateRetryMin,
	})
	u.pumpIfIdle()
}

func (u *FibUpdater) pumpIfIdle() {
	if u.inFlight || len(u.pending) == 0 {
		return
	}
	u.inFlight = true
	batch := u.pending[0]
	u.issue(batch)
}

func (u *FibUpdater) issue(batch pendingBatch) {
	u.mainLoop.Post(func() {
		err := u.apply(batch.updates)
		u.ribLoop.Post(func() {
			u.onBatchDone(batch, err)
		})
	})
}

func (u *FibUpdater) onBatchDone(batch pendingBatch, err error) {
	if err == nil {
		u.pending = u.pending[1:]
		u.inFlight = false
		if batch.onSuccess != nil {
			batch.onSuccess()
		}
		u.pumpIfIdle()
		return
	}

	if batch.onFailure != nil {
		batch.onFailure(err)
	}
	next := batch.backoff * 2
	if next > defn.FibUpdateRetryMax {
		next = defn.FibUpdateRetryMax
	}
	jitter := time.Duration(rand.Int63n(int64(defn.FibUpdateJitter)*2+1)) - defn.FibUpdateJitter
	delay := batch.backoff + jitter
	if delay < 0 {
		delay = batch.backoff
	}
	batch.backoff = next
	u.pending[0] = batch

	core.Log.Warn(logFibUpdater, "retrying fib update batch", "delay", delay)
	u.ribLoop.Schedule(delay, func() {
		u.issue(u.pending[0])
	})
}
