// Package cmd assembles the daemon: the two event loops, their
// tables, the forwarding thread, the RIB, and the management command
// surface, driven from a parsed Config.
package cmd

import (
	"github.com/ndnfwd/corefwd/core"
	"github.com/ndnfwd/corefwd/defn"
	"github.com/ndnfwd/corefwd/face"
	"github.com/ndnfwd/corefwd/fw"
	"github.com/ndnfwd/corefwd/mgmt"
	"github.com/ndnfwd/corefwd/rib"
	"github.com/ndnfwd/corefwd/strategy"
	"github.com/ndnfwd/corefwd/table"
)

// daemonModule names this file's log module.
type daemonModule struct{}

func (daemonModule) String() string { return "Daemon" }

var logDaemon daemonModule

// Daemon owns every long-lived piece of the running forwarder: the
// main loop (forwarding thread plus its tables) and the RIB loop
// (Rib, FibUpdater, management dispatcher), each its own goroutine.
type Daemon struct {
	config *core.Config

	mainLoop *core.Loop
	ribLoop  *core.Loop

	faces      *face.Table
	strategies *strategy.Registry
	thread     *fw.Thread
	rib        *rib.Rib
	updater    *rib.FibUpdater
	dispatcher *mgmt.Dispatcher

	profiler *Profiler
}

// NewDaemon wires a Daemon from config. It does not start any loop;
// call Start for that.
func NewDaemon(config *core.Config) (*Daemon, error) {
	if err := core.ApplyLogConfig(config.Log); err != nil {
		return nil, err
	}

	mainLoop := core.NewLoop()
	ribLoop := core.NewLoop()

	faces := face.NewTable()
	faces.Add(face.NewFace(uint64(defn.FaceIdNull), defn.MakeNullFaceURI(), defn.MakeNullFaceURI(), defn.NonLocal, defn.PointToPoint, 0))

	strategies := strategy.NewRegistry()
	strategy.RegisterInto(strategies)

	cs, err := newContentStore(config)
	if err != nil {
		return nil, err
	}

	thread := fw.NewThread(mainLoop, faces, strategies, cs, strategy.BestRouteStrategyName)

	updater := rib.NewFibUpdater(ribLoop, mainLoop, thread.Fib)
	ribTable := rib.NewRib(ribLoop, updater)

	dispatcher := mgmt.NewDispatcher()
	dispatcher.Register("fib", mgmt.NewFibModule(thread))
	dispatcher.Register("rib", mgmt.NewRibModule(ribLoop, ribTable))
	dispatcher.Register("strategy-choice", mgmt.NewStrategyChoiceModule(thread, strategies))
	dispatcher.Register("cs", mgmt.NewCsModule(thread))
	dispatcher.Register("status", mgmt.NewForwarderStatusModule([]*fw.Thread{thread}))

	return &Daemon{
		config:     config,
		mainLoop:   mainLoop,
		ribLoop:    ribLoop,
		faces:      faces,
		strategies: strategies,
		thread:     thread,
		rib:        ribTable,
		updater:    updater,
		dispatcher: dispatcher,
		profiler:   NewProfiler(config),
	}, nil
}

// newContentStore builds the ContentStore named by
// config.Tables.CsPolicy: "lru" (the in-memory default) or
// "badger" (persistent, opened under BaseDir/cs).
func newContentStore(config *core.Config) (table.ContentStore, error) {
	switch config.Tables.CsPolicy {
	case "", "lru":
		return table.NewMemoryContentStore(table.NewNameTree(), config.Tables.CsMaxPackets), nil
	case "badger":
		dir := config.BaseDir + "/cs"
		return table.NewBadgerContentStore(dir, config.Tables.CsMaxPackets)
	default:
		return nil, errUnknownCsPolicy(config.Tables.CsPolicy)
	}
}

type errUnknownCsPolicy string

func (e errUnknownCsPolicy) Error() string { return "unknown tables.cs_policy: " + string(e) }

// Start drops privileges (if configured) and starts both loops, each
// on its own goroutine.
func (d *Daemon) Start() {
	priv, err := core.NewPrivilege(d.config.General.User, d.config.General.Group)
	if err != nil {
		core.Log.Fatal(logDaemon, core.FatalExitPrivilegeDrop, "failed to resolve privilege target", "error", err)
	}
	if err := d.profiler.Start(); err != nil {
		core.Log.Warn(logDaemon, "failed to start profiler", "error", err)
	}

	go d.mainLoop.Run()
	go d.ribLoop.Run()

	if err := priv.Drop(); err != nil {
		core.Log.Fatal(logDaemon, core.FatalExitPrivilegeDrop, "failed to drop privileges", "error", err)
	}

	core.Log.Info(logDaemon, "started")
}

// Stop stops both loops and the profiler, in the reverse order
// they were started.
func (d *Daemon) Stop() {
	d.ribLoop.Stop()
	d.mainLoop.Stop()
	d.profiler.Stop()
	core.Log.Info(logDaemon, "stopped")
}
