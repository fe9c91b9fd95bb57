package mgmt

import (
	mgmt "github.com/named-data/ndnd/std/ndn/mgmt_2022"
	"github.com/ndnfwd/corefwd/core"
	"github.com/ndnfwd/corefwd/fw"
	"github.com/ndnfwd/corefwd/strategy"
)

// strategyChoiceModule names this file's log module.
type strategyChoiceModule struct{}

func (strategyChoiceModule) String() string { return "mgmt-strategy" }

var logStrategyChoice strategyChoiceModule

// StrategyChoiceModule handles set/unset/list commands against one
// forwarding thread's StrategyChoice table.
type StrategyChoiceModule struct {
	thread     *fw.Thread
	strategies *strategy.Registry
}

// NewStrategyChoiceModule constructs a StrategyChoiceModule bound to
// thread, validating strategy names against strategies.
func NewStrategyChoiceModule(thread *fw.Thread, strategies *strategy.Registry) *StrategyChoiceModule {
	return &StrategyChoiceModule{thread: thread, strategies: strategies}
}

func (s *StrategyChoiceModule) String() string { return "mgmt-strategy" }

// Handle dispatches one of set, unset, list.
func (s *StrategyChoiceModule) Handle(verb string, params *mgmt.ControlArgs) Response {
	switch verb {
	case "set":
		return s.set(params)
	case "unset":
		return s.unset(params)
	case "list":
		return s.list()
	default:
		return unsupportedVerb(verb)
	}
}

func (s *StrategyChoiceModule) set(params *mgmt.ControlArgs) Response {
	if params == nil || params.Name == nil {
		return badParams("ControlParameters is incorrect (missing Name)")
	}
	if params.Strategy == nil || params.Strategy.Name == nil {
		return badParams("ControlParameters is incorrect (missing Strategy)")
	}

	base, version, ok := strategy.ParseStrategyName(params.Strategy.Name)
	if !ok {
		return Response{Code: 404, Text: "Invalid strategy name"}
	}
	versions, known := s.strategies.Versions(base)
	if !known {
		return Response{Code: 404, Text: "Unknown strategy"}
	}
	found := false
	for _, v := range versions {
		if v == version {
			found = true
			break
		}
	}
	if !found {
		return Response{Code: 404, Text: "Unknown strategy version"}
	}

	done := make(chan struct{})
	s.thread.Loop.Post(func() {
		s.thread.StrategyChoice.Set(params.Name, params.Strategy.Name)
		close(done)
	})
	<-done

	core.Log.Info(logStrategyChoice, "set strategy", "name", params.Name, "strategy", params.Strategy.Name)
	return ok(&mgmt.ControlArgs{Name: params.Name, Strategy: params.Strategy})
}

func (s *StrategyChoiceModule) unset(params *mgmt.ControlArgs) Response {
	if params == nil || params.Name == nil || len(params.Name) == 0 {
		return badParams("ControlParameters is incorrect (missing Name)")
	}

	done := make(chan struct{})
	s.thread.Loop.Post(func() {
		s.thread.StrategyChoice.Unset(params.Name)
		close(done)
	})
	<-done

	core.Log.Info(logStrategyChoice, "unset strategy", "name", params.Name)
	return ok(&mgmt.ControlArgs{Name: params.Name})
}

// StrategyChoiceSnapshot is one strategy-choice list entry.
type StrategyChoiceSnapshot struct {
	Name     string
	Strategy string
}

func (s *StrategyChoiceModule) list() Response {
	var snapshot []StrategyChoiceSnapshot
	done := make(chan struct{})
	s.thread.Loop.Post(func() {
		for _, entry := range s.thread.StrategyChoice.GetAllForwardingStrategies() {
			snapshot = append(snapshot, StrategyChoiceSnapshot{
				Name:     entry.Name().String(),
				Strategy: entry.GetStrategy().String(),
			})
		}
		close(done)
	})
	<-done
	return dataset(snapshot)
}
