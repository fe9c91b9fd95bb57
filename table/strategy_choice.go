package table

import (
	enc "github.com/named-data/ndnd/std/encoding"
)

// StrategyChoiceEntry records which Strategy (identified by its
// versioned name, e.g. /localhost/nfd/strategy/best-route/v1) governs
// forwarding for a name and everything beneath it without a
// StrategyChoiceEntry of its own.
type StrategyChoiceEntry struct {
	node     *NameTreeEntry
	strategy enc.Name
}

// Name returns the entry's name.
func (e *StrategyChoiceEntry) Name() enc.Name { return e.node.name }

// GetStrategy returns the entry's assigned strategy name.
func (e *StrategyChoiceEntry) GetStrategy() enc.Name { return e.strategy }

// StrategyChoice is the StrategyChoice table: a NameTree-indexed
// assignment of a strategy to every namespace, always carrying at
// least a root ("/") entry so lookup never fails - a root entry
// always exists, so every name resolves to some strategy.
type StrategyChoice struct {
	tree *NameTree
}

// RootStrategyName is the strategy assigned to "/" before any
// configuration or mgmt command runs. The forwarder's bootstrap is
// responsible for calling Set with a real strategy name at this root
// once the strategy registry is populated; until then lookups return
// this placeholder name, which no registered strategy will match.
var RootStrategyName = enc.Name{enc.NewGenericComponent("none")}

// NewStrategyChoice constructs a StrategyChoice table backed by tree,
// pre-populating the root entry.
func NewStrategyChoice(tree *NameTree) *StrategyChoice {
	sc := &StrategyChoice{tree: tree}
	root := tree.FindOrInsert(enc.Name{})
	root.strategyChoice = &StrategyChoiceEntry{node: root, strategy: RootStrategyName}
	return sc
}

// FindEffectiveStrategy returns the strategy name governing name: the
// StrategyChoiceEntry at the longest prefix of name that has one.
func (sc *StrategyChoice) FindEffectiveStrategy(name enc.Name) enc.Name {
	e := sc.tree.FindLongestPrefixMatch(name, func(e *NameTreeEntry) bool {
		return e.strategyChoice != nil
	})
	if e == nil || e.strategyChoice == nil {
		return RootStrategyName
	}
	return e.strategyChoice.strategy
}

// Set assigns strategy to name, creating the entry if needed, and
// clears every strategy_info slot beneath name that the outgoing
// strategy may have left behind - a new strategy must never observe
// state a different strategy wrote.
func (sc *StrategyChoice) Set(name enc.Name, strategy enc.Name) *StrategyChoiceEntry {
	node := sc.tree.FindOrInsert(name)
	if node.strategyChoice == nil {
		node.strategyChoice = &StrategyChoiceEntry{node: node}
	}
	node.strategyChoice.strategy = strategy
	sc.clearStrategyInfo(node)
	return node.strategyChoice
}

// Unset removes the explicit strategy choice at name (falling back to
// the inherited choice from its nearest ancestor that has one),
// clearing strategy info beneath name the same way Set does. The
// root entry can never be unset.
func (sc *StrategyChoice) Unset(name enc.Name) {
	if len(name) == 0 {
		return
	}
	node := sc.tree.FindExact(name)
	if node == nil || node.strategyChoice == nil {
		return
	}
	node.strategyChoice = nil
	sc.clearStrategyInfo(node)
	sc.tree.EraseIfEmpty(node)
}

// clearStrategyInfo walks the subtree rooted at node, clearing every
// PIT and Measurements entry's strategy info, and stopping descent at
// any other node that carries its own StrategyChoiceEntry - that
// subtree is already governed by a different strategy assignment and
// was cleared (or never touched) when its own choice was last set.
func (sc *StrategyChoice) clearStrategyInfo(node *NameTreeEntry) {
	for _, e := range sc.tree.PartialEnumeration(node.name, func(e *NameTreeEntry) bool {
		return e.strategyChoice != nil
	}) {
		for _, pitEntry := range e.pitEntries {
			pitEntry.ClearStrategyInfo()
		}
		if e.measurements != nil {
			e.measurements.ClearInfo()
		}
	}
}

// GetAllForwardingStrategies returns every explicit StrategyChoice
// entry, for management dataset enumeration.
func (sc *StrategyChoice) GetAllForwardingStrategies() []*StrategyChoiceEntry {
	var out []*StrategyChoiceEntry
	for _, node := range sc.tree.FullEnumeration(func(e *NameTreeEntry) bool { return e.strategyChoice != nil }) {
		out = append(out, node.strategyChoice)
	}
	return out
}
