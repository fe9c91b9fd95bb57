package rib

import (
	"sort"

	enc "github.com/named-data/ndnd/std/encoding"
	"github.com/named-data/ndnd/std/ndn/mgmt_2022"
	"github.com/ndnfwd/corefwd/core"
)

// ribModule names this file's log module.
type ribModule struct{}

func (ribModule) String() string { return "Rib" }

var logRib ribModule

// ribNode is one name in the RIB's own name tree, independent of the
// forwarder's NameTree since the RIB loop never touches forwarding
// tables directly.
type ribNode struct {
	name   enc.Name
	parent *ribNode

	routes    []*Route
	inherited []*Route

	// effective is the last next-hop set this node projected to the
	// FIB, kept so a later recompute can diff against it instead of
	// resending the whole set every time.
	effective []*Route
}

func (n *ribNode) isEmpty() bool {
	return len(n.routes) == 0
}

// Name returns the node's name, for mgmt enumeration.
func (n *ribNode) Name() enc.Name { return n.name }

// IsEmpty reports whether the node has no routes registered directly
// on it (it may still exist to anchor a descendant).
func (n *ribNode) IsEmpty() bool { return n.isEmpty() }

// Routes returns the node's directly registered routes, for mgmt
// enumeration.
func (n *ribNode) Routes() []*Route { return n.routes }

// Rib is the Routing Information Base: registered routes indexed by
// name, plus each entry's computed inherited routes, projected onto
// the forwarder's FIB through a FibUpdater.
type Rib struct {
	loop    *core.Loop
	updater *FibUpdater

	root  *ribNode
	byKey map[string]*ribNode

	readvertisers []RibReadvertise
}

// AddReadvertiser registers rv to be notified of every future route
// addition and removal.
func (r *Rib) AddReadvertiser(rv RibReadvertise) {
	r.readvertisers = append(r.readvertisers, rv)
}

// NewRib constructs a Rib that issues its FIB projections through
// updater. loop is the RIB loop Rib mutations must run on.
func NewRib(loop *core.Loop, updater *FibUpdater) *Rib {
	root := &ribNode{name: enc.Name{}}
	return &Rib{
		loop:    loop,
		updater: updater,
		root:    root,
		byKey:   map[string]*ribNode{"": root},
	}
}

func (r *Rib) getOrCreate(name enc.Name) *ribNode {
	key := name.String()
	if n, ok := r.byKey[key]; ok {
		return n
	}
	parent := r.root
	if len(name) > 0 {
		parent = r.getOrCreate(name.Prefix(len(name) - 1))
	}
	n := &ribNode{name: name, parent: parent}
	r.byKey[key] = n
	return n
}

func (r *Rib) find(name enc.Name) *ribNode {
	return r.byKey[name.String()]
}

// AllNodes returns every node in the RIB's name tree, for mgmt
// enumeration. Must be called from the RIB loop.
func (r *Rib) AllNodes() []*ribNode {
	out := make([]*ribNode, 0, len(r.byKey))
	for _, n := range r.byKey {
		out = append(out, n)
	}
	return out
}

func dedupByFaceMinCost(routes []*Route) []*Route {
	byFace := make(map[uint64]*Route)
	for _, rt := range routes {
		if existing, ok := byFace[rt.FaceId]; !ok || rt.Cost < existing.Cost {
			byFace[rt.FaceId] = rt
		}
	}
	out := make([]*Route, 0, len(byFace))
	for _, rt := range byFace {
		out = append(out, rt)
	}
	return out
}

// ancestorRoutes walks from node.parent toward the root, collecting
// every ancestor's CHILD_INHERIT routes and stopping at the first
// ancestor that also carries a CAPTURE route anywhere in its set.
func ancestorRoutes(node *ribNode) []*Route {
	var acc []*Route
	for anc := node.parent; anc != nil; anc = anc.parent {
		hasCapture := false
		for _, rt := range anc.routes {
			if rt.childInherit() {
				acc = append(acc, rt.clone())
			}
			if rt.capture() {
				hasCapture = true
			}
		}
		if hasCapture {
			break
		}
	}
	return acc
}

// effectiveNextHops is a RIB entry's own routes unioned with its
// inherited ancestor routes, deduplicated per face keeping the
// minimum cost. A node carrying a CAPTURE route of its own blocks
// ancestor CHILD_INHERIT routes from reaching the node itself, not
// just its descendants, so the union is skipped entirely in that
// case.
func effectiveNextHops(node *ribNode) []*Route {
	combined := append([]*Route{}, node.routes...)
	if !hasCaptureRoute(node.routes) {
		combined = append(combined, node.inherited...)
	}
	return dedupByFaceMinCost(combined)
}

func hasCaptureRoute(routes []*Route) bool {
	for _, rt := range routes {
		if rt.capture() {
			return true
		}
	}
	return false
}

// AddRoute registers route at name, replacing any existing route from
// the same (face, origin), and re-projects every affected RIB entry
// onto the FIB.
func (r *Rib) AddRoute(name enc.Name, route *Route) {
	node := r.getOrCreate(name)
	replaced := false
	for i, existing := range node.routes {
		if existing.sameRegistration(route) {
			node.routes[i] = route
			replaced = true
			break
		}
	}
	if !replaced {
		node.routes = append(node.routes, route)
	}
	core.Log.Info(logRib, "added route", "name", name, "faceid", route.FaceId, "cost", route.Cost)
	for _, rv := range r.readvertisers {
		rv.Announce(name, route)
	}
	r.recomputeAndApply()
}

// RemoveRoute removes the route registered at name by (faceId,
// origin), if any. The RIB entry stays in the tree even when no
// routes remain on it; entries are never removed.
func (r *Rib) RemoveRoute(name enc.Name, faceId uint64, origin mgmt_2022.RouteOrigin) {
	node := r.find(name)
	if node == nil {
		return
	}
	for i, existing := range node.routes {
		if existing.FaceId == faceId && existing.Origin == origin {
			node.routes = append(node.routes[:i], node.routes[i+1:]...)
			for _, rv := range r.readvertisers {
				rv.Withdraw(name, existing)
			}
			break
		}
	}
	core.Log.Info(logRib, "removed route", "name", name, "faceid", faceId)
	r.recomputeAndApply()
}

// RemoveFace removes every route registered with faceId across the
// whole RIB, coalescing the resulting FIB updates into a single
// batch since they all target the same face.
func (r *Rib) RemoveFace(faceId uint64) {
	for _, node := range r.byKey {
		filtered := node.routes[:0]
		for _, rt := range node.routes {
			if rt.FaceId == faceId {
				for _, rv := range r.readvertisers {
					rv.Withdraw(node.name, rt)
				}
				continue
			}
			filtered = append(filtered, rt)
		}
		node.routes = filtered
	}
	core.Log.Info(logRib, "removed face from rib", "faceid", faceId)
	r.recomputeAndApply()
}

// recomputeAndApply recomputes every RIB entry's inherited and
// effective next-hop sets, diffs each against what was last projected
// to the FIB, and issues the resulting add/remove batch in
// deterministic order (by name, then face, then cost, then action).
func (r *Rib) recomputeAndApply() {
	nodes := make([]*ribNode, 0, len(r.byKey))
	for _, n := range r.byKey {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return len(nodes[i].name) < len(nodes[j].name) })

	var updates []FibUpdate
	for _, node := range nodes {
		node.inherited = ancestorRoutes(node)
		newEffective := effectiveNextHops(node)

		oldByFace := make(map[uint64]*Route, len(node.effective))
		for _, rt := range node.effective {
			oldByFace[rt.FaceId] = rt
		}
		newByFace := make(map[uint64]*Route, len(newEffective))
		for _, rt := range newEffective {
			newByFace[rt.FaceId] = rt
		}

		for faceId, oldRt := range oldByFace {
			newRt, stillPresent := newByFace[faceId]
			if !stillPresent || newRt.Cost != oldRt.Cost {
				updates = append(updates, FibUpdate{Name: node.name, FaceId: faceId, Cost: oldRt.Cost, Action: ActionRemove})
			}
		}
		for faceId, newRt := range newByFace {
			oldRt, wasPresent := oldByFace[faceId]
			if !wasPresent || oldRt.Cost != newRt.Cost {
				updates = append(updates, FibUpdate{Name: node.name, FaceId: faceId, Cost: newRt.Cost, Action: ActionAdd})
			}
		}

		node.effective = newEffective
	}

	sort.Slice(updates, func(i, j int) bool {
		a, b := updates[i], updates[j]
		if as, bs := a.Name.String(), b.Name.String(); as != bs {
			return as < bs
		}
		if a.FaceId != b.FaceId {
			return a.FaceId < b.FaceId
		}
		if a.Cost != b.Cost {
			return a.Cost < b.Cost
		}
		return a.Action < b.Action
	})

	if len(updates) == 0 {
		return
	}
	r.updater.Apply(updates, func() {}, func(err error) {
		core.Log.Warn(logRib, "fib update batch failed, retrying", "error", err)
	})
}
