// Package table holds the forwarder's shared indexing structure (the
// NameTree) plus the four tables hung off it: the FIB, PIT,
// ContentStore and Measurements table, and the StrategyChoice table
// that assigns a forwarding Strategy to each namespace.
package table

import (
	enc "github.com/named-data/ndnd/std/encoding"
)

// NameTreeEntry is one node of the name tree: it corresponds to
// exactly one name prefix, and is created lazily the first time any
// table needs to attach information to that prefix. Every ancestor of
// an occupied entry also exists, even if it carries no table entries
// of its own, so that parent/child walks never have to special-case a
// missing link.
type NameTreeEntry struct {
	name   enc.Name
	hash   uint64
	parent *NameTreeEntry
	// children indexes by the child's cumulative prefix hash (the
	// same value as its hash field) for O(1) child lookup and removal.
	children map[uint64]*NameTreeEntry

	fib            *FibEntry
	pitEntries     []*PitEntry
	measurements   *MeasurementsEntry
	strategyChoice *StrategyChoiceEntry
}

// Name returns the entry's full name.
func (e *NameTreeEntry) Name() enc.Name { return e.name }

// Parent returns the entry's parent, or nil for the root (name "/").
func (e *NameTreeEntry) Parent() *NameTreeEntry { return e.parent }

// isEmpty reports whether the entry carries no table attachments and
// has no children, i.e. it exists only to link its own children to
// the tree and can be garbage collected.
func (e *NameTreeEntry) isEmpty() bool {
	return e.fib == nil && len(e.pitEntries) == 0 &&
		e.measurements == nil && e.strategyChoice == nil &&
		len(e.children) == 0
}

const (
	nameTreeMinBuckets   = 16
	nameTreeExpandLoad   = 0.5
	nameTreeExpandFactor = 2.0
	nameTreeShrinkLoad   = 0.1
	nameTreeShrinkFactor = 0.5
)

// NameTree is the hashtable-backed index of NameTreeEntry nodes,
// keyed by the xxhash-based prefix hash the encoding package already
// computes incrementally over a name's components
// (enc.Name.PrefixHash). Resizing follows the classic open-hashtable
// policy: the bucket count doubles once the load factor exceeds 0.5,
// and halves once it drops below 0.1, never going below
// nameTreeMinBuckets.
type NameTree struct {
	buckets [][]*NameTreeEntry
	count   int
	root    *NameTreeEntry
}

// NewNameTree constructs an empty NameTree with just a root entry for
// the name "/".
func NewNameTree() *NameTree {
	nt := &NameTree{
		buckets: make([][]*NameTreeEntry, nameTreeMinBuckets),
	}
	nt.root = &NameTreeEntry{
		name:     enc.Name{},
		hash:     0,
		children: make(map[uint64]*NameTreeEntry),
	}
	nt.insertBucket(nt.root)
	nt.count++
	return nt
}

func (nt *NameTree) bucketIndex(hash uint64) int {
	return int(hash % uint64(len(nt.buckets)))
}

func (nt *NameTree) insertBucket(e *NameTreeEntry) {
	idx := nt.bucketIndex(e.hash)
	nt.buckets[idx] = append(nt.buckets[idx], e)
}

func (nt *NameTree) removeBucket(e *NameTreeEntry) {
	idx := nt.bucketIndex(e.hash)
	bucket := nt.buckets[idx]
	for i, c := range bucket {
		if c == e {
			nt.buckets[idx] = append(bucket[:i], bucket[i+1:]...)
			return
		}
	}
}

func (nt *NameTree) findInBucket(hash uint64, name enc.Name) *NameTreeEntry {
	idx := nt.bucketIndex(hash)
	for _, e := range nt.buckets[idx] {
		if e.hash == hash && e.name.Equal(name) {
			return e
		}
	}
	return nil
}

func (nt *NameTree) loadFactor() float64 {
	return float64(nt.count) / float64(len(nt.buckets))
}

func (nt *NameTree) maybeResize() {
	lf := nt.loadFactor()
	newSize := len(nt.buckets)
	switch {
	case lf > nameTreeExpandLoad:
		newSize = int(float64(len(nt.buckets)) * nameTreeExpandFactor)
	case lf < nameTreeShrinkLoad && len(nt.buckets) > nameTreeMinBuckets:
		newSize = int(float64(len(nt.buckets)) * nameTreeShrinkFactor)
		if newSize < nameTreeMinBuckets {
			newSize = nameTreeMinBuckets
		}
	default:
		return
	}
	if newSize == len(nt.buckets) {
		return
	}

	old := nt.buckets
	nt.buckets = make([][]*NameTreeEntry, newSize)
	for _, bucket := range old {
		for _, e := range bucket {
			nt.insertBucket(e)
		}
	}
}

// FindExact returns the entry whose name equals name exactly, or nil
// if no such entry has ever been created.
func (nt *NameTree) FindExact(name enc.Name) *NameTreeEntry {
	if len(name) == 0 {
		return nt.root
	}
	hashes := name.PrefixHash()
	return nt.findInBucket(hashes[len(name)], name)
}

// FindLongestPrefixMatch returns the entry for the longest prefix of
// name (including name itself) that has ever been created, satisfying
// pred if given. The root always matches, so this never returns nil.
func (nt *NameTree) FindLongestPrefixMatch(name enc.Name, pred func(*NameTreeEntry) bool) *NameTreeEntry {
	hashes := name.PrefixHash()
	for i := len(name); i >= 0; i-- {
		prefix := name.Prefix(i)
		if e := nt.findInBucket(hashes[i], prefix); e != nil {
			if pred == nil || pred(e) {
				return e
			}
		}
	}
	return nt.root
}

// FindOrInsert returns the entry for name, creating it and every
// missing ancestor along the way - every prefix of an occupied
// entry's name also exists as an entry.
func (nt *NameTree) FindOrInsert(name enc.Name) *NameTreeEntry {
	if len(name) == 0 {
		return nt.root
	}
	hashes := name.PrefixHash()
	if e := nt.findInBucket(hashes[len(name)], name); e != nil {
		return e
	}

	// Walk down from the deepest existing ancestor, creating nodes.
	depth := len(name) - 1
	for depth > 0 {
		if e := nt.findInBucket(hashes[depth], name.Prefix(depth)); e != nil {
			break
		}
		depth--
	}
	parent := nt.root
	if depth > 0 {
		parent = nt.findInBucket(hashes[depth], name.Prefix(depth))
	}

	for i := depth + 1; i <= len(name); i++ {
		prefix := name.Prefix(i)
		child := &NameTreeEntry{
			name:     prefix,
			hash:     hashes[i],
			parent:   parent,
			children: make(map[uint64]*NameTreeEntry),
		}
		nt.insertBucket(child)
		nt.count++
		parent.children[hashes[i]] = child
		parent = child
	}
	nt.maybeResize()
	return parent
}

// EraseIfEmpty removes e, and any now-empty ancestor chain above it,
// once it carries no table attachments and has no children. This is
// called after any operation that might have removed the last table
// attachment from an entry (PIT satisfaction, FIB nexthop removal,
// measurements expiry, strategy unset).
func (nt *NameTree) EraseIfEmpty(e *NameTreeEntry) {
	for e != nil && e != nt.root && e.isEmpty() {
		parent := e.parent
		delete(parent.children, e.hash)
		nt.removeBucket(e)
		nt.count--
		e = parent
	}
	nt.maybeResize()
}

// FullEnumeration iterates every entry currently in the tree.
func (nt *NameTree) FullEnumeration(pred func(*NameTreeEntry) bool) []*NameTreeEntry {
	var out []*NameTreeEntry
	for _, bucket := range nt.buckets {
		for _, e := range bucket {
			if pred == nil || pred(e) {
				out = append(out, e)
			}
		}
	}
	return out
}

// PartialEnumeration iterates the subtree rooted at name's entry
// (that entry and all of its descendants), or nothing if name has no
// entry. stopAt, if given, is checked against every entry below the
// root: once it returns true for an entry, that entry is excluded from
// the result and the walk does not descend into its children either -
// the root itself is always visited regardless of stopAt, since it is
// the entry the caller is enumerating from.
func (nt *NameTree) PartialEnumeration(name enc.Name, stopAt func(*NameTreeEntry) bool) []*NameTreeEntry {
	root := nt.FindExact(name)
	if root == nil {
		return nil
	}
	var out []*NameTreeEntry
	var walk func(e *NameTreeEntry, isRoot bool)
	walk = func(e *NameTreeEntry, isRoot bool) {
		if !isRoot && stopAt != nil && stopAt(e) {
			return
		}
		out = append(out, e)
		for _, c := range e.children {
			walk(c, false)
		}
	}
	walk(root, true)
	return out
}

// Size returns the number of entries currently in the tree.
func (nt *NameTree) Size() int { return nt.count }
