package table

import (
	"testing"

	enc "github.com/named-data/ndnd/std/encoding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameTreeFindOrInsertCreatesAncestry(t *testing.T) {
	nt := NewNameTree()
	name, _ := enc.NameFromStr("/a/b/c")

	leaf := nt.FindOrInsert(name)
	require.True(t, leaf.Name().Equal(name))

	for i := 1; i <= 3; i++ {
		ancestor := nt.FindExact(name.Prefix(i))
		require.NotNil(t, ancestor, "prefix of length %d should exist", i)
	}
}

func TestNameTreeFindExactMissing(t *testing.T) {
	nt := NewNameTree()
	name, _ := enc.NameFromStr("/not/inserted")
	assert.Nil(t, nt.FindExact(name))
}

func TestNameTreeFindLongestPrefixMatch(t *testing.T) {
	nt := NewNameTree()
	short, _ := enc.NameFromStr("/a")
	long, _ := enc.NameFromStr("/a/b/c/d")

	nt.FindOrInsert(short).fib = &FibEntry{}
	e := nt.FindLongestPrefixMatch(long, func(e *NameTreeEntry) bool { return e.fib != nil })
	assert.True(t, e.Name().Equal(short))
}

func TestNameTreeEraseIfEmptyCollapsesChain(t *testing.T) {
	nt := NewNameTree()
	name, _ := enc.NameFromStr("/x/y/z")
	leaf := nt.FindOrInsert(name)
	leaf.fib = &FibEntry{}

	sizeBefore := nt.Size()
	require.Greater(t, sizeBefore, 1)

	leaf.fib = nil
	nt.EraseIfEmpty(leaf)

	assert.Nil(t, nt.FindExact(name))
	assert.Nil(t, nt.FindExact(name.Prefix(2)))
	assert.Nil(t, nt.FindExact(name.Prefix(1)))
}

func TestNameTreePartialEnumeration(t *testing.T) {
	nt := NewNameTree()
	a, _ := enc.NameFromStr("/a")
	ab, _ := enc.NameFromStr("/a/b")
	ac, _ := enc.NameFromStr("/a/c")
	other, _ := enc.NameFromStr("/z")

	nt.FindOrInsert(a)
	nt.FindOrInsert(ab)
	nt.FindOrInsert(ac)
	nt.FindOrInsert(other)

	entries := nt.PartialEnumeration(a, nil)
	assert.Len(t, entries, 3)
}
