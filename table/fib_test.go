package table

import (
	"testing"

	enc "github.com/named-data/ndnd/std/encoding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFibInsertNextHopSortsByCost(t *testing.T) {
	nt := NewNameTree()
	fib := NewFib(nt)
	name, _ := enc.NameFromStr("/a")

	fib.InsertNextHop(name, 100, 20)
	fib.InsertNextHop(name, 200, 10)
	fib.InsertNextHop(name, 300, 30)

	entry := fib.FindExactMatch(name)
	require.NotNil(t, entry)
	hops := entry.GetNextHops()
	require.Len(t, hops, 3)
	assert.Equal(t, uint64(200), hops[0].Nexthop)
	assert.Equal(t, uint64(100), hops[1].Nexthop)
	assert.Equal(t, uint64(300), hops[2].Nexthop)
}

func TestFibInsertNextHopUpdatesExistingCost(t *testing.T) {
	nt := NewNameTree()
	fib := NewFib(nt)
	name, _ := enc.NameFromStr("/a")

	fib.InsertNextHop(name, 100, 20)
	fib.InsertNextHop(name, 100, 5)

	entry := fib.FindExactMatch(name)
	require.Len(t, entry.GetNextHops(), 1)
	assert.Equal(t, uint64(5), entry.GetNextHops()[0].Cost)
}

func TestFibRemoveNextHopErasesEmptyEntry(t *testing.T) {
	nt := NewNameTree()
	fib := NewFib(nt)
	name, _ := enc.NameFromStr("/a/b")

	fib.InsertNextHop(name, 100, 1)
	fib.RemoveNextHop(name, 100)

	assert.Nil(t, fib.FindExactMatch(name))
	assert.Nil(t, nt.FindExact(name))
}

func TestFibFindLongestPrefixMatch(t *testing.T) {
	nt := NewNameTree()
	fib := NewFib(nt)
	root, _ := enc.NameFromStr("/a")
	deep, _ := enc.NameFromStr("/a/b/c")

	fib.InsertNextHop(root, 1, 1)

	entry := fib.FindLongestPrefixMatch(deep)
	require.NotNil(t, entry)
	assert.True(t, entry.Name().Equal(root))
}

func TestFibRemoveFaceFromAllEntries(t *testing.T) {
	nt := NewNameTree()
	fib := NewFib(nt)
	a, _ := enc.NameFromStr("/a")
	b, _ := enc.NameFromStr("/b")

	fib.InsertNextHop(a, 7, 1)
	fib.InsertNextHop(b, 7, 1)
	fib.InsertNextHop(b, 8, 1)

	fib.RemoveFaceFromAllEntries(7)

	assert.Nil(t, fib.FindExactMatch(a))
	entryB := fib.FindExactMatch(b)
	require.NotNil(t, entryB)
	assert.Len(t, entryB.GetNextHops(), 1)
	assert.Equal(t, uint64(8), entryB.GetNextHops()[0].Nexthop)
}
