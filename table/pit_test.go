package table

import (
	"testing"

	enc "github.com/named-data/ndnd/std/encoding"
	"github.com/named-data/ndnd/std/types/optional"
	"github.com/ndnfwd/corefwd/defn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPitFindOrInsertCollapsesIdenticalInterests(t *testing.T) {
	nt := NewNameTree()
	pit := NewPit(nt)
	name, _ := enc.NameFromStr("/a/b")

	i1 := &defn.FwInterest{NameV: name, NonceV: optional.Some(uint32(1))}
	i2 := &defn.FwInterest{NameV: name, NonceV: optional.Some(uint32(2))}

	e1, isNew1 := pit.FindOrInsert(i1)
	e2, isNew2 := pit.FindOrInsert(i2)

	assert.True(t, isNew1)
	assert.False(t, isNew2)
	assert.Same(t, e1, e2)
}

func TestPitFindOrInsertDoesNotCollapseDifferentSelectors(t *testing.T) {
	nt := NewNameTree()
	pit := NewPit(nt)
	name, _ := enc.NameFromStr("/a/b")

	i1 := &defn.FwInterest{NameV: name, MustBeFresh: true}
	i2 := &defn.FwInterest{NameV: name, MustBeFresh: false}

	e1, _ := pit.FindOrInsert(i1)
	e2, _ := pit.FindOrInsert(i2)

	assert.NotSame(t, e1, e2)
}

func TestPitInsertInRecordReturnsPreviousNonce(t *testing.T) {
	nt := NewNameTree()
	pit := NewPit(nt)
	name, _ := enc.NameFromStr("/a")
	entry, _ := pit.FindOrInsert(&defn.FwInterest{NameV: name})

	i1 := &defn.FwInterest{NameV: name, NonceV: optional.Some(uint32(5))}
	_, alreadyExists, _ := entry.InsertInRecord(i1, 42, []byte("tok"))
	assert.False(t, alreadyExists)

	i2 := &defn.FwInterest{NameV: name, NonceV: optional.Some(uint32(6))}
	rec, alreadyExists, prevNonce := entry.InsertInRecord(i2, 42, []byte("tok"))
	assert.True(t, alreadyExists)
	assert.Equal(t, uint32(5), prevNonce)
	assert.Equal(t, uint32(6), rec.LatestNonce)
	assert.Len(t, entry.InRecords(), 1)
}

func TestPitFindAllMatchingRespectsCanBePrefix(t *testing.T) {
	nt := NewNameTree()
	pit := NewPit(nt)
	prefixName, _ := enc.NameFromStr("/a")
	dataName, _ := enc.NameFromStr("/a/b")

	prefixEntry, _ := pit.FindOrInsert(&defn.FwInterest{NameV: prefixName, CanBePrefix: true})
	siblingName, _ := enc.NameFromStr("/z")
	siblingEntry, _ := pit.FindOrInsert(&defn.FwInterest{NameV: siblingName, CanBePrefix: true})

	data := &defn.FwData{NameV: dataName}
	matches := pit.FindAllMatching(data)

	require.Len(t, matches, 1)
	assert.Same(t, prefixEntry, matches[0])
	assert.NotSame(t, siblingEntry, matches[0])
}

func TestPitEraseRemovesEntryAndEmptyNode(t *testing.T) {
	nt := NewNameTree()
	pit := NewPit(nt)
	name, _ := enc.NameFromStr("/solo")
	entry, _ := pit.FindOrInsert(&defn.FwInterest{NameV: name})

	pit.Erase(entry)

	assert.Nil(t, nt.FindExact(name))
	assert.Equal(t, 0, pit.Size())
}
