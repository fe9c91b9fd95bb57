package fw

import (
	"testing"
	"time"

	enc "github.com/named-data/ndnd/std/encoding"
	"github.com/named-data/ndnd/std/types/optional"
	"github.com/ndnfwd/corefwd/core"
	"github.com/ndnfwd/corefwd/defn"
	"github.com/ndnfwd/corefwd/face"
	"github.com/ndnfwd/corefwd/strategy"
	"github.com/ndnfwd/corefwd/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestThread builds a Thread wired the same way cmd.NewDaemon wires
// one, but without starting its Loop - every test here drives the
// pipeline synchronously and never needs the scheduler goroutine
// running, since we only assert on table state, not on fired timers.
func newTestThread(t *testing.T) *Thread {
	t.Helper()
	faces := face.NewTable()
	strategies := strategy.NewRegistry()
	strategy.RegisterInto(strategies)
	cs := table.NewMemoryContentStore(table.NewNameTree(), 0)
	return NewThread(core.NewLoop(), faces, strategies, cs, strategy.BestRouteStrategyName)
}

// addRecordingFace registers a face on thread.Faces that appends its
// own id to *sent every time Data is sent out it.
func addRecordingFace(t *Thread, id uint64, sent *[]uint64) {
	f := face.NewFace(id, defn.MakeNullFaceURI(), defn.MakeNullFaceURI(), defn.NonLocal, defn.PointToPoint, 0)
	f.SetSendCallbacks(nil, func([]byte) error {
		*sent = append(*sent, id)
		return nil
	}, nil)
	t.Faces.Add(f)
}

func TestContentStoreHitSatisfiesEveryInRecord(t *testing.T) {
	thread := newTestThread(t)
	var sent []uint64
	addRecordingFace(thread, 1, &sent)
	addRecordingFace(thread, 2, &sent)

	name, _ := enc.NameFromStr("/a/b")
	data := &defn.FwData{NameV: name, FreshnessExpiry: time.Now().Add(time.Hour)}
	thread.Cs.Insert(data, []byte("wire"))

	interest := &defn.FwInterest{NameV: name, NonceV: optional.Some(uint32(1))}
	pitEntry, _ := thread.Pit.FindOrInsert(interest)
	pitEntry.InsertInRecord(interest, 1, nil)

	// A second Interest for the same (name, selectors) from face 2
	// collapses onto the same PIT entry and should also be satisfied
	// by the CS hit, not just the face that triggered the lookup.
	interest2 := &defn.FwInterest{NameV: name, NonceV: optional.Some(uint32(2))}
	thread.OnIncomingInterest(interest2, 2)

	assert.ElementsMatch(t, []uint64{1, 2}, sent)
	assert.True(t, pitEntry.Satisfied())
	assert.Empty(t, pitEntry.InRecords())
	assert.Empty(t, pitEntry.OutRecords())
	assert.Equal(t, uint64(1), thread.counters.nCsHits.Load())
}

func TestContentStoreHitSendsCachedDataOnceAndSatisfiesEntry(t *testing.T) {
	thread := newTestThread(t)
	var sent []uint64
	addRecordingFace(thread, 1, &sent)

	name, _ := enc.NameFromStr("/a/b")
	data := &defn.FwData{NameV: name, FreshnessExpiry: time.Now().Add(time.Hour)}
	thread.Cs.Insert(data, []byte("wire"))

	interest := &defn.FwInterest{NameV: name, NonceV: optional.Some(uint32(1))}
	thread.OnIncomingInterest(interest, 1)

	// satisfyPitEntry runs scheduleStragglerTimer last, replacing the
	// unsatisfy timer OnIncomingInterest armed before the CS lookup.
	// The timer handle is not visible from this package, so this test
	// checks the observable outcome: the cached Data went out face 1
	// exactly once and the entry is marked satisfied.
	pitEntry, _ := thread.Pit.FindOrInsert(interest)
	require.Len(t, sent, 1)
	assert.Equal(t, uint64(1), sent[0])
	assert.True(t, pitEntry.Satisfied())
}

func TestUnsatisfyTimerRenewedByLaterLongerInRecord(t *testing.T) {
	thread := newTestThread(t)
	addRecordingFace(thread, 1, nil)
	addRecordingFace(thread, 2, nil)
	addRecordingFace(thread, 3, nil)

	name, _ := enc.NameFromStr("/c/d")
	thread.Fib.InsertNextHop(name, 3, 10)

	short := &defn.FwInterest{
		NameV:            name,
		NonceV:           optional.Some(uint32(1)),
		InterestLifetime: optional.Some(2 * time.Second),
	}
	thread.OnIncomingInterest(short, 1)

	pitEntry, _ := thread.Pit.FindOrInsert(short)
	firstExpiration := pitEntry.ExpirationTime()

	long := &defn.FwInterest{
		NameV:            name,
		NonceV:           optional.Some(uint32(2)),
		InterestLifetime: optional.Some(10 * time.Second),
	}
	thread.OnIncomingInterest(long, 2)

	assert.True(t, pitEntry.ExpirationTime().After(firstExpiration),
		"a longer-lived in-record must extend the entry's expiration, never leave it at the shorter one")
	assert.True(t, pitEntry.ExpirationTime().After(time.Now().Add(9*time.Second)))
}

func TestUnsatisfyTimerNeverShortenedByAnEarlierInRecord(t *testing.T) {
	thread := newTestThread(t)
	addRecordingFace(thread, 1, nil)
	addRecordingFace(thread, 2, nil)
	addRecordingFace(thread, 3, nil)

	name, _ := enc.NameFromStr("/e/f")
	thread.Fib.InsertNextHop(name, 3, 10)

	long := &defn.FwInterest{
		NameV:            name,
		NonceV:           optional.Some(uint32(1)),
		InterestLifetime: optional.Some(10 * time.Second),
	}
	thread.OnIncomingInterest(long, 1)

	pitEntry, _ := thread.Pit.FindOrInsert(long)
	firstExpiration := pitEntry.ExpirationTime()

	short := &defn.FwInterest{
		NameV:            name,
		NonceV:           optional.Some(uint32(2)),
		InterestLifetime: optional.Some(time.Second),
	}
	thread.OnIncomingInterest(short, 2)

	assert.Equal(t, firstExpiration, pitEntry.ExpirationTime())
}

func TestIncomingDataClearsInRecordsOnSatisfaction(t *testing.T) {
	thread := newTestThread(t)
	var sent []uint64
	addRecordingFace(thread, 1, &sent)
	addRecordingFace(thread, 2, &sent)

	name, _ := enc.NameFromStr("/g/h")
	thread.Fib.InsertNextHop(name, 3, 10)
	addRecordingFace(thread, 3, nil)
	// CanBePrefix, so the match below doesn't depend on the zero
	// ImplicitDigest component FwData.FullName() always appends.
	interest := &defn.FwInterest{NameV: name, CanBePrefix: true, NonceV: optional.Some(uint32(1))}
	thread.OnIncomingInterest(interest, 1)

	interest2 := &defn.FwInterest{NameV: name, CanBePrefix: true, NonceV: optional.Some(uint32(2))}
	thread.OnIncomingInterest(interest2, 2)

	pitEntry, _ := thread.Pit.FindOrInsert(interest)
	require.Len(t, pitEntry.InRecords(), 2)

	data := &defn.FwData{NameV: name}
	thread.OnIncomingData(data, []byte("wire"), 3)

	assert.ElementsMatch(t, []uint64{1, 2}, sent)
	assert.Empty(t, pitEntry.InRecords())
	assert.Empty(t, pitEntry.OutRecords())
	assert.True(t, pitEntry.Satisfied())
}
