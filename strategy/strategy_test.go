package strategy

import (
	"testing"

	"github.com/ndnfwd/corefwd/defn"
	"github.com/ndnfwd/corefwd/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOutbound struct {
	sentInterestTo []uint64
	sentNackTo     []uint64
	sentNackReason []defn.NackReason
	rejected       bool
}

func (f *fakeOutbound) SendInterest(*defn.FwInterest, *table.PitEntry, uint64, uint64) {}
func (f *fakeOutbound) SendData(*defn.FwData, []byte, *table.PitEntry, uint64, uint64) {}
func (f *fakeOutbound) SendNack(pitEntry *table.PitEntry, faceId uint64, reason defn.NackReason) {
	f.sentNackTo = append(f.sentNackTo, faceId)
	f.sentNackReason = append(f.sentNackReason, reason)
}
func (f *fakeOutbound) RejectPendingInterest(*table.PitEntry)     { f.rejected = true }
func (f *fakeOutbound) LookupFib(*table.PitEntry) *table.FibEntry { return nil }

func (f *fakeOutboundRecording) SendInterest(interest *defn.FwInterest, pitEntry *table.PitEntry, faceId uint64, inFaceId uint64) {
	f.sentInterestTo = append(f.sentInterestTo, faceId)
}

type fakeOutboundRecording struct {
	fakeOutbound
}

func TestRegistryRegisterAndNew(t *testing.T) {
	reg := NewRegistry()
	RegisterInto(reg)

	versions, ok := reg.Versions("best-route")
	require.True(t, ok)
	assert.Contains(t, versions, uint64(1))

	s := reg.New("best-route", 1)
	require.NotNil(t, s)
	assert.True(t, BestRouteStrategyName.Equal(s.Name()))
}

func TestRegistryUnknownStrategy(t *testing.T) {
	reg := NewRegistry()
	assert.Nil(t, reg.New("nonexistent", 1))
	_, ok := reg.Versions("nonexistent")
	assert.False(t, ok)
}

func TestBestRouteForwardsNewInterestToCheapestEligibleNexthop(t *testing.T) {
	s := NewBestRouteStrategy().(*BestRouteStrategy)
	pit := newTestPitEntry()
	out := &fakeOutboundRecording{}

	nexthops := []*table.FibNextHopEntry{
		{Nexthop: 10, Cost: 5},
		{Nexthop: 11, Cost: 1},
	}

	s.AfterReceiveInterest(out, &defn.FwInterest{}, pit, 99, nexthops)

	require.Len(t, out.sentInterestTo, 1)
	assert.Equal(t, uint64(11), out.sentInterestTo[0])
}

func TestBestRouteNacksWhenNoEligibleNexthop(t *testing.T) {
	s := NewBestRouteStrategy().(*BestRouteStrategy)
	pit := newTestPitEntry()
	out := &fakeOutboundRecording{}

	s.AfterReceiveInterest(out, &defn.FwInterest{}, pit, 10, []*table.FibNextHopEntry{
		{Nexthop: 10, Cost: 1},
	})

	require.Len(t, out.sentNackTo, 1)
	assert.Equal(t, defn.NackReasonNoRoute, out.sentNackReason[0])
	assert.True(t, out.rejected)
}

func newTestPitEntry() *table.PitEntry {
	nt := table.NewNameTree()
	pit := table.NewPit(nt)
	entry, _ := pit.FindOrInsert(&defn.FwInterest{})
	return entry
}
