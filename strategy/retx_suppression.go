package strategy

import (
	"time"

	"github.com/ndnfwd/corefwd/defn"
	"github.com/ndnfwd/corefwd/table"
)

// RetxResult classifies an incoming Interest against the out-records
// already on its PIT entry, grounded on
// best-route-strategy2.cpp's RetxSuppression::Result.
type RetxResult int

const (
	// RetxNew means this PIT entry has no prior out-record: treat the
	// Interest as a first forward.
	RetxNew RetxResult = iota
	// RetxForward means this is a retransmission old enough to forward
	// again.
	RetxForward
	// RetxSuppress means this retransmission arrived before the
	// current suppression interval elapsed; do not forward again.
	RetxSuppress
)

// ExponentialRetxSuppression implements the exponential backoff
// retransmission suppression interval: an Interest arriving before the
// current interval has elapsed since the most recent out-record is
// suppressed, and the interval is multiplied by Multiplier (up to
// Max) each time a retransmission is forwarded. The interval is kept
// on the out-record and is never reset while the PIT entry lives
// (grounded on RetxSuppressionExponential referenced by
// best-route-strategy2.cpp's m_retxSuppression).
type ExponentialRetxSuppression struct {
	Initial    time.Duration
	Multiplier float64
	Max        time.Duration
}

// NewExponentialRetxSuppression constructs the suppression engine
// using the documented exponential back-off constants.
func NewExponentialRetxSuppression() *ExponentialRetxSuppression {
	return &ExponentialRetxSuppression{
		Initial:    defn.RetxSuppressionInitial,
		Multiplier: defn.RetxSuppressionMultiplier,
		Max:        defn.RetxSuppressionMax,
	}
}

// Decide classifies interest's arrival on inFaceId against pitEntry's
// existing out-records, and - when it decides FORWARD - updates the
// most recent out-record's suppression interval so the next
// arrival is judged against the new, larger interval.
func (s *ExponentialRetxSuppression) Decide(pitEntry *table.PitEntry, inFaceId uint64) RetxResult {
	if len(pitEntry.OutRecords()) == 0 {
		return RetxNew
	}

	now := time.Now()
	var lastOut *table.PitOutRecord
	for _, out := range pitEntry.OutRecords() {
		if lastOut == nil || out.LatestTimestamp.After(lastOut.LatestTimestamp) {
			lastOut = out
		}
	}
	if lastOut == nil {
		return RetxNew
	}

	interval := lastOut.SuppressionInterval
	if interval == 0 {
		interval = s.Initial
	}
	elapsed := now.Sub(lastOut.LatestTimestamp)
	if elapsed < interval {
		return RetxSuppress
	}

	next := time.Duration(float64(interval) * s.Multiplier)
	if next > s.Max {
		next = s.Max
	}
	lastOut.SuppressionInterval = next
	return RetxForward
}
