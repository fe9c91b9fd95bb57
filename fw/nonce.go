package fw

import (
	"time"

	"github.com/ndnfwd/corefwd/table"
)

// DuplicateNonceWhere is a bitmask of where a duplicate nonce was
// found on a PIT entry, grounded on pit-algorithm.hpp's
// DUPLICATE_NONCE_* flags.
type DuplicateNonceWhere int

const (
	DuplicateNonceNone     DuplicateNonceWhere = 0
	DuplicateNonceInSame   DuplicateNonceWhere = 1 << 0
	DuplicateNonceInOther  DuplicateNonceWhere = 1 << 1
	DuplicateNonceOutSame  DuplicateNonceWhere = 1 << 2
	DuplicateNonceOutOther DuplicateNonceWhere = 1 << 3
)

// findDuplicateNonce reports every place nonce already appears on
// pitEntry's in-records and out-records, relative to faceId (the face
// the Interest carrying nonce just arrived on or is about to be sent
// out). A result other than DuplicateNonceNone or exactly
// DuplicateNonceInSame (a retransmission on the same face) means the
// Interest has looped and must be dropped (grounded on
// pit-algorithm.cpp's findDuplicateNonce).
func findDuplicateNonce(pitEntry *table.PitEntry, nonce uint32, faceId uint64) DuplicateNonceWhere {
	var result DuplicateNonceWhere

	for f, in := range pitEntry.InRecords() {
		if in.LatestNonce != nonce {
			continue
		}
		if f == faceId {
			result |= DuplicateNonceInSame
		} else {
			result |= DuplicateNonceInOther
		}
	}

	for f, out := range pitEntry.OutRecords() {
		if out.LatestNonce != nonce {
			continue
		}
		if f == faceId {
			result |= DuplicateNonceOutSame
		} else {
			result |= DuplicateNonceOutOther
		}
	}

	return result
}

// hasPendingOutRecords reports whether pitEntry has any out-record
// that has neither expired nor already been Nacked - i.e. whether the
// forwarder is still waiting on an upstream for this Interest
// (grounded on pit-algorithm.cpp's hasPendingOutRecords).
func hasPendingOutRecords(pitEntry *table.PitEntry) bool {
	now := time.Now()
	for _, out := range pitEntry.OutRecords() {
		if out.ExpirationTime.After(now) && !out.HasNack {
			return true
		}
	}
	return false
}
