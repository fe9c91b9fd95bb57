// Package fw implements the forwarder: the Interest/Data/Nack
// pipelines that wire the tables, the strategy dispatch, and a face's
// inbound/outbound traffic together.
package fw

import (
	enc "github.com/named-data/ndnd/std/encoding"
	"github.com/ndnfwd/corefwd/defn"
	"github.com/ndnfwd/corefwd/face"
	"github.com/ndnfwd/corefwd/table"
)

// scopeLocalhost and scopeLocalhop are the two namespaces subject to
// scope control, grounded on pit-algorithm.cpp's scope_prefix::LOCALHOST
// / LOCALHOP.
var (
	scopeLocalhost = enc.Name{enc.NewGenericComponent("localhost")}
	scopeLocalhop  = enc.Name{enc.NewGenericComponent("localhop")}
)

// violatesScope reports whether forwarding pitEntry's Interest out
// outFace would violate /localhost or /localhop scope. A local face
// may always be used. /localhost may never be crossed onto a
// non-local face. /localhop may be crossed onto a non-local face only
// if the PIT entry also has a local in-record (grounded on
// pit-algorithm.cpp's violatesScope).
func violatesScope(faces *face.Table, pitEntry *table.PitEntry, outFace *face.Face) bool {
	if outFace.Scope() == defn.Local {
		return false
	}

	name := pitEntry.EncName()
	if scopeLocalhost.IsPrefix(name) {
		return true
	}

	if scopeLocalhop.IsPrefix(name) {
		for faceId := range pitEntry.InRecords() {
			if f := faces.Get(faceId); f != nil && f.Scope() == defn.Local {
				return false
			}
		}
		return true
	}

	return false
}
