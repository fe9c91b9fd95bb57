// Package face holds the Face abstraction and FaceTable. Real
// transports (TCP/UDP/Ethernet/WebSocket listeners and their wire
// codecs) are outside this repository's scope - Faces here are
// collaborators the forwarder sends normalized packets to and
// receives normalized packets from, not socket owners.
package face

import (
	"sync"
	"time"

	"github.com/named-data/ndnd/std/ndn/mgmt_2022"
	"github.com/ndnfwd/corefwd/defn"
)

// Face is the forwarder's view of one face: enough metadata to make
// forwarding decisions (scope, link type, persistency) plus a sink
// the forwarder pipelines call to hand it an outgoing packet. A
// concrete transport implementation lives outside this module and
// plugs into a Face through SetSendCallbacks, wrapping whatever socket
// or queue it actually owns.
type Face struct {
	id          uint64
	uri         *defn.FaceURI
	localURI    *defn.FaceURI
	scope       defn.Scope
	linkType    defn.LinkType
	mtu         int
	persistency mgmt_2022.Persistency
	expiration  *time.Time

	sendInterest func(wire []byte) error
	sendData     func(wire []byte) error
	sendNack     func(wire []byte) error

	mu       sync.Mutex
	up       bool
	nInPkts  uint64
	nOutPkts uint64
}

// NewFace constructs a Face record with no send callbacks; a transport
// supplies them through SetSendCallbacks. A face whose callbacks are
// nil is a black hole (used for the null face).
func NewFace(id uint64, uri, localURI *defn.FaceURI, scope defn.Scope, linkType defn.LinkType, mtu int) *Face {
	return &Face{
		id:       id,
		uri:      uri,
		localURI: localURI,
		scope:    scope,
		linkType: linkType,
		mtu:      mtu,
		up:       true,
	}
}

func (f *Face) Id() uint64                         { return f.id }
func (f *Face) RemoteURI() *defn.FaceURI           { return f.uri }
func (f *Face) LocalURI() *defn.FaceURI            { return f.localURI }
func (f *Face) Scope() defn.Scope                  { return f.scope }
func (f *Face) LinkType() defn.LinkType            { return f.linkType }
func (f *Face) MTU() int                           { return f.mtu }
func (f *Face) Persistency() mgmt_2022.Persistency { return f.persistency }

// SetPersistency records the face's persistency, as returned by
// Persistency. Nothing in this module tears a face down based on it.
func (f *Face) SetPersistency(p mgmt_2022.Persistency) { f.persistency = p }

// SetSendCallbacks wires a concrete transport's send functions into
// the face. Called once by the transport at face creation time.
func (f *Face) SetSendCallbacks(sendInterest, sendData, sendNack func([]byte) error) {
	f.sendInterest = sendInterest
	f.sendData = sendData
	f.sendNack = sendNack
}

// IsUp reports whether the face is currently usable.
func (f *Face) IsUp() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.up
}

// SetDown marks the face unusable. The forwarder skips a down face
// when selecting nexthops; its FIB nexthops and PIT records are left
// in place.
func (f *Face) SetDown() {
	f.mu.Lock()
	f.up = false
	f.mu.Unlock()
}

// SendInterestWire hands an encoded Interest to the face's transport.
func (f *Face) SendInterestWire(wire []byte) error {
	if f.sendInterest == nil {
		return nil
	}
	f.mu.Lock()
	f.nOutPkts++
	f.mu.Unlock()
	return f.sendInterest(wire)
}

// SendDataWire hands an encoded Data to the face's transport.
func (f *Face) SendDataWire(wire []byte) error {
	if f.sendData == nil {
		return nil
	}
	f.mu.Lock()
	f.nOutPkts++
	f.mu.Unlock()
	return f.sendData(wire)
}

// SendNackWire hands an encoded Nack to the face's transport.
func (f *Face) SendNackWire(wire []byte) error {
	if f.sendNack == nil {
		return nil
	}
	f.mu.Lock()
	f.nOutPkts++
	f.mu.Unlock()
	return f.sendNack(wire)
}
