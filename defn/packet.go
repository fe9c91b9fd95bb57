package defn

import (
	"time"

	enc "github.com/named-data/ndnd/std/encoding"
	"github.com/named-data/ndnd/std/types/optional"
)

// Selectors restrict which Data packet satisfies an Interest beyond a
// plain name match.
type Selectors struct {
	MinSuffixComponents optional.Optional[int]
	MaxSuffixComponents optional.Optional[int]
	PublisherPublicKey  []byte
	Exclude             []enc.Component
	ChildSelector       optional.Optional[int]
	MustBeFresh         bool
}

// Equal reports whether two selector sets are equal for PIT-collapse
// purposes: two Interests collapse only when both their name and
// full selector set are equal.
func (s Selectors) Equal(o Selectors) bool {
	if s.MustBeFresh != o.MustBeFresh {
		return false
	}
	if s.MinSuffixComponents != o.MinSuffixComponents ||
		s.MaxSuffixComponents != o.MaxSuffixComponents ||
		s.ChildSelector != o.ChildSelector {
		return false
	}
	if len(s.Exclude) != len(o.Exclude) {
		return false
	}
	for i := range s.Exclude {
		if !s.Exclude[i].Equal(o.Exclude[i]) {
			return false
		}
	}
	return string(s.PublisherPublicKey) == string(o.PublisherPublicKey)
}

// FwInterest is the forwarder's normalized view of an Interest: the
// wire codec is assumed to
// have already decoded a packet into this shape.
type FwInterest struct {
	NameV             enc.Name
	CanBePrefix       bool
	MustBeFresh       bool
	ForwardingHintNew enc.Name
	NonceV            optional.Optional[uint32]
	InterestLifetime  optional.Optional[time.Duration]
	HopLimit          optional.Optional[uint8]
	Selectors         Selectors
}

// Lifetime returns the Interest's lifetime, falling back to the
// default of 4s used when the lifetime is unset.
func (i *FwInterest) Lifetime() time.Duration {
	return i.InterestLifetime.GetOr(DefaultInterestLifetime)
}

// Matches reports whether a Data packet satisfies this Interest,
// combining a name (or name-prefix, when CanBePrefix) match with the
// MustBeFresh selector. Full selector evaluation (exclude, suffix
// bounds) is not implemented; MustBeFresh is implemented since
// it is exercised by the default strategy path.
func (i *FwInterest) Matches(d *FwData, now time.Time) bool {
	if i.MustBeFresh && !d.FreshnessExpiry.IsZero() && !now.Before(d.FreshnessExpiry) {
		return false
	}
	if i.CanBePrefix {
		return i.NameV.IsPrefix(d.FullName())
	}
	return i.NameV.Equal(d.FullName())
}

// FwData is the forwarder's normalized view of a Data packet.
type FwData struct {
	NameV           enc.Name
	ImplicitDigest  enc.Component
	FreshnessExpiry time.Time
	Content         []byte
}

// FullName returns the Data's name with its implicit digest component
// appended, since the full name (including the implicit digest
// component) is what a PIT match enumerates against.
func (d *FwData) FullName() enc.Name {
	return d.NameV.Append(d.ImplicitDigest)
}

// FwNack is the forwarder's normalized view of a Nack.
type FwNack struct {
	Interest *FwInterest
	Reason   NackReason
}
