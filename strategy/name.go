package strategy

import (
	enc "github.com/named-data/ndnd/std/encoding"
)

// ParseStrategyName extracts the registry base name and version from
// a versioned strategy name of the form
// /localhost/nfd/strategy/<base>/<version>, returning ok=false if name
// does not have that shape.
func ParseStrategyName(name enc.Name) (base string, version uint64, ok bool) {
	if len(name) != 5 {
		return "", 0, false
	}
	if !name[0].IsGeneric("localhost") || !name[1].IsGeneric("nfd") || !name[2].IsGeneric("strategy") {
		return "", 0, false
	}
	if !name[4].IsVersion() {
		return "", 0, false
	}
	return name[3].String(), name[4].NumberVal(), true
}
