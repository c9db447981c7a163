package analysis

import (
	"strings"
)

// OwnerStatus is the result of the owner-slot derived analysis.
type OwnerStatus struct {
	HasOwnerFunction bool
	Owner            *string
	Renounced        bool
}

// NoOwnerFunction is returned when the ABI does not expose owner(), per
// spec: the status is reported rather than treated as an error.
func NoOwnerFunction() OwnerStatus {
	return OwnerStatus{HasOwnerFunction: false}
}

// DecodeOwner extracts an address from the 32-byte hex return of an owner()
// call (the address occupies the last 20 bytes) and classifies renouncement
// against the zero and dead sentinel addresses.
func DecodeOwner(rawReturnHex string) OwnerStatus {
	h := strings.TrimPrefix(rawReturnHex, "0x")
	if len(h) < 64 {
		return NoOwnerFunction()
	}
	addrHex := h[len(h)-40:]
	owner := "0x" + strings.ToLower(addrHex)

	renounced := owner == ZeroAddress || owner == DeadAddress
	return OwnerStatus{
		HasOwnerFunction: true,
		Owner:            &owner,
		Renounced:        renounced,
	}
}
