package reconstruct

import (
	"fmt"
	"strings"
)

// ClaimMode selects whether a hit may be claimed by more than one track.
type ClaimMode int

const (
	// ClaimStrict gives every hit to at most one track.
	ClaimStrict ClaimMode = iota
	// ClaimShared keeps claimed hits available to later tracks.
	ClaimShared
)

func (m ClaimMode) String() string {
	switch m {
	case ClaimStrict:
		return "strict"
	case ClaimShared:
		return "shared"
	default:
		return fmt.Sprintf("ClaimMode(%d)", int(m))
	}
}

// ParseClaimMode parses "strict" or "shared" (case-insensitive). An empty
// string selects ClaimStrict.
func ParseClaimMode(s string) (ClaimMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return ClaimStrict, nil
	case "shared":
		return ClaimShared, nil
	default:
		return ClaimStrict, fmt.Errorf("unknown claim mode %q (want strict or shared)", s)
	}
}
