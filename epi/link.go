package epi

import (
	"fmt"
	"math"
)

// Link is a closed set of inverse-link kinds used to map a linear
// predictor onto a constrained scale. Dispatch is a single switch at
// evaluation time; there is no open hierarchy to extend.
type Link int

const (
	// LinkLogit maps the predictor through the logistic function onto
	// (0, 1). Default for both the reproduction-number model (where it
	// is additionally scaled by 2*RMax) and ascertainment curves.
	LinkLogit Link = iota

	// LinkLog maps the predictor through exp onto (0, +Inf).
	LinkLog

	// LinkIdentity passes the predictor through unchanged.
	LinkIdentity
)

// ParseLink resolves a configuration string to a Link kind.
func ParseLink(s string) (Link, error) {
	switch s {
	case "", "logit":
		return LinkLogit, nil
	case "log":
		return LinkLog, nil
	case "identity":
		return LinkIdentity, nil
	default:
		return 0, specErrf("link", "unknown link kind %q", s)
	}
}

func (l Link) String() string {
	switch l {
	case LinkLogit:
		return "logit"
	case LinkLog:
		return "log"
	case LinkIdentity:
		return "identity"
	default:
		return fmt.Sprintf("Link(%d)", int(l))
	}
}

// Inverse applies the inverse link to a linear predictor value.
func (l Link) Inverse(eta float64) float64 {
	switch l {
	case LinkLogit:
		// Numerically stable logistic: avoids overflow for large |eta|.
		if eta >= 0 {
			return 1 / (1 + math.Exp(-eta))
		}
		e := math.Exp(eta)
		return e / (1 + e)
	case LinkLog:
		return math.Exp(eta)
	default:
		return eta
	}
}
