package mpc

import "golang.org/x/xerrors"

var (
	// ErrConfiguration signals an unusable protocol setup, such as a party
	// count other than three or an unknown security mode.
	ErrConfiguration = xerrors.New("falcon: invalid configuration")

	// ErrShape signals a missing or mismatched tensor shape, or a selector
	// bit that is not shared over the boolean ring.
	ErrShape = xerrors.New("falcon: invalid shape")

	// ErrMaliciousAbort signals that a verification check failed. The whole
	// call is discarded; callers must not continue past this error.
	ErrMaliciousAbort = xerrors.New("falcon: computation aborted, malicious behavior detected")
)

// errEmptyStore is the internal shortage signal from the crypto store. It is
// always recovered by a one-shot batch regeneration and never surfaced.
var errEmptyStore = xerrors.New("falcon: crypto primitive store exhausted")
