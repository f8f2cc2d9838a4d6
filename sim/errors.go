package sim

import "errors"

var (
	// ErrPayloadChanged indicates a live payload no longer matches its digest.
	ErrPayloadChanged = errors.New("sim: payload changed")

	// ErrPinnedMoved indicates a pinned payload changed address.
	ErrPinnedMoved = errors.New("sim: pinned allocation moved")

	// ErrDuplicateHandle indicates Alloc returned a handle that is still live.
	ErrDuplicateHandle = errors.New("sim: live handle issued twice")

	// ErrInvariant wraps a verify failure.
	ErrInvariant = errors.New("sim: pool invariant violated")

	// ErrUnexpected indicates a pool call failed in a way the workload rules out.
	ErrUnexpected = errors.New("sim: unexpected pool error")
)
