package state

import "errors"

var (
	// ErrInvalidTransition is returned when a stroke operation arrives in the
	// wrong session state. Public stroke methods swallow it.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrDecode wraps codec failures on import. The surface is left untouched.
	ErrDecode = errors.New("image decode failed")

	// ErrImportPending is returned while an import is replacing the surface.
	ErrImportPending = errors.New("import in progress")
)
