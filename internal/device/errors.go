package device

import "errors"

var (
	// ErrUnknownDriver means the spec's driver tag maps to no variant.
	ErrUnknownDriver = errors.New("unknown driver tag")

	// ErrInvalidAddress means the pin or bus address failed validation.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrDuplicateDevice means an install would shadow an existing id.
	ErrDuplicateDevice = errors.New("device id already installed")

	// ErrLockTimeout means a bounded-wait acquisition of the registry
	// guard gave up. The caller skips its cycle and retries later.
	ErrLockTimeout = errors.New("registry lock timeout")
)
