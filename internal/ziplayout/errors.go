package ziplayout

import "errors"

var (
	// ErrEmptyManifest is returned when a manifest has no members. An
	// archive with zero entries has no meaningful byte layout.
	ErrEmptyManifest = errors.New("ziplayout: manifest has no members")

	// ErrInvalidName is returned when a member name is empty, begins
	// with "/", or contains a NUL byte.
	ErrInvalidName = errors.New("ziplayout: invalid member name")

	// ErrLayoutTooLarge is returned when computing the layout would
	// overflow the 64-bit address space used for archive offsets.
	ErrLayoutTooLarge = errors.New("ziplayout: archive exceeds addressable size")
)
