package track

import "errors"

var (
	// ErrInvalidTrack is returned (wrapped) by the track constructors when the key data is malformed:
	// empty, mismatched lengths, non-finite values or times that go backwards.
	ErrInvalidTrack = errors.New("invalid track")

	// ErrInvalidPath is returned (wrapped) when a track name cannot be parsed into a PropertyPath.
	ErrInvalidPath = errors.New("invalid property path")
)
