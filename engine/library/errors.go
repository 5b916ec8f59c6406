package library

import "errors"

var (
	// ErrClipNotFound is returned (wrapped) when no stored clip has the requested name.
	ErrClipNotFound = errors.New("clip not found")

	// ErrCorruptRecord is returned (wrapped) when a stored clip cannot be turned back into tracks.
	ErrCorruptRecord = errors.New("corrupt clip record")
)
