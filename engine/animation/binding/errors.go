package binding

import "errors"

// Resolution failures reported by PropertyBinding.Err.
var (
	ErrNodeNotFound        = errors.New("node not found")
	ErrObjectNotFound      = errors.New("sub-object not found")
	ErrPropertyNotFound    = errors.New("property not found")
	ErrIndexNotFound       = errors.New("property index not found")
	ErrUnsupportedProperty = errors.New("unsupported property")
	ErrValueSizeMismatch   = errors.New("property value size mismatch")
)
