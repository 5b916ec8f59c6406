package binding

import (
	"fmt"
	"strconv"

	"github.com/Carmen-Shannon/oxy-anim/engine/animation/track"
)

// AccessorKind is the storage shape a binding reads and writes. It is chosen once at bind time.
type AccessorKind int

const (
	// AccessorNone is used by unresolved bindings; reads and writes do nothing.
	AccessorNone AccessorKind = iota
	// AccessorDirect reads and writes a float64 field.
	AccessorDirect
	// AccessorDirectBool reads and writes a bool field as 0 or 1.
	AccessorDirectBool
	// AccessorDirectString reads and writes a string field as a label index.
	AccessorDirectString
	// AccessorEntireArray copies a whole slice.
	AccessorEntireArray
	// AccessorArrayElement reads and writes one element of a slice.
	AccessorArrayElement
	// AccessorHasFromToArray goes through ArrayConvertible.ToArray and FromArray.
	AccessorHasFromToArray

	accessorKindCount
)

// Versioning is the dirty notification a binding sends after writing. It is chosen once at bind time.
type Versioning int

const (
	// VersioningNone sends no notification.
	VersioningNone Versioning = iota
	// VersioningNeedsUpdate calls SetNeedsUpdate on the target.
	VersioningNeedsUpdate
	// VersioningMatrixWorldNeedsUpdate calls SetMatrixWorldNeedsUpdate on the target.
	VersioningMatrixWorldNeedsUpdate

	versioningCount
)

type accessorFunc func(b *propertyBinding, buf []float64, offset int)

// propertyBinding is the implementation of the PropertyBinding interface.
type propertyBinding struct {
	root      Root
	trackName string
	path      track.PropertyPath
	labels    *Labels
	expect    int

	target     Object
	kind       AccessorKind
	versioning Versioning
	err        error

	num       *float64
	flag      *bool
	str       *string
	arr       *[]float64
	elem      int
	packed    ArrayConvertible
	valueSize int

	needsUpdate NeedsUpdater
	matrixWorld MatrixWorldNeedsUpdater

	getter accessorFunc
	setter accessorFunc
}

// PropertyBinding is the resolved connection between a track path and a live property.
//
// Resolution happens once, at construction. Reads and writes then go through an accessor pair taken
// from a fixed table, so the per-frame path does no lookups. A binding that fails to resolve keeps a
// no-op accessor pair and reports the cause through Err; it never fails at evaluation time.
type PropertyBinding interface {
	// GetValue copies the live property value into buf at offset.
	//
	// Parameters:
	//   - buf: the destination buffer
	//   - offset: the first index to write
	GetValue(buf []float64, offset int)

	// SetValue writes buf at offset into the live property and flags the target as dirty if it
	// supports versioning.
	//
	// Parameters:
	//   - buf: the source buffer
	//   - offset: the first index to read
	SetValue(buf []float64, offset int)

	// Root returns the root the binding was resolved against.
	//
	// Returns:
	//   - Root: the root
	Root() Root

	// TrackName returns the textual path of the binding, used as its cache key.
	//
	// Returns:
	//   - string: the track name
	TrackName() string

	// Path returns the parsed path.
	//
	// Returns:
	//   - track.PropertyPath: the parsed path
	Path() track.PropertyPath

	// Target returns the resolved node or sub-object, nil when unresolved.
	//
	// Returns:
	//   - Object: the target object
	Target() Object

	// Kind returns the accessor kind selected at bind time.
	//
	// Returns:
	//   - AccessorKind: the accessor kind, AccessorNone when unresolved
	Kind() AccessorKind

	// Versioning returns the dirty notification selected at bind time.
	//
	// Returns:
	//   - Versioning: the versioning mode
	Versioning() Versioning

	// ValueSize returns the number of floats the bound property occupies in a blend buffer.
	//
	// Returns:
	//   - int: the value size, 0 when unresolved
	ValueSize() int

	// Resolved reports whether the binding found its property.
	//
	// Returns:
	//   - bool: true if reads and writes reach a live property
	Resolved() bool

	// Err returns why the binding failed to resolve.
	//
	// Returns:
	//   - error: nil when resolved, otherwise wrapping one of the Err* sentinels
	Err() error
}

var _ PropertyBinding = &propertyBinding{}

// NewPropertyBinding resolves path against root.
//
// The node is looked up with root.FindNode; an empty node name or "." is the root itself. A sub-object
// (path.ObjectName) is resolved through ObjectContainer. The property's shape decides the accessor kind
// and the target's dirty interfaces decide the versioning.
//
// Parameters:
//   - root: the root to resolve against
//   - trackName: the textual path, kept as the binding key
//   - path: the parsed path
//   - labels: the label table used for string properties
//   - options: variadic list of PropertyBindingBuilderOption functions
//
// Returns:
//   - PropertyBinding: the binding, unresolved (see Err) if any step failed
func NewPropertyBinding(root Root, trackName string, path track.PropertyPath, labels *Labels, options ...PropertyBindingBuilderOption) PropertyBinding {
	b := &propertyBinding{
		root:      root,
		trackName: trackName,
		path:      path,
		labels:    labels,
	}
	for _, opt := range options {
		opt(b)
	}
	if b.labels == nil {
		b.labels = NewLabels()
	}
	err := b.resolve()
	if err == nil && b.expect > 0 && b.valueSize != b.expect {
		err = fmt.Errorf("%q holds %d values, want %d: %w", path.PropertyName, b.valueSize, b.expect, ErrValueSizeMismatch)
	}
	if err != nil {
		b.err = fmt.Errorf("bind %q: %w", trackName, err)
		b.kind = AccessorNone
		b.versioning = VersioningNone
		b.target = nil
		b.valueSize = 0
	}
	b.getter = getterTable[b.kind]
	b.setter = setterTable[b.kind][b.versioning]
	return b
}

func (b *propertyBinding) resolve() error {
	p := b.path

	var node Object
	if p.NodeName == "" || p.NodeName == "." {
		node = b.root
	} else {
		n, ok := b.root.FindNode(p.NodeName)
		if !ok || n == nil {
			return fmt.Errorf("%q: %w", p.NodeName, ErrNodeNotFound)
		}
		node = n
	}

	target := node
	if p.ObjectName != "" {
		container, ok := node.(ObjectContainer)
		if !ok {
			return fmt.Errorf("%q has no sub-objects: %w", p.NodeName, ErrObjectNotFound)
		}
		sub, ok := container.AnimatedObject(p.ObjectName, p.ObjectIndex)
		if !ok || sub == nil {
			return fmt.Errorf("%s[%s]: %w", p.ObjectName, p.ObjectIndex, ErrObjectNotFound)
		}
		target = sub
	}
	b.target = target

	prop, ok := target.AnimatedProperty(p.PropertyName)
	if !ok || prop == nil {
		return fmt.Errorf("%q: %w", p.PropertyName, ErrPropertyNotFound)
	}

	if nu, ok := target.(NeedsUpdater); ok {
		b.versioning, b.needsUpdate = VersioningNeedsUpdate, nu
	} else if mw, ok := target.(MatrixWorldNeedsUpdater); ok {
		b.versioning, b.matrixWorld = VersioningMatrixWorldNeedsUpdate, mw
	}

	return b.resolveAccessor(prop)
}

func (b *propertyBinding) resolveAccessor(prop Property) error {
	p := b.path
	indexed := p.PropertyIndex != ""

	switch v := prop.(type) {
	case Number:
		if v.Ptr == nil || indexed {
			return fmt.Errorf("number %q: %w", p.PropertyName, ErrUnsupportedProperty)
		}
		b.kind, b.num, b.valueSize = AccessorDirect, v.Ptr, 1
	case Bool:
		if v.Ptr == nil || indexed {
			return fmt.Errorf("bool %q: %w", p.PropertyName, ErrUnsupportedProperty)
		}
		b.kind, b.flag, b.valueSize = AccessorDirectBool, v.Ptr, 1
	case String:
		if v.Ptr == nil || indexed {
			return fmt.Errorf("string %q: %w", p.PropertyName, ErrUnsupportedProperty)
		}
		b.kind, b.str, b.valueSize = AccessorDirectString, v.Ptr, 1
	case Array:
		if v.Ptr == nil {
			return fmt.Errorf("array %q: %w", p.PropertyName, ErrUnsupportedProperty)
		}
		b.arr = v.Ptr
		if !indexed {
			b.kind, b.valueSize = AccessorEntireArray, len(*v.Ptr)
			return nil
		}
		i, err := resolveIndex(p.PropertyIndex, v.Names, len(*v.Ptr))
		if err != nil {
			return fmt.Errorf("%s[%s]: %w", p.PropertyName, p.PropertyIndex, err)
		}
		b.kind, b.elem, b.valueSize = AccessorArrayElement, i, 1
	case Packed:
		if v.Value == nil {
			return fmt.Errorf("packed %q: %w", p.PropertyName, ErrUnsupportedProperty)
		}
		if !indexed {
			b.kind, b.packed, b.valueSize = AccessorHasFromToArray, v.Value, v.Value.Len()
			return nil
		}
		i, err := resolveIndex(p.PropertyIndex, v.Names, v.Value.Len())
		if err != nil {
			return fmt.Errorf("%s[%s]: %w", p.PropertyName, p.PropertyIndex, err)
		}
		addr, ok := v.Value.(Addressable)
		if !ok || addr.Element(i) == nil {
			return fmt.Errorf("component %s[%s] is not addressable: %w", p.PropertyName, p.PropertyIndex, ErrUnsupportedProperty)
		}
		b.kind, b.num, b.valueSize = AccessorDirect, addr.Element(i), 1
	default:
		return fmt.Errorf("%q: %w", p.PropertyName, ErrUnsupportedProperty)
	}
	return nil
}

// resolveIndex maps a bracketed index to a position, by name first, then as a number.
func resolveIndex(index string, names map[string]int, length int) (int, error) {
	i, ok := names[index]
	if !ok {
		n, err := strconv.Atoi(index)
		if err != nil {
			return 0, ErrIndexNotFound
		}
		i = n
	}
	if i < 0 || i >= length {
		return 0, ErrIndexNotFound
	}
	return i, nil
}

func (b *propertyBinding) GetValue(buf []float64, offset int) {
	b.getter(b, buf, offset)
}

func (b *propertyBinding) SetValue(buf []float64, offset int) {
	b.setter(b, buf, offset)
}

func (b *propertyBinding) Root() Root {
	return b.root
}

func (b *propertyBinding) TrackName() string {
	return b.trackName
}

func (b *propertyBinding) Path() track.PropertyPath {
	return b.path
}

func (b *propertyBinding) Target() Object {
	return b.target
}

func (b *propertyBinding) Kind() AccessorKind {
	return b.kind
}

func (b *propertyBinding) Versioning() Versioning {
	return b.versioning
}

func (b *propertyBinding) ValueSize() int {
	return b.valueSize
}

func (b *propertyBinding) Resolved() bool {
	return b.err == nil
}

func (b *propertyBinding) Err() error {
	return b.err
}

// --- Accessor tables ---

var getterTable = [accessorKindCount]accessorFunc{
	AccessorNone: func(*propertyBinding, []float64, int) {},
	AccessorDirect: func(b *propertyBinding, buf []float64, off int) {
		buf[off] = *b.num
	},
	AccessorDirectBool: func(b *propertyBinding, buf []float64, off int) {
		buf[off] = 0
		if *b.flag {
			buf[off] = 1
		}
	},
	AccessorDirectString: func(b *propertyBinding, buf []float64, off int) {
		buf[off] = float64(b.labels.Intern(*b.str))
	},
	AccessorEntireArray: func(b *propertyBinding, buf []float64, off int) {
		copy(buf[off:off+b.valueSize], *b.arr)
	},
	AccessorArrayElement: func(b *propertyBinding, buf []float64, off int) {
		buf[off] = (*b.arr)[b.elem]
	},
	AccessorHasFromToArray: func(b *propertyBinding, buf []float64, off int) {
		b.packed.ToArray(buf, off)
	},
}

var baseSetters = [accessorKindCount]accessorFunc{
	AccessorNone: func(*propertyBinding, []float64, int) {},
	AccessorDirect: func(b *propertyBinding, buf []float64, off int) {
		*b.num = buf[off]
	},
	AccessorDirectBool: func(b *propertyBinding, buf []float64, off int) {
		*b.flag = buf[off] >= 0.5
	},
	AccessorDirectString: func(b *propertyBinding, buf []float64, off int) {
		*b.str = b.labels.Label(int(buf[off]))
	},
	AccessorEntireArray: func(b *propertyBinding, buf []float64, off int) {
		copy(*b.arr, buf[off:off+b.valueSize])
	},
	AccessorArrayElement: func(b *propertyBinding, buf []float64, off int) {
		(*b.arr)[b.elem] = buf[off]
	},
	AccessorHasFromToArray: func(b *propertyBinding, buf []float64, off int) {
		b.packed.FromArray(buf, off)
	},
}

var setterTable = func() (t [accessorKindCount][versioningCount]accessorFunc) {
	for kind, set := range baseSetters {
		t[kind][VersioningNone] = set
		t[kind][VersioningNeedsUpdate] = func(b *propertyBinding, buf []float64, off int) {
			set(b, buf, off)
			b.needsUpdate.SetNeedsUpdate()
		}
		t[kind][VersioningMatrixWorldNeedsUpdate] = func(b *propertyBinding, buf []float64, off int) {
			set(b, buf, off)
			b.matrixWorld.SetMatrixWorldNeedsUpdate()
		}
	}
	return t
}()
