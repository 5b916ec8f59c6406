package binding

// Property is an animatable property exposed by an Object. The set of implementations is closed:
// Number, Bool, String, Array and Packed.
type Property interface {
	property()
}

// Number is a scalar property stored in a float64 field.
type Number struct {
	Ptr *float64
}

// Bool is a boolean property. It is animated as 0 or 1.
type Bool struct {
	Ptr *bool
}

// String is a string property. It is animated as an index into the mixer's Labels.
type String struct {
	Ptr *string
}

// Array is a slice of numbers animated as a whole or one element at a time.
// Names optionally maps element names (e.g. morph target names) to indices.
type Array struct {
	Ptr   *[]float64
	Names map[string]int
}

// ArrayConvertible is a value that packs its components into a flat float buffer,
// such as a vector, quaternion or color.
type ArrayConvertible interface {
	// Len returns the number of packed components.
	Len() int

	// ToArray writes the components into dst starting at offset.
	ToArray(dst []float64, offset int)

	// FromArray reads the components from src starting at offset.
	FromArray(src []float64, offset int)
}

// Addressable is implemented by ArrayConvertible values whose components live in addressable storage.
// A single component of such a value is bound directly instead of through ToArray/FromArray.
type Addressable interface {
	Element(i int) *float64
}

// Packed is a property held by an ArrayConvertible value. Names optionally maps component names
// (e.g. "x", "y", "z") to indices.
type Packed struct {
	Value ArrayConvertible
	Names map[string]int
}

func (Number) property() {}
func (Bool) property()   {}
func (String) property() {}
func (Array) property()  {}
func (Packed) property() {}

// Object is anything that exposes animatable properties by name.
type Object interface {
	// AnimatedProperty returns the property with the given name.
	//
	// Parameters:
	//   - name: the property name, e.g. "position" or "morphTargetInfluences"
	//
	// Returns:
	//   - Property: the property
	//   - bool: false if the object has no such property
	AnimatedProperty(name string) (Property, bool)
}

// ObjectContainer is an Object that holds addressable sub-objects such as materials or skeleton bones.
type ObjectContainer interface {
	Object

	// AnimatedObject returns a sub-object.
	//
	// Parameters:
	//   - name: the collection name, e.g. "material", "materials" or "bones"
	//   - index: the element of the collection, empty for single-valued collections
	//
	// Returns:
	//   - Object: the sub-object
	//   - bool: false if there is no such sub-object
	AnimatedObject(name, index string) (Object, bool)
}

// Root is the object a mixer or action animates. Track node names are resolved against it.
type Root interface {
	Object

	// RootID returns a process-unique identifier used as a cache key.
	//
	// Returns:
	//   - uint64: the root identifier
	RootID() uint64

	// FindNode searches the hierarchy for a node by name. The root's own name matches the root.
	//
	// Parameters:
	//   - name: the node name
	//
	// Returns:
	//   - Object: the node
	//   - bool: false if no node has that name
	FindNode(name string) (Object, bool)
}

// NeedsUpdater is implemented by targets that must be told when a property was written,
// such as materials whose GPU data must be re-uploaded.
type NeedsUpdater interface {
	SetNeedsUpdate()
}

// MatrixWorldNeedsUpdater is implemented by scene nodes whose world transform must be recomputed
// after a local property changed.
type MatrixWorldNeedsUpdater interface {
	SetMatrixWorldNeedsUpdate()
}
