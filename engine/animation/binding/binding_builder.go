package binding

// PropertyBindingBuilderOption is a functional option for configuring a PropertyBinding during construction.
type PropertyBindingBuilderOption func(*propertyBinding)

// WithValueSize is an option builder that requires the resolved property to hold exactly n values.
// A property of any other size leaves the binding unresolved with ErrValueSizeMismatch.
//
// Parameters:
//   - n: the expected value size, 0 to accept any size
//
// Returns:
//   - PropertyBindingBuilderOption: a function that applies the value size option to a binding
func WithValueSize(n int) PropertyBindingBuilderOption {
	return func(b *propertyBinding) {
		b.expect = n
	}
}
