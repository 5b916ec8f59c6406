package mixer

// GroupBuilderOption is a functional option for configuring a Group.
// Use the With* functions to create options.
type GroupBuilderOption func(g *group)

// WithWorkers sets the number of worker goroutines that update mixers. Defaults to runtime.NumCPU()-1.
//
// Parameters:
//   - n: the number of workers (minimum 1)
//
// Returns:
//   - GroupBuilderOption: option function to apply
func WithWorkers(n int) GroupBuilderOption {
	return func(g *group) {
		if n < 1 {
			n = 1
		}
		g.workers = n
	}
}

// WithMixers adds initial mixers to the group.
//
// Parameters:
//   - mixers: the mixers to add
//
// Returns:
//   - GroupBuilderOption: option function to apply
func WithMixers(mixers ...Mixer) GroupBuilderOption {
	return func(g *group) {
		g.Add(mixers...)
	}
}
