package binding

// Labels interns strings so string properties can travel through numeric blend buffers.
// A Labels table belongs to one mixer and is not safe for concurrent use.
type Labels struct {
	names []string
	index map[string]int
}

// NewLabels creates an empty label table.
//
// Returns:
//   - *Labels: the new table
func NewLabels() *Labels {
	return &Labels{index: make(map[string]int)}
}

// Intern returns the label index of s, adding it on first use.
//
// Parameters:
//   - s: the string to intern
//
// Returns:
//   - int: the stable index of s
func (l *Labels) Intern(s string) int {
	if i, ok := l.index[s]; ok {
		return i
	}
	i := len(l.names)
	l.names = append(l.names, s)
	l.index[s] = i
	return i
}

// Label returns the string stored at index i, or the empty string if i is out of range.
//
// Parameters:
//   - i: the label index
//
// Returns:
//   - string: the interned string
func (l *Labels) Label(i int) string {
	if i < 0 || i >= len(l.names) {
		return ""
	}
	return l.names[i]
}

// Len returns the number of interned strings.
func (l *Labels) Len() int {
	return len(l.names)
}
