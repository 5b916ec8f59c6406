package scene

import "strconv"

// Skeleton is an ordered set of bone nodes addressable by name or index.
// Bones are ordinary nodes that usually live elsewhere in the same hierarchy.
type Skeleton struct {
	bones []Node
	index map[string]int
}

// NewSkeleton creates a Skeleton from bones. When two bones share a name the first one wins.
//
// Parameters:
//   - bones: the bone nodes in joint order
//
// Returns:
//   - *Skeleton: the new skeleton
func NewSkeleton(bones ...Node) *Skeleton {
	s := &Skeleton{
		bones: bones,
		index: make(map[string]int, len(bones)),
	}
	for i, b := range bones {
		if _, exists := s.index[b.Name()]; !exists {
			s.index[b.Name()] = i
		}
	}
	return s
}

// Bones returns the bones in joint order.
//
// Returns:
//   - []Node: the bones
func (s *Skeleton) Bones() []Node {
	return s.bones
}

// Bone looks a bone up by name, falling back to a numeric joint index.
//
// Parameters:
//   - key: the bone name or joint index
//
// Returns:
//   - Node: the bone
//   - bool: false if no bone matches
func (s *Skeleton) Bone(key string) (Node, bool) {
	if i, ok := s.index[key]; ok {
		return s.bones[i], true
	}
	i, err := strconv.Atoi(key)
	if err != nil || i < 0 || i >= len(s.bones) {
		return nil, false
	}
	return s.bones[i], true
}
