package track

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

const reservedChars = `\[\]\.:\/`

var (
	// trackNameRe matches [directory/]nodeName[.objectName[objectIndex]].propertyName[propertyIndex].
	// Node names may contain dots; the last dotted segment of a node name is promoted to an object name
	// when it is one of objectNames.
	trackNameRe = regexp.MustCompile(
		`^((?:[^` + reservedChars + `]+[\/:])*)` +
			`([^\[\]:\/]+)?` +
			`(?:\.([^` + reservedChars + `]+)(?:\[(.+)\])?)?` +
			`\.([^` + reservedChars + `]+)(?:\[(.+)\])?$`,
	)

	reservedRe   = regexp.MustCompile(`[` + reservedChars + `]`)
	whitespaceRe = regexp.MustCompile(`\s`)

	// objectNames are the sub-object names recognized without a bracketed index.
	objectNames = []string{"material", "materials", "bones"}
)

// PropertyPath is the parsed form of a track name.
//
// Examples:
//
//	"Hips.quaternion"                       -> node "Hips", property "quaternion"
//	"Body.morphTargetInfluences[smile]"     -> node "Body", property "morphTargetInfluences", index "smile"
//	"Body.material.opacity"                 -> node "Body", object "material", property "opacity"
//	"Body.materials[1].color"               -> node "Body", object "materials", object index "1"
//	".bones[Spine].position"                -> root node, object "bones", object index "Spine"
type PropertyPath struct {
	// Directory is an optional "dir/" or "dir:" prefix, kept verbatim including separators.
	Directory string

	// NodeName names the node to resolve from the root. Empty means the root itself.
	NodeName string

	// ObjectName names an optional sub-object of the node (material, bones, ...).
	ObjectName string

	// ObjectIndex selects an element of the sub-object collection.
	ObjectIndex string

	// PropertyName is the animated property. Never empty.
	PropertyName string

	// PropertyIndex selects a single component of the property.
	PropertyIndex string
}

// ParsePath parses a track name into a PropertyPath.
//
// Parameters:
//   - trackName: the textual path, e.g. "Armature/Hips.quaternion"
//
// Returns:
//   - PropertyPath: the parsed path
//   - error: an error wrapping ErrInvalidPath if the name does not match the track name grammar
func ParsePath(trackName string) (PropertyPath, error) {
	m := trackNameRe.FindStringSubmatch(trackName)
	if m == nil {
		return PropertyPath{}, fmt.Errorf("cannot parse track name %q: %w", trackName, ErrInvalidPath)
	}

	p := PropertyPath{
		Directory:     m[1],
		NodeName:      m[2],
		ObjectName:    m[3],
		ObjectIndex:   m[4],
		PropertyName:  m[5],
		PropertyIndex: m[6],
	}

	if lastDot := strings.LastIndexByte(p.NodeName, '.'); lastDot != -1 {
		if obj := p.NodeName[lastDot+1:]; slices.Contains(objectNames, obj) {
			p.NodeName = p.NodeName[:lastDot]
			p.ObjectName = obj
		}
	}

	if p.PropertyName == "" {
		return PropertyPath{}, fmt.Errorf("track name %q has no property: %w", trackName, ErrInvalidPath)
	}
	return p, nil
}

// MustParsePath is like ParsePath but panics on error. Intended for static setup code.
//
// Parameters:
//   - trackName: the textual path
//
// Returns:
//   - PropertyPath: the parsed path
func MustParsePath(trackName string) PropertyPath {
	p, err := ParsePath(trackName)
	if err != nil {
		panic(err)
	}
	return p
}

// String rebuilds the textual track name. ParsePath(p.String()) yields p.
func (p PropertyPath) String() string {
	var sb strings.Builder
	sb.WriteString(p.Directory)
	sb.WriteString(p.NodeName)
	if p.ObjectName != "" {
		sb.WriteByte('.')
		sb.WriteString(p.ObjectName)
		if p.ObjectIndex != "" {
			sb.WriteByte('[')
			sb.WriteString(p.ObjectIndex)
			sb.WriteByte(']')
		}
	}
	sb.WriteByte('.')
	sb.WriteString(p.PropertyName)
	if p.PropertyIndex != "" {
		sb.WriteByte('[')
		sb.WriteString(p.PropertyIndex)
		sb.WriteByte(']')
	}
	return sb.String()
}

// SanitizeNodeName turns an arbitrary name into one that can be used as a node name in a track path.
// Whitespace becomes underscores and the reserved characters "[]:./" are removed.
//
// Parameters:
//   - name: the raw node name, e.g. from an asset file
//
// Returns:
//   - string: the sanitized name
func SanitizeNodeName(name string) string {
	return reservedRe.ReplaceAllString(whitespaceRe.ReplaceAllString(name, "_"), "")
}
