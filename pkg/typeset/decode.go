package typeset

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/canectors/typegen/internal/errhandling"
)

// Source field names read by the build.
const (
	FieldName          = "name"
	FieldGroupID       = "groupID"
	FieldMarketGroupID = "marketGroupID"
)

const mergeTag = "!!merge"

// UnmarshalYAML decodes a record body, recording which of the known fields
// are present. Merge keys (<<) are honored; explicit keys win over merged ones.
// Returns errhandling.ErrRecordNotMapping if the body is not a mapping.
func (r *SourceRecord) UnmarshalYAML(value *yaml.Node) error {
	node := resolveAlias(value)
	if node == nil || node.Kind != yaml.MappingNode {
		return errhandling.ErrRecordNotMapping
	}

	*r = SourceRecord{}
	return r.decodeMapping(node, 0)
}

// maxMergeDepth bounds merge-key recursion on malformed documents.
const maxMergeDepth = 32

func (r *SourceRecord) decodeMapping(node *yaml.Node, depth int) error {
	if depth > maxMergeDepth {
		return fmt.Errorf("merge keys nested deeper than %d levels", maxMergeDepth)
	}

	// Merged mappings first so that explicit keys override them.
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		if key.Kind != yaml.ScalarNode || key.ShortTag() != mergeTag {
			continue
		}
		for _, src := range mergeSources(val) {
			if err := r.decodeMapping(src, depth+1); err != nil {
				return err
			}
		}
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		if key.Kind != yaml.ScalarNode || key.ShortTag() == mergeTag {
			continue
		}
		switch key.Value {
		case FieldName:
			v, err := decodeValue(val)
			if err != nil {
				return fmt.Errorf("field %q: %w", FieldName, err)
			}
			r.Name, r.HasName = v, true
		case FieldGroupID:
			v, err := decodeValue(val)
			if err != nil {
				return fmt.Errorf("field %q: %w", FieldGroupID, err)
			}
			r.GroupID, r.HasGroupID = v, true
		case FieldMarketGroupID:
			r.HasMarketGroupID = true
		}
	}
	return nil
}

// mergeSources returns the mappings referenced by a merge value, which is
// either a mapping (usually an alias) or a sequence of them.
func mergeSources(val *yaml.Node) []*yaml.Node {
	val = resolveAlias(val)
	if val == nil {
		return nil
	}
	switch val.Kind {
	case yaml.MappingNode:
		return []*yaml.Node{val}
	case yaml.SequenceNode:
		// In a sequence the first mapping has the highest precedence, so
		// apply them last to first.
		out := make([]*yaml.Node, 0, len(val.Content))
		for i := len(val.Content) - 1; i >= 0; i-- {
			if m := resolveAlias(val.Content[i]); m != nil && m.Kind == yaml.MappingNode {
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}

func resolveAlias(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	return node
}

// decodeValue decodes a field value into a JSON-compatible Go value.
func decodeValue(node *yaml.Node) (any, error) {
	var v any
	if err := node.Decode(&v); err != nil {
		return nil, err
	}
	return Normalize(v), nil
}

// Normalize converts a value decoded by yaml.v3 into one encoding/json can
// marshal: mappings with non-string keys get their keys stringified.
func Normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = Normalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[keyString(k)] = Normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Normalize(val)
		}
		return out
	default:
		return v
	}
}

func keyString(k any) string {
	switch t := k.(type) {
	case nil:
		return "null"
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprint(t)
	}
}
