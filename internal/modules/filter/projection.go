package filter

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/canectors/typegen/internal/errhandling"
	"github.com/canectors/typegen/pkg/typeset"
)

// Project maps each entry to its {id, name, groupID} output record, in order.
// The first entry with a non-integer key or a missing name/groupID aborts
// the projection with a shape error.
func Project(ctx context.Context, entries []typeset.Entry) ([]typeset.Type, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]typeset.Type, 0, len(entries))
	for _, e := range entries {
		t, err := ProjectEntry(e)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// ProjectEntry maps a single entry to its output record.
func ProjectEntry(e typeset.Entry) (typeset.Type, error) {
	id, err := ParseKey(e.Key, e.KeyTag)
	if err != nil {
		return typeset.Type{}, errhandling.NewShapeError(e.Key, e.Line, err)
	}
	if !e.Record.HasName {
		return typeset.Type{}, errhandling.NewMissingFieldError(e.Key, e.Line, typeset.FieldName)
	}
	if !e.Record.HasGroupID {
		return typeset.Type{}, errhandling.NewMissingFieldError(e.Key, e.Line, typeset.FieldGroupID)
	}

	return typeset.Type{
		ID:      id,
		Name:    e.Record.Name,
		GroupID: e.Record.GroupID,
	}, nil
}

// ParseKey converts a record key to its integer id.
//
// YAML integer keys are resolved the way yaml.v3 resolves them (so 0x2A is
// 42). String keys must hold a base-10 integer, optionally signed and
// surrounded by whitespace. Every other key is rejected with
// errhandling.ErrInvalidKey.
func ParseKey(key, tag string) (int64, error) {
	switch tag {
	case "!!int":
		node := yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: key}
		var id int64
		if err := node.Decode(&id); err != nil {
			return 0, fmt.Errorf("%w: %q: %v", errhandling.ErrInvalidKey, key, err)
		}
		return id, nil
	case "!!str", "":
		id, err := strconv.ParseInt(strings.TrimSpace(key), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", errhandling.ErrInvalidKey, key)
		}
		return id, nil
	default:
		return 0, fmt.Errorf("%w: %q (%s)", errhandling.ErrInvalidKey, key, tag)
	}
}
