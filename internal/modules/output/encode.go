package output

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/canectors/typegen/internal/errhandling"
	"github.com/canectors/typegen/pkg/typeset"
)

// EncodeCompact serializes types as a JSON array with no whitespace.
//
// Non-ASCII text is written as UTF-8, not escaped, and HTML characters are
// left alone. Keys of each record come out as id, name, groupID. There is
// no trailing newline. A nil slice encodes as [].
func EncodeCompact(types []typeset.Type) ([]byte, error) {
	if types == nil {
		types = []typeset.Type{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(types); err != nil {
		// Only values decoded from the source can fail here (e.g. .nan).
		return nil, errhandling.NewShapeError("", 0, fmt.Errorf("value cannot be encoded as JSON: %w", err))
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
