// Package output provides implementations for output modules.
// Output modules serialize the generated type list and write it to its
// destination.
package output

import (
	"context"

	"github.com/canectors/typegen/pkg/typeset"
)

// Module represents an output module that writes the type list.
type Module interface {
	// Send serializes and writes types.
	// Returns the number of records written and any error.
	Send(ctx context.Context, types []typeset.Type) (int, error)

	// Close releases any resources held by the module.
	Close() error
}

// SizeReporter is implemented by output modules that can report the size
// of what they wrote. The executor copies these into the build result.
type SizeReporter interface {
	// EncodedBytes is the size of the serialized, uncompressed payload.
	EncodedBytes() int64
	// WrittenBytes is the size of what reached the destination.
	WrittenBytes() int64
}
