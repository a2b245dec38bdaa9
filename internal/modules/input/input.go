// Package input provides implementations for input modules.
// Input modules are responsible for loading the source document and
// turning it into ordered, typed entries.
package input

import (
	"context"

	"github.com/canectors/typegen/pkg/typeset"
)

// Module represents an input module that loads the source document.
type Module interface {
	// Fetch loads every entry of the source, in document order.
	// Load failures are errhandling.CategoryLoad; malformed record bodies
	// are errhandling.CategoryShape.
	Fetch(ctx context.Context) ([]typeset.Entry, error)
	// Close releases any resources held by the module.
	Close() error
}
