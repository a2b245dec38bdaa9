package input

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/canectors/typegen/internal/errhandling"
	"github.com/canectors/typegen/internal/logger"
	"github.com/canectors/typegen/pkg/typeset"
)

// ErrMultipleDocuments is returned when the source holds more than one YAML document.
var ErrMultipleDocuments = errors.New("expected a single YAML document")

// YAMLFile loads entries from a YAML document on disk.
// The whole file is read into memory; there is no streaming.
type YAMLFile struct {
	path string
}

// NewYAMLFile creates an input module reading path.
func NewYAMLFile(path string) *YAMLFile {
	return &YAMLFile{path: path}
}

// Path returns the source path.
func (m *YAMLFile) Path() string {
	return m.path
}

// Fetch reads and decodes the source document.
func (m *YAMLFile) Fetch(ctx context.Context) ([]typeset.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, errhandling.NewLoadError(m.path, 0, err)
	}

	startTime := time.Now()
	content, err := os.ReadFile(m.path)
	if err != nil {
		return nil, errhandling.NewLoadError(m.path, 0, fmt.Errorf("failed to read file: %w", err))
	}

	entries, err := Decode(m.path, content)
	if err != nil {
		return nil, err
	}

	logger.Debug("source document decoded",
		slog.String("path", m.path),
		slog.Int("bytes", len(content)),
		slog.Int("entries", len(entries)),
		slog.Duration("duration", time.Since(startTime)),
	)
	return entries, nil
}

// Close releases resources. The file is closed as soon as it is read.
func (m *YAMLFile) Close() error {
	return nil
}

// Verify YAMLFile implements Module
var _ Module = (*YAMLFile)(nil)

// Decode parses content as a YAML mapping of records and returns its
// entries in document order. path is only used in error messages.
func Decode(path string, content []byte) ([]typeset.Entry, error) {
	if strings.TrimSpace(string(content)) == "" {
		return nil, errhandling.NewLoadError(path, 0, errhandling.ErrEmptyDocument)
	}

	dec := yaml.NewDecoder(bytes.NewReader(content))
	var doc yaml.Node
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			// Comments only.
			return nil, errhandling.NewLoadError(path, 0, errhandling.ErrEmptyDocument)
		}
		return nil, errhandling.NewLoadError(path, yamlErrorLine(err), err)
	}

	var extra yaml.Node
	if err := dec.Decode(&extra); err == nil {
		return nil, errhandling.NewLoadError(path, extra.Line, ErrMultipleDocuments)
	} else if !errors.Is(err, io.EOF) {
		return nil, errhandling.NewLoadError(path, yamlErrorLine(err), err)
	}

	root := documentRoot(&doc)
	if root == nil || (root.Kind == yaml.ScalarNode && root.ShortTag() == "!!null") {
		return nil, errhandling.NewLoadError(path, 0, errhandling.ErrEmptyDocument)
	}
	if root.Kind != yaml.MappingNode {
		return nil, errhandling.NewLoadError(path, root.Line,
			fmt.Errorf("%w: got %s", errhandling.ErrNotMapping, kindName(root)))
	}

	return decodeEntries(path, root)
}

func decodeEntries(path string, root *yaml.Node) ([]typeset.Entry, error) {
	entries := make([]typeset.Entry, 0, len(root.Content)/2)
	seen := make(map[string]int, len(root.Content)/2)

	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valNode := root.Content[i], root.Content[i+1]

		if keyNode.Kind != yaml.ScalarNode {
			return nil, errhandling.NewShapeError("", keyNode.Line,
				fmt.Errorf("%w: got %s key", errhandling.ErrInvalidKey, kindName(keyNode)))
		}

		tag := keyNode.ShortTag()
		dedupKey := tag + "\x00" + keyNode.Value
		if first, ok := seen[dedupKey]; ok {
			return nil, errhandling.NewLoadError(path, keyNode.Line,
				fmt.Errorf("%w %q (first defined on line %d)", errhandling.ErrDuplicateKey, keyNode.Value, first))
		}
		seen[dedupKey] = keyNode.Line

		var rec typeset.SourceRecord
		if err := rec.UnmarshalYAML(valNode); err != nil {
			return nil, errhandling.NewShapeError(keyNode.Value, keyNode.Line, err)
		}

		entries = append(entries, typeset.Entry{
			Key:    keyNode.Value,
			KeyTag: tag,
			Line:   keyNode.Line,
			Record: rec,
		})
	}
	return entries, nil
}

func documentRoot(doc *yaml.Node) *yaml.Node {
	node := doc
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil
		}
		node = node.Content[0]
	}
	for node != nil && node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	return node
}

func kindName(node *yaml.Node) string {
	switch node.Kind {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar " + node.ShortTag()
	case yaml.AliasNode:
		return "alias"
	default:
		return "document"
	}
}

// yamlErrorLine extracts the line number from a yaml.v3 error message.
// yaml.v3 formats syntax errors as "yaml: line X: ...". Returns 0 if absent.
func yamlErrorLine(err error) int {
	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) && len(typeErr.Errors) > 0 {
		return lineFromMessage(typeErr.Errors[0])
	}
	return lineFromMessage(err.Error())
}

func lineFromMessage(msg string) int {
	idx := strings.Index(msg, "line ")
	if idx < 0 {
		return 0
	}
	var line int
	if _, err := fmt.Sscanf(msg[idx:], "line %d", &line); err != nil {
		return 0
	}
	return line
}
