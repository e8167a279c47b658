// Package source loads policy input from the filesystem and recompiles
// it when it changes. A policy file is either free-form policy text or
// an already-compiled rule set in the JSON wire shape; the distinction
// is made by content, not just extension.
package source

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"expensehq/vega/pkg/policy/compiler"
	"expensehq/vega/pkg/rules"
)

// File is a policy source backed by one file.
type File struct {
	path     string
	pipeline *compiler.Pipeline
	logger   *slog.Logger
}

// NewFile creates a file source.
func NewFile(path string, p *compiler.Pipeline, logger *slog.Logger) *File {
	if logger == nil {
		logger = slog.Default()
	}
	return &File{
		path:     path,
		pipeline: p,
		logger:   logger.With("component", "policy.source", "path", path),
	}
}

// Path returns the watched file path.
func (f *File) Path() string {
	return f.path
}

// Load reads the file and compiles it into a rule set. JSON documents
// go through document compilation; anything else is treated as policy
// text, which always yields a rule set (fallback pair at worst).
func (f *File) Load(ctx context.Context) (*rules.RuleSet, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}

	if isJSONDocument(f.path, data) {
		rs, err := f.pipeline.CompileDocument(ctx, data)
		if err != nil {
			return nil, fmt.Errorf("failed to compile policy document: %w", err)
		}
		return rs, nil
	}

	return f.pipeline.CompileText(ctx, string(data)), nil
}

// isJSONDocument decides whether the file holds a rule set document: a
// .json extension, or content whose first non-space byte opens a JSON
// value.
func isJSONDocument(path string, data []byte) bool {
	if filepath.Ext(path) == ".json" {
		return true
	}
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}
