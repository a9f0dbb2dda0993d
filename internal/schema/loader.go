// Package schema validates request bodies against the JSON schemas embedded
// under schemas/.
package schema

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"

	"github.com/qri-io/jsonschema"
)

//go:embed schemas/*.json
var embedded embed.FS

// ErrUnknownSchema is returned when Validate is asked for a name that was not loaded.
var ErrUnknownSchema = errors.New("unknown schema")

// ValidationError carries the key errors reported by the schema.
type ValidationError struct {
	Errors []jsonschema.KeyError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, ke := range e.Errors {
		if ke.PropertyPath != "" && ke.PropertyPath != "/" {
			msgs = append(msgs, fmt.Sprintf("%s: %s", ke.PropertyPath, ke.Message))
			continue
		}
		msgs = append(msgs, ke.Message)
	}
	return strings.Join(msgs, "; ")
}

// Loader loads and caches compiled JSON schemas keyed by file name without extension.
type Loader struct {
	mu    sync.RWMutex
	cache map[string]*jsonschema.Schema
}

// NewLoader compiles every schema shipped with the binary.
func NewLoader() (*Loader, error) {
	return NewLoaderFS(embedded, "schemas")
}

// NewLoaderFS compiles every *.json file in dir of fsys.
func NewLoaderFS(fsys fs.FS, dir string) (*Loader, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read schema dir: %w", err)
	}

	cache := make(map[string]*jsonschema.Schema, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		b, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", e.Name(), err)
		}

		rs := &jsonschema.Schema{}
		if err := json.Unmarshal(b, rs); err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", e.Name(), err)
		}
		cache[strings.TrimSuffix(e.Name(), ".json")] = rs
	}

	return &Loader{cache: cache}, nil
}

// GetSchema returns a compiled schema by name.
func (l *Loader) GetSchema(name string) (*jsonschema.Schema, bool) {
	l.mu.RLock()
	s, ok := l.cache[name]
	l.mu.RUnlock()

	return s, ok
}

// Validate checks body against the named schema. Schema violations are
// reported as *ValidationError; malformed JSON as a plain error.
func (l *Loader) Validate(ctx context.Context, name string, body []byte) error {
	s, ok := l.GetSchema(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSchema, name)
	}

	if !json.Valid(body) {
		return errors.New("invalid json")
	}

	keyErrs, err := s.ValidateBytes(ctx, body)
	if err != nil {
		return fmt.Errorf("validate %s: %w", name, err)
	}
	if len(keyErrs) > 0 {
		return &ValidationError{Errors: keyErrs}
	}
	return nil
}
