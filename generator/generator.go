// Package generator adapts sources of OpenAPI documents to the generator
// contract consumed by the spec cache.
package generator

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"
)

// ErrUnknownDocument is returned when a generator has no source for the
// requested document name.
var ErrUnknownDocument = errors.New("generator: unknown document")

// Func adapts a plain function to the generator contract.
type Func func(ctx context.Context, name string) (*openapi3.T, error)

// Generate calls f.
func (f Func) Generate(ctx context.Context, name string) (*openapi3.T, error) {
	return f(ctx, name)
}

// FileGenerator loads each named document from an OpenAPI file on every call
// and validates it. A fresh *openapi3.T is returned each time so callers may
// decorate it freely.
type FileGenerator struct {
	files    map[string]string
	validate bool
}

// FileOption configures a FileGenerator.
type FileOption func(*FileGenerator)

// WithoutValidation skips openapi3 document validation after loading.
func WithoutValidation() FileOption {
	return func(g *FileGenerator) {
		g.validate = false
	}
}

// NewFileGenerator maps document names to file paths.
func NewFileGenerator(files map[string]string, opts ...FileOption) (*FileGenerator, error) {
	if len(files) == 0 {
		return nil, errors.New("generator: at least one document file is required")
	}

	g := &FileGenerator{
		files:    make(map[string]string, len(files)),
		validate: true,
	}
	for name, path := range files {
		if path == "" {
			return nil, fmt.Errorf("generator: empty path for document %q", name)
		}
		g.files[name] = path
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g, nil
}

// Generate loads the file registered for name.
func (g *FileGenerator) Generate(ctx context.Context, name string) (*openapi3.T, error) {
	path, ok := g.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDocument, name)
	}

	loader := openapi3.NewLoader()
	loader.Context = ctx
	loader.IsExternalRefsAllowed = true

	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	if g.validate {
		if err := doc.Validate(ctx); err != nil {
			return nil, fmt.Errorf("validate %s: %w", path, err)
		}
	}
	return doc, nil
}

// Files returns the watched file paths in a stable order.
func (g *FileGenerator) Files() []string {
	paths := make([]string, 0, len(g.files))
	for _, path := range g.files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Static returns a generator that always yields a copy of doc, cloned through
// its JSON form so decorations never leak into the original.
func Static(doc *openapi3.T) Func {
	return func(ctx context.Context, _ string) (*openapi3.T, error) {
		if doc == nil {
			return nil, errors.New("generator: static document is nil")
		}
		data, err := doc.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("generator: copy static document: %w", err)
		}
		loader := openapi3.NewLoader()
		loader.Context = ctx
		return loader.LoadFromDataWithPath(data, &url.URL{Path: "static.json"})
	}
}
