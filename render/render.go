// Package render serialises OpenAPI documents for the spec cache.
package render

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/drblury/specweaver/jsonutil"
)

// Content types matching the renderers in this package.
const (
	JSONContentType = "application/json; charset=utf-8"
	YAMLContentType = "application/yaml; charset=utf-8"
)

var errNilDocument = errors.New("render: document is nil")

// Func adapts a plain function to the renderer contract.
type Func func(doc *openapi3.T) ([]byte, error)

// Render calls f.
func (f Func) Render(doc *openapi3.T) ([]byte, error) {
	return f(doc)
}

// JSON renders documents as compact JSON with sorted keys.
func JSON() Func {
	return func(doc *openapi3.T) ([]byte, error) {
		if doc == nil {
			return nil, errNilDocument
		}
		data, err := jsonutil.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("render json: %w", err)
		}
		return data, nil
	}
}

// IndentedJSON renders documents as JSON indented with two spaces.
func IndentedJSON() Func {
	return func(doc *openapi3.T) ([]byte, error) {
		if doc == nil {
			return nil, errNilDocument
		}
		data, err := jsonutil.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("render json: %w", err)
		}
		return data, nil
	}
}

// YAML renders documents as YAML. The document goes through its JSON form
// first so the kin-openapi marshalling rules (extensions, refs) apply and key
// order is preserved by the yaml.Node round trip.
func YAML() Func {
	return func(doc *openapi3.T) ([]byte, error) {
		if doc == nil {
			return nil, errNilDocument
		}
		data, err := jsonutil.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("render yaml: %w", err)
		}

		var node yaml.Node
		if err := yaml.Unmarshal(data, &node); err != nil {
			return nil, fmt.Errorf("render yaml: %w", err)
		}
		clearStyle(&node)

		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(&node); err != nil {
			return nil, fmt.Errorf("render yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("render yaml: %w", err)
		}
		return buf.Bytes(), nil
	}
}

// clearStyle drops the flow and quoting styles inherited from the JSON input.
// The encoder re-quotes scalars whose plain form would change type.
func clearStyle(node *yaml.Node) {
	node.Style = 0
	for _, child := range node.Content {
		clearStyle(child)
	}
}
