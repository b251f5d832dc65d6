package generator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const petstoreYAML = `openapi: 3.0.3
info:
  title: Petstore
  version: 1.0.0
paths:
  /pets:
    get:
      responses:
        "200":
          description: list pets
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFuncGenerate(t *testing.T) {
	t.Parallel()

	want := &openapi3.T{OpenAPI: "3.0.3"}
	g := Func(func(_ context.Context, name string) (*openapi3.T, error) {
		assert.Equal(t, "v1", name)
		return want, nil
	})

	got, err := g.Generate(context.Background(), "v1")
	require.NoError(t, err)
	assert.Same(t, want, got)
}

func TestNewFileGeneratorValidatesInput(t *testing.T) {
	t.Parallel()

	_, err := NewFileGenerator(nil)
	require.Error(t, err)

	_, err = NewFileGenerator(map[string]string{"v1": ""})
	require.Error(t, err)
}

func TestFileGeneratorGenerate(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "openapi.yaml", petstoreYAML)
	g, err := NewFileGenerator(map[string]string{"v1": path})
	require.NoError(t, err)

	t.Run("loads a fresh document per call", func(t *testing.T) {
		first, err := g.Generate(context.Background(), "v1")
		require.NoError(t, err)
		second, err := g.Generate(context.Background(), "v1")
		require.NoError(t, err)

		assert.Equal(t, "Petstore", first.Info.Title)
		assert.NotSame(t, first, second)
		assert.NotNil(t, first.Paths.Find("/pets"))
	})

	t.Run("unknown document", func(t *testing.T) {
		_, err := g.Generate(context.Background(), "v2")
		assert.True(t, errors.Is(err, ErrUnknownDocument))
	})
}

func TestFileGeneratorRejectsInvalidDocument(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "broken.yaml", "openapi: 3.0.3\ninfo:\n  title: Broken\npaths: {}\n")
	g, err := NewFileGenerator(map[string]string{"v1": path})
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), "v1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validate")

	lenient, err := NewFileGenerator(map[string]string{"v1": path}, WithoutValidation())
	require.NoError(t, err)
	doc, err := lenient.Generate(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, "Broken", doc.Info.Title)
}

func TestFileGeneratorMissingFile(t *testing.T) {
	t.Parallel()

	g, err := NewFileGenerator(map[string]string{"v1": filepath.Join(t.TempDir(), "missing.yaml")})
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), "v1")
	require.Error(t, err)
}

func TestFiles(t *testing.T) {
	t.Parallel()

	g, err := NewFileGenerator(map[string]string{"b": "/tmp/b.yaml", "a": "/tmp/a.yaml"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/tmp/a.yaml", "/tmp/b.yaml"}, g.Files())
}

func TestStaticReturnsIndependentCopies(t *testing.T) {
	t.Parallel()

	source := &openapi3.T{
		OpenAPI: "3.0.3",
		Info:    &openapi3.Info{Title: "Static", Version: "1.0.0"},
		Paths:   openapi3.NewPaths(),
	}
	g := Static(source)

	doc, err := g.Generate(context.Background(), "v1")
	require.NoError(t, err)
	doc.Servers = openapi3.Servers{{URL: "https://api.example.com"}}

	assert.Empty(t, source.Servers)
	assert.Equal(t, "Static", doc.Info.Title)

	_, err = Static(nil).Generate(context.Background(), "v1")
	assert.Error(t, err)
}
