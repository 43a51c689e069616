package afs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/espalier/pkg/adapters/afs"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogJSON = `{"catalog": {"uuid": "c-1", "metadata": {"title": "JSON"},
  "controls": [{"id": "ac-1", "title": "Policy", "controls": [{"id": "ac-1.1", "title": "Enh"}]}]}}`

const catalogYAML = `catalog:
  uuid: c-2
  metadata:
    title: YAML
  controls:
    - id: sc-1
      title: Protection
`

func seed(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nist"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nist", "catalog.json"), []byte(catalogJSON), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sc.yaml"), []byte(catalogYAML), 0o644))
	return dir
}

func TestLoader_LoadCatalog(t *testing.T) {
	dir := seed(t)
	loader, err := afs.New(dir)
	require.NoError(t, err)
	ctx := context.Background()

	cat, err := loader.LoadCatalog(ctx, "nist/catalog.json")
	require.NoError(t, err)
	assert.Equal(t, "JSON", cat.Metadata.Title)
	assert.Same(t, cat.FindControl("ac-1"), cat.FindControl("ac-1.1").Parent())

	cat, err = loader.LoadCatalog(ctx, "sc.yaml")
	require.NoError(t, err)
	assert.Equal(t, "YAML", cat.Metadata.Title)
	require.NotNil(t, cat.FindControl("sc-1"))
}

func TestLoader_AbsoluteHref(t *testing.T) {
	dir := seed(t)
	loader, err := afs.New(t.TempDir())
	require.NoError(t, err)

	abs := filepath.Join(dir, "sc.yaml")
	assert.Equal(t, abs, loader.Resolve(abs))

	cat, err := loader.LoadCatalog(context.Background(), abs)
	require.NoError(t, err)
	assert.Equal(t, "c-2", cat.UUID)
}

func TestLoader_NotFound(t *testing.T) {
	loader, err := afs.New(seed(t))
	require.NoError(t, err)

	_, err = loader.LoadCatalog(context.Background(), "missing.json")
	assert.ErrorIs(t, err, domain.ErrCatalogNotFound)
}

func TestLoader_InvalidDocument(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{"profile": {}}`), 0o644))
	loader, err := afs.New(dir)
	require.NoError(t, err)

	_, err = loader.LoadCatalog(context.Background(), "bad.json")
	assert.ErrorContains(t, err, "bad.json")
}
