package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/espalier/pkg/adapters/memory"
	"github.com/aretw0/espalier/pkg/domain"
	contract "github.com/aretw0/espalier/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryLoader_Contract(t *testing.T) {
	loader := memory.NewLoader(map[string]*domain.Profile{
		"low":      {Metadata: domain.Metadata{Title: "Low"}},
		"moderate": {Metadata: domain.Metadata{Title: "Moderate"}},
	}, nil)

	contract.ProfileLoaderContractTest(t, loader, map[string]string{
		"low":      "Low",
		"moderate": "Moderate",
	})
}

func TestInMemoryLoader_FromDocuments(t *testing.T) {
	loader, err := memory.NewFromDocuments(
		map[string]string{"p": `{"profile": {"uuid": "u", "metadata": {"title": "P"}, "imports": [{"href": "cat.json", "include-all": {}}]}}`},
		map[string]string{"cat.json": `{"catalog": {"uuid": "c", "metadata": {"title": "C"}, "controls": [{"id": "a", "title": "A", "controls": [{"id": "a.1", "title": "A1"}]}]}}`},
	)
	require.NoError(t, err)
	ctx := context.Background()

	p, err := loader.LoadProfile(ctx, "p")
	require.NoError(t, err)
	assert.NotNil(t, p.Imports[0].IncludeAll)

	cat, err := loader.LoadCatalog(ctx, "cat.json")
	require.NoError(t, err)
	assert.Same(t, cat.FindControl("a"), cat.FindControl("a.1").Parent())

	_, err = memory.NewFromDocuments(map[string]string{"bad": `{}`}, nil)
	assert.Error(t, err)
}

func TestInMemoryLoader_CatalogIsCopied(t *testing.T) {
	src := &domain.Catalog{UUID: "c", Controls: []*domain.Control{{ID: "a"}}}
	loader := memory.NewLoader(nil, map[string]*domain.Catalog{"cat": src})
	ctx := context.Background()

	got, err := loader.LoadCatalog(ctx, "cat")
	require.NoError(t, err)
	got.Controls = nil

	assert.Len(t, src.Controls, 1)

	_, err = loader.LoadCatalog(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrCatalogNotFound)
}
