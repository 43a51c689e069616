package validator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(err error) []string {
	var out []string
	for _, e := range Issues(err) {
		var issue *Issue
		if errors.As(e, &issue) {
			out = append(out, issue.Kind+":"+issue.ID)
		}
	}
	return out
}

func TestValidateCatalog(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		cat := dsl.Catalog("Valid",
			dsl.Param("root_prm"),
			dsl.Group("ac", "Access Control",
				dsl.Control("ac-1", "Policy",
					dsl.Param("ac-1_prm_1"),
					dsl.Control("ac-1.1", "Review"),
				),
			),
		)
		assert.NoError(t, ValidateCatalog(cat, []string{"ac-1_prm_1", "root_prm"}))
	})

	t.Run("duplicates and missing params", func(t *testing.T) {
		cat := dsl.Catalog("Broken",
			dsl.Param("dup_prm"),
			dsl.Control("ac-1", "Policy", dsl.Param("dup_prm")),
			dsl.Group("g", "Group", dsl.Control("ac-1", "Again")),
		)
		err := ValidateCatalog(cat, []string{"gone_prm"})
		require.Error(t, err)
		assert.Equal(t, []string{
			"duplicate-param:dup_prm",
			"duplicate-control:ac-1",
			"missing-param:gone_prm",
		}, kinds(err))
		assert.Contains(t, err.Error(), "3 validation errors")
	})

	t.Run("stale parent link", func(t *testing.T) {
		cat := dsl.Catalog("Links",
			dsl.Control("ac-1", "Policy", dsl.Control("ac-1.1", "Review")),
			dsl.Control("ac-2", "Accounts"),
		)
		cat.Controls[0].Controls[0].SetParent(cat.Controls[1])
		cat.Controls[1].SetParent(cat.Controls[0])

		err := ValidateCatalog(cat, nil)
		assert.Equal(t, []string{"parent-link:ac-1.1", "parent-link:ac-2"}, kinds(err))
		assert.Contains(t, err.Error(), "expected parent ac-1, got ac-2")
		assert.Contains(t, err.Error(), "expected parent <none>, got ac-1")
	})
}

func TestAggregateError(t *testing.T) {
	single := &AggregateError{Errors: []error{&Issue{Kind: KindMissingParam, ID: "x", Reason: "gone"}}}
	assert.Equal(t, `missing-param "x": gone`, single.Error())

	target := errors.New("sentinel")
	multi := &AggregateError{Errors: []error{single.Errors[0], target}}
	assert.ErrorIs(t, multi, target)
	assert.True(t, strings.HasPrefix(multi.Error(), "2 validation errors:\n"))

	assert.Nil(t, Issues(target))
}

func TestValidateImports(t *testing.T) {
	loader := dsl.New().
		AddProfile("ok", dsl.Profile("OK").Import("catalog.json").ImportProfile("leaf").Build()).
		AddProfile("leaf", dsl.Profile("Leaf").Import("catalog.json").Build()).
		AddProfile("a", dsl.Profile("A").ImportProfile("b").Build()).
		AddProfile("b", dsl.Profile("B").ImportProfile("a").ImportProfile("ghost").Build()).
		AddProfile("diamond", dsl.Profile("Diamond").ImportProfile("leaf").ImportProfile("ok").Build()).
		Build()
	ctx := context.Background()

	assert.NoError(t, ValidateImports(ctx, loader, "ok"))
	assert.NoError(t, ValidateImports(ctx, loader, "diamond"), "shared imports are not cycles")

	err := ValidateImports(ctx, loader, "a")
	assert.Equal(t, []string{"import-cycle:a", "missing-profile:ghost"}, kinds(err))
	assert.Contains(t, err.Error(), "a -> b -> a")
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
}
