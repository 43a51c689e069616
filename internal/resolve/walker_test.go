package resolve

import (
	"testing"

	"github.com/aretw0/espalier/internal/logging"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/dsl"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prune(t *testing.T, imp domain.Import) (*domain.Catalog, []string, Stats) {
	t.Helper()
	cat := sampleCatalog()
	sel, err := NewSelector(imp, cat)
	require.NoError(t, err)

	w := newWalker(sel, logging.NewNop())
	res, err := w.prune(cat)
	require.NoError(t, err)
	assert.True(t, res.IsEmpty(), "entities are applied before the root result is returned")
	return cat, res.RequiredParameterIDs(), w.stats
}

func include(ids ...string) domain.Import {
	return domain.Import{IncludeControls: []domain.Selection{{WithIDs: ids}}}
}

func TestPrune_IncludeAllKeepsTree(t *testing.T) {
	cat, required, stats := prune(t, domain.Import{IncludeAll: &domain.IncludeAll{}})

	if diff := cmp.Diff(sampleCatalog(), cat, treeOpts); diff != "" {
		t.Errorf("tree changed (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"ac-1_prm_1", "ac-2_prm_1", "top_prm"}, required)
	assert.Equal(t, 8, stats.KeptControls)
	assert.Zero(t, stats.PromotedControls)
	assert.Zero(t, stats.PromotedParams)

	assert.Same(t, cat.FindControl("ac-2.1"), cat.FindControl("ac-2.1.1").Parent())
}

func TestPrune_PromotesOrphanWithRequiredParam(t *testing.T) {
	cat, required, stats := prune(t, include("ac-2.1"))

	want := dsl.Catalog("Sample",
		dsl.Param("root_prm"),
		dsl.Group("ac", "Access Control",
			dsl.Param("ac_prm"),
			dsl.Param("ac-2_prm_1"),
			dsl.Control("ac-2.1", "Automated Management", ac21Statement),
		),
	)
	if diff := cmp.Diff(want, cat, treeOpts); diff != "" {
		t.Errorf("unexpected tree (-want +got):\n%s", diff)
	}

	assert.Nil(t, cat.FindControl("ac-2.1").Parent(), "promoted into a group")
	assert.Equal(t, []string{"ac-2_prm_1"}, required)
	assert.Equal(t, Stats{KeptControls: 1, PromotedControls: 1, PromotedParams: 1}, stats)
}

func TestPrune_ExcludedMiddleControl(t *testing.T) {
	imp := domain.Import{
		IncludeAll:      &domain.IncludeAll{},
		ExcludeControls: []domain.Selection{{WithIDs: []string{"ac-2"}}},
	}
	cat, _, stats := prune(t, imp)

	group := cat.Groups[0]
	assert.Equal(t, []string{"ac-1", "ac-2.1"}, controlIDs(group.Controls))
	assert.Equal(t, []string{"ac_prm", "ac-2_prm_1"}, paramIDs(group.Params))

	ac21 := cat.FindControl("ac-2.1")
	assert.Nil(t, ac21.Parent())
	require.Len(t, ac21.Controls, 1)
	assert.Same(t, ac21, ac21.Controls[0].Parent(), "grandchild keeps its kept parent")
	assert.Equal(t, 1, stats.PromotedControls)
}

func TestPrune_GrandchildPromotedUnderKeptAncestor(t *testing.T) {
	cat, required, stats := prune(t, include("ac-2", "ac-2.1.1"))

	ac2 := cat.FindControl("ac-2")
	require.NotNil(t, ac2)
	assert.Equal(t, []string{"ac-2.1.1"}, controlIDs(ac2.Controls))
	assert.Same(t, ac2, ac2.Controls[0].Parent(), "re-parented to the nearest kept control")
	assert.Equal(t, []string{"ac-2_prm_1"}, paramIDs(ac2.Params), "kept controls keep their own params")
	assert.Empty(t, required, "ac-2.1 was dropped, its reference goes with it")
	assert.Equal(t, 1, stats.PromotedControls)
	assert.Zero(t, stats.PromotedParams)
}

func TestPrune_RootLevelPromotion(t *testing.T) {
	cat, required, _ := prune(t, include("top.1"))

	assert.Equal(t, []string{"top.1"}, controlIDs(cat.Controls))
	assert.Equal(t, []string{"root_prm", "top_prm"}, paramIDs(cat.Params))
	assert.Nil(t, cat.Controls[0].Parent())
	assert.Empty(t, cat.Groups, "groups without selected controls are dropped")
	assert.Equal(t, []string{"top_prm"}, required)
}

func TestPrune_OrderFollowsDocument(t *testing.T) {
	cat, _, _ := prune(t, include("sc-1", "ac-1.1", "ac-2.1.1"))

	require.Len(t, cat.Groups, 2)
	assert.Equal(t, []string{"ac-1.1", "ac-2.1.1"}, controlIDs(cat.Groups[0].Controls))
	assert.Equal(t, []string{"sc-1"}, controlIDs(cat.Groups[1].Controls))
}

func TestPrune_NestedGroups(t *testing.T) {
	cat := dsl.Catalog("Nested",
		dsl.Group("outer", "Outer",
			dsl.Param("outer_prm"),
			dsl.Group("empty", "Empty", dsl.Control("e-1", "E")),
			dsl.Group("inner", "Inner", dsl.Control("i-1", "I")),
		),
	)
	sel, err := NewSelector(include("i-1"), cat)
	require.NoError(t, err)

	_, err = newWalker(sel, logging.NewNop()).prune(cat)
	require.NoError(t, err)

	require.Len(t, cat.Groups, 1)
	outer := cat.Groups[0]
	assert.Equal(t, []string{"outer_prm"}, paramIDs(outer.Params))
	require.Len(t, outer.Groups, 1)
	assert.Equal(t, "inner", outer.Groups[0].ID)
}

func TestPrune_KeepsParamReferencedAcrossBranches(t *testing.T) {
	cat := dsl.Catalog("Cross",
		dsl.Group("g1", "First",
			dsl.Control("a", "Uses b", dsl.Statement("Set {{ insert: param, b_prm }}.")),
		),
		dsl.Group("g2", "Second",
			dsl.Param("g2_prm"),
			dsl.Control("b", "Defines b", dsl.Param("b_prm", "value")),
		),
	)
	sel, err := NewSelector(include("a"), cat)
	require.NoError(t, err)

	w := newWalker(sel, logging.NewNop())
	res, err := w.prune(cat)
	require.NoError(t, err)

	assert.Equal(t, []string{"b_prm"}, res.RequiredParameterIDs())
	require.Len(t, cat.Groups, 1)
	assert.Equal(t, "g1", cat.Groups[0].ID)
	require.Len(t, cat.Params, 1, "the referenced param moves to the catalog root")
	assert.Equal(t, "b_prm", cat.Params[0].ID)
	assert.Equal(t, []string{"value"}, cat.Params[0].Values)
	assert.Nil(t, cat.FindParam("g2_prm"), "unreferenced params of dropped scopes stay dropped")
	assert.Equal(t, 1, w.stats.PromotedParams)
}

func TestPrune_CrossBranchParamAlreadyKept(t *testing.T) {
	cat := dsl.Catalog("Shadowed",
		dsl.Param("b_prm"),
		dsl.Control("a", "Uses b", dsl.Statement("Set {{ insert: param, b_prm }}.")),
		dsl.Group("g2", "Second",
			dsl.Control("b", "Defines b again", dsl.Param("b_prm")),
		),
	)
	sel, err := NewSelector(include("a"), cat)
	require.NoError(t, err)

	_, err = newWalker(sel, logging.NewNop()).prune(cat)
	require.NoError(t, err)
	assert.Len(t, cat.AllParams(), 1, "no duplicate when the catalog still defines the param")
}
