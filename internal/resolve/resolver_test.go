package resolve_test

import (
	"context"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/espalier/internal/resolve"
	"github.com/aretw0/espalier/pkg/adapters/memory"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var fixedNow = time.Date(2026, 3, 14, 9, 26, 53, 0, time.FixedZone("BRT", -3*60*60))

func baseline() *domain.Catalog {
	cat := dsl.Catalog("Baseline",
		dsl.Group("ac", "Access Control",
			dsl.Param("ac_prm"),
			dsl.Control("ac-1", "Policy",
				dsl.Param("ac-1_prm_1"),
				dsl.Statement("Review every {{ insert: param, ac-1_prm_1 }}."),
				dsl.Control("ac-1.1", "Review"),
			),
			dsl.Control("ac-2", "Accounts",
				dsl.Param("ac-2_prm_1"),
				dsl.Control("ac-2.1", "Automation",
					dsl.Statement("Notify within {{ insert: param, ac-2_prm_1 }}."),
				),
			),
		),
		dsl.Group("sc", "System Protection",
			dsl.Control("sc-1", "Protection Policy"),
		),
	)
	cat.BackMatter = &domain.BackMatter{Resources: []domain.Resource{{UUID: "res-1", Title: "Guide"}}}
	return cat
}

func supplement() *domain.Catalog {
	cat := dsl.Catalog("Supplement",
		dsl.Control("ac-1", "Policy (supplement)",
			dsl.Prop("origin", "supplement"),
		),
		dsl.Control("pm-1", "Program Plan"),
	)
	cat.BackMatter = &domain.BackMatter{Resources: []domain.Resource{{UUID: "res-1", Title: "Duplicate"}, {UUID: "res-2"}}}
	return cat
}

func newResolver(b *dsl.Builder, opts ...resolve.Option) *resolve.Resolver {
	loader := b.Build()
	opts = append([]resolve.Option{resolve.WithClock(func() time.Time { return fixedNow })}, opts...)
	return resolve.New(loader, loader, opts...)
}

func ids(ctrls []*domain.Control) []string {
	out := make([]string, len(ctrls))
	for i, c := range ctrls {
		out[i] = c.ID
	}
	return out
}

func TestResolve_SelectsAndPromotes(t *testing.T) {
	r := newResolver(dsl.New().
		AddCatalog("baseline.json", baseline()).
		AddProfile("low", dsl.Profile("Low Baseline").
			Import("baseline.json", dsl.Include("ac-2.1")).
			AsIs().
			Build()))

	out, err := r.Resolve(context.Background(), "low")
	require.NoError(t, err)

	cat := out.Catalog
	require.Len(t, cat.Groups, 1)
	ac := cat.Groups[0]
	assert.Equal(t, []string{"ac-2.1"}, ids(ac.Controls))
	assert.Nil(t, ac.Controls[0].Parent())

	var params []string
	for _, p := range ac.Params {
		params = append(params, p.ID)
	}
	assert.Equal(t, []string{"ac_prm", "ac-2_prm_1"}, params)

	assert.Equal(t, []string{"ac-2_prm_1"}, out.Required)
	assert.Equal(t, resolve.Stats{Imports: 1, KeptControls: 1, PromotedControls: 1, PromotedParams: 1}, out.Stats)
}

func TestResolve_Metadata(t *testing.T) {
	profile := dsl.Profile("Low Baseline").Import("baseline.json").Build()
	profile.Metadata.Version = "1.0"
	profile.BackMatter = &domain.BackMatter{Resources: []domain.Resource{{UUID: "res-3"}}}

	r := newResolver(dsl.New().
		AddCatalog("baseline.json", baseline()).
		AddCatalog("supplement.json", supplement()).
		AddProfile("low", profile), resolve.WithToolName("espalier-test"))

	profile.Imports = append(profile.Imports, domain.Import{Href: "supplement.json", IncludeAll: &domain.IncludeAll{}})
	out, err := r.Resolve(context.Background(), "low")
	require.NoError(t, err)

	md := out.Catalog.Metadata
	assert.Equal(t, "Low Baseline", md.Title)
	assert.Equal(t, "1.0", md.Version)
	require.NotNil(t, md.LastModified)
	assert.True(t, fixedNow.Equal(*md.LastModified))
	assert.Equal(t, time.UTC, md.LastModified.Location())
	assert.Contains(t, md.Props, domain.Property{Name: resolve.ResolutionToolProp, Value: "espalier-test"})
	assert.Contains(t, md.Props, domain.Property{Name: resolve.SourceProfileProp, Value: profile.UUID})
	assert.NotEmpty(t, out.Catalog.UUID)

	require.NotNil(t, out.Catalog.BackMatter)
	var uuids []string
	for _, res := range out.Catalog.BackMatter.Resources {
		uuids = append(uuids, res.UUID)
	}
	assert.Equal(t, []string{"res-1", "res-2", "res-3"}, uuids)
	assert.Equal(t, "Guide", out.Catalog.BackMatter.Resources[0].Title)
}

func TestResolve_FlatMergeModify(t *testing.T) {
	r := newResolver(dsl.New().
		AddCatalog("baseline.json", baseline()).
		AddCatalog("supplement.json", supplement()).
		AddProfile("merged", dsl.Profile("Merged").
			Import("baseline.json", dsl.IncludeWithChildren("ac-1")).
			Import("supplement.json").
			Combine(domain.CombineMerge).
			SetParam("ac-1_prm_1", "quarterly").
			Alter(domain.Alter{
				ControlID: "pm-1",
				Adds: []domain.Add{{Parts: []*domain.Part{{
					ID: "pm-1_smt", Name: "statement", Prose: "Align with {{ insert: param, ac_prm }}.",
				}}}},
			}).
			Build()))

	out, err := r.Resolve(context.Background(), "merged")
	require.NoError(t, err)

	cat := out.Catalog
	assert.Empty(t, cat.Groups)
	assert.Equal(t, []string{"ac-1", "pm-1"}, ids(cat.Controls))

	ac1 := cat.Controls[0]
	assert.Equal(t, "Policy", ac1.Title)
	assert.Equal(t, []domain.Property{{Name: "origin", Value: "supplement"}}, ac1.Props)
	assert.Equal(t, []string{"ac-1.1"}, ids(ac1.Controls))
	assert.Same(t, ac1, ac1.Controls[0].Parent())

	assert.Equal(t, []string{"quarterly"}, cat.FindParam("ac-1_prm_1").Values)
	assert.Equal(t, []string{"ac-1_prm_1", "ac_prm"}, out.Required)
}

func TestResolve_NestedProfile(t *testing.T) {
	r := newResolver(dsl.New().
		AddCatalog("baseline.json", baseline()).
		AddProfile("moderate", dsl.Profile("Moderate").
			Import("baseline.json", dsl.Exclude("sc-1")).
			AsIs().
			Build()).
		AddProfile("tailored", dsl.Profile("Tailored").
			ImportProfile("moderate", dsl.Include("ac-1")).
			AsIs().
			Build()))

	out, err := r.Resolve(context.Background(), "tailored")
	require.NoError(t, err)

	require.Len(t, out.Catalog.Groups, 1)
	assert.Equal(t, []string{"ac-1"}, ids(out.Catalog.Groups[0].Controls))
	assert.Empty(t, out.Catalog.Groups[0].Controls[0].Controls, "ac-1.1 is not selected by the outer import")
	assert.Equal(t, []string{"ac-1_prm_1"}, out.Required)
	assert.Equal(t, 1, out.Stats.Imports, "nested imports are not counted")
}

func TestResolve_Errors(t *testing.T) {
	b := dsl.New().
		AddCatalog("baseline.json", baseline()).
		AddProfile("a", dsl.Profile("A").ImportProfile("b").Build()).
		AddProfile("b", dsl.Profile("B").ImportProfile("a").Build()).
		AddProfile("self", dsl.Profile("Self").ImportProfile("self").Build()).
		AddProfile("missing-catalog", dsl.Profile("Missing").Import("nowhere.json").Build()).
		AddProfile("missing-profile", dsl.Profile("Missing").ImportProfile("ghost").Build()).
		AddProfile("unknown-control", dsl.Profile("Unknown").Import("baseline.json", dsl.Include("zz-9")).Build()).
		AddProfile("unknown-param", dsl.Profile("Unknown").Import("baseline.json").SetParam("zz_prm", "x").Build()).
		AddProfile("bad-combine", dsl.Profile("Bad").Import("baseline.json").Combine("shuffle").Build()).
		AddProfile("empty", dsl.Profile("Empty").Build())
	r := newResolver(b)

	tests := []struct {
		id      string
		wantErr error
		wantMsg string
	}{
		{id: "a", wantErr: domain.ErrImportCycle, wantMsg: "a -> b -> a"},
		{id: "self", wantErr: domain.ErrImportCycle, wantMsg: "self -> self"},
		{id: "missing-catalog", wantErr: domain.ErrCatalogNotFound, wantMsg: "import nowhere.json"},
		{id: "missing-profile", wantErr: domain.ErrProfileNotFound, wantMsg: "import profile:ghost"},
		{id: "unknown-control", wantErr: domain.ErrUnknownControl, wantMsg: "zz-9"},
		{id: "unknown-param", wantErr: domain.ErrUnknownParameter, wantMsg: "profile unknown-param"},
		{id: "bad-combine", wantMsg: `unsupported combine method "shuffle"`},
		{id: "empty", wantMsg: "profile empty: no imports"},
		{id: "not-there", wantErr: domain.ErrProfileNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			_, err := r.Resolve(context.Background(), tt.id)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestResolve_CancelledContext(t *testing.T) {
	r := newResolver(dsl.New().
		AddCatalog("baseline.json", baseline()).
		AddProfile("low", dsl.Profile("Low").Import("baseline.json").Build()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Resolve(ctx, "low")
	assert.ErrorIs(t, err, context.Canceled)
}

// jitterLoader delays every catalog load by a random amount.
type jitterLoader struct {
	*memory.Loader
}

func (j jitterLoader) LoadCatalog(ctx context.Context, href string) (*domain.Catalog, error) {
	select {
	case <-time.After(time.Duration(rand.IntN(20)) * time.Millisecond):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return j.Loader.LoadCatalog(ctx, href)
}

func TestResolve_ParallelImportsKeepOrder(t *testing.T) {
	b := dsl.New()
	pb := dsl.Profile("Many")
	var want []string
	for _, id := range []string{"a-1", "b-1", "c-1", "d-1", "e-1", "f-1", "g-1", "h-1"} {
		href := strings.TrimSuffix(id, "-1") + ".json"
		b.AddCatalog(href, dsl.Catalog(id, dsl.Control(id, strings.ToUpper(id))))
		pb.Import(href)
		want = append(want, id)
	}
	loader := b.AddProfile("many", pb.Build()).Build()

	for _, parallelism := range []int{1, 3, 0} {
		r := resolve.New(loader, jitterLoader{loader}, resolve.WithParallelism(parallelism))
		out, err := r.Resolve(context.Background(), "many")
		require.NoError(t, err)
		assert.Equal(t, want, ids(out.Catalog.Controls), "parallelism %d", parallelism)
		assert.Equal(t, len(want), out.Stats.Imports)
	}
}

func TestResolve_SourcesAreNotMutated(t *testing.T) {
	loader := dsl.New().
		AddCatalog("baseline.json", baseline()).
		AddProfile("low", dsl.Profile("Low").Import("baseline.json", dsl.Include("ac-2.1")).Build()).
		Build()
	r := resolve.New(loader, loader)

	first, err := r.Resolve(context.Background(), "low")
	require.NoError(t, err)
	second, err := r.Resolve(context.Background(), "low")
	require.NoError(t, err)

	assert.Equal(t, ids(first.Catalog.Controls), ids(second.Catalog.Controls))
	src, err := loader.LoadCatalog(context.Background(), "baseline.json")
	require.NoError(t, err)
	assert.NotNil(t, src.FindControl("sc-1"))
	assert.Same(t, src.FindControl("ac-2"), src.FindControl("ac-2.1").Parent())
}

func TestRequiredParameters(t *testing.T) {
	r := newResolver(dsl.New().
		AddCatalog("baseline.json", baseline()).
		AddProfile("low", dsl.Profile("Low").Import("baseline.json", dsl.Include("ac-1", "ac-2.1")).Build()))

	out, err := r.Resolve(context.Background(), "low")
	require.NoError(t, err)
	assert.Equal(t, out.Required, resolve.RequiredParameters(out.Catalog))
	assert.Equal(t, []string{"ac-1_prm_1", "ac-2_prm_1"}, out.Required)
}
