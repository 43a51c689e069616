package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/espalier/internal/logging"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/result"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ResolutionToolProp names the metadata property stamped on resolved catalogs.
const ResolutionToolProp = "resolution-tool"

// SourceProfileProp names the metadata property holding the resolved profile's UUID.
const SourceProfileProp = "source-profile-uuid"

// Outcome is a resolved catalog plus what the resolution learned on the way.
type Outcome struct {
	Catalog *domain.Catalog
	// Required lists, sorted, the IDs of every parameter a kept control references.
	Required []string
	Stats    Stats
	// Cached is set when the catalog was served from a cache instead of resolved.
	Cached bool
}

// Resolver resolves profiles against catalogs.
// It is safe for concurrent use; each resolution owns its working copies.
type Resolver struct {
	profiles    ports.ProfileLoader
	catalogs    ports.CatalogLoader
	logger      *slog.Logger
	parallelism int
	now         func() time.Time
	tool        string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithParallelism bounds how many imports of one profile load concurrently.
// Zero or less means unbounded.
func WithParallelism(n int) Option {
	return func(r *Resolver) {
		r.parallelism = n
	}
}

// WithClock overrides the clock used for last-modified stamps.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// WithToolName sets the value of the resolution-tool property.
func WithToolName(name string) Option {
	return func(r *Resolver) {
		r.tool = name
	}
}

// New creates a Resolver.
func New(profiles ports.ProfileLoader, catalogs ports.CatalogLoader, opts ...Option) *Resolver {
	r := &Resolver{
		profiles:    profiles,
		catalogs:    catalogs,
		logger:      logging.NewNop(),
		parallelism: 4,
		now:         time.Now,
		tool:        "espalier",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve loads and resolves the profile with the given ID.
func (r *Resolver) Resolve(ctx context.Context, profileID string) (*Outcome, error) {
	p, err := r.profiles.LoadProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return r.ResolveProfile(ctx, profileID, p)
}

// ResolveProfile resolves an already loaded profile. The ID is used for
// cycle detection when the profile imports other profiles.
func (r *Resolver) ResolveProfile(ctx context.Context, profileID string, p *domain.Profile) (*Outcome, error) {
	start := time.Now()
	var stats Stats

	cat, req, err := r.resolve(ctx, profileID, p, []string{profileID}, &stats)
	if err != nil {
		return nil, err
	}

	out := &Outcome{
		Catalog:  cat,
		Required: req.RequiredParameterIDs(),
		Stats:    stats,
	}
	r.logger.Info("profile resolved",
		"profile", profileID,
		"controls", len(cat.AllControls()),
		"promoted_controls", stats.PromotedControls,
		"duration", time.Since(start),
	)
	return out, nil
}

// RequiredParameters recomputes the required parameter IDs of a resolved
// catalog from the references its controls still carry. It may be a subset of
// Outcome.Required when alterations removed referencing prose.
func RequiredParameters(cat *domain.Catalog) []string {
	req := result.New()
	for _, c := range cat.AllControls() {
		req.RequireParameters(c.ParamReferences()...)
	}
	return req.RequiredParameterIDs()
}

type imported struct {
	catalog *domain.Catalog
	result  *result.Result
	stats   Stats
	back    *domain.BackMatter
}

func (r *Resolver) resolve(ctx context.Context, id string, p *domain.Profile, stack []string, stats *Stats) (*domain.Catalog, *result.Result, error) {
	if len(p.Imports) == 0 {
		return nil, nil, fmt.Errorf("profile %s: no imports", id)
	}

	results := make([]*imported, len(p.Imports))
	g, gctx := errgroup.WithContext(ctx)
	if r.parallelism > 0 {
		g.SetLimit(r.parallelism)
	}
	for i, imp := range p.Imports {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := r.resolveImport(gctx, imp, stack)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	// Single writer from here on: fold in import order.
	cats := make([]*domain.Catalog, len(results))
	partials := make([]*result.Result, len(results))
	for i, res := range results {
		cats[i] = res.catalog
		partials[i] = res.result
		stats.Add(res.stats)
	}
	acc := result.Fold(partials, result.WithLogger(r.logger))

	out := &domain.Catalog{
		UUID:     uuid.NewString(),
		Metadata: r.metadata(p),
	}
	if err := reconcile(cats, p.Merge.CombineMethod(), r.logger); err != nil {
		return nil, nil, fmt.Errorf("profile %s: %w", id, err)
	}
	if err := structure(out, cats, p.Merge, r.logger); err != nil {
		return nil, nil, fmt.Errorf("profile %s: %w", id, err)
	}

	mod, err := applyModify(out, p.Modify, r.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("profile %s: %w", id, err)
	}
	acc.Append(mod)

	out.BackMatter = mergeBackMatter(append(backMatters(results), p.BackMatter)...)
	return out, acc, nil
}

func (r *Resolver) resolveImport(ctx context.Context, imp domain.Import, stack []string) (*imported, error) {
	src, err := r.loadSource(ctx, imp.Href, stack)
	if err != nil {
		return nil, err
	}
	back := src.BackMatter

	sel, err := NewSelector(imp, src)
	if err != nil {
		return nil, err
	}
	w := newWalker(sel, r.logger.With("import", imp.Href))
	res, err := w.prune(src)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", imp.Href, err)
	}
	w.stats.Imports = 1

	r.logger.Debug("import resolved",
		"href", imp.Href,
		"selected", sel.Len(),
		"kept", w.stats.KeptControls,
		"promoted", w.stats.PromotedControls,
	)
	return &imported{catalog: src, result: res, stats: w.stats, back: back}, nil
}

// loadSource returns a private copy of the import's source catalog,
// resolving nested profiles first.
func (r *Resolver) loadSource(ctx context.Context, href string, stack []string) (*domain.Catalog, error) {
	if !strings.HasPrefix(href, domain.ProfileScheme) {
		cat, err := r.catalogs.LoadCatalog(ctx, href)
		if err != nil {
			return nil, fmt.Errorf("import %s: %w", href, err)
		}
		return cat.Clone(), nil
	}

	nestedID := strings.TrimPrefix(href, domain.ProfileScheme)
	for _, seen := range stack {
		if seen == nestedID {
			chain := append(append([]string(nil), stack...), nestedID)
			return nil, fmt.Errorf("%w: %s", domain.ErrImportCycle, strings.Join(chain, " -> "))
		}
	}

	nested, err := r.profiles.LoadProfile(ctx, nestedID)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", href, err)
	}

	// Nested stats describe an intermediate catalog and are not reported.
	var discard Stats
	cat, _, err := r.resolve(ctx, nestedID, nested, append(append([]string(nil), stack...), nestedID), &discard)
	if err != nil {
		return nil, err
	}
	cat.LinkParents()
	return cat, nil
}

func (r *Resolver) metadata(p *domain.Profile) domain.Metadata {
	now := r.now().UTC()
	md := domain.Metadata{
		Title:        p.Metadata.Title,
		Version:      p.Metadata.Version,
		OSCALVersion: p.Metadata.OSCALVersion,
		LastModified: &now,
		Remarks:      p.Metadata.Remarks,
	}
	md.Props = append(md.Props, p.Metadata.Props...)
	md.Props = append(md.Props,
		domain.Property{Name: ResolutionToolProp, Value: r.tool},
		domain.Property{Name: SourceProfileProp, Value: p.UUID},
	)
	return md
}

func backMatters(results []*imported) []*domain.BackMatter {
	out := make([]*domain.BackMatter, 0, len(results))
	for _, res := range results {
		out = append(out, res.back)
	}
	return out
}

// mergeBackMatter unions resources by UUID, first occurrence wins.
func mergeBackMatter(sources ...*domain.BackMatter) *domain.BackMatter {
	var merged domain.BackMatter
	seen := make(map[string]bool)
	for _, bm := range sources {
		if bm == nil {
			continue
		}
		for _, res := range bm.Resources {
			if res.UUID != "" && seen[res.UUID] {
				continue
			}
			seen[res.UUID] = true
			merged.Resources = append(merged.Resources, res)
		}
	}
	if len(merged.Resources) == 0 {
		return nil
	}
	return &merged
}
