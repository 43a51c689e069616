package espalier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/espalier/internal/logging"
	"github.com/aretw0/espalier/internal/metrics"
	"github.com/aretw0/espalier/internal/resolve"
	"github.com/aretw0/espalier/internal/validator"
	afsAdapter "github.com/aretw0/espalier/pkg/adapters/afs"
	loamAdapter "github.com/aretw0/espalier/pkg/adapters/loam"
	"github.com/aretw0/espalier/pkg/codec"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/loam"
	"github.com/minio/highwayhash"
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome is a resolved catalog plus the required parameter IDs and statistics.
type Outcome = resolve.Outcome

// Stats summarizes what a resolution kept and moved.
type Stats = resolve.Stats

// lockTTL bounds how long a crashed holder can block other resolvers of the same profile.
const lockTTL = 30 * time.Second

// Resolver is the high-level entry point of the library.
// It resolves profiles from a repository against catalogs, optionally
// caching the resolved catalogs.
type Resolver struct {
	resolver    *resolve.Resolver
	profiles    ports.ProfileLoader
	catalogs    ports.CatalogLoader
	cache       ports.CatalogCache
	locker      ports.DistributedLocker
	registerer  prometheus.Registerer
	metrics     *metrics.Metrics
	logger      *slog.Logger
	parallelism int
	catalogBase string
	Name        string
}

// Option defines a functional option for configuring the Resolver.
type Option func(*Resolver)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithProfileLoader injects a custom ProfileLoader, bypassing the default Loam repository.
func WithProfileLoader(l ports.ProfileLoader) Option {
	return func(r *Resolver) {
		r.profiles = l
	}
}

// WithCatalogLoader injects a custom CatalogLoader, bypassing the default afs loader.
func WithCatalogLoader(l ports.CatalogLoader) Option {
	return func(r *Resolver) {
		r.catalogs = l
	}
}

// WithCatalogBase sets the base URL catalog hrefs are resolved against.
// It defaults to the repository path.
func WithCatalogBase(baseURL string) Option {
	return func(r *Resolver) {
		r.catalogBase = baseURL
	}
}

// WithCache caches resolved catalogs, keyed by a fingerprint of the profile.
func WithCache(c ports.CatalogCache) Option {
	return func(r *Resolver) {
		r.cache = c
	}
}

// WithLocker serializes cache misses of the same profile across processes.
// Only meaningful together with WithCache.
func WithLocker(l ports.DistributedLocker) Option {
	return func(r *Resolver) {
		r.locker = l
	}
}

// WithMetrics registers resolution metrics on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(r *Resolver) {
		r.registerer = reg
	}
}

// WithParallelism bounds how many imports of one profile load concurrently.
func WithParallelism(n int) Option {
	return func(r *Resolver) {
		r.parallelism = n
	}
}

// New initializes a Resolver.
// By default, profiles come from a Loam repository at repoPath and catalogs
// are read relative to it. If both loaders are injected, repoPath can be empty.
func New(repoPath string, opts ...Option) (*Resolver, error) {
	r := &Resolver{parallelism: 4}
	for _, opt := range opts {
		opt(r)
	}

	// Ensure logger is initialized before the adapters need it
	if r.logger == nil {
		r.logger = logging.NewNop()
	}

	if r.profiles == nil || (r.catalogs == nil && r.catalogBase == "") {
		if repoPath == "" {
			return nil, fmt.Errorf("repoPath is required when no custom loaders are provided")
		}
		absPath, err := filepath.Abs(repoPath)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
		repoPath = absPath
		r.Name = filepath.Base(absPath)
	} else if repoPath != "" {
		r.Name = filepath.Base(repoPath)
	}

	if r.profiles == nil {
		// Profiles are only read; read-only mode keeps loam from creating its dev sandbox.
		repo, err := loam.Init(repoPath,
			loam.WithStrict(true),
			loam.WithReadOnly(true),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize loam: %w", err)
		}
		r.profiles = loamAdapter.New(loam.NewTypedRepository[loamAdapter.ProfileMetadata](repo))
	}

	if r.catalogs == nil {
		base := r.catalogBase
		if base == "" {
			base = repoPath
		}
		l, err := afsAdapter.New(base, afsAdapter.WithLogger(r.logger))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize catalog loader: %w", err)
		}
		r.catalogs = l
	}

	if r.Name != "" {
		r.logger = r.logger.With("repo", r.Name)
	}

	if r.registerer != nil {
		m, err := metrics.New(r.registerer)
		if err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		r.metrics = m
	}

	r.resolver = resolve.New(r.profiles, r.catalogs,
		resolve.WithLogger(r.logger),
		resolve.WithParallelism(r.parallelism),
		resolve.WithToolName("espalier "+strings.TrimSpace(Version)),
	)
	return r, nil
}

// Profiles lists the IDs of every profile in the repository.
func (r *Resolver) Profiles(ctx context.Context) ([]string, error) {
	return r.profiles.ListProfiles(ctx)
}

// Profile loads a single profile definition.
func (r *Resolver) Profile(ctx context.Context, profileID string) (*domain.Profile, error) {
	return r.profiles.LoadProfile(ctx, profileID)
}

// Resolve produces the resolved catalog of a profile.
func (r *Resolver) Resolve(ctx context.Context, profileID string) (*Outcome, error) {
	start := time.Now()
	out, err := r.resolve(ctx, profileID)

	var stats Stats
	if out != nil {
		stats = out.Stats
	}
	r.metrics.ObserveResolution(time.Since(start), stats, err)
	if err != nil {
		r.logger.Error("resolution failed", "profile", profileID, "err", err)
	}
	return out, err
}

func (r *Resolver) resolve(ctx context.Context, profileID string) (*Outcome, error) {
	p, err := r.profiles.LoadProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if r.cache == nil {
		return r.resolver.ResolveProfile(ctx, profileID, p)
	}

	key, err := Fingerprint(profileID, p)
	if err != nil {
		return nil, err
	}
	if out, ok := r.cached(ctx, key); ok {
		return out, nil
	}

	if r.locker != nil {
		unlock, err := r.locker.Lock(ctx, "resolve:"+key, lockTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire resolution lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				r.logger.Warn("failed to release resolution lock", "profile", profileID, "err", err)
			}
		}()
		// Another holder may have filled the cache while we waited.
		if out, ok := r.cached(ctx, key); ok {
			return out, nil
		}
	}

	out, err := r.resolver.ResolveProfile(ctx, profileID, p)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Put(ctx, key, out.Catalog); err != nil {
		r.logger.Warn("failed to cache resolved catalog", "profile", profileID, "err", err)
	}
	return out, nil
}

func (r *Resolver) cached(ctx context.Context, key string) (*Outcome, bool) {
	cat, err := r.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCatalogNotFound) {
			r.logger.Warn("cache lookup failed", "key", key, "err", err)
		}
		r.metrics.ObserveCache(false)
		return nil, false
	}
	r.metrics.ObserveCache(true)
	r.logger.Debug("serving cached catalog", "key", key)
	return &Outcome{
		Catalog:  cat,
		Required: resolve.RequiredParameters(cat),
		Cached:   true,
	}, true
}

// Validate checks the import graph of a profile, resolves it, and checks the
// resolved catalog. Every problem found is reported in one aggregate error.
func (r *Resolver) Validate(ctx context.Context, profileID string) error {
	if err := validator.ValidateImports(ctx, r.profiles, profileID); err != nil {
		return err
	}
	out, err := r.Resolve(ctx, profileID)
	if err != nil {
		return err
	}
	return validator.ValidateCatalog(out.Catalog, out.Required)
}

// Watch returns a channel that signals when a profile in the repository changes.
// Returns error if the profile loader does not support watching.
func (r *Resolver) Watch(ctx context.Context) (<-chan string, error) {
	if w, ok := r.profiles.(ports.Watchable); ok {
		return w.Watch(ctx)
	}
	return nil, fmt.Errorf("current profile loader does not support watching")
}

// Invalidate drops every cached catalog. Fingerprints only cover the profile
// document itself, so changes to nested profiles or catalogs need this.
func (r *Resolver) Invalidate(ctx context.Context) error {
	if r.cache == nil {
		return nil
	}
	keys, err := r.cache.Keys(ctx)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := r.cache.Delete(ctx, k); err != nil {
			return err
		}
	}
	r.logger.Debug("cache invalidated", "entries", len(keys))
	return nil
}

var fingerprintKey = []byte("espalier resolved catalog cache!")

// Fingerprint derives the cache key of a profile from its ID and definition.
func Fingerprint(profileID string, p *domain.Profile) (string, error) {
	data, err := codec.EncodeProfile(p, codec.FormatJSON)
	if err != nil {
		return "", fmt.Errorf("failed to encode profile: %w", err)
	}
	hash, err := highwayhash.New64(fingerprintKey)
	if err != nil {
		return "", err
	}
	hash.Write([]byte(profileID))
	hash.Write([]byte{0})
	hash.Write(data)
	return fmt.Sprintf("%016x", hash.Sum64()), nil
}
