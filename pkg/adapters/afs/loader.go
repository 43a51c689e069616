package afs

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/aretw0/espalier/internal/logging"
	"github.com/aretw0/espalier/pkg/codec"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/viant/afs"
	"github.com/viant/afs/url"
)

// Loader implements ports.CatalogLoader on top of viant/afs, so catalog hrefs
// may point at local files or any storage afs supports (s3://, gs://, mem://...).
// Relative hrefs are joined to the base URL.
type Loader struct {
	fs      afs.Service
	baseURL string
	logger  *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithService overrides the afs service (e.g. a mocked or pre-authenticated one).
func WithService(fs afs.Service) Option {
	return func(l *Loader) {
		l.fs = fs
	}
}

// New creates a Loader rooted at baseURL. A bare directory path is made absolute.
func New(baseURL string, opts ...Option) (*Loader, error) {
	if !hasScheme(baseURL) {
		abs, err := filepath.Abs(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid catalog path: %w", err)
		}
		baseURL = abs
	}
	l := &Loader{
		fs:      afs.New(),
		baseURL: baseURL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// BaseURL returns the location relative hrefs are resolved against.
func (l *Loader) BaseURL() string {
	return l.baseURL
}

// Resolve returns the absolute location of href.
func (l *Loader) Resolve(href string) string {
	if hasScheme(href) || filepath.IsAbs(href) {
		return href
	}
	return url.Join(l.baseURL, href)
}

// LoadCatalog downloads and decodes the catalog at href. The format is taken
// from the extension; anything that is not YAML is decoded as JSON.
func (l *Loader) LoadCatalog(ctx context.Context, href string) (*domain.Catalog, error) {
	location := l.Resolve(href)

	exists, err := l.fs.Exists(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to stat catalog %s: %w", href, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrCatalogNotFound, href)
	}

	data, err := l.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to download catalog %s: %w", href, err)
	}
	l.logger.Debug("catalog downloaded", "href", href, "location", location, "bytes", len(data))

	cat, err := codec.DecodeCatalog(data, codec.FormatFromPath(location))
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", href, err)
	}
	return cat, nil
}

func hasScheme(location string) bool {
	return strings.Contains(location, "://")
}
