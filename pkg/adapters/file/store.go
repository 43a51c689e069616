package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/espalier/pkg/codec"
	"github.com/aretw0/espalier/pkg/domain"
)

// WriteCatalog encodes cat in the given format and writes it to path atomically.
func WriteCatalog(path string, cat *domain.Catalog, format codec.Format) error {
	data, err := codec.EncodeCatalog(cat, format)
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	return WriteAtomic(path, data)
}

// WriteAtomic writes data to path through a temporary file in the same
// directory, syncs it via fsync, and then renames it to the destination.
// Readers never observe a partially written file.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to ensure directory: %w", err)
	}

	// Same directory, so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(dir, "tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Cannot rename an open file on Windows.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// On Windows, os.Rename fails if dest exists. We must remove it first.
	if _, err := os.Stat(path); err == nil {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove existing file for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Cache implements ports.CatalogCache using the local filesystem.
// It stores catalogs as JSON files in a configured directory.
type Cache struct {
	BasePath string
}

// NewCache creates a new Cache with the given base path.
// If basePath is empty, it defaults to ".espalier/cache".
func NewCache(basePath string) *Cache {
	if basePath == "" {
		basePath = filepath.Join(".espalier", "cache")
	}
	return &Cache{BasePath: basePath}
}

func (c *Cache) path(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("cache key cannot be empty")
	}
	if strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid cache key %q", key)
	}
	return filepath.Join(c.BasePath, key+".json"), nil
}

// Put stores the catalog atomically.
func (c *Cache) Put(ctx context.Context, key string, cat *domain.Catalog) error {
	path, err := c.path(key)
	if err != nil {
		return err
	}
	return WriteCatalog(path, cat, codec.FormatJSON)
}

// Get decodes the stored catalog, restoring parent links.
func (c *Cache) Get(ctx context.Context, key string) (*domain.Catalog, error) {
	path, err := c.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrCatalogNotFound, key)
		}
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}
	return codec.DecodeCatalog(data, codec.FormatJSON)
}

// Delete removes the cache file.
func (c *Cache) Delete(ctx context.Context, key string) error {
	path, err := c.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete cache file: %w", err)
	}
	return nil
}

// Keys returns the keys of all stored catalogs.
func (c *Cache) Keys(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(c.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list cache: %w", err)
	}

	keys := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ".json"))
	}
	return keys, nil
}
