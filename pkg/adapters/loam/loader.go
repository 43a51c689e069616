package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/loam"
	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
)

// Loader adapts the Loam library to the ports.ProfileLoader interface.
type Loader struct {
	Repo *loam.TypedRepository[ProfileMetadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[ProfileMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// LoadProfile retrieves a profile by ID. The ID is either the document path
// without extension or the "id" declared in its frontmatter.
func (l *Loader) LoadProfile(ctx context.Context, id string) (*domain.Profile, error) {
	// Loam resolves "low" to "low.md" on its own; declared IDs need the index.
	doc, err := l.Repo.Get(ctx, id)
	if err == nil && isProfile(doc.Data) {
		return toProfile(profileID(doc.ID, doc.Data), doc.Data, doc.Content)
	}

	docs, listErr := l.Repo.List(ctx)
	if listErr != nil {
		return nil, fmt.Errorf("loam list failed: %w", listErr)
	}
	for _, d := range docs {
		if isProfile(d.Data) && profileID(d.ID, d.Data) == id {
			return toProfile(id, d.Data, d.Content)
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrProfileNotFound, id)
}

// ListProfiles lists all profiles in the repository. Documents that carry
// neither imports nor a "profile" root, such as catalogs stored next to the
// profiles, are skipped.
func (l *Loader) ListProfiles(ctx context.Context) ([]string, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	ids := make([]string, 0, len(docs))

	for _, doc := range docs {
		if !isProfile(doc.Data) {
			continue
		}
		id := profileID(doc.ID, doc.Data)

		if existingPath, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: ID '%s' is defined in both '%s' and '%s'", id, existingPath, doc.ID)
		}
		seen[id] = doc.ID
		ids = append(ids, id)
	}
	return ids, nil
}

// Watch implements ports.Watchable.
func (l *Loader) Watch(ctx context.Context) (<-chan string, error) {
	events, err := l.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- trimExtension(evt.ID):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}

func isProfile(meta ProfileMetadata) bool {
	return meta.Profile != nil || meta.Imports != nil
}

func profileID(docID string, meta ProfileMetadata) string {
	rawID := meta.ID
	if rawID == "" {
		rawID = docID
	}
	return trimExtension(rawID)
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

func toProfile(id string, meta ProfileMetadata, content string) (*domain.Profile, error) {
	var p domain.Profile

	if meta.Profile != nil {
		if err := decode(meta.Profile, &p); err != nil {
			return nil, fmt.Errorf("profile %s: %w", id, err)
		}
	} else {
		p.UUID = meta.UUID
		p.Metadata = domain.Metadata{
			Title:        meta.Title,
			Version:      meta.Version,
			OSCALVersion: meta.OSCALVersion,
		}
		if err := decode(meta.Imports, &p.Imports); err != nil {
			return nil, fmt.Errorf("profile %s: imports: %w", id, err)
		}
		if meta.Merge != nil {
			if err := decode(meta.Merge, &p.Merge); err != nil {
				return nil, fmt.Errorf("profile %s: merge: %w", id, err)
			}
		}
		if meta.Modify != nil {
			if err := decode(meta.Modify, &p.Modify); err != nil {
				return nil, fmt.Errorf("profile %s: modify: %w", id, err)
			}
		}
	}

	if p.Metadata.Title == "" {
		p.Metadata.Title = id
	}
	if body := strings.TrimSpace(content); body != "" && p.Metadata.Remarks == "" {
		p.Metadata.Remarks = body
	}
	if p.UUID == "" {
		// Stable across loads, so cache fingerprints do not churn.
		p.UUID = uuid.NewSHA1(uuid.NameSpaceURL, []byte("espalier:profile:"+id)).String()
	}
	return &p, nil
}

// decode maps loosely typed frontmatter onto domain types.
// Single values are accepted where lists are expected, and YAML 1.1 booleans
// ("yes"/"no" parsed as bool) are turned back into their string form.
func decode(input, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		DecodeHook:       boolToYesNo,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

func boolToYesNo(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.Bool || to.Kind() != reflect.String {
		return data, nil
	}
	if data.(bool) {
		return "yes", nil
	}
	return "no", nil
}
