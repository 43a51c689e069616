package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

// ProfileLoaderContractTest is a reusable test suite that verifies if an adapter
// complies with ports.ProfileLoader. want maps every seeded profile ID to its title.
func ProfileLoaderContractTest(t *testing.T, loader ports.ProfileLoader, want map[string]string) {
	t.Helper()
	ctx := context.Background()

	t.Run("LoadProfile_Success", func(t *testing.T) {
		for id, title := range want {
			p, err := loader.LoadProfile(ctx, id)
			if err != nil {
				t.Fatalf("unexpected error loading profile %s: %v", id, err)
			}
			if p.Metadata.Title != title {
				t.Errorf("title mismatch for %s. got %q, want %q", id, p.Metadata.Title, title)
			}
		}
	})

	t.Run("LoadProfile_NotFound", func(t *testing.T) {
		_, err := loader.LoadProfile(ctx, "non-existent-profile")
		if !errors.Is(err, domain.ErrProfileNotFound) {
			t.Errorf("expected ErrProfileNotFound for non-existent profile, got %v", err)
		}
	})

	t.Run("ListProfiles", func(t *testing.T) {
		ids, err := loader.ListProfiles(ctx)
		if err != nil {
			t.Fatalf("unexpected error listing profiles: %v", err)
		}

		if len(ids) != len(want) {
			t.Errorf("expected %d profiles, got %d", len(want), len(ids))
		}

		lookup := make(map[string]bool)
		for _, id := range ids {
			lookup[id] = true
		}
		for id := range want {
			if !lookup[id] {
				t.Errorf("profile %s missing from list", id)
			}
		}
	})
}
