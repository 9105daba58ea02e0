package communities

import (
	"context"

	"github.com/samber/lo"

	"mingle/models"
)

// ProfileStore is the read-only profile dependency of the resolver.
type ProfileStore interface {
	ListProfiles(ctx context.Context) ([]models.Profile, error)
	GetProfile(ctx context.Context, userID string) (models.Profile, error)
}

// Resolver answers membership questions by scanning profiles and resolving
// their interest tags against the catalog. This is a full scan per request;
// acceptable at the expected data volume.
type Resolver struct {
	catalog  *Catalog
	profiles ProfileStore
}

func NewResolver(catalog *Catalog, profiles ProfileStore) *Resolver {
	return &Resolver{catalog: catalog, profiles: profiles}
}

func (r *Resolver) Catalog() *Catalog {
	return r.catalog
}

// IsMember reports whether the user's interests place them in the community.
func (r *Resolver) IsMember(ctx context.Context, communityID, userID string) (bool, error) {
	community, err := r.catalog.Get(communityID)
	if err != nil {
		return false, err
	}

	profile, err := r.profiles.GetProfile(ctx, userID)
	if err != nil {
		return false, err
	}

	names := r.catalog.ResolveTopicsForInterests(profile.Interests)
	return lo.Contains(names, community.Name), nil
}

// MemberCount counts users whose interests resolve to the community.
func (r *Resolver) MemberCount(ctx context.Context, communityID string) (int64, error) {
	counts, err := r.MemberCounts(ctx)
	if err != nil {
		return 0, err
	}
	count, ok := counts[communityID]
	if !ok {
		return 0, ErrCommunityNotFound
	}
	return count, nil
}

// MemberCounts aggregates membership for every community in one profile
// scan.
func (r *Resolver) MemberCounts(ctx context.Context) (map[string]int64, error) {
	profiles, err := r.profiles.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(r.catalog.All()))
	for _, community := range r.catalog.All() {
		counts[community.ID] = 0
	}

	for _, profile := range profiles {
		names := r.catalog.ResolveTopicsForInterests(profile.Interests)
		for _, community := range r.catalog.All() {
			if lo.Contains(names, community.Name) {
				counts[community.ID]++
			}
		}
	}

	return counts, nil
}

// Members lists the user ids belonging to the community. Used by the
// notification fan-out for community posts.
func (r *Resolver) Members(ctx context.Context, communityID string) ([]string, error) {
	community, err := r.catalog.Get(communityID)
	if err != nil {
		return nil, err
	}

	profiles, err := r.profiles.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}

	var members []string
	for _, profile := range profiles {
		names := r.catalog.ResolveTopicsForInterests(profile.Interests)
		if lo.Contains(names, community.Name) {
			members = append(members, profile.UserID)
		}
	}

	return members, nil
}
