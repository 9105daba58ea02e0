// Package communities derives community membership from user interest tags.
// Communities are not stored rows: the catalog is static configuration and
// membership is recomputed from profiles at query time.
package communities

import (
	"errors"
	"strings"

	"github.com/samber/lo"

	"mingle/config"
)

var ErrCommunityNotFound = errors.New("community_not_found")

// Community is one catalog entry and the topic keywords that make a user a
// member.
type Community struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Bio        string   `json:"bio"`
	AvatarPath string   `json:"avatar"`
	Topics     []string `json:"-"`
}

// Catalog is the fixed community taxonomy loaded from configuration.
type Catalog struct {
	communities []Community
	byID        map[string]Community
}

func NewCatalog(cfg *config.TomlConfig) *Catalog {
	catalog := &Catalog{
		byID: make(map[string]Community, len(cfg.Communities)),
	}
	for _, entry := range cfg.Communities {
		community := Community{
			ID:         entry.Id,
			Name:       entry.DisplayName,
			Bio:        entry.Bio,
			AvatarPath: entry.AvatarPath,
			Topics:     entry.Topics,
		}
		catalog.communities = append(catalog.communities, community)
		catalog.byID[community.ID] = community
	}
	return catalog
}

// All returns the catalog entries in configuration order.
func (c *Catalog) All() []Community {
	return c.communities
}

func (c *Catalog) Get(id string) (Community, error) {
	community, ok := c.byID[id]
	if !ok {
		return Community{}, ErrCommunityNotFound
	}
	return community, nil
}

// ResolveTopicsForInterests maps free-text interest tags onto community
// names. An interest matches a community when it equals one of the
// community's topic keywords or the community name itself, case-insensitive.
// Pure function of the catalog and its input.
func (c *Catalog) ResolveTopicsForInterests(interests []string) []string {
	lowered := lo.Map(interests, func(interest string, _ int) string {
		return strings.ToLower(strings.TrimSpace(interest))
	})

	var names []string
	for _, community := range c.communities {
		matches := lo.SomeBy(lowered, func(interest string) bool {
			if interest == "" {
				return false
			}
			if interest == strings.ToLower(community.Name) {
				return true
			}
			return lo.SomeBy(community.Topics, func(topic string) bool {
				return strings.ToLower(topic) == interest
			})
		})
		if matches {
			names = append(names, community.Name)
		}
	}

	return names
}
