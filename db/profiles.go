package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sqlbuilder "github.com/huandu/go-sqlbuilder"

	"mingle/jsonset"
	"mingle/models"
)

// FallbackDisplayName is used when a profile row is missing. A missing
// profile is never an error; interactions must keep working for users whose
// profile sync lagged behind.
const FallbackDisplayName = "User"

func (s *Store) UpsertProfile(ctx context.Context, profile models.Profile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, display_name, avatar, interests, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			display_name = excluded.display_name,
			avatar = excluded.avatar,
			interests = excluded.interests`,
		profile.UserID,
		profile.DisplayName,
		profile.Avatar,
		jsonset.Encode(profile.Interests),
		time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// GetProfile returns the stored profile, or a fallback identity when the
// row is missing.
func (s *Store) GetProfile(ctx context.Context, userID string) (models.Profile, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("user_id", "display_name", "avatar", "interests", "created_at").From("profiles")
	sb.Where(sb.Equal("user_id", userID))

	query, args := sb.Build()

	var profile models.Profile
	var interests string
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&profile.UserID, &profile.DisplayName, &profile.Avatar, &interests, &profile.CreatedAt)
	if err == sql.ErrNoRows {
		return models.Profile{UserID: userID, DisplayName: FallbackDisplayName, Interests: []string{}}, nil
	}
	if err != nil {
		return models.Profile{}, fmt.Errorf("query error: %w", err)
	}
	if profile.DisplayName == "" {
		profile.DisplayName = FallbackDisplayName
	}
	profile.Interests = jsonset.Decode(interests)
	return profile, nil
}

// ListProfiles returns every profile. The community membership resolver
// recomputes memberships by scanning all profiles on each request, so this
// deliberately has no pagination.
func (s *Store) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("user_id", "display_name", "avatar", "interests", "created_at").From("profiles")
	sb.OrderBy("created_at").Asc()

	query, args := sb.Build()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		var profile models.Profile
		var interests string
		if err := rows.Scan(&profile.UserID, &profile.DisplayName, &profile.Avatar, &interests, &profile.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		if profile.DisplayName == "" {
			profile.DisplayName = FallbackDisplayName
		}
		profile.Interests = jsonset.Decode(interests)
		profiles = append(profiles, profile)
	}

	return profiles, rows.Err()
}
