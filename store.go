package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// moodStore is the persistence boundary: user profiles, mood entries, and the
// per-country crisis-resource cache. pgxStore is the real implementation;
// tests use an in-memory fake.
type moodStore interface {
	saveMoodEntry(ctx context.Context, entry moodEntry) (moodEntry, error)
	moodHistory(ctx context.Context, userID string, limit int) ([]moodEntry, error)
	moodEntriesSince(ctx context.Context, userID string, since time.Time) ([]moodEntry, error)
	userProfile(ctx context.Context, userID string) (*userProfile, error)
	cachedCrisisResources(ctx context.Context, country string) (*crisisResourceSet, error)
	cacheCrisisResources(ctx context.Context, set crisisResourceSet) error
}

// pgxStore implements moodStore on a PostgreSQL pool.
type pgxStore struct {
	pool *pgxpool.Pool
}

func (s *pgxStore) saveMoodEntry(ctx context.Context, entry moodEntry) (moodEntry, error) {
	saved, err := queryOne[moodEntry](ctx, s.pool,
		`INSERT INTO mood_entries
			(user_id, quiz_answers, derived_score, mood_category, stress_level,
			 primary_emotions, warning_signs, ai_tip, notes)
		 VALUES (@userID, @quizAnswers, @derivedScore, @moodCategory, @stressLevel,
			 @primaryEmotions, @warningSigns, @aiTip, @notes)
		 RETURNING *`,
		pgx.NamedArgs{
			"userID": entry.UserID, "quizAnswers": entry.QuizAnswers,
			"derivedScore": entry.DerivedScore, "moodCategory": entry.MoodCategory,
			"stressLevel": entry.StressLevel, "primaryEmotions": entry.PrimaryEmotions,
			"warningSigns": entry.WarningSigns, "aiTip": entry.AITip, "notes": entry.Notes,
		})
	if err != nil {
		return moodEntry{}, fmt.Errorf("save mood entry: %w", err)
	}
	return saved, nil
}

// moodHistory returns the user's entries newest-first, for the history view.
func (s *pgxStore) moodHistory(ctx context.Context, userID string, limit int) ([]moodEntry, error) {
	return queryMany[moodEntry](ctx, s.pool,
		`SELECT * FROM mood_entries
		 WHERE user_id = @userID
		 ORDER BY created_at DESC
		 LIMIT @limit`,
		pgx.NamedArgs{"userID": userID, "limit": limit})
}

// moodEntriesSince returns entries in chronological order, for trend analysis.
func (s *pgxStore) moodEntriesSince(ctx context.Context, userID string, since time.Time) ([]moodEntry, error) {
	return queryMany[moodEntry](ctx, s.pool,
		`SELECT * FROM mood_entries
		 WHERE user_id = @userID AND created_at >= @since
		 ORDER BY created_at ASC`,
		pgx.NamedArgs{"userID": userID, "since": since})
}

// userProfile returns nil (not an error) when the user has no profile row —
// the profile only personalizes AI prompts and is never required.
func (s *pgxStore) userProfile(ctx context.Context, userID string) (*userProfile, error) {
	profile, err := queryOne[userProfile](ctx, s.pool,
		"SELECT * FROM users WHERE id = @userID",
		pgx.NamedArgs{"userID": userID})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *pgxStore) cachedCrisisResources(ctx context.Context, country string) (*crisisResourceSet, error) {
	type resourceRow struct {
		Resources crisisResourceSet `db:"resources"`
	}
	row, err := queryOne[resourceRow](ctx, s.pool,
		"SELECT resources FROM crisis_resources WHERE country = @country",
		pgx.NamedArgs{"country": country})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row.Resources, nil
}

func (s *pgxStore) cacheCrisisResources(ctx context.Context, set crisisResourceSet) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO crisis_resources (country, resources, cached_at)
		 VALUES (@country, @resources, now())
		 ON CONFLICT (country) DO UPDATE SET resources = @resources, cached_at = now()`,
		pgx.NamedArgs{"country": set.Country, "resources": set})
	if err != nil {
		return fmt.Errorf("cache crisis resources for %s: %w", set.Country, err)
	}
	return nil
}
