// ABOUTME: Ranks a user's postmen by relationship score and reports log streaks
// ABOUTME: Loads interaction history once per user and scores each postman in memory
package viz

import (
	"cmp"
	"context"
	"database/sql"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/relationcraft/postman/apperr"
	"github.com/relationcraft/postman/db"
	"github.com/relationcraft/postman/metrics"
	"github.com/relationcraft/postman/models"
)

type ScoredPostman struct {
	Postman models.Postman `json:"postman"`
	metrics.Score
}

// ScorePostmen scores every postman a user owns, best first. Ties are broken by name.
func ScorePostmen(ctx context.Context, database *sql.DB, userID uuid.UUID, now time.Time) ([]ScoredPostman, error) {
	postmen, err := db.ListPostmen(ctx, database, db.PostmanFilter{UserID: userID, Order: db.OrderName})
	if err != nil {
		return nil, fmt.Errorf("failed to list postmen: %w", err)
	}
	interactions, err := db.ListInteractions(ctx, database, db.InteractionFilter{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list interactions: %w", err)
	}

	byPostman := make(map[uuid.UUID][]models.Interaction)
	for _, in := range interactions {
		byPostman[in.PostmanID] = append(byPostman[in.PostmanID], in)
	}

	scored := make([]ScoredPostman, len(postmen))
	for i := range postmen {
		scored[i] = ScoredPostman{
			Postman: postmen[i],
			Score:   metrics.RelationshipScore(&postmen[i], byPostman[postmen[i].ID], now),
		}
	}
	slices.SortStableFunc(scored, func(a, b ScoredPostman) int {
		return cmp.Compare(b.Total, a.Total)
	})
	return scored, nil
}

// ScorePostman scores a single postman owned by userID.
func ScorePostman(ctx context.Context, database *sql.DB, userID, postmanID uuid.UUID, now time.Time) (*ScoredPostman, error) {
	p, err := db.GetPostman(ctx, database, postmanID)
	if err != nil {
		return nil, err
	}
	if p == nil || p.UserID != userID {
		return nil, apperr.NotFoundf("postman %s not found", postmanID)
	}

	history, err := db.ListInteractions(ctx, database, db.InteractionFilter{UserID: userID, PostmanID: postmanID})
	if err != nil {
		return nil, fmt.Errorf("failed to list interactions: %w", err)
	}

	return &ScoredPostman{Postman: *p, Score: metrics.RelationshipScore(p, history, now)}, nil
}

// UserStreaks computes current and longest daily-log streaks for a user.
func UserStreaks(ctx context.Context, database *sql.DB, userID uuid.UUID, now time.Time) (metrics.StreakResult, error) {
	days, err := db.ListLogDates(ctx, database, userID, db.DateRange{})
	if err != nil {
		return metrics.StreakResult{}, fmt.Errorf("failed to list log dates: %w", err)
	}
	return metrics.Streaks(days, now), nil
}
