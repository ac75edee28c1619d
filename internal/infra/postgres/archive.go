// Package postgres archives finished-game summaries. The provider's
// stats endpoint stays authoritative for cross-device statistics; this
// is a local record for players who want their trivia-night history
// queryable after the session is gone.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quizlive-client/internal/domain"
)

type Archive struct {
	pool *pgxpool.Pool
}

func NewArchive(pool *pgxpool.Pool) *Archive {
	return &Archive{pool: pool}
}

// SaveSummary records a finished session. Re-saving the same game id
// overwrites the previous record; a gameFinished replay after a
// reconnect should not duplicate rows.
func (a *Archive) SaveSummary(ctx context.Context, summary domain.GameSummary) error {
	players, err := json.Marshal(summary.Players)
	if err != nil {
		return fmt.Errorf("marshal players: %w", err)
	}
	_, err = a.pool.Exec(ctx, `
		INSERT INTO game_summaries (game_id, topic, players, finished_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (game_id) DO UPDATE
		SET topic = EXCLUDED.topic, players = EXCLUDED.players, finished_at = EXCLUDED.finished_at`,
		summary.GameID, summary.Topic, players, summary.FinishedAt)
	if err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	return nil
}

// GetSummary loads one archived session by game id.
func (a *Archive) GetSummary(ctx context.Context, gameID string) (domain.GameSummary, error) {
	var (
		summary domain.GameSummary
		raw     []byte
	)
	err := a.pool.QueryRow(ctx,
		`SELECT game_id, topic, players, finished_at FROM game_summaries WHERE game_id = $1`,
		gameID).Scan(&summary.GameID, &summary.Topic, &raw, &summary.FinishedAt)
	if err == pgx.ErrNoRows {
		return domain.GameSummary{}, domain.ErrSummaryNotFound
	}
	if err != nil {
		return domain.GameSummary{}, fmt.Errorf("load summary: %w", err)
	}
	if err := json.Unmarshal(raw, &summary.Players); err != nil {
		return domain.GameSummary{}, fmt.Errorf("unmarshal players: %w", err)
	}
	return summary, nil
}

// RecentSummaries lists the latest archived sessions, newest first.
func (a *Archive) RecentSummaries(ctx context.Context, limit int) ([]domain.GameSummary, error) {
	rows, err := a.pool.Query(ctx,
		`SELECT game_id, topic, players, finished_at FROM game_summaries ORDER BY finished_at DESC LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	defer rows.Close()

	var summaries []domain.GameSummary
	for rows.Next() {
		var (
			summary domain.GameSummary
			raw     []byte
		)
		if err := rows.Scan(&summary.GameID, &summary.Topic, &raw, &summary.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		if err := json.Unmarshal(raw, &summary.Players); err != nil {
			return nil, fmt.Errorf("unmarshal players: %w", err)
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}
