// internal/database/leaderboard.go
package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// GameResult is one player's final standing in one finished game.
type GameResult struct {
	GameID     uuid.UUID
	PlayerName string
	Score      int
	Placement  int
}

// LeaderboardEntry is one aggregated leaderboard row.
type LeaderboardEntry struct {
	PlayerName string
	Wins       int
	BestScore  int
	Games      int
}

// RecordGameResults persists every player's final standing for one game in a
// single transaction.
func RecordGameResults(ctx context.Context, results []GameResult) error {
	if DB == nil || len(results) == 0 {
		return nil
	}
	q := `
		INSERT INTO game_results (game_id, player_name, score, placement)
		VALUES ($1, $2, $3, $4)
	`
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, r := range results {
			if _, err := tx.Exec(ctx, q, r.GameID, r.PlayerName, r.Score, r.Placement); err != nil {
				return err
			}
		}
		return nil
	})
}

// TopPlayers returns the leaderboard, most wins first, best score breaking
// ties. Without a database connection the leaderboard is empty.
func TopPlayers(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if DB == nil {
		return nil, nil
	}
	q := `
		SELECT player_name,
		       COUNT(*) FILTER (WHERE placement = 1) AS wins,
		       MAX(score) AS best_score,
		       COUNT(*) AS games
		FROM game_results
		GROUP BY player_name
		ORDER BY wins DESC, best_score DESC
		LIMIT $1
	`
	rows, err := DB.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.PlayerName, &e.Wins, &e.BestScore, &e.Games); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
