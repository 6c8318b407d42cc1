package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/SAMIHZS/mafia-game/internal/game"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrUnexpectedStorage = errors.New("unexpected storage error")

const defaultRecentLimit = 20

// PostgresHistory stores finished games in the game_history table.
type PostgresHistory struct {
	pool *pgxpool.Pool
}

func NewPostgresHistory(ctx context.Context, connString string) (*PostgresHistory, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %w", ErrUnexpectedStorage, err)
	}
	return &PostgresHistory{pool: pool}, nil
}

func (h *PostgresHistory) Close() {
	h.pool.Close()
}

// SaveGame implements game.HistoryStore.
func (h *PostgresHistory) SaveGame(ctx context.Context, rec game.GameRecord) error {
	players, err := json.Marshal(rec.Players)
	if err != nil {
		return fmt.Errorf("marshal players: %w", err)
	}
	stats, err := json.Marshal(rec.Stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}

	_, err = h.pool.Exec(ctx,
		`INSERT INTO game_history (id, room_code, winner, player_count, rounds, players, stats, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.RoomCode, string(rec.Winner), rec.PlayerCount, rec.Stats.Rounds, players, stats, rec.CompletedAt)
	if err != nil {
		return wrapErr(err)
	}
	return nil
}

// RecentGames implements game.HistoryReader.
func (h *PostgresHistory) RecentGames(ctx context.Context, limit int) ([]game.GameRecord, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	rows, err := h.pool.Query(ctx,
		`SELECT id::text, room_code, winner, player_count, players, stats, completed_at
		 FROM game_history ORDER BY completed_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, wrapErr(err)
	}
	defer rows.Close()

	out := make([]game.GameRecord, 0, limit)
	for rows.Next() {
		var (
			rec            game.GameRecord
			winner         string
			players, stats []byte
		)
		if err := rows.Scan(&rec.ID, &rec.RoomCode, &winner, &rec.PlayerCount, &players, &stats, &rec.CompletedAt); err != nil {
			return nil, wrapErr(err)
		}
		rec.Winner = game.Winner(winner)
		if err := json.Unmarshal(players, &rec.Players); err != nil {
			return nil, fmt.Errorf("%w: decode players: %w", ErrUnexpectedStorage, err)
		}
		if err := json.Unmarshal(stats, &rec.Stats); err != nil {
			return nil, fmt.Errorf("%w: decode stats: %w", ErrUnexpectedStorage, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(err)
	}
	return out, nil
}

func wrapErr(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUnexpectedStorage, err)
}
