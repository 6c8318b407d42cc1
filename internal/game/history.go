package game

import (
	"context"
	"time"
)

type PlayerResult struct {
	Name   string `json:"name"`
	Role   Role   `json:"role"`
	Alive  bool   `json:"alive"`
	IsHost bool   `json:"isHost"`
}

// GameRecord is written once when a game ends and never modified.
type GameRecord struct {
	ID          string         `json:"id"`
	RoomCode    string         `json:"roomCode"`
	Winner      Winner         `json:"winner"`
	Players     []PlayerResult `json:"players"`
	Stats       GameStats      `json:"stats"`
	PlayerCount int            `json:"playerCount"`
	CompletedAt time.Time      `json:"completedAt"`
}

// HistoryStore persists completed games.
type HistoryStore interface {
	SaveGame(ctx context.Context, rec GameRecord) error
}

// HistoryReader lists completed games, newest first.
type HistoryReader interface {
	RecentGames(ctx context.Context, limit int) ([]GameRecord, error)
}

// RoomStore keeps a durable copy of live rooms for inspection. Writes are
// best effort.
type RoomStore interface {
	SaveRoom(ctx context.Context, snap RoomSnapshot, ttl time.Duration) error
	DeleteRoom(ctx context.Context, code string) error
}
