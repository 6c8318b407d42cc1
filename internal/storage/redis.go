package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/SAMIHZS/mafia-game/internal/game"
	"github.com/redis/go-redis/v9"
)

const (
	roomKeyPrefix = "mafia:room:"
	minRoomTTL    = time.Minute
)

func roomKey(code string) string { return roomKeyPrefix + code }

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisRooms mirrors live room snapshots to redis so other tools can
// inspect them. Keys expire with the room.
type RedisRooms struct {
	client *redis.Client
}

func NewRedisRooms(ctx context.Context, cfg RedisConfig) (*RedisRooms, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %w", ErrUnexpectedStorage, err)
	}
	return &RedisRooms{client: client}, nil
}

func (r *RedisRooms) Close() error {
	return r.client.Close()
}

// SaveRoom implements game.RoomStore.
func (r *RedisRooms) SaveRoom(ctx context.Context, snap game.RoomSnapshot, ttl time.Duration) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal room: %w", err)
	}
	if ttl < minRoomTTL {
		ttl = minRoomTTL
	}
	if err := r.client.Set(ctx, roomKey(snap.RoomID), data, ttl).Err(); err != nil {
		return wrapErr(err)
	}
	return nil
}

// DeleteRoom implements game.RoomStore.
func (r *RedisRooms) DeleteRoom(ctx context.Context, code string) error {
	if err := r.client.Del(ctx, roomKey(code)).Err(); err != nil {
		return wrapErr(err)
	}
	return nil
}

// loadRoom reads a mirrored snapshot. ok is false when the key is absent.
func (r *RedisRooms) loadRoom(ctx context.Context, code string) (snap game.RoomSnapshot, ok bool, err error) {
	data, err := r.client.Get(ctx, roomKey(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return game.RoomSnapshot{}, false, nil
	}
	if err != nil {
		return game.RoomSnapshot{}, false, wrapErr(err)
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return game.RoomSnapshot{}, false, fmt.Errorf("%w: decode room: %w", ErrUnexpectedStorage, err)
	}
	return snap, true, nil
}
