package storage

import (
	"context"
	"errors"

	"github.com/SAMIHZS/mafia-game/internal/game"
)

// MultiHistory writes every record to all stores and joins their errors.
type MultiHistory []game.HistoryStore

func (m MultiHistory) SaveGame(ctx context.Context, rec game.GameRecord) error {
	var errs []error
	for _, s := range m {
		if err := s.SaveGame(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
