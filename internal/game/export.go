package game

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileExporter appends a readable summary of each finished game to a text
// file.
type FileExporter struct {
	Path string

	mu sync.Mutex
}

func NewFileExporter(path string) *FileExporter {
	return &FileExporter{Path: path}
}

// SaveGame implements HistoryStore.
func (e *FileExporter) SaveGame(_ context.Context, rec GameRecord) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(e.Path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	fileExists := false
	if _, err := os.Stat(e.Path); err == nil {
		fileExists = true
	}

	file, err := os.OpenFile(e.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var sb strings.Builder
	if fileExists {
		sb.WriteString("\n") // spacing between games
	}
	sb.WriteString(fmt.Sprintf("Mafia Game %s - Room %s\n", rec.ID, rec.RoomCode))
	sb.WriteString(fmt.Sprintf("Finished: %s\n", rec.CompletedAt.Format("2006-01-02 15:04:05")))
	sb.WriteString(strings.Repeat("=", 50) + "\n")
	sb.WriteString(fmt.Sprintf("Winner: %s after %d round(s)\n\n", winnerLabel(rec.Winner), rec.Stats.Rounds))

	sb.WriteString("Players:\n")
	for _, p := range rec.Players {
		status := "alive"
		if !p.Alive {
			status = "dead"
		}
		host := ""
		if p.IsHost {
			host = " (host)"
		}
		sb.WriteString(fmt.Sprintf("- %s%s: %s, %s\n", p.Name, host, p.Role, status))
	}

	if len(rec.Stats.NightKills) > 0 {
		sb.WriteString(fmt.Sprintf("\nKilled at night: %s\n", strings.Join(rec.Stats.NightKills, ", ")))
	}
	if len(rec.Stats.Eliminated) > 0 {
		sb.WriteString(fmt.Sprintf("Voted out: %s\n", strings.Join(rec.Stats.Eliminated, ", ")))
	}
	sb.WriteString(strings.Repeat("-", 40) + "\n")

	if _, err := file.WriteString(sb.String()); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}
	return nil
}

func winnerLabel(w Winner) string {
	switch w {
	case VillagersWin:
		return "Villagers"
	case MafiaWin:
		return "Mafia"
	}
	return "nobody"
}
