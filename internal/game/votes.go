package game

import (
	"strings"
)

// Tally counts the recorded votes of living players, keyed by target ID.
func Tally(players []*Player) map[string]int {
	tally := make(map[string]int)
	for _, p := range players {
		if p.Alive && p.HasVoted && p.VotedFor != "" {
			tally[p.VotedFor]++
		}
	}
	return tally
}

// EliminationTarget returns the most voted player among players, or nil when
// nobody voted. Ties go to the alphabetically first name (case-insensitive,
// then case-sensitive, then join order), so the result is deterministic.
func EliminationTarget(players []*Player) *Player {
	tally := Tally(players)
	if len(tally) == 0 {
		return nil
	}
	top := 0
	for _, n := range tally {
		top = max(top, n)
	}

	var best *Player
	for _, p := range players {
		if tally[p.ID] != top {
			continue
		}
		if best == nil || nameLess(p.Name, best.Name) {
			best = p
		}
	}
	return best
}

func nameLess(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}

// CheckWinCondition evaluates the living players. It must only run after an
// elimination step (post-night and post-day).
func CheckWinCondition(players []*Player) Winner {
	mafia, others := 0, 0
	for _, p := range players {
		if !p.Alive {
			continue
		}
		if p.IsMafia() {
			mafia++
		} else {
			others++
		}
	}
	switch {
	case mafia == 0:
		return VillagersWin
	case mafia >= others:
		return MafiaWin
	}
	return NoWinner
}
