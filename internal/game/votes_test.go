package game

import (
	"testing"
	"time"

	"pgregory.net/rapid"
)

var testNow = time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)

func players(names ...string) []*Player {
	out := make([]*Player, 0, len(names))
	for _, n := range names {
		out = append(out, newPlayer("conn-"+n, n, testNow))
	}
	return out
}

func TestTallyIgnoresDeadVoters(t *testing.T) {
	ps := players("Ann", "Ben", "Cat")
	ps[0].recordVote(ps[2].ID)
	ps[1].recordVote(ps[2].ID)
	ps[1].Alive = false

	tally := Tally(ps)
	if tally[ps[2].ID] != 1 {
		t.Fatalf("expected 1 vote for Cat, got %d", tally[ps[2].ID])
	}
}

func TestEliminationTarget(t *testing.T) {
	ps := players("Yara", "Zed", "Abe", "Bo", "Cy")
	yara, zed := ps[0], ps[1]

	// 3 vs 2
	ps[2].recordVote(yara.ID)
	ps[3].recordVote(yara.ID)
	ps[4].recordVote(yara.ID)
	yara.recordVote(zed.ID)
	zed.recordVote(zed.ID)
	if got := EliminationTarget(ps); got != yara {
		t.Fatalf("expected Yara, got %v", got)
	}

	// 2-2-1: alphabetically first of the tied names
	for _, p := range ps {
		p.resetDay()
	}
	ps[2].recordVote(zed.ID)
	ps[3].recordVote(zed.ID)
	ps[4].recordVote(yara.ID)
	yara.recordVote(yara.ID)
	zed.recordVote(ps[2].ID)
	if got := EliminationTarget(ps); got != yara {
		t.Fatalf("expected Yara on tie, got %v", got)
	}
}

func TestEliminationTargetNoVotes(t *testing.T) {
	if got := EliminationTarget(players("Ann", "Ben")); got != nil {
		t.Fatalf("expected nobody, got %s", got.Name)
	}
}

func TestEliminationTargetCaseInsensitive(t *testing.T) {
	ps := players("bob", "Alice", "Carl")
	ps[2].recordVote(ps[0].ID)
	ps[0].recordVote(ps[1].ID)
	if got := EliminationTarget(ps); got != ps[1] {
		t.Fatalf("expected Alice before bob, got %s", got.Name)
	}
}

func TestEliminationTargetDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		names := rapid.SliceOfNDistinct(rapid.StringMatching(`[a-zA-Z]{2,8}`), 2, 10, func(s string) string { return s }).Draw(t, "names")
		ps := players(names...)
		for _, p := range ps {
			if rapid.Bool().Draw(t, "votes") {
				p.recordVote(ps[rapid.IntRange(0, len(ps)-1).Draw(t, "target")].ID)
			}
		}
		first := EliminationTarget(ps)

		// Reversed input order yields the same target
		rev := make([]*Player, len(ps))
		for i, p := range ps {
			rev[len(ps)-1-i] = p
		}
		if again := EliminationTarget(rev); again != first {
			t.Fatalf("order dependent result: %v vs %v", first, again)
		}
		if first == nil {
			return
		}
		tally := Tally(ps)
		for id, n := range tally {
			if n > tally[first.ID] {
				t.Fatalf("target %s has %d votes but %s has %d", first.Name, tally[first.ID], id, n)
			}
		}
	})
}

func TestCheckWinCondition(t *testing.T) {
	tests := []struct {
		name  string
		roles []Role
		dead  []int
		want  Winner
	}{
		{"no mafia left", []Role{RoleMafia, RoleVillager, RoleVillager}, []int{0}, VillagersWin},
		{"parity", []Role{RoleMafia, RoleVillager, RoleDoctor}, []int{1}, MafiaWin},
		{"mafia majority", []Role{RoleMafia, RoleMafia, RoleVillager}, nil, MafiaWin},
		{"ongoing", []Role{RoleMafia, RoleMafia, RoleDetective, RoleDoctor, RoleVillager, RoleVillager}, nil, NoWinner},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ps := make([]*Player, len(tc.roles))
			for i, r := range tc.roles {
				ps[i] = &Player{Role: r, Alive: true}
			}
			for _, i := range tc.dead {
				ps[i].Alive = false
			}
			if got := CheckWinCondition(ps); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
