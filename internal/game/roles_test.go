package game

import (
	"errors"
	"testing"

	"pgregory.net/rapid"
)

func TestCountRoles(t *testing.T) {
	all := RoleSettings{EnableDoctor: true, EnableDetective: true}
	tests := []struct {
		n        int
		settings RoleSettings
		want     RoleCounts
	}{
		{6, all, RoleCounts{Mafia: 2, Detective: 1, Doctor: 1, Villager: 2}},
		{7, all, RoleCounts{Mafia: 2, Detective: 2, Doctor: 1, Villager: 2}},
		{8, all, RoleCounts{Mafia: 2, Detective: 2, Doctor: 1, Villager: 3}},
		{9, all, RoleCounts{Mafia: 3, Detective: 2, Doctor: 2, Villager: 2}},
		{20, all, RoleCounts{Mafia: 5, Detective: 4, Doctor: 3, Villager: 8}},
		{6, RoleSettings{}, RoleCounts{Mafia: 2, Villager: 4}},
		// Special roles are truncated when they do not fit
		{2, all, RoleCounts{Mafia: 2}},
		{3, all, RoleCounts{Mafia: 2, Detective: 1}},
	}
	for _, tc := range tests {
		got, err := CountRoles(tc.n, tc.settings)
		if err != nil {
			t.Fatalf("CountRoles(%d): %v", tc.n, err)
		}
		if got != tc.want {
			t.Fatalf("CountRoles(%d, %+v) = %+v, want %+v", tc.n, tc.settings, got, tc.want)
		}
	}
}

func TestCountRolesTooFewPlayers(t *testing.T) {
	for _, n := range []int{-1, 0, 1} {
		if _, err := CountRoles(n, RoleSettings{}); !errors.Is(err, ErrInvalidConfiguration) {
			t.Fatalf("CountRoles(%d): expected ErrInvalidConfiguration, got %v", n, err)
		}
	}
}

func TestGenerateRolesProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(2, 40).Draw(t, "players")
		s := RoleSettings{
			EnableDoctor:    rapid.Bool().Draw(t, "doctor"),
			EnableDetective: rapid.Bool().Draw(t, "detective"),
		}
		roles, err := GenerateRoles(n, s)
		if err != nil {
			t.Fatalf("GenerateRoles(%d): %v", n, err)
		}
		if len(roles) != n {
			t.Fatalf("expected %d roles, got %d", n, len(roles))
		}

		counts := map[Role]int{}
		for _, r := range roles {
			if !r.Valid() {
				t.Fatalf("invalid role %q", r)
			}
			counts[r]++
		}
		if counts[RoleMafia] < 2 {
			t.Fatalf("expected at least 2 mafia, got %d", counts[RoleMafia])
		}
		if !s.EnableDoctor && counts[RoleDoctor] > 0 {
			t.Fatal("doctor disabled but assigned")
		}
		if !s.EnableDetective && counts[RoleDetective] > 0 {
			t.Fatal("detective disabled but assigned")
		}

		want, _ := CountRoles(n, s)
		got := RoleCounts{counts[RoleMafia], counts[RoleDetective], counts[RoleDoctor], counts[RoleVillager]}
		if got != want {
			t.Fatalf("shuffle changed the multiset: %+v != %+v", got, want)
		}
	})
}

func TestAssignRoles(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"Ann", "Ben", "Cat", "Dan", "Eve", "Fay"} {
		reg.Add(newPlayer("conn-"+name, name, testNow))
	}
	if err := AssignRoles(reg.All(), RoleSettings{EnableDoctor: true, EnableDetective: true}); err != nil {
		t.Fatalf("should be able to assign roles: %v", err)
	}
	for _, p := range reg.All() {
		if !p.Role.Valid() {
			t.Fatalf("%s got no role", p.Name)
		}
	}

	// Roles are set once per game
	if err := AssignRoles(reg.All(), RoleSettings{}); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration on reassignment, got %v", err)
	}
}

func TestRoleInfo(t *testing.T) {
	if RoleNone.Info() != nil {
		t.Fatal("unset role should have no info")
	}
	info := RoleMafia.Info()
	if info == nil || info.Team != TeamMafia || info.Label != "Mafia" {
		t.Fatalf("unexpected mafia info: %+v", info)
	}
	if RoleDoctor.Info().Team != TeamVillagers {
		t.Fatal("doctor should be on the villagers team")
	}
}
