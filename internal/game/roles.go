package game

import (
	"fmt"
	"math"
	"math/rand/v2"
)

type RoleInfo struct {
	Role        Role   `json:"role"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Team        Team   `json:"team"`
}

var roleInfos = map[Role]RoleInfo{
	RoleMafia: {
		Role:        RoleMafia,
		Label:       "Mafia",
		Description: "Each night, coordinate with other Mafia to silently eliminate a villager. Blend in during the day!",
		Icon:        "🔫",
		Team:        TeamMafia,
	},
	RoleDetective: {
		Role:        RoleDetective,
		Label:       "Detective",
		Description: "Each night, you can investigate one player to learn their true role. Use your knowledge wisely!",
		Icon:        "🔍",
		Team:        TeamVillagers,
	},
	RoleDoctor: {
		Role:        RoleDoctor,
		Label:       "Doctor",
		Description: "Each night, you can protect one player from being killed. Your saves can turn the tide!",
		Icon:        "💊",
		Team:        TeamVillagers,
	},
	RoleVillager: {
		Role:        RoleVillager,
		Label:       "Villager",
		Description: "Use logic and debate to identify and eliminate the Mafia. Vote carefully!",
		Icon:        "🏘️",
		Team:        TeamVillagers,
	},
}

// Info returns the display metadata for a role, or nil when unset.
func (r Role) Info() *RoleInfo {
	info, ok := roleInfos[r]
	if !ok {
		return nil
	}
	return &info
}

func (r Role) Valid() bool {
	_, ok := roleInfos[r]
	return ok
}

// RoleCounts is the distribution used by GenerateRoles before shuffling.
type RoleCounts struct {
	Mafia     int
	Detective int
	Doctor    int
	Villager  int
}

// CountRoles computes the role distribution for playerCount players.
// Special roles are truncated (mafia first) when they would exceed the
// player count.
func CountRoles(playerCount int, s RoleSettings) (RoleCounts, error) {
	if playerCount < 2 {
		return RoleCounts{}, fmt.Errorf("%w: need at least 2 players, got %d", ErrInvalidConfiguration, playerCount)
	}
	var c RoleCounts
	remaining := playerCount

	take := func(want int) int {
		n := min(want, remaining)
		remaining -= n
		return n
	}

	c.Mafia = take(max(2, int(math.Ceil(float64(playerCount)*0.25))))
	if s.EnableDetective {
		c.Detective = take(ceilDiv(playerCount, 6))
	}
	if s.EnableDoctor {
		c.Doctor = take(ceilDiv(playerCount, 8))
	}
	c.Villager = remaining
	return c, nil
}

// GenerateRoles returns a uniformly shuffled role multiset of length
// playerCount.
func GenerateRoles(playerCount int, s RoleSettings) ([]Role, error) {
	c, err := CountRoles(playerCount, s)
	if err != nil {
		return nil, err
	}
	roles := make([]Role, 0, playerCount)
	roles = appendN(roles, RoleMafia, c.Mafia)
	roles = appendN(roles, RoleDetective, c.Detective)
	roles = appendN(roles, RoleDoctor, c.Doctor)
	roles = appendN(roles, RoleVillager, c.Villager)

	// Fisher-Yates
	rand.Shuffle(len(roles), func(i, j int) { roles[i], roles[j] = roles[j], roles[i] })
	return roles, nil
}

// AssignRoles gives each player, in join order, one role from a fresh
// shuffle. A player's role is set exactly once per game.
func AssignRoles(players []*Player, s RoleSettings) error {
	for _, p := range players {
		if p.Role != RoleNone {
			return fmt.Errorf("%w: %s already has a role", ErrInvalidConfiguration, p.Name)
		}
	}
	roles, err := GenerateRoles(len(players), s)
	if err != nil {
		return err
	}
	for i, p := range players {
		p.Role = roles[i]
	}
	return nil
}

func appendN(roles []Role, r Role, n int) []Role {
	for range n {
		roles = append(roles, r)
	}
	return roles
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
