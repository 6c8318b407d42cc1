package game

import (
	"time"
)

type Phase string

const (
	PhaseLobby        Phase = "WAITING_LOBBY"
	PhaseRoleAssigned Phase = "ROLE_ASSIGNED"
	PhaseNight        Phase = "NIGHT_PHASE"
	PhaseDay          Phase = "DAY_PHASE"
	PhaseGameOver     Phase = "GAME_OVER"
)

type Role string

const (
	RoleNone      Role = ""
	RoleMafia     Role = "MAFIA"
	RoleDetective Role = "DETECTIVE"
	RoleDoctor    Role = "DOCTOR"
	RoleVillager  Role = "VILLAGER"
)

type Team string

const (
	TeamMafia     Team = "MAFIA"
	TeamVillagers Team = "VILLAGERS"
)

type Winner string

const (
	NoWinner     Winner = ""
	VillagersWin Winner = "VILLAGERS_WIN"
	MafiaWin     Winner = "MAFIA_WIN"
)

// ActionKind is a night action. Each kind holds at most one target per night.
type ActionKind string

const (
	ActionKill        ActionKind = "kill"
	ActionSave        ActionKind = "save"
	ActionInvestigate ActionKind = "investigate"
)

// actorRole is the only role allowed to submit the action.
func (k ActionKind) actorRole() Role {
	switch k {
	case ActionKill:
		return RoleMafia
	case ActionSave:
		return RoleDoctor
	case ActionInvestigate:
		return RoleDetective
	}
	return RoleNone
}

type RoleSettings struct {
	EnableDoctor    bool `json:"enableDoctor"`
	EnableDetective bool `json:"enableDetective"`
}

type Settings struct {
	MinPlayers    int `json:"minPlayers"`
	MaxPlayers    int `json:"maxPlayers"`
	NightDuration int `json:"nightDuration"` // seconds
	DayDuration   int `json:"dayDuration"`   // seconds
	RoleSettings
}

func DefaultSettings() Settings {
	return Settings{
		MinPlayers:    6,
		MaxPlayers:    20,
		NightDuration: 30,
		DayDuration:   60,
		RoleSettings:  RoleSettings{EnableDoctor: true, EnableDetective: true},
	}
}

// withDefaults fills zero fields from base. Player bounds are clamped so a
// room can always start with at least two players.
func (s Settings) withDefaults(base Settings) Settings {
	if s.MinPlayers == 0 {
		s.MinPlayers = base.MinPlayers
	}
	if s.MaxPlayers == 0 {
		s.MaxPlayers = base.MaxPlayers
	}
	if s.NightDuration <= 0 {
		s.NightDuration = base.NightDuration
	}
	if s.DayDuration <= 0 {
		s.DayDuration = base.DayDuration
	}
	if s.MinPlayers < 2 {
		s.MinPlayers = 2
	}
	if s.MaxPlayers < s.MinPlayers {
		s.MaxPlayers = s.MinPlayers
	}
	return s
}

// Timing holds the pacing delays. Phase lengths live in Settings.
type Timing struct {
	RoleReveal     time.Duration
	VoteGrace      time.Duration
	NextNight      time.Duration
	DisconnectWait time.Duration
	RoomExpiry     time.Duration
	PostGameExpiry time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		RoleReveal:     3 * time.Second,
		VoteGrace:      500 * time.Millisecond,
		NextNight:      4 * time.Second,
		DisconnectWait: 10 * time.Second,
		RoomExpiry:     30 * time.Minute,
		PostGameExpiry: 5 * time.Minute,
	}
}

type GameStats struct {
	Rounds     int      `json:"rounds"`
	NightKills []string `json:"nightKills"`
	Eliminated []string `json:"eliminated"`
}

// RoomSnapshot is the public view of a room. It never carries a living
// player's role.
type RoomSnapshot struct {
	RoomID      string         `json:"roomId"`
	GameState   Phase          `json:"gameState"`
	PlayerCount int            `json:"playerCount"`
	MaxPlayers  int            `json:"maxPlayers"`
	HostID      string         `json:"hostId"`
	Players     []PublicPlayer `json:"players"`
	Settings    Settings       `json:"settings"`
	TimeLeft    int            `json:"timeLeft"`
	CreatedAt   time.Time      `json:"createdAt"`
	ExpiresAt   time.Time      `json:"expiresAt"`
}
