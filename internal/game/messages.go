package game

import (
	"time"
)

// Channel is the transport seen by the game. Implementations must not call
// back into a Session synchronously.
type Channel interface {
	// Send delivers msg to a single connection.
	Send(connID string, msg Message)
	// Broadcast delivers msg to every member of room except the listed
	// connections.
	Broadcast(room string, msg Message, except ...string)
	JoinGroup(connID, room string)
	LeaveGroup(connID, room string)
}

// Message is an outbound server event. Event is the wire name.
type Message interface {
	Event() string
}

type RoomJoined struct {
	RoomID   string         `json:"roomId"`
	PlayerID string         `json:"playerId"`
	IsHost   bool           `json:"isHost"`
	Players  []PublicPlayer `json:"players"`
	Settings Settings       `json:"settings"`
}

type PlayerJoined struct {
	Name      string         `json:"name"`
	IsHost    bool           `json:"isHost"`
	Count     int            `json:"count"`
	Reconnect bool           `json:"reconnect,omitempty"`
	Players   []PublicPlayer `json:"players"`
}

type PlayerLeft struct {
	Name         string         `json:"name"`
	Disconnected bool           `json:"disconnected,omitempty"`
	Explicit     bool           `json:"explicit,omitempty"`
	Players      []PublicPlayer `json:"players"`
}

type HostTransferred struct {
	NewHostID   string         `json:"newHostId"`
	NewHostName string         `json:"newHostName"`
	Players     []PublicPlayer `json:"players"`
}

type GameStarted struct {
	Phase       Phase `json:"phase"`
	PlayerCount int   `json:"playerCount"`
}

// YourRole is the private role reveal.
type YourRole struct {
	RoleInfo
}

type NightPhaseBegan struct {
	TimeLeft     int            `json:"timeLeft"`
	Deadline     time.Time      `json:"deadline"`
	Round        int            `json:"round"`
	AlivePlayers []PublicPlayer `json:"alivePlayers"`
}

type Teammate struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type MafiaTeam struct {
	Teammates []Teammate `json:"teammates"`
}

type ActionConfirmed struct {
	Message string `json:"message"`
}

type MafiaTargetUpdated struct {
	TargetName string `json:"targetName"`
	ChosenBy   string `json:"chosenBy"`
}

type DayPhaseBegan struct {
	TimeLeft     int             `json:"timeLeft"`
	Deadline     time.Time       `json:"deadline"`
	Round        int             `json:"round"`
	KilledPlayer *RevealedPlayer `json:"killedPlayer"`
	Players      []PublicPlayer  `json:"players"`
}

// VoteUpdated carries aggregate counts only, never who voted for whom.
type VoteUpdated struct {
	Tally map[string]int `json:"tally"`
}

type PlayerEliminated struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

type DetectiveResult struct {
	TargetID   string `json:"targetId"`
	TargetName string `json:"targetName"`
	Role       Role   `json:"role"`
	IsMafia    bool   `json:"isMafia"`
}

type NewMessage struct {
	From      string `json:"from"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

type SyncFullState struct {
	RoomID    string         `json:"roomId"`
	PlayerID  string         `json:"playerId"`
	IsHost    bool           `json:"isHost"`
	GameState Phase          `json:"gameState"`
	Round     int            `json:"round"`
	Players   []PublicPlayer `json:"players"`
	TimeLeft  int            `json:"timeLeft"`
	MyRole    *RoleInfo      `json:"myRole"`
}

type GameOver struct {
	Winner  Winner           `json:"winner"`
	Players []RevealedPlayer `json:"players"`
	Stats   GameStats        `json:"stats"`
}

type AuthToken struct {
	Token string `json:"token"`
}

type ErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (RoomJoined) Event() string         { return "room_joined" }
func (PlayerJoined) Event() string       { return "player_joined" }
func (PlayerLeft) Event() string         { return "player_left" }
func (HostTransferred) Event() string    { return "host_transferred" }
func (GameStarted) Event() string        { return "game_started" }
func (YourRole) Event() string           { return "your_role_is" }
func (NightPhaseBegan) Event() string    { return "night_phase" }
func (MafiaTeam) Event() string          { return "mafia_team" }
func (ActionConfirmed) Event() string    { return "action_confirmed" }
func (MafiaTargetUpdated) Event() string { return "mafia_target_updated" }
func (DayPhaseBegan) Event() string      { return "day_phase" }
func (VoteUpdated) Event() string        { return "vote_updated" }
func (PlayerEliminated) Event() string   { return "player_eliminated" }
func (DetectiveResult) Event() string    { return "detective_result" }
func (NewMessage) Event() string         { return "new_message" }
func (SyncFullState) Event() string      { return "sync_full_state" }
func (GameOver) Event() string           { return "game_over" }
func (AuthToken) Event() string          { return "auth_token" }
func (ErrorMessage) Event() string       { return "error" }

// NewErrorMessage builds the private error event for err.
func NewErrorMessage(err error) ErrorMessage {
	return ErrorMessage{Code: ErrorCode(err), Message: err.Error()}
}
