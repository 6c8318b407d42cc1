package game

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Player is a room member. ID is stable for the player's lifetime in the
// room; ConnID follows the player across reconnects.
//
// Role is secret: it only leaves the server privately to the owner, or once
// the player is dead or the game is over.
type Player struct {
	ID        string
	ConnID    string
	Name      string
	IsHost    bool
	Role      Role
	Alive     bool
	Connected bool
	JoinedAt  time.Time
	LastSeen  time.Time

	// day state
	HasVoted bool
	VotedFor string

	// night state
	NightActionDone bool
	NightTarget     string
}

type PublicPlayer struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsHost    bool   `json:"isHost"`
	Alive     bool   `json:"alive"`
	Connected bool   `json:"connected"`
	Role      Role   `json:"role,omitempty"`
}

// RevealedPlayer carries the role and is only built for dead players or
// after the game ends.
type RevealedPlayer struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
	Alive  bool   `json:"alive"`
	IsHost bool   `json:"isHost"`
}

func newPlayer(connID, name string, now time.Time) *Player {
	return &Player{
		ID:        uuid.NewString(),
		ConnID:    connID,
		Name:      name,
		Alive:     true,
		Connected: true,
		JoinedAt:  now,
		LastSeen:  now,
	}
}

func (p *Player) Public() PublicPlayer {
	out := PublicPlayer{
		ID:        p.ID,
		Name:      p.Name,
		IsHost:    p.IsHost,
		Alive:     p.Alive,
		Connected: p.Connected,
	}
	if !p.Alive {
		out.Role = p.Role
	}
	return out
}

func (p *Player) Revealed() RevealedPlayer {
	return RevealedPlayer{ID: p.ID, Name: p.Name, Role: p.Role, Alive: p.Alive, IsHost: p.IsHost}
}

func (p *Player) IsMafia() bool { return p.Role == RoleMafia }

func (p *Player) recordNightAction(targetID string) {
	p.NightActionDone = true
	p.NightTarget = targetID
}

func (p *Player) recordVote(targetID string) {
	p.HasVoted = true
	p.VotedFor = targetID
}

func (p *Player) resetNight() {
	p.NightActionDone = false
	p.NightTarget = ""
}

func (p *Player) resetDay() {
	p.HasVoted = false
	p.VotedFor = ""
}

// Registry keeps a room's players in join order.
type Registry struct {
	order  []*Player
	byID   map[string]*Player
	byConn map[string]*Player
}

func NewRegistry() *Registry {
	return &Registry{
		byID:   make(map[string]*Player),
		byConn: make(map[string]*Player),
	}
}

func (r *Registry) Add(p *Player) {
	r.order = append(r.order, p)
	r.byID[p.ID] = p
	r.byConn[p.ConnID] = p
}

// Remove drops the player with the given connection ID and returns it.
func (r *Registry) Remove(connID string) *Player {
	p := r.byConn[connID]
	if p == nil {
		return nil
	}
	delete(r.byConn, connID)
	delete(r.byID, p.ID)
	for i, q := range r.order {
		if q == p {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return p
}

// Rekey moves a player to a new connection ID.
func (r *Registry) Rekey(p *Player, connID string) {
	delete(r.byConn, p.ConnID)
	p.ConnID = connID
	r.byConn[connID] = p
}

func (r *Registry) ByID(id string) *Player       { return r.byID[id] }
func (r *Registry) ByConn(connID string) *Player { return r.byConn[connID] }
func (r *Registry) Len() int                     { return len(r.order) }

// ByName finds a player by display name, ignoring case.
func (r *Registry) ByName(name string) *Player {
	name = strings.TrimSpace(name)
	for _, p := range r.order {
		if strings.EqualFold(p.Name, name) {
			return p
		}
	}
	return nil
}

func (r *Registry) NameTaken(name string) bool {
	return r.ByName(name) != nil
}

// All returns the players in join order. The slice is a copy.
func (r *Registry) All() []*Player {
	out := make([]*Player, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Alive() []*Player {
	out := make([]*Player, 0, len(r.order))
	for _, p := range r.order {
		if p.Alive {
			out = append(out, p)
		}
	}
	return out
}

func (r *Registry) AliveWithRole(role Role) []*Player {
	out := []*Player{}
	for _, p := range r.order {
		if p.Alive && p.Role == role {
			out = append(out, p)
		}
	}
	return out
}

func (r *Registry) Public() []PublicPlayer {
	out := make([]PublicPlayer, 0, len(r.order))
	for _, p := range r.order {
		out = append(out, p.Public())
	}
	return out
}

func (r *Registry) PublicAlive() []PublicPlayer {
	out := make([]PublicPlayer, 0, len(r.order))
	for _, p := range r.order {
		if p.Alive {
			out = append(out, p.Public())
		}
	}
	return out
}

func (r *Registry) Revealed() []RevealedPlayer {
	out := make([]RevealedPlayer, 0, len(r.order))
	for _, p := range r.order {
		out = append(out, p.Revealed())
	}
	return out
}

func (r *Registry) ResetNight() {
	for _, p := range r.order {
		p.resetNight()
	}
}

func (r *Registry) ResetDay() {
	for _, p := range r.order {
		p.resetDay()
	}
}

// NextHostCandidate is the first connected player in join order other than
// except, or nil.
func (r *Registry) NextHostCandidate(except *Player) *Player {
	for _, p := range r.order {
		if p != except && p.Connected {
			return p
		}
	}
	return nil
}
