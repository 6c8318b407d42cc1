package game

import (
	"fmt"
)

var actionConfirmations = map[ActionKind]string{
	ActionKill:        "Kill target selected.",
	ActionSave:        "You protected a player tonight.",
	ActionInvestigate: "Investigation submitted. Results arrive at dawn.",
}

// SubmitNightAction records a Mafia kill, Doctor save or Detective
// investigation. When every living special role has acted the night resolves
// immediately.
func (s *Session) SubmitNightAction(connID string, kind ActionKind, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	actor := s.players.ByConn(connID)
	if actor == nil {
		return ErrNotInRoom
	}
	target, err := s.validateNightAction(actor, kind, targetID)
	if err != nil {
		return err
	}

	s.night.set(kind, target.ID)
	actor.recordNightAction(target.ID)
	s.touch()

	s.send(actor, ActionConfirmed{Message: actionConfirmations[kind]})
	if kind == ActionKill {
		for _, m := range s.players.AliveWithRole(RoleMafia) {
			if m != actor {
				s.send(m, MafiaTargetUpdated{TargetName: target.Name, ChosenBy: actor.Name})
			}
		}
	}
	s.log.Debug().Str("player", actor.Name).Str("action", string(kind)).Msg("night action recorded")

	if s.nightComplete() {
		s.log.Debug().Msg("all night actions in, resolving early")
		s.resolveNight()
	}
	return nil
}

func (s *Session) validateNightAction(actor *Player, kind ActionKind, targetID string) (*Player, error) {
	role := kind.actorRole()
	if role == RoleNone {
		return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidTarget, kind)
	}
	if !actor.Alive {
		return nil, fmt.Errorf("%w: dead players cannot act", ErrNotAuthorized)
	}
	if actor.Role != role {
		return nil, fmt.Errorf("%w: only %s can %s", ErrNotAuthorized, role.Info().Label, kind)
	}
	if s.phase != PhaseNight {
		return nil, fmt.Errorf("%w: not the night phase", ErrInvalidTransition)
	}
	if actor.NightActionDone {
		return nil, fmt.Errorf("%w: you already used your %s tonight", ErrAlreadyActed, kind)
	}
	if targetID == "" {
		return nil, fmt.Errorf("%w: target is required", ErrInvalidTarget)
	}
	target := s.players.ByID(targetID)
	if target == nil || !target.Alive {
		return nil, fmt.Errorf("%w: target must be a living player in the room", ErrInvalidTarget)
	}
	if kind == ActionKill && target.IsMafia() {
		return nil, fmt.Errorf("%w: cannot kill a Mafia member", ErrInvalidTarget)
	}
	if kind != ActionSave && target == actor {
		return nil, fmt.Errorf("%w: cannot target yourself", ErrInvalidTarget)
	}
	return target, nil
}

// nightComplete reports whether every living Mafia member has acted and the
// save and investigate slots are filled for each living role that owns
// them. A night with no living special role never completes early.
func (s *Session) nightComplete() bool {
	mafia := s.players.AliveWithRole(RoleMafia)
	doctors := s.players.AliveWithRole(RoleDoctor)
	detectives := s.players.AliveWithRole(RoleDetective)
	if len(mafia)+len(doctors)+len(detectives) == 0 {
		return false
	}
	for _, m := range mafia {
		if !m.NightActionDone {
			return false
		}
	}
	if len(doctors) > 0 && s.night.save == "" {
		return false
	}
	if len(detectives) > 0 && s.night.investigate == "" {
		return false
	}
	return true
}

// CastVote records one vote per living player per day. Self votes count.
func (s *Session) CastVote(connID, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	voter := s.players.ByConn(connID)
	if voter == nil {
		return ErrNotInRoom
	}
	if !voter.Alive {
		return fmt.Errorf("%w: dead players cannot vote", ErrNotAuthorized)
	}
	if s.phase != PhaseDay || s.dayClosed {
		return fmt.Errorf("%w: voting is closed", ErrInvalidTransition)
	}
	if voter.HasVoted {
		return fmt.Errorf("%w: you already voted today", ErrAlreadyActed)
	}
	if targetID == "" {
		return fmt.Errorf("%w: target is required", ErrInvalidTarget)
	}
	target := s.players.ByID(targetID)
	if target == nil || !target.Alive {
		return fmt.Errorf("%w: can only vote for a living player", ErrInvalidTarget)
	}

	voter.recordVote(target.ID)
	s.touch()
	s.broadcast(VoteUpdated{Tally: Tally(s.players.All())})

	if s.allVoted() {
		s.log.Debug().Msg("all living players voted")
		s.armPhaseTimer(s.env.Timing.VoteGrace, PhaseDay, s.resolveDay)
	}
	return nil
}

func (s *Session) allVoted() bool {
	for _, p := range s.players.Alive() {
		if !p.HasVoted {
			return false
		}
	}
	return true
}

// SendChat relays a day-phase message from a living player. Empty messages
// are dropped silently.
func (s *Session) SendChat(connID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.players.ByConn(connID)
	if p == nil {
		return ErrNotInRoom
	}
	if !p.Alive {
		return fmt.Errorf("%w: dead players cannot chat", ErrNotAuthorized)
	}
	if s.phase != PhaseDay {
		return fmt.Errorf("%w: chat is only open during the day", ErrInvalidTransition)
	}
	text = SanitizeChat(text)
	if text == "" {
		return nil
	}
	s.touch()
	s.broadcast(NewMessage{From: p.Name, Text: text, Timestamp: s.now().UnixMilli()})
	return nil
}

// Leave removes the player bound to connID right away.
func (s *Session) Leave(connID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.players.ByConn(connID)
	if p == nil {
		return ErrNotInRoom
	}
	s.removePlayer(p, true)
	return nil
}

// Disconnect marks the player offline and schedules removal after the grace
// period. A Rejoin before then cancels the removal.
func (s *Session) Disconnect(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.players.ByConn(connID)
	if p == nil || !p.Connected || s.closed {
		return
	}
	p.Connected = false
	p.LastSeen = s.now()
	s.touch()

	s.env.Channel.LeaveGroup(connID, s.Code)
	s.broadcast(PlayerLeft{Name: p.Name, Disconnected: true, Players: s.players.Public()}, connID)

	playerID := p.ID
	s.stopGrace(playerID)
	s.graceTimers[playerID] = s.env.Scheduler.AfterFunc(s.env.Timing.DisconnectWait, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		cur := s.players.ByID(playerID)
		if s.closed || cur == nil || cur.Connected || cur.ConnID != connID {
			return
		}
		delete(s.graceTimers, playerID)
		s.log.Info().Str("player", cur.Name).Msg("grace period over, removing player")
		s.removePlayer(cur, false)
	})
	s.log.Info().Str("player", p.Name).Msg("player disconnected")
}

// Rejoin rebinds a disconnected player to a new connection and sends the
// full state. playerID is preferred; name is the fallback lookup.
func (s *Session) Rejoin(connID, playerID, name string) (Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Player{}, ErrRoomNotFound
	}
	if s.phase == PhaseGameOver {
		return Player{}, fmt.Errorf("%w: the game is over", ErrSessionExpired)
	}
	var p *Player
	if playerID != "" {
		p = s.players.ByID(playerID)
	} else {
		p = s.players.ByName(name)
	}
	if p == nil {
		return Player{}, fmt.Errorf("%w: player not found", ErrNotInRoom)
	}
	if cur := s.players.ByConn(connID); cur != nil && cur != p {
		return Player{}, fmt.Errorf("%w: connection already plays %s", ErrAlreadyInRoom, cur.Name)
	}
	if p.Connected {
		return Player{}, fmt.Errorf("%w: player is already connected", ErrNotAuthorized)
	}

	s.stopGrace(p.ID)
	old := p.ConnID
	s.players.Rekey(p, connID)
	s.index.unbind(old, s.Code)
	s.index.bind(connID, s.Code)
	p.Connected = true
	p.LastSeen = s.now()
	s.touch()
	if s.hostID == "" {
		p.IsHost = true
		s.hostID = p.ID
	}

	s.env.Channel.JoinGroup(connID, s.Code)
	s.env.Channel.Send(connID, SyncFullState{
		RoomID:    s.Code,
		PlayerID:  p.ID,
		IsHost:    p.IsHost,
		GameState: s.phase,
		Round:     s.round,
		Players:   s.players.Public(),
		TimeLeft:  s.timeLeft(),
		MyRole:    p.Role.Info(),
	})
	s.broadcast(PlayerJoined{
		Name:      p.Name,
		IsHost:    p.IsHost,
		Count:     s.players.Len(),
		Reconnect: true,
		Players:   s.players.Public(),
	}, connID)

	s.log.Info().Str("player", p.Name).Msg("player reconnected")
	return *p, nil
}

func (s *Session) removePlayer(p *Player, explicit bool) {
	s.stopGrace(p.ID)
	s.players.Remove(p.ConnID)
	s.index.unbind(p.ConnID, s.Code)
	if p.Connected {
		s.env.Channel.LeaveGroup(p.ConnID, s.Code)
	}
	s.touch()
	s.log.Info().Str("player", p.Name).Bool("explicit", explicit).Msg("player removed")

	if s.players.Len() == 0 {
		s.close()
		s.index.drop(s.Code, s)
		return
	}

	if p.ID == s.hostID {
		p.IsHost = false
		s.transferHost(p)
	}
	s.broadcast(PlayerLeft{Name: p.Name, Explicit: explicit, Players: s.players.Public()})
	s.persist()
}

// transferHost hands the host role to the next connected member in join
// order. With nobody connected the room stays hostless until a new member
// joins.
func (s *Session) transferHost(prev *Player) {
	s.hostID = ""
	next := s.players.NextHostCandidate(prev)
	if next == nil {
		s.log.Info().Msg("no connected player to take over as host")
		return
	}
	next.IsHost = true
	s.hostID = next.ID
	s.broadcast(HostTransferred{NewHostID: next.ID, NewHostName: next.Name, Players: s.players.Public()})
	s.log.Info().Str("host", next.Name).Msg("host transferred")
}
