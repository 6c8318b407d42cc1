package game

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const storeTimeout = 5 * time.Second

// Env carries a session's collaborators. Zero fields get defaults.
type Env struct {
	Channel   Channel
	Scheduler Scheduler
	History   HistoryStore
	Rooms     RoomStore
	Timing    Timing
	Logger    *zerolog.Logger
}

func (e Env) withDefaults() Env {
	if e.Channel == nil {
		e.Channel = discardChannel{}
	}
	if e.Scheduler == nil {
		e.Scheduler = WallClock()
	}
	if e.Timing == (Timing{}) {
		e.Timing = DefaultTiming()
	}
	if e.Logger == nil {
		e.Logger = &log.Logger
	}
	return e
}

// roomIndex is the directory side of a session: connection bindings and
// removal of empty rooms. Implementations must not lock the session.
type roomIndex interface {
	bind(connID, code string)
	unbind(connID, code string)
	drop(code string, s *Session)
}

type noIndex struct{}

func (noIndex) bind(string, string)   {}
func (noIndex) unbind(string, string) {}
func (noIndex) drop(string, *Session) {}

type discardChannel struct{}

func (discardChannel) Send(string, Message)                 {}
func (discardChannel) Broadcast(string, Message, ...string) {}
func (discardChannel) JoinGroup(string, string)             {}
func (discardChannel) LeaveGroup(string, string)            {}

var transitions = map[Phase][]Phase{
	PhaseLobby:        {PhaseRoleAssigned},
	PhaseRoleAssigned: {PhaseNight},
	PhaseNight:        {PhaseDay, PhaseGameOver},
	PhaseDay:          {PhaseNight, PhaseGameOver},
}

// nightActions holds at most one target per action kind. Later submissions
// overwrite earlier ones.
type nightActions struct {
	kill        string
	save        string
	investigate string
}

func (n *nightActions) set(kind ActionKind, targetID string) {
	switch kind {
	case ActionKill:
		n.kill = targetID
	case ActionSave:
		n.save = targetID
	case ActionInvestigate:
		n.investigate = targetID
	}
}

// Session is one room and its game. All state is guarded by mu; timers
// re-enter through the same lock and are discarded when stale.
type Session struct {
	Code      string
	CreatedAt time.Time

	mu       sync.Mutex
	env      Env
	log      zerolog.Logger
	index    roomIndex
	settings Settings

	phase     Phase
	hostID    string
	players   *Registry
	round     int
	night     nightActions
	dayClosed bool
	winner    Winner
	stats     GameStats

	deadline  time.Time
	expiresAt time.Time

	phaseTimer  Timer
	timerSeq    uint64
	graceTimers map[string]Timer // player ID -> pending removal
	closed      bool

	mirror *roomMirror // nil without a room store
}

// NewSession builds a standalone lobby. Rooms served to clients are created
// through a Directory.
func NewSession(code string, settings Settings, env Env) *Session {
	return newSession(code, settings, env, noIndex{})
}

func newSession(code string, settings Settings, env Env, index roomIndex) *Session {
	env = env.withDefaults()
	now := env.Scheduler.Now()
	s := &Session{
		Code:        code,
		CreatedAt:   now,
		env:         env,
		log:         env.Logger.With().Str("room", code).Logger(),
		index:       index,
		settings:    settings.withDefaults(DefaultSettings()),
		phase:       PhaseLobby,
		players:     NewRegistry(),
		graceTimers: make(map[string]Timer),
		expiresAt:   now.Add(env.Timing.RoomExpiry),
	}
	if env.Rooms != nil {
		s.mirror = newRoomMirror(env.Rooms, code, s.log)
	}
	return s
}

func (s *Session) now() time.Time { return s.env.Scheduler.Now() }

func (s *Session) touch() {
	s.expiresAt = s.now().Add(s.env.Timing.RoomExpiry)
}

func (s *Session) transition(to Phase) error {
	if !slices.Contains(transitions[s.phase], to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.phase, to)
	}
	s.log.Debug().Str("from", string(s.phase)).Str("to", string(to)).Msg("phase transition")
	s.phase = to
	s.touch()
	s.persist()
	return nil
}

// armPhaseTimer replaces the pending phase timer. The callback runs under
// the session lock and only if no newer timer was armed and the phase is
// still expect.
func (s *Session) armPhaseTimer(d time.Duration, expect Phase, fn func()) {
	s.cancelPhaseTimer()
	seq := s.timerSeq
	s.phaseTimer = s.env.Scheduler.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || seq != s.timerSeq || s.phase != expect {
			return
		}
		s.phaseTimer = nil
		fn()
	})
}

func (s *Session) cancelPhaseTimer() {
	if s.phaseTimer != nil {
		s.phaseTimer.Stop()
		s.phaseTimer = nil
	}
	s.timerSeq++
}

func (s *Session) stopGrace(playerID string) {
	if t, ok := s.graceTimers[playerID]; ok {
		t.Stop()
		delete(s.graceTimers, playerID)
	}
}

func (s *Session) setDeadline(d time.Duration) {
	s.deadline = s.now().Add(d)
}

func (s *Session) timeLeft() int {
	if s.deadline.IsZero() {
		return 0
	}
	left := s.deadline.Sub(s.now()).Seconds()
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left))
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

func (s *Session) broadcast(msg Message, except ...string) {
	s.env.Channel.Broadcast(s.Code, msg, except...)
}

func (s *Session) send(p *Player, msg Message) {
	if p.Connected {
		s.env.Channel.Send(p.ConnID, msg)
	}
}

// Join adds a player to the lobby. The first player, or the first to join a
// room without a host, becomes host.
func (s *Session) Join(connID, name string) (Player, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return Player{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Player{}, ErrRoomClosed
	}
	if s.phase != PhaseLobby {
		return Player{}, ErrGameAlreadyStarted
	}
	if s.players.Len() >= s.settings.MaxPlayers {
		return Player{}, fmt.Errorf("%w: max %d players", ErrRoomFull, s.settings.MaxPlayers)
	}
	if s.players.NameTaken(name) {
		return Player{}, fmt.Errorf("%w: %q", ErrNameTaken, name)
	}

	p := newPlayer(connID, name, s.now())
	if s.hostID == "" {
		p.IsHost = true
		s.hostID = p.ID
	}
	s.players.Add(p)
	s.index.bind(connID, s.Code)
	s.touch()

	s.env.Channel.JoinGroup(connID, s.Code)
	s.env.Channel.Send(connID, RoomJoined{
		RoomID:   s.Code,
		PlayerID: p.ID,
		IsHost:   p.IsHost,
		Players:  s.players.Public(),
		Settings: s.settings,
	})
	s.broadcast(PlayerJoined{
		Name:    p.Name,
		IsHost:  p.IsHost,
		Count:   s.players.Len(),
		Players: s.players.Public(),
	}, connID)
	s.persist()

	s.log.Info().Str("player", p.Name).Int("count", s.players.Len()).Msg("player joined")
	return *p, nil
}

// Start assigns roles and schedules the first night. Host only.
func (s *Session) Start(connID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.players.ByConn(connID)
	if p == nil {
		return ErrNotInRoom
	}
	if p.ID != s.hostID {
		return fmt.Errorf("%w: only the host can start the game", ErrNotAuthorized)
	}
	if s.phase != PhaseLobby {
		return ErrGameAlreadyStarted
	}
	if n := s.players.Len(); n < s.settings.MinPlayers {
		return fmt.Errorf("%w: need at least %d, have %d", ErrInsufficientPlayers, s.settings.MinPlayers, n)
	}
	if err := AssignRoles(s.players.All(), s.settings.RoleSettings); err != nil {
		s.log.Error().Err(err).Msg("role assignment failed")
		return err
	}
	if err := s.transition(PhaseRoleAssigned); err != nil {
		return err
	}

	s.broadcast(GameStarted{Phase: s.phase, PlayerCount: s.players.Len()})
	for _, p := range s.players.All() {
		s.send(p, YourRole{RoleInfo: *p.Role.Info()})
	}
	s.setDeadline(s.env.Timing.RoleReveal)
	s.armPhaseTimer(s.env.Timing.RoleReveal, PhaseRoleAssigned, s.enterNight)

	s.log.Info().Int("players", s.players.Len()).Msg("game started")
	return nil
}

func (s *Session) enterNight() {
	if err := s.transition(PhaseNight); err != nil {
		s.log.Warn().Err(err).Msg("cannot enter night")
		return
	}
	s.night = nightActions{}
	s.players.ResetNight()

	d := seconds(s.settings.NightDuration)
	s.setDeadline(d)
	s.broadcast(NightPhaseBegan{
		TimeLeft:     s.settings.NightDuration,
		Deadline:     s.deadline,
		Round:        s.round + 1,
		AlivePlayers: s.players.PublicAlive(),
	})

	mafia := s.players.AliveWithRole(RoleMafia)
	for _, m := range mafia {
		team := make([]Teammate, 0, len(mafia)-1)
		for _, o := range mafia {
			if o != m {
				team = append(team, Teammate{ID: o.ID, Name: o.Name})
			}
		}
		s.send(m, MafiaTeam{Teammates: team})
	}

	s.armPhaseTimer(d, PhaseNight, s.resolveNight)
	s.log.Info().Int("round", s.round+1).Msg("night began")
}

func (s *Session) resolveNight() {
	if s.phase != PhaseNight {
		return
	}
	s.cancelPhaseTimer()

	var killed *Player
	if id := s.night.kill; id != "" {
		target := s.players.ByID(id)
		switch {
		case id == s.night.save:
			s.log.Info().Msg("doctor saved the mafia target")
		case target != nil && target.Alive:
			target.Alive = false
			killed = target
			s.stats.NightKills = append(s.stats.NightKills, target.Name)
		}
	}

	if id := s.night.investigate; id != "" {
		if target := s.players.ByID(id); target != nil {
			res := DetectiveResult{
				TargetID:   target.ID,
				TargetName: target.Name,
				Role:       target.Role,
				IsMafia:    target.IsMafia(),
			}
			for _, d := range s.players.AliveWithRole(RoleDetective) {
				s.send(d, res)
			}
		}
	}

	if w := CheckWinCondition(s.players.All()); w != NoWinner {
		s.endGame(w)
		return
	}
	s.enterDay(killed)
}

func (s *Session) enterDay(killed *Player) {
	if err := s.transition(PhaseDay); err != nil {
		s.log.Warn().Err(err).Msg("cannot enter day")
		return
	}
	s.players.ResetDay()
	s.round++
	s.dayClosed = false

	var victim *RevealedPlayer
	if killed != nil {
		r := killed.Revealed()
		victim = &r
	}
	d := seconds(s.settings.DayDuration)
	s.setDeadline(d)
	s.broadcast(DayPhaseBegan{
		TimeLeft:     s.settings.DayDuration,
		Deadline:     s.deadline,
		Round:        s.round,
		KilledPlayer: victim,
		Players:      s.players.Public(),
	})
	s.armPhaseTimer(d, PhaseDay, s.resolveDay)
	s.log.Info().Int("round", s.round).Bool("kill", killed != nil).Msg("day began")
}

func (s *Session) resolveDay() {
	if s.phase != PhaseDay || s.dayClosed {
		return
	}
	s.cancelPhaseTimer()
	s.dayClosed = true

	if target := EliminationTarget(s.players.All()); target != nil {
		target.Alive = false
		s.stats.Eliminated = append(s.stats.Eliminated, target.Name)
		s.broadcast(PlayerEliminated{ID: target.ID, Name: target.Name, Role: target.Role})
		s.log.Info().Str("player", target.Name).Msg("player eliminated")
	} else {
		s.log.Info().Msg("no votes cast, nobody eliminated")
	}

	if w := CheckWinCondition(s.players.All()); w != NoWinner {
		s.endGame(w)
		return
	}
	s.setDeadline(s.env.Timing.NextNight)
	s.armPhaseTimer(s.env.Timing.NextNight, PhaseDay, s.enterNight)
}

func (s *Session) endGame(w Winner) {
	s.cancelPhaseTimer()
	if err := s.transition(PhaseGameOver); err != nil {
		s.log.Warn().Err(err).Msg("cannot end game")
		return
	}
	s.winner = w
	s.deadline = time.Time{}
	s.expiresAt = s.now().Add(s.env.Timing.PostGameExpiry)

	stats := s.gameStats()
	s.broadcast(GameOver{Winner: w, Players: s.players.Revealed(), Stats: stats})
	s.log.Info().Str("winner", string(w)).Int("rounds", stats.Rounds).Msg("game over")

	rec := GameRecord{
		ID:          uuid.NewString(),
		RoomCode:    s.Code,
		Winner:      w,
		Stats:       stats,
		PlayerCount: s.players.Len(),
		CompletedAt: s.now().UTC(),
	}
	for _, p := range s.players.All() {
		rec.Players = append(rec.Players, PlayerResult{Name: p.Name, Role: p.Role, Alive: p.Alive, IsHost: p.IsHost})
	}
	s.saveHistory(rec)
}

func (s *Session) gameStats() GameStats {
	return GameStats{
		Rounds:     s.round,
		NightKills: append([]string{}, s.stats.NightKills...),
		Eliminated: append([]string{}, s.stats.Eliminated...),
	}
}

func (s *Session) saveHistory(rec GameRecord) {
	store := s.env.History
	if store == nil {
		return
	}
	logger := s.log
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		if err := store.SaveGame(ctx, rec); err != nil {
			logger.Error().Err(err).Str("game", rec.ID).Msg("failed to save game history")
			return
		}
		logger.Debug().Str("game", rec.ID).Msg("game history saved")
	}()
}

// persist mirrors the public snapshot to the room store. Failures only log.
func (s *Session) persist() {
	if s.mirror == nil || s.closed {
		return
	}
	snap := s.snapshot()
	s.mirror.save(snap, snap.ExpiresAt.Sub(s.now()))
}

// Close stops all timers and marks the session dead. Pending callbacks
// become no-ops.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.close()
}

func (s *Session) close() {
	if s.closed {
		return
	}
	s.closed = true
	s.cancelPhaseTimer()
	for id, t := range s.graceTimers {
		t.Stop()
		delete(s.graceTimers, id)
	}
	s.mirror.drop()
	s.log.Info().Msg("room closed")
}

func (s *Session) Snapshot() RoomSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Session) snapshot() RoomSnapshot {
	return RoomSnapshot{
		RoomID:      s.Code,
		GameState:   s.phase,
		PlayerCount: s.players.Len(),
		MaxPlayers:  s.settings.MaxPlayers,
		HostID:      s.hostID,
		Players:     s.players.Public(),
		Settings:    s.settings,
		TimeLeft:    s.timeLeft(),
		CreatedAt:   s.CreatedAt,
		ExpiresAt:   s.expiresAt,
	}
}

// IsExpired reports whether the room has been idle past its expiry.
func (s *Session) IsExpired(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed || now.After(s.expiresAt)
}

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Session) Round() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.round
}

func (s *Session) Winner() Winner {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.winner
}

func (s *Session) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Players returns copies of the members in join order.
func (s *Session) Players() []Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Player, 0, s.players.Len())
	for _, p := range s.players.All() {
		out = append(out, *p)
	}
	return out
}

// Player returns a copy of the member bound to connID.
func (s *Session) Player(connID string) (Player, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.players.ByConn(connID)
	if p == nil {
		return Player{}, false
	}
	return *p, true
}
