package game

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Directory maps room codes to sessions and connections to the room they are
// in. Sessions call into the directory while holding their own lock, so the
// directory never locks a session while holding mu.
type Directory struct {
	mu    sync.RWMutex
	rooms map[string]*Session
	conns map[string]string // connID -> room code

	settings Settings
	env      Env
	log      zerolog.Logger
	newCode  func(n int) string
}

func NewDirectory(settings Settings, env Env) *Directory {
	env = env.withDefaults()
	return &Directory{
		rooms:    make(map[string]*Session),
		conns:    make(map[string]string),
		settings: settings.withDefaults(DefaultSettings()),
		env:      env,
		log:      env.Logger.With().Str("component", "directory").Logger(),
		newCode:  randomCode,
	}
}

// Create opens a lobby under a fresh unique code. A zero settings value takes
// the directory defaults; otherwise zero numeric fields do, and the player cap
// cannot exceed the directory's.
func (d *Directory) Create(settings Settings) (*Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for range maxCodeRetries {
		code := d.newCode(RoomCodeLength)
		if d.rooms[code] == nil {
			return d.add(code, settings), nil
		}
	}
	d.log.Error().Int("rooms", len(d.rooms)).Msg("room code space exhausted")
	return nil, errRoomCodeSpaceExhausted
}

// createWithCode opens a lobby under a fixed code. The code must use the
// same alphabet as generated ones.
func (d *Directory) createWithCode(code string, settings Settings) (*Session, error) {
	code, err := NormalizeRoomCode(code)
	if err != nil {
		return nil, err
	}
	for _, r := range code {
		if !strings.ContainsRune(codeAlphabet, r) {
			return nil, fmt.Errorf("%w: %q is not a room code character", ErrInvalidRoomCode, r)
		}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.rooms[code] != nil {
		return nil, fmt.Errorf("%w: %s", errDuplicateRoomCode, code)
	}
	return d.add(code, settings), nil
}

func (d *Directory) add(code string, settings Settings) *Session {
	s := newSession(code, d.roomSettings(settings), d.env, d)
	d.rooms[code] = s
	d.log.Info().Str("room", code).Int("rooms", len(d.rooms)).Msg("room created")
	return s
}

func (d *Directory) roomSettings(s Settings) Settings {
	if s == (Settings{}) {
		return d.settings
	}
	s = s.withDefaults(d.settings)
	if s.MaxPlayers > d.settings.MaxPlayers {
		s.MaxPlayers = d.settings.MaxPlayers
	}
	if s.MinPlayers > s.MaxPlayers {
		s.MinPlayers = s.MaxPlayers
	}
	return s
}

func (d *Directory) Get(code string) (*Session, error) {
	code, err := NormalizeRoomCode(code)
	if err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	s := d.rooms[code]
	if s == nil {
		return nil, fmt.Errorf("%w: %s", ErrRoomNotFound, code)
	}
	return s, nil
}

// ByConn returns the session the connection belongs to, or nil. An index
// entry pointing at a deleted room is purged.
func (d *Directory) ByConn(connID string) *Session {
	d.mu.RLock()
	code, ok := d.conns[connID]
	s := d.rooms[code]
	d.mu.RUnlock()
	if !ok || s != nil {
		return s
	}

	d.mu.Lock()
	if d.conns[connID] == code && d.rooms[code] == nil {
		delete(d.conns, connID)
		d.log.Error().Str("conn", connID).Str("room", code).Msg("connection indexed to missing room")
	}
	d.mu.Unlock()
	return nil
}

// Delete removes the room and closes it. Unknown codes are ignored.
func (d *Directory) Delete(code string) {
	d.mu.Lock()
	s := d.rooms[code]
	delete(d.rooms, code)
	for conn, c := range d.conns {
		if c == code {
			delete(d.conns, conn)
		}
	}
	d.mu.Unlock()

	if s != nil {
		s.Close()
		d.log.Info().Str("room", code).Msg("room deleted")
	}
}

// Sweep deletes every room idle past its expiry and returns how many went.
func (d *Directory) Sweep(now time.Time) int {
	d.mu.RLock()
	all := make([]*Session, 0, len(d.rooms))
	for _, s := range d.rooms {
		all = append(all, s)
	}
	d.mu.RUnlock()

	n := 0
	for _, s := range all {
		if s.IsExpired(now) {
			d.Delete(s.Code)
			n++
		}
	}
	if n > 0 {
		d.log.Info().Int("expired", n).Int("rooms", d.Count()).Msg("swept expired rooms")
	}
	return n
}

// Run sweeps on every tick until ctx is done.
func (d *Directory) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Sweep(d.env.Scheduler.Now())
		}
	}
}

func (d *Directory) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.rooms)
}

func (d *Directory) Codes() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.rooms))
	for code := range d.rooms {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

func (d *Directory) bind(connID, code string) {
	d.mu.Lock()
	d.conns[connID] = code
	d.mu.Unlock()
}

// unbind forgets the connection if it is still indexed to code. A connection
// that has already moved to another room keeps its new binding.
func (d *Directory) unbind(connID, code string) {
	d.mu.Lock()
	if d.conns[connID] == code {
		delete(d.conns, connID)
	}
	d.mu.Unlock()
}

// drop forgets an emptied session. A newer session under the same code is
// left alone.
func (d *Directory) drop(code string, s *Session) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.rooms[code] == s {
		delete(d.rooms, code)
		d.log.Info().Str("room", code).Msg("room emptied")
	}
}
