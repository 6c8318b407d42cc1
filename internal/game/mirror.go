package game

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// roomMirror writes a session's snapshots to a RoomStore one at a time and in
// order. Only the newest queued snapshot is written; once the room is deleted
// later saves are dropped.
type roomMirror struct {
	store RoomStore
	code  string
	log   zerolog.Logger

	mu      sync.Mutex
	pending *mirrorWrite
	deleted bool
	running bool
	wg      sync.WaitGroup
}

type mirrorWrite struct {
	snap   RoomSnapshot
	ttl    time.Duration
	remove bool
}

func newRoomMirror(store RoomStore, code string, logger zerolog.Logger) *roomMirror {
	return &roomMirror{store: store, code: code, log: logger}
}

func (m *roomMirror) save(snap RoomSnapshot, ttl time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleted {
		return
	}
	m.pending = &mirrorWrite{snap: snap, ttl: ttl}
	m.kick()
}

func (m *roomMirror) drop() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleted {
		return
	}
	m.deleted = true
	m.pending = &mirrorWrite{remove: true}
	m.kick()
}

// kick starts the writer if it is idle. Callers hold mu.
func (m *roomMirror) kick() {
	if m.running {
		return
	}
	m.running = true
	m.wg.Add(1)
	go m.run()
}

func (m *roomMirror) run() {
	defer m.wg.Done()
	for {
		m.mu.Lock()
		w := m.pending
		m.pending = nil
		if w == nil {
			m.running = false
			m.mu.Unlock()
			return
		}
		m.mu.Unlock()
		m.write(w)
	}
}

func (m *roomMirror) write(w *mirrorWrite) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if w.remove {
		if err := m.store.DeleteRoom(ctx, m.code); err != nil {
			m.log.Warn().Err(err).Msg("failed to delete persisted room")
		}
		return
	}
	if err := m.store.SaveRoom(ctx, w.snap, w.ttl); err != nil {
		m.log.Warn().Err(err).Msg("failed to persist room")
	}
}

// flush waits until every queued write has been attempted.
func (m *roomMirror) flush() {
	if m != nil {
		m.wg.Wait()
	}
}
