package game

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"
)

// manualClock fires timers only when advanced.
type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves time forward and runs due timers in deadline order,
// including timers armed by the callbacks themselves.
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()
	for {
		c.mu.Lock()
		var next *manualTimer
		for _, t := range c.timers {
			if t.stopped || t.fired || t.at.After(target) {
				continue
			}
			if next == nil || t.at.Before(next.at) {
				next = t
			}
		}
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		next.fired = true
		if next.at.After(c.now) {
			c.now = next.at
		}
		c.mu.Unlock()
		next.f()
	}
}

// fireStale runs a timer's callback even though it was stopped, the way a
// real timer can after it already fired and blocked on the session lock.
func (c *manualClock) fireStale(t Timer) {
	t.(*manualTimer).f()
}

// pending counts armed timers.
func (c *manualClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type sent struct {
	to     string // connection ID, or "room:<code>" for broadcasts
	except []string
	msg    Message
}

type recordingChannel struct {
	mu     sync.Mutex
	out    []sent
	groups map[string]map[string]bool
}

func newRecordingChannel() *recordingChannel {
	return &recordingChannel{groups: make(map[string]map[string]bool)}
}

func (c *recordingChannel) Send(connID string, msg Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.out = append(c.out, sent{to: connID, msg: msg})
}

func (c *recordingChannel) Broadcast(room string, msg Message, except ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.out = append(c.out, sent{to: "room:" + room, except: except, msg: msg})
}

func (c *recordingChannel) JoinGroup(connID, room string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.groups[room] == nil {
		c.groups[room] = make(map[string]bool)
	}
	c.groups[room][connID] = true
}

func (c *recordingChannel) LeaveGroup(connID, room string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.groups[room], connID)
}

// received returns the events a connection saw directly or via its room.
func (c *recordingChannel) received(connID, room string) []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Message
	for _, s := range c.out {
		if s.to == connID {
			out = append(out, s.msg)
			continue
		}
		if s.to == "room:"+room && !contains(s.except, connID) {
			out = append(out, s.msg)
		}
	}
	return out
}

func (c *recordingChannel) events(event string) []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Message
	for _, s := range c.out {
		if s.msg.Event() == event {
			out = append(out, s.msg)
		}
	}
	return out
}

func (c *recordingChannel) sentTo(connID, event string) []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Message
	for _, s := range c.out {
		if s.to == connID && s.msg.Event() == event {
			out = append(out, s.msg)
		}
	}
	return out
}

func (c *recordingChannel) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.out = nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

type recordingHistory struct {
	saved chan GameRecord
}

func (h *recordingHistory) SaveGame(_ context.Context, rec GameRecord) error {
	h.saved <- rec
	return nil
}

type fixture struct {
	t     *testing.T
	clock *manualClock
	ch    *recordingChannel
	hist  *recordingHistory
	sess  *Session
	conns []string
}

func testEnv(clock *manualClock, ch *recordingChannel, hist *recordingHistory) Env {
	return Env{Channel: ch, Scheduler: clock, History: hist, Timing: DefaultTiming()}
}

// newFixture creates a lobby with n players named P1..Pn on connections
// c1..cn. c1 is host.
func newFixture(t *testing.T, n int, settings Settings) *fixture {
	t.Helper()
	f := &fixture{
		t:     t,
		clock: newManualClock(),
		ch:    newRecordingChannel(),
		hist:  &recordingHistory{saved: make(chan GameRecord, 1)},
	}
	f.sess = NewSession("ABCD2345", settings, testEnv(f.clock, f.ch, f.hist))
	for i := 1; i <= n; i++ {
		conn := fmt.Sprintf("c%d", i)
		if _, err := f.sess.Join(conn, fmt.Sprintf("P%d", i)); err != nil {
			t.Fatalf("should be able to join player %d: %v", i, err)
		}
		f.conns = append(f.conns, conn)
	}
	return f
}

// start starts the game and then overrides the random roles so
// scenarios are deterministic. roles are applied in join order.
func (f *fixture) start(roles ...Role) {
	f.t.Helper()
	if err := f.sess.Start("c1"); err != nil {
		f.t.Fatalf("should be able to start game: %v", err)
	}
	if len(roles) > 0 {
		f.sess.mu.Lock()
		for i, p := range f.sess.players.All() {
			p.Role = roles[i]
		}
		f.sess.mu.Unlock()
	}
	f.clock.Advance(DefaultTiming().RoleReveal)
	if got := f.sess.Phase(); got != PhaseNight {
		f.t.Fatalf("expected phase %s after role reveal, got %s", PhaseNight, got)
	}
}

func (f *fixture) id(conn string) string {
	f.t.Helper()
	p, ok := f.sess.Player(conn)
	if !ok {
		f.t.Fatalf("no player on %s", conn)
	}
	return p.ID
}

func (f *fixture) player(conn string) Player {
	f.t.Helper()
	p, ok := f.sess.Player(conn)
	if !ok {
		f.t.Fatalf("no player on %s", conn)
	}
	return p
}

func (f *fixture) act(conn string, kind ActionKind, target string) {
	f.t.Helper()
	if err := f.sess.SubmitNightAction(conn, kind, f.id(target)); err != nil {
		f.t.Fatalf("%s should be able to %s %s: %v", conn, kind, target, err)
	}
}

func (f *fixture) vote(conn, target string) {
	f.t.Helper()
	if err := f.sess.CastVote(conn, f.id(target)); err != nil {
		f.t.Fatalf("%s should be able to vote for %s: %v", conn, target, err)
	}
}

func (f *fixture) alive() []string {
	var out []string
	for _, p := range f.sess.Players() {
		if p.Alive {
			out = append(out, p.Name)
		}
	}
	sort.Strings(out)
	return out
}

func sixRoles() []Role {
	return []Role{RoleMafia, RoleMafia, RoleDetective, RoleDoctor, RoleVillager, RoleVillager}
}
