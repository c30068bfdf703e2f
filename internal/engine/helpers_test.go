package engine

import (
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"gameroom-server/internal/history"
)

var testEpoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

type manualTimer struct {
	s       *manualScheduler
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	pending := !t.stopped && !t.fired
	t.stopped = true
	return pending
}

// manualScheduler is a fake clock. Callbacks run on the goroutine calling
// Advance, which must not be the engine loop.
type manualScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*manualTimer
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{}
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &manualTimer{s: s, at: s.now + d, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *manualScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return testEpoch.Add(s.now)
}

// Advance moves the clock forward by d, firing due timers in deadline order.
func (s *manualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	for {
		s.mu.Lock()
		var next *manualTimer
		for _, t := range s.timers {
			if t.stopped || t.fired || t.at > target {
				continue
			}
			if next == nil || t.at < next.at {
				next = t
			}
		}
		if next == nil {
			s.now = target
			s.mu.Unlock()
			return
		}
		next.fired = true
		s.now = next.at
		s.mu.Unlock()

		next.f()
	}
}

// FireStopped runs callbacks whose Stop came too late to prevent them, the
// way a real timer can already be running when it is stopped.
func (s *manualScheduler) FireStopped() {
	s.mu.Lock()
	var late []*manualTimer
	for _, t := range s.timers {
		if t.stopped && !t.fired {
			t.fired = true
			late = append(late, t)
		}
	}
	s.mu.Unlock()

	for _, t := range late {
		t.f()
	}
}

func (s *manualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type recordingDispatcher struct {
	mu   sync.Mutex
	sent map[string][]Message
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{sent: make(map[string][]Message)}
}

func (d *recordingDispatcher) Send(connID string, msg Message) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent[connID] = append(d.sent[connID], msg)
}

func (d *recordingDispatcher) messages(connID string) []Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Message(nil), d.sent[connID]...)
}

func (d *recordingDispatcher) types(connID string) []string {
	var out []string
	for _, m := range d.messages(connID) {
		out = append(out, m.Type)
	}
	return out
}

func (d *recordingDispatcher) count(connID, msgType string) int {
	n := 0
	for _, m := range d.messages(connID) {
		if m.Type == msgType {
			n++
		}
	}
	return n
}

// last returns the most recent message of msgType sent to connID.
func (d *recordingDispatcher) last(connID, msgType string) (Message, bool) {
	msgs := d.messages(connID)
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Type == msgType {
			return msgs[i], true
		}
	}
	return Message{}, false
}

func (d *recordingDispatcher) clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = make(map[string][]Message)
}

// fixedCodes yields codes in order, then repeats the last one.
func fixedCodes(codes ...string) CodeGenerator {
	var mu sync.Mutex
	i := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		code := codes[i]
		if i < len(codes)-1 {
			i++
		}
		return code, nil
	}
}

type testEngine struct {
	*Engine
	sched    *manualScheduler
	sent     *recordingDispatcher
	recorder *history.Memory
}

func newTestEngine(t *testing.T, configure ...func(*Options)) *testEngine {
	t.Helper()

	sched := newManualScheduler()
	sent := newRecordingDispatcher()
	recorder := history.NewMemory(100)

	opts := Options{
		Dispatcher: sent,
		Recorder:   recorder,
		Scheduler:  sched,
		Logger:     zerolog.Nop(),
		Now:        sched.Now,
		Rand:       rand.New(rand.NewPCG(1, 2)),
	}
	for _, f := range configure {
		f(&opts)
	}

	e := New(opts)
	t.Cleanup(e.Stop)
	return &testEngine{Engine: e, sched: sched, sent: sent, recorder: recorder}
}

// connect registers each id for kind.
func (te *testEngine) connect(t *testing.T, kind string, ids ...string) {
	t.Helper()
	for _, id := range ids {
		if err := te.Connect(id, kind); err != nil {
			t.Fatalf("connect %s: %v", id, err)
		}
	}
}

// inspect runs f on the engine loop.
func (te *testEngine) inspect(f func()) {
	te.do(f)
}

func (te *testEngine) room(code string) *Room {
	var r *Room
	te.inspect(func() { r = te.store.Get(code) })
	return r
}

// roomOf returns the code of the room connID is seated in.
func (te *testEngine) roomOf(connID string) string {
	var code string
	te.inspect(func() {
		if s := te.registry.get(connID); s != nil {
			code = s.roomCode
		}
	})
	return code
}

func (te *testEngine) state(code string) RoomState {
	var st RoomState
	te.inspect(func() {
		if r := te.store.Get(code); r != nil {
			st = r.State
		}
	})
	return st
}

func (te *testEngine) playerIDs(code string) []string {
	var ids []string
	te.inspect(func() {
		if r := te.store.Get(code); r != nil {
			for _, p := range r.Players {
				ids = append(ids, p.ID)
			}
		}
	})
	return ids
}

func (te *testEngine) queued(kind string) int {
	var n int
	te.inspect(func() {
		if q := te.queues[kind]; q != nil {
			n = q.Len()
		}
	})
	return n
}

// create makes a room for connID and returns its code.
func (te *testEngine) create(t *testing.T, connID, name string) string {
	t.Helper()
	if err := te.CreateRoom(connID, name, "desktop"); err != nil {
		t.Fatalf("create room: %v", err)
	}
	msg, ok := te.sent.last(connID, EventRoomCreated)
	if !ok {
		t.Fatalf("no roomCreated for %s", connID)
	}
	return msg.Payload.(RoomResult).Code
}
