// Package engine owns every room, player and matchmaking entry. All state is
// mutated on a single goroutine; exported methods post work to it and wait.
package engine

import (
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"gameroom-server/internal/history"
)

const (
	DefaultMatchTimeout      = 10 * time.Second
	DefaultInactivityTimeout = 20 * time.Second
	DefaultSweepInterval     = 30 * time.Second
	DefaultAutoStartDelay    = 2 * time.Second
	DefaultMonitorDelay      = 5 * time.Second
	DefaultTalkingDuration   = time.Second
	DefaultTeacherInterval   = 15 * time.Second
)

type Options struct {
	Dispatcher Dispatcher
	Recorder   history.Recorder
	Scheduler  Scheduler
	Logger     zerolog.Logger
	Now        func() time.Time
	Rand       *rand.Rand
	Codes      CodeGenerator

	MatchTimeout      time.Duration
	InactivityTimeout time.Duration
	SweepInterval     time.Duration
	AutoStartDelay    time.Duration
	MonitorDelay      time.Duration
	TalkingDuration   time.Duration
	TeacherInterval   time.Duration

	Passages []string
	Artists  []Artist
}

type Engine struct {
	opts       Options
	dispatcher Dispatcher
	recorder   history.Recorder
	scheduler  Scheduler
	logger     zerolog.Logger
	now        func() time.Time
	rand       *rand.Rand

	kinds    map[string]gameKind
	store    *Store
	registry *Registry
	queues   map[string]*Queue

	tasks   chan func()
	quit    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// New builds an engine and starts its loop. Call Stop to release it.
func New(opts Options) *Engine {
	if opts.Dispatcher == nil {
		opts.Dispatcher = DispatcherFunc(func(string, Message) {})
	}
	if opts.Recorder == nil {
		opts.Recorder = history.NewMemory(0)
	}
	if opts.Scheduler == nil {
		opts.Scheduler = realScheduler{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15))
	}
	if opts.Codes == nil {
		opts.Codes = NanoidCodes(RoomCodeLength)
	}
	if opts.MatchTimeout <= 0 {
		opts.MatchTimeout = DefaultMatchTimeout
	}
	if opts.InactivityTimeout <= 0 {
		opts.InactivityTimeout = DefaultInactivityTimeout
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = DefaultSweepInterval
	}
	if opts.AutoStartDelay <= 0 {
		opts.AutoStartDelay = DefaultAutoStartDelay
	}
	if opts.MonitorDelay <= 0 {
		opts.MonitorDelay = DefaultMonitorDelay
	}
	if opts.TalkingDuration <= 0 {
		opts.TalkingDuration = DefaultTalkingDuration
	}
	if opts.TeacherInterval <= 0 {
		opts.TeacherInterval = DefaultTeacherInterval
	}
	if len(opts.Passages) == 0 {
		opts.Passages = Passages
	}
	if len(opts.Artists) == 0 {
		opts.Artists = Artists
	}

	e := &Engine{
		opts:       opts,
		dispatcher: opts.Dispatcher,
		recorder:   opts.Recorder,
		scheduler:  opts.Scheduler,
		logger:     opts.Logger.With().Str("component", "engine").Logger(),
		now:        opts.Now,
		rand:       opts.Rand,
		kinds:      builtinKinds(),
		store:      NewStore(),
		registry:   NewRegistry(),
		queues:     make(map[string]*Queue),
		tasks:      make(chan func()),
		quit:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
	for name, k := range e.kinds {
		if k.rules().Matchmaking {
			e.queues[name] = &Queue{}
		}
	}

	go e.run()
	e.scheduleSweep()

	return e
}

// Stop ends the loop. Pending and future calls return ErrStopped.
func (e *Engine) Stop() {
	e.once.Do(func() {
		close(e.quit)
	})
	<-e.stopped
}

// HasKind reports whether kind names a registered game.
func (e *Engine) HasKind(kind string) bool {
	_, ok := e.kinds[kind]
	return ok
}

// Kinds lists registered games in name order.
func (e *Engine) Kinds() []string {
	out := make([]string, 0, len(e.kinds))
	for name := range e.kinds {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// KindRules returns the rules for kind.
func (e *Engine) KindRules(kind string) (Rules, bool) {
	k, ok := e.kinds[kind]
	if !ok {
		return Rules{}, false
	}
	return k.rules(), true
}

// call runs f on the loop and returns its error, or ErrStopped.
func (e *Engine) call(f func() error) error {
	var err error
	if !e.do(func() { err = f() }) {
		return ErrStopped
	}
	return err
}

// Connect registers a connection for kind.
func (e *Engine) Connect(connID, kind string) error {
	if !e.HasKind(kind) {
		return ErrUnknownKind
	}
	return e.call(func() error {
		e.registry.add(connID, kind)
		return nil
	})
}

// Disconnect removes the connection from its queue and room.
func (e *Engine) Disconnect(connID string) error {
	return e.call(func() error {
		return e.handleDisconnect(connID)
	})
}

// CreateRoom opens a private room with connID as its creator and answers
// with roomCreated.
func (e *Engine) CreateRoom(connID, name, deviceClass string) error {
	return e.call(func() error { return e.createRoom(connID, name, deviceClass) })
}

// JoinRoom seats connID in the WAITING room code. The PUBLIC code
// quick-joins on kinds with public rooms.
func (e *Engine) JoinRoom(connID, code, name, deviceClass string) error {
	return e.call(func() error { return e.joinRoom(connID, code, name, deviceClass) })
}

// QuickJoin seats connID in the oldest open public room of its kind,
// creating one when none has space.
func (e *Engine) QuickJoin(connID, name, deviceClass string) error {
	return e.call(func() error { return e.quickJoin(connID, name, deviceClass) })
}

// StartGame moves a WAITING room to STARTED when the requester may start it.
func (e *Engine) StartGame(connID, code string) error {
	return e.call(func() error { return e.startGame(connID, code) })
}

// ResetGame applies the kind's reset rule to the room code.
func (e *Engine) ResetGame(connID, code string) error {
	return e.call(func() error { return e.resetGame(connID, code) })
}

// LeaveRoom removes connID from its room or queue and keeps the connection.
func (e *Engine) LeaveRoom(connID string) error {
	return e.call(func() error { return e.leaveRoom(connID) })
}

// FindOpponent pairs connID with the longest-waiting player, or queues it
// until the match timeout.
func (e *Engine) FindOpponent(connID, name, deviceClass string) error {
	return e.call(func() error { return e.findOpponent(connID, name, deviceClass) })
}

// MakeMove relays a board move; row and col are decoded JSON values.
func (e *Engine) MakeMove(connID, code, piece string, row, col any) error {
	return e.call(func() error { return e.makeMove(connID, code, piece, row, col) })
}

// UpdateProgress relays a racer's progress to the rest of the room.
func (e *Engine) UpdateProgress(connID, code string, progress float64) error {
	return e.call(func() error { return e.updateProgress(connID, code, progress) })
}

// FinishRace records a racer's result once the claimed accuracy matches typed.
func (e *Engine) FinishRace(connID, code string, wpm, accuracy int, typed string) error {
	return e.call(func() error { return e.finishRace(connID, code, wpm, accuracy, typed) })
}

// Chat sends text to the sender's benchmate.
func (e *Engine) Chat(connID, text string) error {
	return e.call(func() error { return e.chat(connID, text) })
}

// Catch lets the monitor catch studentID.
func (e *Engine) Catch(connID, studentID string) error {
	return e.call(func() error { return e.catch(connID, studentID) })
}

// Rooms lists live rooms in creation order.
func (e *Engine) Rooms() []RoomSummary {
	var out []RoomSummary
	e.do(func() {
		out = make([]RoomSummary, 0, e.store.Len())
		e.store.Each(func(r *Room) bool {
			out = append(out, e.summary(r))
			return true
		})
	})
	return out
}

// Room returns the summary of one live room.
func (e *Engine) Room(code string) (RoomSummary, bool) {
	var (
		out RoomSummary
		ok  bool
	)
	e.do(func() {
		if r := e.store.Get(code); r != nil {
			out, ok = e.summary(r), true
		}
	})
	return out, ok
}

type Stats struct {
	Rooms       int `json:"rooms"`
	Players     int `json:"players"`
	Queued      int `json:"queued"`
	Connections int `json:"connections"`
}

func (e *Engine) Stats() Stats {
	var s Stats
	e.do(func() {
		s.Rooms = e.store.Len()
		s.Connections = e.registry.Len()
		e.store.Each(func(r *Room) bool {
			s.Players += len(r.Players)
			return true
		})
		for _, q := range e.queues {
			s.Queued += q.Len()
		}
	})
	return s
}

func (e *Engine) summary(r *Room) RoomSummary {
	return RoomSummary{
		Code:      r.Code,
		Kind:      r.Kind,
		State:     r.State,
		Public:    r.Public,
		Players:   len(r.Players),
		Capacity:  e.kinds[r.Kind].rules().Capacity,
		CreatedAt: r.CreatedAt,
	}
}
