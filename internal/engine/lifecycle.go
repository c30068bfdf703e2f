package engine

import (
	"errors"
	"strings"

	"gameroom-server/internal/history"
	"gameroom-server/internal/sanitize"
)

// PublicCode is the join code that quick-joins a public room.
const PublicCode = "PUBLIC"

func (e *Engine) session(connID string) (*session, gameKind, error) {
	s := e.registry.get(connID)
	if s == nil {
		return nil, nil, ErrUnknownConn
	}
	return s, e.kinds[s.kind], nil
}

// lookup resolves a client supplied code to a live room of the session's kind.
func (e *Engine) lookup(s *session, raw string) (*Room, error) {
	code, err := sanitize.RoomCode(raw)
	if err != nil {
		return nil, ErrInvalidRoomCode
	}
	r := e.store.Get(code)
	if r == nil || r.Kind != s.kind {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

// member resolves the room and the caller's player record in it.
func (e *Engine) member(connID, raw string) (*Room, *Player, error) {
	s, _, err := e.session(connID)
	if err != nil {
		return nil, nil, err
	}
	r, err := e.lookup(s, raw)
	if err != nil {
		return nil, nil, err
	}
	p := r.Player(connID)
	if p == nil {
		return nil, nil, ErrNotInRoom
	}
	return r, p, nil
}

// current resolves the room the connection is seated in.
func (e *Engine) current(connID string) (*Room, *Player, error) {
	s, _, err := e.session(connID)
	if err != nil {
		return nil, nil, err
	}
	r := e.store.Get(s.roomCode)
	if r == nil {
		return nil, nil, ErrNotInRoom
	}
	p := r.Player(connID)
	if p == nil {
		return nil, nil, ErrNotInRoom
	}
	return r, p, nil
}

// live reports whether r is still stored and has not transitioned since
// epoch was captured.
func (e *Engine) live(r *Room, epoch uint64) bool {
	return e.store.Get(r.Code) == r && r.epoch == epoch
}

func (e *Engine) newPlayer(connID, name, deviceClass string) *Player {
	return &Player{
		ID:           connID,
		Name:         name,
		DeviceClass:  sanitize.DeviceClass(deviceClass),
		LastActivity: e.now(),
	}
}

func (e *Engine) newRoom(kind string, public bool) (*Room, error) {
	code, err := GenerateRoomCode(e.opts.Codes, e.store.Has)
	if err != nil {
		e.logger.Error().Err(err).Msg("Room code generation failed")
		return nil, ErrRoomCodeExhausted
	}

	r := &Room{
		Code:      code,
		Kind:      kind,
		Public:    public,
		State:     StateWaiting,
		CreatedAt: e.now(),
	}
	e.store.Put(r)
	return r, nil
}

func failure(err error) RoomResult {
	var ee *Error
	if errors.As(err, &ee) {
		return RoomResult{Success: false, Message: ee.Message}
	}
	return RoomResult{Success: false, Message: err.Error()}
}

// reject answers validation failures to the sender. Other errors are stale
// or racy requests and stay silent.
func (e *Engine) reject(connID string, err error) error {
	var ee *Error
	if errors.As(err, &ee) && ee.Category == CategoryInvalidInput {
		e.sendToPlayer(connID, EventError, ErrorPayload{Code: ee.Code, Message: ee.Message})
	}
	return err
}

func (e *Engine) createRoom(connID, rawName, deviceClass string) error {
	s, k, err := e.session(connID)
	if err != nil {
		return err
	}

	name, err := sanitize.Name(rawName, k.rules().NameMaxLen)
	if err != nil {
		e.sendToPlayer(connID, EventRoomCreated, failure(ErrInvalidName))
		return ErrInvalidName
	}

	e.detach(s)

	r, err := e.newRoom(s.kind, false)
	if err != nil {
		e.sendToPlayer(connID, EventRoomCreated, failure(err))
		return err
	}

	p := e.newPlayer(connID, name, deviceClass)
	r.Players = append(r.Players, p)
	s.roomCode = r.Code

	e.logger.Info().Str("room", r.Code).Str("kind", r.Kind).Str("conn", connID).Msg("Room created")
	e.sendToPlayer(connID, EventRoomCreated, RoomResult{Success: true, Code: r.Code, PlayerID: p.ID})
	k.admitted(e, r, p)
	return nil
}

func (e *Engine) joinRoom(connID, rawCode, rawName, deviceClass string) error {
	s, k, err := e.session(connID)
	if err != nil {
		return err
	}

	if k.rules().PublicRooms && strings.EqualFold(strings.TrimSpace(rawCode), PublicCode) {
		return e.quickJoin(connID, rawName, deviceClass)
	}

	fail := func(err error) error {
		e.sendToPlayer(connID, EventJoinedRoom, failure(err))
		return err
	}

	name, err := sanitize.Name(rawName, k.rules().NameMaxLen)
	if err != nil {
		return fail(ErrInvalidName)
	}

	r, err := e.lookup(s, rawCode)
	if err != nil {
		return fail(err)
	}
	if r.Player(connID) != nil {
		e.sendToPlayer(connID, EventJoinedRoom, RoomResult{Success: true, Code: r.Code, PlayerID: connID})
		return nil
	}
	if err := e.admissible(r, name); err != nil {
		return fail(err)
	}

	e.detach(s)
	e.admit(s, r, e.newPlayer(connID, name, deviceClass))
	return nil
}

func (e *Engine) admissible(r *Room, name string) error {
	switch {
	case r.State != StateWaiting:
		return ErrRoomStarted
	case len(r.Players) >= e.kinds[r.Kind].rules().Capacity:
		return ErrRoomFull
	case r.hasName(name):
		return ErrNameTaken
	}
	return nil
}

// admit seats p in r and announces it.
func (e *Engine) admit(s *session, r *Room, p *Player) {
	r.Players = append(r.Players, p)
	s.roomCode = r.Code

	e.logger.Info().Str("room", r.Code).Str("conn", p.ID).Int("players", len(r.Players)).Msg("Player joined")
	e.sendToPlayer(p.ID, EventJoinedRoom, RoomResult{Success: true, Code: r.Code, PlayerID: p.ID})
	e.broadcastToRoom(r, EventPlayerJoined, PlayerJoinedPayload{
		PlayerID: p.ID,
		Name:     e.shownName(r, p),
		Players:  e.playerList(r),
	}, p.ID)

	e.kinds[r.Kind].admitted(e, r, p)
	e.maybeAutoStart(r)
}

func (e *Engine) quickJoin(connID, rawName, deviceClass string) error {
	s, k, err := e.session(connID)
	if err != nil {
		return err
	}

	fail := func(err error) error {
		e.sendToPlayer(connID, EventJoinedRoom, failure(err))
		return err
	}

	if !k.rules().PublicRooms {
		return fail(ErrUnsupported)
	}
	name, err := sanitize.Name(rawName, k.rules().NameMaxLen)
	if err != nil {
		return fail(ErrInvalidName)
	}

	e.detach(s)

	var target *Room
	e.store.Each(func(r *Room) bool {
		if r.Public && r.Kind == s.kind && e.admissible(r, name) == nil {
			target = r
			return false
		}
		return true
	})
	if target == nil {
		if target, err = e.newRoom(s.kind, true); err != nil {
			return fail(err)
		}
		e.logger.Info().Str("room", target.Code).Str("kind", target.Kind).Msg("Public room opened")
	}

	e.admit(s, target, e.newPlayer(connID, name, deviceClass))
	return nil
}

func (e *Engine) maybeAutoStart(r *Room) {
	rules := e.kinds[r.Kind].rules()
	if !rules.AutoStart || r.State != StateWaiting || len(r.Players) < rules.Capacity {
		return
	}

	epoch := r.epoch
	e.after(e.opts.AutoStartDelay, func() {
		if !e.live(r, epoch) || r.State != StateWaiting || len(r.Players) < rules.Capacity {
			return
		}
		e.beginGame(r)
	})
}

func (e *Engine) startGame(connID, rawCode string) error {
	r, _, err := e.member(connID, rawCode)
	if err != nil {
		return err
	}
	if r.State != StateWaiting {
		return ErrRoomStarted
	}
	if !r.Public && r.Creator().ID != connID {
		return ErrNotCreator
	}
	if err := e.kinds[r.Kind].canStart(r); err != nil {
		return err
	}

	e.beginGame(r)
	return nil
}

// beginGame moves a WAITING room to STARTED and lets the kind announce it.
func (e *Engine) beginGame(r *Room) {
	r.transition(StateStarted)
	r.StartedAt = e.now()

	e.kinds[r.Kind].started(e, r)

	e.logger.Info().Str("room", r.Code).Str("kind", r.Kind).Int("players", len(r.Players)).Msg("Game started")
	e.record(r, history.EventStarted, "")
}

// endGame moves a STARTED room to ENDED.
func (e *Engine) endGame(r *Room, winner string) {
	r.transition(StateEnded)
	e.logger.Info().Str("room", r.Code).Str("winner", winner).Msg("Game ended")
	e.record(r, history.EventEnded, winner)
}

func (e *Engine) resetGame(connID, rawCode string) error {
	r, p, err := e.member(connID, rawCode)
	if err != nil {
		return err
	}
	return e.kinds[r.Kind].reset(e, r, p)
}

func (e *Engine) leaveRoom(connID string) error {
	s, _, err := e.session(connID)
	if err != nil {
		return err
	}

	code := s.roomCode
	e.detach(s)
	e.sendToPlayer(connID, EventLeftRoom, CodePayload{Code: code})
	return nil
}

func (e *Engine) handleDisconnect(connID string) error {
	s := e.registry.get(connID)
	if s == nil {
		return nil
	}

	e.detach(s)
	e.registry.remove(connID)
	e.logger.Debug().Str("conn", connID).Msg("Connection unregistered")
	return nil
}

// detach removes the session from its matchmaking queue and its room.
func (e *Engine) detach(s *session) {
	if s.queued {
		e.dequeue(s)
	}
	if s.roomCode == "" {
		return
	}

	r := e.store.Get(s.roomCode)
	s.roomCode = ""
	if r == nil {
		return
	}

	p, index := r.remove(s.connID)
	if p == nil {
		return
	}

	e.logger.Info().Str("room", r.Code).Str("conn", s.connID).Int("players", len(r.Players)).Msg("Player left")

	if len(r.Players) == 0 {
		e.deleteRoom(r)
		return
	}
	e.kinds[r.Kind].left(e, r, p, index)
}

// removePlayer detaches a player on the server's initiative.
func (e *Engine) removePlayer(connID string) {
	if s := e.registry.get(connID); s != nil {
		e.detach(s)
	}
}

func (e *Engine) deleteRoom(r *Room) {
	wasStarted := r.State == StateStarted
	r.epoch++
	e.store.Delete(r.Code)

	e.logger.Info().Str("room", r.Code).Msg("Room deleted")
	if wasStarted {
		e.record(r, history.EventAbandoned, "")
	}
}

func (e *Engine) record(r *Room, event history.Event, winner string) {
	e.recorder.Record(history.Entry{
		RoomCode:   r.Code,
		Kind:       r.Kind,
		Event:      event,
		Players:    e.shownNames(r),
		Winner:     winner,
		OccurredAt: e.now(),
	})
}
