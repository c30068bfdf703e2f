package engine

import (
	"time"

	"gameroom-server/internal/sanitize"
)

type queueEntry struct {
	connID      string
	name        string
	deviceClass string
	enqueuedAt  time.Time
	seq         uint64
	timer       Timer
}

// Queue is a FIFO of connections waiting for an anonymous opponent.
type Queue struct {
	entries []*queueEntry
	seq     uint64
}

func (q *Queue) Len() int {
	return len(q.entries)
}

func (q *Queue) push(connID, name, deviceClass string, at time.Time) *queueEntry {
	q.seq++
	entry := &queueEntry{
		connID:      connID,
		name:        name,
		deviceClass: deviceClass,
		enqueuedAt:  at,
		seq:         q.seq,
	}
	q.entries = append(q.entries, entry)
	return entry
}

func (q *Queue) pop() *queueEntry {
	if len(q.entries) == 0 {
		return nil
	}
	head := q.entries[0]
	q.entries = q.entries[1:]
	return head
}

func (q *Queue) find(connID string) *queueEntry {
	for _, entry := range q.entries {
		if entry.connID == connID {
			return entry
		}
	}
	return nil
}

func (q *Queue) remove(connID string) *queueEntry {
	for i, entry := range q.entries {
		if entry.connID == connID {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return entry
		}
	}
	return nil
}

func (q *Queue) hasName(name string) bool {
	for _, entry := range q.entries {
		if entry.name == name {
			return true
		}
	}
	return false
}

func (e *Engine) findOpponent(connID, rawName, deviceClass string) error {
	s, k, err := e.session(connID)
	if err != nil {
		return err
	}

	fail := func(err error) error {
		e.sendToPlayer(connID, EventFindOpponentResult, FindOpponentResult{Success: false, Message: failure(err).Message})
		return err
	}

	q := e.queues[s.kind]
	if q == nil {
		return fail(ErrUnsupported)
	}
	name, err := sanitize.Name(rawName, k.rules().NameMaxLen)
	if err != nil {
		return fail(ErrInvalidName)
	}
	if s.queued {
		return fail(ErrAlreadyQueued)
	}
	if q.hasName(name) {
		return fail(ErrNameTaken)
	}

	e.detach(s)
	device := sanitize.DeviceClass(deviceClass)

	if q.Len() == 0 {
		e.enqueue(s, q, name, device)
		return nil
	}

	r, err := e.newRoom(s.kind, false)
	if err != nil {
		return fail(err)
	}

	head := q.pop()
	if head.timer != nil {
		head.timer.Stop()
	}
	waiting := e.registry.get(head.connID)
	waiting.queued = false

	first := e.newPlayer(head.connID, head.name, head.deviceClass)
	second := e.newPlayer(connID, name, device)
	r.Players = append(r.Players, first, second)
	waiting.roomCode = r.Code
	s.roomCode = r.Code

	e.logger.Info().
		Str("room", r.Code).
		Str("first", head.connID).
		Str("second", connID).
		Dur("waited", e.now().Sub(head.enqueuedAt)).
		Msg("Opponents matched")

	e.beginGame(r)
	return nil
}

func (e *Engine) enqueue(s *session, q *Queue, name, device string) {
	entry := q.push(s.connID, name, device, e.now())
	s.queued = true

	kind, connID, seq := s.kind, s.connID, entry.seq
	entry.timer = e.after(e.opts.MatchTimeout, func() {
		e.expire(kind, connID, seq)
	})

	e.logger.Debug().Str("conn", s.connID).Int("queued", q.Len()).Msg("Waiting for opponent")
	e.sendToPlayer(s.connID, EventSearchingOpponent, SearchingPayload{
		TimeoutSeconds: int(e.opts.MatchTimeout / time.Second),
	})
}

// expire drops the entry if it is still the one that scheduled this timer.
func (e *Engine) expire(kind, connID string, seq uint64) {
	q := e.queues[kind]
	entry := q.find(connID)
	if entry == nil || entry.seq != seq {
		return
	}

	q.remove(connID)
	if s := e.registry.get(connID); s != nil {
		s.queued = false
	}

	e.logger.Debug().Str("conn", connID).Msg("Matchmaking timed out")
	e.sendToPlayer(connID, EventFindOpponentResult, FindOpponentResult{
		Success: false,
		Message: ErrNoOpponentFound.Message,
	})
}

func (e *Engine) dequeue(s *session) {
	s.queued = false
	q := e.queues[s.kind]
	if q == nil {
		return
	}
	if entry := q.remove(s.connID); entry != nil && entry.timer != nil {
		entry.timer.Stop()
	}
}
