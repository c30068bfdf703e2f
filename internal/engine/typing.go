package engine

import (
	"sort"

	"gameroom-server/internal/sanitize"
)

// MaxWPM bounds the claimed typing speed of a finished race.
const MaxWPM = 400

// TypingState is the race shared by every player of a room.
type TypingState struct {
	Passage   string `json:"passage"`
	StartTime int64  `json:"startTime"`
}

// typingKind is the many player typing race.
type typingKind struct{}

func (typingKind) rules() Rules {
	return Rules{
		Capacity:    100,
		MinPlayers:  2,
		NameMaxLen:  20,
		PublicRooms: true,
	}
}

func (typingKind) admitted(e *Engine, r *Room, _ *Player) {
	e.broadcastPlayerList(r)
}

// canStart lets a private creator race alone; public rooms need MinPlayers.
func (k typingKind) canStart(r *Room) error {
	if r.Public && len(r.Players) < k.rules().MinPlayers {
		return ErrNotEnoughPlayers
	}
	return nil
}

func (typingKind) started(e *Engine, r *Room) {
	now := e.now()
	state := TypingState{
		Passage:   e.opts.Passages[e.rand.IntN(len(e.opts.Passages))],
		StartTime: now.UnixMilli(),
	}
	r.Shared = state

	for _, p := range r.Players {
		clearRace(p)
		p.LastActivity = now
	}

	e.broadcastEach(r, EventStartGame, func(p *Player) any {
		return StartGamePayload{Code: r.Code, SharedState: state, PlayerID: p.ID}
	})
	e.broadcastPlayerList(r)
}

// left hands the creator role to the next player in join order, which
// Players[0] already is, and ends the race if only finishers remain.
func (typingKind) left(e *Engine, r *Room, p *Player, index int) {
	if index == 0 && !r.Public {
		e.logger.Debug().Str("room", r.Code).Str("creator", r.Creator().ID).Msg("Creator reassigned")
	}

	e.broadcastToRoom(r, EventPlayerLeft, PlayerLeftPayload{
		PlayerID: p.ID,
		Name:     p.Name,
		Players:  e.playerList(r),
	})

	if r.State == StateStarted && allFinished(r) {
		e.endRace(r)
	}
}

func (typingKind) reset(e *Engine, r *Room, p *Player) error {
	if !r.Public && r.Creator() != p {
		return ErrNotCreator
	}

	if r.State != StateWaiting {
		r.transition(StateWaiting)
	}
	r.Shared = nil
	for _, player := range r.Players {
		clearRace(player)
	}

	e.broadcastToRoom(r, EventGameReset, CodePayload{Code: r.Code})
	e.broadcastPlayerList(r)
	return nil
}

func (typingKind) playerView(r *Room, p *Player) PlayerView {
	v := basePlayerView(r, p)
	v.Progress = p.Progress
	v.Finished = p.Finished
	v.WPM = p.WPM
	v.Accuracy = p.Accuracy
	return v
}

func clearRace(p *Player) {
	p.Progress = 0
	p.Finished = false
	p.WPM = 0
	p.Accuracy = 0
}

func allFinished(r *Room) bool {
	for _, p := range r.Players {
		if !p.Finished {
			return false
		}
	}
	return len(r.Players) > 0
}

// race resolves a started typing room the caller belongs to.
func (e *Engine) race(connID, rawCode string) (*Room, *Player, TypingState, error) {
	r, p, err := e.member(connID, rawCode)
	if err != nil {
		return nil, nil, TypingState{}, err
	}
	if r.Kind != KindTyping {
		return nil, nil, TypingState{}, ErrUnsupported
	}
	state, ok := r.Shared.(TypingState)
	if r.State != StateStarted || !ok {
		return nil, nil, TypingState{}, ErrGameNotStarted
	}
	return r, p, state, nil
}

func (e *Engine) updateProgress(connID, rawCode string, value float64) error {
	r, p, _, err := e.race(connID, rawCode)
	if err != nil {
		return err
	}

	progress, err := sanitize.Progress(value)
	if err != nil {
		return e.reject(connID, ErrInvalidProgress)
	}
	if p.Finished {
		return nil
	}

	p.Progress = progress
	p.LastActivity = e.now()
	e.broadcastToRoom(r, EventProgressUpdate, ProgressPayload{PlayerID: p.ID, Progress: progress})
	return nil
}

// Accuracy is the share of passage characters matched at the same position
// in typed, as a rounded percentage.
func Accuracy(passage, typed string) int {
	want, got := []rune(passage), []rune(typed)
	if len(want) == 0 {
		return 0
	}

	correct := 0
	for i := 0; i < len(want) && i < len(got); i++ {
		if want[i] == got[i] {
			correct++
		}
	}
	return (correct*200 + len(want)) / (2 * len(want))
}

func (e *Engine) finishRace(connID, rawCode string, wpm, accuracy int, typed string) error {
	r, p, state, err := e.race(connID, rawCode)
	if err != nil {
		return err
	}
	if p.Finished {
		return nil
	}

	if wpm < 0 || wpm > MaxWPM || accuracy < 0 || accuracy > 100 {
		return e.reject(connID, ErrInvalidFinish)
	}
	if Accuracy(state.Passage, typed) != accuracy {
		e.logger.Debug().Str("room", r.Code).Str("conn", connID).Int("claimed", accuracy).Msg("Finish rejected")
		return e.reject(connID, ErrInvalidFinish)
	}

	p.Finished = true
	p.Progress = 1
	p.WPM = wpm
	p.Accuracy = accuracy
	p.LastActivity = e.now()

	e.broadcastToRoom(r, EventPlayerFinished, FinishedPayload{PlayerID: p.ID, WPM: wpm, Accuracy: accuracy})
	e.broadcastPlayerList(r)

	if allFinished(r) {
		e.endRace(r)
	}
	return nil
}

// endRace ranks finishers by speed, ties kept in join order.
func (e *Engine) endRace(r *Room) {
	results := make([]RaceResult, 0, len(r.Players))
	for _, p := range r.Players {
		results = append(results, RaceResult{PlayerID: p.ID, Name: p.Name, WPM: p.WPM, Accuracy: p.Accuracy})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].WPM > results[j].WPM
	})

	winner := ""
	if len(results) > 0 {
		winner = results[0].Name
	}
	e.endGame(r, winner)
	e.broadcastToRoom(r, EventRaceFinished, RaceFinishedPayload{Results: results})
}

func (e *Engine) scheduleSweep() {
	e.after(e.opts.SweepInterval, func() {
		e.sweepInactive()
		e.scheduleSweep()
	})
}

// sweepInactive removes unfinished racers that stopped reporting progress.
func (e *Engine) sweepInactive() {
	now := e.now()

	var idle []string
	e.store.Each(func(r *Room) bool {
		if r.Kind != KindTyping || r.State != StateStarted {
			return true
		}
		for _, p := range r.Players {
			if !p.Finished && now.Sub(p.LastActivity) > e.opts.InactivityTimeout {
				idle = append(idle, p.ID)
			}
		}
		return true
	})

	for _, connID := range idle {
		e.logger.Info().Str("conn", connID).Msg("Removing inactive player")
		e.sendToPlayer(connID, EventInactiveRemoval, struct{}{})
		e.removePlayer(connID)
	}
}
