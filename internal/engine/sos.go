package engine

import (
	"gameroom-server/internal/sanitize"
)

const (
	largeBoard = 8
	smallBoard = 6

	seatPlayer1 = "player1"
	seatPlayer2 = "player2"
)

// SOSState is shared by both players of a duel.
type SOSState struct {
	BoardSize   int               `json:"nboard"`
	PlayerNames map[string]string `json:"playerNames"`
}

// sosKind is the two player board duel.
type sosKind struct{}

func (sosKind) rules() Rules {
	return Rules{
		Capacity:    2,
		MinPlayers:  2,
		NameMaxLen:  50,
		Matchmaking: true,
	}
}

func (sosKind) admitted(*Engine, *Room, *Player) {}

func (sosKind) canStart(r *Room) error {
	if len(r.Players) < 2 {
		return ErrNotEnoughPlayers
	}
	return nil
}

// boardSize is large only when every player is on a desktop.
func boardSize(players []*Player) int {
	for _, p := range players {
		if p.DeviceClass != sanitize.DeviceDesktop {
			return smallBoard
		}
	}
	return largeBoard
}

func seat(index int) string {
	if index == 0 {
		return seatPlayer1
	}
	return seatPlayer2
}

func (sosKind) started(e *Engine, r *Room) {
	state := SOSState{
		BoardSize:   boardSize(r.Players),
		PlayerNames: make(map[string]string, len(r.Players)),
	}
	for i, p := range r.Players {
		state.PlayerNames[seat(i)] = p.Name
	}
	r.Shared = state

	for i, p := range r.Players {
		e.sendToPlayer(p.ID, EventStartGame, StartGamePayload{
			Code:        r.Code,
			SharedState: state,
			MyPlayer:    seat(i),
			PlayerID:    p.ID,
		})
	}
}

// left reverts the duel to WAITING for the remaining player.
func (sosKind) left(e *Engine, r *Room, p *Player, _ int) {
	if r.State != StateWaiting {
		r.transition(StateWaiting)
	}
	r.Shared = nil

	e.broadcastToRoom(r, EventOpponentLeft, OpponentLeftPayload{Name: p.Name})
}

// reset clears the board for the other player; the room stays STARTED.
func (sosKind) reset(e *Engine, r *Room, p *Player) error {
	if r.State != StateStarted {
		return ErrGameNotStarted
	}
	e.broadcastToRoom(r, EventGameReset, CodePayload{Code: r.Code}, p.ID)
	return nil
}

func (sosKind) playerView(r *Room, p *Player) PlayerView {
	return basePlayerView(r, p)
}

func (e *Engine) makeMove(connID, rawCode, piece string, row, col any) error {
	r, p, err := e.member(connID, rawCode)
	if err != nil {
		return err
	}
	if r.Kind != KindSOS {
		return ErrUnsupported
	}
	if r.State != StateStarted {
		return ErrGameNotStarted
	}

	state, ok := r.Shared.(SOSState)
	if !ok {
		return ErrGameNotStarted
	}

	move, err := sanitize.ParseMove(piece, row, col, state.BoardSize)
	if err != nil {
		e.sendToPlayer(connID, EventInvalidMove, MessagePayload{Message: ErrInvalidMove.Message})
		return ErrInvalidMove
	}

	e.broadcastToRoom(r, EventMove, MovePayload{
		Piece:    move.Piece,
		Row:      move.Row,
		Col:      move.Col,
		PlayerID: p.ID,
	}, p.ID)
	return nil
}
