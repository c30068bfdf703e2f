package server

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"

	"gameroom-server/internal/engine"
)

// handleMessage routes one inbound frame to the engine. Engine rejections
// have already been reported to the client by the engine itself.
func (s *Server) handleMessage(log zerolog.Logger, c *Client, msg ClientMessage) {
	rules, _ := s.engine.KindRules(c.Kind)
	if err := ValidateMessageType(c.Kind, rules, msg.Type); err != nil {
		log.Debug().Str("type", msg.Type).Msg("Unknown message type")
		c.enqueue(errorMessage(CodeInvalidMessageType, "Unknown message type: "+msg.Type))
		return
	}

	log.Debug().Str("type", msg.Type).Msg("Message received")

	var err error
	switch msg.Type {
	case TypePing:
		c.enqueue(ServerMessage{Type: TypePong, Payload: struct{}{}})
		return

	case TypeCreateRoom:
		var req CreateRoomRequest
		if s.decode(c, msg.Payload, &req) {
			err = s.engine.CreateRoom(c.ID, req.Name, req.DeviceClass)
		}

	case TypeJoinRoom:
		var req JoinRoomRequest
		if s.decode(c, msg.Payload, &req) {
			err = s.engine.JoinRoom(c.ID, req.Code, req.Name, req.DeviceClass)
		}

	case TypeQuickJoin:
		var req QuickJoinRequest
		if s.decode(c, msg.Payload, &req) {
			err = s.engine.QuickJoin(c.ID, req.Name, req.DeviceClass)
		}

	case TypeStartGame:
		var req RoomRequest
		if s.decode(c, msg.Payload, &req) {
			err = s.engine.StartGame(c.ID, req.Code)
		}

	case TypeResetGame:
		var req RoomRequest
		if s.decode(c, msg.Payload, &req) {
			err = s.engine.ResetGame(c.ID, req.Code)
		}

	case TypeLeaveRoom:
		err = s.engine.LeaveRoom(c.ID)

	case TypeFindOpponent:
		var req FindOpponentRequest
		if s.decode(c, msg.Payload, &req) {
			err = s.engine.FindOpponent(c.ID, req.Name, req.DeviceClass)
		}

	case TypeMakeMove:
		var req MakeMoveRequest
		if s.decode(c, msg.Payload, &req) {
			err = s.engine.MakeMove(c.ID, req.Code, req.Piece, req.Row, req.Col)
		}

	case TypeProgress:
		var req ProgressRequest
		if s.decode(c, msg.Payload, &req) {
			err = s.engine.UpdateProgress(c.ID, req.Code, req.Progress)
		}

	case TypeFinish:
		var req FinishRequest
		if s.decode(c, msg.Payload, &req) {
			err = s.engine.FinishRace(c.ID, req.Code, req.WPM, req.Accuracy, req.TypedText)
		}

	case TypeChatMessage:
		var req ChatRequest
		if s.decode(c, msg.Payload, &req) {
			err = s.engine.Chat(c.ID, req.Text)
		}

	case TypeCatchStudent:
		var req CatchRequest
		if s.decode(c, msg.Payload, &req) {
			err = s.engine.Catch(c.ID, req.StudentID)
		}
	}

	if err == nil {
		return
	}

	var engineErr *engine.Error
	if errors.As(err, &engineErr) && engineErr.Category == engine.CategoryTransient {
		log.Warn().Err(err).Str("type", msg.Type).Msg("Request failed")
		return
	}
	log.Debug().Err(err).Str("type", msg.Type).Msg("Request rejected")
}

// decode reports whether payload fit into v, answering the client when not.
func (s *Server) decode(c *Client, payload json.RawMessage, v any) bool {
	if len(payload) == 0 || string(payload) == "null" {
		c.enqueue(errorMessage(CodeInvalidPayload, "Missing payload"))
		return false
	}
	if err := json.Unmarshal(payload, v); err != nil {
		c.enqueue(errorMessage(CodeInvalidPayload, "Invalid payload"))
		return false
	}
	return true
}
