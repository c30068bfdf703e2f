package server

import (
	"encoding/json"
	"fmt"
	"slices"

	"gameroom-server/internal/engine"
)

type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ServerMessage is what the engine and transport write to a socket.
type ServerMessage = engine.Message

// Inbound message types.
const (
	TypePing         = "ping"
	TypeCreateRoom   = "createRoom"
	TypeJoinRoom     = "joinRoom"
	TypeQuickJoin    = "quickJoin"
	TypeStartGame    = "startGame"
	TypeResetGame    = "resetGame"
	TypeLeaveRoom    = "leaveRoom"
	TypeFindOpponent = "findOpponent"
	TypeMakeMove     = "makeMove"
	TypeProgress     = "progress"
	TypeFinish       = "finish"
	TypeChatMessage  = "chatMessage"
	TypeCatchStudent = "catchStudent"
)

// Outbound types produced by the transport itself.
const (
	TypePong = "pong"
)

// Transport error codes.
const (
	CodeInvalidJSON        = "INVALID_JSON"
	CodeInvalidMessageType = "INVALID_MESSAGE_TYPE"
	CodeInvalidPayload     = "INVALID_PAYLOAD"
	CodeRateLimited        = "RATE_LIMITED"
)

var commonTypes = []string{
	TypePing, TypeCreateRoom, TypeJoinRoom, TypeStartGame, TypeResetGame, TypeLeaveRoom,
}

// kindTypes are the play messages of one kind.
var kindTypes = map[string][]string{
	engine.KindSOS:       {TypeMakeMove},
	engine.KindTyping:    {TypeProgress, TypeFinish},
	engine.KindClassroom: {TypeChatMessage, TypeCatchStudent},
}

// ValidateMessageType checks that msgType is understood on a socket of kind.
// findOpponent and quickJoin depend on the kind's rules.
func ValidateMessageType(kind string, rules engine.Rules, msgType string) error {
	switch {
	case slices.Contains(commonTypes, msgType), slices.Contains(kindTypes[kind], msgType):
		return nil
	case msgType == TypeFindOpponent && rules.Matchmaking:
		return nil
	case msgType == TypeQuickJoin && rules.PublicRooms:
		return nil
	}
	return fmt.Errorf("%s: Unknown message type '%s'", CodeInvalidMessageType, msgType)
}

func errorMessage(code, message string) ServerMessage {
	return ServerMessage{
		Type:    engine.EventError,
		Payload: engine.ErrorPayload{Code: code, Message: message},
	}
}
