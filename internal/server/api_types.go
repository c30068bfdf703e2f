package server

import (
	"gameroom-server/internal/engine"
	"gameroom-server/internal/history"
)

// ============================================================================
// ROOMS (createRoom, joinRoom, quickJoin, startGame, resetGame)
// ============================================================================
type CreateRoomRequest struct {
	Name        string `json:"name"`
	DeviceClass string `json:"deviceClass"`
}

type JoinRoomRequest struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	DeviceClass string `json:"deviceClass"`
}

type QuickJoinRequest struct {
	Name        string `json:"name"`
	DeviceClass string `json:"deviceClass"`
}

// RoomRequest names the room a startGame or resetGame applies to.
type RoomRequest struct {
	Code string `json:"code"`
}

// ============================================================================
// SOS (findOpponent, makeMove)
// ============================================================================
type FindOpponentRequest struct {
	Name        string `json:"name"`
	DeviceClass string `json:"deviceClass"`
}

// MakeMoveRequest leaves row and col undecoded; the engine checks they are
// whole numbers on the board.
type MakeMoveRequest struct {
	Code  string `json:"code"`
	Piece string `json:"piece"`
	Row   any    `json:"row"`
	Col   any    `json:"col"`
}

// ============================================================================
// TYPING (progress, finish)
// ============================================================================
type ProgressRequest struct {
	Code     string  `json:"code"`
	Progress float64 `json:"progress"`
}

type FinishRequest struct {
	Code      string `json:"code"`
	WPM       int    `json:"wpm"`
	Accuracy  int    `json:"accuracy"`
	TypedText string `json:"typedText"`
}

// ============================================================================
// CLASSROOM (chatMessage, catchStudent)
// ============================================================================
type ChatRequest struct {
	Text string `json:"text"`
}

type CatchRequest struct {
	StudentID string `json:"studentId"`
}

// ============================================================================
// HTTP
// ============================================================================
type BannerResponse struct {
	Message string   `json:"message"`
	Version string   `json:"version"`
	Kinds   []string `json:"kinds"`
}

type HealthResponse struct {
	Status string `json:"status"`
	engine.Stats
}

type RoomsResponse struct {
	Rooms []engine.RoomSummary `json:"rooms"`
}

type HistoryResponse struct {
	Entries []history.Entry `json:"entries"`
}
