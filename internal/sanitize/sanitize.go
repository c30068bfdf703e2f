// Package sanitize constrains untrusted client fields before they reach room state.
// Every function is pure.
package sanitize

import (
	"errors"
	"math"
	"strings"
	"unicode"
)

var (
	ErrInvalidName     = errors.New("invalid name")
	ErrInvalidRoomCode = errors.New("invalid room code")
	ErrInvalidMove     = errors.New("invalid move")
	ErrInvalidProgress = errors.New("invalid progress")
)

// Device classes accepted from clients.
const (
	DeviceMobile  = "mobile"
	DeviceDesktop = "desktop"
)

// Pieces accepted in a board move.
var Pieces = []string{"S", "O"}

// Move is a validated board placement.
type Move struct {
	Piece string `json:"piece"`
	Row   int    `json:"row"`
	Col   int    `json:"col"`
}

// Name trims raw, keeps letters, digits, spaces, '.' and '-', and truncates
// the result to max runes.
func Name(raw string, max int) (string, error) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		if isNameRune(r) {
			b.WriteRune(r)
		}
	}

	name := strings.TrimSpace(b.String())
	if max > 0 {
		runes := []rune(name)
		if len(runes) > max {
			name = strings.TrimSpace(string(runes[:max]))
		}
	}

	if name == "" {
		return "", ErrInvalidName
	}
	return name, nil
}

func isNameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == ' ', r == '.', r == '-':
		return true
	}
	return false
}

// RoomCode trims and uppercases raw and strips anything that is not A-Z or 0-9.
func RoomCode(raw string) (string, error) {
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(raw)) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}

	if b.Len() == 0 {
		return "", ErrInvalidRoomCode
	}
	return b.String(), nil
}

// Enum returns raw when it is one of allowed, def otherwise.
func Enum(raw string, allowed []string, def string) string {
	for _, a := range allowed {
		if raw == a {
			return raw
		}
	}
	return def
}

// DeviceClass defaults anything unrecognised to desktop.
func DeviceClass(raw string) string {
	return Enum(strings.ToLower(strings.TrimSpace(raw)), []string{DeviceMobile, DeviceDesktop}, DeviceDesktop)
}

// ParseMove checks that piece is a known symbol and that row and col are whole
// numbers inside [0, bound). Coordinates arrive as decoded JSON, so float64
// and json.Number values are accepted alongside plain ints.
func ParseMove(piece string, row, col any, bound int) (Move, error) {
	if Enum(piece, Pieces, "") == "" {
		return Move{}, ErrInvalidMove
	}

	r, ok := coordinate(row, bound)
	if !ok {
		return Move{}, ErrInvalidMove
	}
	c, ok := coordinate(col, bound)
	if !ok {
		return Move{}, ErrInvalidMove
	}

	return Move{Piece: piece, Row: r, Col: c}, nil
}

type numberLike interface {
	Int64() (int64, error)
}

func coordinate(v any, bound int) (int, bool) {
	var n int
	switch x := v.(type) {
	case int:
		n = x
	case int64:
		n = int(x)
	case float64:
		if math.IsNaN(x) || x != math.Trunc(x) || x < 0 || x >= float64(bound) {
			return 0, false
		}
		n = int(x)
	case numberLike:
		i, err := x.Int64()
		if err != nil {
			return 0, false
		}
		n = int(i)
	default:
		return 0, false
	}

	if n < 0 || n >= bound {
		return 0, false
	}
	return n, true
}

// Text trims raw, drops control characters and truncates to max runes.
func Text(raw string, max int) string {
	var b strings.Builder
	count := 0
	for _, r := range strings.TrimSpace(raw) {
		if unicode.IsControl(r) {
			continue
		}
		if max > 0 && count == max {
			break
		}
		b.WriteRune(r)
		count++
	}
	return strings.TrimSpace(b.String())
}

// Progress rejects non-finite values and clamps the rest to [0, 1].
func Progress(v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidProgress
	}
	return math.Max(0, math.Min(v, 1)), nil
}
