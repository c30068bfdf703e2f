package engine

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	RoomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	RoomCodeLength   = 4

	maxCodeAttempts = 64
)

// CodeGenerator produces candidate room codes. Candidates may collide.
type CodeGenerator func() (string, error)

// NanoidCodes draws codes of length characters from RoomCodeAlphabet.
func NanoidCodes(length int) CodeGenerator {
	return func() (string, error) {
		return gonanoid.Generate(RoomCodeAlphabet, length)
	}
}

// GenerateRoomCode retries gen until it yields a code not reported by inUse.
func GenerateRoomCode(gen CodeGenerator, inUse func(string) bool) (string, error) {
	for range maxCodeAttempts {
		code, err := gen()
		if err != nil {
			return "", err
		}
		if !inUse(code) {
			return code, nil
		}
	}
	return "", ErrRoomCodeExhausted
}
