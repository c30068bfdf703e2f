package engine

// Category groups errors by how the caller should react.
type Category int

const (
	CategoryInvalidInput Category = iota
	CategoryNotFound
	CategoryConflict
	CategoryTransient
)

func (c Category) String() string {
	switch c {
	case CategoryInvalidInput:
		return "invalid_input"
	case CategoryNotFound:
		return "not_found"
	case CategoryConflict:
		return "conflict"
	case CategoryTransient:
		return "transient"
	}
	return "unknown"
}

// Error is returned by every engine operation. Message is safe to show to
// players.
type Error struct {
	Category Category
	Code     string
	Message  string
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// Is matches on Code so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func newError(c Category, code, message string) *Error {
	return &Error{Category: c, Code: code, Message: message}
}

var (
	ErrInvalidName     = newError(CategoryInvalidInput, "INVALID_NAME", "Invalid name.")
	ErrInvalidRoomCode = newError(CategoryInvalidInput, "INVALID_ROOM_CODE", "Invalid room code.")
	ErrInvalidMove     = newError(CategoryInvalidInput, "INVALID_MOVE", "Invalid move data.")
	ErrInvalidProgress = newError(CategoryInvalidInput, "INVALID_PROGRESS", "Invalid progress.")
	ErrInvalidFinish   = newError(CategoryInvalidInput, "INVALID_FINISH", "Invalid finish data.")

	ErrRoomNotFound  = newError(CategoryNotFound, "ROOM_NOT_FOUND", "Room not found.")
	ErrNotInRoom     = newError(CategoryNotFound, "NOT_IN_ROOM", "You are not in this room.")
	ErrUnknownKind   = newError(CategoryNotFound, "UNKNOWN_KIND", "Unknown game.")
	ErrUnknownConn   = newError(CategoryNotFound, "UNKNOWN_CONNECTION", "Connection is not registered.")
	ErrUnknownPlayer = newError(CategoryNotFound, "UNKNOWN_PLAYER", "No such player in this room.")

	ErrRoomStarted       = newError(CategoryConflict, "ROOM_STARTED", "Game already started.")
	ErrRoomFull          = newError(CategoryConflict, "ROOM_FULL", "Room is full.")
	ErrNameTaken         = newError(CategoryConflict, "NAME_TAKEN", "Name already taken in this room.")
	ErrNotCreator        = newError(CategoryConflict, "NOT_CREATOR", "Only the room creator can do that.")
	ErrNotEnoughPlayers  = newError(CategoryConflict, "NOT_ENOUGH_PLAYERS", "Not enough players to start.")
	ErrGameNotStarted    = newError(CategoryConflict, "GAME_NOT_STARTED", "Game has not started.")
	ErrNotMonitor        = newError(CategoryConflict, "NOT_MONITOR", "Only the monitor can catch students.")
	ErrExpelled          = newError(CategoryConflict, "EXPELLED", "You have been expelled.")
	ErrStanding          = newError(CategoryConflict, "STANDING", "The monitor cannot chat.")
	ErrAlreadyQueued     = newError(CategoryConflict, "ALREADY_QUEUED", "Already searching for an opponent.")
	ErrUnsupported       = newError(CategoryConflict, "UNSUPPORTED", "Not available for this game.")
	ErrNoOpponentFound   = newError(CategoryTransient, "NO_OPPONENT_FOUND", "NO OPPONENT FOUND, PLAY WITH YOUR FRIEND IN A PRIVATE ROOM")
	ErrStopped           = newError(CategoryTransient, "ENGINE_STOPPED", "Server is shutting down.")
	ErrRoomCodeExhausted = newError(CategoryTransient, "ROOM_CODES_EXHAUSTED", "Could not allocate a room code.")
)
