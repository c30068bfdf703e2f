package engine

// Outbound event types.
const (
	EventError              = "error"
	EventRoomCreated        = "roomCreated"
	EventJoinedRoom         = "joinedRoom"
	EventLeftRoom           = "leftRoom"
	EventPlayerJoined       = "playerJoined"
	EventPlayerList         = "playerList"
	EventPlayerLeft         = "playerLeft"
	EventStartGame          = "startGame"
	EventGameReset          = "gameReset"
	EventSearchingOpponent  = "searchingOpponent"
	EventFindOpponentResult = "findOpponentResult"
	EventMove               = "move"
	EventInvalidMove        = "invalidMove"
	EventOpponentLeft       = "opponentLeft"

	EventProgressUpdate  = "progressUpdate"
	EventPlayerFinished  = "playerFinished"
	EventRaceFinished    = "raceFinished"
	EventInactiveRemoval = "inactiveRemoval"

	EventArtistAssigned    = "artistAssigned"
	EventBenchmateAssigned = "benchmateAssigned"
	EventBenchmateLeft     = "benchmateLeft"
	EventBenchmateExpelled = "benchmateExpelled"
	EventBenchmateMessage  = "benchmateMessage"
	EventStudentTalking    = "studentTalking"
	EventStudentCaught     = "studentCaught"
	EventStudentExpelled   = "studentExpelled"
	EventNewMonitor        = "newMonitor"
	EventTeacherMonitoring = "teacherMonitoring"
	EventGameEnd           = "gameEnd"
)

type ErrorPayload struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// RoomResult answers createRoom, joinRoom and quickJoin.
type RoomResult struct {
	Success  bool   `json:"success"`
	Code     string `json:"code,omitempty"`
	PlayerID string `json:"playerId,omitempty"`
	Message  string `json:"message,omitempty"`
}

type PlayerView struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	Creator bool   `json:"creator,omitempty"`

	Progress float64 `json:"progress,omitempty"`
	Finished bool    `json:"finished,omitempty"`
	WPM      int     `json:"wpm,omitempty"`
	Accuracy int     `json:"accuracy,omitempty"`

	Artist      *Artist `json:"artist,omitempty"`
	Credits     *int    `json:"credits,omitempty"`
	Standing    bool    `json:"isStanding,omitempty"`
	Talking     bool    `json:"isTalking,omitempty"`
	Expelled    bool    `json:"isExpelled,omitempty"`
	BenchmateID string  `json:"benchmateId,omitempty"`
}

type PlayerListPayload struct {
	Players []PlayerView `json:"players"`
}

type PlayerJoinedPayload struct {
	PlayerID string       `json:"playerId"`
	Name     string       `json:"name,omitempty"`
	Players  []PlayerView `json:"players"`
}

type PlayerLeftPayload struct {
	PlayerID string       `json:"playerId"`
	Name     string       `json:"name,omitempty"`
	Players  []PlayerView `json:"players"`
}

// StartGamePayload is personalised per recipient through MyPlayer and PlayerID.
type StartGamePayload struct {
	Code        string `json:"code"`
	SharedState any    `json:"sharedState"`
	MyPlayer    string `json:"myPlayer,omitempty"`
	PlayerID    string `json:"playerId"`
}

type CodePayload struct {
	Code string `json:"code"`
}

type SearchingPayload struct {
	TimeoutSeconds int `json:"timeoutSeconds"`
}

type FindOpponentResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type MovePayload struct {
	Piece    string `json:"piece"`
	Row      int    `json:"row"`
	Col      int    `json:"col"`
	PlayerID string `json:"playerId"`
}

type MessagePayload struct {
	Message string `json:"message"`
}

type OpponentLeftPayload struct {
	Name string `json:"name"`
}

type ProgressPayload struct {
	PlayerID string  `json:"playerId"`
	Progress float64 `json:"progress"`
}

type FinishedPayload struct {
	PlayerID string `json:"playerId"`
	WPM      int    `json:"wpm"`
	Accuracy int    `json:"accuracy"`
}

type RaceResult struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	WPM      int    `json:"wpm"`
	Accuracy int    `json:"accuracy"`
}

type RaceFinishedPayload struct {
	Results []RaceResult `json:"results"`
}

type ArtistAssignedPayload struct {
	PlayerID string  `json:"playerId"`
	Artist   *Artist `json:"artist"`
}

type BenchmatePayload struct {
	BenchmateID   string `json:"benchmateId"`
	BenchmateName string `json:"benchmateName"`
}

type PlayerIDPayload struct {
	PlayerID string `json:"playerId"`
}

type BenchmateMessagePayload struct {
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	StudentID string `json:"studentId"`
}

type StudentPayload struct {
	StudentID string `json:"studentId"`
}

type StudentCaughtPayload struct {
	StudentID string `json:"studentId"`
	Credits   int    `json:"credits"`
}

type TeacherMonitoringPayload struct {
	IsMonitoring bool `json:"isMonitoring"`
}

type Winner struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type GameEndPayload struct {
	Winner *Winner `json:"winner"`
}
