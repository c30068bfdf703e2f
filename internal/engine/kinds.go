package engine

// Built-in game kinds.
const (
	KindSOS       = "sos"
	KindTyping    = "typing"
	KindClassroom = "classroom"
)

// Rules is the static part of a kind's capability descriptor.
type Rules struct {
	Capacity   int
	MinPlayers int
	NameMaxLen int

	// AutoStart starts a room once it reaches Capacity.
	AutoStart bool
	// Matchmaking enables FindOpponent.
	Matchmaking bool
	// PublicRooms enables QuickJoin and the PUBLIC join code.
	PublicRooms bool
	// HideNames shows players to others, and to the history log, by persona only.
	HideNames bool
}

// gameKind customises the shared room lifecycle. Hooks run on the engine
// loop; the room passed in is always live.
type gameKind interface {
	rules() Rules
	// admitted runs after p has been appended to r.
	admitted(e *Engine, r *Room, p *Player)
	// canStart checks the kind's start condition for a WAITING room.
	canStart(r *Room) error
	// started derives shared state for a room that has just become STARTED
	// and announces it.
	started(e *Engine, r *Room)
	// left runs after p was removed from r at index. r still has players.
	left(e *Engine, r *Room, p *Player, index int)
	// reset handles a reset request from p.
	reset(e *Engine, r *Room, p *Player) error
	playerView(r *Room, p *Player) PlayerView
}

func builtinKinds() map[string]gameKind {
	return map[string]gameKind{
		KindSOS:       sosKind{},
		KindTyping:    typingKind{},
		KindClassroom: classroomKind{},
	}
}

func (e *Engine) playerList(r *Room) []PlayerView {
	k := e.kinds[r.Kind]
	out := make([]PlayerView, len(r.Players))
	for i, p := range r.Players {
		out[i] = k.playerView(r, p)
	}
	return out
}

func (e *Engine) broadcastPlayerList(r *Room) {
	e.broadcastToRoom(r, EventPlayerList, PlayerListPayload{Players: e.playerList(r)})
}

// shownName is the name of p that leaves the engine. It is empty for a
// hidden-name kind until p has a persona.
func (e *Engine) shownName(r *Room, p *Player) string {
	if !e.kinds[r.Kind].rules().HideNames {
		return p.Name
	}
	if p.Artist == nil {
		return ""
	}
	return persona(p)
}

func (e *Engine) shownNames(r *Room) []string {
	out := make([]string, len(r.Players))
	for i, p := range r.Players {
		out[i] = e.shownName(r, p)
	}
	return out
}

func basePlayerView(r *Room, p *Player) PlayerView {
	return PlayerView{
		ID:      p.ID,
		Name:    p.Name,
		Creator: !r.Public && r.Creator() == p,
	}
}
