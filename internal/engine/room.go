package engine

import "time"

type RoomState string

const (
	StateWaiting RoomState = "WAITING"
	StateStarted RoomState = "STARTED"
	StateEnded   RoomState = "ENDED"
)

// Player is owned by exactly one Room. ID is the connection id.
type Player struct {
	ID          string
	Name        string
	DeviceClass string

	// typing
	Progress     float64
	Finished     bool
	WPM          int
	Accuracy     int
	LastActivity time.Time

	// classroom
	Credits     int
	Standing    bool
	Talking     bool
	Expelled    bool
	Artist      *Artist
	BenchmateID string
	talkEpoch   uint64
}

// Room is a bounded group of players sharing one game session.
type Room struct {
	Code      string
	Kind      string
	Public    bool
	State     RoomState
	Players   []*Player
	Shared    any
	CreatedAt time.Time
	StartedAt time.Time

	// classroom
	MonitorID string
	Watching  bool

	epoch uint64
}

// Creator is the privileged first player, or nil for an empty room.
func (r *Room) Creator() *Player {
	if len(r.Players) == 0 {
		return nil
	}
	return r.Players[0]
}

func (r *Room) Player(id string) *Player {
	for _, p := range r.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *Room) index(id string) int {
	for i, p := range r.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (r *Room) hasName(name string) bool {
	for _, p := range r.Players {
		if p.Name == name {
			return true
		}
	}
	return false
}

// remove drops the player with id and reports its former position.
func (r *Room) remove(id string) (*Player, int) {
	i := r.index(id)
	if i < 0 {
		return nil, -1
	}
	p := r.Players[i]
	r.Players = append(r.Players[:i], r.Players[i+1:]...)
	return p, i
}

// active returns players that are not expelled, in join order.
func (r *Room) active() []*Player {
	out := make([]*Player, 0, len(r.Players))
	for _, p := range r.Players {
		if !p.Expelled {
			out = append(out, p)
		}
	}
	return out
}

// transition moves the room to state and invalidates timers scheduled
// against the previous epoch.
func (r *Room) transition(state RoomState) {
	r.State = state
	r.epoch++
}

// RoomSummary is a read-only view for listings.
type RoomSummary struct {
	Code      string    `json:"code"`
	Kind      string    `json:"kind"`
	State     RoomState `json:"state"`
	Public    bool      `json:"public"`
	Players   int       `json:"players"`
	Capacity  int       `json:"capacity"`
	CreatedAt time.Time `json:"createdAt"`
}
