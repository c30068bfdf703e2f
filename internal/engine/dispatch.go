package engine

// Message is one outbound event.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Dispatcher delivers messages to connections. Send is called from the engine
// loop and must not block; unknown connections are ignored.
type Dispatcher interface {
	Send(connID string, msg Message)
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(connID string, msg Message)

func (f DispatcherFunc) Send(connID string, msg Message) { f(connID, msg) }

func (e *Engine) sendToPlayer(connID, msgType string, payload any) {
	if connID == "" {
		return
	}
	e.dispatcher.Send(connID, Message{Type: msgType, Payload: payload})
}

// broadcastToRoom sends to every player in r except the excluded ids. A nil
// room has no recipients.
func (e *Engine) broadcastToRoom(r *Room, msgType string, payload any, exclude ...string) {
	if r == nil {
		return
	}

	for _, p := range r.Players {
		if contains(exclude, p.ID) {
			continue
		}
		e.sendToPlayer(p.ID, msgType, payload)
	}
}

// broadcastEach sends a per-player payload built by view.
func (e *Engine) broadcastEach(r *Room, msgType string, view func(*Player) any) {
	if r == nil {
		return
	}
	for _, p := range r.Players {
		e.sendToPlayer(p.ID, msgType, view(p))
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
