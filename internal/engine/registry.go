package engine

// session is the registry record for one connection.
type session struct {
	connID   string
	kind     string
	roomCode string
	queued   bool
}

// Registry maps connection ids to sessions. It is only touched from the
// engine loop.
type Registry struct {
	sessions map[string]*session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*session)}
}

func (r *Registry) add(connID, kind string) *session {
	s := &session{connID: connID, kind: kind}
	r.sessions[connID] = s
	return s
}

func (r *Registry) get(connID string) *session {
	return r.sessions[connID]
}

func (r *Registry) remove(connID string) {
	delete(r.sessions, connID)
}

func (r *Registry) Len() int {
	return len(r.sessions)
}
