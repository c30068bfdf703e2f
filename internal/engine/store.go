package engine

// Store is the table of live rooms keyed by code. Iteration follows creation
// order. It is only touched from the engine loop.
type Store struct {
	rooms map[string]*Room
	order []string
}

func NewStore() *Store {
	return &Store{rooms: make(map[string]*Room)}
}

func (s *Store) Get(code string) *Room {
	return s.rooms[code]
}

func (s *Store) Has(code string) bool {
	_, ok := s.rooms[code]
	return ok
}

func (s *Store) Put(r *Room) {
	if _, ok := s.rooms[r.Code]; !ok {
		s.order = append(s.order, r.Code)
	}
	s.rooms[r.Code] = r
}

func (s *Store) Delete(code string) {
	if _, ok := s.rooms[code]; !ok {
		return
	}
	delete(s.rooms, code)
	for i, c := range s.order {
		if c == code {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Store) Len() int {
	return len(s.rooms)
}

// Each visits rooms in creation order until fn returns false.
func (s *Store) Each(fn func(*Room) bool) {
	for _, code := range append([]string(nil), s.order...) {
		r, ok := s.rooms[code]
		if !ok {
			continue
		}
		if !fn(r) {
			return
		}
	}
}
