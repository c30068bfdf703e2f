package engine

import (
	"time"

	"gameroom-server/internal/sanitize"
)

const (
	StartingCredits = 15
	MaxChatLength   = 200

	watchChance  = 0.3
	catchChance  = 0.3
	watchMinimum = 5 * time.Second
	watchJitter  = 5 * time.Second

	teacherName = "Teacher"
)

// ClassroomState is announced when a class starts.
type ClassroomState struct {
	Students []PlayerView `json:"students"`
	Teacher  string       `json:"teacher"`
}

// classroomKind is the catch-the-talker party game. Players are shown by
// their artist persona, never their real name.
type classroomKind struct{}

func (classroomKind) rules() Rules {
	return Rules{
		Capacity:    16,
		MinPlayers:  2,
		NameMaxLen:  20,
		AutoStart:   true,
		PublicRooms: true,
		HideNames:   true,
	}
}

func (classroomKind) admitted(e *Engine, r *Room, p *Player) {
	p.Credits = StartingCredits
	e.assignArtist(r, p)
	e.broadcastPlayerList(r)
	if len(r.Players)%2 == 0 {
		e.assignBenchmates(r)
	}
}

func (k classroomKind) canStart(r *Room) error {
	if len(r.Players) < k.rules().MinPlayers {
		return ErrNotEnoughPlayers
	}
	return nil
}

func (classroomKind) started(e *Engine, r *Room) {
	for _, p := range r.Players {
		p.Credits = StartingCredits
		p.Standing = false
		p.Talking = false
		p.Expelled = false
	}
	r.MonitorID = ""
	r.Watching = false

	state := ClassroomState{Students: e.playerList(r), Teacher: teacherName}
	r.Shared = state

	e.broadcastEach(r, EventStartGame, func(p *Player) any {
		return StartGamePayload{Code: r.Code, SharedState: state, PlayerID: p.ID}
	})

	epoch := r.epoch
	e.after(e.opts.MonitorDelay, func() {
		if !e.live(r, epoch) {
			return
		}
		active := r.active()
		if len(active) == 0 {
			return
		}
		first := active[e.rand.IntN(len(active))]
		e.makeMonitor(r, first)
		e.broadcastToRoom(r, EventStudentCaught, StudentCaughtPayload{StudentID: first.ID, Credits: first.Credits})
	})
	e.scheduleTeacher(r, epoch)
}

func (classroomKind) left(e *Engine, r *Room, p *Player, _ int) {
	if bm := r.Player(p.BenchmateID); bm != nil {
		bm.BenchmateID = ""
		e.sendToPlayer(bm.ID, EventBenchmateLeft, PlayerIDPayload{PlayerID: p.ID})
		e.tryReassign(r, bm)
	}

	e.broadcastToRoom(r, EventPlayerLeft, PlayerLeftPayload{
		PlayerID: p.ID,
		Players:  e.playerList(r),
	})

	if r.State != StateStarted {
		return
	}
	e.checkClassEnd(r)
	if r.State == StateStarted && r.MonitorID == p.ID {
		e.passMonitor(r)
	}
}

// reset reopens an ended class for another round.
func (classroomKind) reset(e *Engine, r *Room, p *Player) error {
	switch {
	case r.State == StateStarted:
		return ErrRoomStarted
	case r.State == StateWaiting:
		return ErrGameNotStarted
	case !r.Public && r.Creator() != p:
		return ErrNotCreator
	}

	r.transition(StateWaiting)
	r.Shared = nil
	r.MonitorID = ""
	r.Watching = false
	for _, player := range r.Players {
		player.Credits = StartingCredits
		player.Standing = false
		player.Talking = false
		player.Expelled = false
	}

	e.broadcastToRoom(r, EventGameReset, CodePayload{Code: r.Code})
	e.broadcastPlayerList(r)
	e.maybeAutoStart(r)
	return nil
}

func (classroomKind) playerView(r *Room, p *Player) PlayerView {
	credits := p.Credits
	return PlayerView{
		ID:          p.ID,
		Creator:     !r.Public && r.Creator() == p,
		Artist:      p.Artist,
		Credits:     &credits,
		Standing:    p.Standing,
		Talking:     p.Talking,
		Expelled:    p.Expelled,
		BenchmateID: p.BenchmateID,
	}
}

// persona is the name other players see.
func persona(p *Player) string {
	if p.Artist != nil {
		return p.Artist.Name
	}
	return "Student"
}

// assignArtist picks a persona no one else in the room holds.
func (e *Engine) assignArtist(r *Room, p *Player) {
	taken := make(map[string]bool, len(r.Players))
	for _, other := range r.Players {
		if other.Artist != nil {
			taken[other.Artist.Name] = true
		}
	}

	var free []int
	for i, a := range e.opts.Artists {
		if !taken[a.Name] {
			free = append(free, i)
		}
	}
	if len(free) == 0 {
		return
	}

	artist := e.opts.Artists[free[e.rand.IntN(len(free))]]
	p.Artist = &artist
	e.sendToPlayer(p.ID, EventArtistAssigned, ArtistAssignedPayload{PlayerID: p.ID, Artist: p.Artist})
}

func (e *Engine) pair(a, b *Player) {
	a.BenchmateID = b.ID
	b.BenchmateID = a.ID
	e.sendToPlayer(a.ID, EventBenchmateAssigned, BenchmatePayload{BenchmateID: b.ID, BenchmateName: persona(b)})
	e.sendToPlayer(b.ID, EventBenchmateAssigned, BenchmatePayload{BenchmateID: a.ID, BenchmateName: persona(a)})
}

// assignBenchmates pairs unpaired players in join order.
func (e *Engine) assignBenchmates(r *Room) {
	var unpaired []*Player
	for _, p := range r.Players {
		if p.BenchmateID == "" && !p.Expelled {
			unpaired = append(unpaired, p)
		}
	}
	for len(unpaired) >= 2 {
		e.pair(unpaired[0], unpaired[1])
		unpaired = unpaired[2:]
	}
	e.broadcastPlayerList(r)
}

func (e *Engine) tryReassign(r *Room, p *Player) {
	if p.BenchmateID != "" || p.Expelled {
		return
	}
	for _, other := range r.Players {
		if other != p && other.BenchmateID == "" && !other.Expelled {
			e.pair(p, other)
			return
		}
	}
}

func (e *Engine) makeMonitor(r *Room, p *Player) {
	if p == nil || p.Expelled {
		return
	}
	if prev := r.Player(r.MonitorID); prev != nil {
		prev.Standing = false
	}
	p.Standing = true
	r.MonitorID = p.ID

	e.broadcastToRoom(r, EventNewMonitor, StudentPayload{StudentID: p.ID})
}

// passMonitor gives the vacant monitor role to the first active player.
func (e *Engine) passMonitor(r *Room) {
	r.MonitorID = ""
	if active := r.active(); len(active) > 0 {
		e.makeMonitor(r, active[0])
	}
}

// scheduleTeacher arms one teacher cycle for the started room.
func (e *Engine) scheduleTeacher(r *Room, epoch uint64) {
	e.after(e.opts.TeacherInterval, func() {
		if !e.live(r, epoch) {
			return
		}
		if !r.Watching && e.rand.Float64() < watchChance {
			e.watch(r, epoch)
		}
		e.scheduleTeacher(r, epoch)
	})
}

func (e *Engine) watch(r *Room, epoch uint64) {
	r.Watching = true
	e.broadcastToRoom(r, EventTeacherMonitoring, TeacherMonitoringPayload{IsMonitoring: true})

	d := watchMinimum + time.Duration(e.rand.Int64N(int64(watchJitter)))
	e.after(d, func() {
		if !e.live(r, epoch) {
			return
		}
		r.Watching = false
		e.broadcastToRoom(r, EventTeacherMonitoring, TeacherMonitoringPayload{IsMonitoring: false})
	})
}

// classroom resolves the started classroom the caller sits in.
func (e *Engine) classroom(connID string) (*Room, *Player, error) {
	r, p, err := e.current(connID)
	if err != nil {
		return nil, nil, err
	}
	if r.Kind != KindClassroom {
		return nil, nil, ErrUnsupported
	}
	if r.State != StateStarted {
		return nil, nil, ErrGameNotStarted
	}
	if p.Expelled {
		return nil, nil, ErrExpelled
	}
	return r, p, nil
}

func (e *Engine) chat(connID, raw string) error {
	r, p, err := e.classroom(connID)
	if err != nil {
		return err
	}
	if p.Standing {
		return ErrStanding
	}
	text := sanitize.Text(raw, MaxChatLength)
	if text == "" {
		return nil
	}

	bm := r.Player(p.BenchmateID)
	if bm == nil || bm.Expelled {
		former := p.BenchmateID
		p.BenchmateID = ""
		if bm != nil {
			bm.BenchmateID = ""
		}
		e.sendToPlayer(p.ID, EventBenchmateLeft, PlayerIDPayload{PlayerID: former})
		e.tryReassign(r, p)
		return nil
	}

	e.sendToPlayer(bm.ID, EventBenchmateMessage, BenchmateMessagePayload{
		Sender:    persona(p),
		Text:      text,
		StudentID: p.ID,
	})

	p.Talking = true
	p.talkEpoch++
	epoch, talk := r.epoch, p.talkEpoch
	e.broadcastToRoom(r, EventStudentTalking, StudentPayload{StudentID: p.ID})
	e.after(e.opts.TalkingDuration, func() {
		if e.live(r, epoch) && p.talkEpoch == talk {
			p.Talking = false
		}
	})

	if r.Watching && e.rand.Float64() < catchChance {
		e.logger.Debug().Str("room", r.Code).Str("conn", p.ID).Msg("Teacher caught talker")
		e.catchStudent(r, p)
	}
	return nil
}

func (e *Engine) catch(connID, studentID string) error {
	r, p, err := e.classroom(connID)
	if err != nil {
		return err
	}
	if r.MonitorID != p.ID {
		return ErrNotMonitor
	}

	target := r.Player(studentID)
	if target == nil || target == p || target.Expelled {
		return ErrUnknownPlayer
	}

	e.catchStudent(r, target)
	return nil
}

// catchStudent costs s one credit. A caught student stands up as monitor
// unless it was their last credit.
func (e *Engine) catchStudent(r *Room, s *Player) {
	s.Credits--
	e.broadcastToRoom(r, EventStudentCaught, StudentCaughtPayload{StudentID: s.ID, Credits: s.Credits})

	if s.Credits <= 0 {
		e.expel(r, s)
		return
	}
	e.makeMonitor(r, s)
}

func (e *Engine) expel(r *Room, s *Player) {
	s.Expelled = true
	s.Standing = false
	s.Talking = false

	if bm := r.Player(s.BenchmateID); bm != nil {
		bm.BenchmateID = ""
		e.sendToPlayer(bm.ID, EventBenchmateExpelled, PlayerIDPayload{PlayerID: s.ID})
		e.tryReassign(r, bm)
	}
	s.BenchmateID = ""

	e.logger.Info().Str("room", r.Code).Str("conn", s.ID).Msg("Student expelled")
	e.broadcastToRoom(r, EventStudentExpelled, StudentPayload{StudentID: s.ID})

	e.checkClassEnd(r)
	if r.State == StateStarted && r.MonitorID == s.ID {
		e.passMonitor(r)
	}
}

// checkClassEnd ends a started class once there is nobody left to play against.
func (e *Engine) checkClassEnd(r *Room) {
	if r.State != StateStarted {
		return
	}
	if len(r.active()) > 1 && len(r.Players) >= 2 {
		return
	}

	var best *Player
	for _, p := range r.active() {
		if best == nil || p.Credits > best.Credits {
			best = p
		}
	}

	r.Watching = false
	r.MonitorID = ""

	var payload GameEndPayload
	name := ""
	if best != nil {
		best.Standing = false
		payload.Winner = &Winner{ID: best.ID, Name: persona(best)}
		name = persona(best)
	}
	e.endGame(r, name)
	e.broadcastToRoom(r, EventGameEnd, payload)
}
