package engine

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gameroom-server/internal/history"
)

func TestPrivateDuelEndToEnd(t *testing.T) {
	assert := assert.New(t)
	te := newTestEngine(t, func(o *Options) { o.Codes = fixedCodes("AB12") })
	te.connect(t, KindSOS, "A", "B")

	require.NoError(t, te.CreateRoom("A", "Alice", "desktop"))
	created, ok := te.sent.last("A", EventRoomCreated)
	require.True(t, ok)
	assert.Equal(RoomResult{Success: true, Code: "AB12", PlayerID: "A"}, created.Payload)

	// Codes are matched case-insensitively
	require.NoError(t, te.JoinRoom("B", " ab12 ", "Bob", "desktop"))
	joined, ok := te.sent.last("B", EventJoinedRoom)
	require.True(t, ok)
	assert.Equal(RoomResult{Success: true, Code: "AB12", PlayerID: "B"}, joined.Payload)

	announced, ok := te.sent.last("A", EventPlayerJoined)
	require.True(t, ok)
	assert.Equal("Bob", announced.Payload.(PlayerJoinedPayload).Name)
	assert.Len(announced.Payload.(PlayerJoinedPayload).Players, 2)
	assert.Equal(0, te.sent.count("B", EventPlayerJoined), "joiner is not told about itself")

	require.NoError(t, te.StartGame("A", "AB12"))
	assert.Equal(StateStarted, te.state("AB12"))

	startA, ok := te.sent.last("A", EventStartGame)
	require.True(t, ok)
	startB, ok := te.sent.last("B", EventStartGame)
	require.True(t, ok)

	payloadA := startA.Payload.(StartGamePayload)
	payloadB := startB.Payload.(StartGamePayload)
	assert.Equal(seatPlayer1, payloadA.MyPlayer)
	assert.Equal(seatPlayer2, payloadB.MyPlayer)
	assert.Equal("A", payloadA.PlayerID)
	assert.Equal("B", payloadB.PlayerID)

	state := payloadA.SharedState.(SOSState)
	assert.Equal(largeBoard, state.BoardSize)
	assert.Equal(map[string]string{seatPlayer1: "Alice", seatPlayer2: "Bob"}, state.PlayerNames)

	require.NoError(t, te.MakeMove("A", "AB12", "S", float64(2), float64(3)))
	move, ok := te.sent.last("B", EventMove)
	require.True(t, ok)
	assert.Equal(MovePayload{Piece: "S", Row: 2, Col: 3, PlayerID: "A"}, move.Payload)
	assert.Equal(0, te.sent.count("A", EventMove), "mover does not receive its own move")

	err := te.MakeMove("A", "AB12", "X", 9, 0)
	assert.True(errors.Is(err, ErrInvalidMove))
	invalid, ok := te.sent.last("A", EventInvalidMove)
	require.True(t, ok)
	assert.Equal(MessagePayload{Message: "Invalid move data."}, invalid.Payload)
	assert.Equal(1, te.sent.count("B", EventMove))

	require.NoError(t, te.Disconnect("B"))
	left, ok := te.sent.last("A", EventOpponentLeft)
	require.True(t, ok)
	assert.Equal(OpponentLeftPayload{Name: "Bob"}, left.Payload)
	assert.Equal(StateWaiting, te.state("AB12"))

	require.NoError(t, te.Disconnect("A"))
	assert.Nil(te.room("AB12"), "empty rooms are deleted")
}

func TestCreateRoom_InvalidName(t *testing.T) {
	assert := assert.New(t)
	te := newTestEngine(t)
	te.connect(t, KindSOS, "A")

	err := te.CreateRoom("A", "  !!!  ", "desktop")

	assert.True(errors.Is(err, ErrInvalidName))
	msg, ok := te.sent.last("A", EventRoomCreated)
	require.True(t, ok)
	assert.Equal(RoomResult{Success: false, Message: "Invalid name."}, msg.Payload)
	assert.Equal(0, te.Stats().Rooms)
}

func TestCreateRoom_SanitizesName(t *testing.T) {
	assert := assert.New(t)
	te := newTestEngine(t)
	te.connect(t, KindTyping, "A")

	code := te.create(t, "A", "  <b>Ann</b>!! ")

	var name string
	te.inspect(func() { name = te.store.Get(code).Players[0].Name })
	assert.Equal("bAnnb", name)
}

func TestCreateRoom_CodesExhausted(t *testing.T) {
	assert := assert.New(t)
	te := newTestEngine(t, func(o *Options) { o.Codes = fixedCodes("ZZ99") })
	te.connect(t, KindTyping, "A", "B")

	te.create(t, "A", "Ann")
	err := te.CreateRoom("B", "Ben", "desktop")

	assert.True(errors.Is(err, ErrRoomCodeExhausted))
	msg, ok := te.sent.last("B", EventRoomCreated)
	require.True(t, ok)
	assert.False(msg.Payload.(RoomResult).Success)
	assert.Equal(1, te.Stats().Rooms)
}

func TestJoinRoom_Rejections(t *testing.T) {
	te := newTestEngine(t, func(o *Options) { o.Codes = fixedCodes("AB12", "CD34") })
	te.connect(t, KindSOS, "A", "B", "C")
	te.connect(t, KindTyping, "T1", "T2", "T3")

	te.create(t, "A", "Alice")
	require.NoError(t, te.JoinRoom("B", "AB12", "Bob", "mobile"))
	te.create(t, "T1", "Tess")

	tests := []struct {
		name    string
		connID  string
		code    string
		player  string
		want    error
		message string
	}{
		{"missing room", "C", "ZZZZ", "Cy", ErrRoomNotFound, "Room not found."},
		{"bad code", "C", "***", "Cy", ErrInvalidRoomCode, "Invalid room code."},
		{"full room", "C", "AB12", "Cy", ErrRoomFull, "Room is full."},
		{"other kind", "C", "CD34", "Cy", ErrRoomNotFound, "Room not found."},
		{"name taken", "T2", "CD34", "Tess", ErrNameTaken, "Name already taken in this room."},
		{"bad name", "T3", "CD34", "%%%", ErrInvalidName, "Invalid name."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert := assert.New(t)

			err := te.JoinRoom(tt.connID, tt.code, tt.player, "desktop")

			assert.True(errors.Is(err, tt.want), "got %v", err)
			msg, ok := te.sent.last(tt.connID, EventJoinedRoom)
			require.True(t, ok)
			assert.Equal(RoomResult{Success: false, Message: tt.message}, msg.Payload)
		})
	}
}

func TestJoinRoom_StartedRoom(t *testing.T) {
	assert := assert.New(t)
	te := newTestEngine(t)
	te.connect(t, KindTyping, "A", "B")

	code := te.create(t, "A", "Ann")
	require.NoError(t, te.StartGame("A", code))

	err := te.JoinRoom("B", code, "Ben", "desktop")

	assert.True(errors.Is(err, ErrRoomStarted))
	assert.Equal([]string{"A"}, te.playerIDs(code))
}

func TestJoinRoom_NamesAreUniquePerRoom(t *testing.T) {
	assert := assert.New(t)
	te := newTestEngine(t)
	te.connect(t, KindTyping, "A", "B", "C")

	first := te.create(t, "A", "Sam")
	second := te.create(t, "B", "Sam")

	assert.NotEqual(first, second)
	assert.NoError(te.JoinRoom("C", second, "Kim", "desktop"))
	assert.Error(te.JoinRoom("C", first, "Sam", "desktop"))
}

func TestJoinRoom_AlreadyMember(t *testing.T) {
	assert := assert.New(t)
	te := newTestEngine(t)
	te.connect(t, KindTyping, "A")

	code := te.create(t, "A", "Ann")

	assert.NoError(te.JoinRoom("A", code, "Ann", "desktop"))
	assert.Equal([]string{"A"}, te.playerIDs(code))
}

func TestJoinRoom_ConcurrentJoinsNeverExceedCapacity(t *testing.T) {
	assert := assert.New(t)
	te := newTestEngine(t)

	te.connect(t, KindSOS, "host")
	code := te.create(t, "host", "Host")

	const joiners = 20
	ids := make([]string, joiners)
	for i := range ids {
		ids[i] = fmt.Sprintf("c%d", i)
	}
	te.connect(t, KindSOS, ids...)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := te.JoinRoom(id, code, fmt.Sprintf("Player %d", i), "desktop"); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(1, successes)
	assert.Len(te.playerIDs(code), 2)
}

func TestJoinRoom_LeavesPreviousRoom(t *testing.T) {
	assert := assert.New(t)
	te := newTestEngine(t)
	te.connect(t, KindTyping, "A", "B")

	first := te.create(t, "A", "Ann")
	second := te.create(t, "B", "Ben")

	require.NoError(t, te.JoinRoom("A", second, "Ann", "desktop"))

	assert.Nil(te.room(first), "abandoned room is deleted")
	assert.Equal(second, te.roomOf("A"))
	assert.Equal([]string{"B", "A"}, te.playerIDs(second))
}

func TestStartGame_Guards(t *testing.T) {
	te := newTestEngine(t)
	te.connect(t, KindSOS, "A", "B", "C")

	code := te.create(t, "A", "Alice")

	t.Run("too few players", func(t *testing.T) {
		err := te.StartGame("A", code)
		assert.True(t, errors.Is(err, ErrNotEnoughPlayers))
	})

	require.NoError(t, te.JoinRoom("B", code, "Bob", "desktop"))

	t.Run("not creator", func(t *testing.T) {
		err := te.StartGame("B", code)
		assert.True(t, errors.Is(err, ErrNotCreator))
		assert.Equal(t, StateWaiting, te.state(code))
	})

	t.Run("not a member", func(t *testing.T) {
		err := te.StartGame("C", code)
		assert.True(t, errors.Is(err, ErrNotInRoom))
	})

	t.Run("missing room", func(t *testing.T) {
		err := te.StartGame("A", "QQQQ")
		assert.True(t, errors.Is(err, ErrRoomNotFound))
	})

	// Failed starts are silent
	assert.Equal(t, 0, te.sent.count("A", EventStartGame))
	assert.Equal(t, 0, te.sent.count("A", EventError))
	assert.Equal(t, 0, te.sent.count("B", EventError))

	require.NoError(t, te.StartGame("A", code))

	t.Run("already started", func(t *testing.T) {
		err := te.StartGame("A", code)
		assert.True(t, errors.Is(err, ErrRoomStarted))
		assert.Equal(t, 1, te.sent.count("B", EventStartGame))
	})
}

func TestStartGame_MobileUsesSmallBoard(t *testing.T) {
	te := newTestEngine(t)
	te.connect(t, KindSOS, "A", "B")

	code := te.create(t, "A", "Alice")
	require.NoError(t, te.JoinRoom("B", code, "Bob", "mobile"))
	require.NoError(t, te.StartGame("A", code))

	msg, ok := te.sent.last("B", EventStartGame)
	require.True(t, ok)
	assert.Equal(t, smallBoard, msg.Payload.(StartGamePayload).SharedState.(SOSState).BoardSize)
}

func TestMakeMove_RequiresStartedRoom(t *testing.T) {
	assert := assert.New(t)
	te := newTestEngine(t)
	te.connect(t, KindSOS, "A", "B")

	code := te.create(t, "A", "Alice")
	require.NoError(t, te.JoinRoom("B", code, "Bob", "desktop"))

	err := te.MakeMove("A", code, "S", 0, 0)

	assert.True(errors.Is(err, ErrGameNotStarted))
	assert.Equal(0, te.sent.count("B", EventMove))
}

func TestMakeMove_UnsupportedKind(t *testing.T) {
	assert := assert.New(t)
	te := newTestEngine(t)
	te.connect(t, KindTyping, "A")

	code := te.create(t, "A", "Ann")
	err := te.MakeMove("A", code, "S", 0, 0)

	assert.True(errors.Is(err, ErrUnsupported))
	assert.Equal(0, te.sent.count("A", EventError))
}

func TestResetGame_SOS(t *testing.T) {
	assert := assert.New(t)
	te := newTestEngine(t)
	te.connect(t, KindSOS, "A", "B")

	code := te.create(t, "A", "Alice")
	require.NoError(t, te.JoinRoom("B", code, "Bob", "desktop"))

	assert.True(errors.Is(te.ResetGame("B", code), ErrGameNotStarted))

	require.NoError(t, te.StartGame("A", code))
	require.NoError(t, te.ResetGame("B", code))

	assert.Equal(1, te.sent.count("A", EventGameReset))
	assert.Equal(0, te.sent.count("B", EventGameReset))
	assert.Equal(StateStarted, te.state(code))
}

func TestLeaveRoom(t *testing.T) {
	assert := assert.New(t)
	te := newTestEngine(t)
	te.connect(t, KindTyping, "A", "B")

	code := te.create(t, "A", "Ann")
	require.NoError(t, te.JoinRoom("B", code, "Ben", "desktop"))

	require.NoError(t, te.LeaveRoom("A"))

	msg, ok := te.sent.last("A", EventLeftRoom)
	require.True(t, ok)
	assert.Equal(CodePayload{Code: code}, msg.Payload)
	assert.Equal([]string{"B"}, te.playerIDs(code))
	assert.Empty(te.roomOf("A"))

	left, ok := te.sent.last("B", EventPlayerLeft)
	require.True(t, ok)
	assert.Equal("A", left.Payload.(PlayerLeftPayload).PlayerID)

	// The connection stays registered and can play again
	assert.NotEmpty(te.create(t, "A", "Ann"))
	assert.Equal(2, te.Stats().Connections)
}

func TestDisconnect_UnknownConnectionIsNoop(t *testing.T) {
	te := newTestEngine(t)
	assert.NoError(t, te.Disconnect("ghost"))
}

func TestHistory_RecordsLifecycle(t *testing.T) {
	assert := assert.New(t)
	te := newTestEngine(t)
	te.connect(t, KindTyping, "A", "B")

	code := te.create(t, "A", "Ann")
	require.NoError(t, te.JoinRoom("B", code, "Ben", "desktop"))
	require.NoError(t, te.StartGame("A", code))
	require.NoError(t, te.Disconnect("A"))
	require.NoError(t, te.Disconnect("B"))

	entries, err := te.recorder.Recent(t.Context(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(history.EventAbandoned, entries[0].Event)
	assert.Equal(history.EventStarted, entries[1].Event)
	assert.Equal([]string{"Ann", "Ben"}, entries[1].Players)
	assert.Equal(code, entries[1].RoomCode)
	assert.Equal(KindTyping, entries[1].Kind)
}

func TestConnect_UnknownKind(t *testing.T) {
	te := newTestEngine(t)
	assert.True(t, errors.Is(te.Connect("A", "chess"), ErrUnknownKind))
}

func TestOperations_UnknownConnection(t *testing.T) {
	te := newTestEngine(t)
	assert.True(t, errors.Is(te.CreateRoom("ghost", "Ann", "desktop"), ErrUnknownConn))
}

func TestEngine_RecoversPanics(t *testing.T) {
	assert := assert.New(t)
	te := newTestEngine(t)

	ran := te.do(func() { panic("boom") })

	assert.True(ran)
	te.connect(t, KindSOS, "A")
	assert.NotEmpty(te.create(t, "A", "Alice"))
}

func TestEngine_StopRejectsCalls(t *testing.T) {
	te := newTestEngine(t)
	te.connect(t, KindSOS, "A")

	te.Stop()

	assert.True(t, errors.Is(te.CreateRoom("A", "Alice", "desktop"), ErrStopped))
}

func TestRooms_ListsInCreationOrder(t *testing.T) {
	assert := assert.New(t)
	te := newTestEngine(t, func(o *Options) { o.Codes = fixedCodes("AAAA", "BBBB") })
	te.connect(t, KindSOS, "A")
	te.connect(t, KindTyping, "B")

	te.create(t, "A", "Alice")
	te.create(t, "B", "Ben")

	rooms := te.Rooms()
	require.Len(t, rooms, 2)
	assert.Equal("AAAA", rooms[0].Code)
	assert.Equal(KindSOS, rooms[0].Kind)
	assert.Equal(2, rooms[0].Capacity)
	assert.Equal("BBBB", rooms[1].Code)
	assert.Equal(100, rooms[1].Capacity)

	summary, ok := te.Room("BBBB")
	assert.True(ok)
	assert.Equal(1, summary.Players)

	_, ok = te.Room("CCCC")
	assert.False(ok)
}
