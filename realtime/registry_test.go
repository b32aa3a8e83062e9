package realtime

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"chat-backend/domain"
	"chat-backend/observability"
)

var errSendFailed = errors.New("send failed")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSession struct {
	id string

	mu       sync.Mutex
	payloads [][]byte
	sendErr  error
	closed   int
}

func newFakeSession() *fakeSession {
	return &fakeSession{id: uuid.NewString()}
}

func (f *fakeSession) ID() string { return f.id }

func (f *fakeSession) Send(payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.payloads = append(f.payloads, payload)
	return nil
}

func (f *fakeSession) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
}

func (f *fakeSession) received() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.payloads))
	copy(out, f.payloads)
	return out
}

func (f *fakeSession) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	return NewRegistry(testLogger(), metrics)
}

func TestRegistry_FanOut_Delivers_To_Every_Session_On_The_Channel(t *testing.T) {
	req := require.New(t)
	registry := newTestRegistry(t)
	room := domain.RoomChannel(42)

	// Given two sessions on the same room and one on another
	s1 := newFakeSession()
	s2 := newFakeSession()
	other := newFakeSession()
	registry.Register(room, s1)
	registry.Register(room, s2)
	registry.Register(domain.RoomChannel(7), other)

	// When fanning out on the room
	payload := []byte(`{"text":"hello"}`)
	registry.FanOut(room, payload)

	// Then both room sessions receive it, the other channel stays silent
	req.Equal([][]byte{payload}, s1.received())
	req.Equal([][]byte{payload}, s2.received())
	req.Empty(other.received())
}

func TestRegistry_FanOut_On_Unknown_Channel_Is_A_NoOp(t *testing.T) {
	req := require.New(t)
	registry := newTestRegistry(t)

	registry.FanOut(domain.RoomChannel(99), []byte("ghost"))

	req.Empty(registry.channels)
}

func TestRegistry_Register_Twice_Keeps_A_Single_Entry(t *testing.T) {
	req := require.New(t)
	registry := newTestRegistry(t)
	room := domain.RoomChannel(1)
	session := newFakeSession()

	registry.Register(room, session)
	registry.Register(room, session)

	registry.FanOut(room, []byte("once"))
	req.Len(session.received(), 1)
}

func TestRegistry_Unregister_Stops_Delivery_And_Drops_Empty_Channel(t *testing.T) {
	req := require.New(t)
	registry := newTestRegistry(t)
	room := domain.RoomChannel(42)
	session := newFakeSession()

	// Given a registered session
	registry.Register(room, session)
	req.Len(registry.channels, 1)

	// When it unregisters
	registry.Unregister(room, session)

	// Then later fan-outs never reach it
	registry.FanOut(room, []byte("after"))
	req.Empty(session.received())

	// And the empty channel entry is gone
	req.Empty(registry.channels)
}

func TestRegistry_Unregister_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	registry := newTestRegistry(t)
	room := domain.RoomChannel(42)
	session := newFakeSession()

	registry.Register(room, session)
	registry.Unregister(room, session)
	registry.Unregister(room, session)
	registry.Unregister(domain.RoomChannel(7), session)

	req.Empty(registry.channels)
}

func TestRegistry_FanOut_Evicts_A_Failing_Session_And_Continues(t *testing.T) {
	req := require.New(t)
	registry := newTestRegistry(t)
	room := domain.RoomChannel(42)

	// Given one healthy session and one whose peer is gone
	healthy := newFakeSession()
	dead := newFakeSession()
	dead.sendErr = errSendFailed
	registry.Register(room, healthy)
	registry.Register(room, dead)

	// When fanning out
	registry.FanOut(room, []byte("still here"))

	// Then the healthy session got the payload
	req.Len(healthy.received(), 1)

	// And the failing one is closed and removed from the channel
	req.Equal(1, dead.closeCount())
	registry.FanOut(room, []byte("again"))
	req.Len(healthy.received(), 2)
	req.Equal(1, dead.closeCount())
}

func TestRegistry_FanOutMany_Targets_Each_Channel_With_Its_Own_Payload(t *testing.T) {
	req := require.New(t)
	registry := newTestRegistry(t)

	u1 := newFakeSession()
	u2 := newFakeSession()
	registry.Register(domain.UserRoomListChannel(1), u1)
	registry.Register(domain.UserRoomListChannel(2), u2)

	registry.FanOutMany(map[domain.ChannelKey][]byte{
		domain.UserRoomListChannel(1): []byte("rooms of 1"),
		domain.UserRoomListChannel(2): []byte("rooms of 2"),
	})

	req.Equal([][]byte{[]byte("rooms of 1")}, u1.received())
	req.Equal([][]byte{[]byte("rooms of 2")}, u2.received())
}

func TestRegistry_CloseAll_Closes_Every_Session(t *testing.T) {
	req := require.New(t)
	registry := newTestRegistry(t)

	s1 := newFakeSession()
	s2 := newFakeSession()
	registry.Register(domain.RoomChannel(1), s1)
	registry.Register(domain.UserRoomListChannel(9), s2)

	registry.CloseAll()

	req.Equal(1, s1.closeCount())
	req.Equal(1, s2.closeCount())
}

func TestRegistry_Concurrent_Register_FanOut_Unregister(t *testing.T) {
	req := require.New(t)
	registry := newTestRegistry(t)
	room := domain.RoomChannel(42)

	var wg sync.WaitGroup
	sessions := make([]*fakeSession, 50)
	for i := range sessions {
		sessions[i] = newFakeSession()
	}

	for _, session := range sessions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			registry.Register(room, session)
			registry.FanOut(room, []byte("x"))
			registry.Unregister(room, session)
		}()
	}
	wg.Wait()

	req.Empty(registry.channels)
}
