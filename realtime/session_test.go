package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"chat-backend/domain"
	"chat-backend/errors"
)

// wsPair upgrades one real websocket through httptest and returns the
// server-side session plus the client connection.
func wsPair(t *testing.T, cfg SessionConfig) (*Session, *websocket.Conn) {
	t.Helper()

	upgrader := websocket.Upgrader{}
	serverConns := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serverConns <- conn
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	serverConn := <-serverConns
	session := NewSession(domain.RoomChannel(1), serverConn, cfg, testLogger())
	t.Cleanup(session.Close)
	return session, client
}

func waitClosed(t *testing.T, done <-chan struct{}, msg string) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal(msg)
	}
}

func Test_Session_Delivers_Queued_Payloads_To_The_Peer(t *testing.T) {
	req := require.New(t)
	session, client := wsPair(t, SessionConfig{})

	finished := make(chan struct{})
	go func() {
		session.Run(func([]byte) {}, func() {})
		close(finished)
	}()

	// When queuing a payload
	req.NoError(session.Send([]byte(`{"text":"hi"}`)))

	// Then the peer receives it as a text frame
	messageType, payload, err := client.ReadMessage()
	req.NoError(err)
	req.Equal(websocket.TextMessage, messageType)
	req.Equal([]byte(`{"text":"hi"}`), payload)

	session.Close()
	waitClosed(t, finished, "Run did not return after Close")
}

func Test_Session_Routes_Text_Frames_And_Skips_Binary(t *testing.T) {
	req := require.New(t)
	session, client := wsPair(t, SessionConfig{})

	frames := make(chan []byte, 4)
	go session.Run(func(payload []byte) { frames <- payload }, func() {})

	// When the peer sends a binary frame followed by a text frame
	req.NoError(client.WriteMessage(websocket.BinaryMessage, []byte{0x01, 0x02}))
	req.NoError(client.WriteMessage(websocket.TextMessage, []byte("hello")))

	// Then only the text frame reaches the handler
	select {
	case payload := <-frames:
		req.Equal([]byte("hello"), payload)
	case <-time.After(3 * time.Second):
		t.Fatal("text frame never reached the handler")
	}
	req.Empty(frames)
}

func Test_Session_Cleanup_Runs_Exactly_Once_On_Peer_Disconnect(t *testing.T) {
	req := require.New(t)
	session, client := wsPair(t, SessionConfig{})

	var cleanups atomic.Int32
	finished := make(chan struct{})
	go func() {
		session.Run(func([]byte) {}, func() { cleanups.Add(1) })
		close(finished)
	}()

	// When the peer drops the connection
	req.NoError(client.Close())

	// Then Run returns and cleanup ran exactly once
	waitClosed(t, finished, "Run did not return after peer disconnect")
	req.Equal(int32(1), cleanups.Load())

	// And a later server-side Close changes nothing
	session.Close()
	req.Equal(int32(1), cleanups.Load())
}

func Test_Session_Close_Unblocks_Run(t *testing.T) {
	session, _ := wsPair(t, SessionConfig{})

	finished := make(chan struct{})
	go func() {
		session.Run(func([]byte) {}, func() {})
		close(finished)
	}()

	session.Close()
	waitClosed(t, finished, "Run did not return after server-side Close")
}

func Test_Session_Send_After_Close_Fails(t *testing.T) {
	req := require.New(t)
	session, _ := wsPair(t, SessionConfig{})

	session.Close()
	session.Close() // idempotent

	req.ErrorIs(session.Send([]byte("late")), errors.ErrSessionClosed)
}

func Test_Session_Send_Fails_When_The_Buffer_Is_Full(t *testing.T) {
	req := require.New(t)
	// No Run: nothing drains the buffer.
	session, _ := wsPair(t, SessionConfig{SendBuffer: 1})

	req.NoError(session.Send([]byte("first")))
	req.ErrorIs(session.Send([]byte("second")), errors.ErrSendBufferFull)
}

func Test_Session_Pings_Keep_An_Idle_Connection_Alive(t *testing.T) {
	req := require.New(t)
	session, client := wsPair(t, SessionConfig{
		PingInterval: 50 * time.Millisecond,
		PongWait:     200 * time.Millisecond,
	})

	pings := make(chan struct{}, 8)
	client.SetPingHandler(func(string) error {
		pings <- struct{}{}
		return client.WriteControl(websocket.PongMessage, nil, time.Now().Add(time.Second))
	})
	go func() {
		// Drive the client's read loop so control frames are processed.
		for {
			if _, _, err := client.ReadMessage(); err != nil {
				return
			}
		}
	}()

	finished := make(chan struct{})
	go func() {
		session.Run(func([]byte) {}, func() {})
		close(finished)
	}()

	select {
	case <-pings:
	case <-time.After(3 * time.Second):
		t.Fatal("no ping arrived within the ping interval")
	}

	// The pong answers kept the read deadline fresh well past PongWait.
	time.Sleep(300 * time.Millisecond)
	req.NoError(session.Send([]byte("still alive")))

	session.Close()
	waitClosed(t, finished, "Run did not return after Close")
}
