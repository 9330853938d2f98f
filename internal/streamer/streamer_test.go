package streamer

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/luxfi/log"
	"github.com/stretchr/testify/require"
)

func testLogger(t *testing.T) log.Logger {
	t.Helper()
	level, err := log.ToLevel("debug")
	require.NoError(t, err)
	return log.NewTestLogger(level)
}

func dial(t *testing.T, httpURL string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(httpURL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestPublishFansOutToConnectedClient(t *testing.T) {
	s := New(testLogger(t))
	srv := httptest.NewServer(s)
	defer srv.Close()

	conn := dial(t, srv.URL)

	// give the server goroutine a moment to register the client before we
	// publish, since Upgrade happens asynchronously relative to Dial
	// returning on the client side.
	require.Eventually(t, func() bool {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return len(s.clients) == 1
	}, time.Second, 5*time.Millisecond)

	want := LeafProofMessage{
		MessageName: "SecurityDefinition",
		Path:        []int{55},
		LeafHash:    "aa",
		Proof:       []string{"bb", "cc"},
		Directions:  []bool{true, false},
	}
	s.Publish(want)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var got LeafProofMessage
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, want, got)
}

func TestPublishReachesMultipleClients(t *testing.T) {
	s := New(testLogger(t))
	srv := httptest.NewServer(s)
	defer srv.Close()

	a := dial(t, srv.URL)
	b := dial(t, srv.URL)

	require.Eventually(t, func() bool {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return len(s.clients) == 2
	}, time.Second, 5*time.Millisecond)

	s.Publish(LeafProofMessage{MessageName: "Ping"})

	for _, conn := range []*websocket.Conn{a, b} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var got LeafProofMessage
		require.NoError(t, json.Unmarshal(data, &got))
		require.Equal(t, "Ping", got.MessageName)
	}
}

func TestDisconnectRemovesClient(t *testing.T) {
	s := New(testLogger(t))
	srv := httptest.NewServer(s)
	defer srv.Close()

	conn := dial(t, srv.URL)
	require.Eventually(t, func() bool {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return len(s.clients) == 1
	}, time.Second, 5*time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return len(s.clients) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestPublishDropsSlowClientWithoutBlocking(t *testing.T) {
	s := New(testLogger(t))
	c := &client{send: make(chan []byte)} // unbuffered, no reader draining it
	s.clients[c] = struct{}{}

	done := make(chan struct{})
	go func() {
		s.Publish(LeafProofMessage{MessageName: "Ping"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full client send buffer")
	}
}
