package gateway

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"roomchat/domain"
	"roomchat/observability"
	"roomchat/repositories"
	"roomchat/runtime"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type stubVerifier struct {
	err      error
	identity domain.Identity
}

func (v stubVerifier) Verify(string) (domain.Identity, error) {
	if v.err != nil {
		return domain.Identity{}, v.err
	}
	return v.identity, nil
}

type gateFixture struct {
	server   *httptest.Server
	registry *runtime.Registry
}

func newGateFixture(t *testing.T, verifier stubVerifier, rooms ...string) gateFixture {
	t.Helper()
	log := slog.Default()
	directory := repositories.NewRoomDirectory()
	for _, room := range rooms {
		directory.Create(room)
	}
	stats := observability.NewPipelineStats()
	registry := runtime.NewRegistry(log, stats)
	registry.InitRooms(directory.List())
	store := repositories.NewMessageStore(directory, log)
	pipeline := NewPipeline(log, store, registry, stats)
	gate := NewGate(log, verifier, directory, registry, pipeline, 16)

	server := httptest.NewServer(gate)
	t.Cleanup(server.Close)
	return gateFixture{server: server, registry: registry}
}

func (f gateFixture) wsURL(query string) string {
	return "ws" + strings.TrimPrefix(f.server.URL, "http") + "/?" + query
}

func (f gateFixture) dial(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(f.wsURL(query), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func Test_Gate_Rejects_Missing_Credential(t *testing.T) {
	req := require.New(t)
	fixture := newGateFixture(t, stubVerifier{}, "Room1")

	conn, resp, err := websocket.DefaultDialer.Dial(fixture.wsURL("room=Room1"), nil)
	req.Nil(conn)
	req.Error(err)
	req.Equal(401, resp.StatusCode)
	req.Equal(0, fixture.registry.MemberCount("Room1"))
}

func Test_Gate_Rejects_Invalid_Credential(t *testing.T) {
	req := require.New(t)
	fixture := newGateFixture(t, stubVerifier{err: fmt.Errorf("credential rejected")}, "Room1")

	_, resp, err := websocket.DefaultDialer.Dial(fixture.wsURL("auth=bad&room=Room1"), nil)
	req.Error(err)
	req.Equal(401, resp.StatusCode)
	req.Equal(0, fixture.registry.MemberCount("Room1"))
}

func Test_Gate_Rejects_Missing_Or_Unknown_Room(t *testing.T) {
	req := require.New(t)
	fixture := newGateFixture(t, stubVerifier{}, "Room1")

	_, resp, err := websocket.DefaultDialer.Dial(fixture.wsURL("auth=ok"), nil)
	req.Error(err)
	req.Equal(401, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(fixture.wsURL("auth=ok&room=ghostRoom"), nil)
	req.Error(err)
	req.Equal(401, resp.StatusCode)
	req.Equal(0, fixture.registry.MemberCount("Room1"))
}

func Test_Gate_Accepts_And_Subscribes(t *testing.T) {
	req := require.New(t)
	fixture := newGateFixture(t, stubVerifier{identity: domain.Identity{Subject: "alice"}}, "Room1")

	fixture.dial(t, "auth=ok&room=Room1")

	req.Eventually(func() bool {
		return fixture.registry.MemberCount("Room1") == 1
	}, time.Second, 10*time.Millisecond)
}

func Test_Gate_Message_Round_Trip(t *testing.T) {
	req := require.New(t)
	fixture := newGateFixture(t, stubVerifier{identity: domain.Identity{Subject: "alice"}}, "Room1")

	conn := fixture.dial(t, "auth=ok&room=Room1")
	req.Eventually(func() bool {
		return fixture.registry.MemberCount("Room1") == 1
	}, time.Second, 10*time.Millisecond)

	sent := domain.Message{Room: "Room1", From: "alice", TimestampUTC: 42, Text: "hi"}
	payload, err := json.Marshal(sent)
	req.NoError(err)
	req.NoError(conn.WriteMessage(websocket.TextMessage, payload))

	// The sender is a member of the room and receives its own broadcast.
	req.NoError(conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, data, err := conn.ReadMessage()
	req.NoError(err)

	var received domain.Message
	req.NoError(json.Unmarshal(data, &received))
	req.Equal(sent, received)
}

func Test_Gate_Rooms_Are_Isolated(t *testing.T) {
	req := require.New(t)
	fixture := newGateFixture(t, stubVerifier{identity: domain.Identity{Subject: "alice"}}, "Room1", "Room2")

	room1Conn := fixture.dial(t, "auth=ok&room=Room1")
	room2Conn := fixture.dial(t, "auth=ok&room=Room2")
	req.Eventually(func() bool {
		return fixture.registry.MemberCount("Room1") == 1 && fixture.registry.MemberCount("Room2") == 1
	}, time.Second, 10*time.Millisecond)

	payload := []byte(`{"room":"Room2","from":"alice","timestamp_utc":1,"text":"hi"}`)
	req.NoError(room2Conn.WriteMessage(websocket.TextMessage, payload))

	req.NoError(room2Conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err := room2Conn.ReadMessage()
	req.NoError(err)

	// The Room1 member must never observe Room2 traffic.
	req.NoError(room1Conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond)))
	_, _, err = room1Conn.ReadMessage()
	req.Error(err)
}

func Test_Gate_Close_Unsubscribes_Exactly_Once(t *testing.T) {
	req := require.New(t)
	fixture := newGateFixture(t, stubVerifier{identity: domain.Identity{Subject: "alice"}}, "Room1")

	conn, _, err := websocket.DefaultDialer.Dial(fixture.wsURL("auth=ok&room=Room1"), nil)
	req.NoError(err)
	req.Eventually(func() bool {
		return fixture.registry.MemberCount("Room1") == 1
	}, time.Second, 10*time.Millisecond)

	req.NoError(conn.Close())
	req.Eventually(func() bool {
		return fixture.registry.MemberCount("Room1") == 0
	}, time.Second, 10*time.Millisecond)
}
