package http

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/vovakirdan/chatrelay/internal/proto"
)

func TestHealthEndpoint(t *testing.T) {
	ts, _ := startTestServer(t, 3)

	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func dialWS(t *testing.T, ctx context.Context, url string) *websocket.Conn {
	t.Helper()
	wsURL := strings.Replace(url, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func write(t *testing.T, ctx context.Context, conn *websocket.Conn, frame string) {
	t.Helper()
	if err := conn.Write(ctx, websocket.MessageText, []byte(frame)); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func read(t *testing.T, ctx context.Context, conn *websocket.Conn) string {
	t.Helper()
	typ, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if typ != websocket.MessageText {
		t.Fatalf("unexpected message type %v", typ)
	}
	return string(data)
}

func TestWebSocketRegisterAndChat(t *testing.T) {
	ts, hub := startTestServer(t, 3)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, ts.URL)

	write(t, ctx, conn, proto.MarkerReport)
	if got := read(t, ctx, conn); got != proto.TokenNoUsers {
		t.Fatalf("report = %q", got)
	}

	write(t, ctx, conn, proto.Register("alice"))
	if got := read(t, ctx, conn); got != proto.TokenAccepted {
		t.Fatalf("register reply = %q", got)
	}
	if got := read(t, ctx, conn); !strings.HasPrefix(got, "The server welcomes you") {
		t.Fatalf("unexpected welcome %q", got)
	}
	if got := read(t, ctx, conn); !strings.HasSuffix(got, "Server: alice has connected to the server.") {
		t.Fatalf("unexpected notice %q", got)
	}

	write(t, ctx, conn, "[10:00:00] alice: over websocket")
	if got := read(t, ctx, conn); got != "[10:00:00] alice: over websocket" {
		t.Fatalf("chat echo = %q", got)
	}

	if !hub.Contains("alice") {
		t.Fatal("alice should be registered")
	}

	write(t, ctx, conn, proto.MarkerQuit)
	deadline := time.Now().Add(2 * time.Second)
	for hub.Contains("alice") && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if hub.Contains("alice") {
		t.Fatal("alice should be removed after quit")
	}
}

func TestWebSocketBinaryFrameDisconnects(t *testing.T) {
	ts, hub := startTestServer(t, 3)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, ts.URL)
	write(t, ctx, conn, proto.Register("bob"))
	read(t, ctx, conn)

	if err := conn.Write(ctx, websocket.MessageBinary, []byte{0x01}); err != nil {
		t.Fatalf("write binary: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for hub.Contains("bob") && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if hub.Contains("bob") {
		t.Fatal("binary frame should end the session")
	}
}

func TestParticipantsEndpoint(t *testing.T) {
	ts, _ := startTestServer(t, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, ts.URL)
	write(t, ctx, conn, proto.Register("carol"))
	if got := read(t, ctx, conn); got != proto.TokenAccepted {
		t.Fatalf("register reply = %q", got)
	}

	resp, err := ts.Client().Get(ts.URL + "/api/participants")
	if err != nil {
		t.Fatalf("participants request failed: %v", err)
	}
	defer resp.Body.Close()

	var body ParticipantsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 1 || body.MaxUsers != 2 || len(body.Participants) != 1 {
		t.Fatalf("unexpected body: %+v", body)
	}
	if !strings.HasPrefix(body.Participants[0], "carol at IP: 127.0.0.1 and port: ") {
		t.Fatalf("unexpected entry %q", body.Participants[0])
	}
}

func TestWebSocketUpgradeReachesRelay(t *testing.T) {
	ts, _ := startTestServer(t, 3)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, ts.URL)
	write(t, ctx, conn, proto.MarkerReport)
	if got := read(t, ctx, conn); got != proto.TokenNoUsers {
		t.Fatalf("report before registration = %q", got)
	}
}

func TestNonWebSocketPathsUseRouter(t *testing.T) {
	ts, _ := startTestServer(t, 3)

	resp, err := ts.Client().Get(ts.URL + "/nope")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 404 {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}
