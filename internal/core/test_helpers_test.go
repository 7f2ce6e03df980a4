package core

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vovakirdan/chatrelay/internal/proto"
)

var testClock = func() time.Time {
	return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
}

const stamp = "[10:00:00]"

var portSeq atomic.Int32

// fakeConn is an in-memory Conn. Tests push inbound frames into in and read
// what the session wrote from out.
type fakeConn struct {
	addr   string
	in     chan string
	out    chan string
	closed chan struct{}
	once   sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		addr:   fmt.Sprintf("127.0.0.1:%d", 40000+portSeq.Add(1)),
		in:     make(chan string, 16),
		out:    make(chan string, 256),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) ReadFrame() (string, error) {
	select {
	case f := <-c.in:
		return f, nil
	case <-c.closed:
		return "", io.EOF
	}
}

func (c *fakeConn) WriteFrame(payload string) error {
	select {
	case <-c.closed:
		return net.ErrClosed
	default:
	}
	select {
	case c.out <- payload:
		return nil
	case <-c.closed:
		return net.ErrClosed
	}
}

func (c *fakeConn) RemoteAddr() string { return c.addr }

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) send(frame string) {
	c.in <- frame
}

func newTestHub(t *testing.T, opts Options) *Hub {
	t.Helper()
	if opts.Now == nil {
		opts.Now = testClock
	}
	return NewHub(opts)
}

// connect runs the dispatcher for a fresh fake connection.
func connect(t *testing.T, ctx context.Context, h *Hub) *fakeConn {
	t.Helper()
	c := newFakeConn()
	go h.Serve(ctx, c)
	return c
}

func mustFrame(t *testing.T, c *fakeConn, want string) {
	t.Helper()
	if got := nextFrame(t, c); got != want {
		t.Fatalf("frame = %q, want %q", got, want)
	}
}

func nextFrame(t *testing.T, c *fakeConn) string {
	t.Helper()
	select {
	case f := <-c.out:
		return f
	case <-time.After(2 * time.Second):
		t.Fatalf("no frame received on %s", c.addr)
		return ""
	}
}

func expectNoFrame(t *testing.T, c *fakeConn) {
	t.Helper()
	select {
	case f := <-c.out:
		t.Fatalf("unexpected frame %q on %s", f, c.addr)
	case <-time.After(50 * time.Millisecond):
	}
}

func waitClosed(t *testing.T, c *fakeConn) {
	t.Helper()
	select {
	case <-c.closed:
	case <-time.After(2 * time.Second):
		t.Fatalf("connection %s was not closed", c.addr)
	}
}

// register claims nickname and consumes the accepted token, the welcome text,
// the expected history replay and the session's own joined notice.
func register(t *testing.T, c *fakeConn, nickname string, history ...string) {
	t.Helper()
	c.send(proto.Register(nickname))
	mustFrame(t, c, proto.TokenAccepted)
	mustFrame(t, c, welcomeText)
	for _, line := range history {
		mustFrame(t, c, line)
	}
	mustFrame(t, c, joined(nickname))
}

func joined(nickname string) string {
	return stamp + " Server: " + nickname + " has connected to the server."
}

func left(nickname string) string {
	return stamp + " " + nickname + " has left the chat."
}

// queued flattens whatever is waiting in a writer-less session's queue.
func queued(s *Session) []string {
	var frames []string
	for {
		select {
		case batch := <-s.out:
			frames = append(frames, batch...)
		default:
			return frames
		}
	}
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// slowCloseConn stalls in Close the way a websocket close handshake can.
type slowCloseConn struct {
	*fakeConn
	delay time.Duration
}

func (c *slowCloseConn) Close() error {
	time.Sleep(c.delay)
	return c.fakeConn.Close()
}
