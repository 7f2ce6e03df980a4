package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatrelay/internal/proto"
	"github.com/vovakirdan/chatrelay/internal/store"
	"github.com/vovakirdan/chatrelay/internal/store/memory"
)

const (
	// DefaultMaxUsers is the room capacity when none is configured.
	DefaultMaxUsers = 3
	// DefaultOutboundQueue is the per-session queue length in batches.
	DefaultOutboundQueue = 64

	noticeTimeFormat = "[15:04:05]"

	// flushTimeout bounds how long a quitting session may spend sending its queue.
	flushTimeout = 2 * time.Second
)

const welcomeText = "The server welcomes you to the chatroom.\n" +
	"Type lowercase 'q' and press enter at any time to quit the chatroom.\n" +
	"Type lowercase 'a' and press enter at any time to upload an attachment to the chatroom.\n" +
	"Here is a history of the chatroom:"

// Options configures a Hub.
type Options struct {
	MaxUsers      int
	OutboundQueue int
	History       store.HistoryStore
	Logger        *zerolog.Logger
	// Now overrides the clock used for notice timestamps.
	Now func() time.Time
}

// Hub owns the registry and the message log. One mutex guards both, so
// registration, removal, snapshots and broadcasts are linearizable.
type Hub struct {
	mu       sync.Mutex
	registry *Registry
	history  *History
	sessions map[*Session]struct{}
	closed   bool

	queueSize int
	now       func() time.Time
	log       *zerolog.Logger
}

// NewHub builds a hub. Zero options fall back to defaults and an in-memory history.
func NewHub(opts Options) *Hub {
	if opts.MaxUsers <= 0 {
		opts.MaxUsers = DefaultMaxUsers
	}
	if opts.OutboundQueue <= 0 {
		opts.OutboundQueue = DefaultOutboundQueue
	}
	if opts.History == nil {
		opts.History = memory.New()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		nop := zerolog.Nop()
		opts.Logger = &nop
	}

	return &Hub{
		registry:  NewRegistry(opts.MaxUsers),
		history:   NewHistory(opts.History),
		sessions:  make(map[*Session]struct{}),
		queueSize: opts.OutboundQueue,
		now:       opts.Now,
		log:       opts.Logger,
	}
}

// Serve runs the dispatcher for conn until the client quits, the connection
// fails or ctx is cancelled. On error the connection is closed before Serve
// returns. After a quit the writer first sends what is still queued, so the
// connection may close shortly after.
func (h *Hub) Serve(ctx context.Context, conn Conn) {
	s := newSession(conn, h.queueSize, h.log)
	if err := h.track(s); err != nil {
		s.close()
		return
	}
	s.log.Info().Msg("session connected")

	// Cleanup must still reach the history store after ctx is cancelled.
	cleanupCtx := context.WithoutCancel(ctx)

	go s.writeLoop(func(err error) {
		h.Disconnect(cleanupCtx, s, fmt.Errorf("%w: write: %w", ErrPeerDisconnected, err))
	})

	stop := context.AfterFunc(ctx, func() {
		h.Disconnect(cleanupCtx, s, ctx.Err())
	})
	defer stop()

	err := h.dispatch(ctx, s)
	h.Disconnect(cleanupCtx, s, err)
}

func (h *Hub) track(s *Session) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHubClosed
	}
	h.sessions[s] = struct{}{}
	return nil
}

// Register claims nickname for s. On success the session receives the
// accepted token, the welcome text and the history replay as one batch,
// and the joined notice is published to everyone.
func (h *Hub) Register(ctx context.Context, s *Session, nickname string) error {
	if nickname == "" {
		return fmt.Errorf("%w: empty nickname", ErrProtocolViolation)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	switch s.State() {
	case StateRegistered:
		return fmt.Errorf("%w: already registered as %q", ErrProtocolViolation, s.Nickname())
	case StateClosed:
		return ErrPeerDisconnected
	}

	if err := h.registry.TryRegister(nickname, s); err != nil {
		return err
	}

	lines, err := h.history.Lines(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("history replay unavailable")
	}
	batch := make([]string, 0, len(lines)+2)
	batch = append(batch, proto.TokenAccepted, welcomeText)
	batch = append(batch, lines...)
	if !s.enqueue(batch...) {
		go h.Disconnect(context.WithoutCancel(ctx), s, ErrSlowConsumer)
	}

	h.publishLocked(ctx, h.stamp()+" Server: "+nickname+" has connected to the server.")
	return nil
}

// Disconnect removes s from the registry, announces the departure if it was
// registered and closes the connection. A nil cause is a clean quit: frames
// already queued for s are written before the connection closes. It is
// idempotent and safe to call from any goroutine.
func (h *Hub) Disconnect(ctx context.Context, s *Session, cause error) {
	h.mu.Lock()
	if !s.markClosed() {
		h.mu.Unlock()
		return
	}
	nickname := s.Nickname()
	wasMember := h.registry.Remove(s)
	delete(h.sessions, s)
	if wasMember {
		h.publishLocked(ctx, h.stamp()+" "+nickname+" has left the chat.")
	}
	h.mu.Unlock()

	if cause == nil {
		s.closeAfterFlush(flushTimeout)
	} else {
		s.close()
	}

	ev := s.log.Info().Str("nickname", nickname).Bool("registered", wasMember)
	if cause != nil {
		ev = ev.AnErr("cause", cause)
	}
	ev.Msg("session disconnected")
}

// Full reports whether the registry is at capacity.
func (h *Hub) Full() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.registry.Full()
}

// Participants returns a point-in-time report of the registry.
func (h *Hub) Participants() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.registry.Snapshot()
}

// Report renders the status reply. The lock is released before the caller sends it.
func (h *Hub) Report() string {
	return proto.ReportReply(h.Participants())
}

// Size returns the number of registered sessions.
func (h *Hub) Size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.registry.Size()
}

// Contains reports whether nickname is registered.
func (h *Hub) Contains(nickname string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.registry.Contains(nickname)
}

// MaxUsers returns the configured capacity.
func (h *Hub) MaxUsers() int {
	return h.registry.Max()
}

// HistoryLen returns the number of lines in the message log.
func (h *Hub) HistoryLen(ctx context.Context) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.history.Len(ctx)
}

// Close disconnects every session and refuses new ones. Sessions are closed
// concurrently, so one slow close handshake does not hold up the rest.
func (h *Hub) Close(ctx context.Context) {
	h.mu.Lock()
	h.closed = true
	sessions := make([]*Session, 0, len(h.sessions))
	for s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.Unlock()

	var wg sync.WaitGroup
	for _, s := range sessions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Disconnect(ctx, s, ErrHubClosed)
		}()
	}
	wg.Wait()
}

func (h *Hub) stamp() string {
	return h.now().Format(noticeTimeFormat)
}
