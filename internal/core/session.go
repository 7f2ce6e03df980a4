package core

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatrelay/internal/utils"
)

// Conn is a framed, bi-directional channel to one client.
type Conn interface {
	// ReadFrame blocks until one protocol unit has arrived.
	ReadFrame() (string, error)
	// WriteFrame sends one protocol unit.
	WriteFrame(payload string) error
	// RemoteAddr is the peer address in host:port form.
	RemoteAddr() string
	Close() error
}

// State is the lifecycle position of a session.
type State int

const (
	// StateConnected is a session that has not registered a nickname.
	StateConnected State = iota
	// StateRegistered is a member of the registry.
	StateRegistered
	// StateClosed is terminal.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateRegistered:
		return "registered"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session is one accepted connection and its registration state.
//
// Outbound traffic goes through a bounded queue drained by a dedicated writer
// goroutine, so enqueueing never blocks on the network.
type Session struct {
	ID         string
	RemoteAddr string

	conn Conn
	out  chan []string
	done chan struct{}
	once sync.Once

	// flush asks the writer to send what is queued and then close.
	flush     chan struct{}
	flushOnce sync.Once

	mu       sync.RWMutex
	nickname string
	state    State

	log zerolog.Logger
}

func newSession(conn Conn, queueSize int, logger *zerolog.Logger) *Session {
	if queueSize <= 0 {
		queueSize = 1
	}
	id := utils.NewID()
	return &Session{
		ID:         id,
		RemoteAddr: conn.RemoteAddr(),
		conn:       conn,
		out:        make(chan []string, queueSize),
		done:       make(chan struct{}),
		flush:      make(chan struct{}),
		log: logger.With().
			Str("session_id", id).
			Str("remote", conn.RemoteAddr()).
			Logger(),
	}
}

// Nickname returns the registered nickname, or "" before registration.
func (s *Session) Nickname() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nickname
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) markRegistered(nickname string) {
	s.mu.Lock()
	s.nickname = nickname
	s.state = StateRegistered
	s.mu.Unlock()
}

// markClosed reports whether this call performed the transition.
func (s *Session) markClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return false
	}
	s.state = StateClosed
	return true
}

// enqueue hands a batch of frames to the writer without blocking.
// It reports false if the session is closed or its queue is full.
func (s *Session) enqueue(frames ...string) bool {
	select {
	case <-s.done:
		return false
	case <-s.flush:
		return false
	default:
	}

	select {
	case s.out <- frames:
		return true
	default:
		return false
	}
}

// writeLoop drains the outbound queue until the session closes or a write fails.
func (s *Session) writeLoop(onFailure func(error)) {
	for {
		select {
		case batch := <-s.out:
			if err := s.write(batch); err != nil {
				onFailure(err)
				// Disconnect is a no-op if a quit already started the flush.
				s.close()
				return
			}
		case <-s.flush:
			s.drain()
			s.close()
			return
		case <-s.done:
			return
		}
	}
}

func (s *Session) write(batch []string) error {
	for _, frame := range batch {
		if err := s.conn.WriteFrame(frame); err != nil {
			return err
		}
	}
	return nil
}

// drain writes every batch still queued. It stops at the first write error.
func (s *Session) drain() {
	for {
		select {
		case batch := <-s.out:
			if err := s.write(batch); err != nil {
				s.log.Debug().Err(err).Msg("flush queued frames")
				return
			}
		default:
			return
		}
	}
}

// closeAfterFlush hands the connection to the writer, which closes it once the
// queue is empty. The connection is closed after timeout in any case.
func (s *Session) closeAfterFlush(timeout time.Duration) {
	s.flushOnce.Do(func() {
		close(s.flush)
		timer := time.AfterFunc(timeout, s.close)
		go func() {
			<-s.done
			timer.Stop()
		}()
	})
}

// close stops the writer and closes the connection. Safe to call repeatedly.
func (s *Session) close() {
	s.once.Do(func() {
		close(s.done)
		if err := s.conn.Close(); err != nil {
			s.log.Debug().Err(err).Msg("close connection")
		}
	})
}
