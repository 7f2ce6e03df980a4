package http

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"
)

var errBinaryFrame = errors.New("binary frames are not supported")

// WSHandler upgrades HTTP connections and hands them to the relay dispatcher.
type WSHandler struct {
	relay    Relay
	maxFrame int
	log      *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(relay Relay, maxFrame int, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{relay: relay, maxFrame: maxFrame, log: logger}
}

// ServeHTTP upgrades GET /ws. It blocks until the session ends.
func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	if h.maxFrame > 0 {
		conn.SetReadLimit(int64(h.maxFrame))
	}

	ctx := r.Context()
	wc := &wsConn{
		ctx:    ctx,
		conn:   conn,
		remote: r.RemoteAddr,
		closed: make(chan struct{}),
	}
	h.relay.Serve(ctx, wc)

	// The request context ends with this handler, and queued frames may still be flushing.
	<-wc.closed
}

// wsConn maps one text message to one protocol unit.
type wsConn struct {
	ctx    context.Context
	conn   *websocket.Conn
	remote string

	closeOnce sync.Once
	closed    chan struct{}
}

func (c *wsConn) ReadFrame() (string, error) {
	typ, data, err := c.conn.Read(c.ctx)
	if err != nil {
		return "", err
	}
	if typ != websocket.MessageText {
		return "", fmt.Errorf("%w: got %v", errBinaryFrame, typ)
	}
	return string(data), nil
}

func (c *wsConn) WriteFrame(payload string) error {
	return c.conn.Write(c.ctx, websocket.MessageText, []byte(payload))
}

func (c *wsConn) RemoteAddr() string {
	return c.remote
}

func (c *wsConn) Close() error {
	err := c.conn.Close(websocket.StatusNormalClosure, "closing")
	c.closeOnce.Do(func() { close(c.closed) })
	return err
}
