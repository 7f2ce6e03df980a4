package tcp

import (
	"net"

	"github.com/vovakirdan/chatrelay/internal/proto"
)

// Conn adapts a net.Conn to core.Conn with length-prefixed framing.
type Conn struct {
	conn  net.Conn
	codec *proto.Codec
}

// NewConn wraps c. Frames above maxFrame bytes end the connection.
func NewConn(c net.Conn, maxFrame int) *Conn {
	return &Conn{
		conn:  c,
		codec: proto.NewCodec(c, maxFrame),
	}
}

// ReadFrame reads one frame.
func (c *Conn) ReadFrame() (string, error) {
	return c.codec.ReadFrame()
}

// WriteFrame writes one frame.
func (c *Conn) WriteFrame(payload string) error {
	return c.codec.WriteFrame(payload)
}

// RemoteAddr returns the peer's host:port.
func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// Close closes the socket.
func (c *Conn) Close() error {
	return c.conn.Close()
}
