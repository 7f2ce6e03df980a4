package proto

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// HeaderSize is the length of the big-endian frame length prefix.
const HeaderSize = 4

// DefaultMaxFrameBytes bounds a single frame payload.
const DefaultMaxFrameBytes = 64 << 10

// ErrFrameTooLarge is returned when a peer announces a frame above the limit.
var ErrFrameTooLarge = errors.New("frame exceeds size limit")

// Codec reads and writes length-prefixed frames. Reads and writes may run
// concurrently with each other but a Codec supports one reader and one writer.
type Codec struct {
	r   *bufio.Reader
	w   io.Writer
	max int
	buf []byte
}

// NewCodec wraps rw. A non-positive maxFrame selects DefaultMaxFrameBytes.
func NewCodec(rw io.ReadWriter, maxFrame int) *Codec {
	if maxFrame <= 0 {
		maxFrame = DefaultMaxFrameBytes
	}
	return &Codec{
		r:   bufio.NewReader(rw),
		w:   rw,
		max: maxFrame,
	}
}

// ReadFrame blocks until a whole frame has arrived.
func (c *Codec) ReadFrame() (string, error) {
	var header [HeaderSize]byte
	if _, err := io.ReadFull(c.r, header[:]); err != nil {
		return "", err
	}
	n := binary.BigEndian.Uint32(header[:])
	if uint64(n) > uint64(c.max) {
		return "", fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, n, c.max)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(c.r, payload); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return "", err
	}
	return string(payload), nil
}

// WriteFrame writes payload as one frame with a single Write call.
func (c *Codec) WriteFrame(payload string) error {
	if len(payload) > c.max {
		return fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, len(payload), c.max)
	}
	c.buf = AppendFrame(c.buf[:0], payload)
	_, err := c.w.Write(c.buf)
	return err
}

// AppendFrame appends the encoded frame for payload to dst.
func AppendFrame(dst []byte, payload string) []byte {
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(payload)))
	return append(dst, payload...)
}
