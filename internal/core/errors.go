package core

import (
	"errors"

	"github.com/vovakirdan/chatrelay/internal/proto"
)

var (
	// ErrProtocolViolation marks a malformed command. It is logged and the connection continues.
	ErrProtocolViolation = errors.New("protocol violation")
	// ErrPeerDisconnected marks a read or write failure. It ends the session.
	ErrPeerDisconnected = errors.New("peer disconnected")
	// ErrSlowConsumer is reported when a session's outbound queue is full.
	ErrSlowConsumer = errors.New("outbound queue full")

	// ErrCapacityFull rejects a registration when the room is full.
	ErrCapacityFull = errors.New("capacity full")
	// ErrDuplicateName rejects a registration whose nickname is taken.
	ErrDuplicateName = errors.New("duplicate name")

	// ErrHubClosed is returned once the hub has shut down.
	ErrHubClosed = errors.New("hub closed")

	errQuit = errors.New("client quit")
)

// rejectionToken maps a registration error to the token sent to the client.
func rejectionToken(err error) (string, bool) {
	switch {
	case errors.Is(err, ErrCapacityFull):
		return proto.TokenMaxUsers, true
	case errors.Is(err, ErrDuplicateName):
		return proto.TokenDuplicateName, true
	case errors.Is(err, ErrProtocolViolation):
		return proto.TokenRejected, true
	default:
		return "", false
	}
}
