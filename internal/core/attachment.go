package core

import (
	"context"
	"fmt"

	"github.com/vovakirdan/chatrelay/internal/proto"
)

// RelayAttachment publishes the attachment's rendered line like ordinary chat
// and queues the download directive back to the sender.
func (h *Hub) RelayAttachment(ctx context.Context, s *Session, body string) (proto.Attachment, error) {
	att, err := proto.ParseAttachment(body)
	if err != nil {
		return proto.Attachment{}, fmt.Errorf("%w: %w", ErrProtocolViolation, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if s.State() != StateRegistered {
		return proto.Attachment{}, fmt.Errorf("%w: attachment from unregistered session", ErrProtocolViolation)
	}

	h.publishLocked(ctx, att.Rendered)
	if !s.enqueue(att.Directive()) {
		return att, fmt.Errorf("%w: %w", ErrPeerDisconnected, ErrSlowConsumer)
	}
	return att, nil
}
