package core

import "context"

// Chat relays text to everyone. Nothing is delivered or logged while the
// registry is empty; the return value reports whether the text was published.
func (h *Hub) Chat(ctx context.Context, text string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.registry.Size() == 0 {
		return false
	}
	h.publishLocked(ctx, text)
	return true
}

// publishLocked appends text to the log and fans it out to every member.
// Recipients whose queue is full are disconnected asynchronously.
// The caller must hold h.mu.
func (h *Hub) publishLocked(ctx context.Context, text string) {
	if err := h.history.Append(ctx, text, h.now()); err != nil {
		h.log.Warn().Err(err).Msg("history append failed")
	}

	for _, s := range h.registry.members {
		if s.enqueue(text) {
			continue
		}
		s.log.Warn().Msg("dropping slow recipient")
		go h.Disconnect(context.WithoutCancel(ctx), s, ErrSlowConsumer)
	}
}
