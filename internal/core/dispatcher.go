package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/vovakirdan/chatrelay/internal/proto"
)

// dispatch reads frames until the session ends. A nil return means the client quit.
func (h *Hub) dispatch(ctx context.Context, s *Session) error {
	for {
		frame, err := s.conn.ReadFrame()
		if err != nil {
			return fmt.Errorf("%w: read: %w", ErrPeerDisconnected, err)
		}

		in := proto.Parse(frame)
		s.log.Debug().Stringer("kind", in.Kind).Int("bytes", len(frame)).Msg("inbound frame")

		err = h.handle(ctx, s, in)
		switch {
		case err == nil:
		case errors.Is(err, errQuit):
			return nil
		case errors.Is(err, ErrProtocolViolation):
			s.log.Warn().Err(err).Stringer("kind", in.Kind).Msg("protocol violation")
		default:
			return err
		}
	}
}

func (h *Hub) handle(ctx context.Context, s *Session, in proto.Inbound) error {
	switch in.Kind {
	case proto.KindReport:
		return reply(s, h.Report())

	case proto.KindJoin:
		if h.Full() {
			s.log.Info().Msg("join request rejected: server full")
			return reply(s, proto.TokenMaxUsers)
		}
		return reply(s, proto.TokenAccepted)

	case proto.KindRegister:
		err := h.Register(ctx, s, in.Body)
		if err == nil {
			s.log.Info().Str("nickname", in.Body).Msg("joined the chat")
			return nil
		}
		token, ok := rejectionToken(err)
		if !ok {
			return err
		}
		s.log.Info().Err(err).Str("nickname", in.Body).Msg("registration rejected")
		if replyErr := reply(s, token); replyErr != nil {
			return replyErr
		}
		if errors.Is(err, ErrProtocolViolation) {
			return err
		}
		return nil

	case proto.KindQuit:
		return errQuit

	case proto.KindDownloadDone:
		s.log.Info().Msg("download done for a client")
		return nil

	case proto.KindAttachment:
		att, err := h.RelayAttachment(ctx, s, in.Body)
		if err != nil {
			return err
		}
		s.log.Info().Str("filename", att.Filename).Int("bytes", len(att.Payload)).Msg("attachment relayed")
		return nil

	default:
		if in.Body == "" {
			return nil
		}
		if !h.Chat(ctx, in.Body) {
			s.log.Debug().Msg("chat dropped: no registered participants")
		}
		return nil
	}
}

func reply(s *Session, frame string) error {
	if !s.enqueue(frame) {
		return fmt.Errorf("%w: %w", ErrPeerDisconnected, ErrSlowConsumer)
	}
	return nil
}
