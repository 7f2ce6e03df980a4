package proto

import "strings"

// Inbound markers recognised by the relay. Matching is literal and case-sensitive.
const (
	MarkerReport       = "<request_report>"
	MarkerJoin         = "<request_join>"
	MarkerNickname     = "<client_nickname>"
	MarkerQuit         = "<client_sent_q>"
	MarkerDownloadDone = "<dl_done>"
	MarkerAttachment   = "<attachment_flag>"
)

// Outbound reply tokens.
const (
	TokenAccepted      = "<ACCEPTED>"
	TokenMaxUsers      = "<MAX_USERS>"
	TokenDuplicateName = "<DUPLICATE_NAME>"
	TokenRejected      = "<REJECTED>"
	TokenNoUsers       = "<NO_USERS>"

	// DirectiveDownload prefixes the filename|payload directive sent back to an attachment's sender.
	DirectiveDownload = "<FOR_DOWNLOAD>"
)

// Kind classifies one inbound protocol unit.
type Kind int

const (
	// KindChat is plain chat text, relayed verbatim.
	KindChat Kind = iota
	// KindReport asks for the participant report.
	KindReport
	// KindJoin asks whether there is room to join.
	KindJoin
	// KindRegister claims a nickname.
	KindRegister
	// KindQuit tears the connection down.
	KindQuit
	// KindDownloadDone acknowledges a locally persisted attachment.
	KindDownloadDone
	// KindAttachment carries a file to relay.
	KindAttachment
)

func (k Kind) String() string {
	switch k {
	case KindChat:
		return "chat"
	case KindReport:
		return "report"
	case KindJoin:
		return "join"
	case KindRegister:
		return "register"
	case KindQuit:
		return "quit"
	case KindDownloadDone:
		return "download_done"
	case KindAttachment:
		return "attachment"
	default:
		return "unknown"
	}
}

// Inbound is a classified protocol unit. Body holds whatever follows a prefix
// marker (the nickname or the attachment body); for chat it is the whole text.
type Inbound struct {
	Kind Kind
	Body string
}

// Parse classifies a frame by its structural marker.
func Parse(frame string) Inbound {
	switch frame {
	case MarkerReport:
		return Inbound{Kind: KindReport}
	case MarkerJoin:
		return Inbound{Kind: KindJoin}
	case MarkerQuit:
		return Inbound{Kind: KindQuit}
	case MarkerDownloadDone:
		return Inbound{Kind: KindDownloadDone}
	}

	if rest, ok := strings.CutPrefix(frame, MarkerNickname); ok {
		return Inbound{Kind: KindRegister, Body: rest}
	}
	if rest, ok := strings.CutPrefix(frame, MarkerAttachment); ok {
		return Inbound{Kind: KindAttachment, Body: rest}
	}
	return Inbound{Kind: KindChat, Body: frame}
}

// Register builds the frame a client sends to claim nickname.
func Register(nickname string) string {
	return MarkerNickname + nickname
}
