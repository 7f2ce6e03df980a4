package proto

import (
	"errors"
	"fmt"
	"strings"
)

const (
	attachmentDelimiter = "|"
	labelSeparator      = ": "
)

// ErrMalformedAttachment reports an attachment body that cannot be split into its parts.
var ErrMalformedAttachment = errors.New("malformed attachment")

// Attachment is a decoded file transfer.
//
// Rendered is the chat line shown to everyone ("10:00 alice: hello"), Payload
// is the file text with the sender label stripped ("hello").
type Attachment struct {
	Filename string
	Rendered string
	Payload  string
}

// ParseAttachment decodes "filename|label: payload".
func ParseAttachment(body string) (Attachment, error) {
	filename, rendered, ok := strings.Cut(body, attachmentDelimiter)
	if !ok {
		return Attachment{}, fmt.Errorf("%w: missing %q delimiter", ErrMalformedAttachment, attachmentDelimiter)
	}
	if filename == "" {
		return Attachment{}, fmt.Errorf("%w: empty filename", ErrMalformedAttachment)
	}
	_, payload, ok := strings.Cut(rendered, labelSeparator)
	if !ok {
		return Attachment{}, fmt.Errorf("%w: missing sender label", ErrMalformedAttachment)
	}
	return Attachment{
		Filename: filename,
		Rendered: rendered,
		Payload:  payload,
	}, nil
}

// EncodeAttachment builds the inbound frame for an attachment.
func EncodeAttachment(filename, rendered string) string {
	return MarkerAttachment + filename + attachmentDelimiter + rendered
}

// Directive renders the download directive returned to the sender.
func (a Attachment) Directive() string {
	return DirectiveDownload + a.Filename + attachmentDelimiter + a.Payload
}

// ParseDirective splits a download directive into filename and payload.
func ParseDirective(frame string) (filename, payload string, ok bool) {
	rest, ok := strings.CutPrefix(frame, DirectiveDownload)
	if !ok {
		return "", "", false
	}
	return strings.Cut(rest, attachmentDelimiter)
}
