package email

import (
	"context"
	"net/mail"
	"strings"
)

// Message is a single transactional email.
type Message struct {
	From    string
	To      []string
	ReplyTo string
	Subject string
	HTML    string
	Text    string
}

// SendResult is what the provider reports for an accepted message.
type SendResult struct {
	ID string
}

// Sender delivers a message through one provider.
type Sender interface {
	Send(ctx context.Context, msg *Message) (*SendResult, error)
}

// AddressOnly returns the bare address of a "Name <addr>" string, or the
// input unchanged when it cannot be parsed.
func AddressOnly(address string) string {
	parsed, err := mail.ParseAddress(address)
	if err != nil {
		return strings.TrimSpace(address)
	}
	return parsed.Address
}
