package core

import (
	"net/mail"
)

type (
	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Bcc     []mail.Address
		Subject string

		TextContent string
		HTMLContent string
	}

	// EmailService is any service that can send emails.
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

func (m *EmailMessage) HasRecipients() bool {
	return len(m.To) > 0 || len(m.Cc) > 0 || len(m.Bcc) > 0
}

func (m *EmailMessage) HasContent() bool {
	return m.TextContent != "" || m.HTMLContent != ""
}
