package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Message is a single outbound e-mail
type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// Mailer sends e-mail synchronously so callers can roll back on failure
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// VerificationMessage builds the account verification mail
func VerificationMessage(name, email, code string) Message {
	return Message{
		To:      email,
		ToName:  name,
		Subject: "Código de verificación",
		Text: fmt.Sprintf("Hola %s,\n\nTu código de verificación es: %s\n\nEl código expira en 24 horas.",
			name, code),
		HTML: fmt.Sprintf("<p>Hola %s,</p><p>Tu código de verificación es: <strong>%s</strong></p><p>El código expira en 24 horas.</p>",
			name, code),
	}
}

// ConsoleMailer writes mail to the log instead of delivering it
type ConsoleMailer struct {
	logger     *slog.Logger
	subjPrefix string

	mu   sync.Mutex
	sent []Message
}

func NewConsoleMailer(appName string, logger *slog.Logger) *ConsoleMailer {
	return &ConsoleMailer{
		logger:     logger,
		subjPrefix: "[" + appName + "] ",
	}
}

func (m *ConsoleMailer) Send(ctx context.Context, msg Message) error {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()

	m.logger.InfoContext(ctx, "Email",
		"to", msg.To,
		"subject", m.subjPrefix+msg.Subject,
		"body", msg.Text)
	return nil
}

// Sent returns the messages written so far
func (m *ConsoleMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Message, len(m.sent))
	copy(out, m.sent)
	return out
}
