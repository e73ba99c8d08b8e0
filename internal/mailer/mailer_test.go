package mailer

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"
)

func TestVerificationMessage(t *testing.T) {
	msg := VerificationMessage("Ana", "ana@example.com", "123456")

	if msg.To != "ana@example.com" || msg.ToName != "Ana" {
		t.Errorf("unexpected recipient %q <%s>", msg.ToName, msg.To)
	}
	if !strings.Contains(msg.Text, "123456") || !strings.Contains(msg.HTML, "123456") {
		t.Error("code missing from body")
	}
}

func TestConsoleMailer_Send(t *testing.T) {
	m := NewConsoleMailer("Cursos", slog.New(slog.NewTextHandler(os.Stdout, nil)))

	if err := m.Send(context.Background(), VerificationMessage("Ana", "ana@example.com", "000111")); err != nil {
		t.Fatalf("send: %v", err)
	}

	sent := m.Sent()
	if len(sent) != 1 || sent[0].To != "ana@example.com" {
		t.Fatalf("unexpected sent messages %+v", sent)
	}
}

func TestSendGridMailer_Prepare(t *testing.T) {
	m := NewSendGridMailer("key", "Cursos", "no-reply@example.com")
	v3 := m.prepare(Message{To: "ana@example.com", ToName: "Ana", Subject: "Hola", Text: "t", HTML: "<p>t</p>"})

	if v3.From.Address != "no-reply@example.com" {
		t.Errorf("unexpected from %s", v3.From.Address)
	}
	if len(v3.Personalizations) != 1 || v3.Personalizations[0].Subject != "[Cursos] Hola" {
		t.Errorf("unexpected personalization %+v", v3.Personalizations)
	}
	if len(v3.Content) != 2 {
		t.Errorf("expected text and html content, got %d", len(v3.Content))
	}
}
