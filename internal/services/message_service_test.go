package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/course-service/internal/events"
	"github.com/SAP-F-2025/course-service/internal/models"
)

func TestMessageService_SendAndConversation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := newFixture(t)
	bus := events.NewChannelBus(f.logger)
	defer bus.Close()
	svc := NewMessageService(f.repo, bus, f.publisher, f.logger, f.validator)

	ana := f.addUser(t, "ana", models.RoleStudent)
	beto := f.addUser(t, "beto", models.RoleStudent)
	carla := f.addUser(t, "carla", models.RoleStudent)

	stream, err := svc.Subscribe(ctx, beto.ID)
	require.NoError(t, err)

	sent, err := svc.Send(ctx, ana.ID, &models.SendMessageRequest{Recipient: beto.ID, Message: "hola"})
	require.NoError(t, err)

	select {
	case msg := <-stream:
		assert.Equal(t, PrivateMessageKind, msg.Metadata.Get("kind"))
		var pushed models.Message
		require.NoError(t, json.Unmarshal(msg.Payload, &pushed))
		assert.Equal(t, sent.ID, pushed.ID)
		assert.Equal(t, "hola", pushed.Body)
		msg.Ack()
	case <-time.After(2 * time.Second):
		t.Fatal("message was not pushed")
	}

	sentEvents := f.publisher.EventsOfType(events.MessageSent)
	require.Len(t, sentEvents, 1)
	assert.Equal(t, sent.ID, sentEvents[0].Data["message_id"])
	assert.Equal(t, beto.ID, sentEvents[0].Data["recipient_id"])
	assert.NotContains(t, sentEvents[0].Data, "body")

	_, err = svc.Send(ctx, beto.ID, &models.SendMessageRequest{Recipient: ana.ID, Message: "qué tal"})
	require.NoError(t, err)

	conversation, err := svc.Conversation(ctx, ana.ID, ana.ID, beto.ID)
	require.NoError(t, err)
	require.Len(t, conversation, 2)
	assert.Equal(t, "hola", conversation[0].Body)
	assert.Equal(t, "qué tal", conversation[1].Body)

	_, err = svc.Conversation(ctx, carla.ID, ana.ID, beto.ID)
	require.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, MsgConversationDenied, err.Error())

	_, err = svc.Send(ctx, ana.ID, &models.SendMessageRequest{Recipient: "missing", Message: "hola"})
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, MsgRecipientNotFound, err.Error())

	_, err = svc.Send(ctx, ana.ID, &models.SendMessageRequest{Recipient: beto.ID})
	assert.ErrorIs(t, err, ErrValidationFailed)
}
