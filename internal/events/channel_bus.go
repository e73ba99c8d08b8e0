package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const userTopicPrefix = "user."

// ChannelBus fans live payloads out to the subscribers of a single user.
// Nothing is persisted: a user with no open subscription misses the push.
type ChannelBus struct {
	pubSub *gochannel.GoChannel
	logger *slog.Logger
}

func NewChannelBus(logger *slog.Logger) *ChannelBus {
	return &ChannelBus{
		pubSub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 64},
			watermill.NewSlogLogger(logger),
		),
		logger: logger,
	}
}

func userTopic(userID string) string {
	return userTopicPrefix + userID
}

// PublishToUser sends payload, JSON encoded, to every live subscription of userID
func (b *ChannelBus) PublishToUser(ctx context.Context, userID, kind string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal live payload: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set("kind", kind)
	msg.SetContext(ctx)

	if err := b.pubSub.Publish(userTopic(userID), msg); err != nil {
		return fmt.Errorf("failed to push to user %s: %w", userID, err)
	}
	return nil
}

// Subscribe returns the live stream of userID. The channel closes when ctx is
// done. Each message must be acked before the next one is delivered.
func (b *ChannelBus) Subscribe(ctx context.Context, userID string) (<-chan *message.Message, error) {
	messages, err := b.pubSub.Subscribe(ctx, userTopic(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe user %s: %w", userID, err)
	}
	return messages, nil
}

func (b *ChannelBus) Close() error {
	return b.pubSub.Close()
}
