package events

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatermillPublisher_GoChannel(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pub, ch := NewGoChannelPublisher("learning.progress", logger)
	defer pub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := ch.Subscribe(ctx, "learning.progress")
	require.NoError(t, err)

	score := 10.0
	event := NewEvent(EventProgressRecorded, ProgressRecordedData{
		Kind: "exercise", UserID: 1, ItemID: 2, StatusID: 3, Score: &score, Created: true,
	})
	require.NoError(t, pub.Publish(ctx, event))

	select {
	case msg := <-messages:
		msg.Ack()
		assert.Equal(t, event.ID, msg.UUID)
		assert.Equal(t, string(EventProgressRecorded), msg.Metadata.Get("event_type"))

		var got struct {
			Type EventType            `json:"type"`
			Data ProgressRecordedData `json:"data"`
		}
		require.NoError(t, json.Unmarshal(msg.Payload, &got))
		assert.Equal(t, EventProgressRecorded, got.Type)
		assert.Equal(t, uint(2), got.Data.ItemID)
		require.NotNil(t, got.Data.Score)
		assert.Equal(t, 10.0, *got.Data.Score)
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}
}

func TestNewPublisher_DefaultsToInProcess(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pub, err := NewPublisher(nil, "topic", logger)
	require.NoError(t, err)
	defer pub.Close()

	// No subscribers: gochannel drops the message without error
	assert.NoError(t, pub.Publish(context.Background(), NewEvent(EventUserRegistered, UserRegisteredData{UserID: 1})))
}

func TestMockEventPublisher(t *testing.T) {
	m := NewMockEventPublisher(nil)
	require.NoError(t, m.Publish(context.Background(), NewEvent(EventUserRegistered, nil)))
	assert.Len(t, m.GetPublishedEvents(), 1)

	m.FailWith(assert.AnError)
	assert.ErrorIs(t, m.Publish(context.Background(), NewEvent(EventUserRegistered, nil)), assert.AnError)
	assert.Len(t, m.GetPublishedEvents(), 1)
}
