package mqx

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventMessage(t *testing.T) {
	owner := uuid.New()
	evt := NewEvent(EventEntitiesBulkPatched, owner, "deck", map[string]any{"fields": []string{"series"}})

	msg, err := eventMessage(evt)
	require.NoError(t, err)
	assert.Equal(t, EventEntitiesBulkPatched, msg.Type)
	assert.Equal(t, evt.ID.String(), msg.MessageId)
	assert.Equal(t, evt.At, msg.Timestamp)
	assert.Equal(t, uint8(amqp.Persistent), msg.DeliveryMode)
	assert.Equal(t, amqp.Table{"owner_id": owner.String(), "kind": "deck"}, msg.Headers)

	var got Event
	require.NoError(t, json.Unmarshal(msg.Body, &got))
	assert.Equal(t, evt.ID, got.ID)
}

func TestEventMessage_EncodeError(t *testing.T) {
	_, err := eventMessage(NewEvent("x", uuid.New(), "card", make(chan int)))
	assert.ErrorContains(t, err, "encode event x")
}

type eventRecorder struct {
	recorder
	events []Event
}

func (r *eventRecorder) PublishEvent(_ context.Context, evt Event) error {
	r.events = append(r.events, evt)
	return nil
}

func TestEmit_PrefersEventPublisher(t *testing.T) {
	rec := &eventRecorder{}
	Emit(context.Background(), rec, NewEvent(EventFieldValueDeleted, uuid.New(), "pack", nil))
	require.Len(t, rec.events, 1)
	assert.Equal(t, EventFieldValueDeleted, rec.events[0].Type)
	assert.Empty(t, rec.keys)
}
