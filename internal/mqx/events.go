package mqx

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"cardvault-api/internal/logx"
)

var mqLogger = logx.GetScope("mqx")

// Routing keys of the events emitted by the collection service.
const (
	EventFieldSettingUpdated = "field_setting.updated"
	EventFieldActivated      = "field.activated"
	EventFieldValueDeleted   = "field.value_deleted"
	EventEntitiesBulkPatched = "entities.bulk_patched"
)

// Event is the JSON envelope of every message.
type Event struct {
	ID      uuid.UUID `json:"id"`
	Type    string    `json:"type"`
	OwnerID uuid.UUID `json:"owner_id"`
	Kind    string    `json:"kind"`
	At      time.Time `json:"at"`
	Data    any       `json:"data"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(typ string, owner uuid.UUID, kind string, data any) Event {
	return Event{ID: uuid.New(), Type: typ, OwnerID: owner, Kind: kind, At: time.Now().UTC(), Data: data}
}

// Emit publishes evt with its type as routing key. A nil publisher is a no-op;
// failures are logged, never returned.
func Emit(ctx context.Context, p Publisher, evt Event) {
	if p == nil {
		return
	}
	if ep, ok := p.(EventPublisher); ok {
		if err := ep.PublishEvent(ctx, evt); err != nil {
			mqLogger.Sugar().Warnf("publish %s: %v", evt.Type, err)
		}
		return
	}
	b, err := json.Marshal(evt)
	if err != nil {
		mqLogger.Sugar().Errorf("encode event %s: %v", evt.Type, err)
		return
	}
	if err := p.Publish(ctx, evt.Type, b); err != nil {
		mqLogger.Sugar().Warnf("publish %s: %v", evt.Type, err)
	}
}
