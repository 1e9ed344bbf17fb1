package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type (
	Entity string
	Action string
)

const (
	EntitySubscription Entity = "subscription"
	EntityInvoice      Entity = "invoice"
)

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// ChangeEvent announces that an expense changed on the backend. It carries
// only the identity of the change; consumers fetch the entity themselves.
type ChangeEvent struct {
	EventID    string    `json:"eventId"`
	Entity     Entity    `json:"entity"`
	Action     Action    `json:"action"`
	ID         string    `json:"id"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewChangeEvent stamps a new event with a random id and the current time.
func NewChangeEvent(entity Entity, action Action, id string) ChangeEvent {
	return ChangeEvent{
		EventID:    uuid.NewString(),
		Entity:     entity,
		Action:     action,
		ID:         id,
		OccurredAt: time.Now().UTC(),
	}
}

func (e ChangeEvent) Validate() error {
	switch e.Entity {
	case EntitySubscription, EntityInvoice:
	default:
		return fmt.Errorf("unknown entity %q", e.Entity)
	}
	switch e.Action {
	case ActionCreated, ActionUpdated, ActionDeleted:
	default:
		return fmt.Errorf("unknown action %q", e.Action)
	}
	if e.ID == "" {
		return errors.New("missing entity id")
	}
	return nil
}

// ToJSON converts the event to JSON bytes
func (e ChangeEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ChangeEventFromJSON decodes and validates an event.
func ChangeEventFromJSON(data []byte) (ChangeEvent, error) {
	var ev ChangeEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return ChangeEvent{}, err
	}
	if err := ev.Validate(); err != nil {
		return ChangeEvent{}, err
	}
	return ev, nil
}
