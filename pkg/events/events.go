package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jobscout/jobscout/pkg/logger"
)

// Routing keys
const (
	PromptCompleted     = "prompt.completed"
	PromptFailed        = "prompt.failed"
	SubscriptionChanged = "subscription.changed"
)

// Envelope wraps every published event
type Envelope struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

// PromptEvent is the payload of prompt.* events
type PromptEvent struct {
	PromptID         string `json:"prompt_id"`
	UserID           string `json:"user_id"`
	Status           string `json:"status"`
	Model            string `json:"model,omitempty"`
	ProcessingTimeMS int64  `json:"processing_time_ms,omitempty"`
}

// SubscriptionEvent is the payload of subscription.changed
type SubscriptionEvent struct {
	UserID         string `json:"user_id"`
	PlanID         string `json:"plan_id"`
	Status         string `json:"status"`
	SubscriptionID string `json:"subscription_id,omitempty"`
	Source         string `json:"source"` // provider event type
}

// Emitter encodes events and hands them to a Publisher. Failures are logged
// and swallowed; callers never see them.
type Emitter struct {
	publisher Publisher
	logger    logger.Logger
	now       func() time.Time
}

// NewEmitter creates an emitter; a nil publisher drops events
func NewEmitter(publisher Publisher, log logger.Logger) *Emitter {
	if log == nil {
		log = logger.Default()
	}
	if publisher == nil {
		publisher = NewNoopPublisher(log)
	}
	return &Emitter{publisher: publisher, logger: log.With("component", "events"), now: time.Now}
}

// Emit publishes data under routingKey
func (e *Emitter) Emit(ctx context.Context, routingKey string, data any) {
	if e == nil {
		return
	}
	payload, err := json.Marshal(Envelope{
		ID:         uuid.NewString(),
		Type:       routingKey,
		OccurredAt: e.now().UTC(),
		Data:       data,
	})
	if err != nil {
		e.logger.Error("failed to encode event", "routing_key", routingKey, "error", err)
		return
	}
	if err := e.publisher.Publish(ctx, routingKey, payload); err != nil {
		e.logger.Warn("failed to publish event", "routing_key", routingKey, "error", err)
	}
}
