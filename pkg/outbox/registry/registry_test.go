package registry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/learnhub/learnhub-backend/pkg/db/models"
	"github.com/learnhub/learnhub-backend/pkg/enums"
	"github.com/learnhub/learnhub-backend/pkg/outbox"
	"github.com/learnhub/learnhub-backend/pkg/outbox/payloads"
)

func TestEventRegistryResolveSuccess(t *testing.T) {
	reg := NewEventRegistry()

	courseID := uuid.New()
	event := models.OutboxEvent{
		EventType:     enums.EventPurchaseConfirmed,
		AggregateType: enums.AggregatePurchase,
		AggregateID:   uuid.New(),
		Payload: mustEnvelope(t, mustMarshal(t, payloads.PurchaseConfirmedEvent{
			GatewayOrderID: "or_123",
			UserID:         uuid.New(),
			CourseIDs:      []uuid.UUID{courseID},
			AmountCents:    12550,
		})),
	}

	resolved, err := reg.Resolve(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	payload, ok := resolved.Payload.(*payloads.PurchaseConfirmedEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", resolved.Payload)
	}
	if len(payload.CourseIDs) != 1 || payload.CourseIDs[0] != courseID {
		t.Fatalf("payload mismatch %+v", payload)
	}
	if payload.AmountCents != 12550 {
		t.Fatalf("unexpected amount %d", payload.AmountCents)
	}
	if resolved.Envelope.EventID == "" || resolved.Envelope.OccurredAt.IsZero() {
		t.Fatalf("envelope missing metadata: %+v", resolved.Envelope)
	}
}

func TestEventRegistryResolveRejectsBadRows(t *testing.T) {
	reg := NewEventRegistry()
	validPayload := mustEnvelope(t, []byte(`{"gateway_order_id":"or_1"}`))

	cases := map[string]models.OutboxEvent{
		"unknown event": {
			EventType:     "order_created",
			AggregateType: enums.AggregatePurchase,
			AggregateID:   uuid.New(),
			Payload:       validPayload,
		},
		"aggregate mismatch": {
			EventType:     enums.EventPurchaseConfirmed,
			AggregateType: enums.AggregateEnrollment,
			AggregateID:   uuid.New(),
			Payload:       validPayload,
		},
		"missing aggregate id": {
			EventType:     enums.EventPurchaseConfirmed,
			AggregateType: enums.AggregatePurchase,
			Payload:       validPayload,
		},
		"broken envelope": {
			EventType:     enums.EventPurchaseConfirmed,
			AggregateType: enums.AggregatePurchase,
			AggregateID:   uuid.New(),
			Payload:       json.RawMessage(`{not-json`),
		},
		"null payload": {
			EventType:     enums.EventPurchaseConfirmed,
			AggregateType: enums.AggregatePurchase,
			AggregateID:   uuid.New(),
			Payload:       mustEnvelope(t, []byte("null")),
		},
	}

	for name, event := range cases {
		_, err := reg.Resolve(event)
		if err == nil {
			t.Fatalf("%s: expected error", name)
		}
		var nonRetry NonRetryableError
		if !errors.As(err, &nonRetry) {
			t.Fatalf("%s: expected non-retryable error, got %T", name, err)
		}
	}
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func mustEnvelope(t *testing.T, data []byte) json.RawMessage {
	t.Helper()
	return mustMarshal(t, outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       data,
	})
}
