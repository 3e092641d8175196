package payloads

import (
	"time"

	"github.com/google/uuid"
)

// PurchaseConfirmedEvent is recorded when the gateway reports an order as paid.
// Handling it grants one enrollment per course and clears the buyer's cart.
type PurchaseConfirmedEvent struct {
	GatewayOrderID string      `json:"gateway_order_id"`
	Provider       string      `json:"provider"`
	UserID         uuid.UUID   `json:"user_id"`
	CourseIDs      []uuid.UUID `json:"course_ids"`
	AmountCents    int64       `json:"amount_cents"`
	Currency       string      `json:"currency,omitempty"`
	PaidAt         time.Time   `json:"paid_at"`
}

// EnrollmentCanceledEvent is emitted when an admin revokes an enrollment.
type EnrollmentCanceledEvent struct {
	EnrollmentID uuid.UUID `json:"enrollment_id"`
	UserID       uuid.UUID `json:"user_id"`
	CourseID     uuid.UUID `json:"course_id"`
	CanceledBy   uuid.UUID `json:"canceled_by"`
	CanceledAt   time.Time `json:"canceled_at"`
}

// PurchaseAggregateID derives a stable aggregate id from the gateway order id so
// a replayed confirmation maps onto the same outbox row.
func PurchaseAggregateID(provider, gatewayOrderID string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("learnhub:purchase:"+provider+":"+gatewayOrderID))
}
