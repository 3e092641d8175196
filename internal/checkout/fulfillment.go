package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/learnhub/learnhub-backend/pkg/db/models"
	"github.com/learnhub/learnhub-backend/pkg/enums"
	pkgerrors "github.com/learnhub/learnhub-backend/pkg/errors"
	"github.com/learnhub/learnhub-backend/pkg/logger"
	"github.com/learnhub/learnhub-backend/pkg/outbox/payloads"
)

type enrollmentWriter interface {
	InsertActive(ctx context.Context, rows []models.Enrollment) (int64, error)
}

type cartClearer interface {
	DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

// FulfillmentResult reports what a purchase grant changed.
type FulfillmentResult struct {
	Enrolled     int64
	CartsCleared int64
}

// Fulfiller grants enrollments for a confirmed purchase and empties the
// buyer's cart. Both writes are safe to repeat for the same purchase.
type Fulfiller struct {
	enrollments enrollmentWriter
	cart        cartClearer
	logg        *logger.Logger
}

// NewFulfiller expects repositories bound to the service-role connection.
func NewFulfiller(enrollments enrollmentWriter, cart cartClearer, logg *logger.Logger) (*Fulfiller, error) {
	if enrollments == nil {
		return nil, fmt.Errorf("enrollment writer required")
	}
	if cart == nil {
		return nil, fmt.Errorf("cart clearer required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Fulfiller{enrollments: enrollments, cart: cart, logg: logg}, nil
}

// Fulfill runs the enrollment insert and the cart delete independently. A
// failure of one does not skip the other; the combined error carries the
// POST_PAYMENT_WRITE_FAILURE code.
func (f *Fulfiller) Fulfill(ctx context.Context, event payloads.PurchaseConfirmedEvent) (*FulfillmentResult, error) {
	if event.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase is missing user id")
	}
	ctx = f.logg.WithFields(ctx, map[string]any{
		"user_id":          event.UserID.String(),
		"gateway_order_id": event.GatewayOrderID,
		"provider":         event.Provider,
	})

	enrolledAt := event.PaidAt
	if enrolledAt.IsZero() {
		enrolledAt = time.Now()
	}
	var orderID *string
	if event.GatewayOrderID != "" {
		id := event.GatewayOrderID
		orderID = &id
	}
	rows := make([]models.Enrollment, 0, len(event.CourseIDs))
	for _, courseID := range event.CourseIDs {
		rows = append(rows, models.Enrollment{
			UserID:         event.UserID,
			CourseID:       courseID,
			Status:         enums.EnrollmentStatusActive,
			Source:         enums.EnrollmentSourceCheckout,
			GatewayOrderID: orderID,
			EnrolledAt:     enrolledAt.UTC(),
		})
	}

	result := &FulfillmentResult{}
	var errs error

	enrolled, err := f.enrollments.InsertActive(ctx, rows)
	if err != nil {
		f.logg.Error(f.logg.WithField(ctx, "step", "insert_enrollments"), "post-payment enrollment insert failed", err)
		errs = multierr.Append(errs, fmt.Errorf("insert enrollments: %w", err))
	} else {
		result.Enrolled = enrolled
	}

	cleared, err := f.cart.DeleteByUser(ctx, event.UserID)
	if err != nil {
		f.logg.Error(f.logg.WithField(ctx, "step", "clear_cart"), "post-payment cart clear failed", err)
		errs = multierr.Append(errs, fmt.Errorf("clear cart: %w", err))
	} else {
		result.CartsCleared = cleared
	}

	if errs != nil {
		return result, pkgerrors.Wrap(pkgerrors.CodePostPaymentWrite, errs, "post-payment writes failed")
	}
	f.logg.Info(f.logg.WithFields(ctx, map[string]any{
		"enrolled":     result.Enrolled,
		"cart_removed": result.CartsCleared,
		"course_count": len(rows),
	}), "purchase fulfilled")
	return result, nil
}
