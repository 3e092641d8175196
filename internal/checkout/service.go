package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnhub/learnhub-backend/internal/payments"
	checkoutpkg "github.com/learnhub/learnhub-backend/pkg/checkout"
	"github.com/learnhub/learnhub-backend/pkg/config"
	"github.com/learnhub/learnhub-backend/pkg/db/models"
	"github.com/learnhub/learnhub-backend/pkg/enums"
	pkgerrors "github.com/learnhub/learnhub-backend/pkg/errors"
	"github.com/learnhub/learnhub-backend/pkg/logger"
	"github.com/learnhub/learnhub-backend/pkg/metrics"
	"github.com/learnhub/learnhub-backend/pkg/outbox"
	"github.com/learnhub/learnhub-backend/pkg/outbox/payloads"
	"github.com/learnhub/learnhub-backend/pkg/redis"
)

const (
	lockScope       = "checkout"
	maxInstallments = 12
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type courseCatalog interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Course, error)
}

type ownershipReader interface {
	ActiveCourseIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type locker interface {
	AcquireLock(ctx context.Context, scope, id string, ttl time.Duration) (*redis.Lock, bool, error)
}

type outboxWriter interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) (*models.OutboxEvent, bool, error)
	MarkProcessed(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, cause error) error
}

type purchaseFulfiller interface {
	Fulfill(ctx context.Context, event payloads.PurchaseConfirmedEvent) (*FulfillmentResult, error)
}

// Service turns a cart into a gateway order and grants access once paid.
type Service interface {
	Checkout(ctx context.Context, input Input) (*Result, error)
}

// Input is what the caller submits. Client-side titles and prices are
// dropped before this point; amounts always come from the catalog.
type Input struct {
	UserID       uuid.UUID
	Email        string
	CourseIDs    []uuid.UUID
	CardToken    string
	Installments int
	Customer     CustomerData
}

type CustomerData struct {
	Name     string
	Document string
	Phone    string
}

// Result carries the gateway payload back to the caller unchanged.
type Result struct {
	StatusCode     int
	Status         enums.GatewayOrderStatus
	GatewayOrderID string
	AmountCents    int64
	Fulfilled      bool
	Body           json.RawMessage
}

// Deps groups the collaborators built by the composition root.
type Deps struct {
	Gateway     payments.Gateway
	Courses     courseCatalog
	Enrollments ownershipReader
	// ServiceTx is the service-role connection used for post-payment writes.
	ServiceTx txRunner
	Outbox    outboxWriter
	Fulfiller purchaseFulfiller
	Locker    locker
	Metrics   *metrics.CheckoutMetrics
	Logger    *logger.Logger
}

type service struct {
	gateway     payments.Gateway
	courses     courseCatalog
	enrollments ownershipReader
	tx          txRunner
	outbox      outboxWriter
	fulfiller   purchaseFulfiller
	locker      locker
	metrics     *metrics.CheckoutMetrics
	logg        *logger.Logger
	cfg         config.GatewayConfig
	lockTTL     time.Duration
	now         func() time.Time
	newCode     func() string
}

func NewService(deps Deps, gatewayCfg config.GatewayConfig, checkoutCfg config.CheckoutConfig) (Service, error) {
	if deps.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if deps.Courses == nil {
		return nil, fmt.Errorf("course catalog required")
	}
	if deps.Enrollments == nil {
		return nil, fmt.Errorf("enrollment reader required")
	}
	if deps.ServiceTx == nil {
		return nil, fmt.Errorf("service-role transaction runner required")
	}
	if deps.Outbox == nil {
		return nil, fmt.Errorf("outbox writer required")
	}
	if deps.Fulfiller == nil {
		return nil, fmt.Errorf("fulfiller required")
	}
	logg := deps.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	if strings.TrimSpace(gatewayCfg.CountryCode) == "" {
		gatewayCfg.CountryCode = "55"
	}
	return &service{
		gateway:     deps.Gateway,
		courses:     deps.Courses,
		enrollments: deps.Enrollments,
		tx:          deps.ServiceTx,
		outbox:      deps.Outbox,
		fulfiller:   deps.Fulfiller,
		locker:      deps.Locker,
		metrics:     deps.Metrics,
		logg:        logg,
		cfg:         gatewayCfg,
		lockTTL:     checkoutCfg.LockTTL,
		now:         time.Now,
		newCode:     newOrderCode,
	}, nil
}

func newOrderCode() string {
	return "lh_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (s *service) Checkout(ctx context.Context, input Input) (*Result, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user not authenticated")
	}
	ctx = s.logg.WithUserID(ctx, input.UserID.String())

	courseIDs := input.CourseIDs
	if err := checkoutpkg.ValidateCourseIDs(courseIDs); err != nil {
		s.metrics.IncAttempt(metrics.OutcomeValidation)
		return nil, err
	}
	customer, err := s.validateCustomer(input)
	if err != nil {
		s.metrics.IncAttempt(metrics.OutcomeValidation)
		return nil, err
	}

	if s.locker != nil && s.lockTTL > 0 {
		lock, ok, err := s.locker.AcquireLock(ctx, lockScope, input.UserID.String(), s.lockTTL)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire checkout lock")
		}
		if !ok {
			s.metrics.IncAttempt(metrics.OutcomeConflict)
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "checkout already in progress")
		}
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
				s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "checkout lock release failed")
			}
		}()
	}

	order, err := s.buildOrder(ctx, input, courseIDs, customer)
	if err != nil {
		s.metrics.IncAttempt(metrics.OutcomeValidation)
		return nil, err
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"order_code":   order.Code,
		"provider":     s.gateway.Provider(),
		"amount_cents": order.Total(),
		"item_count":   len(order.Items),
	})

	resp, err := s.submit(ctx, order)
	if err != nil {
		s.metrics.IncAttempt(metrics.OutcomeTransport)
		s.logg.Error(ctx, "payment gateway call failed", err)
		return nil, err
	}
	if !resp.Success {
		s.metrics.IncAttempt(metrics.OutcomeRejected)
		s.logg.Warn(s.logg.WithField(ctx, "gateway_status_code", resp.StatusCode), "payment gateway rejected order")
		return nil, pkgerrors.New(pkgerrors.CodeGatewayRejected, resp.ErrorMessage())
	}

	result := &Result{
		StatusCode:     resp.StatusCode,
		Status:         resp.Status,
		GatewayOrderID: resp.OrderID,
		AmountCents:    order.Total(),
		Body:           resp.Body,
	}
	if !resp.Paid() {
		s.metrics.IncAttempt(metrics.OutcomeUnpaid)
		s.logg.Info(s.logg.WithField(ctx, "gateway_status", resp.RawStatus), "order not paid, skipping fulfillment")
		return result, nil
	}

	s.metrics.IncAttempt(metrics.OutcomePaid)
	result.Fulfilled = s.confirmPurchase(context.WithoutCancel(ctx), input.UserID, courseIDs, order, resp)
	return result, nil
}

func (s *service) validateCustomer(input Input) (payments.Customer, error) {
	if strings.TrimSpace(input.CardToken) == "" {
		return payments.Customer{}, pkgerrors.New(pkgerrors.CodeValidation, "card token is required")
	}
	if input.Installments < 0 || input.Installments > maxInstallments {
		return payments.Customer{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("installments must be between 0 and %d, 0 meaning a single payment", maxInstallments))
	}
	email := strings.TrimSpace(input.Email)
	if email == "" {
		return payments.Customer{}, pkgerrors.New(pkgerrors.CodeValidation, "verified email is required")
	}
	name := strings.TrimSpace(input.Customer.Name)
	if name == "" {
		return payments.Customer{}, pkgerrors.New(pkgerrors.CodeValidation, "customer name is required")
	}
	document := checkoutpkg.DigitsOnly(input.Customer.Document)
	if document == "" {
		return payments.Customer{}, pkgerrors.New(pkgerrors.CodeValidation, "customer document is required")
	}
	phone, ok := checkoutpkg.SplitPhone(input.Customer.Phone, s.cfg.CountryCode)
	if !ok {
		return payments.Customer{}, pkgerrors.New(pkgerrors.CodeValidation, "customer phone is invalid")
	}
	return payments.Customer{
		Name:     name,
		Email:    email,
		Document: document,
		Phone: payments.Phone{
			CountryCode: phone.CountryCode,
			AreaCode:    phone.AreaCode,
			Number:      phone.Number,
		},
	}, nil
}

// buildOrder prices every line from the catalog. Courses the user already
// owns or that no longer exist fail the checkout before the gateway is called.
func (s *service) buildOrder(ctx context.Context, input Input, courseIDs []uuid.UUID, customer payments.Customer) (payments.Order, error) {
	owned, err := s.enrollments.ActiveCourseIDs(ctx, input.UserID)
	if err != nil {
		return payments.Order{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load enrollments")
	}
	if hits := checkoutpkg.OwnedCourses(courseIDs, owned); len(hits) > 0 {
		return payments.Order{}, pkgerrors.New(pkgerrors.CodeAlreadyEnrolled, "already enrolled in one or more courses").WithDetails(map[string]any{
			"course_ids": hits,
		})
	}

	catalog, err := s.courses.FindByIDs(ctx, courseIDs)
	if err != nil {
		return payments.Order{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load courses")
	}

	items := make([]payments.LineItem, 0, len(courseIDs))
	var missing []uuid.UUID
	for _, id := range courseIDs {
		course, ok := catalog[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		items = append(items, payments.LineItem{
			Amount:      checkoutpkg.ToMinorUnits(course.EffectivePrice()),
			Description: checkoutpkg.TruncateRunes(course.Title, checkoutpkg.MaxDescriptionRunes),
			Quantity:    1,
			Code:        course.ID.String(),
		})
	}
	if len(missing) > 0 {
		return payments.Order{}, pkgerrors.New(pkgerrors.CodeNotFound, "one or more courses no longer exist").WithDetails(map[string]any{
			"course_ids": missing,
		})
	}

	installments := input.Installments
	if installments == 0 {
		installments = 1
	}
	order := payments.Order{
		Code:     s.newCode(),
		Currency: s.cfg.Currency,
		Items:    items,
		Customer: customer,
		Payment: payments.Payment{
			Method:       payments.MethodCreditCard,
			CardToken:    strings.TrimSpace(input.CardToken),
			Installments: installments,
			Split:        s.splitRules(),
		},
	}
	if err := order.Validate(); err != nil {
		return payments.Order{}, err
	}
	return order, nil
}

// splitRules routes the whole charge to the platform recipient, which also
// carries chargeback liability and the processing fee.
func (s *service) splitRules() []payments.SplitRule {
	recipient := strings.TrimSpace(s.cfg.PlatformRecipientID)
	if recipient == "" {
		return nil
	}
	return []payments.SplitRule{{
		RecipientID:         recipient,
		Percentage:          100,
		Liable:              true,
		ChargeProcessingFee: true,
	}}
}

func (s *service) submit(ctx context.Context, order payments.Order) (*payments.Response, error) {
	callCtx := ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}
	start := time.Now()
	resp, err := s.gateway.CreateOrder(callCtx, order)
	s.metrics.ObserveGateway(s.gateway.Provider(), time.Since(start))
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeGatewayTransport, err, "payment gateway request failed")
	}
	if resp == nil {
		return nil, pkgerrors.New(pkgerrors.CodeGatewayTransport, "payment gateway returned no response")
	}
	return resp, nil
}

// confirmPurchase records the purchase in the outbox and grants access
// inline. Failures are logged and left for the enrollment worker; the
// caller's response is never affected.
func (s *service) confirmPurchase(ctx context.Context, userID uuid.UUID, courseIDs []uuid.UUID, order payments.Order, resp *payments.Response) bool {
	gatewayOrderID := resp.OrderID
	if gatewayOrderID == "" {
		gatewayOrderID = order.Code
	}
	event := payloads.PurchaseConfirmedEvent{
		GatewayOrderID: gatewayOrderID,
		Provider:       s.gateway.Provider(),
		UserID:         userID,
		CourseIDs:      courseIDs,
		AmountCents:    order.Total(),
		Currency:       order.Currency,
		PaidAt:         s.now().UTC(),
	}

	var row *models.OutboxEvent
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		row, _, err = s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPurchaseConfirmed,
			AggregateType: enums.AggregatePurchase,
			AggregateID:   payloads.PurchaseAggregateID(event.Provider, gatewayOrderID),
			Actor:         &outbox.ActorRef{UserID: userID, Role: enums.UserRoleStudent.String()},
			Data:          event,
			OccurredAt:    event.PaidAt,
		})
		return err
	})
	if err != nil {
		row = nil
		s.metrics.IncPostPaymentFailure()
		s.logg.Error(ctx, "record purchase confirmation failed", pkgerrors.Wrap(pkgerrors.CodePostPaymentWrite, err, "emit purchase_confirmed"))
	}

	if _, err := s.fulfiller.Fulfill(ctx, event); err != nil {
		s.metrics.IncPostPaymentFailure()
		s.logg.Error(ctx, "purchase fulfillment failed", err)
		if row != nil {
			if markErr := s.outbox.MarkFailed(ctx, row.ID, err); markErr != nil {
				s.logg.Error(ctx, "mark purchase event failed", markErr)
			}
		}
		return false
	}

	if row != nil {
		if err := s.outbox.MarkProcessed(ctx, row.ID); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "outbox_id", row.ID.String()), "mark purchase event processed failed")
		}
	}
	return true
}
