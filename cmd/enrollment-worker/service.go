package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnhub/learnhub-backend/internal/checkout"
	"github.com/learnhub/learnhub-backend/pkg/config"
	"github.com/learnhub/learnhub-backend/pkg/db/models"
	"github.com/learnhub/learnhub-backend/pkg/enums"
	pkgerrors "github.com/learnhub/learnhub-backend/pkg/errors"
	"github.com/learnhub/learnhub-backend/pkg/logger"
	"github.com/learnhub/learnhub-backend/pkg/metrics"
	"github.com/learnhub/learnhub-backend/pkg/outbox"
	"github.com/learnhub/learnhub-backend/pkg/outbox/payloads"
	"github.com/learnhub/learnhub-backend/pkg/outbox/registry"
)

const (
	consumerName       = "enrollment-worker"
	defaultBatchSize   = 50
	defaultPollMs      = 500
	defaultMaxAttempts = 10
	handleTimeout      = 15 * time.Second
	publishTimeout     = 15 * time.Second
	maxBackoff         = 10 * time.Second
	jitterWindow       = 250 * time.Millisecond
)

var jitterSource = rand.New(rand.NewSource(time.Now().UnixNano()))

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type outboxRepository interface {
	FetchPendingTx(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkProcessedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

type dlqRepository interface {
	InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error
}

type registryResolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

type fulfiller interface {
	Fulfill(ctx context.Context, event payloads.PurchaseConfirmedEvent) (*checkout.FulfillmentResult, error)
}

type claimer interface {
	Claim(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Release(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// eventPublisher forwards handled events to downstream consumers.
type eventPublisher interface {
	Publish(ctx context.Context, data []byte, attributes map[string]string) error
}

type ServiceParams struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            dbClient
	Repository    outboxRepository
	DLQRepository dlqRepository
	Registry      registryResolver
	Fulfiller     fulfiller
	// Claims is optional. Without it every pending row is handled, which is
	// still safe because fulfillment skips existing grants.
	Claims claimer
	// Publisher is optional. When set, every handled event is forwarded
	// after its side effects succeed.
	Publisher eventPublisher
	Metrics   *metrics.WorkerMetrics
}

// Service drains pending outbox rows and applies their side effects. A
// purchase_confirmed row left pending means checkout could not finish
// granting access inline, so the worker completes it.
type Service struct {
	logg         *logger.Logger
	db           dbClient
	repo         outboxRepository
	dlq          dlqRepository
	registry     registryResolver
	fulfiller    fulfiller
	claims       claimer
	publisher    eventPublisher
	metrics      *metrics.WorkerMetrics
	batchSize    int
	maxAttempts  int
	pollInterval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.Repository == nil {
		return nil, errors.New("outbox repository is required")
	}
	if params.DLQRepository == nil {
		return nil, errors.New("dlq repository is required")
	}
	if params.Registry == nil {
		return nil, errors.New("event registry is required")
	}
	if params.Fulfiller == nil {
		return nil, errors.New("fulfiller is required")
	}

	batch := params.Config.Outbox.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	pollMs := params.Config.Outbox.PollIntervalMS
	if pollMs <= 0 {
		pollMs = defaultPollMs
	}
	maxAttempts := params.Config.Outbox.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	return &Service{
		logg:         params.Logger,
		db:           params.DB,
		repo:         params.Repository,
		dlq:          params.DLQRepository,
		registry:     params.Registry,
		fulfiller:    params.Fulfiller,
		claims:       params.Claims,
		publisher:    params.Publisher,
		metrics:      params.Metrics,
		batchSize:    batch,
		maxAttempts:  maxAttempts,
		pollInterval: time.Duration(pollMs) * time.Millisecond,
	}, nil
}

func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.db.Ping(ctx); err != nil {
		s.logg.Error(ctx, "database ping failed", err)
		return fmt.Errorf("database ping failed: %w", err)
	}

	interval := s.pollInterval
	backoff := interval

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "enrollment worker context canceled")
			return ctx.Err()
		default:
		}

		processed, err := s.processBatch(ctx)
		if err != nil {
			s.logg.Error(ctx, "enrollment worker batch error", err)
			backoff = nextBackoff(backoff, interval, maxBackoff)
			if err := s.sleep(ctx, withJitter(backoff)); err != nil {
				return err
			}
			continue
		}

		backoff = interval
		if processed {
			continue
		}
		if err := s.sleep(ctx, withJitter(interval)); err != nil {
			return err
		}
	}
}

func (s *Service) processBatch(ctx context.Context) (bool, error) {
	processed := false
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := s.repo.FetchPendingTx(tx, s.batchSize, s.maxAttempts)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}

		processed = true
		for _, event := range events {
			if err := s.processEvent(ctx, tx, event); err != nil {
				return err
			}
		}
		return nil
	})
	return processed, err
}

// processEvent returns an error only when bookkeeping on tx fails.
func (s *Service) processEvent(ctx context.Context, tx *gorm.DB, event models.OutboxEvent) error {
	started := time.Now()
	defer func() {
		s.metrics.ObserveDuration(string(event.EventType), time.Since(started))
	}()

	resolved, err := s.registry.Resolve(event)
	if err != nil {
		return s.handleTerminal(ctx, tx, event, enums.OutboxDLQReasonDecodeFailed, err, nil)
	}

	fields := s.eventFields(event, resolved.Envelope)
	err = s.dispatch(ctx, event, resolved)
	if err == nil {
		err = s.publish(ctx, event, resolved)
	}
	if err != nil {
		var nonRetry registry.NonRetryableError
		if errors.As(err, &nonRetry) {
			return s.handleTerminal(ctx, tx, event, enums.OutboxDLQReasonNonRetryable, err, fields)
		}

		nextAttempt := event.AttemptCount + 1
		fields["attempt_count"] = nextAttempt
		if nextAttempt >= s.maxAttempts {
			fields["terminal_reason"] = "max_attempts"
			return s.handleTerminal(ctx, tx, event, enums.OutboxDLQReasonMaxAttempts, fmt.Errorf("max attempts reached: %w", err), fields)
		}

		s.metrics.IncFailed(string(event.EventType))
		ctxWithFields := s.logg.WithFields(ctx, fields)
		ctxWithFields = s.logg.WithField(ctxWithFields, "error", err.Error())
		s.logg.Warn(ctxWithFields, "outbox event handling failed")
		if markErr := s.repo.MarkFailedTx(tx, event.ID, err); markErr != nil {
			return fmt.Errorf("mark failure %s: %w", event.ID, markErr)
		}
		return nil
	}

	if markErr := s.repo.MarkProcessedTx(tx, event.ID); markErr != nil {
		return fmt.Errorf("mark processed %s: %w", event.ID, markErr)
	}
	s.metrics.IncProcessed(string(event.EventType))
	s.logg.Info(s.logg.WithFields(ctx, fields), "outbox event processed")
	return nil
}

func (s *Service) dispatch(ctx context.Context, event models.OutboxEvent, resolved *registry.ResolvedEvent) error {
	handleCtx, cancel := context.WithTimeout(ctx, handleTimeout)
	defer cancel()

	switch payload := resolved.Payload.(type) {
	case *payloads.PurchaseConfirmedEvent:
		return s.withClaim(handleCtx, event.ID, func() error {
			_, err := s.fulfiller.Fulfill(handleCtx, *payload)
			if pkgerrors.Is(err, pkgerrors.CodeValidation) {
				return registry.NewNonRetryableError(err)
			}
			return err
		})
	case *payloads.EnrollmentCanceledEvent:
		// Access checks read enrollment status directly; nothing to fan out.
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"enrollment_id": payload.EnrollmentID.String(),
			"user_id":       payload.UserID.String(),
			"course_id":     payload.CourseID.String(),
		}), "enrollment cancellation acknowledged")
		return nil
	default:
		return registry.NewNonRetryableError(fmt.Errorf("no handler for %s", event.EventType))
	}
}

// publish forwards the stored payload. A retry after a publish failure finds
// the event already claimed, so side effects are not repeated.
func (s *Service) publish(ctx context.Context, event models.OutboxEvent, resolved *registry.ResolvedEvent) error {
	if s.publisher == nil {
		return nil
	}
	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	return s.publisher.Publish(publishCtx, event.Payload, map[string]string{
		"event_id":       resolved.Envelope.EventID,
		"event_type":     string(event.EventType),
		"aggregate_type": string(event.AggregateType),
		"aggregate_id":   event.AggregateID.String(),
		"created_at":     event.CreatedAt.Format(time.RFC3339Nano),
	})
}

// withClaim runs fn at most once per event across worker replicas. A failed
// run releases the claim so the next poll can retry.
func (s *Service) withClaim(ctx context.Context, eventID uuid.UUID, fn func() error) error {
	if s.claims == nil {
		return fn()
	}
	claimed, err := s.claims.Claim(ctx, consumerName, eventID)
	if err != nil {
		return fmt.Errorf("claim event %s: %w", eventID, err)
	}
	if !claimed {
		s.logg.Info(s.logg.WithField(ctx, "outbox_id", eventID.String()), "outbox event already handled")
		return nil
	}
	if err := fn(); err != nil {
		if relErr := s.claims.Release(context.WithoutCancel(ctx), consumerName, eventID); relErr != nil {
			s.logg.Error(ctx, "release event claim", relErr)
		}
		return err
	}
	return nil
}

func (s *Service) handleTerminal(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, reason enums.OutboxDLQErrorReason, err error, fields map[string]any) error {
	if fields == nil {
		fields = s.eventFields(event, outbox.PayloadEnvelope{})
	}
	fields["error_reason"] = reason
	ctxWithFields := s.logg.WithFields(ctx, fields)
	ctxWithFields = s.logg.WithField(ctxWithFields, "error", err.Error())
	s.logg.Warn(ctxWithFields, "outbox event will not be retried")

	msg := err.Error()
	entry := models.OutboxDLQ{
		EventID:       event.ID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       event.Payload,
		ErrorReason:   reason,
		ErrorMessage:  &msg,
		AttemptCount:  event.AttemptCount,
		FailedAt:      time.Now().UTC(),
	}
	if dlqErr := s.dlq.InsertTx(tx, entry); dlqErr != nil {
		return fmt.Errorf("insert dlq %s: %w", event.ID, dlqErr)
	}
	if markErr := s.repo.MarkTerminalTx(tx, event.ID, err, s.maxAttempts); markErr != nil {
		return fmt.Errorf("mark terminal %s: %w", event.ID, markErr)
	}
	s.metrics.IncDeadLettered(string(event.EventType), string(reason))
	return nil
}

func (s *Service) eventFields(event models.OutboxEvent, envelope outbox.PayloadEnvelope) map[string]any {
	fields := map[string]any{
		"outbox_id":      event.ID.String(),
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID.String(),
		"attempt_count":  event.AttemptCount,
	}
	if envelope.EventID != "" {
		fields["event_id"] = envelope.EventID
		fields["occurred_at"] = envelope.OccurredAt.Format(time.RFC3339Nano)
	}
	if event.LastError != nil {
		fields["last_error"] = *event.LastError
	}
	return fields
}

func (s *Service) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, base, max time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	next := current * 2
	if next > max {
		return max
	}
	return next
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + time.Duration(jitterSource.Int63n(int64(jitterWindow)))
}
