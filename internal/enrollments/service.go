package enrollments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnhub/learnhub-backend/pkg/db"
	"github.com/learnhub/learnhub-backend/pkg/db/models"
	"github.com/learnhub/learnhub-backend/pkg/enums"
	pkgerrors "github.com/learnhub/learnhub-backend/pkg/errors"
	"github.com/learnhub/learnhub-backend/pkg/outbox"
	"github.com/learnhub/learnhub-backend/pkg/outbox/payloads"
	"github.com/learnhub/learnhub-backend/pkg/pagination"
)

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) (*models.OutboxEvent, error)
}

// Service exposes enrollment reads for students and grant/cancel for admins.
type Service interface {
	ActiveCourseIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ListResult, error)
	Grant(ctx context.Context, input GrantInput) (*models.Enrollment, error)
	Cancel(ctx context.Context, enrollmentID, actorID uuid.UUID) (*models.Enrollment, error)
}

type ListResult struct {
	Enrollments []models.Enrollment `json:"enrollments"`
	NextCursor  string              `json:"next_cursor,omitempty"`
}

// GrantInput describes an administrative enrollment.
type GrantInput struct {
	UserID   uuid.UUID
	CourseID uuid.UUID
	ActorID  uuid.UUID
}

type service struct {
	repo    EnrollmentRepository
	courses courseLoader
	tx      txRunner
	outbox  outboxEmitter
	now     func() time.Time
}

func NewService(repo EnrollmentRepository, courses courseLoader, tx txRunner, emitter outboxEmitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("enrollment repository required")
	}
	if courses == nil {
		return nil, fmt.Errorf("course loader required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{
		repo:    repo,
		courses: courses,
		tx:      tx,
		outbox:  emitter,
		now:     time.Now,
	}, nil
}

func (s *service) ActiveCourseIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id is required")
	}
	ids, err := s.repo.ActiveCourseIDs(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load enrollments")
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return ids, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ListResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id is required")
	}
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, next, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list enrollments")
	}
	if rows == nil {
		rows = []models.Enrollment{}
	}
	return &ListResult{Enrollments: rows, NextCursor: next}, nil
}

// Grant enrolls a user outside of checkout. It fails with ALREADY_ENROLLED
// when an active enrollment exists, including one created concurrently.
func (s *service) Grant(ctx context.Context, input GrantInput) (*models.Enrollment, error) {
	if input.UserID == uuid.Nil || input.CourseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user_id and course_id are required")
	}
	if _, err := s.courses.FindByID(ctx, input.CourseID); err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "course not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load course")
	}

	enrolled, err := s.repo.IsEnrolled(ctx, input.UserID, input.CourseID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check enrollment")
	}
	if enrolled {
		return nil, pkgerrors.New(pkgerrors.CodeAlreadyEnrolled, "user is already enrolled in this course")
	}

	rows := []models.Enrollment{{
		UserID:     input.UserID,
		CourseID:   input.CourseID,
		Source:     enums.EnrollmentSourceAdmin,
		EnrolledAt: s.now().UTC(),
	}}
	created, err := s.repo.InsertActive(ctx, rows)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "grant enrollment")
	}
	if created == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeAlreadyEnrolled, "user is already enrolled in this course")
	}
	return &rows[0], nil
}

// Cancel revokes an active enrollment and records an enrollment_canceled
// event in the same transaction.
func (s *service) Cancel(ctx context.Context, enrollmentID, actorID uuid.UUID) (*models.Enrollment, error) {
	if enrollmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "enrollment id is required")
	}

	var canceled *models.Enrollment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		row, err := repo.FindByID(ctx, enrollmentID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "enrollment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load enrollment")
		}

		at := s.now().UTC()
		ok, err := repo.Cancel(ctx, enrollmentID, at)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel enrollment")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "enrollment is not active")
		}
		row.Status = enums.EnrollmentStatusCanceled
		row.CanceledAt = &at

		_, err = s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventEnrollmentCanceled,
			AggregateType: enums.AggregateEnrollment,
			AggregateID:   row.ID,
			Actor:         &outbox.ActorRef{UserID: actorID, Role: enums.UserRoleAdmin.String()},
			Data: payloads.EnrollmentCanceledEvent{
				EnrollmentID: row.ID,
				UserID:       row.UserID,
				CourseID:     row.CourseID,
				CanceledBy:   actorID,
				CanceledAt:   at,
			},
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit enrollment canceled")
		}
		canceled = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return canceled, nil
}
