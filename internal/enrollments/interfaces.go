package enrollments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnhub/learnhub-backend/pkg/db/models"
	"github.com/learnhub/learnhub-backend/pkg/pagination"
)

// EnrollmentRepository defines the persistence surface used by the
// enrollment service and checkout fulfillment.
type EnrollmentRepository interface {
	WithTx(tx *gorm.DB) EnrollmentRepository
	ActiveCourseIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	IsEnrolled(ctx context.Context, userID, courseID uuid.UUID) (bool, error)
	InsertActive(ctx context.Context, rows []models.Enrollment) (int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Enrollment, error)
	Cancel(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Enrollment, string, error)
}

type courseLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Course, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
