package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnhub/learnhub-backend/pkg/db/models"
)

// CartRepository defines the persistence surface required by the cart service.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	Exists(ctx context.Context, userID, courseID uuid.UUID) (bool, error)
	Insert(ctx context.Context, item *models.CartItem) error
	Delete(ctx context.Context, userID, courseID uuid.UUID) (int64, error)
	DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

type courseLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Course, error)
}

type enrollmentChecker interface {
	IsEnrolled(ctx context.Context, userID, courseID uuid.UUID) (bool, error)
}
