package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnhub/learnhub-backend/internal/repo"
	"github.com/learnhub/learnhub-backend/pkg/db/models"
)

// UniqueConstraint guards one cart row per (user_id, course_id).
const UniqueConstraint = "ux_cart_items_user_course"

// Repository is the cart store.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx scopes the repository to tx.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	return &Repository{Base: r.Bind(tx)}
}

// ListByUser returns the user's cart with course snapshots, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.DB(ctx).
		Preload("Course").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *Repository) Exists(ctx context.Context, userID, courseID uuid.UUID) (bool, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.CartItem{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error
	return count > 0, err
}

// Insert creates the row. A concurrent duplicate surfaces as a unique
// violation on UniqueConstraint.
func (r *Repository) Insert(ctx context.Context, item *models.CartItem) error {
	return r.DB(ctx).Omit("Course").Create(item).Error
}

// Delete removes one course from the cart and reports how many rows went away.
func (r *Repository) Delete(ctx context.Context, userID, courseID uuid.UUID) (int64, error) {
	res := r.DB(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}

// DeleteByUser empties the cart.
func (r *Repository) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.DB(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}
