package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/learnhub/learnhub-backend/pkg/checkout"
	"github.com/learnhub/learnhub-backend/pkg/db"
	"github.com/learnhub/learnhub-backend/pkg/db/models"
	pkgerrors "github.com/learnhub/learnhub-backend/pkg/errors"
)

// Service exposes the cart operations available to the owning user.
type Service interface {
	GetCartItems(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	AddToCart(ctx context.Context, userID, courseID uuid.UUID) (*models.CartItem, error)
	RemoveFromCart(ctx context.Context, userID, courseID uuid.UUID) error
	ClearCart(ctx context.Context, userID uuid.UUID) error
	GetCartSummary(ctx context.Context, userID uuid.UUID) (*Summary, error)
}

// Summary is derived on read and never persisted.
type Summary struct {
	Items         []models.CartItem `json:"items"`
	ItemCount     int               `json:"item_count"`
	Subtotal      decimal.Decimal   `json:"subtotal"`
	SubtotalCents int64             `json:"subtotal_cents"`
}

type service struct {
	repo        CartRepository
	courses     courseLoader
	enrollments enrollmentChecker
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, courses courseLoader, enrollments enrollmentChecker) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if courses == nil {
		return nil, fmt.Errorf("course loader required")
	}
	if enrollments == nil {
		return nil, fmt.Errorf("enrollment checker required")
	}
	return &service{repo: repo, courses: courses, enrollments: enrollments}, nil
}

func (s *service) GetCartItems(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id is required")
	}
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return items, nil
}

// AddToCart rejects courses the user already owns or already has in the
// cart. Neither case mutates the store.
func (s *service) AddToCart(ctx context.Context, userID, courseID uuid.UUID) (*models.CartItem, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id is required")
	}
	if courseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "course id is required")
	}

	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "course not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load course")
	}

	enrolled, err := s.enrollments.IsEnrolled(ctx, userID, courseID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check enrollment")
	}
	if enrolled {
		return nil, pkgerrors.New(pkgerrors.CodeAlreadyEnrolled, "you are already enrolled in this course")
	}

	exists, err := s.repo.Exists(ctx, userID, courseID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check cart")
	}
	if exists {
		return nil, duplicateErr()
	}

	item := &models.CartItem{UserID: userID, CourseID: courseID}
	if err := s.repo.Insert(ctx, item); err != nil {
		if db.IsUniqueViolation(err, UniqueConstraint) {
			return nil, duplicateErr()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart item")
	}
	item.Course = course
	return item, nil
}

// RemoveFromCart is a no-op when the course is not in the cart.
func (s *service) RemoveFromCart(ctx context.Context, userID, courseID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user id is required")
	}
	if _, err := s.repo.Delete(ctx, userID, courseID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	return nil
}

func (s *service) ClearCart(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user id is required")
	}
	if _, err := s.repo.DeleteByUser(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func (s *service) GetCartSummary(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	items, err := s.GetCartItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	return Summarize(items), nil
}

// Summarize totals the cart. Null or negative prices count as zero.
func Summarize(items []models.CartItem) *Summary {
	if items == nil {
		items = []models.CartItem{}
	}
	subtotal := decimal.Zero
	var cents int64
	for _, item := range items {
		if item.Course == nil {
			continue
		}
		price := item.Course.EffectivePrice()
		subtotal = subtotal.Add(price)
		cents += checkout.ToMinorUnits(price)
	}
	return &Summary{
		Items:         items,
		ItemCount:     len(items),
		Subtotal:      subtotal,
		SubtotalCents: cents,
	}
}

func duplicateErr() error {
	return pkgerrors.New(pkgerrors.CodeDuplicate, "course is already in your cart")
}
