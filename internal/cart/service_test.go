package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/learnhub/learnhub-backend/pkg/db/models"
	pkgerrors "github.com/learnhub/learnhub-backend/pkg/errors"
)

func TestAddToCartRejectsOwnedCourse(t *testing.T) {
	t.Parallel()

	userID, courseID := uuid.New(), uuid.New()
	repo := newStubCartRepo()
	svc := newTestService(t, repo, map[uuid.UUID]bool{courseID: true}, courseID)

	_, err := svc.AddToCart(context.Background(), userID, courseID)
	if !pkgerrors.Is(err, pkgerrors.CodeAlreadyEnrolled) {
		t.Fatalf("expected ALREADY_ENROLLED, got %v", err)
	}
	if repo.inserts != 0 || len(repo.items) != 0 {
		t.Fatalf("expected no store mutation, got %d inserts", repo.inserts)
	}
}

func TestAddToCartTwiceReportsDuplicate(t *testing.T) {
	t.Parallel()

	userID, courseID := uuid.New(), uuid.New()
	repo := newStubCartRepo()
	svc := newTestService(t, repo, nil, courseID)

	item, err := svc.AddToCart(context.Background(), userID, courseID)
	if err != nil {
		t.Fatalf("first add: %v", err)
	}
	if item.Course == nil || item.Course.ID != courseID {
		t.Fatal("expected course snapshot on the returned item")
	}
	for i := 0; i < 2; i++ {
		if _, err := svc.AddToCart(context.Background(), userID, courseID); !pkgerrors.Is(err, pkgerrors.CodeDuplicate) {
			t.Fatalf("attempt %d: expected DUPLICATE, got %v", i, err)
		}
	}
	if len(repo.items) != 1 {
		t.Fatalf("expected cart count 1, got %d", len(repo.items))
	}
}

func TestAddToCartMapsInsertRace(t *testing.T) {
	t.Parallel()

	courseID := uuid.New()
	repo := newStubCartRepo()
	repo.insertErr = errors.New("UNIQUE constraint failed: cart_items.user_id, cart_items.course_id")
	svc := newTestService(t, repo, nil, courseID)

	if _, err := svc.AddToCart(context.Background(), uuid.New(), courseID); !pkgerrors.Is(err, pkgerrors.CodeDuplicate) {
		t.Fatalf("expected DUPLICATE from unique violation, got %v", err)
	}
}

func TestAddToCartUnknownCourse(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newStubCartRepo(), nil)
	if _, err := svc.AddToCart(context.Background(), uuid.New(), uuid.New()); !pkgerrors.Is(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestRemoveFromCartAbsentIsNoop(t *testing.T) {
	t.Parallel()

	userID, courseID := uuid.New(), uuid.New()
	repo := newStubCartRepo()
	repo.items = append(repo.items, models.CartItem{UserID: userID, CourseID: courseID})
	svc := newTestService(t, repo, nil, courseID)

	if err := svc.RemoveFromCart(context.Background(), userID, uuid.New()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(repo.items) != 1 {
		t.Fatalf("expected state unchanged, got %d items", len(repo.items))
	}
	if err := svc.RemoveFromCart(context.Background(), userID, courseID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(repo.items) != 0 {
		t.Fatal("expected item removed")
	}
}

func TestClearCart(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	repo := newStubCartRepo()
	repo.items = []models.CartItem{{UserID: userID, CourseID: uuid.New()}, {UserID: uuid.New(), CourseID: uuid.New()}}
	svc := newTestService(t, repo, nil)

	if err := svc.ClearCart(context.Background(), userID); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(repo.items) != 1 {
		t.Fatalf("expected only other user's item to remain, got %d", len(repo.items))
	}
}

func TestGetCartSummary(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	repo := newStubCartRepo()
	repo.items = []models.CartItem{
		{UserID: userID, Course: &models.Course{Price: decimal.NewNullDecimal(decimal.RequireFromString("50"))}},
		{UserID: userID, Course: &models.Course{Price: decimal.NewNullDecimal(decimal.RequireFromString("75.5"))}},
		{UserID: userID, Course: &models.Course{}},
		{UserID: userID, Course: &models.Course{Price: decimal.NewNullDecimal(decimal.RequireFromString("-3"))}},
	}
	svc := newTestService(t, repo, nil)

	summary, err := svc.GetCartSummary(context.Background(), userID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.ItemCount != 4 {
		t.Fatalf("expected 4 items, got %d", summary.ItemCount)
	}
	if !summary.Subtotal.Equal(decimal.RequireFromString("125.5")) {
		t.Fatalf("expected subtotal 125.5, got %s", summary.Subtotal)
	}
	if summary.SubtotalCents != 12550 {
		t.Fatalf("expected 12550 cents, got %d", summary.SubtotalCents)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	t.Parallel()

	summary := Summarize(nil)
	if summary.Items == nil || summary.ItemCount != 0 || !summary.Subtotal.IsZero() {
		t.Fatalf("unexpected empty summary %+v", summary)
	}
}

func TestServiceRequiresUser(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newStubCartRepo(), nil)
	if _, err := svc.GetCartItems(context.Background(), uuid.Nil); !pkgerrors.Is(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
}

func newTestService(t *testing.T, repo *stubCartRepo, owned map[uuid.UUID]bool, courseIDs ...uuid.UUID) Service {
	t.Helper()
	courses := stubCourses{}
	for _, id := range courseIDs {
		courses[id] = &models.Course{ID: id, Title: "Course", Price: decimal.NewNullDecimal(decimal.NewFromInt(10))}
	}
	svc, err := NewService(repo, courses, stubEnrollments(owned))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

type stubCourses map[uuid.UUID]*models.Course

func (s stubCourses) FindByID(_ context.Context, id uuid.UUID) (*models.Course, error) {
	if c, ok := s[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubEnrollments map[uuid.UUID]bool

func (s stubEnrollments) IsEnrolled(_ context.Context, _, courseID uuid.UUID) (bool, error) {
	return s[courseID], nil
}

type stubCartRepo struct {
	items     []models.CartItem
	inserts   int
	insertErr error
}

func newStubCartRepo() *stubCartRepo {
	return &stubCartRepo{}
}

func (s *stubCartRepo) WithTx(*gorm.DB) CartRepository { return s }

func (s *stubCartRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var out []models.CartItem
	for _, item := range s.items {
		if item.UserID == userID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *stubCartRepo) Exists(_ context.Context, userID, courseID uuid.UUID) (bool, error) {
	for _, item := range s.items {
		if item.UserID == userID && item.CourseID == courseID {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubCartRepo) Insert(_ context.Context, item *models.CartItem) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.inserts++
	s.items = append(s.items, *item)
	return nil
}

func (s *stubCartRepo) Delete(_ context.Context, userID, courseID uuid.UUID) (int64, error) {
	kept := s.items[:0]
	var removed int64
	for _, item := range s.items {
		if item.UserID == userID && item.CourseID == courseID {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	s.items = kept
	return removed, nil
}

func (s *stubCartRepo) DeleteByUser(_ context.Context, userID uuid.UUID) (int64, error) {
	kept := s.items[:0]
	var removed int64
	for _, item := range s.items {
		if item.UserID == userID {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	s.items = kept
	return removed, nil
}
