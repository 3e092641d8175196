package enrollments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/learnhub/learnhub-backend/internal/repo"
	"github.com/learnhub/learnhub-backend/pkg/db/models"
	"github.com/learnhub/learnhub-backend/pkg/enums"
	"github.com/learnhub/learnhub-backend/pkg/pagination"
)

// ActiveUniqueIndex allows one active enrollment per (user_id, course_id).
const ActiveUniqueIndex = "ux_enrollments_active_user_course"

// activeConflict targets the partial unique index so replays of the same
// purchase never create a second active grant.
var activeConflict = clause.OnConflict{
	Columns:     []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
	TargetWhere: clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "status = 'active'"}}},
	DoNothing:   true,
}

// Repository is the enrollment store.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) EnrollmentRepository {
	return &Repository{Base: r.Bind(tx)}
}

// ActiveCourseIDs lists the courses the user currently owns.
func (r *Repository) ActiveCourseIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.DB(ctx).
		Model(&models.Enrollment{}).
		Where("user_id = ? AND status = ?", userID, enums.EnrollmentStatusActive).
		Order("enrolled_at DESC").
		Pluck("course_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *Repository) IsEnrolled(ctx context.Context, userID, courseID uuid.UUID) (bool, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.Enrollment{}).
		Where("user_id = ? AND course_id = ? AND status = ?", userID, courseID, enums.EnrollmentStatusActive).
		Count(&count).Error
	return count > 0, err
}

// InsertActive writes the rows as active grants, skipping any that would
// duplicate an existing active enrollment. It returns how many were created.
func (r *Repository) InsertActive(ctx context.Context, rows []models.Enrollment) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	// One insert per row keeps the created count exact on every driver.
	var created int64
	err := r.DB(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range rows {
			rows[i].Status = enums.EnrollmentStatusActive
			rows[i].CanceledAt = nil
			res := tx.Clauses(activeConflict).Create(&rows[i])
			if res.Error != nil {
				return res.Error
			}
			created += res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Enrollment, error) {
	var row models.Enrollment
	if err := r.DB(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// Cancel flips an active enrollment to canceled. It reports false when the
// row was not active.
func (r *Repository) Cancel(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.DB(ctx).
		Model(&models.Enrollment{}).
		Where("id = ? AND status = ?", id, enums.EnrollmentStatusActive).
		Updates(map[string]any{
			"status":      enums.EnrollmentStatusCanceled,
			"canceled_at": at.UTC(),
		})
	return res.RowsAffected > 0, res.Error
}

// ListByUser pages through a user's enrollments, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Enrollment, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	q := r.DB(ctx).Where("user_id = ?", userID)
	if cursor != nil {
		q = q.Where("(enrolled_at < ?) OR (enrolled_at = ? AND id < ?)", cursor.At, cursor.At, cursor.ID)
	}
	var rows []models.Enrollment
	err = q.Order("enrolled_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, "", err
	}
	page, next := pagination.Page(rows, params.Limit, func(e models.Enrollment) pagination.Cursor {
		return pagination.Cursor{At: e.EnrolledAt, ID: e.ID}
	})
	return page, next, nil
}
