package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnhub/learnhub-backend/pkg/enums"
)

// Enrollment grants a user access to a course. At most one active row exists
// per (user_id, course_id), enforced by ux_enrollments_active_user_course.
type Enrollment struct {
	ID             uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID         uuid.UUID              `gorm:"column:user_id;type:uuid;not null" json:"user_id"`
	CourseID       uuid.UUID              `gorm:"column:course_id;type:uuid;not null" json:"course_id"`
	Status         enums.EnrollmentStatus `gorm:"column:status;type:enrollment_status;not null;default:'active'" json:"status"`
	Source         enums.EnrollmentSource `gorm:"column:source;type:enrollment_source;not null;default:'checkout'" json:"source"`
	GatewayOrderID *string                `gorm:"column:gateway_order_id" json:"gateway_order_id,omitempty"`
	EnrolledAt     time.Time              `gorm:"column:enrolled_at;not null" json:"enrolled_at"`
	CanceledAt     *time.Time             `gorm:"column:canceled_at" json:"canceled_at,omitempty"`
}

func (Enrollment) TableName() string { return "enrollments" }

func (e *Enrollment) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.EnrolledAt.IsZero() {
		e.EnrolledAt = time.Now().UTC()
	}
	if e.Status == "" {
		e.Status = enums.EnrollmentStatusActive
	}
	return nil
}
