package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Course is the catalog entry owned by the authoring side. Checkout only reads
// it to obtain authoritative prices.
type Course struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title        string              `gorm:"column:title;not null" json:"title"`
	Price        decimal.NullDecimal `gorm:"column:price;type:numeric(12,2)" json:"price"`
	InstructorID *uuid.UUID          `gorm:"column:instructor_id;type:uuid" json:"instructor_id,omitempty"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Course) TableName() string { return "courses" }

// EffectivePrice returns the price with null and negative values clamped to zero.
func (c Course) EffectivePrice() decimal.Decimal {
	if !c.Price.Valid || c.Price.Decimal.IsNegative() {
		return decimal.Zero
	}
	return c.Price.Decimal
}
