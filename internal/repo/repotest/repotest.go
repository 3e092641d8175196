// Package repotest builds in-memory SQLite databases shaped like the
// Postgres schema for repository tests.
package repotest

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/learnhub/learnhub-backend/pkg/db/models"
)

var schema = []string{
	`CREATE TABLE courses (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		price TEXT,
		instructor_id TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE cart_items (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		course_id TEXT NOT NULL REFERENCES courses(id),
		created_at DATETIME,
		CONSTRAINT ux_cart_items_user_course UNIQUE (user_id, course_id)
	)`,
	`CREATE TABLE enrollments (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		course_id TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		source TEXT NOT NULL DEFAULT 'checkout',
		gateway_order_id TEXT,
		enrolled_at DATETIME NOT NULL,
		canceled_at DATETIME
	)`,
	`CREATE UNIQUE INDEX ux_enrollments_active_user_course ON enrollments (user_id, course_id) WHERE status = 'active'`,
	`CREATE TABLE outbox_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload BLOB NOT NULL,
		created_at DATETIME,
		processed_at DATETIME,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT,
		CONSTRAINT ux_outbox_events_event_aggregate UNIQUE (event_type, aggregate_type, aggregate_id)
	)`,
	`CREATE TABLE outbox_dlq (
		id TEXT PRIMARY KEY,
		event_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload_json BLOB NOT NULL,
		error_reason TEXT NOT NULL,
		error_message TEXT,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		failed_at DATETIME
	)`,
}

// Open returns a fresh single-connection in-memory database with the
// LearnHub tables created.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

// SeedCourse inserts a course priced at price; an empty price stores NULL.
func SeedCourse(t *testing.T, conn *gorm.DB, title, price string) models.Course {
	t.Helper()
	course := models.Course{ID: uuid.New(), Title: title}
	if price != "" {
		course.Price = decimal.NewNullDecimal(decimal.RequireFromString(price))
	}
	require.NoError(t, conn.Create(&course).Error)
	return course
}

// SeedCartItem inserts a cart row created at the given time.
func SeedCartItem(t *testing.T, conn *gorm.DB, userID, courseID uuid.UUID, at time.Time) models.CartItem {
	t.Helper()
	item := models.CartItem{UserID: userID, CourseID: courseID, CreatedAt: at}
	require.NoError(t, conn.Create(&item).Error)
	return item
}
