package enrollments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/learnhub-backend/internal/repo/repotest"
	"github.com/learnhub/learnhub-backend/pkg/db/models"
	"github.com/learnhub/learnhub-backend/pkg/enums"
	"github.com/learnhub/learnhub-backend/pkg/pagination"
)

func TestInsertActiveSkipsExistingGrants(t *testing.T) {
	conn := repotest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	userID := uuid.New()
	a := repotest.SeedCourse(t, conn, "A", "50")
	b := repotest.SeedCourse(t, conn, "B", "75.5")

	created, err := repo.InsertActive(ctx, []models.Enrollment{
		{UserID: userID, CourseID: a.ID, Source: enums.EnrollmentSourceCheckout},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created)

	created, err = repo.InsertActive(ctx, []models.Enrollment{
		{UserID: userID, CourseID: a.ID, Source: enums.EnrollmentSourceCheckout},
		{UserID: userID, CourseID: b.ID, Source: enums.EnrollmentSourceCheckout},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created)

	ids, err := repo.ActiveCourseIDs(ctx, userID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{a.ID, b.ID}, ids)

	var count int64
	require.NoError(t, conn.Model(&models.Enrollment{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestInsertActiveCountsOnlyNewRowsInBatch(t *testing.T) {
	conn := repotest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	userID := uuid.New()
	a := repotest.SeedCourse(t, conn, "A", "10")
	b := repotest.SeedCourse(t, conn, "B", "20")
	c := repotest.SeedCourse(t, conn, "C", "30")

	_, err := repo.InsertActive(ctx, []models.Enrollment{
		{UserID: userID, CourseID: a.ID, Source: enums.EnrollmentSourceCheckout},
		{UserID: userID, CourseID: b.ID, Source: enums.EnrollmentSourceCheckout},
	})
	require.NoError(t, err)

	created, err := repo.InsertActive(ctx, []models.Enrollment{
		{UserID: userID, CourseID: a.ID, Source: enums.EnrollmentSourceCheckout},
		{UserID: userID, CourseID: b.ID, Source: enums.EnrollmentSourceCheckout},
		{UserID: userID, CourseID: c.ID, Source: enums.EnrollmentSourceCheckout},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created)

	created, err = repo.InsertActive(ctx, []models.Enrollment{
		{UserID: userID, CourseID: a.ID, Source: enums.EnrollmentSourceCheckout},
		{UserID: userID, CourseID: c.ID, Source: enums.EnrollmentSourceCheckout},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), created)

	var count int64
	require.NoError(t, conn.Model(&models.Enrollment{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}

func TestCancelAllowsRegrant(t *testing.T) {
	conn := repotest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	userID := uuid.New()
	course := repotest.SeedCourse(t, conn, "A", "10")

	rows := []models.Enrollment{{UserID: userID, CourseID: course.ID, Source: enums.EnrollmentSourceAdmin}}
	_, err := repo.InsertActive(ctx, rows)
	require.NoError(t, err)

	ok, err := repo.Cancel(ctx, rows[0].ID, time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Cancel(ctx, rows[0].ID, time.Now())
	require.NoError(t, err)
	assert.False(t, ok, "second cancel must not match a canceled row")

	enrolled, err := repo.IsEnrolled(ctx, userID, course.ID)
	require.NoError(t, err)
	assert.False(t, enrolled)

	created, err := repo.InsertActive(ctx, []models.Enrollment{{UserID: userID, CourseID: course.ID, Source: enums.EnrollmentSourceCheckout}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created)

	row, err := repo.FindByID(ctx, rows[0].ID)
	require.NoError(t, err)
	assert.Equal(t, enums.EnrollmentStatusCanceled, row.Status)
	assert.NotNil(t, row.CanceledAt)
}

func TestListByUserPages(t *testing.T) {
	conn := repotest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	userID := uuid.New()
	base := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		course := repotest.SeedCourse(t, conn, "C", "10")
		_, err := repo.InsertActive(ctx, []models.Enrollment{{
			UserID:     userID,
			CourseID:   course.ID,
			Source:     enums.EnrollmentSourceCheckout,
			EnrolledAt: base.Add(time.Duration(i) * time.Hour),
		}})
		require.NoError(t, err)
	}

	first, next, err := repo.ListByUser(ctx, userID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.NotEmpty(t, next)
	assert.True(t, first[0].EnrolledAt.After(first[1].EnrolledAt))

	second, next, err := repo.ListByUser(ctx, userID, pagination.Params{Limit: 2, Cursor: next})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Empty(t, next)
	assert.True(t, second[0].EnrolledAt.Equal(base))
}
