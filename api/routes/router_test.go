package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/learnhub/learnhub-backend/internal/enrollments"
	pkgAuth "github.com/learnhub/learnhub-backend/pkg/auth"
	"github.com/learnhub/learnhub-backend/pkg/config"
	"github.com/learnhub/learnhub-backend/pkg/db/models"
	"github.com/learnhub/learnhub-backend/pkg/enums"
	"github.com/learnhub/learnhub-backend/pkg/outbox"
	"github.com/learnhub/learnhub-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type memoryStore struct {
	data map[string]string
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (m *memoryStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = fmt.Sprint(value)
	return true, nil
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return scope + ":" + id
}

type stubEnrollments struct {
	grants int
}

func (s *stubEnrollments) ActiveCourseIDs(context.Context, uuid.UUID) ([]uuid.UUID, error) {
	return []uuid.UUID{}, nil
}

func (s *stubEnrollments) List(context.Context, uuid.UUID, pagination.Params) (*enrollments.ListResult, error) {
	return &enrollments.ListResult{Enrollments: []models.Enrollment{}}, nil
}

func (s *stubEnrollments) Grant(_ context.Context, input enrollments.GrantInput) (*models.Enrollment, error) {
	s.grants++
	return &models.Enrollment{UserID: input.UserID, CourseID: input.CourseID}, nil
}

func (s *stubEnrollments) Cancel(_ context.Context, id, _ uuid.UUID) (*models.Enrollment, error) {
	return &models.Enrollment{ID: id}, nil
}

type stubDLQ struct{}

func (stubDLQ) List(context.Context, outbox.DLQFilter) ([]models.OutboxDLQ, error) {
	return []models.OutboxDLQ{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config, svc *stubEnrollments) http.Handler {
	store := &memoryStore{data: map[string]string{}}
	return NewRouter(cfg, nil, stubPinger{}, stubPinger{}, store, nil, nil, nil, svc, nil, stubDLQ{})
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Email:  "user@example.com",
		Role:   role,
		JTI:    uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(testConfig(), &stubEnrollments{})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig(), &stubEnrollments{})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/enrollments/course-ids", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestPrivateGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, &stubEnrollments{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/enrollments/course-ids", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleStudent))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, &stubEnrollments{})

	student := httptest.NewRequest(http.MethodGet, "/api/admin/v1/outbox/dlq", nil)
	student.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleStudent))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, student)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for student got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/admin/v1/outbox/dlq", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestAdminGrantRequiresIdempotencyKey(t *testing.T) {
	cfg := testConfig()
	svc := &stubEnrollments{}
	router := newTestRouter(cfg, svc)
	token := buildToken(t, cfg, enums.UserRoleAdmin)
	body := `{"user_id":"` + uuid.NewString() + `","course_id":"` + uuid.NewString() + `"}`

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/enrollments", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without key got %d", resp.Code)
	}

	for i := 0; i < 2; i++ {
		req = httptest.NewRequest(http.MethodPost, "/api/admin/v1/enrollments", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Idempotency-Key", "grant-1")
		resp = httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusCreated {
			t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
		}
	}
	if svc.grants != 1 {
		t.Fatalf("expected replay to skip the handler, got %d grants", svc.grants)
	}
}

func TestFunctionCheckoutPreflight(t *testing.T) {
	router := newTestRouter(testConfig(), &stubEnrollments{})
	req := httptest.NewRequest(http.MethodOptions, "/functions/v1/checkout", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK || resp.Body.String() != "ok" {
		t.Fatalf("expected 200 ok got %d %q", resp.Code, resp.Body.String())
	}
	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected wildcard origin, got %q", got)
	}
}

func TestFunctionCheckoutRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig(), &stubEnrollments{})
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/functions/v1/checkout", strings.NewReader(`{}`)))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil || body["error"] == "" {
		t.Fatalf("expected flat error body, got %s", resp.Body.String())
	}
}
