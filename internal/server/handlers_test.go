// internal/server/handlers_test.go
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"provider-workflow/internal/common/config"
	apperrors "provider-workflow/internal/common/errors"
	"provider-workflow/internal/common/logger"
	"provider-workflow/internal/models"
	"provider-workflow/internal/workflow"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

// ==========================
// Fakes
// ==========================

type memStore struct {
	mu   sync.Mutex
	apps map[string]*models.Application
}

func newMemStore() *memStore {
	return &memStore{apps: make(map[string]*models.Application)}
}

func (m *memStore) Create(_ context.Context, app *models.Application) (*models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.apps {
		if existing.UserID == app.UserID && existing.Status == models.StatusPending {
			return nil, apperrors.NewDuplicatePendingError(app.UserID)
		}
	}
	created := *app
	created.ID = uuid.New().String()
	m.apps[created.ID] = &created
	copied := created
	return &copied, nil
}

func (m *memStore) GetByID(_ context.Context, id string) (*models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	app, ok := m.apps[id]
	if !ok {
		return nil, nil
	}
	copied := *app
	return &copied, nil
}

func (m *memStore) LatestByUser(_ context.Context, userID string) (*models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *models.Application
	for _, app := range m.apps {
		if app.UserID != userID {
			continue
		}
		if latest == nil || app.SubmittedAt.After(latest.SubmittedAt) {
			latest = app
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

func (m *memStore) Approve(_ context.Context, applicationID, reviewerID string, reviewedAt time.Time) (*models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	app, ok := m.apps[applicationID]
	if !ok {
		return nil, apperrors.NewNotFoundError("Application", applicationID)
	}
	if app.Status != models.StatusPending {
		return nil, apperrors.NewAlreadyProcessedError(app.ID, app.Status)
	}
	app.Status = models.StatusApproved
	app.ReviewedAt = &reviewedAt
	app.ReviewedBy = &reviewerID
	copied := *app
	return &copied, nil
}

func (m *memStore) Reject(_ context.Context, applicationID, reviewerID, reason string, reviewedAt time.Time) (*models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	app, ok := m.apps[applicationID]
	if !ok {
		return nil, apperrors.NewNotFoundError("Application", applicationID)
	}
	if app.Status != models.StatusPending {
		return nil, apperrors.NewAlreadyProcessedError(app.ID, app.Status)
	}
	app.Status = models.StatusRejected
	app.ReviewedAt = &reviewedAt
	app.ReviewedBy = &reviewerID
	app.RejectionReason = &reason
	copied := *app
	return &copied, nil
}

func (m *memStore) List(_ context.Context, _ models.ListFilter, page models.Pagination) ([]models.ApplicationSummary, models.PaginationMeta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	summaries := []models.ApplicationSummary{}
	for _, app := range m.apps {
		summaries = append(summaries, models.ApplicationSummary{
			Application:    *app,
			ApplicantName:  "Cleo Client",
			ApplicantEmail: "cleo@example.com",
		})
	}
	meta := models.PaginationMeta{
		Total: len(summaries),
		Page:  page.Page,
		Limit: page.Limit,
	}
	if len(summaries) > 0 {
		meta.TotalPages = 1
	}
	return summaries, meta, nil
}

func (m *memStore) StatusCounts(_ context.Context) (models.StatusCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var counts models.StatusCounts
	for _, app := range m.apps {
		switch app.Status {
		case models.StatusPending:
			counts.Pending++
		case models.StatusApproved:
			counts.Approved++
		case models.StatusRejected:
			counts.Rejected++
		}
	}
	return counts, nil
}

type memDirectory struct {
	users map[string]*models.User
}

func (m *memDirectory) GetUser(_ context.Context, id string) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

type noopDispatcher struct{}

func (noopDispatcher) NotifySubmitted(context.Context, string) error { return nil }
func (noopDispatcher) NotifyApproved(context.Context, string) error  { return nil }
func (noopDispatcher) NotifyRejected(context.Context, string, string) error {
	return nil
}

// ==========================
// Test setup
// ==========================

const (
	clientID = "11111111-1111-1111-1111-111111111111"
	adminID  = "33333333-3333-3333-3333-333333333333"
)

func newTestServer(t *testing.T) (*Server, *memStore) {
	store := newMemStore()
	directory := &memDirectory{users: map[string]*models.User{
		clientID: {ID: clientID, FullName: "Cleo Client", Email: "cleo@example.com", Role: models.RoleClient},
		adminID:  {ID: adminID, FullName: "Ada Admin", Email: "ada@example.com", Role: models.RoleAdmin},
	}}

	log := logger.NewNoOpLogger()
	engine := workflow.NewEngine(store, directory, noopDispatcher{}, log)

	cfg := &config.Config{}
	cfg.Server.Port = 0
	cfg.Server.RequestTimeout = 30000
	cfg.Auth.JWTSecret = testSecret

	return New(cfg, engine, log, nil), store
}

func mintToken(t *testing.T, userID, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": userID,
		"role":   role,
		"exp":    time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func doRequest(t *testing.T, srv *Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(rec, req)
	return rec
}

func submissionBody() map[string]interface{} {
	return map[string]interface{}{
		"businessName":      "Sparkle Cleaning Co",
		"bio":               "We clean residential and commercial properties with eco-friendly products.",
		"yearsOfExperience": 5,
		"serviceCategories": []int64{1, 3},
		"phoneNumber":       "+1 (403) 555-0142",
		"serviceAddress":    "123 Main Street, Calgary",
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// ==========================
// Auth
// ==========================

func TestRoutes_RequireToken(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/applications", "", submissionBody())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/api/admin/applications", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRoutes_RejectNonAdmin(t *testing.T) {
	srv, _ := newTestServer(t)
	token := mintToken(t, clientID, models.RoleClient)

	rec := doRequest(t, srv, http.MethodGet, "/api/admin/applications", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuth_RejectsForgedToken(t *testing.T) {
	srv, _ := newTestServer(t)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": clientID,
		"role":   models.RoleAdmin,
	})
	forged, err := token.SignedString([]byte("wrong-secret"))
	require.NoError(t, err)

	rec := doRequest(t, srv, http.MethodGet, "/api/admin/applications", forged, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// ==========================
// Submit
// ==========================

func TestSubmit_Created(t *testing.T) {
	srv, _ := newTestServer(t)
	token := mintToken(t, clientID, models.RoleClient)

	rec := doRequest(t, srv, http.MethodPost, "/api/applications", token, submissionBody())

	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])

	app := body["application"].(map[string]interface{})
	assert.NotEmpty(t, app["id"])
	assert.Equal(t, models.StatusPending, app["status"])
}

func TestSubmit_ValidationErrors(t *testing.T) {
	srv, _ := newTestServer(t)
	token := mintToken(t, clientID, models.RoleClient)

	payload := submissionBody()
	payload["bio"] = "too short"
	payload["phoneNumber"] = "123"

	rec := doRequest(t, srv, http.MethodPost, "/api/applications", token, payload)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, string(apperrors.ErrCodeValidationFailed), body["code"])

	fieldErrors := body["errors"].(map[string]interface{})
	assert.Contains(t, fieldErrors, "bio")
	assert.Contains(t, fieldErrors, "phoneNumber")
}

func TestSubmit_DuplicateConflict(t *testing.T) {
	srv, _ := newTestServer(t)
	token := mintToken(t, clientID, models.RoleClient)

	rec := doRequest(t, srv, http.MethodPost, "/api/applications", token, submissionBody())
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, srv, http.MethodPost, "/api/applications", token, submissionBody())
	require.Equal(t, http.StatusConflict, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, string(apperrors.ErrCodeDuplicatePending), body["code"])
}

func TestSubmit_CooldownIncludesRetryAfter(t *testing.T) {
	srv, store := newTestServer(t)
	token := mintToken(t, clientID, models.RoleClient)

	reviewedAt := time.Now().UTC().Add(-24 * time.Hour)
	reason := "Incomplete business details"
	store.apps["app-1"] = &models.Application{
		ID:              "app-1",
		UserID:          clientID,
		Status:          models.StatusRejected,
		SubmittedAt:     reviewedAt.Add(-time.Hour),
		ReviewedAt:      &reviewedAt,
		RejectionReason: &reason,
	}

	rec := doRequest(t, srv, http.MethodPost, "/api/applications", token, submissionBody())

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, string(apperrors.ErrCodeCooldownActive), body["code"])
	assert.NotEmpty(t, body["retryAfter"])
}

func TestSubmit_MalformedJSON(t *testing.T) {
	srv, _ := newTestServer(t)
	token := mintToken(t, clientID, models.RoleClient)

	req := httptest.NewRequest(http.MethodPost, "/api/applications", bytes.NewBufferString("{not json"))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ==========================
// Status
// ==========================

func TestMyStatus_NeverApplied(t *testing.T) {
	srv, _ := newTestServer(t)
	token := mintToken(t, clientID, models.RoleClient)

	rec := doRequest(t, srv, http.MethodGet, "/api/applications/my-status", token, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Nil(t, body["application"])
}

func TestMyStatus_AfterSubmission(t *testing.T) {
	srv, _ := newTestServer(t)
	token := mintToken(t, clientID, models.RoleClient)

	rec := doRequest(t, srv, http.MethodPost, "/api/applications", token, submissionBody())
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/api/applications/my-status", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	app := body["application"].(map[string]interface{})
	assert.Equal(t, models.StatusPending, app["status"])
}

// ==========================
// Admin review
// ==========================

func TestApproveEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	clientToken := mintToken(t, clientID, models.RoleClient)
	adminToken := mintToken(t, adminID, models.RoleAdmin)

	rec := doRequest(t, srv, http.MethodPost, "/api/applications", clientToken, submissionBody())
	require.Equal(t, http.StatusCreated, rec.Code)
	appID := decodeBody(t, rec)["application"].(map[string]interface{})["id"].(string)

	rec = doRequest(t, srv, http.MethodPut, "/api/admin/applications/"+appID+"/approve", adminToken, map[string]interface{}{})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	app := body["application"].(map[string]interface{})
	assert.Equal(t, models.StatusApproved, app["status"])

	// A second review attempt conflicts.
	rec = doRequest(t, srv, http.MethodPut, "/api/admin/applications/"+appID+"/approve", adminToken, map[string]interface{}{})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestApproveEndpoint_UnknownApplication(t *testing.T) {
	srv, _ := newTestServer(t)
	adminToken := mintToken(t, adminID, models.RoleAdmin)

	rec := doRequest(t, srv, http.MethodPut, "/api/admin/applications/missing/approve", adminToken, map[string]interface{}{})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRejectEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	clientToken := mintToken(t, clientID, models.RoleClient)
	adminToken := mintToken(t, adminID, models.RoleAdmin)

	rec := doRequest(t, srv, http.MethodPost, "/api/applications", clientToken, submissionBody())
	require.Equal(t, http.StatusCreated, rec.Code)
	appID := decodeBody(t, rec)["application"].(map[string]interface{})["id"].(string)

	rec = doRequest(t, srv, http.MethodPut, "/api/admin/applications/"+appID+"/reject", adminToken,
		map[string]string{"reason": "Service categories do not match the listed experience"})
	require.Equal(t, http.StatusOK, rec.Code)

	app := decodeBody(t, rec)["application"].(map[string]interface{})
	assert.Equal(t, models.StatusRejected, app["status"])
}

func TestRejectEndpoint_ShortReason(t *testing.T) {
	srv, _ := newTestServer(t)
	clientToken := mintToken(t, clientID, models.RoleClient)
	adminToken := mintToken(t, adminID, models.RoleAdmin)

	rec := doRequest(t, srv, http.MethodPost, "/api/applications", clientToken, submissionBody())
	require.Equal(t, http.StatusCreated, rec.Code)
	appID := decodeBody(t, rec)["application"].(map[string]interface{})["id"].(string)

	rec = doRequest(t, srv, http.MethodPut, "/api/admin/applications/"+appID+"/reject", adminToken,
		map[string]string{"reason": "bad"})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, string(apperrors.ErrCodeInvalidReason), body["code"])
}

// ==========================
// Listing
// ==========================

func TestListEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	clientToken := mintToken(t, clientID, models.RoleClient)
	adminToken := mintToken(t, adminID, models.RoleAdmin)

	rec := doRequest(t, srv, http.MethodPost, "/api/applications", clientToken, submissionBody())
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/api/admin/applications?status=pending&page=1&limit=10", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	apps := body["applications"].([]interface{})
	assert.Len(t, apps, 1)

	counts := body["counts"].(map[string]interface{})
	assert.Equal(t, float64(1), counts["pending"])

	pagination := body["pagination"].(map[string]interface{})
	assert.Equal(t, float64(1), pagination["page"])
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
