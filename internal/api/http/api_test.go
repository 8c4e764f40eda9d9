package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gofiber/fiber/v2"

	"github.com/opsdesk/helpdesk/internal/api/http/handlers"
	"github.com/opsdesk/helpdesk/internal/auth"
	"github.com/opsdesk/helpdesk/internal/config"
	"github.com/opsdesk/helpdesk/internal/domain"
	"github.com/opsdesk/helpdesk/internal/events"
	"github.com/opsdesk/helpdesk/internal/observability"
	"github.com/opsdesk/helpdesk/internal/repository/repotest"
	"github.com/opsdesk/helpdesk/internal/service"
)

type testEnv struct {
	app       *fiber.App
	users     *repotest.UserRepo
	tickets   *repotest.TicketRepo
	notes     *repotest.NoteRepo
	analytics *repotest.AnalyticsRepo
	auth      *service.AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := repotest.NewUserRepo()
	tickets := repotest.NewTicketRepo()
	notes := repotest.NewNoteRepo()
	logs := repotest.NewLogRepo()
	analytics := repotest.NewAnalyticsRepo()
	dispatcher := events.NewInMemoryDispatcher()
	logger := zap.NewNop()

	cfg := config.Config{}
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.TokenTTLDays = 1
	cfg.Auth.BcryptCost = 4

	authService := service.NewAuthService(cfg, service.AuthDependencies{
		UserRepo: users,
		LogRepo:  logs,
		Logger:   logger,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: tickets,
		LogRepo:    logs,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	noteService := service.NewNoteService(service.NoteDependencies{
		TxRunner:   &repotest.TxRunner{},
		TicketRepo: tickets,
		NoteRepo:   notes,
		LogRepo:    logs,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	metrics := observability.NewMetrics()
	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("helpdesk-test", "test", nil, nil),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Notes:          handlers.NewNotesHandler(noteService),
		Users:          handlers.NewUsersHandler(service.NewUserService(users)),
		Analytics:      handlers.NewAnalyticsHandler(service.NewAnalyticsService(analytics, users)),
		AuthMiddleware: auth.NewMiddleware(authService.TokenManager(), users),
		Metrics:        metrics,
	})

	return &testEnv{app: app, users: users, tickets: tickets, notes: notes, analytics: analytics, auth: authService}
}

func (e *testEnv) register(t *testing.T, email, employeeCode string) (*domain.User, string) {
	t.Helper()
	user, token, _, err := e.auth.Register(context.Background(), service.RegisterInput{
		Name:         "Sam Taylor",
		Email:        email,
		Password:     "correct-horse",
		Contact:      "+1-555-0100",
		EmployeeCode: employeeCode,
		Location:     "Pune",
		Company:      "Acme",
	})
	require.NoError(t, err)
	return user, token
}

func (e *testEnv) registerAdmin(t *testing.T, email, employeeCode string) (*domain.User, string) {
	t.Helper()
	user, token := e.register(t, email, employeeCode)
	stored, err := e.users.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	stored.Role = domain.RoleAdmin
	require.NoError(t, e.users.Update(context.Background(), stored))
	return stored, token
}

func jsonRequest(method, target, token string, body any) *stdhttp.Request {
	var reader io.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func multipartRequest(t *testing.T, method, target, token string, fields map[string]string, fileName string, fileData []byte) *stdhttp.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, val := range fields {
		require.NoError(t, writer.WriteField(key, val))
	}
	if fileName != "" {
		part, err := writer.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write(fileData)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func decodeBody(t *testing.T, resp *stdhttp.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func defaultTicketFields() map[string]string {
	return map[string]string{
		"description": "SAP login fails with timeout",
		"priority":    "High",
		"category":    "SAP",
		"subCategory": "MM",
		"service":     "Incident",
		"startDate":   "2025-06-01",
		"endDate":     "2025-06-03",
	}
}

func TestHealthLive(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.app.Test(httptest.NewRequest("GET", "/health/live", nil))
	require.NoError(t, err)
	assert.Equal(t, stdhttp.StatusOK, resp.StatusCode)
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.app.Test(httptest.NewRequest("GET", "/tickets", nil))
	require.NoError(t, err)
	assert.Equal(t, stdhttp.StatusUnauthorized, resp.StatusCode)

	body := decodeBody(t, resp)
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "UNAUTHORIZED", errObj["code"])
}

func TestCreateTicketWithAttachment(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.register(t, "sam@example.com", "EMP001")

	req := multipartRequest(t, "POST", "/tickets", token, defaultTicketFields(), "screenshot.png", []byte{0x89, 0x50})
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, stdhttp.StatusCreated, resp.StatusCode)

	data := decodeBody(t, resp)["data"].(map[string]any)
	id := data["id"].(string)
	assert.True(t, strings.HasPrefix(id, "IN"))
	assert.Len(t, id, 10)
	assert.Equal(t, "new", data["status"])
	assert.Equal(t, "screenshot.png", data["attachmentName"])

	attReq := jsonRequest("GET", "/tickets/"+id+"/attachment", token, nil)
	attResp, err := env.app.Test(attReq)
	require.NoError(t, err)
	assert.Equal(t, stdhttp.StatusOK, attResp.StatusCode)
	assert.Contains(t, attResp.Header.Get("Content-Disposition"), "screenshot.png")
	raw, err := io.ReadAll(attResp.Body)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 0x50}, raw)
}

func TestCreateTicketInvalidSubCategory(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.register(t, "sam@example.com", "EMP001")

	fields := defaultTicketFields()
	fields["category"] = "Digital"
	req := multipartRequest(t, "POST", "/tickets", token, fields, "", nil)
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, stdhttp.StatusBadRequest, resp.StatusCode)

	errObj := decodeBody(t, resp)["error"].(map[string]any)
	assert.Equal(t, "VALIDATION_FAILED", errObj["code"])
}

func TestTicketOwnershipIsolation(t *testing.T) {
	env := newTestEnv(t)
	_, ownerToken := env.register(t, "owner@example.com", "EMP001")
	_, otherToken := env.register(t, "other@example.com", "EMP002")

	resp, err := env.app.Test(multipartRequest(t, "POST", "/tickets", ownerToken, defaultTicketFields(), "", nil))
	require.NoError(t, err)
	id := decodeBody(t, resp)["data"].(map[string]any)["id"].(string)

	getResp, err := env.app.Test(jsonRequest("GET", "/tickets/"+id, otherToken, nil))
	require.NoError(t, err)
	assert.Equal(t, stdhttp.StatusForbidden, getResp.StatusCode)

	listResp, err := env.app.Test(jsonRequest("GET", "/tickets", otherToken, nil))
	require.NoError(t, err)
	items := decodeBody(t, listResp)["data"].([]any)
	assert.Empty(t, items)
}

func TestAdminListsAndDeletesTickets(t *testing.T) {
	env := newTestEnv(t)
	_, ownerToken := env.register(t, "owner@example.com", "EMP001")
	_, adminToken := env.registerAdmin(t, "admin@example.com", "EMP002")

	resp, err := env.app.Test(multipartRequest(t, "POST", "/tickets", ownerToken, defaultTicketFields(), "", nil))
	require.NoError(t, err)
	id := decodeBody(t, resp)["data"].(map[string]any)["id"].(string)

	// Plain users cannot reach the admin listing or delete.
	listResp, err := env.app.Test(jsonRequest("GET", "/tickets/admin/allTickets", ownerToken, nil))
	require.NoError(t, err)
	assert.Equal(t, stdhttp.StatusForbidden, listResp.StatusCode)

	delResp, err := env.app.Test(jsonRequest("DELETE", "/tickets/"+id, ownerToken, nil))
	require.NoError(t, err)
	assert.Equal(t, stdhttp.StatusForbidden, delResp.StatusCode)

	listResp, err = env.app.Test(jsonRequest("GET", "/tickets/admin/allTickets", adminToken, nil))
	require.NoError(t, err)
	assert.Equal(t, stdhttp.StatusOK, listResp.StatusCode)
	items := decodeBody(t, listResp)["data"].([]any)
	require.Len(t, items, 1)

	delResp, err = env.app.Test(jsonRequest("DELETE", "/tickets/"+id, adminToken, nil))
	require.NoError(t, err)
	assert.Equal(t, stdhttp.StatusOK, delResp.StatusCode)
	assert.Equal(t, true, decodeBody(t, delResp)["success"])

	getResp, err := env.app.Test(jsonRequest("GET", "/tickets/"+id, adminToken, nil))
	require.NoError(t, err)
	assert.Equal(t, stdhttp.StatusNotFound, getResp.StatusCode)
}

func TestReopenFlow(t *testing.T) {
	env := newTestEnv(t)
	owner, ownerToken := env.register(t, "owner@example.com", "EMP001")
	_, adminToken := env.registerAdmin(t, "admin@example.com", "EMP002")

	resp, err := env.app.Test(multipartRequest(t, "POST", "/tickets", ownerToken, defaultTicketFields(), "", nil))
	require.NoError(t, err)
	id := decodeBody(t, resp)["data"].(map[string]any)["id"].(string)

	// Reopening an active ticket is rejected.
	reopenResp, err := env.app.Test(jsonRequest("PUT", "/tickets/"+id+"/reopen", ownerToken,
		map[string]string{"reopenReason": "still broken"}))
	require.NoError(t, err)
	assert.Equal(t, stdhttp.StatusBadRequest, reopenResp.StatusCode)
	errObj := decodeBody(t, reopenResp)["error"].(map[string]any)
	assert.Equal(t, "INVALID_STATE", errObj["code"])

	// Admin closes the ticket, then the owner reopens it.
	closeResp, err := env.app.Test(jsonRequest("PUT", "/tickets/"+id, adminToken,
		map[string]string{"status": "closed"}))
	require.NoError(t, err)
	assert.Equal(t, stdhttp.StatusOK, closeResp.StatusCode)

	reopenResp, err = env.app.Test(jsonRequest("PUT", "/tickets/"+id+"/reopen", ownerToken,
		map[string]string{"reopenReason": "still broken"}))
	require.NoError(t, err)
	assert.Equal(t, stdhttp.StatusOK, reopenResp.StatusCode)

	data := decodeBody(t, reopenResp)["data"].(map[string]any)
	ticket := data["ticket"].(map[string]any)
	note := data["note"].(map[string]any)
	assert.Equal(t, "reopened", ticket["status"])
	assert.Contains(t, note["text"], "Ticket reopened by "+owner.Name)
	assert.Contains(t, note["text"], "still broken")

	notesResp, err := env.app.Test(jsonRequest("GET", "/tickets/"+id+"/notes", ownerToken, nil))
	require.NoError(t, err)
	notes := decodeBody(t, notesResp)["data"].([]any)
	require.Len(t, notes, 1)
}

func TestAdminUserManagement(t *testing.T) {
	env := newTestEnv(t)
	member, memberToken := env.register(t, "member@example.com", "EMP001")
	_, adminToken := env.registerAdmin(t, "admin@example.com", "EMP002")

	listResp, err := env.app.Test(jsonRequest("GET", "/users", memberToken, nil))
	require.NoError(t, err)
	assert.Equal(t, stdhttp.StatusForbidden, listResp.StatusCode)

	listResp, err = env.app.Test(jsonRequest("GET", "/users", adminToken, nil))
	require.NoError(t, err)
	assert.Equal(t, stdhttp.StatusOK, listResp.StatusCode)
	items := decodeBody(t, listResp)["data"].([]any)
	assert.Len(t, items, 2)

	updResp, err := env.app.Test(jsonRequest("PUT", "/users/"+member.ID, adminToken,
		map[string]string{"status": "inactive"}))
	require.NoError(t, err)
	assert.Equal(t, stdhttp.StatusOK, updResp.StatusCode)
	data := decodeBody(t, updResp)["data"].(map[string]any)
	assert.Equal(t, "inactive", data["status"])

	// Deactivated accounts cannot log in anymore.
	loginResp, err := env.app.Test(jsonRequest("POST", "/auth/login", "",
		map[string]string{"email": "member@example.com", "password": "correct-horse"}))
	require.NoError(t, err)
	assert.Equal(t, stdhttp.StatusForbidden, loginResp.StatusCode)
}

func TestProfileSelfService(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.register(t, "sam@example.com", "EMP001")

	meResp, err := env.app.Test(jsonRequest("GET", "/users/me", token, nil))
	require.NoError(t, err)
	assert.Equal(t, stdhttp.StatusOK, meResp.StatusCode)
	data := decodeBody(t, meResp)["data"].(map[string]any)
	assert.Equal(t, "sam@example.com", data["email"])

	updResp, err := env.app.Test(jsonRequest("PUT", "/users/me", token,
		map[string]string{"name": "Sam T. Updated"}))
	require.NoError(t, err)
	assert.Equal(t, stdhttp.StatusOK, updResp.StatusCode)
	data = decodeBody(t, updResp)["data"].(map[string]any)
	assert.Equal(t, "Sam T. Updated", data["name"])
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.app.Test(jsonRequest("POST", "/auth/register", "",
		map[string]string{"email": "not-an-email"}))
	require.NoError(t, err)
	assert.Equal(t, stdhttp.StatusBadRequest, resp.StatusCode)

	errObj := decodeBody(t, resp)["error"].(map[string]any)
	assert.Equal(t, "VALIDATION_FAILED", errObj["code"])
}

func TestUpdateTicketReplacesAttachment(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.register(t, "sam@example.com", "EMP001")

	resp, err := env.app.Test(multipartRequest(t, "POST", "/tickets", token, defaultTicketFields(), "", nil))
	require.NoError(t, err)
	id := decodeBody(t, resp)["data"].(map[string]any)["id"].(string)

	updResp, err := env.app.Test(multipartRequest(t, "PUT", "/tickets/"+id, token,
		map[string]string{"description": "now with evidence"}, "trace.log", []byte("panic at line 42")))
	require.NoError(t, err)
	assert.Equal(t, stdhttp.StatusOK, updResp.StatusCode)

	data := decodeBody(t, updResp)["data"].(map[string]any)
	assert.Equal(t, "now with evidence", data["description"])
	assert.Equal(t, "trace.log", data["attachmentName"])

	attResp, err := env.app.Test(jsonRequest("GET", "/tickets/"+id+"/attachment", token, nil))
	require.NoError(t, err)
	assert.Equal(t, stdhttp.StatusOK, attResp.StatusCode)
	raw, err := io.ReadAll(attResp.Body)
	require.NoError(t, err)
	assert.Equal(t, []byte("panic at line 42"), raw)
}

func TestAnalyticsPathVariants(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.registerAdmin(t, "admin@example.com", "EMP001")

	env.analytics.SeedTicket(domain.Ticket{Category: domain.CategorySAP, SubCategory: "MM", ServiceType: domain.ServiceTypeIncident})
	env.analytics.SeedTicket(domain.Ticket{Category: domain.CategoryDigital, SubCategory: "CRM", ServiceType: domain.ServiceTypeService})

	for _, target := range []string{"/analytics/tickets/service", "/analytics/tickets/servicetype"} {
		resp, err := env.app.Test(jsonRequest("GET", target, adminToken, nil))
		require.NoError(t, err)
		assert.Equal(t, stdhttp.StatusOK, resp.StatusCode, target)
		items := decodeBody(t, resp)["data"].([]any)
		assert.Len(t, items, 2, target)
	}

	for _, target := range []string{"/analytics/tickets/subcategory/SAP", "/analytics/tickets/subcategory?category=SAP"} {
		resp, err := env.app.Test(jsonRequest("GET", target, adminToken, nil))
		require.NoError(t, err)
		assert.Equal(t, stdhttp.StatusOK, resp.StatusCode, target)
		items := decodeBody(t, resp)["data"].([]any)
		require.Len(t, items, 1, target)
		entry := items[0].(map[string]any)
		assert.Equal(t, "MM", entry["name"])
	}
}

func TestPanicRecoveryEnvelope(t *testing.T) {
	metrics := observability.NewMetrics()
	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, time.Second)
	app.Get("/boom", func(c *fiber.Ctx) error {
		panic("kaboom")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, stdhttp.StatusInternalServerError, resp.StatusCode)

	errObj := decodeBody(t, resp)["error"].(map[string]any)
	assert.Equal(t, "INTERNAL_ERROR", errObj["code"])
}

func TestAnalyticsAdminGate(t *testing.T) {
	env := newTestEnv(t)
	_, memberToken := env.register(t, "member@example.com", "EMP001")
	_, adminToken := env.registerAdmin(t, "admin@example.com", "EMP002")

	resp, err := env.app.Test(jsonRequest("GET", "/analytics/tickets/status", memberToken, nil))
	require.NoError(t, err)
	assert.Equal(t, stdhttp.StatusForbidden, resp.StatusCode)

	resp, err = env.app.Test(jsonRequest("GET", "/analytics/tickets/status", adminToken, nil))
	require.NoError(t, err)
	assert.Equal(t, stdhttp.StatusOK, resp.StatusCode)

	resp, err = env.app.Test(jsonRequest("GET", "/analytics/users/total", adminToken, nil))
	require.NoError(t, err)
	data := decodeBody(t, resp)["data"].(map[string]any)
	assert.Equal(t, float64(2), data["count"])
}
