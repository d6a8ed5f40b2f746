package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/care-scheduling-service/internal/api/http/handlers"
	"github.com/spec-kit/care-scheduling-service/internal/auth"
	"github.com/spec-kit/care-scheduling-service/internal/config"
	"github.com/spec-kit/care-scheduling-service/internal/domain"
	"github.com/spec-kit/care-scheduling-service/internal/events"
	"github.com/spec-kit/care-scheduling-service/internal/observability"
	"github.com/spec-kit/care-scheduling-service/internal/repository"
	"github.com/spec-kit/care-scheduling-service/internal/security"
	"github.com/spec-kit/care-scheduling-service/internal/service"
)

type fakeUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*domain.User
	byEmail map[string]*domain.User
	seq     int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: map[string]*domain.User{}, byEmail: map[string]*domain.User{}}
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	user.ID = fmt.Sprintf("user-%d", f.seq)
	clone := *user
	f.byID[user.ID] = &clone
	f.byEmail[user.Email] = &clone
	return nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *user
	f.byID[user.ID] = &clone
	f.byEmail[user.Email] = &clone
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byEmail[email]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, pgx.ErrNoRows
}

type fakeProfessionalRepo struct {
	mu   sync.Mutex
	byID map[string]*domain.Professional
	seq  int
	refs map[string]int64
}

func newFakeProfessionalRepo() *fakeProfessionalRepo {
	return &fakeProfessionalRepo{byID: map[string]*domain.Professional{}, refs: map[string]int64{}}
}

func (f *fakeProfessionalRepo) Create(_ context.Context, prof *domain.Professional) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	prof.ID = fmt.Sprintf("prof-%d", f.seq)
	prof.CreatedAt = time.Now()
	prof.UpdatedAt = prof.CreatedAt
	clone := *prof
	f.byID[prof.ID] = &clone
	return nil
}

func (f *fakeProfessionalRepo) Update(_ context.Context, prof *domain.Professional) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[prof.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *prof
	f.byID[prof.ID] = &clone
	return nil
}

func (f *fakeProfessionalRepo) GetByID(_ context.Context, id string) (*domain.Professional, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.byID[id]; ok {
		clone := *p
		return &clone, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeProfessionalRepo) GetByEmail(_ context.Context, email string) (*domain.Professional, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.byID {
		if p.Email == email {
			clone := *p
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeProfessionalRepo) List(_ context.Context, _ repository.ProfessionalFilter) ([]domain.Professional, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Professional, 0, len(f.byID))
	for _, p := range f.byID {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeProfessionalRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeProfessionalRepo) CountAppointments(_ context.Context, id string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refs[id], nil
}

type fakeAppointmentRepo struct {
	mu   sync.Mutex
	byID map[string]*domain.Appointment
	seq  int
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{byID: map[string]*domain.Appointment{}}
}

func (f *fakeAppointmentRepo) Create(_ context.Context, appt *domain.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	appt.ID = fmt.Sprintf("appt-%d", f.seq)
	clone := *appt
	f.byID[appt.ID] = &clone
	return nil
}

func (f *fakeAppointmentRepo) Update(_ context.Context, appt *domain.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[appt.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *appt
	f.byID[appt.ID] = &clone
	return nil
}

func (f *fakeAppointmentRepo) GetByID(_ context.Context, id string) (*domain.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.byID[id]; ok {
		clone := *a
		return &clone, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeAppointmentRepo) List(_ context.Context, filter repository.AppointmentFilter) ([]domain.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Appointment, 0, len(f.byID))
	for _, a := range f.byID {
		if filter.ProfessionalID != nil && a.ProfessionalID != *filter.ProfessionalID {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeAppointmentRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.byID, id)
	return nil
}

type testEnv struct {
	app    *fiber.App
	tokens *auth.TokenManager
	users  *fakeUserRepo
}

func newTestEnv(t *testing.T, rateLimitThreshold int) *testEnv {
	t.Helper()

	cfg := &config.Config{
		App: config.AppConfig{Name: "care-test", Env: "test", Version: "test"},
		Auth: config.AuthConfig{
			JWTSecret:            "test-secret",
			AccessTokenTTLMin:    15,
			RefreshTokenTTLHours: 168,
			BcryptCost:           4,
		},
		Security: config.SecurityConfig{
			RateLimitThreshold: rateLimitThreshold,
			RateLimitWindowSec: 60,
		},
	}

	users := newFakeUserRepo()
	authService := service.NewAuthService(*cfg, service.AuthDependencies{UserRepo: users})
	profRepo := newFakeProfessionalRepo()
	professionalService := service.NewProfessionalService(profRepo)
	appointmentService := service.NewAppointmentService(newFakeAppointmentRepo(), profRepo, events.NewInMemoryDispatcher())

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	store := security.NewMemoryLimiterStore(cfg.Security.RateLimitThreshold, cfg.Security.RateLimitWindow())
	rateLimit := security.RateLimit(store, cfg.Security.RateLimitThreshold, metrics, logger)

	app := fiber.New()
	RegisterMiddlewares(app, cfg, logger, metrics)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, nil, nil),
		Auth:           handlers.NewAuthHandler(authService),
		Professionals:  handlers.NewProfessionalsHandler(professionalService),
		Appointments:   handlers.NewAppointmentsHandler(appointmentService),
		Monitoring:     handlers.NewMonitoringHandler(metrics),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), users),
		RateLimit:      rateLimit,
	})

	return &testEnv{app: app, tokens: authService.TokenManager(), users: users}
}

func (e *testEnv) tokenFor(t *testing.T, role domain.Role) string {
	t.Helper()
	user := &domain.User{
		Name:   "Tester " + string(role),
		Email:  string(role) + "@example.com",
		Role:   role,
		Active: true,
	}
	if err := e.users.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	token, _, err := e.tokens.GenerateAccessToken(user.ID, role)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return token
}

func jsonBody(t *testing.T, payload any) io.Reader {
	t.Helper()
	b, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return bytes.NewReader(b)
}

func professionalPayload() map[string]any {
	return map[string]any{
		"social_name": "Joana Prado",
		"profession":  "PSYCHOLOGIST",
		"email":       "joana@example.com",
		"phone":       "11987654321",
		"address": map[string]any{
			"street":      "Rua das Flores",
			"number":      "100",
			"district":    "Centro",
			"city":        "São Paulo",
			"state":       "SP",
			"postal_code": "01310-100",
		},
	}
}

func TestHealthLiveIsPublic(t *testing.T) {
	env := newTestEnv(t, 100)

	resp, err := env.app.Test(httptest.NewRequest("GET", "/health/live", nil))
	if err != nil {
		t.Fatalf("test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestSecurityHeadersOnEveryResponse(t *testing.T) {
	env := newTestEnv(t, 100)

	// an error response must carry the headers too
	resp, err := env.app.Test(httptest.NewRequest("GET", "/professionals", nil))
	if err != nil {
		t.Fatalf("test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}
	for header, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"X-API-Version":          "test",
	} {
		if got := resp.Header.Get(header); got != want {
			t.Errorf("%s: expected %q, got %q", header, want, got)
		}
	}
	if resp.Header.Get("Content-Security-Policy") == "" {
		t.Error("CSP header must be set")
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t, 100)

	for _, path := range []string{"/professionals", "/appointments", "/monitoring/metrics"} {
		resp, err := env.app.Test(httptest.NewRequest("GET", path, nil))
		if err != nil {
			t.Fatalf("test %s: %v", path, err)
		}
		if resp.StatusCode != fiber.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", path, resp.StatusCode)
		}
		var body struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		if body.Error.Code != "UNAUTHORIZED" {
			t.Errorf("%s: expected UNAUTHORIZED envelope, got %q", path, body.Error.Code)
		}
	}
}

func TestProfessionalRoundtrip(t *testing.T) {
	env := newTestEnv(t, 100)
	token := env.tokenFor(t, domain.RoleStaff)

	req := httptest.NewRequest("POST", "/professionals", jsonBody(t, professionalPayload()))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := env.app.Test(req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, raw)
	}

	var created struct {
		Data struct {
			ID    string `json:"id"`
			Phone string `json:"phone"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Data.ID == "" {
		t.Fatal("created professional must have an id")
	}
	if created.Data.Phone != "(11) 98765-4321" {
		t.Errorf("phone must come back formatted, got %q", created.Data.Phone)
	}

	getReq := httptest.NewRequest("GET", "/professionals/"+created.Data.ID, nil)
	getReq.Header.Set("Authorization", "Bearer "+token)
	getResp, err := env.app.Test(getReq)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if getResp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", getResp.StatusCode)
	}
}

func TestViewerCannotMutate(t *testing.T) {
	env := newTestEnv(t, 100)
	viewer := env.tokenFor(t, domain.RoleViewer)

	req := httptest.NewRequest("POST", "/professionals", jsonBody(t, professionalPayload()))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+viewer)
	resp, err := env.app.Test(req)
	if err != nil {
		t.Fatalf("test: %v", err)
	}
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("viewer create: expected 403, got %d", resp.StatusCode)
	}

	delReq := httptest.NewRequest("DELETE", "/professionals/prof-1", nil)
	delReq.Header.Set("Authorization", "Bearer "+viewer)
	delResp, err := env.app.Test(delReq)
	if err != nil {
		t.Fatalf("test: %v", err)
	}
	if delResp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("viewer delete: expected 403, got %d", delResp.StatusCode)
	}
}

func TestStaffCannotDelete(t *testing.T) {
	env := newTestEnv(t, 100)
	staff := env.tokenFor(t, domain.RoleStaff)

	req := httptest.NewRequest("DELETE", "/professionals/prof-1", nil)
	req.Header.Set("Authorization", "Bearer "+staff)
	resp, err := env.app.Test(req)
	if err != nil {
		t.Fatalf("test: %v", err)
	}
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestRegisterIsAdminOnly(t *testing.T) {
	env := newTestEnv(t, 100)
	staff := env.tokenFor(t, domain.RoleStaff)

	payload := map[string]any{"name": "Novo Usuário", "email": "novo@example.com", "password": "str0ngpass", "role": "viewer"}
	req := httptest.NewRequest("POST", "/auth/register", jsonBody(t, payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+staff)
	resp, err := env.app.Test(req)
	if err != nil {
		t.Fatalf("test: %v", err)
	}
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("staff register: expected 403, got %d", resp.StatusCode)
	}

	admin := env.tokenFor(t, domain.RoleAdmin)
	req2 := httptest.NewRequest("POST", "/auth/register", jsonBody(t, payload))
	req2.Header.Set("Content-Type", "application/json")
	req2.Header.Set("Authorization", "Bearer "+admin)
	resp2, err := env.app.Test(req2)
	if err != nil {
		t.Fatalf("test: %v", err)
	}
	if resp2.StatusCode != fiber.StatusCreated {
		raw, _ := io.ReadAll(resp2.Body)
		t.Fatalf("admin register: expected 201, got %d: %s", resp2.StatusCode, raw)
	}
}

func TestSanitizationGuardsHandlers(t *testing.T) {
	env := newTestEnv(t, 100)
	token := env.tokenFor(t, domain.RoleStaff)

	payload := professionalPayload()
	payload["bio"] = "<script>document.cookie</script>"
	req := httptest.NewRequest("POST", "/professionals", jsonBody(t, payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := env.app.Test(req)
	if err != nil {
		t.Fatalf("test: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body.Error.Code != "INVALID_INPUT" {
		t.Errorf("expected INVALID_INPUT, got %q", body.Error.Code)
	}
}

func TestRateLimitEnforcedPerPrincipal(t *testing.T) {
	env := newTestEnv(t, 3)
	token := env.tokenFor(t, domain.RoleViewer)

	var last int
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest("GET", "/professionals", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := env.app.Test(req)
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		last = resp.StatusCode
		if i < 3 && last != fiber.StatusOK {
			t.Fatalf("request %d within budget: expected 200, got %d", i+1, last)
		}
	}
	if last != fiber.StatusTooManyRequests {
		t.Fatalf("request above budget: expected 429, got %d", last)
	}

	// a different principal still has budget
	other := env.tokenFor(t, domain.RoleStaff)
	req := httptest.NewRequest("GET", "/professionals", nil)
	req.Header.Set("Authorization", "Bearer "+other)
	resp, err := env.app.Test(req)
	if err != nil {
		t.Fatalf("test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("other principal must not share the budget, got %d", resp.StatusCode)
	}
}

func TestValidationFailuresAreAggregated(t *testing.T) {
	env := newTestEnv(t, 100)
	token := env.tokenFor(t, domain.RoleStaff)

	req := httptest.NewRequest("POST", "/professionals",
		jsonBody(t, map[string]any{"social_name": "X", "email": "bad", "phone": "1"}))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := env.app.Test(req)
	if err != nil {
		t.Fatalf("test: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	var body struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "VALIDATION_FAILED" {
		t.Fatalf("expected VALIDATION_FAILED, got %q", body.Error.Code)
	}
	if len(body.Error.Details) < 3 {
		t.Errorf("details must aggregate every failing field, got %v", body.Error.Details)
	}
}
