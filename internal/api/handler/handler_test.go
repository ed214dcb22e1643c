package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"workshop-tracker/backend/internal/api/middleware"
	"workshop-tracker/backend/internal/dto"
	"workshop-tracker/backend/internal/service"
	pkgerrors "workshop-tracker/backend/pkg/errors"
	"workshop-tracker/backend/pkg/response"
	"workshop-tracker/backend/pkg/validate"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := validate.Register(); err != nil {
		panic(err)
	}
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AuthService ──

type mockAuthService struct {
	loginResult      *dto.TokenResponse
	loginErr         error
	logoutErr        error
	logoutJTI        string
	getCurrentResult *dto.PersonResponse
	getCurrentErr    error
}

func (m *mockAuthService) Login(_ context.Context, _ *dto.LoginRequest) (*dto.TokenResponse, error) {
	return m.loginResult, m.loginErr
}
func (m *mockAuthService) Logout(_ context.Context, jti string, _ time.Time) error {
	m.logoutJTI = jti
	return m.logoutErr
}
func (m *mockAuthService) GetCurrentUser(_ context.Context, _ string) (*dto.PersonResponse, error) {
	return m.getCurrentResult, m.getCurrentErr
}

// ── Mock AttendanceService ──

type mockAttendanceService struct {
	result    *dto.AttendanceResponse
	err       error
	gotCode   string
	gotPhoto  []byte
	gotDate   time.Time
	gotInTime *string
}

func (m *mockAttendanceService) PunchIn(_ context.Context, _ service.Actor, code, _ string, raw []byte) (*dto.AttendanceResponse, error) {
	m.gotCode, m.gotPhoto = code, raw
	return m.result, m.err
}
func (m *mockAttendanceService) PunchOut(_ context.Context, _ service.Actor, code string, raw []byte) (*dto.AttendanceResponse, error) {
	m.gotCode, m.gotPhoto = code, raw
	return m.result, m.err
}
func (m *mockAttendanceService) MarkHoliday(_ context.Context, _ service.Actor, code string, date time.Time, _ string) (*dto.AttendanceResponse, error) {
	m.gotCode, m.gotDate = code, date
	return m.result, m.err
}
func (m *mockAttendanceService) ClearHoliday(_ context.Context, _ service.Actor, code string, date time.Time) error {
	m.gotCode, m.gotDate = code, date
	return m.err
}
func (m *mockAttendanceService) RecordPastAttendance(_ context.Context, _ service.Actor, code string, date time.Time, inClock, _ *string) (*dto.AttendanceResponse, error) {
	m.gotCode, m.gotDate, m.gotInTime = code, date, inClock
	return m.result, m.err
}
func (m *mockAttendanceService) HasPunchedInToday(_ context.Context, _ string) (bool, error) {
	return m.result != nil, m.err
}
func (m *mockAttendanceService) GetToday(_ context.Context, _ service.Actor, code string) (*dto.TodayStatusResponse, error) {
	m.gotCode = code
	return &dto.TodayStatusResponse{Code: code}, m.err
}
func (m *mockAttendanceService) List(_ context.Context, _ service.Actor, _, _ time.Time, _ string) ([]dto.AttendanceResponse, error) {
	return nil, m.err
}

// ── Mock MetricsService ──

type mockMetricsService struct {
	err error
}

func (m *mockMetricsService) SubmitWorkstationMetrics(_ context.Context, _ service.Actor, req *dto.SubmitWorkstationRequest) (*dto.WorkstationMetricResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &dto.WorkstationMetricResponse{Date: req.Date, Workstation: req.Workstation}, nil
}
func (m *mockMetricsService) SubmitAdvisorMetrics(_ context.Context, _ service.Actor, _ *dto.SubmitAdvisorRequest) (*dto.AdvisorMetricResponse, error) {
	return nil, m.err
}
func (m *mockMetricsService) SubmitAdvisorBatch(_ context.Context, _ service.Actor, _ *dto.SubmitAdvisorBatchRequest) ([]dto.AdvisorMetricResponse, error) {
	return nil, m.err
}
func (m *mockMetricsService) GetWorkstationDashboard(_ context.Context, _ service.Actor) (*dto.DashboardResponse, error) {
	return nil, m.err
}
func (m *mockMetricsService) ListAdvisorsForEntry(_ context.Context, _ service.Actor, _ string) (*dto.AdvisorEntryResponse, error) {
	return nil, m.err
}

// ── Mock ReportService ──

type mockReportService struct {
	err       error
	gotStart  time.Time
	gotEnd    time.Time
	gotScope  string
	summaries []dto.AttendanceSummaryRow
}

func (m *mockReportService) BuildAttendanceSummary(_ context.Context, _ service.Actor, start, end time.Time, scope string) ([]dto.AttendanceSummaryRow, error) {
	m.gotStart, m.gotEnd, m.gotScope = start, end, scope
	return m.summaries, m.err
}
func (m *mockReportService) WorkstationServiceSummary(_ context.Context, _ service.Actor, _, _ time.Time, _ string) ([]dto.ServiceSummaryRow, error) {
	return nil, m.err
}
func (m *mockReportService) AdvisorServiceSummary(_ context.Context, _ service.Actor, _, _ time.Time, _ string) ([]dto.ServiceSummaryRow, error) {
	return nil, m.err
}

// ── Mock ExportService ──

type mockExportService struct {
	file *dto.FileResponse
	err  error
}

func (m *mockExportService) ExportAttendanceSummary(_ context.Context, _ service.Actor, _, _ time.Time, _ string) (*dto.FileResponse, error) {
	return m.file, m.err
}
func (m *mockExportService) ExportServiceSummary(_ context.Context, _ service.Actor, _, _ time.Time, _ string) (*dto.FileResponse, error) {
	return m.file, m.err
}
func (m *mockExportService) ExportPeople(_ context.Context, _ service.Actor) (*dto.FileResponse, error) {
	return m.file, m.err
}
func (m *mockExportService) ExportAttendance(_ context.Context, _ service.Actor) (*dto.FileResponse, error) {
	return m.file, m.err
}

// ── Mock ImportService ──

type mockImportService struct {
	result      *dto.ImportResult
	err         error
	gotFilename string
	gotContent  []byte
}

func (m *mockImportService) ImportPeople(_ context.Context, _ service.Actor, r io.Reader, filename string) (*dto.ImportResult, error) {
	m.gotFilename = filename
	m.gotContent, _ = io.ReadAll(r)
	return m.result, m.err
}
func (m *mockImportService) ImportAttendance(ctx context.Context, actor service.Actor, r io.Reader, filename string) (*dto.ImportResult, error) {
	return m.ImportPeople(ctx, actor, r, filename)
}

// ── Mock PhotoArchiver ──

type mockArchiver struct {
	content string
	err     error
}

func (m *mockArchiver) Archive(w io.Writer) error {
	if m.err != nil {
		return m.err
	}
	_, err := io.WriteString(w, m.content)
	return err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

var (
	technician = service.Actor{Code: "T1", Name: "Ravi", Role: "technician", SupervisorCode: "S1"}
	supervisor = service.Actor{Code: "S1", Name: "Sunil", Role: "supervisor"}
	superAdmin = service.Actor{Code: "A1", Name: "Admin", Role: "super_admin"}
)

func setupGin() (*gin.Engine, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	_, r := gin.CreateTestContext(w)
	return r, w
}

// withActor 模拟 JWTAuth 注入会话
func withActor(a service.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.CtxCode, a.Code)
		c.Set(middleware.CtxName, a.Name)
		c.Set(middleware.CtxRole, a.Role)
		c.Set(middleware.CtxSupervisorCode, a.SupervisorCode)
		c.Set(middleware.CtxTokenJTI, "test-jti")
		c.Set(middleware.CtxTokenExp, time.Now().Add(15*time.Minute))
		c.Next()
	}
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

// multipartBody 构造带单个文件字段的表单
func multipartBody(t *testing.T, fields map[string]string, fileField, filename string, content []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("写入表单字段失败: %v", err)
		}
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, filename)
		if err != nil {
			t.Fatalf("创建文件字段失败: %v", err)
		}
		fw.Write(content)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func storageFailure() error {
	return fmt.Errorf("%w: connection refused", pkgerrors.ErrStorage)
}

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_Login_Success(t *testing.T) {
	mock := &mockAuthService{
		loginResult: &dto.TokenResponse{
			AccessToken: "test-access-token",
			ExpiresIn:   43200,
			User:        dto.PersonResponse{Code: "T1", Name: "Ravi", Role: "technician"},
		},
	}
	h := NewAuthHandler(mock)

	r, w := setupGin()
	r.POST("/auth/login", h.Login)
	req := httptest.NewRequest("POST", "/auth/login", jsonBody(dto.LoginRequest{Code: "T1", Password: "secret"}))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际=%d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 0 {
		t.Errorf("期望 code 0，实际=%d", resp.Code)
	}
	if !strings.Contains(w.Body.String(), "test-access-token") {
		t.Errorf("响应中缺少 access_token: %s", w.Body.String())
	}
}

func TestAuthHandler_Login_BadJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	r, w := setupGin()
	r.POST("/auth/login", h.Login)
	req := httptest.NewRequest("POST", "/auth/login", strings.NewReader("invalid json"))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("期望 400，实际=%d", w.Code)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{loginErr: service.ErrInvalidCredentials})

	r, w := setupGin()
	r.POST("/auth/login", h.Login)
	req := httptest.NewRequest("POST", "/auth/login", jsonBody(dto.LoginRequest{Code: "T1", Password: "wrong"}))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("期望 401，实际=%d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 11001 {
		t.Errorf("期望 code 11001，实际=%d", resp.Code)
	}
}

func TestAuthHandler_Login_StorageUnavailable(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{loginErr: storageFailure()})

	r, w := setupGin()
	r.POST("/auth/login", h.Login)
	req := httptest.NewRequest("POST", "/auth/login", jsonBody(dto.LoginRequest{Code: "T1", Password: "secret"}))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("期望 503，实际=%d", w.Code)
	}
}

func TestAuthHandler_GetCurrentUser_Unauthenticated(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	r, w := setupGin()
	r.GET("/auth/me", h.GetCurrentUser)
	r.ServeHTTP(w, httptest.NewRequest("GET", "/auth/me", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("期望 401，实际=%d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 10002 {
		t.Errorf("期望 code 10002，实际=%d", resp.Code)
	}
}

func TestAuthHandler_Logout_PassesTokenID(t *testing.T) {
	mock := &mockAuthService{}
	h := NewAuthHandler(mock)

	r, w := setupGin()
	r.POST("/auth/logout", withActor(technician), h.Logout)
	r.ServeHTTP(w, httptest.NewRequest("POST", "/auth/logout", nil))

	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际=%d", w.Code)
	}
	if mock.logoutJTI != "test-jti" {
		t.Errorf("期望 jti=test-jti，实际=%s", mock.logoutJTI)
	}
}

// ═══════════════════════════════════════════════════════════
// AttendanceHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAttendanceHandler_PunchIn_WithPhoto(t *testing.T) {
	mock := &mockAttendanceService{result: &dto.AttendanceResponse{Code: "T1", State: "in_only"}}
	h := NewAttendanceHandler(mock)

	body, contentType := multipartBody(t, map[string]string{"workstation": "Bay 1"}, "photo", "selfie.jpg", []byte("jpeg-bytes"))
	r, w := setupGin()
	r.POST("/attendance/punch-in", withActor(technician), h.PunchIn)
	req := httptest.NewRequest("POST", "/attendance/punch-in", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("期望 201，实际=%d，body=%s", w.Code, w.Body.String())
	}
	if string(mock.gotPhoto) != "jpeg-bytes" {
		t.Errorf("照片内容未透传，实际=%q", mock.gotPhoto)
	}
}

func TestAttendanceHandler_PunchOut_AssistedJSON(t *testing.T) {
	mock := &mockAttendanceService{result: &dto.AttendanceResponse{Code: "T1", State: "complete"}}
	h := NewAttendanceHandler(mock)

	r, w := setupGin()
	r.POST("/attendance/punch-out", withActor(supervisor), h.PunchOut)
	req := httptest.NewRequest("POST", "/attendance/punch-out", jsonBody(map[string]string{"code": "T1"}))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际=%d，body=%s", w.Code, w.Body.String())
	}
	if mock.gotCode != "T1" || mock.gotPhoto != nil {
		t.Errorf("代打卡应透传编码且无照片，实际 code=%s photo=%v", mock.gotCode, mock.gotPhoto)
	}
}

func TestAttendanceHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"AlreadyIn", service.ErrAlreadyPunchedIn, 409, 13001},
		{"AlreadyOut", service.ErrAlreadyPunchedOut, 409, 13002},
		{"NoOpenShift", service.ErrNoOpenShift, 409, 13003},
		{"InvalidDuration", service.ErrInvalidDuration, 400, 13004},
		{"PhotoRequired", service.ErrPhotoRequired, 400, 13010},
		{"InvalidPhoto", service.ErrInvalidPhoto, 400, 13011},
		{"Unauthorized", service.ErrUnauthorized, 403, 10003},
		{"PersonNotFound", service.ErrPersonNotFound, 404, 12001},
		{"Storage", storageFailure(), 503, 50300},
		{"Internal", errors.New("unknown"), 500, 50000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAttendanceHandler(&mockAttendanceService{err: tt.err})

			r, w := setupGin()
			r.POST("/attendance/punch-in", withActor(technician), h.PunchIn)
			req := httptest.NewRequest("POST", "/attendance/punch-in", jsonBody(map[string]string{}))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("期望状态 %d，实际=%d", tt.wantStatus, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tt.wantCode {
				t.Errorf("期望 code %d，实际=%d", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestAttendanceHandler_MarkHoliday_BadDate(t *testing.T) {
	h := NewAttendanceHandler(&mockAttendanceService{})

	r, w := setupGin()
	r.PUT("/attendance/:code/:date/holiday", withActor(supervisor), h.MarkHoliday)
	req := httptest.NewRequest("PUT", "/attendance/T1/2024-13-45/holiday", jsonBody(dto.HolidayRequest{Remarks: "Festival"}))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("期望 400，实际=%d", w.Code)
	}
}

func TestAttendanceHandler_RecordPast_ParsesPathAndClock(t *testing.T) {
	mock := &mockAttendanceService{result: &dto.AttendanceResponse{Code: "T1"}}
	h := NewAttendanceHandler(mock)

	in := "09.00.00 AM"
	r, w := setupGin()
	r.PUT("/attendance/:code/:date/past", withActor(supervisor), h.RecordPast)
	req := httptest.NewRequest("PUT", "/attendance/T1/08-01-2024/past", jsonBody(dto.PastAttendanceRequest{InTime: &in}))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际=%d，body=%s", w.Code, w.Body.String())
	}
	if mock.gotCode != "T1" || mock.gotDate.Day() != 8 || mock.gotDate.Month() != time.January {
		t.Errorf("路径参数解析错误: code=%s date=%v", mock.gotCode, mock.gotDate)
	}
	if mock.gotInTime == nil || *mock.gotInTime != in {
		t.Errorf("期望上班时间 %s，实际=%v", in, mock.gotInTime)
	}
}

func TestAttendanceHandler_RecordPast_BadClock(t *testing.T) {
	h := NewAttendanceHandler(&mockAttendanceService{})

	bad := "25:00"
	r, w := setupGin()
	r.PUT("/attendance/:code/:date/past", withActor(supervisor), h.RecordPast)
	req := httptest.NewRequest("PUT", "/attendance/T1/08-01-2024/past", jsonBody(dto.PastAttendanceRequest{InTime: &bad}))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("期望 400，实际=%d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// MetricsHandler Tests
// ═══════════════════════════════════════════════════════════

func TestMetricsHandler_SubmitWorkstation_Success(t *testing.T) {
	h := NewMetricsHandler(&mockMetricsService{})

	r, w := setupGin()
	r.POST("/metrics/workstation", withActor(supervisor), h.SubmitWorkstation)
	req := httptest.NewRequest("POST", "/metrics/workstation", jsonBody(dto.SubmitWorkstationRequest{
		Date:        "10-01-2024",
		Workstation: "Bay 1",
		Counts:      dto.ServiceCounts{RunningRepair: 1, FreeService: 2},
	}))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际=%d，body=%s", w.Code, w.Body.String())
	}
}

func TestMetricsHandler_SubmitWorkstation_BadDate(t *testing.T) {
	h := NewMetricsHandler(&mockMetricsService{})

	r, w := setupGin()
	r.POST("/metrics/workstation", withActor(supervisor), h.SubmitWorkstation)
	req := httptest.NewRequest("POST", "/metrics/workstation", jsonBody(dto.SubmitWorkstationRequest{
		Date:        "10/01/2024",
		Workstation: "Bay 1",
	}))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("期望 400，实际=%d", w.Code)
	}
}

func TestMetricsHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"CountOutOfRange", service.ErrCountOutOfRange, 400, 14001},
		{"DateOutOfRange", service.ErrMetricsDateOutOfRange, 400, 14002},
		{"InvalidDate", service.ErrInvalidDate, 400, 14003},
		{"NotWorkstation", service.ErrNotWorkstation, 403, 14004},
		{"Unauthorized", service.ErrUnauthorized, 403, 10003},
		{"Storage", storageFailure(), 503, 50300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewMetricsHandler(&mockMetricsService{err: tt.err})

			r, w := setupGin()
			r.GET("/metrics/workstation/dashboard", withActor(supervisor), h.Dashboard)
			r.ServeHTTP(w, httptest.NewRequest("GET", "/metrics/workstation/dashboard", nil))

			if w.Code != tt.wantStatus {
				t.Errorf("期望状态 %d，实际=%d", tt.wantStatus, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tt.wantCode {
				t.Errorf("期望 code %d，实际=%d", tt.wantCode, resp.Code)
			}
		})
	}
}

// ═══════════════════════════════════════════════════════════
// ReportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestReportHandler_Attendance_ParsesRange(t *testing.T) {
	mock := &mockReportService{summaries: []dto.AttendanceSummaryRow{}}
	h := NewReportHandler(mock)

	r, w := setupGin()
	r.GET("/reports/attendance", withActor(superAdmin), h.Attendance)
	r.ServeHTTP(w, httptest.NewRequest("GET", "/reports/attendance?from=01-01-2024&to=2024-01-31&supervisor_code=S1", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际=%d，body=%s", w.Code, w.Body.String())
	}
	if mock.gotStart.Day() != 1 || mock.gotEnd.Day() != 31 {
		t.Errorf("日期区间解析错误: %v ~ %v", mock.gotStart, mock.gotEnd)
	}
	if mock.gotScope != "S1" {
		t.Errorf("期望 scope=S1，实际=%s", mock.gotScope)
	}
}

func TestReportHandler_Attendance_MissingRange(t *testing.T) {
	h := NewReportHandler(&mockReportService{})

	r, w := setupGin()
	r.GET("/reports/attendance", withActor(superAdmin), h.Attendance)
	r.ServeHTTP(w, httptest.NewRequest("GET", "/reports/attendance?from=01-01-2024", nil))

	if w.Code != http.StatusBadRequest {
		t.Errorf("期望 400，实际=%d", w.Code)
	}
}

func TestReportHandler_InvertedRange(t *testing.T) {
	h := NewReportHandler(&mockReportService{err: service.ErrInvalidDateRange})

	r, w := setupGin()
	r.GET("/reports/service/workstation", withActor(superAdmin), h.WorkstationService)
	r.ServeHTTP(w, httptest.NewRequest("GET", "/reports/service/workstation?from=31-01-2024&to=01-01-2024", nil))

	if resp := parseResponse(w); w.Code != http.StatusBadRequest || resp.Code != 15001 {
		t.Errorf("期望 400/15001，实际=%d/%d", w.Code, resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExportHandler_People_FileHeaders(t *testing.T) {
	mock := &mockExportService{file: &dto.FileResponse{
		Filename:    "People.xlsx",
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Content:     []byte("excel content"),
	}}
	h := NewExportHandler(mock, nil)

	r, w := setupGin()
	r.GET("/export/people", withActor(superAdmin), h.People)
	r.ServeHTTP(w, httptest.NewRequest("GET", "/export/people", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际=%d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "People.xlsx") {
		t.Errorf("Content-Disposition 缺少文件名: %s", cd)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("Content-Type 错误: %s", ct)
	}
	if w.Body.String() != "excel content" {
		t.Errorf("文件内容错误: %s", w.Body.String())
	}
}

func TestExportHandler_Forbidden(t *testing.T) {
	h := NewExportHandler(&mockExportService{err: service.ErrUnauthorized}, nil)

	r, w := setupGin()
	r.GET("/export/attendance", withActor(supervisor), h.Attendance)
	r.ServeHTTP(w, httptest.NewRequest("GET", "/export/attendance", nil))

	if w.Code != http.StatusForbidden {
		t.Errorf("期望 403，实际=%d", w.Code)
	}
}

func TestExportHandler_Photos(t *testing.T) {
	h := NewExportHandler(&mockExportService{}, &mockArchiver{content: "PK-zip"})

	r, w := setupGin()
	r.GET("/export/photos", withActor(superAdmin), h.Photos)
	r.ServeHTTP(w, httptest.NewRequest("GET", "/export/photos", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际=%d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/zip" {
		t.Errorf("期望 application/zip，实际=%s", ct)
	}
	if w.Body.String() != "PK-zip" {
		t.Errorf("压缩包内容错误: %s", w.Body.String())
	}
}

func TestExportHandler_Photos_ArchiveFailure(t *testing.T) {
	h := NewExportHandler(&mockExportService{}, &mockArchiver{err: errors.New("disk error")})

	r, w := setupGin()
	r.GET("/export/photos", withActor(superAdmin), h.Photos)
	r.ServeHTTP(w, httptest.NewRequest("GET", "/export/photos", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("期望 500，实际=%d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ImportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestImportHandler_People_Success(t *testing.T) {
	mock := &mockImportService{result: &dto.ImportResult{Total: 2, Imported: 2}}
	h := NewImportHandler(mock)

	body, contentType := multipartBody(t, nil, "file", "people.xlsx", []byte("sheet"))
	r, w := setupGin()
	r.POST("/import/people", withActor(superAdmin), h.People)
	req := httptest.NewRequest("POST", "/import/people", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际=%d，body=%s", w.Code, w.Body.String())
	}
	if mock.gotFilename != "people.xlsx" || string(mock.gotContent) != "sheet" {
		t.Errorf("文件未透传: name=%s content=%q", mock.gotFilename, mock.gotContent)
	}
}

func TestImportHandler_Invalid_ReturnsRowErrors(t *testing.T) {
	mock := &mockImportService{
		result: &dto.ImportResult{Total: 1, Errors: []dto.ImportRowError{{Row: 2, Reason: "技师必须填写主管编码"}}},
		err:    service.ErrImportInvalid,
	}
	h := NewImportHandler(mock)

	body, contentType := multipartBody(t, nil, "file", "people.xlsx", []byte("sheet"))
	r, w := setupGin()
	r.POST("/import/people", withActor(superAdmin), h.People)
	req := httptest.NewRequest("POST", "/import/people", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("期望 422，实际=%d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 16003 {
		t.Errorf("期望 code 16003，实际=%d", resp.Code)
	}
	if !strings.Contains(w.Body.String(), `"row":2`) {
		t.Errorf("响应缺少逐行错误: %s", w.Body.String())
	}
}

func TestImportHandler_MissingFile(t *testing.T) {
	h := NewImportHandler(&mockImportService{})

	body, contentType := multipartBody(t, map[string]string{"note": "x"}, "", "", nil)
	r, w := setupGin()
	r.POST("/import/attendance", withActor(superAdmin), h.Attendance)
	req := httptest.NewRequest("POST", "/import/attendance", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(w, req)

	if resp := parseResponse(w); w.Code != http.StatusBadRequest || resp.Code != 16001 {
		t.Errorf("期望 400/16001，实际=%d/%d", w.Code, resp.Code)
	}
}
