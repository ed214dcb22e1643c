package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"workshop-tracker/backend/config"
	"workshop-tracker/backend/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWT() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{
		JWTSecret:      "test-secret-at-least-16",
		AccessTokenTTL: time.Hour,
	})
}

// echoSession 返回 JWTAuth 注入的会话字段
func echoSession(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"code":            c.GetString(CtxCode),
		"role":            c.GetString(CtxRole),
		"supervisor_code": c.GetString(CtxSupervisorCode),
	})
}

func TestJWTAuth_InjectsSession(t *testing.T) {
	mgr := newTestJWT()
	token, err := mgr.GenerateAccessToken("T1", "Ravi", "technician", "S1")
	if err != nil {
		t.Fatalf("生成 Token 失败: %v", err)
	}

	r := gin.New()
	r.GET("/me", JWTAuth(mgr, nil, zap.NewNop()), echoSession)
	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际=%d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{`"code":"T1"`, `"role":"technician"`, `"supervisor_code":"S1"`} {
		if !strings.Contains(body, want) {
			t.Errorf("响应缺少 %s: %s", want, body)
		}
	}
}

func TestJWTAuth_Rejects(t *testing.T) {
	mgr := newTestJWT()
	other := jwt.NewManager(&config.AuthConfig{JWTSecret: "another-secret-xxxxxx", AccessTokenTTL: time.Hour})
	forged, _ := other.GenerateAccessToken("A1", "Admin", "super_admin", "")

	tests := []struct {
		name   string
		header string
	}{
		{"缺少认证头", ""},
		{"非 Bearer", "Basic abc"},
		{"伪造签名", "Bearer " + forged},
		{"乱码", "Bearer not-a-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/me", JWTAuth(mgr, nil, zap.NewNop()), echoSession)
			req := httptest.NewRequest("GET", "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("期望 401，实际=%d", w.Code)
			}
		})
	}
}

func TestRoleAuth(t *testing.T) {
	tests := []struct {
		name       string
		role       string
		wantStatus int
	}{
		{"允许的角色", "supervisor", http.StatusOK},
		{"超级管理员", "super_admin", http.StatusOK},
		{"技师被拒绝", "technician", http.StatusForbidden},
		{"未认证", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/reports", func(c *gin.Context) {
				if tt.role != "" {
					c.Set(CtxRole, tt.role)
				}
				c.Next()
			}, RoleAuth("supervisor", "super_admin"), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest("GET", "/reports", nil))

			if w.Code != tt.wantStatus {
				t.Errorf("期望 %d，实际=%d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(requestIDKey)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	if id := w.Header().Get(requestIDHeader); id == "" || id != w.Body.String() {
		t.Errorf("未生成 Request-ID 或上下文不一致: header=%s body=%s", id, w.Body.String())
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(requestIDHeader, "upstream-id")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if id := w.Header().Get(requestIDHeader); id != "upstream-id" {
		t.Errorf("应沿用上游 Request-ID，实际=%s", id)
	}

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set(requestIDHeader, strings.Repeat("x", requestIDMaxLen+1))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if id := w.Header().Get(requestIDHeader); len(id) > requestIDMaxLen {
		t.Errorf("超长 Request-ID 应被替换，实际长度=%d", len(id))
	}
}

func TestRateLimit_NoRedisPassesThrough(t *testing.T) {
	r := gin.New()
	r.POST("/login", RateLimit(nil, 1, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("POST", "/login", nil))
		if w.Code != http.StatusOK {
			t.Errorf("第 %d 次请求期望 200，实际=%d", i+1, w.Code)
		}
	}
}

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(BodyLimit(8))
	r.POST("/upload", func(c *gin.Context) {
		if _, err := c.GetRawData(); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/upload", strings.NewReader("small")))
	if w.Code != http.StatusOK {
		t.Errorf("未超限期望 200，实际=%d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("POST", "/upload", strings.NewReader("definitely too large")))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("超限期望 413，实际=%d", w.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("缺少 X-Content-Type-Options: nosniff")
	}
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:5173/"}))
	r.GET("/export", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/export", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	r.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Errorf("允许的来源应回显，实际=%q", w.Header().Get("Access-Control-Allow-Origin"))
	}
	if !strings.Contains(w.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition") {
		t.Error("导出文件名需要暴露 Content-Disposition")
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest("OPTIONS", "/export", nil)
	req.Header.Set("Origin", "http://evil.example")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("预检期望 204，实际=%d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("未允许的来源不应返回 CORS 头")
	}
}
