package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func captureLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
	log.Logger = zerolog.New(&buf)
	return &buf
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/rid", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(requestIDKey))
	})

	cases := []struct {
		name, in string
		keep     bool
	}{
		{"propagated", "Z-REQ-123", true},
		{"trimmed", "  abc  ", true},
		{"missing", "", false},
		{"too long", strings.Repeat("x", maxRequestIDLength+1), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/rid", nil)
			if tc.in != "" {
				req.Header.Set(strings.ToLower(requestIDHeader), tc.in)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			got := w.Header().Get(requestIDHeader)
			if got == "" || got != w.Body.String() {
				t.Fatalf("header %q and context %q must match", got, w.Body.String())
			}
			if tc.keep && got != strings.TrimSpace(tc.in) {
				t.Fatalf("expected %q to be reused, got %q", tc.in, got)
			}
			if !tc.keep && got == tc.in {
				t.Fatalf("expected a fresh id")
			}
		})
	}
}

func TestUserID_StoresTrimmedHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(UserID())
	r.GET("/who", func(c *gin.Context) {
		_, set := c.Get(userIDKey)
		c.String(http.StatusOK, "%s|%v", c.GetString(userIDKey), set)
	})

	for in, want := range map[string]string{"  u-42 ": "u-42|true", "   ": "|false", "": "|false"} {
		req := httptest.NewRequest(http.MethodGet, "/who", nil)
		req.Header.Set(HeaderUserID, in)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Body.String() != want {
			t.Fatalf("header %q: got %q want %q", in, w.Body.String(), want)
		}
	}
}

func TestRecovery_PanicsToJSON500AndLogs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.POST("/recommendations/generate", func(c *gin.Context) { panic("kaboom") })

	req := httptest.NewRequest(http.MethodPost, "/recommendations/generate", nil)
	req.Header.Set(requestIDHeader, "rid-p")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json body: %v", err)
	}
	if body["code"] != "internal_error" || body["request_id"] != "rid-p" {
		t.Fatalf("unexpected body: %v", body)
	}
	if out := buf.String(); !strings.Contains(out, `"panic recovered"`) || !strings.Contains(out, `"stack"`) {
		t.Fatalf("expected panic log with stack, got:\n%s", out)
	}
}

func TestRecovery_PanicAfterWrite_NoJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/panic-after-write", func(c *gin.Context) {
		c.String(http.StatusOK, "partial-body")
		panic("late kaboom")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic-after-write", nil))

	if strings.Contains(w.Body.String(), "internal_error") || strings.Contains(w.Header().Get("Content-Type"), "application/json") {
		t.Fatalf("no JSON envelope expected after a write; CT=%q body=%q", w.Header().Get("Content-Type"), w.Body.String())
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Fatalf("expected panic log, got:\n%s", buf.String())
	}
}

func TestLoggerFrom_FallbackAndRequestScoped(t *testing.T) {
	gin.SetMode(gin.TestMode)

	buf := captureLogger(t)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	LoggerFrom(c).Info().Msg("fallback")
	if !strings.Contains(buf.String(), `"message":"fallback"`) || strings.Contains(buf.String(), `"request_id"`) {
		t.Fatalf("fallback logger unexpected: %s", buf.String())
	}

	buf.Reset()
	scoped := log.With().Str("request_id", "rid-s").Logger()
	attachLogger(c, &scoped)
	LoggerFrom(c).Info().Msg("handler")
	zerolog.Ctx(c.Request.Context()).Info().Msg("service")
	for _, msg := range []string{"handler", "service"} {
		if !strings.Contains(buf.String(), `"request_id":"rid-s","message":"`+msg+`"`) {
			t.Fatalf("%s line should carry request_id: %s", msg, buf.String())
		}
	}
}

func TestAsString(t *testing.T) {
	if asString("x") != "x" || asString(123) != "" || asString(nil) != "" {
		t.Fatalf("asString failed")
	}
}
