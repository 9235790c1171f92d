package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

const generatePath = "/recommendations/generate"

func TestIdempotencyHelpers_DefaultsAndWrongTypes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	if k, ok := GetIdempotencyKey(c); k != "" || ok {
		t.Fatalf("expected no key by default")
	}
	if IsReplay(c) || IsRateBypass(c) {
		t.Fatalf("expected no replay or bypass by default")
	}

	c.Set(ctxKeyIdemKey, 123)
	c.Set(ctxKeyIdemReplay, "yes")
	if _, ok := GetIdempotencyKey(c); ok || IsReplay(c) {
		t.Fatalf("wrong-typed context values must read as absent")
	}

	if got := userIDFromCtx(c); got != "" {
		t.Fatalf("anonymous caller expected, got %q", got)
	}
	c.Request.Header.Set(HeaderUserID, " hdr-user ")
	if got := userIDFromCtx(c); got != "hdr-user" {
		t.Fatalf("header fallback mismatch: %q", got)
	}
	c.Set(userIDKey, "u1")
	if got := userIDFromCtx(c); got != "u1" {
		t.Fatalf("context value should win: %q", got)
	}

	if got := IdempotencyScope(c); got != "POST /" {
		t.Fatalf("IdempotencyScope = %q", got)
	}
}

func TestIdempotencyValidator_RejectsMalformedKeys(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name string
		opts IdempotencyOptions
		key  string
	}{
		{"too long", IdempotencyOptions{MaxLen: 5}, "abcdef"},
		{"custom pattern", IdempotencyOptions{Pattern: regexp.MustCompile(`^[0-9]+$`)}, "abc123"},
		{"default pattern", IdempotencyOptions{}, "has space"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(RequestID(), IdempotencyValidator(tc.opts, nil))
			r.POST(generatePath, func(c *gin.Context) { c.Status(http.StatusCreated) })

			req := httptest.NewRequest(http.MethodPost, generatePath, nil)
			req.Header.Set(HeaderIdempotencyKey, tc.key)
			req.Header.Set(requestIDHeader, "rid-1")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
			var body map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if body["code"] != "bad_idempotency_key" || body["request_id"] != "rid-1" {
				t.Fatalf("unexpected body: %v", body)
			}
		})
	}
}

func TestIdempotencyValidator_SkipsWithoutKeyOrOnSafeMethods(t *testing.T) {
	gin.SetMode(gin.TestMode)
	called := false
	lookup := func(context.Context, string, string, string, time.Time) (bool, error) {
		called = true
		return true, nil
	}
	r := gin.New()
	r.Use(IdempotencyValidator(IdempotencyOptions{}, lookup))
	r.GET("/recommendations/history", func(c *gin.Context) {
		if _, ok := GetIdempotencyKey(c); ok {
			t.Fatalf("key must not be stashed on GET")
		}
		c.Status(http.StatusOK)
	})
	r.POST(generatePath, func(c *gin.Context) { c.Status(http.StatusCreated) })

	get := httptest.NewRequest(http.MethodGet, "/recommendations/history", nil)
	get.Header.Set(HeaderIdempotencyKey, "not valid at all!")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, get)
	if w.Code != http.StatusOK {
		t.Fatalf("GET with a key should pass through, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, generatePath, nil))
	if w.Code != http.StatusCreated || called {
		t.Fatalf("no key: status=%d lookupCalled=%v", w.Code, called)
	}
}

func TestIdempotencyValidator_Lookup(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name       string
		exists     bool
		err        error
		wantReplay bool
	}{
		{"miss", false, nil, false},
		{"hit", true, nil, true},
		{"error is not a replay", true, errors.New("db down"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(UserID())
			r.Use(IdempotencyValidator(IdempotencyOptions{}, func(_ context.Context, userID, scope, key string, now time.Time) (bool, error) {
				if userID != "u9" || key != "k-9" || now.IsZero() {
					t.Fatalf("lookup args: uid=%q key=%q now=%v", userID, key, now)
				}
				if scope != "POST "+generatePath {
					t.Fatalf("scope = %q", scope)
				}
				return tc.exists, tc.err
			}))
			r.POST(generatePath, func(c *gin.Context) {
				if key, _ := GetIdempotencyKey(c); key != "k-9" {
					t.Fatalf("stashed key = %q", key)
				}
				if IsReplay(c) != tc.wantReplay || IsRateBypass(c) != tc.wantReplay {
					t.Fatalf("replay=%v bypass=%v, want %v", IsReplay(c), IsRateBypass(c), tc.wantReplay)
				}
				c.Status(http.StatusCreated)
			})

			req := httptest.NewRequest(http.MethodPost, generatePath, nil)
			req.Header.Set(HeaderIdempotencyKey, " k-9 ")
			req.Header.Set(HeaderUserID, "u9")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != http.StatusCreated {
				t.Fatalf("expected 201, got %d", w.Code)
			}
		})
	}
}
