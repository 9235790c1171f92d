package httpapi

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-closet-backend/internal/config"
	"github.com/tbourn/go-closet-backend/internal/domain"
	"github.com/tbourn/go-closet-backend/internal/http/middleware"
	"github.com/tbourn/go-closet-backend/internal/repo"
)

// --- test DB helper (pure-Go sqlite, no CGO) ---
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:routerdb_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	ctx := context.Background()
	if err := repo.UpsertCategories(ctx, db, []domain.Category{
		{ID: "cat-shirts", Name: "Camisetas"},
		{ID: "cat-shoes", Name: "Zapatillas"},
	}); err != nil {
		t.Fatalf("seed categories: %v", err)
	}
	return db
}

func testConfig() config.Config {
	return config.Config{
		APIBasePath:        "/api/v1",
		RateRPS:            100,
		RateBurst:          10,
		PrefsCacheTTL:      time.Minute,
		FavoriteColorLimit: 5,
		RandomSeed:         7,
		IdempotencyTTL:     time.Hour,
		OTEL:               config.OTELConfig{ServiceName: "test-svc"},
	}
}

func newEngine(t *testing.T, db *gorm.DB, rdb *redis.Client, cfg config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, db, rdb, cfg)
	return r
}

func send(r http.Handler, method, path, user, body string, hdr ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(middleware.HeaderUserID, user)
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// stockCloset adds a shirt and sneakers for user through the API.
func stockCloset(t *testing.T, r http.Handler, user string) {
	t.Helper()
	for _, body := range []string{
		`{"name":"Tee","category_id":"cat-shirts","color":"White"}`,
		`{"name":"Runners","category_id":"cat-shoes","color":"grey"}`,
	} {
		if w := send(r, http.MethodPost, "/api/v1/garments", user, body); w.Code != http.StatusCreated {
			t.Fatalf("create garment: %d %s", w.Code, w.Body.String())
		}
	}
}

const generateBody = `{"occasion":"casual","weather":"templado","category_ids":["cat-shirts","cat-shoes"]}`

func TestRegisterRoutes_CORSAllowAll_Health_Metrics_Fallbacks(t *testing.T) {
	r := newEngine(t, newTestDB(t), nil, testConfig())

	w := send(r, http.MethodGet, "/health", "", "")
	if w.Code != http.StatusOK || w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("GET /health = %d, ACAO=%q", w.Code, w.Header().Get("Access-Control-Allow-Origin"))
	}
	if w.Header().Get("X-Request-ID") == "" || w.Header().Get("Cache-Control") != "private, no-cache" {
		t.Fatalf("request id / cache headers missing: %v", w.Header())
	}

	w = send(r, http.MethodGet, "/metrics", "", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "closet_http_requests_total") {
		t.Fatalf("GET /metrics = %d", w.Code)
	}

	w = send(r, http.MethodGet, "/nope", "", "")
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), `"code":"not_found"`) {
		t.Fatalf("NoRoute = %d %s", w.Code, w.Body.String())
	}
	w = send(r, http.MethodPost, "/health", "", "{}")
	if w.Code != http.StatusMethodNotAllowed || !strings.Contains(w.Body.String(), "method_not_allowed") {
		t.Fatalf("NoMethod = %d %s", w.Code, w.Body.String())
	}
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	cfg := testConfig()
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"https://closet.app"}}
	r := newEngine(t, newTestDB(t), nil, cfg)

	w := send(r, http.MethodGet, "/health", "", "", "Origin", "https://closet.app")
	if w.Header().Get("Access-Control-Allow-Origin") != "https://closet.app" {
		t.Fatalf("allowed origin not echoed: %v", w.Header())
	}
	w = send(r, http.MethodGet, "/health", "", "", "Origin", "https://evil.example")
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("disallowed origin echoed: %v", w.Header())
	}
}

func TestPipeline_GenerateReplayAndRate(t *testing.T) {
	r := newEngine(t, newTestDB(t), nil, testConfig())
	stockCloset(t, r, "u1")

	w := send(r, http.MethodPost, "/api/v1/recommendations/generate", "u1", generateBody, middleware.HeaderIdempotencyKey, "k-1")
	if w.Code != http.StatusCreated {
		t.Fatalf("generate = %d %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"color":"blanco"`) || !strings.Contains(w.Body.String(), `"color":"gris"`) {
		t.Fatalf("labels should be normalized on write: %s", w.Body.String())
	}
	first := w.Body.String()

	w = send(r, http.MethodPost, "/api/v1/recommendations/generate", "u1", generateBody, middleware.HeaderIdempotencyKey, "k-1")
	if w.Code != http.StatusOK || w.Header().Get("Idempotency-Replayed") != "true" {
		t.Fatalf("replay = %d %v", w.Code, w.Header())
	}
	idOf := func(body string) string {
		i := strings.Index(body, `"id":"`)
		return body[i+6 : i+6+36]
	}
	if idOf(w.Body.String()) != idOf(first) {
		t.Fatalf("replay returned a different outfit")
	}

	w = send(r, http.MethodPost, "/api/v1/recommendations/"+idOf(first)+"/rate", "u1", `{"liked":true}`)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"learning_updated":true`) {
		t.Fatalf("rate = %d %s", w.Code, w.Body.String())
	}
	w = send(r, http.MethodGet, "/api/v1/recommendations/preferences", "u1", "")
	if !strings.Contains(w.Body.String(), `"favorite_colors":["blanco","gris"]`) {
		t.Fatalf("learned preferences unexpected: %s", w.Body.String())
	}

	w = send(r, http.MethodGet, "/api/v1/recommendations/history", "", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous history = %d", w.Code)
	}
}

func TestPipeline_GzipCompressesJSON(t *testing.T) {
	r := newEngine(t, newTestDB(t), nil, testConfig())

	w := send(r, http.MethodGet, "/api/v1/categories", "", "", "Accept-Encoding", "gzip")
	if w.Code != http.StatusOK || w.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip, got %d %v", w.Code, w.Header())
	}
	zr, err := gzip.NewReader(w.Body)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	body, _ := io.ReadAll(zr)
	if !strings.Contains(string(body), "Zapatillas") {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestPipeline_UnreachableRedisFailsOpen(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := testConfig()
	cfg.GenerateQuota = 1
	r := newEngine(t, newTestDB(t), rdb, cfg)
	stockCloset(t, r, "u1")

	for i := 0; i < 2; i++ {
		if w := send(r, http.MethodPost, "/api/v1/recommendations/generate", "u1", generateBody); w.Code != http.StatusCreated {
			t.Fatalf("generate #%d = %d %s", i+1, w.Code, w.Body.String())
		}
	}
}

func TestRegisterRoutes_Swagger(t *testing.T) {
	cfg := testConfig()
	cfg.SwaggerEnabled = true
	r := newEngine(t, newTestDB(t), nil, cfg)

	w := send(r, http.MethodGet, "/swagger/doc.json", "", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "/recommendations/generate") {
		t.Fatalf("doc.json = %d", w.Code)
	}
	if csp := w.Header().Get("Content-Security-Policy"); !strings.Contains(csp, "'self'") {
		t.Fatalf("docs should get the relaxed CSP, got %q", csp)
	}

	r = newEngine(t, newTestDB(t), nil, testConfig())
	if w := send(r, http.MethodGet, "/swagger/doc.json", "", ""); w.Code != http.StatusNotFound {
		t.Fatalf("swagger should be off by default, got %d", w.Code)
	}
}

func TestRegisterRoutes_IdempotencyLookupErrorDoesNotBlock(t *testing.T) {
	db := newTestDB(t)
	r := newEngine(t, db, nil, testConfig())

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	_ = sqlDB.Close()

	w := send(r, http.MethodPost, "/api/v1/recommendations/generate", "u1", generateBody, middleware.HeaderIdempotencyKey, "k-err")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected the handler to run and fail on storage, got %d %s", w.Code, w.Body.String())
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(limitBody(8))
	r.POST("/echo", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("0123456789")))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("oversized body = %d", w.Code)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("small")))
	if w.Code != http.StatusOK {
		t.Fatalf("small body = %d", w.Code)
	}
}

func Test_groupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	groupWithPrefix(r, "/").GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "root") })
	groupWithPrefix(r, "/api").GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	for path, want := range map[string]string{"/ping": "root", "/api/ping": "pong"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK || w.Body.String() != want {
			t.Fatalf("GET %s = %d %q", path, w.Code, w.Body.String())
		}
	}
}

func Test_garmentRepoShim_Proxies(t *testing.T) {
	db := newTestDB(t)
	shim := garmentRepoShim{}
	ctx := context.Background()

	cat, err := shim.GetCategory(ctx, db, "cat-shirts")
	if err != nil || cat.Name != "Camisetas" {
		t.Fatalf("GetCategory: %v %+v", err, cat)
	}
	cats, err := shim.ListCategories(ctx, db)
	if err != nil || len(cats) != 2 {
		t.Fatalf("ListCategories: %v %d", err, len(cats))
	}

	g := &domain.Garment{UserID: "u1", CategoryID: "cat-shirts", Name: "Tee"}
	if err := shim.CreateGarment(ctx, db, g); err != nil || g.ID == "" {
		t.Fatalf("CreateGarment: %v %+v", err, g)
	}
	got, err := shim.GetGarment(ctx, db, g.ID, "u1")
	if err != nil || got.Category.Name != "Camisetas" {
		t.Fatalf("GetGarment: %v %+v", err, got)
	}
	list, err := shim.ListGarments(ctx, db, "u1", nil)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListGarments: %v %d", err, len(list))
	}
	if err := shim.DeleteGarment(ctx, db, g.ID, "u2"); err == nil {
		t.Fatalf("DeleteGarment must be scoped to the owner")
	}
	if err := shim.DeleteGarment(ctx, db, g.ID, "u1"); err != nil {
		t.Fatalf("DeleteGarment: %v", err)
	}
}
