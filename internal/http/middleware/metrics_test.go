package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_CountsByRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Metrics())
	r.DELETE("/garments/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/categories", func(c *gin.Context) { c.String(http.StatusOK, "[]") })

	baseDel := testutil.ToFloat64(httpReqs.WithLabelValues("DELETE", "/garments/:id", "204"))
	baseCat := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/categories", "200"))
	base404 := testutil.ToFloat64(httpReqs.WithLabelValues("GET", unmatchedRoute, "404"))

	for _, p := range []string{"/garments/a", "/garments/b"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, p, nil))
		if w.Code != http.StatusNoContent {
			t.Fatalf("DELETE %s -> %d", p, w.Code)
		}
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/categories", nil))
	for _, p := range []string{"/wp-admin", "/.env"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	if got := testutil.ToFloat64(httpReqs.WithLabelValues("DELETE", "/garments/:id", "204")); got != baseDel+2 {
		t.Fatalf("route template counter = %v; want %v", got, baseDel+2)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/categories", "200")); got != baseCat+1 {
		t.Fatalf("categories counter = %v; want %v", got, baseCat+1)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", unmatchedRoute, "404")); got != base404+2 {
		t.Fatalf("unmatched routes should share one series: %v; want %v", got, base404+2)
	}
	if inFlight := testutil.ToFloat64(httpInflight); inFlight != 0 {
		t.Fatalf("httpInflight = %v; want 0", inFlight)
	}
}
