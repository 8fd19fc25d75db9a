package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandlerServesCheckoutMetrics(t *testing.T) {
	reg := NewRegistry()
	m := NewCheckoutMetrics(reg)
	m.IncRebalance(RebalanceAdjusted)

	resp := httptest.NewRecorder()
	Handler(reg).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	body := resp.Body.String()
	if !strings.Contains(body, `checkout_rebalance_total{outcome="adjusted"} 1`) {
		t.Fatalf("expected rebalance counter in output, got:\n%s", body)
	}
	if !strings.Contains(body, "go_goroutines") {
		t.Fatalf("expected runtime collector output")
	}
}
