package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveChainCallLabelsResult(t *testing.T) {
	before := testutil.ToFloat64(chainCalls.WithLabelValues("balanceOf", "error"))
	ObserveChainCall("balanceOf", errors.New("timeout"), 10*time.Millisecond)
	ObserveChainCall("balanceOf", nil, 5*time.Millisecond)

	if got := testutil.ToFloat64(chainCalls.WithLabelValues("balanceOf", "error")); got != before+1 {
		t.Fatalf("expected error counter to grow by one, got %v", got-before)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	ObserveTransfer("success")
	ObserveHTTPRequest("webhook", "POST", 200, 20*time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, want := range []string{
		`slhbot_transfer_outcomes_total{outcome="success"}`,
		`slhbot_http_requests_total{code="200",handler="webhook",method="POST"}`,
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}
