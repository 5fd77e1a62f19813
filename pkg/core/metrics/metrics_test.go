package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"roi_advisor/pkg/core/roi"
)

func TestObserveComputation(t *testing.T) {
	m := New()

	res, _, err := roi.Compute(roi.Scenario{InitialInvestment: 0, AnnualBenefit: 0, Years: 3, DiscountRate: 8})
	if err != nil {
		t.Fatal(err)
	}
	m.ObserveComputation(res, nil)
	m.ObserveComputation(roi.Result{}, errors.New("invalid"))

	if got := testutil.ToFloat64(m.computations.WithLabelValues(OutcomeOK)); got != 1 {
		t.Errorf("ok computations = %v", got)
	}
	if got := testutil.ToFloat64(m.computations.WithLabelValues(OutcomeInvalid)); got != 1 {
		t.Errorf("invalid computations = %v", got)
	}
	for _, name := range []string{"simple_roi", "payback_period", "irr"} {
		if got := testutil.ToFloat64(m.undefinedMetrics.WithLabelValues(name)); got != 1 {
			t.Errorf("undefined %s = %v", name, got)
		}
	}
}

func TestObserveNarrativeAndHandler(t *testing.T) {
	m := New()
	m.ObserveNarrative(OutcomeOK, 1500*time.Millisecond)
	m.ObserveNarrative(OutcomeCached, 0)

	if got := testutil.ToFloat64(m.narrativeRequests.WithLabelValues(OutcomeCached)); got != 1 {
		t.Errorf("cached narratives = %v", got)
	}
	if got := testutil.CollectAndCount(m.narrativeLatency); got != 1 {
		t.Errorf("expected one histogram series, got %d", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "roi_narrative_requests_total") {
		t.Errorf("exposition missing narrative counter")
	}

	var nilMetrics *Metrics
	nilMetrics.ObserveNarrative(OutcomeOK, time.Second)
}
