package advisor

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"roi_advisor/pkg/api/respond"
	apiROI "roi_advisor/pkg/api/roi"
	"roi_advisor/pkg/core/metrics"
	"roi_advisor/pkg/core/narrative"
	"roi_advisor/pkg/core/roi"
)

// AnalysisRequest is a scenario plus free-text business context.
type AnalysisRequest struct {
	roi.Scenario
	Context            string `json:"context"`
	IncludeSensitivity bool   `json:"include_sensitivity"`
}

type AnalysisResponse struct {
	Scenario roi.Scenario      `json:"scenario"`
	Results  roi.Result        `json:"results"`
	Report   *narrative.Report `json:"report"`
}

// Analyzer is the narrative dependency; *narrative.Advisor satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, req narrative.Request) (*narrative.Report, error)
}

// Handler holds dependencies for the analysis endpoint
type Handler struct {
	Advisor Analyzer
	Metrics *metrics.Metrics
	Logger  *zap.Logger
	Swing   float64
	Timeout time.Duration
}

func NewHandler(a Analyzer, m *metrics.Metrics, logger *zap.Logger, swing float64, timeout time.Duration) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if swing <= 0 {
		swing = roi.DefaultSwingPct
	}
	return &Handler{Advisor: a, Metrics: m, Logger: logger, Swing: swing, Timeout: timeout}
}

func (h *Handler) HandleAnalysis(w http.ResponseWriter, r *http.Request) {
	if respond.CORS(w, r, "POST") {
		return
	}
	if !respond.MethodAllowed(w, r, http.MethodPost) {
		return
	}

	var req AnalysisRequest
	if _, err := apiROI.DecodeScenario(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	result, _, err := roi.Compute(req.Scenario)
	h.Metrics.ObserveComputation(result, err)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	nreq := narrative.Request{Scenario: req.Scenario, Result: result, Context: req.Context}
	if req.IncludeSensitivity {
		if drivers, err := roi.Sensitivity(req.Scenario, h.Swing); err == nil {
			nreq.Drivers = drivers
		}
	}

	ctx := r.Context()
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	start := time.Now()
	report, err := h.Advisor.Analyze(ctx, nreq)
	elapsed := time.Since(start)
	if err != nil {
		outcome := metrics.OutcomeError
		if errors.Is(err, narrative.ErrEmptyResponse) {
			outcome = metrics.OutcomeEmpty
		}
		h.Metrics.ObserveNarrative(outcome, elapsed)
		h.Logger.Error("analysis failed", zap.Error(err), zap.Duration("elapsed", elapsed))
		respond.Error(w, http.StatusBadGateway, narrative.UserMessage(err))
		return
	}

	if report.Cached {
		h.Metrics.ObserveNarrative(metrics.OutcomeCached, elapsed)
	} else {
		h.Metrics.ObserveNarrative(metrics.OutcomeOK, elapsed)
	}

	respond.JSON(w, http.StatusOK, AnalysisResponse{
		Scenario: req.Scenario,
		Results:  result,
		Report:   report,
	})
}
