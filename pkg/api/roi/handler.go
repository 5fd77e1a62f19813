package roi

import (
	"io"
	"net/http"

	"go.uber.org/zap"

	"roi_advisor/pkg/api/respond"
	"roi_advisor/pkg/core/metrics"
	coreROI "roi_advisor/pkg/core/roi"
	"roi_advisor/pkg/core/utils"
)

// maxBodyBytes caps scenario payloads.
const maxBodyBytes = 64 << 10

// CalculateRequest is a scenario plus an optional sensitivity swing in percent.
type CalculateRequest struct {
	coreROI.Scenario
	SensitivitySwing float64 `json:"sensitivity_swing,omitempty"`
}

type CalculateResponse struct {
	Scenario    coreROI.Scenario        `json:"scenario"`
	Results     coreROI.Result          `json:"results"`
	CashFlows   []coreROI.CashFlowPoint `json:"cash_flows"`
	Sensitivity []coreROI.Driver        `json:"sensitivity"`
}

// Handler holds dependencies for the calculation endpoint
type Handler struct {
	Metrics *metrics.Metrics
	Swing   float64
	Logger  *zap.Logger
}

// NewHandler creates a calculation handler. swing <= 0 uses the engine default.
func NewHandler(m *metrics.Metrics, swing float64, logger *zap.Logger) *Handler {
	if swing <= 0 {
		swing = coreROI.DefaultSwingPct
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Metrics: m, Swing: swing, Logger: logger}
}

// DecodeScenario reads a lenient JSON/Hjson request body into dst.
func DecodeScenario(r *http.Request, dst interface{}) (string, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return "", err
	}
	return utils.DecodeLenient(body, dst)
}

func (h *Handler) HandleCalculate(w http.ResponseWriter, r *http.Request) {
	if respond.CORS(w, r, "POST") {
		return
	}
	if !respond.MethodAllowed(w, r, http.MethodPost) {
		return
	}

	var req CalculateRequest
	strategy, err := DecodeScenario(r, &req)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if strategy != "json" {
		h.Logger.Debug("scenario decoded leniently", zap.String("strategy", strategy))
	}

	result, flows, err := coreROI.Compute(req.Scenario)
	h.Metrics.ObserveComputation(result, err)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	swing := h.Swing
	if req.SensitivitySwing != 0 {
		swing = req.SensitivitySwing
	}
	drivers, err := coreROI.Sensitivity(req.Scenario, swing)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if flows == nil {
		flows = []coreROI.CashFlowPoint{}
	}

	respond.JSON(w, http.StatusOK, CalculateResponse{
		Scenario:    req.Scenario,
		Results:     result,
		CashFlows:   flows,
		Sensitivity: drivers,
	})
}
