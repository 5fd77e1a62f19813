// Package roi implements the financial-returns engine for AI investment scenarios:
// Simple ROI, Payback Period, NPV, IRR and the per-year cash-flow projection.
//
// Every function in this package is pure. Results depend only on the Scenario
// passed in, so callers may invoke them concurrently without coordination.
package roi

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// MaxYears bounds the projection horizon.
const MaxYears = 1000

// Validation errors. All of them wrap ErrInvalidScenario.
var (
	ErrInvalidScenario     = errors.New("invalid scenario")
	ErrNonFiniteInput      = fmt.Errorf("%w: inputs must be finite numbers", ErrInvalidScenario)
	ErrNegativeYears       = fmt.Errorf("%w: years must not be negative", ErrInvalidScenario)
	ErrYearsTooLarge       = fmt.Errorf("%w: years must not exceed %d", ErrInvalidScenario, MaxYears)
	ErrNegativeInvestment  = fmt.Errorf("%w: initial investment must not be negative", ErrInvalidScenario)
	ErrInvalidDiscountRate = fmt.Errorf("%w: discount rate must be greater than -100%%", ErrInvalidScenario)
	ErrNonFiniteResult     = fmt.Errorf("%w: NPV or cash flows overflow the numeric range", ErrInvalidScenario)
)

// Scenario is the investment being evaluated.
type Scenario struct {
	InitialInvestment float64 `json:"initial_investment"` // Paid at period 0
	AnnualBenefit     float64 `json:"annual_benefit"`     // Constant net benefit per period
	Years             int     `json:"years"`              // Benefit periods after period 0
	DiscountRate      float64 `json:"discount_rate"`      // Percentage: 8 means 8%
}

// DefaultScenario is the consulting case the calculator opens with:
// $330k outlay, $234,375 saved per year, three years at an 8% hurdle rate.
func DefaultScenario() Scenario {
	return Scenario{
		InitialInvestment: 330000,
		AnnualBenefit:     234375,
		Years:             3,
		DiscountRate:      8,
	}
}

// Validate rejects scenarios the engine cannot evaluate at all.
// Zero investment or zero benefit are valid; they only leave some metrics undefined.
func (s Scenario) Validate() error {
	for _, v := range []float64{s.InitialInvestment, s.AnnualBenefit, s.DiscountRate} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrNonFiniteInput
		}
	}
	if s.Years < 0 {
		return ErrNegativeYears
	}
	if s.Years > MaxYears {
		return ErrYearsTooLarge
	}
	if s.InitialInvestment < 0 {
		return ErrNegativeInvestment
	}
	if s.DiscountRate <= -100 {
		return ErrInvalidDiscountRate
	}
	return nil
}

// Metric is a scalar result that may be undefined for a given scenario.
// An undefined metric has a zero Value and a Reason; it never carries Inf or NaN.
type Metric struct {
	Value   float64
	Defined bool
	Reason  string
}

// Defined wraps a computed value.
func Defined(v float64) Metric {
	return Metric{Value: v, Defined: true}
}

// Undefined marks a metric that cannot be computed, with the reason why.
func Undefined(reason string) Metric {
	return Metric{Reason: reason}
}

// String renders the value with two decimals, or "N/A".
func (m Metric) String() string {
	if !m.Defined {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", m.Value)
}

type metricJSON struct {
	Value   *float64 `json:"value"`
	Defined bool     `json:"defined"`
	Reason  string   `json:"reason,omitempty"`
}

// MarshalJSON encodes undefined metrics with a null value.
func (m Metric) MarshalJSON() ([]byte, error) {
	out := metricJSON{Defined: m.Defined, Reason: m.Reason}
	if m.Defined {
		v := m.Value
		out.Value = &v
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts the shape produced by MarshalJSON.
func (m *Metric) UnmarshalJSON(data []byte) error {
	var in metricJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*m = Metric{Defined: in.Defined && in.Value != nil, Reason: in.Reason}
	if m.Defined {
		m.Value = *in.Value
	}
	return nil
}

// Result holds the four headline metrics.
type Result struct {
	SimpleROI     Metric  `json:"simple_roi"`     // Percentage
	PaybackPeriod Metric  `json:"payback_period"` // Periods, fractional
	NPV           float64 `json:"npv"`            // Currency units
	IRR           Metric  `json:"irr"`            // Percentage
}

// CashFlowPoint is one benefit period of the projection.
type CashFlowPoint struct {
	Period            int     `json:"period"`
	Label             string  `json:"label"`
	NominalBenefit    float64 `json:"nominal_benefit"`
	CumulativeNominal float64 `json:"cumulative_nominal"` // Running benefit minus initial investment
	DiscountedBenefit float64 `json:"discounted_benefit"`
}
