package roi

import (
	"fmt"
	"math"
)

// IRR search bracket, as decimal rates. The lower bound keeps 1+r positive.
const (
	IRRLowerBound = -0.99
	IRRUpperBound = 5.00
	IRRIterations = 100
)

// Compute evaluates a scenario and returns its metrics and cash-flow projection.
//
// Only scenarios that fail Validate produce an error. Metrics that cannot be computed
// for an otherwise valid scenario are returned as undefined fields of the Result.
func Compute(s Scenario) (Result, []CashFlowPoint, error) {
	if err := s.Validate(); err != nil {
		return Result{}, nil, err
	}

	rate := s.DiscountRate / 100
	flows := make([]CashFlowPoint, 0, s.Years)

	// NPV and the projection share one loop so the cross-check
	// NPV == -I + sum(DiscountedBenefit) holds exactly.
	npv := -s.InitialInvestment
	cumulative := -s.InitialInvestment
	for t := 1; t <= s.Years; t++ {
		discounted := discount(s.AnnualBenefit, rate, t)
		npv += discounted
		cumulative += s.AnnualBenefit
		flows = append(flows, CashFlowPoint{
			Period:            t,
			Label:             fmt.Sprintf("Year %d", t),
			NominalBenefit:    s.AnnualBenefit,
			CumulativeNominal: cumulative,
			DiscountedBenefit: discounted,
		})
	}

	if !isFinite(npv) || !isFinite(cumulative) {
		return Result{}, nil, ErrNonFiniteResult
	}

	result := Result{
		SimpleROI:     SimpleROI(s),
		PaybackPeriod: PaybackPeriod(s),
		NPV:           npv,
		IRR:           IRR(s),
	}
	return result, flows, nil
}

// SimpleROI returns net benefit over the horizon as a percentage of the outlay.
//
// FORMULA: ROI = (AnnualBenefit × Years − InitialInvestment) / InitialInvestment × 100
//
// No time-value adjustment is made.
func SimpleROI(s Scenario) Metric {
	if s.InitialInvestment == 0 {
		return Undefined("initial investment is zero")
	}
	total := s.AnnualBenefit * float64(s.Years)
	return finiteMetric((total-s.InitialInvestment)/s.InitialInvestment*100, "ROI overflows the numeric range")
}

// PaybackPeriod returns InitialInvestment / AnnualBenefit in periods.
//
// This is a flat-quotient approximation, not the crossing point of the cumulative
// curve, and it is not capped at Years: a short horizon can report a payback longer
// than the horizon itself.
func PaybackPeriod(s Scenario) Metric {
	if s.InitialInvestment == 0 {
		return Undefined("initial investment is zero")
	}
	if s.AnnualBenefit == 0 {
		return Undefined("annual benefit is zero")
	}
	return finiteMetric(s.InitialInvestment/s.AnnualBenefit, "payback overflows the numeric range")
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func finiteMetric(v float64, reason string) Metric {
	if !isFinite(v) {
		return Undefined(reason)
	}
	return Defined(v)
}

// NPVAt returns the net present value of the scenario at ratePct (8 means 8%).
func (s Scenario) NPVAt(ratePct float64) float64 {
	return npvAt(s, ratePct/100)
}

// npvAt discounts the benefit stream at a decimal rate.
//
// FORMULA: NPV = −I + Σ_{t=1..n} B / (1 + r)^t
func npvAt(s Scenario, rate float64) float64 {
	npv := -s.InitialInvestment
	for t := 1; t <= s.Years; t++ {
		npv += discount(s.AnnualBenefit, rate, t)
	}
	return npv
}

// discount returns B / (1 + r)^t. A zero benefit stays zero when the factor underflows.
func discount(benefit, rate float64, t int) float64 {
	if benefit == 0 {
		return 0
	}
	return benefit / math.Pow(1+rate, float64(t))
}

// IRR finds the rate at which NPV is zero by bisection over
// [IRRLowerBound, IRRUpperBound] and reports it as a percentage.
//
// NPV is strictly decreasing in the rate when AnnualBenefit > 0 and Years >= 1, so a
// root exists in the bracket only if NPV changes sign across it. Otherwise the metric
// is undefined.
func IRR(s Scenario) Metric {
	if err := s.Validate(); err != nil {
		return Undefined(err.Error())
	}
	if s.Years == 0 {
		return Undefined("no benefit periods")
	}
	if s.AnnualBenefit <= 0 {
		return Undefined("annual benefit is not positive")
	}

	lo, hi := IRRLowerBound, IRRUpperBound
	npvLo, npvHi := npvAt(s, lo), npvAt(s, hi)
	switch {
	case npvLo == 0:
		return Defined(lo * 100)
	case npvHi == 0:
		return Defined(hi * 100)
	case npvLo < 0:
		return Undefined("NPV is negative across the search range (IRR below -99%)")
	case npvHi > 0:
		return Undefined("NPV is positive across the search range (IRR above 500%)")
	}

	for i := 0; i < IRRIterations; i++ {
		mid := (lo + hi) / 2
		v := npvAt(s, mid)
		if v == 0 {
			return Defined(mid * 100)
		}
		if v > 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return Defined(lo * 100)
}
