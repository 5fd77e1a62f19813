package roi

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// DefaultSwingPct is the relative swing applied to each assumption when none is given.
const DefaultSwingPct = 20.0

var ErrInvalidSwing = errors.New("swing must be between 0 and 100 percent (exclusive)")

// Driver describes how strongly one assumption moves NPV when swung down and up.
type Driver struct {
	Assumption string  `json:"assumption"`
	LowInput   float64 `json:"low_input"`
	HighInput  float64 `json:"high_input"`
	NPVLow     float64 `json:"npv_low"`
	NPVHigh    float64 `json:"npv_high"`
	NPVDelta   float64 `json:"npv_delta"`
	Direction  string  `json:"direction"`
}

// Sensitivity swings each assumption by ±swingPct percent of its current value and
// ranks the assumptions by the absolute NPV spread they cause, largest first.
//
// Years is rounded to the nearest whole period. Perturbations that produce an invalid
// scenario (a discount rate pushed to -100% or below, a horizon past MaxYears) or an
// NPV outside the float64 range are skipped.
func Sensitivity(s Scenario, swingPct float64) ([]Driver, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if math.IsNaN(swingPct) || swingPct <= 0 || swingPct >= 100 {
		return nil, ErrInvalidSwing
	}
	k := swingPct / 100

	type candidate struct {
		name  string
		label string
		low   Scenario
		high  Scenario
		lowIn float64
		hiIn  float64
	}

	benefitLow, benefitHigh := s, s
	benefitLow.AnnualBenefit = s.AnnualBenefit * (1 - k)
	benefitHigh.AnnualBenefit = s.AnnualBenefit * (1 + k)

	investLow, investHigh := s, s
	investLow.InitialInvestment = s.InitialInvestment * (1 - k)
	investHigh.InitialInvestment = s.InitialInvestment * (1 + k)

	rateLow, rateHigh := s, s
	rateLow.DiscountRate = s.DiscountRate * (1 - k)
	rateHigh.DiscountRate = s.DiscountRate * (1 + k)

	yearsLow, yearsHigh := s, s
	yearsLow.Years = int(math.Round(float64(s.Years) * (1 - k)))
	yearsHigh.Years = int(math.Round(float64(s.Years) * (1 + k)))

	cands := []candidate{
		{"annual_benefit", "annual benefit", benefitLow, benefitHigh, benefitLow.AnnualBenefit, benefitHigh.AnnualBenefit},
		{"initial_investment", "initial investment", investLow, investHigh, investLow.InitialInvestment, investHigh.InitialInvestment},
		{"discount_rate", "discount rate", rateLow, rateHigh, rateLow.DiscountRate, rateHigh.DiscountRate},
		{"years", "project lifespan", yearsLow, yearsHigh, float64(yearsLow.Years), float64(yearsHigh.Years)},
	}

	out := make([]Driver, 0, len(cands))
	for _, c := range cands {
		if c.low.Validate() != nil || c.high.Validate() != nil {
			continue
		}
		nLow := npvAt(c.low, c.low.DiscountRate/100)
		nHigh := npvAt(c.high, c.high.DiscountRate/100)
		if !isFinite(nLow) || !isFinite(nHigh) || !isFinite(nHigh-nLow) {
			continue
		}
		delta := math.Abs(nHigh - nLow)

		verb := "increases"
		if nHigh < nLow {
			verb = "decreases"
		}
		out = append(out, Driver{
			Assumption: c.name,
			LowInput:   c.lowIn,
			HighInput:  c.hiIn,
			NPVLow:     nLow,
			NPVHigh:    nHigh,
			NPVDelta:   delta,
			Direction:  fmt.Sprintf("Higher %s %s NPV by $%.0f", c.label, verb, delta),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].NPVDelta > out[j].NPVDelta })
	return out, nil
}
