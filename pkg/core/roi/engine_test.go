package roi

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
)

func approx(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func mustCompute(t *testing.T, s Scenario) (Result, []CashFlowPoint) {
	t.Helper()
	res, flows, err := Compute(s)
	if err != nil {
		t.Fatalf("Compute(%+v) returned error: %v", s, err)
	}
	return res, flows
}

func TestCompute_ConsultingScenario(t *testing.T) {
	s := Scenario{InitialInvestment: 330000, AnnualBenefit: 234375, Years: 3, DiscountRate: 8}
	res, flows := mustCompute(t, s)

	// (234375*3 - 330000) / 330000 * 100
	if !res.SimpleROI.Defined || !approx(res.SimpleROI.Value, 113.0682, 0.001) {
		t.Errorf("SimpleROI expected ~113.07, got %+v", res.SimpleROI)
	}
	if !res.PaybackPeriod.Defined || !approx(res.PaybackPeriod.Value, 1.408, 1e-9) {
		t.Errorf("PaybackPeriod expected 1.408, got %+v", res.PaybackPeriod)
	}

	wantNPV := -330000 + 234375/1.08 + 234375/math.Pow(1.08, 2) + 234375/math.Pow(1.08, 3)
	if !approx(res.NPV, wantNPV, 1e-6) {
		t.Errorf("NPV expected %.4f, got %.4f", wantNPV, res.NPV)
	}
	if !approx(res.NPV, 274007, 1) {
		t.Errorf("NPV expected ~274,007, got %.2f", res.NPV)
	}

	if !res.IRR.Defined {
		t.Fatalf("IRR should be defined, got reason %q", res.IRR.Reason)
	}
	if res.IRR.Value < 49.5 || res.IRR.Value > 50.5 {
		t.Errorf("IRR expected ~49.96%%, got %.4f", res.IRR.Value)
	}
	if v := s.NPVAt(res.IRR.Value); math.Abs(v) > 1 {
		t.Errorf("NPV at IRR should be ~0, got %.6f", v)
	}

	if len(flows) != 3 {
		t.Fatalf("expected 3 cash flow points, got %d", len(flows))
	}
	wantCumulative := []float64{-95625, 138750, 373125}
	for i, p := range flows {
		if p.Period != i+1 {
			t.Errorf("flow %d: period expected %d, got %d", i, i+1, p.Period)
		}
		if p.NominalBenefit != 234375 {
			t.Errorf("flow %d: nominal benefit expected 234375, got %f", i, p.NominalBenefit)
		}
		if !approx(p.CumulativeNominal, wantCumulative[i], 1e-9) {
			t.Errorf("flow %d: cumulative expected %f, got %f", i, wantCumulative[i], p.CumulativeNominal)
		}
		wantDisc := 234375 / math.Pow(1.08, float64(i+1))
		if !approx(p.DiscountedBenefit, wantDisc, 1e-9) {
			t.Errorf("flow %d: discounted expected %f, got %f", i, wantDisc, p.DiscountedBenefit)
		}
	}
	if flows[0].Label != "Year 1" || flows[2].Label != "Year 3" {
		t.Errorf("unexpected labels: %q, %q", flows[0].Label, flows[2].Label)
	}
}

func TestCompute_ZeroBenefit(t *testing.T) {
	res, flows := mustCompute(t, Scenario{InitialInvestment: 500000, AnnualBenefit: 0, Years: 5, DiscountRate: 10})

	if res.NPV != -500000 {
		t.Errorf("NPV expected -500000, got %f", res.NPV)
	}
	if res.PaybackPeriod.Defined {
		t.Errorf("PaybackPeriod should be undefined, got %f", res.PaybackPeriod.Value)
	}
	if !res.SimpleROI.Defined || res.SimpleROI.Value != -100 {
		t.Errorf("SimpleROI expected -100, got %+v", res.SimpleROI)
	}
	if res.IRR.Defined {
		t.Errorf("IRR should be undefined, got %f", res.IRR.Value)
	}
	if len(flows) != 5 {
		t.Errorf("expected 5 cash flow points, got %d", len(flows))
	}
}

func TestCompute_ZeroInvestmentLeavesRatiosUndefined(t *testing.T) {
	res, _ := mustCompute(t, Scenario{InitialInvestment: 0, AnnualBenefit: 1000, Years: 3, DiscountRate: 8})

	for name, m := range map[string]Metric{"SimpleROI": res.SimpleROI, "PaybackPeriod": res.PaybackPeriod} {
		if m.Defined {
			t.Errorf("%s should be undefined", name)
		}
		if m.Reason == "" {
			t.Errorf("%s should carry a reason", name)
		}
		if math.IsNaN(m.Value) || math.IsInf(m.Value, 0) {
			t.Errorf("%s leaked a non-finite value: %f", name, m.Value)
		}
	}
	// NPV is positive at every rate, so there is no sign change to bracket.
	if res.IRR.Defined {
		t.Errorf("IRR should be undefined with zero investment, got %f", res.IRR.Value)
	}

	data, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"simple_roi":{"value":null,"defined":false`) {
		t.Errorf("undefined ROI should encode a null value, got %s", data)
	}
}

func TestCompute_ZeroYears(t *testing.T) {
	res, flows := mustCompute(t, Scenario{InitialInvestment: 1000, AnnualBenefit: 400, Years: 0, DiscountRate: 5})

	if len(flows) != 0 {
		t.Errorf("expected no cash flow points, got %d", len(flows))
	}
	if res.NPV != -1000 {
		t.Errorf("NPV expected -1000, got %f", res.NPV)
	}
	if !res.SimpleROI.Defined || res.SimpleROI.Value != -100 {
		t.Errorf("SimpleROI expected -100, got %+v", res.SimpleROI)
	}
	// Payback ignores the horizon.
	if !res.PaybackPeriod.Defined || res.PaybackPeriod.Value != 2.5 {
		t.Errorf("PaybackPeriod expected 2.5, got %+v", res.PaybackPeriod)
	}
	if res.IRR.Defined {
		t.Errorf("IRR should be undefined without benefit periods")
	}
}

func TestCompute_NegativeBenefit(t *testing.T) {
	res, _ := mustCompute(t, Scenario{InitialInvestment: 1000, AnnualBenefit: -200, Years: 4, DiscountRate: 8})

	if res.NPV >= -1000 {
		t.Errorf("NPV should be below -I, got %f", res.NPV)
	}
	if res.IRR.Defined {
		t.Errorf("IRR should be undefined for a negative benefit, got %f", res.IRR.Value)
	}
	if !res.PaybackPeriod.Defined || res.PaybackPeriod.Value != -5 {
		t.Errorf("PaybackPeriod expected flat quotient -5, got %+v", res.PaybackPeriod)
	}
}

func TestCompute_NegativeDiscountRate(t *testing.T) {
	res, _ := mustCompute(t, Scenario{InitialInvestment: 100, AnnualBenefit: 60, Years: 2, DiscountRate: -50})

	// 60/0.5 + 60/0.25 - 100
	if !approx(res.NPV, 260, 1e-9) {
		t.Errorf("NPV expected 260, got %f", res.NPV)
	}
}

func TestCompute_RejectsInvalidScenarios(t *testing.T) {
	tests := []struct {
		name string
		s    Scenario
		want error
	}{
		{"negative years", Scenario{InitialInvestment: 100, AnnualBenefit: 10, Years: -1, DiscountRate: 8}, ErrNegativeYears},
		{"negative investment", Scenario{InitialInvestment: -1, AnnualBenefit: 10, Years: 3, DiscountRate: 8}, ErrNegativeInvestment},
		{"rate at -100", Scenario{InitialInvestment: 100, AnnualBenefit: 10, Years: 3, DiscountRate: -100}, ErrInvalidDiscountRate},
		{"rate below -100", Scenario{InitialInvestment: 100, AnnualBenefit: 10, Years: 3, DiscountRate: -150}, ErrInvalidDiscountRate},
		{"NaN benefit", Scenario{InitialInvestment: 100, AnnualBenefit: math.NaN(), Years: 3, DiscountRate: 8}, ErrNonFiniteInput},
		{"infinite investment", Scenario{InitialInvestment: math.Inf(1), AnnualBenefit: 10, Years: 3, DiscountRate: 8}, ErrNonFiniteInput},
		{"years past MaxYears", Scenario{InitialInvestment: 1000, AnnualBenefit: 100, Years: MaxYears + 1, DiscountRate: 8}, ErrYearsTooLarge},
		{"years near 2^50", Scenario{InitialInvestment: 1000, AnnualBenefit: 100, Years: 1 << 50, DiscountRate: 8}, ErrYearsTooLarge},
		{"NPV overflows", Scenario{InitialInvestment: 100, AnnualBenefit: 100, Years: 400, DiscountRate: -90}, ErrNonFiniteResult},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, flows, err := Compute(tt.s)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if !errors.Is(err, ErrInvalidScenario) {
				t.Errorf("error should wrap ErrInvalidScenario: %v", err)
			}
			if flows != nil || res != (Result{}) {
				t.Errorf("expected no partial result, got %+v / %v", res, flows)
			}
		})
	}
}

func TestCompute_LongHorizons(t *testing.T) {
	res, flows := mustCompute(t, Scenario{InitialInvestment: 1000, AnnualBenefit: 100, Years: MaxYears, DiscountRate: 8})
	if len(flows) != MaxYears {
		t.Fatalf("expected %d flows, got %d", MaxYears, len(flows))
	}
	// Perpetuity limit B/r - I.
	if !approx(res.NPV, 100/0.08-1000, 1e-6) {
		t.Errorf("NPV expected %f, got %f", 100/0.08-1000, res.NPV)
	}

	// The discount factor underflows to zero; a zero benefit must still give NPV = -I.
	res, _ = mustCompute(t, Scenario{InitialInvestment: 100, AnnualBenefit: 0, Years: 400, DiscountRate: -90})
	if res.NPV != -100 {
		t.Errorf("NPV expected -100, got %f", res.NPV)
	}
	if _, err := json.Marshal(res); err != nil {
		t.Errorf("result should marshal: %v", err)
	}
}

var propertyScenarios = []Scenario{
	{InitialInvestment: 330000, AnnualBenefit: 234375, Years: 3, DiscountRate: 8},
	{InitialInvestment: 500000, AnnualBenefit: 450000, Years: 3, DiscountRate: 10},
	{InitialInvestment: 1200000, AnnualBenefit: 2000000, Years: 3, DiscountRate: 12},
	{InitialInvestment: 75000, AnnualBenefit: 9000, Years: 15, DiscountRate: 4.5},
	{InitialInvestment: 250000, AnnualBenefit: 40000, Years: 10, DiscountRate: 0},
	{InitialInvestment: 90000, AnnualBenefit: 30000, Years: 5, DiscountRate: -5},
}

func TestCompute_NPVMatchesDiscountedCashFlows(t *testing.T) {
	for _, s := range propertyScenarios {
		res, flows := mustCompute(t, s)
		sum := -s.InitialInvestment
		for _, p := range flows {
			sum += p.DiscountedBenefit
		}
		if math.Abs(res.NPV-sum) > 1e-6*math.Max(1, math.Abs(res.NPV)) {
			t.Errorf("%+v: NPV %f differs from cash flow sum %f", s, res.NPV, sum)
		}
		if !approx(res.NPV, s.NPVAt(s.DiscountRate), 1e-6*math.Max(1, math.Abs(res.NPV))) {
			t.Errorf("%+v: NPVAt disagrees with Compute", s)
		}
	}
}

func TestCompute_PaybackIsInverseOfBenefit(t *testing.T) {
	for _, s := range propertyScenarios {
		res, _ := mustCompute(t, s)
		if !res.PaybackPeriod.Defined {
			t.Fatalf("%+v: payback should be defined", s)
		}
		if !approx(res.PaybackPeriod.Value*s.AnnualBenefit, s.InitialInvestment, 1e-6) {
			t.Errorf("%+v: payback x benefit = %f, want %f", s, res.PaybackPeriod.Value*s.AnnualBenefit, s.InitialInvestment)
		}
	}
}

func TestCompute_IRRZeroesNPV(t *testing.T) {
	for _, s := range propertyScenarios {
		res, _ := mustCompute(t, s)
		if !res.IRR.Defined {
			t.Fatalf("%+v: IRR should be defined, reason %q", s, res.IRR.Reason)
		}
		if v := s.NPVAt(res.IRR.Value); math.Abs(v) >= 1 {
			t.Errorf("%+v: NPV at IRR %.6f%% is %f", s, res.IRR.Value, v)
		}
	}
}

func TestCompute_MonotonicInBenefit(t *testing.T) {
	benefits := []float64{100000, 150000, 200000, 250000, 300000}
	var prev Result
	for i, b := range benefits {
		res, _ := mustCompute(t, Scenario{InitialInvestment: 330000, AnnualBenefit: b, Years: 3, DiscountRate: 8})
		if !res.IRR.Defined {
			t.Fatalf("benefit %f: IRR should be defined", b)
		}
		if i > 0 {
			if res.NPV <= prev.NPV {
				t.Errorf("benefit %f: NPV did not increase (%f <= %f)", b, res.NPV, prev.NPV)
			}
			if res.SimpleROI.Value <= prev.SimpleROI.Value {
				t.Errorf("benefit %f: ROI did not increase", b)
			}
			if res.IRR.Value <= prev.IRR.Value {
				t.Errorf("benefit %f: IRR did not increase (%f <= %f)", b, res.IRR.Value, prev.IRR.Value)
			}
			if res.PaybackPeriod.Value >= prev.PaybackPeriod.Value {
				t.Errorf("benefit %f: payback did not decrease", b)
			}
		}
		prev = res
	}
}

func TestIRR_OutsideBracketIsUndefined(t *testing.T) {
	tests := []struct {
		name string
		s    Scenario
		want string
	}{
		{"return above 500%", Scenario{InitialInvestment: 1, AnnualBenefit: 1000000, Years: 1, DiscountRate: 8}, "above 500%"},
		{"loss beyond -99%", Scenario{InitialInvestment: 1000000, AnnualBenefit: 1, Years: 1, DiscountRate: 8}, "below -99%"},
		{"no periods", Scenario{InitialInvestment: 1000, AnnualBenefit: 100, Years: 0, DiscountRate: 8}, "no benefit periods"},
		{"invalid rate", Scenario{InitialInvestment: 1000, AnnualBenefit: 100, Years: 3, DiscountRate: -100}, "discount rate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := IRR(tt.s)
			if m.Defined {
				t.Fatalf("IRR should be undefined, got %f", m.Value)
			}
			if !strings.Contains(m.Reason, tt.want) {
				t.Errorf("reason %q should mention %q", m.Reason, tt.want)
			}
		})
	}
}

func TestIRR_BreakEvenIsZero(t *testing.T) {
	// Benefits exactly repay the outlay with no return.
	m := IRR(Scenario{InitialInvestment: 300, AnnualBenefit: 100, Years: 3, DiscountRate: 8})
	if !m.Defined || !approx(m.Value, 0, 1e-9) {
		t.Errorf("IRR expected 0, got %+v", m)
	}
}

func TestCompute_PaybackNotCappedByHorizon(t *testing.T) {
	res, _ := mustCompute(t, Scenario{InitialInvestment: 1000000, AnnualBenefit: 100000, Years: 3, DiscountRate: 8})
	if !res.PaybackPeriod.Defined || res.PaybackPeriod.Value != 10 {
		t.Errorf("PaybackPeriod expected uncapped 10, got %+v", res.PaybackPeriod)
	}
}

func TestCompute_Idempotent(t *testing.T) {
	s := DefaultScenario()
	res1, flows1 := mustCompute(t, s)
	res2, flows2 := mustCompute(t, s)
	if !reflect.DeepEqual(res1, res2) || !reflect.DeepEqual(flows1, flows2) {
		t.Errorf("repeated computation differs:\n%+v\n%+v", res1, res2)
	}
}

func TestMetric_String(t *testing.T) {
	if got := Defined(12.345).String(); got != "12.35" {
		t.Errorf("expected 12.35, got %s", got)
	}
	if got := Undefined("nope").String(); got != "N/A" {
		t.Errorf("expected N/A, got %s", got)
	}
}
