package roi

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestSensitivity_DefaultScenarioRanking(t *testing.T) {
	s := DefaultScenario()
	drivers, err := Sensitivity(s, DefaultSwingPct)
	if err != nil {
		t.Fatalf("Sensitivity returned error: %v", err)
	}
	if len(drivers) != 4 {
		t.Fatalf("expected 4 drivers, got %d", len(drivers))
	}

	// Years swing 3 -> 2 / 4 dominates a three-year horizon.
	wantOrder := []string{"years", "annual_benefit", "initial_investment", "discount_rate"}
	for i, name := range wantOrder {
		if drivers[i].Assumption != name {
			t.Errorf("rank %d: expected %s, got %s", i, name, drivers[i].Assumption)
		}
	}
	for i := 1; i < len(drivers); i++ {
		if drivers[i].NPVDelta > drivers[i-1].NPVDelta {
			t.Errorf("drivers not sorted by NPV delta at %d", i)
		}
	}

	byName := map[string]Driver{}
	for _, d := range drivers {
		byName[d.Assumption] = d
	}

	// A ±20% benefit swing moves NPV by 40% of the gross present value.
	grossPV := s.NPVAt(s.DiscountRate) + s.InitialInvestment
	if got := byName["annual_benefit"].NPVDelta; math.Abs(got-0.4*grossPV) > 1e-6 {
		t.Errorf("benefit delta expected %f, got %f", 0.4*grossPV, got)
	}
	if got := byName["initial_investment"].NPVDelta; math.Abs(got-132000) > 1e-6 {
		t.Errorf("investment delta expected 132000, got %f", got)
	}
	if y := byName["years"]; y.LowInput != 2 || y.HighInput != 4 {
		t.Errorf("years swing expected 2..4, got %v..%v", y.LowInput, y.HighInput)
	}
	if !strings.Contains(byName["initial_investment"].Direction, "decreases") {
		t.Errorf("investment direction should say decreases: %s", byName["initial_investment"].Direction)
	}
	if !strings.Contains(byName["annual_benefit"].Direction, "increases") {
		t.Errorf("benefit direction should say increases: %s", byName["annual_benefit"].Direction)
	}
}

func TestSensitivity_SkipsInvalidPerturbations(t *testing.T) {
	s := Scenario{InitialInvestment: 1000, AnnualBenefit: 400, Years: 5, DiscountRate: -90}
	drivers, err := Sensitivity(s, 20)
	if err != nil {
		t.Fatalf("Sensitivity returned error: %v", err)
	}
	for _, d := range drivers {
		if d.Assumption == "discount_rate" {
			t.Errorf("a -108%% rate perturbation should have been skipped")
		}
	}
	if len(drivers) != 3 {
		t.Errorf("expected 3 drivers, got %d", len(drivers))
	}
}

func TestSensitivity_RejectsBadInput(t *testing.T) {
	for _, swing := range []float64{0, -5, 100, math.NaN()} {
		if _, err := Sensitivity(DefaultScenario(), swing); !errors.Is(err, ErrInvalidSwing) {
			t.Errorf("swing %v: expected ErrInvalidSwing, got %v", swing, err)
		}
	}
	if _, err := Sensitivity(Scenario{Years: -1}, 20); !errors.Is(err, ErrInvalidScenario) {
		t.Errorf("expected ErrInvalidScenario, got %v", err)
	}
}

func TestSensitivity_SkipsOverflowingPerturbations(t *testing.T) {
	// 370 periods at -85% stays finite; the 444-period swing overflows.
	s := Scenario{InitialInvestment: 1000, AnnualBenefit: 100, Years: 370, DiscountRate: -85}
	if _, _, err := Compute(s); err != nil {
		t.Fatalf("base scenario should compute: %v", err)
	}
	drivers, err := Sensitivity(s, 20)
	if err != nil {
		t.Fatalf("Sensitivity returned error: %v", err)
	}
	for _, d := range drivers {
		if d.Assumption == "years" || d.Assumption == "discount_rate" {
			t.Errorf("%s perturbation should have been skipped", d.Assumption)
		}
		for _, v := range []float64{d.NPVLow, d.NPVHigh, d.NPVDelta} {
			if math.IsInf(v, 0) || math.IsNaN(v) {
				t.Errorf("%s carries a non-finite value: %+v", d.Assumption, d)
			}
		}
	}
	if len(drivers) != 2 {
		t.Errorf("expected 2 drivers, got %d", len(drivers))
	}
}
