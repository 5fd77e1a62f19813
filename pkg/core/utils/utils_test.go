package utils

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

type sample struct {
	InitialInvestment float64 `json:"initial_investment"`
	Years             int     `json:"years"`
}

func TestDecodeLenient_StrictJSON(t *testing.T) {
	var s sample
	strategy, err := DecodeLenient([]byte(`{"initial_investment": 330000, "years": 3}`), &s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strategy != "json" {
		t.Errorf("expected json strategy, got %s", strategy)
	}
	if s.InitialInvestment != 330000 || s.Years != 3 {
		t.Errorf("unexpected decode: %+v", s)
	}
}

func TestDecodeLenient_TrailingComma(t *testing.T) {
	var s sample
	if _, err := DecodeLenient([]byte(`{"initial_investment": 1000, "years": 5,}`), &s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.InitialInvestment != 1000 || s.Years != 5 {
		t.Errorf("unexpected decode: %+v", s)
	}
}

func TestDecodeLenient_HjsonComments(t *testing.T) {
	var s sample
	strategy, err := DecodeLenient([]byte("{\n  # pilot\n  initial_investment: 500000\n  years: 5\n}"), &s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strategy != "hjson" {
		t.Errorf("expected hjson strategy, got %s", strategy)
	}
	if s.InitialInvestment != 500000 || s.Years != 5 {
		t.Errorf("unexpected decode: %+v", s)
	}
}

func TestDecodeLenient_Empty(t *testing.T) {
	var s sample
	if _, err := DecodeLenient([]byte("   "), &s); !errors.Is(err, ErrUnparseable) {
		t.Errorf("expected ErrUnparseable, got %v", err)
	}
}

func TestHJSONToJSON(t *testing.T) {
	out, err := HJSONToJSON("{\n  initial_investment: 1000\n  years: 3\n}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var s sample
	if err := json.Unmarshal([]byte(out), &s); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, out)
	}
	if s.InitialInvestment != 1000 || s.Years != 3 {
		t.Errorf("unexpected decode: %+v", s)
	}
}

func TestCleanMarkdown(t *testing.T) {
	tests := map[string]string{
		"```markdown\n**Executive Summary**\nSolid.\n```": "**Executive Summary**\nSolid.",
		"```\n# Title\n```":                                "# Title",
		"  plain text  ":                                   "plain text",
	}
	for in, want := range tests {
		if got := CleanMarkdown(in); got != want {
			t.Errorf("CleanMarkdown(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRenderHTML(t *testing.T) {
	html, err := RenderHTML("## Risk Factors\n\nAdoption risk.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(html, "<h2>Risk Factors</h2>") {
		t.Errorf("expected h2 heading, got %s", html)
	}
	if !ValidateMarkdown("text") {
		t.Errorf("plain text should be valid markdown")
	}
	if ValidateMarkdown("") {
		t.Errorf("empty input should not be valid markdown")
	}
}
