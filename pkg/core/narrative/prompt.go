package narrative

import (
	"roi_advisor/pkg/core/prompt"
	"roi_advisor/pkg/core/roi"
)

const defaultSystemPrompt = "You are a senior financial analyst specializing in AI investments."

const defaultUserTemplate = `Task: Provide a concise executive summary and risk assessment for the following AI investment scenario.

Financial Data:
- Initial Investment: ${{.InitialInvestment}}
- Annual Benefit: ${{.AnnualBenefit}}
- Project Lifespan: {{.Years}} years
- Discount Rate: {{.DiscountRate}}%

Calculated Metrics:
- Simple ROI: {{.SimpleROI}}
- Payback Period: {{.PaybackPeriod}}
- NPV: ${{.NPV}}
- IRR: {{.IRR}}
{{if .Context}}
Additional Context: {{.Context}}
{{end}}{{if .Drivers}}
Sensitivity (NPV swing per assumption):
{{range .Drivers}}- {{.}}
{{end}}{{end}}
Please analyze these figures. Is this a sound investment? What are the primary sensitivity risks?
Format the output with bold headings for "Executive Summary", "Financial Strengths", and "Risk Factors".
Keep the tone professional and persuasive for a C-suite audience.`

var defaultTemplate = &prompt.PromptTemplate{
	ID:             prompt.PromptIDs.AdvisorROIAnalysis,
	Name:           "AI Investment ROI Analysis",
	Category:       "advisor",
	SystemPrompt:   defaultSystemPrompt,
	UserPromptTmpl: defaultUserTemplate,
}

// BuildPrompt renders the system and user prompts for a request. The library
// entry advisor.roi_analysis wins over the built-in template when registered.
func BuildPrompt(registry *prompt.Registry, req Request) (system, user string, err error) {
	pt := defaultTemplate
	if registry != nil {
		if loaded, lerr := registry.GetPrompt(prompt.PromptIDs.AdvisorROIAnalysis); lerr == nil {
			pt = loaded
		}
	}

	user, err = prompt.RenderUserPrompt(pt, promptVariables(req))
	if err != nil {
		return "", "", err
	}
	return pt.SystemPrompt, user, nil
}

func promptVariables(req Request) *prompt.PromptExecutionContext {
	var drivers []string
	for _, d := range req.Drivers {
		drivers = append(drivers, FormatDriver(d))
	}

	return prompt.NewContext().
		Set("InitialInvestment", FormatMoney(req.Scenario.InitialInvestment)).
		Set("AnnualBenefit", FormatMoney(req.Scenario.AnnualBenefit)).
		Set("Years", req.Scenario.Years).
		Set("DiscountRate", FormatRate(req.Scenario.DiscountRate)).
		Set("SimpleROI", FormatPercent(req.Result.SimpleROI)).
		Set("PaybackPeriod", FormatYears(req.Result.PaybackPeriod)).
		Set("NPV", FormatMoney(req.Result.NPV)).
		Set("IRR", FormatPercent(req.Result.IRR)).
		Set("Context", req.Context).
		Set("Drivers", drivers)
}

// Request is everything the advisor needs to describe one scenario.
type Request struct {
	Scenario roi.Scenario `json:"scenario"`
	Result   roi.Result   `json:"results"`
	Context  string       `json:"context,omitempty"`
	Drivers  []roi.Driver `json:"drivers,omitempty"`
}
