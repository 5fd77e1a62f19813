package prompt

// PromptIDs contains all known prompt identifiers
var PromptIDs = struct {
	AdvisorROIAnalysis string
}{
	AdvisorROIAnalysis: "advisor.roi_analysis",
}

// GetAdvisorPrompt returns an advisor prompt template from the global registry.
func GetAdvisorPrompt(name string) (*PromptTemplate, error) {
	return Get().GetPrompt("advisor." + name)
}
