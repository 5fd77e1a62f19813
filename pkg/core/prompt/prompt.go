// Package prompt provides the prompt library for text-generation requests.
// Prompts are defined in JSON files under resources/prompts/<category>/ and
// loaded at runtime, so wording can change without a rebuild.
package prompt

// PromptTemplate represents a reusable prompt with metadata
type PromptTemplate struct {
	ID             string           `json:"id"`                   // e.g. "advisor.roi_analysis"
	Name           string           `json:"name"`                 // Human-readable name
	Category       string           `json:"category"`             // Folder name when omitted
	Description    string           `json:"description"`          // Description of prompt purpose
	SystemPrompt   string           `json:"system_prompt"`        // The system prompt content
	UserPromptTmpl string           `json:"user_prompt_template"` // Go template for user prompt
	Variables      []PromptVariable `json:"variables"`            // Variables used in template
	Version        string           `json:"version"`
}

// PromptVariable defines a variable used in a prompt template
type PromptVariable struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // string, float, int, array
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Default     string `json:"default"`
}

// PromptExecutionContext holds runtime values for prompt execution
type PromptExecutionContext struct {
	Variables map[string]interface{}
}

// NewContext creates a new execution context
func NewContext() *PromptExecutionContext {
	return &PromptExecutionContext{
		Variables: make(map[string]interface{}),
	}
}

// Set adds a variable to the context
func (c *PromptExecutionContext) Set(key string, value interface{}) *PromptExecutionContext {
	c.Variables[key] = value
	return c
}

// Missing returns the required variables of pt that are absent from the context.
// Absent optional variables are set to their default, which may be empty.
func (c *PromptExecutionContext) Missing(pt *PromptTemplate) []string {
	var missing []string
	for _, v := range pt.Variables {
		if _, ok := c.Variables[v.Name]; ok {
			continue
		}
		if v.Required && v.Default == "" {
			missing = append(missing, v.Name)
			continue
		}
		c.Variables[v.Name] = v.Default
	}
	return missing
}
