package models

// UsageCheck is the usage snapshot embedded in prompt responses.
// Limit is null for unlimited plans.
type UsageCheck struct {
	CanCreate bool `json:"canCreate"`
	Used      int  `json:"used"`
	Limit     *int `json:"limit"`
}

// UsageResponse is the body of GET /usage
type UsageResponse struct {
	PromptsUsed     int  `json:"prompts_used"`
	PromptsLimit    *int `json:"prompts_limit"`
	CanCreatePrompt bool `json:"can_create_prompt"`
	Remaining       *int `json:"remaining"`
}

// UsageLimitResponse is the 403 body when the monthly quota is exhausted
type UsageLimitResponse struct {
	Error        string     `json:"error"`
	Message      string     `json:"message"`
	Usage        UsageCheck `json:"usage"`
	NeedsUpgrade bool       `json:"needsUpgrade"`
}
