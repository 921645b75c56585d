package models

import "time"

// ProcessPromptRequest is the body of POST /prompts
type ProcessPromptRequest struct {
	JobPost  string  `json:"jobPost" validate:"required,min=10"`
	Title    *string `json:"title,omitempty"`
	Company  *string `json:"company,omitempty"`
	Position *string `json:"position,omitempty"`
}

// GeneratedContentResponse is the wire form of generated content
type GeneratedContentResponse struct {
	ID               string    `json:"id"`
	PromptID         string    `json:"prompt_id"`
	UserID           string    `json:"user_id"`
	BulletPoints     []string  `json:"bullet_points"`
	Skills           []string  `json:"skills"`
	Keywords         []string  `json:"keywords"`
	Achievements     []string  `json:"achievements"`
	Summary          *string   `json:"summary"`
	OpenAIModel      string    `json:"openai_model"`
	ProcessingTimeMS *int64    `json:"processing_time_ms"`
	CreatedAt        time.Time `json:"created_at"`
}

// ProcessPromptResponse is the 201 body of POST /prompts
type ProcessPromptResponse struct {
	PromptID         string                    `json:"prompt_id"`
	GeneratedContent *GeneratedContentResponse `json:"generated_content"`
	Success          bool                      `json:"success"`
	Message          string                    `json:"message"`
	Usage            UsageCheck                `json:"usage"`
}

// PromptResponse is a prompt with its nested generated content
type PromptResponse struct {
	ID               string                     `json:"id"`
	UserID           string                     `json:"user_id"`
	Title            string                     `json:"title"`
	Content          string                     `json:"content"`
	Company          *string                    `json:"company"`
	Position         *string                    `json:"position"`
	Category         string                     `json:"category"`
	Status           string                     `json:"status"`
	IsActive         bool                       `json:"is_active"`
	CreatedAt        time.Time                  `json:"created_at"`
	UpdatedAt        time.Time                  `json:"updated_at"`
	GeneratedContent []GeneratedContentResponse `json:"generated_content"`
}

// PromptListResponse is the body of GET /prompts/user
type PromptListResponse struct {
	Prompts []PromptResponse `json:"prompts"`
}
