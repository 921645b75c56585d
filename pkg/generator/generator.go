// Package generator turns a job posting into structured resume content
// through a chat completion service.
package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jobscout/jobscout/pkg/ai/llm"
	"github.com/jobscout/jobscout/pkg/domain"
	"github.com/jobscout/jobscout/pkg/logger"
)

// ErrInvalidFormat is returned when the completion is not a JSON object
var ErrInvalidFormat = errors.New("invalid response format from openai")

// Content is the parsed completion. Arrays are never nil.
type Content struct {
	BulletPoints []string `json:"bullet_points"`
	Skills       []string `json:"skills"`
	Keywords     []string `json:"keywords"`
	Achievements []string `json:"achievements"`
	Summary      *string  `json:"summary"`
	Model        string   `json:"-"`
}

// Generator builds the instruction, calls the completion client and parses
// the answer. It holds no state besides its collaborators.
type Generator struct {
	client llm.Client
	logger logger.Logger
}

// New creates a generator backed by client
func New(client llm.Client, log logger.Logger) *Generator {
	if log == nil {
		log = logger.Default()
	}
	return &Generator{client: client, logger: log.With("component", "generator")}
}

// Generate produces resume content for jobPost. Every failure is returned as
// a GENERATION_FAILED domain error.
func (g *Generator) Generate(ctx context.Context, jobPost string) (*Content, error) {
	resp, err := g.client.Chat(ctx, llm.ChatRequest{
		Messages: []llm.ChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: BuildJobPostPrompt(jobPost)},
		},
		JSONMode: true,
	})
	if err != nil {
		return nil, domain.NewGenerationError(err)
	}

	content, err := Parse(resp.Message)
	if err != nil {
		g.logger.Error("failed to parse completion", "error", err, "content", resp.Message)
		return nil, domain.NewGenerationError(err)
	}
	content.Model = resp.Model
	if content.Model == "" {
		content.Model = g.client.Model()
	}
	return content, nil
}

// Parse decodes a completion body. Only empty or non-object bodies are
// rejected. Each field is decoded on its own: a missing, null or mistyped
// array becomes empty and non-string items are dropped; summary is kept when it
// is a string (even "") and is nil otherwise.
func Parse(raw string) (*Content, error) {
	body := strings.TrimSpace(raw)
	if body == "" {
		return nil, llm.ErrEmptyResponse
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		return nil, errors.Join(ErrInvalidFormat, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: body is null", ErrInvalidFormat)
	}

	content := &Content{
		BulletPoints: stringList(fields["bullet_points"]),
		Skills:       stringList(fields["skills"]),
		Keywords:     stringList(fields["keywords"]),
		Achievements: stringList(fields["achievements"]),
	}
	var summary string
	if err := json.Unmarshal(fields["summary"], &summary); err == nil && !isNull(fields["summary"]) {
		content.Summary = &summary
	}
	return content, nil
}

// stringList returns the string items of a JSON array, or an empty slice
func stringList(raw json.RawMessage) []string {
	out := []string{}
	var items []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return out
	}
	for _, item := range items {
		var s string
		if !isNull(item) && json.Unmarshal(item, &s) == nil {
			out = append(out, s)
		}
	}
	return out
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
