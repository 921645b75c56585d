// Package prompts runs the job-posting workflow: provision the caller,
// enforce the monthly quota, generate content and record the outcome.
package prompts

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jobscout/jobscout/pkg/domain"
	"github.com/jobscout/jobscout/pkg/events"
	"github.com/jobscout/jobscout/pkg/generator"
	"github.com/jobscout/jobscout/pkg/logger"
	"github.com/jobscout/jobscout/pkg/models"
	"github.com/jobscout/jobscout/pkg/users"
)

// Provisioner ensures a profile exists for the caller
type Provisioner interface {
	Ensure(ctx context.Context, id users.Identity) (*domain.User, error)
}

// QuotaTracker reports monthly usage
type QuotaTracker interface {
	Check(ctx context.Context, userID string) domain.Usage
	Snapshot(ctx context.Context, userID string) (domain.Usage, error)
}

// Generator produces resume content for a job posting
type Generator interface {
	Generate(ctx context.Context, jobPost string) (*generator.Content, error)
}

// Recorder receives workflow metrics
type Recorder interface {
	RecordPrompt(status string)
	RecordGeneration(d time.Duration)
	RecordQuotaRejection()
}

type nopRecorder struct{}

func (nopRecorder) RecordPrompt(string)             {}
func (nopRecorder) RecordGeneration(time.Duration) {}
func (nopRecorder) RecordQuotaRejection()           {}

// Deps are the collaborators of a Service
type Deps struct {
	Users     Provisioner
	Quota     QuotaTracker
	Prompts   domain.PromptRepository
	Contents  domain.GeneratedContentRepository
	Generator Generator
	Events    *events.Emitter
	Metrics   Recorder
	Clock     domain.Clock
	Logger    logger.Logger
}

// Service is the prompt orchestrator
type Service struct {
	users     Provisioner
	quota     QuotaTracker
	prompts   domain.PromptRepository
	contents  domain.GeneratedContentRepository
	generator Generator
	events    *events.Emitter
	metrics   Recorder
	clock     domain.Clock
	logger    logger.Logger
}

// Result is a completed submission
type Result struct {
	Prompt  domain.Prompt
	Content domain.GeneratedContent
	Usage   domain.Usage
}

// NewService creates a prompt service
func NewService(d Deps) *Service {
	if d.Metrics == nil {
		d.Metrics = nopRecorder{}
	}
	if d.Clock == nil {
		d.Clock = domain.SystemClock{}
	}
	if d.Logger == nil {
		d.Logger = logger.Default()
	}
	return &Service{
		users:     d.Users,
		quota:     d.Quota,
		prompts:   d.Prompts,
		contents:  d.Contents,
		generator: d.Generator,
		events:    d.Events,
		metrics:   d.Metrics,
		clock:     d.Clock,
		logger:    d.Logger.With("component", "prompts"),
	}
}

// Process runs one submission end to end. The quota is checked before the
// body is validated, so an exhausted user gets 403 even for a bad body.
// Generation happens inline and is not retried; a failed prompt stays
// visible as failed history.
func (s *Service) Process(ctx context.Context, id users.Identity, req models.ProcessPromptRequest) (*Result, error) {
	if id.ID == "" {
		return nil, domain.NewUnauthorizedError()
	}

	if _, err := s.users.Ensure(ctx, id); err != nil {
		return nil, err
	}

	usage := s.quota.Check(ctx, id.ID)
	if !usage.CanCreate {
		s.metrics.RecordQuotaRejection()
		return nil, domain.NewUsageLimitError(usage)
	}

	in, err := Validate(req)
	if err != nil {
		return nil, err
	}

	// a client disconnect must not abandon a prompt half way
	ctx = context.WithoutCancel(ctx)

	title := in.Title
	if title == "" {
		title = DeriveTitle(in.JobPost, in.Company, in.Position)
	}

	prompt := &domain.Prompt{
		ID:        uuid.NewString(),
		UserID:    id.ID,
		Title:     title,
		Content:   in.JobPost,
		Company:   in.Company,
		Position:  in.Position,
		Category:  domain.DefaultCategory,
		Status:    domain.PromptStatusProcessing,
		IsActive:  true,
		CreatedAt: s.clock.Now().UTC(),
	}
	if err := s.prompts.Create(ctx, prompt); err != nil {
		s.logger.Error("failed to create prompt", "user_id", id.ID, "error", err)
		return nil, domain.NewPersistenceError("Failed to create prompt", err)
	}

	start := time.Now()
	generated, err := s.generator.Generate(ctx, in.JobPost)
	elapsed := time.Since(start)
	s.metrics.RecordGeneration(elapsed)
	if err != nil {
		s.logger.Error("content generation failed", "prompt_id", prompt.ID, "error", err)
		s.fail(ctx, prompt)
		if !domain.IsGenerationFailed(err) {
			err = domain.NewGenerationError(err)
		}
		return nil, err
	}

	elapsedMS := elapsed.Milliseconds()
	content := &domain.GeneratedContent{
		ID:               uuid.NewString(),
		PromptID:         prompt.ID,
		UserID:           id.ID,
		BulletPoints:     generated.BulletPoints,
		Skills:           generated.Skills,
		Keywords:         generated.Keywords,
		Achievements:     generated.Achievements,
		Summary:          generated.Summary,
		Model:            generated.Model,
		ProcessingTimeMS: &elapsedMS,
		CreatedAt:        s.clock.Now().UTC(),
	}
	if err := s.contents.Create(ctx, content); err != nil {
		s.logger.Error("failed to store generated content", "prompt_id", prompt.ID, "error", err)
		s.fail(ctx, prompt)
		return nil, domain.NewPersistenceError("Failed to store generated content", err)
	}

	if err := s.prompts.UpdateStatus(ctx, prompt.ID, domain.PromptStatusCompleted); err != nil {
		// content is stored; the stale reaper completes the prompt later
		s.logger.Error("failed to mark prompt completed", "prompt_id", prompt.ID, "error", err)
	} else {
		prompt.Status = domain.PromptStatusCompleted
	}

	s.metrics.RecordPrompt(string(domain.PromptStatusCompleted))
	s.events.Emit(ctx, events.PromptCompleted, events.PromptEvent{
		PromptID:         prompt.ID,
		UserID:           id.ID,
		Status:           string(domain.PromptStatusCompleted),
		Model:            content.Model,
		ProcessingTimeMS: elapsedMS,
	})

	return &Result{
		Prompt:  *prompt,
		Content: *content,
		Usage:   s.quota.Check(ctx, id.ID),
	}, nil
}

func (s *Service) fail(ctx context.Context, prompt *domain.Prompt) {
	if err := s.prompts.UpdateStatus(ctx, prompt.ID, domain.PromptStatusFailed); err != nil {
		s.logger.Error("failed to mark prompt failed", "prompt_id", prompt.ID, "error", err)
	} else {
		prompt.Status = domain.PromptStatusFailed
	}
	s.metrics.RecordPrompt(string(domain.PromptStatusFailed))
	s.events.Emit(ctx, events.PromptFailed, events.PromptEvent{
		PromptID: prompt.ID,
		UserID:   prompt.UserID,
		Status:   string(domain.PromptStatusFailed),
	})
}

// List returns the caller's active prompts, newest first
func (s *Service) List(ctx context.Context, id users.Identity) ([]domain.PromptWithContent, error) {
	if id.ID == "" {
		return nil, domain.NewUnauthorizedError()
	}
	if _, err := s.users.Ensure(ctx, id); err != nil {
		return nil, err
	}
	list, err := s.prompts.ListActiveWithContent(ctx, id.ID)
	if err != nil {
		return nil, domain.NewPersistenceError("Failed to fetch prompts", err)
	}
	return list, nil
}

// Usage returns the caller's usage snapshot. Unlike the submission check a
// counting failure is reported.
func (s *Service) Usage(ctx context.Context, id users.Identity) (domain.Usage, error) {
	if id.ID == "" {
		return domain.Usage{}, domain.NewUnauthorizedError()
	}
	if _, err := s.users.Ensure(ctx, id); err != nil {
		return domain.Usage{}, err
	}
	usage, err := s.quota.Snapshot(ctx, id.ID)
	if err != nil {
		return domain.Usage{}, domain.NewPersistenceError("Failed to fetch usage", err)
	}
	return usage, nil
}

// Delete soft-deletes an owned prompt
func (s *Service) Delete(ctx context.Context, userID, promptID string) error {
	if userID == "" {
		return domain.NewUnauthorizedError()
	}
	err := s.prompts.Deactivate(ctx, userID, promptID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewNotFoundError("Prompt")
	}
	if err != nil {
		return domain.NewPersistenceError("Failed to delete prompt", err)
	}
	s.logger.Info("prompt deactivated", "prompt_id", promptID, "user_id", userID)
	return nil
}

// Completed loads an owned, active, completed prompt with its latest content
func (s *Service) Completed(ctx context.Context, userID, promptID string) (*domain.Prompt, *domain.GeneratedContent, error) {
	prompt, err := s.prompts.Get(ctx, promptID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil, domain.NewNotFoundError("Prompt")
	}
	if err != nil {
		return nil, nil, domain.NewPersistenceError("Failed to fetch prompt", err)
	}
	if prompt.UserID != userID || !prompt.IsActive || prompt.Status != domain.PromptStatusCompleted {
		return nil, nil, domain.NewNotFoundError("Prompt")
	}

	content, err := s.contents.LatestByPrompt(ctx, promptID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil, domain.NewNotFoundError("Generated content")
	}
	if err != nil {
		return nil, nil, domain.NewPersistenceError("Failed to fetch generated content", err)
	}
	return prompt, content, nil
}
