// Package testdata builds realistic fake records for tests and local seeding.
package testdata

import (
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/jobscout/jobscout/pkg/domain"
	"github.com/jobscout/jobscout/pkg/models"
	"github.com/jobscout/jobscout/pkg/users"
)

// Faker wraps a seeded gofakeit instance so fixtures are reproducible
type Faker struct {
	f *gofakeit.Faker
}

// New returns a Faker seeded with seed. Seed 0 picks a random seed.
func New(seed int64) *Faker {
	return &Faker{f: gofakeit.New(seed)}
}

// Identity returns a verified caller with a name and email
func (fk *Faker) Identity() users.Identity {
	return users.Identity{
		ID:       uuid.NewString(),
		Email:    fk.f.Email(),
		FullName: fk.f.Name(),
	}
}

// JobPost returns a multi-paragraph job posting long enough to validate
func (fk *Faker) JobPost() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s is hiring a %s.\n\n", fk.f.Company(), fk.f.JobTitle())
	fmt.Fprintf(&b, "Responsibilities: %s\n\n", fk.f.Sentence(18))
	fmt.Fprintf(&b, "Requirements: %s", strings.Join([]string{
		fk.f.HackerNoun(), fk.f.HackerNoun(), fk.f.ProgrammingLanguage(),
	}, ", "))
	return b.String()
}

// PromptRequest returns a POST /prompts body with company and position set
func (fk *Faker) PromptRequest() models.ProcessPromptRequest {
	company := fk.f.Company()
	position := fk.f.JobTitle()
	return models.ProcessPromptRequest{
		JobPost:  fk.JobPost(),
		Company:  &company,
		Position: &position,
	}
}

// Prompt returns an active prompt owned by userID in the given status
func (fk *Faker) Prompt(userID string, status domain.PromptStatus, createdAt time.Time) *domain.Prompt {
	company := fk.f.Company()
	position := fk.f.JobTitle()
	return &domain.Prompt{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     position + " at " + company,
		Content:   fk.JobPost(),
		Company:   &company,
		Position:  &position,
		Category:  domain.DefaultCategory,
		Status:    status,
		IsActive:  true,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

// Content returns generated content for prompt
func (fk *Faker) Content(prompt *domain.Prompt) *domain.GeneratedContent {
	summary := fk.f.Sentence(20)
	ms := int64(fk.f.Number(400, 4000))
	return &domain.GeneratedContent{
		ID:               uuid.NewString(),
		PromptID:         prompt.ID,
		UserID:           prompt.UserID,
		BulletPoints:     fk.sentences(4),
		Skills:           fk.words(6),
		Keywords:         fk.words(5),
		Achievements:     fk.sentences(2),
		Summary:          &summary,
		Model:            "gpt-4o-mini",
		ProcessingTimeMS: &ms,
		CreatedAt:        prompt.CreatedAt,
	}
}

func (fk *Faker) sentences(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fk.f.Sentence(12)
	}
	return out
}

func (fk *Faker) words(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fk.f.HackerNoun()
	}
	return out
}
