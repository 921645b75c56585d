package prompts

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jobscout/jobscout/pkg/domain"
	"github.com/jobscout/jobscout/pkg/events"
	"github.com/jobscout/jobscout/pkg/generator"
	"github.com/jobscout/jobscout/pkg/logger"
	"github.com/jobscout/jobscout/pkg/models"
	"github.com/jobscout/jobscout/pkg/quota"
	"github.com/jobscout/jobscout/pkg/repository/memory"
	"github.com/jobscout/jobscout/pkg/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleJobPost = "We need a backend engineer skilled in Go and PostgreSQL to build scalable APIs."

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fakeGenerator struct {
	content *generator.Content
	err     error
	calls   int
}

func (f *fakeGenerator) Generate(_ context.Context, _ string) (*generator.Content, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.content, nil
}

func fullContent() *generator.Content {
	summary := "Seasoned backend engineer."
	return &generator.Content{
		BulletPoints: []string{"b1", "b2", "b3", "b4", "b5"},
		Skills:       []string{"Go", "PostgreSQL", "Docker", "gRPC", "Redis"},
		Keywords:     []string{"backend", "APIs", "scalable", "SQL", "cloud"},
		Achievements: []string{"a1", "a2", "a3"},
		Summary:      &summary,
		Model:        "gpt-4o-mini",
	}
}

type recordingMetrics struct {
	mu       sync.Mutex
	statuses []string
	rejected int
}

func (r *recordingMetrics) RecordPrompt(status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
}
func (r *recordingMetrics) RecordGeneration(time.Duration) {}
func (r *recordingMetrics) RecordQuotaRejection() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected++
}

// failingContents rejects every insert
type failingContents struct {
	domain.GeneratedContentRepository
}

func (failingContents) Create(context.Context, *domain.GeneratedContent) error {
	return errors.New("disk full")
}

// failingPrompts rejects creation and counting
type failingPrompts struct {
	domain.PromptRepository
	createErr error
	countErr  error
}

func (f failingPrompts) Create(ctx context.Context, p *domain.Prompt) error {
	if f.createErr != nil {
		return f.createErr
	}
	return f.PromptRepository.Create(ctx, p)
}

func (f failingPrompts) CountActiveSince(ctx context.Context, userID string, from, to time.Time) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.PromptRepository.CountActiveSince(ctx, userID, from, to)
}

type fixture struct {
	store     *memory.Store
	gen       *fakeGenerator
	published *events.Recorder
	metrics   *recordingMetrics
	svc       *Service
	now       time.Time
}

type option func(*Deps)

func newFixture(t *testing.T, opts ...option) *fixture {
	t.Helper()

	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	store := memory.NewStore()
	store.SetClock(func() time.Time { return now })
	clock := fixedClock{t: now}
	log := logger.NewNop()

	f := &fixture{
		store:     store,
		gen:       &fakeGenerator{content: fullContent()},
		published: &events.Recorder{},
		metrics:   &recordingMetrics{},
		now:       now,
	}

	deps := Deps{
		Users:     users.NewProvisioner(store.Users(), log),
		Prompts:   store.Prompts(),
		Contents:  store.Contents(),
		Generator: f.gen,
		Events:    events.NewEmitter(f.published, log),
		Metrics:   f.metrics,
		Clock:     clock,
		Logger:    log,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	if deps.Quota == nil {
		deps.Quota = quota.NewTracker(deps.Prompts, quota.DefaultLimit, clock, log)
	}
	f.svc = NewService(deps)
	return f
}

func identity() users.Identity {
	return users.Identity{ID: "user-1", Email: "jane@example.com", FullName: "Jane Doe"}
}

func seedPrompts(t *testing.T, store *memory.Store, userID string, n int, createdAt time.Time) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, store.Prompts().Create(context.Background(), &domain.Prompt{
			UserID:    userID,
			Title:     "seed",
			Content:   sampleJobPost,
			Status:    domain.PromptStatusCompleted,
			IsActive:  true,
			CreatedAt: createdAt,
		}))
	}
}

func TestProcess_FirstTimeUserEndToEnd(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Process(context.Background(), identity(), models.ProcessPromptRequest{JobPost: sampleJobPost})
	require.NoError(t, err)

	assert.Equal(t, 1, f.store.Users().Count())
	assert.Equal(t, domain.PromptStatusCompleted, res.Prompt.Status)
	assert.Equal(t, "We need a backend engineer skilled in Go and PostgreSQL to build scalable APIs.", res.Prompt.Title)
	assert.Equal(t, domain.DefaultCategory, res.Prompt.Category)

	assert.Len(t, res.Content.BulletPoints, 5)
	assert.Len(t, res.Content.Skills, 5)
	assert.Len(t, res.Content.Keywords, 5)
	assert.Len(t, res.Content.Achievements, 3)
	require.NotNil(t, res.Content.Summary)
	require.NotNil(t, res.Content.ProcessingTimeMS)
	assert.Equal(t, res.Prompt.ID, res.Content.PromptID)

	assert.True(t, res.Usage.CanCreate)
	assert.Equal(t, 1, res.Usage.Used)
	require.NotNil(t, res.Usage.Limit)
	assert.Equal(t, 5, *res.Usage.Limit)

	stored, err := f.store.Prompts().Get(context.Background(), res.Prompt.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PromptStatusCompleted, stored.Status)
	assert.Equal(t, 1, f.store.Contents().Count(res.Prompt.ID))

	assert.Equal(t, []string{events.PromptCompleted}, f.published.Keys())
	assert.Equal(t, []string{"completed"}, f.metrics.statuses)
}

func TestProcess_QuotaBoundary(t *testing.T) {
	tests := []struct {
		name    string
		seeded  int
		wantErr bool
	}{
		{name: "limit minus one", seeded: 4},
		{name: "at limit", seeded: 5, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			seedPrompts(t, f.store, "user-1", tt.seeded, f.now.Add(-time.Hour))

			res, err := f.svc.Process(context.Background(), identity(), models.ProcessPromptRequest{JobPost: sampleJobPost})
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, 5, res.Usage.Used)
				assert.False(t, res.Usage.CanCreate)
				return
			}

			require.Error(t, err)
			assert.True(t, domain.IsUsageLimitExceeded(err))
			var de *domain.DomainError
			require.ErrorAs(t, err, &de)
			require.NotNil(t, de.Usage)
			assert.Equal(t, 5, de.Usage.Used)
			assert.Equal(t, "You've used 5/5 prompts this month. Upgrade to Pro for unlimited prompts.", de.Message)
			assert.Zero(t, f.gen.calls)
			assert.Equal(t, 1, f.metrics.rejected)
		})
	}
}

func TestProcess_PreviousMonthAndInactiveIgnored(t *testing.T) {
	f := newFixture(t)
	seedPrompts(t, f.store, "user-1", 5, time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC))
	seedPrompts(t, f.store, "user-2", 5, f.now.Add(-time.Hour))

	res, err := f.svc.Process(context.Background(), identity(), models.ProcessPromptRequest{JobPost: sampleJobPost})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Usage.Used)
}

func TestProcess_QuotaBeforeValidation(t *testing.T) {
	f := newFixture(t)
	seedPrompts(t, f.store, "user-1", 5, f.now)

	_, err := f.svc.Process(context.Background(), identity(), models.ProcessPromptRequest{JobPost: "short"})
	assert.True(t, domain.IsUsageLimitExceeded(err))
}

func TestProcess_InvalidRequestCreatesNothing(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Process(context.Background(), identity(), models.ProcessPromptRequest{JobPost: "too short"})
	require.Error(t, err)
	assert.True(t, domain.IsInvalidRequest(err))

	list, err := f.store.Prompts().ListActiveWithContent(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Zero(t, f.gen.calls)
}

func TestProcess_Unauthorized(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Process(context.Background(), users.Identity{}, models.ProcessPromptRequest{JobPost: sampleJobPost})
	assert.True(t, domain.IsUnauthorized(err))
	assert.Zero(t, f.store.Users().Count())
}

func TestProcess_GenerationFailureLeavesFailedPrompt(t *testing.T) {
	f := newFixture(t)
	f.gen.err = domain.NewGenerationError(errors.New("invalid response format"))

	_, err := f.svc.Process(context.Background(), identity(), models.ProcessPromptRequest{JobPost: sampleJobPost})
	require.Error(t, err)
	assert.True(t, domain.IsGenerationFailed(err))

	list, err := f.store.Prompts().ListActiveWithContent(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.PromptStatusFailed, list[0].Status)
	assert.Empty(t, list[0].Content)

	assert.Equal(t, []string{events.PromptFailed}, f.published.Keys())
	assert.Equal(t, []string{"failed"}, f.metrics.statuses)
}

func TestProcess_PlainGeneratorErrorIsWrapped(t *testing.T) {
	f := newFixture(t)
	f.gen.err = errors.New("boom")

	_, err := f.svc.Process(context.Background(), identity(), models.ProcessPromptRequest{JobPost: sampleJobPost})
	assert.True(t, domain.IsGenerationFailed(err))
}

func TestProcess_ContentInsertFailure(t *testing.T) {
	f := newFixture(t, func(d *Deps) {
		d.Contents = failingContents{d.Contents}
	})

	_, err := f.svc.Process(context.Background(), identity(), models.ProcessPromptRequest{JobPost: sampleJobPost})
	require.Error(t, err)
	assert.True(t, domain.IsPersistence(err))

	list, err := f.store.Prompts().ListActiveWithContent(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.PromptStatusFailed, list[0].Status)
}

func TestProcess_PromptInsertFailure(t *testing.T) {
	f := newFixture(t, func(d *Deps) {
		d.Prompts = failingPrompts{PromptRepository: d.Prompts, createErr: errors.New("connection refused")}
	})

	_, err := f.svc.Process(context.Background(), identity(), models.ProcessPromptRequest{JobPost: sampleJobPost})
	require.Error(t, err)
	assert.True(t, domain.IsPersistence(err))
	assert.Zero(t, f.gen.calls)
}

func TestProcess_QuotaFailsOpen(t *testing.T) {
	f := newFixture(t, func(d *Deps) {
		d.Prompts = failingPrompts{PromptRepository: d.Prompts, countErr: errors.New("timeout")}
	})

	res, err := f.svc.Process(context.Background(), identity(), models.ProcessPromptRequest{JobPost: sampleJobPost})
	require.NoError(t, err)
	assert.True(t, res.Usage.CanCreate)
	assert.Equal(t, 0, res.Usage.Used)
}

func TestProcess_CanceledContextStillCompletes(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := f.svc.Process(ctx, identity(), models.ProcessPromptRequest{JobPost: sampleJobPost})
	require.NoError(t, err)
	assert.Equal(t, domain.PromptStatusCompleted, res.Prompt.Status)
}

func TestProcess_ExplicitTitleAndCompany(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Process(context.Background(), identity(), models.ProcessPromptRequest{
		JobPost:  sampleJobPost,
		Company:  strPtr("Acme"),
		Position: strPtr("Engineer"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Engineer at Acme", res.Prompt.Title)

	res, err = f.svc.Process(context.Background(), identity(), models.ProcessPromptRequest{
		JobPost: sampleJobPost,
		Title:   strPtr("My title"),
		Company: strPtr("Acme"),
	})
	require.NoError(t, err)
	assert.Equal(t, "My title", res.Prompt.Title)
}

func TestUsage_StrictOnCountFailure(t *testing.T) {
	f := newFixture(t, func(d *Deps) {
		d.Prompts = failingPrompts{PromptRepository: d.Prompts, countErr: errors.New("timeout")}
	})

	_, err := f.svc.Usage(context.Background(), identity())
	assert.True(t, domain.IsPersistence(err))
}

func TestUsage(t *testing.T) {
	f := newFixture(t)
	seedPrompts(t, f.store, "user-1", 2, f.now)

	usage, err := f.svc.Usage(context.Background(), identity())
	require.NoError(t, err)
	assert.Equal(t, 2, usage.Used)
	assert.Equal(t, 3, usage.Remaining())
	assert.True(t, usage.CanCreate)
}

func TestDeleteAndList(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.Process(context.Background(), identity(), models.ProcessPromptRequest{JobPost: sampleJobPost})
	require.NoError(t, err)

	err = f.svc.Delete(context.Background(), "someone-else", res.Prompt.ID)
	assert.True(t, domain.IsNotFound(err))

	require.NoError(t, f.svc.Delete(context.Background(), "user-1", res.Prompt.ID))

	list, err := f.svc.List(context.Background(), identity())
	require.NoError(t, err)
	assert.Empty(t, list)

	usage, err := f.svc.Usage(context.Background(), identity())
	require.NoError(t, err)
	assert.Equal(t, 0, usage.Used)

	err = f.svc.Delete(context.Background(), "user-1", res.Prompt.ID)
	assert.True(t, domain.IsNotFound(err))
}

func TestCompleted(t *testing.T) {
	f := newFixture(t)
	res, err := f.svc.Process(context.Background(), identity(), models.ProcessPromptRequest{JobPost: sampleJobPost})
	require.NoError(t, err)

	prompt, content, err := f.svc.Completed(context.Background(), "user-1", res.Prompt.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Prompt.ID, prompt.ID)
	assert.Equal(t, res.Content.ID, content.ID)

	_, _, err = f.svc.Completed(context.Background(), "user-2", res.Prompt.ID)
	assert.True(t, domain.IsNotFound(err))

	_, _, err = f.svc.Completed(context.Background(), "user-1", "missing")
	assert.True(t, domain.IsNotFound(err))

	f.gen.err = errors.New("boom")
	_, err = f.svc.Process(context.Background(), identity(), models.ProcessPromptRequest{JobPost: sampleJobPost})
	require.Error(t, err)
	list, err := f.svc.List(context.Background(), identity())
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, item := range list {
		if item.Status == domain.PromptStatusFailed {
			_, _, err = f.svc.Completed(context.Background(), "user-1", item.ID)
			assert.True(t, domain.IsNotFound(err))
		}
	}
}
