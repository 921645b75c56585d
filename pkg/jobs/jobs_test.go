package jobs

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/jobscout/jobscout/pkg/domain"
	"github.com/jobscout/jobscout/pkg/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type reapCounter struct{ total int64 }

func (c *reapCounter) RecordStaleReaped(n int64) { c.total += n }

type failingResolver struct{}

func (failingResolver) ResolveStale(context.Context, time.Time) (domain.StaleResolution, error) {
	return domain.StaleResolution{}, errors.New("connection reset")
}

func seedPrompt(t *testing.T, store *memory.Store, id string, status domain.PromptStatus, created time.Time) {
	t.Helper()
	require.NoError(t, store.Prompts().Create(context.Background(), &domain.Prompt{
		ID:        id,
		UserID:    "user-1",
		Title:     "Job Application",
		Content:   "A job posting long enough",
		Category:  domain.DefaultCategory,
		Status:    status,
		IsActive:  true,
		CreatedAt: created,
	}))
}

func TestStaleReaper_Run(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	store := memory.NewStore()

	seedPrompt(t, store, "stale", domain.PromptStatusProcessing, now.Add(-time.Hour))
	seedPrompt(t, store, "fresh", domain.PromptStatusProcessing, now.Add(-5*time.Minute))
	seedPrompt(t, store, "done", domain.PromptStatusCompleted, now.Add(-time.Hour))

	counter := &reapCounter{}
	reaper := NewStaleReaper(store.Prompts(), 15*time.Minute, fixedClock{now}, log.New(&bytes.Buffer{}, "", 0))
	reaper.SetMetrics(counter)

	res, err := reaper.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StaleResolution{Failed: 1}, res)
	assert.Equal(t, int64(1), counter.total)

	tests := map[string]domain.PromptStatus{
		"stale": domain.PromptStatusFailed,
		"fresh": domain.PromptStatusProcessing,
		"done":  domain.PromptStatusCompleted,
	}
	for id, want := range tests {
		p, err := store.Prompts().Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, want, p.Status, id)
	}

	// a second run finds nothing
	res, err = reaper.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Total())
}

func TestStaleReaper_CompletesPromptWithContent(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	store := memory.NewStore()
	ctx := context.Background()

	// content was stored but the completed update never landed
	seedPrompt(t, store, "stored", domain.PromptStatusProcessing, now.Add(-time.Hour))
	require.NoError(t, store.Contents().Create(ctx, &domain.GeneratedContent{
		PromptID:     "stored",
		UserID:       "user-1",
		BulletPoints: []string{"Led migration to Go"},
		Skills:       []string{"Go"},
		Keywords:     []string{"backend"},
		Achievements: []string{},
		CreatedAt:    now.Add(-time.Hour),
	}))
	seedPrompt(t, store, "empty", domain.PromptStatusProcessing, now.Add(-time.Hour))

	counter := &reapCounter{}
	reaper := NewStaleReaper(store.Prompts(), 15*time.Minute, fixedClock{now}, log.New(&bytes.Buffer{}, "", 0))
	reaper.SetMetrics(counter)

	res, err := reaper.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StaleResolution{Completed: 1, Failed: 1}, res)
	assert.Equal(t, int64(2), counter.total)

	stored, err := store.Prompts().Get(ctx, "stored")
	require.NoError(t, err)
	assert.Equal(t, domain.PromptStatusCompleted, stored.Status)

	content, err := store.Contents().LatestByPrompt(ctx, "stored")
	require.NoError(t, err)
	assert.Equal(t, []string{"Led migration to Go"}, content.BulletPoints)

	empty, err := store.Prompts().Get(ctx, "empty")
	require.NoError(t, err)
	assert.Equal(t, domain.PromptStatusFailed, empty.Status)
}

func TestStaleReaper_Error(t *testing.T) {
	reaper := NewStaleReaper(failingResolver{}, 0, nil, log.New(&bytes.Buffer{}, "", 0))

	_, err := reaper.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestNewStaleReaper_Defaults(t *testing.T) {
	reaper := NewStaleReaper(failingResolver{}, 0, nil, nil)

	assert.Equal(t, DefaultStaleAfter, reaper.after)
	assert.NotNil(t, reaper.clock)
	assert.NotNil(t, reaper.logger)
}

func TestCronManager_SetupJobs(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)
	cm := NewCronManager(NewStaleReaper(memory.NewStore().Prompts(), time.Minute, nil, logger), logger)

	require.NoError(t, cm.SetupJobs(""))
	assert.Equal(t, 1, cm.Entries())
	assert.Contains(t, buf.String(), DefaultReapSchedule)
	assert.NotNil(t, cm.Reaper())

	cm.Start()
	cm.Stop()
}

func TestCronManager_InvalidSchedule(t *testing.T) {
	cm := NewCronManager(NewStaleReaper(failingResolver{}, 0, nil, nil), log.New(&bytes.Buffer{}, "", 0))

	assert.Error(t, cm.SetupJobs("every now and then"))
}
