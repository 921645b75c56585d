package postgres

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jobscout/jobscout/pkg/database"
	"github.com/jobscout/jobscout/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB connects to TEST_DATABASE_URL, applies the schema and
// skips the test when no database is configured.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	client, err := database.Open(context.Background(), database.Options{URL: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Migrate(context.Background()))
	return client.DB
}

func seedUser(t *testing.T, db *sql.DB) string {
	t.Helper()
	id := "user-" + uuid.NewString()
	created, err := NewUserRepository(db).Insert(context.Background(), &domain.User{ID: id, Email: id + "@example.com", Name: id})
	require.NoError(t, err)
	require.True(t, created)
	return id
}

func TestUserRepository_InsertIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	id := "user-" + uuid.NewString()

	created, err := repo.Insert(ctx, &domain.User{ID: id, Email: "a@example.com", Name: "a"})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Insert(ctx, &domain.User{ID: id, Email: "b@example.com", Name: "b"})
	require.NoError(t, err)
	assert.False(t, created)

	u, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", u.Email)

	_, err = repo.Get(ctx, "missing-"+id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPromptRepository_Lifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	userID := seedUser(t, db)
	prompts := NewPromptRepository(db)
	contents := NewGeneratedContentRepository(db)

	p := &domain.Prompt{UserID: userID, Title: "Engineer at Acme", Content: "We need a Go engineer", Status: domain.PromptStatusProcessing, IsActive: true}
	require.NoError(t, prompts.Create(ctx, p))
	assert.Equal(t, domain.DefaultCategory, p.Category)

	summary := "Seasoned engineer"
	ms := int64(1200)
	gc := &domain.GeneratedContent{
		PromptID: p.ID, UserID: userID,
		BulletPoints: []string{"a", "b"}, Skills: []string{"Go"}, Summary: &summary,
		Model: "gpt-4o-mini", ProcessingTimeMS: &ms,
	}
	require.NoError(t, contents.Create(ctx, gc))
	require.NoError(t, prompts.UpdateStatus(ctx, p.ID, domain.PromptStatusCompleted))
	assert.ErrorIs(t, prompts.UpdateStatus(ctx, p.ID, domain.PromptStatusFailed), domain.ErrConflict)

	list, err := prompts.ListActiveWithContent(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.PromptStatusCompleted, list[0].Status)
	require.Len(t, list[0].Content, 1)
	assert.Equal(t, []string{"a", "b"}, list[0].Content[0].BulletPoints)
	assert.Equal(t, []string{}, list[0].Content[0].Keywords)

	now := time.Now()
	n, err := prompts.CountActiveSince(ctx, userID, now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, prompts.Deactivate(ctx, userID, p.ID))
	assert.ErrorIs(t, prompts.Deactivate(ctx, userID, p.ID), domain.ErrNotFound)

	n, err = prompts.CountActiveSince(ctx, userID, now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPromptRepository_ResolveStale(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	userID := seedUser(t, db)
	prompts := NewPromptRepository(db)
	contents := NewGeneratedContentRepository(db)

	old := &domain.Prompt{UserID: userID, Title: "old", Content: "stuck posting", Status: domain.PromptStatusProcessing, IsActive: true,
		CreatedAt: time.Now().Add(-2 * time.Hour)}
	require.NoError(t, prompts.Create(ctx, old))

	stored := &domain.Prompt{UserID: userID, Title: "stored", Content: "stuck after save", Status: domain.PromptStatusProcessing, IsActive: true,
		CreatedAt: time.Now().Add(-2 * time.Hour)}
	require.NoError(t, prompts.Create(ctx, stored))
	require.NoError(t, contents.Create(ctx, &domain.GeneratedContent{
		PromptID: stored.ID, UserID: userID,
		BulletPoints: []string{"Shipped it"}, Skills: []string{}, Keywords: []string{}, Achievements: []string{},
		CreatedAt: time.Now().Add(-2 * time.Hour),
	}))

	res, err := prompts.ResolveStale(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.Failed, int64(1))
	assert.GreaterOrEqual(t, res.Completed, int64(1))

	got, err := prompts.Get(ctx, old.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PromptStatusFailed, got.Status)

	got, err = prompts.Get(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PromptStatusCompleted, got.Status)
}

func TestSubscriptionRepository_CancelKeepsHistory(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	userID := seedUser(t, db)
	subs := NewSubscriptionRepository(db)

	customer := "cus_" + uuid.NewString()
	subID := "sub_" + uuid.NewString()
	require.NoError(t, subs.Insert(ctx, &domain.Subscription{UserID: userID, PlanID: domain.PlanFree, Status: domain.SubscriptionActive, StripeCustomerID: &customer}))

	err := subs.Insert(ctx, &domain.Subscription{UserID: userID, PlanID: domain.PlanFree, Status: domain.SubscriptionActive})
	assert.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, subs.Upsert(ctx, &domain.Subscription{UserID: userID, PlanID: domain.PlanPro, Status: domain.SubscriptionActive,
		StripeCustomerID: &customer, StripeSubscriptionID: &subID}))

	byCustomer, err := subs.FindByCustomerID(ctx, customer)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanPro, byCustomer.PlanID)

	n, err := subs.UpdateStatusBySubscriptionID(ctx, subID, domain.SubscriptionPastDue)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	owner, err := subs.CancelBySubscriptionID(ctx, subID)
	require.NoError(t, err)
	assert.Equal(t, userID, owner)

	require.NoError(t, subs.Insert(ctx, &domain.Subscription{UserID: userID, PlanID: domain.PlanFree, Status: domain.SubscriptionActive}))

	current, err := subs.FindCurrentByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanFree, current.PlanID)
	assert.NotEqual(t, byCustomer.ID, current.ID)

	var total int
	require.NoError(t, db.QueryRow(`SELECT count(*) FROM user_subscriptions WHERE user_id = $1`, userID).Scan(&total))
	assert.Equal(t, 2, total)
}

func TestPreviousStatuses(t *testing.T) {
	assert.Equal(t, []string{"processing"}, previousStatuses(domain.PromptStatusCompleted))
	assert.Equal(t, []string{"pending"}, previousStatuses(domain.PromptStatusProcessing))
	assert.Empty(t, previousStatuses(domain.PromptStatusPending))
}
