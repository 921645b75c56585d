package domain

import (
	"context"
	"time"
)

// UserRepository persists user profiles
type UserRepository interface {
	Get(ctx context.Context, id string) (*User, error)
	// Insert creates the profile unless one already exists for the id.
	// created is false when a concurrent or earlier insert won.
	Insert(ctx context.Context, user *User) (created bool, err error)
}

// PromptRepository persists prompts
type PromptRepository interface {
	Create(ctx context.Context, prompt *Prompt) error
	Get(ctx context.Context, id string) (*Prompt, error)
	UpdateStatus(ctx context.Context, id string, status PromptStatus) error
	// CountActiveSince counts active prompts with from <= created_at < to
	CountActiveSince(ctx context.Context, userID string, from, to time.Time) (int, error)
	// ListActiveWithContent returns active prompts newest first
	ListActiveWithContent(ctx context.Context, userID string) ([]PromptWithContent, error)
	Deactivate(ctx context.Context, userID, id string) error
	// ResolveStale settles prompts still processing since before olderThan:
	// completed when generated content was stored, failed otherwise
	ResolveStale(ctx context.Context, olderThan time.Time) (StaleResolution, error)
}

// StaleResolution counts prompts settled by ResolveStale
type StaleResolution struct {
	Completed int64
	Failed    int64
}

// Total is the number of prompts moved out of processing
func (r StaleResolution) Total() int64 {
	return r.Completed + r.Failed
}

// GeneratedContentRepository persists generated resume content
type GeneratedContentRepository interface {
	Create(ctx context.Context, content *GeneratedContent) error
	LatestByPrompt(ctx context.Context, promptID string) (*GeneratedContent, error)
}

// SubscriptionRepository persists subscription history rows
type SubscriptionRepository interface {
	FindByCustomerID(ctx context.Context, customerID string) (*Subscription, error)
	// FindCurrentByUser returns the most recently updated non-canceled row
	FindCurrentByUser(ctx context.Context, userID string) (*Subscription, error)
	// Upsert replaces the user's non-canceled row or inserts one
	Upsert(ctx context.Context, sub *Subscription) error
	Insert(ctx context.Context, sub *Subscription) error
	SetCustomerID(ctx context.Context, id, customerID string) error
	UpdateStatusBySubscriptionID(ctx context.Context, subscriptionID string, status SubscriptionStatus) (int64, error)
	// CancelBySubscriptionID marks the row canceled and returns its owner
	CancelBySubscriptionID(ctx context.Context, subscriptionID string) (userID string, err error)
}

// Clock abstracts wall-clock time for components that bucket by date
type Clock interface {
	Now() time.Time
}

// SystemClock is the real clock
type SystemClock struct{}

// Now returns the current time
func (SystemClock) Now() time.Time { return time.Now() }
