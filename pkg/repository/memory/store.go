// Package memory implements the domain repositories in process memory.
// It backs handler tests and local runs without Postgres.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jobscout/jobscout/pkg/domain"
)

// Store holds every table; the repositories below are views over it
type Store struct {
	mu            sync.RWMutex
	users         map[string]domain.User
	prompts       map[string]domain.Prompt
	contents      []domain.GeneratedContent
	subscriptions []domain.Subscription

	now func() time.Time
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		users:   map[string]domain.User{},
		prompts: map[string]domain.Prompt{},
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the timestamp source
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Users returns the user repository view
func (s *Store) Users() *UserRepository { return &UserRepository{s} }

// Prompts returns the prompt repository view
func (s *Store) Prompts() *PromptRepository { return &PromptRepository{s} }

// Contents returns the generated content repository view
func (s *Store) Contents() *GeneratedContentRepository { return &GeneratedContentRepository{s} }

// Subscriptions returns the subscription repository view
func (s *Store) Subscriptions() *SubscriptionRepository { return &SubscriptionRepository{s} }

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func copyContent(gc domain.GeneratedContent) domain.GeneratedContent {
	gc.BulletPoints = copyStrings(gc.BulletPoints)
	gc.Skills = copyStrings(gc.Skills)
	gc.Keywords = copyStrings(gc.Keywords)
	gc.Achievements = copyStrings(gc.Achievements)
	return gc
}

// UserRepository is the in-memory users table
type UserRepository struct{ s *Store }

// Get loads a profile by id
func (r *UserRepository) Get(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

// Insert creates the profile unless it already exists
func (r *UserRepository) Insert(_ context.Context, user *domain.User) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; ok {
		return false, nil
	}
	now := r.s.now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	r.s.users[user.ID] = *user
	return true, nil
}

// Count returns the number of stored profiles
func (r *UserRepository) Count() int {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.users)
}

// PromptRepository is the in-memory prompts table
type PromptRepository struct{ s *Store }

// Create inserts a prompt
func (r *PromptRepository) Create(_ context.Context, p *domain.Prompt) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if _, ok := r.s.prompts[p.ID]; ok {
		return fmt.Errorf("prompt %s: %w", p.ID, domain.ErrConflict)
	}
	if p.Category == "" {
		p.Category = domain.DefaultCategory
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = r.s.now()
	}
	p.UpdatedAt = p.CreatedAt
	r.s.prompts[p.ID] = *p
	return nil
}

// Get loads a prompt by id
func (r *PromptRepository) Get(_ context.Context, id string) (*domain.Prompt, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.prompts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

// UpdateStatus moves a prompt forward
func (r *PromptRepository) UpdateStatus(_ context.Context, id string, status domain.PromptStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.prompts[id]
	if !ok || !p.Status.CanTransitionTo(status) {
		return fmt.Errorf("prompt %s cannot move to %s: %w", id, status, domain.ErrConflict)
	}
	p.Status = status
	p.UpdatedAt = r.s.now()
	r.s.prompts[id] = p
	return nil
}

// CountActiveSince counts active prompts created in [from, to)
func (r *PromptRepository) CountActiveSince(_ context.Context, userID string, from, to time.Time) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, p := range r.s.prompts {
		if p.UserID == userID && p.IsActive && !p.CreatedAt.Before(from) && p.CreatedAt.Before(to) {
			n++
		}
	}
	return n, nil
}

// ListActiveWithContent returns active prompts newest first with their content
func (r *PromptRepository) ListActiveWithContent(_ context.Context, userID string) ([]domain.PromptWithContent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []domain.PromptWithContent{}
	for _, p := range r.s.prompts {
		if p.UserID != userID || !p.IsActive {
			continue
		}
		item := domain.PromptWithContent{Prompt: p, Content: []domain.GeneratedContent{}}
		for i := len(r.s.contents) - 1; i >= 0; i-- {
			if r.s.contents[i].PromptID == p.ID {
				item.Content = append(item.Content, copyContent(r.s.contents[i]))
			}
		}
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Deactivate soft-deletes an owned prompt
func (r *PromptRepository) Deactivate(_ context.Context, userID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.prompts[id]
	if !ok || p.UserID != userID || !p.IsActive {
		return domain.ErrNotFound
	}
	p.IsActive = false
	p.UpdatedAt = r.s.now()
	r.s.prompts[id] = p
	return nil
}

// ResolveStale settles prompts left in processing since before olderThan
func (r *PromptRepository) ResolveStale(_ context.Context, olderThan time.Time) (domain.StaleResolution, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	hasContent := make(map[string]bool, len(r.s.contents))
	for _, gc := range r.s.contents {
		hasContent[gc.PromptID] = true
	}

	var res domain.StaleResolution
	for id, p := range r.s.prompts {
		if p.Status != domain.PromptStatusProcessing || !p.CreatedAt.Before(olderThan) {
			continue
		}
		if hasContent[id] {
			p.Status = domain.PromptStatusCompleted
			res.Completed++
		} else {
			p.Status = domain.PromptStatusFailed
			res.Failed++
		}
		p.UpdatedAt = r.s.now()
		r.s.prompts[id] = p
	}
	return res, nil
}

// GeneratedContentRepository is the in-memory generated_content table
type GeneratedContentRepository struct{ s *Store }

// Create inserts generated content
func (r *GeneratedContentRepository) Create(_ context.Context, gc *domain.GeneratedContent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.prompts[gc.PromptID]; !ok {
		return fmt.Errorf("prompt %s does not exist", gc.PromptID)
	}
	if gc.ID == "" {
		gc.ID = uuid.NewString()
	}
	if gc.CreatedAt.IsZero() {
		gc.CreatedAt = r.s.now()
	}
	r.s.contents = append(r.s.contents, copyContent(*gc))
	return nil
}

// LatestByPrompt returns the newest content row for a prompt
func (r *GeneratedContentRepository) LatestByPrompt(_ context.Context, promptID string) (*domain.GeneratedContent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for i := len(r.s.contents) - 1; i >= 0; i-- {
		if r.s.contents[i].PromptID == promptID {
			gc := copyContent(r.s.contents[i])
			return &gc, nil
		}
	}
	return nil, domain.ErrNotFound
}

// Count returns the number of rows for a prompt
func (r *GeneratedContentRepository) Count(promptID string) int {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, gc := range r.s.contents {
		if gc.PromptID == promptID {
			n++
		}
	}
	return n
}

// SubscriptionRepository is the in-memory user_subscriptions table
type SubscriptionRepository struct{ s *Store }

func (r *SubscriptionRepository) currentIndex(userID string) int {
	idx := -1
	for i, sub := range r.s.subscriptions {
		if sub.UserID == userID && sub.Status != domain.SubscriptionCanceled {
			if idx == -1 || !sub.UpdatedAt.Before(r.s.subscriptions[idx].UpdatedAt) {
				idx = i
			}
		}
	}
	return idx
}

// FindByCustomerID returns the newest row carrying the billing customer id
func (r *SubscriptionRepository) FindByCustomerID(_ context.Context, customerID string) (*domain.Subscription, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var found *domain.Subscription
	for i := range r.s.subscriptions {
		sub := r.s.subscriptions[i]
		if sub.StripeCustomerID != nil && *sub.StripeCustomerID == customerID {
			if found == nil || !sub.UpdatedAt.Before(found.UpdatedAt) {
				found = &sub
			}
		}
	}
	if found == nil {
		return nil, domain.ErrNotFound
	}
	return found, nil
}

// FindCurrentByUser returns the user's non-canceled row
func (r *SubscriptionRepository) FindCurrentByUser(_ context.Context, userID string) (*domain.Subscription, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	idx := r.currentIndex(userID)
	if idx == -1 {
		return nil, domain.ErrNotFound
	}
	sub := r.s.subscriptions[idx]
	return &sub, nil
}

// Upsert replaces the user's non-canceled row or inserts one
func (r *SubscriptionRepository) Upsert(_ context.Context, sub *domain.Subscription) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.now()
	sub.UpdatedAt = now
	if idx := r.currentIndex(sub.UserID); idx != -1 {
		existing := r.s.subscriptions[idx]
		sub.ID = existing.ID
		sub.CreatedAt = existing.CreatedAt
		r.s.subscriptions[idx] = *sub
		return nil
	}
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	r.s.subscriptions = append(r.s.subscriptions, *sub)
	return nil
}

// Insert appends a row
func (r *SubscriptionRepository) Insert(_ context.Context, sub *domain.Subscription) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if sub.Status != domain.SubscriptionCanceled && r.currentIndex(sub.UserID) != -1 {
		return fmt.Errorf("user %s already has a current subscription: %w", sub.UserID, domain.ErrConflict)
	}
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	now := r.s.now()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now
	r.s.subscriptions = append(r.s.subscriptions, *sub)
	return nil
}

// SetCustomerID records the billing customer on a row
func (r *SubscriptionRepository) SetCustomerID(_ context.Context, id, customerID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.subscriptions {
		if r.s.subscriptions[i].ID == id {
			c := customerID
			r.s.subscriptions[i].StripeCustomerID = &c
			r.s.subscriptions[i].UpdatedAt = r.s.now()
			return nil
		}
	}
	return domain.ErrNotFound
}

// UpdateStatusBySubscriptionID sets the status of non-canceled rows for a billing subscription
func (r *SubscriptionRepository) UpdateStatusBySubscriptionID(_ context.Context, subscriptionID string, status domain.SubscriptionStatus) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for i := range r.s.subscriptions {
		sub := &r.s.subscriptions[i]
		if sub.StripeSubscriptionID != nil && *sub.StripeSubscriptionID == subscriptionID && sub.Status != domain.SubscriptionCanceled {
			sub.Status = status
			sub.UpdatedAt = r.s.now()
			n++
		}
	}
	return n, nil
}

// CancelBySubscriptionID marks the billing subscription canceled and returns its owner
func (r *SubscriptionRepository) CancelBySubscriptionID(_ context.Context, subscriptionID string) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	owner := ""
	for i := range r.s.subscriptions {
		sub := &r.s.subscriptions[i]
		if sub.StripeSubscriptionID != nil && *sub.StripeSubscriptionID == subscriptionID && sub.Status != domain.SubscriptionCanceled {
			sub.Status = domain.SubscriptionCanceled
			sub.UpdatedAt = r.s.now()
			owner = sub.UserID
		}
	}
	if owner == "" {
		return "", domain.ErrNotFound
	}
	return owner, nil
}

// All returns every row for a user in insertion order
func (r *SubscriptionRepository) All(userID string) []domain.Subscription {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.Subscription
	for _, sub := range r.s.subscriptions {
		if sub.UserID == userID {
			out = append(out, sub)
		}
	}
	return out
}

var (
	_ domain.UserRepository             = (*UserRepository)(nil)
	_ domain.PromptRepository           = (*PromptRepository)(nil)
	_ domain.GeneratedContentRepository = (*GeneratedContentRepository)(nil)
	_ domain.SubscriptionRepository     = (*SubscriptionRepository)(nil)
)
