package domain

import "time"

// DefaultCategory is assigned to prompts created without a category
const DefaultCategory = "general"

// PromptStatus is the lifecycle state of a prompt
type PromptStatus string

const (
	PromptStatusPending    PromptStatus = "pending"
	PromptStatusProcessing PromptStatus = "processing"
	PromptStatusCompleted  PromptStatus = "completed"
	PromptStatusFailed     PromptStatus = "failed"
)

// CanTransitionTo reports whether moving from s to next is allowed.
// Prompts move pending -> processing -> completed|failed and never back.
func (s PromptStatus) CanTransitionTo(next PromptStatus) bool {
	switch s {
	case PromptStatusPending:
		return next == PromptStatusProcessing
	case PromptStatusProcessing:
		return next == PromptStatusCompleted || next == PromptStatusFailed
	default:
		return false
	}
}

// IsTerminal reports whether no further transitions are possible
func (s PromptStatus) IsTerminal() bool {
	return s == PromptStatusCompleted || s == PromptStatusFailed
}

// PlanID identifies a subscription tier
type PlanID string

const (
	PlanFree    PlanID = "free"
	PlanPro     PlanID = "pro"
	PlanPremium PlanID = "premium"
)

// SubscriptionStatus is the stored state of a subscription row
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionInactive SubscriptionStatus = "inactive"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

// User is a profile record for an authenticated identity
type User struct {
	ID        string
	Email     string
	Name      string
	AvatarURL *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Prompt is a submitted job posting and its processing lifecycle
type Prompt struct {
	ID        string
	UserID    string
	Title     string
	Content   string
	Company   *string
	Position  *string
	Category  string
	Status    PromptStatus
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GeneratedContent is the structured resume material produced for a prompt
type GeneratedContent struct {
	ID               string
	PromptID         string
	UserID           string
	BulletPoints     []string
	Skills           []string
	Keywords         []string
	Achievements     []string
	Summary          *string
	Model            string
	ProcessingTimeMS *int64
	CreatedAt        time.Time
}

// PromptWithContent pairs a prompt with the content generated for it, if any
type PromptWithContent struct {
	Prompt
	Content []GeneratedContent
}

// Subscription is one row of a user's subscription history
type Subscription struct {
	ID                   string
	UserID               string
	PlanID               PlanID
	StripeCustomerID     *string
	StripeSubscriptionID *string
	Status               SubscriptionStatus
	CurrentPeriodStart   *time.Time
	CurrentPeriodEnd     *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Usage is the derived monthly usage snapshot for a user.
// Limit is nil for unlimited plans.
type Usage struct {
	CanCreate bool
	Used      int
	Limit     *int
}

// Remaining returns how many prompts can still be created, or -1 when unlimited
func (u Usage) Remaining() int {
	if u.Limit == nil {
		return -1
	}
	if r := *u.Limit - u.Used; r > 0 {
		return r
	}
	return 0
}
