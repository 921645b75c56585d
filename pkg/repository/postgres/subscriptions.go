package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jobscout/jobscout/pkg/domain"
)

// SubscriptionRepository stores rows of the user_subscriptions table.
// Canceled rows are kept as history; at most one other row exists per user.
type SubscriptionRepository struct {
	db querier
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *sql.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

const subscriptionColumns = `id, user_id, plan_id, stripe_customer_id, stripe_subscription_id, status, current_period_start, current_period_end, created_at, updated_at`

func scanSubscription(row rowScanner) (*domain.Subscription, error) {
	var (
		s                      domain.Subscription
		plan, status           string
		customerID, subID      sql.NullString
		periodStart, periodEnd sql.NullTime
	)
	if err := row.Scan(&s.ID, &s.UserID, &plan, &customerID, &subID, &status,
		&periodStart, &periodEnd, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.PlanID = domain.PlanID(plan)
	s.Status = domain.SubscriptionStatus(status)
	s.StripeCustomerID = stringPtr(customerID)
	s.StripeSubscriptionID = stringPtr(subID)
	s.CurrentPeriodStart = timePtr(periodStart)
	s.CurrentPeriodEnd = timePtr(periodEnd)
	return &s, nil
}

func (r *SubscriptionRepository) findOne(ctx context.Context, query string, args ...any) (*domain.Subscription, error) {
	s, err := scanSubscription(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return s, nil
}

// FindByCustomerID returns the newest row carrying the billing customer id
func (r *SubscriptionRepository) FindByCustomerID(ctx context.Context, customerID string) (*domain.Subscription, error) {
	return r.findOne(ctx, `
		SELECT `+subscriptionColumns+` FROM user_subscriptions
		WHERE stripe_customer_id = $1
		ORDER BY updated_at DESC LIMIT 1`, customerID)
}

// FindCurrentByUser returns the user's non-canceled row
func (r *SubscriptionRepository) FindCurrentByUser(ctx context.Context, userID string) (*domain.Subscription, error) {
	return r.findOne(ctx, `
		SELECT `+subscriptionColumns+` FROM user_subscriptions
		WHERE user_id = $1 AND status <> 'canceled'
		ORDER BY updated_at DESC LIMIT 1`, userID)
}

// Upsert replaces the user's non-canceled row or inserts a new one
func (r *SubscriptionRepository) Upsert(ctx context.Context, s *domain.Subscription) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO user_subscriptions (`+subscriptionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id) WHERE status <> 'canceled' DO UPDATE SET
			plan_id = EXCLUDED.plan_id,
			stripe_customer_id = EXCLUDED.stripe_customer_id,
			stripe_subscription_id = EXCLUDED.stripe_subscription_id,
			status = EXCLUDED.status,
			current_period_start = EXCLUDED.current_period_start,
			current_period_end = EXCLUDED.current_period_end,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at`,
		s.ID, s.UserID, string(s.PlanID), nullString(s.StripeCustomerID), nullString(s.StripeSubscriptionID),
		string(s.Status), nullTime(s.CurrentPeriodStart), nullTime(s.CurrentPeriodEnd), s.CreatedAt, s.UpdatedAt,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}
	return nil
}

// Insert appends a row. A second non-canceled row for the user is a conflict.
func (r *SubscriptionRepository) Insert(ctx context.Context, s *domain.Subscription) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_subscriptions (`+subscriptionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		s.ID, s.UserID, string(s.PlanID), nullString(s.StripeCustomerID), nullString(s.StripeSubscriptionID),
		string(s.Status), nullTime(s.CurrentPeriodStart), nullTime(s.CurrentPeriodEnd), s.CreatedAt, s.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("user %s already has a current subscription: %w", s.UserID, domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to insert subscription: %w", err)
	}
	return nil
}

// SetCustomerID records the billing customer on a row
func (r *SubscriptionRepository) SetCustomerID(ctx context.Context, id, customerID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE user_subscriptions SET stripe_customer_id = $2, updated_at = now()
		WHERE id = $1`, id, customerID)
	if err != nil {
		return fmt.Errorf("failed to set customer id: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateStatusBySubscriptionID sets the status of every row for a billing subscription
func (r *SubscriptionRepository) UpdateStatusBySubscriptionID(ctx context.Context, subscriptionID string, status domain.SubscriptionStatus) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE user_subscriptions SET status = $2, updated_at = now()
		WHERE stripe_subscription_id = $1 AND status <> 'canceled'`, subscriptionID, string(status))
	if err != nil {
		return 0, fmt.Errorf("failed to update subscription status: %w", err)
	}
	return res.RowsAffected()
}

// CancelBySubscriptionID marks the billing subscription canceled and returns its owner
func (r *SubscriptionRepository) CancelBySubscriptionID(ctx context.Context, subscriptionID string) (string, error) {
	var userID string
	err := r.db.QueryRowContext(ctx, `
		UPDATE user_subscriptions SET status = 'canceled', updated_at = now()
		WHERE stripe_subscription_id = $1 AND status <> 'canceled'
		RETURNING user_id`, subscriptionID).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to cancel subscription: %w", err)
	}
	return userID, nil
}
