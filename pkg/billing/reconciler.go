package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jobscout/jobscout/pkg/domain"
	"github.com/jobscout/jobscout/pkg/events"
	"github.com/jobscout/jobscout/pkg/logger"
	"github.com/jobscout/jobscout/pkg/quota"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

// EventTTL is how long a processed event id is remembered
const EventTTL = 24 * time.Hour

// EmailSender abstracts email sending for billing notifications.
type EmailSender interface {
	SendEmail(toEmail, toName, subject, htmlBody, plainTextBody string) error
}

// EventClaimer records processed webhook event ids
type EventClaimer interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// WebhookRecorder counts webhook outcomes
type WebhookRecorder interface {
	RecordWebhookEvent(eventType, result string)
}

// Webhook outcomes
const (
	ResultHandled   = "handled"
	ResultIgnored   = "ignored"
	ResultDuplicate = "duplicate"
	ResultError     = "error"
)

// Reconciler applies payment provider lifecycle events to stored
// subscriptions. Storage failures inside a handler are logged and the
// delivery is still acknowledged; only malformed events are returned as
// errors.
type Reconciler struct {
	subs          domain.SubscriptionRepository
	users         domain.UserRepository
	prices        PriceIDs
	webhookSecret string
	frontendURL   string
	freeLimit     int

	claims  EventClaimer
	email   EmailSender
	events  *events.Emitter
	metrics WebhookRecorder
	logger  logger.Logger
}

// NewReconciler creates a reconciler that verifies deliveries with webhookSecret
func NewReconciler(subs domain.SubscriptionRepository, userRepo domain.UserRepository, prices PriceIDs, webhookSecret string, log logger.Logger) *Reconciler {
	if log == nil {
		log = logger.Default()
	}
	return &Reconciler{
		subs:          subs,
		users:         userRepo,
		prices:        prices,
		webhookSecret: webhookSecret,
		freeLimit:     quota.DefaultLimit,
		logger:        log.With("component", "reconciler"),
	}
}

// SetEmailSender sets the email sender for billing notifications.
func (r *Reconciler) SetEmailSender(e EmailSender, frontendURL string) {
	r.email = e
	r.frontendURL = strings.TrimRight(frontendURL, "/")
}

// SetEventClaimer enables duplicate delivery detection.
func (r *Reconciler) SetEventClaimer(c EventClaimer) {
	r.claims = c
}

// SetEmitter sets the domain event emitter.
func (r *Reconciler) SetEmitter(e *events.Emitter) {
	r.events = e
}

// SetMetrics sets the webhook recorder.
func (r *Reconciler) SetMetrics(m WebhookRecorder) {
	r.metrics = m
}

// SetFreeLimit sets the limit quoted in downgrade emails.
func (r *Reconciler) SetFreeLimit(limit int) {
	if limit > 0 {
		r.freeLimit = limit
	}
}

// HandleWebhook verifies and dispatches one delivery. The signature is
// checked before anything in the payload is trusted.
func (r *Reconciler) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if signature == "" {
		return domain.NewInvalidSignatureError(errors.New("no signature found"))
	}

	event, err := webhook.ConstructEvent(payload, signature, r.webhookSecret)
	if err != nil {
		r.logger.Warn("webhook signature verification failed", "error", err)
		return domain.NewInvalidSignatureError(err)
	}

	eventType := string(event.Type)
	r.logger.Info("stripe webhook received", "event_id", event.ID, "type", eventType)

	key := "stripe:event:" + event.ID
	if r.claims != nil && event.ID != "" {
		first, err := r.claims.Claim(ctx, key, EventTTL)
		switch {
		case err != nil:
			r.logger.Warn("event de-duplication unavailable, processing anyway", "event_id", event.ID, "error", err)
		case !first:
			r.logger.Info("duplicate webhook delivery skipped", "event_id", event.ID)
			r.record(eventType, ResultDuplicate)
			return nil
		}
	}

	result, err := r.dispatch(ctx, event)
	if err != nil {
		r.record(eventType, ResultError)
		if r.claims != nil && event.ID != "" {
			if rerr := r.claims.Release(ctx, key); rerr != nil {
				r.logger.Warn("failed to release event claim", "event_id", event.ID, "error", rerr)
			}
		}
		return err
	}
	r.record(eventType, result)
	return nil
}

func (r *Reconciler) dispatch(ctx context.Context, event stripe.Event) (string, error) {
	switch event.Type {
	case "customer.subscription.created", "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return "", fmt.Errorf("failed to unmarshal subscription: %w", err)
		}
		return r.handleSubscriptionChange(ctx, string(event.Type), &sub), nil

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return "", fmt.Errorf("failed to unmarshal subscription: %w", err)
		}
		return r.handleSubscriptionDeleted(ctx, &sub), nil

	case "invoice.payment_succeeded":
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			return "", fmt.Errorf("failed to unmarshal invoice: %w", err)
		}
		return r.handleInvoice(ctx, string(event.Type), &invoice, domain.SubscriptionActive), nil

	case "invoice.payment_failed":
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			return "", fmt.Errorf("failed to unmarshal invoice: %w", err)
		}
		return r.handleInvoice(ctx, string(event.Type), &invoice, domain.SubscriptionPastDue), nil

	default:
		r.logger.Info("unhandled webhook event type", "type", string(event.Type))
		return ResultIgnored, nil
	}
}

// handleSubscriptionChange upserts the user's current row from a
// subscription object
func (r *Reconciler) handleSubscriptionChange(ctx context.Context, source string, sub *stripe.Subscription) string {
	if sub.Customer == nil || sub.Customer.ID == "" {
		r.logger.Warn("subscription event without customer", "subscription_id", sub.ID)
		return ResultIgnored
	}
	customerID := sub.Customer.ID

	owner, err := r.subs.FindByCustomerID(ctx, customerID)
	if errors.Is(err, domain.ErrNotFound) {
		r.logger.Warn("no user found for billing customer", "customer_id", customerID)
		return ResultIgnored
	}
	if err != nil {
		r.logger.Error("failed to resolve billing customer", "customer_id", customerID, "error", err)
		return ResultError
	}

	previous, err := r.subs.FindCurrentByUser(ctx, owner.UserID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		r.logger.Warn("failed to load current subscription", "user_id", owner.UserID, "error", err)
	}

	priceID := ""
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		priceID = sub.Items.Data[0].Price.ID
	}

	status := domain.SubscriptionInactive
	if sub.Status == stripe.SubscriptionStatusActive {
		status = domain.SubscriptionActive
	}

	subscriptionID := sub.ID
	row := &domain.Subscription{
		UserID:               owner.UserID,
		PlanID:               r.prices.PlanForPrice(priceID),
		StripeCustomerID:     &customerID,
		StripeSubscriptionID: &subscriptionID,
		Status:               status,
		CurrentPeriodStart:   epoch(sub.CurrentPeriodStart),
		CurrentPeriodEnd:     epoch(sub.CurrentPeriodEnd),
	}
	if err := r.subs.Upsert(ctx, row); err != nil {
		r.logger.Error("failed to update subscription", "user_id", owner.UserID, "subscription_id", sub.ID, "error", err)
		return ResultError
	}

	r.logger.Info("subscription reconciled",
		"user_id", row.UserID,
		"plan", row.PlanID,
		"status", row.Status,
		"subscription_id", sub.ID,
	)

	if row.Status == domain.SubscriptionActive && row.PlanID != domain.PlanFree && !sameActivePlan(previous, row) {
		r.notify(ctx, row.UserID, func(name string) (string, string, string) {
			return buildSubscriptionActivatedEmail(name, string(row.PlanID), r.frontendURL)
		})
	}
	r.emit(ctx, row, source)
	return ResultHandled
}

// handleSubscriptionDeleted cancels the row and appends a free/active one
func (r *Reconciler) handleSubscriptionDeleted(ctx context.Context, sub *stripe.Subscription) string {
	userID, err := r.subs.CancelBySubscriptionID(ctx, sub.ID)
	if errors.Is(err, domain.ErrNotFound) {
		r.logger.Warn("no subscription found to cancel", "subscription_id", sub.ID)
		return ResultIgnored
	}
	if err != nil {
		r.logger.Error("failed to cancel subscription", "subscription_id", sub.ID, "error", err)
		return ResultError
	}

	free := &domain.Subscription{
		UserID: userID,
		PlanID: domain.PlanFree,
		Status: domain.SubscriptionActive,
	}
	if sub.Customer != nil && sub.Customer.ID != "" {
		customerID := sub.Customer.ID
		free.StripeCustomerID = &customerID
	}
	if err := r.subs.Insert(ctx, free); err != nil {
		r.logger.Error("failed to create free subscription", "user_id", userID, "error", err)
		return ResultError
	}

	r.logger.Info("subscription canceled, user moved to free plan", "user_id", userID, "subscription_id", sub.ID)

	r.notify(ctx, userID, func(name string) (string, string, string) {
		return buildSubscriptionCanceledEmail(name, r.freeLimit, r.frontendURL)
	})
	r.emit(ctx, free, "customer.subscription.deleted")
	return ResultHandled
}

// handleInvoice moves the invoice's subscription to status. Canceled rows
// are never reactivated.
func (r *Reconciler) handleInvoice(ctx context.Context, source string, invoice *stripe.Invoice, status domain.SubscriptionStatus) string {
	if invoice.Subscription == nil || invoice.Subscription.ID == "" {
		r.logger.Info("invoice without subscription", "invoice_id", invoice.ID)
		return ResultIgnored
	}
	subscriptionID := invoice.Subscription.ID

	n, err := r.subs.UpdateStatusBySubscriptionID(ctx, subscriptionID, status)
	if err != nil {
		r.logger.Error("failed to update subscription status", "subscription_id", subscriptionID, "status", status, "error", err)
		return ResultError
	}
	if n == 0 {
		r.logger.Warn("no subscription matched invoice", "subscription_id", subscriptionID, "invoice_id", invoice.ID)
		return ResultIgnored
	}

	r.logger.Info("subscription status updated from invoice", "subscription_id", subscriptionID, "status", status)

	if invoice.Customer == nil || invoice.Customer.ID == "" {
		return ResultHandled
	}
	owner, err := r.subs.FindByCustomerID(ctx, invoice.Customer.ID)
	if err != nil {
		r.logger.Warn("failed to resolve invoice customer", "customer_id", invoice.Customer.ID, "error", err)
		return ResultHandled
	}

	if status == domain.SubscriptionPastDue {
		r.notify(ctx, owner.UserID, func(name string) (string, string, string) {
			return buildPaymentFailedEmail(name, r.frontendURL)
		})
	}
	if current, err := r.subs.FindCurrentByUser(ctx, owner.UserID); err == nil {
		r.emit(ctx, current, source)
	}
	return ResultHandled
}

func (r *Reconciler) notify(ctx context.Context, userID string, build func(name string) (subject, html, plain string)) {
	if r.email == nil || r.users == nil {
		return
	}
	u, err := r.users.Get(ctx, userID)
	if err != nil {
		r.logger.Warn("failed to get user for email notification", "user_id", userID, "error", err)
		return
	}
	subject, html, plain := build(u.Name)
	if err := r.email.SendEmail(u.Email, u.Name, subject, html, plain); err != nil {
		r.logger.Warn("failed to send billing email", "user_id", userID, "subject", subject, "error", err)
	}
}

func (r *Reconciler) emit(ctx context.Context, sub *domain.Subscription, source string) {
	data := events.SubscriptionEvent{
		UserID: sub.UserID,
		PlanID: string(sub.PlanID),
		Status: string(sub.Status),
		Source: source,
	}
	if sub.StripeSubscriptionID != nil {
		data.SubscriptionID = *sub.StripeSubscriptionID
	}
	r.events.Emit(ctx, events.SubscriptionChanged, data)
}

func (r *Reconciler) record(eventType, result string) {
	if r.metrics != nil {
		r.metrics.RecordWebhookEvent(eventType, result)
	}
}

func sameActivePlan(prev, next *domain.Subscription) bool {
	return prev != nil &&
		prev.Status == domain.SubscriptionActive &&
		prev.PlanID == next.PlanID
}

func epoch(sec int64) *time.Time {
	if sec <= 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
