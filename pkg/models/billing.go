package models

import "time"

// CheckoutRequest represents a request to create a checkout session
type CheckoutRequest struct {
	PriceID      string `json:"priceId" validate:"required"`
	BillingCycle string `json:"billingCycle" validate:"required,oneof=monthly yearly"`
}

// CheckoutResponse represents a checkout session response
type CheckoutResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// CustomerPortalResponse represents a customer portal session response
type CustomerPortalResponse struct {
	URL string `json:"url"`
}

// WebhookResponse acknowledges a webhook delivery
type WebhookResponse struct {
	Received bool `json:"received"`
}

// SubscriptionInfo represents the caller's authoritative subscription
type SubscriptionInfo struct {
	PlanID             string     `json:"plan_id"`
	Status             string     `json:"status"`
	CurrentPeriodStart *time.Time `json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end,omitempty"`
	HasBillingAccount  bool       `json:"has_billing_account"`
}

// PricingPlan represents a plan in the pricing catalogue.
// Prices are in cents; PromptLimit is null for unlimited plans.
type PricingPlan struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	PriceMonthly int64    `json:"price_monthly"`
	PriceYearly  int64    `json:"price_yearly,omitempty"`
	PromptLimit  *int     `json:"prompt_limit"`
	Features     []string `json:"features"`
}

// PricingResponse represents pricing information
type PricingResponse struct {
	Plans []PricingPlan `json:"plans"`
}
