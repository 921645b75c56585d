package billing

import (
	"github.com/jobscout/jobscout/pkg/domain"
	"github.com/jobscout/jobscout/pkg/models"
)

// PriceIDs are the provider price identifiers configured for paid plans
type PriceIDs struct {
	ProMonthly     string
	ProYearly      string
	PremiumMonthly string
	PremiumYearly  string
}

// PlanForPrice maps a price identifier to a plan by exact match.
// Unknown or empty identifiers map to the free plan.
func (p PriceIDs) PlanForPrice(priceID string) domain.PlanID {
	if priceID == "" {
		return domain.PlanFree
	}
	switch priceID {
	case p.ProMonthly, p.ProYearly:
		return domain.PlanPro
	case p.PremiumMonthly, p.PremiumYearly:
		return domain.PlanPremium
	default:
		return domain.PlanFree
	}
}

// Known reports whether priceID is one of the configured prices
func (p PriceIDs) Known(priceID string) bool {
	return priceID != "" && p.PlanForPrice(priceID) != domain.PlanFree
}

// Pricing returns the plan catalogue. Prices are in cents.
func Pricing(freeLimit int) *models.PricingResponse {
	return &models.PricingResponse{
		Plans: []models.PricingPlan{
			{
				ID:           string(domain.PlanFree),
				Name:         "Free",
				Description:  "Perfect for trying out JobScout",
				PriceMonthly: 0,
				PromptLimit:  &freeLimit,
				Features: []string{
					"5 AI-generated resume contents",
					"Basic resume tailoring",
					"Email support",
				},
			},
			{
				ID:           string(domain.PlanPro),
				Name:         "Pro",
				Description:  "For serious job seekers",
				PriceMonthly: 997,
				PriceYearly:  9970,
				Features: []string{
					"Unlimited AI-generated content",
					"Advanced resume tailoring",
					"Priority support",
					"Export to multiple formats",
					"Resume templates",
				},
			},
			{
				ID:           string(domain.PlanPremium),
				Name:         "Premium",
				Description:  "For recruiters and career coaches",
				PriceMonthly: 2997,
				PriceYearly:  29970,
				Features: []string{
					"Everything in Pro",
					"Team collaboration",
					"Analytics dashboard",
					"White-label options",
					"Custom integrations",
				},
			},
		},
	}
}
