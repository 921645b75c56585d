package billing

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jobscout/jobscout/pkg/domain"
	"github.com/jobscout/jobscout/pkg/logger"
	"github.com/jobscout/jobscout/pkg/models"
	"github.com/jobscout/jobscout/pkg/quota"
	"github.com/jobscout/jobscout/pkg/users"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Provisioner ensures a profile exists before billing rows reference it
type Provisioner interface {
	Ensure(ctx context.Context, id users.Identity) (*domain.User, error)
}

// CheckoutRecorder counts created checkout sessions
type CheckoutRecorder interface {
	RecordCheckoutSession(plan string)
}

// Config holds billing configuration
type Config struct {
	Prices         PriceIDs
	FrontendURL    string
	AllowedOrigins []string
	FreeLimit      int
}

// Service handles checkout, the billing portal and plan lookups
type Service struct {
	subs    domain.SubscriptionRepository
	users   Provisioner
	gateway Gateway
	config  Config
	metrics CheckoutRecorder
	logger  logger.Logger
}

// NewService creates a new billing service
func NewService(subs domain.SubscriptionRepository, provisioner Provisioner, gateway Gateway, cfg Config, log logger.Logger) *Service {
	if log == nil {
		log = logger.Default()
	}
	cfg.FrontendURL = strings.TrimRight(cfg.FrontendURL, "/")
	if cfg.FreeLimit <= 0 {
		cfg.FreeLimit = quota.DefaultLimit
	}
	return &Service{
		subs:    subs,
		users:   provisioner,
		gateway: gateway,
		config:  cfg,
		logger:  log.With("component", "billing"),
	}
}

// SetMetrics sets the checkout recorder
func (s *Service) SetMetrics(m CheckoutRecorder) {
	s.metrics = m
}

// ValidateCheckout checks the request shape and that the price is configured
func (s *Service) ValidateCheckout(req models.CheckoutRequest) error {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return domain.NewInvalidRequestError([]domain.FieldError{{Field: "body", Message: err.Error()}})
		}
		fields := make([]domain.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			switch fe.Field() {
			case "PriceID":
				fields = append(fields, domain.FieldError{Field: "priceId", Message: "is required"})
			case "BillingCycle":
				fields = append(fields, domain.FieldError{Field: "billingCycle", Message: "must be monthly or yearly"})
			}
		}
		return domain.NewInvalidRequestError(fields)
	}
	if !s.config.Prices.Known(req.PriceID) {
		return domain.NewInvalidRequestError([]domain.FieldError{{Field: "priceId", Message: "is not a known price"}})
	}
	return nil
}

// Checkout creates a hosted checkout session, reusing the stored billing
// customer or creating and recording one.
func (s *Service) Checkout(ctx context.Context, id users.Identity, req models.CheckoutRequest, origin string) (*models.CheckoutResponse, error) {
	if id.ID == "" {
		return nil, domain.NewUnauthorizedError()
	}
	if err := s.ValidateCheckout(req); err != nil {
		return nil, err
	}
	if _, err := s.users.Ensure(ctx, id); err != nil {
		return nil, err
	}

	customerID, err := s.ensureCustomer(ctx, id)
	if err != nil {
		return nil, err
	}

	base := s.baseURL(origin)
	sessionID, url, err := s.gateway.CreateCheckoutSession(ctx, CheckoutInput{
		CustomerID: customerID,
		PriceID:    req.PriceID,
		UserID:     id.ID,
		SuccessURL: base + "/dashboard?success=true&session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  base + "/pricing?canceled=true",
	})
	if err != nil {
		return nil, err
	}

	plan := s.config.Prices.PlanForPrice(req.PriceID)
	if s.metrics != nil {
		s.metrics.RecordCheckoutSession(string(plan))
	}
	s.logger.Info("checkout session created", "user_id", id.ID, "plan", plan, "session_id", sessionID)

	return &models.CheckoutResponse{SessionID: sessionID, URL: url}, nil
}

func (s *Service) ensureCustomer(ctx context.Context, id users.Identity) (string, error) {
	current, err := s.subs.FindCurrentByUser(ctx, id.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return "", domain.NewPersistenceError("Failed to load subscription", err)
	}
	if current != nil && current.StripeCustomerID != nil && *current.StripeCustomerID != "" {
		return *current.StripeCustomerID, nil
	}

	customerID, err := s.gateway.CreateCustomer(ctx, id.Email, users.DisplayName(id), id.ID)
	if err != nil {
		return "", err
	}

	if current != nil {
		if err := s.subs.SetCustomerID(ctx, current.ID, customerID); err != nil {
			return "", domain.NewPersistenceError("Failed to record billing customer", err)
		}
		return customerID, nil
	}

	row := &domain.Subscription{
		UserID:           id.ID,
		PlanID:           domain.PlanFree,
		StripeCustomerID: &customerID,
		Status:           domain.SubscriptionActive,
	}
	if err := s.subs.Insert(ctx, row); err != nil {
		if !errors.Is(err, domain.ErrConflict) {
			return "", domain.NewPersistenceError("Failed to record billing customer", err)
		}
		// a concurrent request created the row first
		current, err = s.subs.FindCurrentByUser(ctx, id.ID)
		if err != nil {
			return "", domain.NewPersistenceError("Failed to load subscription", err)
		}
		if err := s.subs.SetCustomerID(ctx, current.ID, customerID); err != nil {
			return "", domain.NewPersistenceError("Failed to record billing customer", err)
		}
	}
	return customerID, nil
}

// Portal opens a billing portal session for the stored customer
func (s *Service) Portal(ctx context.Context, userID, origin string) (*models.CustomerPortalResponse, error) {
	if userID == "" {
		return nil, domain.NewUnauthorizedError()
	}
	current, err := s.subs.FindCurrentByUser(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && (current.StripeCustomerID == nil || *current.StripeCustomerID == "")) {
		return nil, domain.NewNotFoundError("Billing account")
	}
	if err != nil {
		return nil, domain.NewPersistenceError("Failed to load subscription", err)
	}

	url, err := s.gateway.CreatePortalSession(ctx, *current.StripeCustomerID, s.baseURL(origin)+"/dashboard")
	if err != nil {
		return nil, err
	}
	return &models.CustomerPortalResponse{URL: url}, nil
}

// Current returns the authoritative subscription, or free/active when none
// is stored
func (s *Service) Current(ctx context.Context, userID string) (*models.SubscriptionInfo, error) {
	if userID == "" {
		return nil, domain.NewUnauthorizedError()
	}
	current, err := s.subs.FindCurrentByUser(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return &models.SubscriptionInfo{
			PlanID: string(domain.PlanFree),
			Status: string(domain.SubscriptionActive),
		}, nil
	}
	if err != nil {
		return nil, domain.NewPersistenceError("Failed to load subscription", err)
	}
	return &models.SubscriptionInfo{
		PlanID:             string(current.PlanID),
		Status:             string(current.Status),
		CurrentPeriodStart: current.CurrentPeriodStart,
		CurrentPeriodEnd:   current.CurrentPeriodEnd,
		HasBillingAccount:  current.StripeCustomerID != nil && *current.StripeCustomerID != "",
	}, nil
}

// Pricing returns the plan catalogue
func (s *Service) Pricing() *models.PricingResponse {
	return Pricing(s.config.FreeLimit)
}

// baseURL prefers an allowed request origin over the configured frontend
func (s *Service) baseURL(origin string) string {
	origin = strings.TrimRight(origin, "/")
	if origin != "" {
		for _, allowed := range s.config.AllowedOrigins {
			if strings.EqualFold(strings.TrimRight(allowed, "/"), origin) {
				return origin
			}
		}
	}
	return s.config.FrontendURL
}
