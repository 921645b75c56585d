package handlers

import (
	"errors"
	"io"
	"net/http"

	apierrors "github.com/jobscout/jobscout/pkg/api/errors"
	"github.com/jobscout/jobscout/pkg/api/middleware"
	"github.com/jobscout/jobscout/pkg/billing"
	"github.com/jobscout/jobscout/pkg/domain"
	"github.com/jobscout/jobscout/pkg/models"
	"github.com/labstack/echo/v4"
)

// maxWebhookBody caps the webhook payload read into memory. Larger
// deliveries are refused with 413 rather than truncated.
const maxWebhookBody = 1 << 20

// BillingHandler handles subscription checkout, portal and webhooks
type BillingHandler struct {
	billingService *billing.Service
	reconciler     *billing.Reconciler
}

// NewBillingHandler creates a new billing handler
func NewBillingHandler(billingService *billing.Service, reconciler *billing.Reconciler) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
		reconciler:     reconciler,
	}
}

// Pricing godoc
// @Summary Get pricing plans
// @Tags Billing
// @Produce json
// @Success 200 {object} models.PricingResponse
// @Router /pricing [get]
func (h *BillingHandler) Pricing(c echo.Context) error {
	return c.JSON(http.StatusOK, h.billingService.Pricing())
}

// Checkout godoc
// @Summary Create checkout session
// @Description Creates a hosted checkout session for a paid plan
// @Tags Billing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CheckoutRequest true "Price and billing cycle"
// @Success 200 {object} models.CheckoutResponse
// @Failure 400 {object} models.ErrorResponse "Invalid request data"
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Failure 500 {object} models.ErrorResponse "Failed to create checkout session"
// @Router /subscriptions/checkout [post]
func (h *BillingHandler) Checkout(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return apierrors.FromDomain(c, domain.NewUnauthorizedError())
	}

	var req models.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.ValidationError(c, err)
	}

	resp, err := h.billingService.Checkout(c.Request().Context(), id, req, c.Request().Header.Get(echo.HeaderOrigin))
	if err != nil {
		if domain.CodeOf(err) == "" {
			c.Logger().Errorf("checkout failed: %v", err)
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "checkout_failed",
				Message: "Failed to create checkout session",
			})
		}
		return apierrors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Portal godoc
// @Summary Create billing portal session
// @Tags Billing
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.CustomerPortalResponse
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Failure 404 {object} models.ErrorResponse "No billing account"
// @Router /subscriptions/portal [post]
func (h *BillingHandler) Portal(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return apierrors.FromDomain(c, domain.NewUnauthorizedError())
	}

	resp, err := h.billingService.Portal(c.Request().Context(), id.ID, c.Request().Header.Get(echo.HeaderOrigin))
	if err != nil {
		return apierrors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Current godoc
// @Summary Get current subscription
// @Tags Billing
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.SubscriptionInfo
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Router /subscriptions/current [get]
func (h *BillingHandler) Current(c echo.Context) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return apierrors.FromDomain(c, domain.NewUnauthorizedError())
	}

	info, err := h.billingService.Current(c.Request().Context(), id.ID)
	if err != nil {
		return apierrors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, info)
}

// Webhook godoc
// @Summary Payment provider webhook
// @Description Receives signed subscription and invoice events. The raw body is verified before parsing.
// @Tags Billing
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Webhook signature"
// @Success 200 {object} models.WebhookResponse
// @Failure 400 {object} models.ErrorResponse "Invalid signature"
// @Failure 413 {object} models.ErrorResponse "Payload too large"
// @Failure 500 {object} models.ErrorResponse "Webhook processing failed"
// @Router /subscriptions/webhook [post]
func (h *BillingHandler) Webhook(c echo.Context) error {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Response(), c.Request().Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.Logger().Errorf("webhook payload exceeds %d bytes, rejecting delivery", tooLarge.Limit)
			return c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
				Error:   "payload_too_large",
				Message: "Webhook payload exceeds the size limit",
			})
		}
		return apierrors.ValidationError(c, err)
	}

	signature := c.Request().Header.Get("Stripe-Signature")
	if err := h.reconciler.HandleWebhook(c.Request().Context(), payload, signature); err != nil {
		if domain.IsInvalidSignature(err) {
			return apierrors.FromDomain(c, err)
		}
		c.Logger().Errorf("webhook processing failed: %v", err)
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "webhook_error",
			Message: "Webhook processing failed",
		})
	}

	return c.JSON(http.StatusOK, models.WebhookResponse{Received: true})
}
