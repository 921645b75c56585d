package billing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jobscout/jobscout/pkg/domain"
	"github.com/jobscout/jobscout/pkg/repository/memory"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
)

const testWebhookSecret = "whsec_test_secret"

var testPrices = PriceIDs{
	ProMonthly:     "price_pro_monthly",
	ProYearly:      "price_pro_yearly",
	PremiumMonthly: "price_premium_monthly",
	PremiumYearly:  "price_premium_yearly",
}

// fakeGateway records provider calls
type fakeGateway struct {
	mu          sync.Mutex
	customers   int
	checkouts   []CheckoutInput
	portalFor   string
	portalURL   string
	customerErr error
	sessionErr  error
}

func (g *fakeGateway) CreateCustomer(_ context.Context, _, _, _ string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.customerErr != nil {
		return "", g.customerErr
	}
	g.customers++
	return fmt.Sprintf("cus_%d", g.customers), nil
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, in CheckoutInput) (string, string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sessionErr != nil {
		return "", "", g.sessionErr
	}
	g.checkouts = append(g.checkouts, in)
	return "cs_test_1", "https://checkout.stripe.com/c/pay/cs_test_1", nil
}

func (g *fakeGateway) CreatePortalSession(_ context.Context, customerID, returnURL string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.portalFor = customerID
	g.portalURL = returnURL
	return "https://billing.stripe.com/p/session/test", nil
}

// sentEmail is one captured notification
type sentEmail struct {
	To      string
	Subject string
}

type recordingSender struct {
	mu   sync.Mutex
	sent []sentEmail
}

func (s *recordingSender) SendEmail(toEmail, _, subject, _, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentEmail{To: toEmail, Subject: subject})
	return nil
}

func signPayload(payload []byte, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.", ts)))
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func eventPayload(t *testing.T, id, eventType string, object map[string]any) []byte {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"id":          id,
		"object":      "event",
		"type":        eventType,
		"api_version": stripe.APIVersion,
		"created":     time.Now().Unix(),
		"data":        map[string]any{"object": object},
	})
	require.NoError(t, err)
	return payload
}

func subscriptionObject(id, customer, status, priceID string) map[string]any {
	return map[string]any{
		"id":                   id,
		"object":               "subscription",
		"customer":             customer,
		"status":               status,
		"current_period_start": 1704067200, // 2024-01-01
		"current_period_end":   1706745600, // 2024-02-01
		"items": map[string]any{
			"object": "list",
			"data": []map[string]any{{
				"id":     "si_1",
				"object": "subscription_item",
				"price":  map[string]any{"id": priceID, "object": "price"},
			}},
		},
	}
}

func invoiceObject(id, customer, subscription string) map[string]any {
	return map[string]any{
		"id":           id,
		"object":       "invoice",
		"customer":     customer,
		"subscription": subscription,
	}
}

func seedUser(t *testing.T, store *memory.Store, id, email, name string) {
	t.Helper()
	_, err := store.Users().Insert(context.Background(), &domain.User{ID: id, Email: email, Name: name})
	require.NoError(t, err)
}

func seedSubscription(t *testing.T, store *memory.Store, sub domain.Subscription) {
	t.Helper()
	require.NoError(t, store.Subscriptions().Insert(context.Background(), &sub))
}

func ptr(s string) *string { return &s }
