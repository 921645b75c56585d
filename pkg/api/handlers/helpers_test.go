package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jobscout/jobscout/pkg/ai/llm"
	"github.com/jobscout/jobscout/pkg/api/middleware"
	"github.com/jobscout/jobscout/pkg/billing"
	"github.com/jobscout/jobscout/pkg/export"
	"github.com/jobscout/jobscout/pkg/generator"
	"github.com/jobscout/jobscout/pkg/logger"
	"github.com/jobscout/jobscout/pkg/prompts"
	"github.com/jobscout/jobscout/pkg/quota"
	"github.com/jobscout/jobscout/pkg/repository/memory"
	"github.com/jobscout/jobscout/pkg/users"
	"github.com/labstack/echo/v4"
)

const (
	testWebhookSecret = "whsec_handler_secret"
	sampleJobPost     = "Senior Go Engineer\nWe need a backend engineer skilled in Go and PostgreSQL."
	sampleCompletion  = `{
		"bullet_points": ["b1", "b2", "b3", "b4", "b5"],
		"skills": ["Go", "PostgreSQL", "Docker", "gRPC", "Redis"],
		"keywords": ["backend", "APIs", "scalable", "SQL", "cloud"],
		"achievements": ["a1", "a2", "a3"],
		"summary": "Seasoned backend engineer."
	}`
)

// fakeLLM answers every chat with a canned completion
type fakeLLM struct {
	mu    sync.Mutex
	reply string
	err   error
}

func (f *fakeLLM) Chat(_ context.Context, _ llm.ChatRequest) (*llm.ChatResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &llm.ChatResponse{Message: f.reply, Model: "gpt-4o-mini"}, nil
}

func (f *fakeLLM) Model() string { return "gpt-4o-mini" }

func (f *fakeLLM) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

type fakeGateway struct{}

func (fakeGateway) CreateCustomer(_ context.Context, _, _, _ string) (string, error) {
	return "cus_handler", nil
}

func (fakeGateway) CreateCheckoutSession(_ context.Context, in billing.CheckoutInput) (string, string, error) {
	if in.PriceID == "" {
		return "", "", errors.New("no price")
	}
	return "cs_handler", "https://checkout.stripe.com/c/pay/cs_handler", nil
}

func (fakeGateway) CreatePortalSession(_ context.Context, _, _ string) (string, error) {
	return "https://billing.stripe.com/p/session/handler", nil
}

type fixture struct {
	store   *memory.Store
	llm     *fakeLLM
	prompts *PromptHandler
	billing *BillingHandler
}

func newFixture(t *testing.T, limit int) *fixture {
	t.Helper()
	log := logger.NewNop()
	store := memory.NewStore()
	client := &fakeLLM{reply: sampleCompletion}
	provisioner := users.NewProvisioner(store.Users(), log)

	promptService := prompts.NewService(prompts.Deps{
		Users:     provisioner,
		Quota:     quota.NewTracker(store.Prompts(), limit, nil, log),
		Prompts:   store.Prompts(),
		Contents:  store.Contents(),
		Generator: generator.New(client, log),
		Logger:    log,
	})

	prices := billing.PriceIDs{
		ProMonthly:     "price_pro_monthly",
		ProYearly:      "price_pro_yearly",
		PremiumMonthly: "price_premium_monthly",
		PremiumYearly:  "price_premium_yearly",
	}
	billingService := billing.NewService(store.Subscriptions(), provisioner, fakeGateway{}, billing.Config{
		Prices:      prices,
		FrontendURL: "https://jobscout.app",
	}, log)
	reconciler := billing.NewReconciler(store.Subscriptions(), store.Users(), prices, testWebhookSecret, log)

	return &fixture{
		store:   store,
		llm:     client,
		prompts: NewPromptHandler(promptService, export.NewService(nil, log)),
		billing: NewBillingHandler(billingService, reconciler),
	}
}

func testIdentity() users.Identity {
	return users.Identity{ID: "user-1", Email: "jane@example.com", FullName: "Jane Doe"}
}

// newRequest builds an echo context, authenticated unless id is empty
func newRequest(method, target, body string, id users.Identity) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if id.ID != "" {
		c.Set(middleware.IdentityKey, id)
		c.Set(middleware.UserIDKey, id.ID)
	}
	return c, rec
}

func signPayload(payload []byte, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.", ts)))
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}
