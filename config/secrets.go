package config

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jobscout/jobscout/pkg/secrets"
)

// SecretFields maps secret names to the config fields they populate
func (c *Config) SecretFields() map[string]*string {
	return map[string]*string{
		"DATABASE_URL":          &c.DatabaseURL,
		"REDIS_URL":             &c.RedisURL,
		"AUTH_JWT_SECRET":       &c.AuthJWTSecret,
		"OPENAI_API_KEY":        &c.OpenAIAPIKey,
		"STRIPE_SECRET_KEY":     &c.StripeSecretKey,
		"STRIPE_WEBHOOK_SECRET": &c.StripeWebhookSecret,
		"SENDGRID_API_KEY":      &c.SendGridAPIKey,
		"RABBITMQ_URL":          &c.RabbitMQURL,
		"AWS_SECRET_ACCESS_KEY": &c.AWSSecretAccessKey,
	}
}

// LoadSecrets overlays values from the configured secrets backend. The env
// backend is a no-op since Load already read the environment.
func LoadSecrets(ctx context.Context, c *Config) error {
	if c.SecretsBackend == "" || c.SecretsBackend == secrets.BackendEnv {
		return nil
	}
	src, err := secrets.NewManager(secrets.Config{
		Backend:       c.SecretsBackend,
		AWSRegion:     c.AWSRegion,
		Prefix:        c.SecretsPrefix,
		CacheDuration: 5 * time.Minute,
	})
	if err != nil {
		return err
	}
	return applySecrets(ctx, c, src)
}

func applySecrets(ctx context.Context, c *Config, src secrets.Source) error {
	applied, err := secrets.Apply(ctx, src, c.SecretFields())
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}
	log.Printf("🔐 Loaded %d secrets from %s", len(applied), c.SecretsBackend)
	return nil
}
