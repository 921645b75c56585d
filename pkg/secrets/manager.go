// Package secrets resolves credentials from the environment or AWS Secrets Manager.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/secretsmanager/secretsmanageriface"
)

// ErrNotFound is returned when the backend has no value for a key
var ErrNotFound = errors.New("secret not found")

// Backends
const (
	BackendEnv = "env"
	BackendAWS = "aws-secrets-manager"
)

// Source resolves a secret by key
type Source interface {
	GetSecret(ctx context.Context, key string) (string, error)
}

// Config holds secrets manager configuration
type Config struct {
	Backend       string        // "env" or "aws-secrets-manager"
	AWSRegion     string        // AWS region for Secrets Manager
	Prefix        string        // prepended to every key, e.g. "jobscout/prod/"
	CacheDuration time.Duration // how long fetched values are reused
}

// NewManager creates the Source for cfg.Backend
func NewManager(cfg Config) (Source, error) {
	switch cfg.Backend {
	case BackendAWS, "aws":
		log.Printf("🔐 Initializing AWS Secrets Manager (region: %s)", cfg.AWSRegion)
		sess, err := session.NewSession(&aws.Config{Region: aws.String(cfg.AWSRegion)})
		if err != nil {
			return nil, fmt.Errorf("failed to create AWS session: %w", err)
		}
		return NewAWSSource(secretsmanager.New(sess), cfg), nil
	case BackendEnv, "environment", "":
		return EnvSource{Prefix: cfg.Prefix}, nil
	default:
		return nil, fmt.Errorf("unsupported secrets backend: %s", cfg.Backend)
	}
}

// EnvSource reads secrets from environment variables
type EnvSource struct {
	Prefix string
}

// GetSecret returns the non-empty environment value for key
func (s EnvSource) GetSecret(_ context.Context, key string) (string, error) {
	value := os.Getenv(s.Prefix + key)
	if value == "" {
		return "", fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return value, nil
}

// AWSSource reads secret strings from AWS Secrets Manager with a TTL cache
type AWSSource struct {
	client secretsmanageriface.SecretsManagerAPI
	prefix string
	ttl    time.Duration
	now    func() time.Time

	mu    sync.Mutex
	cache map[string]cachedSecret
}

type cachedSecret struct {
	value     string
	expiresAt time.Time
}

// NewAWSSource wraps a Secrets Manager client
func NewAWSSource(client secretsmanageriface.SecretsManagerAPI, cfg Config) *AWSSource {
	ttl := cfg.CacheDuration
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &AWSSource{
		client: client,
		prefix: cfg.Prefix,
		ttl:    ttl,
		now:    time.Now,
		cache:  make(map[string]cachedSecret),
	}
}

// GetSecret fetches the secret string stored under prefix+key
func (s *AWSSource) GetSecret(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	if cached, ok := s.cache[key]; ok && s.now().Before(cached.expiresAt) {
		s.mu.Unlock()
		return cached.value, nil
	}
	s.mu.Unlock()

	result, err := s.client.GetSecretValueWithContext(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(s.prefix + key),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == secretsmanager.ErrCodeResourceNotFoundException {
			return "", fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return "", fmt.Errorf("failed to get secret %s: %w", key, err)
	}
	if result.SecretString == nil || strings.TrimSpace(*result.SecretString) == "" {
		return "", fmt.Errorf("%s has no string value: %w", key, ErrNotFound)
	}

	value := *result.SecretString
	s.mu.Lock()
	s.cache[key] = cachedSecret{value: value, expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return value, nil
}

// Apply resolves every key in targets and writes found values through the
// pointers. Missing keys keep their current value. Returns the applied keys.
func Apply(ctx context.Context, src Source, targets map[string]*string) ([]string, error) {
	var applied []string
	for key, dest := range targets {
		value, err := src.GetSecret(ctx, key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return applied, err
		}
		*dest = value
		applied = append(applied, key)
	}
	return applied, nil
}
