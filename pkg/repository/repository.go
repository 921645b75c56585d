// Package repository selects the storage backend for the domain repositories.
package repository

import (
	"context"

	"github.com/jobscout/jobscout/pkg/database"
	"github.com/jobscout/jobscout/pkg/domain"
	"github.com/jobscout/jobscout/pkg/repository/memory"
	"github.com/jobscout/jobscout/pkg/repository/postgres"
)

// Set bundles the repositories a process needs
type Set struct {
	Users         domain.UserRepository
	Prompts       domain.PromptRepository
	Contents      domain.GeneratedContentRepository
	Subscriptions domain.SubscriptionRepository

	// DB is nil for the in-memory backend
	DB *database.Client
}

// NewPostgres returns repositories backed by db
func NewPostgres(db *database.Client) *Set {
	return &Set{
		Users:         postgres.NewUserRepository(db.DB),
		Prompts:       postgres.NewPromptRepository(db.DB),
		Contents:      postgres.NewGeneratedContentRepository(db.DB),
		Subscriptions: postgres.NewSubscriptionRepository(db.DB),
		DB:            db,
	}
}

// NewMemory returns repositories backed by a fresh in-memory store
func NewMemory() *Set {
	store := memory.NewStore()
	return &Set{
		Users:         store.Users(),
		Prompts:       store.Prompts(),
		Contents:      store.Contents(),
		Subscriptions: store.Subscriptions(),
	}
}

// Ping checks the database, or succeeds for the in-memory backend
func (s *Set) Ping(ctx context.Context) error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Ping(ctx)
}

// Close releases the database connection if there is one
func (s *Set) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}
