// Package users ensures a profile row exists for an authenticated identity.
package users

import (
	"context"
	"errors"
	"strings"

	"github.com/jobscout/jobscout/pkg/domain"
	"github.com/jobscout/jobscout/pkg/logger"
)

// Identity is the authenticated caller as reported by the identity provider
type Identity struct {
	ID        string
	Email     string
	FullName  string
	AvatarURL string
}

// Provisioner lazily creates user profiles
type Provisioner struct {
	users  domain.UserRepository
	logger logger.Logger
}

// NewProvisioner creates a new provisioner
func NewProvisioner(users domain.UserRepository, log logger.Logger) *Provisioner {
	if log == nil {
		log = logger.Default()
	}
	return &Provisioner{users: users, logger: log.With("component", "provisioner")}
}

// DisplayName picks the full name, falling back to the email local part
func DisplayName(id Identity) string {
	if name := strings.TrimSpace(id.FullName); name != "" {
		return name
	}
	local, _, _ := strings.Cut(id.Email, "@")
	return local
}

// Ensure makes sure a profile exists for the identity. Safe to call
// concurrently for the same identity: the insert ignores conflicts.
func (p *Provisioner) Ensure(ctx context.Context, id Identity) (*domain.User, error) {
	if id.ID == "" {
		return nil, domain.NewUnauthorizedError()
	}

	existing, err := p.users.Get(ctx, id.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NewProfileCreationError(err)
	}

	user := &domain.User{
		ID:    id.ID,
		Email: id.Email,
		Name:  DisplayName(id),
	}
	if id.AvatarURL != "" {
		avatar := id.AvatarURL
		user.AvatarURL = &avatar
	}

	created, err := p.users.Insert(ctx, user)
	if err != nil {
		p.logger.Error("failed to create user profile", "user_id", id.ID, "error", err)
		return nil, domain.NewProfileCreationError(err)
	}
	if created {
		p.logger.Info("user profile created", "user_id", id.ID)
	}
	return user, nil
}
