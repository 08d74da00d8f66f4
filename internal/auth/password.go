package auth

import (
	"context"
	"fmt"

	"github.com/alexedwards/argon2id"
)

// PasswordAuthenticator accepts the password matching an argon2id hash.
type PasswordAuthenticator struct {
	hash string
}

// NewPassword validates hash and returns the authenticator.
func NewPassword(hash string) (*PasswordAuthenticator, error) {
	if _, _, _, err := argon2id.DecodeHash(hash); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidHash, err)
	}

	return &PasswordAuthenticator{hash: hash}, nil
}

// Authenticate implements Authenticator.
func (p *PasswordAuthenticator) Authenticate(_ context.Context, cred Credentials) error {
	if cred.Password == "" {
		return ErrInvalidCredentials
	}

	match, err := argon2id.ComparePasswordAndHash(cred.Password, p.hash)
	if err != nil {
		return fmt.Errorf("compare password: %w", err)
	}

	if !match {
		return ErrInvalidCredentials
	}

	return nil
}

// HashPassword returns the argon2id hash to put into Admin.PasswordHash.
func HashPassword(password string) (string, error) {
	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	return hash, nil
}
