package auth

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/studentrep/portal/internal/config"
)

// Credentials is what the login form submits.
type Credentials struct {
	Password string
	Code     string // one time code, only checked when TOTP is enabled
}

// Authenticator checks admin credentials. A nil error means the login is accepted.
type Authenticator interface {
	Authenticate(ctx context.Context, cred Credentials) error
}

// Chain accepts the credentials when any member does.
type Chain []Authenticator

// Authenticate tries each member in order.
func (c Chain) Authenticate(ctx context.Context, cred Credentials) error {
	if len(c) == 0 {
		return ErrNoAuthenticator
	}

	errs := make([]error, 0, len(c))

	for _, a := range c {
		err := a.Authenticate(ctx, cred)
		if err == nil {
			return nil
		}

		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// FromConfig builds the authenticator described by the admin config.
// A plaintext password is hashed once here and never kept.
func FromConfig(cfg config.Admin) (Authenticator, error) {
	var chain Chain

	hash := cfg.PasswordHash
	if hash == "" && cfg.Password != "" {
		log.Warn().Msg("admin password is configured in plaintext, use a hash from \"hash-password\" instead")

		var err error
		if hash, err = HashPassword(cfg.Password); err != nil {
			return nil, err
		}
	}

	if hash != "" {
		p, err := NewPassword(hash)
		if err != nil {
			return nil, err
		}

		chain = append(chain, p)
	}

	if cfg.LDAP.Enabled {
		l, err := NewLDAP(cfg.LDAP)
		if err != nil {
			return nil, err
		}

		chain = append(chain, l)
	}

	var a Authenticator

	switch len(chain) {
	case 0:
		return nil, ErrNoAuthenticator
	case 1:
		a = chain[0]
	default:
		a = chain
	}

	if cfg.TOTPSecret != "" {
		return NewTOTP(a, cfg.TOTPSecret)
	}

	return a, nil
}
