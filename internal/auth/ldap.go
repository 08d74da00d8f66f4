package auth

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog/log"

	"github.com/studentrep/portal/internal/config"
)

const defaultLDAPTimeout = 10 * time.Second

// LDAPAuthenticator accepts a password when the directory lets the
// configured DN bind with it.
type LDAPAuthenticator struct {
	config config.LDAP
	host   string
}

// NewLDAP creates a new LDAP authenticator.
func NewLDAP(cfg config.LDAP) (*LDAPAuthenticator, error) {
	if !cfg.Enabled {
		return nil, ErrLDAPDisabled
	}

	if cfg.URL == "" {
		return nil, ErrLDAPNoURL
	}

	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse ldap url: %w", err)
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = defaultLDAPTimeout
	}

	return &LDAPAuthenticator{config: cfg, host: u.Hostname()}, nil
}

// Connect establishes a connection to the LDAP server.
func (p *LDAPAuthenticator) Connect(ctx context.Context) (*ldap.Conn, error) {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: p.config.SkipVerify, //nolint:gosec // skipping verifying tls is ok
		ServerName:         p.host,
	}

	dialer := &net.Dialer{Timeout: p.config.Timeout}
	if deadline, ok := ctx.Deadline(); ok {
		dialer.Deadline = deadline
	}

	conn, err := ldap.DialURL(p.config.URL, ldap.DialWithTLSConfig(tlsConfig), ldap.DialWithDialer(dialer))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to LDAP server: %w", err)
	}

	if p.config.StartTLS {
		if errStartTLS := conn.StartTLS(tlsConfig); errStartTLS != nil {
			if errClose := conn.Close(); errClose != nil {
				log.Error().Err(errClose).Msg("failed to close LDAP connection")
			}

			return nil, fmt.Errorf("failed to start TLS: %w", errStartTLS)
		}
	}

	conn.SetTimeout(p.config.Timeout)

	return conn, nil
}

// Authenticate implements Authenticator.
func (p *LDAPAuthenticator) Authenticate(ctx context.Context, cred Credentials) error {
	// an empty password would be an unauthenticated bind, which servers accept
	if cred.Password == "" {
		return ErrInvalidCredentials
	}

	conn, err := p.Connect(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if errClose := conn.Close(); errClose != nil {
			log.Warn().Err(errClose).Msg("failed to close LDAP connection")
		}
	}()

	if err = conn.Bind(p.config.BindDN, cred.Password); err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
			return ErrInvalidCredentials
		}

		return fmt.Errorf("ldap bind: %w", err)
	}

	return nil
}
