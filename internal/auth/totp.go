package auth

import (
	"context"
	"encoding/base32"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// TOTP requires a valid time based one time code on top of Next.
type TOTP struct {
	next   Authenticator
	secret string
	now    func() time.Time
}

// NewTOTP wraps next with a second factor using the base32 secret.
func NewTOTP(next Authenticator, secret string) (*TOTP, error) {
	secret = strings.ToUpper(strings.ReplaceAll(secret, " ", ""))

	if _, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(strings.TrimRight(secret, "=")); err != nil {
		return nil, ErrInvalidTOTPSecret
	}

	return &TOTP{next: next, secret: secret, now: time.Now}, nil
}

// Authenticate checks the code first so a wrong code never reaches the password source.
func (t *TOTP) Authenticate(ctx context.Context, cred Credentials) error {
	ok, err := totp.ValidateCustom(strings.TrimSpace(cred.Code), t.secret, t.now().UTC(), totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil || !ok {
		return ErrInvalidCode
	}

	return t.next.Authenticate(ctx, cred)
}
