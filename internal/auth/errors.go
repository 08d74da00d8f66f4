package auth

import "errors"

var (
	// ErrInvalidCredentials is returned when the password is rejected.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidCode is returned when the one time code is missing or wrong.
	ErrInvalidCode = errors.New("invalid one time code")

	// ErrNoAuthenticator is returned when the config enables no credential source.
	ErrNoAuthenticator = errors.New("no admin credential configured")

	// ErrLDAPDisabled is returned when LDAP authentication is disabled via configuration.
	ErrLDAPDisabled = errors.New("ldap authentication is disabled")

	// ErrLDAPNoURL is returned when LDAP is enabled without a server URL.
	ErrLDAPNoURL = errors.New("ldap url is empty")

	// ErrInvalidHash is returned for a configured password hash that is not argon2id.
	ErrInvalidHash = errors.New("invalid argon2id hash")

	// ErrInvalidTOTPSecret is returned for a TOTP secret that is not base32.
	ErrInvalidTOTPSecret = errors.New("invalid totp secret")
)
