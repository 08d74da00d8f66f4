// Package auth decides whether a login attempt may open the admin panel.
//
// The portal has a single admin role and no user accounts. An Authenticator
// checks the submitted Credentials against one source:
//   - PasswordAuthenticator compares against an argon2id hash from the config
//   - LDAPAuthenticator binds to a directory as the configured DN
//   - TOTP wraps another Authenticator and additionally requires a one time code
//
// Chain tries several sources in order. FromConfig builds the authenticator
// the daemon uses.
//
// Example usage:
//
//	a, err := auth.FromConfig(cfg.Admin)
//	if err != nil {
//	    return err
//	}
//
//	if err = a.Authenticate(ctx, auth.Credentials{Password: pw, Code: code}); err != nil {
//	    // stay logged out
//	}
package auth
