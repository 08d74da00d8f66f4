// Package auth provides the admin gate middleware of the web application.
//
// Locals runs on every request and exposes whether an admin is logged in
// to handlers and templates. RequireAdmin guards the admin routes and
// redirects anonymous requests to the login page.
//
// Usage:
//
//	app.Use(authmiddleware.Locals(sessions, cfg.Title))
//	admin := app.Group("/admin", authmiddleware.RequireAdmin(sessions))
package auth
