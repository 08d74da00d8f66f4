// Package main provides the entry point of the Student Rep Portal.
// It runs a fiber web service with an announcement feed, a contact form
// with file attachments, a public file listing and a password protected
// admin panel. State is kept in a gorm key-value table (sqlite, mysql or
// postgres) and files in a content-addressed store on disk. The CLI also
// exports and imports the state as a JSON bundle with embedded files.
package main
