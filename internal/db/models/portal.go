package models

import "time"

// MessageStatus is the moderation state of a contact message.
type MessageStatus string

// StatusUnread is the only status a message is ever given.
const StatusUnread MessageStatus = "unread"

// Identifier prefixes of the portal records.
const (
	MessageIDPrefix  = "msg"
	ResourceIDPrefix = "res"
	InfoIDPrefix     = "info"
)

// Attachment describes a file stored in the blob store.
// Data is only set inside export bundles, where it holds the content as a data URI.
type Attachment struct {
	Name     string `json:"name"`
	Size     string `json:"size"` // human readable
	Bytes    int64  `json:"bytes,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	Digest   string `json:"digest,omitempty"` // hex sha256 of the content
	Data     string `json:"data,omitempty"`
}

// Message is a contact request sent by a visitor.
type Message struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Subject   string        `json:"subject"`
	Message   string        `json:"message"`
	File      *Attachment   `json:"file"`
	CreatedAt time.Time     `json:"createdAt"`
	Status    MessageStatus `json:"status"`
}

// Resource is a downloadable file uploaded by an admin.
type Resource struct {
	ID string `json:"id"`
	Attachment
	CreatedAt time.Time `json:"createdAt"`
}

// Info is an announcement shown on the home feed.
type Info struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}
