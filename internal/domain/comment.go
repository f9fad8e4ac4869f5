package domain

import "time"

// ActorRole identifies who performed an action on a ticket.
type ActorRole string

const (
	RoleEmployee ActorRole = "employee"
	RoleAgent    ActorRole = "agent"
	RoleAdmin    ActorRole = "admin"
	RoleSystem   ActorRole = "system"
)

// Actor carries the identity attached to mutations and comments.
type Actor struct {
	ID   string
	Name string
	Role ActorRole
}

// Comment is an append-only entry in a ticket thread.
type Comment struct {
	ID          string
	TicketID    string
	AuthorID    string
	AuthorName  string
	AuthorRole  ActorRole
	Body        string
	IsInternal  bool
	Sentiment   Sentiment
	Attachments []AttachmentReference
	CreatedAt   time.Time
}

// AttachmentReference stores metadata for comment attachments.
type AttachmentReference struct {
	ID         string
	CommentID  string
	StorageKey string
	FileName   string
	MimeType   string
	SizeBytes  int64
	CreatedAt  time.Time
}
