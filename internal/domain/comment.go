package domain

import "time"

// Comment is a free-text note left on a claim.
type Comment struct {
	ID        string
	ClaimID   string
	Author    string
	Body      string
	CreatedAt time.Time
}

// Attachment stores metadata for files attached to a claim.
type Attachment struct {
	ID        string
	ClaimID   string
	FileName  string
	Path      string
	MimeType  string
	SizeBytes int64
	CreatedAt time.Time
}
