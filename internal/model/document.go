// Package model defines the core domain models used throughout the application.
package model

import "time"

// DocumentStatus tracks where a document is in the parsing lifecycle.
type DocumentStatus string

// Document status constants. Pending documents are eligible for parsing;
// the other three are terminal.
const (
	DocStatusPending DocumentStatus = "pending"
	DocStatusParsed  DocumentStatus = "parsed"
	DocStatusIgnored DocumentStatus = "ignored"
	DocStatusFailed  DocumentStatus = "failed"
)

// Valid reports whether s is a known document status.
func (s DocumentStatus) Valid() bool {
	switch s {
	case DocStatusPending, DocStatusParsed, DocStatusIgnored, DocStatusFailed:
		return true
	}
	return false
}

// Terminal reports whether the status is an end state.
func (s DocumentStatus) Terminal() bool {
	return s.Valid() && s != DocStatusPending
}

// Document is one email-like unit of text submitted for extraction.
// Immutable once handed to the parsing engine except for Status.
type Document struct {
	ReceivedAt time.Time
	ID         string
	UserID     string
	MessageID  string // Provider message ID, unique per mailbox
	Subject    string
	Sender     string
	Body       string
	Status     DocumentStatus
}
