// Package models defines the public justice index entry. Entries are
// immutable snapshots taken at publication time: later edits or a withdrawal
// of the petition never touch an existing entry, and republication after a
// rejection cycle appends a fresh entry rather than rewriting the old one.
package models

import (
	"time"

	"justicerollon/pkg/domain"
	dErrors "justicerollon/pkg/domain-errors"
)

// EvidenceRef is the public slice of a verified evidence row.
type EvidenceRef struct {
	EvidenceID domain.EvidenceID `json:"evidence_id"`
	Title      string            `json:"title"`
	FileType   domain.FileType   `json:"file_type"`
	CaseTag    string            `json:"case_tag,omitempty"`
}

// Entry is one immutable publication record.
type Entry struct {
	ID          domain.EntryID    `json:"id"`
	PetitionID  domain.PetitionID `json:"petition_id"`
	OwnerID     domain.UserID     `json:"owner_id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Category    domain.Category   `json:"category"`
	Evidence    []EvidenceRef     `json:"evidence"`
	PublishedAt time.Time         `json:"published_at"`
	CreatedAt   time.Time         `json:"created_at"`
}

// NewEntry constructs an index entry from publication data.
func NewEntry(petitionID domain.PetitionID, ownerID domain.UserID, title, description string, category domain.Category, evidence []EvidenceRef, publishedAt time.Time) (*Entry, error) {
	if petitionID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "index entry requires a petition")
	}
	if title == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "index entry requires a title")
	}
	if publishedAt.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "index entry requires a publication time")
	}
	return &Entry{
		ID:          domain.NewEntryID(),
		PetitionID:  petitionID,
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		Category:    category,
		Evidence:    evidence,
		PublishedAt: publishedAt,
		CreatedAt:   time.Now().UTC(),
	}, nil
}
