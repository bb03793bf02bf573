// Package models defines depositions: ordered written testimony attached to
// a petition. Depositions are append-only and numbered per petition, so the
// record reads as a sequence that cannot be reordered after the fact.
package models

import (
	"strings"
	"time"

	"justicerollon/pkg/domain"
	dErrors "justicerollon/pkg/domain-errors"
)

const (
	maxDepositionTitleLength = 200
	maxDepositionBodyLength  = 20000
)

// Deposition is one testimony record. Sequence is assigned by the store at
// insert time, monotonically per petition starting at 1.
type Deposition struct {
	ID         domain.DepositionID
	PetitionID domain.PetitionID
	AuthorID   domain.UserID
	Title      string
	Body       string
	Sequence   int
	CreatedAt  time.Time
}

// NewDeposition constructs an unsequenced deposition; the store fills
// Sequence on insert.
func NewDeposition(petitionID domain.PetitionID, authorID domain.UserID, title, body string) (*Deposition, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "deposition title cannot be empty")
	}
	if len(title) > maxDepositionTitleLength {
		return nil, dErrors.New(dErrors.CodeValidation, "deposition title too long")
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "deposition body cannot be empty")
	}
	if len(body) > maxDepositionBodyLength {
		return nil, dErrors.New(dErrors.CodeValidation, "deposition body too long")
	}
	return &Deposition{
		ID:         domain.NewDepositionID(),
		PetitionID: petitionID,
		AuthorID:   authorID,
		Title:      title,
		Body:       body,
		CreatedAt:  time.Now().UTC(),
	}, nil
}
