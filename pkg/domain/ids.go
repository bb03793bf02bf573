package domain

import (
	"github.com/google/uuid"

	dErrors "justicerollon/pkg/domain-errors"
)

// Typed IDs prevent cross-entity assignment at compile time. Construct from
// external input via the Parse* functions so validation happens at trust
// boundaries; direct casting bypasses it.
type (
	UserID       uuid.UUID
	PetitionID   uuid.UUID
	EvidenceID   uuid.UUID
	EntryID      uuid.UUID
	SlotID       uuid.UUID
	BookingID    uuid.UUID
	DepositionID uuid.UUID
)

func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s cannot be empty", what)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "invalid %s", what)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s cannot be nil", what)
	}
	return u, nil
}

// ParseUserID validates and converts an external user id.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user id")
	return UserID(u), err
}

func ParsePetitionID(s string) (PetitionID, error) {
	u, err := parseUUID(s, "petition id")
	return PetitionID(u), err
}

func ParseEvidenceID(s string) (EvidenceID, error) {
	u, err := parseUUID(s, "evidence id")
	return EvidenceID(u), err
}

func ParseEntryID(s string) (EntryID, error) {
	u, err := parseUUID(s, "entry id")
	return EntryID(u), err
}

func ParseSlotID(s string) (SlotID, error) {
	u, err := parseUUID(s, "slot id")
	return SlotID(u), err
}

func ParseBookingID(s string) (BookingID, error) {
	u, err := parseUUID(s, "booking id")
	return BookingID(u), err
}

func ParseDepositionID(s string) (DepositionID, error) {
	u, err := parseUUID(s, "deposition id")
	return DepositionID(u), err
}

func (i UserID) String() string       { return uuid.UUID(i).String() }
func (i PetitionID) String() string   { return uuid.UUID(i).String() }
func (i EvidenceID) String() string   { return uuid.UUID(i).String() }
func (i EntryID) String() string      { return uuid.UUID(i).String() }
func (i SlotID) String() string       { return uuid.UUID(i).String() }
func (i BookingID) String() string    { return uuid.UUID(i).String() }
func (i DepositionID) String() string { return uuid.UUID(i).String() }

func (i UserID) IsNil() bool       { return uuid.UUID(i) == uuid.Nil }
func (i PetitionID) IsNil() bool   { return uuid.UUID(i) == uuid.Nil }
func (i EvidenceID) IsNil() bool   { return uuid.UUID(i) == uuid.Nil }
func (i EntryID) IsNil() bool      { return uuid.UUID(i) == uuid.Nil }
func (i SlotID) IsNil() bool       { return uuid.UUID(i) == uuid.Nil }
func (i BookingID) IsNil() bool    { return uuid.UUID(i) == uuid.Nil }
func (i DepositionID) IsNil() bool { return uuid.UUID(i) == uuid.Nil }

// NewUserID and friends mint fresh IDs for new aggregates.
func NewUserID() UserID             { return UserID(uuid.New()) }
func NewPetitionID() PetitionID     { return PetitionID(uuid.New()) }
func NewEvidenceID() EvidenceID     { return EvidenceID(uuid.New()) }
func NewEntryID() EntryID           { return EntryID(uuid.New()) }
func NewSlotID() SlotID             { return SlotID(uuid.New()) }
func NewBookingID() BookingID       { return BookingID(uuid.New()) }
func NewDepositionID() DepositionID { return DepositionID(uuid.New()) }

// MarshalText lets typed IDs serialize as plain UUID strings in JSON.
func (i UserID) MarshalText() ([]byte, error)       { return []byte(i.String()), nil }
func (i PetitionID) MarshalText() ([]byte, error)   { return []byte(i.String()), nil }
func (i EvidenceID) MarshalText() ([]byte, error)   { return []byte(i.String()), nil }
func (i EntryID) MarshalText() ([]byte, error)      { return []byte(i.String()), nil }
func (i SlotID) MarshalText() ([]byte, error)       { return []byte(i.String()), nil }
func (i BookingID) MarshalText() ([]byte, error)    { return []byte(i.String()), nil }
func (i DepositionID) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

func (i *UserID) UnmarshalText(b []byte) error {
	id, err := ParseUserID(string(b))
	if err != nil {
		return err
	}
	*i = id
	return nil
}

func (i *PetitionID) UnmarshalText(b []byte) error {
	id, err := ParsePetitionID(string(b))
	if err != nil {
		return err
	}
	*i = id
	return nil
}

func (i *EvidenceID) UnmarshalText(b []byte) error {
	id, err := ParseEvidenceID(string(b))
	if err != nil {
		return err
	}
	*i = id
	return nil
}

func (i *EntryID) UnmarshalText(b []byte) error {
	id, err := ParseEntryID(string(b))
	if err != nil {
		return err
	}
	*i = id
	return nil
}

func (i *SlotID) UnmarshalText(b []byte) error {
	id, err := ParseSlotID(string(b))
	if err != nil {
		return err
	}
	*i = id
	return nil
}

func (i *BookingID) UnmarshalText(b []byte) error {
	id, err := ParseBookingID(string(b))
	if err != nil {
		return err
	}
	*i = id
	return nil
}

func (i *DepositionID) UnmarshalText(b []byte) error {
	id, err := ParseDepositionID(string(b))
	if err != nil {
		return err
	}
	*i = id
	return nil
}
