package domain

import dErrors "justicerollon/pkg/domain-errors"

// Category groups petitions by topic for the public index.
type Category string

const (
	CategoryGeneral     Category = "general"
	CategoryLegal       Category = "legal"
	CategoryWelfare     Category = "welfare"
	CategoryEnvironment Category = "environment"
	CategoryPolicy      Category = "policy"
)

var validCategories = map[Category]bool{
	CategoryGeneral:     true,
	CategoryLegal:       true,
	CategoryWelfare:     true,
	CategoryEnvironment: true,
	CategoryPolicy:      true,
}

// ParseCategory validates an external category value. An empty string defaults
// to general so creation forms can omit it.
func ParseCategory(s string) (Category, error) {
	if s == "" {
		return CategoryGeneral, nil
	}
	c := Category(s)
	if !validCategories[c] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid category")
	}
	return c, nil
}

func (c Category) String() string { return string(c) }

// Visibility controls who can see a petition before and after publication.
// Private petitions are visible only to their owner and administrators and are
// excluded from the public index.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

func ParseVisibility(s string) (Visibility, error) {
	switch s {
	case "", string(VisibilityPublic):
		return VisibilityPublic, nil
	case string(VisibilityPrivate):
		return VisibilityPrivate, nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "invalid visibility")
}

func (v Visibility) String() string { return string(v) }

// FileType classifies evidence uploads for filtering and display.
type FileType string

const (
	FileTypeImage    FileType = "image"
	FileTypePDF      FileType = "pdf"
	FileTypeVideo    FileType = "video"
	FileTypeDocument FileType = "doc"
	FileTypeOther    FileType = "other"
)

var validFileTypes = map[FileType]bool{
	FileTypeImage:    true,
	FileTypePDF:      true,
	FileTypeVideo:    true,
	FileTypeDocument: true,
	FileTypeOther:    true,
}

// ParseFileType defaults empty input to other; uploads always get a type.
func ParseFileType(s string) (FileType, error) {
	if s == "" {
		return FileTypeOther, nil
	}
	f := FileType(s)
	if !validFileTypes[f] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid file type")
	}
	return f, nil
}

func (f FileType) String() string { return string(f) }
