package record

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jo-oikawa/very-good-reads/backend/internal/shared/utils"
)

var (
	// ErrNotFound is returned when no record has the requested ID.
	ErrNotFound = errors.New("record not found")
	// ErrInvalid wraps every validation failure.
	ErrInvalid = errors.New("invalid record")
	// ErrConflict is returned when an operation does not fit the record's state.
	ErrConflict = errors.New("record conflict")
)

// Status is the reading state of a record.
type Status string

const (
	StatusToRead       Status = "to-read"
	StatusReading      Status = "reading"
	StatusRead         Status = "read"
	StatusDidNotFinish Status = "did-not-finish"

	// DefaultStatus is assigned when a record is created without one.
	DefaultStatus = StatusToRead
)

// Review star range.
const (
	minStars = 1
	maxStars = 5
)

// Statuses lists every status in display order.
func Statuses() []Status {
	return []Status{StatusToRead, StatusReading, StatusRead, StatusDidNotFinish}
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusToRead, StatusReading, StatusRead, StatusDidNotFinish:
		return true
	}
	return false
}

// ParseStatus converts user input to a Status.
func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", invalid("status %q is not one of to-read, reading, read, did-not-finish", s)
	}
	return status, nil
}

// Review is a rating left on a finished book.
type Review struct {
	Stars       int    `json:"stars" yaml:"stars"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Validate checks the star range and description length.
func (r Review) Validate() error {
	if r.Stars < minStars || r.Stars > maxStars {
		return invalid("stars must be between %d and %d, got %d", minStars, maxStars, r.Stars)
	}
	if err := utils.ValidateString(r.Description, "description", 0, utils.MaxDescriptionLength, false); err != nil {
		return invalid("%v", err)
	}
	return nil
}

// Record is one book on the reading list.
type Record struct {
	ID         string    `json:"_id" yaml:"id"`
	Title      string    `json:"title" yaml:"title"`
	Author     string    `json:"author" yaml:"author"`
	Format     string    `json:"format" yaml:"format"`
	Notes      string    `json:"notes,omitempty" yaml:"notes,omitempty"`
	Status     Status    `json:"status" yaml:"status"`
	Review     *Review   `json:"review,omitempty" yaml:"review,omitempty"`
	Pages      int       `json:"pages,omitempty" yaml:"pages,omitempty"`
	TimeSpent  int       `json:"timeSpent,omitempty" yaml:"time_spent,omitempty"`
	CoverImage string    `json:"coverImage,omitempty" yaml:"cover_image,omitempty"`
	CreatedAt  time.Time `json:"createdAt" yaml:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" yaml:"updated_at"`
}

// Clone returns a deep copy.
func (r *Record) Clone() *Record {
	c := *r
	if r.Review != nil {
		review := *r.Review
		c.Review = &review
	}
	return &c
}

// Input is the payload for creating a record.
type Input struct {
	Title      string  `json:"title"`
	Author     string  `json:"author"`
	Format     string  `json:"format"`
	Notes      string  `json:"notes"`
	Status     Status  `json:"status"`
	Pages      int     `json:"pages"`
	TimeSpent  int     `json:"timeSpent"`
	CoverImage string  `json:"coverImage"`
	Review     *Review `json:"review"`
}

// Validate checks required fields and ranges. An empty status is allowed and
// becomes DefaultStatus.
func (in Input) Validate() error {
	checks := []struct {
		value    string
		field    string
		max      int
		required bool
	}{
		{in.Title, "title", utils.MaxTitleLength, true},
		{in.Author, "author", utils.MaxNameLength, true},
		{in.Format, "format", utils.MaxFormatLength, true},
		{in.Notes, "notes", utils.MaxNotesLength, false},
		{in.CoverImage, "coverImage", utils.MaxDescriptionLength, false},
	}
	for _, c := range checks {
		if err := utils.ValidateString(c.value, c.field, 0, c.max, c.required); err != nil {
			return invalid("%v", err)
		}
	}
	if in.Status != "" && !in.Status.Valid() {
		return invalid("status %q is not one of to-read, reading, read, did-not-finish", in.Status)
	}
	if err := validateCounts(in.Pages, in.TimeSpent); err != nil {
		return err
	}
	if in.Review != nil {
		return in.Review.Validate()
	}
	return nil
}

// Patch is a partial update; nil fields are left untouched.
type Patch struct {
	Title      *string `json:"title,omitempty"`
	Author     *string `json:"author,omitempty"`
	Format     *string `json:"format,omitempty"`
	Notes      *string `json:"notes,omitempty"`
	Status     *Status `json:"status,omitempty"`
	Pages      *int    `json:"pages,omitempty"`
	TimeSpent  *int    `json:"timeSpent,omitempty"`
	CoverImage *string `json:"coverImage,omitempty"`
	Review     *Review `json:"review,omitempty"`
}

// Empty reports whether the patch sets nothing.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Author == nil && p.Format == nil && p.Notes == nil &&
		p.Status == nil && p.Pages == nil && p.TimeSpent == nil && p.CoverImage == nil &&
		p.Review == nil
}

// Validate checks the fields the patch sets.
func (p Patch) Validate() error {
	if p.Empty() {
		return invalid("no fields to update")
	}
	required := []struct {
		value *string
		field string
		max   int
	}{
		{p.Title, "title", utils.MaxTitleLength},
		{p.Author, "author", utils.MaxNameLength},
		{p.Format, "format", utils.MaxFormatLength},
	}
	for _, c := range required {
		if c.value == nil {
			continue
		}
		if err := utils.ValidateString(*c.value, c.field, 0, c.max, true); err != nil {
			return invalid("%v", err)
		}
	}
	if p.Notes != nil {
		if err := utils.ValidateString(*p.Notes, "notes", 0, utils.MaxNotesLength, false); err != nil {
			return invalid("%v", err)
		}
	}
	if p.CoverImage != nil {
		if err := utils.ValidateString(*p.CoverImage, "coverImage", 0, utils.MaxDescriptionLength, false); err != nil {
			return invalid("%v", err)
		}
	}
	if p.Status != nil && !p.Status.Valid() {
		return invalid("status %q is not one of to-read, reading, read, did-not-finish", *p.Status)
	}
	if err := validateCounts(deref(p.Pages), deref(p.TimeSpent)); err != nil {
		return err
	}
	if p.Review != nil {
		return p.Review.Validate()
	}
	return nil
}

func (p Patch) apply(r *Record) {
	if p.Title != nil {
		r.Title = strings.TrimSpace(*p.Title)
	}
	if p.Author != nil {
		r.Author = strings.TrimSpace(*p.Author)
	}
	if p.Format != nil {
		r.Format = strings.TrimSpace(*p.Format)
	}
	if p.Notes != nil {
		r.Notes = *p.Notes
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.Pages != nil {
		r.Pages = *p.Pages
	}
	if p.TimeSpent != nil {
		r.TimeSpent = *p.TimeSpent
	}
	if p.CoverImage != nil {
		r.CoverImage = *p.CoverImage
	}
	if p.Review != nil {
		review := *p.Review
		r.Review = &review
	}
}

// Filter narrows a listing. Zero values match everything.
type Filter struct {
	Status Status
	// Query is matched case-insensitively against title, author, notes and format.
	Query string
}

// Match reports whether r passes the filter.
func (f Filter) Match(r *Record) bool {
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	for _, field := range []string{r.Title, r.Author, r.Notes, r.Format} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

func validateCounts(pages, timeSpent int) error {
	if pages < 0 {
		return invalid("pages must not be negative")
	}
	if timeSpent < 0 {
		return invalid("timeSpent must not be negative")
	}
	return nil
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
