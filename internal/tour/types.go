package tour

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and display format of calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar date without time-of-day. The zero value means "not set".
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar day in UTC.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

// String formats the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MarshalJSON encodes the date as "YYYY-MM-DD", or null when unset.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(DateLayout))
}

// UnmarshalJSON accepts "YYYY-MM-DD", a full RFC 3339 timestamp, or null.
func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*d = Date{}
		return nil
	}

	if t, err := time.Parse(DateLayout, s); err == nil {
		*d = Date{Time: t}
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("date %q is not YYYY-MM-DD", s)
	}
	*d = NewDate(t)
	return nil
}

// Destination is a category of trip, e.g. "beach holiday".
type Destination struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewDestination carries the fields accepted when creating a destination.
type NewDestination struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// DestinationPatch is a sparse update: nil fields are left untouched.
type DestinationPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p DestinationPatch) Empty() bool {
	return p.Name == nil && p.Description == nil
}

// TourPackage is a bookable trip that belongs to exactly one Destination category.
type TourPackage struct {
	ID                int64     `json:"id"`
	Destination       string    `json:"destination"`
	StartDate         Date      `json:"startDate"`
	Duration          int       `json:"duration"`
	Price             float64   `json:"price"`
	Transport         *string   `json:"transport"`
	Accommodation     *string   `json:"accommodation"`
	DestinationTypeID int64     `json:"destinationTypeId"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// NewTourPackage carries the fields accepted when creating a tour package.
type NewTourPackage struct {
	Destination       string  `json:"destination"`
	StartDate         Date    `json:"startDate"`
	Duration          int     `json:"duration"`
	Price             float64 `json:"price"`
	Transport         *string `json:"transport,omitempty"`
	Accommodation     *string `json:"accommodation,omitempty"`
	DestinationTypeID int64   `json:"destinationTypeId"`
}

// TourPackagePatch is a sparse update: nil fields are left untouched.
type TourPackagePatch struct {
	Destination       *string  `json:"destination,omitempty"`
	StartDate         *Date    `json:"startDate,omitempty"`
	Duration          *int     `json:"duration,omitempty"`
	Price             *float64 `json:"price,omitempty"`
	Transport         *string  `json:"transport,omitempty"`
	Accommodation     *string  `json:"accommodation,omitempty"`
	DestinationTypeID *int64   `json:"destinationTypeId,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p TourPackagePatch) Empty() bool {
	return p.Destination == nil && p.StartDate == nil && p.Duration == nil &&
		p.Price == nil && p.Transport == nil && p.Accommodation == nil &&
		p.DestinationTypeID == nil
}

// AveragePrice is the aggregate returned for a destination category.
type AveragePrice struct {
	DestinationTypeID int64   `json:"destinationTypeId"`
	AveragePrice      float64 `json:"averagePrice"`
}

// Version summarises the state of a table: how many rows it holds and when
// the newest of them was last written. Any insert, delete or update through
// the repositories changes it.
type Version struct {
	Rows         int64
	LastModified time.Time
}
