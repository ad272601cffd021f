package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Item is what the category and text filters need from a record.
type Item interface {
	ItemID() ItemID
	ItemCategory() string
	ItemName() string
	ItemDescription() string
}

// Coordinate is a decimal degree kept as the dataset's literal text. Datasets
// publish coordinates as strings; a bare JSON number is accepted too and kept
// as written so dedup keys stay exact.
type Coordinate string

func (c *Coordinate) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*c = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid coordinate: %w", err)
		}
		*c = Coordinate(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("invalid coordinate %s: %w", data, err)
		}
		*c = Coordinate(n.String())
	}
	return nil
}

// Place is an organization that accepts items of one category.
type Place struct {
	ID           ItemID     `json:"id,omitzero"`
	Organization string     `json:"organization"`
	Category     string     `json:"category"`
	Type         string     `json:"type"`
	Address      string     `json:"address"`
	PhoneNumber  string     `json:"phone_number"`
	Website      string     `json:"website"`
	Latitude     Coordinate `json:"latitude"`
	Longitude    Coordinate `json:"longitude"`
}

func (p Place) Keyword() Keyword { return ParseKeyword(p.Type) }

type Event struct {
	ID           ItemID  `json:"id"`
	Name         string  `json:"name"`
	Date         string  `json:"date"`
	Duration     float64 `json:"duration"`
	Organization string  `json:"organization"`
	Location     string  `json:"location"`
	Address      string  `json:"address"`
	Description  string  `json:"description"`
	Image        string  `json:"image"`
	URL          string  `json:"url"`
	Category     string  `json:"category,omitempty"`
}

func (e Event) ItemID() ItemID          { return e.ID }
func (e Event) ItemCategory() string    { return e.Category }
func (e Event) ItemName() string        { return e.Name }
func (e Event) ItemDescription() string { return e.Description }

var eventDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// StartTime parses Date. Dates without a zone are read in loc.
func (e Event) StartTime(loc *time.Location) (time.Time, error) {
	if e.Date == "" {
		return time.Time{}, fmt.Errorf("event %s has no date", e.ID)
	}
	for _, layout := range eventDateLayouts {
		if t, err := time.ParseInLocation(layout, e.Date, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("event %s: unrecognized date %q", e.ID, e.Date)
}

// EndTime is the start plus Duration hours.
func (e Event) EndTime(loc *time.Location) (time.Time, error) {
	start, err := e.StartTime(loc)
	if err != nil {
		return time.Time{}, err
	}
	return start.Add(time.Duration(e.Duration * float64(time.Hour))), nil
}

type Idea struct {
	ID          ItemID `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Image       string `json:"image"`
	URL         string `json:"url"`
}

func (i Idea) ItemID() ItemID          { return i.ID }
func (i Idea) ItemCategory() string    { return i.Category }
func (i Idea) ItemName() string        { return i.Name }
func (i Idea) ItemDescription() string { return i.Description }

// Category is a material class users search for ("Electronics"), with the
// keywords that map everyday items onto it.
type Category struct {
	ID          ItemID   `json:"id"`
	Name        string   `json:"name"`
	Associated  []string `json:"associated"`
	Description string   `json:"description,omitempty"`
	Image       string   `json:"image,omitempty"`
	Instagram   string   `json:"instagram,omitempty"`
}

func (c Category) ItemID() ItemID          { return c.ID }
func (c Category) ItemCategory() string    { return c.Name }
func (c Category) ItemName() string        { return c.Name }
func (c Category) ItemDescription() string { return c.Description }
