package domain

import "time"

type EventType string

const (
	EventTypeView     EventType = "view"
	EventTypeCart     EventType = "cart"
	EventTypePurchase EventType = "purchase"
)

// UnknownBrand replaces a missing brand during cleaning.
const UnknownBrand = "Unknown"

// RawEvent is one row of the raw event log, kept as text until cleaning.
type RawEvent struct {
	EventTime    string
	EventType    string
	ProductID    string
	CategoryCode string
	Brand        string
	Price        string
	UserID       string
	UserSession  string
}

// Event is a cleaned event. Price is always positive and Brand is never empty.
type Event struct {
	EventTime    time.Time
	EventType    EventType
	ProductID    string
	CategoryCode string
	Brand        string
	Price        float64
	UserID       string
	UserSession  string
	EventDate    string
	EventMonth   string
}

func (e Event) IsPurchase() bool {
	return e.EventType == EventTypePurchase
}

type CleaningStats struct {
	InputRows   int
	OutputRows  int
	DroppedRows int
}
