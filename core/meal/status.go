package meal

import "time"

// Status is the lifecycle state of a Meal at a given instant.
type Status string

const (
	StatusUpcoming       Status = "upcoming"
	StatusSelecting      Status = "selecting"
	StatusAwaitingEffect Status = "awaiting_effect"
	StatusActive         Status = "active"
	StatusExpired        Status = "expired"
)

var Statuses = []Status{StatusUpcoming, StatusSelecting, StatusAwaitingEffect, StatusActive, StatusExpired}

// within reports whether start <= t < end.
func within(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}

// Classify derives the Status of m at now.
// Windows are half-open and checked in priority order: the effective window wins over the
// selection window when both contain now.
func Classify(m Meal, now time.Time) Status {
	switch {
	case within(now, m.EffectiveStart, m.EffectiveEnd):
		return StatusActive
	case within(now, m.SelectionStart, m.SelectionEnd):
		return StatusSelecting
	case now.Before(m.SelectionStart):
		return StatusUpcoming
	case within(now, m.SelectionEnd, m.EffectiveStart):
		return StatusAwaitingEffect
	default:
		return StatusExpired
	}
}

// Selectable reports whether a student may choose a Type for m at now.
func Selectable(m Meal, now time.Time) bool {
	return Classify(m, now) == StatusSelecting
}

// Detail is a Meal along with its derived state.
type Detail struct {
	Meal
	Status     Status `json:"status"`
	Selectable bool   `json:"selectable"`
}

func NewDetail(m Meal, now time.Time) Detail {
	status := Classify(m, now)
	return Detail{Meal: m, Status: status, Selectable: status == StatusSelecting}
}
