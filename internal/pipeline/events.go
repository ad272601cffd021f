package pipeline

import (
	"slices"
	"time"

	"github.com/wastebuster/wastebuster/internal/domain"
)

// UpcomingWindowDays is the last day offset that still counts as upcoming.
const UpcomingWindowDays = 7

// ScheduledEvent is an event with its parsed times and its offset in whole
// calendar days from today.
type ScheduledEvent struct {
	domain.Event
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	DayOffset int       `json:"day_offset"`
	Saved     bool      `json:"saved"`
}

type EventBuckets struct {
	Upcoming []ScheduledEvent `json:"upcoming"`
	Other    []ScheduledEvent `json:"other"`
}

// DayOffset counts calendar days from now's date to t's date, both taken in
// now's location. Times of day are ignored, so an event later today is 0 and
// one early tomorrow is 1.
func DayOffset(t, now time.Time) int {
	loc := now.Location()
	ty, tm, td := t.In(loc).Date()
	ny, nm, nd := now.Date()
	// Noon UTC on each date keeps DST transitions out of the subtraction.
	a := time.Date(ty, tm, td, 12, 0, 0, 0, time.UTC)
	b := time.Date(ny, nm, nd, 12, 0, 0, 0, time.UTC)
	return int(a.Sub(b).Hours() / 24)
}

// BucketEvents splits events into those 0 to 7 days out and those further
// away, each sorted soonest first with ties kept in input order. Past events
// and events without a usable date are dropped. With likedOnly set, only
// saved events are kept.
func BucketEvents(events []domain.Event, saved domain.IDSet, now time.Time, likedOnly bool) EventBuckets {
	buckets := EventBuckets{
		Upcoming: []ScheduledEvent{},
		Other:    []ScheduledEvent{},
	}
	for _, e := range events {
		isSaved := saved.Has(e.ID)
		if likedOnly && !isSaved {
			continue
		}
		start, err := e.StartTime(now.Location())
		if err != nil {
			continue
		}
		offset := DayOffset(start, now)
		if offset < 0 {
			continue
		}
		se := ScheduledEvent{
			Event:     e,
			Start:     start,
			End:       start.Add(time.Duration(e.Duration * float64(time.Hour))),
			DayOffset: offset,
			Saved:     isSaved,
		}
		if offset <= UpcomingWindowDays {
			buckets.Upcoming = append(buckets.Upcoming, se)
		} else {
			buckets.Other = append(buckets.Other, se)
		}
	}

	byOffset := func(a, b ScheduledEvent) int { return a.DayOffset - b.DayOffset }
	slices.SortStableFunc(buckets.Upcoming, byOffset)
	slices.SortStableFunc(buckets.Other, byOffset)
	return buckets
}

// FindEvent looks an event up by ID. The match ignores whether the ID was
// written as a string or a number, since route parameters lose that.
func FindEvent(events []domain.Event, id domain.ItemID) (domain.Event, bool) {
	if id.IsZero() {
		return domain.Event{}, false
	}
	for _, e := range events {
		if e.ID == id || e.ID.LooseEqual(id) {
			return e, true
		}
	}
	return domain.Event{}, false
}
