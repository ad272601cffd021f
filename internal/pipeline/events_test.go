package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wastebuster/wastebuster/internal/domain"
)

func eventIDs(events []ScheduledEvent) []domain.ItemID {
	out := make([]domain.ItemID, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}

func TestDayOffset(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	now := time.Date(2024, 3, 10, 18, 30, 0, 0, loc)

	tests := []struct {
		name string
		t    time.Time
		want int
	}{
		{"earlier today", time.Date(2024, 3, 10, 1, 0, 0, 0, loc), 0},
		{"later today", time.Date(2024, 3, 10, 23, 59, 0, 0, loc), 0},
		{"early tomorrow", time.Date(2024, 3, 11, 0, 5, 0, 0, loc), 1},
		{"yesterday", time.Date(2024, 3, 9, 23, 0, 0, 0, loc), -1},
		{"across month end", time.Date(2024, 4, 1, 9, 0, 0, 0, loc), 22},
		{"utc instant on next local day", time.Date(2024, 3, 11, 6, 0, 0, 0, time.UTC), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DayOffset(tt.t, now))
		})
	}
}

func TestDayOffsetAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/Toronto")
	if err != nil {
		t.Skip("tzdata not available")
	}
	now := time.Date(2024, 3, 9, 12, 0, 0, 0, loc)
	assert.Equal(t, 2, DayOffset(time.Date(2024, 3, 11, 0, 30, 0, 0, loc), now))
}

func TestBucketEvents(t *testing.T) {
	now := time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC)
	events := []domain.Event{
		{ID: domain.NumberID(1), Name: "plus eight", Date: "2024-06-09T10:00:00Z"},
		{ID: domain.NumberID(2), Name: "today", Date: "2024-06-01T09:00:00Z"},
		{ID: domain.NumberID(3), Name: "yesterday", Date: "2024-05-31T23:00:00Z"},
		{ID: domain.NumberID(4), Name: "plus three", Date: "2024-06-04T10:00:00Z"},
		{ID: domain.NumberID(5), Name: "plus seven", Date: "2024-06-08"},
		{ID: domain.NumberID(6), Name: "undated"},
		{ID: domain.NumberID(7), Name: "bad date", Date: "soon"},
	}

	b := BucketEvents(events, nil, now, false)

	assert.Equal(t, []domain.ItemID{domain.NumberID(2), domain.NumberID(4), domain.NumberID(5)}, eventIDs(b.Upcoming))
	assert.Equal(t, []domain.ItemID{domain.NumberID(1)}, eventIDs(b.Other))
	assert.Equal(t, 0, b.Upcoming[0].DayOffset)
	assert.Equal(t, 3, b.Upcoming[1].DayOffset)
	assert.Equal(t, 7, b.Upcoming[2].DayOffset)
	assert.Equal(t, 8, b.Other[0].DayOffset)
}

func TestBucketEventsStableWithinDay(t *testing.T) {
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	events := []domain.Event{
		{ID: domain.NumberID(1), Date: "2024-06-03T18:00:00Z"},
		{ID: domain.NumberID(2), Date: "2024-06-02T10:00:00Z"},
		{ID: domain.NumberID(3), Date: "2024-06-03T09:00:00Z"},
	}

	b := BucketEvents(events, nil, now, false)
	assert.Equal(t, []domain.ItemID{domain.NumberID(2), domain.NumberID(1), domain.NumberID(3)}, eventIDs(b.Upcoming),
		"same-day events keep input order")
}

func TestBucketEventsLikedOnly(t *testing.T) {
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	events := []domain.Event{
		{ID: domain.NumberID(1), Date: "2024-06-02T10:00:00Z"},
		{ID: domain.NumberID(2), Date: "2024-06-03T10:00:00Z"},
		{ID: domain.NumberID(3), Date: "2024-07-03T10:00:00Z"},
	}
	saved := domain.NewIDSet(domain.NumberID(2), domain.NumberID(3))

	b := BucketEvents(events, saved, now, true)
	assert.Equal(t, []domain.ItemID{domain.NumberID(2)}, eventIDs(b.Upcoming))
	assert.Equal(t, []domain.ItemID{domain.NumberID(3)}, eventIDs(b.Other))
	assert.True(t, b.Upcoming[0].Saved)

	all := BucketEvents(events, saved, now, false)
	assert.False(t, all.Upcoming[0].Saved)
	assert.True(t, all.Upcoming[1].Saved)
}

func TestBucketEventsComputesEnd(t *testing.T) {
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	b := BucketEvents([]domain.Event{{ID: domain.NumberID(1), Date: "2024-06-02T10:00:00Z", Duration: 1.5}}, nil, now, false)
	require.Len(t, b.Upcoming, 1)
	assert.Equal(t, time.Date(2024, 6, 2, 11, 30, 0, 0, time.UTC), b.Upcoming[0].End.UTC())
}

func TestBucketEventsEmpty(t *testing.T) {
	b := BucketEvents(nil, nil, time.Now(), false)
	assert.NotNil(t, b.Upcoming)
	assert.NotNil(t, b.Other)
	assert.Empty(t, b.Upcoming)
	assert.Empty(t, b.Other)
}

func TestFindEvent(t *testing.T) {
	events := []domain.Event{
		{ID: domain.StringID("12"), Name: "string id"},
		{ID: domain.NumberID(13), Name: "number id"},
	}

	e, ok := FindEvent(events, domain.ParseItemID("12"))
	require.True(t, ok)
	assert.Equal(t, "string id", e.Name)

	e, ok = FindEvent(events, domain.ParseItemID("13"))
	require.True(t, ok)
	assert.Equal(t, "number id", e.Name)

	_, ok = FindEvent(events, domain.ParseItemID("14"))
	assert.False(t, ok)
	_, ok = FindEvent(events, domain.ItemID{})
	assert.False(t, ok)
}
