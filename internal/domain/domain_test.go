package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemIDJSONKeepsType(t *testing.T) {
	var ids []ItemID
	require.NoError(t, json.Unmarshal([]byte(`[1, "1", "abc", 2.0, null]`), &ids))
	require.Len(t, ids, 5)

	assert.True(t, ids[0].IsNumeric())
	assert.False(t, ids[1].IsNumeric())
	assert.NotEqual(t, ids[0], ids[1], "string and number ids must differ")
	assert.Equal(t, StringID("abc"), ids[2])
	assert.Equal(t, NumberID(2), ids[3])
	assert.True(t, ids[4].IsZero())

	out, err := json.Marshal(ids[:4])
	require.NoError(t, err)
	assert.JSONEq(t, `[1, "1", "abc", 2]`, string(out))
}

func TestItemIDRejectsObjects(t *testing.T) {
	var id ItemID
	assert.Error(t, json.Unmarshal([]byte(`{"x":1}`), &id))
	assert.Error(t, json.Unmarshal([]byte(`true`), &id))
}

func TestParseItemID(t *testing.T) {
	assert.Equal(t, NumberID(3), ParseItemID("3"))
	assert.Equal(t, StringID("evt-3"), ParseItemID("evt-3"))
	assert.Equal(t, StringID("NaN"), ParseItemID("NaN"))
	assert.True(t, ParseItemID("").IsZero())
	assert.Equal(t, NumberID(-4), ParseItemID("-4"))
	assert.Equal(t, NumberID(0), ParseItemID("0"))
	assert.Equal(t, NumberID(3), ParseItemID("3.0"))
}

func TestParseItemIDKeepsNonCanonicalText(t *testing.T) {
	for _, s := range []string{"007", "1e3", "+5", "1.", ".5", "0x10", "Inf", " 3"} {
		t.Run(s, func(t *testing.T) {
			id := ParseItemID(s)
			assert.False(t, id.IsNumeric())
			assert.Equal(t, s, id.String())
		})
	}
}

func TestItemIDLooseEqual(t *testing.T) {
	assert.True(t, StringID("3").LooseEqual(NumberID(3)))
	assert.False(t, StringID("3").LooseEqual(NumberID(4)))
	assert.False(t, ItemID{}.LooseEqual(ItemID{}))
}

func TestIDSet(t *testing.T) {
	set := NewIDSet(NumberID(1), StringID("b"))
	assert.True(t, set.Has(NumberID(1)))
	assert.False(t, set.Has(StringID("1")))
	assert.True(t, set.Has(StringID("b")))

	var empty IDSet
	assert.False(t, empty.Has(NumberID(1)))
}

func TestCoordinateAcceptsStringsAndNumbers(t *testing.T) {
	var p Place
	require.NoError(t, json.Unmarshal([]byte(`{"latitude":"43.25","longitude":-79.87}`), &p))
	assert.Equal(t, Coordinate("43.25"), p.Latitude)
	assert.Equal(t, Coordinate("-79.87"), p.Longitude)
}

func TestParseKeyword(t *testing.T) {
	tests := []struct {
		in   string
		want Keyword
	}{
		{"reuse", KeywordReuse},
		{"Recycle", KeywordRecycle},
		{"  BORROW ", KeywordBorrow},
		{"remanufacture", KeywordRemanufacture},
		{"compost", KeywordUnknown},
		{"", KeywordUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseKeyword(tt.in))
		})
	}
}

func TestKeywordMappingIsTotal(t *testing.T) {
	all := append(Keywords(), KeywordUnknown, Keyword(99), Keyword(-1))
	for _, k := range all {
		assert.NotEmpty(t, k.Icon(), "icon for %d", int(k))
		assert.NotEmpty(t, k.Colour(), "colour for %d", int(k))
		assert.NotEmpty(t, k.String())
	}
	assert.Len(t, Keywords(), 10)
	assert.Equal(t, "#FF5733", KeywordReuse.Colour())
}

func TestKeywordText(t *testing.T) {
	out, err := json.Marshal(map[string]Keyword{"type": KeywordRefill})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"refill"}`, string(out))

	var k Keyword
	require.NoError(t, k.UnmarshalText([]byte("Repair")))
	assert.Equal(t, KeywordRepair, k)
}

func TestEventStartTime(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)

	tests := []struct {
		name string
		date string
		want time.Time
	}{
		{"rfc3339", "2024-06-01T14:00:00Z", time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC)},
		{"local datetime", "2024-06-01T09:30:00", time.Date(2024, 6, 1, 9, 30, 0, 0, loc)},
		{"date only", "2024-06-01", time.Date(2024, 6, 1, 0, 0, 0, 0, loc)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Event{Date: tt.date}.StartTime(loc)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}

	_, err := Event{Date: "next tuesday"}.StartTime(loc)
	assert.Error(t, err)
	_, err = Event{}.StartTime(loc)
	assert.Error(t, err)
}

func TestEventEndTime(t *testing.T) {
	e := Event{Date: "2024-06-01T10:00:00", Duration: 2.5}
	end, err := e.EndTime(time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC), end)
}

func TestIdeaDisplayImage(t *testing.T) {
	video := Idea{Category: "Videos", URL: "https://www.youtube.com/watch?v=abc123&t=10"}
	assert.Equal(t, "https://img.youtube.com/vi/abc123/0.jpg", video.DisplayImage())

	short := Idea{Category: "videos", URL: "https://youtu.be/xyz"}
	assert.Equal(t, "https://img.youtube.com/vi/xyz/0.jpg", short.DisplayImage())

	article := Idea{Category: "Articles", Image: "https://example.com/a.png"}
	assert.Equal(t, "https://example.com/a.png", article.DisplayImage())

	assert.Equal(t, PlaceholderImage, Idea{Category: "Articles"}.DisplayImage())
	assert.Equal(t, PlaceholderImage, Idea{Category: "Videos", URL: "https://example.com"}.DisplayImage())
}

func TestDisplayDefaults(t *testing.T) {
	assert.Equal(t, PlaceholderDescription, Event{}.DisplayDescription())
	assert.Equal(t, PlaceholderURL, Event{URL: "  "}.DisplayURL())
	assert.Equal(t, "x", Idea{Description: "x"}.DisplayDescription())
}

func TestPlaceDisplayAddress(t *testing.T) {
	p := Place{Address: "123  Main St W,\n Hamilton, L8P 4R5"}
	assert.Equal(t, "123 Main St W, Hamilton,", p.DisplayAddress())
	assert.Equal(t, "short", Place{Address: "short"}.DisplayAddress())
}

func TestCategoryImage(t *testing.T) {
	assert.Equal(t, "category_images/hazardousmaterials.png", CategoryImage("Hazardous Materials"))
	assert.Equal(t, "category_images/ecofriendly.png", CategoryImage("Eco Friendly"))
	assert.Equal(t, PlaceholderImage, CategoryImage("Spaceships"))
	assert.Equal(t, "custom.png", Category{Name: "Toys", Image: "custom.png"}.DisplayImage())
}
