package pipeline

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/wastebuster/wastebuster/internal/domain"
)

// Marker is one map pin. Hidden markers stay in the list with Visible false
// so a client can keep them mounted.
type Marker struct {
	Place     domain.Place   `json:"place"`
	Latitude  float64        `json:"latitude"`
	Longitude float64        `json:"longitude"`
	Keyword   domain.Keyword `json:"keyword"`
	Icon      string         `json:"icon"`
	Colour    string         `json:"colour"`
	Visible   bool           `json:"visible"`
}

// MarkerFilter hides markers. An empty Types list means every type.
type MarkerFilter struct {
	Query string
	Types []domain.Keyword
}

type coordKey struct {
	lat, lon domain.Coordinate
}

// DedupMarkers keeps the first place at each exact (latitude, longitude)
// text pair, in input order, and drops places whose coordinates are not
// finite numbers. "43.20" and "43.2" are different keys.
func DedupMarkers(places []domain.Place) []Marker {
	seen := make(map[coordKey]struct{}, len(places))
	out := make([]Marker, 0, len(places))
	for _, p := range places {
		key := coordKey{p.Latitude, p.Longitude}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		lat, ok := parseCoordinate(p.Latitude)
		if !ok {
			continue
		}
		lon, ok := parseCoordinate(p.Longitude)
		if !ok {
			continue
		}
		kw := p.Keyword()
		out = append(out, Marker{
			Place:     p,
			Latitude:  lat,
			Longitude: lon,
			Keyword:   kw,
			Icon:      kw.Icon(),
			Colour:    kw.Colour(),
			Visible:   true,
		})
	}
	return out
}

func parseCoordinate(c domain.Coordinate) (float64, bool) {
	s := strings.TrimSpace(string(c))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ApplyMarkerFilter returns a copy of markers with Visible set: the query
// must occur in the organization or type (ignoring case) and the place's
// keyword must be among the checked types.
func ApplyMarkerFilter(markers []Marker, f MarkerFilter) []Marker {
	query := strings.TrimSpace(f.Query)
	out := make([]Marker, len(markers))
	for i, m := range markers {
		m.Visible = (containsFold(m.Place.Organization, query) || containsFold(m.Place.Type, query)) &&
			(len(f.Types) == 0 || slices.Contains(f.Types, m.Keyword))
		out[i] = m
	}
	return out
}

// PlacesInCategory keeps places filed under category, ignoring case and
// surrounding whitespace.
func PlacesInCategory(places []domain.Place, category string) []domain.Place {
	category = strings.TrimSpace(category)
	if category == "" || strings.EqualFold(category, CategoryAll) {
		return slices.Clone(places)
	}
	out := make([]domain.Place, 0)
	for _, p := range places {
		if strings.EqualFold(strings.TrimSpace(p.Category), category) {
			out = append(out, p)
		}
	}
	return out
}

// Region is a map viewport.
type Region struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	LatitudeDelta  float64 `json:"latitude_delta"`
	LongitudeDelta float64 `json:"longitude_delta"`
}

// DefaultRegion frames Hamilton, Ontario.
var DefaultRegion = Region{
	Latitude:       43.2557,
	Longitude:      -79.8711,
	LatitudeDelta:  0.175,
	LongitudeDelta: 0.175,
}

// Position is a device location. A nil *Position means permission was denied
// or no fix is available.
type Position struct {
	Latitude  float64
	Longitude float64
}

func (p *Position) valid() bool {
	return p != nil &&
		!math.IsNaN(p.Latitude) && !math.IsNaN(p.Longitude) &&
		p.Latitude >= -90 && p.Latitude <= 90 &&
		p.Longitude >= -180 && p.Longitude <= 180
}

// RegionFor centres the default viewport on the user when their position is
// known and falls back to the default region otherwise.
func RegionFor(pos *Position) Region {
	if !pos.valid() {
		return DefaultRegion
	}
	r := DefaultRegion
	r.Latitude = pos.Latitude
	r.Longitude = pos.Longitude
	return r
}
