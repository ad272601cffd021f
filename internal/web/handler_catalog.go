package web

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/wastebuster/wastebuster/internal/domain"
	"github.com/wastebuster/wastebuster/internal/pipeline"
)

func (s *Server) handleListIdeas(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ideas := s.service.ListIdeas(pipeline.Criteria{
		Category:   q.Get("category"),
		SearchText: q.Get("q"),
	})
	s.writeJSON(w, http.StatusOK, map[string]any{
		"categories": pipeline.IdeaCategories(),
		"ideas":      ideas,
	})
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	likedOnly := false
	if v := r.URL.Query().Get("liked"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			s.badRequest(w, r, "invalid liked flag")
			return
		}
		likedOnly = b
	}
	s.writeJSON(w, http.StatusOK, s.service.ListEvents(likedOnly))
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id := parseID(r)
	if id.IsZero() {
		s.badRequest(w, r, "invalid event id")
		return
	}
	event, err := s.service.GetEvent(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, event)
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	types, err := parseKeywords(q["type"])
	if err != nil {
		s.badRequest(w, r, err.Error())
		return
	}
	pos, err := parsePosition(q.Get("lat"), q.Get("lon"))
	if err != nil {
		s.logger.Debug("ignoring location, using default region",
			"request_id", requestID(r.Context()), "error", err)
	}

	view := s.service.MapView(q.Get("category"), pipeline.MarkerFilter{
		Query: q.Get("q"),
		Types: types,
	}, pos)
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleSearchCategories(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.service.SearchCategories(r.URL.Query().Get("q")))
}

// parseID reads the {id} path value. A route parameter cannot say whether
// the ID was a string or a number, so numeric-looking values parse as numbers.
func parseID(r *http.Request) domain.ItemID {
	return domain.ParseItemID(strings.TrimSpace(r.PathValue("id")))
}

// parseKeywords accepts repeated or comma-separated type parameters.
func parseKeywords(values []string) ([]domain.Keyword, error) {
	var out []domain.Keyword
	for _, v := range values {
		for _, name := range strings.Split(v, ",") {
			if strings.TrimSpace(name) == "" {
				continue
			}
			kw := domain.ParseKeyword(name)
			if kw == domain.KeywordUnknown {
				return nil, fmt.Errorf("unknown place type %q", name)
			}
			out = append(out, kw)
		}
	}
	return out, nil
}

// parsePosition returns nil when no usable location was sent. The error only
// says why a half-specified or unparsable location was dropped; the map then
// uses the default region. Out-of-range values are handled downstream.
func parsePosition(lat, lon string) (*pipeline.Position, error) {
	if lat == "" && lon == "" {
		return nil, nil
	}
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid lat %q", lat)
	}
	lo, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid lon %q", lon)
	}
	return &pipeline.Position{Latitude: la, Longitude: lo}, nil
}
