package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wastebuster/wastebuster/internal/domain"
	"github.com/wastebuster/wastebuster/internal/pipeline"
)

type ListIdeasInput struct {
	Category string `json:"category,omitempty" jsonschema:"Saved, All, Videos or Articles"`
	Query    string `json:"query,omitempty" jsonschema:"text to find in the name or description"`
}

type ListEventsInput struct {
	LikedOnly bool `json:"liked_only,omitempty" jsonschema:"only return liked events"`
}

type FindPlacesInput struct {
	Category  string   `json:"category,omitempty" jsonschema:"material category such as Furniture"`
	Query     string   `json:"query,omitempty" jsonschema:"text to find in the organization or type"`
	Types     []string `json:"types,omitempty" jsonschema:"place types to keep, such as repair or borrow"`
	Latitude  *float64 `json:"latitude,omitempty" jsonschema:"user latitude"`
	Longitude *float64 `json:"longitude,omitempty" jsonschema:"user longitude"`
}

type SearchCategoriesInput struct {
	Query string `json:"query,omitempty" jsonschema:"item or category name"`
}

type ToggleSavedInput struct {
	Collection string `json:"collection" jsonschema:"events or ideas"`
	ID         string `json:"id" jsonschema:"item id"`
	AsString   bool   `json:"as_string,omitempty" jsonschema:"treat a numeric-looking id as a string id"`
}

type IdeaOutput struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Image       string `json:"image"`
	URL         string `json:"url"`
	Saved       bool   `json:"saved"`
}

type ListIdeasOutput struct {
	Ideas []IdeaOutput `json:"ideas"`
}

type EventOutput struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Start        string  `json:"start"`
	DurationHrs  float64 `json:"duration_hours"`
	DaysAway     int     `json:"days_away"`
	Organization string  `json:"organization"`
	Location     string  `json:"location"`
	Address      string  `json:"address"`
	URL          string  `json:"url"`
	Liked        bool    `json:"liked"`
}

type ListEventsOutput struct {
	Upcoming []EventOutput `json:"upcoming"`
	Other    []EventOutput `json:"other"`
}

type PlaceOutput struct {
	Organization string  `json:"organization"`
	Type         string  `json:"type"`
	Address      string  `json:"address"`
	PhoneNumber  string  `json:"phone_number"`
	Website      string  `json:"website"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}

type FindPlacesOutput struct {
	CenterLatitude  float64       `json:"center_latitude"`
	CenterLongitude float64       `json:"center_longitude"`
	Places          []PlaceOutput `json:"places"`
}

type CategoryOutput struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Associated  []string `json:"associated"`
	Description string   `json:"description"`
}

type SearchCategoriesOutput struct {
	Categories []CategoryOutput `json:"categories"`
}

type ToggleSavedOutput struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
	Saved      bool   `json:"saved"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_ideas",
		Description: "List upcycling ideas by category and search text",
	}, s.handleListIdeas)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_events",
		Description: "List upcoming community events, soonest first",
	}, s.handleListEvents)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "find_places",
		Description: "Find places that accept, repair or resell items in a category",
	}, s.handleFindPlaces)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "search_categories",
		Description: "Find the material category for an item",
	}, s.handleSearchCategories)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "toggle_saved",
		Description: "Like or unlike an event, or save or unsave an idea",
	}, s.handleToggleSaved)
}

func (s *Server) handleListIdeas(ctx context.Context, req *sdk.CallToolRequest, input ListIdeasInput) (*sdk.CallToolResult, ListIdeasOutput, error) {
	cards := s.catalog.ListIdeas(pipeline.Criteria{Category: input.Category, SearchText: input.Query})
	output := make([]IdeaOutput, 0, len(cards))
	for _, c := range cards {
		output = append(output, IdeaOutput{
			ID:          c.ID.String(),
			Name:        c.Name,
			Category:    c.Category,
			Description: c.DisplayDescription,
			Image:       c.DisplayImage,
			URL:         c.DisplayURL,
			Saved:       c.Saved,
		})
	}
	return nil, ListIdeasOutput{Ideas: output}, nil
}

func (s *Server) handleListEvents(ctx context.Context, req *sdk.CallToolRequest, input ListEventsInput) (*sdk.CallToolResult, ListEventsOutput, error) {
	b := s.catalog.ListEvents(input.LikedOnly)
	return nil, ListEventsOutput{
		Upcoming: eventOutputs(b.Upcoming),
		Other:    eventOutputs(b.Other),
	}, nil
}

func eventOutputs(events []pipeline.ScheduledEvent) []EventOutput {
	out := make([]EventOutput, 0, len(events))
	for _, e := range events {
		out = append(out, EventOutput{
			ID:           e.ID.String(),
			Name:         e.Name,
			Start:        e.Start.Format(time.RFC3339),
			DurationHrs:  e.Duration,
			DaysAway:     e.DayOffset,
			Organization: e.Organization,
			Location:     e.Location,
			Address:      e.Address,
			URL:          e.URL,
			Liked:        e.Saved,
		})
	}
	return out
}

func (s *Server) handleFindPlaces(ctx context.Context, req *sdk.CallToolRequest, input FindPlacesInput) (*sdk.CallToolResult, FindPlacesOutput, error) {
	types := make([]domain.Keyword, 0, len(input.Types))
	for _, t := range input.Types {
		kw := domain.ParseKeyword(t)
		if kw == domain.KeywordUnknown {
			return nil, FindPlacesOutput{}, fmt.Errorf("unknown place type %q", t)
		}
		types = append(types, kw)
	}

	var pos *pipeline.Position
	if input.Latitude != nil && input.Longitude != nil {
		pos = &pipeline.Position{Latitude: *input.Latitude, Longitude: *input.Longitude}
	}

	view := s.catalog.MapView(input.Category, pipeline.MarkerFilter{Query: input.Query, Types: types}, pos)
	places := make([]PlaceOutput, 0, len(view.Markers))
	for _, m := range view.Markers {
		if !m.Visible {
			continue
		}
		places = append(places, PlaceOutput{
			Organization: m.Place.Organization,
			Type:         m.Place.Type,
			Address:      m.Place.DisplayAddress(),
			PhoneNumber:  m.Place.PhoneNumber,
			Website:      m.Place.Website,
			Latitude:     m.Latitude,
			Longitude:    m.Longitude,
		})
	}
	return nil, FindPlacesOutput{
		CenterLatitude:  view.Region.Latitude,
		CenterLongitude: view.Region.Longitude,
		Places:          places,
	}, nil
}

func (s *Server) handleSearchCategories(ctx context.Context, req *sdk.CallToolRequest, input SearchCategoriesInput) (*sdk.CallToolResult, SearchCategoriesOutput, error) {
	cards := s.catalog.SearchCategories(input.Query)
	output := make([]CategoryOutput, 0, len(cards))
	for _, c := range cards {
		associated := c.Associated
		if associated == nil {
			associated = []string{}
		}
		output = append(output, CategoryOutput{
			ID:          c.ID.String(),
			Name:        c.Name,
			Associated:  associated,
			Description: c.Description,
		})
	}
	return nil, SearchCategoriesOutput{Categories: output}, nil
}

func (s *Server) handleToggleSaved(ctx context.Context, req *sdk.CallToolRequest, input ToggleSavedInput) (*sdk.CallToolResult, ToggleSavedOutput, error) {
	raw := strings.TrimSpace(input.ID)
	if raw == "" {
		return nil, ToggleSavedOutput{}, fmt.Errorf("id is required")
	}
	id := domain.ParseItemID(raw)
	if input.AsString {
		id = domain.StringID(raw)
	}

	saved, err := s.catalog.ToggleSaved(ctx, input.Collection, id)
	if err != nil {
		return nil, ToggleSavedOutput{}, err
	}
	return nil, ToggleSavedOutput{Collection: input.Collection, ID: id.String(), Saved: saved}, nil
}
