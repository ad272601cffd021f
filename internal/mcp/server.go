package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wastebuster/wastebuster/internal/domain"
	"github.com/wastebuster/wastebuster/internal/pipeline"
	"github.com/wastebuster/wastebuster/internal/service"
)

// catalog is the subset of service.CatalogService the tools use.
type catalog interface {
	ListIdeas(criteria pipeline.Criteria) []service.IdeaCard
	ListEvents(likedOnly bool) pipeline.EventBuckets
	MapView(category string, filter pipeline.MarkerFilter, pos *pipeline.Position) service.MapView
	SearchCategories(query string) []service.CategoryCard
	ToggleSaved(ctx context.Context, collection string, id domain.ItemID) (bool, error)
}

type Server struct {
	catalog catalog
	mcp     *sdk.Server
}

func NewServer(c catalog, version string) *Server {
	s := &Server{
		catalog: c,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "wastebuster",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
