package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wastebuster/wastebuster/internal/dataset"
	"github.com/wastebuster/wastebuster/internal/domain"
)

const maxSavedBodySize = 1 << 20

type savedRequest struct {
	ID domain.ItemID `json:"id"`
}

type savedResponse struct {
	ID    domain.ItemID `json:"id"`
	Saved bool          `json:"saved"`
}

func (s *Server) handleListSaved(w http.ResponseWriter, r *http.Request) {
	ids, err := s.service.SavedIDs(r.PathValue("collection"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"ids": ids})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	s.applySaved(w, r, func(ctx context.Context, collection string, id domain.ItemID) (bool, error) {
		return true, s.service.SaveItem(ctx, collection, id)
	})
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	s.applySaved(w, r, func(ctx context.Context, collection string, id domain.ItemID) (bool, error) {
		return false, s.service.RemoveItem(ctx, collection, id)
	})
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	s.applySaved(w, r, s.service.ToggleSaved)
}

func (s *Server) applySaved(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, collection string, id domain.ItemID) (bool, error),
) {
	var req savedRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSavedBodySize))
	if err := dec.Decode(&req); err != nil {
		s.badRequest(w, r, "invalid request body")
		return
	}
	if req.ID.IsZero() {
		s.writeError(w, r, domain.ErrInvalidID)
		return
	}

	saved, err := op(r.Context(), r.PathValue("collection"), req.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, savedResponse{ID: req.ID, Saved: saved})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")
	err := s.service.Refresh(r.Context(), collection)
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusOK, map[string]any{"collection": collection, "refreshed": true})
	case errors.Is(err, domain.ErrUnknownCollection), errors.Is(err, dataset.ErrSuperseded):
		s.writeError(w, r, err)
	default:
		// The previous snapshot is still being served.
		s.logger.Warn("refresh failed", "request_id", requestID(r.Context()), "collection", collection, "error", err)
		s.writeJSON(w, http.StatusBadGateway, errorResponse{Error: "refresh failed", RequestID: requestID(r.Context())})
	}
}
