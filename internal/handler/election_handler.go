package handler

import (
	"net/http"

	"github.com/freeeve/parliament/internal/service"
	"github.com/freeeve/parliament/pkg/election"
)

// ElectionHandler handles election and snapshot endpoints.
type ElectionHandler struct {
	svc *service.ElectionService
}

// NewElectionHandler creates an ElectionHandler.
func NewElectionHandler(svc *service.ElectionService) *ElectionHandler {
	return &ElectionHandler{svc: svc}
}

// CreateElection handles POST /api/v1/elections
func (h *ElectionHandler) CreateElection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string             `json:"name"`
		Snapshot *election.Snapshot `json:"snapshot,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	e, err := h.svc.CreateElection(r.Context(), actorFrom(r), req.Name, req.Snapshot)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// ListElections handles GET /api/v1/elections
func (h *ElectionHandler) ListElections(w http.ResponseWriter, r *http.Request) {
	elections, err := h.svc.ListElections(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if elections == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, elections)
}

// GetElection handles GET /api/v1/elections/{id}
func (h *ElectionHandler) GetElection(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.GetElection(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// GetSnapshot handles GET /api/v1/elections/{id}/snapshot
func (h *ElectionHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.GetSnapshot(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// ReplaceSnapshot handles PUT /api/v1/elections/{id}/snapshot
func (h *ElectionHandler) ReplaceSnapshot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ExpectedVersion int64              `json:"expected_version"`
		Snapshot        *election.Snapshot `json:"snapshot"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Snapshot == nil {
		writeError(w, http.StatusBadRequest, "snapshot is required")
		return
	}

	snap, err := h.svc.ReplaceSnapshot(r.Context(), actorFrom(r), r.PathValue("id"), req.Snapshot, req.ExpectedVersion)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"version": snap.Version})
}
