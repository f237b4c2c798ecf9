package handler

import (
	"net/http"

	"github.com/freeeve/parliament/internal/service"
)

// PlanHandler handles seat-plan drafting and commits.
type PlanHandler struct {
	svc *service.PlanService
}

// NewPlanHandler creates a PlanHandler.
func NewPlanHandler(svc *service.PlanService) *PlanHandler {
	return &PlanHandler{svc: svc}
}

// ProposePartyPlan handles POST /api/v1/elections/{id}/parties/{partyId}/plan
func (h *PlanHandler) ProposePartyPlan(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.ProposePartyPlan(r.Context(), actorFrom(r), r.PathValue("id"), r.PathValue("partyId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// ProposeAlliancePlan handles POST /api/v1/elections/{id}/alliances/{allianceId}/plan
func (h *PlanHandler) ProposeAlliancePlan(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.ProposeAlliancePlan(r.Context(), actorFrom(r), r.PathValue("id"), r.PathValue("allianceId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// ProposeCandidates handles POST /api/v1/elections/{id}/parties/{partyId}/candidates
func (h *PlanHandler) ProposeCandidates(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.ProposeCandidates(r.Context(), actorFrom(r), r.PathValue("id"), r.PathValue("partyId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// GetDraft handles GET /api/v1/elections/{id}/drafts/{draftId}
func (h *PlanHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.GetDraft(r.Context(), actorFrom(r), r.PathValue("id"), r.PathValue("draftId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// CommitDraft handles POST /api/v1/elections/{id}/drafts/{draftId}/commit
func (h *PlanHandler) CommitDraft(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.CommitDraft(r.Context(), actorFrom(r), r.PathValue("id"), r.PathValue("draftId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ListPlans handles GET /api/v1/elections/{id}/plans
func (h *PlanHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.History(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if records == nil {
		writeJSON(w, http.StatusOK, []struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// SeatInfluence handles GET /api/v1/elections/{id}/parties/{partyId}/seats/{seatCode}/influence
func (h *PlanHandler) SeatInfluence(w http.ResponseWriter, r *http.Request) {
	si, err := h.svc.SeatInfluence(r.Context(), actorFrom(r), r.PathValue("id"), r.PathValue("partyId"), r.PathValue("seatCode"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, si)
}
