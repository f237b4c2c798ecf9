package handler

import (
	"net/http"
	"strconv"

	"github.com/freeeve/parliament/pkg/election"
)

type ideologyResponse struct {
	Ideology election.Ideology      `json:"ideology"`
	Label    election.IdeologyLabel `json:"label"`
}

// ClassifyIdeology handles GET /api/v1/ideology/classify?economic=&governance=
func ClassifyIdeology(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	econ, err := strconv.ParseFloat(q.Get("economic"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "economic must be a number")
		return
	}
	gov, err := strconv.ParseFloat(q.Get("governance"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "governance must be a number")
		return
	}
	i := election.NewIdeology(econ, gov)
	writeJSON(w, http.StatusOK, ideologyResponse{Ideology: i, Label: i.Label()})
}

// AggregateIdeology handles POST /api/v1/ideology/aggregate
func AggregateIdeology(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Ideologies []election.Ideology `json:"ideologies"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	i := election.Aggregate(req.Ideologies)
	writeJSON(w, http.StatusOK, ideologyResponse{Ideology: i, Label: i.Label()})
}

// ListIdeologyLabels handles GET /api/v1/ideology/labels
func ListIdeologyLabels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, election.AllLabels())
}
