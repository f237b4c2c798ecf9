package model

import (
	"encoding/json"
	"time"

	"github.com/freeeve/parliament/internal/campaign"
	"github.com/freeeve/parliament/pkg/election"
)

// User represents a player or game master account.
type User struct {
	ID          string    `json:"id"`
	Provider    string    `json:"provider"`
	ProviderID  string    `json:"provider_id"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Election is one running simulation whose seat plans the service manages.
type Election struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	CreatorID       string    `json:"creator_id"`
	SnapshotVersion int64     `json:"snapshot_version"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Plan kinds.
const (
	PlanParty      = "party"
	PlanAlliance   = "alliance"
	PlanCandidates = "candidates"
)

// PlanDraft is a computed plan awaiting commit. Parties holds the full
// replacement value of every party the plan touches.
type PlanDraft struct {
	ID          string                    `json:"id"`
	ElectionID  string                    `json:"election_id"`
	Kind        string                    `json:"kind"`
	SubjectID   string                    `json:"subject_id"` // party or alliance id
	BaseVersion int64                     `json:"base_version"`
	Parties     []*election.Party         `json:"parties"`
	Evaluations []campaign.SeatEvaluation `json:"evaluations,omitempty"`
	Awards      []campaign.SeatAward      `json:"awards,omitempty"`
	Unfilled    []string                  `json:"unfilled,omitempty"` // contested seats left without a candidate
	CreatedBy   string                    `json:"created_by"`
	CreatedAt   time.Time                 `json:"created_at"`
}

// PartyIDs returns the ids of the parties the draft replaces.
func (d *PlanDraft) PartyIDs() []string {
	ids := make([]string, 0, len(d.Parties))
	for _, p := range d.Parties {
		ids = append(ids, p.ID)
	}
	return ids
}

// PlanRecord is the committed history entry of a draft.
type PlanRecord struct {
	ID          string          `json:"id"`
	ElectionID  string          `json:"election_id"`
	DraftID     string          `json:"draft_id"`
	Kind        string          `json:"kind"`
	SubjectID   string          `json:"subject_id"`
	Version     int64           `json:"version"` // snapshot version produced by the commit
	Parties     json.RawMessage `json:"parties"`
	CommittedBy string          `json:"committed_by"`
	CommittedAt time.Time       `json:"committed_at"`
}
