package campaign

import (
	"github.com/rs/zerolog/log"

	"github.com/freeeve/parliament/pkg/election"
)

// Reasons reported by SeatEvaluation.
const (
	ReasonContest        = "contest"
	ReasonNoMembers      = "no_eligible_members"
	ReasonBelowThreshold = "below_threshold"
	ReasonOutsideFocus   = "outside_focus"
	ReasonClaimed        = "claimed_elsewhere"
)

// SeatEvaluation explains the planner's decision for one seat.
type SeatEvaluation struct {
	SeatCode      string  `json:"seat_code"`
	Contest       bool    `json:"contest"`
	Reason        string  `json:"reason"`
	BestMemberID  string  `json:"best_member_id,omitempty"`
	AffiliationID string  `json:"affiliation_id,omitempty"`
	Score         float64 `json:"score"`
	Threshold     float64 `json:"threshold"`
	Standing      string  `json:"standing"`
	ClaimedBy     string  `json:"claimed_by,omitempty"`
}

// EvaluateSeats scores the party's best member in every seat of the
// snapshot and decides, per seat, whether the party should contest it.
// Results are ordered by seat code.
func EvaluateSeats(p *election.Party, snap *election.Snapshot, opts Options) []SeatEvaluation {
	codes := snap.SeatCodes()
	evals := make([]SeatEvaluation, len(codes))
	if p == nil {
		for i, code := range codes {
			evals[i] = SeatEvaluation{SeatCode: code, Reason: ReasonNoMembers}
		}
		return evals
	}

	members := eligibleMembers(snap, p)
	sc := election.PartyContext(p, snap.ResolvedStrongholds(), opts.Weights)

	forEachIndex(len(codes), opts.Workers, func(i int) {
		evals[i] = evaluateSeat(p, snap, codes[i], members, sc, opts.Weights)
	})
	return evals
}

func evaluateSeat(p *election.Party, snap *election.Snapshot, code string, members []member, sc election.ScoreContext, w election.Weights) SeatEvaluation {
	ev := SeatEvaluation{
		SeatCode: code,
		Standing: sc.Strongholds.Standing(code, nil, sc.Friendly).String(),
	}
	if other := outsideClaimant(snap, code, sc.Friendly); other != "" {
		ev.Reason = ReasonClaimed
		ev.ClaimedBy = other
		return ev
	}
	if !seatFitsFocus(p, snap.DemographicsOf(code), w) {
		ev.Reason = ReasonOutsideFocus
		return ev
	}

	best := bestFor(snap, code, members, sc, p.ContestedSeats[code].CandidateID, "")
	if !best.valid() {
		ev.Reason = ReasonNoMembers
		return ev
	}
	ev.BestMemberID = best.c.ID
	ev.AffiliationID = best.affiliationID()
	ev.Score = best.score
	ev.Standing = sc.Strongholds.Standing(code, best.aff, sc.Friendly).String()
	ev.Threshold = sc.Threshold(code, best.aff)
	if best.score < ev.Threshold {
		ev.Reason = ReasonBelowThreshold
		return ev
	}
	ev.Contest = true
	ev.Reason = ReasonContest
	return ev
}

// PlanContests decides which seats a party contests on its own. It returns
// a copy of the party whose ContestedSeats is fully replaced: every viable
// seat is allocated to the affiliation of the party's strongest member there,
// with no candidate yet. The input party is not modified.
func PlanContests(p *election.Party, snap *election.Snapshot, opts Options) *election.Party {
	if p == nil {
		return nil
	}
	out := p.Clone()
	out.ContestedSeats = make(election.ContestedSeats)
	for _, ev := range EvaluateSeats(p, snap, opts) {
		if !ev.Contest {
			continue
		}
		out.ContestedSeats[ev.SeatCode] = election.ContestEntry{AllocatedAffiliationID: ev.AffiliationID}
	}
	log.Debug().
		Str("partyId", p.ID).
		Int("seats", len(snap.Seats)).
		Int("contested", len(out.ContestedSeats)).
		Msg("Planned party contests")
	return out
}
