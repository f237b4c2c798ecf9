package campaign

import (
	"github.com/rs/zerolog/log"

	"github.com/freeeve/parliament/pkg/election"
)

// SeatAward records which alliance member won a seat and why.
type SeatAward struct {
	SeatCode      string             `json:"seat_code"`
	PartyID       string             `json:"party_id,omitempty"`
	AffiliationID string             `json:"affiliation_id,omitempty"`
	Score         float64            `json:"score"`
	Threshold     float64            `json:"threshold"`
	Bids          map[string]float64 `json:"bids,omitempty"` // party id -> best score
	Reason        string             `json:"reason"`
}

// bid is one member party's best offer for a seat.
type bid struct {
	party *election.Party
	best  pick
}

// DistributeSeats splits every seat between the members of an alliance so
// that at most one member contests each. Each member's strongest eligible
// candidate is scored against the same read-only snapshot first; the awards
// are then applied in a single pass. The highest viable bid wins; exact ties
// go to the incumbent party, then to the smallest party id.
//
// It returns fresh copies of the member parties, ordered by id. Unknown
// member ids are ignored.
func DistributeSeats(a *election.Alliance, snap *election.Snapshot, opts Options) []*election.Party {
	parties, _ := Negotiate(a, snap, opts)
	return parties
}

// Negotiate is DistributeSeats that also returns the per-seat awards.
func Negotiate(a *election.Alliance, snap *election.Snapshot, opts Options) ([]*election.Party, []SeatAward) {
	if a == nil {
		return nil, nil
	}
	var members []*election.Party
	for _, id := range sortedUnique(a.MemberPartyIDs) {
		if p := snap.Party(id); p != nil {
			members = append(members, p)
		}
	}
	if len(members) == 0 {
		return nil, nil
	}

	sc := election.AllianceContext(a, snap.ResolvedStrongholds(), opts.Weights)
	eligible := make([][]member, len(members))
	for i, p := range members {
		eligible[i] = eligibleMembers(snap, p)
	}

	// Score phase: read-only, one slot per seat.
	codes := snap.SeatCodes()
	bids := make([][]bid, len(codes))
	outside := make([]string, len(codes))
	forEachIndex(len(codes), opts.Workers, func(i int) {
		code := codes[i]
		if other := outsideClaimant(snap, code, sc.Friendly); other != "" {
			outside[i] = other
			return
		}
		demo := snap.DemographicsOf(code)
		row := make([]bid, 0, len(members))
		for j, p := range members {
			if !seatFitsFocus(p, demo, opts.Weights) {
				continue
			}
			best := bestFor(snap, code, eligible[j], sc, p.ContestedSeats[code].CandidateID, "")
			if best.valid() {
				row = append(row, bid{party: p, best: best})
			}
		}
		bids[i] = row
	})

	// Award phase: single pass over the complete bid table.
	result := make(map[string]*election.Party, len(members))
	for _, p := range members {
		cp := p.Clone()
		cp.ContestedSeats = make(election.ContestedSeats)
		result[p.ID] = cp
	}
	awards := make([]SeatAward, len(codes))
	for i, code := range codes {
		award := SeatAward{SeatCode: code}
		if outside[i] != "" {
			award.Reason = ReasonClaimed
			awards[i] = award
			continue
		}
		winner, threshold := pickWinner(code, bids[i], sc)
		award.Threshold = threshold
		if len(bids[i]) > 0 {
			award.Bids = make(map[string]float64, len(bids[i]))
			for _, b := range bids[i] {
				award.Bids[b.party.ID] = b.best.score
			}
		}
		switch {
		case len(bids[i]) == 0:
			award.Reason = ReasonNoMembers
		case winner == nil:
			award.Reason = ReasonBelowThreshold
		default:
			award.Reason = ReasonContest
			award.PartyID = winner.party.ID
			award.AffiliationID = winner.best.affiliationID()
			award.Score = winner.best.score
			result[winner.party.ID].ContestedSeats[code] = election.ContestEntry{
				AllocatedAffiliationID: award.AffiliationID,
			}
		}
		awards[i] = award
	}

	out := make([]*election.Party, 0, len(members))
	for _, p := range members {
		out = append(out, result[p.ID])
		log.Debug().
			Str("allianceId", a.ID).
			Str("partyId", p.ID).
			Int("before", len(p.ContestedSeats)).
			Int("after", len(result[p.ID].ContestedSeats)).
			Msg("Distributed alliance seats")
	}
	return out, awards
}

// pickWinner returns the winning viable bid for a seat (nil if none) and the
// threshold it had to meet.
func pickWinner(code string, bids []bid, sc election.ScoreContext) (*bid, float64) {
	threshold := sc.Threshold(code, nil)
	var winner *bid
	for i := range bids {
		b := &bids[i]
		if b.best.score < sc.Threshold(code, b.best.aff) {
			continue
		}
		if winner == nil || outbids(sc.Strongholds, code, b, winner) {
			winner = b
		}
	}
	if winner != nil {
		threshold = sc.Threshold(code, winner.best.aff)
	}
	return winner, threshold
}

// outbids reports whether a beats b for the seat.
func outbids(strongholds election.StrongholdMap, code string, a, b *bid) bool {
	if a.best.score != b.best.score {
		return a.best.score > b.best.score
	}
	ai, bi := incumbent(strongholds, code, a.party), incumbent(strongholds, code, b.party)
	if ai != bi {
		return ai
	}
	return a.party.ID < b.party.ID
}

// incumbent reports whether the party already holds the seat, either as a
// current claim or as the seat's stronghold owner.
func incumbent(strongholds election.StrongholdMap, code string, p *election.Party) bool {
	if p.Claims(code) {
		return true
	}
	sh, ok := strongholds[code]
	return ok && sh.PartyID == p.ID
}
