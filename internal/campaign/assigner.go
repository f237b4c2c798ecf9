package campaign

import (
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/parliament/pkg/election"
)

// AllocatedSeat is a seat a party has decided to contest.
type AllocatedSeat struct {
	SeatCode      string
	PartyID       string
	AffiliationID string // allocated focus, "" for none
	CandidateID   string // candidate currently standing, "" for none
}

// AllocatedSeatsOf lists a party's contested seats ordered by seat code.
func AllocatedSeatsOf(p *election.Party) []AllocatedSeat {
	if p == nil {
		return nil
	}
	seats := make([]AllocatedSeat, 0, len(p.ContestedSeats))
	for _, code := range p.ContestedSeats.Codes() {
		e := p.ContestedSeats[code]
		seats = append(seats, AllocatedSeat{
			SeatCode:      code,
			PartyID:       p.ID,
			AffiliationID: e.AllocatedAffiliationID,
			CandidateID:   e.CandidateID,
		})
	}
	return seats
}

// pairing is one scored (member, seat) option.
type pairing struct {
	seat     string
	memberID string
	score    float64
}

// AssignCandidates picks at most one living member per seat and at most one
// seat per member, greedily by descending effective influence. Exact ties
// are broken by seat code, then member id. Seats left over when members run
// out are simply absent from the result.
func AssignCandidates(members []*election.Character, seats []AllocatedSeat, snap *election.Snapshot, opts Options) map[string]string {
	assigned := make(map[string]string)

	var living []*election.Character
	seen := make(map[string]bool)
	for _, c := range members {
		if c == nil || !c.IsAlive || seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		living = append(living, c)
	}
	var unique []AllocatedSeat
	seenSeat := make(map[string]bool)
	for _, s := range seats {
		if seenSeat[s.SeatCode] {
			continue
		}
		seenSeat[s.SeatCode] = true
		unique = append(unique, s)
	}
	if len(living) == 0 || len(unique) == 0 {
		return assigned
	}

	// Affiliations are resolved per seat party before the fan-out so the
	// workers only read.
	strongholds := snap.ResolvedStrongholds()
	affs := make(map[string][]*election.Affiliation)
	for _, s := range unique {
		if _, ok := affs[s.PartyID]; ok {
			continue
		}
		row := make([]*election.Affiliation, len(living))
		for j, c := range living {
			row[j] = memberAffiliation(snap, s.PartyID, c)
		}
		affs[s.PartyID] = row
	}

	rows := make([][]pairing, len(unique))
	forEachIndex(len(unique), opts.Workers, func(i int) {
		s := unique[i]
		sc := election.ScoreContext{
			Friendly:    map[string]bool{s.PartyID: true},
			Strongholds: strongholds,
			Weights:     opts.Weights,
		}
		seat := snap.Seat(s.SeatCode)
		demo := snap.DemographicsOf(s.SeatCode)
		row := make([]pairing, len(living))
		for j, c := range living {
			row[j] = pairing{
				seat:     s.SeatCode,
				memberID: c.ID,
				score:    election.EffectiveInfluence(c, affs[s.PartyID][j], seat, demo, sc, s.CandidateID, s.AffiliationID),
			}
		}
		rows[i] = row
	})

	var pairs []pairing
	for _, row := range rows {
		pairs = append(pairs, row...)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].score != pairs[j].score {
			return pairs[i].score > pairs[j].score
		}
		if pairs[i].seat != pairs[j].seat {
			return pairs[i].seat < pairs[j].seat
		}
		return pairs[i].memberID < pairs[j].memberID
	})

	used := make(map[string]bool)
	for _, pr := range pairs {
		if len(assigned) == len(unique) || len(used) == len(living) {
			break
		}
		if _, ok := assigned[pr.seat]; ok || used[pr.memberID] {
			continue
		}
		assigned[pr.seat] = pr.memberID
		used[pr.memberID] = true
	}
	return assigned
}

// memberAffiliation resolves the affiliation a character stands for in the
// party, from the party's affiliation rosters. Without a known party the
// character's back reference is used, and only when the roster agrees.
func memberAffiliation(snap *election.Snapshot, partyID string, c *election.Character) *election.Affiliation {
	if p := snap.Party(partyID); p != nil {
		return snap.AffiliationOf(p, c.ID)
	}
	a := snap.Affiliation(c.AffiliationID)
	if a == nil {
		return nil
	}
	for _, id := range a.MemberIDs {
		if id == c.ID {
			return a
		}
	}
	return nil
}

// AutoSelect fills every contested seat of the party with a candidate.
// Seats allocated to an affiliation draw from that affiliation's living
// members, one affiliation at a time in id order; seats without a focus then
// draw from any party member not already standing. Seats that cannot be
// filled are left without a candidate. The input party is not modified.
func AutoSelect(p *election.Party, snap *election.Snapshot, opts Options) *election.Party {
	if p == nil {
		return nil
	}
	out := p.Clone()

	groups := make(map[string][]AllocatedSeat)
	for _, s := range AllocatedSeatsOf(p) {
		groups[s.AffiliationID] = append(groups[s.AffiliationID], s)
	}
	focus := make([]string, 0, len(groups))
	for affID := range groups {
		if affID != "" {
			focus = append(focus, affID)
		}
	}
	sort.Strings(focus)

	used := make(map[string]bool)
	chosen := make(map[string]string)
	assign := func(pool []*election.Character, seats []AllocatedSeat) {
		var free []*election.Character
		for _, c := range pool {
			if !used[c.ID] {
				free = append(free, c)
			}
		}
		for code, id := range AssignCandidates(free, seats, snap, opts) {
			chosen[code] = id
			used[id] = true
		}
	}
	for _, affID := range focus {
		assign(snap.AffiliationMembers(snap.Affiliation(affID)), groups[affID])
	}
	if seats := groups[""]; len(seats) > 0 {
		assign(snap.MembersOf(p), seats)
	}

	for code, entry := range out.ContestedSeats {
		entry.CandidateID = chosen[code]
		out.ContestedSeats[code] = entry
	}
	log.Debug().
		Str("partyId", p.ID).
		Int("seats", len(out.ContestedSeats)).
		Int("filled", len(chosen)).
		Msg("Auto-selected candidates")
	return out
}

// InvalidCandidates returns the seat codes whose candidate is not a living
// member of the allocated affiliation (or of the party, without a focus),
// or who already stands in an earlier seat.
func InvalidCandidates(p *election.Party, snap *election.Snapshot) []string {
	if p == nil {
		return nil
	}
	var bad []string
	standing := make(map[string]bool)
	for _, code := range p.ContestedSeats.Codes() {
		e := p.ContestedSeats[code]
		if e.CandidateID == "" {
			continue
		}
		if standing[e.CandidateID] {
			bad = append(bad, code)
			continue
		}
		var pool []*election.Character
		if e.AllocatedAffiliationID != "" {
			pool = snap.AffiliationMembers(snap.Affiliation(e.AllocatedAffiliationID))
		} else {
			pool = snap.MembersOf(p)
		}
		ok := false
		for _, c := range pool {
			if c.ID == e.CandidateID {
				ok = true
				break
			}
		}
		if !ok {
			bad = append(bad, code)
			continue
		}
		standing[e.CandidateID] = true
	}
	return bad
}
