package campaign

import (
	"fmt"

	"github.com/freeeve/parliament/pkg/election"
)

// worldBuilder assembles snapshots for tests.
type worldBuilder struct {
	s *election.Snapshot
}

func newWorld() *worldBuilder {
	return &worldBuilder{s: election.NewSnapshot()}
}

func (b *worldBuilder) seat(code string, shares map[string]float64) *worldBuilder {
	b.s.Seats[code] = &election.Seat{Code: code, Name: "Seat " + code}
	if shares == nil {
		shares = map[string]float64{}
	}
	b.s.Demographics[code] = &election.Demographics{Ethnicity: shares, Area: "rural"}
	return b
}

func (b *worldBuilder) stronghold(code, partyID, affID string, strength float64) *worldBuilder {
	b.s.Strongholds[code] = election.Stronghold{PartyID: partyID, AffiliationID: affID, Strength: strength}
	return b
}

func (b *worldBuilder) party(id string, affIDs ...string) *worldBuilder {
	b.s.Parties[id] = &election.Party{ID: id, Name: "Party " + id, AffiliationIDs: affIDs, ContestedSeats: election.ContestedSeats{}}
	return b
}

func (b *worldBuilder) affiliation(id, partyID, ethnicity string) *worldBuilder {
	b.s.Affiliations[id] = &election.Affiliation{ID: id, Name: "Aff " + id, PartyID: partyID, Ethnicity: ethnicity}
	return b
}

func (b *worldBuilder) member(id, affID string, influence float64) *worldBuilder {
	aff := b.s.Affiliations[affID]
	b.s.Characters[id] = &election.Character{
		ID:            id,
		Name:          "Member " + id,
		Influence:     influence,
		IsAlive:       true,
		PartyID:       aff.PartyID,
		AffiliationID: affID,
	}
	aff.MemberIDs = append(aff.MemberIDs, id)
	return b
}

func (b *worldBuilder) dead(id string) *worldBuilder {
	b.s.Characters[id].IsAlive = false
	return b
}

func (b *worldBuilder) alliance(id string, partyIDs ...string) *worldBuilder {
	b.s.Alliances[id] = &election.Alliance{ID: id, Name: "Alliance " + id, MemberPartyIDs: partyIDs}
	return b
}

func (b *worldBuilder) build() *election.Snapshot {
	return b.s
}

// scenarioWorld: party p1 with affiliation a1 (m80, m20); seat A is a1's
// stronghold, B is neutral, C is a strong rival (p9) stronghold.
func scenarioWorld() *election.Snapshot {
	return newWorld().
		affiliation("a1", "p1", "").
		party("p1", "a1").
		member("m80", "a1", 80).
		member("m20", "a1", 20).
		affiliation("a9", "p9", "").
		party("p9", "a9").
		seat("A", nil).
		seat("B", nil).
		seat("C", nil).
		stronghold("A", "p1", "a1", 50).
		stronghold("C", "p9", "", 80).
		build()
}

func seatCodes(n int) []string {
	codes := make([]string, n)
	for i := range codes {
		codes[i] = fmt.Sprintf("S%02d", i)
	}
	return codes
}
