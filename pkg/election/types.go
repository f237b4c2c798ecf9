package election

import (
	"sort"
)

// Character is a political actor in the global roster.
type Character struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Influence           float64  `json:"influence"`
	Ideology            Ideology `json:"ideology"`
	IsAlive             bool     `json:"is_alive"`
	IsMP                bool     `json:"is_mp"`
	IsAffiliationLeader bool     `json:"is_affiliation_leader"`
	IsPlayer            bool     `json:"is_player"`
	CurrentSeatCode     string   `json:"current_seat_code,omitempty"`

	// Back-references; the membership lists on Party and Affiliation are authoritative.
	PartyID       string `json:"party_id,omitempty"`
	AffiliationID string `json:"affiliation_id,omitempty"`
}

// Seat is an electoral constituency. Seats never change; only contest state does.
type Seat struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Region string `json:"region,omitempty"`
}

// Demographics describes a seat's population.
type Demographics struct {
	Ethnicity  map[string]float64 `json:"ethnicity"` // ethnicity -> share of population (0..1)
	Area       string             `json:"area"`      // e.g. "urban", "rural"
	Population int                `json:"population,omitempty"`
}

// Share returns the population share of an ethnicity, or 0 if unknown.
func (d *Demographics) Share(ethnicity string) float64 {
	if d == nil || ethnicity == "" {
		return 0
	}
	return d.Ethnicity[ethnicity]
}

// Majority returns the ethnicity with the largest share. Ties go to the
// alphabetically smaller name. Returns "" if no composition is known.
func (d *Demographics) Majority() string {
	if d == nil {
		return ""
	}
	best, bestShare := "", -1.0
	for eth, share := range d.Ethnicity {
		if share > bestShare || (share == bestShare && eth < best) {
			best, bestShare = eth, share
		}
	}
	return best
}

func (d *Demographics) clone() *Demographics {
	if d == nil {
		return nil
	}
	c := *d
	if d.Ethnicity != nil {
		c.Ethnicity = make(map[string]float64, len(d.Ethnicity))
		for k, v := range d.Ethnicity {
			c.Ethnicity[k] = v
		}
	}
	return &c
}

// Stronghold records which party and/or affiliation is entrenched in a seat.
type Stronghold struct {
	PartyID       string  `json:"party_id,omitempty"`
	AffiliationID string  `json:"affiliation_id,omitempty"`
	Strength      float64 `json:"strength"` // 0..100
}

// StrongholdMap is keyed by seat code. Seats without an entry are neutral.
type StrongholdMap map[string]Stronghold

// Affiliation is a faction with its own membership and ideology.
type Affiliation struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	PartyID   string   `json:"party_id,omitempty"`
	Ideology  Ideology `json:"ideology"`
	MemberIDs []string `json:"member_ids"`
	LeaderID  string   `json:"leader_id,omitempty"`
	Ethnicity string   `json:"ethnicity,omitempty"`
	Area      string   `json:"area,omitempty"`
}

func (a *Affiliation) clone() *Affiliation {
	c := *a
	c.MemberIDs = append([]string(nil), a.MemberIDs...)
	return &c
}

// ContestEntry is a party's claim on one seat. Empty ids mean "none".
type ContestEntry struct {
	AllocatedAffiliationID string `json:"allocated_affiliation_id,omitempty"`
	CandidateID            string `json:"candidate_id,omitempty"`
}

// ContestedSeats maps seat code to the party's claim on it.
type ContestedSeats map[string]ContestEntry

// Codes returns the claimed seat codes in sorted order.
func (cs ContestedSeats) Codes() []string {
	codes := make([]string, 0, len(cs))
	for code := range cs {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Clone returns an independent copy.
func (cs ContestedSeats) Clone() ContestedSeats {
	c := make(ContestedSeats, len(cs))
	for k, v := range cs {
		c[k] = v
	}
	return c
}

// Party leadership roles.
const (
	RoleLeader   = "leader"
	RoleDeputy   = "deputy"
	RoleTreasury = "treasury"
)

// Party owns affiliations and decides which seats to contest.
type Party struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	AffiliationIDs []string           `json:"affiliation_ids"`
	MemberIDs      []string           `json:"member_ids,omitempty"` // members outside any affiliation
	ContestedSeats ContestedSeats     `json:"contested_seats"`
	Relations      map[string]float64 `json:"relations,omitempty"` // party id -> friendliness (-100..100)
	Unity          float64            `json:"unity"`               // 0..100
	EthnicityFocus string             `json:"ethnicity_focus,omitempty"`
	Roles          map[string]string  `json:"roles,omitempty"` // role -> character id
	Ideology       Ideology           `json:"ideology"`
}

// LeaderID returns the character id holding the leader role, if any.
func (p *Party) LeaderID() string {
	return p.Roles[RoleLeader]
}

// Relation returns the friendliness toward another party, 0 if unknown.
func (p *Party) Relation(otherID string) float64 {
	return p.Relations[otherID]
}

// Claims reports whether the party currently contests the seat.
func (p *Party) Claims(seatCode string) bool {
	_, ok := p.ContestedSeats[seatCode]
	return ok
}

// Clone returns a deep copy of the party. Mutating the copy never affects the original.
func (p *Party) Clone() *Party {
	c := *p
	c.AffiliationIDs = append([]string(nil), p.AffiliationIDs...)
	c.MemberIDs = append([]string(nil), p.MemberIDs...)
	c.ContestedSeats = p.ContestedSeats.Clone()
	if p.Relations != nil {
		c.Relations = make(map[string]float64, len(p.Relations))
		for k, v := range p.Relations {
			c.Relations[k] = v
		}
	}
	if p.Roles != nil {
		c.Roles = make(map[string]string, len(p.Roles))
		for k, v := range p.Roles {
			c.Roles[k] = v
		}
	}
	return &c
}

// Alliance is a coalition that coordinates seat contests between its members.
type Alliance struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	MemberPartyIDs []string `json:"member_party_ids"`
}

// Includes reports whether the party is an alliance member.
func (a *Alliance) Includes(partyID string) bool {
	for _, id := range a.MemberPartyIDs {
		if id == partyID {
			return true
		}
	}
	return false
}
