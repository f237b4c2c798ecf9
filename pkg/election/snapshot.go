package election

import (
	"sort"
)

// Snapshot is the complete, resolved input to a planning call: roster,
// geography, factions, parties and alliances at one point in time.
// Planners treat it as read-only and return new parties instead of
// mutating the ones it holds.
type Snapshot struct {
	Version      int64                    `json:"version"`
	Characters   map[string]*Character    `json:"characters"`
	Seats        map[string]*Seat         `json:"seats"`
	Demographics map[string]*Demographics `json:"demographics"`
	Strongholds  StrongholdMap            `json:"strongholds"`
	Affiliations map[string]*Affiliation  `json:"affiliations"`
	Parties      map[string]*Party        `json:"parties"`
	Alliances    map[string]*Alliance     `json:"alliances,omitempty"`
}

// NewSnapshot returns an empty snapshot with all maps allocated.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Characters:   make(map[string]*Character),
		Seats:        make(map[string]*Seat),
		Demographics: make(map[string]*Demographics),
		Strongholds:  make(StrongholdMap),
		Affiliations: make(map[string]*Affiliation),
		Parties:      make(map[string]*Party),
		Alliances:    make(map[string]*Alliance),
	}
}

// Character returns the character with the given id, or nil.
func (s *Snapshot) Character(id string) *Character {
	if id == "" {
		return nil
	}
	return s.Characters[id]
}

// Seat returns the seat with the given code, or nil.
func (s *Snapshot) Seat(code string) *Seat {
	return s.Seats[code]
}

// DemographicsOf returns the demographics of a seat, or nil.
func (s *Snapshot) DemographicsOf(code string) *Demographics {
	return s.Demographics[code]
}

// Affiliation returns the affiliation with the given id, or nil.
func (s *Snapshot) Affiliation(id string) *Affiliation {
	if id == "" {
		return nil
	}
	return s.Affiliations[id]
}

// Party returns the party with the given id, or nil.
func (s *Snapshot) Party(id string) *Party {
	return s.Parties[id]
}

// Alliance returns the alliance with the given id, or nil.
func (s *Snapshot) Alliance(id string) *Alliance {
	return s.Alliances[id]
}

// SeatCodes returns every seat code in sorted order.
func (s *Snapshot) SeatCodes() []string {
	codes := make([]string, 0, len(s.Seats))
	for code := range s.Seats {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// PartyIDs returns every party id in sorted order.
func (s *Snapshot) PartyIDs() []string {
	ids := make([]string, 0, len(s.Parties))
	for id := range s.Parties {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// livingCharacter resolves an id to a living character, or nil.
func (s *Snapshot) livingCharacter(id string) *Character {
	c := s.Character(id)
	if c == nil || !c.IsAlive {
		return nil
	}
	return c
}

// Leader returns the living leader of a party. A missing party, an unset
// role, or a dangling or dead reference all yield nil ("no leader").
func (s *Snapshot) Leader(partyID string) *Character {
	p := s.Party(partyID)
	if p == nil {
		return nil
	}
	return s.livingCharacter(p.LeaderID())
}

// AffiliationLeader returns the living leader of an affiliation, or nil.
func (s *Snapshot) AffiliationLeader(affiliationID string) *Character {
	a := s.Affiliation(affiliationID)
	if a == nil {
		return nil
	}
	return s.livingCharacter(a.LeaderID)
}

// AffiliationMembers returns the living members of an affiliation ordered by id.
func (s *Snapshot) AffiliationMembers(a *Affiliation) []*Character {
	if a == nil {
		return nil
	}
	var members []*Character
	for _, id := range a.MemberIDs {
		if c := s.livingCharacter(id); c != nil {
			members = append(members, c)
		}
	}
	sortCharacters(members)
	return dedupeCharacters(members)
}

// MembersOf returns the living members of a party, through its affiliations
// and its direct member list, ordered by id with duplicates removed.
func (s *Snapshot) MembersOf(p *Party) []*Character {
	if p == nil {
		return nil
	}
	var members []*Character
	for _, affID := range p.AffiliationIDs {
		members = append(members, s.AffiliationMembers(s.Affiliation(affID))...)
	}
	for _, id := range p.MemberIDs {
		if c := s.livingCharacter(id); c != nil {
			members = append(members, c)
		}
	}
	sortCharacters(members)
	return dedupeCharacters(members)
}

// AffiliationOf returns the affiliation a character belongs to within a
// party, or nil if the character is a direct party member.
func (s *Snapshot) AffiliationOf(p *Party, characterID string) *Affiliation {
	if p == nil {
		return nil
	}
	for _, affID := range p.AffiliationIDs {
		a := s.Affiliation(affID)
		if a == nil {
			continue
		}
		for _, id := range a.MemberIDs {
			if id == characterID {
				return a
			}
		}
	}
	return nil
}

// ResolvedStrongholds returns a copy of the stronghold map in which every
// affiliation-only stronghold carries the id of the party that owns the
// affiliation. Ownership follows the parties' affiliation lists, falling back
// to the affiliation's own party id.
func (s *Snapshot) ResolvedStrongholds() StrongholdMap {
	owner := make(map[string]string)
	for _, pid := range s.PartyIDs() {
		p := s.Parties[pid]
		if p == nil {
			continue
		}
		for _, affID := range p.AffiliationIDs {
			if _, ok := owner[affID]; !ok {
				owner[affID] = pid
			}
		}
	}
	out := make(StrongholdMap, len(s.Strongholds))
	for code, sh := range s.Strongholds {
		if sh.PartyID == "" && sh.AffiliationID != "" {
			if pid, ok := owner[sh.AffiliationID]; ok {
				sh.PartyID = pid
			} else if a := s.Affiliation(sh.AffiliationID); a != nil {
				sh.PartyID = a.PartyID
			}
		}
		out[code] = sh
	}
	return out
}

// Claimants returns the ids of every party contesting the seat, sorted.
func (s *Snapshot) Claimants(seatCode string) []string {
	var ids []string
	for _, id := range s.PartyIDs() {
		if s.Parties[id].Claims(seatCode) {
			ids = append(ids, id)
		}
	}
	return ids
}

// ClaimConflicts returns seat codes claimed by more than one party, sorted.
// A consistent snapshot returns nil.
func (s *Snapshot) ClaimConflicts() []string {
	counts := make(map[string]int)
	for _, p := range s.Parties {
		for code := range p.ContestedSeats {
			counts[code]++
		}
	}
	var conflicts []string
	for code, n := range counts {
		if n > 1 {
			conflicts = append(conflicts, code)
		}
	}
	sort.Strings(conflicts)
	return conflicts
}

// AffiliationIdeology re-averages an affiliation's ideology from its living members.
// An affiliation without living members keeps its current ideology.
func (s *Snapshot) AffiliationIdeology(a *Affiliation) Ideology {
	members := s.AffiliationMembers(a)
	if len(members) == 0 {
		return a.Ideology.Clamp()
	}
	ids := make([]Ideology, len(members))
	for i, c := range members {
		ids[i] = c.Ideology
	}
	return Aggregate(ids)
}

// PartyIdeology averages a party's affiliations' ideologies, or its direct
// members' when it has no affiliations.
func (s *Snapshot) PartyIdeology(p *Party) Ideology {
	var ids []Ideology
	for _, affID := range p.AffiliationIDs {
		if a := s.Affiliation(affID); a != nil {
			ids = append(ids, s.AffiliationIdeology(a))
		}
	}
	if len(ids) == 0 {
		for _, c := range s.MembersOf(p) {
			ids = append(ids, c.Ideology)
		}
	}
	return Aggregate(ids)
}

// WithParties returns a copy of the snapshot where each given party replaces
// the party with the same id, and the version is bumped. The receiver is not
// modified.
func (s *Snapshot) WithParties(parties []*Party) *Snapshot {
	c := s.Clone()
	for _, p := range parties {
		if p == nil {
			continue
		}
		c.Parties[p.ID] = p.Clone()
	}
	c.Version++
	return c
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	c := NewSnapshot()
	c.Version = s.Version
	for id, ch := range s.Characters {
		cp := *ch
		c.Characters[id] = &cp
	}
	for code, seat := range s.Seats {
		cp := *seat
		c.Seats[code] = &cp
	}
	for code, d := range s.Demographics {
		c.Demographics[code] = d.clone()
	}
	for code, sh := range s.Strongholds {
		c.Strongholds[code] = sh
	}
	for id, a := range s.Affiliations {
		c.Affiliations[id] = a.clone()
	}
	for id, p := range s.Parties {
		c.Parties[id] = p.Clone()
	}
	for id, a := range s.Alliances {
		cp := *a
		cp.MemberPartyIDs = append([]string(nil), a.MemberPartyIDs...)
		c.Alliances[id] = &cp
	}
	return c
}

func sortCharacters(cs []*Character) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].ID < cs[j].ID })
}

// dedupeCharacters drops adjacent duplicates from an id-sorted slice.
func dedupeCharacters(cs []*Character) []*Character {
	if len(cs) < 2 {
		return cs
	}
	out := cs[:1]
	for _, c := range cs[1:] {
		if c.ID != out[len(out)-1].ID {
			out = append(out, c)
		}
	}
	return out
}
