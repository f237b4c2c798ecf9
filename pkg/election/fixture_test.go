package election

import "math"

// testWorld builds a small two-party world:
//
//	p1 (affiliation a1: c1 influence 80, c2 influence 20)
//	p2 (affiliation a2: c3 influence 50)
//
// Seat A is a1's stronghold, B is neutral, C is a p2 stronghold.
func testWorld() *Snapshot {
	s := NewSnapshot()
	s.Characters["c1"] = &Character{ID: "c1", Name: "Ada", Influence: 80, IsAlive: true, PartyID: "p1", AffiliationID: "a1", Ideology: Ideology{20, 40}}
	s.Characters["c2"] = &Character{ID: "c2", Name: "Bo", Influence: 20, IsAlive: true, PartyID: "p1", AffiliationID: "a1", Ideology: Ideology{40, 60}}
	s.Characters["c3"] = &Character{ID: "c3", Name: "Cy", Influence: 50, IsAlive: true, PartyID: "p2", AffiliationID: "a2", Ideology: Ideology{80, 80}}
	s.Characters["dead"] = &Character{ID: "dead", Name: "Old", Influence: 99, IsAlive: false, PartyID: "p1", AffiliationID: "a1"}

	for _, code := range []string{"A", "B", "C"} {
		s.Seats[code] = &Seat{Code: code, Name: "Seat " + code}
		s.Demographics[code] = &Demographics{Ethnicity: map[string]float64{"north": 0.3, "south": 0.7}, Area: "rural"}
	}
	s.Strongholds["A"] = Stronghold{PartyID: "p1", AffiliationID: "a1", Strength: 50}
	s.Strongholds["C"] = Stronghold{PartyID: "p2", Strength: 80}

	s.Affiliations["a1"] = &Affiliation{ID: "a1", Name: "Northern League", PartyID: "p1", MemberIDs: []string{"c1", "c2", "dead"}, LeaderID: "c1", Ethnicity: "north", Area: "urban", Ideology: Ideology{30, 50}}
	s.Affiliations["a2"] = &Affiliation{ID: "a2", Name: "Southern Front", PartyID: "p2", MemberIDs: []string{"c3"}, Ethnicity: "south", Ideology: Ideology{80, 80}}

	s.Parties["p1"] = &Party{ID: "p1", Name: "Unity", AffiliationIDs: []string{"a1"}, ContestedSeats: ContestedSeats{}, Roles: map[string]string{RoleLeader: "c1"}, Unity: 70}
	s.Parties["p2"] = &Party{ID: "p2", Name: "Reform", AffiliationIDs: []string{"a2"}, ContestedSeats: ContestedSeats{"C": {AllocatedAffiliationID: "a2"}}, Roles: map[string]string{RoleLeader: "ghost"}}
	return s
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
