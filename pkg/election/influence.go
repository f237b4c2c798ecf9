package election

import "math"

// Weights are the tunable constants of the influence model and the
// viability test used by the planners.
type Weights struct {
	// StrongholdBonus multiplies a score by (1+x) in the candidate's own stronghold.
	StrongholdBonus float64 `json:"stronghold_bonus" yaml:"stronghold_bonus"`

	// RivalPenalty multiplies a score by (1-x*strength/100) in a rival's stronghold.
	RivalPenalty float64 `json:"rival_penalty" yaml:"rival_penalty"`

	// DemographicWeight scales how far the affiliation's ethnic share in the
	// seat departs from DemographicBaseline.
	DemographicWeight   float64 `json:"demographic_weight" yaml:"demographic_weight"`
	DemographicBaseline float64 `json:"demographic_baseline" yaml:"demographic_baseline"`

	// AreaBonus applies when the affiliation's area matches the seat's.
	AreaBonus float64 `json:"area_bonus" yaml:"area_bonus"`

	// IncumbentBonus applies to a sitting MP defending their own seat.
	IncumbentBonus float64 `json:"incumbent_bonus" yaml:"incumbent_bonus"`

	// ContinuityBonus applies to the candidate already standing in the seat.
	ContinuityBonus float64 `json:"continuity_bonus" yaml:"continuity_bonus"`

	// FocusPenalty multiplies by (1-x) when the seat is allocated to another affiliation.
	FocusPenalty float64 `json:"focus_penalty" yaml:"focus_penalty"`

	// MinViableScore is the lowest best score worth contesting a seat with.
	MinViableScore float64 `json:"min_viable_score" yaml:"min_viable_score"`

	// RivalThresholdFactor raises the threshold by x times a rival stronghold's strength.
	RivalThresholdFactor float64 `json:"rival_threshold_factor" yaml:"rival_threshold_factor"`

	// MinFocusShare is the lowest share of a party's focus ethnicity for a seat to be eligible.
	MinFocusShare float64 `json:"min_focus_share" yaml:"min_focus_share"`
}

// DefaultWeights returns the weights the simulation ships with.
func DefaultWeights() Weights {
	return Weights{
		StrongholdBonus:      0.25,
		RivalPenalty:         0.40,
		DemographicWeight:    0.50,
		DemographicBaseline:  0.30,
		AreaBonus:            0.10,
		IncumbentBonus:       0.10,
		ContinuityBonus:      0.05,
		FocusPenalty:         0.50,
		MinViableScore:       10,
		RivalThresholdFactor: 1.0,
		MinFocusShare:        0.20,
	}
}

// Standing classifies a seat's stronghold relative to a candidate.
type Standing int

const (
	StandingNeutral Standing = iota // no stronghold, or nobody we know
	StandingOwn                     // our affiliation's, or our side's party-wide stronghold
	StandingAllied                  // another affiliation on our side
	StandingRival                   // held by someone outside our side
)

func (s Standing) String() string {
	switch s {
	case StandingOwn:
		return "own"
	case StandingAllied:
		return "allied"
	case StandingRival:
		return "rival"
	default:
		return "neutral"
	}
}

// Standing classifies the seat's stronghold for a member of aff (nil for a
// member without affiliation) on the side described by friendly party ids.
func (m StrongholdMap) Standing(seatCode string, aff *Affiliation, friendly map[string]bool) Standing {
	sh, ok := m[seatCode]
	if !ok || (sh.PartyID == "" && sh.AffiliationID == "") {
		return StandingNeutral
	}
	if sh.AffiliationID != "" {
		if aff != nil && sh.AffiliationID == aff.ID {
			return StandingOwn
		}
		if friendly[sh.PartyID] {
			return StandingAllied
		}
		return StandingRival
	}
	if friendly[sh.PartyID] {
		return StandingOwn
	}
	return StandingRival
}

// RivalStrength returns the strength of the seat's stronghold when it
// belongs to a rival of the given side, and 0 otherwise.
func (m StrongholdMap) RivalStrength(seatCode string, aff *Affiliation, friendly map[string]bool) float64 {
	if m.Standing(seatCode, aff, friendly) != StandingRival {
		return 0
	}
	return clampStrength(m[seatCode].Strength)
}

func clampStrength(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}

// ScoreContext is the side a candidate stands for: a single party or every
// member of an alliance, plus the stronghold map and weights.
type ScoreContext struct {
	Friendly    map[string]bool
	Strongholds StrongholdMap
	Weights     Weights
}

// PartyContext scores on behalf of one party.
func PartyContext(p *Party, strongholds StrongholdMap, w Weights) ScoreContext {
	friendly := make(map[string]bool, 1)
	if p != nil {
		friendly[p.ID] = true
	}
	return ScoreContext{Friendly: friendly, Strongholds: strongholds, Weights: w}
}

// AllianceContext scores on behalf of every member party of an alliance.
func AllianceContext(a *Alliance, strongholds StrongholdMap, w Weights) ScoreContext {
	friendly := make(map[string]bool)
	if a != nil {
		for _, id := range a.MemberPartyIDs {
			friendly[id] = true
		}
	}
	return ScoreContext{Friendly: friendly, Strongholds: strongholds, Weights: w}
}

// Threshold returns the viability threshold for a seat on this side.
func (sc ScoreContext) Threshold(seatCode string, aff *Affiliation) float64 {
	return sc.Weights.MinViableScore +
		sc.Weights.RivalThresholdFactor*sc.Strongholds.RivalStrength(seatCode, aff, sc.Friendly)
}

// EffectiveInfluence returns a character's strength in one seat.
//
// aff is the character's affiliation (nil for a direct party member).
// contestingCandidateID is the candidate already standing in the seat, and
// allocatedAffiliationID the affiliation the seat has been allocated to;
// either may be empty.
//
// With no seat or no demographics the raw influence is returned unchanged.
// Otherwise multipliers are applied in this order: own stronghold, rival
// stronghold, ethnic alignment, area match, incumbency, continuity, focus
// mismatch. The result is never negative. No argument is modified.
func EffectiveInfluence(c *Character, aff *Affiliation, seat *Seat, demo *Demographics, sc ScoreContext, contestingCandidateID, allocatedAffiliationID string) float64 {
	if c == nil {
		return 0
	}
	base := nonNegative(c.Influence)
	if seat == nil || demo == nil {
		return base
	}
	w := sc.Weights
	score := base

	switch sc.Strongholds.Standing(seat.Code, aff, sc.Friendly) {
	case StandingOwn:
		score *= 1 + w.StrongholdBonus
	case StandingRival:
		score *= 1 - w.RivalPenalty*sc.Strongholds.RivalStrength(seat.Code, aff, sc.Friendly)/100
	}

	if aff != nil && aff.Ethnicity != "" {
		score *= 1 + w.DemographicWeight*(demo.Share(aff.Ethnicity)-w.DemographicBaseline)
	}
	if aff != nil && aff.Area != "" && aff.Area == demo.Area {
		score *= 1 + w.AreaBonus
	}

	if c.IsMP && c.CurrentSeatCode == seat.Code {
		score *= 1 + w.IncumbentBonus
	}
	if contestingCandidateID != "" && contestingCandidateID == c.ID {
		score *= 1 + w.ContinuityBonus
	}

	if allocatedAffiliationID != "" && (aff == nil || aff.ID != allocatedAffiliationID) {
		score *= 1 - w.FocusPenalty
	}

	return nonNegative(score)
}

func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}
