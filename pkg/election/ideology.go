package election

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Axis bounds shared by both ideology scores.
const (
	IdeologyMin = 0.0
	IdeologyMax = 100.0
)

// Neutral is the ideology returned when there is nothing to aggregate.
var Neutral = Ideology{Economic: 50, Governance: 50}

// Ideology is a position on the economic and governance axes, each in [0, 100].
type Ideology struct {
	Economic   float64 `json:"economic"`
	Governance float64 `json:"governance"`
}

// NewIdeology returns a clamped ideology.
func NewIdeology(economic, governance float64) Ideology {
	return Ideology{Economic: economic, Governance: governance}.Clamp()
}

// Clamp returns the ideology with both axes forced into [0, 100].
func (i Ideology) Clamp() Ideology {
	return Ideology{
		Economic:   clampAxis(i.Economic),
		Governance: clampAxis(i.Governance),
	}
}

func clampAxis(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 50
	case v < IdeologyMin:
		return IdeologyMin
	case v > IdeologyMax:
		return IdeologyMax
	}
	return v
}

// Aggregate returns the per-axis mean of the given ideologies.
// An empty input yields Neutral.
func Aggregate(ideologies []Ideology) Ideology {
	if len(ideologies) == 0 {
		return Neutral
	}
	econ := make([]float64, len(ideologies))
	gov := make([]float64, len(ideologies))
	for i, id := range ideologies {
		c := id.Clamp()
		econ[i] = c.Economic
		gov[i] = c.Governance
	}
	return Ideology{
		Economic:   stat.Mean(econ, nil),
		Governance: stat.Mean(gov, nil),
	}.Clamp()
}

// IdeologyLabel names a region of the ideology square.
type IdeologyLabel string

const (
	LabelLibertarianLeft    IdeologyLabel = "Libertarian Left"
	LabelProgressive        IdeologyLabel = "Progressive"
	LabelLibertarianRight   IdeologyLabel = "Libertarian Right"
	LabelSocialDemocrat     IdeologyLabel = "Social Democrat"
	LabelCentrist           IdeologyLabel = "Centrist"
	LabelConservative       IdeologyLabel = "Conservative"
	LabelAuthoritarianLeft  IdeologyLabel = "Authoritarian Left"
	LabelNationalist        IdeologyLabel = "Nationalist"
	LabelAuthoritarianRight IdeologyLabel = "Authoritarian Right"
)

// Band boundaries. Values strictly below bandLow fall in the low band,
// values strictly above bandHigh in the high band, the rest in the middle.
const (
	bandLow  = 40.0
	bandHigh = 60.0
)

// labelGrid is indexed [governance band][economic band].
var labelGrid = [3][3]IdeologyLabel{
	{LabelLibertarianLeft, LabelProgressive, LabelLibertarianRight},
	{LabelSocialDemocrat, LabelCentrist, LabelConservative},
	{LabelAuthoritarianLeft, LabelNationalist, LabelAuthoritarianRight},
}

// AllLabels returns every label Classify can produce, in grid order.
func AllLabels() []IdeologyLabel {
	labels := make([]IdeologyLabel, 0, 9)
	for _, row := range labelGrid {
		labels = append(labels, row[:]...)
	}
	return labels
}

// Classify maps an ideology to its named region.
func Classify(i Ideology) IdeologyLabel {
	c := i.Clamp()
	return labelGrid[band(c.Governance)][band(c.Economic)]
}

// Label is shorthand for Classify(i).
func (i Ideology) Label() IdeologyLabel {
	return Classify(i)
}

func band(v float64) int {
	switch {
	case v < bandLow:
		return 0
	case v > bandHigh:
		return 2
	default:
		return 1
	}
}
