package domain

import (
	"fmt"
	"math"
)

// Coefficients are the weights and normalizers of the outage risk formula.
type Coefficients struct {
	WindSpeedWeight     float64 `json:"wind_speed_coeff"`
	WindSpeedNormalizer float64 `json:"wind_speed_normalizer"`
	PrecipitationWeight float64 `json:"precipitation_coeff"`
	PrecipitationNorm   float64 `json:"precipitation_normalizer"`
	FloodRiskWeight     float64 `json:"flood_risk_coeff"`
	FloodRiskNormalizer float64 `json:"flood_risk_normalizer"`
	VegetationWeight    float64 `json:"vegetation_density_coeff"`
	GridAgeWeight       float64 `json:"grid_age_coeff"`
	GridAgeNormalizer   float64 `json:"grid_age_normalizer"`
}

// RiskCoefficients is the formula the dashboard and its consumers agree on.
var RiskCoefficients = Coefficients{
	WindSpeedWeight:     0.35,
	WindSpeedNormalizer: 45,
	PrecipitationWeight: 0.25,
	PrecipitationNorm:   150,
	FloodRiskWeight:     0.20,
	FloodRiskNormalizer: 2,
	VegetationWeight:    0.15,
	GridAgeWeight:       0.05,
	GridAgeNormalizer:   50,
}

// RiskFormula is the human-readable form of RiskCoefficients.
const RiskFormula = "outage_risk = 0.35 * (wind_speed / 45) + 0.25 * (precipitation / 150) + " +
	"0.20 * (flood_risk / 2) + 0.15 * vegetation_density + 0.05 * (grid_age / 50)"

// Breakdown is the weighted contribution of each term before the final clamp.
type Breakdown struct {
	Wind       float64
	Precip     float64
	Flood      float64
	Vegetation float64
	GridAge    float64
}

// Total is the unclamped sum of all terms.
func (b Breakdown) Total() float64 {
	return b.Wind + b.Precip + b.Flood + b.Vegetation + b.GridAge
}

// ScoreBreakdown computes the weighted terms for a reading after clamping its
// fields into range. Negative or NaN grid ages count as zero.
func ScoreBreakdown(r Reading, gridAge float64) Breakdown {
	r = r.Sanitize()
	if math.IsNaN(gridAge) || gridAge < 0 {
		gridAge = 0
	}
	c := RiskCoefficients
	return Breakdown{
		Wind:       c.WindSpeedWeight * (r.WindSpeed / c.WindSpeedNormalizer),
		Precip:     c.PrecipitationWeight * (r.Precipitation / c.PrecipitationNorm),
		Flood:      c.FloodRiskWeight * (r.FloodRisk / c.FloodRiskNormalizer),
		Vegetation: c.VegetationWeight * r.VegetationDensity,
		GridAge:    c.GridAgeWeight * (gridAge / c.GridAgeNormalizer),
	}
}

// Score returns the outage risk for a reading in [0,1].
func Score(r Reading, gridAge float64) float64 {
	return clamp(ScoreBreakdown(r, gridAge).Total(), 0, 1)
}

// RiskLevel is the discrete band of an outage risk score. Levels are ordered
// by severity, so they compare with < and >.
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
	RiskCritical
)

var riskLevelNames = [...]string{"Low", "Medium", "High", "Critical"}

// ClassifyRisk maps a score to its level using inclusive upper bounds.
func ClassifyRisk(score float64) RiskLevel {
	switch {
	case math.IsNaN(score), score <= 0.3:
		return RiskLow
	case score <= 0.6:
		return RiskMedium
	case score <= 0.8:
		return RiskHigh
	default:
		return RiskCritical
	}
}

func (l RiskLevel) String() string {
	if l < RiskLow || l > RiskCritical {
		return fmt.Sprintf("RiskLevel(%d)", int(l))
	}
	return riskLevelNames[l]
}

// Class is the lowercase presentation class, e.g. "critical".
func (l RiskLevel) Class() string {
	switch l {
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	default:
		return "critical"
	}
}

func (l RiskLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *RiskLevel) UnmarshalText(text []byte) error {
	for i, name := range riskLevelNames {
		if string(text) == name {
			*l = RiskLevel(i)
			return nil
		}
	}
	return fmt.Errorf("unknown risk level %q", text)
}

// RiskAssessment is the outage risk derived from one reading.
type RiskAssessment struct {
	Score float64   `json:"score"`
	Level RiskLevel `json:"level"`
}

// Assess scores a reading and classifies the result.
func Assess(r Reading, gridAge float64) RiskAssessment {
	s := Score(r, gridAge)
	return RiskAssessment{Score: s, Level: ClassifyRisk(s)}
}

// Evaluator scores readings against a fixed grid age.
type Evaluator struct {
	gridAge float64
}

// NewEvaluator creates an Evaluator for infrastructure of the given age in years.
func NewEvaluator(gridAge float64) *Evaluator {
	return &Evaluator{gridAge: gridAge}
}

// GridAge returns the configured grid age in years.
func (e *Evaluator) GridAge() float64 { return e.gridAge }

// Assess scores and classifies a reading.
func (e *Evaluator) Assess(r Reading) RiskAssessment {
	return Assess(r, e.gridAge)
}

// Breakdown returns the weighted terms behind Assess.
func (e *Evaluator) Breakdown(r Reading) Breakdown {
	return ScoreBreakdown(r, e.gridAge)
}

// Statuses classifies every parameter of a reading.
func (e *Evaluator) Statuses(r Reading) map[Parameter]ParameterStatus {
	out := make(map[Parameter]ParameterStatus, len(Parameters))
	for _, p := range Parameters {
		v, _ := r.Value(p)
		out[p] = ClassifyParameter(string(p), v)
	}
	return out
}
