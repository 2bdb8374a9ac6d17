package domain

import (
	"math"
	"time"
)

// Parameter names a reading field. The string values are the keys the
// dashboard uses for status cards and chart series.
type Parameter string

const (
	ParamWindSpeed         Parameter = "windSpeed"
	ParamPrecipitation     Parameter = "precipitation"
	ParamFloodRisk         Parameter = "floodRisk"
	ParamCycloneCategory   Parameter = "cycloneCategory"
	ParamVegetationDensity Parameter = "vegetationDensity"
)

// Parameters lists every classified reading field in display order.
var Parameters = []Parameter{
	ParamWindSpeed,
	ParamPrecipitation,
	ParamFloodRisk,
	ParamCycloneCategory,
	ParamVegetationDensity,
}

// Field bounds. Every generated Reading lies within these ranges.
const (
	MaxWindSpeed     = 200.0
	MaxPrecipitation = 150.0
	MaxFloodRisk     = 10.0
	MinCategory      = 1
	MaxCategory      = 5
	MaxVegetation    = 1.0
	MaxGridAge       = 100.0 // years
)

// Reading is one synthesized set of environmental measurements.
type Reading struct {
	WindSpeed         float64   `json:"windSpeed"`         // mph
	Precipitation     float64   `json:"precipitation"`     // mm/hr
	FloodRisk         float64   `json:"floodRisk"`         // 0-10 scale
	CycloneCategory   int       `json:"cycloneCategory"`   // 1-5
	VegetationDensity float64   `json:"vegetationDensity"` // 0-1 fraction
	Timestamp         time.Time `json:"timestamp"`
}

// Value returns the raw value of the named field and whether the name is known.
func (r Reading) Value(p Parameter) (float64, bool) {
	switch p {
	case ParamWindSpeed:
		return r.WindSpeed, true
	case ParamPrecipitation:
		return r.Precipitation, true
	case ParamFloodRisk:
		return r.FloodRisk, true
	case ParamCycloneCategory:
		return float64(r.CycloneCategory), true
	case ParamVegetationDensity:
		return r.VegetationDensity, true
	default:
		return 0, false
	}
}

// Sanitize clamps every field into its documented range. NaN values are
// replaced by the lower bound. Generated readings are already in range;
// this exists for readings that arrive from outside the generator.
func (r Reading) Sanitize() Reading {
	r.WindSpeed = clamp(r.WindSpeed, 0, MaxWindSpeed)
	r.Precipitation = clamp(r.Precipitation, 0, MaxPrecipitation)
	r.FloodRisk = clamp(r.FloodRisk, 0, MaxFloodRisk)
	r.CycloneCategory = clampInt(r.CycloneCategory, MinCategory, MaxCategory)
	r.VegetationDensity = clamp(r.VegetationDensity, 0, MaxVegetation)
	return r
}

// clamp bounds value to [lo, hi]; NaN maps to lo.
func clamp(value, lo, hi float64) float64 {
	if math.IsNaN(value) || value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

func clampInt(value, lo, hi int) int {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
