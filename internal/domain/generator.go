package domain

import (
	"math"
	"math/rand/v2"
	"time"
)

// Noise holds the uniform random draws consumed by one synthesized reading.
type Noise struct {
	Wind       float64 // U(0,30)
	Precip     float64 // U(0,40)
	Flood      float64 // U(0,3)
	Category   float64 // U(0,1)
	Vegetation float64 // U(0,0.5)
}

// Generator produces correlated synthetic readings. It is not safe for
// concurrent use; the monitor calls it from its single tick goroutine.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a Generator. A zero seed picks a random one, any other
// value makes the sequence of readings reproducible.
func NewGenerator(seed uint64) *Generator {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Generate synthesizes the reading for the given instant.
func (g *Generator) Generate(now time.Time) Reading {
	return Synthesize(now, g.drawNoise())
}

func (g *Generator) drawNoise() Noise {
	return Noise{
		Wind:       g.rng.Float64() * 30,
		Precip:     g.rng.Float64() * 40,
		Flood:      g.rng.Float64() * 3,
		Category:   g.rng.Float64(),
		Vegetation: g.rng.Float64() * 0.5,
	}
}

// Synthesize applies the correlation chain to a set of noise draws.
// Correlated fields are derived from the clamped but unrounded upstream
// value; rounding happens only on the returned reading.
func Synthesize(now time.Time, n Noise) Reading {
	t := float64(now.UnixMilli())

	wind := clamp(80+40*math.Sin(t/10000)+n.Wind, 0, MaxWindSpeed)
	precip := clamp(PrecipitationBase(wind)+n.Precip, 0, MaxPrecipitation)
	flood := clamp(FloodRiskBase(precip)+n.Flood, 0, MaxFloodRisk)

	category := BaseCategory(wind) + int(math.Round((n.Category-0.5)*0.8))
	category = clampInt(category, MinCategory, MaxCategory)

	veg := clamp(0.3+n.Vegetation, 0, MaxVegetation)

	return Reading{
		WindSpeed:         round1(wind),
		Precipitation:     round1(precip),
		FloodRisk:         round1(flood),
		CycloneCategory:   category,
		VegetationDensity: round2(veg),
		Timestamp:         now,
	}
}

// PrecipitationBase is the wind-driven part of precipitation before noise.
func PrecipitationBase(windSpeed float64) float64 {
	return (windSpeed / MaxWindSpeed) * 80
}

// FloodRiskBase is the precipitation-driven part of flood risk before noise.
func FloodRiskBase(precipitation float64) float64 {
	return (precipitation / MaxPrecipitation) * 6
}

// BaseCategory maps wind speed (mph) to a cyclone category before jitter.
func BaseCategory(windSpeed float64) int {
	switch {
	case windSpeed < 74:
		return 1
	case windSpeed < 96:
		return 2
	case windSpeed < 111:
		return 3
	case windSpeed < 130:
		return 4
	default:
		return 5
	}
}
