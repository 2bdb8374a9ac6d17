package domain

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGridAge = 25.0

func TestScore(t *testing.T) {
	tests := []struct {
		name    string
		reading Reading
		score   float64
		level   RiskLevel
	}{
		{
			// 0.622 + 0.083 + 0.4 + 0.075 + 0.025 = 1.205, clamped.
			name:    "saturated storm",
			reading: Reading{WindSpeed: 80, Precipitation: 50, FloodRisk: 4, CycloneCategory: 2, VegetationDensity: 0.5},
			score:   1.0,
			level:   RiskCritical,
		},
		{
			name:    "calm conditions",
			reading: Reading{WindSpeed: 5, Precipitation: 15, FloodRisk: 0.2, CycloneCategory: 1, VegetationDensity: 0.3},
			score:   0.35*(5.0/45) + 0.25*0.1 + 0.20*0.1 + 0.15*0.3 + 0.05*0.5,
			level:   RiskLow,
		},
		{
			name:    "moderate conditions",
			reading: Reading{WindSpeed: 30, Precipitation: 30, FloodRisk: 1, CycloneCategory: 1, VegetationDensity: 0.4},
			score:   0.35*(30.0/45) + 0.25*0.2 + 0.20*0.5 + 0.15*0.4 + 0.05*0.5,
			level:   RiskMedium,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.score, Score(tt.reading, testGridAge), 1e-9)
			a := Assess(tt.reading, testGridAge)
			assert.InDelta(t, tt.score, a.Score, 1e-9)
			assert.Equal(t, tt.level, a.Level)
		})
	}
}

func TestScoreBreakdown_MatchesFormula(t *testing.T) {
	r := Reading{WindSpeed: 80, Precipitation: 50, FloodRisk: 4, CycloneCategory: 2, VegetationDensity: 0.5}
	b := ScoreBreakdown(r, testGridAge)

	assert.InDelta(t, 0.35*80/45, b.Wind, 1e-9)
	assert.InDelta(t, 0.25*50.0/150, b.Precip, 1e-9)
	assert.InDelta(t, 0.4, b.Flood, 1e-9)
	assert.InDelta(t, 0.075, b.Vegetation, 1e-9)
	assert.InDelta(t, 0.025, b.GridAge, 1e-9)
	assert.InDelta(t, 1.2055555, b.Total(), 1e-6)
}

func TestScore_BoundedForGeneratedReadings(t *testing.T) {
	gen := NewGenerator(3)
	start := time.Date(2024, time.September, 1, 0, 0, 0, 0, time.UTC)
	for i := range 2000 {
		r := gen.Generate(start.Add(time.Duration(i) * 1300 * time.Millisecond))
		for _, age := range []float64{0, 25, 50, 75, 100} {
			s := Score(r, age)
			require.GreaterOrEqual(t, s, 0.0)
			require.LessOrEqual(t, s, 1.0)
		}
	}
}

func TestScore_OutOfRangeInputs(t *testing.T) {
	tests := []struct {
		name    string
		reading Reading
		gridAge float64
	}{
		{"all NaN", Reading{WindSpeed: math.NaN(), Precipitation: math.NaN(), FloodRisk: math.NaN(), VegetationDensity: math.NaN()}, math.NaN()},
		{"negative", Reading{WindSpeed: -50, Precipitation: -1, FloodRisk: -3, CycloneCategory: -2, VegetationDensity: -0.5}, -10},
		{"infinite", Reading{WindSpeed: math.Inf(1), Precipitation: math.Inf(1), FloodRisk: math.Inf(1), VegetationDensity: math.Inf(1)}, math.Inf(1)},
		{"negative infinity", Reading{WindSpeed: math.Inf(-1), Precipitation: math.Inf(-1)}, math.Inf(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Score(tt.reading, tt.gridAge)
			assert.False(t, math.IsNaN(s))
			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, 1.0)
		})
	}

	assert.Zero(t, Score(Reading{}, -10))
	assert.InDelta(t, 1.0, Score(Reading{WindSpeed: math.Inf(1)}, 0), 1e-9)
}

func TestClassifyRisk(t *testing.T) {
	tests := []struct {
		score    float64
		expected RiskLevel
	}{
		{0, RiskLow},
		{0.3, RiskLow},
		{0.3000001, RiskMedium},
		{0.6, RiskMedium},
		{0.61, RiskHigh},
		{0.8, RiskHigh},
		{0.8000001, RiskCritical},
		{1, RiskCritical},
		{math.NaN(), RiskLow},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ClassifyRisk(tt.score), "score %v", tt.score)
	}
}

func TestClassifyRisk_Monotonic(t *testing.T) {
	prev := ClassifyRisk(0)
	for i := 1; i <= 10000; i++ {
		cur := ClassifyRisk(float64(i) / 10000)
		require.GreaterOrEqual(t, int(cur), int(prev), "score %v", float64(i)/10000)
		prev = cur
	}
}

func TestRiskLevel_Text(t *testing.T) {
	assert.Equal(t, "Critical", RiskCritical.String())
	assert.Equal(t, "medium", RiskMedium.Class())
	assert.Equal(t, "RiskLevel(9)", RiskLevel(9).String())

	data, err := json.Marshal(RiskAssessment{Score: 0.5, Level: RiskMedium})
	require.NoError(t, err)
	assert.JSONEq(t, `{"score":0.5,"level":"Medium"}`, string(data))

	var a RiskAssessment
	require.NoError(t, json.Unmarshal([]byte(`{"score":0.9,"level":"Critical"}`), &a))
	assert.Equal(t, RiskCritical, a.Level)

	require.Error(t, json.Unmarshal([]byte(`{"level":"Severe"}`), &a))
}

func TestEvaluator(t *testing.T) {
	e := NewEvaluator(testGridAge)
	r := Reading{WindSpeed: 100, Precipitation: 60, FloodRisk: 2, CycloneCategory: 3, VegetationDensity: 0.65}

	assert.InDelta(t, testGridAge, e.GridAge(), 1e-9)
	assert.Equal(t, Assess(r, testGridAge), e.Assess(r))
	assert.Equal(t, ScoreBreakdown(r, testGridAge), e.Breakdown(r))

	statuses := e.Statuses(r)
	require.Len(t, statuses, len(Parameters))
	assert.Equal(t, StatusCaution, statuses[ParamWindSpeed])
	assert.Equal(t, StatusDanger, statuses[ParamPrecipitation])
	assert.Equal(t, StatusSafe, statuses[ParamFloodRisk])
	assert.Equal(t, StatusDanger, statuses[ParamCycloneCategory])
	assert.Equal(t, StatusDanger, statuses[ParamVegetationDensity])
}

func TestSanitize(t *testing.T) {
	r := Reading{WindSpeed: 250, Precipitation: math.NaN(), FloodRisk: -1, CycloneCategory: 9, VegetationDensity: 1.5}.Sanitize()

	assert.InDelta(t, MaxWindSpeed, r.WindSpeed, 1e-9)
	assert.Zero(t, r.Precipitation)
	assert.Zero(t, r.FloodRisk)
	assert.Equal(t, MaxCategory, r.CycloneCategory)
	assert.InDelta(t, MaxVegetation, r.VegetationDensity, 1e-9)
}
