package history

// Snapshot is the window rendered as parallel series. Index i of every slice
// refers to the same tick. Vegetation density and outage risk are scaled to
// percentages for charting.
type Snapshot struct {
	Labels            []string  `json:"labels"`
	WindSpeed         []float64 `json:"windSpeed"`
	Precipitation     []float64 `json:"precipitation"`
	FloodRisk         []float64 `json:"floodRisk"`
	CycloneCategory   []float64 `json:"cycloneCategory"`
	VegetationDensity []float64 `json:"vegetationDensity"`
	OutageRisk        []float64 `json:"outageRisk"`
}

// NewSnapshot projects entries, oldest first, into series.
func NewSnapshot(entries []Entry) Snapshot {
	n := len(entries)
	s := Snapshot{
		Labels:            make([]string, n),
		WindSpeed:         make([]float64, n),
		Precipitation:     make([]float64, n),
		FloodRisk:         make([]float64, n),
		CycloneCategory:   make([]float64, n),
		VegetationDensity: make([]float64, n),
		OutageRisk:        make([]float64, n),
	}
	for i, e := range entries {
		s.Labels[i] = e.Label
		s.WindSpeed[i] = e.Reading.WindSpeed
		s.Precipitation[i] = e.Reading.Precipitation
		s.FloodRisk[i] = e.Reading.FloodRisk
		s.CycloneCategory[i] = float64(e.Reading.CycloneCategory)
		s.VegetationDensity[i] = e.Reading.VegetationDensity * 100
		s.OutageRisk[i] = e.Score * 100
	}
	return s
}

// Len returns the number of points in each series.
func (s Snapshot) Len() int { return len(s.Labels) }

// Aligned reports whether every series has the same length as Labels.
func (s Snapshot) Aligned() bool {
	n := len(s.Labels)
	for _, series := range s.series() {
		if len(series) != n {
			return false
		}
	}
	return true
}

// Last returns the newest n points of every series. A non-positive n or one
// larger than the snapshot returns the snapshot unchanged.
func (s Snapshot) Last(n int) Snapshot {
	total := s.Len()
	if n <= 0 || n >= total {
		return s
	}
	from := total - n
	return Snapshot{
		Labels:            s.Labels[from:],
		WindSpeed:         s.WindSpeed[from:],
		Precipitation:     s.Precipitation[from:],
		FloodRisk:         s.FloodRisk[from:],
		CycloneCategory:   s.CycloneCategory[from:],
		VegetationDensity: s.VegetationDensity[from:],
		OutageRisk:        s.OutageRisk[from:],
	}
}

func (s Snapshot) series() [][]float64 {
	return [][]float64{
		s.WindSpeed,
		s.Precipitation,
		s.FloodRisk,
		s.CycloneCategory,
		s.VegetationDensity,
		s.OutageRisk,
	}
}
