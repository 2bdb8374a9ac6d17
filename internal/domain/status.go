package domain

import (
	"encoding/json"
	"fmt"
	"math"
)

// ParameterStatus is the severity of a single reading field.
type ParameterStatus int

const (
	StatusSafe ParameterStatus = iota
	StatusCaution
	StatusDanger
	StatusCritical
	// StatusUnknown is reported for parameter names without thresholds.
	StatusUnknown
)

var statusNames = [...]string{"Safe", "Caution", "Danger", "Critical", "Unknown"}

// Thresholds are the inclusive upper bounds of the Safe, Caution and Danger
// bands. Anything above Danger is Critical.
type Thresholds struct {
	Safe    float64 `json:"safe"`
	Caution float64 `json:"caution"`
	Danger  float64 `json:"danger"`
}

// ParameterThresholds holds the classification table for each field.
var ParameterThresholds = map[Parameter]Thresholds{
	ParamWindSpeed:         {Safe: 74, Caution: 110, Danger: 156},
	ParamPrecipitation:     {Safe: 25, Caution: 50, Danger: 100},
	ParamFloodRisk:         {Safe: 3, Caution: 6, Danger: 8},
	ParamCycloneCategory:   {Safe: 1, Caution: 2, Danger: 3},
	ParamVegetationDensity: {Safe: 0.3, Caution: 0.6, Danger: 0.8},
}

// ClassifyParameter compares a raw field value against the field's
// thresholds. Unknown names and NaN values yield StatusUnknown.
func ClassifyParameter(name string, value float64) ParameterStatus {
	t, ok := ParameterThresholds[Parameter(name)]
	if !ok || math.IsNaN(value) {
		return StatusUnknown
	}
	switch {
	case value <= t.Safe:
		return StatusSafe
	case value <= t.Caution:
		return StatusCaution
	case value <= t.Danger:
		return StatusDanger
	default:
		return StatusCritical
	}
}

func (s ParameterStatus) String() string {
	if s < StatusSafe || s > StatusUnknown {
		return fmt.Sprintf("ParameterStatus(%d)", int(s))
	}
	return statusNames[s]
}

// Class is the presentation class for the status. Unknown renders as "safe",
// matching the dashboard cards.
func (s ParameterStatus) Class() string {
	switch s {
	case StatusCaution:
		return "caution"
	case StatusDanger:
		return "danger"
	case StatusCritical:
		return "critical"
	default:
		return "safe"
	}
}

type statusJSON struct {
	Status string `json:"status"`
	Class  string `json:"class"`
}

func (s ParameterStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(statusJSON{Status: s.String(), Class: s.Class()})
}

func (s *ParameterStatus) UnmarshalJSON(data []byte) error {
	var v statusJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("parse parameter status: %w", err)
	}
	for i, name := range statusNames {
		if v.Status == name {
			*s = ParameterStatus(i)
			return nil
		}
	}
	return fmt.Errorf("unknown parameter status %q", v.Status)
}
