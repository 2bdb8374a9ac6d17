// Package monitor runs the update cycle: on every tick it synthesizes a
// reading, scores it, records it in the rolling history and hands the result
// to the registered publishers.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/couchcryptid/cyclone-outage-monitor/internal/domain"
	"github.com/couchcryptid/cyclone-outage-monitor/internal/history"
)

var (
	// ErrAlreadyRunning is returned by Start when the loop is active.
	ErrAlreadyRunning = errors.New("monitor already running")
	// ErrClosed is returned by Start after Close.
	ErrClosed = errors.New("monitor closed")
	// ErrNoData is returned before the first tick has completed.
	ErrNoData = errors.New("no current data available")
)

// State is the simulated connection state of the monitor.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Update is everything the presentation layer receives for one tick.
type Update struct {
	ID         string                                      `json:"id"`
	Sequence   uint64                                      `json:"sequence"`
	Reading    domain.Reading                              `json:"reading"`
	Assessment domain.RiskAssessment                       `json:"assessment"`
	Statuses   map[domain.Parameter]domain.ParameterStatus `json:"statuses"`
	History    history.Snapshot                            `json:"history"`
}

// Clone returns a deep copy, so a consumer may keep or modify it freely.
func (u Update) Clone() Update {
	u.Statuses = maps.Clone(u.Statuses)
	h := u.History
	u.History = history.Snapshot{
		Labels:            slices.Clone(h.Labels),
		WindSpeed:         slices.Clone(h.WindSpeed),
		Precipitation:     slices.Clone(h.Precipitation),
		FloodRisk:         slices.Clone(h.FloodRisk),
		CycloneCategory:   slices.Clone(h.CycloneCategory),
		VegetationDensity: slices.Clone(h.VegetationDensity),
		OutageRisk:        slices.Clone(h.OutageRisk),
	}
	return u
}

// Status summarizes the controller for status endpoints.
type Status struct {
	State      State      `json:"state"`
	Ticks      uint64     `json:"ticks"`
	DataPoints int        `json:"data_points"`
	Capacity   int        `json:"capacity"`
	Interval   string     `json:"interval"`
	LastUpdate *time.Time `json:"last_update,omitempty"`
}

// Publisher delivers updates to a presentation consumer. A failing or slow
// publisher never affects the monitor; its errors are logged and counted, and
// updates it cannot keep up with are dropped oldest first.
type Publisher interface {
	Publish(ctx context.Context, u Update) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, u Update) error

func (f PublisherFunc) Publish(ctx context.Context, u Update) error { return f(ctx, u) }

// Generator synthesizes the reading for an instant.
type Generator interface {
	Generate(now time.Time) domain.Reading
}

// Evaluator scores and classifies readings.
type Evaluator interface {
	Assess(r domain.Reading) domain.RiskAssessment
	Breakdown(r domain.Reading) domain.Breakdown
	Statuses(r domain.Reading) map[domain.Parameter]domain.ParameterStatus
}
