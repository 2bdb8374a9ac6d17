// Command validate checks a recorded monitor run for internal consistency:
// reading ranges, risk score recomputation, level and status bands, and the
// bounds and alignment of every history snapshot.
//
// Usage:
//
//	go run ./cmd/validate -fixture data/fixtures/run_seed42.json
package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/couchcryptid/cyclone-outage-monitor/internal/domain"
	"github.com/couchcryptid/cyclone-outage-monitor/internal/fixture"
	"github.com/couchcryptid/cyclone-outage-monitor/internal/history"
	"github.com/couchcryptid/cyclone-outage-monitor/internal/monitor"
)

const epsilon = 1e-9

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	path := flag.String("fixture", "", "path to a fixture written by cmd/simulate")
	flag.Parse()

	if *path == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*path); code != 0 {
		os.Exit(code)
	}
}

func run(path string) int {
	fmt.Println("=== Cyclone Monitor Fixture Validation ===")
	fmt.Println()

	f, err := fixture.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	phases := validate(f)

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Updates: %d, capacity %d, grid age %.1f, seed %d\n",
		len(f.Updates), f.Capacity, f.GridAge, f.Seed)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func validate(f fixture.Fixture) []*phase {
	return []*phase{
		validateReadings(f.Updates),
		validateAssessments(f.Updates, f.GridAge),
		validateStatuses(f.Updates),
		validateHistory(f.Updates, f.Capacity),
	}
}

// ── Phase 1 ──

func validateReadings(updates []monitor.Update) *phase {
	p := &phase{name: "Phase 1: Reading Ranges"}
	if len(updates) == 0 {
		p.errorf("fixture has no updates")
		return p
	}
	for _, u := range updates {
		r := u.Reading
		checkRange(p, u.Sequence, "windSpeed", r.WindSpeed, 0, domain.MaxWindSpeed)
		checkRange(p, u.Sequence, "precipitation", r.Precipitation, 0, domain.MaxPrecipitation)
		checkRange(p, u.Sequence, "floodRisk", r.FloodRisk, 0, domain.MaxFloodRisk)
		checkRange(p, u.Sequence, "vegetationDensity", r.VegetationDensity, 0, domain.MaxVegetation)
		if r.CycloneCategory < domain.MinCategory || r.CycloneCategory > domain.MaxCategory {
			p.errorf("tick %d: cycloneCategory %d outside [%d, %d]",
				u.Sequence, r.CycloneCategory, domain.MinCategory, domain.MaxCategory)
		}
		if r.Timestamp.IsZero() {
			p.errorf("tick %d: missing timestamp", u.Sequence)
		}
	}
	return p
}

func checkRange(p *phase, seq uint64, name string, v, lo, hi float64) {
	if math.IsNaN(v) || v < lo || v > hi {
		p.errorf("tick %d: %s %v outside [%v, %v]", seq, name, v, lo, hi)
	}
}

// ── Phase 2 ──

func validateAssessments(updates []monitor.Update, gridAge float64) *phase {
	p := &phase{name: "Phase 2: Risk Score Recomputation"}
	for _, u := range updates {
		want := domain.Assess(u.Reading, gridAge)
		if math.Abs(want.Score-u.Assessment.Score) > epsilon {
			p.errorf("tick %d: score %.6f, recomputed %.6f", u.Sequence, u.Assessment.Score, want.Score)
		}
		if u.Assessment.Score < 0 || u.Assessment.Score > 1 {
			p.errorf("tick %d: score %.6f outside [0, 1]", u.Sequence, u.Assessment.Score)
		}
		if got := domain.ClassifyRisk(u.Assessment.Score); got != u.Assessment.Level {
			p.errorf("tick %d: level %s does not match score %.3f (%s)",
				u.Sequence, u.Assessment.Level, u.Assessment.Score, got)
		}
	}
	return p
}

// ── Phase 3 ──

func validateStatuses(updates []monitor.Update) *phase {
	p := &phase{name: "Phase 3: Parameter Status Bands"}
	for _, u := range updates {
		if len(u.Statuses) != len(domain.Parameters) {
			p.errorf("tick %d: %d statuses, want %d", u.Sequence, len(u.Statuses), len(domain.Parameters))
		}
		for _, param := range domain.Parameters {
			got, ok := u.Statuses[param]
			if !ok {
				p.errorf("tick %d: missing status for %s", u.Sequence, param)
				continue
			}
			v, _ := u.Reading.Value(param)
			if want := domain.ClassifyParameter(string(param), v); got != want {
				p.errorf("tick %d: %s=%v status %s, want %s", u.Sequence, param, v, got, want)
			}
		}
	}
	return p
}

// ── Phase 4 ──

func validateHistory(updates []monitor.Update, capacity int) *phase {
	p := &phase{name: "Phase 4: History Bounds and Alignment"}
	if capacity < 1 {
		p.errorf("capacity %d must be positive", capacity)
		return p
	}
	for i, u := range updates {
		if i > 0 && u.Sequence != updates[i-1].Sequence+1 {
			p.errorf("tick %d follows tick %d", u.Sequence, updates[i-1].Sequence)
		}
		h := u.History
		if !h.Aligned() {
			p.errorf("tick %d: history series lengths differ", u.Sequence)
			continue
		}
		if want := min(int(u.Sequence), capacity); h.Len() != want {
			p.errorf("tick %d: history has %d points, want %d", u.Sequence, h.Len(), want)
		}
		if h.Len() == 0 {
			continue
		}
		checkNewestPoint(p, u)
		if i > 0 && h.Len() > 1 {
			checkShift(p, updates[i-1].History, h, u.Sequence)
		}
	}
	return p
}

// checkNewestPoint verifies that the last history point is the update's own
// reading.
func checkNewestPoint(p *phase, u monitor.Update) {
	h := u.History
	last := h.Len() - 1
	r := u.Reading

	if want := r.Timestamp.Format(history.LabelLayout); h.Labels[last] != want {
		p.errorf("tick %d: newest label %q, want %q", u.Sequence, h.Labels[last], want)
	}
	pairs := []struct {
		name      string
		got, want float64
	}{
		{"windSpeed", h.WindSpeed[last], r.WindSpeed},
		{"precipitation", h.Precipitation[last], r.Precipitation},
		{"floodRisk", h.FloodRisk[last], r.FloodRisk},
		{"cycloneCategory", h.CycloneCategory[last], float64(r.CycloneCategory)},
		{"vegetationDensity", h.VegetationDensity[last], r.VegetationDensity * 100},
		{"outageRisk", h.OutageRisk[last], u.Assessment.Score * 100},
	}
	for _, pr := range pairs {
		if math.Abs(pr.got-pr.want) > epsilon {
			p.errorf("tick %d: newest %s %v, want %v", u.Sequence, pr.name, pr.got, pr.want)
		}
	}
}

// checkShift verifies that a snapshot continues its predecessor: every point
// but the newest was already present, in the same order.
func checkShift(p *phase, prev, cur history.Snapshot, seq uint64) {
	kept := cur.Len() - 1
	if kept > prev.Len() {
		p.errorf("tick %d: %d carried points but previous snapshot had %d", seq, kept, prev.Len())
		return
	}
	offset := prev.Len() - kept
	for j := range kept {
		if cur.Labels[j] != prev.Labels[offset+j] || cur.WindSpeed[j] != prev.WindSpeed[offset+j] {
			p.errorf("tick %d: history point %d does not match the previous snapshot", seq, j)
			return
		}
	}
}
