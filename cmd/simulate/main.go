// Command simulate runs the monitor offline on a fake clock and records every
// update as a JSON fixture. The same seed always yields the same readings.
//
// Usage:
//
//	go run ./cmd/simulate -ticks 120 -seed 42 -out data/fixtures/run_seed42.json
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/cyclone-outage-monitor/internal/domain"
	"github.com/couchcryptid/cyclone-outage-monitor/internal/fixture"
	"github.com/couchcryptid/cyclone-outage-monitor/internal/history"
	"github.com/couchcryptid/cyclone-outage-monitor/internal/monitor"
	"github.com/couchcryptid/cyclone-outage-monitor/internal/observability"
)

var startTime = time.Date(2024, time.September, 1, 14, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	ticks := flag.Int("ticks", 120, "number of updates to record")
	seed := flag.Uint64("seed", 42, "generator seed (must be non-zero)")
	gridAge := flag.Float64("grid-age", 25, "grid age in years")
	capacity := flag.Int("capacity", history.DefaultCapacity, "history window capacity")
	out := flag.String("out", "", "output path for the JSON fixture")
	flag.Parse()

	if *out == "" || *ticks < 1 || *seed == 0 {
		flag.Usage()
		return fmt.Errorf("need -out, a positive -ticks and a non-zero -seed")
	}

	f, err := simulate(*seed, *gridAge, *capacity, *ticks)
	if err != nil {
		return err
	}
	if err := fixture.Write(*out, f); err != nil {
		return fmt.Errorf("writing fixture: %w", err)
	}
	log.Printf("wrote %d updates: %s", len(f.Updates), *out)

	printStats(f)
	return nil
}

// simulate drives a controller one interval at a time and collects what it
// publishes.
func simulate(seed uint64, gridAge float64, capacity, ticks int) (fixture.Fixture, error) {
	const interval = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	fc := clockwork.NewFakeClockAt(startTime)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctrl := monitor.New(
		domain.NewGenerator(seed),
		domain.NewEvaluator(gridAge),
		history.NewWindow(capacity),
		logger,
		observability.NewMetricsForTesting(),
		monitor.Options{Interval: interval, Clock: fc},
	)

	updates := make(chan monitor.Update, 1)
	ctrl.Subscribe("fixture", monitor.PublisherFunc(func(ctx context.Context, u monitor.Update) error {
		select {
		case updates <- u:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}))

	if err := ctrl.Start(ctx); err != nil {
		return fixture.Fixture{}, err
	}
	defer ctrl.Close()

	f := fixture.Fixture{
		Seed:     seed,
		GridAge:  gridAge,
		Capacity: capacity,
		Interval: interval.String(),
		Updates:  make([]monitor.Update, 0, ticks),
	}
	for i := range ticks {
		if i > 0 {
			if err := fc.BlockUntilContext(ctx, 1); err != nil {
				return fixture.Fixture{}, fmt.Errorf("waiting for tick %d: %w", i+1, err)
			}
			fc.Advance(interval)
		}
		select {
		case u := <-updates:
			f.Updates = append(f.Updates, u)
		case <-ctx.Done():
			return fixture.Fixture{}, fmt.Errorf("waiting for update %d: %w", i+1, ctx.Err())
		}
	}
	return f, nil
}

func printStats(f fixture.Fixture) {
	levels := map[domain.RiskLevel]int{}
	statuses := map[domain.ParameterStatus]int{}
	var peak monitor.Update
	for _, u := range f.Updates {
		levels[u.Assessment.Level]++
		statuses[u.Statuses[domain.ParamWindSpeed]]++
		if u.Assessment.Score > peak.Assessment.Score {
			peak = u
		}
	}

	fmt.Println("\n=== Risk Levels ===")
	for _, l := range []domain.RiskLevel{domain.RiskLow, domain.RiskMedium, domain.RiskHigh, domain.RiskCritical} {
		fmt.Printf("  %-10s %d\n", l, levels[l])
	}

	fmt.Println("\n=== Wind Speed Status ===")
	for _, s := range []domain.ParameterStatus{domain.StatusSafe, domain.StatusCaution, domain.StatusDanger, domain.StatusCritical} {
		fmt.Printf("  %-10s %d\n", s, statuses[s])
	}

	if peak.Sequence > 0 {
		fmt.Printf("\nPeak risk: %.3f (%s) at tick %d, wind %.1f mph, category %d\n",
			peak.Assessment.Score, peak.Assessment.Level, peak.Sequence,
			peak.Reading.WindSpeed, peak.Reading.CycloneCategory)
	}
}
