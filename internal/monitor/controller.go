package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/cyclone-outage-monitor/internal/domain"
	"github.com/couchcryptid/cyclone-outage-monitor/internal/history"
	"github.com/couchcryptid/cyclone-outage-monitor/internal/observability"
)

// Options tunes the update cycle. Zero values pick the defaults noted per field.
type Options struct {
	Interval       time.Duration   // default 1s
	ConnectDelay   time.Duration   // zero connects immediately
	PublishTimeout time.Duration   // default 2s
	PublishQueue   int             // updates buffered per publisher, default 8
	Clock          clockwork.Clock // default real clock
}

// sink feeds one publisher from its own goroutine. When the queue is full
// the oldest pending update is dropped.
type sink struct {
	name  string
	pub   Publisher
	queue chan Update
}

// Controller owns the history window and drives the periodic tick.
type Controller struct {
	gen     Generator
	eval    Evaluator
	window  *history.Window
	logger  *slog.Logger
	metrics *observability.Metrics

	clock          clockwork.Clock
	interval       time.Duration
	connectDelay   time.Duration
	publishTimeout time.Duration
	publishQueue   int

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	done   chan struct{}
	sinks  []*sink
	closed bool
	drains sync.WaitGroup

	ticks  atomic.Uint64
	latest atomic.Pointer[Update]
}

// New creates a stopped Controller. The window is owned by the controller
// from here on and must not be touched by the caller.
func New(gen Generator, eval Evaluator, window *history.Window, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Controller {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = 2 * time.Second
	}
	if opts.PublishQueue <= 0 {
		opts.PublishQueue = 8
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Controller{
		gen:            gen,
		eval:           eval,
		window:         window,
		logger:         logger,
		metrics:        metrics,
		clock:          opts.Clock,
		interval:       opts.Interval,
		connectDelay:   opts.ConnectDelay,
		publishTimeout: opts.PublishTimeout,
		publishQueue:   opts.PublishQueue,
	}
}

// Subscribe registers a publisher under a name used in logs and metrics.
// Each publisher receives updates in tick order on its own goroutine, so a
// slow or stuck publisher never delays the tick loop or other publishers.
// Subscribing after Close is a no-op.
func (c *Controller) Subscribe(name string, p Publisher) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		c.logger.Warn("subscribe after close ignored", "publisher", name)
		return
	}
	s := &sink{name: name, pub: p, queue: make(chan Update, c.publishQueue)}
	c.sinks = append(c.sinks, s)
	c.drains.Add(1)
	go c.drain(s)
}

// Start begins connecting and then ticking in a background goroutine. The
// loop runs until Stop is called or ctx is cancelled.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.done != nil {
		return ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	c.setStateLocked(StateConnecting)

	go c.run(runCtx, c.done)
	return nil
}

// Stop halts the tick loop and waits for it to exit. A tick already in
// progress completes first; no tick runs after Stop returns. Calling Stop on
// a stopped controller is a no-op.
func (c *Controller) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.mu.Unlock()

	if done == nil {
		return
	}
	cancel()
	<-done
}

// Close stops the tick loop, lets every publisher finish its queued updates
// and waits for them. A publisher that ignores its context delays Close by
// at most one PublishTimeout per queued update. Close is idempotent.
func (c *Controller) Close() {
	c.Stop()

	c.mu.Lock()
	if !c.closed {
		c.closed = true
		for _, s := range c.sinks {
			close(s.queue)
		}
	}
	c.mu.Unlock()

	c.drains.Wait()
}

// State returns the current connection state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Latest returns the most recent update, or ErrNoData before the first tick.
func (c *Controller) Latest() (Update, error) {
	u := c.latest.Load()
	if u == nil {
		return Update{}, ErrNoData
	}
	return u.Clone(), nil
}

// Status summarizes the controller state and history fill level.
func (c *Controller) Status() Status {
	s := Status{
		State:    c.State(),
		Ticks:    c.ticks.Load(),
		Capacity: c.window.Cap(),
		Interval: c.interval.String(),
	}
	if u := c.latest.Load(); u != nil {
		s.DataPoints = u.History.Len()
		ts := u.Reading.Timestamp
		s.LastUpdate = &ts
	}
	return s
}

// CheckReadiness returns nil once at least one tick has completed.
func (c *Controller) CheckReadiness(_ context.Context) error {
	if c.latest.Load() == nil {
		return errors.New("monitor has not produced any readings yet")
	}
	return nil
}

func (c *Controller) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer c.finish(done)

	c.logger.Info("monitor connecting", "delay", c.connectDelay)
	if c.connectDelay > 0 {
		select {
		case <-ctx.Done():
			c.logger.Info("monitor stopped while connecting", "reason", ctx.Err())
			return
		case <-c.clock.After(c.connectDelay):
		}
	}

	c.setState(StateConnected)
	c.logger.Info("monitor connected", "interval", c.interval)

	ticker := c.clock.NewTicker(c.interval)
	defer ticker.Stop()

	c.tick()
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("monitor stopping", "reason", ctx.Err())
			return
		case <-ticker.Chan():
			// Both channels may be ready; cancellation wins.
			if ctx.Err() != nil {
				return
			}
			c.tick()
		}
	}
}

// finish returns the controller to Disconnected and releases the run handle.
func (c *Controller) finish(done chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.done == done {
		c.cancel()
		c.cancel = nil
		c.done = nil
	}
	c.setStateLocked(StateDisconnected)
}

// tick runs one generate-evaluate-append-publish cycle.
func (c *Controller) tick() {
	start := time.Now()
	now := c.clock.Now()

	reading := c.gen.Generate(now)
	assessment := c.eval.Assess(reading)
	statuses := c.eval.Statuses(reading)

	c.window.Append(history.NewEntry(reading, assessment.Score))

	u := Update{
		ID:         uuid.NewString(),
		Sequence:   c.ticks.Add(1),
		Reading:    reading,
		Assessment: assessment,
		Statuses:   statuses,
		History:    c.window.Snapshot(),
	}
	c.latest.Store(&u)
	c.record(u)

	b := c.eval.Breakdown(reading)
	c.logger.Debug("tick processed",
		"sequence", u.Sequence,
		"wind_speed", reading.WindSpeed,
		"score", assessment.Score,
		"level", assessment.Level.String(),
		"wind_term", b.Wind,
		"precip_term", b.Precip,
		"flood_term", b.Flood,
		"vegetation_term", b.Vegetation,
		"grid_age_term", b.GridAge,
	)

	c.publish(u)
	c.metrics.TickDuration.Observe(time.Since(start).Seconds())
}

func (c *Controller) record(u Update) {
	c.metrics.TicksTotal.Inc()
	c.metrics.OutageRisk.Set(u.Assessment.Score)
	c.metrics.RiskLevels.WithLabelValues(u.Assessment.Level.String()).Inc()
	c.metrics.HistoryLength.Set(float64(u.History.Len()))
	for _, p := range domain.Parameters {
		v, _ := u.Reading.Value(p)
		c.metrics.ReadingValue.WithLabelValues(string(p)).Set(v)
	}
}

// publish queues an independent copy of the update for every publisher.
// It never blocks.
func (c *Controller) publish(u Update) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	for _, s := range c.sinks {
		if s.offer(u.Clone()) {
			c.metrics.PublishDrops.WithLabelValues(s.name).Inc()
			c.logger.Warn("publisher lagging, dropped oldest update", "publisher", s.name, "sequence", u.Sequence)
		}
	}
}

// offer enqueues u, evicting the oldest pending update when the queue is
// full. It reports whether an update was dropped. The tick goroutine is the
// only sender, so the retry loop terminates.
func (s *sink) offer(u Update) (dropped bool) {
	for {
		select {
		case s.queue <- u:
			return dropped
		default:
		}
		select {
		case <-s.queue:
			dropped = true
		default:
		}
	}
}

func (c *Controller) drain(s *sink) {
	defer c.drains.Done()
	for u := range s.queue {
		if err := c.publishTo(s, u); err != nil {
			c.metrics.PublishErrors.WithLabelValues(s.name).Inc()
			c.logger.Warn("publish failed", "publisher", s.name, "sequence", u.Sequence, "error", err)
		}
	}
}

// publishTo calls one publisher with its own deadline. Stopping the monitor
// does not cancel a publish already under way, and a panicking publisher is
// reported as an error.
func (c *Controller) publishTo(s *sink, u Update) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("publisher panic: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), c.publishTimeout)
	defer cancel()
	return s.pub.Publish(ctx, u)
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setStateLocked(s)
}

func (c *Controller) setStateLocked(s State) {
	if c.state != s {
		c.logger.Debug("monitor state changed", "from", c.state.String(), "to", s.String())
	}
	c.state = s
	c.metrics.MonitorState.Set(float64(s))
}
