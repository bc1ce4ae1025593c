package health

import (
	"context"
	"sync"
	"time"

	"github.com/jonwraymond/tokenauth/observe"
)

// AggregatorConfig configures the health aggregator.
type AggregatorConfig struct {
	// Timeout bounds a full round of checks.
	// Default: 5 seconds
	Timeout time.Duration

	// Logger records overall status transitions. Optional.
	Logger observe.Logger
}

// Report is the outcome of running every registered check.
type Report struct {
	Status    Status
	Checks    map[string]Result
	Timestamp time.Time
}

// Aggregator runs registered checkers concurrently and folds their results.
type Aggregator struct {
	config AggregatorConfig

	mu       sync.RWMutex
	checkers map[string]Checker
	order    []string
	last     Status
	seen     bool
}

// NewAggregator creates a new health aggregator.
func NewAggregator(config AggregatorConfig) *Aggregator {
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}
	if config.Logger == nil {
		config.Logger = observe.NoopLogger()
	}
	return &Aggregator{
		config:   config,
		checkers: make(map[string]Checker),
	}
}

// Register adds checker under its own name, replacing any previous checker
// with that name.
func (a *Aggregator) Register(checker Checker) {
	a.mu.Lock()
	defer a.mu.Unlock()

	name := checker.Name()
	if _, exists := a.checkers[name]; !exists {
		a.order = append(a.order, name)
	}
	a.checkers[name] = checker
}

// Unregister removes the named checker.
func (a *Aggregator) Unregister(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.checkers[name]; !ok {
		return
	}
	delete(a.checkers, name)
	for i, n := range a.order {
		if n == name {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
}

// Names returns registered checker names in registration order.
func (a *Aggregator) Names() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]string(nil), a.order...)
}

// Check runs the named checker.
func (a *Aggregator) Check(ctx context.Context, name string) (Result, error) {
	a.mu.RLock()
	checker, ok := a.checkers[name]
	a.mu.RUnlock()
	if !ok {
		return Result{}, ErrCheckerNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()
	return run(ctx, checker), nil
}

// Report runs every checker concurrently. An empty aggregator is healthy.
func (a *Aggregator) Report(ctx context.Context) Report {
	a.mu.RLock()
	checkers := make([]Checker, 0, len(a.order))
	for _, name := range a.order {
		checkers = append(checkers, a.checkers[name])
	}
	a.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	results := make([]Result, len(checkers))
	var wg sync.WaitGroup
	for i, checker := range checkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = run(ctx, checker)
		}()
	}
	wg.Wait()

	report := Report{
		Status:    StatusHealthy,
		Checks:    make(map[string]Result, len(checkers)),
		Timestamp: time.Now(),
	}
	for i, checker := range checkers {
		report.Checks[checker.Name()] = results[i]
		report.Status = report.Status.Worse(results[i].Status)
	}

	a.recordTransition(ctx, report.Status)
	return report
}

func (a *Aggregator) recordTransition(ctx context.Context, status Status) {
	a.mu.Lock()
	prev, seen := a.last, a.seen
	a.last, a.seen = status, true
	a.mu.Unlock()

	if seen && prev == status {
		return
	}
	fields := []observe.Field{observe.F("status", status.String())}
	if seen {
		fields = append(fields, observe.F("previous", prev.String()))
	}
	if status == StatusUnhealthy {
		a.config.Logger.Warn(ctx, "health status changed", fields...)
		return
	}
	a.config.Logger.Info(ctx, "health status changed", fields...)
}

func run(ctx context.Context, checker Checker) Result {
	start := time.Now()
	done := make(chan Result, 1)

	go func() {
		done <- checker.Check(ctx)
	}()

	var result Result
	select {
	case result = <-done:
	case <-ctx.Done():
		result = Unhealthy("check timed out", ErrCheckTimeout)
	}

	result.Duration = time.Since(start)
	if result.Timestamp.IsZero() {
		result.Timestamp = start
	}
	return result
}
