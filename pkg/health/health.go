// Package health runs one-shot dependency checks for a terminal: the state
// store, database connections and the product catalog.
//
// Checks run concurrently, each under its own timeout. A failing check never
// stops the others; results come back in registration order.
package health

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"
)

// CheckFunc is a health check function. It should return nil if the checked
// component is healthy, or an error describing the problem.
type CheckFunc func(ctx context.Context) error

type check struct {
	name    string
	timeout time.Duration
	fn      CheckFunc
}

// Result is the outcome of a single check.
type Result struct {
	Name     string
	Err      error
	Duration time.Duration
}

// OK reports whether the check passed.
func (r Result) OK() bool {
	return r.Err == nil
}

// Checker holds registered checks.
type Checker struct {
	mu     sync.Mutex
	checks []check
}

// New creates an empty Checker.
func New() *Checker {
	return &Checker{}
}

// Add registers a check. A non-positive timeout means the check is bounded
// only by the context passed to Run.
func (c *Checker) Add(name string, timeout time.Duration, fn CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks = append(c.checks, check{name: name, timeout: timeout, fn: fn})
}

// Len returns the number of registered checks.
func (c *Checker) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.checks)
}

// Run executes every check and returns their results.
func (c *Checker) Run(ctx context.Context) []Result {
	c.mu.Lock()
	checks := append([]check(nil), c.checks...)
	c.mu.Unlock()

	results := make([]Result, len(checks))
	var g errgroup.Group
	for i, ch := range checks {
		g.Go(func() error {
			results[i] = ch.run(ctx)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (ch check) run(ctx context.Context) (r Result) {
	r.Name = ch.name
	if ch.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ch.timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		r.Duration = time.Since(start)
		if p := recover(); p != nil {
			r.Err = errors.Errorf("panic: %v", p)
		}
	}()
	r.Err = ch.fn(ctx)
	return r
}

// Healthy reports whether all results passed.
func Healthy(results []Result) bool {
	for _, r := range results {
		if !r.OK() {
			return false
		}
	}
	return true
}

// Failures maps the name of every failed check to its error message.
func Failures(results []Result) map[string]string {
	failures := make(map[string]string)
	for _, r := range results {
		if !r.OK() {
			failures[r.Name] = r.Err.Error()
		}
	}
	return failures
}
