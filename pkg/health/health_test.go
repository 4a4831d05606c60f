package health

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passingCheck() CheckFunc {
	return func(_ context.Context) error {
		return nil
	}
}

func failingCheck(msg string) CheckFunc {
	return func(_ context.Context) error {
		return errors.New(msg)
	}
}

func TestRun_AllPassing(t *testing.T) {
	c := New()
	c.Add("store", time.Second, passingCheck())
	c.Add("catalog", time.Second, passingCheck())

	results := c.Run(context.Background())
	require.Len(t, results, 2)
	assert.Equal(t, "store", results[0].Name)
	assert.Equal(t, "catalog", results[1].Name)
	assert.True(t, Healthy(results))
	assert.Empty(t, Failures(results))
}

func TestRun_OneFailing(t *testing.T) {
	c := New()
	c.Add("db", time.Second, failingCheck("connection refused"))
	c.Add("store", time.Second, passingCheck())

	results := c.Run(context.Background())
	require.Len(t, results, 2)
	assert.False(t, results[0].OK())
	assert.True(t, results[1].OK())
	assert.False(t, Healthy(results))
	assert.Equal(t, map[string]string{"db": "connection refused"}, Failures(results))
}

func TestRun_Timeout(t *testing.T) {
	c := New()
	c.Add("slow", 10*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	results := c.Run(context.Background())
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, context.DeadlineExceeded)
}

func TestRun_NoTimeout(t *testing.T) {
	c := New()
	c.Add("unbounded", 0, func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		if ok {
			return errors.New("unexpected deadline")
		}
		return nil
	})
	assert.True(t, Healthy(c.Run(context.Background())))
}

func TestRun_Panic(t *testing.T) {
	c := New()
	c.Add("broken", time.Second, func(context.Context) error {
		panic("boom")
	})

	results := c.Run(context.Background())
	require.Len(t, results, 1)
	assert.EqualError(t, results[0].Err, "panic: boom")
}

func TestRun_Concurrent(t *testing.T) {
	var running, peak atomic.Int32
	release := make(chan struct{})
	c := New()
	for range 3 {
		c.Add("wait", time.Second, func(ctx context.Context) error {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			if n == 3 {
				close(release)
			}
			select {
			case <-release:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		})
	}

	results := c.Run(context.Background())
	assert.True(t, Healthy(results))
	assert.Equal(t, int32(3), peak.Load())
}

func TestRun_Empty(t *testing.T) {
	c := New()
	assert.Zero(t, c.Len())
	results := c.Run(context.Background())
	assert.Empty(t, results)
	assert.True(t, Healthy(results))
}
