package engine

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// Runner is anything that performs a risk run.
type Runner interface {
	Run(ctx context.Context) (*Report, error)
}

// Guard serializes overlapping runs. A caller that arrives while a run is in
// flight waits for it and receives its report instead of starting a second
// delete-then-insert pass.
type Guard struct {
	runner Runner
	group  singleflight.Group
}

// NewGuard wraps runner with a single-flight guard.
func NewGuard(runner Runner) *Guard {
	return &Guard{runner: runner}
}

// Run starts a run or joins the one already in flight. shared is true when
// the report was produced for more than one caller. The in-flight run uses
// the context of the caller that started it.
func (g *Guard) Run(ctx context.Context) (report *Report, shared bool, err error) {
	v, err, shared := g.group.Do("run", func() (interface{}, error) {
		return g.runner.Run(ctx)
	})
	if err != nil {
		return nil, shared, err
	}
	return v.(*Report), shared, nil
}
