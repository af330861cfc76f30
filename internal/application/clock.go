package application

import (
	"context"
	"math/rand/v2"
	"time"
)

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

// PauseFunc blocks before a pipeline's request. It returns ctx.Err() if the
// context ends first.
type PauseFunc func(ctx context.Context) error

// UniformPause sleeps a duration drawn uniformly from [min, max].
func UniformPause(min, max time.Duration) PauseFunc {
	return func(ctx context.Context) error {
		d := min
		if max > min {
			d += rand.N(max - min + 1)
		}
		if d <= 0 {
			return ctx.Err()
		}
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			return nil
		}
	}
}

func noPause(ctx context.Context) error { return ctx.Err() }
