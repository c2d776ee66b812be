package engine

import (
	"context"
	"time"
)

// Stepper advances the simulation by one fixed step of dt seconds.
// Returning false stops the loop.
type Stepper interface {
	Step(dt float64) bool
}

// StepperFunc adapts a function to Stepper.
type StepperFunc func(dt float64) bool

// Step calls f.
func (f StepperFunc) Step(dt float64) bool { return f(dt) }

// Loop runs a Stepper on a fixed timestep.
//
// In realtime mode each frame measures the wall-clock delta, polls, steps the
// simulation while the accumulated time covers a frame, renders and then
// sleeps until the frame time has passed. Headless mode steps once per frame
// with the fixed timestep and never sleeps.
type Loop struct {
	FrameTime    time.Duration
	MaxFrameTime time.Duration // caps the accumulated time per frame; 0 means no cap
	Headless     bool

	// Poll is called once per realtime frame with the frame delta in
	// seconds. Returning false stops the loop.
	Poll func(delta float64) bool
	// Render is called once per realtime frame after stepping.
	Render func()

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration)

	frames int64
	steps  int64
}

// NewLoop creates a loop with the given fixed frame time.
func NewLoop(frameTime time.Duration, headless bool) *Loop {
	return &Loop{
		FrameTime: frameTime,
		Headless:  headless,
		now:       time.Now,
		sleep:     sleepCtx,
	}
}

// Run drives s until it returns false, Poll returns false or ctx is done.
// It returns ctx.Err() when stopped by the context and nil otherwise.
func (l *Loop) Run(ctx context.Context, s Stepper) error {
	if l.Headless {
		return l.runHeadless(ctx, s)
	}
	return l.runRealtime(ctx, s)
}

func (l *Loop) runHeadless(ctx context.Context, s Stepper) error {
	dt := l.FrameTime.Seconds()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		l.frames++
		l.steps++
		if !s.Step(dt) {
			return nil
		}
	}
}

func (l *Loop) runRealtime(ctx context.Context, s Stepper) error {
	dt := l.FrameTime.Seconds()
	previous := l.now()
	var accumulated time.Duration

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		frameStart := l.now()
		delta := frameStart.Sub(previous)
		previous = frameStart
		accumulated += delta
		if l.MaxFrameTime > 0 && accumulated > l.MaxFrameTime {
			accumulated = l.MaxFrameTime
		}
		l.frames++

		if l.Poll != nil && !l.Poll(delta.Seconds()) {
			return nil
		}

		for accumulated >= l.FrameTime {
			l.steps++
			if !s.Step(dt) {
				return nil
			}
			accumulated -= l.FrameTime
		}

		if l.Render != nil {
			l.Render()
		}

		l.sync(ctx, frameStart)
	}
}

// sync waits until a frame time has passed since frameStart.
func (l *Loop) sync(ctx context.Context, frameStart time.Time) {
	remaining := l.FrameTime - l.now().Sub(frameStart)
	if remaining > 0 {
		l.sleep(ctx, remaining)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// Frames returns the number of frames run.
func (l *Loop) Frames() int64 {
	return l.frames
}

// Steps returns the number of simulation steps run.
func (l *Loop) Steps() int64 {
	return l.steps
}
