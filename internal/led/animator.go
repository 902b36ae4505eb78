package led

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/smazurov/climalight/internal/metrics"
	"github.com/smazurov/climalight/internal/state"
)

// Timing holds the animator's periods.
type Timing struct {
	// Tick is the refresh period for the steady modes (off, solid).
	Tick time.Duration
	// SlowPhase is how long each on/off phase lasts in slow blink.
	SlowPhase time.Duration
	// FastPhase is how long each on/off phase lasts in fast blink.
	FastPhase time.Duration
}

// DefaultTiming returns 100ms ticks, 500ms slow phases and 150ms fast phases.
func DefaultTiming() Timing {
	return Timing{
		Tick:      100 * time.Millisecond,
		SlowPhase: 500 * time.Millisecond,
		FastPhase: 150 * time.Millisecond,
	}
}

// displayErrorLogEvery limits how often repeated display failures are logged.
const displayErrorLogEvery = 100

// Animator renders the shared mode and color onto a Display.
type Animator struct {
	store   *state.Store
	display Display
	timing  Timing
	logger  *slog.Logger

	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration) bool
	sleepUntil func(ctx context.Context, t time.Time) bool

	nextTick      time.Time
	blinkMode     state.Mode
	phaseOn       bool
	displayErrors uint64

	// lastFrame is read by other goroutines through Alive.
	lastFrame atomic.Int64
}

// NewAnimator creates an animator. Zero Timing fields take their defaults.
func NewAnimator(store *state.Store, display Display, timing Timing, logger *slog.Logger) *Animator {
	def := DefaultTiming()
	if timing.Tick <= 0 {
		timing.Tick = def.Tick
	}
	if timing.SlowPhase <= 0 {
		timing.SlowPhase = def.SlowPhase
	}
	if timing.FastPhase <= 0 {
		timing.FastPhase = def.FastPhase
	}

	return &Animator{
		store:      store,
		display:    display,
		timing:     timing,
		logger:     logger,
		now:        time.Now,
		sleep:      sleepContext,
		sleepUntil: sleepUntilContext,
	}
}

// Run renders until ctx is cancelled.
func (a *Animator) Run(ctx context.Context) {
	a.logger.Info("LED animator started",
		"tick", a.timing.Tick,
		"slow_phase", a.timing.SlowPhase,
		"fast_phase", a.timing.FastPhase)

	for a.step(ctx) {
	}

	a.logger.Info("LED animator stopped")
}

// step renders one frame (or one blink phase) and waits for the next.
// It returns false once ctx is cancelled.
func (a *Animator) step(ctx context.Context) bool {
	mode, color := a.store.View()
	a.lastFrame.Store(a.now().UnixNano())

	switch mode {
	case state.ModeSlowBlink, state.ModeFastBlink:
		if mode != a.blinkMode {
			a.blinkMode = mode
			a.phaseOn = true
		}
		a.render(a.phaseOn, color)
		a.phaseOn = !a.phaseOn

		phase := a.timing.SlowPhase
		if mode == state.ModeFastBlink {
			phase = a.timing.FastPhase
		}
		return a.sleep(ctx, phase)

	default:
		a.blinkMode = state.ModeOff
		a.render(mode == state.ModeSolid, color)
		return a.waitTick(ctx)
	}
}

// Alive reports whether a frame was rendered within maxAge. It is false
// before the first frame.
func (a *Animator) Alive(maxAge time.Duration) bool {
	last := a.lastFrame.Load()
	if last == 0 {
		return false
	}
	return a.now().Sub(time.Unix(0, last)) <= maxAge
}

// waitTick sleeps until the next absolute tick deadline. A deadline that
// has already passed restarts the schedule from now.
func (a *Animator) waitTick(ctx context.Context) bool {
	now := a.now()
	next := a.nextTick.Add(a.timing.Tick)
	if a.nextTick.IsZero() || !next.After(now) {
		next = now.Add(a.timing.Tick)
	}
	a.nextTick = next
	return a.sleepUntil(ctx, next)
}

func (a *Animator) render(on bool, color state.Color) {
	var err error
	if on {
		err = a.display.Fill(color)
	} else {
		err = a.display.Clear()
	}
	if err == nil {
		err = a.display.Show()
	}
	if err != nil {
		a.displayError(err)
	}
}

func (a *Animator) displayError(err error) {
	a.displayErrors++
	metrics.IncDisplayError()
	if a.displayErrors == 1 || a.displayErrors%displayErrorLogEvery == 0 {
		a.logger.Warn("LED display write failed", "error", err, "failures", a.displayErrors)
	}
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func sleepUntilContext(ctx context.Context, t time.Time) bool {
	return sleepContext(ctx, time.Until(t))
}
