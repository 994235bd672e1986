package publisher

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"backoffice-core/pkg/logger"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// AntiDetectConfig tunes the human-behavior simulation. All delays are in
// seconds in the config file.
type AntiDetectConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	MicroDelayMin     time.Duration `mapstructure:"micro_delay_min"`
	MicroDelayMax     time.Duration `mapstructure:"micro_delay_max"`
	StaySuccessMin    time.Duration `mapstructure:"stay_success_min"`
	StaySuccessMax    time.Duration `mapstructure:"stay_success_max"`
	StayFailureMin    time.Duration `mapstructure:"stay_failure_min"`
	StayFailureMax    time.Duration `mapstructure:"stay_failure_max"`
	VerifyMinInterval time.Duration `mapstructure:"verify_min_interval"`
}

// DefaultAntiDetectConfig mirrors observed human pacing.
func DefaultAntiDetectConfig() AntiDetectConfig {
	return AntiDetectConfig{
		Enabled:           true,
		MicroDelayMin:     1 * time.Second,
		MicroDelayMax:     3 * time.Second,
		StaySuccessMin:    5 * time.Second,
		StaySuccessMax:    8 * time.Second,
		StayFailureMin:    2 * time.Second,
		StayFailureMax:    4 * time.Second,
		VerifyMinInterval: 5 * time.Minute,
	}
}

// AntiDetect paces browser interactions. When disabled every method is a
// no-op so tests and trusted environments skip the waits.
type AntiDetect struct {
	cfg    AntiDetectConfig
	logger *logger.Logger
}

// NewAntiDetect creates a new AntiDetect.
func NewAntiDetect(cfg AntiDetectConfig, log *logger.Logger) *AntiDetect {
	return &AntiDetect{cfg: cfg, logger: log}
}

// MicroDelay sleeps a random 1 to 3 seconds between page interactions.
func (a *AntiDetect) MicroDelay(ctx context.Context) {
	if !a.cfg.Enabled {
		return
	}
	a.sleep(ctx, a.cfg.MicroDelayMin, a.cfg.MicroDelayMax)
}

// StayAfterVerify lingers on the page after a verification, longer on
// success so a logged-in session looks browsed.
func (a *AntiDetect) StayAfterVerify(ctx context.Context, success bool) {
	if !a.cfg.Enabled {
		return
	}
	if success {
		a.sleep(ctx, a.cfg.StaySuccessMin, a.cfg.StaySuccessMax)
		return
	}
	a.sleep(ctx, a.cfg.StayFailureMin, a.cfg.StayFailureMax)
}

// ScrollJitter performs 1 to 3 viewport scrolls with 0.5 to 1.5 s pauses.
func (a *AntiDetect) ScrollJitter(ctx context.Context, page *rod.Page) {
	if !a.cfg.Enabled || page == nil {
		return
	}
	n := 1 + rand.Intn(3)
	for i := 0; i < n; i++ {
		if _, err := page.Eval(`() => window.scrollBy(0, window.innerHeight * 0.6)`); err != nil {
			a.logger.Debug("scroll jitter failed", logger.ErrorField(err))
			return
		}
		a.sleep(ctx, 500*time.Millisecond, 1500*time.Millisecond)
	}
}

// MouseJitter moves the cursor through 2 to 4 random points with 0.3 to
// 0.8 s pauses.
func (a *AntiDetect) MouseJitter(ctx context.Context, page *rod.Page) {
	if !a.cfg.Enabled || page == nil {
		return
	}
	n := 2 + rand.Intn(3)
	for i := 0; i < n; i++ {
		x := float64(100 + rand.Intn(800))
		y := float64(100 + rand.Intn(500))
		if err := page.Mouse.MoveTo(proto.Point{X: x, Y: y}); err != nil {
			a.logger.Debug("mouse jitter failed", logger.ErrorField(err))
			return
		}
		a.sleep(ctx, 300*time.Millisecond, 800*time.Millisecond)
	}
}

// CheckVerifyInterval enforces the per-account verification rate limit
// before any browser work starts.
func (a *AntiDetect) CheckVerifyInterval(lastVerifiedAt *time.Time, now time.Time) error {
	if !a.cfg.Enabled {
		return nil
	}
	wait := verifyWaitSeconds(lastVerifiedAt, now, a.cfg.VerifyMinInterval)
	if wait > 0 {
		return fmt.Errorf("验证过于频繁，请等待 %d 秒后再试", wait)
	}
	return nil
}

// verifyWaitSeconds returns how many whole seconds remain before the next
// verification is allowed, zero when allowed now.
func verifyWaitSeconds(lastVerifiedAt *time.Time, now time.Time, minInterval time.Duration) int {
	if lastVerifiedAt == nil {
		return 0
	}
	elapsed := now.Sub(*lastVerifiedAt)
	if elapsed >= minInterval {
		return 0
	}
	return int((minInterval - elapsed).Seconds())
}

func (a *AntiDetect) sleep(ctx context.Context, min, max time.Duration) {
	d := min
	if max > min {
		d += time.Duration(rand.Int63n(int64(max - min)))
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}
