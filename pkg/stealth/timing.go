package stealth

import (
	"context"
	"math/rand"
	"time"

	"github.com/linkedin-scraper/pkg/config"
	"github.com/linkedin-scraper/pkg/logger"
)

// TimingController owns the fixed settle delays between pipeline steps.
// With HumanVariation > 0 each delay is stretched by up to that fraction.
type TimingController struct {
	config *config.TimingConfig
	log    *logger.Logger
	rand   *rand.Rand
}

func NewTimingController(cfg *config.TimingConfig, log *logger.Logger) *TimingController {
	return &TimingController{
		config: cfg,
		log:    log.WithComponent("timing"),
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NoDelay returns a controller whose settle delays are all zero.
func NoDelay(log *logger.Logger) *TimingController {
	return NewTimingController(&config.TimingConfig{}, log)
}

func (t *TimingController) withVariation(base time.Duration) time.Duration {
	if base <= 0 || t.config.HumanVariation <= 0 {
		return base
	}
	variation := time.Duration(float64(base) * t.config.HumanVariation * t.rand.Float64())
	return base + variation
}

func (t *TimingController) ProfileDelay() time.Duration {
	return t.withVariation(time.Duration(t.config.ProfileSettle))
}

func (t *TimingController) LoginDelay() time.Duration {
	return t.withVariation(time.Duration(t.config.LoginSettle))
}

func (t *TimingController) ActivityDelay() time.Duration {
	return t.withVariation(time.Duration(t.config.ActivitySettle))
}

func (t *TimingController) ScrollDelay() time.Duration {
	return t.withVariation(time.Duration(t.config.ScrollSettle))
}

func (t *TimingController) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (t *TimingController) SleepProfile(ctx context.Context) error {
	return t.Sleep(ctx, t.ProfileDelay())
}

func (t *TimingController) SleepLogin(ctx context.Context) error {
	return t.Sleep(ctx, t.LoginDelay())
}

func (t *TimingController) SleepActivity(ctx context.Context) error {
	return t.Sleep(ctx, t.ActivityDelay())
}

func (t *TimingController) SleepScroll(ctx context.Context) error {
	return t.Sleep(ctx, t.ScrollDelay())
}
