package stealth

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/linkedin-scraper/pkg/logger"
)

const (
	scrollToBottomScript = `() => {
		window.scrollTo(0, document.body.scrollHeight);
		return document.body.scrollHeight;
	}`
	scrollHeightScript = `() => document.body.scrollHeight`
)

// Executor runs a script in the page and returns its result as text.
type Executor interface {
	Execute(ctx context.Context, script string) (string, error)
}

// ScrollController issues the single scroll-to-bottom used to trigger lazy
// loading of the activity feed.
type ScrollController struct {
	timing *TimingController
	log    *logger.Logger
}

// ScrollReport describes one scroll attempt. Grew is only meaningful when
// both heights could be read.
type ScrollReport struct {
	HeightBefore int
	HeightAfter  int
	Measured     bool
	Grew         bool
}

func NewScrollController(timing *TimingController, log *logger.Logger) *ScrollController {
	return &ScrollController{
		timing: timing,
		log:    log.WithComponent("scroll"),
	}
}

// ScrollToBottom scrolls once, waits the scroll settle delay and reports
// whether the document got taller. It never scrolls a second time.
func (s *ScrollController) ScrollToBottom(ctx context.Context, page Executor) (ScrollReport, error) {
	var report ScrollReport

	before, err := page.Execute(ctx, scrollToBottomScript)
	if err != nil {
		return report, fmt.Errorf("scroll to bottom failed: %w", err)
	}

	if err := s.timing.SleepScroll(ctx); err != nil {
		return report, err
	}

	after, err := page.Execute(ctx, scrollHeightScript)
	if err != nil {
		s.log.Debug("Could not read scroll height after scrolling: %v", err)
		return report, nil
	}

	hb, errBefore := parseHeight(before)
	ha, errAfter := parseHeight(after)
	if errBefore != nil || errAfter != nil {
		s.log.Debug("Scroll height not measurable (before=%q after=%q)", before, after)
		return report, nil
	}

	report = ScrollReport{
		HeightBefore: hb,
		HeightAfter:  ha,
		Measured:     true,
		Grew:         ha > hb,
	}

	if report.Grew {
		s.log.Debug("Lazy load grew the page from %d to %d px", hb, ha)
	} else {
		s.log.Debug("Page height unchanged after scroll (%d px)", hb)
	}

	return report, nil
}

func parseHeight(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return int(f), nil
	}
	return 0, fmt.Errorf("not a height: %q", raw)
}
