package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/linkedin-scraper/pkg/config"
	"github.com/linkedin-scraper/pkg/logger"
	"github.com/linkedin-scraper/pkg/stealth"
	"github.com/linkedin-scraper/pkg/storage"
)

const dateLayout = "2006-01-02"

// ActivityURL derives the recent-activity feed URL of a profile.
func ActivityURL(profileURL, suffix string) string {
	return strings.TrimRight(profileURL, "/") + suffix
}

type ActivityExtractor struct {
	page   Page
	timing *stealth.TimingController
	scroll *stealth.ScrollController
	posts  Cascade
	filter PostFilter
	suffix string
	now    func() time.Time
	log    *logger.Logger
}

type ActivityOptions struct {
	Page      Page
	Timing    *stealth.TimingController
	Selectors []string
	Filter    config.FilterConfig
	Suffix    string
	// Now stamps item dates; defaults to time.Now.
	Now    func() time.Time
	Logger *logger.Logger
}

func NewActivityExtractor(opts ActivityOptions) *ActivityExtractor {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	log := opts.Logger.WithComponent("activity")

	return &ActivityExtractor{
		page:   opts.Page,
		timing: opts.Timing,
		scroll: stealth.NewScrollController(opts.Timing, log),
		posts:  Cascade{Field: "posts", Selectors: opts.Selectors},
		filter: NewPostFilter(opts.Filter),
		suffix: opts.Suffix,
		now:    now,
		log:    log,
	}
}

// Extract returns up to maxPosts authored posts from the profile's activity
// feed. The slice is never nil. A navigation failure returns an empty
// slice and an ErrNavigate error; a failed scroll is logged and the
// current page is read as is.
func (e *ActivityExtractor) Extract(ctx context.Context, profileURL string, maxPosts int) ([]storage.ActivityItem, error) {
	items := []storage.ActivityItem{}
	if maxPosts <= 0 {
		return items, nil
	}

	activityURL := ActivityURL(profileURL, e.suffix)
	log := e.log.WithField("url", activityURL)
	log.Info("Reading recent activity")

	if err := e.page.Navigate(ctx, activityURL); err != nil {
		return items, fmt.Errorf("%w: activity: %v", ErrNavigate, err)
	}

	if err := e.timing.SleepActivity(ctx); err != nil {
		return items, err
	}

	report, err := e.scroll.ScrollToBottom(ctx, e.page)
	if err != nil {
		if ctx.Err() != nil {
			return items, ctx.Err()
		}
		log.Warn("Scroll failed, reading what is loaded: %v", err)
	} else if report.Measured && !report.Grew {
		log.Info("No new content loaded after scrolling")
	}

	selector, elements := e.posts.First(ctx, e.page, log)
	if len(elements) == 0 {
		log.Info("No post containers matched")
		return items, nil
	}

	log.Info("Found %d posts using selector: %s", len(elements), selector)

	if len(elements) > maxPosts {
		elements = elements[:maxPosts]
	}

	date := e.now().Format(dateLayout)

	for i, el := range elements {
		text, err := el.Text()
		if err != nil {
			log.Warn("Error processing post %d: %v", i, err)
			continue
		}

		text = strings.TrimSpace(text)
		if !e.filter.Accept(text) {
			continue
		}

		items = append(items, storage.ActivityItem{
			ID:         fmt.Sprintf("activity-%d", i),
			Content:    e.filter.Truncate(text),
			Type:       storage.ActivityTypePost,
			Date:       date,
			HasComment: true,
		})

		if len(items) >= maxPosts {
			break
		}
	}

	log.Info("Collected %d recent posts", len(items))
	return items, nil
}
