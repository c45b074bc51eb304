package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/linkedin-scraper/pkg/auth"
	"github.com/linkedin-scraper/pkg/config"
	"github.com/linkedin-scraper/pkg/extract"
	"github.com/linkedin-scraper/pkg/htmlpage"
	"github.com/linkedin-scraper/pkg/logger"
	"github.com/linkedin-scraper/pkg/stealth"
	"github.com/linkedin-scraper/pkg/storage"
)

var (
	// ErrSessionInit means no browser session could be opened.
	ErrSessionInit = errors.New("session initialization failed")
	// ErrPipeline wraps a panic recovered from the extraction steps or the
	// cancellation of a run that already had a session.
	ErrPipeline = errors.New("scrape pipeline failed")
)

// Session is a live browser session: element lookup for the extractors,
// form input for login, and a Close that must be called exactly once.
type Session interface {
	extract.Page
	auth.Page
	Close() error
}

// OpenFunc acquires the session for a run.
type OpenFunc func(ctx context.Context) (Session, error)

type Options struct {
	Config *config.Config
	Open   OpenFunc
	Store  *storage.Storage
	Logger *logger.Logger
	// Now is the run clock; defaults to time.Now.
	Now func() time.Time
	// HTTPClient is used by the public HTML source.
	HTTPClient *http.Client
}

type Scraper struct {
	cfg    *config.Config
	open   OpenFunc
	store  *storage.Storage
	now    func() time.Time
	client *http.Client
	log    *logger.Logger
}

func New(opts Options) *Scraper {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}

	store := opts.Store
	if store == nil {
		store = storage.New(log)
	}

	runLog := log.WithComponent("scraper").WithFields(map[string]interface{}{
		"profile":   opts.Config.Profile.URL,
		"max_posts": opts.Config.Profile.MaxPosts,
	})

	return &Scraper{
		cfg:    opts.Config,
		open:   opts.Open,
		store:  store,
		now:    now,
		client: opts.HTTPClient,
		log:    runLog,
	}
}

// Run collects a result and writes it to the configured output path. The
// returned result is valid even when the write fails.
func (s *Scraper) Run(ctx context.Context) (*storage.ScrapeResult, error) {
	result := s.Collect(ctx)

	if err := s.store.WriteResult(s.cfg.Output.Path, result); err != nil {
		return result, fmt.Errorf("failed to write result: %w", err)
	}

	s.log.Info("Data saved to %s", s.cfg.Output.Path)
	return result, nil
}

// Collect always returns a complete result. Live data is used only when
// the session opened and the pipeline finished; otherwise the public
// source (if enabled) and then the fallback record are used.
func (s *Scraper) Collect(ctx context.Context) *storage.ScrapeResult {
	started := s.now()

	result, err := s.scrapeSession(ctx, started)
	if err == nil {
		return result
	}

	s.log.Error("Browser scraping failed: %v", err)

	if errors.Is(err, ErrSessionInit) && s.cfg.Public.Enabled {
		result, err := s.scrapePublic(ctx, started)
		if err == nil {
			return result
		}
		s.log.Warn("Public profile scraping failed: %v", err)
	}

	return s.fallback(started)
}

func (s *Scraper) scrapeSession(ctx context.Context, started time.Time) (result *storage.ScrapeResult, err error) {
	if s.open == nil {
		return nil, fmt.Errorf("%w: no session opener configured", ErrSessionInit)
	}

	session, err := s.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionInit, err)
	}
	if session == nil {
		return nil, fmt.Errorf("%w: opener returned no session", ErrSessionInit)
	}

	defer func() {
		if cerr := session.Close(); cerr != nil {
			s.log.Warn("Failed to close browser session: %v", cerr)
		}
	}()

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: %v", ErrPipeline, r)
		}
	}()

	timing := stealth.NewTimingController(&s.cfg.Timing, s.log)

	s.authenticate(ctx, session, timing)

	info, perr := s.profileExtractor(session, timing).Extract(ctx, s.cfg.Profile.URL)
	if perr != nil {
		s.log.Warn("Profile step failed, keeping defaults: %v", perr)
	}

	items, aerr := s.activityExtractor(session, timing).Extract(ctx, s.cfg.Profile.URL, s.cfg.Profile.MaxPosts)
	if aerr != nil {
		s.log.Warn("Activity step failed, no posts collected: %v", aerr)
	}

	// A cancelled run leaves steps half done; none of it is kept.
	if cerr := ctx.Err(); cerr != nil {
		return nil, fmt.Errorf("%w: %w", ErrPipeline, cerr)
	}

	return s.assemble(info, items, started, storage.NoteScraped), nil
}

// scrapePublic reads the profile from its public HTML. Unlike the browser
// path a profile page that cannot be loaded fails the source.
func (s *Scraper) scrapePublic(ctx context.Context, started time.Time) (*storage.ScrapeResult, error) {
	s.log.Info("Trying public profile HTML")

	if s.cfg.Public.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.Public.Timeout))
		defer cancel()
	}

	page := htmlpage.New(s.client, s.cfg.Browser.UserAgent, s.log)
	defer page.Close()

	timing := stealth.NoDelay(s.log)

	info, err := s.profileExtractor(page, timing).Extract(ctx, s.cfg.Profile.URL)
	if err != nil {
		return nil, err
	}

	items, err := s.activityExtractor(page, timing).Extract(ctx, s.cfg.Profile.URL, s.cfg.Profile.MaxPosts)
	if err != nil {
		s.log.Debug("Public activity feed unavailable: %v", err)
	}

	return s.assemble(info, items, started, storage.NotePublic), nil
}

func (s *Scraper) authenticate(ctx context.Context, page auth.Page, timing *stealth.TimingController) {
	if !s.cfg.HasCredentials() {
		s.log.Info("No credentials provided, attempting public scraping")
		return
	}

	creds := auth.Credentials{Email: s.cfg.LinkedIn.Email, Password: s.cfg.LinkedIn.Password}
	result := auth.New(page, timing, s.cfg.LinkedIn.LoginURL, s.log).Login(ctx, creds)
	if !result.Success {
		s.log.Warn("Login failed, continuing without login: %s", result.Message)
	}
}

func (s *Scraper) profileExtractor(page extract.Page, timing *stealth.TimingController) *extract.ProfileExtractor {
	return extract.NewProfileExtractor(page, timing, s.cfg.Selectors, s.cfg.Defaults, s.log)
}

func (s *Scraper) activityExtractor(page extract.Page, timing *stealth.TimingController) *extract.ActivityExtractor {
	return extract.NewActivityExtractor(extract.ActivityOptions{
		Page:      page,
		Timing:    timing,
		Selectors: s.cfg.Selectors.Posts,
		Filter:    s.cfg.Filter,
		Suffix:    s.cfg.Profile.ActivitySuffix,
		Now:       func() time.Time { return s.now() },
		Logger:    s.log,
	})
}

func (s *Scraper) assemble(info storage.ProfileInfo, items []storage.ActivityItem, at time.Time, note string) *storage.ScrapeResult {
	if items == nil {
		items = []storage.ActivityItem{}
	}

	return &storage.ScrapeResult{
		Name:           info.Name,
		Headline:       info.Headline,
		Location:       info.Location,
		RecentActivity: items,
		LastUpdated:    at.Format(time.RFC3339),
		Note:           note,
	}
}
