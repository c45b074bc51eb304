package extract

import (
	"context"
	"fmt"

	"github.com/linkedin-scraper/pkg/config"
	"github.com/linkedin-scraper/pkg/logger"
	"github.com/linkedin-scraper/pkg/stealth"
	"github.com/linkedin-scraper/pkg/storage"
)

type ProfileExtractor struct {
	page     Page
	timing   *stealth.TimingController
	name     Cascade
	headline Cascade
	location Cascade
	defaults config.ProfileDefaults
	log      *logger.Logger
}

func NewProfileExtractor(page Page, timing *stealth.TimingController, selectors config.SelectorConfig, defaults config.ProfileDefaults, log *logger.Logger) *ProfileExtractor {
	return &ProfileExtractor{
		page:     page,
		timing:   timing,
		name:     Cascade{Field: "name", Selectors: selectors.Name},
		headline: Cascade{Field: "headline", Selectors: selectors.Headline},
		location: Cascade{Field: "location", Selectors: selectors.Location},
		defaults: defaults,
		log:      log.WithComponent("profile"),
	}
}

// Extract loads the profile and fills each field from its own cascade.
// Fields that find nothing keep their defaults, so live and default values
// may be mixed. If the page cannot be loaded the defaults are returned
// together with an ErrNavigate error.
func (e *ProfileExtractor) Extract(ctx context.Context, profileURL string) (storage.ProfileInfo, error) {
	info := storage.ProfileInfo{
		Name:     e.defaults.Name,
		Headline: e.defaults.Headline,
		Location: e.defaults.Location,
	}

	log := e.log.WithField("url", profileURL)
	log.Info("Reading profile info")

	if err := e.page.Navigate(ctx, profileURL); err != nil {
		return info, fmt.Errorf("%w: profile: %v", ErrNavigate, err)
	}

	if err := e.timing.SleepProfile(ctx); err != nil {
		return info, err
	}

	fields := []struct {
		cascade Cascade
		target  *string
	}{
		{e.name, &info.Name},
		{e.headline, &info.Headline},
		{e.location, &info.Location},
	}

	for _, f := range fields {
		text, selector, ok := f.cascade.FirstText(ctx, e.page, log)
		if !ok {
			log.Debug("No %s found, keeping default %q", f.cascade.Field, *f.target)
			continue
		}
		log.Debug("%s taken from %s", f.cascade.Field, selector)
		*f.target = text
	}

	return info, nil
}
