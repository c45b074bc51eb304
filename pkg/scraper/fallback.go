package scraper

import (
	"time"

	"github.com/linkedin-scraper/pkg/storage"
)

// curatedWindow is how many of the newest curated posts take part in the
// daily rotation.
const curatedWindow = 3

// fallback builds the record used when live data cannot be trusted. With a
// curated posts file it shows one of the newest posts, rotating daily.
func (s *Scraper) fallback(at time.Time) *storage.ScrapeResult {
	fb := s.cfg.Fallback

	result := &storage.ScrapeResult{
		Name:     fb.Name,
		Headline: fb.Headline,
		Location: fb.Location,
		RecentActivity: []storage.ActivityItem{{
			ID:         "1",
			Content:    fb.Post,
			Type:       storage.ActivityTypePost,
			Date:       at.Format("2006-01-02"),
			HasComment: true,
		}},
		LastUpdated: at.Format(time.RFC3339),
		Note:        storage.NoteFallback,
	}

	if fb.CuratedFile == "" {
		return result
	}

	posts, err := s.store.LoadCuratedPosts(fb.CuratedFile)
	if err != nil {
		s.log.Warn("Curated posts unavailable: %v", err)
		return result
	}

	result.RecentActivity = []storage.ActivityItem{rotate(posts, at)}
	result.Note = storage.NoteCurated
	return result
}

// rotate picks one of the first curatedWindow posts by day of year.
func rotate(posts []storage.ActivityItem, at time.Time) storage.ActivityItem {
	if len(posts) > curatedWindow {
		posts = posts[:curatedWindow]
	}
	return posts[at.YearDay()%len(posts)]
}
