package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/linkedin-scraper/pkg/logger"
)

const (
	NoteScraped  = "Scraped with headless browser session"
	NotePublic   = "Scraped from public profile HTML"
	NoteCurated  = "Using curated content - browser scraping failed"
	NoteFallback = "Using fallback content - browser scraping failed"

	ActivityTypePost = "post"
)

type ProfileInfo struct {
	Name     string `json:"name"`
	Headline string `json:"headline"`
	Location string `json:"location"`
}

type ActivityItem struct {
	ID         string `json:"id"`
	Content    string `json:"content"`
	Type       string `json:"type"`
	Date       string `json:"date"`
	HasComment bool   `json:"hasComment"`
}

// ScrapeResult is the document written at the end of every run.
type ScrapeResult struct {
	Name           string         `json:"name"`
	Headline       string         `json:"headline"`
	Location       string         `json:"location"`
	RecentActivity []ActivityItem `json:"recentActivity"`
	LastUpdated    string         `json:"lastUpdated"`
	Note           string         `json:"note"`
}

// CuratedPosts is the shape of the hand-maintained posts file.
type CuratedPosts struct {
	Posts []ActivityItem `json:"posts"`
}

// Storage reads and writes the JSON files of a run. Every write replaces
// the previous file.
type Storage struct {
	log *logger.Logger
	mu  sync.RWMutex
}

func New(log *logger.Logger) *Storage {
	return &Storage{
		log: log.WithComponent("storage"),
	}
}

func (s *Storage) load(path string, v interface{}) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return nil
}

func (s *Storage) save(path string, v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

// WriteResult persists the result as indented JSON. A nil activity list is
// written as an empty array.
func (s *Storage) WriteResult(path string, result *ScrapeResult) error {
	out := *result
	if out.RecentActivity == nil {
		out.RecentActivity = []ActivityItem{}
	}

	if err := s.save(path, &out); err != nil {
		return err
	}

	s.log.Debug("Wrote %d activities to %s", len(out.RecentActivity), path)
	return nil
}

// LoadCuratedPosts reads the curated posts file. A file without posts is
// reported as an error so callers can fall through to the fixed record.
func (s *Storage) LoadCuratedPosts(path string) ([]ActivityItem, error) {
	var curated CuratedPosts
	if err := s.load(path, &curated); err != nil {
		return nil, err
	}

	if len(curated.Posts) == 0 {
		return nil, fmt.Errorf("no posts in %s", path)
	}

	return curated.Posts, nil
}
