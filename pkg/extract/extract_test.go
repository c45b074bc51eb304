package extract

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/linkedin-scraper/pkg/browser"
	"github.com/linkedin-scraper/pkg/config"
	"github.com/linkedin-scraper/pkg/htmlpage"
	"github.com/linkedin-scraper/pkg/logger"
	"github.com/linkedin-scraper/pkg/stealth"
)

type textElement struct {
	text string
	err  error
}

func (e textElement) Text() (string, error) {
	return e.text, e.err
}

// fakePage answers element lookups from a fixed table.
type fakePage struct {
	elements    map[string][]browser.Element
	lookupErr   map[string]error
	navigateErr error
	heights     []string

	navigated []string
	queried   []string
	scripts   int
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	p.navigated = append(p.navigated, url)
	return p.navigateErr
}

func (p *fakePage) Elements(ctx context.Context, selector string) ([]browser.Element, error) {
	p.queried = append(p.queried, selector)
	if err := p.lookupErr[selector]; err != nil {
		return nil, err
	}
	return p.elements[selector], nil
}

func (p *fakePage) Execute(ctx context.Context, script string) (string, error) {
	p.scripts++
	if len(p.heights) == 0 {
		return "", nil
	}
	h := p.heights[0]
	p.heights = p.heights[1:]
	return h, nil
}

func texts(values ...string) []browser.Element {
	out := make([]browser.Element, len(values))
	for i, v := range values {
		out[i] = textElement{text: v}
	}
	return out
}

var runDate = time.Date(2024, 3, 9, 15, 4, 5, 0, time.UTC)

func newActivityExtractor(page Page) *ActivityExtractor {
	cfg := config.DefaultConfig()
	return NewActivityExtractor(ActivityOptions{
		Page:      page,
		Timing:    stealth.NoDelay(logger.Discard()),
		Selectors: cfg.Selectors.Posts,
		Filter:    cfg.Filter,
		Suffix:    cfg.Profile.ActivitySuffix,
		Now:       func() time.Time { return runDate },
		Logger:    logger.Discard(),
	})
}

func newProfileExtractor(page Page) *ProfileExtractor {
	cfg := config.DefaultConfig()
	return NewProfileExtractor(page, stealth.NoDelay(logger.Discard()), cfg.Selectors, cfg.Defaults, logger.Discard())
}

func TestPostFilter(t *testing.T) {
	f := NewPostFilter(config.DefaultConfig().Filter)

	commentedOn := "My colleague commented on the release and I agree fully." // 56 chars
	if len([]rune(commentedOn)) < 50 {
		t.Fatalf("Test text must be at least 50 characters, got %d", len([]rune(commentedOn)))
	}

	tests := []struct {
		name     string
		text     string
		expected bool
	}{
		{"Bare marker", "liked this", false},
		{"Short notification", "Jai liked this great post", false},
		{"Marker casing ignored", "Someone SHARED A POST today", false},
		{"Long text with marker", commentedOn, true},
		{"Exactly twenty chars", strings.Repeat("a", 20), false},
		{"Twenty one chars", strings.Repeat("a", 21), true},
		{"Exactly five hundred", strings.Repeat("a", 500), false},
		{"Four ninety nine", strings.Repeat("a", 499), true},
		{"Multibyte counted as characters", strings.Repeat("é", 21), true},
		{"Empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Accept(tt.text); got != tt.expected {
				t.Errorf("Accept(%q) = %t, want %t", tt.text, got, tt.expected)
			}
		})
	}
}

func TestIsSimpleRepost(t *testing.T) {
	f := NewPostFilter(config.DefaultConfig().Filter)

	if !f.IsSimpleRepost("liked this") {
		t.Error("\"liked this\" should be a simple repost")
	}
	if f.IsSimpleRepost(strings.Repeat("x", 30) + " commented on " + strings.Repeat("y", 16)) {
		t.Error("Text of 60 characters should not be a simple repost")
	}
	if f.IsSimpleRepost("An original short thought") {
		t.Error("Text without a marker should not be a simple repost")
	}
}

func TestTruncate(t *testing.T) {
	f := NewPostFilter(config.DefaultConfig().Filter)

	long := strings.Repeat("ü", 250)
	got := f.Truncate(long)
	if n := len([]rune(got)); n != 200 {
		t.Errorf("Truncated length = %d runes, want 200", n)
	}

	short := "short enough"
	if f.Truncate(short) != short {
		t.Error("Short text should be unchanged")
	}
}

func TestActivityURL(t *testing.T) {
	tests := []struct {
		profile  string
		expected string
	}{
		{"https://www.linkedin.com/in/jane/", "https://www.linkedin.com/in/jane/recent-activity/all/"},
		{"https://www.linkedin.com/in/jane", "https://www.linkedin.com/in/jane/recent-activity/all/"},
	}

	for _, tt := range tests {
		if got := ActivityURL(tt.profile, "/recent-activity/all/"); got != tt.expected {
			t.Errorf("ActivityURL(%q) = %q, want %q", tt.profile, got, tt.expected)
		}
	}
}

func TestCascadeFirstStopsAtFirstMatch(t *testing.T) {
	page := &fakePage{
		lookupErr: map[string]error{"a": errors.New("boom")},
		elements: map[string][]browser.Element{
			"c": texts("from c"),
			"d": texts("from d"),
		},
	}

	selector, elements := Cascade{Field: "x", Selectors: []string{"a", "b", "c", "d"}}.First(context.Background(), page, logger.Discard())

	if selector != "c" || len(elements) != 1 {
		t.Fatalf("Expected single match from c, got %q with %d elements", selector, len(elements))
	}
	if strings.Join(page.queried, ",") != "a,b,c" {
		t.Errorf("Selectors after the first match must not be tried, queried %v", page.queried)
	}
}

func TestCascadeFirstTextSkipsBlank(t *testing.T) {
	page := &fakePage{
		elements: map[string][]browser.Element{
			"a": texts("   "),
			"b": {textElement{err: errors.New("detached")}},
			"c": texts("  Jane Doe \n"),
		},
	}

	text, selector, ok := Cascade{Field: "name", Selectors: []string{"a", "b", "c"}}.FirstText(context.Background(), page, logger.Discard())
	if !ok || text != "Jane Doe" || selector != "c" {
		t.Errorf("FirstText = %q, %q, %t", text, selector, ok)
	}
}

func TestProfileExtractFieldsAreIndependent(t *testing.T) {
	page := &fakePage{
		elements: map[string][]browser.Element{
			".text-heading-xlarge": texts("Jane Doe"),
			".text-body-medium":    texts("Staff Engineer"),
		},
	}

	info, err := newProfileExtractor(page).Extract(context.Background(), "https://www.linkedin.com/in/jane/")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if info.Name != "Jane Doe" {
		t.Errorf("Name = %q, want live value", info.Name)
	}
	if info.Headline != "Staff Engineer" {
		t.Errorf("Headline = %q, want live value", info.Headline)
	}
	if info.Location != "Los Angeles, CA" {
		t.Errorf("Location = %q, want default", info.Location)
	}
}

func TestProfileExtractNavigationFailure(t *testing.T) {
	page := &fakePage{navigateErr: errors.New("net::ERR_TIMED_OUT")}

	info, err := newProfileExtractor(page).Extract(context.Background(), "https://www.linkedin.com/in/jane/")
	if !errors.Is(err, ErrNavigate) {
		t.Fatalf("Expected ErrNavigate, got %v", err)
	}

	defaults := config.DefaultConfig().Defaults
	if info.Name != defaults.Name || info.Headline != defaults.Headline || info.Location != defaults.Location {
		t.Errorf("Expected defaults on navigation failure, got %+v", info)
	}
	if len(page.queried) != 0 {
		t.Errorf("No lookups expected after failed navigation, got %v", page.queried)
	}
}

func TestActivityExtract(t *testing.T) {
	post := "Shipping a new release of our evaluation toolkit today."
	long := strings.Repeat("word ", 60)

	page := &fakePage{
		heights: []string{"1200", "2400"},
		elements: map[string][]browser.Element{
			".feed-shared-text": {
				textElement{text: "liked this"},
				textElement{err: errors.New("stale element")},
				textElement{text: "  " + post + "  "},
				textElement{text: long},
				textElement{text: "never reached"},
			},
			".pv-entity__summary-info": texts("A post that must never be read from here."),
		},
	}

	items, err := newActivityExtractor(page).Extract(context.Background(), "https://www.linkedin.com/in/jane/", 3)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if page.navigated[0] != "https://www.linkedin.com/in/jane/recent-activity/all/" {
		t.Errorf("Navigated to %q", page.navigated[0])
	}
	if page.scripts != 2 {
		t.Errorf("Expected one scroll and one height read, got %d scripts", page.scripts)
	}
	for _, q := range page.queried {
		if q == ".pv-entity__summary-info" {
			t.Error("Later post selectors must not be tried once one matched")
		}
	}

	if len(items) != 1 {
		t.Fatalf("Expected 1 item (others filtered, skipped or beyond the cap), got %d: %+v", len(items), items)
	}

	item := items[0]
	if item.ID != "activity-2" {
		t.Errorf("ID = %q, want activity-2", item.ID)
	}
	if item.Content != post {
		t.Errorf("Content = %q", item.Content)
	}
	if item.Type != "post" || !item.HasComment || item.Date != "2024-03-09" {
		t.Errorf("Unexpected item metadata: %+v", item)
	}
}

func TestActivityExtractCapsAtMax(t *testing.T) {
	var elements []browser.Element
	for i := 0; i < 10; i++ {
		elements = append(elements, textElement{text: strings.Repeat("x", 30+i)})
	}
	page := &fakePage{elements: map[string][]browser.Element{".activity-item": elements}}

	items, err := newActivityExtractor(page).Extract(context.Background(), "https://www.linkedin.com/in/jane/", 3)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("Expected 3 items, got %d", len(items))
	}
	for i, item := range items {
		if len([]rune(item.Content)) > 200 {
			t.Errorf("Item %d content too long", i)
		}
	}
}

func TestActivityExtractNeverNil(t *testing.T) {
	tests := []struct {
		name    string
		page    *fakePage
		max     int
		wantErr bool
	}{
		{"No matches", &fakePage{}, 3, false},
		{"Zero max", &fakePage{}, 0, false},
		{"Navigation failure", &fakePage{navigateErr: errors.New("down")}, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := newActivityExtractor(tt.page).Extract(context.Background(), "https://www.linkedin.com/in/jane/", tt.max)
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %t", err, tt.wantErr)
			}
			if items == nil {
				t.Error("Items must never be nil")
			}
			if len(items) != 0 {
				t.Errorf("Expected no items, got %d", len(items))
			}
		})
	}
}

func TestExtractFromStaticHTML(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/in/jane/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<main>
			<h1> Jane Doe </h1>
			<div class="text-body-medium">Staff Engineer</div>
			<span class="text-body-small inline">Berlin, Germany</span>
		</main>`))
	})
	mux.HandleFunc("/in/jane/recent-activity/all/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<ul>
			<li class="feed-shared-update-v2__description">Jane reacted to this</li>
			<li class="feed-shared-update-v2__description">We just published our notes on rolling upgrades.</li>
		</ul>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	profileURL := srv.URL + "/in/jane/"
	page := htmlpage.New(srv.Client(), "test-agent", logger.Discard())

	info, err := newProfileExtractor(page).Extract(context.Background(), profileURL)
	if err != nil {
		t.Fatalf("Profile extract failed: %v", err)
	}
	if info.Name != "Jane Doe" || info.Headline != "Staff Engineer" || info.Location != "Berlin, Germany" {
		t.Errorf("Unexpected profile: %+v", info)
	}

	items, err := newActivityExtractor(page).Extract(context.Background(), profileURL, 3)
	if err != nil {
		t.Fatalf("Activity extract failed: %v", err)
	}
	if len(items) != 1 || items[0].ID != "activity-1" {
		t.Errorf("Unexpected items: %+v", items)
	}
}
