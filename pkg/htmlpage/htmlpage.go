// Package htmlpage serves profile pages fetched over plain HTTP. It gives
// the extractors the same element lookup a browser session does, without
// running any scripts.
package htmlpage

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/linkedin-scraper/pkg/browser"
	"github.com/linkedin-scraper/pkg/logger"
)

// Page holds the most recently loaded document.
type Page struct {
	client    *http.Client
	userAgent string
	log       *logger.Logger

	mu  sync.Mutex
	doc *goquery.Document
}

// New returns a page that loads documents with GET requests.
func New(client *http.Client, userAgent string, log *logger.Logger) *Page {
	if client == nil {
		client = http.DefaultClient
	}
	return &Page{
		client:    client,
		userAgent: userAgent,
		log:       log.WithComponent("htmlpage"),
	}
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	doc, err := p.fetch(ctx, url)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.doc = doc
	p.mu.Unlock()

	return nil
}

func (p *Page) fetch(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	p.log.Debug("GET %s", url)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-200 response code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

func (p *Page) Elements(ctx context.Context, selector string) ([]browser.Element, error) {
	p.mu.Lock()
	doc := p.doc
	p.mu.Unlock()

	if doc == nil {
		return nil, fmt.Errorf("no document loaded")
	}

	var elements []browser.Element
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		elements = append(elements, element{s})
	})
	return elements, nil
}

// Execute is a no-op: a static document has no script engine. Callers that
// measure the page from script output see an empty result.
func (p *Page) Execute(ctx context.Context, script string) (string, error) {
	return "", nil
}

func (p *Page) Close() error {
	return nil
}

type element struct {
	sel *goquery.Selection
}

func (e element) Text() (string, error) {
	return e.sel.Text(), nil
}
