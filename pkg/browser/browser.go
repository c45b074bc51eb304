package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/linkedin-scraper/pkg/config"
	"github.com/linkedin-scraper/pkg/logger"
	fp "github.com/linkedin-scraper/pkg/stealth"
)

const (
	defaultWaitTimeout       = 10 * time.Second
	defaultNavigationTimeout = 30 * time.Second
	defaultLaunchTimeout     = 2 * time.Minute
)

// Element is a matched node whose visible text can be read.
type Element interface {
	Text() (string, error)
}

// Browser is one launched Chrome with a single page. Close must be called
// exactly once per run; extra calls are no-ops.
type Browser struct {
	config      *config.BrowserConfig
	stealthCfg  *config.StealthConfig
	lnch        *launcher.Launcher
	remote      bool
	rod         *rod.Browser
	page        *rod.Page
	log         *logger.Logger
	fingerprint *fp.FingerprintManager

	closeOnce sync.Once
	closeErr  error
}

type Options struct {
	Config      *config.Config
	Fingerprint *fp.FingerprintManager
	Logger      *logger.Logger
}

// Launch starts (or connects to) Chrome and opens the page used for the
// whole run. On failure everything started so far is torn down and no
// handle is returned.
func Launch(ctx context.Context, opts Options) (*Browser, error) {
	b := &Browser{
		config:      &opts.Config.Browser,
		stealthCfg:  &opts.Config.Stealth,
		log:         opts.Logger.WithComponent("browser"),
		fingerprint: opts.Fingerprint,
	}

	if err := b.launch(ctx); err != nil {
		b.Close()
		return nil, err
	}

	return b, nil
}

func (b *Browser) launch(ctx context.Context) error {
	b.log.Info("Launching browser (headless=%t)...", b.config.Headless)

	controlURL := b.config.RemoteURL
	if controlURL == "" {
		// Bounds waiting for the debug URL, including a first-run download.
		launchCtx, cancel := context.WithTimeout(ctx, defaultLaunchTimeout)
		defer cancel()

		l := launcher.New().Context(launchCtx).Headless(b.config.Headless)
		if b.config.Bin != "" {
			l = l.Bin(b.config.Bin)
		}
		for _, f := range b.fingerprint.LaunchFlags() {
			l = l.Set(flags.Flag(f.Name), f.Values...)
		}

		u, err := l.Launch()
		if err != nil {
			return fmt.Errorf("failed to launch browser: %w", err)
		}
		// Only a started process can be killed and cleaned up.
		b.lnch = l
		controlURL = u
	} else {
		b.remote = true
		b.log.Info("Connecting to remote browser at %s", controlURL)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("failed to connect to browser: %w", err)
	}
	b.rod = browser

	var page *rod.Page
	var err error
	if b.stealthCfg.UseStealthPage {
		page, err = stealth.Page(browser)
	} else {
		page, err = browser.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		return fmt.Errorf("failed to create page: %w", err)
	}
	b.page = page

	fingerprint := b.fingerprint.Generate()

	if fingerprint.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      fingerprint.UserAgent,
			AcceptLanguage: fingerprint.Language,
			Platform:       fingerprint.Platform,
		}); err != nil {
			return fmt.Errorf("failed to set user agent: %w", err)
		}
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             fingerprint.WindowWidth,
		Height:            fingerprint.WindowHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		return fmt.Errorf("failed to set viewport: %w", err)
	}

	for _, script := range b.fingerprint.GetStealthScripts() {
		if _, err := page.EvalOnNewDocument(script); err != nil {
			return fmt.Errorf("failed to install stealth script: %w", err)
		}
	}

	b.log.Info("Browser launched successfully with fingerprint applied")
	return nil
}

// boundedContext limits one navigation or script run to the configured
// navigation timeout.
func (b *Browser) boundedContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := time.Duration(b.config.NavigationTimeout)
	if timeout <= 0 {
		timeout = defaultNavigationTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

func (b *Browser) Navigate(ctx context.Context, url string) error {
	b.log.Debug("Navigating to %s", url)

	navCtx, cancel := b.boundedContext(ctx)
	defer cancel()

	page := b.page.Context(navCtx)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}

	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("page load timeout for %s: %w", url, err)
	}

	return nil
}

// WaitForElement blocks until selector matches or the configured wait
// timeout elapses.
func (b *Browser) WaitForElement(ctx context.Context, selector string) error {
	_, err := b.waitElement(ctx, selector)
	return err
}

func (b *Browser) waitElement(ctx context.Context, selector string) (*rod.Element, error) {
	b.log.Debug("Waiting for element: %s", selector)

	timeout := time.Duration(b.config.WaitTimeout)
	if timeout <= 0 {
		timeout = defaultWaitTimeout
	}

	element, err := b.page.Context(ctx).Timeout(timeout).Element(selector)
	if err != nil {
		return nil, fmt.Errorf("element not found: %s: %w", selector, err)
	}

	return element.Context(ctx), nil
}

// Elements returns whatever currently matches selector without waiting.
func (b *Browser) Elements(ctx context.Context, selector string) ([]Element, error) {
	found, err := b.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("failed to find elements: %w", err)
	}

	elements := make([]Element, len(found))
	for i, el := range found {
		elements[i] = el
	}
	return elements, nil
}

func (b *Browser) Input(ctx context.Context, selector, text string) error {
	element, err := b.waitElement(ctx, selector)
	if err != nil {
		return err
	}

	if err := element.Context(ctx).Input(text); err != nil {
		return fmt.Errorf("failed to type into %s: %w", selector, err)
	}

	return nil
}

func (b *Browser) Click(ctx context.Context, selector string) error {
	element, err := b.waitElement(ctx, selector)
	if err != nil {
		return err
	}

	if err := element.Context(ctx).Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}

	b.log.Debug("Clicked element: %s", selector)
	return nil
}

// Execute evaluates a JS function expression and returns its result as text.
func (b *Browser) Execute(ctx context.Context, script string) (string, error) {
	evalCtx, cancel := b.boundedContext(ctx)
	defer cancel()

	res, err := b.page.Context(evalCtx).Eval(script)
	if err != nil {
		return "", fmt.Errorf("script failed: %w", err)
	}

	return res.Value.String(), nil
}

func (b *Browser) CurrentURL() string {
	info, err := b.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

// Close releases the session. A launched Chrome is shut down and its
// profile directory removed; a remote Chrome only loses the page this
// session opened.
func (b *Browser) Close() error {
	b.closeOnce.Do(func() {
		if b.remote {
			if b.page != nil {
				b.closeErr = b.page.Close()
			}
			b.log.Debug("Remote page closed")
			return
		}

		if b.rod != nil {
			b.closeErr = b.rod.Close()
		}
		if b.lnch != nil {
			b.lnch.Kill()
			b.lnch.Cleanup()
		}
		b.log.Debug("Browser closed")
	})
	return b.closeErr
}
