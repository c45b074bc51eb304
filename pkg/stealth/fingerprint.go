package stealth

import (
	"fmt"
	"strings"

	"github.com/linkedin-scraper/pkg/config"
	"github.com/linkedin-scraper/pkg/logger"
)

// FingerprintManager decides how the launched browser presents itself:
// launch flags, page-level user agent and the scripts that hide automation
// markers. The fingerprint is fixed, not rotated.
type FingerprintManager struct {
	config     *config.StealthConfig
	browserCfg *config.BrowserConfig
	log        *logger.Logger
}

type BrowserFingerprint struct {
	UserAgent    string
	WindowWidth  int
	WindowHeight int
	Language     string
	Platform     string
}

// LaunchFlag is one Chrome command-line switch, without the leading dashes.
type LaunchFlag struct {
	Name   string
	Values []string
}

func NewFingerprintManager(cfg *config.StealthConfig, browserCfg *config.BrowserConfig, log *logger.Logger) *FingerprintManager {
	return &FingerprintManager{
		config:     cfg,
		browserCfg: browserCfg,
		log:        log.WithComponent("fingerprint"),
	}
}

func (f *FingerprintManager) Generate() *BrowserFingerprint {
	return &BrowserFingerprint{
		UserAgent:    f.browserCfg.UserAgent,
		WindowWidth:  f.browserCfg.WindowWidth,
		WindowHeight: f.browserCfg.WindowHeight,
		Language:     "en-US",
		Platform:     detectPlatform(f.browserCfg.UserAgent),
	}
}

func detectPlatform(userAgent string) string {
	switch {
	case strings.Contains(userAgent, "Windows"):
		return "Win32"
	case strings.Contains(userAgent, "Macintosh"):
		return "MacIntel"
	case strings.Contains(userAgent, "Linux"):
		return "Linux x86_64"
	default:
		return "Win32"
	}
}

// LaunchFlags returns the switches passed to the launcher. Headless mode is
// handled by the launcher itself and is not part of this list.
func (f *FingerprintManager) LaunchFlags() []LaunchFlag {
	fp := f.Generate()

	flags := []LaunchFlag{
		{Name: "window-size", Values: []string{fmt.Sprintf("%d,%d", fp.WindowWidth, fp.WindowHeight)}},
		{Name: "disable-dev-shm-usage"},
		{Name: "disable-infobars"},
		{Name: "no-first-run"},
		{Name: "no-default-browser-check"},
	}

	if fp.UserAgent != "" {
		flags = append(flags, LaunchFlag{Name: "user-agent", Values: []string{fp.UserAgent}})
	}

	if f.config.DisableAutomation {
		flags = append(flags, LaunchFlag{Name: "disable-blink-features", Values: []string{"AutomationControlled"}})
	}

	if f.browserCfg.NoSandbox {
		flags = append(flags, LaunchFlag{Name: "no-sandbox"})
	}

	return flags
}

// GetStealthScripts returns self-invoking scripts to install on every new
// document.
func (f *FingerprintManager) GetStealthScripts() []string {
	if !f.config.DisableAutomation {
		return nil
	}

	return []string{`(() => {
			const define = (key, getter) => {
				try {
					Object.defineProperty(navigator, key, { get: getter });
				} catch (e) {}
			};

			define('webdriver', () => undefined);
			define('plugins', () => [1, 2, 3, 4, 5]);
			define('languages', () => ['en-US', 'en']);

			window.chrome = window.chrome || { runtime: {} };
		})();`}
}
