package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/linkedin-scraper/pkg/logger"
	"github.com/linkedin-scraper/pkg/stealth"
)

const (
	usernameSelector = "#username"
	passwordSelector = "#password"
	submitSelector   = "button[type='submit']"
)

// loggedInMarkers are URL fragments LinkedIn redirects to after a good
// login. Matching is a heuristic; other redirect targets read as failure.
var loggedInMarkers = []string{"feed", "mynetwork", "/in/"}

// Page is the part of a browser session the login flow drives.
type Page interface {
	Navigate(ctx context.Context, url string) error
	WaitForElement(ctx context.Context, selector string) error
	Input(ctx context.Context, selector, text string) error
	Click(ctx context.Context, selector string) error
	CurrentURL() string
}

type Credentials struct {
	Email    string
	Password string
}

// Present reports whether both halves of the credential pair are set.
func (c Credentials) Present() bool {
	return c.Email != "" && c.Password != ""
}

type Authenticator struct {
	page     Page
	timing   *stealth.TimingController
	loginURL string
	log      *logger.Logger
}

type AuthResult struct {
	Success bool
	Message string
	URL     string
	Error   error
}

func New(page Page, timing *stealth.TimingController, loginURL string, log *logger.Logger) *Authenticator {
	return &Authenticator{
		page:     page,
		timing:   timing,
		loginURL: loginURL,
		log:      log.WithComponent("auth"),
	}
}

// Login fills the login form and classifies the landing URL. Failures are
// reported in the result, never returned as a separate error.
func (a *Authenticator) Login(ctx context.Context, creds Credentials) AuthResult {
	if !creds.Present() {
		return AuthResult{Success: false, Message: "No credentials provided"}
	}

	a.log.Info("Logging into LinkedIn...")

	if err := a.page.Navigate(ctx, a.loginURL); err != nil {
		return failed("Could not open login page", err)
	}

	if err := a.page.WaitForElement(ctx, usernameSelector); err != nil {
		return failed("Login form did not appear", err)
	}

	if err := a.page.Input(ctx, usernameSelector, creds.Email); err != nil {
		return failed("Could not enter email", err)
	}

	if err := a.page.Input(ctx, passwordSelector, creds.Password); err != nil {
		return failed("Could not enter password", err)
	}

	if err := a.page.Click(ctx, submitSelector); err != nil {
		return failed("Could not submit login form", err)
	}

	if err := a.timing.SleepLogin(ctx); err != nil {
		return failed("Interrupted while waiting for redirect", err)
	}

	currentURL := a.page.CurrentURL()

	if IsLoggedInURL(currentURL) {
		a.log.Info("Successfully logged into LinkedIn")
		return AuthResult{Success: true, Message: "Login successful", URL: currentURL}
	}

	if checkpoint := detectSecurityCheckpoint(currentURL); checkpoint != "" {
		return AuthResult{
			Success: false,
			Message: fmt.Sprintf("Security checkpoint detected: %s", checkpoint),
			URL:     currentURL,
		}
	}

	return AuthResult{
		Success: false,
		Message: "Login failed - still on login page",
		URL:     currentURL,
	}
}

func failed(msg string, err error) AuthResult {
	return AuthResult{
		Success: false,
		Message: fmt.Sprintf("%s: %v", msg, err),
		Error:   err,
	}
}

// IsLoggedInURL applies the post-login URL allow-list.
func IsLoggedInURL(currentURL string) bool {
	for _, marker := range loggedInMarkers {
		if strings.Contains(currentURL, marker) {
			return true
		}
	}
	return false
}

func detectSecurityCheckpoint(currentURL string) string {
	switch {
	case strings.Contains(currentURL, "checkpoint"):
		return "checkpoint"
	case strings.Contains(currentURL, "challenge"):
		return "challenge"
	default:
		return ""
	}
}
