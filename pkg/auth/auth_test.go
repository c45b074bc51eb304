package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/linkedin-scraper/pkg/logger"
	"github.com/linkedin-scraper/pkg/stealth"
)

type fakePage struct {
	urlAfterSubmit string
	navigateErr    error
	missing        map[string]bool

	current   string
	inputs    map[string]string
	clicked   []string
	navigated []string
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	p.navigated = append(p.navigated, url)
	if p.navigateErr != nil {
		return p.navigateErr
	}
	p.current = url
	return nil
}

func (p *fakePage) WaitForElement(ctx context.Context, selector string) error {
	if p.missing[selector] {
		return errors.New("element not found: " + selector)
	}
	return nil
}

func (p *fakePage) Input(ctx context.Context, selector, text string) error {
	if p.missing[selector] {
		return errors.New("element not found: " + selector)
	}
	if p.inputs == nil {
		p.inputs = map[string]string{}
	}
	p.inputs[selector] = text
	return nil
}

func (p *fakePage) Click(ctx context.Context, selector string) error {
	p.clicked = append(p.clicked, selector)
	p.current = p.urlAfterSubmit
	return nil
}

func (p *fakePage) CurrentURL() string {
	return p.current
}

const loginURL = "https://www.linkedin.com/login"

func newAuthenticator(page Page) *Authenticator {
	return New(page, stealth.NoDelay(logger.Discard()), loginURL, logger.Discard())
}

var creds = Credentials{Email: "me@example.com", Password: "hunter2"}

func TestIsLoggedInURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected bool
	}{
		{"Feed", "https://www.linkedin.com/feed/", true},
		{"My network", "https://www.linkedin.com/mynetwork/", true},
		{"Own profile", "https://www.linkedin.com/in/someone/", true},
		{"Still on login", "https://www.linkedin.com/login", false},
		{"Login submit", "https://www.linkedin.com/uas/login-submit", false},
		{"Empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsLoggedInURL(tt.url); got != tt.expected {
				t.Errorf("IsLoggedInURL(%q) = %t, want %t", tt.url, got, tt.expected)
			}
		})
	}
}

func TestCredentialsPresent(t *testing.T) {
	if !creds.Present() {
		t.Error("Full credentials should be present")
	}
	if (Credentials{Email: "me@example.com"}).Present() {
		t.Error("Email alone is not enough")
	}
	if (Credentials{Password: "x"}).Present() {
		t.Error("Password alone is not enough")
	}
}

func TestLoginSuccess(t *testing.T) {
	page := &fakePage{urlAfterSubmit: "https://www.linkedin.com/feed/?trk=login"}
	result := newAuthenticator(page).Login(context.Background(), creds)

	if !result.Success {
		t.Fatalf("Expected success, got %+v", result)
	}

	if len(page.navigated) != 1 || page.navigated[0] != loginURL {
		t.Errorf("Expected a single navigation to the login page, got %v", page.navigated)
	}
	if page.inputs["#username"] != creds.Email || page.inputs["#password"] != creds.Password {
		t.Errorf("Credentials not typed into the form: %v", page.inputs)
	}
	if len(page.clicked) != 1 || page.clicked[0] != "button[type='submit']" {
		t.Errorf("Expected one submit click, got %v", page.clicked)
	}
}

func TestLoginFailures(t *testing.T) {
	tests := []struct {
		name        string
		page        *fakePage
		creds       Credentials
		wantErr     bool
		wantMessage string
	}{
		{
			name:        "Still on login page",
			page:        &fakePage{urlAfterSubmit: "https://www.linkedin.com/uas/login-submit"},
			creds:       creds,
			wantMessage: "still on login page",
		},
		{
			name:        "Security checkpoint",
			page:        &fakePage{urlAfterSubmit: "https://www.linkedin.com/checkpoint/challenge/abc"},
			creds:       creds,
			wantMessage: "checkpoint",
		},
		{
			name:        "Login page unreachable",
			page:        &fakePage{navigateErr: errors.New("net::ERR_NAME_NOT_RESOLVED")},
			creds:       creds,
			wantErr:     true,
			wantMessage: "login page",
		},
		{
			name:        "Form missing",
			page:        &fakePage{missing: map[string]bool{"#username": true}},
			creds:       creds,
			wantErr:     true,
			wantMessage: "form did not appear",
		},
		{
			name:        "Password field missing",
			page:        &fakePage{missing: map[string]bool{"#password": true}},
			creds:       creds,
			wantErr:     true,
			wantMessage: "password",
		},
		{
			name:        "No credentials",
			page:        &fakePage{},
			creds:       Credentials{},
			wantMessage: "No credentials",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := newAuthenticator(tt.page).Login(context.Background(), tt.creds)

			if result.Success {
				t.Fatal("Expected failure")
			}
			if (result.Error != nil) != tt.wantErr {
				t.Errorf("Error = %v, wantErr %t", result.Error, tt.wantErr)
			}
			if !strings.Contains(result.Message, tt.wantMessage) {
				t.Errorf("Message %q should mention %q", result.Message, tt.wantMessage)
			}
		})
	}
}

func TestLoginWithoutCredentialsDoesNotTouchPage(t *testing.T) {
	page := &fakePage{}
	newAuthenticator(page).Login(context.Background(), Credentials{Email: "only@example.com"})

	if len(page.navigated) != 0 {
		t.Errorf("No navigation expected without a full credential pair, got %v", page.navigated)
	}
}
