package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Profile   ProfileConfig   `yaml:"profile" json:"profile"`
	LinkedIn  LinkedInConfig  `yaml:"linkedin" json:"linkedin"`
	Browser   BrowserConfig   `yaml:"browser" json:"browser"`
	Stealth   StealthConfig   `yaml:"stealth" json:"stealth"`
	Timing    TimingConfig    `yaml:"timing" json:"timing"`
	Selectors SelectorConfig  `yaml:"selectors" json:"selectors"`
	Filter    FilterConfig    `yaml:"filter" json:"filter"`
	Defaults  ProfileDefaults `yaml:"defaults" json:"defaults"`
	Fallback  FallbackConfig  `yaml:"fallback" json:"fallback"`
	Public    PublicConfig    `yaml:"public" json:"public"`
	Output    OutputConfig    `yaml:"output" json:"output"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
}

type ProfileConfig struct {
	URL            string `yaml:"url" json:"url"`
	MaxPosts       int    `yaml:"max_posts" json:"max_posts"`
	ActivitySuffix string `yaml:"activity_suffix" json:"activity_suffix"`
}

// LinkedInConfig holds the optional login. Both fields must be set for a
// login attempt to happen.
type LinkedInConfig struct {
	Email    string `yaml:"email" json:"email"`
	Password string `yaml:"password" json:"password"`
	LoginURL string `yaml:"login_url" json:"login_url"`
}

type BrowserConfig struct {
	Headless     bool     `yaml:"headless" json:"headless"`
	Bin          string   `yaml:"bin" json:"bin"`
	RemoteURL    string   `yaml:"remote_url" json:"remote_url"`
	NoSandbox    bool     `yaml:"no_sandbox" json:"no_sandbox"`
	UserAgent    string   `yaml:"user_agent" json:"user_agent"`
	WindowWidth  int      `yaml:"window_width" json:"window_width"`
	WindowHeight int      `yaml:"window_height" json:"window_height"`
	WaitTimeout  Duration `yaml:"wait_timeout" json:"wait_timeout"`
	// NavigationTimeout bounds one page load, including the wait for the
	// load event.
	NavigationTimeout Duration `yaml:"navigation_timeout" json:"navigation_timeout"`
}

type StealthConfig struct {
	DisableAutomation bool `yaml:"disable_automation" json:"disable_automation"`
	UseStealthPage    bool `yaml:"use_stealth_page" json:"use_stealth_page"`
}

// TimingConfig holds the fixed settle delays between pipeline steps.
type TimingConfig struct {
	ProfileSettle  Duration `yaml:"profile_settle" json:"profile_settle"`
	LoginSettle    Duration `yaml:"login_settle" json:"login_settle"`
	ActivitySettle Duration `yaml:"activity_settle" json:"activity_settle"`
	ScrollSettle   Duration `yaml:"scroll_settle" json:"scroll_settle"`
	HumanVariation float64  `yaml:"human_variation" json:"human_variation"`
}

// SelectorConfig lists the selector cascades, highest priority first.
type SelectorConfig struct {
	Name     []string `yaml:"name" json:"name"`
	Headline []string `yaml:"headline" json:"headline"`
	Location []string `yaml:"location" json:"location"`
	Posts    []string `yaml:"posts" json:"posts"`
}

type FilterConfig struct {
	MinLength       int      `yaml:"min_length" json:"min_length"`
	MaxLength       int      `yaml:"max_length" json:"max_length"`
	MaxContent      int      `yaml:"max_content" json:"max_content"`
	RepostMaxLength int      `yaml:"repost_max_length" json:"repost_max_length"`
	RepostMarkers   []string `yaml:"repost_markers" json:"repost_markers"`
}

type ProfileDefaults struct {
	Name     string `yaml:"name" json:"name"`
	Headline string `yaml:"headline" json:"headline"`
	Location string `yaml:"location" json:"location"`
}

type FallbackConfig struct {
	Name        string `yaml:"name" json:"name"`
	Headline    string `yaml:"headline" json:"headline"`
	Location    string `yaml:"location" json:"location"`
	Post        string `yaml:"post" json:"post"`
	CuratedFile string `yaml:"curated_file" json:"curated_file"`
}

type PublicConfig struct {
	Enabled bool     `yaml:"enabled" json:"enabled"`
	Timeout Duration `yaml:"timeout" json:"timeout"`
}

type OutputConfig struct {
	Path string `yaml:"path" json:"path"`
}

type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`
	Format     string `yaml:"format" json:"format"`
	OutputFile string `yaml:"output_file" json:"output_file"`
}

func DefaultConfig() *Config {
	return &Config{
		Profile: ProfileConfig{
			URL:            "https://www.linkedin.com/in/jaibhatia19/",
			MaxPosts:       3,
			ActivitySuffix: "/recent-activity/all/",
		},
		LinkedIn: LinkedInConfig{
			LoginURL: "https://www.linkedin.com/login",
		},
		Browser: BrowserConfig{
			Headless:          true,
			UserAgent:         "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			WindowWidth:       1920,
			WindowHeight:      1080,
			WaitTimeout:       Duration(10 * time.Second),
			NavigationTimeout: Duration(30 * time.Second),
		},
		Stealth: StealthConfig{
			DisableAutomation: true,
			UseStealthPage:    true,
		},
		Timing: TimingConfig{
			ProfileSettle:  Duration(3 * time.Second),
			LoginSettle:    Duration(3 * time.Second),
			ActivitySettle: Duration(5 * time.Second),
			ScrollSettle:   Duration(3 * time.Second),
		},
		Selectors: SelectorConfig{
			Name: []string{
				"h1",
				".text-heading-xlarge",
				".pv-text-details__left-panel h1",
			},
			Headline: []string{
				".text-body-medium",
				".pv-text-details__left-panel .text-body-medium",
				".pv-top-card--list-bullet .text-body-medium",
			},
			Location: []string{
				".text-body-small.inline",
				".pv-text-details__left-panel .text-body-small",
				".pv-top-card--list-bullet .text-body-small",
			},
			Posts: []string{
				".feed-shared-text",
				".pv-entity__summary-info",
				".pv-entity__description",
				".feed-shared-text__text-view",
				".activity-item",
				".feed-shared-update-v2__description",
			},
		},
		Filter: FilterConfig{
			MinLength:       20,
			MaxLength:       500,
			MaxContent:      200,
			RepostMaxLength: 50,
			RepostMarkers: []string{
				"shared a post",
				"liked this",
				"commented on",
				"reacted to",
				"endorsed",
				"viewed your profile",
			},
		},
		Defaults: ProfileDefaults{
			Name:     "Jai Bhatia",
			Headline: "Sales Engineer & AI Solutions Architect",
			Location: "Los Angeles, CA",
		},
		Fallback: FallbackConfig{
			Name:     "Jai Bhatia",
			Headline: "Sales Engineer & AI Solutions Architect | Building the future, one line of code at a time",
			Location: "Los Angeles, CA",
			Post:     "The future of QA is AI-powered, but human insight remains irreplaceable",
		},
		Public: PublicConfig{
			Enabled: false,
			Timeout: Duration(30 * time.Second),
		},
		Output: OutputConfig{
			Path: "linkedin_data.json",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the config file (YAML or JSON, chosen by extension) over the
// defaults and then applies environment overrides. An empty path falls back
// to CONFIG_PATH; if that is empty too only defaults and env are used.
func Load(configPath string) (*Config, error) {
	config := DefaultConfig()

	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		ext := filepath.Ext(configPath)
		switch ext {
		case ".yaml", ".yml":
			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse YAML config: %w", err)
			}
		case ".json":
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse JSON config: %w", err)
			}
		default:
			return nil, fmt.Errorf("unsupported config file format: %s", ext)
		}
	}

	config.applyEnvOverrides()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// FromEnv returns the defaults with environment overrides applied and no
// config file. It is the fallback when a config file cannot be used, so
// credentials and the profile URL from the environment still apply.
func FromEnv() (*Config, error) {
	config := DefaultConfig()
	config.applyEnvOverrides()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) applyEnvOverrides() {
	if email := os.Getenv("LINKEDIN_EMAIL"); email != "" {
		c.LinkedIn.Email = email
	}
	if password := os.Getenv("LINKEDIN_PASSWORD"); password != "" {
		c.LinkedIn.Password = password
	}
	if profileURL := os.Getenv("LINKEDIN_PROFILE_URL"); profileURL != "" {
		c.Profile.URL = profileURL
	}
	if headless := os.Getenv("BROWSER_HEADLESS"); headless != "" {
		if v, err := strconv.ParseBool(headless); err == nil {
			c.Browser.Headless = v
		}
	}
	if output := os.Getenv("OUTPUT_PATH"); output != "" {
		c.Output.Path = output
	}
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.Profile.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("profile url must be an absolute http(s) URL: %q", c.Profile.URL)
	}
	if c.Profile.MaxPosts < 0 {
		return fmt.Errorf("max posts must not be negative")
	}
	if c.Browser.WindowWidth < 800 || c.Browser.WindowHeight < 600 {
		return fmt.Errorf("window dimensions too small")
	}
	if c.Filter.MinLength >= c.Filter.MaxLength {
		return fmt.Errorf("filter min length must be below max length")
	}
	if c.Filter.MaxContent < 1 {
		return fmt.Errorf("filter max content must be at least 1")
	}
	cascades := map[string][]string{
		"name":     c.Selectors.Name,
		"headline": c.Selectors.Headline,
		"location": c.Selectors.Location,
		"posts":    c.Selectors.Posts,
	}
	for field, selectors := range cascades {
		if len(selectors) == 0 {
			return fmt.Errorf("%s selector list is empty", field)
		}
	}
	if c.Output.Path == "" {
		return fmt.Errorf("output path is required")
	}
	return nil
}

// HasCredentials reports whether a login should be attempted.
func (c *Config) HasCredentials() bool {
	return c.LinkedIn.Email != "" && c.LinkedIn.Password != ""
}

func (c *Config) Save(path string) error {
	ext := filepath.Ext(path)
	var data []byte
	var err error

	switch ext {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	case ".json":
		data, err = json.MarshalIndent(c, "", "  ")
	default:
		return fmt.Errorf("unsupported config file format: %s", ext)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}
