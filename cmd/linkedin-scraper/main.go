package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/linkedin-scraper/pkg/browser"
	"github.com/linkedin-scraper/pkg/config"
	"github.com/linkedin-scraper/pkg/logger"
	"github.com/linkedin-scraper/pkg/scraper"
	"github.com/linkedin-scraper/pkg/stealth"
	"github.com/linkedin-scraper/pkg/storage"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML or JSON config file (defaults to $CONFIG_PATH)")
	profileURL := flag.String("profile", "", "LinkedIn profile URL to scrape")
	headless := flag.Bool("headless", true, "Run the browser without a window")
	maxPosts := flag.Int("max-posts", 3, "Maximum number of recent posts to collect")
	output := flag.String("output", "", "Path of the JSON file to write")
	writeConfig := flag.String("write-config", "", "Write the effective config to this YAML or JSON path and exit")
	flag.Parse()

	// Load configuration; a broken config never stops the run
	cfg, cfgErrs := loadConfig(*configPath)

	// Explicit flags win over file and environment
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "profile":
			cfg.Profile.URL = *profileURL
		case "headless":
			cfg.Browser.Headless = *headless
		case "max-posts":
			cfg.Profile.MaxPosts = *maxPosts
		case "output":
			cfg.Output.Path = *output
		}
	})

	log, err := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputFile: cfg.Logging.OutputFile,
		Component:  "linkedin-scraper",
	})
	if err != nil {
		log = logger.Discard()
		fmt.Fprintf(os.Stderr, "logger setup failed, continuing without logs: %v\n", err)
	}
	defer log.Close()

	for _, cfgErr := range cfgErrs {
		log.Error("Failed to load config: %v", cfgErr)
	}

	if *writeConfig != "" {
		if err := cfg.Save(*writeConfig); err != nil {
			log.Error("Failed to write config: %v", err)
			return
		}
		fmt.Printf("Config written to %s\n", *writeConfig)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fingerprint := stealth.NewFingerprintManager(&cfg.Stealth, &cfg.Browser, log)

	open := func(ctx context.Context) (scraper.Session, error) {
		br, err := browser.Launch(ctx, browser.Options{
			Config:      cfg,
			Fingerprint: fingerprint,
			Logger:      log,
		})
		if err != nil {
			return nil, err
		}
		return br, nil
	}

	log.Info("Scraping %s", cfg.Profile.URL)

	s := scraper.New(scraper.Options{
		Config: cfg,
		Open:   open,
		Store:  storage.New(log),
		Logger: log,
	})

	result, err := s.Run(ctx)
	if err != nil {
		log.Error("%v", err)
		fmt.Printf("%s, but the output file could not be written: %v\n", result.Note, err)
		return
	}

	fmt.Println(result.Note)
	fmt.Printf("Found %d recent posts\n", len(result.RecentActivity))
	fmt.Printf("Data saved to %s\n", cfg.Output.Path)
}

// loadConfig returns the file config, or the environment over defaults
// when the file cannot be used, or plain defaults when even the
// environment is invalid. Every error on the way is returned for logging.
func loadConfig(path string) (*config.Config, []error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	errs := []error{err}

	cfg, err = config.FromEnv()
	if err == nil {
		return cfg, errs
	}

	return config.DefaultConfig(), append(errs, err)
}
