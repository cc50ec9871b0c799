package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"ai-travel-planner/internal/planner"
	"ai-travel-planner/internal/ranking"
)

// Config holds the configuration for the application.
type Config struct {
	DBPath string

	// Remote travel environment. Only needed by the collect command.
	EnvURL string
	EnvKey string

	PageSize         int
	LocatorCacheSize int

	Ranking   ranking.Policy
	Placement planner.Policy
}

// LoadDotEnv loads variables from path (".env" when empty) without
// overriding the ones already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	cfg := &Config{
		DBPath:           envOr("TRAVEL_DB_PATH", "data/travel.db"),
		EnvURL:           strings.TrimRight(os.Getenv("TRAVEL_ENV_URL"), "/"),
		EnvKey:           os.Getenv("TRAVEL_ENV_KEY"),
		PageSize:         50,
		LocatorCacheSize: 4096,
		Ranking:          ranking.DefaultPolicy(),
		Placement:        planner.DefaultPolicy(),
	}

	var err error
	if cfg.PageSize, err = envInt("TRAVEL_PAGE_SIZE", cfg.PageSize); err != nil {
		return nil, err
	}
	if cfg.LocatorCacheSize, err = envInt("TRAVEL_LOCATOR_CACHE_SIZE", cfg.LocatorCacheSize); err != nil {
		return nil, err
	}
	if raw := os.Getenv("TRAVEL_INTERCITY_HEADROOM"); raw != "" {
		h, err := strconv.ParseFloat(raw, 64)
		if err != nil || h <= 0 || h > 1 {
			return nil, fmt.Errorf("TRAVEL_INTERCITY_HEADROOM must be in (0, 1], got %q", raw)
		}
		cfg.Ranking.IntercityHeadroom = h
	}

	p := &cfg.Placement
	if p.AttractionVisitMinutes, err = envInt("TRAVEL_ATTRACTION_VISIT_MINUTES", p.AttractionVisitMinutes); err != nil {
		return nil, err
	}
	if p.MealMinutes, err = envInt("TRAVEL_MEAL_MINUTES", p.MealMinutes); err != nil {
		return nil, err
	}
	if p.LunchEarliest, p.LunchLatest, err = envWindow("TRAVEL_LUNCH_WINDOW", p.LunchEarliest, p.LunchLatest); err != nil {
		return nil, err
	}
	if p.DinnerEarliest, p.DinnerLatest, err = envWindow("TRAVEL_DINNER_WINDOW", p.DinnerEarliest, p.DinnerLatest); err != nil {
		return nil, err
	}

	if _, err := planner.NewBuilder(cfg.Placement); err != nil {
		return nil, fmt.Errorf("invalid placement policy: %w", err)
	}
	return cfg, nil
}

// RequireEnv checks the settings of the remote travel environment.
func (c *Config) RequireEnv() error {
	if c.EnvURL == "" {
		return fmt.Errorf("TRAVEL_ENV_URL environment variable not set")
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return n, nil
}

// envWindow reads an "HH:MM-HH:MM" window.
func envWindow(key, defStart, defEnd string) (string, string, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defStart, defEnd, nil
	}
	start, end, ok := strings.Cut(raw, "-")
	if !ok {
		return "", "", fmt.Errorf("%s must look like 11:00-13:00, got %q", key, raw)
	}
	return strings.TrimSpace(start), strings.TrimSpace(end), nil
}
