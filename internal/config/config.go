package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	Strava  StravaConfig  `json:"strava"`
	Athlete AthleteConfig `json:"athlete"`
	Sync    SyncConfig    `json:"sync"`
}

// StravaConfig holds Strava API credentials
type StravaConfig struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// AthleteConfig holds the heart-rate zones the load model is built on.
// Both values are required: there is no sensible default for an
// individual athlete, and a wrong pair silently skews every TRIMP score.
type AthleteConfig struct {
	RestingHR float64 `json:"resting_hr"`
	MaxHR     float64 `json:"max_hr"`
}

// SyncConfig holds settings for activity and stream syncing
type SyncConfig struct {
	// Sport is the Strava sport type to sync, e.g. "Run" or "Ride".
	Sport string `json:"sport"`
	// WindowCap is the number of stream requests allowed per rate window.
	// Strava allows 200 per 15 minutes; the default leaves headroom for
	// the activity listing calls.
	WindowCap int `json:"window_cap"`
	// CooldownMinutes is how long to pause between request batches.
	CooldownMinutes int `json:"cooldown_minutes"`
	// CutoffDate, when set ("2006-01-02"), limits syncing to activities
	// strictly before that date, so repeated runs see the same listing
	// no matter how many activities have accrued since.
	CutoffDate string `json:"cutoff_date,omitempty"`
}

// ErrNoConfig is returned when the config file doesn't exist
var ErrNoConfig = errors.New("config file not found")

const (
	DefaultSport           = "Run"
	DefaultWindowCap       = 180
	DefaultCooldownMinutes = 15
)

// Load reads the configuration from ~/.trainload/config.json.
// Strava credentials can also come from the environment (or a .env
// file): STRAVA_CLIENT_ID and STRAVA_CLIENT_SECRET override the file,
// so the secret never has to live in the config on shared machines.
func Load() (*Config, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNoConfig
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	_ = godotenv.Load()
	applyEnv(cfg)

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("STRAVA_CLIENT_ID"); v != "" {
		cfg.Strava.ClientID = v
	}
	if v := os.Getenv("STRAVA_CLIENT_SECRET"); v != "" {
		cfg.Strava.ClientSecret = v
	}
}

// Parse decodes a config document and applies defaults for missing
// sync settings. Athlete heart rates get no defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if cfg.Sync.Sport == "" {
		cfg.Sync.Sport = DefaultSport
	}
	if cfg.Sync.WindowCap == 0 {
		cfg.Sync.WindowCap = DefaultWindowCap
	}
	if cfg.Sync.CooldownMinutes == 0 {
		cfg.Sync.CooldownMinutes = DefaultCooldownMinutes
	}

	return &cfg, nil
}

// Save writes the configuration to ~/.trainload/config.json
func Save(cfg *Config) error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// CreateExample creates an example config file if none exists
func CreateExample() error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	// Check if config already exists
	if _, err := os.Stat(path); err == nil {
		return nil // Config exists, don't overwrite
	}

	example := Config{
		Strava: StravaConfig{
			ClientID:     "YOUR_CLIENT_ID",
			ClientSecret: "YOUR_CLIENT_SECRET",
		},
		Athlete: AthleteConfig{
			RestingHR: 50,
			MaxHR:     185,
		},
		Sync: SyncConfig{
			Sport:           DefaultSport,
			WindowCap:       DefaultWindowCap,
			CooldownMinutes: DefaultCooldownMinutes,
		},
	}

	return Save(&example)
}

// Validate checks if the config has required fields
func (c *Config) Validate() error {
	if c.Strava.ClientID == "" || c.Strava.ClientID == "YOUR_CLIENT_ID" {
		return errors.New("strava.client_id is required - get it from https://www.strava.com/settings/api")
	}
	if c.Strava.ClientSecret == "" || c.Strava.ClientSecret == "YOUR_CLIENT_SECRET" {
		return errors.New("strava.client_secret is required - get it from https://www.strava.com/settings/api")
	}

	if c.Athlete.RestingHR <= 0 {
		return errors.New("athlete.resting_hr is required and must be positive")
	}
	if c.Athlete.MaxHR <= c.Athlete.RestingHR {
		return fmt.Errorf("athlete.max_hr (%v) must be greater than athlete.resting_hr (%v)", c.Athlete.MaxHR, c.Athlete.RestingHR)
	}

	if c.Sync.WindowCap < 1 || c.Sync.WindowCap > 199 {
		return fmt.Errorf("sync.window_cap must be between 1 and 199 (Strava allows 200 requests per 15 minutes), got %d", c.Sync.WindowCap)
	}
	if c.Sync.CooldownMinutes < 1 {
		return fmt.Errorf("sync.cooldown_minutes must be at least 1, got %d", c.Sync.CooldownMinutes)
	}
	if _, err := c.CutoffTime(); err != nil {
		return err
	}

	return nil
}

// Cooldown returns the pause between request batches as a duration.
func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.Sync.CooldownMinutes) * time.Minute
}

// CutoffTime parses sync.cutoff_date. A zero time means no cutoff.
func (c *Config) CutoffTime() (time.Time, error) {
	if c.Sync.CutoffDate == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation("2006-01-02", c.Sync.CutoffDate, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("sync.cutoff_date must be YYYY-MM-DD, got %q", c.Sync.CutoffDate)
	}
	return t, nil
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".trainload", "config.json"), nil
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".trainload"), nil
}
