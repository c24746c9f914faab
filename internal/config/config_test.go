package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Strava: StravaConfig{
			ClientID:     "12345",
			ClientSecret: "abc123secret",
		},
		Athlete: AthleteConfig{
			RestingHR: 55,
			MaxHR:     190,
		},
		Sync: SyncConfig{
			Sport:           "Run",
			WindowCap:       180,
			CooldownMinutes: 15,
		},
	}
}

func TestParseAppliesSyncDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`{
		"strava": {"client_id": "12345", "client_secret": "abc123secret"},
		"athlete": {"resting_hr": 55, "max_hr": 190}
	}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Sync.Sport != "Run" {
		t.Errorf("Sync.Sport = %q, want %q", cfg.Sync.Sport, "Run")
	}
	if cfg.Sync.WindowCap != 180 {
		t.Errorf("Sync.WindowCap = %d, want 180", cfg.Sync.WindowCap)
	}
	if cfg.Sync.CooldownMinutes != 15 {
		t.Errorf("Sync.CooldownMinutes = %d, want 15", cfg.Sync.CooldownMinutes)
	}

	// Athlete zones are never defaulted: a missing value must fail
	// validation instead of quietly becoming someone else's heart rate.
	cfg, err = Parse([]byte(`{"strava": {"client_id": "12345", "client_secret": "s"}}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.Athlete.RestingHR != 0 || cfg.Athlete.MaxHR != 0 {
		t.Errorf("athlete zones should stay zero when absent, got %+v", cfg.Athlete)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for missing athlete zones")
	}
}

func TestParseInvalidJSON(t *testing.T) {
	if _, err := Parse([]byte(`{"strava":`)); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
		errContains string
	}{
		{
			name:        "valid config",
			mutate:      func(c *Config) {},
			expectError: false,
		},
		{
			name:        "empty client ID",
			mutate:      func(c *Config) { c.Strava.ClientID = "" },
			expectError: true,
			errContains: "client_id",
		},
		{
			name:        "placeholder client ID",
			mutate:      func(c *Config) { c.Strava.ClientID = "YOUR_CLIENT_ID" },
			expectError: true,
			errContains: "client_id",
		},
		{
			name:        "empty client secret",
			mutate:      func(c *Config) { c.Strava.ClientSecret = "" },
			expectError: true,
			errContains: "client_secret",
		},
		{
			name:        "placeholder client secret",
			mutate:      func(c *Config) { c.Strava.ClientSecret = "YOUR_CLIENT_SECRET" },
			expectError: true,
			errContains: "client_secret",
		},
		{
			name:        "missing resting HR",
			mutate:      func(c *Config) { c.Athlete.RestingHR = 0 },
			expectError: true,
			errContains: "resting_hr",
		},
		{
			name:        "negative resting HR",
			mutate:      func(c *Config) { c.Athlete.RestingHR = -10 },
			expectError: true,
			errContains: "resting_hr",
		},
		{
			name: "max HR equal to resting HR",
			mutate: func(c *Config) {
				c.Athlete.RestingHR = 150
				c.Athlete.MaxHR = 150
			},
			expectError: true,
			errContains: "max_hr",
		},
		{
			name: "max HR below resting HR",
			mutate: func(c *Config) {
				c.Athlete.RestingHR = 190
				c.Athlete.MaxHR = 55
			},
			expectError: true,
			errContains: "max_hr",
		},
		{
			name:        "window cap zero",
			mutate:      func(c *Config) { c.Sync.WindowCap = 0 },
			expectError: true,
			errContains: "window_cap",
		},
		{
			name:        "window cap at Strava limit",
			mutate:      func(c *Config) { c.Sync.WindowCap = 200 },
			expectError: true,
			errContains: "window_cap",
		},
		{
			name:        "window cap at max allowed",
			mutate:      func(c *Config) { c.Sync.WindowCap = 199 },
			expectError: false,
		},
		{
			name:        "cooldown zero",
			mutate:      func(c *Config) { c.Sync.CooldownMinutes = 0 },
			expectError: true,
			errContains: "cooldown_minutes",
		},
		{
			name:        "bad cutoff date",
			mutate:      func(c *Config) { c.Sync.CutoffDate = "Jan 2, 2024" },
			expectError: true,
			errContains: "cutoff_date",
		},
		{
			name:        "valid cutoff date",
			mutate:      func(c *Config) { c.Sync.CutoffDate = "2024-01-15" },
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.expectError {
				if err == nil {
					t.Error("expected error, got nil")
				} else if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("error %q should contain %q", err.Error(), tt.errContains)
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("STRAVA_CLIENT_ID", "env-id")
	t.Setenv("STRAVA_CLIENT_SECRET", "env-secret")

	cfg := validConfig()
	applyEnv(&cfg)

	if cfg.Strava.ClientID != "env-id" {
		t.Errorf("ClientID = %q, want env override", cfg.Strava.ClientID)
	}
	if cfg.Strava.ClientSecret != "env-secret" {
		t.Errorf("ClientSecret = %q, want env override", cfg.Strava.ClientSecret)
	}
}

func TestApplyEnvLeavesFileValues(t *testing.T) {
	t.Setenv("STRAVA_CLIENT_ID", "")
	t.Setenv("STRAVA_CLIENT_SECRET", "")

	cfg := validConfig()
	applyEnv(&cfg)

	if cfg.Strava.ClientID != "12345" {
		t.Errorf("ClientID = %q, want file value preserved", cfg.Strava.ClientID)
	}
}

func TestCooldown(t *testing.T) {
	cfg := validConfig()
	if got := cfg.Cooldown(); got != 15*time.Minute {
		t.Errorf("Cooldown() = %v, want 15m", got)
	}

	cfg.Sync.CooldownMinutes = 1
	if got := cfg.Cooldown(); got != time.Minute {
		t.Errorf("Cooldown() = %v, want 1m", got)
	}
}

func TestCutoffTime(t *testing.T) {
	cfg := validConfig()

	got, err := cfg.CutoffTime()
	if err != nil {
		t.Fatalf("CutoffTime failed: %v", err)
	}
	if !got.IsZero() {
		t.Errorf("expected zero time for unset cutoff, got %v", got)
	}

	cfg.Sync.CutoffDate = "2023-06-01"
	got, err = cfg.CutoffTime()
	if err != nil {
		t.Fatalf("CutoffTime failed: %v", err)
	}
	if got.Year() != 2023 || got.Month() != time.June || got.Day() != 1 {
		t.Errorf("CutoffTime = %v, want 2023-06-01", got)
	}

	cfg.Sync.CutoffDate = "01/06/2023"
	if _, err := cfg.CutoffTime(); err == nil {
		t.Error("expected error for malformed cutoff date")
	}
}
