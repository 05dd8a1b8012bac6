package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/andybalholm/cascadia"

	"misinfo-guard/internal/models"
	"misinfo-guard/internal/scanner"
)

// AppName is used for the XDG config directory.
const AppName = "misinfo-guard"

const DefaultAPIURL = "https://misinformation-detector-ai.vercel.app/check-headlines"

type Config struct {
	APIURL       string            `yaml:"api_url"`
	AssetBaseURL string            `yaml:"asset_base_url"`
	Log          LogConfig         `yaml:"log"`
	Scan         ScanConfig        `yaml:"scan"`
	Classifier   ClassifierConfig  `yaml:"classifier"`
	Dispatch     DispatchConfig    `yaml:"dispatch"`
	Profiles     []scanner.Profile `yaml:"profiles"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type ScanConfig struct {
	SettleDelay time.Duration `yaml:"settle_delay"`
	Debounce    time.Duration `yaml:"debounce"`
	MinLength   int           `yaml:"min_length"`
	MaxLength   int           `yaml:"max_length"`
}

type ClassifierConfig struct {
	// Timeout of zero leaves classification calls without a deadline.
	Timeout      time.Duration `yaml:"timeout"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
}

type DispatchConfig struct {
	Mode         string        `yaml:"mode"`
	Delay        time.Duration `yaml:"delay"`
	ReadyTimeout time.Duration `yaml:"ready_timeout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		APIURL:       DefaultAPIURL,
		AssetBaseURL: "moz-extension://misinfo-guard/",
		Log:          LogConfig{Level: "info"},
		Scan: ScanConfig{
			SettleDelay: 1500 * time.Millisecond,
			Debounce:    250 * time.Millisecond,
			MinLength:   scanner.DefaultMinLength,
			MaxLength:   scanner.DefaultMaxLength,
		},
		Classifier: ClassifierConfig{
			DialTimeout:  5 * time.Second,
			MaxBodyBytes: 1 << 20,
		},
		Dispatch: DispatchConfig{
			Mode:         "handshake",
			Delay:        150 * time.Millisecond,
			ReadyTimeout: 2 * time.Second,
		},
		Profiles: scanner.DefaultProfiles(),
	}
}

// Validate checks the configuration for values the components cannot use.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return ErrNoAPIURL
	}
	if c.Scan.MinLength <= 0 || c.Scan.MaxLength <= 0 || c.Scan.MinLength >= c.Scan.MaxLength {
		return ErrInvalidLengthBounds
	}
	if c.Scan.SettleDelay < 0 || c.Scan.Debounce < 0 || c.Dispatch.Delay < 0 ||
		c.Dispatch.ReadyTimeout < 0 || c.Classifier.Timeout < 0 || c.Classifier.DialTimeout < 0 {
		return ErrNegativeDuration
	}
	switch c.Dispatch.Mode {
	case "handshake", "delay":
	default:
		return ErrInvalidDispatchMode
	}
	for _, p := range c.Profiles {
		if len(p.Hosts) == 0 || p.Container == "" {
			return ErrInvalidProfile
		}
		switch p.Kind {
		case models.ProfileGeneric, models.ProfileMicroblog, "":
		default:
			return ErrInvalidProfile
		}
		if _, err := cascadia.Compile(p.Container); err != nil {
			return ErrInvalidProfile
		}
	}
	return nil
}

// ConfigDir returns the XDG configuration directory for the application.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}
