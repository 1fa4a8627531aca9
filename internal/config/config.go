// Package config loads the treespotter CLI configuration.
package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/aretw0/treespotter/pkg/core"
)

// Config is the root CLI configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store"`
	FS       FSConfig       `yaml:"fs"`
	Firebase FirebaseConfig `yaml:"firestore"`
	Location LocationConfig `yaml:"location"`
	Notify   NotifyConfig   `yaml:"notify"`
	Log      LogConfig      `yaml:"log"`
}

// StoreConfig selects and sizes the backing collection.
type StoreConfig struct {
	Adapter string `yaml:"adapter" env:"TREESPOTTER_ADAPTER" env-default:"fs"`
	Limit   int    `yaml:"limit"   env:"TREESPOTTER_LIMIT"   env-default:"10"`
}

// FSConfig holds settings for the directory adapter.
type FSConfig struct {
	Path     string        `yaml:"path"      env:"TREESPOTTER_PATH"      env-default:"."`
	Format   string        `yaml:"format"    env:"TREESPOTTER_FORMAT"    env-default:".yaml"`
	Pattern  string        `yaml:"pattern"   env:"TREESPOTTER_PATTERN"   env-default:"*.{yaml,yml,json}"`
	Debounce time.Duration `yaml:"debounce"  env:"TREESPOTTER_DEBOUNCE"  env-default:"50ms"`
	ReadOnly bool          `yaml:"read_only" env:"TREESPOTTER_READ_ONLY" env-default:"false"`
}

// FirebaseConfig holds settings for the Firestore adapter.
type FirebaseConfig struct {
	ProjectID       string `yaml:"project_id"       env:"TREESPOTTER_PROJECT_ID"`
	Collection      string `yaml:"collection"       env:"TREESPOTTER_COLLECTION"  env-default:"trees"`
	CredentialsFile string `yaml:"credentials_file" env:"TREESPOTTER_CREDENTIALS"`
}

// LocationConfig describes the device location available to the CLI.
// There is no GPS on a terminal, so the fix comes from configuration.
type LocationConfig struct {
	// Disabled answers every location permission request with a denial.
	Disabled  bool     `yaml:"disabled"  env:"TREESPOTTER_LOCATION_DISABLED" env-default:"false"`
	Latitude  *float64 `yaml:"latitude"  env:"TREESPOTTER_LAT"`
	Longitude *float64 `yaml:"longitude" env:"TREESPOTTER_LON"`
}

// NotifyConfig selects where transient messages are shown.
type NotifyConfig struct {
	Desktop bool `yaml:"desktop" env:"TREESPOTTER_NOTIFY_DESKTOP" env-default:"false"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level" env:"TREESPOTTER_LOG_LEVEL" env-default:"info"`
}

var (
	validAdapters  = []string{"memory", "fs", "firestore"}
	validFormats   = []string{".yaml", ".yml", ".json"}
	validLogLevels = []string{"debug", "info", "warn", "error"}
)

// Validate checks cross-field constraints not expressible in tags.
func (c *Config) Validate() error {
	var errs []error

	if !slices.Contains(validAdapters, c.Store.Adapter) {
		errs = append(errs, fmt.Errorf("store.adapter must be one of %v, got %q", validAdapters, c.Store.Adapter))
	}
	if c.Store.Limit <= 0 {
		errs = append(errs, fmt.Errorf("store.limit must be positive, got %d", c.Store.Limit))
	}
	if c.Store.Adapter == "fs" {
		if c.FS.Path == "" {
			errs = append(errs, errors.New("fs.path is required"))
		}
		if !slices.Contains(validFormats, c.FS.Format) {
			errs = append(errs, fmt.Errorf("fs.format must be one of %v, got %q", validFormats, c.FS.Format))
		}
		if c.FS.Debounce < 0 {
			errs = append(errs, errors.New("fs.debounce must not be negative"))
		}
	}
	if c.Store.Adapter == "firestore" && c.Firebase.ProjectID == "" {
		errs = append(errs, errors.New("firestore.project_id is required for the firestore adapter"))
	}
	if (c.Location.Latitude == nil) != (c.Location.Longitude == nil) {
		errs = append(errs, errors.New("location.latitude and location.longitude must be set together"))
	}
	if p, ok := c.Location.Point(); ok {
		if err := p.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("location: %w", err))
		}
	}
	if !slices.Contains(validLogLevels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level must be one of %v, got %q", validLogLevels, c.Log.Level))
	}

	return errors.Join(errs...)
}

// Point returns the configured location, if any.
func (l LocationConfig) Point() (core.GeoPoint, bool) {
	if l.Latitude == nil || l.Longitude == nil {
		return core.GeoPoint{}, false
	}
	return core.GeoPoint{Latitude: *l.Latitude, Longitude: *l.Longitude}, true
}
