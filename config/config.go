// Package config loads and validates the bridge configuration from a YAML
// file or from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds everything needed to reach the ingestion service and shape the
// bridge's local behavior.
type Config struct {
	// DataPlaneURL is the ingestion endpoint events are delivered to.
	DataPlaneURL string `yaml:"data_plane_url" validate:"required,url"`
	// WriteKey identifies this application to the ingestion service.
	WriteKey string `yaml:"write_key" validate:"required,notblank"`
	// AnonymousID pre-seeds the persisted anonymous id. Leave empty to keep
	// the stored one (or generate a fresh one on first run). A value set here
	// must be provided on subsequent runs to stay the same user.
	AnonymousID string `yaml:"anonymous_id"`
	// StatePath is the JSON file the identity state is persisted to.
	StatePath string `yaml:"state_path" validate:"required"`
	// WatchState reloads the identity state when the file changes on disk.
	WatchState bool `yaml:"watch_state"`

	// FlushIntervalMs and BatchSize tune the transport client; zero keeps
	// its defaults.
	FlushIntervalMs int `yaml:"flush_interval_ms" validate:"gte=0"`
	BatchSize       int `yaml:"batch_size" validate:"gte=0"`

	// EventsPerMinute caps events per kind per minute. Zero disables the cap.
	EventsPerMinute int `yaml:"events_per_minute" validate:"gte=0"`
}

// Load reads a YAML config file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &cfg, nil
}

// FromEnv builds a Config from RUDDERBRIDGE_* environment variables. A .env
// file in the working directory is loaded first when present.
func FromEnv() *Config {
	_ = godotenv.Load()
	cfg := &Config{
		DataPlaneURL: os.Getenv("RUDDERBRIDGE_DATA_PLANE_URL"),
		WriteKey:     os.Getenv("RUDDERBRIDGE_WRITE_KEY"),
		AnonymousID:  os.Getenv("RUDDERBRIDGE_ANONYMOUS_ID"),
		StatePath:    os.Getenv("RUDDERBRIDGE_STATE_PATH"),
		WatchState:   os.Getenv("RUDDERBRIDGE_WATCH_STATE") == "true",
	}
	cfg.FlushIntervalMs = envInt("RUDDERBRIDGE_FLUSH_INTERVAL_MS")
	cfg.BatchSize = envInt("RUDDERBRIDGE_BATCH_SIZE")
	cfg.EventsPerMinute = envInt("RUDDERBRIDGE_EVENTS_PER_MINUTE")
	return cfg
}

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(fmt.Sprintf("config: register notblank: %v", err))
	}
	// Report fields under their yaml names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks required fields before the bridge starts.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		f := verrs[0]
		return fmt.Errorf("config: field %s failed %q validation", f.Field(), f.Tag())
	}
	return err
}
