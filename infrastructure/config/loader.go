package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader builds a Config from layered sources, lowest priority first:
//  1. defaults in code
//  2. base.yaml
//  3. <environment>.yaml
//  4. local.yaml (development only)
//  5. environment variables
type Loader struct {
	basePath    string
	environment Environment
	sources     []string
	fileLoaders []FileLoader
}

// FileLoader decodes one configuration file format
type FileLoader interface {
	Load(reader io.Reader, target interface{}) error
	Extension() string
}

// NewLoader creates a loader reading files from basePath
func NewLoader(basePath string, env Environment) *Loader {
	if basePath == "" {
		basePath = "config"
	}
	l := &Loader{
		basePath:    basePath,
		environment: env,
	}
	l.RegisterLoader(&YAMLLoader{})
	l.RegisterLoader(&JSONLoader{})
	return l
}

// RegisterLoader adds a file format. Formats are tried in registration order.
func (l *Loader) RegisterLoader(loader FileLoader) {
	l.fileLoaders = append(l.fileLoaders, loader)
}

// BasePath returns the directory files are read from
func (l *Loader) BasePath() string {
	return l.basePath
}

// Load applies every layer and validates the result
func (l *Loader) Load() (*Config, error) {
	l.sources = []string{"defaults"}
	cfg := Default(l.environment)

	if err := l.loadFile("base", cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load base config: %w", err)
	}

	envFile := strings.ToLower(string(l.environment))
	if err := l.loadFile(envFile, cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load %s config: %w", envFile, err)
	}

	if l.environment == Development {
		if err := l.loadFile("local", cfg); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load local config: %w", err)
		}
	}

	if err := l.loadEnvironmentVariables(cfg); err != nil {
		return nil, err
	}
	l.sources = append(l.sources, "environment")

	// a file may not move the config to another environment
	cfg.Environment = l.environment
	cfg.LoadedFrom = append([]string(nil), l.sources...)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (l *Loader) loadFile(name string, cfg *Config) error {
	for _, loader := range l.fileLoaders {
		path := filepath.Join(l.basePath, name+"."+loader.Extension())

		file, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}

		err = loader.Load(file, cfg)
		file.Close()
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}

		l.sources = append(l.sources, path)
		return nil
	}
	return os.ErrNotExist
}

// loadEnvironmentVariables overlays the highest priority source
func (l *Loader) loadEnvironmentVariables(cfg *Config) error {
	if val := os.Getenv("SERVER_HOST"); val != "" {
		cfg.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		port, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		cfg.Logging.Level = strings.ToLower(val)
	}

	floats := []struct {
		name   string
		target *float64
	}{
		{"LAYOUT_LINK_STRENGTH", &cfg.Layout.LinkStrengthMultiplier},
		{"LAYOUT_REPULSION", &cfg.Layout.RepulsionMultiplier},
		{"LAYOUT_COLLISION_RADIUS", &cfg.Layout.CollisionRadius},
		{"LAYOUT_CENTER_GRAVITY", &cfg.Layout.CenterGravityStrength},
		{"LAYOUT_VIEWPORT_WIDTH", &cfg.Layout.ViewportWidth},
		{"LAYOUT_VIEWPORT_HEIGHT", &cfg.Layout.ViewportHeight},
	}
	for _, f := range floats {
		val := os.Getenv(f.name)
		if val == "" {
			continue
		}
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.target = parsed
	}

	if val := os.Getenv("LAYOUT_SEED"); val != "" {
		seed, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return fmt.Errorf("LAYOUT_SEED: %w", err)
		}
		cfg.Layout.Seed = seed
	}
	if val := os.Getenv("BOARD_MAX_NOTES"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("BOARD_MAX_NOTES: %w", err)
		}
		cfg.Board.MaxNotes = n
	}
	if val := os.Getenv("BOARD_DEDUPLICATION"); val != "" {
		cfg.Board.EnableDeduplication = parseBool(val)
	}
	if val := os.Getenv("ENABLE_METRICS"); val != "" {
		cfg.Metrics.Enabled = parseBool(val)
	}
	if val := os.Getenv("ENABLE_TRACING"); val != "" {
		cfg.Tracing.Enabled = parseBool(val)
	}
	if val := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); val != "" {
		cfg.Tracing.Endpoint = val
	}
	return nil
}

// YAMLLoader loads configuration from YAML files
type YAMLLoader struct{}

func (y *YAMLLoader) Load(reader io.Reader, target interface{}) error {
	err := yaml.NewDecoder(reader).Decode(target)
	if err == io.EOF {
		return nil
	}
	return err
}

func (y *YAMLLoader) Extension() string {
	return "yaml"
}

// JSONLoader loads configuration from JSON files
type JSONLoader struct{}

func (j *JSONLoader) Load(reader io.Reader, target interface{}) error {
	return json.NewDecoder(reader).Decode(target)
}

func (j *JSONLoader) Extension() string {
	return "json"
}

func parseBool(s string) bool {
	val, _ := strconv.ParseBool(s)
	return val
}

// Load reads ENVIRONMENT and loads from dir
func Load(dir string) (*Config, error) {
	return NewLoader(dir, GetEnvironment()).Load()
}
