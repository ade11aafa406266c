// Package config loads the noteboard configuration from layered files and
// environment variables, and watches the files for live layout changes.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/samejima-ai/minute-board-app/domain/core/valueobjects"
	"github.com/samejima-ai/minute-board-app/domain/layout"
	pkgerrors "github.com/samejima-ai/minute-board-app/pkg/errors"
	"github.com/samejima-ai/minute-board-app/pkg/utils"
)

// Environment is the deployment environment
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// GetEnvironment reads ENVIRONMENT, defaulting to development
func GetEnvironment() Environment {
	switch Environment(strings.ToLower(strings.TrimSpace(os.Getenv("ENVIRONMENT")))) {
	case Production:
		return Production
	case Staging:
		return Staging
	default:
		return Development
	}
}

// Config is the complete application configuration
type Config struct {
	Environment    Environment    `yaml:"environment" json:"environment" validate:"required,oneof=development staging production"`
	Server         Server         `yaml:"server" json:"server"`
	Logging        Logging        `yaml:"logging" json:"logging"`
	Layout         Layout         `yaml:"layout" json:"layout"`
	Board          Board          `yaml:"board" json:"board"`
	Metrics        Metrics        `yaml:"metrics" json:"metrics"`
	Tracing        Tracing        `yaml:"tracing" json:"tracing"`
	CircuitBreaker CircuitBreaker `yaml:"circuitBreaker" json:"circuitBreaker"`
	CORS           CORS           `yaml:"cors" json:"cors"`

	// LoadedFrom lists the sources applied, lowest priority first
	LoadedFrom []string `yaml:"-" json:"-"`
}

// Server holds HTTP server settings
type Server struct {
	Host            string        `yaml:"host" json:"host"`
	Port            int           `yaml:"port" json:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"readTimeout" json:"readTimeout" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"writeTimeout" json:"writeTimeout"`
	IdleTimeout     time.Duration `yaml:"idleTimeout" json:"idleTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" json:"shutdownTimeout" validate:"gt=0"`
}

// Logging holds logger settings
type Logging struct {
	Level string `yaml:"level" json:"level" validate:"oneof=debug info warn error"`
}

// Layout holds every live-adjustable engine option plus loop settings
type Layout struct {
	LinkStrengthMultiplier float64              `yaml:"linkStrengthMultiplier" json:"linkStrengthMultiplier"`
	RepulsionMultiplier    float64              `yaml:"repulsionMultiplier" json:"repulsionMultiplier"`
	CollisionRadius        float64              `yaml:"collisionRadius" json:"collisionRadius"`
	CenterGravityStrength  float64              `yaml:"centerGravityStrength" json:"centerGravityStrength"`
	ViewportWidth          float64              `yaml:"viewportWidth" json:"viewportWidth"`
	ViewportHeight         float64              `yaml:"viewportHeight" json:"viewportHeight"`
	CardHalfWidth          float64              `yaml:"cardHalfWidth" json:"cardHalfWidth"`
	CardHalfHeight         float64              `yaml:"cardHalfHeight" json:"cardHalfHeight"`
	Margins                valueobjects.Margins `yaml:"margins" json:"margins"`
	FrameRate              int                  `yaml:"frameRate" json:"frameRate" validate:"min=1,max=240"`
	// Seed fixes the placement randomness; 0 seeds from the clock
	Seed int64 `yaml:"seed" json:"seed"`
}

// Parameters converts the section into engine parameters
func (l Layout) Parameters() layout.Parameters {
	return layout.Parameters{
		LinkStrengthMultiplier: l.LinkStrengthMultiplier,
		RepulsionMultiplier:    l.RepulsionMultiplier,
		CollisionRadius:        l.CollisionRadius,
		CenterGravityStrength:  l.CenterGravityStrength,
		ViewportWidth:          l.ViewportWidth,
		ViewportHeight:         l.ViewportHeight,
		CardHalfWidth:          l.CardHalfWidth,
		CardHalfHeight:         l.CardHalfHeight,
		Margins:                l.Margins,
	}
}

// Board holds upstream feed settings
type Board struct {
	MaxNotes            int  `yaml:"maxNotes" json:"maxNotes" validate:"min=1,max=500"`
	EnableDeduplication bool `yaml:"enableDeduplication" json:"enableDeduplication"`
}

// Metrics holds Prometheus settings
type Metrics struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Namespace string `yaml:"namespace" json:"namespace" validate:"required"`
	Path      string `yaml:"path" json:"path" validate:"required,startswith=/"`
}

// Tracing holds OpenTelemetry settings
type Tracing struct {
	Enabled     bool    `yaml:"enabled" json:"enabled"`
	Endpoint    string  `yaml:"endpoint" json:"endpoint"`
	Insecure    bool    `yaml:"insecure" json:"insecure"`
	ServiceName string  `yaml:"serviceName" json:"serviceName" validate:"required"`
	SampleRate  float64 `yaml:"sampleRate" json:"sampleRate" validate:"gte=0,lte=1"`
}

// CircuitBreaker holds settings for the mutation API breaker
type CircuitBreaker struct {
	Enabled      bool          `yaml:"enabled" json:"enabled"`
	MaxRequests  uint32        `yaml:"maxRequests" json:"maxRequests"`
	Interval     time.Duration `yaml:"interval" json:"interval"`
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
	MinRequests  uint32        `yaml:"minRequests" json:"minRequests"`
	FailureRatio float64       `yaml:"failureRatio" json:"failureRatio" validate:"gte=0,lte=1"`
}

// CORS holds cross-origin settings
type CORS struct {
	AllowedOrigins []string `yaml:"allowedOrigins" json:"allowedOrigins"`
	AllowedMethods []string `yaml:"allowedMethods" json:"allowedMethods"`
	AllowedHeaders []string `yaml:"allowedHeaders" json:"allowedHeaders"`
	MaxAge         int      `yaml:"maxAge" json:"maxAge" validate:"gte=0"`
}

// Default returns a configuration that runs without any files
func Default(env Environment) *Config {
	params := layout.DefaultParameters()
	return &Config{
		Environment: env,
		Server: Server{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    0, // SSE streams stay open
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: Logging{Level: "info"},
		Layout: Layout{
			LinkStrengthMultiplier: params.LinkStrengthMultiplier,
			RepulsionMultiplier:    params.RepulsionMultiplier,
			CollisionRadius:        params.CollisionRadius,
			CenterGravityStrength:  params.CenterGravityStrength,
			CardHalfWidth:          params.CardHalfWidth,
			CardHalfHeight:         params.CardHalfHeight,
			Margins:                params.Margins,
			FrameRate:              60,
		},
		Board: Board{
			MaxNotes:            50,
			EnableDeduplication: true,
		},
		Metrics: Metrics{
			Enabled:   true,
			Namespace: "noteboard",
			Path:      "/metrics",
		},
		Tracing: Tracing{
			Enabled:     false,
			Endpoint:    "localhost:4317",
			Insecure:    true,
			ServiceName: "noteboard",
			SampleRate:  0.1,
		},
		CircuitBreaker: CircuitBreaker{
			Enabled:      true,
			MaxRequests:  3,
			Interval:     60 * time.Second,
			Timeout:      30 * time.Second,
			MinRequests:  10,
			FailureRatio: 0.6,
		},
		CORS: CORS{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			MaxAge:         300,
		},
	}
}

// Validate checks field constraints and the layout parameters
func (c *Config) Validate() error {
	if err := utils.ValidateStruct(c); err != nil {
		return pkgerrors.NewValidationWithCause("invalid configuration", err)
	}
	if err := c.Layout.Parameters().Validate(); err != nil {
		return pkgerrors.Wrap(err, "invalid layout configuration")
	}
	return nil
}

// Addr returns the listen address
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
