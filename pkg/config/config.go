// Package config loads the optional bind.yaml file that selects binding
// defaults and soak-run parameters.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/mod/semver"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/bind/pkg/binding"
	"github.com/go-drift/bind/pkg/observability"
)

// FileName is the name of the optional configuration file.
const FileName = "bind.yaml"

// SchemaVersion is the newest supported bind.yaml schema. Files declaring
// the same major version are accepted.
const SchemaVersion = "v1.0.0"

// Dispatch kinds.
const (
	DispatchNone   = "none"
	DispatchInline = "inline"
	DispatchSerial = "serial"
)

// Observer kinds.
const (
	ObserverNoop       = "noop"
	ObserverSlog       = "slog"
	ObserverPrometheus = "prometheus"
)

// Config represents the optional bind.yaml configuration.
type Config struct {
	Version  string         `yaml:"version,omitempty" mapstructure:"version" validate:"omitempty,semver_major"`
	Binding  BindingConfig  `yaml:"binding" mapstructure:"binding"`
	Dispatch DispatchConfig `yaml:"dispatch" mapstructure:"dispatch"`
	Observer ObserverConfig `yaml:"observer" mapstructure:"observer"`
	Soak     SoakConfig     `yaml:"soak" mapstructure:"soak"`
}

// BindingConfig holds defaults applied to every binding.
type BindingConfig struct {
	Mode   string `yaml:"mode,omitempty" mapstructure:"mode" validate:"omitempty,mode"`
	Locale string `yaml:"locale,omitempty" mapstructure:"locale" validate:"omitempty,locale"`
}

// DispatchConfig selects where binding updates run.
type DispatchConfig struct {
	Kind string `yaml:"kind,omitempty" mapstructure:"kind" validate:"omitempty,oneof=none inline serial"`
}

// ObserverConfig selects the binding event observer: slog, prometheus or
// any name registered with observability.RegisterObserver.
type ObserverConfig struct {
	Kind      string `yaml:"kind,omitempty" mapstructure:"kind" validate:"omitempty,observer"`
	Namespace string `yaml:"namespace,omitempty" mapstructure:"namespace" validate:"omitempty,alphanum"`
}

// SoakConfig sizes a concurrent soak run.
type SoakConfig struct {
	SourceWriters   int `yaml:"source_writers,omitempty" mapstructure:"source_writers" validate:"gte=0,lte=1024"`
	PropertyWriters int `yaml:"property_writers,omitempty" mapstructure:"property_writers" validate:"gte=0,lte=1024"`
	Iterations      int `yaml:"iterations,omitempty" mapstructure:"iterations" validate:"gte=0,lte=10000000"`
}

// Resolved contains validated configuration with defaults applied.
type Resolved struct {
	Root      string
	Version   string
	Mode      binding.Mode
	Locale    language.Tag
	Dispatch  string
	Observer  string
	Namespace string
	Soak      SoakConfig
}

// LoadOptional reads bind.yaml from dir if present. A missing file yields
// an empty Config.
func LoadOptional(dir string) (*Config, error) {
	cfg, err := Load(filepath.Join(dir, FileName))
	if errors.Is(err, os.ErrNotExist) {
		return &Config{}, nil
	}
	return cfg, err
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return &cfg, nil
}

// Resolve loads bind.yaml from dir (if present) and resolves defaults.
func Resolve(dir string) (*Resolved, error) {
	cfg, err := LoadOptional(dir)
	if err != nil {
		return nil, err
	}
	r, err := cfg.Resolve()
	if err != nil {
		return nil, err
	}
	r.Root = dir
	return r, nil
}

// Resolve validates c and fills in defaults.
func (c *Config) Resolve() (*Resolved, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	version := strings.TrimSpace(c.Version)
	if version == "" {
		version = SchemaVersion
	}

	mode := binding.TwoWay
	if s := strings.TrimSpace(c.Binding.Mode); s != "" {
		// Validate has already checked the name.
		mode, _ = binding.ParseMode(s)
	}

	locale := language.Und
	if s := strings.TrimSpace(c.Binding.Locale); s != "" {
		locale = language.Make(s)
	}

	return &Resolved{
		Version:   version,
		Mode:      mode,
		Locale:    locale,
		Dispatch:  withDefault(c.Dispatch.Kind, DispatchNone),
		Observer:  withDefault(c.Observer.Kind, ObserverSlog),
		Namespace: withDefault(c.Observer.Namespace, "bind"),
		Soak: SoakConfig{
			SourceWriters:   withDefaultInt(c.Soak.SourceWriters, 8),
			PropertyWriters: withDefaultInt(c.Soak.PropertyWriters, 8),
			Iterations:      withDefaultInt(c.Soak.Iterations, 1000),
		},
	}, nil
}

// Validate checks field values and the schema version.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid %s: %s", FileName, describe(verrs[0]))
		}
		return fmt.Errorf("invalid %s: %w", FileName, err)
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := strings.ToLower(strings.TrimPrefix(fe.Namespace(), "Config."))
	switch fe.Tag() {
	case "semver_major":
		return fmt.Sprintf("%s %q is not a supported schema version (want %s)", field, fe.Value(), semver.Major(SchemaVersion))
	case "mode":
		return fmt.Sprintf("%s %q is not a binding mode", field, fe.Value())
	case "locale":
		return fmt.Sprintf("%s %q is not a BCP 47 language tag", field, fe.Value())
	case "observer":
		return fmt.Sprintf("%s %q is not a known observer (want %s, %s or one of [%s])",
			field, fe.Value(), ObserverSlog, ObserverPrometheus, strings.Join(observability.ObserverNames(), " "))
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s] (got %q)", field, fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %s=%s (got %v)", field, fe.Tag(), fe.Param(), fe.Value())
	}
}

func withDefault(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}

func withDefaultInt(n, def int) int {
	if n > 0 {
		return n
	}
	return def
}
