// Package config loads the library's runtime knobs from a TOML file,
// mirroring the teacher's layered config loader (file defaults, validated
// with struct tags) but scoped to what this module actually needs: where
// the typed-value dictionaries live, the default path-with-hops cutoff,
// and the log level.
package config

import (
	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/fabric-testbed/InformationModel-sub001/pkg/modelerrors"
	"github.com/fabric-testbed/InformationModel-sub001/pkg/typedvalue"
)

// Config is the complete configuration surface for cmd/armctl and any
// embedding application.
type Config struct {
	Dictionaries   Dictionaries `toml:"dictionaries" validate:"dive"`
	// DefaultCutoff is loaded and validated, but nothing in this module
	// reads it: interfaces/http's /path endpoint treats a missing cutoff
	// as no limit.
	DefaultCutoff  int          `toml:"default_cutoff" validate:"min=0"`
	Logging        Logging      `toml:"logging" validate:"dive"`
	Tracing        Tracing      `toml:"tracing" validate:"dive"`
}

// Dictionaries optionally overrides the embedded typed-value dictionaries
// with files on disk, for deployments that need to extend the kind
// vocabulary without a rebuild.
type Dictionaries struct {
	LabelPath      string `toml:"label_path" validate:"omitempty,file"`
	CapacityPath   string `toml:"capacity_path" validate:"omitempty,file"`
	LocationPath   string `toml:"location_path" validate:"omitempty,file"`
	ConstraintPath string `toml:"constraint_path" validate:"omitempty,file"`
}

// Logging configures internal/logging.New.
type Logging struct {
	Debug bool `toml:"debug"`
}

// Tracing configures internal/tracing's optional OTLP exporter.
type Tracing struct {
	Enabled        bool   `toml:"enabled"`
	OTLPEndpoint   string `toml:"otlp_endpoint" validate:"required_if=Enabled true"`
	ServiceName    string `toml:"service_name"`
}

// Default returns the built-in defaults, used when no config file is
// supplied.
func Default() Config {
	return Config{
		DefaultCutoff: 10,
		Logging:       Logging{Debug: false},
		Tracing:       Tracing{ServiceName: "armctl"},
	}
}

// Load reads and validates a TOML config file, layering it on top of
// Default() for any field the file omits.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, modelerrors.Wrap(err, modelerrors.Malformed, "loading config %q", path)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, modelerrors.Wrap(err, modelerrors.Malformed, "validating config %q", path)
	}
	if err := cfg.Dictionaries.apply(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// apply loads any dictionary override path onto the package-level typed
// value dictionaries. Called once at startup; this library has no
// long-running server loop to watch the files for changes against, so
// unlike the teacher's config packages there is no fsnotify watcher here —
// see DESIGN.md.
func (d Dictionaries) apply() error {
	for cat, path := range map[typedvalue.Category]string{
		typedvalue.Label:      d.LabelPath,
		typedvalue.Capacity:   d.CapacityPath,
		typedvalue.Location:   d.LocationPath,
		typedvalue.Constraint: d.ConstraintPath,
	} {
		if path == "" {
			continue
		}
		if err := typedvalue.LoadOverride(cat, path); err != nil {
			return err
		}
	}
	return nil
}
