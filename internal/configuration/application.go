package configuration

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/desertwitch/volguard/internal/pathing"
	"github.com/go-playground/validator/v10"
)

// Keys of the configuration file.
const (
	KeyVolumePrefix     = "VOLUME_"
	KeyLogLevel         = "LOG_LEVEL"
	KeyMetricsAddr      = "METRICS_ADDR"
	KeyCurrentDirectory = "CURRENT_DIRECTORY"

	DefaultLogLevel = "INFO"
)

var validate = validator.New()

// AppConfiguration is the principal structure holding the application
// configuration.
type AppConfiguration struct {
	// Volumes maps drive letters (such as "D") to the host directories
	// backing them.
	Volumes map[string]string `validate:"required,min=1,dive,keys,len=1,alpha,endkeys,required,dir"`

	LogLevel string `validate:"required,oneof=DEBUG INFO WARN ERROR"`

	// MetricsAddr is the listen address of the metrics server, which is
	// disabled if empty.
	MetricsAddr string `validate:"omitempty,hostname_port"`

	// CurrentDirectory is the initial working directory.
	CurrentDirectory string
}

// NewAppConfiguration reads the configuration file filename through provider
// and returns a pointer to the validated [AppConfiguration].
func NewAppConfiguration(provider *ConfigProviderImpl, filename string) (*AppConfiguration, error) {
	envMap, err := provider.ReadGeneric(filename)
	if err != nil {
		return nil, fmt.Errorf("(config-new) %w", err)
	}

	cfg := &AppConfiguration{
		Volumes:          provider.MapPrefixToMap(envMap, KeyVolumePrefix),
		LogLevel:         strings.ToUpper(provider.MapKeyToString(envMap, KeyLogLevel)),
		MetricsAddr:      provider.MapKeyToString(envMap, KeyMetricsAddr),
		CurrentDirectory: provider.MapKeyToString(envMap, KeyCurrentDirectory),
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("(config-new) %w", err)
	}

	return cfg, nil
}

// Validate validates the [AppConfiguration].
func (c *AppConfiguration) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}

	if c.CurrentDirectory != "" {
		if pathing.RootLength(c.CurrentDirectory) < 2 || c.CurrentDirectory[1] != pathing.VolumeSeparator {
			return fmt.Errorf("%w: %s must start with a drive letter", ErrInvalidValue, KeyCurrentDirectory)
		}
		if _, ok := c.Volumes[strings.ToUpper(c.CurrentDirectory[:1])]; !ok {
			return fmt.Errorf("%w: %s lies on an unconfigured volume", ErrInvalidValue, KeyCurrentDirectory)
		}
	}

	return nil
}

// SlogLevel returns the [slog.Level] of the configured log level.
func (c *AppConfiguration) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}

	return level
}

func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		e := validationErrs[0]

		return fmt.Errorf("%w: %s failed on '%s' (value: %v)", ErrInvalidValue, e.Namespace(), e.Tag(), e.Value())
	}

	return fmt.Errorf("%w: %w", ErrInvalidValue, err)
}
