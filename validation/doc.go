// Package validation validates gopipe configuration values.
//
// It supports struct tag validation (using the validator library) and
// programmatic validation with error collection. Both report failures as
// an *errors.Error with code INVALID_CONFIG and a "fields" detail.
//
// # Struct Tag Validation
//
//	type Config struct {
//	    Name string `mapstructure:"name" validate:"omitempty,max=64"`
//	}
//	err := validation.Validate(cfg)
//
// # Programmatic Validation
//
//	err := validation.New().
//	    OneOf("log_level", cfg.LogLevel, []string{"debug", "info"}).
//	    Validate()
package validation
