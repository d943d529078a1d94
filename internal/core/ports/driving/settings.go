package driving

import "github.com/custodia-labs/kbase/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves effective settings: defaults, then the config file,
	// then environment variables.
	Get() (*domain.AppSettings, error)

	// Set persists a single configuration key.
	Set(key, value string) error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// Path returns the configuration file location.
	Path() string
}
