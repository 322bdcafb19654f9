package extension

// Config holds the points extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.points" or "points" keys).
type Config struct {
	// DisableRoutes prevents HTTP route registration.
	DisableRoutes bool `json:"disable_routes" mapstructure:"disable_routes" yaml:"disable_routes"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// BasePath is the URL prefix for points routes (default: "/points").
	BasePath string `json:"base_path" mapstructure:"base_path" yaml:"base_path"`

	// MaxRetries bounds how many times a mutation retries after a revision
	// write conflict (default: 3).
	MaxRetries int `json:"max_retries" mapstructure:"max_retries" yaml:"max_retries"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BasePath:   "/points",
		MaxRetries: 3,
	}
}
