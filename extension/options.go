package extension

import (
	points "github.com/xraph/points"
	"github.com/xraph/points/access"
	"github.com/xraph/points/owner"
	"github.com/xraph/points/plugin"
	"github.com/xraph/points/store"
)

// Option configures the points Forge extension.
type Option func(*Extension)

// WithStore sets the store for the ledger engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithLedgerOption passes a points.Option through to the underlying engine.
func WithLedgerOption(opt points.Option) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, opt)
	}
}

// WithPlugin registers a ledger plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, points.WithPlugin(p))
	}
}

// WithAuthorizer installs the permission backend on the engine.
func WithAuthorizer(auth access.Authorizer) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, points.WithAuthorizer(auth))
	}
}

// WithOwners installs the owner resolver registry on the engine.
func WithOwners(reg *owner.Registry) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, points.WithOwners(reg))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableRoutes prevents HTTP route registration.
func WithDisableRoutes() Option {
	return func(e *Extension) { e.config.DisableRoutes = true }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithBasePath sets the URL prefix for points routes.
func WithBasePath(path string) Option {
	return func(e *Extension) { e.config.BasePath = path }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithMaxRetries bounds the conflict retry loop on mutations.
func WithMaxRetries(n int) Option {
	return func(e *Extension) { e.config.MaxRetries = n }
}
