// Package plugin provides an extensible plugin system for the points ledger.
// Plugins can hook into various lifecycle events to extend functionality.
package plugin

import "context"

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, l interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Point type lifecycle hooks
// ──────────────────────────────────────────────────

// OnTypeCreated is called when a new point type is created.
type OnTypeCreated interface {
	Plugin
	OnTypeCreated(ctx context.Context, pt interface{}) error
}

// OnTypeUpdated is called when a point type is updated.
type OnTypeUpdated interface {
	Plugin
	OnTypeUpdated(ctx context.Context, oldType, newType interface{}) error
}

// OnTypeDeleted is called when a point type is deleted.
type OnTypeDeleted interface {
	Plugin
	OnTypeDeleted(ctx context.Context, typeID string) error
}

// ──────────────────────────────────────────────────
// Balance lifecycle hooks
// ──────────────────────────────────────────────────

// OnBalanceCreated is called when a balance is lazily created for an
// (owner, type) pair that had none.
type OnBalanceCreated interface {
	Plugin
	OnBalanceCreated(ctx context.Context, bal interface{}) error
}

// OnPointsAdded is called after a delta mutation commits. delta is the
// signed quantity applied; bal reflects the post-mutation state.
type OnPointsAdded interface {
	Plugin
	OnPointsAdded(ctx context.Context, bal interface{}, delta float64) error
}

// OnTransfer is called after both legs of a transfer commit. Matching the
// original dispatch order is the engine's job; plugins only observe.
type OnTransfer interface {
	Plugin
	OnTransfer(ctx context.Context, event interface{}) error
}

// ──────────────────────────────────────────────────
// Revision hooks
// ──────────────────────────────────────────────────

// OnRevisionReverted is called when a balance is reverted to a prior
// revision's quantity.
type OnRevisionReverted interface {
	Plugin
	OnRevisionReverted(ctx context.Context, bal interface{}, revisionID int64) error
}

// OnRevisionDeleted is called when a non-current revision is deleted from a
// balance's history.
type OnRevisionDeleted interface {
	Plugin
	OnRevisionDeleted(ctx context.Context, balanceID string, revisionID int64) error
}

// ──────────────────────────────────────────────────
// Log message synthesis
// ──────────────────────────────────────────────────

// LogSynthesizer provides custom log-message synthesis for mutations that
// arrive without an explicit message. The first registered synthesizer whose
// Synthesize returns a non-empty string wins; the engine falls back to its
// built-in phrasing otherwise.
type LogSynthesizer interface {
	Plugin
	Synthesize(ctx context.Context, authorName string, delta float64) string
}
