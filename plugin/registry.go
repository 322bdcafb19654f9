package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit             []OnInit
	onShutdown         []OnShutdown
	onTypeCreated      []OnTypeCreated
	onTypeUpdated      []OnTypeUpdated
	onTypeDeleted      []OnTypeDeleted
	onBalanceCreated   []OnBalanceCreated
	onPointsAdded      []OnPointsAdded
	onTransfer         []OnTransfer
	onRevisionReverted []OnRevisionReverted
	onRevisionDeleted  []OnRevisionDeleted
	logSynthesizers    []LogSynthesizer
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{logger: slog.Default()}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnTypeCreated); ok {
		r.onTypeCreated = append(r.onTypeCreated, v)
	}
	if v, ok := p.(OnTypeUpdated); ok {
		r.onTypeUpdated = append(r.onTypeUpdated, v)
	}
	if v, ok := p.(OnTypeDeleted); ok {
		r.onTypeDeleted = append(r.onTypeDeleted, v)
	}
	if v, ok := p.(OnBalanceCreated); ok {
		r.onBalanceCreated = append(r.onBalanceCreated, v)
	}
	if v, ok := p.(OnPointsAdded); ok {
		r.onPointsAdded = append(r.onPointsAdded, v)
	}
	if v, ok := p.(OnTransfer); ok {
		r.onTransfer = append(r.onTransfer, v)
	}
	if v, ok := p.(OnRevisionReverted); ok {
		r.onRevisionReverted = append(r.onRevisionReverted, v)
	}
	if v, ok := p.(OnRevisionDeleted); ok {
		r.onRevisionDeleted = append(r.onRevisionDeleted, v)
	}
	if v, ok := p.(LogSynthesizer); ok {
		r.logSynthesizers = append(r.logSynthesizers, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	// Check each interface
	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	// List all interfaces to check
	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnTypeCreated)(nil)).Elem(), "OnTypeCreated")
	checkInterface(reflect.TypeOf((*OnBalanceCreated)(nil)).Elem(), "OnBalanceCreated")
	checkInterface(reflect.TypeOf((*OnPointsAdded)(nil)).Elem(), "OnPointsAdded")
	checkInterface(reflect.TypeOf((*OnTransfer)(nil)).Elem(), "OnTransfer")
	checkInterface(reflect.TypeOf((*OnRevisionReverted)(nil)).Elem(), "OnRevisionReverted")
	checkInterface(reflect.TypeOf((*OnRevisionDeleted)(nil)).Elem(), "OnRevisionDeleted")
	checkInterface(reflect.TypeOf((*LogSynthesizer)(nil)).Elem(), "LogSynthesizer")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, ledger interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, ledger)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitTypeCreated emits a point type created event.
func (r *Registry) EmitTypeCreated(ctx context.Context, pt interface{}) {
	r.mu.RLock()
	plugins := r.onTypeCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTypeCreated(ctx, pt)
		}); err != nil {
			r.logger.Warn("plugin OnTypeCreated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitTypeUpdated emits a point type updated event.
func (r *Registry) EmitTypeUpdated(ctx context.Context, oldType, newType interface{}) {
	r.mu.RLock()
	plugins := r.onTypeUpdated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTypeUpdated(ctx, oldType, newType)
		}); err != nil {
			r.logger.Warn("plugin OnTypeUpdated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitTypeDeleted emits a point type deleted event.
func (r *Registry) EmitTypeDeleted(ctx context.Context, typeID string) {
	r.mu.RLock()
	plugins := r.onTypeDeleted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTypeDeleted(ctx, typeID)
		}); err != nil {
			r.logger.Warn("plugin OnTypeDeleted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitBalanceCreated emits a balance created event.
func (r *Registry) EmitBalanceCreated(ctx context.Context, bal interface{}) {
	r.mu.RLock()
	plugins := r.onBalanceCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnBalanceCreated(ctx, bal)
		}); err != nil {
			r.logger.Warn("plugin OnBalanceCreated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPointsAdded emits a points added event.
func (r *Registry) EmitPointsAdded(ctx context.Context, bal interface{}, delta float64) {
	r.mu.RLock()
	plugins := r.onPointsAdded
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPointsAdded(ctx, bal, delta)
		}); err != nil {
			r.logger.Warn("plugin OnPointsAdded failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitTransfer emits a transfer event.
func (r *Registry) EmitTransfer(ctx context.Context, event interface{}) {
	r.mu.RLock()
	plugins := r.onTransfer
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTransfer(ctx, event)
		}); err != nil {
			r.logger.Warn("plugin OnTransfer failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitRevisionReverted emits a revision reverted event.
func (r *Registry) EmitRevisionReverted(ctx context.Context, bal interface{}, revisionID int64) {
	r.mu.RLock()
	plugins := r.onRevisionReverted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnRevisionReverted(ctx, bal, revisionID)
		}); err != nil {
			r.logger.Warn("plugin OnRevisionReverted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitRevisionDeleted emits a revision deleted event.
func (r *Registry) EmitRevisionDeleted(ctx context.Context, balanceID string, revisionID int64) {
	r.mu.RLock()
	plugins := r.onRevisionDeleted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnRevisionDeleted(ctx, balanceID, revisionID)
		}); err != nil {
			r.logger.Warn("plugin OnRevisionDeleted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// SynthesizeLog asks registered synthesizers for a log message. The first
// non-empty answer wins; an empty string means no plugin claimed the message.
func (r *Registry) SynthesizeLog(ctx context.Context, authorName string, delta float64) string {
	r.mu.RLock()
	plugins := r.logSynthesizers
	r.mu.RUnlock()

	for _, p := range plugins {
		if msg := p.Synthesize(ctx, authorName, delta); msg != "" {
			return msg
		}
	}
	return ""
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the ledger pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
