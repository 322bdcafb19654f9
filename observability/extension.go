// Package observability provides a metrics extension for the points ledger
// that records lifecycle event counts via go-utils MetricFactory.
package observability

import (
	"context"
	"math"

	"github.com/xraph/points/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin             = (*MetricsExtension)(nil)
	_ plugin.OnInit             = (*MetricsExtension)(nil)
	_ plugin.OnTypeCreated      = (*MetricsExtension)(nil)
	_ plugin.OnTypeUpdated      = (*MetricsExtension)(nil)
	_ plugin.OnTypeDeleted      = (*MetricsExtension)(nil)
	_ plugin.OnBalanceCreated   = (*MetricsExtension)(nil)
	_ plugin.OnPointsAdded      = (*MetricsExtension)(nil)
	_ plugin.OnTransfer         = (*MetricsExtension)(nil)
	_ plugin.OnRevisionReverted = (*MetricsExtension)(nil)
	_ plugin.OnRevisionDeleted  = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a ledger plugin to automatically track points metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Point type metrics
	TypeCreated Counter
	TypeUpdated Counter
	TypeDeleted Counter

	// Balance metrics
	BalanceCreated Counter
	PointsCredited Counter
	PointsDebited  Counter
	DeltaMagnitude Histogram

	// Transfer metrics
	Transfers Counter

	// Revision metrics
	RevisionReverted Counter
	RevisionDeleted  Counter

	// Error metrics
	StoreErrors  Counter
	PluginErrors Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Point type metrics
		TypeCreated: factory.Counter("points.type.created"),
		TypeUpdated: factory.Counter("points.type.updated"),
		TypeDeleted: factory.Counter("points.type.deleted"),

		// Balance metrics
		BalanceCreated: factory.Counter("points.balance.created"),
		PointsCredited: factory.Counter("points.credited"),
		PointsDebited:  factory.Counter("points.debited"),
		DeltaMagnitude: factory.Histogram("points.delta.magnitude"),

		// Transfer metrics
		Transfers: factory.Counter("points.transfers"),

		// Revision metrics
		RevisionReverted: factory.Counter("points.revision.reverted"),
		RevisionDeleted:  factory.Counter("points.revision.deleted"),

		// Error metrics
		StoreErrors:  factory.Counter("points.store.errors"),
		PluginErrors: factory.Counter("points.plugin.errors"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Point type lifecycle hooks
// ──────────────────────────────────────────────────

// OnTypeCreated implements plugin.OnTypeCreated.
func (m *MetricsExtension) OnTypeCreated(_ context.Context, _ interface{}) error {
	m.TypeCreated.Inc()
	return nil
}

// OnTypeUpdated implements plugin.OnTypeUpdated.
func (m *MetricsExtension) OnTypeUpdated(_ context.Context, _, _ interface{}) error {
	m.TypeUpdated.Inc()
	return nil
}

// OnTypeDeleted implements plugin.OnTypeDeleted.
func (m *MetricsExtension) OnTypeDeleted(_ context.Context, _ string) error {
	m.TypeDeleted.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Balance lifecycle hooks
// ──────────────────────────────────────────────────

// OnBalanceCreated implements plugin.OnBalanceCreated.
func (m *MetricsExtension) OnBalanceCreated(_ context.Context, _ interface{}) error {
	m.BalanceCreated.Inc()
	return nil
}

// OnPointsAdded implements plugin.OnPointsAdded.
func (m *MetricsExtension) OnPointsAdded(_ context.Context, _ interface{}, delta float64) error {
	if delta < 0 {
		m.PointsDebited.Inc()
	} else {
		m.PointsCredited.Inc()
	}
	m.DeltaMagnitude.Observe(math.Abs(delta))
	return nil
}

// OnTransfer implements plugin.OnTransfer.
func (m *MetricsExtension) OnTransfer(_ context.Context, _ interface{}) error {
	m.Transfers.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Revision hooks
// ──────────────────────────────────────────────────

// OnRevisionReverted implements plugin.OnRevisionReverted.
func (m *MetricsExtension) OnRevisionReverted(_ context.Context, _ interface{}, _ int64) error {
	m.RevisionReverted.Inc()
	return nil
}

// OnRevisionDeleted implements plugin.OnRevisionDeleted.
func (m *MetricsExtension) OnRevisionDeleted(_ context.Context, _ string, _ int64) error {
	m.RevisionDeleted.Inc()
	return nil
}
