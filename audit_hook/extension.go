// Package audithook bridges points ledger lifecycle events to an audit
// trail backend.
//
// It defines a local Recorder interface so the package does not import
// Chronicle directly. Callers inject a RecorderFunc adapter that bridges
// to Chronicle at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/points/balance"
	"github.com/xraph/points/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin             = (*Extension)(nil)
	_ plugin.OnTypeCreated      = (*Extension)(nil)
	_ plugin.OnTypeUpdated      = (*Extension)(nil)
	_ plugin.OnTypeDeleted      = (*Extension)(nil)
	_ plugin.OnBalanceCreated   = (*Extension)(nil)
	_ plugin.OnPointsAdded      = (*Extension)(nil)
	_ plugin.OnTransfer         = (*Extension)(nil)
	_ plugin.OnRevisionReverted = (*Extension)(nil)
	_ plugin.OnRevisionDeleted  = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// This matches chronicle.Emitter but is defined locally so that the
// audit_hook package does not import Chronicle directly — callers inject
// the concrete *chronicle.Chronicle at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
// It mirrors chronicle/audit.Event but avoids a module dependency.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges points ledger lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Point type lifecycle hooks
// ──────────────────────────────────────────────────

// OnTypeCreated implements plugin.OnTypeCreated.
func (e *Extension) OnTypeCreated(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionTypeCreated, SeverityInfo, OutcomeSuccess,
		ResourceType, "", CategoryConfig, nil,
		"event", "type_created",
	)
}

// OnTypeUpdated implements plugin.OnTypeUpdated.
func (e *Extension) OnTypeUpdated(ctx context.Context, _, _ interface{}) error {
	return e.record(ctx, ActionTypeUpdated, SeverityInfo, OutcomeSuccess,
		ResourceType, "", CategoryConfig, nil,
		"event", "type_updated",
	)
}

// OnTypeDeleted implements plugin.OnTypeDeleted.
func (e *Extension) OnTypeDeleted(ctx context.Context, typeID string) error {
	return e.record(ctx, ActionTypeDeleted, SeverityWarning, OutcomeSuccess,
		ResourceType, typeID, CategoryConfig, nil,
		"type_id", typeID,
	)
}

// ──────────────────────────────────────────────────
// Balance lifecycle hooks
// ──────────────────────────────────────────────────

// OnBalanceCreated implements plugin.OnBalanceCreated.
func (e *Extension) OnBalanceCreated(ctx context.Context, bal interface{}) error {
	resourceID, meta := balanceDetails(bal)
	return e.record(ctx, ActionBalanceCreated, SeverityInfo, OutcomeSuccess,
		ResourceBalance, resourceID, CategoryLedger, nil,
		meta...,
	)
}

// OnPointsAdded implements plugin.OnPointsAdded.
func (e *Extension) OnPointsAdded(ctx context.Context, bal interface{}, delta float64) error {
	resourceID, meta := balanceDetails(bal)
	meta = append(meta, "delta", delta)
	return e.record(ctx, ActionPointsAdded, SeverityInfo, OutcomeSuccess,
		ResourceBalance, resourceID, CategoryLedger, nil,
		meta...,
	)
}

// OnTransfer implements plugin.OnTransfer.
func (e *Extension) OnTransfer(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionTransfer, SeverityInfo, OutcomeSuccess,
		ResourceBalance, "", CategoryLedger, nil,
		"event", "points_transferred",
	)
}

// ──────────────────────────────────────────────────
// Revision hooks
// ──────────────────────────────────────────────────

// OnRevisionReverted implements plugin.OnRevisionReverted.
func (e *Extension) OnRevisionReverted(ctx context.Context, bal interface{}, revisionID int64) error {
	resourceID, meta := balanceDetails(bal)
	meta = append(meta, "revision_id", revisionID)
	return e.record(ctx, ActionRevisionReverted, SeverityWarning, OutcomeSuccess,
		ResourceRevision, resourceID, CategoryLedger, nil,
		meta...,
	)
}

// OnRevisionDeleted implements plugin.OnRevisionDeleted.
func (e *Extension) OnRevisionDeleted(ctx context.Context, balanceID string, revisionID int64) error {
	return e.record(ctx, ActionRevisionDeleted, SeverityWarning, OutcomeSuccess,
		ResourceRevision, balanceID, CategoryLedger, nil,
		"balance_id", balanceID,
		"revision_id", revisionID,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// balanceDetails extracts identifying metadata from the event payload.
func balanceDetails(bal interface{}) (string, []any) {
	b, ok := bal.(*balance.Balance)
	if !ok {
		return "", nil
	}
	return b.ID.String(), []any{
		"balance_id", b.ID.String(),
		"type_id", b.TypeID,
		"owner", b.Owner.Key(),
		"quantity", b.Quantity,
		"revision_id", b.CurrentRevisionID,
	}
}

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
