package audithook

// Action constants for audit events.
const (
	// Point type actions
	ActionTypeCreated = "type.created"
	ActionTypeUpdated = "type.updated"
	ActionTypeDeleted = "type.deleted"

	// Balance actions
	ActionBalanceCreated = "balance.created"
	ActionPointsAdded    = "points.added"
	ActionTransfer       = "points.transferred"

	// Revision actions
	ActionRevisionReverted = "revision.reverted"
	ActionRevisionDeleted  = "revision.deleted"
)

// Resource constants for audit events.
const (
	ResourceType     = "point_type"
	ResourceBalance  = "balance"
	ResourceRevision = "revision"
)

// Category constants for audit events.
const (
	CategoryConfig = "config"
	CategoryLedger = "ledger"
	CategoryAccess = "access"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
