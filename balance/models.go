// Package balance defines the ledger records: the live Balance per
// (owner, point type) pair and the immutable Revision trail behind it.
package balance

import (
	"time"

	"github.com/xraph/points/id"
	"github.com/xraph/points/owner"
	"github.com/xraph/points/types"
)

// Balance is the current-quantity record for one (owner, point type) pair.
// Exactly one balance exists per pair; the store enforces uniqueness.
type Balance struct {
	types.Entity
	ID     id.BalanceID `json:"id"`
	TypeID string       `json:"type_id"`
	Owner  owner.Ref    `json:"owner"`

	// Quantity is the live balance. It always equals the quantity recorded
	// by the revision named by CurrentRevisionID.
	Quantity float64 `json:"quantity"`

	// CurrentRevisionID is the highest revision id written for this balance.
	CurrentRevisionID int64 `json:"current_revision_id"`
}

// Revision is an immutable snapshot taken on every mutation. Revision ids
// increase monotonically per balance, starting at 1 for the creation
// revision.
type Revision struct {
	RevisionID int64        `json:"revision_id"`
	BalanceID  id.BalanceID `json:"balance_id"`
	Quantity   float64      `json:"quantity"`
	LogMessage string       `json:"log_message"`
	AuthorID   string       `json:"author_id"`
	CreatedAt  time.Time    `json:"created_at"`
}

// ListOpts filters ListBalances calls.
type ListOpts struct {
	OwnerKind string
	Limit     int
	Offset    int
}
