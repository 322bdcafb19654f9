// Package store defines the persistence contract for the points ledger.
package store

import (
	"context"

	"github.com/xraph/points/balance"
	"github.com/xraph/points/id"
	"github.com/xraph/points/owner"
	"github.com/xraph/points/pointtype"
)

// Store is the unified storage interface for all points ledger entities.
// Instead of embedding sub-interfaces, all methods are declared explicitly
// to avoid naming conflicts.
//
// Two calls carry atomicity requirements:
//
//   - CreateBalance persists the balance and its creation revision as one
//     unit, and fails with the package sentinel for "already exists" when
//     another writer created a balance for the same (owner, type) pair
//     first. Callers fall back to re-reading.
//   - AppendRevision is the single commit point for a mutation: it persists
//     the revision and syncs the balance row's quantity and current revision
//     pointer. A concurrent writer that already claimed the same revision id
//     yields the revision-conflict sentinel, which the engine retries after
//     re-reading.
type Store interface {
	// Point type methods
	CreatePointType(ctx context.Context, pt *pointtype.PointType) error
	GetPointType(ctx context.Context, typeID string) (*pointtype.PointType, error)
	ListPointTypes(ctx context.Context, opts pointtype.ListOpts) ([]*pointtype.PointType, error)
	UpdatePointType(ctx context.Context, pt *pointtype.PointType) error
	// DeletePointType refuses to delete a type referenced by balances.
	DeletePointType(ctx context.Context, typeID string) error

	// Balance methods
	CreateBalance(ctx context.Context, b *balance.Balance, initial *balance.Revision) error
	GetBalance(ctx context.Context, ref owner.Ref, typeID string) (*balance.Balance, error)
	GetBalanceByID(ctx context.Context, balID id.BalanceID) (*balance.Balance, error)
	ListBalances(ctx context.Context, typeID string, opts balance.ListOpts) ([]*balance.Balance, error)
	// CountBalances reports how many balances reference a type; used to
	// refuse deleting in-use types.
	CountBalances(ctx context.Context, typeID string) (int64, error)

	// Revision methods
	AppendRevision(ctx context.Context, b *balance.Balance, rev *balance.Revision) error
	ListRevisionIDs(ctx context.Context, balID id.BalanceID) ([]int64, error)
	GetRevision(ctx context.Context, balID id.BalanceID, revisionID int64) (*balance.Revision, error)
	ListRevisions(ctx context.Context, balID id.BalanceID) ([]*balance.Revision, error)
	// DeleteRevision refuses to delete the balance's current revision.
	DeleteRevision(ctx context.Context, balID id.BalanceID, revisionID int64) error

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
