package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	points "github.com/xraph/points"
	"github.com/xraph/points/balance"
	"github.com/xraph/points/id"
	"github.com/xraph/points/owner"
	"github.com/xraph/points/pointtype"
	pointsstore "github.com/xraph/points/store"
)

// compile-time interface check
var _ pointsstore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables, indexes, and the balance sync trigger
// using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("points/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("points/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Point type Store ====================

func (s *Store) CreatePointType(ctx context.Context, pt *pointtype.PointType) error {
	m := toPointTypeModel(pt)
	_, err := s.sdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if exists, checkErr := s.pointTypeExists(ctx, pt.ID); checkErr == nil && exists {
			return points.ErrTypeExists
		}
		return err
	}
	return nil
}

func (s *Store) GetPointType(ctx context.Context, typeID string) (*pointtype.PointType, error) {
	m := new(pointTypeModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", typeID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, points.ErrTypeNotFound
		}
		return nil, err
	}
	return fromPointTypeModel(m), nil
}

func (s *Store) ListPointTypes(ctx context.Context, opts pointtype.ListOpts) ([]*pointtype.PointType, error) {
	var models []pointTypeModel
	q := s.sdb.NewSelect(&models)

	if opts.Status != "" {
		q = q.Where("status = ?", string(opts.Status))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*pointtype.PointType, len(models))
	for i := range models {
		result[i] = fromPointTypeModel(&models[i])
	}
	return result, nil
}

func (s *Store) UpdatePointType(ctx context.Context, pt *pointtype.PointType) error {
	m := toPointTypeModel(pt)
	m.UpdatedAt = now()
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return points.ErrTypeNotFound
	}
	return nil
}

func (s *Store) DeletePointType(ctx context.Context, typeID string) error {
	n, err := s.CountBalances(ctx, typeID)
	if err != nil {
		return err
	}
	if n > 0 {
		return points.ErrTypeInUse
	}

	res, err := s.sdb.NewDelete((*pointTypeModel)(nil)).
		Where("id = ?", typeID).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return points.ErrTypeNotFound
	}
	return nil
}

// ==================== Balance Store ====================

func (s *Store) CreateBalance(ctx context.Context, b *balance.Balance, initial *balance.Revision) error {
	m := toBalanceModel(b)
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		// The pair index rejects a second balance for the same (owner,
		// type); distinguish that from a genuine storage failure.
		if _, getErr := s.GetBalance(ctx, b.Owner, b.TypeID); getErr == nil {
			return points.ErrAlreadyExists
		}
		return err
	}

	_, err := s.sdb.NewInsert(toRevisionModel(initial)).Exec(ctx)
	return err
}

func (s *Store) GetBalance(ctx context.Context, ref owner.Ref, typeID string) (*balance.Balance, error) {
	m := new(balanceModel)
	err := s.sdb.NewSelect(m).
		Where("type_id = ?", typeID).
		Where("owner_kind = ?", ref.Kind).
		Where("owner_id = ?", ref.ID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, points.ErrBalanceNotFound
		}
		return nil, err
	}
	return fromBalanceModel(m)
}

func (s *Store) GetBalanceByID(ctx context.Context, balID id.BalanceID) (*balance.Balance, error) {
	m := new(balanceModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", balID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, points.ErrBalanceNotFound
		}
		return nil, err
	}
	return fromBalanceModel(m)
}

func (s *Store) ListBalances(ctx context.Context, typeID string, opts balance.ListOpts) ([]*balance.Balance, error) {
	var models []balanceModel
	q := s.sdb.NewSelect(&models).Where("type_id = ?", typeID)

	if opts.OwnerKind != "" {
		q = q.Where("owner_kind = ?", opts.OwnerKind)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("owner_kind ASC, owner_id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*balance.Balance, len(models))
	for i := range models {
		b, err := fromBalanceModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = b
	}
	return result, nil
}

func (s *Store) CountBalances(ctx context.Context, typeID string) (int64, error) {
	var total int64
	err := s.sdb.NewRaw(`
		SELECT COUNT(*) FROM points_balances WHERE type_id = ?
	`, typeID).Scan(ctx, &total)
	if err != nil {
		return 0, err
	}
	return total, nil
}

// ==================== Revision Store ====================

// AppendRevision inserts the next revision row; the balance sync trigger
// moves the live row's quantity and pointer in the same statement. A
// duplicate (balance_id, revision_id) means another writer committed first.
func (s *Store) AppendRevision(ctx context.Context, b *balance.Balance, rev *balance.Revision) error {
	if _, err := s.sdb.NewInsert(toRevisionModel(rev)).Exec(ctx); err != nil {
		if taken, checkErr := s.revisionExists(ctx, rev.BalanceID, rev.RevisionID); checkErr == nil && taken {
			return points.ErrRevisionConflict
		}
		return err
	}
	return nil
}

func (s *Store) ListRevisionIDs(ctx context.Context, balID id.BalanceID) ([]int64, error) {
	var ids []int64
	err := s.sdb.NewRaw(`
		SELECT revision_id FROM points_revisions WHERE balance_id = ? ORDER BY revision_id ASC
	`, balID.String()).Scan(ctx, &ids)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Store) GetRevision(ctx context.Context, balID id.BalanceID, revisionID int64) (*balance.Revision, error) {
	m := new(revisionModel)
	err := s.sdb.NewSelect(m).
		Where("balance_id = ?", balID.String()).
		Where("revision_id = ?", revisionID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, points.ErrRevisionNotFound
		}
		return nil, err
	}
	return fromRevisionModel(m)
}

func (s *Store) ListRevisions(ctx context.Context, balID id.BalanceID) ([]*balance.Revision, error) {
	var models []revisionModel
	err := s.sdb.NewSelect(&models).
		Where("balance_id = ?", balID.String()).
		OrderExpr("revision_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*balance.Revision, len(models))
	for i := range models {
		rev, err := fromRevisionModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = rev
	}
	return result, nil
}

func (s *Store) DeleteRevision(ctx context.Context, balID id.BalanceID, revisionID int64) error {
	b, err := s.GetBalanceByID(ctx, balID)
	if err != nil {
		return err
	}
	if revisionID == b.CurrentRevisionID {
		return points.ErrCurrentRevision
	}

	res, err := s.sdb.NewDelete((*revisionModel)(nil)).
		Where("balance_id = ?", balID.String()).
		Where("revision_id = ?", revisionID).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return points.ErrRevisionNotFound
	}
	return nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

func (s *Store) pointTypeExists(ctx context.Context, typeID string) (bool, error) {
	var n int64
	err := s.sdb.NewRaw(`
		SELECT COUNT(*) FROM points_types WHERE id = ?
	`, typeID).Scan(ctx, &n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) revisionExists(ctx context.Context, balID id.BalanceID, revisionID int64) (bool, error) {
	var n int64
	err := s.sdb.NewRaw(`
		SELECT COUNT(*) FROM points_revisions WHERE balance_id = ? AND revision_id = ?
	`, balID.String(), revisionID).Scan(ctx, &n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
