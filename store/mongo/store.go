package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	points "github.com/xraph/points"
	"github.com/xraph/points/balance"
	"github.com/xraph/points/id"
	"github.com/xraph/points/owner"
	"github.com/xraph/points/pointtype"
	pointsstore "github.com/xraph/points/store"
)

// Collection name constants.
const (
	colTypes     = "points_types"
	colBalances  = "points_balances"
	colRevisions = "points_revisions"
)

// compile-time interface check
var _ pointsstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all points collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("points/mongo: migrate %s indexes: %w", col, err)
		}
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
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return points.ErrTypeExists
		}
		return fmt.Errorf("points/mongo: create point type: %w", err)
	}
	return nil
}

func (s *Store) GetPointType(ctx context.Context, typeID string) (*pointtype.PointType, error) {
	var m pointTypeModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": typeID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, points.ErrTypeNotFound
		}
		return nil, fmt.Errorf("points/mongo: get point type: %w", err)
	}
	return fromPointTypeModel(&m), nil
}

func (s *Store) ListPointTypes(ctx context.Context, opts pointtype.ListOpts) ([]*pointtype.PointType, error) {
	var models []pointTypeModel

	filter := bson.M{}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("points/mongo: list point types: %w", err)
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

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("points/mongo: update point type: %w", err)
	}
	if res.MatchedCount() == 0 {
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

	res, err := s.mdb.NewDelete((*pointTypeModel)(nil)).
		Filter(bson.M{"_id": typeID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("points/mongo: delete point type: %w", err)
	}
	if res.DeletedCount() == 0 {
		return points.ErrTypeNotFound
	}
	return nil
}

// ==================== Balance Store ====================

func (s *Store) CreateBalance(ctx context.Context, b *balance.Balance, initial *balance.Revision) error {
	m := toBalanceModel(b)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return points.ErrAlreadyExists
		}
		return fmt.Errorf("points/mongo: create balance: %w", err)
	}

	if _, err := s.mdb.NewInsert(toRevisionModel(initial)).Exec(ctx); err != nil {
		return fmt.Errorf("points/mongo: create balance revision: %w", err)
	}
	return nil
}

func (s *Store) GetBalance(ctx context.Context, ref owner.Ref, typeID string) (*balance.Balance, error) {
	var m balanceModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{
			"type_id":    typeID,
			"owner_kind": ref.Kind,
			"owner_id":   ref.ID,
		}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, points.ErrBalanceNotFound
		}
		return nil, fmt.Errorf("points/mongo: get balance: %w", err)
	}
	return fromBalanceModel(&m)
}

func (s *Store) GetBalanceByID(ctx context.Context, balID id.BalanceID) (*balance.Balance, error) {
	var m balanceModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": balID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, points.ErrBalanceNotFound
		}
		return nil, fmt.Errorf("points/mongo: get balance by id: %w", err)
	}
	return fromBalanceModel(&m)
}

func (s *Store) ListBalances(ctx context.Context, typeID string, opts balance.ListOpts) ([]*balance.Balance, error) {
	var models []balanceModel

	filter := bson.M{"type_id": typeID}
	if opts.OwnerKind != "" {
		filter["owner_kind"] = opts.OwnerKind
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "owner_kind", Value: 1}, {Key: "owner_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("points/mongo: list balances: %w", err)
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
	n, err := s.mdb.Collection(colBalances).CountDocuments(ctx, bson.M{"type_id": typeID})
	if err != nil {
		return 0, fmt.Errorf("points/mongo: count balances: %w", err)
	}
	return n, nil
}

// ==================== Revision Store ====================

// AppendRevision inserts the next revision document, then moves the balance
// document's quantity and pointer guarded by the previous revision id. The
// compound unique index turns a concurrent writer's duplicate into a
// conflict sentinel.
func (s *Store) AppendRevision(ctx context.Context, b *balance.Balance, rev *balance.Revision) error {
	if _, err := s.mdb.NewInsert(toRevisionModel(rev)).Exec(ctx); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return points.ErrRevisionConflict
		}
		return fmt.Errorf("points/mongo: append revision: %w", err)
	}

	res, err := s.mdb.Collection(colBalances).UpdateOne(ctx,
		bson.M{"_id": b.ID.String(), "current_revision_id": rev.RevisionID - 1},
		bson.M{"$set": bson.M{
			"quantity":            rev.Quantity,
			"current_revision_id": rev.RevisionID,
			"updated_at":          now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("points/mongo: sync balance: %w", err)
	}
	// The pointer was not where this revision expected it, so the balance
	// document is lagging its revision trail. Surface it as a conflict
	// instead of reporting a write that did not land.
	if res.MatchedCount == 0 {
		return points.ErrRevisionConflict
	}
	return nil
}

func (s *Store) ListRevisionIDs(ctx context.Context, balID id.BalanceID) ([]int64, error) {
	revs, err := s.ListRevisions(ctx, balID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(revs))
	for i, rev := range revs {
		ids[i] = rev.RevisionID
	}
	return ids, nil
}

func (s *Store) GetRevision(ctx context.Context, balID id.BalanceID, revisionID int64) (*balance.Revision, error) {
	var m revisionModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": revisionDocID(balID.String(), revisionID)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, points.ErrRevisionNotFound
		}
		return nil, fmt.Errorf("points/mongo: get revision: %w", err)
	}
	return fromRevisionModel(&m)
}

func (s *Store) ListRevisions(ctx context.Context, balID id.BalanceID) ([]*balance.Revision, error) {
	var models []revisionModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"balance_id": balID.String()}).
		Sort(bson.D{{Key: "revision_id", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("points/mongo: list revisions: %w", err)
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

	res, err := s.mdb.NewDelete((*revisionModel)(nil)).
		Filter(bson.M{"_id": revisionDocID(balID.String(), revisionID)}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("points/mongo: delete revision: %w", err)
	}
	if res.DeletedCount() == 0 {
		return points.ErrRevisionNotFound
	}
	return nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks for the mongo driver's no-documents sentinel.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all points collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colTypes: {
			{Keys: bson.D{{Key: "status", Value: 1}}},
		},
		colBalances: {
			{
				Keys:    bson.D{{Key: "type_id", Value: 1}, {Key: "owner_kind", Value: 1}, {Key: "owner_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "owner_kind", Value: 1}, {Key: "owner_id", Value: 1}}},
		},
		colRevisions: {
			{
				Keys:    bson.D{{Key: "balance_id", Value: 1}, {Key: "revision_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "balance_id", Value: 1}, {Key: "revision_id", Value: -1}}},
		},
	}
}
