// Package memory provides an in-memory Store for tests and single-process
// embedding. Data does not survive a restart.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/xraph/points"
	"github.com/xraph/points/balance"
	"github.com/xraph/points/id"
	"github.com/xraph/points/owner"
	"github.com/xraph/points/pointtype"
)

type Store struct {
	mu     sync.RWMutex
	closed bool

	// Point type storage, keyed by type id
	pointTypes map[string]*pointtype.PointType

	// Balance storage, keyed by balance id, with a pair index for the
	// (owner, type) uniqueness rule
	balances  map[string]*balance.Balance
	pairIndex map[string]string

	// Revision storage, keyed by balance id
	revisions map[string][]*balance.Revision
}

func New() *Store {
	return &Store{
		pointTypes: make(map[string]*pointtype.PointType),
		balances:   make(map[string]*balance.Balance),
		pairIndex:  make(map[string]string),
		revisions:  make(map[string][]*balance.Revision),
	}
}

func pairKey(ref owner.Ref, typeID string) string {
	return ref.Key() + "\x00" + typeID
}

// Point type Store implementation

func (s *Store) CreatePointType(_ context.Context, pt *pointtype.PointType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return points.ErrStoreClosed
	}
	if _, exists := s.pointTypes[pt.ID]; exists {
		return points.ErrTypeExists
	}
	cp := *pt
	s.pointTypes[pt.ID] = &cp
	return nil
}

func (s *Store) GetPointType(_ context.Context, typeID string) (*pointtype.PointType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if pt, ok := s.pointTypes[typeID]; ok {
		cp := *pt
		return &cp, nil
	}
	return nil, points.ErrTypeNotFound
}

func (s *Store) ListPointTypes(_ context.Context, opts pointtype.ListOpts) ([]*pointtype.PointType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*pointtype.PointType, 0)
	for _, pt := range s.pointTypes {
		if opts.Status == "" || pt.Status == opts.Status {
			cp := *pt
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) UpdatePointType(_ context.Context, pt *pointtype.PointType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return points.ErrStoreClosed
	}
	if _, exists := s.pointTypes[pt.ID]; !exists {
		return points.ErrTypeNotFound
	}
	cp := *pt
	s.pointTypes[pt.ID] = &cp
	return nil
}

func (s *Store) DeletePointType(_ context.Context, typeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return points.ErrStoreClosed
	}
	if _, exists := s.pointTypes[typeID]; !exists {
		return points.ErrTypeNotFound
	}
	for _, b := range s.balances {
		if b.TypeID == typeID {
			return points.ErrTypeInUse
		}
	}
	delete(s.pointTypes, typeID)
	return nil
}

// Balance Store implementation

func (s *Store) CreateBalance(_ context.Context, b *balance.Balance, initial *balance.Revision) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return points.ErrStoreClosed
	}
	key := pairKey(b.Owner, b.TypeID)
	if _, exists := s.pairIndex[key]; exists {
		return points.ErrAlreadyExists
	}

	cb := *b
	rev := *initial
	s.balances[b.ID.String()] = &cb
	s.pairIndex[key] = b.ID.String()
	s.revisions[b.ID.String()] = []*balance.Revision{&rev}
	return nil
}

func (s *Store) GetBalance(_ context.Context, ref owner.Ref, typeID string) (*balance.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	balID, ok := s.pairIndex[pairKey(ref, typeID)]
	if !ok {
		return nil, points.ErrBalanceNotFound
	}
	cp := *s.balances[balID]
	return &cp, nil
}

func (s *Store) GetBalanceByID(_ context.Context, balID id.BalanceID) (*balance.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if b, ok := s.balances[balID.String()]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, points.ErrBalanceNotFound
}

func (s *Store) ListBalances(_ context.Context, typeID string, opts balance.ListOpts) ([]*balance.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*balance.Balance, 0)
	for _, b := range s.balances {
		if b.TypeID != typeID {
			continue
		}
		if opts.OwnerKind != "" && b.Owner.Kind != opts.OwnerKind {
			continue
		}
		cp := *b
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Owner.Key() < result[j].Owner.Key()
	})

	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) CountBalances(_ context.Context, typeID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, b := range s.balances {
		if b.TypeID == typeID {
			n++
		}
	}
	return n, nil
}

// Revision Store implementation

func (s *Store) AppendRevision(_ context.Context, b *balance.Balance, rev *balance.Revision) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return points.ErrStoreClosed
	}
	stored, ok := s.balances[b.ID.String()]
	if !ok {
		return points.ErrBalanceNotFound
	}
	// Another writer already claimed this revision id.
	if rev.RevisionID != stored.CurrentRevisionID+1 {
		return points.ErrRevisionConflict
	}

	cb := *b
	cr := *rev
	s.balances[b.ID.String()] = &cb
	s.revisions[b.ID.String()] = append(s.revisions[b.ID.String()], &cr)
	return nil
}

func (s *Store) ListRevisionIDs(_ context.Context, balID id.BalanceID) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	revs, ok := s.revisions[balID.String()]
	if !ok {
		return nil, points.ErrBalanceNotFound
	}
	ids := make([]int64, 0, len(revs))
	for _, rev := range revs {
		ids = append(ids, rev.RevisionID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *Store) GetRevision(_ context.Context, balID id.BalanceID, revisionID int64) (*balance.Revision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rev := range s.revisions[balID.String()] {
		if rev.RevisionID == revisionID {
			cp := *rev
			return &cp, nil
		}
	}
	return nil, points.ErrRevisionNotFound
}

func (s *Store) ListRevisions(_ context.Context, balID id.BalanceID) ([]*balance.Revision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	revs, ok := s.revisions[balID.String()]
	if !ok {
		return nil, points.ErrBalanceNotFound
	}
	result := make([]*balance.Revision, 0, len(revs))
	for _, rev := range revs {
		cp := *rev
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].RevisionID < result[j].RevisionID
	})
	return result, nil
}

func (s *Store) DeleteRevision(_ context.Context, balID id.BalanceID, revisionID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return points.ErrStoreClosed
	}
	b, ok := s.balances[balID.String()]
	if !ok {
		return points.ErrBalanceNotFound
	}
	if revisionID == b.CurrentRevisionID {
		return points.ErrCurrentRevision
	}

	revs := s.revisions[balID.String()]
	for i, rev := range revs {
		if rev.RevisionID == revisionID {
			s.revisions[balID.String()] = append(revs[:i:i], revs[i+1:]...)
			return nil
		}
	}
	return points.ErrRevisionNotFound
}

// Core Store implementation

func (s *Store) Migrate(_ context.Context) error { return nil }

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return points.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

func paginate[T any](items []T, offset, limit int) []T {
	start := offset
	if start > len(items) {
		start = len(items)
	}
	end := start + limit
	if limit == 0 || end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
