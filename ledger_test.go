package points_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/xraph/points"
	"github.com/xraph/points/access"
	"github.com/xraph/points/balance"
	"github.com/xraph/points/owner"
	"github.com/xraph/points/plugin"
	"github.com/xraph/points/pointtype"
	"github.com/xraph/points/store"
	"github.com/xraph/points/store/memory"
)

var (
	admin = access.Identity{ID: "1", Name: "alice"}

	aliceRef = owner.Ref{Kind: owner.KindUser, ID: "1"}
	bobRef   = owner.Ref{Kind: owner.KindUser, ID: "2"}
)

func testOwners() *owner.Registry {
	return owner.NewRegistry().Register(owner.KindUser, &owner.StaticResolver{
		Names:       map[string]string{"1": "alice", "2": "bob"},
		NotFoundErr: points.ErrOwnerNotFound,
	})
}

func newLedger(t *testing.T, opts ...points.Option) *points.Ledger {
	t.Helper()
	return newLedgerOn(t, memory.New(), opts...)
}

func newLedgerOn(t *testing.T, s store.Store, opts ...points.Option) *points.Ledger {
	t.Helper()

	opts = append([]points.Option{
		points.WithAuthorizer(access.AllowAll),
		points.WithOwners(testOwners()),
	}, opts...)

	l := points.New(s, opts...)
	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() { _ = l.Stop() })
	return l
}

func mustCreateType(t *testing.T, l *points.Ledger, pt *pointtype.PointType) {
	t.Helper()
	if err := l.CreatePointType(context.Background(), admin, pt); err != nil {
		t.Fatalf("CreatePointType failed: %v", err)
	}
}

func TestCreatePointTypeDefaults(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	mustCreateType(t, l, &pointtype.PointType{ID: "karma"})

	pt, err := l.GetPointType(ctx, "karma")
	if err != nil {
		t.Fatalf("GetPointType failed: %v", err)
	}
	if pt.Label != "karma" {
		t.Errorf("label should default to id, got %q", pt.Label)
	}
	if pt.Status != pointtype.StatusActive {
		t.Errorf("status should default to active, got %q", pt.Status)
	}
}

func TestCreatePointTypeValidation(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	err := l.CreatePointType(ctx, admin, &pointtype.PointType{})
	if !errors.Is(err, points.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for missing id, got %v", err)
	}

	err = l.CreatePointType(ctx, admin, &pointtype.PointType{ID: "dup"})
	if err != nil {
		t.Fatal(err)
	}
	err = l.CreatePointType(ctx, admin, &pointtype.PointType{ID: "dup"})
	if !errors.Is(err, points.ErrTypeExists) {
		t.Errorf("expected ErrTypeExists, got %v", err)
	}
}

func TestDeletePointTypeInUse(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	mustCreateType(t, l, &pointtype.PointType{ID: "karma"})
	if _, err := l.Add(ctx, admin, aliceRef, "karma", 5, ""); err != nil {
		t.Fatal(err)
	}

	if err := l.DeletePointType(ctx, admin, "karma"); !errors.Is(err, points.ErrTypeInUse) {
		t.Errorf("expected ErrTypeInUse, got %v", err)
	}
}

func TestAddLazilyCreatesBalance(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	mustCreateType(t, l, &pointtype.PointType{ID: "karma", InitialValue: 10})

	b, err := l.Add(ctx, admin, aliceRef, "karma", 5, "")
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if b.Quantity != 15 {
		t.Errorf("expected quantity 15 (initial 10 + 5), got %v", b.Quantity)
	}
	if b.CurrentRevisionID != 2 {
		t.Errorf("expected revision 2 after creation + mutation, got %d", b.CurrentRevisionID)
	}

	entries, err := l.Log(ctx, admin, aliceRef, "karma")
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	if entries[1].LogMessage != "Initial value." {
		t.Errorf("expected creation revision message, got %q", entries[1].LogMessage)
	}
}

func TestAddSynthesizesLogMessage(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	mustCreateType(t, l, &pointtype.PointType{ID: "karma"})

	if _, err := l.Add(ctx, admin, aliceRef, "karma", 5, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Add(ctx, admin, aliceRef, "karma", -3, ""); err != nil {
		t.Fatal(err)
	}

	entries, err := l.Log(ctx, admin, aliceRef, "karma")
	if err != nil {
		t.Fatal(err)
	}
	// Newest first: subtraction, addition, initial.
	if entries[0].LogMessage != "@alice subtracted 3 points." {
		t.Errorf("unexpected subtraction message: %q", entries[0].LogMessage)
	}
	if entries[1].LogMessage != "@alice added 5 points." {
		t.Errorf("unexpected addition message: %q", entries[1].LogMessage)
	}
}

func TestAddKeepsExplicitLogMessage(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	mustCreateType(t, l, &pointtype.PointType{ID: "karma"})

	if _, err := l.Add(ctx, admin, aliceRef, "karma", 5, "Weekly bonus"); err != nil {
		t.Fatal(err)
	}

	entries, err := l.Log(ctx, admin, aliceRef, "karma")
	if err != nil {
		t.Fatal(err)
	}
	if entries[0].LogMessage != "Weekly bonus" {
		t.Errorf("explicit message was replaced: %q", entries[0].LogMessage)
	}
}

func TestAddZeroDelta(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	mustCreateType(t, l, &pointtype.PointType{ID: "karma", InitialValue: 10})

	b, err := l.Add(ctx, admin, aliceRef, "karma", 0, "")
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if b.Quantity != 10 {
		t.Errorf("expected quantity 10, got %v", b.Quantity)
	}
	// Creation happened, but no mutation revision.
	if b.CurrentRevisionID != 1 {
		t.Errorf("zero delta should not append a revision, got revision %d", b.CurrentRevisionID)
	}
}

func TestAddUnknownOwner(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	mustCreateType(t, l, &pointtype.PointType{ID: "karma"})

	_, err := l.Add(ctx, admin, owner.Ref{Kind: owner.KindUser, ID: "999"}, "karma", 5, "")
	if !errors.Is(err, points.ErrOwnerNotFound) {
		t.Errorf("expected ErrOwnerNotFound, got %v", err)
	}
}

func TestAddUnknownType(t *testing.T) {
	l := newLedger(t)

	_, err := l.Add(context.Background(), admin, aliceRef, "missing", 5, "")
	if !errors.Is(err, points.ErrTypeNotFound) {
		t.Errorf("expected ErrTypeNotFound, got %v", err)
	}
}

func TestBalanceLazilyCreates(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	mustCreateType(t, l, &pointtype.PointType{ID: "karma", InitialValue: 10})

	// The first read creates the balance at the type's initial value.
	b, err := l.Balance(ctx, admin, aliceRef, "karma")
	if err != nil {
		t.Fatalf("Balance failed: %v", err)
	}
	if b.Quantity != 10 {
		t.Errorf("expected initial value 10, got %v", b.Quantity)
	}
	if b.CurrentRevisionID != 1 {
		t.Errorf("expected creation revision 1, got %d", b.CurrentRevisionID)
	}

	// Re-reading resolves to the same balance, not a second creation.
	again, err := l.Balance(ctx, admin, aliceRef, "karma")
	if err != nil {
		t.Fatalf("Balance failed: %v", err)
	}
	if again.ID != b.ID {
		t.Errorf("re-read returned a different balance: %s vs %s", again.ID, b.ID)
	}

	q, err := l.Quantity(ctx, admin, aliceRef, "karma")
	if err != nil {
		t.Fatalf("Quantity failed: %v", err)
	}
	if q != 10 {
		t.Errorf("expected quantity 10, got %v", q)
	}

	entries, err := l.Log(ctx, admin, aliceRef, "karma")
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	if len(entries) != 1 || entries[0].LogMessage != "Initial value." {
		t.Errorf("expected a single creation entry, got %+v", entries)
	}

	if _, err := l.Balance(ctx, admin, aliceRef, "nosuchtype"); !errors.Is(err, points.ErrTypeNotFound) {
		t.Errorf("expected ErrTypeNotFound, got %v", err)
	}
}

func TestRevisionsAscending(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	mustCreateType(t, l, &pointtype.PointType{ID: "karma"})
	if _, err := l.Add(ctx, admin, aliceRef, "karma", 10, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Add(ctx, admin, aliceRef, "karma", 5, ""); err != nil {
		t.Fatal(err)
	}

	revs, err := l.Revisions(ctx, admin, aliceRef, "karma")
	if err != nil {
		t.Fatalf("Revisions failed: %v", err)
	}
	// N mutations leave N+1 revisions including the creation revision.
	if len(revs) != 3 {
		t.Fatalf("expected 3 revisions, got %d", len(revs))
	}
	for i, want := range []int64{1, 2, 3} {
		if revs[i].RevisionID != want {
			t.Errorf("revision %d: expected id %d, got %d", i, want, revs[i].RevisionID)
		}
	}
	if revs[2].Quantity != 15 {
		t.Errorf("last revision quantity %v should equal live quantity 15", revs[2].Quantity)
	}

	// Reading a pair that was never written creates it, so the trail starts
	// at the creation revision.
	revs, err = l.Revisions(ctx, admin, bobRef, "karma")
	if err != nil {
		t.Fatal(err)
	}
	if len(revs) != 1 || revs[0].LogMessage != "Initial value." {
		t.Errorf("expected just the creation revision, got %+v", revs)
	}
}

func TestTransferConservation(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	mustCreateType(t, l, &pointtype.PointType{ID: "karma"})
	if _, err := l.Add(ctx, admin, aliceRef, "karma", 50, ""); err != nil {
		t.Fatal(err)
	}

	event, err := l.Transfer(ctx, admin, aliceRef, bobRef, "karma", 20, "")
	if err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}
	if event.Quantity != 20 {
		t.Errorf("unexpected event quantity %v", event.Quantity)
	}
	if event.ID.IsNil() {
		t.Error("transfer event should carry an id")
	}

	fromQ, _ := l.Quantity(ctx, admin, aliceRef, "karma")
	toQ, _ := l.Quantity(ctx, admin, bobRef, "karma")
	if fromQ != 30 {
		t.Errorf("expected source quantity 30, got %v", fromQ)
	}
	if toQ != 20 {
		t.Errorf("expected destination quantity 20, got %v", toQ)
	}
}

func TestTransferDefaultMessages(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	mustCreateType(t, l, &pointtype.PointType{ID: "karma"})
	if _, err := l.Add(ctx, admin, aliceRef, "karma", 50, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Transfer(ctx, admin, aliceRef, bobRef, "karma", 20, ""); err != nil {
		t.Fatal(err)
	}

	fromLog, err := l.Log(ctx, admin, aliceRef, "karma")
	if err != nil {
		t.Fatal(err)
	}
	if fromLog[0].LogMessage != "Transferred 20 points to bob." {
		t.Errorf("unexpected debit message: %q", fromLog[0].LogMessage)
	}

	toLog, err := l.Log(ctx, admin, bobRef, "karma")
	if err != nil {
		t.Fatal(err)
	}
	if toLog[0].LogMessage != "Received 20 points from alice." {
		t.Errorf("unexpected credit message: %q", toLog[0].LogMessage)
	}
}

func TestTransferInsufficientPoints(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	mustCreateType(t, l, &pointtype.PointType{ID: "karma"})
	if _, err := l.Add(ctx, admin, aliceRef, "karma", 5, ""); err != nil {
		t.Fatal(err)
	}

	_, err := l.Transfer(ctx, admin, aliceRef, bobRef, "karma", 20, "")
	if !errors.Is(err, points.ErrInsufficientPoints) {
		t.Errorf("expected ErrInsufficientPoints, got %v", err)
	}

	// Nothing moved.
	q, _ := l.Quantity(ctx, admin, aliceRef, "karma")
	if q != 5 {
		t.Errorf("source quantity changed on failed transfer: %v", q)
	}
}

func TestTransferRejectsSelfAndNonPositive(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	mustCreateType(t, l, &pointtype.PointType{ID: "karma"})
	if _, err := l.Add(ctx, admin, aliceRef, "karma", 50, ""); err != nil {
		t.Fatal(err)
	}

	if _, err := l.Transfer(ctx, admin, aliceRef, aliceRef, "karma", 10, ""); !errors.Is(err, points.ErrInvalidTransfer) {
		t.Errorf("expected ErrInvalidTransfer for self-transfer, got %v", err)
	}
	if _, err := l.Transfer(ctx, admin, aliceRef, bobRef, "karma", 0, ""); !errors.Is(err, points.ErrInvalidTransfer) {
		t.Errorf("expected ErrInvalidTransfer for zero quantity, got %v", err)
	}
	if _, err := l.Transfer(ctx, admin, aliceRef, bobRef, "karma", -5, ""); !errors.Is(err, points.ErrInvalidTransfer) {
		t.Errorf("expected ErrInvalidTransfer for negative quantity, got %v", err)
	}
}

// interceptingStore runs a hook before the next revision append, standing in
// for a writer in another process that the stripe locks cannot see.
type interceptingStore struct {
	*memory.Store

	mu     sync.Mutex
	before func(ctx context.Context, b *balance.Balance)
}

func (s *interceptingStore) arm(hook func(ctx context.Context, b *balance.Balance)) {
	s.mu.Lock()
	s.before = hook
	s.mu.Unlock()
}

func (s *interceptingStore) AppendRevision(ctx context.Context, b *balance.Balance, rev *balance.Revision) error {
	s.mu.Lock()
	hook := s.before
	s.before = nil
	s.mu.Unlock()

	if hook != nil {
		hook(ctx, b)
	}
	return s.Store.AppendRevision(ctx, b, rev)
}

// rivalWrite appends a revision straight to the store, the way a second
// process would.
func rivalWrite(t *testing.T, st *memory.Store, delta float64) func(context.Context, *balance.Balance) {
	return func(ctx context.Context, b *balance.Balance) {
		t.Helper()

		fresh, err := st.GetBalanceByID(ctx, b.ID)
		if err != nil {
			t.Errorf("rival read failed: %v", err)
			return
		}
		next := *fresh
		next.Quantity += delta
		next.CurrentRevisionID++
		rev := &balance.Revision{
			RevisionID: next.CurrentRevisionID,
			BalanceID:  next.ID,
			Quantity:   next.Quantity,
			LogMessage: "Rival write.",
			CreatedAt:  time.Now().UTC(),
		}
		if err := st.AppendRevision(ctx, &next, rev); err != nil {
			t.Errorf("rival append failed: %v", err)
		}
	}
}

func TestAddRebasesOnRevisionConflict(t *testing.T) {
	mem := memory.New()
	st := &interceptingStore{Store: mem}
	l := newLedgerOn(t, st)
	ctx := context.Background()

	mustCreateType(t, l, &pointtype.PointType{ID: "karma", InitialValue: 10})

	// A rival +10 lands just before the engine's +5 commits; the retry must
	// carry both deltas.
	st.arm(rivalWrite(t, mem, 10))

	b, err := l.Add(ctx, admin, aliceRef, "karma", 5, "")
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if b.Quantity != 25 {
		t.Errorf("expected quantity 25 (initial 10 + rival 10 + 5), got %v", b.Quantity)
	}
	if b.CurrentRevisionID != 3 {
		t.Errorf("expected revision 3 after creation, rival and add, got %d", b.CurrentRevisionID)
	}
}

func TestTransferRechecksSourceOnConflict(t *testing.T) {
	mem := memory.New()
	st := &interceptingStore{Store: mem}
	l := newLedgerOn(t, st)
	ctx := context.Background()

	mustCreateType(t, l, &pointtype.PointType{ID: "karma"})
	if _, err := l.Add(ctx, admin, aliceRef, "karma", 30, ""); err != nil {
		t.Fatal(err)
	}

	// A rival debit drains the source between the sufficiency check and the
	// debit write; the transfer must fail rather than overdraw.
	st.arm(rivalWrite(t, mem, -25))

	_, err := l.Transfer(ctx, admin, aliceRef, bobRef, "karma", 20, "")
	if !errors.Is(err, points.ErrInsufficientPoints) {
		t.Errorf("expected ErrInsufficientPoints, got %v", err)
	}

	fromQ, _ := l.Quantity(ctx, admin, aliceRef, "karma")
	if fromQ != 5 {
		t.Errorf("expected source quantity 5 after the rival debit alone, got %v", fromQ)
	}
	toQ, _ := l.Quantity(ctx, admin, bobRef, "karma")
	if toQ != 0 {
		t.Errorf("destination received points on a failed transfer: %v", toQ)
	}
}

func TestConcurrentFirstAccess(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	mustCreateType(t, l, &pointtype.PointType{ID: "karma", InitialValue: 10})

	const workers = 16
	balances := make([]*balance.Balance, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			balances[i], errs[i] = l.Balance(ctx, admin, aliceRef, "karma")
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d: Balance failed: %v", i, errs[i])
		}
		if balances[i].ID != balances[0].ID {
			t.Errorf("worker %d resolved balance %s, want %s", i, balances[i].ID, balances[0].ID)
		}
	}

	revs, err := l.Revisions(ctx, admin, aliceRef, "karma")
	if err != nil {
		t.Fatal(err)
	}
	if len(revs) != 1 || revs[0].LogMessage != "Initial value." {
		t.Errorf("concurrent first access should create exactly once, got %+v", revs)
	}
}

func TestConcurrentAddsKeepEveryDelta(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	mustCreateType(t, l, &pointtype.PointType{ID: "karma"})

	const workers = 20
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = l.Add(ctx, admin, aliceRef, "karma", 1, "")
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("worker %d: Add failed: %v", i, err)
		}
	}

	q, err := l.Quantity(ctx, admin, aliceRef, "karma")
	if err != nil {
		t.Fatal(err)
	}
	if q != workers {
		t.Errorf("expected quantity %d, got %v", workers, q)
	}

	revs, err := l.Revisions(ctx, admin, aliceRef, "karma")
	if err != nil {
		t.Fatal(err)
	}
	if len(revs) != workers+1 {
		t.Errorf("expected %d revisions including creation, got %d", workers+1, len(revs))
	}
	if last := revs[len(revs)-1]; last.Quantity != workers {
		t.Errorf("last revision quantity %v should equal live quantity %d", last.Quantity, workers)
	}
}

func TestRevertToRevision(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	mustCreateType(t, l, &pointtype.PointType{ID: "karma"})
	if _, err := l.Add(ctx, admin, aliceRef, "karma", 10, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Add(ctx, admin, aliceRef, "karma", 5, ""); err != nil {
		t.Fatal(err)
	}

	// Back to revision 2 (quantity 10). History stays append-only.
	b, err := l.RevertToRevision(ctx, admin, aliceRef, "karma", 2, "")
	if err != nil {
		t.Fatalf("RevertToRevision failed: %v", err)
	}
	if b.Quantity != 10 {
		t.Errorf("expected quantity 10 after revert, got %v", b.Quantity)
	}
	if b.CurrentRevisionID != 4 {
		t.Errorf("revert should append a new revision, got %d", b.CurrentRevisionID)
	}

	entries, err := l.Log(ctx, admin, aliceRef, "karma")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(entries[0].LogMessage, "Copy of the revision from ") {
		t.Errorf("unexpected revert message: %q", entries[0].LogMessage)
	}
}

func TestDeleteRevision(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	mustCreateType(t, l, &pointtype.PointType{ID: "karma"})
	if _, err := l.Add(ctx, admin, aliceRef, "karma", 10, ""); err != nil {
		t.Fatal(err)
	}

	// Current revision is protected.
	err := l.DeleteRevision(ctx, admin, aliceRef, "karma", 2)
	if !errors.Is(err, points.ErrCurrentRevision) {
		t.Errorf("expected ErrCurrentRevision, got %v", err)
	}

	if err := l.DeleteRevision(ctx, admin, aliceRef, "karma", 1); err != nil {
		t.Fatalf("DeleteRevision failed: %v", err)
	}

	entries, err := l.Log(ctx, admin, aliceRef, "karma")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 remaining entry, got %d", len(entries))
	}
}

func TestAccessDenied(t *testing.T) {
	l := newLedger(t, points.WithAuthorizer(access.DenyAll))
	ctx := context.Background()
	ref := aliceRef

	if err := l.CreatePointType(ctx, admin, &pointtype.PointType{ID: "karma"}); !errors.Is(err, points.ErrAccessDenied) {
		t.Errorf("CreatePointType: expected ErrAccessDenied, got %v", err)
	}
	if _, err := l.Add(ctx, admin, ref, "karma", 5, ""); !errors.Is(err, points.ErrAccessDenied) {
		t.Errorf("Add: expected ErrAccessDenied, got %v", err)
	}
	if _, err := l.Transfer(ctx, admin, ref, bobRef, "karma", 5, ""); !errors.Is(err, points.ErrAccessDenied) {
		t.Errorf("Transfer: expected ErrAccessDenied, got %v", err)
	}
	if _, err := l.Balance(ctx, admin, ref, "karma"); !errors.Is(err, points.ErrAccessDenied) {
		t.Errorf("Balance: expected ErrAccessDenied, got %v", err)
	}
	if _, err := l.Log(ctx, admin, ref, "karma"); !errors.Is(err, points.ErrAccessDenied) {
		t.Errorf("Log: expected ErrAccessDenied, got %v", err)
	}
}

func TestLogAffordancesFollowRevisionGrants(t *testing.T) {
	viewer := access.Identity{ID: "2", Name: "bob"}
	auth := access.AuthorizerFunc(func(_ context.Context, identity access.Identity, permission string) bool {
		if identity.ID == admin.ID {
			return true
		}
		return permission == access.PermViewAll
	})

	l := newLedger(t, points.WithAuthorizer(auth))
	ctx := context.Background()

	mustCreateType(t, l, &pointtype.PointType{ID: "karma"})
	if _, err := l.Add(ctx, admin, aliceRef, "karma", 10, ""); err != nil {
		t.Fatal(err)
	}

	entries, err := l.Log(ctx, admin, aliceRef, "karma")
	if err != nil {
		t.Fatal(err)
	}
	if !entries[1].CanRevert || !entries[1].CanDelete {
		t.Error("global manage grant should expose affordances on non-current revisions")
	}

	entries, err = l.Log(ctx, viewer, aliceRef, "karma")
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if e.CanRevert || e.CanDelete {
			t.Errorf("viewer should see no affordances, revision %d has some", e.RevisionID)
		}
	}
}

// recordingPlugin captures hook invocations for assertions.
type recordingPlugin struct {
	typeCreated     int
	balanceCreated  int
	pointsAdded     int
	lastDelta       float64
	transfers       int
	reverted        int
	revisionDeleted int
}

func (p *recordingPlugin) Name() string { return "recording" }

func (p *recordingPlugin) OnTypeCreated(context.Context, interface{}) error {
	p.typeCreated++
	return nil
}

func (p *recordingPlugin) OnBalanceCreated(context.Context, interface{}) error {
	p.balanceCreated++
	return nil
}

func (p *recordingPlugin) OnPointsAdded(_ context.Context, _ interface{}, delta float64) error {
	p.pointsAdded++
	p.lastDelta = delta
	return nil
}

func (p *recordingPlugin) OnTransfer(context.Context, interface{}) error {
	p.transfers++
	return nil
}

func (p *recordingPlugin) OnRevisionReverted(context.Context, interface{}, int64) error {
	p.reverted++
	return nil
}

func (p *recordingPlugin) OnRevisionDeleted(context.Context, string, int64) error {
	p.revisionDeleted++
	return nil
}

var _ plugin.Plugin = (*recordingPlugin)(nil)

func TestPluginHooks(t *testing.T) {
	rec := &recordingPlugin{}
	l := newLedger(t, points.WithPlugin(rec))
	ctx := context.Background()

	mustCreateType(t, l, &pointtype.PointType{ID: "karma"})
	if _, err := l.Add(ctx, admin, aliceRef, "karma", 10, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Transfer(ctx, admin, aliceRef, bobRef, "karma", 5, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := l.RevertToRevision(ctx, admin, aliceRef, "karma", 2, ""); err != nil {
		t.Fatal(err)
	}
	if err := l.DeleteRevision(ctx, admin, aliceRef, "karma", 1); err != nil {
		t.Fatal(err)
	}

	if rec.typeCreated != 1 {
		t.Errorf("typeCreated = %d, want 1", rec.typeCreated)
	}
	if rec.balanceCreated != 2 {
		t.Errorf("balanceCreated = %d, want 2 (both transfer legs)", rec.balanceCreated)
	}
	if rec.pointsAdded != 1 || rec.lastDelta != 10 {
		t.Errorf("pointsAdded = %d (delta %v), want 1 (delta 10)", rec.pointsAdded, rec.lastDelta)
	}
	if rec.transfers != 1 {
		t.Errorf("transfers = %d, want 1", rec.transfers)
	}
	if rec.reverted != 1 {
		t.Errorf("reverted = %d, want 1", rec.reverted)
	}
	if rec.revisionDeleted != 1 {
		t.Errorf("revisionDeleted = %d, want 1", rec.revisionDeleted)
	}
}
