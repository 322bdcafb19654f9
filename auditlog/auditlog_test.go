package auditlog_test

import (
	"testing"
	"time"

	"github.com/xraph/points/auditlog"
	"github.com/xraph/points/balance"
	"github.com/xraph/points/id"
)

func testBalance(currentRev int64) *balance.Balance {
	return &balance.Balance{
		ID:                id.NewBalanceID(),
		TypeID:            "karma",
		CurrentRevisionID: currentRev,
	}
}

func testRevisions() []*balance.Revision {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return []*balance.Revision{
		{RevisionID: 1, Quantity: 0, LogMessage: "Initial value.", CreatedAt: base},
		{RevisionID: 3, Quantity: 15, LogMessage: "alice added 5 points.", AuthorID: "1", CreatedAt: base.Add(2 * time.Hour)},
		{RevisionID: 2, Quantity: 10, LogMessage: "alice added 10 points.", AuthorID: "1", CreatedAt: base.Add(time.Hour)},
	}
}

func TestProjectOrdersNewestFirst(t *testing.T) {
	entries := auditlog.Project(testBalance(3), testRevisions(), auditlog.Options{})
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i, want := range []int64{3, 2, 1} {
		if entries[i].RevisionID != want {
			t.Errorf("entry %d: expected revision %d, got %d", i, want, entries[i].RevisionID)
		}
	}
}

func TestProjectMarksCurrent(t *testing.T) {
	entries := auditlog.Project(testBalance(3), testRevisions(), auditlog.Options{})
	for _, e := range entries {
		if got, want := e.Current, e.RevisionID == 3; got != want {
			t.Errorf("revision %d: Current = %v, want %v", e.RevisionID, got, want)
		}
	}
}

func TestProjectAffordances(t *testing.T) {
	// Without revision grants, no affordances at all.
	entries := auditlog.Project(testBalance(3), testRevisions(), auditlog.Options{})
	for _, e := range entries {
		if e.CanRevert || e.CanDelete {
			t.Errorf("revision %d: expected no affordances without grants", e.RevisionID)
		}
	}

	// With both grants, every revision except the current one.
	entries = auditlog.Project(testBalance(3), testRevisions(), auditlog.Options{CanRevert: true, CanDelete: true})
	for _, e := range entries {
		want := !e.Current
		if e.CanRevert != want || e.CanDelete != want {
			t.Errorf("revision %d: CanRevert=%v CanDelete=%v, want %v", e.RevisionID, e.CanRevert, e.CanDelete, want)
		}
	}

	// The two grants gate their affordances independently.
	entries = auditlog.Project(testBalance(3), testRevisions(), auditlog.Options{CanRevert: true})
	for _, e := range entries {
		if e.CanRevert != !e.Current {
			t.Errorf("revision %d: CanRevert=%v, want %v", e.RevisionID, e.CanRevert, !e.Current)
		}
		if e.CanDelete {
			t.Errorf("revision %d: CanDelete should stay false without the delete grant", e.RevisionID)
		}
	}
}

func TestProjectNilBalance(t *testing.T) {
	entries := auditlog.Project(nil, testRevisions(), auditlog.Options{CanRevert: true, CanDelete: true})
	for _, e := range entries {
		if e.Current {
			t.Errorf("revision %d: nothing should be current without a balance", e.RevisionID)
		}
	}
}

func TestProjectSkipsNilRevisions(t *testing.T) {
	revs := append(testRevisions(), nil)
	entries := auditlog.Project(testBalance(3), revs, auditlog.Options{})
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
}

func TestProjectEmpty(t *testing.T) {
	entries := auditlog.Project(testBalance(1), nil, auditlog.Options{})
	if len(entries) != 0 {
		t.Fatalf("expected empty projection, got %d entries", len(entries))
	}
}
