package audithook_test

import (
	"context"
	"testing"

	audithook "github.com/xraph/points/audit_hook"
	"github.com/xraph/points/balance"
	"github.com/xraph/points/id"
	"github.com/xraph/points/owner"
)

type capture struct {
	events []*audithook.AuditEvent
}

func (c *capture) recorder() audithook.Recorder {
	return audithook.RecorderFunc(func(_ context.Context, event *audithook.AuditEvent) error {
		c.events = append(c.events, event)
		return nil
	})
}

func testBal() *balance.Balance {
	return &balance.Balance{
		ID:                id.NewBalanceID(),
		TypeID:            "karma",
		Owner:             owner.Ref{Kind: owner.KindUser, ID: "42"},
		Quantity:          15,
		CurrentRevisionID: 2,
	}
}

func TestRecordsPointsAdded(t *testing.T) {
	c := &capture{}
	ext := audithook.New(c.recorder())
	ctx := context.Background()

	bal := testBal()
	if err := ext.OnPointsAdded(ctx, bal, 5); err != nil {
		t.Fatalf("OnPointsAdded failed: %v", err)
	}

	if len(c.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(c.events))
	}
	evt := c.events[0]
	if evt.Action != audithook.ActionPointsAdded {
		t.Errorf("unexpected action %q", evt.Action)
	}
	if evt.ResourceID != bal.ID.String() {
		t.Errorf("unexpected resource id %q", evt.ResourceID)
	}
	if evt.Metadata["delta"] != 5.0 {
		t.Errorf("unexpected delta metadata: %v", evt.Metadata["delta"])
	}
	if evt.Metadata["owner"] != "user/42" {
		t.Errorf("unexpected owner metadata: %v", evt.Metadata["owner"])
	}
}

func TestEnabledActionsFilter(t *testing.T) {
	c := &capture{}
	ext := audithook.New(c.recorder(),
		audithook.WithEnabledActions(audithook.ActionTransfer),
	)
	ctx := context.Background()

	if err := ext.OnPointsAdded(ctx, testBal(), 5); err != nil {
		t.Fatal(err)
	}
	if err := ext.OnTransfer(ctx, nil); err != nil {
		t.Fatal(err)
	}

	if len(c.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(c.events))
	}
	if c.events[0].Action != audithook.ActionTransfer {
		t.Errorf("unexpected action %q", c.events[0].Action)
	}
}

func TestDisabledActionsFilter(t *testing.T) {
	c := &capture{}
	ext := audithook.New(c.recorder(),
		audithook.WithDisabledActions(audithook.ActionBalanceCreated),
	)
	ctx := context.Background()

	if err := ext.OnBalanceCreated(ctx, testBal()); err != nil {
		t.Fatal(err)
	}
	if err := ext.OnTypeCreated(ctx, nil); err != nil {
		t.Fatal(err)
	}

	if len(c.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(c.events))
	}
	if c.events[0].Action != audithook.ActionTypeCreated {
		t.Errorf("unexpected action %q", c.events[0].Action)
	}
}

func TestRevisionRevertedCarriesTargetRevision(t *testing.T) {
	c := &capture{}
	ext := audithook.New(c.recorder())

	if err := ext.OnRevisionReverted(context.Background(), testBal(), int64(1)); err != nil {
		t.Fatal(err)
	}

	if len(c.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(c.events))
	}
	// The reverted-to revision wins over the balance's current pointer.
	if c.events[0].Metadata["revision_id"] != int64(1) {
		t.Errorf("unexpected revision_id metadata: %v", c.events[0].Metadata["revision_id"])
	}
}

func TestRecorderFailureIsSwallowed(t *testing.T) {
	ext := audithook.New(audithook.RecorderFunc(func(context.Context, *audithook.AuditEvent) error {
		return context.Canceled
	}))

	// A failing recorder must never surface into the ledger pipeline.
	if err := ext.OnTypeDeleted(context.Background(), "karma"); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
}
