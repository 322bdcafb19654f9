package owner_test

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/points/owner"
)

var errNotFound = errors.New("not found")

func testRegistry() *owner.Registry {
	return owner.NewRegistry().
		Register(owner.KindUser, &owner.StaticResolver{
			Names:       map[string]string{"42": "alice", "43": "bob"},
			NotFoundErr: errNotFound,
		}).
		Register("node", &owner.StaticResolver{
			Names:       map[string]string{"7": "Hello World"},
			Owners:      map[string]string{"7": "42"},
			NotFoundErr: errNotFound,
		})
}

func TestRefKey(t *testing.T) {
	ref := owner.Ref{Kind: "user", ID: "42"}
	if ref.Key() != "user/42" {
		t.Errorf("expected key %q, got %q", "user/42", ref.Key())
	}
	if ref.String() != ref.Key() {
		t.Error("String should match Key")
	}
}

func TestRefIsZero(t *testing.T) {
	if !(owner.Ref{}).IsZero() {
		t.Error("empty ref should be zero")
	}
	if (owner.Ref{Kind: "user", ID: "42"}).IsZero() {
		t.Error("populated ref should not be zero")
	}
}

func TestResolve(t *testing.T) {
	reg := testRegistry()
	ctx := context.Background()

	ref, err := reg.Resolve(ctx, owner.KindUser, "42")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if ref.Kind != owner.KindUser || ref.ID != "42" {
		t.Errorf("unexpected ref: %+v", ref)
	}
}

func TestResolveUnknownEntity(t *testing.T) {
	reg := testRegistry()

	_, err := reg.Resolve(context.Background(), owner.KindUser, "999")
	if !errors.Is(err, errNotFound) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestResolveUnregisteredKindPassesThrough(t *testing.T) {
	reg := testRegistry()

	ref, err := reg.Resolve(context.Background(), "widget", "w1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if ref.Kind != "widget" || ref.ID != "w1" {
		t.Errorf("unexpected ref: %+v", ref)
	}
}

func TestDisplayName(t *testing.T) {
	reg := testRegistry()
	ctx := context.Background()

	tests := []struct {
		name string
		ref  owner.Ref
		want string
	}{
		{"resolved user", owner.Ref{Kind: owner.KindUser, ID: "42"}, "alice"},
		{"resolved node", owner.Ref{Kind: "node", ID: "7"}, "Hello World"},
		{"unknown entity falls back to key", owner.Ref{Kind: owner.KindUser, ID: "999"}, "user/999"},
		{"unregistered kind falls back to key", owner.Ref{Kind: "widget", ID: "w1"}, "widget/w1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := reg.DisplayName(ctx, tt.ref); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestOwnerIdentityID(t *testing.T) {
	reg := testRegistry()
	ctx := context.Background()

	// User entities own themselves.
	ownerID, ok := reg.OwnerIdentityID(ctx, owner.Ref{Kind: owner.KindUser, ID: "42"})
	if !ok || ownerID != "42" {
		t.Errorf("expected (42, true), got (%q, %v)", ownerID, ok)
	}

	// Node entities are owned by their author.
	ownerID, ok = reg.OwnerIdentityID(ctx, owner.Ref{Kind: "node", ID: "7"})
	if !ok || ownerID != "42" {
		t.Errorf("expected (42, true), got (%q, %v)", ownerID, ok)
	}

	// Unknown node has no owner.
	if _, ok = reg.OwnerIdentityID(ctx, owner.Ref{Kind: "node", ID: "999"}); ok {
		t.Error("expected false for unknown entity")
	}

	// Unregistered kind has no owner.
	if _, ok = reg.OwnerIdentityID(ctx, owner.Ref{Kind: "widget", ID: "w1"}); ok {
		t.Error("expected false for unregistered kind")
	}
}

func TestNilRegistryLookup(t *testing.T) {
	var reg *owner.Registry
	if reg.Lookup(owner.KindUser) != nil {
		t.Error("nil registry should return nil resolver")
	}
}
