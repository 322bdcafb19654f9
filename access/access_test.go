package access_test

import (
	"context"
	"testing"

	"github.com/xraph/points/access"
	"github.com/xraph/points/owner"
)

// grantSet authorizes exactly the named permissions.
func grantSet(perms ...string) access.Authorizer {
	set := make(map[string]bool, len(perms))
	for _, p := range perms {
		set[p] = true
	}
	return access.AuthorizerFunc(func(_ context.Context, _ access.Identity, permission string) bool {
		return set[permission]
	})
}

func testOwners() *owner.Registry {
	return owner.NewRegistry().
		Register(owner.KindUser, &owner.StaticResolver{}).
		Register("node", &owner.StaticResolver{
			Names:  map[string]string{"7": "Hello World"},
			Owners: map[string]string{"7": "42"},
		})
}

func TestPermNames(t *testing.T) {
	if got := access.ManagePerm("karma"); got != "manage karma points" {
		t.Errorf("unexpected manage perm: %q", got)
	}
	if got := access.ViewPerm("karma"); got != "view karma points" {
		t.Errorf("unexpected view perm: %q", got)
	}
	if got := access.ViewOwnPerm("karma"); got != "view own karma points" {
		t.Errorf("unexpected view-own perm: %q", got)
	}
	if got := access.RevertPerm("karma"); got != "revert karma points revisions" {
		t.Errorf("unexpected revert perm: %q", got)
	}
	if got := access.DeleteRevisionsPerm("karma"); got != "delete karma points revisions" {
		t.Errorf("unexpected delete-revisions perm: %q", got)
	}
}

func TestRevisionGrants(t *testing.T) {
	ctx := context.Background()
	alice := access.Identity{ID: "42"}

	tests := []struct {
		name       string
		auth       access.Authorizer
		wantRevert bool
		wantDelete bool
	}{
		{"global manage implies both", grantSet(access.PermManageAll), true, true},
		{"revert grant only", grantSet(access.RevertPerm("karma")), true, false},
		{"delete grant only", grantSet(access.DeleteRevisionsPerm("karma")), false, true},
		{"per-type manage implies neither", grantSet(access.ManagePerm("karma")), false, false},
		{"no grants", grantSet(), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := access.NewGate(tt.auth, testOwners())
			if got := gate.CanRevertRevisions(ctx, alice, "karma"); got != tt.wantRevert {
				t.Errorf("CanRevertRevisions = %v, want %v", got, tt.wantRevert)
			}
			if got := gate.CanDeleteRevisions(ctx, alice, "karma"); got != tt.wantDelete {
				t.Errorf("CanDeleteRevisions = %v, want %v", got, tt.wantDelete)
			}
		})
	}
}

func TestCanManage(t *testing.T) {
	ctx := context.Background()
	alice := access.Identity{ID: "42", Name: "alice"}

	tests := []struct {
		name   string
		auth   access.Authorizer
		typeID string
		want   bool
	}{
		{"global manage grant", grantSet(access.PermManageAll), "karma", true},
		{"per-type manage grant", grantSet(access.ManagePerm("karma")), "karma", true},
		{"per-type grant on other type", grantSet(access.ManagePerm("karma")), "credits", false},
		{"view grants do not imply manage", grantSet(access.PermViewAll, access.ViewPerm("karma")), "karma", false},
		{"no grants", grantSet(), "karma", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := access.NewGate(tt.auth, testOwners())
			if got := gate.CanManage(ctx, alice, tt.typeID); got != tt.want {
				t.Errorf("CanManage = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanView(t *testing.T) {
	ctx := context.Background()
	alice := access.Identity{ID: "42", Name: "alice"}
	aliceRef := owner.Ref{Kind: owner.KindUser, ID: "42"}
	bobRef := owner.Ref{Kind: owner.KindUser, ID: "43"}

	tests := []struct {
		name     string
		auth     access.Authorizer
		identity access.Identity
		typeID   string
		ref      owner.Ref
		want     bool
	}{
		{"manage implies view", grantSet(access.PermManageAll), alice, "karma", bobRef, true},
		{"per-type manage implies view", grantSet(access.ManagePerm("karma")), alice, "karma", bobRef, true},
		{"global view grant", grantSet(access.PermViewAll), alice, "karma", bobRef, true},
		{"per-type view grant", grantSet(access.ViewPerm("karma")), alice, "karma", bobRef, true},
		{"per-type view on other type", grantSet(access.ViewPerm("karma")), alice, "credits", bobRef, false},
		{"own tier matches own balance", grantSet(access.ViewOwnPerm("karma")), alice, "karma", aliceRef, true},
		{"own tier denies another's balance", grantSet(access.ViewOwnPerm("karma")), alice, "karma", bobRef, false},
		{"own tier through content ownership", grantSet(access.ViewOwnPerm("karma")), alice, "karma", owner.Ref{Kind: "node", ID: "7"}, true},
		{"own tier denies unresolvable owner", grantSet(access.ViewOwnPerm("karma")), alice, "karma", owner.Ref{Kind: "widget", ID: "w1"}, false},
		{"anonymous denied at own tier", grantSet(access.ViewOwnPerm("karma")), access.Identity{}, "karma", aliceRef, false},
		{"zero ref denied at own tier", grantSet(access.ViewOwnPerm("karma")), alice, "karma", owner.Ref{}, false},
		{"no grants", grantSet(), alice, "karma", aliceRef, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gate := access.NewGate(tt.auth, testOwners())
			if got := gate.CanView(ctx, tt.identity, tt.typeID, tt.ref); got != tt.want {
				t.Errorf("CanView = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanAdminister(t *testing.T) {
	ctx := context.Background()
	alice := access.Identity{ID: "42"}

	gate := access.NewGate(grantSet(access.PermManageAll), testOwners())
	if !gate.CanAdminister(ctx, alice) {
		t.Error("global manage grant should administer")
	}

	// Per-type manage is not enough for type configuration.
	gate = access.NewGate(grantSet(access.ManagePerm("karma")), testOwners())
	if gate.CanAdminister(ctx, alice) {
		t.Error("per-type manage grant should not administer")
	}
}

func TestNilAuthorizerDenies(t *testing.T) {
	gate := access.NewGate(nil, testOwners())
	if gate.CanManage(context.Background(), access.Identity{ID: "42"}, "karma") {
		t.Error("nil authorizer should deny")
	}
}

func TestIsAnonymous(t *testing.T) {
	if !(access.Identity{}).IsAnonymous() {
		t.Error("empty identity should be anonymous")
	}
	if (access.Identity{ID: "42"}).IsAnonymous() {
		t.Error("identity with id should not be anonymous")
	}
}
