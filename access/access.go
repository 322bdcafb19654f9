// Package access implements the permission gate in front of ledger reads
// and writes.
//
// Permissions are flat named grants, resolved by a host-supplied Authorizer.
// Two global names cover every point type, and three per-type names are
// derived from the type id:
//
//	manage all points
//	view all points
//	manage <type> points
//	view <type> points
//	view own <type> points
//	revert <type> points revisions
//	delete <type> points revisions
//
// Manage grants imply view. The gate checks manage names before view names,
// and the "own" tier only after the broader tiers fail, so widening a grant
// never narrows what an identity can do. The two revision names are separate
// from the manage grant: being allowed to adjust balances does not extend to
// rewriting their history. Only the global manage grant overrides them.
package access

import (
	"context"

	"github.com/xraph/points/owner"
)

// Global permission names.
const (
	PermManageAll = "manage all points"
	PermViewAll   = "view all points"
)

// ManagePerm returns the per-type manage permission name.
func ManagePerm(typeID string) string { return "manage " + typeID + " points" }

// ViewPerm returns the per-type view permission name.
func ViewPerm(typeID string) string { return "view " + typeID + " points" }

// ViewOwnPerm returns the per-type view-own permission name.
func ViewOwnPerm(typeID string) string { return "view own " + typeID + " points" }

// RevertPerm returns the per-type revision revert permission name.
func RevertPerm(typeID string) string { return "revert " + typeID + " points revisions" }

// DeleteRevisionsPerm returns the per-type revision delete permission name.
func DeleteRevisionsPerm(typeID string) string { return "delete " + typeID + " points revisions" }

// Identity is the authenticated principal performing an operation.
type Identity struct {
	// ID is the principal's stable identifier. Empty means anonymous.
	ID string
	// Name is used for log-message synthesis.
	Name string
}

// IsAnonymous reports whether the identity carries no id.
func (i Identity) IsAnonymous() bool { return i.ID == "" }

// Authorizer answers whether an identity holds a named permission. Hosts
// plug in their role system here; the ledger never stores grants itself.
type Authorizer interface {
	HasPermission(ctx context.Context, identity Identity, permission string) bool
}

// AuthorizerFunc adapts a function to the Authorizer interface.
type AuthorizerFunc func(ctx context.Context, identity Identity, permission string) bool

func (f AuthorizerFunc) HasPermission(ctx context.Context, identity Identity, permission string) bool {
	return f(ctx, identity, permission)
}

// DenyAll is the default Authorizer: every check fails. Hosts must install
// a real Authorizer before any gated operation succeeds.
var DenyAll Authorizer = AuthorizerFunc(func(context.Context, Identity, string) bool {
	return false
})

// AllowAll grants every permission; intended for tests and trusted
// single-tenant embedding.
var AllowAll Authorizer = AuthorizerFunc(func(context.Context, Identity, string) bool {
	return true
})

// Gate evaluates ledger permissions against an Authorizer, using the owner
// registry to answer the "own" tier.
type Gate struct {
	auth   Authorizer
	owners *owner.Registry
}

// NewGate builds a permission gate. A nil authorizer denies everything.
func NewGate(auth Authorizer, owners *owner.Registry) *Gate {
	if auth == nil {
		auth = DenyAll
	}
	return &Gate{auth: auth, owners: owners}
}

// CanManage reports whether the identity may mutate balances of the given
// point type.
func (g *Gate) CanManage(ctx context.Context, identity Identity, typeID string) bool {
	if g.auth.HasPermission(ctx, identity, PermManageAll) {
		return true
	}
	return g.auth.HasPermission(ctx, identity, ManagePerm(typeID))
}

// CanView reports whether the identity may read the balance held by ref for
// the given point type. Manage grants are checked first since managing
// implies viewing. The own tier resolves the owning identity through the
// registry; an unresolvable owner denies rather than errors.
func (g *Gate) CanView(ctx context.Context, identity Identity, typeID string, ref owner.Ref) bool {
	if g.CanManage(ctx, identity, typeID) {
		return true
	}
	if g.auth.HasPermission(ctx, identity, PermViewAll) {
		return true
	}
	if g.auth.HasPermission(ctx, identity, ViewPerm(typeID)) {
		return true
	}
	if identity.IsAnonymous() || ref.IsZero() {
		return false
	}
	if !g.auth.HasPermission(ctx, identity, ViewOwnPerm(typeID)) {
		return false
	}
	ownerID, ok := g.owners.OwnerIdentityID(ctx, ref)
	return ok && ownerID == identity.ID
}

// CanRevertRevisions reports whether the identity may restore a balance to a
// prior revision's quantity. Separate from the per-type manage grant; only
// the global manage grant overrides.
func (g *Gate) CanRevertRevisions(ctx context.Context, identity Identity, typeID string) bool {
	if g.auth.HasPermission(ctx, identity, PermManageAll) {
		return true
	}
	return g.auth.HasPermission(ctx, identity, RevertPerm(typeID))
}

// CanDeleteRevisions reports whether the identity may delete historical
// revisions from a balance's trail. Separate from the per-type manage grant;
// only the global manage grant overrides.
func (g *Gate) CanDeleteRevisions(ctx context.Context, identity Identity, typeID string) bool {
	if g.auth.HasPermission(ctx, identity, PermManageAll) {
		return true
	}
	return g.auth.HasPermission(ctx, identity, DeleteRevisionsPerm(typeID))
}

// CanAdminister reports whether the identity may create, update, or delete
// point type configuration. Only the global manage grant qualifies.
func (g *Gate) CanAdminister(ctx context.Context, identity Identity) bool {
	return g.auth.HasPermission(ctx, identity, PermManageAll)
}
