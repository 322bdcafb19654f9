package points

import (
	"github.com/xraph/points/access"
	"github.com/xraph/points/owner"
	"github.com/xraph/points/types"
)

// Re-export common types for convenience so users don't have to import the
// subpackages for everyday calls.

// Entity is re-exported from types package.
type Entity = types.Entity

// Identity is re-exported from access package.
type Identity = access.Identity

// OwnerRef is re-exported from owner package.
type OwnerRef = owner.Ref

// Re-export constructors and common values
var (
	NewEntity = types.NewEntity
	AllowAll  = access.AllowAll
	DenyAll   = access.DenyAll
)

// KindUser is re-exported from owner package.
const KindUser = owner.KindUser
