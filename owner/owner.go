// Package owner models the polymorphic entities that hold points.
//
// A balance belongs to an owner identified by a (kind, id) pair — a user, a
// content item, or any other entity kind the host application registers. The
// ledger core never inspects the owning entity itself; everything it needs
// (existence, display name, the identity that owns the entity) is answered
// by a Resolver registered per kind.
package owner

import "context"

// KindUser is the conventional kind for user-owned balances. Hosts are free
// to register any other kinds alongside it.
const KindUser = "user"

// Ref identifies the entity that holds a balance.
type Ref struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// IsZero reports whether the reference is empty.
func (r Ref) IsZero() bool {
	return r.Kind == "" && r.ID == ""
}

// Key returns a stable string form used for lock striping and map keys.
func (r Ref) Key() string {
	return r.Kind + "/" + r.ID
}

// String implements fmt.Stringer.
func (r Ref) String() string { return r.Key() }

// Resolver answers questions about owning entities of a single kind.
type Resolver interface {
	// Resolve checks that the entity exists and returns its canonical
	// reference. Implementations return an error satisfying the host's
	// not-found convention when the entity does not exist.
	Resolve(ctx context.Context, id string) (Ref, error)

	// DisplayName returns a human-readable label for log-message synthesis.
	DisplayName(ctx context.Context, id string) string

	// OwnerIdentityID returns the identity id that owns the entity, used by
	// the "view own" permission tier. For user entities this is the user id
	// itself; for content entities it is the author.
	OwnerIdentityID(ctx context.Context, id string) (string, error)
}

// Registry maps entity kinds to their resolvers.
type Registry struct {
	resolvers map[string]Resolver
}

// NewRegistry creates an empty resolver registry.
func NewRegistry() *Registry {
	return &Registry{resolvers: make(map[string]Resolver)}
}

// Register installs a resolver for a kind, replacing any previous one.
func (r *Registry) Register(kind string, res Resolver) *Registry {
	r.resolvers[kind] = res
	return r
}

// Lookup returns the resolver for a kind, or nil if none is registered.
func (r *Registry) Lookup(kind string) Resolver {
	if r == nil {
		return nil
	}
	return r.resolvers[kind]
}

// Resolve resolves a (kind, id) pair through the registered resolver.
// An unregistered kind resolves to the reference as-is: the ledger only
// requires an opaque, comparable pair, so hosts that don't need existence
// checks can skip registration entirely.
func (r *Registry) Resolve(ctx context.Context, kind, id string) (Ref, error) {
	if res := r.Lookup(kind); res != nil {
		ref, err := res.Resolve(ctx, id)
		if err != nil {
			return Ref{}, err
		}
		if ref.Kind == "" {
			ref.Kind = kind
		}
		return ref, nil
	}
	return Ref{Kind: kind, ID: id}, nil
}

// DisplayName returns a label for the referenced entity, falling back to
// the "kind/id" key when no resolver is registered.
func (r *Registry) DisplayName(ctx context.Context, ref Ref) string {
	if res := r.Lookup(ref.Kind); res != nil {
		if name := res.DisplayName(ctx, ref.ID); name != "" {
			return name
		}
	}
	return ref.Key()
}

// OwnerIdentityID returns the identity id owning the referenced entity.
// The second return is false when no resolver is registered for the kind or
// the lookup fails; callers in access checks must treat that as a denial,
// not an error.
func (r *Registry) OwnerIdentityID(ctx context.Context, ref Ref) (string, bool) {
	res := r.Lookup(ref.Kind)
	if res == nil {
		return "", false
	}
	ownerID, err := res.OwnerIdentityID(ctx, ref.ID)
	if err != nil || ownerID == "" {
		return "", false
	}
	return ownerID, true
}

// StaticResolver is a map-backed Resolver useful for tests and small hosts.
type StaticResolver struct {
	// Names maps entity id to display name.
	Names map[string]string
	// Owners maps entity id to owning identity id. When nil, the entity id
	// itself is returned (the user-kind convention).
	Owners map[string]string
	// NotFoundErr is returned by Resolve for unknown ids.
	NotFoundErr error
}

// Resolve implements Resolver.
func (s *StaticResolver) Resolve(_ context.Context, entityID string) (Ref, error) {
	if s.Names != nil {
		if _, ok := s.Names[entityID]; !ok {
			return Ref{}, s.NotFoundErr
		}
	}
	return Ref{ID: entityID}, nil
}

// DisplayName implements Resolver.
func (s *StaticResolver) DisplayName(_ context.Context, entityID string) string {
	return s.Names[entityID]
}

// OwnerIdentityID implements Resolver.
func (s *StaticResolver) OwnerIdentityID(_ context.Context, entityID string) (string, error) {
	if s.Owners == nil {
		return entityID, nil
	}
	if ownerID, ok := s.Owners[entityID]; ok {
		return ownerID, nil
	}
	return "", s.NotFoundErr
}
