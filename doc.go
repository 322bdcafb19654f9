// Package points provides an embeddable points-ledger engine for Go
// applications.
//
// Points is designed as a library, not a service. Import it directly into
// your Go application and wire it to your own storage and permission
// backends. It provides:
//
//   - Configurable point types ("credits", "karma") with per-type defaults
//   - One live balance per (owner, point type) pair, lazily created
//   - An append-only revision trail behind every balance
//   - Atomic transfers between owners with conservation guarantees
//   - A flat permission gate with manage, view, and view-own tiers
//   - An audit log projection with management affordances
//   - Lifecycle plugins for every ledger event
//
// # Quick Start
//
// Create a ledger instance with your preferred store:
//
//	import (
//	    "github.com/xraph/points"
//	    "github.com/xraph/points/store/postgres"
//	)
//
//	// Initialize store
//	store, err := postgres.New(databaseURL)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Create the ledger
//	l := points.New(store,
//	    points.WithAuthorizer(myAuthorizer),
//	    points.WithOwners(myOwners),
//	)
//
//	// Start (runs migrations, initializes plugins)
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop()
//
// # Core Concepts
//
// Point types bundle configuration shared by all balances under them:
//
//	pt := &pointtype.PointType{
//	    ID:           "credits",
//	    Label:        "Credits",
//	    InitialValue: 100,
//	}
//	err := l.CreatePointType(ctx, admin, pt)
//
// Balances are addressed by an owner reference and a type id, and spring
// into existence on first write:
//
//	ref := owner.Ref{Kind: owner.KindUser, ID: "u-42"}
//	bal, err := l.Add(ctx, admin, ref, "credits", 25, "")
//
// Every mutation appends a revision; the audit log projects them
// newest-first:
//
//	entries, err := l.Log(ctx, admin, ref, "credits")
//
// Transfers move points between owners and conserve the pair's total:
//
//	event, err := l.Transfer(ctx, admin, alice, bob, "credits", 10, "")
//
// # Permissions
//
// Every gated operation takes the caller's identity. Grants are flat names
// resolved by a host-supplied Authorizer; see the access package for the
// naming scheme and precedence rules.
//
// # TypeID
//
// Balances and transfer events use TypeID for globally unique, type-safe
// identifiers:
//
//	bal_01h2xcejqtf2nbrexx3vqjhp41  // Balance ID
//	xfr_01h455vb4pex5vsknk084sn02q  // Transfer event ID
//
// TypeIDs are K-sortable, making them ideal for database indexes and
// providing natural time-ordering of entities.
package points
