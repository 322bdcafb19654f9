// Package auditlog projects a balance's revision trail into display-ready
// audit entries.
package auditlog

import (
	"sort"
	"time"

	"github.com/xraph/points/balance"
)

// Entry is one row of a balance's audit log.
type Entry struct {
	RevisionID int64     `json:"revision_id"`
	Quantity   float64   `json:"quantity"`
	LogMessage string    `json:"log_message"`
	AuthorID   string    `json:"author_id"`
	CreatedAt  time.Time `json:"created_at"`

	// Current marks the revision the live balance points at.
	Current bool `json:"current"`

	// CanRevert and CanDelete are management affordances, populated from
	// the caller's revision grants. The current revision never carries
	// either, regardless of grants.
	CanRevert bool `json:"can_revert"`
	CanDelete bool `json:"can_delete"`
}

// Options controls projection. The two flags carry the caller's revision
// grants; they gate the affordances independently.
type Options struct {
	CanRevert bool
	CanDelete bool
}

// Project orders revisions newest-first and marks the current one. It does
// not consult storage; callers pass the revisions they already loaded.
func Project(b *balance.Balance, revs []*balance.Revision, opts Options) []Entry {
	entries := make([]Entry, 0, len(revs))
	for _, rev := range revs {
		if rev == nil {
			continue
		}
		current := b != nil && rev.RevisionID == b.CurrentRevisionID
		entries = append(entries, Entry{
			RevisionID: rev.RevisionID,
			Quantity:   rev.Quantity,
			LogMessage: rev.LogMessage,
			AuthorID:   rev.AuthorID,
			CreatedAt:  rev.CreatedAt,
			Current:    current,
			CanRevert:  opts.CanRevert && !current,
			CanDelete:  opts.CanDelete && !current,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].RevisionID > entries[j].RevisionID
	})
	return entries
}
