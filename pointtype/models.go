// Package pointtype defines the configuration bundles that balances are
// grouped under. A point type carries the default quantity applied to newly
// created balances and the label used in permission and log strings.
package pointtype

import "github.com/xraph/points/types"

type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// PointType is a named points configuration bundle. The ID is a unique slug
// ("credits", "karma") referenced by balances and permission names; it is
// immutable once balances exist for it.
type PointType struct {
	types.Entity
	ID           string            `json:"id"`
	Label        string            `json:"label"`
	Description  string            `json:"description,omitempty"`
	InitialValue float64           `json:"initial_value"`
	Status       Status            `json:"status"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// ListOpts filters ListPointTypes calls.
type ListOpts struct {
	Status Status
	Limit  int
	Offset int
}
