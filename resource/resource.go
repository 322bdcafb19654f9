// Package resource exposes the ledger's operations through a closed,
// name-dispatched call surface suitable for RPC-style transports.
//
// Operations are addressed by name with a flat string parameter map. Each
// operation declares its required parameters up front; a missing parameter
// fails before any ledger call is made. Unknown operation names are
// rejected — there is no fallthrough.
package resource

import (
	"context"
	"strconv"

	points "github.com/xraph/points"
	"github.com/xraph/points/access"
	"github.com/xraph/points/owner"
)

// Operation names accepted by Dispatch.
const (
	OpAdd         = "add"
	OpTransfer    = "transfer"
	OpGetQuantity = "getQuantity"
	OpGetLog      = "getLog"
)

// Parameter keys.
const (
	ParamOwnerKind = "owner_kind"
	ParamOwnerID   = "owner_id"
	ParamFromKind  = "from_kind"
	ParamFromID    = "from_id"
	ParamToKind    = "to_kind"
	ParamToID      = "to_id"
	ParamType      = "type"
	ParamPoints    = "points"
	ParamLog       = "log"
)

// requiredParams lists, per operation, the parameters that must be present.
// Optional parameters (log, owner kinds) are not listed.
var requiredParams = map[string][]string{
	OpAdd:         {ParamOwnerID, ParamType, ParamPoints},
	OpTransfer:    {ParamFromID, ParamToID, ParamType, ParamPoints},
	OpGetQuantity: {ParamOwnerID, ParamType},
	OpGetLog:      {ParamOwnerID, ParamType},
}

// Resource wraps a Ledger with the name-dispatched call surface.
type Resource struct {
	ledger *points.Ledger
}

// New creates a Resource over the given ledger.
func New(l *points.Ledger) *Resource {
	return &Resource{ledger: l}
}

// Operations returns the accepted operation names.
func Operations() []string {
	return []string{OpAdd, OpTransfer, OpGetQuantity, OpGetLog}
}

// Dispatch routes an operation by name. The result is the operation's
// natural return value: *balance.Balance for add, *points.TransferEvent for
// transfer, float64 for getQuantity, []auditlog.Entry for getLog.
func (r *Resource) Dispatch(ctx context.Context, identity access.Identity, op string, params map[string]string) (any, error) {
	required, ok := requiredParams[op]
	if !ok {
		return nil, points.ValidationError{Field: "op", Message: "unknown operation: " + op}
	}
	for _, key := range required {
		if params[key] == "" {
			return nil, points.ValidationError{Field: key, Message: "required parameter missing"}
		}
	}

	switch op {
	case OpAdd:
		return r.add(ctx, identity, params)
	case OpTransfer:
		return r.transfer(ctx, identity, params)
	case OpGetQuantity:
		return r.getQuantity(ctx, identity, params)
	case OpGetLog:
		return r.getLog(ctx, identity, params)
	}
	return nil, points.ValidationError{Field: "op", Message: "unknown operation: " + op}
}

func (r *Resource) add(ctx context.Context, identity access.Identity, params map[string]string) (any, error) {
	delta, err := parsePoints(params[ParamPoints])
	if err != nil {
		return nil, err
	}
	ref := ownerRef(params[ParamOwnerKind], params[ParamOwnerID])
	return r.ledger.Add(ctx, identity, ref, params[ParamType], delta, params[ParamLog])
}

func (r *Resource) transfer(ctx context.Context, identity access.Identity, params map[string]string) (any, error) {
	quantity, err := parsePoints(params[ParamPoints])
	if err != nil {
		return nil, err
	}
	from := ownerRef(params[ParamFromKind], params[ParamFromID])
	to := ownerRef(params[ParamToKind], params[ParamToID])
	return r.ledger.Transfer(ctx, identity, from, to, params[ParamType], quantity, params[ParamLog])
}

func (r *Resource) getQuantity(ctx context.Context, identity access.Identity, params map[string]string) (any, error) {
	ref := ownerRef(params[ParamOwnerKind], params[ParamOwnerID])
	return r.ledger.Quantity(ctx, identity, ref, params[ParamType])
}

func (r *Resource) getLog(ctx context.Context, identity access.Identity, params map[string]string) (any, error) {
	ref := ownerRef(params[ParamOwnerKind], params[ParamOwnerID])
	return r.ledger.Log(ctx, identity, ref, params[ParamType])
}

// ownerRef defaults the kind to user, matching the call surface's original
// user-centric parameters.
func ownerRef(kind, id string) owner.Ref {
	if kind == "" {
		kind = owner.KindUser
	}
	return owner.Ref{Kind: kind, ID: id}
}

func parsePoints(raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, points.ValidationError{Field: ParamPoints, Message: "not a number: " + raw}
	}
	return v, nil
}
