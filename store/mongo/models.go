package mongo

import (
	"strconv"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/points/balance"
	"github.com/xraph/points/id"
	"github.com/xraph/points/owner"
	"github.com/xraph/points/pointtype"
	"github.com/xraph/points/types"
)

// ==================== Point type models ====================

type pointTypeModel struct {
	grove.BaseModel `grove:"table:points_types"`

	ID           string            `grove:"id,pk"         bson:"_id"`
	Label        string            `grove:"label"         bson:"label"`
	Description  string            `grove:"description"   bson:"description"`
	InitialValue float64           `grove:"initial_value" bson:"initial_value"`
	Status       string            `grove:"status"        bson:"status"`
	Metadata     map[string]string `grove:"metadata"      bson:"metadata,omitempty"`
	CreatedAt    time.Time         `grove:"created_at"    bson:"created_at"`
	UpdatedAt    time.Time         `grove:"updated_at"    bson:"updated_at"`
}

func toPointTypeModel(pt *pointtype.PointType) *pointTypeModel {
	return &pointTypeModel{
		ID:           pt.ID,
		Label:        pt.Label,
		Description:  pt.Description,
		InitialValue: pt.InitialValue,
		Status:       string(pt.Status),
		Metadata:     pt.Metadata,
		CreatedAt:    pt.CreatedAt,
		UpdatedAt:    pt.UpdatedAt,
	}
}

func fromPointTypeModel(m *pointTypeModel) *pointtype.PointType {
	return &pointtype.PointType{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:           m.ID,
		Label:        m.Label,
		Description:  m.Description,
		InitialValue: m.InitialValue,
		Status:       pointtype.Status(m.Status),
		Metadata:     m.Metadata,
	}
}

// ==================== Balance models ====================

type balanceModel struct {
	grove.BaseModel `grove:"table:points_balances"`

	ID                string    `grove:"id,pk"               bson:"_id"`
	TypeID            string    `grove:"type_id"             bson:"type_id"`
	OwnerKind         string    `grove:"owner_kind"          bson:"owner_kind"`
	OwnerID           string    `grove:"owner_id"            bson:"owner_id"`
	Quantity          float64   `grove:"quantity"            bson:"quantity"`
	CurrentRevisionID int64     `grove:"current_revision_id" bson:"current_revision_id"`
	CreatedAt         time.Time `grove:"created_at"          bson:"created_at"`
	UpdatedAt         time.Time `grove:"updated_at"          bson:"updated_at"`
}

func toBalanceModel(b *balance.Balance) *balanceModel {
	return &balanceModel{
		ID:                b.ID.String(),
		TypeID:            b.TypeID,
		OwnerKind:         b.Owner.Kind,
		OwnerID:           b.Owner.ID,
		Quantity:          b.Quantity,
		CurrentRevisionID: b.CurrentRevisionID,
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
	}
}

func fromBalanceModel(m *balanceModel) (*balance.Balance, error) {
	balID, err := id.ParseBalanceID(m.ID)
	if err != nil {
		return nil, err
	}

	return &balance.Balance{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:                balID,
		TypeID:            m.TypeID,
		Owner:             owner.Ref{Kind: m.OwnerKind, ID: m.OwnerID},
		Quantity:          m.Quantity,
		CurrentRevisionID: m.CurrentRevisionID,
	}, nil
}

// ==================== Revision models ====================

type revisionModel struct {
	grove.BaseModel `grove:"table:points_revisions"`

	// Doc id is balance_id:revision_id; the compound unique index on the
	// two fields is what actually detects conflicting writers.
	ID         string    `grove:"id,pk"       bson:"_id"`
	BalanceID  string    `grove:"balance_id"  bson:"balance_id"`
	RevisionID int64     `grove:"revision_id" bson:"revision_id"`
	Quantity   float64   `grove:"quantity"    bson:"quantity"`
	LogMessage string    `grove:"log_message" bson:"log_message"`
	AuthorID   string    `grove:"author_id"   bson:"author_id"`
	CreatedAt  time.Time `grove:"created_at"  bson:"created_at"`
}

func revisionDocID(balID string, revisionID int64) string {
	return balID + ":" + strconv.FormatInt(revisionID, 10)
}

func toRevisionModel(rev *balance.Revision) *revisionModel {
	return &revisionModel{
		ID:         revisionDocID(rev.BalanceID.String(), rev.RevisionID),
		BalanceID:  rev.BalanceID.String(),
		RevisionID: rev.RevisionID,
		Quantity:   rev.Quantity,
		LogMessage: rev.LogMessage,
		AuthorID:   rev.AuthorID,
		CreatedAt:  rev.CreatedAt,
	}
}

func fromRevisionModel(m *revisionModel) (*balance.Revision, error) {
	balID, err := id.ParseBalanceID(m.BalanceID)
	if err != nil {
		return nil, err
	}

	return &balance.Revision{
		RevisionID: m.RevisionID,
		BalanceID:  balID,
		Quantity:   m.Quantity,
		LogMessage: m.LogMessage,
		AuthorID:   m.AuthorID,
		CreatedAt:  m.CreatedAt,
	}, nil
}
