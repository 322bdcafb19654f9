package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the points store (SQLite).
var Migrations = migrate.NewGroup("points")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_points_types",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS points_types (
    id            TEXT PRIMARY KEY,
    label         TEXT NOT NULL DEFAULT '',
    description   TEXT NOT NULL DEFAULT '',
    initial_value REAL NOT NULL DEFAULT 0,
    status        TEXT NOT NULL DEFAULT 'active',
    metadata      TEXT NOT NULL DEFAULT '{}',
    created_at    TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at    TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_points_types_status ON points_types (status);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS points_types`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_points_balances",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS points_balances (
    id                  TEXT PRIMARY KEY,
    type_id             TEXT NOT NULL DEFAULT '',
    owner_kind          TEXT NOT NULL DEFAULT '',
    owner_id            TEXT NOT NULL DEFAULT '',
    quantity            REAL NOT NULL DEFAULT 0,
    current_revision_id INTEGER NOT NULL DEFAULT 0,
    created_at          TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at          TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_points_balances_pair ON points_balances (type_id, owner_kind, owner_id);
CREATE INDEX IF NOT EXISTS idx_points_balances_type ON points_balances (type_id);
CREATE INDEX IF NOT EXISTS idx_points_balances_owner ON points_balances (owner_kind, owner_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS points_balances`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_points_revisions",
			Version: "20240101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS points_revisions (
    balance_id  TEXT NOT NULL,
    revision_id INTEGER NOT NULL,
    quantity    REAL NOT NULL DEFAULT 0,
    log_message TEXT NOT NULL DEFAULT '',
    author_id   TEXT NOT NULL DEFAULT '',
    created_at  TEXT NOT NULL DEFAULT (datetime('now')),
    PRIMARY KEY (balance_id, revision_id)
);

CREATE INDEX IF NOT EXISTS idx_points_revisions_balance ON points_revisions (balance_id, revision_id DESC);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS points_revisions`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_points_balance_sync_trigger",
			Version: "20240101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				// The revision insert is the commit point for a mutation:
				// the trigger moves the live balance row in the same
				// statement, so a crash can never leave the pointer behind
				// a committed revision.
				_, err := exec.Exec(ctx, `
CREATE TRIGGER IF NOT EXISTS trg_points_balance_sync
AFTER INSERT ON points_revisions
FOR EACH ROW
WHEN NEW.revision_id > 1
BEGIN
    UPDATE points_balances
    SET quantity = NEW.quantity,
        current_revision_id = NEW.revision_id,
        updated_at = datetime('now')
    WHERE id = NEW.balance_id
      AND current_revision_id < NEW.revision_id;
END;
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TRIGGER IF EXISTS trg_points_balance_sync`)
				return err
			},
		},
	)
}
