package postgres

import "context"

// Schema is applied with IF NOT EXISTS so the sweeper daemon can bootstrap
// an empty database. The partial unique index on rentals backs the
// one-active-rental-per-(user,volume) invariant at the storage layer.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
    id         BIGINT PRIMARY KEY,
    balance    BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
    created_on TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_on TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE TABLE IF NOT EXISTS novel_budgets (
    novel_id   BIGINT PRIMARY KEY,
    balance    BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
    total      BIGINT NOT NULL DEFAULT 0 CHECK (total >= 0),
    updated_on TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE TABLE IF NOT EXISTS volumes (
    id               BIGSERIAL PRIMARY KEY,
    novel_id         BIGINT NOT NULL,
    mode             TEXT NOT NULL DEFAULT 'PUBLISHED',
    rent_price_coins BIGINT NOT NULL DEFAULT 0,
    created_on       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_on       TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX IF NOT EXISTS idx_volumes_novel ON volumes (novel_id)`,
	`CREATE TABLE IF NOT EXISTS chapters (
    id          BIGSERIAL PRIMARY KEY,
    novel_id    BIGINT NOT NULL,
    volume_id   BIGINT NOT NULL REFERENCES volumes(id),
    seq         INT NOT NULL DEFAULT 0,
    mode        TEXT NOT NULL DEFAULT 'FREE',
    price_coins BIGINT NOT NULL DEFAULT 0,
    unlocked_on TIMESTAMPTZ,
    created_on  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_on  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX IF NOT EXISTS idx_chapters_volume ON chapters (volume_id)`,
	`CREATE INDEX IF NOT EXISTS idx_chapters_novel ON chapters (novel_id, seq)`,
	`CREATE TABLE IF NOT EXISTS ledger_entries (
    id            BIGSERIAL PRIMARY KEY,
    account_kind  TEXT NOT NULL,
    account_id    BIGINT NOT NULL,
    delta         BIGINT NOT NULL,
    balance_after BIGINT NOT NULL,
    kind          TEXT NOT NULL,
    tx_ref        TEXT NOT NULL,
    source_ref    TEXT NOT NULL DEFAULT '',
    actor_id      BIGINT NOT NULL DEFAULT 0,
    created_on    TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX IF NOT EXISTS idx_ledger_entries_account ON ledger_entries (account_kind, account_id, created_on)`,
	`CREATE TABLE IF NOT EXISTS escrow_requests (
    id            BIGSERIAL PRIMARY KEY,
    requester_id  BIGINT NOT NULL,
    novel_id      BIGINT NOT NULL,
    deposit_coins BIGINT NOT NULL CHECK (deposit_coins > 0),
    status        TEXT NOT NULL DEFAULT 'PENDING',
    open_donation BOOLEAN NOT NULL DEFAULT FALSE,
    created_on    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    decided_on    TIMESTAMPTZ
)`,
	`CREATE TABLE IF NOT EXISTS contributions (
    id             BIGSERIAL PRIMARY KEY,
    request_id     BIGINT NOT NULL REFERENCES escrow_requests(id),
    contributor_id BIGINT NOT NULL,
    amount_coins   BIGINT NOT NULL CHECK (amount_coins > 0),
    status         TEXT NOT NULL DEFAULT 'PENDING',
    created_on     TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX IF NOT EXISTS idx_contributions_request ON contributions (request_id, status)`,
	`CREATE TABLE IF NOT EXISTS rentals (
    id           BIGSERIAL PRIMARY KEY,
    user_id      BIGINT NOT NULL,
    volume_id    BIGINT NOT NULL,
    novel_id     BIGINT NOT NULL,
    amount_coins BIGINT NOT NULL,
    start_time   TIMESTAMPTZ NOT NULL,
    end_time     TIMESTAMPTZ NOT NULL,
    active       BOOLEAN NOT NULL DEFAULT TRUE,
    created_on   TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_rentals_one_active ON rentals (user_id, volume_id) WHERE active`,
	`CREATE INDEX IF NOT EXISTS idx_rentals_due ON rentals (end_time) WHERE active`,
}

// Migrate applies the schema. Statements are idempotent, so re-running on
// an up-to-date database is a no-op.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := s.q.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
