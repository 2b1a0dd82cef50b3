package postgres

import (
	"context"

	"storycoin-backend/internal/domain"
)

type ledgerRepository struct {
	q DBTX
}

func (r *ledgerRepository) Append(ctx context.Context, entry *domain.LedgerEntry) error {
	query := `INSERT INTO ledger_entries
	          (account_kind, account_id, delta, balance_after, kind, tx_ref, source_ref, actor_id, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id`
	return r.q.QueryRowContext(ctx, query,
		entry.AccountKind, entry.AccountID, entry.Delta, entry.BalanceAfter,
		entry.Kind, entry.TxRef, entry.SourceRef, entry.ActorID, entry.CreatedOn,
	).Scan(&entry.ID)
}

func (r *ledgerRepository) List(ctx context.Context, ref domain.AccountRef, page, pageSize int32) ([]domain.LedgerEntry, int32, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	var count int32
	countQuery := `SELECT count(*) FROM ledger_entries WHERE account_kind = $1 AND account_id = $2`
	if err := r.q.QueryRowContext(ctx, countQuery, ref.Kind, ref.ID).Scan(&count); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, account_kind, account_id, delta, balance_after, kind, tx_ref, source_ref, actor_id, created_on
	          FROM ledger_entries
	          WHERE account_kind = $1 AND account_id = $2
	          ORDER BY created_on DESC, id DESC
	          LIMIT $3 OFFSET $4`
	rows, err := r.q.QueryContext(ctx, query, ref.Kind, ref.ID, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		if err := rows.Scan(&e.ID, &e.AccountKind, &e.AccountID, &e.Delta, &e.BalanceAfter,
			&e.Kind, &e.TxRef, &e.SourceRef, &e.ActorID, &e.CreatedOn); err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return entries, count, nil
}

func (r *ledgerRepository) SumDeltas(ctx context.Context, ref domain.AccountRef) (int64, error) {
	var sum int64
	query := `SELECT COALESCE(SUM(delta), 0) FROM ledger_entries WHERE account_kind = $1 AND account_id = $2`
	err := r.q.QueryRowContext(ctx, query, ref.Kind, ref.ID).Scan(&sum)
	return sum, err
}
