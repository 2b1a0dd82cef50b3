package postgres

import (
	"context"
	"database/sql"
	"errors"

	"storycoin-backend/internal/domain"
)

type accountRepository struct {
	q DBTX
}

func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	query := `INSERT INTO accounts (id, balance) VALUES ($1, $2)
	          RETURNING created_on, updated_on`
	return r.q.QueryRowContext(ctx, query, account.ID, account.Balance).
		Scan(&account.CreatedOn, &account.UpdatedOn)
}

func (r *accountRepository) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	return r.get(ctx, id, false)
}

func (r *accountRepository) GetForUpdate(ctx context.Context, id int64) (*domain.Account, error) {
	return r.get(ctx, id, true)
}

func (r *accountRepository) get(ctx context.Context, id int64, forUpdate bool) (*domain.Account, error) {
	query := `SELECT id, balance, created_on, updated_on FROM accounts WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var a domain.Account
	err := r.q.QueryRowContext(ctx, query, id).Scan(&a.ID, &a.Balance, &a.CreatedOn, &a.UpdatedOn)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *accountRepository) SetBalance(ctx context.Context, id int64, balance int64) error {
	query := `UPDATE accounts SET balance = $1, updated_on = NOW() WHERE id = $2`
	result, err := r.q.ExecContext(ctx, query, balance, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
