package postgres

import (
	"context"
	"database/sql"
	"errors"

	"storycoin-backend/internal/domain"
)

type budgetRepository struct {
	q DBTX
}

func (r *budgetRepository) Create(ctx context.Context, budget *domain.Budget) error {
	query := `INSERT INTO novel_budgets (novel_id, balance, total) VALUES ($1, $2, $3)
	          RETURNING updated_on`
	return r.q.QueryRowContext(ctx, query, budget.NovelID, budget.Balance, budget.Total).
		Scan(&budget.UpdatedOn)
}

func (r *budgetRepository) GetByNovel(ctx context.Context, novelID int64) (*domain.Budget, error) {
	return r.get(ctx, novelID, false)
}

func (r *budgetRepository) GetForUpdate(ctx context.Context, novelID int64) (*domain.Budget, error) {
	return r.get(ctx, novelID, true)
}

func (r *budgetRepository) get(ctx context.Context, novelID int64, forUpdate bool) (*domain.Budget, error) {
	query := `SELECT novel_id, balance, total, updated_on FROM novel_budgets WHERE novel_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var b domain.Budget
	err := r.q.QueryRowContext(ctx, query, novelID).Scan(&b.NovelID, &b.Balance, &b.Total, &b.UpdatedOn)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *budgetRepository) Credit(ctx context.Context, novelID int64, amount int64) (*domain.Budget, error) {
	query := `UPDATE novel_budgets
	          SET balance = balance + $1, total = total + $1, updated_on = NOW()
	          WHERE novel_id = $2
	          RETURNING novel_id, balance, total, updated_on`
	var b domain.Budget
	err := r.q.QueryRowContext(ctx, query, amount, novelID).
		Scan(&b.NovelID, &b.Balance, &b.Total, &b.UpdatedOn)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *budgetRepository) SetBalance(ctx context.Context, novelID int64, balance int64) error {
	query := `UPDATE novel_budgets SET balance = $1, updated_on = NOW() WHERE novel_id = $2`
	result, err := r.q.ExecContext(ctx, query, balance, novelID)
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
