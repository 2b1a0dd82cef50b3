package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"storycoin-backend/internal/domain"
)

type escrowRepository struct {
	q DBTX
}

func (r *escrowRepository) CreateRequest(ctx context.Context, req *domain.EscrowRequest) error {
	query := `INSERT INTO escrow_requests (requester_id, novel_id, deposit_coins, status, open_donation)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id, created_on`
	return r.q.QueryRowContext(ctx, query,
		req.RequesterID, req.NovelID, req.DepositCoins, req.Status, req.OpenDonation,
	).Scan(&req.ID, &req.CreatedOn)
}

func (r *escrowRepository) GetRequest(ctx context.Context, id int64) (*domain.EscrowRequest, error) {
	return r.getRequest(ctx, id, false)
}

func (r *escrowRepository) GetRequestForUpdate(ctx context.Context, id int64) (*domain.EscrowRequest, error) {
	return r.getRequest(ctx, id, true)
}

func (r *escrowRepository) getRequest(ctx context.Context, id int64, forUpdate bool) (*domain.EscrowRequest, error) {
	query := `SELECT id, requester_id, novel_id, deposit_coins, status, open_donation, created_on, decided_on
	          FROM escrow_requests WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var req domain.EscrowRequest
	err := r.q.QueryRowContext(ctx, query, id).Scan(&req.ID, &req.RequesterID, &req.NovelID,
		&req.DepositCoins, &req.Status, &req.OpenDonation, &req.CreatedOn, &req.DecidedOn)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (r *escrowRepository) SetRequestStatus(ctx context.Context, id int64, status domain.EscrowStatus, decidedOn time.Time) error {
	query := `UPDATE escrow_requests SET status = $1, decided_on = $2 WHERE id = $3`
	result, err := r.q.ExecContext(ctx, query, status, decidedOn, id)
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

func (r *escrowRepository) CreateContribution(ctx context.Context, c *domain.Contribution) error {
	query := `INSERT INTO contributions (request_id, contributor_id, amount_coins, status)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id, created_on`
	return r.q.QueryRowContext(ctx, query,
		c.RequestID, c.ContributorID, c.AmountCoins, c.Status,
	).Scan(&c.ID, &c.CreatedOn)
}

func (r *escrowRepository) ListContributions(ctx context.Context, requestID int64, status domain.ContributionStatus) ([]domain.Contribution, error) {
	query := `SELECT id, request_id, contributor_id, amount_coins, status, created_on
	          FROM contributions WHERE request_id = $1 AND ($2 = '' OR status = $2) ORDER BY id`
	rows, err := r.q.QueryContext(ctx, query, requestID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contributions []domain.Contribution
	for rows.Next() {
		var c domain.Contribution
		if err := rows.Scan(&c.ID, &c.RequestID, &c.ContributorID, &c.AmountCoins, &c.Status, &c.CreatedOn); err != nil {
			return nil, err
		}
		contributions = append(contributions, c)
	}
	return contributions, rows.Err()
}

func (r *escrowRepository) SetContributionsStatus(ctx context.Context, requestID int64, from, to domain.ContributionStatus) error {
	query := `UPDATE contributions SET status = $1 WHERE request_id = $2 AND status = $3`
	_, err := r.q.ExecContext(ctx, query, to, requestID, from)
	return err
}
