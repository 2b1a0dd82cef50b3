package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"storycoin-backend/internal/domain"
)

type rentalRepository struct {
	q DBTX
}

func (r *rentalRepository) Create(ctx context.Context, rental *domain.Rental) error {
	query := `INSERT INTO rentals (user_id, volume_id, novel_id, amount_coins, start_time, end_time, active)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id, created_on`
	err := r.q.QueryRowContext(ctx, query,
		rental.UserID, rental.VolumeID, rental.NovelID, rental.AmountCoins,
		rental.StartTime, rental.EndTime, rental.Active,
	).Scan(&rental.ID, &rental.CreatedOn)
	if err != nil {
		// The partial unique index on (user_id, volume_id) WHERE active
		// catches the race two concurrent purchases can win together.
		if isUniqueViolation(err) {
			return domain.ErrAlreadyRented
		}
		return err
	}
	return nil
}

func (r *rentalRepository) GetByID(ctx context.Context, id int64) (*domain.Rental, error) {
	query := `SELECT id, user_id, volume_id, novel_id, amount_coins, start_time, end_time, active, created_on
	          FROM rentals WHERE id = $1`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id))
}

func (r *rentalRepository) GetActive(ctx context.Context, userID, volumeID int64) (*domain.Rental, error) {
	query := `SELECT id, user_id, volume_id, novel_id, amount_coins, start_time, end_time, active, created_on
	          FROM rentals WHERE user_id = $1 AND volume_id = $2 AND active`
	return r.scanOne(r.q.QueryRowContext(ctx, query, userID, volumeID))
}

func (r *rentalRepository) scanOne(row *sql.Row) (*domain.Rental, error) {
	var rt domain.Rental
	err := row.Scan(&rt.ID, &rt.UserID, &rt.VolumeID, &rt.NovelID, &rt.AmountCoins,
		&rt.StartTime, &rt.EndTime, &rt.Active, &rt.CreatedOn)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &rt, nil
}

func (r *rentalRepository) Deactivate(ctx context.Context, id int64) error {
	result, err := r.q.ExecContext(ctx, `UPDATE rentals SET active = FALSE WHERE id = $1`, id)
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

func (r *rentalRepository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.q.ExecContext(ctx,
		`UPDATE rentals SET active = FALSE WHERE active AND end_time <= $1`, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
