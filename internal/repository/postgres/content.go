package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"storycoin-backend/internal/domain"
)

type contentRepository struct {
	q DBTX
}

func (r *contentRepository) CreateVolume(ctx context.Context, volume *domain.Volume) error {
	query := `INSERT INTO volumes (novel_id, mode, rent_price_coins) VALUES ($1, $2, $3)
	          RETURNING id, created_on, updated_on`
	return r.q.QueryRowContext(ctx, query, volume.NovelID, volume.Mode, volume.RentPriceCoins).
		Scan(&volume.ID, &volume.CreatedOn, &volume.UpdatedOn)
}

func (r *contentRepository) GetVolume(ctx context.Context, id int64) (*domain.Volume, error) {
	return r.getVolume(ctx, id, false)
}

func (r *contentRepository) GetVolumeForUpdate(ctx context.Context, id int64) (*domain.Volume, error) {
	return r.getVolume(ctx, id, true)
}

func (r *contentRepository) getVolume(ctx context.Context, id int64, forUpdate bool) (*domain.Volume, error) {
	query := `SELECT id, novel_id, mode, rent_price_coins, created_on, updated_on FROM volumes WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var v domain.Volume
	err := r.q.QueryRowContext(ctx, query, id).
		Scan(&v.ID, &v.NovelID, &v.Mode, &v.RentPriceCoins, &v.CreatedOn, &v.UpdatedOn)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

func (r *contentRepository) ListVolumesByNovel(ctx context.Context, novelID int64) ([]domain.Volume, error) {
	query := `SELECT id, novel_id, mode, rent_price_coins, created_on, updated_on
	          FROM volumes WHERE novel_id = $1 ORDER BY id`
	rows, err := r.q.QueryContext(ctx, query, novelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var volumes []domain.Volume
	for rows.Next() {
		var v domain.Volume
		if err := rows.Scan(&v.ID, &v.NovelID, &v.Mode, &v.RentPriceCoins, &v.CreatedOn, &v.UpdatedOn); err != nil {
			return nil, err
		}
		volumes = append(volumes, v)
	}
	return volumes, rows.Err()
}

func (r *contentRepository) SetVolumeMode(ctx context.Context, id int64, mode domain.VolumeMode) error {
	return r.execOne(ctx, `UPDATE volumes SET mode = $1, updated_on = NOW() WHERE id = $2`, mode, id)
}

func (r *contentRepository) SetVolumeRentPrice(ctx context.Context, id int64, price int64) error {
	return r.execOne(ctx, `UPDATE volumes SET rent_price_coins = $1, updated_on = NOW() WHERE id = $2`, price, id)
}

func (r *contentRepository) CreateChapter(ctx context.Context, chapter *domain.Chapter) error {
	query := `INSERT INTO chapters (novel_id, volume_id, seq, mode, price_coins)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id, created_on, updated_on`
	return r.q.QueryRowContext(ctx, query,
		chapter.NovelID, chapter.VolumeID, chapter.Seq, chapter.Mode, chapter.PriceCoins,
	).Scan(&chapter.ID, &chapter.CreatedOn, &chapter.UpdatedOn)
}

func (r *contentRepository) GetChapter(ctx context.Context, id int64) (*domain.Chapter, error) {
	query := `SELECT id, novel_id, volume_id, seq, mode, price_coins, unlocked_on, created_on, updated_on
	          FROM chapters WHERE id = $1`
	var c domain.Chapter
	err := r.q.QueryRowContext(ctx, query, id).
		Scan(&c.ID, &c.NovelID, &c.VolumeID, &c.Seq, &c.Mode, &c.PriceCoins, &c.UnlockedOn, &c.CreatedOn, &c.UpdatedOn)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *contentRepository) ListChaptersByVolume(ctx context.Context, volumeID int64) ([]domain.Chapter, error) {
	return r.listChapters(ctx, `volume_id = $1`, volumeID)
}

func (r *contentRepository) ListChaptersByNovel(ctx context.Context, novelID int64) ([]domain.Chapter, error) {
	return r.listChapters(ctx, `novel_id = $1`, novelID)
}

func (r *contentRepository) listChapters(ctx context.Context, where string, arg any) ([]domain.Chapter, error) {
	query := `SELECT id, novel_id, volume_id, seq, mode, price_coins, unlocked_on, created_on, updated_on
	          FROM chapters WHERE ` + where + ` ORDER BY seq, id`
	rows, err := r.q.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chapters []domain.Chapter
	for rows.Next() {
		var c domain.Chapter
		if err := rows.Scan(&c.ID, &c.NovelID, &c.VolumeID, &c.Seq, &c.Mode, &c.PriceCoins,
			&c.UnlockedOn, &c.CreatedOn, &c.UpdatedOn); err != nil {
			return nil, err
		}
		chapters = append(chapters, c)
	}
	return chapters, rows.Err()
}

func (r *contentRepository) SetChapterVolume(ctx context.Context, id int64, volumeID int64) error {
	return r.execOne(ctx, `UPDATE chapters SET volume_id = $1, updated_on = NOW() WHERE id = $2`, volumeID, id)
}

func (r *contentRepository) DeleteChapter(ctx context.Context, id int64) error {
	return r.execOne(ctx, `DELETE FROM chapters WHERE id = $1`, id)
}

func (r *contentRepository) MarkChapterUnlocked(ctx context.Context, id int64, at time.Time) error {
	query := `UPDATE chapters SET mode = $1, unlocked_on = $2, updated_on = NOW() WHERE id = $3`
	return r.execOne(ctx, query, domain.ChapterModeFree, at, id)
}

func (r *contentRepository) execOne(ctx context.Context, query string, args ...any) error {
	result, err := r.q.ExecContext(ctx, query, args...)
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
