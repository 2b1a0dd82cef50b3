package service

import (
	"context"

	"storycoin-backend/internal/domain"
	"storycoin-backend/internal/repository"
)

// contentService owns the chapter mutations that change a volume's paid
// aggregate. Each one recomputes the rent price of every affected volume
// in the same unit of work, which is the only path that moves rent prices.
type contentService struct {
	store repository.Store
	retry *Retrier
}

func NewContentService(store repository.Store, retry *Retrier) ContentService {
	return &contentService{store: store, retry: retry}
}

func (s *contentService) AddChapter(ctx context.Context, chapter *domain.Chapter) error {
	if chapter.Mode == domain.ChapterModePaid && chapter.PriceCoins <= 0 {
		return domain.ErrInvalidAmount
	}
	return s.retry.Run(ctx, func() error {
		return s.store.ExecTx(ctx, func(tx repository.Store) error {
			if err := tx.Content().CreateChapter(ctx, chapter); err != nil {
				return err
			}
			_, err := recalculateRentPrice(ctx, tx, chapter.VolumeID)
			return err
		})
	})
}

func (s *contentService) MoveChapter(ctx context.Context, chapterID, toVolumeID int64) error {
	return s.retry.Run(ctx, func() error {
		return s.store.ExecTx(ctx, func(tx repository.Store) error {
			chapter, err := tx.Content().GetChapter(ctx, chapterID)
			if err != nil {
				return err
			}
			if chapter.VolumeID == toVolumeID {
				return nil
			}
			if err := tx.Content().SetChapterVolume(ctx, chapterID, toVolumeID); err != nil {
				return err
			}
			if _, err := recalculateRentPrice(ctx, tx, chapter.VolumeID); err != nil {
				return err
			}
			_, err = recalculateRentPrice(ctx, tx, toVolumeID)
			return err
		})
	})
}

func (s *contentService) RemoveChapter(ctx context.Context, chapterID int64) error {
	return s.retry.Run(ctx, func() error {
		return s.store.ExecTx(ctx, func(tx repository.Store) error {
			chapter, err := tx.Content().GetChapter(ctx, chapterID)
			if err != nil {
				return err
			}
			if err := tx.Content().DeleteChapter(ctx, chapterID); err != nil {
				return err
			}
			_, err = recalculateRentPrice(ctx, tx, chapter.VolumeID)
			return err
		})
	})
}
