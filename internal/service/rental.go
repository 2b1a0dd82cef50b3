package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storycoin-backend/internal/domain"
	"storycoin-backend/internal/repository"
)

type rentalService struct {
	store    repository.Store
	cache    *BalanceCache
	retry    *Retrier
	clock    Clock
	unlock   *UnlockChecker
	termDays int
}

func NewRentalService(store repository.Store, cache *BalanceCache, retry *Retrier, clock Clock, unlock *UnlockChecker, termDays int) RentalService {
	return &rentalService{store: store, cache: cache, retry: retry, clock: clock, unlock: unlock, termDays: termDays}
}

func volumeSourceRef(volumeID int64) string {
	return fmt.Sprintf("volume:%d", volumeID)
}

// Rent sells time-boxed access to a rentable volume at its current rent
// price. The volume row is locked first so the mode and price checks hold
// for the whole purchase; the partial unique index on rentals backstops
// the active-rental check against concurrent buyers.
func (s *rentalService) Rent(ctx context.Context, userID, volumeID int64) (*domain.Rental, error) {
	var rental *domain.Rental
	err := s.retry.Run(ctx, func() error {
		return s.store.ExecTx(ctx, func(tx repository.Store) error {
			volume, err := tx.Content().GetVolumeForUpdate(ctx, volumeID)
			if err != nil {
				return err
			}
			if volume.Mode != domain.VolumeModeRentable || volume.RentPriceCoins <= 0 {
				return domain.ErrNotRentable
			}

			if _, err := tx.Rentals().GetActive(ctx, userID, volumeID); err == nil {
				return domain.ErrAlreadyRented
			} else if !errors.Is(err, domain.ErrNotFound) {
				return err
			}

			from := domain.UserRef(userID)
			to := domain.BudgetRef(volume.NovelID)
			now := s.clock.Now()
			if _, err := applyTransfer(ctx, tx, now, &from, &to, volume.RentPriceCoins,
				domain.EntryKindRental, volumeSourceRef(volumeID), userID); err != nil {
				return err
			}

			rental = &domain.Rental{
				UserID:      userID,
				VolumeID:    volumeID,
				NovelID:     volume.NovelID,
				AmountCoins: volume.RentPriceCoins,
				StartTime:   now,
				EndTime:     now.Add(time.Duration(s.termDays) * 24 * time.Hour),
				Active:      true,
			}
			if err := tx.Rentals().Create(ctx, rental); err != nil {
				return err
			}

			return s.unlock.CheckNovel(ctx, tx, volume.NovelID)
		})
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(userID)
	return rental, nil
}

func (s *rentalService) GetRentalStatus(ctx context.Context, userID, volumeID int64) (*domain.Rental, bool, error) {
	rental, err := s.store.Rentals().GetActive(ctx, userID, volumeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return rental, rental.Valid(s.clock.Now()), nil
}

func (s *rentalService) Revoke(ctx context.Context, rentalID int64) error {
	return s.store.ExecTx(ctx, func(tx repository.Store) error {
		rental, err := tx.Rentals().GetByID(ctx, rentalID)
		if err != nil {
			return err
		}
		if !rental.Active {
			return domain.ErrAlreadyProcessed
		}
		return tx.Rentals().Deactivate(ctx, rentalID)
	})
}

func (s *rentalService) RecalculateRentPrice(ctx context.Context, volumeID int64) (int64, error) {
	var price int64
	err := s.store.ExecTx(ctx, func(tx repository.Store) error {
		var err error
		price, err = recalculateRentPrice(ctx, tx, volumeID)
		return err
	})
	return price, err
}

func (s *rentalService) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	return s.store.Rentals().ExpireDue(ctx, now)
}

// recalculateRentPrice derives a volume's rent price from its paid
// chapters and persists it. Chapters the unlock checker flipped to free no
// longer count, but the price is only recomputed from here, never from the
// unlock path itself.
func recalculateRentPrice(ctx context.Context, tx repository.Store, volumeID int64) (int64, error) {
	chapters, err := tx.Content().ListChaptersByVolume(ctx, volumeID)
	if err != nil {
		return 0, err
	}
	price := computeRentPrice(chapters)
	if err := tx.Content().SetVolumeRentPrice(ctx, volumeID, price); err != nil {
		return 0, err
	}
	return price, nil
}

// computeRentPrice is one tenth of the volume's paid chapter value,
// rounded down.
func computeRentPrice(chapters []domain.Chapter) int64 {
	var total int64
	for _, ch := range chapters {
		if ch.Mode == domain.ChapterModePaid {
			total += ch.PriceCoins
		}
	}
	price := total / 10
	if price < 0 {
		price = 0
	}
	return price
}
