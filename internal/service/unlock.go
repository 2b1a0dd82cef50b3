package service

import (
	"context"
	"errors"
	"sort"

	"storycoin-backend/internal/domain"
	"storycoin-backend/internal/repository"
)

// UnlockPolicy decides which paid chapters a novel's cumulative funding
// covers. It receives the budget's lifetime total and every chapter of the
// novel and returns the ids to unlock, in order. The default is
// SequentialUnlockPolicy; ranking-driven policies can be swapped in without
// touching the checker.
type UnlockPolicy func(budgetTotal int64, chapters []domain.Chapter) []int64

// SequentialUnlockPolicy unlocks paid chapters in reading order. Chapters
// already auto-unlocked count against the total first, so the policy never
// double-spends funding that paid for an earlier unlock.
func SequentialUnlockPolicy(budgetTotal int64, chapters []domain.Chapter) []int64 {
	sorted := make([]domain.Chapter, len(chapters))
	copy(sorted, chapters)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Seq < sorted[j].Seq })

	var allocated int64
	for _, ch := range sorted {
		if ch.UnlockedOn != nil {
			allocated += ch.PriceCoins
		}
	}

	var ids []int64
	for _, ch := range sorted {
		if ch.Mode != domain.ChapterModePaid || ch.UnlockedOn != nil {
			continue
		}
		if budgetTotal < allocated+ch.PriceCoins {
			break
		}
		allocated += ch.PriceCoins
		ids = append(ids, ch.ID)
	}
	return ids
}

// UnlockChecker flips paid chapters to free once a novel's funding covers
// them, and retires rentable volumes to published once too little paid
// content remains for renting to be worthwhile. It always runs inside the
// caller's unit of work, as a postcondition of whatever mutation grew the
// budget or changed a volume's paid set.
type UnlockChecker struct {
	policy       UnlockPolicy
	publishFloor int64
	clock        Clock
}

func NewUnlockChecker(policy UnlockPolicy, publishFloor int64, clock Clock) *UnlockChecker {
	if policy == nil {
		policy = SequentialUnlockPolicy
	}
	return &UnlockChecker{policy: policy, publishFloor: publishFloor, clock: clock}
}

// CheckNovel is idempotent: a second run with no intervening mutation
// unlocks nothing and flips no volume.
func (c *UnlockChecker) CheckNovel(ctx context.Context, tx repository.Store, novelID int64) error {
	budget, err := tx.Budgets().GetByNovel(ctx, novelID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}

	chapters, err := tx.Content().ListChaptersByNovel(ctx, novelID)
	if err != nil {
		return err
	}

	unlocked := make(map[int64]bool)
	now := c.clock.Now()
	for _, id := range c.policy(budget.Total, chapters) {
		if err := tx.Content().MarkChapterUnlocked(ctx, id, now); err != nil {
			return err
		}
		unlocked[id] = true
	}

	return c.checkVolumes(ctx, tx, novelID, chapters, unlocked)
}

// checkVolumes publishes any rentable volume whose remaining paid value
// dropped to the floor or below the volume's own rent price. The rent
// price itself is left untouched.
func (c *UnlockChecker) checkVolumes(ctx context.Context, tx repository.Store, novelID int64, chapters []domain.Chapter, unlocked map[int64]bool) error {
	volumes, err := tx.Content().ListVolumesByNovel(ctx, novelID)
	if err != nil {
		return err
	}

	remaining := make(map[int64]int64)
	for _, ch := range chapters {
		if ch.Mode == domain.ChapterModePaid && !unlocked[ch.ID] {
			remaining[ch.VolumeID] += ch.PriceCoins
		}
	}

	for _, v := range volumes {
		if v.Mode != domain.VolumeModeRentable {
			continue
		}
		paid := remaining[v.ID]
		if paid <= c.publishFloor || paid <= v.RentPriceCoins {
			if err := tx.Content().SetVolumeMode(ctx, v.ID, domain.VolumeModePublished); err != nil {
				return err
			}
		}
	}
	return nil
}
