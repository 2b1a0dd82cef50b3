package service

import (
	"context"
	"time"

	"storycoin-backend/internal/domain"
)

// Clock supplies the current time. Injected so expiry and unlock logic is
// testable; production wiring uses SystemClock.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

type LedgerService interface {
	// Transfer moves amount between two accounts, or injects/extracts value
	// when exactly one side is nil. Appends one ledger entry per mutated
	// side inside the same atomic unit as the balance writes.
	Transfer(ctx context.Context, from, to *domain.AccountRef, amount int64, kind domain.EntryKind, sourceRef string, actorID int64) ([]domain.LedgerEntry, error)
	AdminTopUp(ctx context.Context, adminID, userID int64, amount int64) ([]domain.LedgerEntry, error)
	RevokeAdminTopUp(ctx context.Context, adminID, userID int64, amount int64) ([]domain.LedgerEntry, error)
	GetBalance(ctx context.Context, userID int64) (int64, error)
	GetBudget(ctx context.Context, novelID int64) (*domain.Budget, error)
	ListEntries(ctx context.Context, ref domain.AccountRef, page, pageSize int32) ([]domain.LedgerEntry, int32, error)
	// ReplayBalance sums all ledger deltas for the account. For a healthy
	// ledger it equals the stored balance; auditors compare the two.
	ReplayBalance(ctx context.Context, ref domain.AccountRef) (int64, error)
}

type EscrowService interface {
	Create(ctx context.Context, requesterID, novelID int64, deposit int64, openDonation bool) (*domain.EscrowRequest, error)
	Contribute(ctx context.Context, contributorID, requestID int64, amount int64) (*domain.Contribution, error)
	Approve(ctx context.Context, adminID, requestID int64) (*domain.EscrowRequest, error)
	Decline(ctx context.Context, adminID, requestID int64) (*domain.EscrowRequest, error)
	Withdraw(ctx context.Context, requesterID, requestID int64) (*domain.EscrowRequest, error)
	Get(ctx context.Context, requestID int64) (*domain.EscrowRequest, []domain.Contribution, error)
}

type RentalService interface {
	Rent(ctx context.Context, userID, volumeID int64) (*domain.Rental, error)
	// GetRentalStatus returns the active rental for (user, volume) and
	// whether it currently grants access; (nil, false) when none exists.
	GetRentalStatus(ctx context.Context, userID, volumeID int64) (*domain.Rental, bool, error)
	// Revoke deactivates a rental early. No refund: coins moved at purchase.
	Revoke(ctx context.Context, rentalID int64) error
	RecalculateRentPrice(ctx context.Context, volumeID int64) (int64, error)
	// ExpireDue deactivates all rentals past their end time. Called by the
	// sweeper; idempotent and free of monetary effects.
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}

type ContentService interface {
	AddChapter(ctx context.Context, chapter *domain.Chapter) error
	MoveChapter(ctx context.Context, chapterID, toVolumeID int64) error
	RemoveChapter(ctx context.Context, chapterID int64) error
}
