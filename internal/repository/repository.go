package repository

import (
	"context"
	"time"

	"storycoin-backend/internal/domain"
)

type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	// GetForUpdate locks the account row for the rest of the unit of work so
	// the balance check and the write cannot interleave with another spend.
	GetForUpdate(ctx context.Context, id int64) (*domain.Account, error)
	SetBalance(ctx context.Context, id int64, balance int64) error
}

type BudgetRepository interface {
	Create(ctx context.Context, budget *domain.Budget) error
	GetByNovel(ctx context.Context, novelID int64) (*domain.Budget, error)
	GetForUpdate(ctx context.Context, novelID int64) (*domain.Budget, error)
	// Credit adds amount to both the spendable balance and the cumulative
	// total, returning the updated budget.
	Credit(ctx context.Context, novelID int64, amount int64) (*domain.Budget, error)
	// SetBalance writes the spendable balance only; Total never decreases.
	SetBalance(ctx context.Context, novelID int64, balance int64) error
}

type ContentRepository interface {
	CreateVolume(ctx context.Context, volume *domain.Volume) error
	GetVolume(ctx context.Context, id int64) (*domain.Volume, error)
	GetVolumeForUpdate(ctx context.Context, id int64) (*domain.Volume, error)
	ListVolumesByNovel(ctx context.Context, novelID int64) ([]domain.Volume, error)
	SetVolumeMode(ctx context.Context, id int64, mode domain.VolumeMode) error
	SetVolumeRentPrice(ctx context.Context, id int64, price int64) error

	CreateChapter(ctx context.Context, chapter *domain.Chapter) error
	GetChapter(ctx context.Context, id int64) (*domain.Chapter, error)
	ListChaptersByVolume(ctx context.Context, volumeID int64) ([]domain.Chapter, error)
	ListChaptersByNovel(ctx context.Context, novelID int64) ([]domain.Chapter, error)
	SetChapterVolume(ctx context.Context, id int64, volumeID int64) error
	DeleteChapter(ctx context.Context, id int64) error
	// MarkChapterUnlocked flips the chapter to free and records when the
	// auto-unlock happened.
	MarkChapterUnlocked(ctx context.Context, id int64, at time.Time) error
}

type LedgerRepository interface {
	// Append writes one immutable entry and fills in its id. Entries are
	// never updated or deleted.
	Append(ctx context.Context, entry *domain.LedgerEntry) error
	List(ctx context.Context, ref domain.AccountRef, page, pageSize int32) ([]domain.LedgerEntry, int32, error)
	// SumDeltas replays the account's history; the result must equal the
	// current balance.
	SumDeltas(ctx context.Context, ref domain.AccountRef) (int64, error)
}

type EscrowRepository interface {
	CreateRequest(ctx context.Context, req *domain.EscrowRequest) error
	GetRequest(ctx context.Context, id int64) (*domain.EscrowRequest, error)
	GetRequestForUpdate(ctx context.Context, id int64) (*domain.EscrowRequest, error)
	SetRequestStatus(ctx context.Context, id int64, status domain.EscrowStatus, decidedOn time.Time) error

	CreateContribution(ctx context.Context, c *domain.Contribution) error
	// ListContributions returns the request's contributions with the given
	// status; an empty status matches all of them.
	ListContributions(ctx context.Context, requestID int64, status domain.ContributionStatus) ([]domain.Contribution, error)
	SetContributionsStatus(ctx context.Context, requestID int64, from, to domain.ContributionStatus) error
}

type RentalRepository interface {
	Create(ctx context.Context, rental *domain.Rental) error
	GetByID(ctx context.Context, id int64) (*domain.Rental, error)
	// GetActive returns the active rental for (user, volume), or ErrNotFound.
	GetActive(ctx context.Context, userID, volumeID int64) (*domain.Rental, error)
	Deactivate(ctx context.Context, id int64) error
	// ExpireDue deactivates every active rental whose end time has passed
	// and returns how many were swept. Purely a state flip, no refunds.
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}

// Store bundles all repositories over one backing database. ExecTx runs fn
// inside a single atomic unit of work: every repository call made through
// the Store passed to fn shares that transaction. A Store that is already
// transaction-bound joins the ambient transaction instead of opening a new
// one, so components can compose (the unlock checker runs inside whatever
// unit triggered it).
type Store interface {
	Accounts() AccountRepository
	Budgets() BudgetRepository
	Content() ContentRepository
	Ledger() LedgerRepository
	Escrows() EscrowRepository
	Rentals() RentalRepository

	ExecTx(ctx context.Context, fn func(Store) error) error
}
