package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"storycoin-backend/internal/domain"
	"storycoin-backend/internal/repository"
)

type ledgerService struct {
	store repository.Store
	cache *BalanceCache
	retry *Retrier
	clock Clock
}

func NewLedgerService(store repository.Store, cache *BalanceCache, retry *Retrier, clock Clock) LedgerService {
	return &ledgerService{store: store, cache: cache, retry: retry, clock: clock}
}

func (s *ledgerService) Transfer(ctx context.Context, from, to *domain.AccountRef, amount int64, kind domain.EntryKind, sourceRef string, actorID int64) ([]domain.LedgerEntry, error) {
	if err := validateTransfer(from, to, amount); err != nil {
		return nil, err
	}

	var entries []domain.LedgerEntry
	err := s.retry.Run(ctx, func() error {
		entries = nil
		return s.store.ExecTx(ctx, func(tx repository.Store) error {
			var err error
			entries, err = applyTransfer(ctx, tx, s.clock.Now(), from, to, amount, kind, sourceRef, actorID)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	invalidateUsers(s.cache, from, to)
	return entries, nil
}

func (s *ledgerService) AdminTopUp(ctx context.Context, adminID, userID int64, amount int64) ([]domain.LedgerEntry, error) {
	to := domain.UserRef(userID)
	return s.Transfer(ctx, nil, &to, amount, domain.EntryKindAdminTopUp, "", adminID)
}

func (s *ledgerService) RevokeAdminTopUp(ctx context.Context, adminID, userID int64, amount int64) ([]domain.LedgerEntry, error) {
	from := domain.UserRef(userID)
	return s.Transfer(ctx, &from, nil, amount, domain.EntryKindRevoke, "", adminID)
}

func (s *ledgerService) GetBalance(ctx context.Context, userID int64) (int64, error) {
	if balance, ok := s.cache.Get(userID); ok {
		return balance, nil
	}
	account, err := s.store.Accounts().GetByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.cache.Set(userID, account.Balance)
	return account.Balance, nil
}

func (s *ledgerService) GetBudget(ctx context.Context, novelID int64) (*domain.Budget, error) {
	return s.store.Budgets().GetByNovel(ctx, novelID)
}

func (s *ledgerService) ListEntries(ctx context.Context, ref domain.AccountRef, page, pageSize int32) ([]domain.LedgerEntry, int32, error) {
	return s.store.Ledger().List(ctx, ref, page, pageSize)
}

func (s *ledgerService) ReplayBalance(ctx context.Context, ref domain.AccountRef) (int64, error) {
	return s.store.Ledger().SumDeltas(ctx, ref)
}

func validateTransfer(from, to *domain.AccountRef, amount int64) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}
	if from == nil && to == nil {
		return domain.ErrInvalidAmount
	}
	return nil
}

// applyTransfer is the account mutator: it debits, credits and appends
// ledger entries inside the caller's unit of work. Both entries of a
// two-sided transfer share one TxRef. BalanceAfter on each entry is the
// balance written in the same transaction, which is what the replay audit
// checks against.
func applyTransfer(ctx context.Context, tx repository.Store, now time.Time, from, to *domain.AccountRef, amount int64, kind domain.EntryKind, sourceRef string, actorID int64) ([]domain.LedgerEntry, error) {
	txRef := uuid.NewString()
	var entries []domain.LedgerEntry

	if from != nil {
		balance, err := debit(ctx, tx, *from, amount)
		if err != nil {
			return nil, err
		}
		entry := domain.LedgerEntry{
			AccountKind:  from.Kind,
			AccountID:    from.ID,
			Delta:        -amount,
			BalanceAfter: balance,
			Kind:         kind,
			TxRef:        txRef,
			SourceRef:    sourceRef,
			ActorID:      actorID,
			CreatedOn:    now,
		}
		if err := tx.Ledger().Append(ctx, &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if to != nil {
		balance, err := credit(ctx, tx, *to, amount)
		if err != nil {
			return nil, err
		}
		entry := domain.LedgerEntry{
			AccountKind:  to.Kind,
			AccountID:    to.ID,
			Delta:        amount,
			BalanceAfter: balance,
			Kind:         kind,
			TxRef:        txRef,
			SourceRef:    sourceRef,
			ActorID:      actorID,
			CreatedOn:    now,
		}
		if err := tx.Ledger().Append(ctx, &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// debit locks the account row, checks the balance and writes the new one
// in the same unit of work, so two concurrent spends cannot both pass the
// check.
func debit(ctx context.Context, tx repository.Store, ref domain.AccountRef, amount int64) (int64, error) {
	switch ref.Kind {
	case domain.AccountKindUser:
		account, err := tx.Accounts().GetForUpdate(ctx, ref.ID)
		if err != nil {
			return 0, err
		}
		if account.Balance < amount {
			return 0, domain.ErrInsufficientBalance
		}
		balance := account.Balance - amount
		if err := tx.Accounts().SetBalance(ctx, ref.ID, balance); err != nil {
			return 0, err
		}
		return balance, nil
	case domain.AccountKindBudget:
		budget, err := tx.Budgets().GetForUpdate(ctx, ref.ID)
		if err != nil {
			return 0, err
		}
		if budget.Balance < amount {
			return 0, domain.ErrInsufficientBalance
		}
		balance := budget.Balance - amount
		if err := tx.Budgets().SetBalance(ctx, ref.ID, balance); err != nil {
			return 0, err
		}
		return balance, nil
	}
	return 0, fmt.Errorf("unknown account kind %q", ref.Kind)
}

func credit(ctx context.Context, tx repository.Store, ref domain.AccountRef, amount int64) (int64, error) {
	switch ref.Kind {
	case domain.AccountKindUser:
		account, err := tx.Accounts().GetForUpdate(ctx, ref.ID)
		if err != nil {
			return 0, err
		}
		balance := account.Balance + amount
		if err := tx.Accounts().SetBalance(ctx, ref.ID, balance); err != nil {
			return 0, err
		}
		return balance, nil
	case domain.AccountKindBudget:
		budget, err := tx.Budgets().Credit(ctx, ref.ID, amount)
		if err != nil {
			return 0, err
		}
		return budget.Balance, nil
	}
	return 0, fmt.Errorf("unknown account kind %q", ref.Kind)
}

func invalidateUsers(cache *BalanceCache, refs ...*domain.AccountRef) {
	for _, ref := range refs {
		if ref != nil && ref.Kind == domain.AccountKindUser {
			cache.Invalidate(ref.ID)
		}
	}
}
