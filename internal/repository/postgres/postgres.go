package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"storycoin-backend/internal/domain"
	"storycoin-backend/internal/repository"
)

// DBTX is the subset of database/sql shared by *sql.DB and *sql.Tx. All
// repositories run their queries through it so the same code serves both
// autocommit calls and transaction-bound units of work.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB // nil when bound to a transaction
	q  DBTX

	accounts *accountRepository
	budgets  *budgetRepository
	content  *contentRepository
	ledger   *ledgerRepository
	escrows  *escrowRepository
	rentals  *rentalRepository
}

func NewStore(db *sql.DB) *Store {
	return newStore(db, db)
}

func newStore(db *sql.DB, q DBTX) *Store {
	return &Store{
		db:       db,
		q:        q,
		accounts: &accountRepository{q: q},
		budgets:  &budgetRepository{q: q},
		content:  &contentRepository{q: q},
		ledger:   &ledgerRepository{q: q},
		escrows:  &escrowRepository{q: q},
		rentals:  &rentalRepository{q: q},
	}
}

func (s *Store) Accounts() repository.AccountRepository { return s.accounts }
func (s *Store) Budgets() repository.BudgetRepository   { return s.budgets }
func (s *Store) Content() repository.ContentRepository  { return s.content }
func (s *Store) Ledger() repository.LedgerRepository    { return s.ledger }
func (s *Store) Escrows() repository.EscrowRepository   { return s.escrows }
func (s *Store) Rentals() repository.RentalRepository   { return s.rentals }

// ExecTx runs fn inside one database transaction. A transaction-bound Store
// joins the ambient transaction, which lets services compose units of work
// without nesting. Conflict errors surface as domain.ErrTransientConflict
// so the retry wrapper can tell them apart from terminal failures.
func (s *Store) ExecTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.db == nil {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err)
	}

	if err := fn(newStore(nil, tx)); err != nil {
		_ = tx.Rollback()
		return classify(err)
	}
	if err := tx.Commit(); err != nil {
		return classify(err)
	}
	return nil
}

// Postgres SQLSTATE codes that signal a conflict worth retrying.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
)

// classify wraps retryable driver errors in domain.ErrTransientConflict.
// Domain errors and terminal driver errors pass through unchanged.
func classify(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
			return fmt.Errorf("%w: %v", domain.ErrTransientConflict, err)
		}
	}
	return err
}

// isUniqueViolation reports whether err is a unique-constraint violation,
// used to map the one-active-rental index onto ErrAlreadyRented.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == "23505"
}
