package domain

import "time"

type AccountKind string

const (
	AccountKindUser   AccountKind = "USER"
	AccountKindBudget AccountKind = "BUDGET"
)

type EntryKind string

const (
	EntryKindTopUp         EntryKind = "TOPUP"
	EntryKindAdminTopUp    EntryKind = "ADMIN_TOPUP"
	EntryKindRequestEscrow EntryKind = "REQUEST_ESCROW"
	EntryKindRefund        EntryKind = "REFUND"
	EntryKindContribution  EntryKind = "CONTRIBUTION"
	EntryKindRental        EntryKind = "RENTAL"
	EntryKindRevoke        EntryKind = "REVOKE"
	EntryKindOther         EntryKind = "OTHER"
)

// AccountRef identifies one side of a transfer: either a user account or a
// novel's funding budget.
type AccountRef struct {
	Kind AccountKind `json:"kind"`
	ID   int64       `json:"id"`
}

func UserRef(id int64) AccountRef   { return AccountRef{Kind: AccountKindUser, ID: id} }
func BudgetRef(id int64) AccountRef { return AccountRef{Kind: AccountKindBudget, ID: id} }

// LedgerEntry is an immutable record of one balance mutation. Entries are
// append-only: replaying all deltas for an account in order reproduces its
// current balance, and BalanceAfter on each entry equals the balance the
// account held immediately after the write.
type LedgerEntry struct {
	ID           int64       `json:"id"`
	AccountKind  AccountKind `json:"account_kind"`
	AccountID    int64       `json:"account_id"`
	Delta        int64       `json:"delta"` // positive for credit, negative for debit
	BalanceAfter int64       `json:"balance_after"`
	Kind         EntryKind   `json:"kind"`
	TxRef        string      `json:"tx_ref"` // shared by both entries of one transfer
	SourceRef    string      `json:"source_ref,omitempty"`
	ActorID      int64       `json:"actor_id,omitempty"`
	CreatedOn    time.Time   `json:"created_on"`
}
