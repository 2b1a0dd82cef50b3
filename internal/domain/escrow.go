package domain

import "time"

type EscrowStatus string

const (
	EscrowStatusPending   EscrowStatus = "PENDING"
	EscrowStatusApproved  EscrowStatus = "APPROVED"
	EscrowStatusDeclined  EscrowStatus = "DECLINED"
	EscrowStatusWithdrawn EscrowStatus = "WITHDRAWN"
)

// Terminal reports whether the status is final. Terminal requests reject
// any further approve/decline/withdraw with ErrAlreadyProcessed.
func (s EscrowStatus) Terminal() bool {
	return s == EscrowStatusApproved || s == EscrowStatusDeclined || s == EscrowStatusWithdrawn
}

// EscrowRequest holds a requester's deposit against a novel until the
// request reaches a terminal decision. OpenDonation requests keep accepting
// contributions after approval; those late contributions credit the novel's
// budget directly.
type EscrowRequest struct {
	ID           int64        `json:"id"`
	RequesterID  int64        `json:"requester_id"`
	NovelID      int64        `json:"novel_id"`
	DepositCoins int64        `json:"deposit_coins"`
	Status       EscrowStatus `json:"status"`
	OpenDonation bool         `json:"open_donation"`
	CreatedOn    time.Time    `json:"created_on"`
	DecidedOn    *time.Time   `json:"decided_on,omitempty"`
}

type ContributionStatus string

const (
	ContributionStatusPending  ContributionStatus = "PENDING"
	ContributionStatusApproved ContributionStatus = "APPROVED"
	ContributionStatusDeclined ContributionStatus = "DECLINED"
)

// Contribution is a reader's payment attached to an escrow request. It
// mirrors the parent request's outcome: approved contributions move into
// the novel budget, declined ones are refunded.
type Contribution struct {
	ID            int64              `json:"id"`
	RequestID     int64              `json:"request_id"`
	ContributorID int64              `json:"contributor_id"`
	AmountCoins   int64              `json:"amount_coins"`
	Status        ContributionStatus `json:"status"`
	CreatedOn     time.Time          `json:"created_on"`
}
