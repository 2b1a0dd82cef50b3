package service

import (
	"context"
	"fmt"

	"storycoin-backend/internal/domain"
	"storycoin-backend/internal/repository"
)

type escrowService struct {
	store  repository.Store
	cache  *BalanceCache
	retry  *Retrier
	clock  Clock
	unlock *UnlockChecker
}

func NewEscrowService(store repository.Store, cache *BalanceCache, retry *Retrier, clock Clock, unlock *UnlockChecker) EscrowService {
	return &escrowService{store: store, cache: cache, retry: retry, clock: clock, unlock: unlock}
}

func escrowSourceRef(requestID int64) string {
	return fmt.Sprintf("escrow:%d", requestID)
}

// Create debits the requester's deposit and opens the request in one unit
// of work. The coins sit outside any account until a terminal decision:
// approval credits them to the novel budget, decline or withdrawal refunds
// them.
func (s *escrowService) Create(ctx context.Context, requesterID, novelID int64, deposit int64, openDonation bool) (*domain.EscrowRequest, error) {
	if deposit <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	var req *domain.EscrowRequest
	err := s.retry.Run(ctx, func() error {
		return s.store.ExecTx(ctx, func(tx repository.Store) error {
			req = &domain.EscrowRequest{
				RequesterID:  requesterID,
				NovelID:      novelID,
				DepositCoins: deposit,
				Status:       domain.EscrowStatusPending,
				OpenDonation: openDonation,
			}
			if err := tx.Escrows().CreateRequest(ctx, req); err != nil {
				return err
			}
			from := domain.UserRef(requesterID)
			_, err := applyTransfer(ctx, tx, s.clock.Now(), &from, nil, deposit,
				domain.EntryKindRequestEscrow, escrowSourceRef(req.ID), requesterID)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(requesterID)
	return req, nil
}

// Contribute attaches a reader's coins to a request. While the request is
// pending the contribution waits alongside the deposit; on an approved
// open-donation request it credits the novel budget immediately. Any other
// terminal state rejects with ErrAlreadyProcessed.
func (s *escrowService) Contribute(ctx context.Context, contributorID, requestID int64, amount int64) (*domain.Contribution, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	var contribution *domain.Contribution
	err := s.retry.Run(ctx, func() error {
		return s.store.ExecTx(ctx, func(tx repository.Store) error {
			req, err := tx.Escrows().GetRequestForUpdate(ctx, requestID)
			if err != nil {
				return err
			}

			from := domain.UserRef(contributorID)
			switch {
			case req.Status == domain.EscrowStatusPending:
				if _, err := applyTransfer(ctx, tx, s.clock.Now(), &from, nil, amount,
					domain.EntryKindContribution, escrowSourceRef(requestID), contributorID); err != nil {
					return err
				}
				contribution = &domain.Contribution{
					RequestID:     requestID,
					ContributorID: contributorID,
					AmountCoins:   amount,
					Status:        domain.ContributionStatusPending,
				}
			case req.Status == domain.EscrowStatusApproved && req.OpenDonation:
				to := domain.BudgetRef(req.NovelID)
				if _, err := applyTransfer(ctx, tx, s.clock.Now(), &from, &to, amount,
					domain.EntryKindContribution, escrowSourceRef(requestID), contributorID); err != nil {
					return err
				}
				contribution = &domain.Contribution{
					RequestID:     requestID,
					ContributorID: contributorID,
					AmountCoins:   amount,
					Status:        domain.ContributionStatusApproved,
				}
			default:
				return domain.ErrAlreadyProcessed
			}

			if err := tx.Escrows().CreateContribution(ctx, contribution); err != nil {
				return err
			}
			if contribution.Status == domain.ContributionStatusApproved {
				return s.unlock.CheckNovel(ctx, tx, req.NovelID)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(contributorID)
	return contribution, nil
}

// Approve releases the held funds into the novel budget. The deposit and
// every pending contribution were already debited when they came in, so
// this is a single budget-credit transfer for their sum, not a second
// debit. The unlock checker runs in the same unit of work.
func (s *escrowService) Approve(ctx context.Context, adminID, requestID int64) (*domain.EscrowRequest, error) {
	var req *domain.EscrowRequest
	err := s.retry.Run(ctx, func() error {
		return s.store.ExecTx(ctx, func(tx repository.Store) error {
			var err error
			req, err = tx.Escrows().GetRequestForUpdate(ctx, requestID)
			if err != nil {
				return err
			}
			if req.Status != domain.EscrowStatusPending {
				return domain.ErrAlreadyProcessed
			}

			pending, err := tx.Escrows().ListContributions(ctx, requestID, domain.ContributionStatusPending)
			if err != nil {
				return err
			}
			total := req.DepositCoins
			for _, c := range pending {
				total += c.AmountCoins
			}
			if err := tx.Escrows().SetContributionsStatus(ctx, requestID,
				domain.ContributionStatusPending, domain.ContributionStatusApproved); err != nil {
				return err
			}

			to := domain.BudgetRef(req.NovelID)
			if _, err := applyTransfer(ctx, tx, s.clock.Now(), nil, &to, total,
				domain.EntryKindRequestEscrow, escrowSourceRef(requestID), adminID); err != nil {
				return err
			}

			now := s.clock.Now()
			if err := tx.Escrows().SetRequestStatus(ctx, requestID, domain.EscrowStatusApproved, now); err != nil {
				return err
			}
			req.Status = domain.EscrowStatusApproved
			req.DecidedOn = &now

			return s.unlock.CheckNovel(ctx, tx, req.NovelID)
		})
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (s *escrowService) Decline(ctx context.Context, adminID, requestID int64) (*domain.EscrowRequest, error) {
	return s.refund(ctx, adminID, requestID, domain.EscrowStatusDeclined)
}

// Withdraw lets the requester pull a still-pending request back. Same
// refund path as an admin decline, different terminal status.
func (s *escrowService) Withdraw(ctx context.Context, requesterID, requestID int64) (*domain.EscrowRequest, error) {
	return s.refund(ctx, requesterID, requestID, domain.EscrowStatusWithdrawn)
}

// refund resolves a pending request without funding the novel: the deposit
// goes back to the requester and every pending contribution back to its
// contributor, one refund entry each.
func (s *escrowService) refund(ctx context.Context, actorID, requestID int64, status domain.EscrowStatus) (*domain.EscrowRequest, error) {
	var req *domain.EscrowRequest
	var refunded []int64
	err := s.retry.Run(ctx, func() error {
		refunded = nil
		return s.store.ExecTx(ctx, func(tx repository.Store) error {
			var err error
			req, err = tx.Escrows().GetRequestForUpdate(ctx, requestID)
			if err != nil {
				return err
			}
			if req.Status != domain.EscrowStatusPending {
				return domain.ErrAlreadyProcessed
			}
			if status == domain.EscrowStatusWithdrawn && req.RequesterID != actorID {
				return domain.ErrNotFound
			}

			now := s.clock.Now()
			sourceRef := escrowSourceRef(requestID)

			to := domain.UserRef(req.RequesterID)
			if _, err := applyTransfer(ctx, tx, now, nil, &to, req.DepositCoins,
				domain.EntryKindRefund, sourceRef, actorID); err != nil {
				return err
			}
			refunded = append(refunded, req.RequesterID)

			pending, err := tx.Escrows().ListContributions(ctx, requestID, domain.ContributionStatusPending)
			if err != nil {
				return err
			}
			for _, c := range pending {
				to := domain.UserRef(c.ContributorID)
				if _, err := applyTransfer(ctx, tx, now, nil, &to, c.AmountCoins,
					domain.EntryKindRefund, sourceRef, actorID); err != nil {
					return err
				}
				refunded = append(refunded, c.ContributorID)
			}
			if err := tx.Escrows().SetContributionsStatus(ctx, requestID,
				domain.ContributionStatusPending, domain.ContributionStatusDeclined); err != nil {
				return err
			}

			if err := tx.Escrows().SetRequestStatus(ctx, requestID, status, now); err != nil {
				return err
			}
			req.Status = status
			req.DecidedOn = &now
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(refunded...)
	return req, nil
}

func (s *escrowService) Get(ctx context.Context, requestID int64) (*domain.EscrowRequest, []domain.Contribution, error) {
	req, err := s.store.Escrows().GetRequest(ctx, requestID)
	if err != nil {
		return nil, nil, err
	}
	contributions, err := s.store.Escrows().ListContributions(ctx, requestID, "")
	if err != nil {
		return nil, nil, err
	}
	return req, contributions, nil
}
