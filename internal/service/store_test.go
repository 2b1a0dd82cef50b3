package service

import (
	"context"
	"sync"
	"time"

	"storycoin-backend/internal/domain"
	"storycoin-backend/internal/repository"
)

// fakeStore is an in-memory repository.Store for service tests. ExecTx
// serializes units of work with a mutex and restores a snapshot of the
// data on error, mirroring the rollback semantics of the real store. A
// transaction-bound fakeStore joins the ambient unit like the real one.
type fakeStore struct {
	mu   sync.Mutex
	data *fakeData
	inTx bool
}

type fakeData struct {
	accounts      map[int64]*domain.Account
	budgets       map[int64]*domain.Budget
	volumes       map[int64]*domain.Volume
	chapters      map[int64]*domain.Chapter
	entries       []domain.LedgerEntry
	requests      map[int64]*domain.EscrowRequest
	contributions map[int64]*domain.Contribution
	rentals       map[int64]*domain.Rental
	nextID        int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: &fakeData{
		accounts:      make(map[int64]*domain.Account),
		budgets:       make(map[int64]*domain.Budget),
		volumes:       make(map[int64]*domain.Volume),
		chapters:      make(map[int64]*domain.Chapter),
		requests:      make(map[int64]*domain.EscrowRequest),
		contributions: make(map[int64]*domain.Contribution),
		rentals:       make(map[int64]*domain.Rental),
	}}
}

func (d *fakeData) nextSerial() int64 {
	d.nextID++
	return d.nextID
}

func (d *fakeData) snapshot() *fakeData {
	s := &fakeData{
		accounts:      make(map[int64]*domain.Account, len(d.accounts)),
		budgets:       make(map[int64]*domain.Budget, len(d.budgets)),
		volumes:       make(map[int64]*domain.Volume, len(d.volumes)),
		chapters:      make(map[int64]*domain.Chapter, len(d.chapters)),
		entries:       append([]domain.LedgerEntry(nil), d.entries...),
		requests:      make(map[int64]*domain.EscrowRequest, len(d.requests)),
		contributions: make(map[int64]*domain.Contribution, len(d.contributions)),
		rentals:       make(map[int64]*domain.Rental, len(d.rentals)),
		nextID:        d.nextID,
	}
	for id, v := range d.accounts {
		c := *v
		s.accounts[id] = &c
	}
	for id, v := range d.budgets {
		c := *v
		s.budgets[id] = &c
	}
	for id, v := range d.volumes {
		c := *v
		s.volumes[id] = &c
	}
	for id, v := range d.chapters {
		c := *v
		s.chapters[id] = &c
	}
	for id, v := range d.requests {
		c := *v
		s.requests[id] = &c
	}
	for id, v := range d.contributions {
		c := *v
		s.contributions[id] = &c
	}
	for id, v := range d.rentals {
		c := *v
		s.rentals[id] = &c
	}
	return s
}

func (s *fakeStore) Accounts() repository.AccountRepository { return &fakeAccounts{s} }
func (s *fakeStore) Budgets() repository.BudgetRepository   { return &fakeBudgets{s} }
func (s *fakeStore) Content() repository.ContentRepository  { return &fakeContent{s} }
func (s *fakeStore) Ledger() repository.LedgerRepository    { return &fakeLedger{s} }
func (s *fakeStore) Escrows() repository.EscrowRepository   { return &fakeEscrows{s} }
func (s *fakeStore) Rentals() repository.RentalRepository   { return &fakeRentals{s} }

func (s *fakeStore) ExecTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	before := s.data.snapshot()
	tx := &fakeStore{data: s.data, inTx: true}
	if err := fn(tx); err != nil {
		s.data = before
		return err
	}
	return nil
}

// seed helpers

func (s *fakeStore) seedAccount(id, balance int64) {
	s.data.accounts[id] = &domain.Account{ID: id, Balance: balance}
}

func (s *fakeStore) seedBudget(novelID, balance, total int64) {
	s.data.budgets[novelID] = &domain.Budget{NovelID: novelID, Balance: balance, Total: total}
}

func (s *fakeStore) seedVolume(id, novelID int64, mode domain.VolumeMode, rentPrice int64) {
	s.data.volumes[id] = &domain.Volume{ID: id, NovelID: novelID, Mode: mode, RentPriceCoins: rentPrice}
}

func (s *fakeStore) seedChapter(id, novelID, volumeID int64, seq int32, mode domain.ChapterMode, price int64) {
	s.data.chapters[id] = &domain.Chapter{
		ID: id, NovelID: novelID, VolumeID: volumeID, Seq: seq, Mode: mode, PriceCoins: price,
	}
}

type fakeAccounts struct{ s *fakeStore }

func (r *fakeAccounts) Create(ctx context.Context, account *domain.Account) error {
	account.ID = r.s.data.nextSerial()
	c := *account
	r.s.data.accounts[account.ID] = &c
	return nil
}

func (r *fakeAccounts) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	a, ok := r.s.data.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *a
	return &c, nil
}

func (r *fakeAccounts) GetForUpdate(ctx context.Context, id int64) (*domain.Account, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeAccounts) SetBalance(ctx context.Context, id int64, balance int64) error {
	a, ok := r.s.data.accounts[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.Balance = balance
	return nil
}

type fakeBudgets struct{ s *fakeStore }

func (r *fakeBudgets) Create(ctx context.Context, budget *domain.Budget) error {
	c := *budget
	r.s.data.budgets[budget.NovelID] = &c
	return nil
}

func (r *fakeBudgets) GetByNovel(ctx context.Context, novelID int64) (*domain.Budget, error) {
	b, ok := r.s.data.budgets[novelID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *b
	return &c, nil
}

func (r *fakeBudgets) GetForUpdate(ctx context.Context, novelID int64) (*domain.Budget, error) {
	return r.GetByNovel(ctx, novelID)
}

func (r *fakeBudgets) Credit(ctx context.Context, novelID int64, amount int64) (*domain.Budget, error) {
	b, ok := r.s.data.budgets[novelID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	b.Balance += amount
	b.Total += amount
	c := *b
	return &c, nil
}

func (r *fakeBudgets) SetBalance(ctx context.Context, novelID int64, balance int64) error {
	b, ok := r.s.data.budgets[novelID]
	if !ok {
		return domain.ErrNotFound
	}
	b.Balance = balance
	return nil
}

type fakeContent struct{ s *fakeStore }

func (r *fakeContent) CreateVolume(ctx context.Context, volume *domain.Volume) error {
	volume.ID = r.s.data.nextSerial()
	c := *volume
	r.s.data.volumes[volume.ID] = &c
	return nil
}

func (r *fakeContent) GetVolume(ctx context.Context, id int64) (*domain.Volume, error) {
	v, ok := r.s.data.volumes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *v
	return &c, nil
}

func (r *fakeContent) GetVolumeForUpdate(ctx context.Context, id int64) (*domain.Volume, error) {
	return r.GetVolume(ctx, id)
}

func (r *fakeContent) ListVolumesByNovel(ctx context.Context, novelID int64) ([]domain.Volume, error) {
	var volumes []domain.Volume
	for _, v := range r.s.data.volumes {
		if v.NovelID == novelID {
			volumes = append(volumes, *v)
		}
	}
	return volumes, nil
}

func (r *fakeContent) SetVolumeMode(ctx context.Context, id int64, mode domain.VolumeMode) error {
	v, ok := r.s.data.volumes[id]
	if !ok {
		return domain.ErrNotFound
	}
	v.Mode = mode
	return nil
}

func (r *fakeContent) SetVolumeRentPrice(ctx context.Context, id int64, price int64) error {
	v, ok := r.s.data.volumes[id]
	if !ok {
		return domain.ErrNotFound
	}
	v.RentPriceCoins = price
	return nil
}

func (r *fakeContent) CreateChapter(ctx context.Context, chapter *domain.Chapter) error {
	chapter.ID = r.s.data.nextSerial()
	c := *chapter
	r.s.data.chapters[chapter.ID] = &c
	return nil
}

func (r *fakeContent) GetChapter(ctx context.Context, id int64) (*domain.Chapter, error) {
	ch, ok := r.s.data.chapters[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *ch
	return &c, nil
}

func (r *fakeContent) ListChaptersByVolume(ctx context.Context, volumeID int64) ([]domain.Chapter, error) {
	var chapters []domain.Chapter
	for _, ch := range r.s.data.chapters {
		if ch.VolumeID == volumeID {
			chapters = append(chapters, *ch)
		}
	}
	return chapters, nil
}

func (r *fakeContent) ListChaptersByNovel(ctx context.Context, novelID int64) ([]domain.Chapter, error) {
	var chapters []domain.Chapter
	for _, ch := range r.s.data.chapters {
		if ch.NovelID == novelID {
			chapters = append(chapters, *ch)
		}
	}
	return chapters, nil
}

func (r *fakeContent) SetChapterVolume(ctx context.Context, id int64, volumeID int64) error {
	ch, ok := r.s.data.chapters[id]
	if !ok {
		return domain.ErrNotFound
	}
	ch.VolumeID = volumeID
	return nil
}

func (r *fakeContent) DeleteChapter(ctx context.Context, id int64) error {
	if _, ok := r.s.data.chapters[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.data.chapters, id)
	return nil
}

func (r *fakeContent) MarkChapterUnlocked(ctx context.Context, id int64, at time.Time) error {
	ch, ok := r.s.data.chapters[id]
	if !ok {
		return domain.ErrNotFound
	}
	ch.Mode = domain.ChapterModeFree
	unlocked := at
	ch.UnlockedOn = &unlocked
	return nil
}

type fakeLedger struct{ s *fakeStore }

func (r *fakeLedger) Append(ctx context.Context, entry *domain.LedgerEntry) error {
	entry.ID = r.s.data.nextSerial()
	r.s.data.entries = append(r.s.data.entries, *entry)
	return nil
}

func (r *fakeLedger) List(ctx context.Context, ref domain.AccountRef, page, pageSize int32) ([]domain.LedgerEntry, int32, error) {
	var entries []domain.LedgerEntry
	for _, e := range r.s.data.entries {
		if e.AccountKind == ref.Kind && e.AccountID == ref.ID {
			entries = append(entries, e)
		}
	}
	return entries, int32(len(entries)), nil
}

func (r *fakeLedger) SumDeltas(ctx context.Context, ref domain.AccountRef) (int64, error) {
	var sum int64
	for _, e := range r.s.data.entries {
		if e.AccountKind == ref.Kind && e.AccountID == ref.ID {
			sum += e.Delta
		}
	}
	return sum, nil
}

type fakeEscrows struct{ s *fakeStore }

func (r *fakeEscrows) CreateRequest(ctx context.Context, req *domain.EscrowRequest) error {
	req.ID = r.s.data.nextSerial()
	c := *req
	r.s.data.requests[req.ID] = &c
	return nil
}

func (r *fakeEscrows) GetRequest(ctx context.Context, id int64) (*domain.EscrowRequest, error) {
	req, ok := r.s.data.requests[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *req
	return &c, nil
}

func (r *fakeEscrows) GetRequestForUpdate(ctx context.Context, id int64) (*domain.EscrowRequest, error) {
	return r.GetRequest(ctx, id)
}

func (r *fakeEscrows) SetRequestStatus(ctx context.Context, id int64, status domain.EscrowStatus, decidedOn time.Time) error {
	req, ok := r.s.data.requests[id]
	if !ok {
		return domain.ErrNotFound
	}
	req.Status = status
	decided := decidedOn
	req.DecidedOn = &decided
	return nil
}

func (r *fakeEscrows) CreateContribution(ctx context.Context, c *domain.Contribution) error {
	c.ID = r.s.data.nextSerial()
	cp := *c
	r.s.data.contributions[c.ID] = &cp
	return nil
}

func (r *fakeEscrows) ListContributions(ctx context.Context, requestID int64, status domain.ContributionStatus) ([]domain.Contribution, error) {
	var contributions []domain.Contribution
	for _, c := range r.s.data.contributions {
		if c.RequestID == requestID && (status == "" || c.Status == status) {
			contributions = append(contributions, *c)
		}
	}
	return contributions, nil
}

func (r *fakeEscrows) SetContributionsStatus(ctx context.Context, requestID int64, from, to domain.ContributionStatus) error {
	for _, c := range r.s.data.contributions {
		if c.RequestID == requestID && c.Status == from {
			c.Status = to
		}
	}
	return nil
}

type fakeRentals struct{ s *fakeStore }

func (r *fakeRentals) Create(ctx context.Context, rental *domain.Rental) error {
	// Same guarantee as the partial unique index on (user_id, volume_id).
	for _, existing := range r.s.data.rentals {
		if existing.Active && existing.UserID == rental.UserID && existing.VolumeID == rental.VolumeID {
			return domain.ErrAlreadyRented
		}
	}
	rental.ID = r.s.data.nextSerial()
	c := *rental
	r.s.data.rentals[rental.ID] = &c
	return nil
}

func (r *fakeRentals) GetByID(ctx context.Context, id int64) (*domain.Rental, error) {
	rental, ok := r.s.data.rentals[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *rental
	return &c, nil
}

func (r *fakeRentals) GetActive(ctx context.Context, userID, volumeID int64) (*domain.Rental, error) {
	for _, rental := range r.s.data.rentals {
		if rental.Active && rental.UserID == userID && rental.VolumeID == volumeID {
			c := *rental
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeRentals) Deactivate(ctx context.Context, id int64) error {
	rental, ok := r.s.data.rentals[id]
	if !ok {
		return domain.ErrNotFound
	}
	rental.Active = false
	return nil
}

func (r *fakeRentals) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	for _, rental := range r.s.data.rentals {
		if rental.Active && !rental.EndTime.After(now) {
			rental.Active = false
			count++
		}
	}
	return count, nil
}

// fixedClock pins Now for deterministic rental and unlock timestamps.
type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func newTestRetrier() *Retrier {
	return NewRetrier(3, time.Millisecond, 5*time.Millisecond)
}
