package service

import "sync"

// BalanceCache is a read cache for user balances, owned by the service
// layer. It is invalidated synchronously after every successful mutation
// and is never consulted inside a unit of work, so the ledger core does
// not depend on it for correctness.
type BalanceCache struct {
	mu       sync.RWMutex
	balances map[int64]int64
}

func NewBalanceCache() *BalanceCache {
	return &BalanceCache{balances: make(map[int64]int64)}
}

func (c *BalanceCache) Get(userID int64) (int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	balance, ok := c.balances[userID]
	return balance, ok
}

func (c *BalanceCache) Set(userID int64, balance int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances[userID] = balance
}

// Invalidate drops cached balances for the given users.
func (c *BalanceCache) Invalidate(userIDs ...int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range userIDs {
		delete(c.balances, id)
	}
}
