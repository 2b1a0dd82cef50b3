package domain

import "time"

// Account holds a user's spendable coin balance. The balance is mutated
// only through the ledger service's transfer operation, never directly.
type Account struct {
	ID        int64     `json:"id"`
	Balance   int64     `json:"balance"` // coins, never negative
	CreatedOn time.Time `json:"created_on"`
	UpdatedOn time.Time `json:"updated_on"`
}

// Budget is the funding pool attached to a novel. Balance tracks spendable
// coins; Total is cumulative lifetime funding and only ever grows. Unlock
// threshold checks compare against Total.
type Budget struct {
	NovelID   int64     `json:"novel_id"`
	Balance   int64     `json:"balance"`
	Total     int64     `json:"total"`
	UpdatedOn time.Time `json:"updated_on"`
}
