package domain

import "time"

// Rental grants a user time-boxed access to a rentable volume. The coins
// move at purchase time; expiry and revocation only flip Active and never
// refund. At most one active rental may exist per (user, volume) pair.
type Rental struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	VolumeID    int64     `json:"volume_id"`
	NovelID     int64     `json:"novel_id"`
	AmountCoins int64     `json:"amount_coins"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Active      bool      `json:"active"`
	CreatedOn   time.Time `json:"created_on"`
}

// Valid reports whether the rental currently grants access.
func (r *Rental) Valid(now time.Time) bool {
	return r.Active && r.EndTime.After(now)
}
