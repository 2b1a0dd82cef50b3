package domain

import "time"

type ChapterMode string

const (
	ChapterModeFree ChapterMode = "FREE"
	ChapterModePaid ChapterMode = "PAID"
)

type VolumeMode string

const (
	VolumeModeRentable  VolumeMode = "RENTABLE"
	VolumeModePublished VolumeMode = "PUBLISHED"
)

// Chapter is a priced content unit. UnlockedOn is set only when the chapter
// was flipped to free by the auto-unlock checker; chapters that were free
// from the start keep it nil. The unlock checker uses this distinction to
// compute how much of a budget is already allocated.
type Chapter struct {
	ID         int64       `json:"id"`
	NovelID    int64       `json:"novel_id"`
	VolumeID   int64       `json:"volume_id"`
	Seq        int32       `json:"seq"`
	Mode       ChapterMode `json:"mode"`
	PriceCoins int64       `json:"price_coins"`
	UnlockedOn *time.Time  `json:"unlocked_on,omitempty"`
	CreatedOn  time.Time   `json:"created_on"`
	UpdatedOn  time.Time   `json:"updated_on"`
}

// Volume groups chapters and is the unit that gets rented. RentPriceCoins
// is derived from the volume's paid chapters and is recomputed only when
// paid chapters are added, removed or moved, never when a chapter is
// unlocked, so historical rentals stay auditable against the price they
// were bought at.
type Volume struct {
	ID             int64      `json:"id"`
	NovelID        int64      `json:"novel_id"`
	Mode           VolumeMode `json:"mode"`
	RentPriceCoins int64      `json:"rent_price_coins"`
	CreatedOn      time.Time  `json:"created_on"`
	UpdatedOn      time.Time  `json:"updated_on"`
}
