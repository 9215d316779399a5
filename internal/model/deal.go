package model

import "time"

// DealsFreshness is how long a cached deals document stays fresh.
const DealsFreshness = 24 * time.Hour

// Deal is a single promotional phrase attributed to a nearby merchant.
// DealText is short by convention (the prompt asks for ≤50 characters) but
// the length is not enforced.
type Deal struct {
	Timestamp time.Time `json:"timestamp"`
	ID        string    `json:"id"`
	Merchant  string    `json:"merchant"`
	Category  string    `json:"category"`
	DealText  string    `json:"deal_text"`
	Distance  float64   `json:"distance"`
}

// DealsCacheEntry is the per-user cached deals document. At most one entry
// exists per user; a stale entry is ignored, not deleted, until the next
// successful fetch overwrites it.
type DealsCacheEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Deals     []Deal    `json:"deals"`
}

// Fresh reports whether the entry is still within the freshness window.
func (e *DealsCacheEntry) Fresh(now time.Time) bool {
	return now.Sub(e.Timestamp) < DealsFreshness
}
