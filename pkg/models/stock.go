// Package models defines the core data structures used throughout stockbrief.
package models

import "time"

// Stock is the persisted record for a tracked equity. The market client
// writes CurrentPrice and MarketCap; everything else is owned by the caller.
type Stock struct {
	Symbol       string    `json:"symbol"`        // e.g., "AAPL"
	CompanyName  string    `json:"company_name"`  // e.g., "Apple Inc."
	Description  string    `json:"description"`   // free-form company description
	CurrentPrice float64   `json:"current_price"` // last traded price, quote currency
	MarketCap    float64   `json:"market_cap"`    // raw value, not formatted
	UpdatedAt    time.Time `json:"updated_at"`
}

// Clone returns a copy of s. Stores hand out clones so callers cannot
// mutate stored records in place.
func (s *Stock) Clone() *Stock {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
