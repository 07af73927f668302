// Package validation provides sanity checks for fetched price quotes.
package validation

import (
	"fmt"
	"math"
)

// QuoteOptions holds the bounds a fetched price must satisfy before any fee
// is derived from it. A zero bound disables that check.
type QuoteOptions struct {
	// MinPrice is the lowest plausible USD price
	MinPrice float64

	// MaxPrice is the highest plausible USD price
	MaxPrice float64
}

// DefaultQuoteOptions returns sensible defaults for quote validation.
func DefaultQuoteOptions() QuoteOptions {
	return QuoteOptions{
		MinPrice: 0,
		MaxPrice: 1e7,
	}
}

// ValidateQuote rejects prices that cannot produce a meaningful fee. A
// rejected quote aborts the run before any chain is touched.
func ValidateQuote(priceUSD float64, opts QuoteOptions) error {
	if math.IsNaN(priceUSD) || math.IsInf(priceUSD, 0) {
		return fmt.Errorf("non-finite price: %v", priceUSD)
	}
	if priceUSD <= 0 {
		return fmt.Errorf("non-positive price: %v", priceUSD)
	}
	if opts.MinPrice > 0 && priceUSD < opts.MinPrice {
		return fmt.Errorf("price %v below plausible minimum %v", priceUSD, opts.MinPrice)
	}
	if opts.MaxPrice > 0 && priceUSD > opts.MaxPrice {
		return fmt.Errorf("price %v above plausible maximum %v", priceUSD, opts.MaxPrice)
	}
	return nil
}
