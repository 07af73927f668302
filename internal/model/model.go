// Package model defines the core data structures for the saving-fee updater.
package model

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// FeeQuote captures the price fetched at startup and the fee derived from it.
// It is computed once per run and shared read-only across all chain updates.
type FeeQuote struct {
	// PriceUSD is the native token's USD price as reported by the oracle
	PriceUSD float64 `json:"price_usd"`

	// FeeWei is the saving fee in the token's smallest unit
	FeeWei *big.Int `json:"fee_wei"`

	// Provider is the identifier of the price oracle that produced the quote
	Provider string `json:"provider"`

	// CollectedAt is the Unix timestamp when the quote was fetched
	CollectedAt int64 `json:"collected_at"`
}

// NewFeeQuote creates a quote with the current timestamp.
func NewFeeQuote(provider string, priceUSD float64, feeWei *big.Int) FeeQuote {
	return FeeQuote{
		PriceUSD:    priceUSD,
		FeeWei:      feeWei,
		Provider:    provider,
		CollectedAt: time.Now().Unix(),
	}
}

// ChainResult is the outcome of a single chain's fee update. A failed chain
// never aborts the run; the error is carried here instead.
type ChainResult struct {
	// Chain is the configured chain name
	Chain string `json:"chain"`

	// TxHash is the broadcast transaction hash, set as soon as the
	// transaction is accepted by the RPC node
	TxHash common.Hash `json:"tx_hash"`

	// BlockNumber is the block that included the transaction
	BlockNumber uint64 `json:"block_number"`

	// GasUsed is taken from the confirmation receipt
	GasUsed uint64 `json:"gas_used"`

	// Succeeded reports whether a receipt with status 1 was observed
	Succeeded bool `json:"succeeded"`

	// DryRun marks results where the signed transaction was never broadcast
	DryRun bool `json:"dry_run,omitempty"`

	// Err holds the per-chain failure, if any
	Err error `json:"-"`

	// Elapsed is the wall time spent on this chain
	Elapsed time.Duration `json:"elapsed"`
}

// Failed reports whether this chain's update did not complete.
func (r ChainResult) Failed() bool {
	return r.Err != nil
}

// RunReport is the terminal artifact of a run, used for logging and the
// optional metrics push.
type RunReport struct {
	Quote   FeeQuote      `json:"quote"`
	Results []ChainResult `json:"results"`
	Started time.Time     `json:"started"`
}

// FailedCount returns the number of chains whose update failed.
func (r RunReport) FailedCount() int {
	n := 0
	for _, res := range r.Results {
		if res.Failed() {
			n++
		}
	}
	return n
}
