// Package fee converts a USD target amount into the native token's smallest
// unit using a fetched exchange rate. Pure arithmetic, no I/O.
package fee

import (
	"errors"
	"fmt"
	"math"
	"math/big"
)

// ErrInvalidPrice is returned when the exchange rate cannot be used for
// conversion. A zero or negative price must abort the run before any chain
// is touched.
var ErrInvalidPrice = errors.New("invalid token price")

// weiPerToken is the smallest-unit scale of the native token (10^18).
var weiPerToken = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// UsdToWei computes floor((usdAmount / priceUSD) * 10^18).
//
// The computation is exact rational arithmetic, so the result is the
// mathematical floor for the given inputs and always a non-negative integer.
// priceUSD must be strictly positive and finite; usdAmount must be
// non-negative and finite.
func UsdToWei(usdAmount, priceUSD float64) (*big.Int, error) {
	if math.IsNaN(priceUSD) || math.IsInf(priceUSD, 0) || priceUSD <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrice, priceUSD)
	}
	if math.IsNaN(usdAmount) || math.IsInf(usdAmount, 0) || usdAmount < 0 {
		return nil, fmt.Errorf("invalid usd amount: %v", usdAmount)
	}

	usd := new(big.Rat).SetFloat64(usdAmount)
	price := new(big.Rat).SetFloat64(priceUSD)

	wei := new(big.Rat).Quo(usd, price)
	wei.Mul(wei, new(big.Rat).SetInt(weiPerToken))

	// Floor of a non-negative rational is truncating integer division.
	return new(big.Int).Quo(wei.Num(), wei.Denom()), nil
}
