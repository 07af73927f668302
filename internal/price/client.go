// Package price provides oracle clients for the native token's USD price.
package price

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/yourorg/saving-fee-updater/internal/config"
)

// Price acquisition failures are fatal for the run: without a price no fee
// can be computed and no chain may be touched.
var (
	// ErrPriceFetch covers transport failures and non-success HTTP statuses
	ErrPriceFetch = errors.New("price fetch failed")

	// ErrPriceParse covers absent or non-numeric price fields
	ErrPriceParse = errors.New("price response parse failed")
)

// Known price providers.
const (
	ProviderCoinGecko = "coingecko"
	ProviderCoinbase  = "coinbase"
)

// Client defines the interface that all price oracle clients implement.
type Client interface {
	// Fetch retrieves the native token's current USD price
	Fetch(ctx context.Context) (float64, error)
}

// New creates a price client based on the configured provider name.
func New(cfg config.Config) Client {
	switch cfg.PriceProvider {
	case ProviderCoinbase:
		return NewCoinbaseClient(cfg)
	default:
		return NewCoinGeckoClient(cfg)
	}
}

// newHTTPClient builds the shared transport. RetryMax defaults to zero so a
// failed fetch stays a single attempt; retries are opt-in via configuration.
func newHTTPClient(cfg config.Config) *http.Client {
	c := retryablehttp.NewClient()
	c.RetryMax = cfg.PriceRetryMax
	c.RetryWaitMin = 500 * time.Millisecond
	c.RetryWaitMax = 3 * time.Second
	c.HTTPClient.Timeout = cfg.RequestTimeout
	c.Logger = nil
	return c.StandardClient()
}
