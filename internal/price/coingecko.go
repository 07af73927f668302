package price

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/yourorg/saving-fee-updater/internal/config"
)

// coinGeckoPath queries the simple-price endpoint for ethereum in USD.
const coinGeckoPath = "/api/v3/simple/price?ids=ethereum&vs_currencies=usd"

// CoinGeckoClient fetches the ETH/USD spot price from CoinGecko.
type CoinGeckoClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewCoinGeckoClient creates a new CoinGecko price client.
func NewCoinGeckoClient(cfg config.Config) *CoinGeckoClient {
	base := cfg.PriceURL
	if base == "" {
		base = "https://api.coingecko.com"
	}
	return &CoinGeckoClient{
		baseURL:    base,
		httpClient: newHTTPClient(cfg),
	}
}

// Fetch retrieves the current ETH price in USD.
func (c *CoinGeckoClient) Fetch(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+coinGeckoPath, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: creating request: %v", ErrPriceFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	logrus.Debugf("Fetching ETH price from CoinGecko: %s", c.baseURL)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPriceFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("%w: status %d, body: %s", ErrPriceFetch, resp.StatusCode, string(body))
	}

	// Response shape: {"ethereum":{"usd":<number>}}
	var response map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPriceParse, err)
	}

	quote, ok := response["ethereum"]
	if !ok {
		return 0, fmt.Errorf("%w: missing ethereum field", ErrPriceParse)
	}
	usd, ok := quote["usd"]
	if !ok {
		return 0, fmt.Errorf("%w: missing usd field", ErrPriceParse)
	}

	return usd, nil
}
