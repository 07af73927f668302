package price

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/yourorg/saving-fee-updater/internal/config"
)

// coinbasePath queries the ETH-USD spot price.
const coinbasePath = "/v2/prices/ETH-USD/spot"

// CoinbaseClient fetches the ETH/USD spot price from the Coinbase API.
type CoinbaseClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewCoinbaseClient creates a new Coinbase price client.
func NewCoinbaseClient(cfg config.Config) *CoinbaseClient {
	base := cfg.PriceURL
	if base == "" {
		base = "https://api.coinbase.com"
	}
	return &CoinbaseClient{
		baseURL:    base,
		httpClient: newHTTPClient(cfg),
	}
}

// Fetch retrieves the current ETH price in USD.
func (c *CoinbaseClient) Fetch(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+coinbasePath, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: creating request: %v", ErrPriceFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPriceFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("%w: status %d, body: %s", ErrPriceFetch, resp.StatusCode, string(body))
	}

	// Response shape: {"data":{"amount":"<decimal>","currency":"USD"}}
	var response struct {
		Data struct {
			Amount   string `json:"amount"`
			Currency string `json:"currency"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPriceParse, err)
	}

	if response.Data.Amount == "" {
		return 0, fmt.Errorf("%w: missing amount field", ErrPriceParse)
	}
	usd, err := strconv.ParseFloat(response.Data.Amount, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: non-numeric amount %q", ErrPriceParse, response.Data.Amount)
	}

	return usd, nil
}
