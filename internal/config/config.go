// Package config provides configuration loading for the saving-fee updater.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
)

// MissingConfigError reports a required environment variable that is absent.
// It is always fatal and raised before any network activity.
type MissingConfigError struct {
	Key string
}

func (e *MissingConfigError) Error() string {
	return "missing required configuration: " + e.Key
}

// Credentials holds the signing secret and the account it belongs to.
// The key hex is handed to the signer once and must never be logged.
type Credentials struct {
	PrivateKeyHex  string
	AccountAddress common.Address
}

// ChainConfig holds the connection parameters for one chain. Static after
// Load, immutable thereafter.
type ChainConfig struct {
	Name            string
	RPCEndpoint     string
	ContractAddress common.Address
}

// Config holds all application configuration.
type Config struct {
	Credentials Credentials

	// Chains in deterministic declaration order
	Chains []ChainConfig

	// Price oracle selection and tuning
	PriceProvider string
	PriceURL      string
	PriceRetryMax int

	// Fee parameters
	TargetUSD float64
	GasLimit  uint64

	// Quote sanity bounds; zero disables a bound
	MinPriceUSD float64
	MaxPriceUSD float64

	// Timeouts (deviation from the reference behavior, which has none)
	RequestTimeout time.Duration
	ReceiptTimeout time.Duration

	// Telemetry endpoints, empty means disabled
	OtelEndpoint   string
	PushgatewayURL string

	// DryRun builds and signs transactions without broadcasting
	DryRun bool
}

// chainEntry is one row of the chain table before contract resolution.
type chainEntry struct {
	Name string `toml:"name"`
	RPC  string `toml:"rpc"`
}

// chainsFile is the optional TOML chain table. An array of tables keeps the
// declaration order, which fixes the submission order.
type chainsFile struct {
	Chains []chainEntry `toml:"chains"`
}

// defaultChains mirrors the chains the updater has always served.
func defaultChains() []chainEntry {
	return []chainEntry{
		{Name: "base", RPC: "https://mainnet.base.org"},
		{Name: "celo", RPC: "https://rpc.api.lisk.com"},
	}
}

// Load creates a Config from the environment and the optional chains file.
// It fails with a MissingConfigError if the signing key, account address, or
// any enabled chain's contract address is absent.
func Load() (Config, error) {
	key, ok := GetEnv("PRIVATE_KEY")
	if !ok || key == "" {
		return Config{}, &MissingConfigError{Key: "PRIVATE_KEY"}
	}

	account, ok := GetEnv("ACCOUNT_ADDRESS")
	if !ok || account == "" {
		return Config{}, &MissingConfigError{Key: "ACCOUNT_ADDRESS"}
	}
	if !common.IsHexAddress(account) {
		return Config{}, fmt.Errorf("invalid ACCOUNT_ADDRESS: %q", account)
	}

	entries := defaultChains()
	if path := GetEnvOrDefault("CHAINS_FILE", ""); path != "" {
		loaded, err := loadChainsFile(path)
		if err != nil {
			return Config{}, err
		}
		entries = loaded
	}

	chains := make([]ChainConfig, 0, len(entries))
	for _, entry := range entries {
		upper := strings.ToUpper(entry.Name)

		contract, ok := GetEnv("CONTRACT_" + upper)
		if !ok || contract == "" {
			return Config{}, &MissingConfigError{Key: "CONTRACT_" + upper}
		}
		if !common.IsHexAddress(contract) {
			return Config{}, fmt.Errorf("invalid contract address for chain %s: %q", entry.Name, contract)
		}

		chains = append(chains, ChainConfig{
			Name:            entry.Name,
			RPCEndpoint:     GetEnvOrDefault("RPC_"+upper, entry.RPC),
			ContractAddress: common.HexToAddress(contract),
		})
	}

	return Config{
		Credentials: Credentials{
			PrivateKeyHex:  key,
			AccountAddress: common.HexToAddress(account),
		},
		Chains:         chains,
		PriceProvider:  strings.ToLower(GetEnvOrDefault("PRICE_PROVIDER", "coingecko")),
		PriceURL:       GetEnvOrDefault("PRICE_URL", ""),
		PriceRetryMax:  GetEnvAsInt("PRICE_RETRY_MAX", 0),
		TargetUSD:      GetEnvAsFloat("TARGET_USD", 1.0),
		GasLimit:       uint64(GetEnvAsInt("GAS_LIMIT", 200000)),
		MinPriceUSD:    GetEnvAsFloat("MIN_PRICE_USD", 0),
		MaxPriceUSD:    GetEnvAsFloat("MAX_PRICE_USD", 1e7),
		RequestTimeout: GetEnvAsDuration("REQUEST_TIMEOUT", 10*time.Second),
		ReceiptTimeout: GetEnvAsDuration("RECEIPT_TIMEOUT", 2*time.Minute),
		OtelEndpoint:   GetEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		PushgatewayURL: GetEnvOrDefault("PUSHGATEWAY_URL", ""),
		DryRun:         GetEnvAsBool("DRY_RUN", false),
	}, nil
}

// loadChainsFile reads the TOML chain table from disk.
func loadChainsFile(path string) ([]chainEntry, error) {
	var file chainsFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("chains file %s: %w", path, err)
	}
	if len(file.Chains) == 0 {
		return nil, fmt.Errorf("chains file %s: no chains defined", path)
	}
	for _, entry := range file.Chains {
		if entry.Name == "" || entry.RPC == "" {
			return nil, fmt.Errorf("chains file %s: every chain needs a name and an rpc", path)
		}
	}
	return file.Chains, nil
}

// GetEnv retrieves an environment variable and whether it exists
func GetEnv(key string) (string, bool) {
	value, exists := os.LookupEnv(key)
	return value, exists
}

// GetEnvOrDefault retrieves an environment variable or returns the default value if not set
func GetEnvOrDefault(key, defaultValue string) string {
	if value, exists := GetEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

// GetEnvAsInt retrieves an environment variable as an integer with a default value
func GetEnvAsInt(key string, defaultValue int) int {
	if value, exists := GetEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvAsFloat retrieves an environment variable as a float with a default value
func GetEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := GetEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// GetEnvAsBool retrieves an environment variable as a boolean with a default value
func GetEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := GetEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// GetEnvAsDuration retrieves an environment variable as a duration with a default value
func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := GetEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
