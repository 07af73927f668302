// Package submit builds, signs, and broadcasts the editFees transaction on
// each configured chain, then blocks until a confirmation receipt arrives.
package submit

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/yourorg/saving-fee-updater/internal/config"
	"github.com/yourorg/saving-fee-updater/internal/model"
	"github.com/yourorg/saving-fee-updater/internal/signer"
)

// Per-chain failures. Each is logged with the chain name and never aborts
// another chain's attempt.
var (
	ErrRPCConnection  = errors.New("rpc connection failed")
	ErrNonceLookup    = errors.New("nonce lookup failed")
	ErrSigning        = errors.New("transaction signing failed")
	ErrBroadcast      = errors.New("transaction broadcast failed")
	ErrReceiptTimeout = errors.New("timed out waiting for receipt")
)

// Client is the narrow slice of an Ethereum RPC client the submitter needs.
// *ethclient.Client satisfies it; tests substitute a stub.
type Client interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	Close()
}

// DialFunc opens a connection to a chain's RPC endpoint.
type DialFunc func(ctx context.Context, rawurl string) (Client, error)

// Options tunes a Submitter.
type Options struct {
	// GasLimit for the editFees call; the reference value is 200000
	GasLimit uint64

	// ReceiptTimeout bounds the confirmation poll
	ReceiptTimeout time.Duration

	// PollInterval paces receipt polling
	PollInterval time.Duration

	// DryRun stops after signing; nothing is broadcast
	DryRun bool
}

// DefaultOptions returns the reference parameters.
func DefaultOptions() Options {
	return Options{
		GasLimit:       200000,
		ReceiptTimeout: 2 * time.Minute,
		PollInterval:   3 * time.Second,
	}
}

// Submitter updates the saving fee on one chain at a time.
type Submitter struct {
	signer  *signer.Signer
	account common.Address
	opts    Options
	dial    DialFunc
}

// New creates a Submitter that signs with sig and looks up nonces for
// account. The account is configured separately from the key on purpose;
// the loader warns when the two disagree.
func New(sig *signer.Signer, account common.Address, opts Options) *Submitter {
	if opts.GasLimit == 0 {
		opts.GasLimit = DefaultOptions().GasLimit
	}
	if opts.ReceiptTimeout <= 0 {
		opts.ReceiptTimeout = DefaultOptions().ReceiptTimeout
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultOptions().PollInterval
	}
	return &Submitter{
		signer:  sig,
		account: account,
		opts:    opts,
		dial:    dialEthclient,
	}
}

// WithDial replaces the RPC dialer. Test hook.
func (s *Submitter) WithDial(dial DialFunc) *Submitter {
	s.dial = dial
	return s
}

func dialEthclient(ctx context.Context, rawurl string) (Client, error) {
	client, err := ethclient.DialContext(ctx, rawurl)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// UpdateAll runs the fee update on every chain, strictly sequentially.
// Each chain's failure is captured in its result and the loop continues.
func (s *Submitter) UpdateAll(ctx context.Context, chains []config.ChainConfig, feeWei *big.Int) []model.ChainResult {
	results := make([]model.ChainResult, 0, len(chains))
	for _, chain := range chains {
		result := s.Update(ctx, chain, feeWei)
		if result.Failed() {
			logrus.WithField("chain", chain.Name).Errorf("Fee update failed: %v", result.Err)
		}
		results = append(results, result)
	}
	return results
}

// Update performs the full submission sequence for one chain: dial, encode,
// nonce, gas price, sign, broadcast, and wait for the receipt.
func (s *Submitter) Update(ctx context.Context, chain config.ChainConfig, feeWei *big.Int) model.ChainResult {
	start := time.Now()
	result := model.ChainResult{Chain: chain.Name, DryRun: s.opts.DryRun}
	log := logrus.WithField("chain", chain.Name)

	client, err := s.dial(ctx, chain.RPCEndpoint)
	if err != nil {
		result.Err = fmt.Errorf("%w: %s: %v", ErrRPCConnection, chain.RPCEndpoint, err)
		result.Elapsed = time.Since(start)
		return result
	}
	defer client.Close()

	chainID, err := client.ChainID(ctx)
	if err != nil {
		result.Err = fmt.Errorf("%w: chain id: %v", ErrRPCConnection, err)
		result.Elapsed = time.Since(start)
		return result
	}

	// joinFee stays pinned at 0 on every update, matching the deployed
	// behavior this tool replaces.
	data, err := PackEditFees(big.NewInt(0), feeWei)
	if err != nil {
		result.Err = err
		result.Elapsed = time.Since(start)
		return result
	}

	nonce, err := client.PendingNonceAt(ctx, s.account)
	if err != nil {
		result.Err = fmt.Errorf("%w: account %s: %v", ErrNonceLookup, s.account.Hex(), err)
		result.Elapsed = time.Since(start)
		return result
	}

	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		result.Err = fmt.Errorf("%w: gas price: %v", ErrRPCConnection, err)
		result.Elapsed = time.Since(start)
		return result
	}
	if gasPrice.Sign() <= 0 {
		result.Err = fmt.Errorf("%w: implausible gas price %s", ErrRPCConnection, gasPrice)
		result.Elapsed = time.Since(start)
		return result
	}

	tx := types.NewTransaction(nonce, chain.ContractAddress, big.NewInt(0), s.opts.GasLimit, gasPrice, data)

	signedTx, err := s.signer.SignTx(tx, chainID)
	if err != nil {
		result.Err = fmt.Errorf("%w: %v", ErrSigning, err)
		result.Elapsed = time.Since(start)
		return result
	}
	result.TxHash = signedTx.Hash()

	log.WithFields(logrus.Fields{
		"chain_id":  chainID,
		"nonce":     nonce,
		"gas_price": gasPrice,
		"fee_wei":   feeWei,
	}).Debug("Transaction built and signed")

	if s.opts.DryRun {
		log.Infof("Dry run: would send tx %s", result.TxHash.Hex())
		result.Elapsed = time.Since(start)
		return result
	}

	if err := client.SendTransaction(ctx, signedTx); err != nil {
		result.Err = fmt.Errorf("%w: %v", ErrBroadcast, err)
		result.Elapsed = time.Since(start)
		return result
	}
	log.Infof("Tx sent: %s", result.TxHash.Hex())

	receipt, err := s.waitReceipt(ctx, client, result.TxHash)
	if err != nil {
		result.Err = err
		result.Elapsed = time.Since(start)
		return result
	}

	result.BlockNumber = receipt.BlockNumber.Uint64()
	result.GasUsed = receipt.GasUsed
	result.Succeeded = receipt.Status == types.ReceiptStatusSuccessful
	result.Elapsed = time.Since(start)

	if result.Succeeded {
		log.Infof("Tx confirmed in block %d", result.BlockNumber)
	} else {
		log.Warnf("Tx %s reverted in block %d", result.TxHash.Hex(), result.BlockNumber)
	}

	return result
}

// waitReceipt polls for the transaction receipt until it appears or the
// receipt timeout elapses.
func (s *Submitter) waitReceipt(ctx context.Context, client Client, hash common.Hash) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.ReceiptTimeout)
	defer cancel()

	limiter := rate.NewLimiter(rate.Every(s.opts.PollInterval), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrReceiptTimeout, hash.Hex())
		}

		receipt, err := client.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("%w: polling receipt for %s: %v", ErrReceiptTimeout, hash.Hex(), err)
		}
	}
}
