package submit

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/saving-fee-updater/internal/config"
	"github.com/yourorg/saving-fee-updater/internal/signer"
)

const testKeyHex = "4c0883a69102937d6231471b5dbb6204fe512961708279feb1be6ae5538da033"

// stubClient satisfies Client with scripted behavior.
type stubClient struct {
	chainID    *big.Int
	chainIDErr error
	nonce      uint64
	nonceErr   error
	gasPrice   *big.Int
	gasErr     error
	sendErr    error
	receipt    *types.Receipt

	// pendingPolls is how many receipt polls report not-found before the
	// receipt is returned; negative means the receipt never appears
	pendingPolls int

	sent  []*types.Transaction
	polls int
}

func (c *stubClient) ChainID(ctx context.Context) (*big.Int, error) {
	if c.chainIDErr != nil {
		return nil, c.chainIDErr
	}
	return c.chainID, nil
}

func (c *stubClient) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	if c.nonceErr != nil {
		return 0, c.nonceErr
	}
	return c.nonce, nil
}

func (c *stubClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	if c.gasErr != nil {
		return nil, c.gasErr
	}
	return c.gasPrice, nil
}

func (c *stubClient) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, tx)
	return nil
}

func (c *stubClient) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	c.polls++
	if c.pendingPolls < 0 || c.polls <= c.pendingPolls {
		return nil, ethereum.NotFound
	}
	return c.receipt, nil
}

func (c *stubClient) Close() {}

func healthyStub() *stubClient {
	return &stubClient{
		chainID:  big.NewInt(8453),
		nonce:    5,
		gasPrice: big.NewInt(1000000000),
		receipt: &types.Receipt{
			Status:      types.ReceiptStatusSuccessful,
			BlockNumber: big.NewInt(7),
			GasUsed:     54321,
		},
	}
}

func testSubmitter(t *testing.T, dial DialFunc) *Submitter {
	t.Helper()
	sig, err := signer.FromHex(testKeyHex)
	require.NoError(t, err)
	return New(sig, sig.Address(), Options{
		GasLimit:       200000,
		ReceiptTimeout: time.Second,
		PollInterval:   time.Millisecond,
	}).WithDial(dial)
}

func testChain(name string) config.ChainConfig {
	return config.ChainConfig{
		Name:            name,
		RPCEndpoint:     "https://" + name + ".invalid",
		ContractAddress: common.HexToAddress("0x00000000000000000000000000000000deadbeef"),
	}
}

func TestUpdateBuildsAndConfirms(t *testing.T) {
	stub := healthyStub()
	sub := testSubmitter(t, func(ctx context.Context, rawurl string) (Client, error) {
		return stub, nil
	})

	feeWei := big.NewInt(500000000000000)
	result := sub.Update(context.Background(), testChain("base"), feeWei)

	require.NoError(t, result.Err)
	assert.True(t, result.Succeeded)
	assert.Equal(t, uint64(7), result.BlockNumber)
	assert.Equal(t, uint64(54321), result.GasUsed)

	require.Len(t, stub.sent, 1)
	tx := stub.sent[0]

	// Round-trip: the broadcast transaction preserves nonce, gas price,
	// gas limit, and call data
	assert.Equal(t, uint64(5), tx.Nonce())
	assert.Zero(t, tx.GasPrice().Cmp(big.NewInt(1000000000)))
	assert.Equal(t, uint64(200000), tx.Gas())
	assert.Zero(t, tx.Value().Sign())

	joinFee, savingFee, err := UnpackEditFees(tx.Data())
	require.NoError(t, err)
	assert.Zero(t, joinFee.Sign())
	assert.Zero(t, savingFee.Cmp(feeWei))

	sender, err := types.Sender(types.NewLondonSigner(stub.chainID), tx)
	require.NoError(t, err)
	sig, _ := signer.FromHex(testKeyHex)
	assert.Equal(t, sig.Address(), sender)
}

func TestUpdateAllIsolatesFailures(t *testing.T) {
	healthy := healthyStub()
	dial := func(ctx context.Context, rawurl string) (Client, error) {
		if rawurl == "https://down.invalid" {
			return nil, fmt.Errorf("connect: connection refused")
		}
		return healthy, nil
	}

	sub := testSubmitter(t, dial)
	chains := []config.ChainConfig{testChain("down"), testChain("base")}

	results := sub.UpdateAll(context.Background(), chains, big.NewInt(1))
	require.Len(t, results, 2)

	assert.True(t, results[0].Failed())
	assert.ErrorIs(t, results[0].Err, ErrRPCConnection)

	// The second chain must still be attempted and complete
	require.NoError(t, results[1].Err)
	assert.True(t, results[1].Succeeded)
	assert.Equal(t, uint64(7), results[1].BlockNumber)
}

func TestUpdateErrorStages(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*stubClient)
		wantErr error
	}{
		{
			name:    "chain id lookup fails",
			mutate:  func(c *stubClient) { c.chainIDErr = errors.New("eof") },
			wantErr: ErrRPCConnection,
		},
		{
			name:    "nonce lookup fails",
			mutate:  func(c *stubClient) { c.nonceErr = errors.New("eof") },
			wantErr: ErrNonceLookup,
		},
		{
			name:    "gas price lookup fails",
			mutate:  func(c *stubClient) { c.gasErr = errors.New("eof") },
			wantErr: ErrRPCConnection,
		},
		{
			name:    "gas price implausible",
			mutate:  func(c *stubClient) { c.gasPrice = big.NewInt(0) },
			wantErr: ErrRPCConnection,
		},
		{
			name:    "broadcast rejected",
			mutate:  func(c *stubClient) { c.sendErr = errors.New("already known") },
			wantErr: ErrBroadcast,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := healthyStub()
			tt.mutate(stub)
			sub := testSubmitter(t, func(ctx context.Context, rawurl string) (Client, error) {
				return stub, nil
			})

			result := sub.Update(context.Background(), testChain("base"), big.NewInt(1))
			require.Error(t, result.Err)
			assert.ErrorIs(t, result.Err, tt.wantErr)
			assert.False(t, result.Succeeded)
		})
	}
}

func TestUpdateReceiptTimeout(t *testing.T) {
	stub := healthyStub()
	stub.pendingPolls = -1 // receipt never appears

	sig, err := signer.FromHex(testKeyHex)
	require.NoError(t, err)
	sub := New(sig, sig.Address(), Options{
		GasLimit:       200000,
		ReceiptTimeout: 30 * time.Millisecond,
		PollInterval:   5 * time.Millisecond,
	}).WithDial(func(ctx context.Context, rawurl string) (Client, error) {
		return stub, nil
	})

	result := sub.Update(context.Background(), testChain("base"), big.NewInt(1))
	require.Error(t, result.Err)
	assert.ErrorIs(t, result.Err, ErrReceiptTimeout)
	assert.Greater(t, stub.polls, 0)
}

func TestUpdateWaitsThroughPendingPolls(t *testing.T) {
	stub := healthyStub()
	stub.pendingPolls = 3

	sub := testSubmitter(t, func(ctx context.Context, rawurl string) (Client, error) {
		return stub, nil
	})

	result := sub.Update(context.Background(), testChain("base"), big.NewInt(1))
	require.NoError(t, result.Err)
	assert.True(t, result.Succeeded)
	assert.Equal(t, 4, stub.polls)
}

func TestUpdateDryRun(t *testing.T) {
	stub := healthyStub()
	sig, err := signer.FromHex(testKeyHex)
	require.NoError(t, err)
	sub := New(sig, sig.Address(), Options{DryRun: true}).
		WithDial(func(ctx context.Context, rawurl string) (Client, error) {
			return stub, nil
		})

	result := sub.Update(context.Background(), testChain("base"), big.NewInt(1))
	require.NoError(t, result.Err)
	assert.True(t, result.DryRun)
	assert.NotEqual(t, common.Hash{}, result.TxHash)
	assert.Empty(t, stub.sent)
	assert.Zero(t, stub.polls)
}

func TestReceiptReverted(t *testing.T) {
	stub := healthyStub()
	stub.receipt.Status = types.ReceiptStatusFailed

	sub := testSubmitter(t, func(ctx context.Context, rawurl string) (Client, error) {
		return stub, nil
	})

	result := sub.Update(context.Background(), testChain("base"), big.NewInt(1))
	require.NoError(t, result.Err)
	assert.False(t, result.Succeeded)
	assert.Equal(t, uint64(7), result.BlockNumber)
}
