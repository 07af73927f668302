package submit

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// editFeesABI is the only contract function the updater calls.
const editFeesABI = `[{
	"inputs": [
		{"internalType": "uint256", "name": "_joinFee", "type": "uint256"},
		{"internalType": "uint256", "name": "_savingFee", "type": "uint256"}
	],
	"name": "editFees",
	"outputs": [],
	"stateMutability": "nonpayable",
	"type": "function"
}]`

var feeABI = mustParseABI(editFeesABI)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic("submit: bad editFees ABI: " + err.Error())
	}
	return parsed
}

// PackEditFees encodes a call to editFees(joinFee, savingFee).
func PackEditFees(joinFee, savingFee *big.Int) ([]byte, error) {
	data, err := feeABI.Pack("editFees", joinFee, savingFee)
	if err != nil {
		return nil, fmt.Errorf("encoding editFees call: %w", err)
	}
	return data, nil
}

// UnpackEditFees decodes editFees call data back into (joinFee, savingFee).
// Used by tests to verify round-trip integrity of built transactions.
func UnpackEditFees(data []byte) (*big.Int, *big.Int, error) {
	if len(data) < 4 {
		return nil, nil, fmt.Errorf("call data too short: %d bytes", len(data))
	}
	method, err := feeABI.MethodById(data[:4])
	if err != nil {
		return nil, nil, err
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, nil, err
	}
	if len(args) != 2 {
		return nil, nil, fmt.Errorf("expected 2 arguments, got %d", len(args))
	}
	joinFee, ok := args[0].(*big.Int)
	if !ok {
		return nil, nil, fmt.Errorf("joinFee is not uint256")
	}
	savingFee, ok := args[1].(*big.Int)
	if !ok {
		return nil, nil, fmt.Errorf("savingFee is not uint256")
	}
	return joinFee, savingFee, nil
}
