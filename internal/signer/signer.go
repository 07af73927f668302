// Package signer owns the transaction signing key for the lifetime of a run.
// The key is loaded once, lives only in process memory, and leaves it only
// inside signed payloads.
package signer

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signer signs transactions with a secp256k1 key.
type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// FromHex loads a signer from a 32-byte hex secret, with or without the
// 0x prefix. The error never echoes the key material.
func FromHex(hexKey string) (*Signer, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	key, err := crypto.HexToECDSA(trimmed)
	if err != nil {
		return nil, fmt.Errorf("invalid signing key: %w", err)
	}
	return &Signer{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// Address returns the account derived from the signing key.
func (s *Signer) Address() common.Address {
	return s.address
}

// SignTx signs a transaction for the given chain id.
func (s *Signer) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	if chainID == nil || chainID.Sign() <= 0 {
		return nil, fmt.Errorf("invalid chain id: %v", chainID)
	}
	return types.SignTx(tx, types.NewLondonSigner(chainID), s.key)
}

// String redacts the key; only the derived address is printable.
func (s *Signer) String() string {
	return "signer(" + s.address.Hex() + ")"
}
