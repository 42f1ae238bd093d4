// Package settletest provides helpers for testing the settlement core:
// throwaway signer keys, an order builder/signer that produces exactly the
// digest the primitive verifies, and a recording SignatureTransfer fake.
package settletest

import (
	"crypto/ecdsa"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/permitx/settle/order"
	"github.com/permitx/settle/permit2"
	"github.com/permitx/settle/witness"
)

// NewKey returns a fresh secp256k1 private key.
func NewKey(t testing.TB) *ecdsa.PrivateKey {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("cannot generate key: %s", err)
	}
	return key
}

// Addr derives the address of a private key.
func Addr(key *ecdsa.PrivateKey) common.Address {
	return crypto.PubkeyToAddress(key.PublicKey)
}

// SignDetail signs an order detail the way an owner does off-line: it
// rebuilds the witness bound digest for the given domain and spender and
// produces a 65 byte r||s||v signature.
func SignDetail(t testing.TB, key *ecdsa.PrivateKey, domain common.Hash, spender common.Address, detail *order.Detail) []byte {
	t.Helper()
	structHash := permit2.BatchWitnessStructHash(
		detail.Permit,
		spender,
		detail.Witness.Commit(),
		witness.TypeHash(),
	)
	digest := permit2.TypedDataDigest(domain, structHash)
	sig, err := crypto.Sign(digest.Bytes(), key)
	if err != nil {
		t.Fatalf("cannot sign digest: %s", err)
	}
	return sig
}

// NewOrder encodes and signs a detail, returning the complete envelope
// ready for submission.
func NewOrder(t testing.TB, key *ecdsa.PrivateKey, domain common.Hash, spender common.Address, detail *order.Detail) *order.Order {
	t.Helper()
	raw, err := detail.Encode()
	if err != nil {
		t.Fatalf("cannot encode detail: %s", err)
	}
	return &order.Order{
		OrderBytes: raw,
		Signature:  SignDetail(t, key, domain, spender, detail),
	}
}

// Amount is a shortcut for the big integer amounts used all over the tests.
func Amount(n int64) *big.Int {
	return big.NewInt(n)
}
