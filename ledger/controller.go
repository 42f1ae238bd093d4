// Package ledger keeps token balances in a KVStore.
//
// This is the token accounting collaborator of the settlement core. The
// engine itself never touches balances directly, it only observes the
// ledger through the signature transfer primitive. This implementation is
// intentionally minimal: balances per (token, account), mint for fixtures
// and a transfer that fails on insufficient funds.
package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/permitx/settle/errors"
	"github.com/permitx/settle/store"
)

var keyPrefix = []byte("bal:")

// Controller exposes the ledger operations behind an injectable value, for
// collaborators that take the token accounting as an interface.
type Controller struct{}

// Balance returns the amount of token held by the account.
func (Controller) Balance(db store.KVStore, token, account common.Address) *big.Int {
	return Balance(db, token, account)
}

// Mint adds the given amount of token to the destination account.
func (Controller) Mint(db store.KVStore, token, dest common.Address, amount *big.Int) error {
	return Mint(db, token, dest, amount)
}

// Transfer moves the given amount of token from src to dest.
func (Controller) Transfer(db store.KVStore, token, src, dest common.Address, amount *big.Int) error {
	return Transfer(db, token, src, dest, amount)
}

// Balance returns the amount of token held by the account. Missing accounts
// hold zero.
func Balance(db store.KVStore, token, account common.Address) *big.Int {
	raw := db.Get(key(token, account))
	if raw == nil {
		return new(big.Int)
	}
	return new(big.Int).SetBytes(raw)
}

// Mint adds the given amount of token to the destination account. Use this
// to set up initial balances.
func Mint(db store.KVStore, token, dest common.Address, amount *big.Int) error {
	if err := validAmount(amount); err != nil {
		return err
	}
	balance := Balance(db, token, dest)
	balance.Add(balance, amount)
	setBalance(db, token, dest, balance)
	return nil
}

// Transfer moves the given amount of token from src to dest. It fails with
// ErrInsufficientFunds when src does not hold enough. A zero amount transfer
// is valid and leaves both balances unchanged.
func Transfer(db store.KVStore, token, src, dest common.Address, amount *big.Int) error {
	if err := validAmount(amount); err != nil {
		return err
	}

	from := Balance(db, token, src)
	if from.Cmp(amount) < 0 {
		return errors.Wrapf(errors.ErrInsufficientFunds, "hold %s, need %s", from, amount)
	}
	from.Sub(from, amount)
	setBalance(db, token, src, from)

	to := Balance(db, token, dest)
	to.Add(to, amount)
	setBalance(db, token, dest, to)
	return nil
}

func setBalance(db store.KVStore, token, account common.Address, balance *big.Int) {
	db.Set(key(token, account), balance.Bytes())
}

func key(token, account common.Address) []byte {
	k := make([]byte, 0, len(keyPrefix)+2*common.AddressLength)
	k = append(k, keyPrefix...)
	k = append(k, token.Bytes()...)
	k = append(k, account.Bytes()...)
	return k
}

func validAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return errors.Wrap(errors.ErrInput, "amount must be an unsigned value")
	}
	return nil
}
