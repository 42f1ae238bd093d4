// Package settlement orchestrates the execution of signed orders.
//
// The engine decodes an incoming order, recomputes the witness commitment,
// delegates verification and balance movement to the signature transfer
// primitive and keeps its own independent replay record. Every execution is
// all or nothing: state is mutated through a cache wrap that is only
// written once the whole order settled.
package settlement

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/permitx/settle/errors"
	"github.com/permitx/settle/nonce"
	"github.com/permitx/settle/order"
	"github.com/permitx/settle/permit2"
	"github.com/permitx/settle/store"
	"github.com/permitx/settle/witness"
)

// settledKeyPrefix separates the engine's replay records from the
// primitive's signature layer bitmaps within the same store.
const settledKeyPrefix = "settled"

// Engine is the settlement entry point. It is safe for concurrent use:
// executions are serialized, which guarantees that of two submissions
// racing for the same (owner, nonce) exactly one settles and the other
// deterministically fails with ErrInvalidNonce.
type Engine struct {
	mu       sync.Mutex
	db       store.CacheableKVStore
	transfer permit2.SignatureTransfer
	// settler is bound into every signed digest as the spender, scoping
	// signatures to this settlement deployment.
	settler common.Address
	settled *nonce.Bitmap
}

// NewEngine returns an engine settling orders against the given store
// through the given signature transfer primitive.
func NewEngine(db store.CacheableKVStore, transfer permit2.SignatureTransfer, settler common.Address) *Engine {
	return &Engine{
		db:       db,
		transfer: transfer,
		settler:  settler,
		settled:  nonce.NewBitmap(settledKeyPrefix),
	}
}

// ExecuteBytes settles a transport encoded order envelope.
func (e *Engine) ExecuteBytes(raw []byte) error {
	ord, err := order.Unmarshal(raw)
	if err != nil {
		return err
	}
	return e.Execute(ord)
}

// Execute settles a single order. It either fully commits, moving every
// transfer leg and consuming the order nonce, or leaves all state exactly
// as before the call and reports one of the protocol errors:
// ErrMalformedOrder, ErrLengthMismatch, ErrExpired, ErrInvalidSignature,
// ErrInvalidNonce or ErrAllowance.
func (e *Engine) Execute(ord *order.Order) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	detail, err := order.Decode(ord.OrderBytes)
	if err != nil {
		return err
	}
	if err := detail.Validate(); err != nil {
		return errors.Wrap(errors.ErrMalformedOrder, err.Error())
	}

	// The engine's own replay record rejects an already settled order
	// before any signature work happens. This is independent from the
	// nonce handling inside the primitive.
	used, err := e.settled.IsUsed(e.db, detail.Owner, detail.Permit.Nonce)
	if err != nil {
		return err
	}
	if used {
		return errors.Wrapf(errors.ErrInvalidNonce, "order nonce %s already settled", detail.Permit.Nonce)
	}

	// The witness commitment is always derived from the structured
	// witness value, never taken from the caller.
	witnessHash := detail.Witness.Commit()

	cache := e.db.CacheWrap()
	err = e.transfer.PermitWitnessTransferFrom(
		cache,
		detail.Permit,
		detail.Transfers,
		detail.Owner,
		e.settler,
		witnessHash,
		witness.TypeDescriptor,
		ord.Signature,
	)
	if err != nil {
		cache.Discard()
		return err
	}
	if err := e.settled.MarkUsed(cache, detail.Owner, detail.Permit.Nonce); err != nil {
		cache.Discard()
		return err
	}
	cache.Write()
	return nil
}

// Settled reports whether the engine already settled an order with the
// given owner and nonce.
func (e *Engine) Settled(owner common.Address, n *big.Int) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settled.IsUsed(e.db, owner, n)
}
