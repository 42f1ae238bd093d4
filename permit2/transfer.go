// Package permit2 models the signature transfer primitive the settlement
// engine delegates to: typed data digest reconstruction, signature recovery,
// signature level replay protection and the actual balance movement.
//
// The engine only depends on the SignatureTransfer interface. StateTransfer
// is an in-process reference implementation backed by a Ledger, used in
// tests and in deployments that keep all state locally. The canonical
// hashing rules in this package are shared with order producers, so both
// sides always derive the same digest.
package permit2

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/permitx/settle/errors"
	"github.com/permitx/settle/nonce"
	"github.com/permitx/settle/store"
)

// SignatureTransfer verifies a signed batch permit and atomically moves the
// declared amounts from the owner to the declared recipients. Implementations
// keep their own per signer nonce bitmaps, so a permit can never be replayed
// at the signature layer either.
type SignatureTransfer interface {
	// DomainSeparator returns the digest scope of this deployment. Order
	// producers need it to sign compatible permits.
	DomainSeparator() common.Hash

	// PermitWitnessTransferFrom verifies the owner signature over the
	// permit extended with the application witness, consumes the permit
	// nonce and executes every transfer leg. All state mutations happen
	// against db, so a cache wrapped store gives the caller all or
	// nothing semantics.
	PermitWitnessTransferFrom(
		db store.KVStore,
		permit PermitBatchTransferFrom,
		transfers []SignatureTransferDetails,
		owner common.Address,
		spender common.Address,
		witness common.Hash,
		witnessTypeString string,
		sig []byte,
	) error
}

// Ledger is the token accounting the primitive settles against.
type Ledger interface {
	Transfer(db store.KVStore, token, src, dest common.Address, amount *big.Int) error
}

// nonceKeyPrefix separates the primitive's replay records from any other
// bitmap kept in the same store.
const nonceKeyPrefix = "permit2"

// StateTransfer is the reference SignatureTransfer implementation.
type StateTransfer struct {
	domain common.Hash
	nonces *nonce.Bitmap
	ledger Ledger

	// Now returns the current time for deadline checks. Leave nil to use
	// the wall clock.
	Now func() time.Time
}

var _ SignatureTransfer = (*StateTransfer)(nil)

// NewStateTransfer returns a primitive scoped to the given chain and
// verifying contract address, settling balances through the given ledger.
func NewStateTransfer(chainID *big.Int, contract common.Address, ledger Ledger) *StateTransfer {
	return &StateTransfer{
		domain: NewDomainSeparator(chainID, contract),
		nonces: nonce.NewBitmap(nonceKeyPrefix),
		ledger: ledger,
	}
}

// DomainSeparator returns the digest scope of this deployment.
func (st *StateTransfer) DomainSeparator() common.Hash {
	return st.domain
}

// PermitWitnessTransferFrom implements SignatureTransfer.
func (st *StateTransfer) PermitWitnessTransferFrom(
	db store.KVStore,
	permit PermitBatchTransferFrom,
	transfers []SignatureTransferDetails,
	owner common.Address,
	spender common.Address,
	witness common.Hash,
	witnessTypeString string,
	sig []byte,
) error {
	if err := permit.Validate(); err != nil {
		return errors.Wrap(err, "permit")
	}
	if len(transfers) != len(permit.Permitted) {
		return errors.Wrapf(errors.ErrLengthMismatch,
			"%d permissions, %d transfer details", len(permit.Permitted), len(transfers))
	}
	for i, tr := range transfers {
		if err := tr.Validate(); err != nil {
			return errors.Wrapf(err, "transfer %d", i)
		}
		if tr.RequestedAmount.Cmp(permit.Permitted[i].Amount) > 0 {
			return errors.Wrapf(errors.ErrAllowance,
				"leg %d requests %s, permitted %s", i, tr.RequestedAmount, permit.Permitted[i].Amount)
		}
	}

	if deadline := permit.Deadline; big.NewInt(st.now().Unix()).Cmp(deadline) > 0 {
		return errors.Wrapf(errors.ErrExpired, "deadline %s", deadline)
	}

	if witnessTypeString == "" {
		return errors.Wrap(errors.ErrEmpty, "witness type string")
	}
	structHash := BatchWitnessStructHash(permit, spender, witness, WitnessTypeHash(witnessTypeString))
	digest := TypedDataDigest(st.domain, structHash)

	signer, err := recoverSigner(digest, sig)
	if err != nil {
		return err
	}
	if signer != owner {
		return errors.Wrapf(errors.ErrInvalidSignature, "recovered %s, want %s", signer, owner)
	}

	if err := st.nonces.MarkUsed(db, owner, permit.Nonce); err != nil {
		return err
	}

	for i, tr := range transfers {
		token := permit.Permitted[i].Token
		if err := st.ledger.Transfer(db, token, owner, tr.To, tr.RequestedAmount); err != nil {
			return errors.Wrapf(err, "leg %d", i)
		}
	}
	return nil
}

// InvalidateUnorderedNonces lets an owner proactively cancel up to 256
// outstanding nonces by marking mask bits of the given word as used.
// Authentication of the owner is the caller's concern.
func (st *StateTransfer) InvalidateUnorderedNonces(db store.KVStore, owner common.Address, wordPos, mask *big.Int) error {
	return st.nonces.InvalidateWord(db, owner, wordPos, mask)
}

// NonceUsed reports whether the given permit nonce was already consumed at
// the signature layer.
func (st *StateTransfer) NonceUsed(db store.KVStore, owner common.Address, n *big.Int) (bool, error) {
	return st.nonces.IsUsed(db, owner, n)
}

func (st *StateTransfer) now() time.Time {
	if st.Now != nil {
		return st.Now()
	}
	return time.Now()
}

// recoverSigner runs ECDSA public key recovery over a 65 byte r||s||v
// signature. Both the legacy 27/28 and the raw 0/1 recovery id forms are
// accepted. Anything else is an invalid signature.
func recoverSigner(digest common.Hash, sig []byte) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, errors.Wrapf(errors.ErrInvalidSignature,
			"signature must be %d bytes, got %d", crypto.SignatureLength, len(sig))
	}
	v := sig[crypto.RecoveryIDOffset]
	if v >= 27 {
		v -= 27
	}
	if v > 1 {
		return common.Address{}, errors.Wrap(errors.ErrInvalidSignature, "invalid recovery id")
	}

	normalized := make([]byte, crypto.SignatureLength)
	copy(normalized, sig)
	normalized[crypto.RecoveryIDOffset] = v

	pub, err := crypto.SigToPub(digest.Bytes(), normalized)
	if err != nil {
		return common.Address{}, errors.Wrap(errors.ErrInvalidSignature, err.Error())
	}
	return crypto.PubkeyToAddress(*pub), nil
}
