// Package nonce implements replay protection as per signer bitmaps of used
// one-time values.
//
// Signers pick arbitrary 256 bit nonces, so orders can be issued out of
// order and in parallel without a shared counter. Consuming nonce n touches
// only the word n>>8, bit n&0xff, which bounds storage to one 32 byte word
// per 256 used nonces. Words are created lazily and used bits are never
// cleared.
package nonce

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/permitx/settle/errors"
	"github.com/permitx/settle/store"
)

// wordBytes is the serialized size of a single bitmap word.
const wordBytes = 32

// Bitmap maintains per signer used-nonce words under a unique key prefix.
// Two Bitmap instances with different prefixes keep fully independent
// records within the same KVStore.
type Bitmap struct {
	prefix []byte
}

// NewBitmap returns a bitmap store writing under the given key prefix.
func NewBitmap(prefix string) *Bitmap {
	if prefix == "" {
		panic("nonce: empty bitmap prefix")
	}
	return &Bitmap{prefix: []byte(prefix + ":")}
}

// IsUsed returns true if the given nonce was already consumed for the owner.
func (b *Bitmap) IsUsed(db store.KVStore, owner common.Address, nonce *big.Int) (bool, error) {
	wordPos, bit, err := split(nonce)
	if err != nil {
		return false, err
	}
	word := b.loadWord(db, owner, wordPos)
	return word.Bit(bit) == 1, nil
}

// MarkUsed consumes the given nonce for the owner. It fails with
// ErrInvalidNonce if the bit is already set. The read and the write happen
// against the same store; callers requiring atomicity across concurrent
// submissions must serialize access (see settlement.Engine).
func (b *Bitmap) MarkUsed(db store.KVStore, owner common.Address, nonce *big.Int) error {
	wordPos, bit, err := split(nonce)
	if err != nil {
		return err
	}
	word := b.loadWord(db, owner, wordPos)
	if word.Bit(bit) == 1 {
		return errors.Wrapf(errors.ErrInvalidNonce, "nonce %s already used", nonce)
	}
	word.SetBit(word, bit, 1)
	b.storeWord(db, owner, wordPos, word)
	return nil
}

// InvalidateWord sets all mask bits of the given word, allowing a signer to
// proactively cancel up to 256 outstanding nonces in one operation. Already
// used bits within the mask are left as they are.
func (b *Bitmap) InvalidateWord(db store.KVStore, owner common.Address, wordPos *big.Int, mask *big.Int) error {
	if err := validateWordPos(wordPos); err != nil {
		return err
	}
	if mask == nil || mask.Sign() < 0 || mask.BitLen() > 256 {
		return errors.Wrap(errors.ErrInput, "mask must be an unsigned 256 bit value")
	}
	word := b.loadWord(db, owner, wordPos)
	word.Or(word, mask)
	b.storeWord(db, owner, wordPos, word)
	return nil
}

func (b *Bitmap) loadWord(db store.KVStore, owner common.Address, wordPos *big.Int) *big.Int {
	raw := db.Get(b.key(owner, wordPos))
	if raw == nil {
		return new(big.Int)
	}
	return new(big.Int).SetBytes(raw)
}

func (b *Bitmap) storeWord(db store.KVStore, owner common.Address, wordPos *big.Int, word *big.Int) {
	db.Set(b.key(owner, wordPos), common.LeftPadBytes(word.Bytes(), wordBytes))
}

// key is prefix | owner | wordPos, with wordPos left padded to its maximum
// width of 31 bytes so that keys are fixed length.
func (b *Bitmap) key(owner common.Address, wordPos *big.Int) []byte {
	key := make([]byte, 0, len(b.prefix)+common.AddressLength+31)
	key = append(key, b.prefix...)
	key = append(key, owner.Bytes()...)
	key = append(key, common.LeftPadBytes(wordPos.Bytes(), 31)...)
	return key
}

// split decomposes a nonce into its word position and bit index.
func split(nonce *big.Int) (wordPos *big.Int, bit int, err error) {
	if nonce == nil || nonce.Sign() < 0 {
		return nil, 0, errors.Wrap(errors.ErrInput, "nonce must be an unsigned value")
	}
	if nonce.BitLen() > 256 {
		return nil, 0, errors.Wrap(errors.ErrOverflow, "nonce exceeds 256 bits")
	}
	wordPos = new(big.Int).Rsh(nonce, 8)
	bit = int(new(big.Int).And(nonce, big.NewInt(0xff)).Uint64())
	return wordPos, bit, nil
}

func validateWordPos(wordPos *big.Int) error {
	if wordPos == nil || wordPos.Sign() < 0 {
		return errors.Wrap(errors.ErrInput, "word position must be an unsigned value")
	}
	if wordPos.BitLen() > 248 {
		return errors.Wrap(errors.ErrOverflow, "word position exceeds 248 bits")
	}
	return nil
}
