package nonce

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/permitx/settle/errors"
	"github.com/permitx/settle/store"
)

func TestMarkAndCheck(t *testing.T) {
	db := store.MemStore()
	bm := NewBitmap("settled")
	owner := common.HexToAddress("0x0000000000000000000000000000000000000001")

	used, err := bm.IsUsed(db, owner, big.NewInt(7))
	require.NoError(t, err)
	assert.False(t, used)

	require.NoError(t, bm.MarkUsed(db, owner, big.NewInt(7)))

	used, err = bm.IsUsed(db, owner, big.NewInt(7))
	require.NoError(t, err)
	assert.True(t, used)

	// Neighbours within the same word are unaffected.
	used, err = bm.IsUsed(db, owner, big.NewInt(8))
	require.NoError(t, err)
	assert.False(t, used)

	// Same bit position in the next word is unaffected.
	used, err = bm.IsUsed(db, owner, big.NewInt(7+256))
	require.NoError(t, err)
	assert.False(t, used)
}

func TestDoubleMarkFails(t *testing.T) {
	db := store.MemStore()
	bm := NewBitmap("settled")
	owner := common.HexToAddress("0x0000000000000000000000000000000000000002")

	require.NoError(t, bm.MarkUsed(db, owner, big.NewInt(42)))

	err := bm.MarkUsed(db, owner, big.NewInt(42))
	assert.True(t, errors.ErrInvalidNonce.Is(err), "want ErrInvalidNonce, got %+v", err)
}

func TestHighNonces(t *testing.T) {
	db := store.MemStore()
	bm := NewBitmap("settled")
	owner := common.HexToAddress("0x0000000000000000000000000000000000000003")

	// A 256 bit nonce (the maximum width) is handled.
	high := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	require.NoError(t, bm.MarkUsed(db, owner, high))
	used, err := bm.IsUsed(db, owner, high)
	require.NoError(t, err)
	assert.True(t, used)

	// Anything wider is rejected before touching the store.
	tooBig := new(big.Int).Lsh(big.NewInt(1), 256)
	err = bm.MarkUsed(db, owner, tooBig)
	assert.True(t, errors.ErrOverflow.Is(err), "want ErrOverflow, got %+v", err)
}

func TestInvalidNonceInput(t *testing.T) {
	db := store.MemStore()
	bm := NewBitmap("settled")
	owner := common.HexToAddress("0x0000000000000000000000000000000000000004")

	err := bm.MarkUsed(db, owner, nil)
	assert.True(t, errors.ErrInput.Is(err), "want ErrInput, got %+v", err)

	err = bm.MarkUsed(db, owner, big.NewInt(-1))
	assert.True(t, errors.ErrInput.Is(err), "want ErrInput, got %+v", err)
}

func TestOwnersAreIndependent(t *testing.T) {
	db := store.MemStore()
	bm := NewBitmap("settled")
	alice := common.HexToAddress("0x0000000000000000000000000000000000000005")
	bob := common.HexToAddress("0x0000000000000000000000000000000000000006")

	require.NoError(t, bm.MarkUsed(db, alice, big.NewInt(1)))

	used, err := bm.IsUsed(db, bob, big.NewInt(1))
	require.NoError(t, err)
	assert.False(t, used)
}

func TestPrefixesAreIndependent(t *testing.T) {
	db := store.MemStore()
	engine := NewBitmap("settled")
	primitive := NewBitmap("permit2")
	owner := common.HexToAddress("0x0000000000000000000000000000000000000007")

	require.NoError(t, engine.MarkUsed(db, owner, big.NewInt(9)))

	used, err := primitive.IsUsed(db, owner, big.NewInt(9))
	require.NoError(t, err)
	assert.False(t, used)
}

func TestInvalidateWord(t *testing.T) {
	db := store.MemStore()
	bm := NewBitmap("permit2")
	owner := common.HexToAddress("0x0000000000000000000000000000000000000008")

	// Cancel nonces 0 and 3 of word 0.
	mask := big.NewInt(0b1001)
	require.NoError(t, bm.InvalidateWord(db, owner, big.NewInt(0), mask))

	for nonce, want := range map[int64]bool{0: true, 1: false, 2: false, 3: true} {
		used, err := bm.IsUsed(db, owner, big.NewInt(nonce))
		require.NoError(t, err)
		assert.Equal(t, want, used, "nonce %d", nonce)
	}

	// Invalidated nonces cannot be consumed anymore.
	err := bm.MarkUsed(db, owner, big.NewInt(3))
	assert.True(t, errors.ErrInvalidNonce.Is(err), "want ErrInvalidNonce, got %+v", err)
}
