package ledger

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/permitx/settle/errors"
	"github.com/permitx/settle/store"
)

var (
	tokenA = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	tokenB = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	alice  = common.HexToAddress("0x0000000000000000000000000000000000000001")
	bob    = common.HexToAddress("0x0000000000000000000000000000000000000002")
)

func TestMintAndBalance(t *testing.T) {
	db := store.MemStore()

	assert.Equal(t, int64(0), Balance(db, tokenA, alice).Int64())

	require.NoError(t, Mint(db, tokenA, alice, big.NewInt(100)))
	require.NoError(t, Mint(db, tokenA, alice, big.NewInt(11)))

	assert.Equal(t, int64(111), Balance(db, tokenA, alice).Int64())

	// Balances are kept per token.
	assert.Equal(t, int64(0), Balance(db, tokenB, alice).Int64())
}

func TestTransfer(t *testing.T) {
	db := store.MemStore()
	require.NoError(t, Mint(db, tokenA, alice, big.NewInt(5)))

	require.NoError(t, Transfer(db, tokenA, alice, bob, big.NewInt(2)))

	assert.Equal(t, int64(3), Balance(db, tokenA, alice).Int64())
	assert.Equal(t, int64(2), Balance(db, tokenA, bob).Int64())
}

func TestTransferInsufficientFunds(t *testing.T) {
	db := store.MemStore()
	require.NoError(t, Mint(db, tokenA, alice, big.NewInt(1)))

	err := Transfer(db, tokenA, alice, bob, big.NewInt(2))
	assert.True(t, errors.ErrInsufficientFunds.Is(err), "want ErrInsufficientFunds, got %+v", err)

	// Nothing moved.
	assert.Equal(t, int64(1), Balance(db, tokenA, alice).Int64())
	assert.Equal(t, int64(0), Balance(db, tokenA, bob).Int64())
}

func TestTransferZeroAmount(t *testing.T) {
	db := store.MemStore()

	require.NoError(t, Transfer(db, tokenA, alice, bob, big.NewInt(0)))

	assert.Equal(t, int64(0), Balance(db, tokenA, alice).Int64())
	assert.Equal(t, int64(0), Balance(db, tokenA, bob).Int64())
}

func TestInvalidAmounts(t *testing.T) {
	db := store.MemStore()

	err := Mint(db, tokenA, alice, nil)
	assert.True(t, errors.ErrInput.Is(err), "want ErrInput, got %+v", err)

	err = Transfer(db, tokenA, alice, bob, big.NewInt(-1))
	assert.True(t, errors.ErrInput.Is(err), "want ErrInput, got %+v", err)
}

func TestTransferToSelf(t *testing.T) {
	db := store.MemStore()
	require.NoError(t, Mint(db, tokenA, alice, big.NewInt(7)))

	require.NoError(t, Transfer(db, tokenA, alice, alice, big.NewInt(7)))
	assert.Equal(t, int64(7), Balance(db, tokenA, alice).Int64())
}
