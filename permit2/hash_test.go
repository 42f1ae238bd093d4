package permit2

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

func TestWitnessTypeHashIsDeterministic(t *testing.T) {
	a := WitnessTypeHash("MyWitness witness)MyWitness(address pilot)")
	b := WitnessTypeHash("MyWitness witness)MyWitness(address pilot)")
	c := WitnessTypeHash("MyWitness witness)MyWitness(address copilot)")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestDomainSeparatorScoping(t *testing.T) {
	contract := common.HexToAddress("0x00000000000000000000000000000000000000cc")
	other := common.HexToAddress("0x00000000000000000000000000000000000000dd")

	base := NewDomainSeparator(big.NewInt(1), contract)

	assert.Equal(t, base, NewDomainSeparator(big.NewInt(1), contract))
	assert.NotEqual(t, base, NewDomainSeparator(big.NewInt(5), contract),
		"a different chain must produce a different domain")
	assert.NotEqual(t, base, NewDomainSeparator(big.NewInt(1), other),
		"a different deployment must produce a different domain")
}

func TestStructHashSensitivity(t *testing.T) {
	permit := PermitBatchTransferFrom{
		Permitted: []TokenPermissions{
			{Token: common.HexToAddress("0xaa"), Amount: big.NewInt(1)},
		},
		Nonce:    big.NewInt(7),
		Deadline: big.NewInt(1000),
	}
	spender := common.HexToAddress("0x01")
	witnessHash := common.HexToHash("0x02")
	typeHash := WitnessTypeHash("W witness)W(address r)")

	base := BatchWitnessStructHash(permit, spender, witnessHash, typeHash)

	// Unchanged input reproduces the hash.
	assert.Equal(t, base, BatchWitnessStructHash(permit, spender, witnessHash, typeHash))

	// Every bound component changes the hash.
	assert.NotEqual(t, base, BatchWitnessStructHash(permit, common.HexToAddress("0x99"), witnessHash, typeHash))
	assert.NotEqual(t, base, BatchWitnessStructHash(permit, spender, common.HexToHash("0x99"), typeHash))
	assert.NotEqual(t, base, BatchWitnessStructHash(permit, spender, witnessHash, WitnessTypeHash("other")))

	changed := permit
	changed.Nonce = big.NewInt(8)
	assert.NotEqual(t, base, BatchWitnessStructHash(changed, spender, witnessHash, typeHash))

	changed = permit
	changed.Permitted = []TokenPermissions{
		{Token: common.HexToAddress("0xaa"), Amount: big.NewInt(2)},
	}
	assert.NotEqual(t, base, BatchWitnessStructHash(changed, spender, witnessHash, typeHash))
}

func TestTypedDataDigestPrefix(t *testing.T) {
	domain := common.HexToHash("0x01")
	structHash := common.HexToHash("0x02")

	digest := TypedDataDigest(domain, structHash)

	assert.NotEqual(t, digest, TypedDataDigest(structHash, domain),
		"domain and struct hash are not interchangeable")
}

func TestTokenPermissionsHash(t *testing.T) {
	a := hashTokenPermissions(TokenPermissions{
		Token:  common.HexToAddress("0xaa"),
		Amount: big.NewInt(1),
	})
	b := hashTokenPermissions(TokenPermissions{
		Token:  common.HexToAddress("0xaa"),
		Amount: big.NewInt(2),
	})
	assert.NotEqual(t, a, b)
}
