package permit2

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// The type strings below are protocol constants shared by signers and the
// verifier. Changing any of them changes every signed digest and therefore
// is a breaking protocol version.
const (
	// TokenPermissionsTypeString describes a single token permission leg.
	TokenPermissionsTypeString = "TokenPermissions(address token,uint256 amount)"

	// PermitBatchWitnessTypeStub is the opening fragment of the composite
	// batch-with-witness type. The application appends its witness type
	// descriptor to complete it, which folds the witness schema into the
	// signed digest.
	PermitBatchWitnessTypeStub = "PermitBatchWitnessTransferFrom(TokenPermissions[] permitted,address spender,uint256 nonce,uint256 deadline,"

	domainTypeString = "EIP712Domain(string name,uint256 chainId,address verifyingContract)"

	// domainName scopes all signatures to this primitive.
	domainName = "Permit2"
)

var (
	tokenPermissionsTypeHash = crypto.Keccak256Hash([]byte(TokenPermissionsTypeString))
	domainTypeHash           = crypto.Keccak256Hash([]byte(domainTypeString))
	domainNameHash           = crypto.Keccak256Hash([]byte(domainName))
)

// WitnessTypeHash returns the hash of the full composite type string built
// from the batch stub and the application supplied witness type descriptor.
func WitnessTypeHash(witnessTypeString string) common.Hash {
	return crypto.Keccak256Hash([]byte(PermitBatchWitnessTypeStub), []byte(witnessTypeString))
}

// NewDomainSeparator computes the domain separator scoping signatures to one
// deployment of the primitive on one network.
func NewDomainSeparator(chainID *big.Int, verifyingContract common.Address) common.Hash {
	return crypto.Keccak256Hash(
		domainTypeHash.Bytes(),
		domainNameHash.Bytes(),
		uint256Bytes(chainID),
		addressBytes(verifyingContract),
	)
}

// hashTokenPermissions hashes a single permission leg with its canonical
// struct encoding.
func hashTokenPermissions(p TokenPermissions) common.Hash {
	return crypto.Keccak256Hash(
		tokenPermissionsTypeHash.Bytes(),
		addressBytes(p.Token),
		uint256Bytes(p.Amount),
	)
}

// BatchWitnessStructHash computes the struct hash of a batch permit bound to
// the given spender and witness commitment. witnessTypeHash must be the hash
// of the composite type string (see WitnessTypeHash).
func BatchWitnessStructHash(permit PermitBatchTransferFrom, spender common.Address, witnessHash, witnessTypeHash common.Hash) common.Hash {
	permitted := make([]byte, 0, len(permit.Permitted)*common.HashLength)
	for _, p := range permit.Permitted {
		h := hashTokenPermissions(p)
		permitted = append(permitted, h.Bytes()...)
	}

	return crypto.Keccak256Hash(
		witnessTypeHash.Bytes(),
		crypto.Keccak256(permitted),
		addressBytes(spender),
		uint256Bytes(permit.Nonce),
		uint256Bytes(permit.Deadline),
		witnessHash.Bytes(),
	)
}

// TypedDataDigest builds the final digest the owner signs, binding the
// struct hash to a deployment through its domain separator.
func TypedDataDigest(domainSeparator common.Hash, structHash common.Hash) common.Hash {
	return crypto.Keccak256Hash(
		[]byte{0x19, 0x01},
		domainSeparator.Bytes(),
		structHash.Bytes(),
	)
}

// uint256Bytes encodes an unsigned integer into the canonical 32 byte slot.
// Values are validated before hashing, a nil is encoded as zero.
func uint256Bytes(n *big.Int) []byte {
	if n == nil {
		return make([]byte, 32)
	}
	return common.LeftPadBytes(n.Bytes(), 32)
}

// addressBytes encodes an address into the canonical 32 byte slot.
func addressBytes(a common.Address) []byte {
	return common.LeftPadBytes(a.Bytes(), 32)
}
