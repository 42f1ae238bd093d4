// Package witness binds application data into the permit signature.
//
// The witness schema is appended to the primitive's base permit type, so the
// commitment of the witness value is part of the digest the owner signs. An
// intercepted permit can therefore never be redirected: any change to the
// witness invalidates the whole signature.
package witness

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/permitx/settle/errors"
	"github.com/permitx/settle/permit2"
)

// Version tags the witness schema. Both type strings below are protocol
// constants: changing either changes every signed digest, which is a
// breaking protocol change and must bump this version.
const Version = 1

// structTypeString describes the witness struct itself.
const structTypeString = "SettlementWitness(address recipient)"

// TypeDescriptor is the fragment appended to the primitive's batch type
// stub: the witness member declaration followed by all referenced struct
// types in alphabetical order.
const TypeDescriptor = "SettlementWitness witness)" +
	structTypeString +
	permit2.TokenPermissionsTypeString

var (
	structTypeHash = crypto.Keccak256Hash([]byte(structTypeString))

	// typeHash is the hash of the full composite type string, precomputed
	// once since the schema is fixed per deployment.
	typeHash = permit2.WitnessTypeHash(TypeDescriptor)
)

// TypeHash returns the hash of the composite batch-with-witness type string.
func TypeHash() common.Hash {
	return typeHash
}

// Witness is the application data bound into a permit signature: the
// designated recipient the signer authorized this order for.
type Witness struct {
	Recipient common.Address
}

// Validate makes sure that this is sensible.
func (w Witness) Validate() error {
	if w.Recipient == (common.Address{}) {
		return errors.Field("Recipient", errors.ErrEmpty, "")
	}
	return nil
}

// Commit hashes the witness fields with the same canonical struct encoding
// the primitive uses for permit hashing. The result is the value folded into
// the permit digest.
func (w Witness) Commit() common.Hash {
	return crypto.Keccak256Hash(
		structTypeHash.Bytes(),
		common.LeftPadBytes(w.Recipient.Bytes(), 32),
	)
}
