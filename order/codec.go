// Package order defines the authorized order payload and its wire codecs.
//
// The payload (order detail) is the value the owner actually authorizes via
// its digest. Its byte layout is a protocol constant fixed by the signing
// scheme, encoded with the canonical ABI tuple encoding. The outer envelope
// wrapping payload bytes and signature bytes is a protobuf message and is
// free to evolve independently.
package order

import (
	"strconv"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/permitx/settle/errors"
	"github.com/permitx/settle/permit2"
	"github.com/permitx/settle/witness"
)

// Detail is the decoded authorized order: the signed batch permit, one
// transfer instruction per permitted token, the owner whose balance is
// pulled and the witness the signature is bound to.
type Detail struct {
	Permit    permit2.PermitBatchTransferFrom
	Transfers []permit2.SignatureTransferDetails
	Owner     common.Address
	Witness   witness.Witness
}

// Validate makes sure that this is sensible. Deliberately no length
// comparison between permissions and transfers here: that mismatch is a
// distinct protocol error surfaced by the signature transfer primitive.
func (d *Detail) Validate() error {
	var err error
	err = errors.AppendField(err, "Permit", d.Permit.Validate())
	if len(d.Transfers) == 0 {
		err = errors.AppendField(err, "Transfers", errors.ErrEmpty)
	}
	for i, tr := range d.Transfers {
		err = errors.AppendField(err, "Transfers."+strconv.Itoa(i), tr.Validate())
	}
	if d.Owner == (common.Address{}) {
		err = errors.AppendField(err, "Owner", errors.ErrEmpty)
	}
	err = errors.AppendField(err, "Witness", d.Witness.Validate())
	return err
}

// Encode serializes the detail into its canonical opaque byte form.
func (d *Detail) Encode() ([]byte, error) {
	packed, err := orderArgs.Pack(*d)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	return packed, nil
}

// Decode deserializes an opaque payload into its typed form. Any layout that
// does not match the expected structure fails with ErrMalformedOrder.
func Decode(raw []byte) (*Detail, error) {
	if len(raw) == 0 {
		return nil, errors.Wrap(errors.ErrMalformedOrder, "empty payload")
	}
	vals, err := orderArgs.Unpack(raw)
	if err != nil {
		return nil, errors.Wrap(errors.ErrMalformedOrder, err.Error())
	}
	if len(vals) != 1 {
		return nil, errors.Wrap(errors.ErrMalformedOrder, "unexpected field count")
	}
	detail, err := convertDetail(vals[0])
	if err != nil {
		return nil, errors.Wrap(errors.ErrMalformedOrder, err.Error())
	}
	return detail, nil
}

func convertDetail(val interface{}) (_ *Detail, err error) {
	// ConvertType panics when the decoded anonymous tuple cannot be
	// mapped onto the typed struct.
	defer errors.Recover(&err)
	detail := abi.ConvertType(val, new(Detail)).(*Detail)
	return detail, nil
}

// orderArgs is the ABI argument list describing the full order detail as a
// single tuple. Built once at package initialization.
var orderArgs abi.Arguments

func init() {
	typ, err := abi.NewType("tuple", "", []abi.ArgumentMarshaling{
		{Name: "permit", Type: "tuple", Components: []abi.ArgumentMarshaling{
			{Name: "permitted", Type: "tuple[]", Components: []abi.ArgumentMarshaling{
				{Name: "token", Type: "address"},
				{Name: "amount", Type: "uint256"},
			}},
			{Name: "nonce", Type: "uint256"},
			{Name: "deadline", Type: "uint256"},
		}},
		{Name: "transfers", Type: "tuple[]", Components: []abi.ArgumentMarshaling{
			{Name: "to", Type: "address"},
			{Name: "requestedAmount", Type: "uint256"},
		}},
		{Name: "owner", Type: "address"},
		{Name: "witness", Type: "tuple", Components: []abi.ArgumentMarshaling{
			{Name: "recipient", Type: "address"},
		}},
	})
	if err != nil {
		panic(err)
	}
	orderArgs = abi.Arguments{{Name: "order", Type: typ}}
}
