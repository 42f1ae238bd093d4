package settletest

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/permitx/settle/permit2"
	"github.com/permitx/settle/store"
)

// SignatureTransfer is a recording permit2.SignatureTransfer fake. It
// performs no verification: it counts calls, captures the last arguments
// and returns the configured error.
type SignatureTransfer struct {
	Domain common.Hash
	Err    error

	calls int

	LastPermit     permit2.PermitBatchTransferFrom
	LastTransfers  []permit2.SignatureTransferDetails
	LastOwner      common.Address
	LastSpender    common.Address
	LastWitness    common.Hash
	LastTypeString string
	LastSignature  []byte
}

var _ permit2.SignatureTransfer = (*SignatureTransfer)(nil)

func (f *SignatureTransfer) DomainSeparator() common.Hash {
	return f.Domain
}

func (f *SignatureTransfer) PermitWitnessTransferFrom(
	db store.KVStore,
	permit permit2.PermitBatchTransferFrom,
	transfers []permit2.SignatureTransferDetails,
	owner common.Address,
	spender common.Address,
	witness common.Hash,
	witnessTypeString string,
	sig []byte,
) error {
	f.calls++
	f.LastPermit = permit
	f.LastTransfers = transfers
	f.LastOwner = owner
	f.LastSpender = spender
	f.LastWitness = witness
	f.LastTypeString = witnessTypeString
	f.LastSignature = sig
	return f.Err
}

// CallCount returns how many times the primitive was invoked.
func (f *SignatureTransfer) CallCount() int {
	return f.calls
}
