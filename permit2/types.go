package permit2

import (
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"github.com/permitx/settle/errors"
)

// TokenPermissions declares a single token the signer allows to be pulled
// and the maximum amount for that leg.
type TokenPermissions struct {
	Token  common.Address
	Amount *big.Int
}

// Validate makes sure that this is sensible.
func (p TokenPermissions) Validate() error {
	var err error
	if p.Token == (common.Address{}) {
		err = errors.AppendField(err, "Token", errors.ErrEmpty)
	}
	err = errors.AppendField(err, "Amount", validateUint256(p.Amount))
	return err
}

// SignatureTransferDetails instructs the primitive where to send one leg of
// a batch and how much of the paired permission to use.
type SignatureTransferDetails struct {
	To              common.Address
	RequestedAmount *big.Int
}

// Validate makes sure that this is sensible.
func (d SignatureTransferDetails) Validate() error {
	var err error
	if d.To == (common.Address{}) {
		err = errors.AppendField(err, "To", errors.ErrEmpty)
	}
	err = errors.AppendField(err, "RequestedAmount", validateUint256(d.RequestedAmount))
	return err
}

// PermitBatchTransferFrom is the signed declaration of a batch: the ordered
// token permissions, a signer chosen one time nonce and the expiry of the
// whole authorization.
type PermitBatchTransferFrom struct {
	Permitted []TokenPermissions
	Nonce     *big.Int
	Deadline  *big.Int
}

// Validate makes sure that this is sensible.
func (p PermitBatchTransferFrom) Validate() error {
	var err error
	if len(p.Permitted) == 0 {
		err = errors.AppendField(err, "Permitted", errors.ErrEmpty)
	}
	for i, perm := range p.Permitted {
		err = errors.AppendField(err, "Permitted."+strconv.Itoa(i), perm.Validate())
	}
	err = errors.AppendField(err, "Nonce", validateUint256(p.Nonce))
	err = errors.AppendField(err, "Deadline", validateUint256(p.Deadline))
	return err
}

func validateUint256(n *big.Int) error {
	if n == nil {
		return errors.Wrap(errors.ErrEmpty, "not set")
	}
	if n.Sign() < 0 {
		return errors.Wrap(errors.ErrInput, "must be an unsigned value")
	}
	if n.BitLen() > 256 {
		return errors.Wrap(errors.ErrOverflow, "exceeds 256 bits")
	}
	return nil
}
