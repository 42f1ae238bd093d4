package order

import (
	"github.com/gogo/protobuf/proto"

	"github.com/permitx/settle/errors"
)

// Order is the envelope submitted for settlement: the opaque authorized
// payload bytes and the owner signature over its digest. The message is
// wire compatible with codec.proto and is marshaled through the protobuf
// runtime, see the struct tags.
type Order struct {
	OrderBytes []byte `protobuf:"bytes,1,opt,name=order_bytes,proto3" json:"order_bytes,omitempty"`
	Signature  []byte `protobuf:"bytes,2,opt,name=signature,proto3" json:"signature,omitempty"`
}

var _ proto.Message = (*Order)(nil)

func (m *Order) Reset()         { *m = Order{} }
func (m *Order) String() string { return proto.CompactTextString(m) }
func (*Order) ProtoMessage()    {}

// Marshal serializes the envelope for transport.
func Marshal(ord *Order) ([]byte, error) {
	raw, err := proto.Marshal(ord)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	return raw, nil
}

// Unmarshal parses a transport envelope. Bytes that are not a valid
// envelope fail with ErrMalformedOrder.
func Unmarshal(raw []byte) (*Order, error) {
	var ord Order
	if err := proto.Unmarshal(raw, &ord); err != nil {
		return nil, errors.Wrap(errors.ErrMalformedOrder, err.Error())
	}
	return &ord, nil
}
