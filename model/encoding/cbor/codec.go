package cbor

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/guildnet/guild-oracle/model/encoding"
)

var (
	// EncMode is the canonical, deterministic encoding used for every
	// payload and answer stored on the ledger.
	EncMode = func() cbor.EncMode {
		options := cbor.CoreDetEncOptions()
		encMode, err := options.EncMode()
		if err != nil {
			panic(err)
		}
		return encMode
	}()

	// DecMode rejects unknown fields and duplicate map keys so a payload has
	// exactly one accepted encoding per value.
	DecMode = func() cbor.DecMode {
		options := cbor.DecOptions{
			DupMapKey:         cbor.DupMapKeyEnforcedAPF,
			ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
			MaxArrayElements:  1 << 16,
			MaxMapPairs:       1 << 16,
		}
		decMode, err := options.DecMode()
		if err != nil {
			panic(err)
		}
		return decMode
	}()
)

// Encoder is the CBOR implementation of encoding.Encoder.
type Encoder struct{}

var _ encoding.Encoder = (*Encoder)(nil)

func NewEncoder() *Encoder {
	return &Encoder{}
}

func (e *Encoder) Encode(val interface{}) ([]byte, error) {
	return EncMode.Marshal(val)
}

func (e *Encoder) Decode(b []byte, val interface{}) error {
	err := DecMode.Unmarshal(b, val)
	if err != nil {
		return encoding.NewDecodeError(fmt.Sprintf("%T", val), err)
	}
	return nil
}

func (e *Encoder) MustEncode(val interface{}) []byte {
	b, err := e.Encode(val)
	if err != nil {
		panic(err)
	}
	return b
}

func (e *Encoder) MustDecode(b []byte, val interface{}) {
	err := e.Decode(b, val)
	if err != nil {
		panic(err)
	}
}
