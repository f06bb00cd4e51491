package wire

import (
	"io"

	"github.com/fxamacker/cbor/v2"
)

// Codec pairs the CBOR encode and decode modes used for every record that
// crosses the debugger endpoint. Encoding is deterministic (core rules) so
// request bodies are reproducible in captures.
type Codec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

func NewCodec() (Codec, error) {
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return Codec{}, err
	}
	dec, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		return Codec{}, err
	}
	return Codec{enc: enc, dec: dec}, nil
}

func (c Codec) Marshal(v any) ([]byte, error) {
	return c.enc.Marshal(v)
}

func (c Codec) Unmarshal(data []byte, v any) error {
	return c.dec.Unmarshal(data, v)
}

// Encode writes v to w as a single CBOR item.
func (c Codec) Encode(w io.Writer, v any) error {
	return c.enc.NewEncoder(w).Encode(v)
}

// Decode reads a single CBOR item from r into v. A CBOR null decoded into a
// pointer-to-pointer target leaves it nil, which is how optional responses
// ("no such node") are represented.
func (c Codec) Decode(r io.Reader, v any) error {
	return c.dec.NewDecoder(r).Decode(v)
}
