package http2

import (
	"bytes"
	"sync"

	"golang.org/x/net/http2/hpack"
)

// HPACK is the per-connection header compression context: one encoder
// for outbound header blocks and one decoder for inbound ones, wrapping
// golang.org/x/net/http2/hpack rather than hand-rolling RFC 7541 (the
// Huffman and static/dynamic table machinery is exactly the kind of
// thing an ecosystem package should own).
type HPACK struct {
	buf bytes.Buffer
	enc *hpack.Encoder
	dec *hpack.Decoder

	emitted []HeaderField
}

var hpackPool = sync.Pool{
	New: func() interface{} {
		hp := &HPACK{}
		hp.enc = hpack.NewEncoder(&hp.buf)
		hp.dec = hpack.NewDecoder(defaultHeaderTableSize, hp.onEmit)
		return hp
	},
}

// AcquireHPACK returns a pooled HPACK context with default table sizes.
func AcquireHPACK() *HPACK {
	return hpackPool.Get().(*HPACK)
}

// ReleaseHPACK resets hp and returns it to the pool.
func ReleaseHPACK(hp *HPACK) {
	hp.Reset()
	hpackPool.Put(hp)
}

func (hp *HPACK) Reset() {
	hp.buf.Reset()
	hp.dec.Close()
	hp.dec.SetEmitFunc(hp.onEmit)
	hp.emitted = hp.emitted[:0]
}

func (hp *HPACK) onEmit(f hpack.HeaderField) {
	var out HeaderField
	out.SetKey(f.Name)
	out.SetValue(f.Value)
	out.SetSensitive(f.Sensitive)
	hp.emitted = append(hp.emitted, out)
}

// SetMaxTableSize applies the peer's negotiated
// SETTINGS_HEADER_TABLE_SIZE to the encoder's dynamic table.
func (hp *HPACK) SetMaxTableSize(size uint32) {
	hp.enc.SetMaxDynamicTableSize(size)
}

// SetMaxDecoderTableSize bounds how large the decoder will ever grow
// its table to, independent of what the peer requests.
func (hp *HPACK) SetMaxDecoderTableSize(size uint32) {
	hp.dec.SetMaxDynamicTableSize(size)
}

// AppendHeader encodes hf and appends the compressed bytes to dst.
func (hp *HPACK) AppendHeader(dst []byte, hf *HeaderField, store bool) []byte {
	hp.buf.Reset()

	hp.enc.WriteField(hpack.HeaderField{
		Name:      hf.Key(),
		Value:     hf.Value(),
		Sensitive: hf.IsSensitive() || !store,
	})

	return append(dst, hp.buf.Bytes()...)
}

// DecodeFull decodes every field in a complete header block fragment
// (used once END_HEADERS has been seen and all CONTINUATION frames
// have been concatenated in).
func (hp *HPACK) DecodeFull(b []byte) ([]HeaderField, error) {
	hp.emitted = hp.emitted[:0]

	if _, err := hp.dec.Write(b); err != nil {
		return nil, err
	}

	out := make([]HeaderField, len(hp.emitted))
	copy(out, hp.emitted)
	hp.emitted = hp.emitted[:0]

	return out, nil
}
