package http2

import (
	"sync"

	"github.com/chemodax/http2/http2utils"
)

const FrameHeaders FrameType = 0x1

var (
	_ Frame            = &Headers{}
	_ FrameWithHeaders = &Headers{}
)

// FrameWithHeaders is implemented by frame bodies that carry a header
// block fragment: HEADERS, PUSH_PROMISE, and CONTINUATION.
type FrameWithHeaders interface {
	Headers() []byte
}

var headersPool = sync.Pool{
	New: func() interface{} { return &Headers{} },
}

// Headers is the HTTP/2 HEADERS frame body.
//
// https://tools.ietf.org/html/rfc7540#section-6.2
type Headers struct {
	hasPadding bool
	stream     uint32
	weight     uint8
	endStream  bool
	endHeaders bool
	rawHeaders []byte
}

func (h *Headers) Reset() {
	h.hasPadding = false
	h.stream = 0
	h.weight = 0
	h.endStream = false
	h.endHeaders = false
	h.rawHeaders = h.rawHeaders[:0]
}

func (h *Headers) CopyTo(h2 *Headers) {
	h2.hasPadding = h.hasPadding
	h2.stream = h.stream
	h2.weight = h.weight
	h2.endStream = h.endStream
	h2.endHeaders = h.endHeaders
	h2.rawHeaders = append(h2.rawHeaders[:0], h.rawHeaders...)
}

func (h *Headers) Type() FrameType {
	return FrameHeaders
}

// Headers returns the raw (still HPACK-compressed) header block
// fragment carried by this frame.
func (h *Headers) Headers() []byte {
	return h.rawHeaders
}

func (h *Headers) SetHeaders(b []byte) {
	h.rawHeaders = append(h.rawHeaders[:0], b...)
}

func (h *Headers) AppendRawHeaders(b []byte) {
	h.rawHeaders = append(h.rawHeaders, b...)
}

// AppendHeaderField HPACK-encodes hf through hp and appends the result
// to this frame's header block.
func (h *Headers) AppendHeaderField(hp *HPACK, hf *HeaderField, store bool) {
	h.rawHeaders = hp.AppendHeader(h.rawHeaders, hf, store)
}

func (h *Headers) EndStream() bool          { return h.endStream }
func (h *Headers) SetEndStream(value bool)  { h.endStream = value }
func (h *Headers) EndHeaders() bool         { return h.endHeaders }
func (h *Headers) SetEndHeaders(value bool) { h.endHeaders = value }

func (h *Headers) Stream() uint32      { return h.stream }
func (h *Headers) SetStream(id uint32) { h.stream = id }

func (h *Headers) Weight() byte      { return h.weight }
func (h *Headers) SetWeight(w byte)  { h.weight = w }
func (h *Headers) Padding() bool     { return h.hasPadding }
func (h *Headers) SetPadding(v bool) { h.hasPadding = v }

func (h *Headers) Deserialize(frh *FrameHeader) error {
	flags := frh.Flags()
	payload := frh.payload

	if flags.Has(FlagPadded) {
		var err error
		payload, err = http2utils.CutPadding(payload, len(payload))
		if err != nil {
			return err
		}
	}

	if flags.Has(FlagPriority) {
		if len(payload) < 5 {
			return ErrMissingBytes
		}
		h.stream = http2utils.BytesToUint32(payload) & (1<<31 - 1)
		h.weight = payload[4]
		payload = payload[5:]
	}

	h.endStream = flags.Has(FlagEndStream)
	h.endHeaders = flags.Has(FlagEndHeaders)
	h.rawHeaders = append(h.rawHeaders[:0], payload...)

	return nil
}

func (h *Headers) Serialize(frh *FrameHeader) {
	if h.endStream {
		frh.SetFlags(frh.Flags().Add(FlagEndStream))
	}

	if h.endHeaders {
		frh.SetFlags(frh.Flags().Add(FlagEndHeaders))
	}

	payload := h.rawHeaders

	if h.stream > 0 && h.weight > 0 {
		frh.SetFlags(frh.Flags().Add(FlagPriority))

		prio := make([]byte, 5)
		http2utils.Uint32ToBytes(prio[:4], h.stream)
		prio[4] = h.weight
		payload = append(append([]byte(nil), prio...), payload...)
	}

	if h.hasPadding {
		frh.SetFlags(frh.Flags().Add(FlagPadded))
		payload = http2utils.AddPadding(payload)
	}

	frh.payload = append(frh.payload[:0], payload...)
}
