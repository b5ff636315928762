package http2

import (
	"sync"

	"github.com/chemodax/http2/http2utils"
)

const FramePushPromise FrameType = 0x5

var (
	_ Frame            = &PushPromise{}
	_ FrameWithHeaders = &PushPromise{}
)

var pushPromisePool = sync.Pool{
	New: func() interface{} { return &PushPromise{} },
}

// PushPromise is the HTTP/2 PUSH_PROMISE frame body: the server's
// announcement of a promised stream id and the request headers it
// would have received.
//
// https://tools.ietf.org/html/rfc7540#section-6.6
type PushPromise struct {
	hasPadding bool
	endHeaders bool
	promised   uint32
	rawHeaders []byte
}

func (pp *PushPromise) Type() FrameType {
	return FramePushPromise
}

func (pp *PushPromise) Reset() {
	pp.hasPadding = false
	pp.endHeaders = false
	pp.promised = 0
	pp.rawHeaders = pp.rawHeaders[:0]
}

// Promised returns the stream id the server intends to push on.
func (pp *PushPromise) Promised() uint32 { return pp.promised }

func (pp *PushPromise) SetPromised(id uint32) { pp.promised = id & (1<<31 - 1) }

func (pp *PushPromise) Headers() []byte {
	return pp.rawHeaders
}

func (pp *PushPromise) SetHeaders(b []byte) {
	pp.rawHeaders = append(pp.rawHeaders[:0], b...)
}

func (pp *PushPromise) AppendRawHeaders(b []byte) {
	pp.rawHeaders = append(pp.rawHeaders, b...)
}

func (pp *PushPromise) EndHeaders() bool         { return pp.endHeaders }
func (pp *PushPromise) SetEndHeaders(value bool) { pp.endHeaders = value }

func (pp *PushPromise) Deserialize(fr *FrameHeader) error {
	payload := fr.payload

	if fr.Flags().Has(FlagPadded) {
		var err error
		payload, err = http2utils.CutPadding(payload, fr.Len())
		if err != nil {
			return err
		}
	}

	if len(payload) < 4 {
		return ErrMissingBytes
	}

	pp.promised = http2utils.BytesToUint32(payload) & (1<<31 - 1)
	pp.rawHeaders = append(pp.rawHeaders[:0], payload[4:]...)
	pp.endHeaders = fr.Flags().Has(FlagEndHeaders)
	pp.hasPadding = fr.Flags().Has(FlagPadded)

	return nil
}

func (pp *PushPromise) Serialize(fr *FrameHeader) {
	if pp.endHeaders {
		fr.SetFlags(fr.Flags().Add(FlagEndHeaders))
	}

	payload := http2utils.AppendUint32Bytes(make([]byte, 0, 4+len(pp.rawHeaders)), pp.promised)
	payload = append(payload, pp.rawHeaders...)

	if pp.hasPadding {
		fr.SetFlags(fr.Flags().Add(FlagPadded))
		payload = http2utils.AddPadding(payload)
	}

	fr.payload = append(fr.payload[:0], payload...)
}
