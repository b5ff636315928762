package http2

import (
	"bytes"
	"strconv"

	"github.com/valyala/fasthttp"
)

// applyHeadersToResponse decodes a complete (all-CONTINUATION-merged)
// HPACK header block and writes its fields onto res, translating the
// :status pseudo-header and content-length specially and passing
// everything else through fasthttp's header map.
func applyHeadersToResponse(dec *HPACK, raw []byte, res *fasthttp.Response) error {
	fields, err := dec.DecodeFull(raw)
	if err != nil {
		return err
	}

	for i := range fields {
		hf := &fields[i]

		if hf.IsPseudo() {
			if bytes.Equal(hf.KeyBytes(), StringStatus) {
				code, err := strconv.Atoi(hf.Value())
				if err != nil {
					return &Http2Error{Code: ProtocolError, Reason: "malformed :status header"}
				}
				res.SetStatusCode(code)
			}
			continue
		}

		if bytes.Equal(hf.KeyBytes(), StringContentLength) {
			n, _ := strconv.Atoi(hf.Value())
			res.Header.SetContentLength(n)
			continue
		}

		res.Header.AddBytesKV(hf.KeyBytes(), hf.ValueBytes())
	}

	return nil
}

// applyTrailersToResponse merges a trailing HEADERS block (a second
// HEADERS frame carrying END_STREAM, sent after the body) into res as
// regular response headers, since fasthttp has no separate trailer
// concept.
func applyTrailersToResponse(dec *HPACK, raw []byte, res *fasthttp.Response) error {
	fields, err := dec.DecodeFull(raw)
	if err != nil {
		return err
	}

	for i := range fields {
		hf := &fields[i]
		if hf.IsPseudo() {
			continue
		}
		res.Header.AddBytesKV(hf.KeyBytes(), hf.ValueBytes())
	}

	return nil
}
