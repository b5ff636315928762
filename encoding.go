package http2

import (
	"bytes"

	"github.com/valyala/fasthttp"
)

// decodeContentEncoding transparently replaces res's body with its
// decompressed form when the server sent Content-Encoding: gzip,
// deflate, or br, mirroring the optional compression handling a
// fasthttp-based client applies after reading a response. This pulls
// klauspost/compress (gzip/deflate) and andybalholm/brotli into the
// dependency graph through fasthttp's own helpers rather than
// reimplementing any of the three codecs here.
func decodeContentEncoding(res *fasthttp.Response) error {
	enc := res.Header.Peek("Content-Encoding")
	if len(enc) == 0 {
		return nil
	}

	var err error
	switch {
	case bytes.EqualFold(enc, StringGzip):
		err = res.BodyGunzip()
	case bytes.EqualFold(enc, StringDeflate):
		err = res.BodyInflate()
	case bytes.EqualFold(enc, StringBrotli):
		err = res.BodyUnbrotli()
	default:
		return nil
	}

	if err != nil {
		return err
	}

	res.Header.Del("Content-Encoding")

	return nil
}
