package http2

var (
	StringPath          = []byte(":path")
	StringStatus        = []byte(":status")
	StringAuthority     = []byte(":authority")
	StringScheme        = []byte(":scheme")
	StringMethod        = []byte(":method")
	StringServer        = []byte("server")
	StringContentLength = []byte("content-length")
	StringContentType   = []byte("content-type")
	StringContentEnc    = []byte("content-encoding")
	StringAcceptEnc     = []byte("accept-encoding")
	StringUserAgent     = []byte("user-agent")
	StringGzip          = []byte("gzip")
	StringDeflate       = []byte("deflate")
	StringBrotli        = []byte("br")
	StringGET           = []byte("GET")
	StringHEAD          = []byte("HEAD")
	StringPOST          = []byte("POST")
	StringHTTP2         = []byte("HTTP/2")
)

// ToLower lowercases b in place and returns it; header field names must
// be lowercase on the wire (RFC 7540 section 8.1.2).
func ToLower(b []byte) []byte {
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 32
		}
	}
	return b
}

const (
	// H2TLSProto is the ALPN protocol id negotiated over TLS.
	H2TLSProto = "h2"
	// H2Clean is the upgrade token for cleartext HTTP/2.
	H2Clean = "h2c"
)
