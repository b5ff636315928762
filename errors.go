package http2

import (
	"errors"
	"fmt"
)

// ErrorCode is a HTTP/2 error code, as carried by RST_STREAM and GOAWAY
// frames.
//
// https://tools.ietf.org/html/rfc7540#section-7
type ErrorCode uint32

const (
	NoError              ErrorCode = 0x0
	ProtocolError        ErrorCode = 0x1
	InternalError        ErrorCode = 0x2
	FlowControlError     ErrorCode = 0x3
	SettingsTimeoutError ErrorCode = 0x4
	StreamClosedError    ErrorCode = 0x5
	FrameSizeError       ErrorCode = 0x6
	RefusedStreamError   ErrorCode = 0x7
	CancelError          ErrorCode = 0x8
	CompressionError     ErrorCode = 0x9
	ConnectError         ErrorCode = 0xa
	EnhanceYourCalm      ErrorCode = 0xb
	InadequateSecurity   ErrorCode = 0xc
	HTTP11Required       ErrorCode = 0xd
)

var errorCodeStrings = [...]string{
	NoError:              "no error",
	ProtocolError:        "protocol error",
	InternalError:        "internal error",
	FlowControlError:     "flow control error",
	SettingsTimeoutError: "settings timeout",
	StreamClosedError:    "stream closed",
	FrameSizeError:       "frame size error",
	RefusedStreamError:   "refused stream",
	CancelError:          "cancel",
	CompressionError:     "compression error",
	ConnectError:         "connect error",
	EnhanceYourCalm:      "enhance your calm",
	InadequateSecurity:   "inadequate security",
	HTTP11Required:       "http/1.1 required",
}

func (c ErrorCode) String() string {
	if int(c) < len(errorCodeStrings) {
		return errorCodeStrings[c]
	}
	return fmt.Sprintf("unknown error code 0x%x", uint32(c))
}

// Http2Error pairs an RFC 7540 error code with the stream it applies to.
// A StreamID of zero indicates a connection-level error.
type Http2Error struct {
	Code     ErrorCode
	StreamID uint32
	Reason   string
}

func NewError(code ErrorCode, reason string) error {
	return &Http2Error{Code: code, Reason: reason}
}

func (e *Http2Error) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("http2: stream %d: %s: %s", e.StreamID, e.Code, e.Reason)
	}
	return fmt.Sprintf("http2: stream %d: %s", e.StreamID, e.Code)
}

// Is reports whether target is an *Http2Error with the same code, so
// callers can use errors.Is(err, http2.NewError(http2.RefusedStreamError, ""))
// without caring about the stream id or reason text.
func (e *Http2Error) Is(target error) bool {
	other, ok := target.(*Http2Error)
	return ok && other.Code == e.Code
}

var (
	ErrUnknownFrameType = errors.New("http2: unknown frame type")
	ErrZeroPayload      = errors.New("http2: frame payload length is zero")
	ErrBadPreface       = errors.New("http2: bad connection preface")
	ErrFrameMismatch    = errors.New("http2: frame type mismatch for called function")
	ErrMissingBytes     = errors.New("http2: frame payload shorter than required")
	ErrPayloadExceeds   = errors.New("http2: frame payload exceeds negotiated maximum size")
	ErrAgain            = errors.New("http2: stream not ready, try again")
	ErrServerSupport    = errors.New("http2: server does not support HTTP/2")
	ErrStreamClosed     = errors.New("http2: stream is closed")
	ErrNoUnwrittenReqs  = errors.New("http2: no unwritten requests queued")
)
