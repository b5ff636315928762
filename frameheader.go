package http2

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"github.com/chemodax/http2/http2utils"
)

const (
	// DefaultFrameSize is the fixed 9-byte frame header size.
	//
	// https://tools.ietf.org/html/rfc7540#section-4.1
	DefaultFrameSize = 9

	// defaultMaxLen is the frame payload size a client must accept
	// before negotiating SETTINGS_MAX_FRAME_SIZE with the peer.
	//
	// https://tools.ietf.org/html/rfc7540#section-6.5.2
	defaultMaxLen = 1 << 14

	FlagAck        FrameFlags = 0x1
	FlagEndStream  FrameFlags = 0x1
	FlagEndHeaders FrameFlags = 0x4
	FlagPadded     FrameFlags = 0x8
	FlagPriority   FrameFlags = 0x20
)

var frameHeaderPool = sync.Pool{
	New: func() interface{} {
		return &FrameHeader{}
	},
}

// FrameHeader is the 9-byte header shared by every HTTP/2 frame, plus
// the raw payload and the decoded Frame body once parsed.
//
// A FrameHeader must not be used from more than one goroutine at a
// time; acquire one per read/write via AcquireFrameHeader.
//
// https://tools.ietf.org/html/rfc7540#section-4.1
type FrameHeader struct {
	length int
	kind   FrameType
	flags  FrameFlags
	stream uint32

	maxLen uint32

	rawHeader [DefaultFrameSize]byte
	payload   []byte

	fr Frame
}

// AcquireFrameHeader returns a pooled, reset FrameHeader.
func AcquireFrameHeader() *FrameHeader {
	fr := frameHeaderPool.Get().(*FrameHeader)
	fr.Reset()
	return fr
}

// ReleaseFrameHeader releases fr's body back to its pool and returns fr
// itself to the FrameHeader pool.
func ReleaseFrameHeader(fr *FrameHeader) {
	ReleaseFrame(fr.Body())
	fr.fr = nil
	frameHeaderPool.Put(fr)
}

func (frh *FrameHeader) Reset() {
	frh.kind = 0
	frh.flags = 0
	frh.stream = 0
	frh.length = 0
	frh.maxLen = defaultMaxLen
	frh.fr = nil
	frh.payload = frh.payload[:0]
}

func (frh *FrameHeader) Type() FrameType {
	return frh.kind
}

func (frh *FrameHeader) Flags() FrameFlags {
	return frh.flags
}

func (frh *FrameHeader) SetFlags(flags FrameFlags) {
	frh.flags = flags
}

// Stream returns the stream id the frame belongs to, or 0 for
// connection-level frames.
func (frh *FrameHeader) Stream() uint32 {
	return frh.stream
}

func (frh *FrameHeader) SetStream(stream uint32) {
	frh.stream = stream
}

// Len returns the payload length in bytes.
func (frh *FrameHeader) Len() int {
	return frh.length
}

// MaxLen returns the negotiated maximum payload length; 0 means
// unbounded.
func (frh *FrameHeader) MaxLen() uint32 {
	return frh.maxLen
}

func (frh *FrameHeader) SetMaxLen(n uint32) {
	frh.maxLen = n
}

func (frh *FrameHeader) parseValues(header []byte) {
	frh.length = int(http2utils.BytesToUint24(header[:3]))
	frh.kind = FrameType(header[3])
	frh.flags = FrameFlags(header[4])
	frh.stream = http2utils.BytesToUint32(header[5:]) & (1<<31 - 1)
}

func (frh *FrameHeader) parseHeader(header []byte) {
	http2utils.Uint24ToBytes(header[:3], uint32(frh.length))
	header[3] = byte(frh.kind)
	header[4] = byte(frh.flags)
	http2utils.Uint32ToBytes(header[5:], frh.stream)
}

// ReadFrameFrom reads and decodes one frame from br, using the default
// (unbounded) max payload size.
func ReadFrameFrom(br *bufio.Reader) (*FrameHeader, error) {
	return ReadFrameFromWithSize(br, 0)
}

// ReadFrameFromWithSize reads and decodes one frame from br, rejecting
// payloads longer than max (0 meaning no limit).
func ReadFrameFromWithSize(br *bufio.Reader, max uint32) (*FrameHeader, error) {
	fr := AcquireFrameHeader()
	fr.maxLen = max

	_, err := fr.readFrom(br)
	if err != nil {
		ReleaseFrameHeader(fr)
		return nil, err
	}

	return fr, nil
}

// ReadFrom reads one frame from br into frh, dispatching to the
// relevant Frame body's Deserialize.
func (frh *FrameHeader) ReadFrom(br *bufio.Reader) (int64, error) {
	return frh.readFrom(br)
}

func (frh *FrameHeader) readFrom(br *bufio.Reader) (int64, error) {
	header, err := br.Peek(DefaultFrameSize)
	if err != nil {
		return -1, err
	}

	br.Discard(DefaultFrameSize)

	rn := int64(DefaultFrameSize)

	frh.parseValues(header)
	if err := frh.checkLen(); err != nil {
		io.CopyN(io.Discard, br, int64(frh.length))
		return rn, err
	}

	if frh.kind < minFrameType || frh.kind > maxFrameType {
		io.CopyN(io.Discard, br, int64(frh.length))
		return rn, ErrUnknownFrameType
	}

	frh.fr = AcquireFrame(frh.kind)

	if frh.length > 0 {
		n := frh.length
		if n < 0 {
			panic(fmt.Sprintf("frame length is negative: %d", frh.length))
		}

		frh.payload = http2utils.Resize(frh.payload, n)

		n, err = io.ReadFull(br, frh.payload[:n])
		rn += int64(n)
		if err != nil {
			return rn, err
		}
	}

	return rn, frh.fr.Deserialize(frh)
}

// WriteTo serializes frh's body and writes the resulting frame to w.
func (frh *FrameHeader) WriteTo(w *bufio.Writer) (wb int64, err error) {
	frh.fr.Serialize(frh)

	frh.length = len(frh.payload)
	frh.parseHeader(frh.rawHeader[:])

	n, err := w.Write(frh.rawHeader[:])
	if err != nil {
		return int64(n), err
	}
	wb += int64(n)

	n, err = w.Write(frh.payload)
	wb += int64(n)

	return wb, err
}

// Body returns the decoded frame body, or nil if none has been set.
func (frh *FrameHeader) Body() Frame {
	return frh.fr
}

// SetBody attaches fr as the header's body, adopting its Type().
func (frh *FrameHeader) SetBody(fr Frame) {
	if fr == nil {
		panic("http2: FrameHeader body cannot be nil")
	}

	frh.kind = fr.Type()
	frh.fr = fr
}

func (frh *FrameHeader) setPayload(payload []byte) {
	frh.payload = append(frh.payload[:0], payload...)
}

func (frh *FrameHeader) checkLen() error {
	if frh.maxLen != 0 && frh.length > int(frh.maxLen) {
		return ErrPayloadExceeds
	}
	return nil
}
