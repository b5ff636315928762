package http2

import "github.com/valyala/bytebufferpool"

// StreamStatus is one of the eight states a stream moves through over
// its lifetime.
//
// https://tools.ietf.org/html/rfc7540#section-5.1
type StreamStatus int8

const (
	// StreamInit is a stream object that exists but has not yet been
	// assigned a stream id (the id is deferred until the request is
	// actually written, so a client can queue more requests than it
	// has odd ids reserved for).
	StreamInit StreamStatus = iota
	StreamIdle
	StreamReservedLocal
	StreamReservedRemote
	StreamOpen
	StreamHalfClosedLocal
	StreamHalfClosedRemote
	StreamClosed
)

func (s StreamStatus) String() string {
	switch s {
	case StreamInit:
		return "init"
	case StreamIdle:
		return "idle"
	case StreamReservedLocal:
		return "reserved(local)"
	case StreamReservedRemote:
		return "reserved(remote)"
	case StreamOpen:
		return "open"
	case StreamHalfClosedLocal:
		return "half-closed(local)"
	case StreamHalfClosedRemote:
		return "half-closed(remote)"
	case StreamClosed:
		return "closed"
	}
	return "unknown"
}

// UnassignedStreamID is the sentinel stream id for a Stream whose
// HEADERS frame hasn't been written yet. Client-initiated stream ids are odd and
// start at 1, so 0 can never collide with a real id.
const UnassignedStreamID uint32 = 0

// streamEvent is a frame or local action that may move a stream's
// status forward.
type streamEvent uint8

const (
	eventSendHeaders streamEvent = iota
	eventSendEndStream
	eventSendRstStream
	eventRecvHeaders
	eventRecvEndStream
	eventRecvRstStream
	eventRecvPushPromise
	eventReserveChild
)

// Stream is one HTTP/2 stream: the per-request state the connection's
// frame handlers and request binder operate on.
//
// https://tools.ietf.org/html/rfc7540#section-5.1
type Stream struct {
	id     uint32
	status StreamStatus

	sendWindow int32
	recvWindow int32

	request  *reqRes
	pipeline *responsePipeline

	// promisedParent is set on a push stream created via PUSH_PROMISE,
	// pointing back at the stream that received the promise.
	promisedParent uint32

	weight uint8
}

// NewStream creates a stream in StreamInit with the given flow-control
// windows. The id is assigned later, at write time, via SetID.
func NewStream(initialSendWindow, initialRecvWindow int32) *Stream {
	return &Stream{
		id:         UnassignedStreamID,
		status:     StreamInit,
		sendWindow: initialSendWindow,
		recvWindow: initialRecvWindow,
	}
}

func (s *Stream) ID() uint32 { return s.id }

// SetID assigns the stream id at the moment its HEADERS frame is
// about to be written; it also moves the stream out of StreamInit.
func (s *Stream) SetID(id uint32) {
	s.id = id
	if s.status == StreamInit {
		s.status = StreamIdle
	}
}

func (s *Stream) Status() StreamStatus     { return s.status }
func (s *Stream) SetStatus(st StreamStatus) { s.status = st }

func (s *Stream) SendWindow() int32 { return s.sendWindow }
func (s *Stream) RecvWindow() int32 { return s.recvWindow }

func (s *Stream) ConsumeSendWindow(n int32) { s.sendWindow -= n }
func (s *Stream) GrowSendWindow(n int32)    { s.sendWindow += n }
func (s *Stream) ConsumeRecvWindow(n int32) { s.recvWindow -= n }
func (s *Stream) GrowRecvWindow(n int32)    { s.recvWindow += n }

func (s *Stream) Request() *reqRes      { return s.request }
func (s *Stream) SetRequest(rr *reqRes) { s.request = rr }

func (s *Stream) Pipeline() *responsePipeline {
	if s.pipeline == nil {
		s.pipeline = &responsePipeline{body: bytebufferpool.Get()}
	}
	return s.pipeline
}

func (s *Stream) PromisedParent() uint32      { return s.promisedParent }
func (s *Stream) SetPromisedParent(id uint32) { s.promisedParent = id }

// IsClosed reports whether the stream has reached a terminal state and
// can be removed from the stream table.
func (s *Stream) IsClosed() bool {
	return s.status == StreamClosed
}

// transition advances the stream's status machine per RFC 7540
// section 5.1's state diagram, table-driven and free of any I/O.
//
// A send or recv RST_STREAM closes the stream from any non-closed
// state, including INIT/IDLE: a request canceled before it was ever
// written still needs to reach StreamClosed, even though no
// RST_STREAM frame goes out over the wire for it. Once closed, a
// second RST_STREAM is the one event a closed stream still accepts
// and is a no-op, making reset idempotent.
func (s *Stream) transition(ev streamEvent) error {
	if s.status != StreamClosed && (ev == eventSendRstStream || ev == eventRecvRstStream) {
		s.status = StreamClosed
		return nil
	}

	switch s.status {
	case StreamInit, StreamIdle:
		switch ev {
		case eventSendHeaders:
			s.status = StreamOpen
		case eventReserveChild:
			s.status = StreamReservedRemote
		case eventRecvPushPromise:
			s.status = StreamReservedRemote
		default:
			return &Http2Error{Code: ProtocolError, StreamID: s.id, Reason: "unexpected event in idle state"}
		}
	case StreamReservedLocal:
		switch ev {
		case eventSendHeaders:
			s.status = StreamHalfClosedRemote
		default:
			return &Http2Error{Code: ProtocolError, StreamID: s.id, Reason: "unexpected event in reserved(local) state"}
		}
	case StreamReservedRemote:
		switch ev {
		case eventRecvHeaders:
			s.status = StreamHalfClosedLocal
		default:
			return &Http2Error{Code: ProtocolError, StreamID: s.id, Reason: "unexpected event in reserved(remote) state"}
		}
	case StreamOpen:
		switch ev {
		case eventSendEndStream:
			s.status = StreamHalfClosedLocal
		case eventRecvEndStream:
			s.status = StreamHalfClosedRemote
		case eventRecvHeaders:
			// HEADERS without END_STREAM keep the stream open.
		default:
			return &Http2Error{Code: ProtocolError, StreamID: s.id, Reason: "unexpected event in open state"}
		}
	case StreamHalfClosedLocal:
		switch ev {
		case eventRecvEndStream:
			s.status = StreamClosed
		}
	case StreamHalfClosedRemote:
		switch ev {
		case eventSendEndStream:
			s.status = StreamClosed
		default:
			return &Http2Error{Code: StreamClosedError, StreamID: s.id, Reason: "frame received on half-closed(remote) stream"}
		}
	case StreamClosed:
		if ev == eventSendRstStream || ev == eventRecvRstStream {
			return nil
		}
		return &Http2Error{Code: StreamClosedError, StreamID: s.id, Reason: "frame received on closed stream"}
	}

	return nil
}
