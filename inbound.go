package http2

// handleHeaders implements the incoming HEADERS/CONTINUATION path: it
// accumulates the header block fragment across frames until
// END_HEADERS, then decodes it into the stream's bound response (or,
// if the response already has a status set, treats a second HEADERS
// frame as trailers per the body-then-trailers resolution).
func (c *Conn) handleHeaders(strm *Stream, fr *FrameHeader) error {
	hw, ok := fr.Body().(FrameWithHeaders)
	if !ok {
		return &Http2Error{Code: ProtocolError, StreamID: strm.ID(), Reason: "frame does not carry headers"}
	}

	rr := strm.Request()
	if rr == nil {
		return &Http2Error{Code: ProtocolError, StreamID: strm.ID(), Reason: "headers received for unbound stream"}
	}

	pipeline := strm.Pipeline()

	var endHeaders, endStream bool
	switch body := fr.Body().(type) {
	case *Headers:
		endHeaders = body.EndHeaders()
		endStream = body.EndStream()
	case *Continuation:
		endHeaders = body.EndHeaders()
	}

	pipeline.headerBlock = append(pipeline.headerBlock, hw.Headers()...)

	if !endHeaders {
		return nil
	}

	raw := pipeline.headerBlock
	pipeline.headerBlock = nil

	var err error
	if rr.res.StatusCode() == 0 {
		err = applyHeadersToResponse(c.dec, raw, rr.res)
	} else {
		err = applyTrailersToResponse(c.dec, raw, rr.res)
	}
	if err != nil {
		return err
	}

	if err := strm.transition(eventRecvHeaders); err != nil {
		return err
	}

	if endStream {
		return c.finishStream(strm)
	}

	return nil
}

// handleData implements the incoming DATA path: append the payload to
// the stream's response pipeline, account for the stream's receive
// window (dispatchStreamFrame accounts for the connection window), and
// close the stream out on END_STREAM.
func (c *Conn) handleData(strm *Stream, fr *FrameHeader) error {
	data, ok := fr.Body().(*Data)
	if !ok {
		return &Http2Error{Code: ProtocolError, StreamID: strm.ID(), Reason: "frame is not DATA"}
	}

	rr := strm.Request()
	if rr == nil {
		return &Http2Error{Code: ProtocolError, StreamID: strm.ID(), Reason: "data received for unbound stream"}
	}

	if data.Len() > 0 {
		strm.Pipeline().Write(data.Data())
		strm.ConsumeRecvWindow(int32(data.Len()))

		if strm.RecvWindow() < int32(c.st.MaxWindowSize())/2 {
			grant := int32(c.st.MaxWindowSize()) - strm.RecvWindow()
			strm.GrowRecvWindow(grant)
			c.updateWindow(strm.ID(), grant)
		}
	}

	if data.EndStream() {
		return c.finishStream(strm)
	}

	return nil
}

// handleRstStream implements the incoming RST_STREAM path: the peer is
// unilaterally terminating the stream, so the bound request is failed
// with the carried error code and the stream is closed immediately.
func (c *Conn) handleRstStream(strm *Stream, fr *FrameHeader) {
	rst, ok := fr.Body().(*RstStream)
	if !ok {
		return
	}

	strm.transition(eventRecvRstStream)

	if rr := strm.Request(); rr != nil {
		rr.ch <- rst.Error()
		strm.SetRequest(nil)
	}
}

// finishStream transitions strm to its end-of-body state and, once the
// stream is fully done from the remote side, copies the aggregated
// pipeline into the caller's response and releases the caller.
func (c *Conn) finishStream(strm *Stream) error {
	if err := strm.transition(eventRecvEndStream); err != nil {
		return err
	}

	if !strm.Pipeline().EOF(strm.Status()) {
		return nil
	}

	rr := strm.Request()
	rr.res.SetBody(strm.Pipeline().Bytes())

	if c.opts.EnableCompression {
		if err := decodeContentEncoding(rr.res); err != nil {
			rr.ch <- err
			strm.SetRequest(nil)
			return nil
		}
	}

	rr.ch <- nil
	strm.SetRequest(nil)

	return nil
}
