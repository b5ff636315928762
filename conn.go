package http2

import (
	"bufio"
	"crypto/tls"
	"fmt"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/valyala/fasthttp"
)

// DefaultPingInterval is how often an idle Conn pings the peer when
// ConnOpts.PingInterval is left at zero.
const DefaultPingInterval = 3 * time.Second

// preface is the fixed connection preface a client must send before
// its first SETTINGS frame.
//
// https://tools.ietf.org/html/rfc7540#section-3.5
const preface = "PRI * HTTP/2.0\r\n\r\nSM\r\n\r\n"

// WritePreface writes the HTTP/2 connection preface to bw.
func WritePreface(bw *bufio.Writer) error {
	_, err := bw.WriteString(preface)
	return err
}

// reqRes pairs a caller's request/response with the channel their Do
// call is blocked on, so the connection's single stream-owning
// goroutine can reply without the caller holding any lock.
type reqRes struct {
	req *fasthttp.Request
	res *fasthttp.Response
	ch  chan error
}

// ConnOpts configures a Conn.
type ConnOpts struct {
	// PingInterval is how often to ping an otherwise idle connection.
	// Zero means DefaultPingInterval.
	PingInterval time.Duration
	// DisablePingChecking disables the idle ping entirely.
	DisablePingChecking bool
	// EnableCompression adds Accept-Encoding to outbound requests and
	// transparently decodes Content-Encoding on responses.
	EnableCompression bool
	// OnDisconnect is called once, from the read loop, when the
	// connection is torn down for any reason.
	OnDisconnect func(c *Conn)
}

// Conn is a single HTTP/2 connection: one TLS socket, one HPACK
// encoder/decoder pair, and the collection of streams multiplexed over
// it. All stream-table mutation happens on the goroutine running run(),
// per the single-task concurrency model described by the stream engine
// it drives — readLoop and writeLoop only move bytes and frames.
type Conn struct {
	c net.Conn

	br *bufio.Reader
	bw *bufio.Writer

	enc *HPACK
	dec *HPACK

	nextID uint32

	serverWindow  int32
	maxWindow     int32
	currentWindow int32

	st      Settings
	serverS Settings

	reqResCh chan *reqRes
	cancelCh chan *fasthttp.Request
	writer   chan *FrameHeader
	inStream chan *FrameHeader

	streams       streamTable
	unwrittenReqs []*Stream
	writtenReqs   []*Stream

	opts ConnOpts

	closeOnce sync.Once
	closed    chan struct{}
	closeErr  error
}

// Dial opens a TCP connection to addr, performs the TLS+ALPN
// handshake, and starts the HTTP/2 connection preface exchange.
func Dial(addr string, tlsConfig *tls.Config, opts ConnOpts) (*Conn, error) {
	rawConn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}

	if tc, ok := rawConn.(*net.TCPConn); ok {
		tc.SetNoDelay(true)
	}

	if tlsConfig == nil {
		tlsConfig = &tls.Config{}
	}
	if len(tlsConfig.NextProtos) == 0 {
		cfg := tlsConfig.Clone()
		cfg.NextProtos = []string{H2TLSProto}
		tlsConfig = cfg
	}

	tlsConn := tls.Client(rawConn, tlsConfig)
	if err := tlsConn.Handshake(); err != nil {
		rawConn.Close()
		return nil, err
	}

	if tlsConn.ConnectionState().NegotiatedProtocol != H2TLSProto {
		rawConn.Close()
		return nil, ErrServerSupport
	}

	c := newConn(tlsConn, opts)

	if err := c.Handshake(); err != nil {
		rawConn.Close()
		return nil, err
	}

	go c.readLoop()
	go c.writeLoop()
	go c.run()

	return c, nil
}

func newConn(nc net.Conn, opts ConnOpts) *Conn {
	c := &Conn{
		c:        nc,
		br:       bufio.NewReaderSize(nc, 4096),
		bw:       bufio.NewWriterSize(nc, int(defaultMaxFrameSize)),
		enc:      AcquireHPACK(),
		dec:      AcquireHPACK(),
		nextID:   1,
		writer:   make(chan *FrameHeader, 128),
		reqResCh: make(chan *reqRes, 128),
		cancelCh: make(chan *fasthttp.Request, 128),
		inStream: make(chan *FrameHeader, 128),
		opts:     opts,
		closed:   make(chan struct{}),
	}

	c.st.Reset()
	c.st.SetMaxWindowSize(1 << 20)
	c.serverS.Reset()

	c.maxWindow = 1 << 20
	c.currentWindow = c.maxWindow

	// Until a SETTINGS or WINDOW_UPDATE says otherwise, the peer's
	// connection-level send window starts at the RFC 7540 default.
	c.serverWindow = int32(defaultWindowSize)

	return c
}

// Handshake writes the connection preface, an initial SETTINGS frame,
// and a connection-level WINDOW_UPDATE raising our receive window.
func (c *Conn) Handshake() error {
	if err := WritePreface(c.bw); err != nil {
		return err
	}

	fr := AcquireFrameHeader()
	st := AcquireFrame(FrameSettings).(*Settings)
	c.st.CopyTo(st)
	fr.SetBody(st)

	if _, err := fr.WriteTo(c.bw); err != nil {
		ReleaseFrameHeader(fr)
		return err
	}
	ReleaseFrameHeader(fr)

	fr = AcquireFrameHeader()
	wu := AcquireFrame(FrameWindowUpdate).(*WindowUpdate)
	wu.SetIncrement(c.maxWindow)
	fr.SetBody(wu)

	if _, err := fr.WriteTo(c.bw); err != nil {
		ReleaseFrameHeader(fr)
		return err
	}
	ReleaseFrameHeader(fr)

	return c.bw.Flush()
}

// Do sends req over a freshly allocated stream and blocks until res has
// been fully populated or an error occurs.
func (c *Conn) Do(req *fasthttp.Request, res *fasthttp.Response) error {
	rr := &reqRes{req: req, res: res, ch: make(chan error, 1)}

	select {
	case c.reqResCh <- rr:
	case <-c.closed:
		return c.closeErr
	}

	select {
	case err := <-rr.ch:
		return err
	case <-c.closed:
		return c.closeErr
	}
}

// CancelRequest aborts an in-flight request previously passed to Do,
// resetting its stream with CancelError. It is safe to call from any
// goroutine. If req is not (or is no longer) bound to a stream on this
// connection, CancelRequest is a no-op: Do will return whatever result
// the request was already heading toward.
func (c *Conn) CancelRequest(req *fasthttp.Request) {
	select {
	case c.cancelCh <- req:
	case <-c.closed:
	}
}

func (c *Conn) readLoop() {
	defer c.teardown(nil)

	for {
		fr, err := ReadFrameFromWithSize(c.br, c.st.MaxFrameSize())
		if err != nil {
			c.teardown(err)
			return
		}

		if fr.Stream() != 0 {
			select {
			case c.inStream <- fr:
			case <-c.closed:
				ReleaseFrameHeader(fr)
				return
			}
			continue
		}

		switch fr.Type() {
		case FrameSettings:
			st := fr.Body().(*Settings)
			if st.IsAck() {
				break
			}
			c.handleSettings(st)
		case FrameWindowUpdate:
			wu := fr.Body().(*WindowUpdate)
			atomic.AddInt32(&c.serverWindow, wu.Increment())
		case FramePing:
			c.handlePing(fr.Body().(*Ping))
		case FrameGoAway:
			ga := fr.Body().(*GoAway)
			ReleaseFrameHeader(fr)
			c.teardown(ga)
			return
		}

		ReleaseFrameHeader(fr)
	}
}

func (c *Conn) writeLoop() {
	interval := c.opts.PingInterval
	if interval <= 0 {
		interval = DefaultPingInterval
	}

	var tick <-chan time.Time
	if !c.opts.DisablePingChecking {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case fr, ok := <-c.writer:
			if !ok {
				return
			}

			_, err := fr.WriteTo(c.bw)
			if err == nil {
				err = c.bw.Flush()
			}

			ReleaseFrameHeader(fr)

			if err != nil {
				c.teardown(err)
				return
			}
		case <-tick:
			c.sendPing()
		case <-c.closed:
			return
		}
	}
}

// run owns the stream table exclusively: it is the only goroutine that
// ever reads or mutates a *Stream's status, matching the "no locking
// because there is no parallelism" concurrency model.
func (c *Conn) run() {
	for {
		select {
		case rr := <-c.reqResCh:
			strm := NewStream(int32(c.serverS.MaxWindowSize()), int32(c.st.MaxWindowSize()))
			strm.SetRequest(rr)
			c.unwrittenReqs = append(c.unwrittenReqs, strm)
			c.drainUnwritten()

		case req := <-c.cancelCh:
			c.cancelStream(req)

		case fr, ok := <-c.inStream:
			if !ok {
				return
			}
			c.dispatchStreamFrame(fr)
			ReleaseFrameHeader(fr)

		case <-c.closed:
			for _, strm := range c.streams.All() {
				if rr := strm.Request(); rr != nil {
					rr.ch <- c.closeErr
				}
			}
			for _, strm := range c.unwrittenReqs {
				if rr := strm.Request(); rr != nil {
					rr.ch <- c.closeErr
				}
			}
			return
		}
	}
}

// drainUnwritten pops queued streams and writes their request, one at a
// time, splicing each from unwrittenReqs to writtenReqs exactly as the
// original's linked-list version does (no separate counter bookkeeping
// — the move itself is the only side effect).
func (c *Conn) drainUnwritten() {
	for len(c.unwrittenReqs) > 0 {
		strm := c.unwrittenReqs[0]
		c.unwrittenReqs = c.unwrittenReqs[1:]

		id := c.nextID
		c.nextID += 2
		strm.SetID(id)

		if err := c.setupNextRequest(strm); err != nil {
			strm.Request().ch <- err
			continue
		}

		c.writtenReqs = append(c.writtenReqs, strm)
		c.streams.Insert(strm)
	}
}

func (c *Conn) dispatchStreamFrame(fr *FrameHeader) {
	if fr.Type() == FramePushPromise {
		// PUSH_PROMISE arrives on the associated (parent) stream; the
		// promised child id lives inside the frame body, not in
		// fr.Stream(), so it bypasses the stream-table lookup below.
		c.handlePushPromise(fr)
		return
	}

	strm := c.streams.Get(fr.Stream())
	if strm == nil {
		// Frame for a stream we no longer track (already closed) or
		// never tracked: nothing to dispatch to.
		return
	}

	atomic.AddInt32(&c.currentWindow, -int32(fr.Len()))

	var err error
	switch fr.Type() {
	case FrameHeaders, FrameContinuation:
		err = c.handleHeaders(strm, fr)
	case FrameData:
		err = c.handleData(strm, fr)
	case FrameResetStream:
		c.handleRstStream(strm, fr)
	case FramePriority:
		// Accepted and ignored: prioritization is a server-scheduling
		// concern this engine doesn't implement.
	}

	if err != nil {
		c.resetStream(strm, errorCodeOf(err), true)
	}

	if strm.IsClosed() {
		c.closeStream(strm)
	} else {
		c.maybeUpdateConnWindow(fr.Len())
	}
}

func errorCodeOf(err error) ErrorCode {
	if h2e, ok := err.(*Http2Error); ok {
		return h2e.Code
	}
	return InternalError
}

func (c *Conn) maybeUpdateConnWindow(consumed int) {
	my := atomic.LoadInt32(&c.currentWindow)
	if my >= c.maxWindow/2 {
		return
	}

	delta := c.maxWindow - my
	atomic.StoreInt32(&c.currentWindow, c.maxWindow)
	c.updateWindow(0, delta)
}

func (c *Conn) updateWindow(streamID uint32, n int32) {
	if n <= 0 {
		return
	}

	fr := AcquireFrameHeader()
	fr.SetStream(streamID)

	wu := AcquireFrame(FrameWindowUpdate).(*WindowUpdate)
	wu.SetIncrement(n)
	fr.SetBody(wu)

	c.send(fr)
}

func (c *Conn) sendPing() {
	fr := AcquireFrameHeader()

	ping := AcquireFrame(FramePing).(*Ping)
	ping.SetCurrentTime()
	fr.SetBody(ping)

	c.send(fr)
}

func (c *Conn) handleSettings(st *Settings) {
	st.CopyTo(&c.serverS)

	fr := AcquireFrameHeader()
	ack := AcquireFrame(FrameSettings).(*Settings)
	ack.SetAck(true)
	fr.SetBody(ack)

	c.send(fr)
}

func (c *Conn) handlePing(p *Ping) {
	if p.IsAck() {
		return
	}

	fr := AcquireFrameHeader()
	reply := AcquireFrame(FramePing).(*Ping)
	reply.SetData(p.Data())
	reply.SetAck(true)
	fr.SetBody(reply)

	c.send(fr)
}

func (c *Conn) send(fr *FrameHeader) {
	select {
	case c.writer <- fr:
	case <-c.closed:
		ReleaseFrameHeader(fr)
	}
}

// teardown closes the socket and unblocks run()'s closed select exactly
// once, recording the first error/GOAWAY seen as the reason every
// in-flight Do() call will observe.
func (c *Conn) teardown(reason error) {
	c.closeOnce.Do(func() {
		if reason == nil {
			reason = ErrStreamClosed
		}
		if ga, ok := reason.(*GoAway); ok {
			reason = fmt.Errorf("http2: connection closed by peer: %s", ga.Error())
		}

		c.closeErr = reason
		close(c.closed)
		close(c.writer)
		c.c.Close()

		if c.opts.OnDisconnect != nil {
			c.opts.OnDisconnect(c)
		}
	})
}

// Close tears the connection down from the caller's side.
func (c *Conn) Close() error {
	c.teardown(net.ErrClosed)
	return nil
}

var debugLog = log.New(log.Writer(), "http2: ", log.LstdFlags)
