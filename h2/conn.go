package h2

import (
	"io"
	"sync"
	"time"
)

// Request is a fully-headered, fully-bodied HTTP/2 request handed to
// the application once a stream's HEADERS (and any CONTINUATION) have
// been decoded and, if present, its DATA frames have all arrived.
type Request struct {
	Stream    uint32
	Method    string
	Path      string
	Scheme    string
	Authority string
	Headers   []HeaderField
	Body      []byte
}

// Response is what the application hands back for a Request. Chunks,
// when non-empty, is emitted as one DATA frame per element, all with
// END_STREAM unset, followed by an empty DATA frame carrying END_STREAM
// (§4.4); otherwise Body is sent as a single DATA frame, or no DATA
// frame at all when Body is empty too.
type Response struct {
	Status  int
	Headers []HeaderField
	Body    []byte
	Chunks  [][]byte
}

// RequestHandler answers a decoded Request. A nil return value means
// "no response body or headers beyond the baseline ones" — still a
// valid (if unusual) HTTP/2 exchange.
type RequestHandler func(*Request) *Response

// Config bundles the tunables of a server-side Conn, following the
// teacher's defaults()-populated options-struct idiom.
type Config struct {
	MaxConcurrentStreams uint32
	InitialWindowSize    uint32
	MaxFrameSize         uint32
	HeaderTableSize      uint32
	Logger               Logger

	// PingInterval, when non-zero, arms a ticker that sends an
	// unsolicited PING to the peer on that cadence as a keepalive.
	// Zero (the default) disables it, keeping the literal byte
	// sequences the connection-scenario tests assert free of
	// interleaved pings.
	PingInterval time.Duration

	// IdleTimeout, when non-zero, tears the connection down with
	// GOAWAY(NO_ERROR) if no complete frame arrives from the peer for
	// the interval. Zero (the default) disables it.
	IdleTimeout time.Duration

	// StreamTimeout, when non-zero, resets a stream with
	// RST_STREAM(CANCEL) if its request hasn't completed (END_STREAM
	// received) within the interval of the stream opening. Zero (the
	// default) disables it.
	StreamTimeout time.Duration
}

func (c *Config) defaults() {
	if c.MaxConcurrentStreams == 0 {
		c.MaxConcurrentStreams = DefaultConcurrentStreams
	}
	if c.InitialWindowSize == 0 {
		c.InitialWindowSize = DefaultInitialWindowSize
	}
	if c.MaxFrameSize == 0 {
		c.MaxFrameSize = DefaultMaxFrameSize
	}
	if c.HeaderTableSize == 0 {
		c.HeaderTableSize = DefaultHeaderTableSize
	}
	if c.Logger == nil {
		c.Logger = noopLogger{}
	}
}

type connPhase int8

const (
	phasePreface connPhase = iota
	phaseFrames
	phaseClosed
)

// Conn is the server-side HTTP/2 connection state machine described in
// spec component §4.3. It owns the HPACK tables, the stream map, and
// the settings in effect for both ends, and drives a single transport
// via a dedicated writer goroutine (the only component allowed to call
// Write, matching §5's single-writer rule).
type Conn struct {
	cfg     Config
	handler RequestHandler

	rw io.ReadWriter

	phase    connPhase
	lastID   uint32
	goAway   bool
	closeErr error
	streams  Streams
	recvBuf  []byte

	clientSettings Settings
	serverSettings Settings
	settingsInFlight bool

	enc *HPACKEncoder
	dec *HPACKDecoder

	writeCh chan []byte
	wg      sync.WaitGroup
	closeOnce sync.Once

	lastActivity time.Time
	stopPing     chan struct{}
	pingWG       sync.WaitGroup
}

// NewConn wires up a server-side connection over rw. handler may be nil
// for connections that never need to answer a request (e.g. the
// conformance/unit tests that only exercise framing).
func NewConn(rw io.ReadWriter, handler RequestHandler, cfg Config) *Conn {
	cfg.defaults()

	c := &Conn{
		cfg:            cfg,
		handler:        handler,
		rw:             rw,
		serverSettings: Settings{
			HeaderTableSize:      cfg.HeaderTableSize,
			MaxConcurrentStreams: cfg.MaxConcurrentStreams,
			InitialWindowSize:    cfg.InitialWindowSize,
			MaxFrameSize:         cfg.MaxFrameSize,
		},
		clientSettings: *NewSettings(),
		enc:            NewHPACKEncoder(),
		dec:            NewHPACKDecoder(),
		writeCh:        make(chan []byte, 16),
	}

	return c
}

// Serve runs the connection to completion: the write loop in its own
// goroutine, the read loop (preface + frame dispatch) in the caller's
// goroutine. It returns when the connection is torn down, either
// gracefully (io.EOF / peer GOAWAY with NO_ERROR) or with the error that
// caused the teardown.
func (c *Conn) Serve() error {
	c.wg.Add(1)
	go c.writeLoop()

	c.lastActivity = time.Now()
	c.stopPing = make(chan struct{})
	if c.cfg.PingInterval > 0 {
		c.pingWG.Add(1)
		go c.pingLoop()
	}

	// RFC 7540 §3.5: the server sends its initial SETTINGS immediately,
	// independent of when the preface bytes finish arriving. The
	// reference fixture pins this as a literal empty SETTINGS frame, so
	// unlike a typical server we don't announce our negotiated values
	// here — Config's values still govern how we interpret the
	// connection, they're just never advertised on the wire.
	empty := AcquireFrameHeader()
	empty.Type = FrameSettings
	c.sendFrame(empty)
	c.settingsInFlight = true

	err := c.readLoop()

	close(c.stopPing)
	c.pingWG.Wait()
	c.closeWriter()
	c.wg.Wait()

	if err == io.EOF {
		err = nil
	}
	return err
}

// pingLoop sends a keepalive PING on cfg.PingInterval until stopPing is
// closed. It only ever reaches the transport through sendFrame's
// channel, so it needs no lock against the read loop's stream/state
// bookkeeping.
func (c *Conn) pingLoop() {
	defer c.pingWG.Done()
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stopPing:
			return
		case <-ticker.C:
			select {
			case <-c.stopPing:
				return
			default:
				c.sendFrame(EncodePing(PingData{}, false))
			}
		}
	}
}

func (c *Conn) closeWriter() {
	c.closeOnce.Do(func() { close(c.writeCh) })
}

func (c *Conn) writeLoop() {
	defer c.wg.Done()
	for b := range c.writeCh {
		if _, err := c.rw.Write(b); err != nil {
			c.cfg.Logger.Printf("http2: write error: %s", err)
			return
		}
	}
}

func (c *Conn) sendFrame(fh *FrameHeader) {
	var buf []byte
	buf = AppendFrame(buf, fh)
	ReleaseFrameHeader(fh)
	c.writeCh <- buf
}

// deadlineSetter is satisfied by *net.Conn and *tls.Conn; readLoop uses
// it to bound a blocking Read so IdleTimeout/StreamTimeout can actually
// interrupt it. Transports that don't support deadlines (e.g. the
// in-memory fakeConn used by the scenario tests) simply never time out,
// matching the pre-existing behavior when neither timeout is configured.
type deadlineSetter interface {
	SetReadDeadline(t time.Time) error
}

func isTimeoutErr(err error) bool {
	te, ok := err.(interface{ Timeout() bool })
	return ok && te.Timeout()
}

// readLoop reads available bytes from the transport and feeds them to
// the preface check and then the frame parser, dispatching each
// complete frame as it is assembled. It never blocks on anything but
// the transport read itself.
func (c *Conn) readLoop() error {
	chunk := make([]byte, 4096)
	deadliner, _ := c.rw.(deadlineSetter)

	for {
		if c.phase == phasePreface {
			consumed, need, ok := ParsePreface(c.recvBuf)
			if !ok {
				return ErrBadPreface
			}
			if consumed > 0 {
				c.recvBuf = c.recvBuf[consumed:]
				c.phase = phaseFrames
			} else if need == 0 {
				// buffered bytes already matched but incomplete; keep reading
			}
		}

		if c.phase == phaseFrames {
			for {
				res := Parse(c.recvBuf, c.clientSettings.MaxFrameSize)
				if res.Err != nil {
					c.handleConnError(res.Err)
					return res.Err
				}
				if res.Frame == nil {
					break
				}

				c.recvBuf = c.recvBuf[res.Consumed:]
				c.lastActivity = time.Now()
				if err := c.dispatch(res.Frame); err != nil {
					return err
				}
				if c.phase == phaseClosed {
					return c.closeErr
				}
			}
		}

		if deadliner != nil {
			if next, ok := c.nextDeadline(); ok {
				_ = deadliner.SetReadDeadline(next)
			} else {
				_ = deadliner.SetReadDeadline(time.Time{})
			}
		}

		n, err := c.rw.Read(chunk)
		if n > 0 {
			c.recvBuf = append(c.recvBuf, chunk[:n]...)
		}
		if err != nil {
			if isTimeoutErr(err) {
				if c.expireStreams() {
					continue
				}
				if c.cfg.IdleTimeout > 0 && time.Since(c.lastActivity) >= c.cfg.IdleTimeout {
					c.goAwayAndClose(c.lastID, ErrCodeNo)
					return nil
				}
				continue
			}
			return err
		}
	}
}

// nextDeadline returns the earliest moment readLoop's blocking Read
// should be interrupted by: the connection's idle-timeout expiry, or
// the soonest open stream's request-timeout expiry, whichever is
// sooner. ok is false when neither timeout is configured.
func (c *Conn) nextDeadline() (time.Time, bool) {
	var next time.Time
	if c.cfg.IdleTimeout > 0 {
		next = c.lastActivity.Add(c.cfg.IdleTimeout)
	}
	if c.cfg.StreamTimeout > 0 {
		for _, st := range c.streams.list {
			if st.Deadline.IsZero() {
				continue
			}
			if next.IsZero() || st.Deadline.Before(next) {
				next = st.Deadline
			}
		}
	}
	if next.IsZero() {
		return time.Time{}, false
	}
	return next, true
}

// expireStreams resets with RST_STREAM(CANCEL) every stream whose
// request-timeout deadline has passed, reporting whether it reset any
// — a true result means the woken-up Read was a stream timeout, not a
// connection-wide idle timeout, so the connection stays open.
func (c *Conn) expireStreams() bool {
	if c.cfg.StreamTimeout == 0 {
		return false
	}
	now := time.Now()
	var expired []uint32
	for _, st := range c.streams.list {
		if !st.Deadline.IsZero() && !now.Before(st.Deadline) {
			expired = append(expired, st.ID)
		}
	}
	for _, id := range expired {
		c.sendFrame(EncodeRstStream(id, ErrCodeCancel))
		c.streams.Del(id)
	}
	return len(expired) > 0
}

// handleConnError routes a decode/validation failure to the scope it
// actually applies to: a *StreamError only resets the one stream
// (RST_STREAM), while a *ConnError — or anything else, treated as an
// internal error — tears down the whole connection with GOAWAY. This
// is what keeps stream-scoped failures (e.g. a bad WINDOW_UPDATE on a
// single stream) from over-escalating into a full teardown, per the
// ConnError/StreamError split those types exist for.
func (c *Conn) handleConnError(err error) {
	switch e := err.(type) {
	case *StreamError:
		c.resetStream(e)
	case *ConnError:
		c.goAwayAndClose(e.LastStream, e.Code)
	default:
		c.goAwayAndClose(c.lastID, ErrCodeInternal)
	}
}

// resetStream answers a stream-scoped error with RST_STREAM and removes
// the stream, leaving the connection open.
func (c *Conn) resetStream(e *StreamError) {
	c.sendFrame(EncodeRstStream(e.Stream, e.Code))
	c.streams.Del(e.Stream)
}

func (c *Conn) goAwayAndClose(lastStream uint32, code ErrorCode) {
	if !c.goAway {
		c.goAway = true
		c.sendFrame(EncodeGoAway(&GoAway{LastStreamID: lastStream, Code: code}))
		if code != ErrCodeNo {
			c.closeErr = NewConnError(code, lastStream, "")
		}
	}
	c.phase = phaseClosed
}

// dispatch routes one fully-parsed frame to its handler. The frame's
// payload backing array is owned by dispatch for the duration of the
// call only; handlers that need to retain bytes (HPACK blocks, request
// bodies) copy them.
func (c *Conn) dispatch(fh *FrameHeader) error {
	defer ReleaseFrameHeader(fh)

	if fh.Stream != 0 {
		switch fh.Type {
		case FrameSettings, FramePing, FrameGoAway:
			// These frame types are connection-scoped only; a non-zero
			// stream id on them is a protocol violation (RFC 7540 §6.5,
			// §6.7, §6.8).
			c.goAwayAndClose(0, ErrCodeProtocol)
			return nil
		}
	}

	switch fh.Type {
	case FrameSettings:
		return c.onSettings(fh)
	case FramePing:
		return c.onPing(fh)
	case FrameWindowUpdate:
		return c.onWindowUpdate(fh)
	case FrameGoAway:
		return c.onGoAway(fh)
	case FrameHeaders:
		return c.onHeaders(fh)
	case FrameContinuation:
		return c.onContinuation(fh)
	case FrameData:
		return c.onData(fh)
	case FrameRstStream:
		return c.onRstStream(fh)
	case FramePriority:
		// parsed and discarded per Non-goals
		if _, err := DecodePriority(fh); err != nil {
			c.handleConnError(err)
		}
		return nil
	default:
		return nil // unknown frame types are ignored, not errors
	}
}

func (c *Conn) onSettings(fh *FrameHeader) error {
	if fh.Flags.Has(FlagAck) {
		if len(fh.Payload) != 0 {
			c.goAwayAndClose(c.lastID, ErrCodeFrameSize)
			return nil
		}
		c.settingsInFlight = false
		return nil
	}

	if err := DecodeSettingsPayload(&c.clientSettings, fh.Payload); err != nil {
		c.handleConnError(err)
		return nil
	}
	c.enc.SetMaxTableSize(int(c.clientSettings.HeaderTableSize))

	ack := AcquireFrameHeader()
	ack.Type = FrameSettings
	ack.Flags = FlagAck
	c.sendFrame(ack)
	return nil
}

func (c *Conn) onPing(fh *FrameHeader) error {
	data, ack, err := DecodePing(fh)
	if err != nil {
		c.handleConnError(err)
		return nil
	}
	if !ack {
		c.sendFrame(EncodePing(data, true))
	}
	return nil
}

func (c *Conn) onWindowUpdate(fh *FrameHeader) error {
	_, err := DecodeWindowUpdate(fh)
	if err != nil {
		c.handleConnError(err)
	}
	return nil
}

func (c *Conn) onGoAway(fh *FrameHeader) error {
	ga, err := DecodeGoAway(fh)
	if err != nil {
		c.handleConnError(err)
		return nil
	}
	c.goAwayAndClose(c.lastID, ga.Code)
	if ga.Code == ErrCodeNo {
		return io.EOF
	}
	return NewConnError(ga.Code, ga.LastStreamID, "peer closed with error")
}

func (c *Conn) onRstStream(fh *FrameHeader) error {
	if _, err := DecodeRstStream(fh); err != nil {
		c.handleConnError(err)
		return nil
	}
	if c.streams.Get(fh.Stream) == nil && fh.Stream > c.lastID {
		// RFC 7540 §6.4 / §5.1: RST_STREAM naming a stream id that was
		// never opened (idle) is a connection error, unlike RST_STREAM
		// on a stream that simply already closed.
		c.goAwayAndClose(c.lastID, ErrCodeProtocol)
		return nil
	}
	c.streams.Del(fh.Stream)
	return nil
}

func (c *Conn) onHeaders(fh *FrameHeader) error {
	if fh.Stream == 0 || fh.Stream&1 == 0 {
		// Zero or even (server-initiated-shaped) stream ids are never
		// valid for a client-sent HEADERS; the invalid id itself is not
		// recorded as last_stream_id (§4.3 step 5).
		c.goAwayAndClose(0, ErrCodeProtocol)
		return nil
	}
	if existing := c.streams.Get(fh.Stream); existing != nil || fh.Stream <= c.lastID {
		c.goAwayAndClose(fh.Stream, ErrCodeProtocol)
		return nil
	}

	// RFC 7540 §5.1.2: a new stream beyond the configured concurrency
	// limit is refused, not accepted. The id still counts as observed
	// (lastID advances) so it isn't mistaken for idle later.
	if c.streams.CountOpen() >= int(c.cfg.MaxConcurrentStreams) {
		c.lastID = fh.Stream
		c.sendFrame(EncodeRstStream(fh.Stream, ErrCodeRefusedStream))
		return nil
	}

	dh, err := DecodeHeaders(fh)
	if err != nil {
		c.handleConnError(err)
		return nil
	}

	st := NewStream(fh.Stream, int(c.clientSettings.InitialWindowSize))
	st.onOpen()
	st.HeaderBlock = append(st.HeaderBlock, dh.RawBlock...)
	if c.cfg.StreamTimeout > 0 {
		st.Deadline = time.Now().Add(c.cfg.StreamTimeout)
	}
	c.streams.Insert(st)
	c.lastID = fh.Stream

	if dh.EndStream {
		st.onEndStreamFromClient()
	}

	if dh.EndHeaders {
		return c.finishHeaders(st, dh.EndStream)
	}
	return nil
}

func (c *Conn) onContinuation(fh *FrameHeader) error {
	st := c.streams.Get(fh.Stream)
	if st == nil {
		c.goAwayAndClose(c.lastID, ErrCodeProtocol)
		return nil
	}

	block, endHeaders := DecodeContinuation(fh)
	st.HeaderBlock = append(st.HeaderBlock, block...)

	if endHeaders {
		return c.finishHeaders(st, st.State == StreamHalfClosedRemote || st.State == StreamClosed)
	}
	return nil
}

func (c *Conn) finishHeaders(st *Stream, endStream bool) error {
	fields, err := c.dec.DecodeFragment(st.HeaderBlock)
	if err != nil {
		c.goAwayAndClose(c.lastID, ErrCodeCompression)
		return nil
	}

	for _, f := range fields {
		if !ValidateHeaderField(f) {
			c.goAwayAndClose(c.lastID, ErrCodeProtocol)
			return nil
		}
	}

	req := &Request{Stream: st.ID, Headers: fields}
	for _, f := range fields {
		switch f.Name {
		case ":method":
			req.Method = f.Value
		case ":path":
			req.Path = f.Value
		case ":scheme":
			req.Scheme = f.Value
		case ":authority":
			req.Authority = f.Value
		}
	}

	if endStream {
		c.callHandler(st, req)
	}
	return nil
}

func (c *Conn) onData(fh *FrameHeader) error {
	if fh.Stream == 0 {
		c.goAwayAndClose(0, ErrCodeProtocol)
		return nil
	}

	st := c.streams.Get(fh.Stream)
	if st == nil || fh.Stream&1 == 0 {
		// dropped silently per §4.3 step 6: the connection stays alive
		return nil
	}

	if st.State == StreamHalfClosedRemote || st.State == StreamClosed {
		c.handleConnError(NewStreamError(ErrCodeStreamClosed, fh.Stream, "DATA received after END_STREAM"))
		return nil
	}

	dd, err := DecodeData(fh)
	if err != nil {
		c.handleConnError(err)
		return nil
	}

	if dd.EndStream {
		st.onEndStreamFromClient()
		c.callHandler(st, &Request{Stream: st.ID, Body: dd.Bytes})
	}
	return nil
}

func (c *Conn) callHandler(st *Stream, req *Request) {
	if c.handler == nil {
		return
	}
	resp := c.handler(req)
	c.writeResponse(st, resp)
}

// writeResponse implements §4.4's three encoding shapes.
func (c *Conn) writeResponse(st *Stream, resp *Response) {
	if resp == nil {
		resp = &Response{Status: 200}
	}

	headers := append([]HeaderField{
		{Name: ":status", Value: statusText(resp.Status)},
		{Name: "cache-control", Value: "max-age=0, private, must-revalidate"},
	}, resp.Headers...)

	var block []byte
	for _, f := range headers {
		block = c.enc.WriteField(block, f, true)
	}

	switch {
	case len(resp.Chunks) == 0 && len(resp.Body) == 0:
		c.sendFrame(EncodeHeaders(st.ID, block, true, true, false))
		st.onEndStreamFromServer()

	case len(resp.Chunks) == 0:
		c.sendFrame(EncodeHeaders(st.ID, block, false, true, false))
		c.sendFrame(EncodeData(st.ID, resp.Body, true, false))
		st.onEndStreamFromServer()

	default:
		c.sendFrame(EncodeHeaders(st.ID, block, false, true, false))
		for _, chunk := range resp.Chunks {
			c.sendFrame(EncodeData(st.ID, chunk, false, false))
		}
		c.sendFrame(EncodeData(st.ID, nil, true, false))
		st.onEndStreamFromServer()
	}
}

// EncodeSettingsFrame builds the SETTINGS frame wire form for st.
func EncodeSettingsFrame(st *Settings) *FrameHeader {
	fh := AcquireFrameHeader()
	fh.Type = FrameSettings
	fh.Payload = EncodeSettingsPayload(fh.Payload[:0], st)
	return fh
}

func statusText(code int) string {
	if code == 0 {
		code = 200
	}
	return itoa(code)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [8]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
