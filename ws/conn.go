package ws

import (
	"io"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/domsolutions/h2ws/transport"
)

type connState int8

const (
	stateOpen connState = iota
	stateClosing
)

type fragmentKind int8

const (
	fragmentNone fragmentKind = iota
	fragmentText
	fragmentBinary
)

// Command is what the connection state machine hands back to the
// owning I/O loop instead of touching the transport itself, resolving
// the Connection/Socket cyclic reference the same way package
// transport's Closer doc describes (§9 design note).
type Command struct {
	// Write, when non-nil, must be sent to the peer before anything else.
	Write []byte
	// Terminate requests the transport be closed after Write is sent.
	Terminate bool
}

// Conn is the WebSocket connection state machine described in
// component §4.6: fragmentation buffer, open/closing state, and the
// close-code rewrite policy. It does not own the transport — Serve
// drives a transport.Conn passed in by the caller, and every state
// transition that needs to emit bytes does so by returning a Command.
type Conn struct {
	handler Handler
	state   connState

	fragKind fragmentKind
	fragBuf  []byte

	// closeMu guards closeSent/state: the idle timer fires from its own
	// goroutine (time.AfterFunc) and must not race the Serve loop's
	// close path, even though everything else about Conn is exclusively
	// owned by Serve's goroutine per the single-writer model.
	closeMu   sync.Mutex
	closeSent bool

	idleTimeout time.Duration
	idleTimer   *time.Timer

	logger Logger

	// rw is set for the duration of Serve so handler callbacks invoked
	// from inside it (they always run on Serve's own goroutine — frame
	// processing is strictly sequential per §5) can send frames of
	// their own via Send, e.g. to answer a text frame with a reply.
	rw transport.Conn
}

// Send writes a single, non-control data frame to the peer. It is only
// valid to call from within a Handler callback during Serve.
func (c *Conn) Send(opcode Opcode, data []byte) error {
	if c.rw == nil {
		return errNotServing
	}
	_, err := c.rw.Write(Append(nil, Frame{Fin: true, Opcode: opcode, Payload: data}))
	return err
}

// NewConn returns a Conn ready to run Serve once negotiate has accepted
// the upgrade.
func NewConn(handler Handler, logger Logger) *Conn {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Conn{handler: handler, state: stateOpen, logger: logger}
}

// Serve drives rw until the connection closes, dispatching every frame
// to handler and writing whatever bytes the state machine produces.
// handlerState is the opaque value threaded through every callback
// (§6); it starts as whatever negotiate's Decision carried forward.
func (c *Conn) Serve(rw transport.Conn, handlerState interface{}, opts NegotiateOptions) error {
	if opts.Timeout > 0 {
		c.idleTimeout = time.Duration(opts.Timeout) * time.Millisecond
	}
	c.rw = rw
	defer func() { c.rw = nil }()

	if res := c.handler.HandleConnection(c, handlerState); res.Action != ActionContinue {
		return c.terminate(rw, res)
	} else {
		handlerState = res.State
	}

	c.armIdleTimer(rw)
	defer c.stopIdleTimer()

	var buf []byte
	chunk := make([]byte, 4096)

	for c.state == stateOpen {
		for {
			res := Parse(buf)
			if res.Err != nil {
				cmd := c.protocolErrorCommand()
				c.writeCommand(rw, cmd)
				return res.Err
			}
			if res.Frame == nil {
				break
			}
			buf = buf[res.Consumed:]
			c.resetIdleTimer()

			var cmd Command
			cmd, handlerState = c.handleFrame(*res.Frame, handlerState)
			if cmd.Write != nil || cmd.Terminate {
				if err := c.writeCommand(rw, cmd); err != nil {
					return err
				}
			}
			if c.state != stateOpen {
				return nil
			}
		}

		n, err := rw.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if err != nil {
			if err == io.EOF {
				c.onTransportClosed(rw, handlerState)
				return nil
			}
			c.onTransportClosed(rw, handlerState)
			return err
		}
	}

	return nil
}

func (c *Conn) terminate(rw transport.Conn, res Result) error {
	code := CloseInternalError
	if res.Action == ActionClose {
		code = CloseNormal
	}
	c.sendClose(rw, code)
	return rw.Close()
}

func (c *Conn) writeCommand(rw transport.Conn, cmd Command) error {
	if len(cmd.Write) > 0 {
		if _, err := rw.Write(cmd.Write); err != nil {
			return err
		}
	}
	if cmd.Terminate {
		return rw.Close()
	}
	return nil
}

func (c *Conn) protocolErrorCommand() Command {
	return c.closeCommand(CloseProtocolError)
}

// closeCommand builds (at most once, per §4.6's "MUST NOT be emitted
// twice" rule) the Command that sends a Close frame with code and
// terminates the transport.
func (c *Conn) closeCommand(code int) Command {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	if c.closeSent {
		return Command{}
	}
	c.closeSent = true
	c.state = stateClosing
	return Command{Write: Append(nil, closeFrame(code)), Terminate: true}
}

func closeFrame(code int) Frame {
	payload := []byte{byte(code >> 8), byte(code)}
	return Frame{Fin: true, Opcode: OpClose, Payload: payload}
}

func (c *Conn) sendClose(rw transport.Conn, code int) {
	cmd := c.closeCommand(code)
	_ = c.writeCommand(rw, cmd)
}

// handleFrame implements the transition table of component §4.6.
func (c *Conn) handleFrame(f Frame, state interface{}) (Command, interface{}) {
	if f.Opcode.IsControl() {
		return c.handleControl(f, state)
	}

	if c.fragKind != fragmentNone {
		// A non-continuation data frame while a fragment is in progress
		// is a protocol error; continuation frames are accepted only
		// here (with no fragment in progress the switch below rejects
		// them).
		if f.Opcode != OpContinuation {
			return c.protocolErrorCommand(), state
		}
		c.fragBuf = append(c.fragBuf, f.Payload...)
		if !f.Fin {
			return Command{}, state
		}

		kind := c.fragKind
		complete := append([]byte(nil), c.fragBuf...)
		c.fragKind = fragmentNone
		c.fragBuf = nil

		return c.dispatchComplete(kind, complete, state)
	}

	switch f.Opcode {
	case OpContinuation:
		return c.protocolErrorCommand(), state

	case OpText:
		if !f.Fin {
			c.fragKind = fragmentText
			c.fragBuf = append(c.fragBuf[:0], f.Payload...)
			return Command{}, state
		}
		return c.dispatchComplete(fragmentText, f.Payload, state)

	case OpBinary:
		if !f.Fin {
			c.fragKind = fragmentBinary
			c.fragBuf = append(c.fragBuf[:0], f.Payload...)
			return Command{}, state
		}
		return c.dispatchComplete(fragmentBinary, f.Payload, state)
	}

	return c.protocolErrorCommand(), state
}

func (c *Conn) dispatchComplete(kind fragmentKind, data []byte, state interface{}) (Command, interface{}) {
	if kind == fragmentText && !utf8.Valid(data) {
		return c.closeCommand(CloseInvalidPayload), state
	}

	var res Result
	if kind == fragmentText {
		res = c.handler.HandleText(c, state, data)
	} else {
		res = c.handler.HandleBinary(c, state, data)
	}

	return c.resultCommand(res)
}

func (c *Conn) handleControl(f Frame, state interface{}) (Command, interface{}) {
	switch f.Opcode {
	case OpPing:
		res := c.handler.HandlePing(c, state, f.Payload)
		cmd, next := c.resultCommand(res)
		if cmd.Write == nil && !cmd.Terminate {
			cmd.Write = Append(nil, Frame{Fin: true, Opcode: OpPong, Payload: f.Payload})
		}
		return cmd, next

	case OpPong:
		res := c.handler.HandlePong(c, state, f.Payload)
		return c.resultCommand(res)

	case OpClose:
		code := CloseNoStatus
		if len(f.Payload) >= 2 {
			code = int(f.Payload[0])<<8 | int(f.Payload[1])
		}
		c.handler.HandleClose(c, state, true, code)
		return c.closeCommand(RewriteCloseCode(code)), state
	}

	return c.protocolErrorCommand(), state
}

func (c *Conn) resultCommand(res Result) (Command, interface{}) {
	switch res.Action {
	case ActionClose:
		return c.closeCommand(CloseNormal), res.State
	case ActionError:
		return c.closeCommand(CloseInternalError), res.State
	default:
		return Command{}, res.State
	}
}

func (c *Conn) onTransportClosed(rw transport.Conn, state interface{}) {
	c.handler.HandleError(c, state, "closed")
	if c.state == stateOpen {
		cmd := c.closeCommand(CloseAbnormal)
		_ = c.writeCommand(rw, cmd)
	}
}

func (c *Conn) armIdleTimer(rw transport.Conn) {
	if c.idleTimeout <= 0 {
		return
	}
	c.idleTimer = time.AfterFunc(c.idleTimeout, func() {
		c.handler.HandleTimeout(c, nil)
		cmd := c.closeCommand(CloseProtocolError)
		_ = c.writeCommand(rw, cmd)
	})
}

func (c *Conn) resetIdleTimer() {
	if c.idleTimer != nil {
		c.idleTimer.Reset(c.idleTimeout)
	}
}

func (c *Conn) stopIdleTimer() {
	if c.idleTimer != nil {
		c.idleTimer.Stop()
	}
}
