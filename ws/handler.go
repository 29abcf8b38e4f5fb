package ws

// Result is what every handler callback returns: whether the
// connection should keep running, close, or abort with an application
// error, per §6's "continue/close/error" tri-state.
type Result struct {
	Action ResultAction
	State  interface{}
	Reason string
}

type ResultAction int8

const (
	ActionContinue ResultAction = iota
	ActionClose
	ActionError
)

func Continue(state interface{}) Result { return Result{Action: ActionContinue, State: state} }
func Close(state interface{}) Result    { return Result{Action: ActionClose, State: state} }
func Failure(reason string, state interface{}) Result {
	return Result{Action: ActionError, Reason: reason, State: state}
}

// NegotiateOptions is what a successful negotiate() may request of the
// runtime. Timeout, when non-zero, installs a persistent idle timer
// (§6): if no frame arrives within Timeout, handle_timeout fires and
// the connection is closed with 1002.
type NegotiateOptions struct {
	Timeout int64 // milliseconds; 0 means no idle timer
}

// Decision is negotiate's return value: either accept with options, or
// refuse the upgrade outright.
type Decision struct {
	Accepted bool
	Options  NegotiateOptions
}

func Accept(opts NegotiateOptions) Decision { return Decision{Accepted: true, Options: opts} }
func Refuse() Decision                      { return Decision{} }

// Handler is the capability set an application implements to drive a
// WebSocket connection: one interface with one method per named
// operation of §6, with no virtual inheritance (§9). Most handlers only
// care about a couple of these and embed BaseHandler for the rest.
type Handler interface {
	Negotiate(c *Conn, state interface{}) Decision
	HandleConnection(c *Conn, state interface{}) Result
	HandleText(c *Conn, state interface{}, data []byte) Result
	HandleBinary(c *Conn, state interface{}, data []byte) Result
	HandlePing(c *Conn, state interface{}, data []byte) Result
	HandlePong(c *Conn, state interface{}, data []byte) Result
	HandleClose(c *Conn, state interface{}, remote bool, code int) Result
	HandleError(c *Conn, state interface{}, reason string) Result
	HandleTimeout(c *Conn, state interface{}) Result
	HandleInfo(c *Conn, state interface{}, info string) Result
}

// BaseHandler provides no-op defaults for every Handler method so
// applications can embed it and override only what they need — the
// same "partial implementation" convenience fasthttp.RequestHandler
// callers get from not having to implement unused hooks.
type BaseHandler struct{}

func (BaseHandler) Negotiate(*Conn, interface{}) Decision { return Accept(NegotiateOptions{}) }
func (BaseHandler) HandleConnection(*Conn, interface{}) Result { return Continue(nil) }
func (BaseHandler) HandleText(_ *Conn, s interface{}, _ []byte) Result    { return Continue(s) }
func (BaseHandler) HandleBinary(_ *Conn, s interface{}, _ []byte) Result  { return Continue(s) }
func (BaseHandler) HandlePing(_ *Conn, s interface{}, _ []byte) Result    { return Continue(s) }
func (BaseHandler) HandlePong(_ *Conn, s interface{}, _ []byte) Result    { return Continue(s) }
func (BaseHandler) HandleClose(_ *Conn, s interface{}, _ bool, _ int) Result {
	return Close(s)
}
func (BaseHandler) HandleError(_ *Conn, s interface{}, _ string) Result { return Close(s) }
func (BaseHandler) HandleTimeout(_ *Conn, s interface{}) Result        { return Close(s) }
func (BaseHandler) HandleInfo(_ *Conn, s interface{}, _ string) Result  { return Continue(s) }
