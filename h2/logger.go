package h2

// Logger is the minimal logging collaborator the connection state
// machine writes diagnostics through. Shaped after fasthttp.Logger so
// the fasthttp adaptor (see h2fasthttp) can pass its own logger straight
// through without an adapter shim.
type Logger interface {
	Printf(format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Printf(string, ...interface{}) {}
