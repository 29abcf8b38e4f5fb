package ws

// Logger mirrors h2.Logger (and fasthttp.Logger): one varargs Printf,
// kept identical across both protocol packages so a single adaptor
// logger serves both.
type Logger interface {
	Printf(format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Printf(string, ...interface{}) {}
