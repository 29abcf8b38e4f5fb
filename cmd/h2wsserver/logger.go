package main

import "go.uber.org/zap"

// zapLogger adapts a *zap.SugaredLogger to the Printf-shaped h2.Logger
// and ws.Logger interfaces, so both protocol packages log through the
// same structured backend the rest of the binary uses.
type zapLogger struct {
	s *zap.SugaredLogger
}

func (l zapLogger) Printf(format string, args ...interface{}) {
	l.s.Infof(format, args...)
}
