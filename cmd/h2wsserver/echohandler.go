package main

import "github.com/domsolutions/h2ws/ws"

// echoHandler is a minimal demonstration Handler: it accepts every
// upgrade and echoes text/binary frames back to the sender, the same
// role the teacher's examples/ directory fills for the HTTP/2 side.
type echoHandler struct {
	ws.BaseHandler
}

func (echoHandler) HandleText(c *ws.Conn, state interface{}, data []byte) ws.Result {
	_ = c.Send(ws.OpText, data)
	return ws.Continue(state)
}

func (echoHandler) HandleBinary(c *ws.Conn, state interface{}, data []byte) ws.Result {
	_ = c.Send(ws.OpBinary, data)
	return ws.Continue(state)
}
