package ws

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// echoTestHandler echoes text/binary frames back to the sender and
// records whether HandleTimeout was called, so tests can assert on both
// the wire bytes and the timeout callback.
type echoTestHandler struct {
	BaseHandler
	timedOut bool
}

func (h *echoTestHandler) HandleText(c *Conn, state interface{}, data []byte) Result {
	_ = c.Send(OpText, data)
	return Continue(state)
}

func (h *echoTestHandler) HandleBinary(c *Conn, state interface{}, data []byte) Result {
	_ = c.Send(OpBinary, data)
	return Continue(state)
}

func (h *echoTestHandler) HandleTimeout(c *Conn, state interface{}) Result {
	h.timedOut = true
	return Close(state)
}

// readFrame blocks until Parse can decode one complete frame off conn,
// accumulating reads the way Conn.Serve itself does.
func readFrame(t *testing.T, conn net.Conn) Frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var buf []byte
	chunk := make([]byte, 4096)
	for {
		res := Parse(buf)
		require.Nil(t, res.Err)
		if res.Frame != nil {
			return *res.Frame
		}
		n, err := conn.Read(chunk)
		require.NoError(t, err)
		buf = append(buf, chunk[:n]...)
	}
}

func serveOnPipe(handler Handler, opts NegotiateOptions) (client net.Conn, done chan error) {
	server, client := net.Pipe()
	c := NewConn(handler, nil)
	done = make(chan error, 1)
	go func() {
		done <- c.Serve(server, nil, opts)
	}()
	return client, done
}

func TestConnEchoesTextFrame(t *testing.T) {
	h := &echoTestHandler{}
	client, _ := serveOnPipe(h, NegotiateOptions{})
	defer client.Close()

	_, err := client.Write(maskedFrameBytes(Frame{Fin: true, Opcode: OpText, Payload: []byte("hi")}, [4]byte{1, 2, 3, 4}))
	require.NoError(t, err)

	got := readFrame(t, client)
	require.Equal(t, OpText, got.Opcode)
	require.Equal(t, []byte("hi"), got.Payload)
}

func TestConnPingElicitsPong(t *testing.T) {
	h := &echoTestHandler{}
	client, _ := serveOnPipe(h, NegotiateOptions{})
	defer client.Close()

	_, err := client.Write(maskedFrameBytes(Frame{Fin: true, Opcode: OpPing, Payload: []byte("p")}, [4]byte{5, 6, 7, 8}))
	require.NoError(t, err)

	got := readFrame(t, client)
	require.Equal(t, OpPong, got.Opcode)
	require.Equal(t, []byte("p"), got.Payload)
}

// TestConnClosesOnBareFrameDuringFragment covers a non-final Text frame
// followed by a non-continuation data frame: the in-progress fragment
// makes the second frame a protocol violation (§4.6), closed with 1002.
func TestConnClosesOnBareFrameDuringFragment(t *testing.T) {
	h := &echoTestHandler{}
	client, _ := serveOnPipe(h, NegotiateOptions{})
	defer client.Close()

	_, err := client.Write(maskedFrameBytes(Frame{Fin: false, Opcode: OpText, Payload: []byte("a")}, [4]byte{1, 1, 1, 1}))
	require.NoError(t, err)
	_, err = client.Write(maskedFrameBytes(Frame{Fin: true, Opcode: OpText, Payload: []byte("b")}, [4]byte{2, 2, 2, 2}))
	require.NoError(t, err)

	got := readFrame(t, client)
	require.Equal(t, OpClose, got.Opcode)
	require.Equal(t, CloseProtocolError, int(got.Payload[0])<<8|int(got.Payload[1]))
}

func TestConnRewritesRemoteCloseCode1006To1002(t *testing.T) {
	h := &echoTestHandler{}
	client, _ := serveOnPipe(h, NegotiateOptions{})
	defer client.Close()

	payload := []byte{byte(CloseAbnormal >> 8), byte(CloseAbnormal)}
	_, err := client.Write(maskedFrameBytes(Frame{Fin: true, Opcode: OpClose, Payload: payload}, [4]byte{3, 3, 3, 3}))
	require.NoError(t, err)

	got := readFrame(t, client)
	require.Equal(t, OpClose, got.Opcode)
	require.Equal(t, CloseProtocolError, int(got.Payload[0])<<8|int(got.Payload[1]))
}

func TestConnRewritesRemoteCloseCode3000To1000(t *testing.T) {
	h := &echoTestHandler{}
	client, _ := serveOnPipe(h, NegotiateOptions{})
	defer client.Close()

	payload := []byte{byte(3000 >> 8), byte(3000)}
	_, err := client.Write(maskedFrameBytes(Frame{Fin: true, Opcode: OpClose, Payload: payload}, [4]byte{4, 4, 4, 4}))
	require.NoError(t, err)

	got := readFrame(t, client)
	require.Equal(t, OpClose, got.Opcode)
	require.Equal(t, CloseNormal, int(got.Payload[0])<<8|int(got.Payload[1]))
}

func TestConnClosesOnInvalidUTF8Text(t *testing.T) {
	h := &echoTestHandler{}
	client, _ := serveOnPipe(h, NegotiateOptions{})
	defer client.Close()

	invalid := []byte{0xff, 0xfe, 0xfd}
	_, err := client.Write(maskedFrameBytes(Frame{Fin: true, Opcode: OpText, Payload: invalid}, [4]byte{7, 7, 7, 7}))
	require.NoError(t, err)

	got := readFrame(t, client)
	require.Equal(t, OpClose, got.Opcode)
	require.Equal(t, CloseInvalidPayload, int(got.Payload[0])<<8|int(got.Payload[1]))
}

func TestConnIdleTimeoutClosesWithProtocolError(t *testing.T) {
	h := &echoTestHandler{}
	client, _ := serveOnPipe(h, NegotiateOptions{Timeout: 50})
	defer client.Close()

	got := readFrame(t, client)
	require.Equal(t, OpClose, got.Opcode)
	require.Equal(t, CloseProtocolError, int(got.Payload[0])<<8|int(got.Payload[1]))
	require.True(t, h.timedOut)
}
