package h2fasthttp

import (
	"crypto/tls"
	"errors"
	"net"

	"github.com/domsolutions/h2ws/h2"
	"github.com/valyala/fasthttp"
)

// H2TLSProto is the ALPN protocol id negotiated for HTTP/2, RFC 7540 §3.1.
const H2TLSProto = "h2"

var errUpgrade = errors.New("h2fasthttp: peer did not negotiate h2 over ALPN")

// Server runs an HTTP/2-over-TLS listener whose requests are served by
// a fasthttp.RequestHandler, via Adapt.
type Server struct {
	Handler fasthttp.RequestHandler
	Config  h2.Config
}

// ListenAndServeTLS accepts TLS connections on addr, requiring ALPN to
// negotiate "h2" before handing the connection to the HTTP/2 state
// machine — mirroring the accept-loop shape of a typical fasthttp TLS
// server, generalized from single-protocol to ALPN-gated dispatch.
func (s *Server) ListenAndServeTLS(addr, certFile, keyFile string) error {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return err
	}

	cfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		NextProtos:   []string{H2TLSProto},
	}

	ln, err := tls.Listen("tcp", addr, cfg)
	if err != nil {
		return err
	}

	return s.Serve(ln)
}

// Serve accepts connections from ln, handling each on its own goroutine.
func (s *Server) Serve(ln net.Listener) error {
	for {
		c, err := ln.Accept()
		if err != nil {
			return err
		}

		go s.serveConn(c)
	}
}

func (s *Server) serveConn(c net.Conn) {
	defer c.Close()

	if tlsConn, ok := c.(*tls.Conn); ok {
		if err := tlsConn.Handshake(); err != nil {
			return
		}
		if tlsConn.ConnectionState().NegotiatedProtocol != H2TLSProto {
			return
		}
	}

	handler := h2.RequestHandler(nil)
	if s.Handler != nil {
		handler = Adapt(s.Handler)
	}

	conn := h2.NewConn(c, handler, s.Config)
	_ = conn.Serve()
}
