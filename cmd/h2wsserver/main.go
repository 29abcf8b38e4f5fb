package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/domsolutions/h2ws/h2"
	"github.com/domsolutions/h2ws/h2fasthttp"
	"github.com/domsolutions/h2ws/ws"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

func main() {
	cfgPath := "h2wsserver.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		log.Fatalln(err)
	}

	zl, err := zap.NewProduction()
	if err != nil {
		log.Fatalln(err)
	}
	defer zl.Sync()
	logger := zapLogger{s: zl.Sugar()}

	go serveWebSocket(cfg, logger)

	s := &h2fasthttp.Server{
		Handler: requestHandler,
		Config: h2.Config{
			MaxConcurrentStreams: cfg.HTTP2.MaxConcurrentStreams,
			InitialWindowSize:    cfg.HTTP2.InitialWindowSize,
			MaxFrameSize:         cfg.HTTP2.MaxFrameSize,
			HeaderTableSize:      cfg.HTTP2.HeaderTableSize,
			Logger:               logger,
		},
	}

	logger.Printf("h2wsserver: listening for HTTP/2 on %s", cfg.Addr)
	if err := s.ListenAndServeTLS(cfg.Addr, cfg.CertFile, cfg.KeyFile); err != nil {
		zl.Sugar().Fatalln(err)
	}
}

func requestHandler(ctx *fasthttp.RequestCtx) {
	if ctx.Request.Header.IsPost() {
		fmt.Fprintf(ctx, "%s\n", ctx.Request.Body())
		return
	}
	fmt.Fprintf(ctx, "h2ws: hello over %s\n", ctx.Request.Header.Protocol())
}

// serveWebSocket runs the plain HTTP/1.1 listener that performs the
// WebSocket upgrade handshake before handing the hijacked connection to
// the ws state machine. It is deliberately a separate listener from the
// HTTP/2 TLS one: the upgrade handshake in this server is unencrypted,
// matching the Non-goal that leaves TLS termination for the WebSocket
// side out of scope.
func serveWebSocket(cfg *Config, logger zapLogger) {
	mux := http.NewServeMux()
	mux.HandleFunc(cfg.WebSocket.Path, func(w http.ResponseWriter, r *http.Request) {
		handleUpgrade(w, r, cfg, logger)
	})

	logger.Printf("h2wsserver: listening for WebSocket on %s%s", cfg.WebSocket.Addr, cfg.WebSocket.Path)
	if err := http.ListenAndServe(cfg.WebSocket.Addr, mux); err != nil {
		logger.Printf("h2wsserver: websocket listener stopped: %s", err)
	}
}

func handleUpgrade(w http.ResponseWriter, r *http.Request, cfg *Config, logger zapLogger) {
	key, err := ws.ValidateUpgrade(r.Header)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	hj, ok := w.(http.Hijacker)
	if !ok {
		http.Error(w, "hijack unsupported", http.StatusInternalServerError)
		return
	}

	conn, rw, err := hj.Hijack()
	if err != nil {
		logger.Printf("h2wsserver: hijack failed: %s", err)
		return
	}
	defer conn.Close()

	if err := rw.Flush(); err != nil {
		return
	}
	if _, err := conn.Write(ws.UpgradeResponse(key)); err != nil {
		return
	}

	wsConn := ws.NewConn(echoHandler{}, logger)
	opts := ws.NegotiateOptions{Timeout: cfg.WebSocket.IdleTimeoutMs}
	if err := wsConn.Serve(conn, nil, opts); err != nil {
		logger.Printf("h2wsserver: websocket connection ended: %s", err)
	}
}
