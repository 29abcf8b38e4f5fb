package main

import (
	"context"
	"crypto/tls"
	"flag"
	"log"
	"net/http"

	"github.com/domsolutions/h2ws/h2"
	"github.com/domsolutions/h2ws/h2fasthttp"
	"github.com/valyala/fasthttp"
	"golang.org/x/crypto/acme"
	"golang.org/x/crypto/acme/autocert"
)

// autocert runs the HTTP/2 server with certificates obtained from an
// ACME CA instead of files on disk, following the teacher's
// examples/autocert pattern: an autocert.Manager answers both the
// HTTP-01 challenge on :80 and GetCertificate on the TLS listener, with
// ALPN advertising both h2 and acme-tls/1.
func main() {
	hostName := flag.String("host", "example.com", "hostname to request a certificate for")
	cacheDir := flag.String("cache", "./certs", "autocert certificate cache directory")
	flag.Parse()

	m := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(*hostName),
		Cache:      autocert.DirCache(*cacheDir),
	}

	challenge := &http.Server{
		Addr:    ":80",
		Handler: m.HTTPHandler(nil),
	}
	go func() {
		if err := challenge.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Println("autocert: challenge listener:", err)
		}
	}()
	defer challenge.Shutdown(context.Background())

	tlsCfg := &tls.Config{
		GetCertificate: m.GetCertificate,
		NextProtos: []string{
			h2fasthttp.H2TLSProto,
			acme.ALPNProto,
		},
	}

	ln, err := tls.Listen("tcp", ":443", tlsCfg)
	if err != nil {
		log.Fatalln(err)
	}

	s := &h2fasthttp.Server{
		Handler: requestHandler,
		Config:  h2.Config{},
	}

	log.Println("autocert: serving h2 on :443 for", *hostName)
	log.Fatalln(s.Serve(ln))
}

func requestHandler(ctx *fasthttp.RequestCtx) {
	ctx.SetContentType("text/plain")
	if ctx.Request.Header.IsPost() {
		ctx.Write(ctx.Request.Body())
		return
	}
	ctx.WriteString("h2ws: hello over " + string(ctx.Request.Header.Protocol()) + "\n")
}
