// Package h2fasthttp adapts the protocol-agnostic h2.RequestHandler
// boundary onto fasthttp's RequestCtx/RequestHandler shape, so existing
// fasthttp applications can be served over HTTP/2 without rewriting
// their handlers. This is the one place the corpus's most prominent
// third-party HTTP stack, fasthttp, gets wired in.
package h2fasthttp

import (
	"github.com/domsolutions/h2ws/h2"
	"github.com/valyala/fasthttp"
)

// Adapt wraps a fasthttp.RequestHandler so it can be passed as an
// h2.RequestHandler. Request headers/body populate a throwaway
// fasthttp.RequestCtx; the handler's response is translated back into
// an h2.Response.
func Adapt(handler fasthttp.RequestHandler) h2.RequestHandler {
	return func(req *h2.Request) *h2.Response {
		var ctx fasthttp.RequestCtx
		var r fasthttp.Request

		r.Header.SetMethod(req.Method)
		r.Header.SetRequestURI(req.Path)
		r.Header.Set("Host", req.Authority)
		for _, f := range req.Headers {
			if f.IsPseudo() {
				continue
			}
			r.Header.Add(f.Name, f.Value)
		}
		r.SetBody(req.Body)
		ctx.Init(&r, nil, nil)

		handler(&ctx)

		resp := &h2.Response{Status: ctx.Response.StatusCode()}
		ctx.Response.Header.VisitAll(func(k, v []byte) {
			resp.Headers = append(resp.Headers, h2.HeaderField{
				Name:  string(lowerASCII(k)),
				Value: string(v),
			})
		})
		resp.Body = append(resp.Body, ctx.Response.Body()...)

		return resp
	}
}

func lowerASCII(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return out
}
