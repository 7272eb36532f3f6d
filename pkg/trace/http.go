// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package trace

import (
	"net/http"

	opentracing "github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
)

// DecorateHttpRequest injects the span's context into req's headers so
// the receiving service can continue the trace.
func DecorateHttpRequest(req *http.Request, span opentracing.Span) *http.Request {
	tracer := opentracing.GlobalTracer()

	ext.SpanKindRPCClient.Set(span)
	ext.HTTPUrl.Set(span, req.URL.String())
	ext.HTTPMethod.Set(span, req.Method)

	tracer.Inject(
		span.Context(),
		opentracing.HTTPHeaders,
		opentracing.HTTPHeadersCarrier(req.Header),
	)
	return req
}

// FromRequest returns a span continuing whatever trace context arrived
// in req's headers, or a fresh root span otherwise.
func FromRequest(name string, req *http.Request) opentracing.Span {
	tracer := opentracing.GlobalTracer()

	wireContext, _ := tracer.Extract(
		opentracing.HTTPHeaders,
		opentracing.HTTPHeadersCarrier(req.Header),
	)
	return tracer.StartSpan(name, ext.RPCServerOption(wireContext))
}
