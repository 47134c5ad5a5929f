package http

import (
	"context"
	"errors"
	"time"
)

// ErrBodyTooLarge is returned when a response exceeds RequestParam.MaxBodyBytes.
var ErrBodyTooLarge = errors.New("response body too large")

type IClient interface {
	DoHTTPRequest(ctx context.Context, requestParam *RequestParam) error
}

// RequestParam describes one request.
//
// Body may be nil, an io.Reader, a []byte, or any value that is sent as JSON.
// Response may be nil, a *[]byte that receives the raw body, or a pointer the
// body is decoded into as JSON. A positive MaxBodyBytes caps how much of the
// response is read.
type RequestParam struct {
	RequestURI string
	Method     string
	Header     map[string]string
	Body       interface{}
	Response   interface{}

	Timeout      time.Duration
	MaxBodyBytes int64
}
