package httpx

import (
	"context"
	"io"
	"net/http"
)

// Response adapts *http.Response to the downloader's response contract.
type Response struct {
	resp     *http.Response
	maxBytes int64
}

func (r *Response) StatusCode() int { return r.resp.StatusCode }

// Header returns the first value for name, matched case-insensitively.
func (r *Response) Header(name string) string { return r.resp.Header.Get(name) }

// Read returns the body, stopping one byte past the configured cap.
func (r *Response) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var body io.Reader = r.resp.Body
	if r.maxBytes > 0 {
		body = io.LimitReader(r.resp.Body, r.maxBytes+1)
	}
	return io.ReadAll(body)
}

func (r *Response) Close() error { return r.resp.Body.Close() }
