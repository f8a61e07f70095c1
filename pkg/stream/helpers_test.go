package stream_test

import (
	"io"
	"net/http"
	"sync"

	"github.com/papercomputeco/tapestream/pkg/stream"
)

// roundTripFunc adapts a function to http.RoundTripper.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// chunkedBody yields one predetermined chunk per Read, then io.EOF.
type chunkedBody struct {
	chunks [][]byte
}

func (b *chunkedBody) Read(p []byte) (int, error) {
	if len(b.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, b.chunks[0])
	b.chunks[0] = b.chunks[0][n:]
	if len(b.chunks[0]) == 0 {
		b.chunks = b.chunks[1:]
	}
	return n, nil
}

func (b *chunkedBody) Close() error { return nil }

// heldBody yields its chunks, then blocks until the request context ends.
type heldBody struct {
	chunkedBody
	req *http.Request
}

func (b *heldBody) Read(p []byte) (int, error) {
	if len(b.chunks) > 0 {
		return b.chunkedBody.Read(p)
	}
	<-b.req.Context().Done()
	return 0, b.req.Context().Err()
}

func chunks(parts ...string) [][]byte {
	out := make([][]byte, 0, len(parts))
	for _, p := range parts {
		out = append(out, []byte(p))
	}
	return out
}

func okResponse(req *http.Request, body io.ReadCloser) *http.Response {
	return &http.Response{
		Status:     "200 OK",
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": {"text/event-stream"}},
		Body:       body,
		Request:    req,
	}
}

// streamingClient serves every request from the given chunks.
func streamingClient(parts ...string) *http.Client {
	return &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return okResponse(req, &chunkedBody{chunks: chunks(parts...)}), nil
	})}
}

// heldClient serves the given chunks and then keeps the stream open.
func heldClient(parts ...string) *http.Client {
	return &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return okResponse(req, &heldBody{chunkedBody: chunkedBody{chunks: chunks(parts...)}, req: req}), nil
	})}
}

// recorder collects observer calls.
type recorder struct {
	mu       sync.Mutex
	statuses []stream.Status
	data     []map[string]any
	errors   []string
	finished int
}

func (r *recorder) config(url string) stream.Config {
	return stream.Config{
		URL: url,
		OnStatus: func(s stream.Status) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.statuses = append(r.statuses, s)
		},
		OnData: func(d map[string]any) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.data = append(r.data, d)
		},
		OnError: func(msg string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.errors = append(r.errors, msg)
		},
		OnFinish: func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.finished++
		},
	}
}

func (r *recorder) Statuses() []stream.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]stream.Status(nil), r.statuses...)
}

func (r *recorder) Data() []map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]map[string]any(nil), r.data...)
}

func (r *recorder) Errors() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.errors...)
}

func (r *recorder) Finished() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finished
}
