package stream

import (
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/papercomputeco/tapestream/pkg/header"
)

const defaultReadSize = 32 * 1024

// Option configures a Controller.
type Option func(*Controller)

// WithHTTPClient sets the client used for stream requests. Its Jar becomes
// the ambient cookie jar unless WithCookieJar is also given. The client
// should not set Timeout, which would cut long-lived streams; use a context
// deadline instead.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Controller) {
		c.client = client
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// WithCookieJar sets the ambient cookie jar.
func WithCookieJar(jar http.CookieJar) Option {
	return func(c *Controller) {
		c.jar = jar
	}
}

// WithCredentialHeaders sets ambient credential headers, for example an
// Authorization header loaded from config. They never replace a header the
// session config sets explicitly. Hop-by-hop headers are discarded.
func WithCredentialHeaders(h http.Header) Option {
	return func(c *Controller) {
		c.credentialHeaders = header.Filter(h)
	}
}

// WithOrigin sets the origin used by CredentialsSameOrigin. Without an
// origin every request is treated as same-origin.
func WithOrigin(origin *url.URL) Option {
	return func(c *Controller) {
		c.origin = origin
	}
}

// WithReadSize sets the buffer size of each body read.
func WithReadSize(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.readSize = n
		}
	}
}

// WithTee writes every raw body byte of every session to w.
func WithTee(w io.Writer) Option {
	return func(c *Controller) {
		c.tee = w
	}
}
