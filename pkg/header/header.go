// Package header composes request headers for outgoing stream requests.
//
// A stream request carries three layers of headers:
//
//	defaults  <  caller supplied headers  <  (credential headers, only if absent)
//
// Hop-by-hop headers are dropped at every layer because they only describe a
// single transport-level connection that net/http manages itself.
package header

import (
	"net/http"
	"net/textproto"
)

const (
	ContentTypeJSON   = "application/json"
	AcceptEventStream = "text/event-stream"
)

// skip is the set of request headers that are never forwarded.
var skip = map[string]struct{}{
	"Connection":        {},
	"Host":              {},
	"Keep-Alive":        {},
	"Proxy-Connection":  {},
	"Te":                {},
	"Trailer":           {},
	"Transfer-Encoding": {},
	"Upgrade":           {},
}

// Defaults returns the headers every stream request starts from.
func Defaults() http.Header {
	return http.Header{
		"Content-Type": {ContentTypeJSON},
		"Accept":       {AcceptEventStream},
	}
}

// Compose layers overrides on top of defaults. A key present in overrides
// replaces all values of the same key in defaults. Keys are canonicalized,
// so "content-type" overrides "Content-Type". Neither input is modified.
func Compose(defaults, overrides http.Header) http.Header {
	out := make(http.Header, len(defaults)+len(overrides))
	copyInto(out, defaults, true)
	copyInto(out, overrides, true)
	return out
}

// AddMissing copies keys from extra into h only when h has no value for them.
// It is used for ambient credentials, which must never clobber an explicit
// caller header such as Authorization.
func AddMissing(h, extra http.Header) {
	copyInto(h, extra, false)
}

// Skipped reports whether key is a hop-by-hop header that Compose drops.
func Skipped(key string) bool {
	_, ok := skip[textproto.CanonicalMIMEHeaderKey(key)]
	return ok
}

func copyInto(dst, src http.Header, replace bool) {
	for k, vs := range src {
		key := textproto.CanonicalMIMEHeaderKey(k)
		if _, drop := skip[key]; drop {
			continue
		}
		if !replace && len(dst[key]) > 0 {
			continue
		}
		dst[key] = append([]string(nil), vs...)
	}
}

// Filter returns a copy of h without hop-by-hop headers.
func Filter(h http.Header) http.Header {
	out := make(http.Header, len(h))
	copyInto(out, h, true)
	return out
}
