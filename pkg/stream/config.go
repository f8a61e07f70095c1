package stream

import (
	"fmt"
	"net/http"
)

// Credentials controls whether ambient credentials (the controller's cookie
// jar and credential headers) are attached to a request.
type Credentials int

const (
	// CredentialsInclude always attaches ambient credentials. It is the default.
	CredentialsInclude Credentials = iota

	// CredentialsSameOrigin attaches them only when the request URL shares
	// scheme, host and port with the controller origin (see WithOrigin).
	CredentialsSameOrigin

	// CredentialsOmit never attaches them.
	CredentialsOmit
)

func (c Credentials) String() string {
	switch c {
	case CredentialsInclude:
		return "include"
	case CredentialsSameOrigin:
		return "same-origin"
	case CredentialsOmit:
		return "omit"
	default:
		return fmt.Sprintf("credentials(%d)", int(c))
	}
}

// ParseCredentials is the inverse of Credentials.String. An empty name is
// CredentialsInclude.
func ParseCredentials(name string) (Credentials, error) {
	switch name {
	case "", "include":
		return CredentialsInclude, nil
	case "same-origin":
		return CredentialsSameOrigin, nil
	case "omit":
		return CredentialsOmit, nil
	default:
		return CredentialsInclude, fmt.Errorf("unknown credentials policy: %q (available: include, same-origin, omit)", name)
	}
}

// Config describes one stream session.
type Config struct {
	// ID names the session. A random UUID is used when empty.
	ID string

	// URL is the stream endpoint. Required.
	URL string

	// Method defaults to POST.
	Method string

	// Headers are layered over the default JSON content type and
	// event-stream accept headers; a key set here replaces the default.
	Headers http.Header

	Credentials Credentials

	// Body is JSON-encoded as the request payload when non-nil.
	Body any

	// OnData receives every object merged into the result. For wrapped
	// "object" payloads it receives the nested object.
	OnData func(data map[string]any)

	// OnError receives the message of a fatal session error.
	OnError func(message string)

	// OnFinish is called once the session completes normally.
	OnFinish func()

	// OnStatus is called on every status transition.
	OnStatus func(status Status)
}

func (c Config) withDefaults() Config {
	if c.Method == "" {
		c.Method = http.MethodPost
	}
	return c
}

// observers is the callback set of one session.
type observers struct {
	onData   func(map[string]any)
	onError  func(string)
	onFinish func()
	onStatus func(Status)
}

func (c Config) observers() observers {
	return observers{
		onData:   c.OnData,
		onError:  c.OnError,
		onFinish: c.OnFinish,
		onStatus: c.OnStatus,
	}
}
