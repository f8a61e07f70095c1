package stream

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/papercomputeco/tapestream/pkg/header"
)

var errNoURL = errors.New("url is required")

func (c *Controller) newRequest(s *session) (*http.Request, error) {
	cfg := s.cfg
	if cfg.URL == "" {
		return nil, errNoURL
	}

	var body io.Reader
	if cfg.Body != nil {
		b, err := json.Marshal(cfg.Body)
		if err != nil {
			return nil, fmt.Errorf("encoding body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(s.ctx, cfg.Method, cfg.URL, body)
	if err != nil {
		return nil, err
	}

	req.Header = header.Compose(header.Defaults(), cfg.Headers)
	if c.sendCredentials(cfg.Credentials, req.URL) {
		header.AddMissing(req.Header, c.credentialHeaders)
	}

	return req, nil
}

// clientFor returns the client for a request: the configured client with the
// ambient cookie jar attached or removed according to the policy.
func (c *Controller) clientFor(policy Credentials, u *url.URL) *http.Client {
	jar := c.jar
	if !c.sendCredentials(policy, u) {
		jar = nil
	}
	if jar == c.client.Jar {
		return c.client
	}

	client := *c.client
	client.Jar = jar
	return &client
}

func (c *Controller) sendCredentials(policy Credentials, u *url.URL) bool {
	switch policy {
	case CredentialsOmit:
		return false
	case CredentialsSameOrigin:
		return c.origin == nil || sameOrigin(c.origin, u)
	default:
		return true
	}
}

func sameOrigin(a, b *url.URL) bool {
	return a.Scheme == b.Scheme && a.Hostname() == b.Hostname() && port(a) == port(b)
}

func port(u *url.URL) string {
	if p := u.Port(); p != "" {
		return p
	}
	switch u.Scheme {
	case "https":
		return "443"
	case "http":
		return "80"
	default:
		return ""
	}
}
