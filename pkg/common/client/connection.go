/*
Copyright 2019 The Libcloud Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package client implements the HTTP/XML connection layer shared by all
// provider drivers. A driver builds an XML request document, sends it through
// a Connection and gets back the parsed XML response document.
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	klog "k8s.io/klog/v2"
)

// Connection holds everything needed to talk to one provider endpoint.
// The zero value is not usable; fill in at least Hostname.
type Connection struct {
	// Hostname of the API endpoint, without scheme.
	Hostname string
	// Port of the API endpoint. Defaults to 443.
	Port string
	// Scheme of the API endpoint. Defaults to https.
	Scheme string
	// Username and Password are applied as HTTP basic auth on every request
	// unless the request carries its own Authorization header.
	Username string
	Password string
	// Insecure skips TLS certificate verification.
	Insecure bool
	// CACert is the path to a CA certificate bundle in PEM format. Optional.
	CACert string
	// UserAgent is sent on every request.
	UserAgent string
	// Provider is the label used for logging and metrics.
	Provider string
	// Timeout applies per request. Defaults to 3 minutes.
	Timeout time.Duration

	clientOnce sync.Once
	client     *http.Client
	clientErr  error
}

// Request describes one API call.
type Request struct {
	Method string
	// Path is either absolute ("/api/...") or a full URL returned by the
	// provider (vendor APIs hand out hrefs).
	Path        string
	Params      url.Values
	Headers     http.Header
	ContentType string
	// Body is serialized as the request body when non-nil.
	Body *etree.Document
}

// Response is the parsed result of an API call.
type Response struct {
	StatusCode int
	Headers    http.Header
	// Document is nil when the response body was empty.
	Document *etree.Document
}

// Root returns the root element of the response document, or nil.
func (r *Response) Root() *etree.Element {
	if r == nil || r.Document == nil {
		return nil
	}
	return r.Document.Root()
}

func (c *Connection) httpClient() (*http.Client, error) {
	c.clientOnce.Do(func() {
		tlsConfig := &tls.Config{InsecureSkipVerify: c.Insecure}
		if c.CACert != "" {
			pem, err := os.ReadFile(c.CACert)
			if err != nil {
				c.clientErr = errors.Wrapf(err, "reading CA certificate %s failed", c.CACert)
				return
			}
			pool := x509.NewCertPool()
			if !pool.AppendCertsFromPEM(pem) {
				c.clientErr = errors.Errorf("no certificates found in %s", c.CACert)
				return
			}
			tlsConfig.RootCAs = pool
		}
		timeout := c.Timeout
		if timeout == 0 {
			timeout = 3 * time.Minute
		}
		c.client = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:           http.ProxyFromEnvironment,
				TLSClientConfig: tlsConfig,
			},
		}
	})
	return c.client, c.clientErr
}

// URL resolves a request path against the connection endpoint.
func (c *Connection) URL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	scheme := c.Scheme
	if scheme == "" {
		scheme = "https"
	}
	host := c.Hostname
	if c.Port != "" && c.Port != "443" {
		host = host + ":" + c.Port
	}
	u := url.URL{Scheme: scheme, Host: host, Path: path}
	return u.String()
}

// Invoke sends the request and parses the XML response body, if any.
// Non-2xx responses are returned as *APIError, with the vendor message
// extracted from the response document when one is present.
func (c *Connection) Invoke(ctx context.Context, req Request) (*Response, error) {
	if c.Hostname == "" {
		return nil, errors.New(MissingHostErrMsg)
	}
	httpClient, err := c.httpClient()
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if req.Body != nil {
		var buf bytes.Buffer
		if _, err := req.Body.WriteTo(&buf); err != nil {
			return nil, errors.Wrap(err, "serializing request body failed")
		}
		body = &buf
	}

	rawURL := c.URL(req.Path)
	if len(req.Params) > 0 {
		sep := "?"
		if strings.Contains(rawURL, "?") {
			sep = "&"
		}
		rawURL = rawURL + sep + req.Params.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, rawURL, body)
	if err != nil {
		return nil, errors.Wrapf(err, "building %s request for %s failed", req.Method, rawURL)
	}
	for key, values := range req.Headers {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	} else if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/xml")
	}
	if c.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.UserAgent)
	}
	if httpReq.Header.Get("Authorization") == "" && c.Username != "" {
		httpReq.SetBasicAuth(c.Username, c.Password)
	}

	reqID := uuid.New().String()[:8]
	klog.V(4).Infof("[%s] %s %s %s", c.Provider, reqID, req.Method, rawURL)

	start := time.Now()
	httpResp, err := httpClient.Do(httpReq)
	if err != nil {
		recordRequest(c.Provider, req.Method, "error", time.Since(start))
		return nil, errors.Wrapf(err, "%s %s failed", req.Method, rawURL)
	}
	defer httpResp.Body.Close()
	recordRequest(c.Provider, req.Method, strconv.Itoa(httpResp.StatusCode), time.Since(start))

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "reading response of %s %s failed", req.Method, rawURL)
	}
	klog.V(4).Infof("[%s] %s status=%d bytes=%d", c.Provider, reqID, httpResp.StatusCode, len(data))

	resp := &Response{StatusCode: httpResp.StatusCode, Headers: httpResp.Header}
	if len(data) > 0 {
		doc := etree.NewDocument()
		if err := doc.ReadFromBytes(data); err != nil {
			if httpResp.StatusCode >= 400 {
				return nil, &APIError{StatusCode: httpResp.StatusCode, Message: strings.TrimSpace(string(data))}
			}
			return nil, errors.Wrapf(err, "parsing response of %s %s failed", req.Method, rawURL)
		}
		resp.Document = doc
	}

	if httpResp.StatusCode >= 400 {
		return nil, newAPIError(httpResp.StatusCode, resp.Root())
	}
	return resp, nil
}
