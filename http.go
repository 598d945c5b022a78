/* ipp-print - print text on a network printer via IPP or raw port 9100
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * HTTP transport
 */

package main

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"time"

	"github.com/OpenPrinting/goipp"
)

// HTTPOptions configures HTTPTransport
type HTTPOptions struct {
	UserAgent    string        // User-Agent header
	Timeout      time.Duration // Limit for a single exchange, 0 for none
	MaxRedirects int           // Max count of followed redirects
	Log          *Logger       // Logger, Log if nil
}

// HTTPExchangeResult is the final HTTP response, collected
// into memory. StatusCode is not interpreted
type HTTPExchangeResult struct {
	StatusCode int    // HTTP status
	Body       []byte // Response body, may be empty
}

// HTTPTransport sends POST requests and collects responses
//
// It follows redirects by itself, re-sending the same POST
// to the new location, up to the MaxRedirects times
type HTTPTransport struct {
	client       *http.Client // Underlying client
	userAgent    string       // User-Agent header
	maxRedirects int          // Redirects limit
	log          *Logger      // Logger
}

// NewHTTPTransport creates a new HTTPTransport
//
// TLS certificates are not verified: printers usually have
// self-signed certificates
func NewHTTPTransport(opt HTTPOptions) *HTTPTransport {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	tr.DisableKeepAlives = false

	transport := &HTTPTransport{
		client: &http.Client{
			Transport: tr,
			Timeout:   opt.Timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		userAgent:    opt.UserAgent,
		maxRedirects: opt.MaxRedirects,
		log:          opt.Log,
	}

	if transport.userAgent == "" {
		transport.userAgent = DefaultUserAgent
	}

	if transport.log == nil {
		transport.log = Log
	}

	return transport
}

// Close releases idle connections
func (transport *HTTPTransport) Close() {
	transport.client.CloseIdleConnections()
}

// httpIsRedirect tells if HTTP status is a redirect we follow
func httpIsRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently,
		http.StatusFound,
		http.StatusSeeOther,
		http.StatusTemporaryRedirect,
		http.StatusPermanentRedirect:
		return true
	}
	return false
}

// PostAndCollect POSTs the payload to the url, following redirects,
// and returns the final response with body collected into memory
//
// Content-Type is application/ipp, unless overridden by hdr
func (transport *HTTPTransport) PostAndCollect(ctx context.Context,
	url string, payload []byte, hdr http.Header) (*HTTPExchangeResult, error) {

	for redirects := 0; ; redirects++ {
		transport.log.Debug(' ', "POSTing %s", url)

		resp, err := transport.post(ctx, url, payload, hdr)
		if err != nil {
			return nil, err
		}

		if !httpIsRedirect(resp.StatusCode) {
			return transport.collect(url, resp)
		}

		// Handle redirect
		location, err := resp.Location()
		httpDiscardBody(resp)

		if err != nil {
			return nil, newPrintError(ErrKindRedirectTarget,
				"POST "+url, ErrNoLocation)
		}

		if redirects >= transport.maxRedirects {
			return nil, newPrintError(ErrKindRedirectLoop,
				"POST "+url, ErrTooManyRedirects)
		}

		url = location.String()
		transport.log.Debug(' ', "redirecting to %s", url)
	}
}

// post performs a single POST exchange. On success, response
// body is left unread
func (transport *HTTPTransport) post(ctx context.Context,
	url string, payload []byte, hdr http.Header) (*http.Response, error) {

	rq, err := http.NewRequestWithContext(ctx, http.MethodPost, url,
		bytes.NewReader(payload))
	if err != nil {
		return nil, newPrintError(ErrKindTransportOpen, "POST "+url, err)
	}

	rq.Header.Set("User-Agent", transport.userAgent)
	rq.Header.Set("Content-Type", goipp.ContentType)
	rq.Header.Set("Connection", "keep-alive")
	for k, v := range hdr {
		rq.Header[http.CanonicalHeaderKey(k)] = v
	}

	transport.log.Begin().
		HTTPRequest(LogTraceHTTP, '>', rq).
		Commit()

	resp, err := transport.client.Do(rq)
	if err != nil {
		return nil, newPrintError(ErrKindTransportOpen, "POST "+url, err)
	}

	transport.log.Begin().
		HTTPResponse(LogTraceHTTP, '<', resp).
		Commit()

	return resp, nil
}

// collect reads the final response body
func (transport *HTTPTransport) collect(url string,
	resp *http.Response) (*HTTPExchangeResult, error) {

	defer resp.Body.Close()

	body, err := httpCollectBody(resp.Body)
	if err != nil {
		return nil, newPrintError(ErrKindDownload, "POST "+url, err)
	}

	log := transport.log.Begin()
	if resp.StatusCode != http.StatusOK {
		log.Info(' ', "URL returned status: %s", resp.Status)
	}
	log.Debug(' ', "response size: %d", len(body))
	if resp.Header.Get("Content-Type") == goipp.ContentType {
		log.IppResponse(LogTraceIPP, '<', body)
	}
	log.Commit()

	return &HTTPExchangeResult{StatusCode: resp.StatusCode, Body: body}, nil
}

// httpCollectBody reads the whole body. It doesn't rely on
// Content-Length: buffer starts from a single page and grows
// by one page every time it fills up, until EOF. Then it is
// shrunk to the exact size
func httpCollectBody(body io.Reader) ([]byte, error) {
	buf := make([]byte, HTTPPageSize)
	size := 0

	for {
		if size == len(buf) {
			grown := make([]byte, len(buf)+HTTPPageSize)
			copy(grown, buf[:size])
			buf = grown
		}

		n, err := body.Read(buf[size:])
		size += n

		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, err
		}
	}

	data := make([]byte, size)
	copy(data, buf[:size])
	return data, nil
}

// httpDiscardBody drains and closes response body, so the
// connection may be reused
func httpDiscardBody(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, HTTPPageSize))
	resp.Body.Close()
}
