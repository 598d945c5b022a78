/* ipp-print - print text on a network printer via IPP or raw port 9100
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * HTTP transport test
 */

package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"testing/iotest"
	"time"

	"github.com/OpenPrinting/goipp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// httpTestData returns size bytes of non-repeating pattern
func httpTestData(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

// newTestHTTPTransport creates HTTPTransport for tests
func newTestHTTPTransport(maxRedirects int) *HTTPTransport {
	return NewHTTPTransport(HTTPOptions{
		Timeout:      5 * time.Second,
		MaxRedirects: maxRedirects,
	})
}

func TestHTTPCollectBody(t *testing.T) {
	sizes := []int{0, 1, 4095, 4096, 4097, 100000}
	readers := map[string]func(io.Reader) io.Reader{
		"plain":    func(r io.Reader) io.Reader { return r },
		"one-byte": iotest.OneByteReader,
		"half":     iotest.HalfReader,
		"data-err": iotest.DataErrReader,
	}

	for _, size := range sizes {
		for name, wrap := range readers {
			data := httpTestData(size)

			body, err := httpCollectBody(wrap(bytes.NewReader(data)))
			require.NoError(t, err, "%s/%d", name, size)
			assert.Len(t, body, size, "%s/%d", name, size)
			assert.True(t, bytes.Equal(data, body),
				"%s/%d: body damaged", name, size)
		}
	}
}

func TestHTTPCollectBodyError(t *testing.T) {
	_, err := httpCollectBody(iotest.TimeoutReader(
		bytes.NewReader(httpTestData(10000))))
	assert.ErrorIs(t, err, iotest.ErrTimeout)
}

func TestHTTPTransportPost(t *testing.T) {
	payload := httpTestData(5000)
	response := httpTestData(9000)

	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, rq *http.Request) {
			body, _ := io.ReadAll(rq.Body)

			assert.Equal(t, http.MethodPost, rq.Method)
			assert.Equal(t, "/ipp/print", rq.URL.Path)
			assert.Equal(t, goipp.ContentType, rq.Header.Get("Content-Type"))
			assert.Equal(t, DefaultUserAgent, rq.Header.Get("User-Agent"))
			assert.True(t, bytes.Equal(payload, body), "payload damaged")

			w.Write(response)
		}))
	defer srv.Close()

	transport := newTestHTTPTransport(DefaultMaxRedirects)
	defer transport.Close()

	rsp, err := transport.PostAndCollect(context.Background(),
		srv.URL+"/ipp/print", payload, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rsp.StatusCode)
	assert.True(t, bytes.Equal(response, rsp.Body), "response damaged")
}

func TestHTTPTransportHeaderOverride(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, rq *http.Request) {
			assert.Equal(t, []string{"text/plain"},
				rq.Header.Values("Content-Type"))
		}))
	defer srv.Close()

	transport := newTestHTTPTransport(DefaultMaxRedirects)
	defer transport.Close()

	// Non-canonical key must replace the default header, not add
	// a second one
	hdr := http.Header{"content-type": {"text/plain"}}
	_, err := transport.PostAndCollect(context.Background(),
		srv.URL, []byte("x"), hdr)
	require.NoError(t, err)
}

func TestHTTPTransportRedirect(t *testing.T) {
	var requests int32

	target := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, rq *http.Request) {
			atomic.AddInt32(&requests, 1)
			body, _ := io.ReadAll(rq.Body)
			assert.Equal(t, "payload", string(body))
			w.Write([]byte("ok"))
		}))
	defer target.Close()

	origin := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, rq *http.Request) {
			atomic.AddInt32(&requests, 1)
			w.Header().Set("Location", target.URL+"/ipp/print")
			w.WriteHeader(http.StatusMovedPermanently)
		}))
	defer origin.Close()

	transport := newTestHTTPTransport(DefaultMaxRedirects)
	defer transport.Close()

	rsp, err := transport.PostAndCollect(context.Background(),
		origin.URL+"/ipp/print", []byte("payload"), nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rsp.StatusCode)
	assert.Equal(t, "ok", string(rsp.Body))
	assert.EqualValues(t, 2, atomic.LoadInt32(&requests))
}

func TestHTTPTransportRedirectLoop(t *testing.T) {
	var requests int32

	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, rq *http.Request) {
			atomic.AddInt32(&requests, 1)
			w.Header().Set("Location", "/ipp/print")
			w.WriteHeader(http.StatusTemporaryRedirect)
		}))
	defer srv.Close()

	for _, limit := range []int{0, 3, DefaultMaxRedirects} {
		atomic.StoreInt32(&requests, 0)

		transport := newTestHTTPTransport(limit)
		_, err := transport.PostAndCollect(context.Background(),
			srv.URL+"/ipp/print", []byte("x"), nil)
		transport.Close()

		require.Error(t, err)
		assert.Equal(t, ErrKindRedirectLoop, ErrorKindOf(err))
		assert.ErrorIs(t, err, ErrTooManyRedirects)
		assert.EqualValues(t, limit+1, atomic.LoadInt32(&requests))
	}
}

func TestHTTPTransportRedirectNoLocation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, rq *http.Request) {
			w.WriteHeader(http.StatusFound)
		}))
	defer srv.Close()

	transport := newTestHTTPTransport(DefaultMaxRedirects)
	defer transport.Close()

	_, err := transport.PostAndCollect(context.Background(),
		srv.URL, []byte("x"), nil)
	assert.Equal(t, ErrKindRedirectTarget, ErrorKindOf(err))
	assert.ErrorIs(t, err, ErrNoLocation)
}

func TestHTTPTransportNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, rq *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte("not here"))
		}))
	defer srv.Close()

	transport := newTestHTTPTransport(DefaultMaxRedirects)
	defer transport.Close()

	rsp, err := transport.PostAndCollect(context.Background(),
		srv.URL, []byte("x"), nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, rsp.StatusCode)
	assert.Equal(t, "not here", string(rsp.Body))
}

func TestHTTPTransportConnectFailure(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	l.Close()

	transport := newTestHTTPTransport(DefaultMaxRedirects)
	defer transport.Close()

	_, err = transport.PostAndCollect(context.Background(),
		"http://"+addr+"/ipp/print", []byte("x"), nil)
	assert.Equal(t, ErrKindTransportOpen, ErrorKindOf(err))

	var perr *PrintError
	assert.True(t, errors.As(err, &perr))
}

// httpHungPeer accepts connections and never answers
func httpHungPeer(t *testing.T) string {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var conns []net.Conn
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			conns = append(conns, conn)
		}
	}()

	t.Cleanup(func() {
		l.Close()
		<-done
		for _, conn := range conns {
			conn.Close()
		}
	})

	return "http://" + l.Addr().String() + "/ipp/print"
}

func TestHTTPTransportHungPeerContext(t *testing.T) {
	url := httpHungPeer(t)

	transport := NewHTTPTransport(HTTPOptions{MaxRedirects: DefaultMaxRedirects})
	defer transport.Close()

	ctx, cancel := context.WithTimeout(context.Background(),
		300*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := transport.PostAndCollect(ctx, url, []byte("x"), nil)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Equal(t, ErrKindTransportOpen, ErrorKindOf(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, elapsed, 5*time.Second)
}

func TestHTTPTransportHungPeerTimeout(t *testing.T) {
	url := httpHungPeer(t)

	transport := NewHTTPTransport(HTTPOptions{
		Timeout:      300 * time.Millisecond,
		MaxRedirects: DefaultMaxRedirects,
	})
	defer transport.Close()

	start := time.Now()
	_, err := transport.PostAndCollect(context.Background(), url,
		[]byte("x"), nil)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Equal(t, ErrKindTransportOpen, ErrorKindOf(err))
	assert.GreaterOrEqual(t, elapsed, 300*time.Millisecond)
	assert.Less(t, elapsed, 5*time.Second)
}
