/* ipp-print - print text on a network printer via IPP or raw port 9100
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Print job dispatcher test
 */

package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
	. "github.com/smartystreets/goconvey/convey"
)

// stubPoster records the POSTed payload
type stubPoster struct {
	calls   int
	url     string
	payload []byte
	result  *HTTPExchangeResult
	err     error
}

func (p *stubPoster) PostAndCollect(ctx context.Context, url string,
	payload []byte, hdr http.Header) (*HTTPExchangeResult, error) {
	p.calls++
	p.url = url
	p.payload = payload
	return p.result, p.err
}

// stubSender records the sent payload
type stubSender struct {
	calls   int
	host    string
	port    int
	payload []byte
	err     error
}

func (s *stubSender) SendOnce(ctx context.Context, host string, port int,
	payload []byte) error {
	s.calls++
	s.host = host
	s.port = port
	s.payload = payload
	return s.err
}

// newTestDispatcher creates JobDispatcher with stub transports
func newTestDispatcher(t *testing.T) (*JobDispatcher, *stubPoster, *stubSender) {
	poster := &stubPoster{
		result: &HTTPExchangeResult{StatusCode: 200, Body: []byte("rsp")},
	}
	sender := &stubSender{}

	d := &JobDispatcher{
		Formatter: NewDocumentFormatter(PaperA4, t.TempDir()),
		HTTP:      poster,
		Raw:       sender,
		IppPort:   DefaultIppPort,
		RawPort:   DefaultRawPort,
	}

	return d, poster, sender
}

func TestJobDispatcherIpp(t *testing.T) {
	Convey("IPP plain text job", t, func() {
		d, poster, sender := newTestDispatcher(t)

		result, err := d.Dispatch(context.Background(), JobRequest{
			Host:     "192.168.1.5",
			Text:     "A",
			Protocol: ProtocolIPP,
			Format:   FormatText,
		})

		So(err, ShouldBeNil)
		So(result.State, ShouldEqual, JobStateDone)
		So(poster.calls, ShouldEqual, 1)
		So(sender.calls, ShouldEqual, 0)
		So(poster.url, ShouldEqual, "http://192.168.1.5:631/ipp/print")

		Convey("carries the formatted body", func() {
			So(len(poster.payload), ShouldEqual, 146)
			So(result.PayloadSize, ShouldEqual, 146)
			So(poster.payload[len(poster.payload)-1], ShouldEqual, byte(0x41))

			_, body := ippDecode(t, poster.payload)
			So(body, ShouldResemble, []byte("A"))
		})

		Convey("reports the HTTP exchange", func() {
			So(result.StatusCode, ShouldEqual, 200)
			So(result.ResponseSize, ShouldEqual, 3)
		})

		Convey("gets a unique job id", func() {
			_, err := uuid.Parse(result.JobID)
			So(err, ShouldBeNil)

			again, _ := d.Dispatch(context.Background(), JobRequest{
				Host:     "192.168.1.5",
				Text:     "A",
				Protocol: ProtocolIPP,
				Format:   FormatText,
			})
			So(again.JobID, ShouldNotEqual, result.JobID)
		})
	})

	Convey("IPP raster job to IPv6 printer", t, func() {
		d, poster, _ := newTestDispatcher(t)

		result, err := d.Dispatch(context.Background(), JobRequest{
			Host:     "fe80::1",
			Text:     "Hello",
			Protocol: ProtocolIPP,
			Format:   FormatRaster,
		})

		So(err, ShouldBeNil)
		So(result.State, ShouldEqual, JobStateDone)
		So(poster.url, ShouldEqual, "http://[fe80::1]:631/ipp/print")

		Convey("with zone", func() {
			_, err := d.Dispatch(context.Background(), JobRequest{
				Host:     "fe80::1%eth0",
				Text:     "Hello",
				Protocol: ProtocolIPP,
				Format:   FormatText,
			})

			So(err, ShouldBeNil)
			So(poster.url, ShouldEqual, "http://[fe80::1%25eth0]:631/ipp/print")

			rq, err := http.NewRequest(http.MethodPost, poster.url, nil)
			So(err, ShouldBeNil)
			So(rq.URL.Hostname(), ShouldEqual, "fe80::1%eth0")
		})

		_, body := ippDecode(t, poster.payload)
		So(len(body), ShouldEqual, RasterPageSize)
		So(bytes.HasPrefix(body, []byte(RasterSyncWord)), ShouldBeTrue)
	})

	Convey("Non-200 status is not an error", t, func() {
		d, poster, _ := newTestDispatcher(t)
		poster.result = &HTTPExchangeResult{StatusCode: 400}

		result, err := d.Dispatch(context.Background(), JobRequest{
			Host:     "printer",
			Text:     "A",
			Protocol: ProtocolIPP,
			Format:   FormatPDF,
		})

		So(err, ShouldBeNil)
		So(result.State, ShouldEqual, JobStateDone)
		So(result.StatusCode, ShouldEqual, 400)
	})
}

func TestJobDispatcherRaw(t *testing.T) {
	Convey("Raw job", t, func() {
		d, poster, sender := newTestDispatcher(t)

		result, err := d.Dispatch(context.Background(), JobRequest{
			Host:     "192.168.1.5",
			Text:     "ignored",
			Protocol: ProtocolRaw,
		})

		So(err, ShouldBeNil)
		So(result.State, ShouldEqual, JobStateDone)
		So(poster.calls, ShouldEqual, 0)
		So(sender.calls, ShouldEqual, 1)
		So(sender.host, ShouldEqual, "192.168.1.5")
		So(sender.port, ShouldEqual, DefaultRawPort)
		So(sender.payload, ShouldResemble, PclPayload("192.168.1.5"))
		So(result.PayloadSize, ShouldEqual, len(sender.payload))
	})
}

func TestJobDispatcherFailure(t *testing.T) {
	Convey("Transport failure", t, func() {
		d, poster, sender := newTestDispatcher(t)
		poster.err = newPrintError(ErrKindRedirectLoop, "POST", ErrTooManyRedirects)
		sender.err = newPrintError(ErrKindSocketConnect, "connect", errors.New("refused"))

		Convey("fails IPP job", func() {
			result, err := d.Dispatch(context.Background(), JobRequest{
				Host:     "h",
				Text:     "A",
				Protocol: ProtocolIPP,
				Format:   FormatText,
			})

			So(err, ShouldNotBeNil)
			So(ErrorKindOf(err), ShouldEqual, ErrKindRedirectLoop)
			So(result.State, ShouldEqual, JobStateFailed)
			So(poster.calls, ShouldEqual, 1)
		})

		Convey("fails raw job", func() {
			result, err := d.Dispatch(context.Background(), JobRequest{
				Host:     "h",
				Protocol: ProtocolRaw,
			})

			So(ErrorKindOf(err), ShouldEqual, ErrKindSocketConnect)
			So(result.State, ShouldEqual, JobStateFailed)
			So(result.PayloadSize, ShouldEqual, 0)
		})
	})

	Convey("Formatter failure stops before sending", t, func() {
		d, poster, _ := newTestDispatcher(t)
		d.Formatter.Renderer = failingRenderer{}

		result, err := d.Dispatch(context.Background(), JobRequest{
			Host:     "h",
			Text:     "A",
			Protocol: ProtocolIPP,
			Format:   FormatPDF,
		})

		So(ErrorKindOf(err), ShouldEqual, ErrKindFormat)
		So(result.State, ShouldEqual, JobStateFailed)
		So(poster.calls, ShouldEqual, 0)
	})

	Convey("Bad request", t, func() {
		d, poster, sender := newTestDispatcher(t)

		Convey("unknown protocol", func() {
			result, err := d.Dispatch(context.Background(), JobRequest{
				Host:     "h",
				Protocol: Protocol(7),
			})

			So(errors.Is(err, ErrUnknownProtocol), ShouldBeTrue)
			So(result.State, ShouldEqual, JobStateFailed)
		})

		Convey("unknown format", func() {
			result, err := d.Dispatch(context.Background(), JobRequest{
				Host:     "h",
				Protocol: ProtocolIPP,
				Format:   DocumentFormat(7),
			})

			So(errors.Is(err, ErrUnknownFormat), ShouldBeTrue)
			So(result.State, ShouldEqual, JobStateFailed)
		})

		So(poster.calls+sender.calls, ShouldEqual, 0)
	})
}

// Test that every non-terminal state can be failed
func TestJobEventsFail(t *testing.T) {
	states := []string{
		JobStateSelectProtocol,
		JobStateSelectFormat,
		JobStateBuildBody,
		JobStateBuildMessage,
		JobStateBuildPcl,
		JobStateSend,
	}

	for _, state := range states {
		machine := fsm.NewFSM(state, jobEvents, nil)
		err := machine.Event(context.Background(), jobEventFail)
		if err != nil {
			t.Errorf("%s: %s", state, err)
		} else if machine.Current() != JobStateFailed {
			t.Errorf("%s: expected %s, got %s",
				state, JobStateFailed, machine.Current())
		}
	}

	for _, state := range []string{JobStateDone, JobStateFailed} {
		machine := fsm.NewFSM(state, jobEvents, nil)
		if machine.Can(jobEventFail) {
			t.Errorf("%s: must be terminal", state)
		}
	}
}
