/* ipp-print - print text on a network printer via IPP or raw port 9100
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Print job dispatcher
 */

package main

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
)

// Protocol represents the printing protocol
type Protocol int

// Protocols, in the menu order
const (
	ProtocolIPP Protocol = iota
	ProtocolRaw
)

// Protocols lists all protocols, in the menu order
var Protocols = []Protocol{ProtocolIPP, ProtocolRaw}

// String returns Protocol name
func (p Protocol) String() string {
	switch p {
	case ProtocolIPP:
		return "Internet Printing Protocol"
	case ProtocolRaw:
		return "9100 port (plain text) printing"
	}

	return fmt.Sprintf("unknown (%d)", int(p))
}

// Poster sends HTTP POST requests. Implemented by HTTPTransport
type Poster interface {
	PostAndCollect(ctx context.Context, url string, payload []byte,
		hdr http.Header) (*HTTPExchangeResult, error)
}

// Sender sends raw payload. Implemented by RawSocketTransport
type Sender interface {
	SendOnce(ctx context.Context, host string, port int, payload []byte) error
}

// JobRequest represents a single print attempt request
type JobRequest struct {
	Host     string         // Printer host name or IP address
	Text     string         // Document text
	Protocol Protocol       // Printing protocol
	Format   DocumentFormat // Document format, IPP only
}

// JobResult represents outcome of the print attempt
type JobResult struct {
	JobID        string         // Unique job ID, for logging
	Protocol     Protocol       // Printing protocol
	Format       DocumentFormat // Document format, IPP only
	State        string         // Final dispatcher state
	PayloadSize  int            // Bytes sent to the printer
	StatusCode   int            // Final HTTP status, IPP only
	ResponseSize int            // HTTP response body size, IPP only
}

// Dispatcher states
const (
	JobStateSelectProtocol = "select-protocol"
	JobStateSelectFormat   = "select-format"
	JobStateBuildBody      = "build-body"
	JobStateBuildMessage   = "build-message"
	JobStateBuildPcl       = "build-pcl"
	JobStateSend           = "send"
	JobStateDone           = "done"
	JobStateFailed         = "failed"
)

// Dispatcher events
const (
	jobEventIpp     = "ipp"
	jobEventRaw     = "raw"
	jobEventFormat  = "format"
	jobEventBody    = "body"
	jobEventMessage = "message"
	jobEventPcl     = "pcl"
	jobEventSent    = "sent"
	jobEventFail    = "fail"
)

// jobEvents defines dispatcher state transitions
var jobEvents = fsm.Events{
	{Name: jobEventIpp, Src: []string{JobStateSelectProtocol}, Dst: JobStateSelectFormat},
	{Name: jobEventRaw, Src: []string{JobStateSelectProtocol}, Dst: JobStateBuildPcl},
	{Name: jobEventFormat, Src: []string{JobStateSelectFormat}, Dst: JobStateBuildBody},
	{Name: jobEventBody, Src: []string{JobStateBuildBody}, Dst: JobStateBuildMessage},
	{Name: jobEventMessage, Src: []string{JobStateBuildMessage}, Dst: JobStateSend},
	{Name: jobEventPcl, Src: []string{JobStateBuildPcl}, Dst: JobStateSend},
	{Name: jobEventSent, Src: []string{JobStateSend}, Dst: JobStateDone},
	{
		Name: jobEventFail,
		Src: []string{
			JobStateSelectProtocol,
			JobStateSelectFormat,
			JobStateBuildBody,
			JobStateBuildMessage,
			JobStateBuildPcl,
			JobStateSend,
		},
		Dst: JobStateFailed,
	},
}

// JobDispatcher turns JobRequest into the document, wraps it
// into the protocol message and sends it to the printer
type JobDispatcher struct {
	Formatter *DocumentFormatter // Document formatter
	HTTP      Poster             // IPP transport
	Raw       Sender             // Raw socket transport
	IppPort   int                // IPP port
	RawPort   int                // Raw printing port
	Log       *Logger            // Logger, Log if nil
}

// jobRun is the state of a single Dispatch call
type jobRun struct {
	dispatcher *JobDispatcher // Owning dispatcher
	rq         JobRequest     // The request
	result     JobResult      // The result being built
	machine    *fsm.FSM       // State machine
	job        *PrintJob      // Formatted document, IPP only
	payload    []byte         // Bytes to send
	log        *Logger        // Logger
}

// Dispatch performs a single print attempt
//
// Either all steps succeed and the result is returned, or the
// attempt stops at the first failure. Nothing is retried. Non-200
// HTTP status is returned as the result, not as error
func (d *JobDispatcher) Dispatch(ctx context.Context,
	rq JobRequest) (*JobResult, error) {

	run := d.newJobRun(rq)

	run.log.Info(' ', "JOB[%s]: %s, host %q",
		run.tag(), rq.Protocol, rq.Host)

	err := run.execute(ctx)
	run.result.State = run.machine.Current()

	if err != nil {
		run.log.Error('!', "JOB[%s]: %s", run.tag(), err)
		return &run.result, err
	}

	run.log.Info(' ', "JOB[%s]: done, %d bytes sent", run.tag(),
		run.result.PayloadSize)

	return &run.result, nil
}

// newJobRun creates a new jobRun
func (d *JobDispatcher) newJobRun(rq JobRequest) *jobRun {
	run := &jobRun{
		dispatcher: d,
		rq:         rq,
		result: JobResult{
			JobID:    uuid.New().String(),
			Protocol: rq.Protocol,
			Format:   rq.Format,
		},
		log: d.Log,
	}

	if run.log == nil {
		run.log = Log
	}

	run.machine = fsm.NewFSM(
		JobStateSelectProtocol,
		jobEvents,
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				run.log.Debug(' ', "JOB[%s]: %s -> %s",
					run.tag(), e.Src, e.Dst)
			},
		},
	)

	return run
}

// tag returns short job tag for logging
func (run *jobRun) tag() string {
	return run.result.JobID[:8]
}

// execute drives the state machine until done or failure
func (run *jobRun) execute(ctx context.Context) error {
	for !run.machine.Is(JobStateDone) {
		event, err := run.step(ctx)
		if err != nil {
			if ferr := run.machine.Event(ctx, jobEventFail); ferr != nil {
				run.log.Debug('!', "JOB[%s]: %s", run.tag(), ferr)
			}
			return err
		}

		err = run.machine.Event(ctx, event)
		if err != nil {
			return err
		}
	}

	return nil
}

// step performs the work of the current state and returns
// the event that leaves it
func (run *jobRun) step(ctx context.Context) (string, error) {
	d := run.dispatcher

	switch state := run.machine.Current(); state {
	case JobStateSelectProtocol:
		switch run.rq.Protocol {
		case ProtocolIPP:
			return jobEventIpp, nil
		case ProtocolRaw:
			return jobEventRaw, nil
		}
		return "", fmt.Errorf("%w: %s", ErrUnknownProtocol, run.rq.Protocol)

	case JobStateSelectFormat:
		switch run.rq.Format {
		case FormatRaster, FormatPDF, FormatText:
			return jobEventFormat, nil
		}
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, run.rq.Format)

	case JobStateBuildBody:
		job, err := d.Formatter.Format(run.rq.Format, run.rq.Text)
		if err != nil {
			return "", err
		}
		run.job = job
		return jobEventBody, nil

	case JobStateBuildMessage:
		msg := NewPrintJobMessage(run.rq.Host, run.job)
		run.log.Debug(' ', "JOB[%s]: %s, body %d bytes, message %d bytes",
			run.tag(), run.job.Format.MimeType(), len(run.job.Body), msg.Size())

		payload, err := msg.Encode()
		if err != nil {
			return "", err
		}
		run.payload = payload
		return jobEventMessage, nil

	case JobStateBuildPcl:
		run.payload = PclPayload(run.rq.Host)
		return jobEventPcl, nil

	case JobStateSend:
		if run.rq.Protocol == ProtocolIPP {
			return run.sendIpp(ctx)
		}
		return run.sendRaw(ctx)

	default:
		return "", fmt.Errorf("JOB[%s]: unexpected state %q", run.tag(), state)
	}
}

// sendIpp sends IPP request
func (run *jobRun) sendIpp(ctx context.Context) (string, error) {
	d := run.dispatcher
	url := "http://" + URLHost(run.rq.Host) + ":" + strconv.Itoa(d.IppPort) +
		"/ipp/print"

	rsp, err := d.HTTP.PostAndCollect(ctx, url, run.payload, nil)
	if err != nil {
		return "", err
	}

	run.result.PayloadSize = len(run.payload)
	run.result.StatusCode = rsp.StatusCode
	run.result.ResponseSize = len(rsp.Body)

	return jobEventSent, nil
}

// sendRaw sends PCL/PJL payload to the raw port
func (run *jobRun) sendRaw(ctx context.Context) (string, error) {
	d := run.dispatcher

	err := d.Raw.SendOnce(ctx, run.rq.Host, d.RawPort, run.payload)
	if err != nil {
		return "", err
	}

	run.result.PayloadSize = len(run.payload)
	return jobEventSent, nil
}
