/* ipp-print - print text on a network printer via IPP or raw port 9100
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Protocol logging
 */

package main

import (
	"bytes"
	"net/http"
	"sort"

	"github.com/OpenPrinting/goipp"
)

// HTTPHeader adds HTTP header lines, sorted by name
func (msg *LogMessage) HTTPHeader(level LogLevel, prefix byte,
	hdr http.Header) *LogMessage {

	keys := make([]string, 0, len(hdr))
	for k := range hdr {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		for _, v := range hdr[k] {
			msg.Add(level, prefix, "%s: %s", k, v)
		}
	}

	return msg
}

// HTTPRequest adds HTTP request line and header
func (msg *LogMessage) HTTPRequest(level LogLevel, prefix byte,
	rq *http.Request) *LogMessage {

	msg.Add(level, prefix, "%s %s %s", rq.Method, rq.URL, rq.Proto)
	return msg.HTTPHeader(level, prefix, rq.Header).Nl(level)
}

// HTTPResponse adds HTTP status line and header
func (msg *LogMessage) HTTPResponse(level LogLevel, prefix byte,
	rsp *http.Response) *LogMessage {

	msg.Add(level, prefix, "%s %s", rsp.Proto, rsp.Status)
	return msg.HTTPHeader(level, prefix, rsp.Header).Nl(level)
}

// IppResponse decodes IPP response and adds it in human-readable
// form. Decode errors are only logged: the response is displayed,
// not validated
func (msg *LogMessage) IppResponse(level LogLevel, prefix byte,
	data []byte) *LogMessage {

	var m goipp.Message
	err := m.Decode(bytes.NewReader(data))
	if err != nil {
		return msg.Add(level, prefix, "IPP response: %s", err)
	}

	msg.Add(level, prefix, "IPP response: %s, request-id %d",
		goipp.Status(m.Code), m.RequestID)

	lw := msg.LineWriter(level, prefix)
	m.Print(lw, false)
	lw.Close()

	return msg.Nl(level)
}
