/* ipp-print - print text on a network printer via IPP or raw port 9100
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Command line parsing test
 */

package main

import (
	"testing"
)

// Test parseArgv
func TestParseArgv(t *testing.T) {
	testData := []struct {
		argv   []string
		params RunParameters
	}{
		{
			argv: nil,
			params: RunParameters{
				Mode:     RunInteractive,
				Protocol: ProtocolIPP,
				Format:   FormatRaster,
				Text:     InitialText,
			},
		},
		{
			argv: []string{"-raw", "-debug", "192.168.1.5"},
			params: RunParameters{
				Mode:     RunPrint,
				Debug:    true,
				Protocol: ProtocolRaw,
				Format:   FormatRaster,
				Host:     "192.168.1.5",
				Text:     InitialText,
			},
		},
		{
			argv: []string{"printer", "-pdf", "Hello"},
			params: RunParameters{
				Mode:     RunPrint,
				Protocol: ProtocolIPP,
				Format:   FormatPDF,
				Host:     "printer",
				Text:     "Hello",
			},
		},
		{
			argv: []string{"-check", "printer"},
			params: RunParameters{
				Mode:     RunCheck,
				Protocol: ProtocolIPP,
				Format:   FormatRaster,
				Text:     InitialText,
			},
		},
	}

	for _, data := range testData {
		params := parseArgv(data.argv)
		if params != data.params {
			t.Errorf("%q: expected %+v, got %+v", data.argv, data.params, params)
		}
	}
}

// Test RunMode and Protocol names
func TestRunModeString(t *testing.T) {
	testData := []struct {
		s, expected string
	}{
		{RunInteractive.String(), "interactive"},
		{RunPrint.String(), "print"},
		{RunCheck.String(), "check"},
		{RunMode(9).String(), "unknown (9)"},
		{ProtocolIPP.String(), "Internet Printing Protocol"},
		{ProtocolRaw.String(), "9100 port (plain text) printing"},
	}

	for _, data := range testData {
		if data.s != data.expected {
			t.Errorf("expected %q, got %q", data.expected, data.s)
		}
	}
}
