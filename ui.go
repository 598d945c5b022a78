/* ipp-print - print text on a network printer via IPP or raw port 9100
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Interactive console front end
 */

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Initial values, offered by the interactive prompts
const (
	InitialHost = "192.168."
	InitialText = "This is printing from a terminal!"
)

// ValidateInput checks that s is a non-empty printable ASCII
// string, not longer than InputMaxLen bytes
func ValidateInput(s string) error {
	switch {
	case len(s) == 0:
		return fmt.Errorf("%w: empty string", ErrBadInput)
	case len(s) > InputMaxLen:
		return fmt.Errorf("%w: longer than %d characters",
			ErrBadInput, InputMaxLen)
	}

	for i := 0; i < len(s); i++ {
		if c := s[i]; c < 0x20 || c > 0x7e {
			return fmt.Errorf("%w: non-printable character 0x%2.2x",
				ErrBadInput, c)
		}
	}

	return nil
}

// Prompter reads user answers from the console
type Prompter struct {
	in  *bufio.Reader // Input
	out io.Writer     // Output
}

// NewPrompter creates a new Prompter
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// readLine reads the next input line, without line terminator
func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err == io.EOF && line != "" {
		err = nil
	}

	if err != nil {
		return "", err
	}

	return strings.TrimRight(line, "\r\n"), nil
}

// Input asks for a text string. Empty answer selects the
// initial value. Invalid answers are reported and asked again
func (p *Prompter) Input(prompt, initial string) (string, error) {
	for {
		fmt.Fprintf(p.out, "%s [%s]: ", prompt, initial)

		line, err := p.readLine()
		if err != nil {
			return "", err
		}

		if line == "" {
			line = initial
		}

		err = ValidateInput(line)
		if err == nil {
			return line, nil
		}

		fmt.Fprintf(p.out, "%s\n", err)
	}
}

// Menu asks to choose one of items and returns its index.
// Empty answer selects the first item
func (p *Prompter) Menu(title string, items []string) (int, error) {
	for {
		fmt.Fprintf(p.out, "%s:\n", title)
		for i, item := range items {
			fmt.Fprintf(p.out, "  %d. %s\n", i+1, item)
		}
		fmt.Fprintf(p.out, "Choice [1]: ")

		line, err := p.readLine()
		if err != nil {
			return 0, err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			return 0, nil
		}

		n, err := strconv.Atoi(line)
		if err == nil && n >= 1 && n <= len(items) {
			return n - 1, nil
		}

		fmt.Fprintf(p.out, "Please enter a number 1...%d\n", len(items))
	}
}

// Session runs the interactive print loop
type Session struct {
	Prompter   *Prompter      // User input
	Dispatcher *JobDispatcher // Job dispatcher
}

// Run runs the session until the user chooses Exit or input ends
func (s *Session) Run(ctx context.Context) error {
	for {
		restart, err := s.once(ctx)
		if err == io.EOF {
			return nil
		}

		if err != nil || !restart {
			return err
		}
	}
}

// once performs a single iteration of the loop. All per-job
// data lives here, so nothing leaks into the next iteration
func (s *Session) once(ctx context.Context) (restart bool, err error) {
	var rq JobRequest
	p := s.Prompter

	rq.Host, err = p.Input("Printer host", InitialHost)
	if err != nil {
		return
	}

	rq.Text, err = p.Input("Text to print", InitialText)
	if err != nil {
		return
	}

	var protocols []string
	for _, proto := range Protocols {
		protocols = append(protocols, proto.String())
	}

	choice, err := p.Menu("Protocol", protocols)
	if err != nil {
		return
	}
	rq.Protocol = Protocols[choice]

	if rq.Protocol == ProtocolIPP {
		var formats []string
		for _, format := range DocumentFormats {
			formats = append(formats, format.String())
		}

		choice, err = p.Menu("Document format", formats)
		if err != nil {
			return
		}
		rq.Format = DocumentFormats[choice]
	}

	s.report(s.Dispatcher.Dispatch(ctx, rq))

	choice, err = p.Menu("Next", []string{"Restart", "Exit"})
	if err != nil {
		return
	}

	return choice == 0, nil
}

// report prints the Dispatch outcome
func (s *Session) report(result *JobResult, err error) {
	out := s.Prompter.out

	switch {
	case err != nil:
		fmt.Fprintf(out, "Printing failed (%s): %s\n", ErrorKindOf(err), err)
	case result.Protocol == ProtocolIPP:
		fmt.Fprintf(out, "Sent %d bytes, HTTP status %d, %d bytes received\n",
			result.PayloadSize, result.StatusCode, result.ResponseSize)
	default:
		fmt.Fprintf(out, "Sent %d bytes\n", result.PayloadSize)
	}
}
