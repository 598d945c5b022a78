/* ipp-print - print text on a network printer via IPP or raw port 9100
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * The main function
 */

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

const usageText = `Usage:
    %s [options] [host [text]]

Without host, interactive mode is started. With host (and
optional text), a single job is printed and program exits.

Options are
    -ipp        - print via Internet Printing Protocol (default)
    -raw        - print via raw 9100 port
    -raster     - send PWG Raster document (default, IPP only)
    -pdf        - send PDF document (IPP only)
    -text       - send plain text document (IPP only)
    -check      - check configuration and exit
    -debug      - logs duplicated on console
    -h          - print help page
`

// RunMode represents the program run mode
type RunMode int

// Run modes:
//
//	RunInteractive - ask user for job parameters, in a loop
//	RunPrint       - print a single job from the command line
//	RunCheck       - check configuration and exit
const (
	RunInteractive RunMode = iota
	RunPrint
	RunCheck
)

// String returns RunMode name
func (m RunMode) String() string {
	switch m {
	case RunInteractive:
		return "interactive"
	case RunPrint:
		return "print"
	case RunCheck:
		return "check"
	}

	return fmt.Sprintf("unknown (%d)", int(m))
}

// RunParameters represents the program run parameters
type RunParameters struct {
	Mode     RunMode        // Run mode
	Debug    bool           // Duplicate logs on console
	Protocol Protocol       // Printing protocol
	Format   DocumentFormat // Document format
	Host     string         // Printer host, RunPrint only
	Text     string         // Document text, RunPrint only
}

// usage prints detailed usage and exits
func usage() {
	fmt.Printf(usageText, os.Args[0])
	os.Exit(0)
}

// usageError prints usage error and exits
func usageError(format string, args ...interface{}) {
	if format != "" {
		fmt.Printf(format+"\n", args...)
	}

	fmt.Printf("Try %s -h for more information\n", os.Args[0])
	os.Exit(1)
}

// parseArgv parses program parameters. In a case of usage error,
// it prints a error message and exits
func parseArgv(argv []string) (params RunParameters) {
	params.Protocol = ProtocolIPP
	params.Format = FormatRaster
	params.Text = InitialText

	protocols, formats := 0, 0
	var positional []string

	for _, arg := range argv {
		switch arg {
		case "-h", "-help", "--help":
			usage()
		case "-ipp":
			params.Protocol = ProtocolIPP
			protocols++
		case "-raw":
			params.Protocol = ProtocolRaw
			protocols++
		case "-raster", "-pdf", "-text":
			params.Format, _ = DocumentFormatByName(arg[1:])
			formats++
		case "-check":
			params.Mode = RunCheck
		case "-debug":
			params.Debug = true
		default:
			if len(arg) > 1 && arg[0] == '-' {
				usageError("Invalid argument %s", arg)
			}
			positional = append(positional, arg)
		}
	}

	switch {
	case protocols > 1:
		usageError("Conflicting protocols")
	case formats > 1:
		usageError("Conflicting document formats")
	case len(positional) > 2:
		usageError("Too many arguments")
	}

	if len(positional) > 0 && params.Mode != RunCheck {
		params.Mode = RunPrint
		params.Host = positional[0]
		if len(positional) > 1 {
			params.Text = positional[1]
		}

		for _, s := range []string{params.Host, params.Text} {
			if err := ValidateInput(s); err != nil {
				usageError("%q: %s", s, err)
			}
		}
	}

	return
}

// printConf prints the effective configuration
func printConf() {
	InitLog.Info(0, "Configuration files: OK")
	InitLog.Info(0, "  ipp-port:      %d", Conf.IppPort)
	InitLog.Info(0, "  raw-port:      %d", Conf.RawPort)
	InitLog.Info(0, "  timeout:       %s", Conf.Timeout)
	InitLog.Info(0, "  max-redirects: %d", Conf.MaxRedirects)
	InitLog.Info(0, "  user-agent:    %q", Conf.UserAgent)
	InitLog.Info(0, "  paper:         %s", Conf.Paper)
}

// The main function
func main() {
	// Catch panics to log
	defer func() {
		v := recover()
		if v != nil {
			Log.Panic(v)
		}
	}()

	// Parse arguments
	params := parseArgv(os.Args[1:])

	// Load configuration file
	err := ConfLoad()
	InitLog.Check(err)

	if params.Mode == RunCheck {
		printConf()
		os.Exit(0)
	}

	// Setup logging
	Log.ToFile(PathLogFile).
		SetLevels(Conf.LogMain).
		SetRotation(Conf.LogMaxFileSize, Conf.LogMaxBackupFiles)
	defer Log.Close()

	if params.Debug {
		if Conf.ColorConsole {
			Console.ToColorConsole()
		}
		Console.SetLevels(Conf.LogConsole)
		Log.Cc(Console)
	}

	Log.Info(' ', "===============================")
	Log.Info(' ', "ipp-print started in %q mode, pid=%d",
		params.Mode, os.Getpid())
	defer Log.Info(' ', "ipp-print finished")

	// Create the dispatcher
	httpTransport := NewHTTPTransport(HTTPOptions{
		UserAgent:    Conf.UserAgent,
		Timeout:      Conf.Timeout,
		MaxRedirects: int(Conf.MaxRedirects),
	})
	defer httpTransport.Close()

	dispatcher := &JobDispatcher{
		Formatter: NewDocumentFormatter(Conf.Paper, Conf.SpoolDir),
		HTTP:      httpTransport,
		Raw:       NewRawSocketTransport(Conf.Timeout, nil),
		IppPort:   Conf.IppPort,
		RawPort:   Conf.RawPort,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	session := &Session{
		Prompter:   NewPrompter(os.Stdin, os.Stdout),
		Dispatcher: dispatcher,
	}

	switch params.Mode {
	case RunPrint:
		result, err := dispatcher.Dispatch(ctx, JobRequest{
			Host:     params.Host,
			Text:     params.Text,
			Protocol: params.Protocol,
			Format:   params.Format,
		})
		session.report(result, err)
		if err != nil {
			Log.Close()
			os.Exit(1)
		}

	case RunInteractive:
		err = session.Run(ctx)
		Log.Check(err)
	}
}
