/* ipp-print - print text on a network printer via IPP or raw port 9100
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Logging
 */

package main

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"
)

// LogLevel enumerates possible log levels. Levels are bit
// masks, so logger may enable any combination of them
type LogLevel int

const (
	LogError LogLevel = 1 << iota
	LogInfo
	LogDebug
	LogTraceIPP
	LogTraceHTTP
	LogTraceRaw

	LogTraceAll = LogTraceIPP | LogTraceHTTP | LogTraceRaw
	LogAll      = LogError | LogInfo | LogDebug | LogTraceAll
)

// logMode specifies where Logger writes to
type logMode int

const (
	logModeNowhere logMode = iota
	logModeConsole
	logModeColorConsole
	logModeFile
)

var (
	logMessagePool = sync.Pool{New: func() interface{} { return &LogMessage{} }}

	// Log is the main program log
	Log = NewLogger()

	// Console is the console log. Log is cc'ed here in debug mode
	Console = NewLogger().ToConsole()

	// InitLog is used at initialization and for reporting to user
	InitLog = NewLogger().ToConsole().SetLevels(LogError | LogInfo)
)

// Logger implements logging facilities
type Logger struct {
	lock       sync.Mutex   // Write lock
	mode       logMode      // Output mode
	levels     LogLevel     // Enabled levels
	out        io.Writer    // Console output
	path       string       // Path to log file
	file       *os.File     // Log file, opened on demand
	cc         *Logger      // Loggers to send carbon copy to
	maxSize    int64        // Log file size limit
	maxBackups uint         // Count of rotated files to keep
	time       bytes.Buffer // Time prefix buffer
}

// NewLogger creates a new logger. Initially it writes nowhere
func NewLogger() *Logger {
	return &Logger{
		levels:     LogError | LogInfo | LogDebug,
		out:        os.Stdout,
		maxSize:    LogMaxFileSize,
		maxBackups: LogMaxBackupFiles,
	}
}

// ToNowhere redirects log to nowhere
func (l *Logger) ToNowhere() *Logger {
	l.setMode(logModeNowhere, "")
	return l
}

// ToConsole redirects log to console
func (l *Logger) ToConsole() *Logger {
	l.setMode(logModeConsole, "")
	return l
}

// ToColorConsole redirects log to console with ANSI colors
func (l *Logger) ToColorConsole() *Logger {
	l.setMode(logModeColorConsole, "")
	return l
}

// ToFile redirects log to file. File is opened on demand
func (l *Logger) ToFile(path string) *Logger {
	l.setMode(logModeFile, path)
	return l
}

// ToWriter redirects log to arbitrary io.Writer, using console
// formatting
func (l *Logger) ToWriter(out io.Writer) *Logger {
	l.setMode(logModeConsole, "")
	l.lock.Lock()
	l.out = out
	l.lock.Unlock()
	return l
}

// setMode sets the output mode, closing previously opened file
func (l *Logger) setMode(mode logMode, path string) {
	l.lock.Lock()
	defer l.lock.Unlock()

	if l.file != nil {
		l.file.Close()
		l.file = nil
	}

	l.mode = mode
	l.path = path
	l.time.Reset()
}

// SetLevels sets enabled log levels
func (l *Logger) SetLevels(levels LogLevel) *Logger {
	l.lock.Lock()
	l.levels = levels
	l.lock.Unlock()
	return l
}

// SetRotation sets log file size limit and count of backup files
func (l *Logger) SetRotation(maxSize int64, maxBackups uint) *Logger {
	l.lock.Lock()
	l.maxSize, l.maxBackups = maxSize, maxBackups
	l.lock.Unlock()
	return l
}

// Cc adds Logger to send "carbon copy" to
func (l *Logger) Cc(to *Logger) *Logger {
	l.lock.Lock()
	l.cc = to
	l.lock.Unlock()
	return l
}

// Close the logger
func (l *Logger) Close() {
	l.ToNowhere()
}

// Begin new log message
func (l *Logger) Begin() *LogMessage {
	msg := logMessagePool.Get().(*LogMessage)
	msg.logger = l
	return msg
}

// Debug writes a LogDebug message
func (l *Logger) Debug(prefix byte, format string, args ...interface{}) {
	l.Begin().Debug(prefix, format, args...).Commit()
}

// Info writes a LogInfo message
func (l *Logger) Info(prefix byte, format string, args ...interface{}) {
	l.Begin().Info(prefix, format, args...).Commit()
}

// Error writes a LogError message
func (l *Logger) Error(prefix byte, format string, args ...interface{}) {
	l.Begin().Error(prefix, format, args...).Commit()
}

// Exit writes a LogError message and terminates the program
func (l *Logger) Exit(prefix byte, format string, args ...interface{}) {
	l.Error(prefix, format, args...)
	os.Exit(1)
}

// Check terminates the program, if err is not nil
func (l *Logger) Check(err error) {
	if err != nil {
		l.Exit(0, "%s", err)
	}
}

// Panic writes panic value and stack trace to the log, then
// re-panics
func (l *Logger) Panic(v interface{}) {
	l.Begin().
		Error('!', "panic: %v", v).
		Error('!', "%s", debug.Stack()).
		Commit()
	panic(v)
}

// LineWriter creates a LineWriter that writes each line as
// a separate log message
func (l *Logger) LineWriter(level LogLevel, prefix byte) *LineWriter {
	return &LineWriter{
		Func: func(line []byte) {
			l.Begin().Add(level, prefix, "%s", line).Commit()
		},
	}
}

// commit writes lines of the committed message
func (l *Logger) commit(lines []logLine) {
	l.lock.Lock()
	l.write(lines)
	cc := l.cc
	l.lock.Unlock()

	if cc != nil {
		cc.commit(lines)
	}
}

// write writes lines to the log. Must be called under the lock
func (l *Logger) write(lines []logLine) {
	var out io.Writer

	switch l.mode {
	case logModeNowhere:
		return

	case logModeConsole, logModeColorConsole:
		out = l.out

	case logModeFile:
		if l.file == nil {
			os.MkdirAll(filepath.Dir(l.path), 0755)
			l.file, _ = os.OpenFile(l.path,
				os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
		}

		if l.file == nil {
			return
		}

		l.rotate()
		l.fmtTime()
		out = l.file
	}

	for _, line := range lines {
		if line.level&l.levels == 0 {
			continue
		}

		if l.mode == logModeColorConsole {
			logColorConsoleWrite(out, line.level, line.text)
		} else {
			out.Write(l.time.Bytes())
			out.Write(line.text)
		}
		out.Write([]byte("\n"))
	}
}

// fmtTime formats a time prefix
func (l *Logger) fmtTime() {
	l.time.Reset()

	now := time.Now()

	year, month, day := now.Date()
	fmt.Fprintf(&l.time, "%2.2d-%2.2d-%4.4d ", day, month, year)

	hour, min, sec := now.Clock()
	fmt.Fprintf(&l.time, "%2.2d:%2.2d:%2.2d", hour, min, sec)

	l.time.WriteString(": ")
}

// rotate handles log rotation
func (l *Logger) rotate() {
	// Do we need to rotate?
	stat, err := l.file.Stat()
	if err != nil || stat.Size() <= l.maxSize {
		return
	}

	// Perform rotation
	prevpath := ""
	for i := int(l.maxBackups); i >= 0; i-- {
		nextpath := l.path
		if i > 0 {
			nextpath += fmt.Sprintf(".%d.gz", i-1)
		}

		switch i {
		case int(l.maxBackups):
			os.Remove(nextpath)
		case 0:
			err := logGzip(nextpath, prevpath)
			if err == nil {
				l.file.Truncate(0)
				l.file.Seek(0, io.SeekStart)
			}
		default:
			os.Rename(nextpath, prevpath)
		}

		prevpath = nextpath
	}
}

// logGzip compresses ipath into opath
func logGzip(ipath, opath string) error {
	// Open input file
	ifile, err := os.Open(ipath)
	if err != nil {
		return err
	}

	defer ifile.Close()

	// Open output file
	ofile, err := os.OpenFile(opath, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0644)
	if err != nil {
		return err
	}

	// gzip ifile->ofile
	w := gzip.NewWriter(ofile)
	_, err = io.Copy(w, ifile)
	err2 := w.Close()
	err3 := ofile.Close()

	switch {
	case err == nil && err2 != nil:
		err = err2
	case err == nil && err3 != nil:
		err = err3
	}

	// Cleanup and exit
	if err != nil {
		os.Remove(opath)
	}

	return err
}

// logColorConsoleWrite writes a colorized line to console
func logColorConsoleWrite(out io.Writer, level LogLevel, line []byte) {
	var beg, end string

	switch {
	case level&LogError != 0:
		beg, end = "\033[31;1m", "\033[0m" // Red
	case level&LogInfo != 0:
		beg, end = "\033[32;1m", "\033[0m" // Green
	case level&LogDebug != 0:
		beg, end = "\033[37;1m", "\033[0m" // White
	case level&LogTraceAll != 0:
		beg, end = "\033[37m", "\033[0m" // Gray
	}

	out.Write([]byte(beg))
	out.Write(line)
	out.Write([]byte(end))
}

// logLine is a single line of LogMessage
type logLine struct {
	level LogLevel // Line level
	text  []byte   // Line text, without trailing '\n'
}

// LogMessage represents a single (possible multi line) log
// message, which will appear in the output log atomically,
// and will not be interrupted in the middle by other log activity
type LogMessage struct {
	logger *Logger   // Underlying logger
	lines  []logLine // Message lines
}

// Add formats a next line of log message, with level and prefix char
func (msg *LogMessage) Add(level LogLevel, prefix byte,
	format string, args ...interface{}) *LogMessage {

	var buf bytes.Buffer
	if prefix != 0 {
		buf.Write([]byte{prefix, ' '})
	}
	fmt.Fprintf(&buf, format, args...)

	text := bytes.TrimRight(buf.Bytes(), "\n")
	msg.lines = append(msg.lines, logLine{level, text})
	return msg
}

// Nl adds an empty line
func (msg *LogMessage) Nl(level LogLevel) *LogMessage {
	msg.lines = append(msg.lines, logLine{level, nil})
	return msg
}

// Debug adds a LogDebug line
func (msg *LogMessage) Debug(prefix byte, format string, args ...interface{}) *LogMessage {
	return msg.Add(LogDebug, prefix, format, args...)
}

// Info adds a LogInfo line
func (msg *LogMessage) Info(prefix byte, format string, args ...interface{}) *LogMessage {
	return msg.Add(LogInfo, prefix, format, args...)
}

// Error adds a LogError line
func (msg *LogMessage) Error(prefix byte, format string, args ...interface{}) *LogMessage {
	return msg.Add(LogError, prefix, format, args...)
}

// LineWriter creates a LineWriter that adds lines to this message
func (msg *LogMessage) LineWriter(level LogLevel, prefix byte) *LineWriter {
	return &LineWriter{
		Func: func(line []byte) {
			msg.Add(level, prefix, "%s", line)
		},
	}
}

// Dump adds HEX dump of data
func (msg *LogMessage) Dump(level LogLevel, data []byte) *LogMessage {
	var hex, chr bytes.Buffer

	for off := 0; off < len(data); off += 16 {
		hex.Reset()
		chr.Reset()

		end := off + 16
		if end > len(data) {
			end = len(data)
		}

		i := off
		for ; i < end; i++ {
			c := data[i]
			fmt.Fprintf(&hex, "%2.2x", c)
			if i%4 == 3 {
				hex.WriteByte(':')
			} else {
				hex.WriteByte(' ')
			}

			if 0x20 <= c && c < 0x80 {
				chr.WriteByte(c)
			} else {
				chr.WriteByte('.')
			}
		}

		for ; i < off+16; i++ {
			hex.WriteString("   ")
		}

		msg.Add(level, ' ', "%4.4x: %s %s", off, hex.Bytes(), chr.Bytes())
	}

	return msg
}

// Commit message to the log
func (msg *LogMessage) Commit() {
	// Don't forget to free the message
	defer msg.free()

	// Ignore empty messages
	if len(msg.lines) == 0 {
		return
	}

	msg.logger.commit(msg.lines)
}

// Reject the message
func (msg *LogMessage) Reject() {
	msg.free()
}

// free returns message to the logMessagePool
func (msg *LogMessage) free() {
	// Reset the message and put it to the pool
	if len(msg.lines) < 16 {
		msg.lines = msg.lines[:0] // Keep memory, reset content
	} else {
		msg.lines = nil
	}

	msg.logger = nil
	logMessagePool.Put(msg)
}
