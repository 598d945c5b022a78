/* ipp-print - print text on a network printer via IPP or raw port 9100
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Program configuration
 */

package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/ini.v1"
)

const (
	// ConfFileName defines a name of ipp-print configuration file
	ConfFileName = "ipp-print.conf"
)

// Configuration represents a program configuration
type Configuration struct {
	IppPort           int           // IPP-over-HTTP port
	RawPort           int           // Raw printing port
	Timeout           time.Duration // Network exchange timeout
	MaxRedirects      uint          // Max count of followed redirects
	UserAgent         string        // HTTP User-Agent
	Paper             PaperSize     // Paper size for PDF and raster
	SpoolDir          string        // Directory for temporary files
	LogMain           LogLevel      // Main log LogLevel mask
	LogConsole        LogLevel      // Console LogLevel mask
	ColorConsole      bool          // Enable ANSI colors on console
	LogMaxFileSize    int64         // Maximum log file size
	LogMaxBackupFiles uint          // Count of files preserved during rotation
}

// Conf contains a global instance of program configuration
var Conf = DefaultConfiguration()

// DefaultConfiguration returns configuration with default values
func DefaultConfiguration() Configuration {
	return Configuration{
		IppPort:           DefaultIppPort,
		RawPort:           DefaultRawPort,
		Timeout:           DefaultTimeout,
		MaxRedirects:      DefaultMaxRedirects,
		UserAgent:         DefaultUserAgent,
		Paper:             PaperA4,
		LogMain:           LogError | LogInfo | LogDebug,
		LogConsole:        LogError | LogInfo | LogDebug,
		ColorConsole:      true,
		LogMaxFileSize:    LogMaxFileSize,
		LogMaxBackupFiles: LogMaxBackupFiles,
	}
}

// ConfLoad loads the program configuration
func ConfLoad() error {
	// Obtain path to executable directory
	exepath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("conf: %s", err)
	}

	exepath = filepath.Dir(exepath)

	// Build list of configuration files
	files := []string{
		filepath.Join(PathConfDir, ConfFileName),
		filepath.Join(exepath, ConfFileName),
	}

	// Load file by file
	for _, file := range files {
		err = confLoadInternal(&Conf, file)
		if err != nil {
			return fmt.Errorf("conf: %s", err)
		}
	}

	return nil
}

// Create "bad value" error
func confBadValue(key *ini.Key, format string, args ...interface{}) error {
	return fmt.Errorf(key.Name()+": "+format, args...)
}

// Load the program configuration -- internal version
//
// Missing file is not an error
func confLoadInternal(conf *Configuration, path string) error {
	// Open configuration file
	file, err := ini.Load(path)
	if err != nil {
		if os.IsNotExist(err) {
			err = nil
		}
		return err
	}

	// Extract options
	for _, section := range file.Sections() {
		for _, key := range section.Keys() {
			err = confLoadKey(conf, section.Name(), key)
			if err != nil {
				return fmt.Errorf("%s: [%s] %s", path, section.Name(), err)
			}
		}
	}

	return nil
}

// Load a single key
func confLoadKey(conf *Configuration, section string, key *ini.Key) error {
	switch section {
	case "network":
		switch key.Name() {
		case "ipp-port":
			return confLoadIPPortKey(&conf.IppPort, key)
		case "raw-port":
			return confLoadIPPortKey(&conf.RawPort, key)
		case "timeout":
			return confLoadDurationKey(&conf.Timeout, key)
		case "max-redirects":
			return confLoadUintKeyRange(&conf.MaxRedirects, key, 0, 32)
		case "user-agent":
			conf.UserAgent = key.String()
		}

	case "document":
		switch key.Name() {
		case "paper":
			return confLoadPaperKey(&conf.Paper, key)
		case "spool-dir":
			conf.SpoolDir = key.String()
		}

	case "logging":
		switch key.Name() {
		case "main-log":
			return confLoadLogLevelKey(&conf.LogMain, key)
		case "console-log":
			return confLoadLogLevelKey(&conf.LogConsole, key)
		case "console-color":
			return confLoadBinaryKey(&conf.ColorConsole, key, "disable", "enable")
		case "max-file-size":
			return confLoadSizeKey(&conf.LogMaxFileSize, key)
		case "max-backup-files":
			return confLoadUintKey(&conf.LogMaxBackupFiles, key)
		}
	}

	return nil
}

// Load IP port key
func confLoadIPPortKey(out *int, key *ini.Key) error {
	port, err := strconv.Atoi(key.String())
	if err != nil || port < 1 || port > 65535 {
		return confBadValue(key, "must be in range 1...65535")
	}

	*out = port
	return nil
}

// Load the binary key
func confLoadBinaryKey(out *bool, key *ini.Key, vFalse, vTrue string) error {
	switch key.String() {
	case vFalse:
		*out = false
		return nil
	case vTrue:
		*out = true
		return nil
	default:
		return confBadValue(key, "must be %s or %s", vFalse, vTrue)
	}
}

// Load LogLevel key
func confLoadLogLevelKey(out *LogLevel, key *ini.Key) error {
	var mask LogLevel
	for _, s := range strings.Split(key.String(), ",") {
		s = strings.TrimSpace(s)
		switch s {
		case "":
		case "error":
			mask |= LogError
		case "info":
			mask |= LogInfo | LogError
		case "debug":
			mask |= LogDebug | LogInfo | LogError
		case "trace-ipp":
			mask |= LogTraceIPP | LogDebug | LogInfo | LogError
		case "trace-http":
			mask |= LogTraceHTTP | LogDebug | LogInfo | LogError
		case "trace-raw":
			mask |= LogTraceRaw | LogDebug | LogInfo | LogError
		case "all", "trace-all":
			mask |= LogAll
		default:
			return confBadValue(key, "invalid log level %q", s)
		}
	}

	*out = mask
	return nil
}

// Load duration key. Plain number means milliseconds,
// otherwise time.ParseDuration syntax is used
func confLoadDurationKey(out *time.Duration, key *ini.Key) error {
	s := key.String()

	ms, err := strconv.ParseUint(s, 10, 32)
	if err == nil {
		*out = time.Millisecond * time.Duration(ms)
		return nil
	}

	// Note, time.ParseDuration allows signed duration,
	// but we don't
	if !strings.HasPrefix(s, "+") && !strings.HasPrefix(s, "-") {
		v, err := time.ParseDuration(s)
		if err == nil {
			*out = v
			return nil
		}
	}

	return confBadValue(key, "%q: invalid duration", s)
}

// Load paper size key
func confLoadPaperKey(out *PaperSize, key *ini.Key) error {
	paper, err := PaperByName(key.String())
	if err != nil {
		return confBadValue(key, "%s", err)
	}

	*out = paper
	return nil
}

// Load size key
func confLoadSizeKey(out *int64, key *ini.Key) error {
	s := key.String()
	units := uint64(1)

	if l := len(s); l > 0 {
		switch s[l-1] {
		case 'k', 'K':
			units = 1024
		case 'm', 'M':
			units = 1024 * 1024
		}

		if units != 1 {
			s = s[:l-1]
		}
	}

	sz, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return confBadValue(key, "%q: invalid size", key.String())
	}

	if sz > uint64(math.MaxInt64)/units {
		return confBadValue(key, "size too large")
	}

	*out = int64(sz * units)
	return nil
}

// Load unsigned integer key
func confLoadUintKey(out *uint, key *ini.Key) error {
	num, err := strconv.ParseUint(key.String(), 10, 0)
	if err != nil {
		return confBadValue(key, "%q: invalid number", key.String())
	}

	*out = uint(num)
	return nil
}

// Load unsigned integer key within the range
func confLoadUintKeyRange(out *uint, key *ini.Key, min, max uint) error {
	var val uint
	err := confLoadUintKey(&val, key)
	if err == nil && (val < min || val > max) {
		err = confBadValue(key, "must be in range %d...%d", min, max)
	}

	if err == nil {
		*out = val
	}

	return err
}
