/* ipp-print - print text on a network printer via IPP or raw port 9100
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Configuration constants
 */

package main

import (
	"time"
)

const (
	// DefaultIppPort is the IPP-over-HTTP port
	DefaultIppPort = 631

	// DefaultRawPort is the raw (JetDirect) printing port
	DefaultRawPort = 9100

	// DefaultTimeout limits every network exchange
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRedirects limits count of followed HTTP redirects
	DefaultMaxRedirects = 5

	// DefaultUserAgent is sent with every HTTP request
	DefaultUserAgent = "ipp-print/1.0.0"

	// HTTPPageSize is the granularity of the response buffer growth
	HTTPPageSize = 4096

	// InputMaxLen limits host name and document text length
	InputMaxLen = 59

	// LogMaxFileSize is the default log file size limit
	LogMaxFileSize = 256 * 1024

	// LogMaxBackupFiles is the default count of rotated log files
	LogMaxBackupFiles = 5
)
