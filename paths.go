/* ipp-print - print text on a network printer via IPP or raw port 9100
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Common paths
 */

package main

const (
	// PathConfDir defines path to configuration directory
	PathConfDir = "/etc/ipp-print"

	// PathLogDir defines path to log directory
	PathLogDir = "/var/log/ipp-print"

	// PathLogFile defines path to the main log file
	PathLogFile = PathLogDir + "/main.log"
)
