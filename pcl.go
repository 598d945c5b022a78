/* ipp-print - print text on a network printer via IPP or raw port 9100
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * PCL/PJL payload for raw printing
 */

package main

// PCL/PJL template, around the substituted host name:
//
//	ESC %-12345X          - Universal Exit Language
//	@PJL                  - PJL prologue
//	@PJL ENTER LANGUAGE   - switch to PCL
//	ESC E                 - PCL printer reset
//	<host>                - page text
//	ESC *s-257X %-12345X  - termination
const (
	pclPrologue = "\x1b%-12345X@PJL\n@PJL ENTER LANGUAGE = PCL\n\x1bE"
	pclEpilogue = "\x1b*s-257X%-12345X"
)

// PclPayload returns PCL/PJL payload for port 9100 printing, with host
// substituted into the template exactly once
func PclPayload(host string) []byte {
	payload := make([]byte, 0, len(pclPrologue)+len(host)+len(pclEpilogue))
	payload = append(payload, pclPrologue...)
	payload = append(payload, host...)
	payload = append(payload, pclEpilogue...)
	return payload
}
