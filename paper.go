/* ipp-print - print text on a network printer via IPP or raw port 9100
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Paper sizes
 */

package main

import (
	"fmt"
	"strings"
)

// PaperSize represents paper size, in PostScript points (1/72 inch)
type PaperSize struct {
	Name          string // Paper name, as used in configuration
	Width, Height int    // Paper width and height
}

// Standard paper sizes
//
//	           inches          mm              points
//	"a4"       8.27 x 11.69    210 x 297       595 x 842
//	"letter"   8.5 x 11        215.9 x 279.4   612 x 792
//
// A4 dimensions are rounded down to the whole point, the same
// way as CUPS does it in its raster headers
var (
	PaperA4     = PaperSize{"a4", 595, 842}
	PaperLetter = PaperSize{"letter", 612, 792}
)

// paperSizes lists all known paper sizes
var paperSizes = []PaperSize{PaperA4, PaperLetter}

// PaperByName returns PaperSize by its name. Names are
// case-insensitive
func PaperByName(name string) (PaperSize, error) {
	for _, p := range paperSizes {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}

	return PaperSize{}, fmt.Errorf("%q: unknown paper size", name)
}

// Columns returns how many 8-point character cells fit
// into the paper width
func (p PaperSize) Columns() int {
	return p.Width / 8
}

// String returns paper name and dimensions
func (p PaperSize) String() string {
	return fmt.Sprintf("%s (%dx%d pt)", p.Name, p.Width, p.Height)
}
