/* ipp-print - print text on a network printer via IPP or raw port 9100
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Document formatter
 */

package main

import (
	"fmt"
	"strings"
)

// DocumentFormat represents format of the document body
type DocumentFormat int

// Document formats, in the menu order
const (
	FormatRaster DocumentFormat = iota
	FormatPDF
	FormatText
)

// DocumentFormats lists all document formats, in the menu order
var DocumentFormats = []DocumentFormat{FormatRaster, FormatPDF, FormatText}

// String returns DocumentFormat name
func (f DocumentFormat) String() string {
	switch f {
	case FormatRaster:
		return "PWG Raster"
	case FormatPDF:
		return "PDF"
	case FormatText:
		return "Plain text"
	}

	return fmt.Sprintf("unknown (%d)", int(f))
}

// MimeType returns MIME type of the DocumentFormat, as used
// in the "document-format" IPP attribute
func (f DocumentFormat) MimeType() string {
	switch f {
	case FormatRaster:
		return "image/pwg-raster"
	case FormatPDF:
		return "application/pdf"
	case FormatText:
		return "text/plain"
	}

	return "application/octet-stream"
}

// DocumentFormatByName returns DocumentFormat by its short
// name (raster, pdf, text) or MIME type
func DocumentFormatByName(name string) (DocumentFormat, error) {
	name = strings.ToLower(name)
	for _, f := range DocumentFormats {
		if name == f.MimeType() {
			return f, nil
		}
	}

	switch name {
	case "raster", "pwg", "pwg-raster":
		return FormatRaster, nil
	case "pdf":
		return FormatPDF, nil
	case "text", "txt", "plain":
		return FormatText, nil
	}

	return 0, fmt.Errorf("%q: %w", name, ErrUnknownFormat)
}

// PrintJob represents the formatted document, ready to be sent
type PrintJob struct {
	Format DocumentFormat // Document format
	Body   []byte         // Document body
}

// DocumentFormatter produces document bodies
type DocumentFormatter struct {
	Paper    PaperSize   // Page size for PDF and raster
	Renderer PdfRenderer // PDF renderer
}

// NewDocumentFormatter creates DocumentFormatter with the fpdf-based
// PDF renderer
func NewDocumentFormatter(paper PaperSize, spoolDir string) *DocumentFormatter {
	return &DocumentFormatter{
		Paper:    paper,
		Renderer: &FpdfRenderer{Paper: paper, SpoolDir: spoolDir},
	}
}

// Format formats text as a document of the specified format
func (df *DocumentFormatter) Format(format DocumentFormat,
	text string) (*PrintJob, error) {

	var body []byte
	var err error

	switch format {
	case FormatText:
		body = []byte(text)

	case FormatPDF:
		body, err = df.Renderer.RenderSinglePageText(text)

	case FormatRaster:
		body, err = NewRasterPage(df.Paper, text).Encode()

	default:
		err = ErrUnknownFormat
	}

	if err != nil {
		return nil, newPrintError(ErrKindFormat, format.String(), err)
	}

	return &PrintJob{Format: format, Body: body}, nil
}
