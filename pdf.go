/* ipp-print - print text on a network printer via IPP or raw port 9100
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Single-page PDF renderer
 */

package main

import (
	"os"
	"time"

	"github.com/go-pdf/fpdf"
)

// Text placement on PDF page. Coordinates are in points,
// Y is measured from the bottom edge of the page
const (
	pdfFontFamily = "Helvetica"
	pdfFontSize   = 12
	pdfTextX      = 50
	pdfTextY      = 20
)

// PdfRenderer renders text into a single-page PDF document
type PdfRenderer interface {
	RenderSinglePageText(text string) ([]byte, error)
}

// FpdfRenderer is the PdfRenderer, backed by the fpdf library
//
// The document is spooled through a temporary file in SpoolDir
// (os.TempDir(), if empty). The file is removed as soon as its
// content is read back
type FpdfRenderer struct {
	Paper    PaperSize // Page size
	SpoolDir string    // Directory for temporary files
}

// RenderSinglePageText implements PdfRenderer interface
func (r *FpdfRenderer) RenderSinglePageText(text string) ([]byte, error) {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size: fpdf.SizeType{
			Wd: float64(r.Paper.Width),
			Ht: float64(r.Paper.Height),
		},
	})

	pdf.SetCompression(false)
	pdf.SetCreator("ipp-print", false)
	pdf.SetCreationDate(time.Now())
	pdf.AddPage()
	pdf.SetFont(pdfFontFamily, "", pdfFontSize)
	pdf.SetTextColor(0, 0, 0)
	pdf.Text(pdfTextX, float64(r.Paper.Height-pdfTextY), text)

	if err := pdf.Error(); err != nil {
		return nil, err
	}

	return r.spool(pdf)
}

// spool writes the document into the temporary file and reads it back
func (r *FpdfRenderer) spool(pdf *fpdf.Fpdf) ([]byte, error) {
	file, err := os.CreateTemp(r.SpoolDir, ".ipp-print-*.pdf")
	if err != nil {
		return nil, err
	}

	path := file.Name()
	defer os.Remove(path)

	err = pdf.Output(file)
	err2 := file.Close()
	if err == nil {
		err = err2
	}

	if err != nil {
		return nil, err
	}

	return os.ReadFile(path)
}
