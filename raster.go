/* ipp-print - print text on a network printer via IPP or raw port 9100
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Minimal single-page raster
 */

package main

import (
	"bytes"
	"encoding/binary"
)

const (
	// RasterSyncWord starts the raster stream. This is CUPS
	// sync word, written in little-endian byte order, so
	// all header fields that follow are little-endian too
	RasterSyncWord = "tSaR"

	// RasterHeaderSize is the size of encoded RasterHeader
	RasterHeaderSize = 4*64 + 41*4

	// RasterBitmapSize is the fixed size of page bitmap
	RasterBitmapSize = 2000

	// RasterPageSize is the total size of encoded page
	RasterPageSize = len(RasterSyncWord) + RasterHeaderSize + RasterBitmapSize

	// rasterColorSpaceK is the CUPS_CSPACE_K color space
	rasterColorSpaceK = 3

	// rasterGlyphRows is the height of the text band, in rows
	rasterGlyphRows = 8
)

// RasterHeader is the CUPS/PWG raster page header record, version 1
// layout. Strings are NUL-padded, numbers are 32-bit
type RasterHeader struct {
	MediaClass         [64]byte
	MediaColor         [64]byte
	MediaType          [64]byte
	OutputType         [64]byte
	AdvanceDistance    uint32
	AdvanceMedia       uint32
	Collate            uint32
	CutMedia           uint32
	Duplex             uint32
	HWResolution       [2]uint32
	ImagingBoundingBox [4]uint32
	InsertSheet        uint32
	Jog                uint32
	LeadingEdge        uint32
	Margins            [2]uint32
	ManualFeed         uint32
	MediaPosition      uint32
	MediaWeight        uint32
	MirrorPrint        uint32
	NegativePrint      uint32
	NumCopies          uint32
	Orientation        uint32
	OutputFaceUp       uint32
	PageSize           [2]uint32
	Separations        uint32
	TraySwitch         uint32
	Tumble             uint32
	CupsWidth          uint32
	CupsHeight         uint32
	CupsMediaType      uint32
	CupsBitsPerColor   uint32
	CupsBitsPerPixel   uint32
	CupsBytesPerLine   uint32
	CupsColorOrder     uint32
	CupsColorSpace     uint32
	CupsCompression    uint32
	CupsRowCount       uint32
	CupsRowFeed        uint32
	CupsRowStep        uint32
}

// RasterPage is a single raster page: header plus fixed-size bitmap
//
// This is not a complete PWG raster encoder: the bitmap is a single
// 8-row band of text with a fixed total size, regardless of what
// CupsBytesPerLine and CupsHeight say
type RasterPage struct {
	Header RasterHeader
	Bitmap [RasterBitmapSize]byte
}

// NewRasterHeader creates a 1-bit monochrome page header for the paper
func NewRasterHeader(paper PaperSize) RasterHeader {
	hdr := RasterHeader{
		HWResolution:       [2]uint32{64, 64},
		ImagingBoundingBox: [4]uint32{64, 64, 64, 64},
		Margins:            [2]uint32{64, 64},
		PageSize:           [2]uint32{uint32(paper.Width), uint32(paper.Height)},
		CupsWidth:          uint32(paper.Width),
		CupsHeight:         uint32(paper.Height),
		CupsBitsPerColor:   1,
		CupsBitsPerPixel:   1,
		CupsBytesPerLine:   1,
		CupsColorSpace:     rasterColorSpaceK,
	}

	copy(hdr.MediaClass[:], "PwgRaster")
	return hdr
}

// NewRasterPage renders text into a new RasterPage
//
// Each of 8 bitmap rows is Columns() bytes long: one glyph
// byte per character, then zero fill. Characters that don't
// fit into the row are dropped
func NewRasterPage(paper PaperSize, text string) *RasterPage {
	page := &RasterPage{Header: NewRasterHeader(paper)}

	cols := rasterColumns(paper)
	if len(text) > cols {
		text = text[:cols]
	}

	for y := 0; y < rasterGlyphRows; y++ {
		row := page.Bitmap[y*cols : (y+1)*cols]
		for i := 0; i < len(text); i++ {
			row[i] = fontGlyphRow(text[i], y)
		}
		// The rest of the row is already zero
	}

	return page
}

// rasterColumns returns width of the bitmap row, in bytes
func rasterColumns(paper PaperSize) int {
	cols := paper.Columns()
	if limit := RasterBitmapSize / rasterGlyphRows; cols > limit {
		cols = limit
	}
	return cols
}

// Encode encodes the page: sync word, header, bitmap
func (page *RasterPage) Encode() ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, RasterPageSize))
	buf.WriteString(RasterSyncWord)

	err := binary.Write(buf, binary.LittleEndian, &page.Header)
	if err != nil {
		return nil, err
	}

	buf.Write(page.Bitmap[:])
	return buf.Bytes(), nil
}
