// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package assemble combines staged page rasters into a single PDF.
package assemble

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/jung-kurt/gofpdf"

	"github.com/pdiddy/pagemill/internal/staging"
)

// pointsPerInch is the PDF user-space unit.
const pointsPerInch = 72.0

// creator is written to the PDF Creator field.
const creator = "pagemill"

// ErrNoPages is returned when there is nothing to assemble.
var ErrNoPages = errors.New("no staged pages to assemble")

// Metadata describes the document being produced.
type Metadata struct {
	Title  string
	Author string
	// DPI converts raster pixels to page points.
	DPI int
}

// Summary describes a finished document.
type Summary struct {
	Output string
	Pages  int
	Bytes  int64
}

// String renders a one-line description, e.g. "12 pages, 3.4 MB".
func (s Summary) String() string {
	return fmt.Sprintf("%d pages, %s", s.Pages, humanize.Bytes(uint64(s.Bytes)))
}

// Assemble writes one PDF page per staged file, in the order given, to
// output. Each page is sized to its raster at meta.DPI and the raster is
// embedded losslessly.
func Assemble(files []string, output string, meta Metadata, w io.Writer) (Summary, error) {
	if len(files) == 0 {
		return Summary{}, ErrNoPages
	}
	if meta.DPI <= 0 {
		return Summary{}, fmt.Errorf("assembling %s: dpi must be positive", output)
	}

	fmt.Fprintln(w, "Assembling PDF")

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCompression(true)
	pdf.SetTitle(meta.Title, true)
	pdf.SetAuthor(meta.Author, true)
	pdf.SetCreator(creator, true)

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	for i, f := range files {
		img, err := staging.Read(f)
		if err != nil {
			return Summary{}, fmt.Errorf("assembling page %d: %w", i, err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return Summary{}, fmt.Errorf("assembling page %d: %w", i, err)
		}

		b := img.Bounds()
		size := gofpdf.SizeType{
			Wd: toPoints(b.Dx(), meta.DPI),
			Ht: toPoints(b.Dy(), meta.DPI),
		}
		name := "page" + strconv.Itoa(i)
		pdf.RegisterImageOptionsReader(name, opts, &buf)
		pdf.AddPageFormat("P", size)
		pdf.ImageOptions(name, 0, 0, size.Wd, size.Ht, false, opts, 0, "")
		if err := pdf.Error(); err != nil {
			return Summary{}, fmt.Errorf("assembling page %d (%s): %w", i, filepath.Base(f), err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return Summary{}, fmt.Errorf("creating output directory: %w", err)
	}
	if err := pdf.OutputFileAndClose(output); err != nil {
		return Summary{}, fmt.Errorf("writing %s: %w", output, err)
	}

	info, err := os.Stat(output)
	if err != nil {
		return Summary{}, fmt.Errorf("checking %s: %w", output, err)
	}
	s := Summary{Output: output, Pages: len(files), Bytes: info.Size()}
	fmt.Fprintf(w, "wrote: %s (%s)\n", output, s)
	return s, nil
}

func toPoints(px, dpi int) float64 {
	return float64(px) * pointsPerInch / float64(dpi)
}
