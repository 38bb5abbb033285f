// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// mergedEntry is the pre-flattened composite stored inside Krita (.kra) and
// OpenRaster (.ora) archives.
const mergedEntry = "mergedimage.png"

// ErrUnsupportedFormat is returned when a source is neither a layered archive
// nor a decodable raster.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// IsLayered reports whether path names a layered-image archive.
func IsLayered(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".kra", ".ora":
		return true
	}
	return false
}

// LoadSource decodes the pixels of a page source. Layered archives yield
// their merged image; anything else is decoded as a raster file.
func LoadSource(path string) (image.Image, error) {
	if IsLayered(path) {
		return loadMerged(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decode(f, path)
}

func loadMerged(path string) (image.Image, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", filepath.Base(path), err)
	}
	defer zr.Close()

	entry, err := zr.Open(mergedEntry)
	if err != nil {
		return nil, fmt.Errorf("reading %s from %s: %w", mergedEntry, filepath.Base(path), err)
	}
	defer entry.Close()

	data, err := io.ReadAll(entry)
	if err != nil {
		return nil, fmt.Errorf("reading %s from %s: %w", mergedEntry, filepath.Base(path), err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding %s from %s: %w", mergedEntry, filepath.Base(path), err)
	}
	return img, nil
}

func decode(r io.Reader, path string) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
		}
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return img, nil
}
