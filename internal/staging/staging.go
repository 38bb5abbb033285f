// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package staging manages the per-page raster cache: file naming, the
// freshness check, writing pages, and listing them for assembly.
package staging

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/zeebo/blake3"
	"golang.org/x/image/tiff"
)

// Ext is the extension of staged page files.
const Ext = ".tif"

// minPadWidth keeps the historic three-digit names for projects under a
// thousand pages.
const minPadWidth = 3

// PadWidth returns the number of digits used for page indices in a project
// of n pages: the digit count of n, at least minPadWidth. It is strictly
// greater than log10(n), so zero-padded names sort lexically in page order.
func PadWidth(n int) int {
	w := len(strconv.Itoa(max(n, 0)))
	return max(w, minPadWidth)
}

// PageFileName returns the staged filename for page index.
func PageFileName(prefix string, index, width int) string {
	return fmt.Sprintf("%s_%0*d%s", prefix, width, index, Ext)
}

// PagePath returns the staged file path for page index.
func PagePath(dir, prefix string, index, width int) string {
	return filepath.Join(dir, PageFileName(prefix, index, width))
}

// NeedsUpdate reports whether the staged output must be regenerated from
// source. Force always wins. A missing source is reported as up to date so
// the page is left as it is. Otherwise a missing output, or a source
// modified strictly after the output, needs an update.
func NeedsUpdate(source, output string, force bool) bool {
	if force {
		return true
	}
	srcInfo, err := os.Stat(source)
	if err != nil {
		return false
	}
	outInfo, err := os.Stat(output)
	if err != nil {
		return true
	}
	return srcInfo.ModTime().After(outInfo.ModTime())
}

// Exists reports whether a staged file is present.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Touch sets the modification time of a staged file to now. Used when a
// page is re-rendered from a newer source but encodes to identical bytes.
func Touch(path string) error {
	now := time.Now()
	return os.Chtimes(path, now, now)
}

// WriteResult describes the outcome of Write.
type WriteResult struct {
	// Written is false when the existing file already held identical bytes.
	Written bool
	// Digest is the hex BLAKE3 digest of the encoded page.
	Digest string
	Size   int
}

// Write encodes img as a Deflate-compressed TIFF at path. When a file with
// identical content is already there it is left untouched, preserving its
// modification time.
func Write(path string, img image.Image) (WriteResult, error) {
	var buf bytes.Buffer
	if err := tiff.Encode(&buf, img, &tiff.Options{Compression: tiff.Deflate}); err != nil {
		return WriteResult{}, fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	sum := blake3.Sum256(buf.Bytes())
	res := WriteResult{Digest: hex.EncodeToString(sum[:]), Size: buf.Len()}

	if existing, err := os.ReadFile(path); err == nil {
		if blake3.Sum256(existing) == sum {
			return res, nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return WriteResult{}, fmt.Errorf("creating staging directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return WriteResult{}, fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return WriteResult{}, fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	res.Written = true
	return res, nil
}

// Read decodes a staged page.
func Read(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := tiff.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

// List returns the paths of all staged files in dir, sorted lexically. With
// zero-padded names this is page order. A missing directory yields an empty
// list.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading staging directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != Ext {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// Prune removes staged pages named with prefix that no longer belong to a
// project of count pages: an index of count or greater, or a pad width other
// than width. They would otherwise be assembled. It returns the removed
// paths.
func Prune(dir, prefix string, count, width int) ([]string, error) {
	files, err := List(dir)
	if err != nil {
		return nil, err
	}
	var removed []string
	for _, f := range files {
		index, digits, ok := pageIndex(filepath.Base(f), prefix)
		if !ok || (index < count && digits == width) {
			continue
		}
		if err := os.Remove(f); err != nil {
			return removed, fmt.Errorf("pruning %s: %w", filepath.Base(f), err)
		}
		removed = append(removed, f)
	}
	return removed, nil
}

// pageIndex parses the index and its digit count out of a staged filename
// produced by PageFileName for prefix.
func pageIndex(name, prefix string) (index, width int, ok bool) {
	rest, found := strings.CutPrefix(name, prefix+"_")
	if !found {
		return 0, 0, false
	}
	digits := strings.TrimSuffix(rest, Ext)
	if digits == "" || digits == rest {
		return 0, 0, false
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, 0, false
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, 0, false
	}
	return n, len(digits), true
}
