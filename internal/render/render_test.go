// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"archive/zip"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pagemill/pkg/types"
)

func testSettings() types.Settings {
	return types.Settings{
		SubDimension:  types.Dimension{100, 150},
		PageDimension: types.Dimension{200, 300},
		Displacement:  types.Displacement{Recto: 60, Verso: 20, Vertical: 40},
		Title:         "Night Ferry",
		Author:        "R. Vance",
		DPI:           300,
		Filenames:     true,
		Memos:         true,
	}
}

func newTestRenderer(t *testing.T, s types.Settings, opts ...Option) *Renderer {
	t.Helper()
	face, err := LoadFace("", 12)
	require.NoError(t, err)
	opts = append([]Option{WithFace(face), WithStampMargin(20)}, opts...)
	r, err := New(s, opts...)
	require.NoError(t, err)
	return r
}

// gradient returns an RGBA image whose luminance ramps from black at the left
// edge to white at the right edge.
func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(x * 255 / (w - 1))
			img.Set(x, y, color.RGBA{R: v, G: v, B: v, A: 0xff})
		}
	}
	return img
}

func uniform(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func writeArchive(t *testing.T, path string, entries map[string]image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	zw := zip.NewWriter(f)
	mime, err := zw.Create("mimetype")
	require.NoError(t, err)
	_, err = mime.Write([]byte("application/x-krita"))
	require.NoError(t, err)
	for name, img := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		require.NoError(t, png.Encode(w, img))
	}
	require.NoError(t, zw.Close())
}

func allValue(img *image.Gray, v uint8) bool {
	for _, p := range img.Pix {
		if p != v {
			return false
		}
	}
	return true
}

func twoValued(img *image.Gray) bool {
	for _, p := range img.Pix {
		if p != 0 && p != 0xff {
			return false
		}
	}
	return true
}

func darkPixelsIn(img *image.Gray, r image.Rectangle) int {
	n := 0
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if img.GrayAt(x, y).Y < 0x80 {
				n++
			}
		}
	}
	return n
}

func TestBlank(t *testing.T) {
	r := newTestRenderer(t, testSettings())
	p := r.Blank()
	assert.Equal(t, image.Rect(0, 0, 200, 300), p.Image.Bounds())
	assert.True(t, allValue(p.Image, 0xff))
	assert.Empty(t, p.Stamps)
	assert.False(t, p.Placeholder)
}

func TestFrontMatter(t *testing.T) {
	s := testSettings()
	s.PageDimension = types.Dimension{1400, 900}
	clock := func() time.Time { return time.Date(2026, 3, 5, 14, 7, 0, 0, time.UTC) }
	r := newTestRenderer(t, s, WithClock(clock))

	p := r.FrontMatter()
	require.Len(t, p.Stamps, 2)
	assert.Equal(t, "Night Ferry by R. Vance", p.Stamps[0])
	assert.Equal(t, "This version compiled on 05 Mar 2026 at 02:07 PM", p.Stamps[1])
	assert.True(t, twoValued(p.Image), "front matter must be binarized")
	assert.Positive(t, darkPixelsIn(p.Image, image.Rect(700, 700, 1400, 760)))
	assert.Zero(t, darkPixelsIn(p.Image, image.Rect(0, 0, 1400, 690)))
}

func TestInvalid(t *testing.T) {
	r := newTestRenderer(t, testSettings())

	p := r.Invalid("foo")
	assert.True(t, p.Placeholder)
	require.Len(t, p.Stamps, 1)
	assert.Contains(t, p.Stamps[0], "foo")
	assert.Equal(t, "Invalid page type foo", p.Stamps[0])
	assert.Positive(t, darkPixelsIn(p.Image, image.Rect(0, 20, 200, 40)), "stamp should be visible in the top margin")
	assert.Zero(t, darkPixelsIn(p.Image, image.Rect(0, 60, 200, 300)), "rest of the page should stay blank")

	none := r.Invalid("")
	assert.Equal(t, "Invalid page type <none>", none.Stamps[0])
}

func TestCompositeMonoIsTwoValued(t *testing.T) {
	r := newTestRenderer(t, testSettings())
	page := r.Composite(gradient(400, 600), 0, types.ColorspaceMono)

	assert.Equal(t, image.Rect(0, 0, 200, 300), page.Bounds())
	assert.True(t, twoValued(page), "mono pages must be strictly black and white")
	// The dark left edge of the gradient lands at the recto offset.
	assert.Equal(t, uint8(0), page.GrayAt(61, 100).Y)
	assert.Equal(t, uint8(0xff), page.GrayAt(59, 100).Y)
	assert.Equal(t, uint8(0xff), page.GrayAt(61, 39).Y)
}

func TestCompositeParity(t *testing.T) {
	r := newTestRenderer(t, testSettings())
	black := uniform(10, 10, color.Black)

	tests := []struct {
		name  string
		index int
		x     int
	}{
		{name: "even uses recto", index: 0, x: 60},
		{name: "odd uses verso", index: 1, x: 20},
		{name: "even again", index: 4, x: 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := r.Composite(black, tt.index, types.ColorspaceMono)
			want := image.Rect(tt.x, 40, tt.x+100, 40+150)
			assert.Equal(t, want.Dx()*want.Dy(), darkPixelsIn(page, want))
			assert.Equal(t, want.Dx()*want.Dy(), darkPixelsIn(page, page.Bounds()), "nothing outside the sub-image")
		})
	}
}

func TestFitPreservesTonesOutsideMono(t *testing.T) {
	grey := uniform(40, 60, color.Gray{Y: 0x80})

	tone := Fit(grey, types.Dimension{100, 150}, "grey")
	assert.True(t, allValue(tone, 0x80), "nearest-neighbour keeps flat tones")

	mono := Fit(grey, types.Dimension{100, 150}, types.ColorspaceMono)
	assert.True(t, allValue(mono, 0), "0x80 is at or below the threshold")
}

func TestFitTransparentIsWhite(t *testing.T) {
	clear := image.NewNRGBA(image.Rect(0, 0, 20, 20))
	got := Fit(clear, types.Dimension{10, 10}, types.ColorspaceMono)
	assert.True(t, allValue(got, 0xff))
}

func TestBinarize(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 1))
	img.Pix = []uint8{0, 129, 130, 255}
	Binarize(img, Threshold)
	assert.Equal(t, []uint8{0, 0, 0xff, 0xff}, img.Pix)
}

func TestImageRoundTripLeavesNoArtifacts(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "p001.png")
	writePNG(t, src, uniform(50, 75, color.Black))

	r := newTestRenderer(t, testSettings())
	first := r.Blank()
	img, err := r.Image(ImageRequest{Index: 0, Source: src, Colorspace: types.ColorspaceMono})
	require.NoError(t, err)
	again := r.Blank()

	assert.True(t, allValue(first.Image, 0xff))
	assert.Positive(t, darkPixelsIn(img.Image, img.Image.Bounds()))
	assert.True(t, allValue(again.Image, 0xff), "a blank render must not keep the previous image")
	assert.NotSame(t, first.Image, again.Image)
}

func TestImageAnnotations(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "p002.png")
	writePNG(t, src, uniform(50, 75, color.White))

	r := newTestRenderer(t, testSettings())

	p, err := r.Image(ImageRequest{Index: 1, Source: src, Colorspace: "grey", Memo: "fix hands", Annotate: true})
	require.NoError(t, err)
	assert.Equal(t, []string{src, "fix hands"}, p.Stamps)
	assert.Positive(t, darkPixelsIn(p.Image, image.Rect(0, 20, 200, 40)), "memo in the top margin")

	quiet, err := r.Image(ImageRequest{Index: 1, Source: src, Colorspace: "grey", Memo: "fix hands"})
	require.NoError(t, err)
	assert.Empty(t, quiet.Stamps)
	assert.True(t, allValue(quiet.Image, 0xff))

	noMemo, err := r.Image(ImageRequest{Index: 1, Source: src, Colorspace: "grey", Annotate: true})
	require.NoError(t, err)
	assert.Equal(t, []string{src}, noMemo.Stamps)
}

func TestImageFromLayeredArchive(t *testing.T) {
	dir := t.TempDir()
	kra := filepath.Join(dir, "p003.kra")
	writeArchive(t, kra, map[string]image.Image{
		"mergedimage.png": uniform(50, 75, color.Black),
		"preview.png":     uniform(5, 5, color.White),
	})

	r := newTestRenderer(t, testSettings())
	p, err := r.Image(ImageRequest{Index: 0, Source: kra, Colorspace: types.ColorspaceMono})
	require.NoError(t, err)
	assert.False(t, p.Placeholder)
	assert.Equal(t, 100*150, darkPixelsIn(p.Image, p.Image.Bounds()))
}

func TestImageErrors(t *testing.T) {
	dir := t.TempDir()

	noMerged := filepath.Join(dir, "broken.ora")
	writeArchive(t, noMerged, map[string]image.Image{"thumbnail.png": uniform(2, 2, color.White)})

	notAnArchive := filepath.Join(dir, "junk.kra")
	require.NoError(t, os.WriteFile(notAnArchive, []byte("not a zip"), 0o644))

	text := filepath.Join(dir, "notes.png")
	require.NoError(t, os.WriteFile(text, []byte("plain text"), 0o644))

	r := newTestRenderer(t, testSettings())

	tests := []struct {
		name   string
		source string
		errIs  error
		errMsg string
	}{
		{name: "archive without merged image", source: noMerged, errMsg: "mergedimage.png"},
		{name: "corrupt archive", source: notAnArchive, errMsg: "opening archive"},
		{name: "unsupported raster", source: text, errIs: ErrUnsupportedFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := r.Image(ImageRequest{Source: tt.source})
			require.Error(t, err)
			assert.Nil(t, p)
			if tt.errIs != nil {
				assert.ErrorIs(t, err, tt.errIs)
			}
			if tt.errMsg != "" {
				assert.Contains(t, err.Error(), tt.errMsg)
			}
		})
	}
}

func TestImageMissingSourceIsPlaceholder(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone.png")
	r := newTestRenderer(t, testSettings())

	p, err := r.Image(ImageRequest{Source: missing, Annotate: true})
	require.NoError(t, err)
	assert.True(t, p.Placeholder)
	assert.Equal(t, []string{"Missing source " + missing}, p.Stamps)
}

func TestLoadFace(t *testing.T) {
	face, err := LoadFace("", 20)
	require.NoError(t, err)
	assert.Positive(t, textWidth(face, "pagemill"))

	_, err = LoadFace(filepath.Join(t.TempDir(), "missing.ttf"), 20)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading font")

	bogus := filepath.Join(t.TempDir(), "bogus.ttf")
	require.NoError(t, os.WriteFile(bogus, []byte("nope"), 0o644))
	_, err = LoadFace(bogus, 20)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing font")
}
