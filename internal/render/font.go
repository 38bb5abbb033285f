// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"fmt"
	"image"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// LoadFace returns a face for stamps and front matter. An empty path selects
// the embedded Go Mono font. Sizes are in pixels.
func LoadFace(path string, size float64) (font.Face, error) {
	data := gomono.TTF
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading font: %w", err)
		}
		data = b
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing font %s: %w", fontName(path), err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("creating face %s: %w", fontName(path), err)
	}
	return face, nil
}

func fontName(path string) string {
	if path == "" {
		return "gomono"
	}
	return path
}

// drawText draws lines of black text whose first line's top-left corner is at
// (x, y). Subsequent lines advance by the face's line height.
func drawText(dst *image.Gray, face font.Face, x, y int, lines ...string) {
	m := face.Metrics()
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.Black,
		Face: face,
	}
	baseline := fixed.I(y) + m.Ascent
	for _, line := range lines {
		d.Dot = fixed.Point26_6{X: fixed.I(x), Y: baseline}
		d.DrawString(line)
		baseline += m.Height
	}
}

// textWidth returns the advance width of s in whole pixels.
func textWidth(face font.Face, s string) int {
	return font.MeasureString(face, s).Ceil()
}
