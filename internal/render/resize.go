// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/pdiddy/pagemill/pkg/types"
)

// Fit scales src to dim and converts it to grayscale. The mono colorspace
// resamples with Catmull-Rom and then binarizes at Threshold, which keeps
// line art crisp. Every other colorspace uses nearest-neighbour sampling so
// screen tones and flat greys are not smeared.
//
// Transparent areas of src are treated as white paper.
func Fit(src image.Image, dim types.Dimension, colorspace string) *image.Gray {
	flat := flatten(src)
	dst := image.NewGray(image.Rect(0, 0, dim.Width(), dim.Height()))
	if colorspace == types.ColorspaceMono {
		draw.CatmullRom.Scale(dst, dst.Bounds(), flat, flat.Bounds(), draw.Src, nil)
		Binarize(dst, Threshold)
		return dst
	}
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), flat, flat.Bounds(), draw.Src, nil)
	return dst
}

// Binarize maps every pixel above t to white and every other pixel to black.
func Binarize(img *image.Gray, t uint8) {
	for i, p := range img.Pix {
		if p > t {
			img.Pix[i] = 0xff
		} else {
			img.Pix[i] = 0
		}
	}
}

// flatten composites src over white into a grayscale image.
func flatten(src image.Image) *image.Gray {
	if g, ok := src.(*image.Gray); ok {
		return g
	}
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	return dst
}
