//go:build mage

package main

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/magefile/mage/sh"

	"github.com/pdiddy/pagemill/internal/project"
)

// sampleDir holds the project written by Init.
const sampleDir = "sample"

// Init scaffolds a sample project under sample/ with a generated source
// drawing, so a fresh checkout has something to build.
func Init() error {
	path, err := project.Scaffold(sampleDir, "Sample Book", "pagemill")
	switch {
	case errors.Is(err, project.ErrExists):
		fmt.Println("  ", filepath.Join(sampleDir, project.StarterFile), "(kept)")
	case err != nil:
		return err
	default:
		fmt.Println("  ", path)
	}

	drawing := filepath.Join(sampleDir, "inks", "page_001.png")
	if _, err := os.Stat(drawing); err == nil {
		return nil
	}
	if err := writeDrawing(drawing, 1000, 1500); err != nil {
		return err
	}
	fmt.Println("  ", drawing)
	fmt.Println("Sample project initialized.")
	return nil
}

// Assemble runs a build of the given project with the binary in bin/.
func Assemble(projectFile string) error {
	return sh.RunV(filepath.Join(binDir, binName), projectFile)
}

// writeDrawing writes a bordered diagonal line drawing as a PNG.
func writeDrawing(path string, w, h int) error {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.Gray{Y: 0xff}
			if x < 20 || y < 20 || x >= w-20 || y >= h-20 || abs(x*h-y*w) < 12*h {
				c = color.Gray{}
			}
			img.SetGray(x, y, c)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
