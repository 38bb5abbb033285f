// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render produces fixed-size monochrome page canvases: blank pages,
// front matter, composited source images, and placeholder pages.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io/fs"
	"os"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"

	"github.com/pdiddy/pagemill/pkg/types"
)

// Threshold is the luminance cut used to binarize pages: values above it
// become white, everything else black.
const Threshold = 129

// frontMatterOrigin is the top-left corner of the front matter text block.
var frontMatterOrigin = image.Pt(700, 700)

// compiledLayout formats the front matter build stamp.
const compiledLayout = "02 Jan 2006 at 03:04 PM"

// Margin selects where a stamp is drawn.
type Margin int

const (
	MarginBottom Margin = iota
	MarginTop
)

// Page is a rendered page canvas and the text stamped onto it.
type Page struct {
	Image  *image.Gray
	Stamps []string

	// Placeholder is set when the page stands in for content that could not
	// be rendered (invalid type, missing source).
	Placeholder bool
}

// Renderer draws pages for one project. It holds no per-page state.
type Renderer struct {
	settings types.Settings
	face     font.Face
	margin   int
	now      func() time.Time
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithFace sets the face used for stamps and front matter.
func WithFace(f font.Face) Option {
	return func(r *Renderer) { r.face = f }
}

// WithStampMargin sets the distance of stamps from the page edge.
func WithStampMargin(px int) Option {
	return func(r *Renderer) { r.margin = px }
}

// WithClock replaces the wall clock used for the front matter build stamp.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) { r.now = now }
}

// New returns a Renderer for the given project settings. Without WithFace it
// loads the embedded Go Mono face at the default size.
func New(settings types.Settings, opts ...Option) (*Renderer, error) {
	r := &Renderer{
		settings: settings,
		margin:   types.DefaultStampMargin,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.face == nil {
		face, err := LoadFace("", types.DefaultFontSize)
		if err != nil {
			return nil, err
		}
		r.face = face
	}
	return r, nil
}

// Blank returns a white page.
func (r *Renderer) Blank() *Page {
	return &Page{Image: r.canvas()}
}

// FrontMatter returns the title page: title, author, and build time, drawn
// from a fixed origin and binarized.
func (r *Renderer) FrontMatter() *Page {
	img := r.canvas()
	byline := fmt.Sprintf("%s by %s", r.settings.Title, r.settings.Author)
	compiled := "This version compiled on " + r.now().Format(compiledLayout)
	drawText(img, r.face, frontMatterOrigin.X, frontMatterOrigin.Y, byline, compiled)
	Binarize(img, Threshold)
	return &Page{Image: img, Stamps: []string{byline, compiled}}
}

// Invalid returns a placeholder for a page whose type is not recognised.
func (r *Renderer) Invalid(pageType string) *Page {
	if pageType == "" {
		pageType = "<none>"
	}
	p := r.Blank()
	p.Placeholder = true
	r.Stamp(p, "Invalid page type "+pageType, MarginTop)
	return p
}

// Missing returns a placeholder for an image page whose source could not be
// found at render time.
func (r *Renderer) Missing(source string) *Page {
	p := r.Blank()
	p.Placeholder = true
	r.Stamp(p, "Missing source "+source, MarginTop)
	return p
}

// ImageRequest describes one image page.
type ImageRequest struct {
	// Index is the 0-based page index; its parity picks the displacement.
	Index      int
	Source     string
	Colorspace string
	Memo       string

	// Annotate enables the filename and memo stamps allowed by the settings.
	Annotate bool
}

// Image loads the source, fits it to the sub-image size, and composites it
// onto a fresh page canvas. A source that does not exist yields the Missing
// placeholder; any other load failure is returned.
func (r *Renderer) Image(req ImageRequest) (*Page, error) {
	if _, err := os.Stat(req.Source); errors.Is(err, fs.ErrNotExist) {
		return r.Missing(req.Source), nil
	}
	src, err := LoadSource(req.Source)
	if err != nil {
		return nil, err
	}

	img := r.Composite(src, req.Index, req.Colorspace)
	p := &Page{Image: img}

	if req.Annotate {
		if r.settings.Filenames {
			r.Stamp(p, req.Source, MarginBottom)
		}
		if r.settings.Memos && req.Memo != "" {
			r.Stamp(p, req.Memo, MarginTop)
		}
	}
	return p, nil
}

// Composite places src, fitted to the sub-image size, on a white page at the
// displacement for the page's parity. Even indices use the recto offset, odd
// indices the verso offset. The result is always a new canvas.
func (r *Renderer) Composite(src image.Image, index int, colorspace string) *image.Gray {
	fitted := Fit(src, r.settings.SubDimension, colorspace)
	d := r.settings.Displacement
	x := d.Recto
	if index%2 != 0 {
		x = d.Verso
	}
	page := r.canvas()
	at := fitted.Bounds().Add(image.Pt(x, d.Vertical))
	draw.Draw(page, at, fitted, image.Point{}, draw.Src)
	return page
}

// Stamp draws text into the given margin, horizontally centred, and records
// it on the page.
func (r *Renderer) Stamp(p *Page, text string, m Margin) {
	b := p.Image.Bounds()
	x := b.Min.X + (b.Dx()-textWidth(r.face, text))/2
	if x < b.Min.X {
		x = b.Min.X
	}
	y := b.Min.Y + r.margin
	if m == MarginBottom {
		y = b.Max.Y - r.margin
	}
	drawText(p.Image, r.face, x, y, text)
	p.Stamps = append(p.Stamps, text)
}

func (r *Renderer) canvas() *image.Gray {
	dim := r.settings.PageDimension
	img := image.NewGray(image.Rect(0, 0, dim.Width(), dim.Height()))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}
