// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the data model shared by the pagemill packages: the
// project document and the tool configuration.
package types

// PageType selects how a page is rendered.
type PageType string

const (
	PageImage       PageType = "image"
	PageBlank       PageType = "blank"
	PageFrontMatter PageType = "frontmatter"
)

// Valid reports whether t is one of the known page types.
func (t PageType) Valid() bool {
	switch t {
	case PageImage, PageBlank, PageFrontMatter:
		return true
	}
	return false
}

// ColorspaceMono selects the line-art path: high-quality resampling followed
// by a hard black/white threshold. Any other colorspace keeps graded tones.
const ColorspaceMono = "mono"

// Field names a page descriptor field that can fall back to the defaults
// section.
type Field string

const (
	FieldType       Field = "type"
	FieldDir        Field = "dir"
	FieldFile       Field = "file"
	FieldColorspace Field = "colorspace"
	FieldMemo       Field = "memo"
)

// Dimension is a width/height pair in pixels. In YAML it is written as a
// two-element sequence: [2480, 3508].
type Dimension [2]int

// Width returns the horizontal extent.
func (d Dimension) Width() int { return d[0] }

// Height returns the vertical extent.
func (d Dimension) Height() int { return d[1] }

// Displacement holds the offsets used to place a sub-image on the page.
// Recto applies to even page indices, Verso to odd ones.
type Displacement struct {
	Recto    int `json:"recto" yaml:"recto"`
	Verso    int `json:"verso" yaml:"verso"`
	Vertical int `json:"vertical" yaml:"vertical"`
}

// Settings is the `project` section of a project document.
type Settings struct {
	// Staging is the directory holding one rendered raster per page.
	Staging string `json:"staging" yaml:"staging"`

	// Prefix is prepended to staged page filenames (default "page").
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`

	SubDimension  Dimension    `json:"sub_dimension" yaml:"sub_dimension"`
	PageDimension Dimension    `json:"page_dimension" yaml:"page_dimension"`
	Displacement  Displacement `json:"displacement" yaml:"displacement"`

	Title  string `json:"title" yaml:"title"`
	Author string `json:"author" yaml:"author"`
	DPI    int    `json:"dpi" yaml:"dpi"`

	// Output is the path of the combined PDF.
	Output string `json:"output" yaml:"output"`

	// Filenames stamps each image page with its source path.
	Filenames bool `json:"filenames" yaml:"filenames"`

	// Memos stamps each image page with its memo text, when it has one.
	Memos bool `json:"memos" yaml:"memos"`
}

// PageDescriptor is one entry of the `pages` list (and the shape of the
// `defaults` section). Every field is optional.
type PageDescriptor struct {
	Type       string `json:"type,omitempty" yaml:"type,omitempty"`
	Dir        string `json:"dir,omitempty" yaml:"dir,omitempty"`
	File       string `json:"file,omitempty" yaml:"file,omitempty"`
	Colorspace string `json:"colorspace,omitempty" yaml:"colorspace,omitempty"`
	Memo       string `json:"memo,omitempty" yaml:"memo,omitempty"`
}

// Get returns the raw value of field f.
func (p PageDescriptor) Get(f Field) string {
	switch f {
	case FieldType:
		return p.Type
	case FieldDir:
		return p.Dir
	case FieldFile:
		return p.File
	case FieldColorspace:
		return p.Colorspace
	case FieldMemo:
		return p.Memo
	}
	return ""
}

// Project is a loaded project document. It is built once at startup and
// treated as read-only for the rest of the run.
type Project struct {
	Settings    Settings          `json:"project" yaml:"project"`
	Defaults    PageDescriptor    `json:"defaults" yaml:"defaults"`
	Directories map[string]string `json:"directories" yaml:"directories"`
	Pages       []PageDescriptor  `json:"pages" yaml:"pages"`

	// Path is the file the project was loaded from. Not part of the document.
	Path string `json:"-" yaml:"-"`
}
