package types

// Default values for ToolConfig fields.
const (
	DefaultFontSize    = 76
	DefaultStampMargin = 135
)

// ToolConfig holds settings for the pagemill binary itself, as opposed to a
// single project. It is read from pagemill.yaml and PAGEMILL_* variables.
type ToolConfig struct {
	// Font is the path of a TrueType/OpenType font used for stamps and front
	// matter. Empty selects the embedded Go Mono face.
	Font string `json:"font" yaml:"font" mapstructure:"font"`

	// FontSize is the face size in pixels (default 76).
	FontSize float64 `json:"font_size" yaml:"font_size" mapstructure:"font_size"`

	// StampMargin is the distance in pixels from the top or bottom page edge
	// at which annotations are drawn (default 135).
	StampMargin int `json:"stamp_margin" yaml:"stamp_margin" mapstructure:"stamp_margin"`

	// Journal enables the SQLite render journal in the staging directory.
	Journal bool `json:"journal" yaml:"journal" mapstructure:"journal"`

	// LogFormat is "text" or "json".
	LogFormat string `json:"log_format" yaml:"log_format" mapstructure:"log_format"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
}

// RunOptions are the per-invocation switches of a build.
type RunOptions struct {
	// Force regenerates every page regardless of timestamps.
	Force bool

	// PDFOnly rebuilds the combined document without rendering pages.
	PDFOnly bool

	// SuppressAnnotations disables filename and memo stamps.
	SuppressAnnotations bool
}
