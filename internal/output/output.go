package output

import (
	"fmt"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/bryanchriswhite/screengrab/internal/screen"
)

// Output defines the interface for frame sinks.
// This allows the CLI to swap between:
// - files in a directory
// - a single writer such as stdout
type Output interface {
	// WriteFrame stores one captured frame. name identifies the capture
	// target; the returned string says where the frame went.
	WriteFrame(name string, frame *screen.Image) (string, error)

	// Name returns a human-readable name for this output type
	Name() string
}

// Format is an image encoding
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
)

// ParseFormat accepts png, jpeg and jpg in any case
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "png", "":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	}
	return "", fmt.Errorf("unsupported format: %s (use 'png' or 'jpeg')", s)
}

// FormatForPath picks the format from a file extension, or fallback when the
// extension is not an image type
func FormatForPath(path string, fallback Format) Format {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return fallback
	}
	if f, err := ParseFormat(ext); err == nil {
		return f
	}
	return fallback
}

// Ext returns the file extension including the dot
func (f Format) Ext() string {
	if f == FormatJPEG {
		return ".jpg"
	}
	return ".png"
}

// ContentType returns the MIME type
func (f Format) ContentType() string {
	if f == FormatJPEG {
		return "image/jpeg"
	}
	return "image/png"
}

// Config holds common configuration for all output types
type Config struct {
	Format      Format
	JPEGQuality int
}

// Encode writes frame to w in the configured format
func (c Config) Encode(w io.Writer, frame *screen.Image) error {
	if err := frame.Validate(); err != nil {
		return err
	}
	switch c.Format {
	case FormatJPEG:
		quality := c.JPEGQuality
		if quality <= 0 {
			quality = jpeg.DefaultQuality
		}
		return jpeg.Encode(w, frame.RGBA(), &jpeg.Options{Quality: quality})
	default:
		return png.Encode(w, frame.RGBA())
	}
}
