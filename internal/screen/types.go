package screen

import (
	"fmt"
	"image"
	"math"
)

// Rotation is a monitor's clockwise rotation in degrees
type Rotation int

const (
	Rotate0   Rotation = 0
	Rotate90  Rotation = 90
	Rotate180 Rotation = 180
	Rotate270 Rotation = 270
)

// Valid reports whether r is one of the four supported rotations
func (r Rotation) Valid() bool {
	switch r {
	case Rotate0, Rotate90, Rotate180, Rotate270:
		return true
	}
	return false
}

// RotationFromQuarterTurns maps an orientation enum counting clockwise
// quarter turns (0..3) to degrees
func RotationFromQuarterTurns(n int) (Rotation, error) {
	if n < 0 || n > 3 {
		return 0, fmt.Errorf("orientation %d out of range: %w", n, ErrFieldDecode)
	}
	return Rotation(n * 90), nil
}

// Rect is a rectangle in virtual-desktop coordinates
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Empty reports whether the rectangle covers no pixels
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Right returns the exclusive right edge
func (r Rect) Right() int { return r.X + r.Width }

// Bottom returns the exclusive bottom edge
func (r Rect) Bottom() int { return r.Y + r.Height }

// Contains reports whether the point lies inside r (right/bottom edges excluded)
func (r Rect) Contains(x, y float64) bool {
	return x >= float64(r.X) && x < float64(r.Right()) &&
		y >= float64(r.Y) && y < float64(r.Bottom())
}

// ContainsRect reports whether o lies entirely inside r
func (r Rect) ContainsRect(o Rect) bool {
	return o.X >= r.X && o.Y >= r.Y && o.Right() <= r.Right() && o.Bottom() <= r.Bottom()
}

// Intersects reports whether r and o share at least one pixel
func (r Rect) Intersects(o Rect) bool {
	return !r.Intersect(o).Empty()
}

// Intersect returns the overlapping area of r and o
func (r Rect) Intersect(o Rect) Rect {
	x0, y0 := max(r.X, o.X), max(r.Y, o.Y)
	x1, y1 := min(r.Right(), o.Right()), min(r.Bottom(), o.Bottom())
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Subtract returns the parts of r not covered by o, as at most four
// disjoint rectangles
func (r Rect) Subtract(o Rect) []Rect {
	i := r.Intersect(o)
	if i.Empty() {
		if r.Empty() {
			return nil
		}
		return []Rect{r}
	}
	var out []Rect
	for _, p := range []Rect{
		{X: r.X, Y: r.Y, Width: r.Width, Height: i.Y - r.Y},
		{X: r.X, Y: i.Bottom(), Width: r.Width, Height: r.Bottom() - i.Bottom()},
		{X: r.X, Y: i.Y, Width: i.X - r.X, Height: i.Height},
		{X: i.Right(), Y: i.Y, Width: r.Right() - i.Right(), Height: i.Height},
	} {
		if !p.Empty() {
			out = append(out, p)
		}
	}
	return out
}

// Union returns the smallest rectangle containing both r and o.
// An empty rectangle is ignored.
func (r Rect) Union(o Rect) Rect {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	x0, y0 := min(r.X, o.X), min(r.Y, o.Y)
	x1, y1 := max(r.Right(), o.Right()), max(r.Bottom(), o.Bottom())
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Center returns the geometric center of r
func (r Rect) Center() (float64, float64) {
	return float64(r.X) + float64(r.Width)/2, float64(r.Y) + float64(r.Height)/2
}

// Scale multiplies every edge by f, rounding outward so no source pixel is lost
func (r Rect) Scale(f float64) Rect {
	if f == 1 {
		return r
	}
	x0 := int(math.Floor(float64(r.X) * f))
	y0 := int(math.Floor(float64(r.Y) * f))
	x1 := int(math.Ceil(float64(r.Right()) * f))
	y1 := int(math.Ceil(float64(r.Bottom()) * f))
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Image returns r as an image.Rectangle
func (r Rect) Image() image.Rectangle {
	return image.Rect(r.X, r.Y, r.Right(), r.Bottom())
}

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// Monitor is a normalized display record
type Monitor struct {
	ID          uint32   `json:"id"`
	Name        string   `json:"name"`
	X           int      `json:"x"`
	Y           int      `json:"y"`
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	Rotation    Rotation `json:"rotation"`
	ScaleFactor float64  `json:"scale_factor"`
	Frequency   float64  `json:"frequency"`
	IsPrimary   bool     `json:"is_primary"`
}

// Bounds returns the monitor rectangle in virtual-desktop coordinates
func (m Monitor) Bounds() Rect {
	return Rect{X: m.X, Y: m.Y, Width: m.Width, Height: m.Height}
}

// Window is a normalized top-level window snapshot
type Window struct {
	ID          uint32  `json:"id"`
	Title       string  `json:"title"`
	AppName     string  `json:"app_name"`
	PID         int     `json:"pid"`
	X           int     `json:"x"`
	Y           int     `json:"y"`
	Z           int     `json:"z"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Monitor     Monitor `json:"monitor"`
	IsMinimized bool    `json:"is_minimized"`
	IsMaximized bool    `json:"is_maximized"`
}

// Bounds returns the window rectangle in virtual-desktop coordinates
func (w Window) Bounds() Rect {
	return Rect{X: w.X, Y: w.Y, Width: w.Width, Height: w.Height}
}

// Image is a tightly packed 8-bit RGBA bitmap
type Image struct {
	Width  int
	Height int
	Pix    []byte
}

// NewImage allocates a zeroed image of the given size
func NewImage(width, height int) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("image %dx%d: %w", width, height, ErrZeroSize)
	}
	return &Image{Width: width, Height: height, Pix: make([]byte, width*height*4)}, nil
}

// Validate checks the buffer length invariant
func (img *Image) Validate() error {
	if img == nil || img.Width <= 0 || img.Height <= 0 {
		return ErrZeroSize
	}
	if want := img.Width * img.Height * 4; len(img.Pix) != want {
		return fmt.Errorf("image buffer is %d bytes, want %d: %w", len(img.Pix), want, ErrCopy)
	}
	return nil
}

// RGBA wraps the buffer as an *image.RGBA without copying
func (img *Image) RGBA() *image.RGBA {
	return &image.RGBA{
		Pix:    img.Pix,
		Stride: img.Width * 4,
		Rect:   image.Rect(0, 0, img.Width, img.Height),
	}
}

// FromRGBA copies any *image.RGBA into a tightly packed Image
func FromRGBA(src *image.RGBA) (*Image, error) {
	b := src.Bounds()
	img, err := NewImage(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}
	row := b.Dx() * 4
	for y := 0; y < b.Dy(); y++ {
		off := src.PixOffset(b.Min.X, b.Min.Y+y)
		copy(img.Pix[y*row:(y+1)*row], src.Pix[off:off+row])
	}
	return img, nil
}

// Target is what a capture call is aimed at: a monitor, a window, or a region
type Target interface {
	// Rect is the target area in virtual-desktop coordinates
	Rect() Rect
	String() string
}

// MonitorTarget captures a whole monitor
type MonitorTarget struct{ Monitor Monitor }

// WindowTarget captures a single window
type WindowTarget struct{ Window Window }

// RegionTarget captures an explicit virtual-desktop rectangle
type RegionTarget struct{ Region Rect }

func (t MonitorTarget) Rect() Rect { return t.Monitor.Bounds() }
func (t WindowTarget) Rect() Rect  { return t.Window.Bounds() }
func (t RegionTarget) Rect() Rect  { return t.Region }

func (t MonitorTarget) String() string {
	return fmt.Sprintf("monitor %d (%s)", t.Monitor.ID, t.Monitor.Name)
}

func (t WindowTarget) String() string {
	return fmt.Sprintf("window %d (%s)", t.Window.ID, t.Window.Title)
}

func (t RegionTarget) String() string {
	return fmt.Sprintf("region %s", t.Region)
}
