package screen

import (
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"
)

// Resample scales img to width x height with a Catmull-Rom kernel. The same
// size returns img unchanged.
func Resample(img *Image, width, height int) (*Image, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	if img.Width == width && img.Height == height {
		return img, nil
	}
	dst, err := NewImage(width, height)
	if err != nil {
		return nil, err
	}
	draw.CatmullRom.Scale(dst.RGBA(), dst.RGBA().Bounds(), img.RGBA(), img.RGBA().Bounds(), draw.Src, nil)
	return dst, nil
}

// ToLogical resamples a capture taken in physical pixels down to the logical
// size implied by scale. Scale 1 is a no-op.
func ToLogical(img *Image, scale float64) (*Image, error) {
	if !(scale > 0) || math.IsInf(scale, 0) {
		return nil, NewError("scale to logical", ErrGeometry, fmt.Errorf("scale factor %v", scale))
	}
	if scale == 1 {
		return img, nil
	}
	w := int(math.Round(float64(img.Width) / scale))
	h := int(math.Round(float64(img.Height) / scale))
	return Resample(img, max(w, 1), max(h, 1))
}

// FromImage converts any decoded image into a tightly packed RGBA Image,
// optionally cropping to crop (in the source's coordinate space). An empty
// crop means the whole source.
func FromImage(src image.Image, crop image.Rectangle) (*Image, error) {
	if crop.Empty() {
		crop = src.Bounds()
	}
	if !crop.In(src.Bounds()) {
		return nil, NewError("convert image", ErrUnsupportedTarget,
			fmt.Errorf("crop %v outside source %v", crop, src.Bounds()))
	}
	if rgba, ok := src.(*image.RGBA); ok {
		return FromRGBA(rgba.SubImage(crop).(*image.RGBA))
	}
	img, err := NewImage(crop.Dx(), crop.Dy())
	if err != nil {
		return nil, err
	}
	draw.Draw(img.RGBA(), img.RGBA().Bounds(), src, crop.Min, draw.Src)
	return img, nil
}
