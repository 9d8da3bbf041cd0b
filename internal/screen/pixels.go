package screen

import "fmt"

// ChannelOrder is the byte order of one native pixel
type ChannelOrder int

const (
	OrderBGRA ChannelOrder = iota
	// OrderBGRX carries an undefined fourth byte; alpha is forced opaque
	OrderBGRX
	OrderRGBA
	// OrderBGR24 is packed three bytes per pixel
	OrderBGR24
)

func (o ChannelOrder) String() string {
	switch o {
	case OrderBGRA:
		return "BGRA"
	case OrderBGRX:
		return "BGRX"
	case OrderRGBA:
		return "RGBA"
	case OrderBGR24:
		return "BGR24"
	}
	return fmt.Sprintf("ChannelOrder(%d)", int(o))
}

// BytesPerPixel returns the native pixel size for the order
func (o ChannelOrder) BytesPerPixel() int {
	if o == OrderBGR24 {
		return 3
	}
	return 4
}

// PixelLayout describes a native pixel buffer
type PixelLayout struct {
	Order ChannelOrder
	// Stride is the row length in bytes including padding; 0 means tightly packed
	Stride int
	// BottomUp means the first row in memory is the bottom of the image
	BottomUp bool
}

// ToImage normalizes a native buffer of width x height pixels into tightly
// packed RGBA. A short buffer fails with ErrCopy; no partial image is returned.
func ToImage(src []byte, width, height int, layout PixelLayout) (*Image, error) {
	img, err := NewImage(width, height)
	if err != nil {
		return nil, err
	}

	bpp := layout.Order.BytesPerPixel()
	stride := layout.Stride
	if stride == 0 {
		stride = width * bpp
	}
	if stride < width*bpp {
		return nil, fmt.Errorf("stride %d shorter than row of %d bytes: %w", stride, width*bpp, ErrCopy)
	}
	if need := stride*(height-1) + width*bpp; len(src) < need {
		return nil, fmt.Errorf("buffer is %d bytes, need %d for %dx%d %s: %w",
			len(src), need, width, height, layout.Order, ErrCopy)
	}

	for y := 0; y < height; y++ {
		srcY := y
		if layout.BottomUp {
			srcY = height - 1 - y
		}
		row := src[srcY*stride : srcY*stride+width*bpp]
		dst := img.Pix[y*width*4 : (y+1)*width*4]
		convertRow(dst, row, layout.Order)
	}
	return img, img.Validate()
}

func convertRow(dst, src []byte, order ChannelOrder) {
	switch order {
	case OrderRGBA:
		copy(dst, src)
	case OrderBGRA:
		for i := 0; i < len(dst); i += 4 {
			dst[i], dst[i+1], dst[i+2], dst[i+3] = src[i+2], src[i+1], src[i], src[i+3]
		}
	case OrderBGRX:
		for i := 0; i < len(dst); i += 4 {
			dst[i], dst[i+1], dst[i+2], dst[i+3] = src[i+2], src[i+1], src[i], 0xff
		}
	case OrderBGR24:
		for i, j := 0, 0; i < len(dst); i, j = i+4, j+3 {
			dst[i], dst[i+1], dst[i+2], dst[i+3] = src[j+2], src[j+1], src[j], 0xff
		}
	}
}
