package screen

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestToImage(t *testing.T) {
	tests := []struct {
		name   string
		src    []byte
		w, h   int
		layout PixelLayout
		want   []byte
	}{
		{
			name:   "bgra swaps red and blue",
			src:    []byte{1, 2, 3, 4, 5, 6, 7, 8},
			w:      2,
			h:      1,
			layout: PixelLayout{Order: OrderBGRA},
			want:   []byte{3, 2, 1, 4, 7, 6, 5, 8},
		},
		{
			name:   "bgrx forces opaque alpha",
			src:    []byte{1, 2, 3, 0},
			w:      1,
			h:      1,
			layout: PixelLayout{Order: OrderBGRX},
			want:   []byte{3, 2, 1, 255},
		},
		{
			name:   "rgba copied through",
			src:    []byte{9, 8, 7, 6},
			w:      1,
			h:      1,
			layout: PixelLayout{Order: OrderRGBA},
			want:   []byte{9, 8, 7, 6},
		},
		{
			name:   "bgr24 with row padding",
			src:    []byte{1, 2, 3, 0, 4, 5, 6, 0},
			w:      1,
			h:      2,
			layout: PixelLayout{Order: OrderBGR24, Stride: 4},
			want:   []byte{3, 2, 1, 255, 6, 5, 4, 255},
		},
		{
			name:   "bottom-up rows flipped",
			src:    []byte{1, 1, 1, 1, 2, 2, 2, 2},
			w:      1,
			h:      2,
			layout: PixelLayout{Order: OrderRGBA, BottomUp: true},
			want:   []byte{2, 2, 2, 2, 1, 1, 1, 1},
		},
		{
			name:   "padded last row may be truncated",
			src:    []byte{1, 2, 3, 4, 0, 0, 0, 0, 5, 6, 7, 8},
			w:      1,
			h:      2,
			layout: PixelLayout{Order: OrderRGBA, Stride: 8},
			want:   []byte{1, 2, 3, 4, 5, 6, 7, 8},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := ToImage(tt.src, tt.w, tt.h, tt.layout)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, img.Pix); diff != "" {
				t.Fatalf("pixels (-want +got):\n%s", diff)
			}
			if len(img.Pix) != img.Width*img.Height*4 {
				t.Fatalf("buffer length %d for %dx%d", len(img.Pix), img.Width, img.Height)
			}
		})
	}
}

func TestToImageErrors(t *testing.T) {
	if _, err := ToImage(make([]byte, 7), 2, 1, PixelLayout{Order: OrderBGRA}); !errors.Is(err, ErrCopy) {
		t.Fatalf("short buffer: got %v", err)
	}
	if _, err := ToImage(make([]byte, 16), 2, 2, PixelLayout{Order: OrderBGRA, Stride: 4}); !errors.Is(err, ErrCopy) {
		t.Fatalf("short stride: got %v", err)
	}
	if _, err := ToImage(nil, 0, 10, PixelLayout{}); !errors.Is(err, ErrZeroSize) {
		t.Fatalf("zero width: got %v", err)
	}
}
