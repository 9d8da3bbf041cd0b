package screen

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func solid(w, h int, c color.RGBA) *Image {
	img, _ := NewImage(w, h)
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestResample(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	src := solid(40, 20, red)

	got, err := Resample(src, 20, 10)
	if err != nil {
		t.Fatal(err)
	}
	if got.Width != 20 || got.Height != 10 || got.Validate() != nil {
		t.Fatalf("got %dx%d len=%d", got.Width, got.Height, len(got.Pix))
	}
	if c := got.RGBA().RGBAAt(10, 5); c.R < 250 || c.G > 5 || c.B > 5 {
		t.Fatalf("center pixel = %v, want close to %v", c, red)
	}

	same, err := Resample(src, 40, 20)
	if err != nil || same != src {
		t.Fatalf("same size should return the input, got %p %v", same, err)
	}
	if _, err := Resample(src, 0, 10); !errors.Is(err, ErrZeroSize) {
		t.Fatalf("zero target: got %v", err)
	}
}

func TestToLogical(t *testing.T) {
	src := solid(3840, 2160, color.RGBA{G: 255, A: 255})
	got, err := ToLogical(src, 2)
	if err != nil {
		t.Fatal(err)
	}
	if got.Width != 1920 || got.Height != 1080 {
		t.Fatalf("got %dx%d", got.Width, got.Height)
	}
	if _, err := ToLogical(src, 0); !errors.Is(err, ErrGeometry) {
		t.Fatalf("zero scale: got %v", err)
	}
}

func TestFromImage(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	src.SetNRGBA(2, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	got, err := FromImage(src, image.Rect(2, 1, 4, 3))
	if err != nil {
		t.Fatal(err)
	}
	if got.Width != 2 || got.Height != 2 {
		t.Fatalf("got %dx%d", got.Width, got.Height)
	}
	if c := got.RGBA().RGBAAt(0, 0); c != (color.RGBA{R: 10, G: 20, B: 30, A: 255}) {
		t.Fatalf("origin pixel = %v", c)
	}

	if _, err := FromImage(src, image.Rect(3, 3, 6, 6)); !errors.Is(err, ErrUnsupportedTarget) {
		t.Fatalf("crop outside: got %v", err)
	}

	rgba := image.NewRGBA(image.Rect(0, 0, 2, 2))
	whole, err := FromImage(rgba, image.Rectangle{})
	if err != nil || whole.Width != 2 || whole.Height != 2 {
		t.Fatalf("whole = %+v, %v", whole, err)
	}
}
