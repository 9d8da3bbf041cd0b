//go:build windows

package gdi

import (
	"errors"
	"fmt"
	"image"
	"unsafe"

	"github.com/lxn/win"

	"github.com/bryanchriswhite/screengrab/internal/logger"
	"github.com/bryanchriswhite/screengrab/internal/screen"
)

// Capture copies the target's pixels. Windows are rendered with PrintWindow
// so covered windows come out whole; monitors and regions are blitted from
// the screen DC.
func (b *Backend) Capture(t screen.Target) (*screen.Image, error) {
	if wt, ok := t.(screen.WindowTarget); ok {
		return captureWindow(win.HWND(wt.Window.ID), wt.Window.Bounds())
	}
	r := t.Rect()
	return captureScreen(r.X, r.Y, r.Width, r.Height)
}

func releaseDC(hwnd win.HWND) func(win.HDC) error {
	return func(hdc win.HDC) error {
		if !win.ReleaseDC(hwnd, hdc) {
			return errors.New("ReleaseDC failed")
		}
		return nil
	}
}

func captureScreen(x, y, width, height int) (*screen.Image, error) {
	var scope screen.Scope
	defer scope.Close()

	src, err := screen.Acquire("screen dc", func() (win.HDC, error) {
		if hdc := win.GetDC(0); hdc != 0 {
			return hdc, nil
		}
		return 0, errors.New("GetDC failed")
	}, releaseDC(0))
	if err != nil {
		return nil, screen.NewError("capture screen", screen.ErrResourceAcquisition, err)
	}
	scope.Add(src)

	return copyBits(&scope, src.Handle(), width, height, func(mem win.HDC) error {
		if !win.BitBlt(mem, 0, 0, int32(width), int32(height), src.Handle(), int32(x), int32(y), win.SRCCOPY|captureBlt) {
			return errors.New("BitBlt failed")
		}
		return nil
	})
}

// captureWindow renders the whole window rect, which includes the invisible
// resize border, and crops it to frame, the DWM frame bounds
func captureWindow(hwnd win.HWND, frame screen.Rect) (*screen.Image, error) {
	var wr win.RECT
	if !win.GetWindowRect(hwnd, &wr) {
		return nil, screen.NewError("capture window", screen.ErrResourceAcquisition,
			fmt.Errorf("GetWindowRect failed for %#x", uintptr(hwnd)))
	}
	outer := screen.Rect{
		X:      int(wr.Left),
		Y:      int(wr.Top),
		Width:  int(wr.Right - wr.Left),
		Height: int(wr.Bottom - wr.Top),
	}
	crop, err := frameCrop(outer, frame)
	if err != nil {
		return nil, err
	}

	full, err := renderWindow(hwnd, outer.Width, outer.Height)
	if err != nil {
		return nil, err
	}
	if crop == image.Rect(0, 0, outer.Width, outer.Height) {
		return full, nil
	}
	return screen.FromImage(full.RGBA(), crop)
}

// frameCrop locates frame inside the window rect that GetWindowDC and
// PrintWindow draw from
func frameCrop(outer, frame screen.Rect) (image.Rectangle, error) {
	r := frame.Intersect(outer)
	if r.Empty() {
		return image.Rectangle{}, screen.NewError("capture window", screen.ErrGeometry,
			fmt.Errorf("frame %s outside window rect %s", frame, outer))
	}
	return image.Rect(r.X-outer.X, r.Y-outer.Y, r.Right()-outer.X, r.Bottom()-outer.Y), nil
}

func renderWindow(hwnd win.HWND, width, height int) (*screen.Image, error) {
	var scope screen.Scope
	defer scope.Close()

	src, err := screen.Acquire("window dc", func() (win.HDC, error) {
		if hdc, _, _ := procGetWindowDC.Call(uintptr(hwnd)); hdc != 0 {
			return win.HDC(hdc), nil
		}
		return 0, fmt.Errorf("GetWindowDC failed for %#x", uintptr(hwnd))
	}, releaseDC(hwnd))
	if err != nil {
		return nil, screen.NewError("capture window", screen.ErrResourceAcquisition, err)
	}
	scope.Add(src)

	return copyBits(&scope, src.Handle(), width, height, func(mem win.HDC) error {
		if procPrintWindow.Find() == nil {
			if r, _, _ := procPrintWindow.Call(uintptr(hwnd), uintptr(mem), pwRenderFullContent); r != 0 {
				return nil
			}
			logger.WithComponent("gdi-backend").Debug().
				Uint32("window", uint32(hwnd)).
				Msg("PrintWindow failed, copying window DC")
		}
		if !win.BitBlt(mem, 0, 0, int32(width), int32(height), src.Handle(), 0, 0, win.SRCCOPY) {
			return errors.New("BitBlt failed")
		}
		return nil
	})
}

// copyBits renders into a bitmap compatible with src using draw, then reads
// the bitmap back as 32-bit bottom-up DIB rows. Every GDI object it creates
// is added to scope.
func copyBits(scope *screen.Scope, src win.HDC, width, height int, draw func(mem win.HDC) error) (*screen.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, screen.NewError("capture", screen.ErrZeroSize, fmt.Errorf("%dx%d", width, height))
	}

	mem, err := screen.Acquire("memory dc", func() (win.HDC, error) {
		if hdc := win.CreateCompatibleDC(src); hdc != 0 {
			return hdc, nil
		}
		return 0, errors.New("CreateCompatibleDC failed")
	}, func(hdc win.HDC) error {
		win.DeleteDC(hdc)
		return nil
	})
	if err != nil {
		return nil, screen.NewError("capture", screen.ErrResourceAcquisition, err)
	}
	scope.Add(mem)

	bmp, err := screen.Acquire("bitmap", func() (win.HBITMAP, error) {
		if h := win.CreateCompatibleBitmap(src, int32(width), int32(height)); h != 0 {
			return h, nil
		}
		return 0, errors.New("CreateCompatibleBitmap failed")
	}, func(h win.HBITMAP) error {
		win.DeleteObject(win.HGDIOBJ(h))
		return nil
	})
	if err != nil {
		return nil, screen.NewError("capture", screen.ErrResourceAcquisition, err)
	}
	scope.Add(bmp)

	// the previous object goes back into mem before either is freed
	selected, err := screen.Acquire("bitmap selection", func() (win.HGDIOBJ, error) {
		if old := win.SelectObject(mem.Handle(), win.HGDIOBJ(bmp.Handle())); old != 0 {
			return old, nil
		}
		return 0, errors.New("SelectObject failed")
	}, func(old win.HGDIOBJ) error {
		win.SelectObject(mem.Handle(), old)
		return nil
	})
	if err != nil {
		return nil, screen.NewError("capture", screen.ErrResourceAcquisition, err)
	}
	scope.Add(selected)

	if err := draw(mem.Handle()); err != nil {
		return nil, screen.NewError("capture", screen.ErrCopy, err)
	}

	// GetDIBits needs the bitmap deselected
	selected.Release()

	bi := win.BITMAPINFO{BmiHeader: bitmapHeader(width, height)}
	buf := make([]byte, width*height*4)
	lines := win.GetDIBits(mem.Handle(), bmp.Handle(), 0, uint32(height), &buf[0], &bi, win.DIB_RGB_COLORS)
	if int(lines) != height {
		return nil, screen.NewError("capture", screen.ErrCopy,
			fmt.Errorf("GetDIBits copied %d of %d rows", lines, height))
	}

	return screen.ToImage(buf, width, height, screen.PixelLayout{
		Order:    screen.OrderBGRX,
		BottomUp: true,
	})
}

// bitmapHeader describes an uncompressed 32bpp bottom-up DIB
func bitmapHeader(width, height int) win.BITMAPINFOHEADER {
	var h win.BITMAPINFOHEADER
	h.BiSize = uint32(unsafe.Sizeof(h))
	h.BiWidth = int32(width)
	h.BiHeight = int32(height)
	h.BiPlanes = 1
	h.BiBitCount = 32
	h.BiCompression = win.BI_RGB
	return h
}
