package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/composite"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/bryanchriswhite/screengrab/internal/logger"
	"github.com/bryanchriswhite/screengrab/internal/screen"
)

const imageByteOrderLSBFirst = 0

// Capture copies a monitor, region, or window
func (b *Backend) Capture(t screen.Target) (*screen.Image, error) {
	switch t := t.(type) {
	case screen.WindowTarget:
		return b.captureWindow(xproto.Window(t.Window.ID))
	default:
		return b.CaptureRegion(t.Rect())
	}
}

// CaptureRegion captures a region of the root window
func (b *Backend) CaptureRegion(r screen.Rect) (*screen.Image, error) {
	w, h := b.RootSize()
	if !(screen.Rect{Width: w, Height: h}).ContainsRect(r) {
		return nil, screen.NewError("capture region", screen.ErrUnsupportedTarget,
			fmt.Errorf("%s outside root window %dx%d", r, w, h))
	}
	return b.getImage(xproto.Drawable(b.root), r)
}

func (b *Backend) captureWindow(win xproto.Window) (*screen.Image, error) {
	log := logger.WithComponent("x11-capturer")

	// Check window attributes first
	attrs, err := xproto.GetWindowAttributes(b.c(), win).Reply()
	if err != nil {
		return nil, screen.NewError("capture window", screen.ErrResourceAcquisition,
			fmt.Errorf("failed to get window attributes: %w", err))
	}

	// If window is not suitable for capture, try to find a suitable child window
	if attrs.Class != xproto.WindowClassInputOutput || attrs.MapState != xproto.MapStateViewable {
		log.Debug().
			Uint32("window_id", uint32(win)).
			Msg("Window not directly capturable, searching for child windows")

		child, err := b.findCapturableChild(win)
		if err != nil {
			return nil, screen.NewError("capture window", screen.ErrResourceAcquisition,
				fmt.Errorf("no capturable window found: %w", err))
		}
		win = child
	}

	geom, err := xproto.GetGeometry(b.c(), xproto.Drawable(win)).Reply()
	if err != nil {
		return nil, screen.NewError("capture window", screen.ErrGeometry,
			fmt.Errorf("failed to get window geometry: %w", err))
	}
	area := screen.Rect{Width: int(geom.Width), Height: int(geom.Height)}

	var scope screen.Scope
	defer scope.Close()

	drawable := xproto.Drawable(win)
	if b.compositeEnabled {
		if pixmap, err := b.namePixmap(win, &scope); err != nil {
			log.Warn().
				Err(err).
				Uint32("window_id", uint32(win)).
				Msg("Failed to redirect window via Composite, falling back to direct capture")
		} else {
			drawable = xproto.Drawable(pixmap)
			log.Debug().
				Uint32("window_id", uint32(win)).
				Msg("Using Composite pixmap for window capture")
		}
	}

	return b.getImage(drawable, area)
}

// namePixmap redirects win off-screen and names its backing pixmap. Both
// resources are registered on scope.
func (b *Backend) namePixmap(win xproto.Window, scope *screen.Scope) (xproto.Pixmap, error) {
	redirected, err := screen.Acquire("composite redirect",
		func() (xproto.Window, error) {
			return win, composite.RedirectWindowChecked(b.c(), win, composite.RedirectAutomatic).Check()
		},
		func(w xproto.Window) error {
			return composite.UnredirectWindowChecked(b.c(), w, composite.RedirectAutomatic).Check()
		})
	if err != nil {
		return 0, err
	}
	scope.Add(redirected)

	pixmap, err := screen.Acquire("window pixmap",
		func() (xproto.Pixmap, error) {
			id, err := xproto.NewPixmapId(b.c())
			if err != nil {
				return 0, err
			}
			return id, composite.NameWindowPixmapChecked(b.c(), win, id).Check()
		},
		func(p xproto.Pixmap) error {
			return xproto.FreePixmapChecked(b.c(), p).Check()
		})
	if err != nil {
		return 0, err
	}
	scope.Add(pixmap)

	return pixmap.Handle(), nil
}

// findCapturableChild recursively searches for a capturable child window
func (b *Backend) findCapturableChild(parent xproto.Window) (xproto.Window, error) {
	tree, err := xproto.QueryTree(b.c(), parent).Reply()
	if err != nil {
		return 0, fmt.Errorf("failed to query tree: %w", err)
	}

	for _, child := range tree.Children {
		attrs, err := xproto.GetWindowAttributes(b.c(), child).Reply()
		if err != nil {
			continue
		}
		geom, err := xproto.GetGeometry(b.c(), xproto.Drawable(child)).Reply()
		if err != nil {
			continue
		}

		if attrs.Class == xproto.WindowClassInputOutput && attrs.MapState == xproto.MapStateViewable {
			if geom.Width > 10 && geom.Height > 10 {
				return child, nil
			}
		}

		if grandchild, err := b.findCapturableChild(child); err == nil {
			return grandchild, nil
		}
	}

	return 0, fmt.Errorf("no capturable child found")
}

// getImage reads a ZPixmap image of r from a drawable
func (b *Backend) getImage(d xproto.Drawable, r screen.Rect) (*screen.Image, error) {
	if r.Empty() {
		return nil, screen.NewError("get image", screen.ErrZeroSize, fmt.Errorf("%s", r))
	}

	reply, err := xproto.GetImage(
		b.c(),
		xproto.ImageFormatZPixmap,
		d,
		int16(r.X), int16(r.Y),
		uint16(r.Width), uint16(r.Height),
		0xffffffff,
	).Reply()
	if err != nil {
		return nil, screen.NewError("get image", screen.ErrCopy, fmt.Errorf("failed to get image: %w", err))
	}

	layout, err := pixelLayout(b.setup, reply.Depth, r.Width)
	if err != nil {
		return nil, screen.NewError("get image", screen.ErrCopy, err)
	}
	img, err := screen.ToImage(reply.Data, r.Width, r.Height, layout)
	if err != nil {
		return nil, screen.NewError("get image", screen.ErrCopy, err)
	}
	return img, nil
}

// pixelLayout derives the ZPixmap layout for a depth from the server's
// pixmap formats
func pixelLayout(setup *xproto.SetupInfo, depth byte, width int) (screen.PixelLayout, error) {
	if setup.ImageByteOrder != imageByteOrderLSBFirst {
		return screen.PixelLayout{}, fmt.Errorf("unsupported image byte order %d", setup.ImageByteOrder)
	}

	for _, f := range setup.PixmapFormats {
		if f.Depth != depth {
			continue
		}

		var order screen.ChannelOrder
		switch {
		case f.BitsPerPixel == 32 && depth == 32:
			order = screen.OrderBGRA
		case f.BitsPerPixel == 32:
			order = screen.OrderBGRX
		case f.BitsPerPixel == 24:
			order = screen.OrderBGR24
		default:
			return screen.PixelLayout{}, fmt.Errorf("unsupported pixmap format: depth %d, %d bpp", depth, f.BitsPerPixel)
		}

		pad := int(f.ScanlinePad) / 8
		if pad == 0 {
			pad = 1
		}
		row := width * int(f.BitsPerPixel) / 8
		stride := (row + pad - 1) / pad * pad
		return screen.PixelLayout{Order: order, Stride: stride}, nil
	}
	return screen.PixelLayout{}, fmt.Errorf("no pixmap format for depth %d", depth)
}
