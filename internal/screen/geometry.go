package screen

import "fmt"

// MonitorForRect picks the monitor that owns a window rectangle: the first
// monitor containing its center point, else the first one it intersects,
// else the primary monitor. ok is false only when monitors is empty.
func MonitorForRect(r Rect, monitors []Monitor) (m Monitor, ok bool) {
	cx, cy := r.Center()
	for _, m := range monitors {
		if m.Bounds().Contains(cx, cy) {
			return m, true
		}
	}
	for _, m := range monitors {
		if m.Bounds().Intersects(r) {
			return m, true
		}
	}
	return PrimaryMonitor(monitors)
}

// PrimaryMonitor returns the monitor flagged primary, falling back to the first
func PrimaryMonitor(monitors []Monitor) (Monitor, bool) {
	for _, m := range monitors {
		if m.IsPrimary {
			return m, true
		}
	}
	if len(monitors) > 0 {
		return monitors[0], true
	}
	return Monitor{}, false
}

// DeriveWindowState is the maximized/minimized heuristic. Maximized is not
// reported by every OS, so it is inferred: the window covers at least its
// monitor's size in both dimensions. Minimized means the OS reports the
// window off-screen and it is not judged maximized, so the two flags are
// never both true.
func DeriveWindowState(bounds Rect, m Monitor, onScreen bool) (minimized, maximized bool) {
	maximized = bounds.Width >= m.Width && bounds.Height >= m.Height
	minimized = !onScreen && !maximized
	return minimized, maximized
}

// VirtualBounds is the bounding box of every monitor
func VirtualBounds(monitors []Monitor) Rect {
	var r Rect
	for _, m := range monitors {
		r = r.Union(m.Bounds())
	}
	return r
}

// Uncovered returns the parts of r that lie on no monitor. Monitors of
// different sizes leave gaps inside their bounding box.
func Uncovered(r Rect, monitors []Monitor) []Rect {
	rest := []Rect{r}
	for _, m := range monitors {
		var next []Rect
		for _, p := range rest {
			next = append(next, p.Subtract(m.Bounds())...)
		}
		rest = next
	}
	return rest
}

// MonitorFromPoint returns the monitor whose bounds contain (x, y)
func MonitorFromPoint(monitors []Monitor, x, y int) (Monitor, error) {
	for _, m := range monitors {
		if m.Bounds().Contains(float64(x), float64(y)) {
			return m, nil
		}
	}
	return Monitor{}, NewError("monitor from point", ErrNotFound, fmt.Errorf("no monitor at (%d, %d)", x, y))
}

// FindMonitor looks a monitor up by id
func FindMonitor(monitors []Monitor, id uint32) (Monitor, error) {
	for _, m := range monitors {
		if m.ID == id {
			return m, nil
		}
	}
	return Monitor{}, NewError("find monitor", ErrNotFound, fmt.Errorf("monitor %d", id))
}

// FindWindow looks a window up by id
func FindWindow(windows []Window, id uint32) (Window, error) {
	for _, w := range windows {
		if w.ID == id {
			return w, nil
		}
	}
	return Window{}, NewError("find window", ErrNotFound, fmt.Errorf("window %d", id))
}

// MonitorArea converts a monitor-relative area to virtual-desktop coordinates.
// Areas that do not fit inside the monitor are rejected, never clamped.
func MonitorArea(m Monitor, x, y, width, height int) (Rect, error) {
	if width <= 0 || height <= 0 {
		return Rect{}, NewError("monitor area", ErrZeroSize, fmt.Errorf("%dx%d", width, height))
	}
	local := Rect{X: x, Y: y, Width: width, Height: height}
	if !(Rect{Width: m.Width, Height: m.Height}).ContainsRect(local) {
		return Rect{}, NewError("monitor area", ErrUnsupportedTarget,
			fmt.Errorf("area %s exceeds monitor %d bounds %dx%d", local, m.ID, m.Width, m.Height))
	}
	return Rect{X: m.X + x, Y: m.Y + y, Width: width, Height: height}, nil
}

// CheckTarget applies the uniform pre-capture policy: empty targets fail
// with ErrZeroSize and regions with any pixel outside every monitor fail
// with ErrUnsupportedTarget.
func CheckTarget(t Target, monitors []Monitor) error {
	r := t.Rect()
	if r.Empty() {
		return NewError("check target", ErrZeroSize, fmt.Errorf("%s is %dx%d", t, r.Width, r.Height))
	}
	if _, ok := t.(RegionTarget); !ok {
		return nil
	}
	if gaps := Uncovered(r, monitors); len(gaps) > 0 {
		return NewError("check target", ErrUnsupportedTarget,
			fmt.Errorf("%s not covered by any monitor at %s", t, gaps[0]))
	}
	return nil
}
