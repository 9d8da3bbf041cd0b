package screen

import (
	"errors"
	"fmt"

	"github.com/bryanchriswhite/screengrab/internal/logger"
)

// Releaser is anything that owns a native resource and can give it back
type Releaser interface {
	Release() error
}

// Guard owns exactly one native handle (device context, bitmap, pixmap,
// connection, temp file...) and runs its destructor at most once.
// The zero value of H is treated as the invalid handle: a guard can hold it,
// but releasing it is a no-op and Valid reports false.
type Guard[H comparable] struct {
	kind     string
	handle   H
	release  func(H) error
	released bool
}

// NewGuard takes ownership of h
func NewGuard[H comparable](kind string, h H, release func(H) error) *Guard[H] {
	return &Guard[H]{kind: kind, handle: h, release: release}
}

// Acquire runs acquire and wraps the result in a guard. A failed or zero
// handle is reported as ErrResourceAcquisition and no guard is returned.
func Acquire[H comparable](kind string, acquire func() (H, error), release func(H) error) (*Guard[H], error) {
	h, err := acquire()
	if err != nil {
		return nil, NewError("acquire "+kind, ErrResourceAcquisition, err)
	}
	var zero H
	if h == zero {
		return nil, NewError("acquire "+kind, ErrResourceAcquisition, errors.New("invalid handle"))
	}
	return NewGuard(kind, h, release), nil
}

// Kind names the resource type, for diagnostics
func (g *Guard[H]) Kind() string { return g.kind }

// Handle returns the owned handle, or the zero value once released
func (g *Guard[H]) Handle() H {
	if g.released {
		var zero H
		return zero
	}
	return g.handle
}

// Valid reports whether the guard still holds a non-zero handle
func (g *Guard[H]) Valid() bool {
	var zero H
	return !g.released && g.handle != zero
}

// Release runs the destructor once. Later calls return nil.
func (g *Guard[H]) Release() error {
	if g == nil || g.released {
		return nil
	}
	g.released = true

	var zero H
	if g.handle == zero || g.release == nil {
		return nil
	}

	h := g.handle
	g.handle = zero
	if err := g.release(h); err != nil {
		logger.WithComponent("guard").Error().
			Err(err).
			Str("kind", g.kind).
			Msg("Failed to release native resource")
		return fmt.Errorf("release %s: %w", g.kind, err)
	}
	return nil
}

// Scope releases every guard added to it in reverse order of addition
type Scope struct {
	items []Releaser
}

// Add registers r for release when the scope closes
func (s *Scope) Add(r Releaser) {
	s.items = append(s.items, r)
}

// Close releases everything, last in first out, and joins the errors
func (s *Scope) Close() error {
	var errs []error
	for i := len(s.items) - 1; i >= 0; i-- {
		if err := s.items[i].Release(); err != nil {
			errs = append(errs, err)
		}
	}
	s.items = nil
	return errors.Join(errs...)
}
