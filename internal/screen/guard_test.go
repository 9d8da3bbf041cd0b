package screen

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestGuardReleasesOnce(t *testing.T) {
	calls := 0
	g := NewGuard("hdc", uintptr(0x10), func(h uintptr) error {
		calls++
		if h != 0x10 {
			t.Errorf("destructor got handle %#x", h)
		}
		return nil
	})

	if !g.Valid() || g.Handle() != 0x10 {
		t.Fatalf("fresh guard: valid=%v handle=%#x", g.Valid(), g.Handle())
	}
	for i := 0; i < 3; i++ {
		if err := g.Release(); err != nil {
			t.Fatalf("release %d: %v", i, err)
		}
	}
	if calls != 1 {
		t.Fatalf("destructor ran %d times, want 1", calls)
	}
	if g.Valid() || g.Handle() != 0 {
		t.Fatalf("released guard still exposes handle %#x", g.Handle())
	}
}

func TestGuardInvalidHandleSkipsDestructor(t *testing.T) {
	called := false
	g := NewGuard("hbitmap", uintptr(0), func(uintptr) error {
		called = true
		return nil
	})
	if g.Valid() {
		t.Fatal("zero handle reported valid")
	}
	if err := g.Release(); err != nil {
		t.Fatal(err)
	}
	if called {
		t.Fatal("destructor ran for zero handle")
	}
}

func TestGuardReleaseError(t *testing.T) {
	boom := errors.New("DeleteDC failed")
	g := NewGuard("hdc", 7, func(int) error { return boom })
	if err := g.Release(); !errors.Is(err, boom) {
		t.Fatalf("got %v, want wrapped %v", err, boom)
	}
	if err := g.Release(); err != nil {
		t.Fatalf("second release returned %v", err)
	}
}

func TestAcquire(t *testing.T) {
	t.Run("failure", func(t *testing.T) {
		g, err := Acquire("pixmap", func() (uint32, error) { return 0, errors.New("no ids") }, nil)
		if g != nil || !errors.Is(err, ErrResourceAcquisition) {
			t.Fatalf("got guard=%v err=%v", g, err)
		}
	})
	t.Run("zero handle", func(t *testing.T) {
		g, err := Acquire("hdc", func() (uintptr, error) { return 0, nil }, nil)
		if g != nil || !errors.Is(err, ErrResourceAcquisition) {
			t.Fatalf("got guard=%v err=%v", g, err)
		}
	})
	t.Run("success", func(t *testing.T) {
		released := false
		g, err := Acquire("hdc", func() (uintptr, error) { return 42, nil }, func(uintptr) error {
			released = true
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
		g.Release()
		if !released {
			t.Fatal("destructor not run")
		}
	})
}

func TestScopeReleasesInReverse(t *testing.T) {
	var order []string
	rec := func(name string) func(string) error {
		return func(string) error {
			order = append(order, name)
			return nil
		}
	}

	var s Scope
	s.Add(NewGuard("dc", "screen-dc", rec("screen-dc")))
	s.Add(NewGuard("dc", "mem-dc", rec("mem-dc")))
	s.Add(NewGuard("bitmap", "bitmap", rec("bitmap")))

	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"bitmap", "mem-dc", "screen-dc"}, order); diff != "" {
		t.Fatalf("release order (-want +got):\n%s", diff)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if len(order) != 3 {
		t.Fatalf("second Close released again: %v", order)
	}
}

func TestScopeJoinsErrorsAndKeepsGoing(t *testing.T) {
	errA := errors.New("a")
	released := 0
	var s Scope
	s.Add(NewGuard("x", 1, func(int) error { released++; return nil }))
	s.Add(NewGuard("y", 2, func(int) error { released++; return errA }))

	err := s.Close()
	if !errors.Is(err, errA) {
		t.Fatalf("got %v", err)
	}
	if released != 2 {
		t.Fatalf("released %d guards, want 2", released)
	}
}
