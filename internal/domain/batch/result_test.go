package batch

import (
	"errors"
	"testing"
)

func TestNewOK(t *testing.T) {
	r := NewOK("vid-1", 12)
	if r.ID() != "vid-1" {
		t.Errorf("ID() = %q", r.ID())
	}
	if r.Status() != StatusOK {
		t.Errorf("Status() = %q, want %q", r.Status(), StatusOK)
	}
	if r.Frames() != 12 {
		t.Errorf("Frames() = %d, want 12", r.Frames())
	}
	if r.Err() != nil {
		t.Errorf("Err() = %v, want nil", r.Err())
	}
}

func TestNewError(t *testing.T) {
	err := errors.New("something failed")
	r := NewError("vid-2", err)
	if r.ID() != "vid-2" {
		t.Errorf("ID() = %q", r.ID())
	}
	if r.Status() != StatusError {
		t.Errorf("Status() = %q, want %q", r.Status(), StatusError)
	}
	if r.Frames() != 0 {
		t.Errorf("Frames() = %d, want 0", r.Frames())
	}
	if !errors.Is(r.Err(), err) {
		t.Errorf("Err() = %v, want %v", r.Err(), err)
	}
}

func TestCounts(t *testing.T) {
	ok, failed := Counts([]Result{
		NewOK("a", 1), NewError("b", errors.New("x")), NewOK("c", 2),
	})
	if ok != 2 || failed != 1 {
		t.Errorf("Counts() = %d, %d; want 2, 1", ok, failed)
	}
	ok, failed = Counts(nil)
	if ok != 0 || failed != 0 {
		t.Errorf("Counts(nil) = %d, %d", ok, failed)
	}
}
