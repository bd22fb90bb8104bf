package common

import (
	"errors"
	"fmt"
	"testing"
)

type pauseSet map[string]bool

func (p pauseSet) IsPaused(module string) bool { return p[module] }

func TestGuard(t *testing.T) {
	if err := Guard(nil, "cdp"); err != nil {
		t.Fatalf("nil view should not block: %v", err)
	}
	if err := Guard(pauseSet{"cdp": true}, ""); err != nil {
		t.Fatalf("empty module should not block: %v", err)
	}
	if err := Guard(StaticPauses{"cdp": true}, "cdp"); !errors.Is(err, ErrModulePaused) {
		t.Fatalf("expected paused, got %v", err)
	}
	if err := Guard(StaticPauses{"cdp": true}, "issuance"); err != nil {
		t.Fatalf("unexpected pause: %v", err)
	}
}

func TestCategoryOfWrappedError(t *testing.T) {
	sentinel := NewError(CategoryAuthorization, "test: unauthorized")
	wrapped := fmt.Errorf("execute: %w", sentinel)
	if !errors.Is(wrapped, sentinel) {
		t.Fatalf("wrapped sentinel lost identity")
	}
	if got := CategoryOf(wrapped); got != CategoryAuthorization {
		t.Fatalf("unexpected category %s", got)
	}
	if got := CategoryOf(errors.New("plain")); got != CategoryUnknown {
		t.Fatalf("plain errors are uncategorised, got %s", got)
	}
	if CategoryOf(ErrModulePaused) != CategoryState {
		t.Fatalf("paused should be a state failure")
	}
}
