package heal

import (
	"errors"
	"testing"
	"time"

	"graft/internal/locator"
)

func TestValidate_ResolvesAndWaits(t *testing.T) {
	page := pageWith(t, "byTestId('send')")
	el, err := validate(page, "byTestId('send')", 10*time.Millisecond)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if el == nil {
		t.Fatal("validate returned nil element")
	}
}

func TestValidate_AcceptsRawSelector(t *testing.T) {
	page := pageWith(t, "#submit")
	if _, err := validate(page, "#submit", 10*time.Millisecond); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidate_RejectsUnknownConstructor(t *testing.T) {
	page := pageWith(t, "byTestId('send')")
	_, err := validate(page, "byMagic('send')", 10*time.Millisecond)
	if !errors.Is(err, locator.ErrInvalid) {
		t.Errorf("expected ErrInvalid, got: %v", err)
	}
}

func TestValidate_NoMatchFails(t *testing.T) {
	page := pageWith(t)
	if _, err := validate(page, "byTestId('send')", 10*time.Millisecond); err == nil {
		t.Error("expected resolution failure")
	}
}

func TestValidate_HiddenElementFails(t *testing.T) {
	page := pageWith(t, "byTestId('send')")
	loc, err := locator.Parse("byTestId('send')")
	if err != nil {
		t.Fatal(err)
	}
	page.elements[loc.String()].waitErr = errors.New("element not visible after 2000ms")

	if _, err := validate(page, "byTestId('send')", 10*time.Millisecond); err == nil {
		t.Error("expected visibility failure")
	}
}
