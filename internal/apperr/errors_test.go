package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrapUnwrapsToKind(t *testing.T) {
	err := fmt.Errorf("client: promote: %w", Wrap(ErrValidation, "no notes"))
	if !errors.Is(err, ErrValidation) {
		t.Fatal("expected ErrValidation")
	}
	if Reason(err) != "no notes" {
		t.Errorf("Reason = %q", Reason(err))
	}
}

func TestReasonFallsBackToMessage(t *testing.T) {
	if got := Reason(ErrNetwork); got != "network failure" {
		t.Errorf("Reason = %q", got)
	}
	if got := Reason(Wrap(ErrNotFound, "")); got != "not found" {
		t.Errorf("Reason = %q", got)
	}
	if got := Reason(nil); got != "" {
		t.Errorf("Reason(nil) = %q", got)
	}
}
