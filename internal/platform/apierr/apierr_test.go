package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusAndCodeSurviveWrapping(t *testing.T) {
	base := New(http.StatusConflict, "checkin_in_flight", errors.New("busy"))
	wrapped := fmt.Errorf("check in: %w", base)

	if got := StatusOf(wrapped); got != http.StatusConflict {
		t.Fatalf("StatusOf: want=%d got=%d", http.StatusConflict, got)
	}
	if got := CodeOf(wrapped); got != "checkin_in_flight" {
		t.Fatalf("CodeOf: want=%q got=%q", "checkin_in_flight", got)
	}
}

func TestPlainErrorsAreInternal(t *testing.T) {
	err := errors.New("boom")
	if got := StatusOf(err); got != http.StatusInternalServerError {
		t.Fatalf("StatusOf: want=500 got=%d", got)
	}
	if got := CodeOf(err); got != "internal" {
		t.Fatalf("CodeOf: want=%q got=%q", "internal", got)
	}
}
