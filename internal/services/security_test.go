package services

import (
	"net/http"
	"strings"
	"testing"

	"github.com/yungbote/trailhead-backend/internal/platform/apierr"
)

func TestSecurityAnswerIsSaltedAndPeppered(t *testing.T) {
	a, err := HashSecurityAnswer("Leo", "pepper")
	if err != nil {
		t.Fatalf("HashSecurityAnswer: %v", err)
	}
	b, err := HashSecurityAnswer("Leo", "pepper")
	if err != nil {
		t.Fatalf("HashSecurityAnswer: %v", err)
	}
	if a == b {
		t.Fatalf("hashes of the same answer must differ")
	}
	if strings.Contains(a, "Leo") || strings.Contains(a, "leo") {
		t.Fatalf("hash leaks the answer: %q", a)
	}
	if !VerifySecurityAnswer(a, "  leo ", "pepper") {
		t.Fatalf("normalized answer should verify")
	}
	if VerifySecurityAnswer(a, "Virgo", "pepper") {
		t.Fatalf("wrong answer verified")
	}
	if VerifySecurityAnswer(a, "Leo", "other-pepper") {
		t.Fatalf("answer verified under another pepper")
	}
}

func TestSecurityAnswerRejectsBlank(t *testing.T) {
	if _, err := HashSecurityAnswer("   ", "p"); apierr.StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("blank answer: want 400 got=%v", err)
	}
	if VerifySecurityAnswer("", "x", "p") {
		t.Fatalf("empty hash must not verify")
	}
}

func TestHashPasswordLengthRules(t *testing.T) {
	if _, err := HashPassword("short"); apierr.StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("short password: want 400 got=%v", err)
	}
	if _, err := HashPassword(strings.Repeat("x", MaxPasswordBytes+1)); apierr.StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("long password: want 400 got=%v", err)
	}
	if _, err := HashPassword("trail-mix"); err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
}
