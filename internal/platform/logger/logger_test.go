package logger

import (
	"strings"
	"testing"
)

func TestSanitizeKVsRedactsSensitiveKeys(t *testing.T) {
	got := sanitizeKVs([]interface{}{
		"email", "a@b.com",
		"security_answer", "Leo",
		"route_id", "r-1",
	})
	if len(got) != 6 {
		t.Fatalf("len: want=6 got=%d", len(got))
	}
	if got[1] != "[REDACTED]" {
		t.Fatalf("email: want=%q got=%v", "[REDACTED]", got[1])
	}
	if got[3] != "[REDACTED]" {
		t.Fatalf("security_answer: want=%q got=%v", "[REDACTED]", got[3])
	}
	if got[5] != "r-1" {
		t.Fatalf("route_id: want=%q got=%v", "r-1", got[5])
	}
}

func TestSanitizeKVsHashesUserIDs(t *testing.T) {
	got := sanitizeKVs([]interface{}{"user_id", "6f1c0c1e-0000-4000-8000-000000000001"})
	s, ok := got[1].(string)
	if !ok || !strings.HasPrefix(s, "hash:") {
		t.Fatalf("user_id: want hash prefix got=%v", got[1])
	}
	if len(s) != len("hash:")+12 {
		t.Fatalf("user_id hash length: got=%d", len(s))
	}
}

func TestSanitizeValueRedactsJWTShapedStrings(t *testing.T) {
	jwtish := "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxMjM0NTY3ODkwIn0.sig"
	if got := sanitizeValue("note", jwtish); got != "[REDACTED]" {
		t.Fatalf("jwt: want redacted got=%v", got)
	}
}

func TestSanitizeKVsKeepsDanglingKey(t *testing.T) {
	got := sanitizeKVs([]interface{}{"a", 1, "dangling"})
	if len(got) != 3 || got[2] != "dangling" {
		t.Fatalf("dangling key: got=%v", got)
	}
}
