package envutil

import (
	"testing"
	"time"
)

func TestIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("TRAILHEAD_TEST_INT", "abc")
	if got := Int("TRAILHEAD_TEST_INT", 7, nil); got != 7 {
		t.Fatalf("Int: want=7 got=%d", got)
	}
	t.Setenv("TRAILHEAD_TEST_INT", " 42 ")
	if got := Int("TRAILHEAD_TEST_INT", 7, nil); got != 42 {
		t.Fatalf("Int: want=42 got=%d", got)
	}
}

func TestBool(t *testing.T) {
	cases := map[string]bool{"true": true, "ON": true, "0": false, "no": false}
	for raw, want := range cases {
		t.Setenv("TRAILHEAD_TEST_BOOL", raw)
		if got := Bool("TRAILHEAD_TEST_BOOL", !want, nil); got != want {
			t.Fatalf("Bool(%q): want=%v got=%v", raw, want, got)
		}
	}
}

func TestSeconds(t *testing.T) {
	t.Setenv("TRAILHEAD_TEST_SECS", "10")
	if got := Seconds("TRAILHEAD_TEST_SECS", time.Second, nil); got != 10*time.Second {
		t.Fatalf("Seconds: want=10s got=%s", got)
	}
}

func TestList(t *testing.T) {
	t.Setenv("TRAILHEAD_TEST_LIST", "http://a, ,http://b")
	got := List("TRAILHEAD_TEST_LIST", nil, nil)
	if len(got) != 2 || got[0] != "http://a" || got[1] != "http://b" {
		t.Fatalf("List: got=%v", got)
	}
}
