package services

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	types "github.com/yungbote/trailhead-backend/internal/domain"
	"github.com/yungbote/trailhead-backend/internal/platform/apierr"
)

func TestValidateDistance(t *testing.T) {
	ok := map[string]float64{"0.1": 0.1, "8": 8, "8.5": 8.5, "100": 100, " 42.0 ": 42}
	for raw, want := range ok {
		got, err := ValidateDistance(raw)
		if err != nil {
			t.Fatalf("ValidateDistance(%q): %v", raw, err)
		}
		if got != want {
			t.Fatalf("ValidateDistance(%q): want=%v got=%v", raw, want, got)
		}
	}
	for _, raw := range []string{"", "0", "0.0", "100.1", "1.25", "-3", "abc", "1e2", ".5"} {
		if _, err := ValidateDistance(raw); apierr.StatusOf(err) != http.StatusBadRequest {
			t.Fatalf("ValidateDistance(%q): want 400 got=%v", raw, err)
		}
	}
}

func TestValidateCheckInRules(t *testing.T) {
	base := func() CheckInRequest {
		return CheckInRequest{RouteID: uuid.New(), Distance: "5", Duration: "2h"}
	}
	cases := []struct {
		name   string
		mutate func(r *CheckInRequest)
	}{
		{"missing target", func(r *CheckInRequest) { r.RouteID = uuid.Nil }},
		{"blank duration", func(r *CheckInRequest) { r.Duration = "  " }},
		{"long feelings", func(r *CheckInRequest) { r.Feelings = strings.Repeat("山", MaxFeelingsRunes+1) }},
		{"gif", func(r *CheckInRequest) { r.Files = []MediaUpload{memUpload("a.gif", "image/gif", "GIF89a")} }},
		{"big image", func(r *CheckInRequest) {
			f := memUpload("a.jpg", "image/jpeg", "x")
			f.Size = MaxImageBytes + 1
			r.Files = []MediaUpload{f}
		}},
		{"big video", func(r *CheckInRequest) {
			f := memUpload("a.mp4", "video/mp4", "x")
			f.Size = MaxVideoBytes + 1
			r.Files = []MediaUpload{f}
		}},
	}
	for _, tc := range cases {
		req := base()
		tc.mutate(&req)
		if _, err := ValidateCheckIn(req); apierr.StatusOf(err) != http.StatusBadRequest {
			t.Fatalf("%s: want 400 got=%v", tc.name, err)
		}
	}
}

func TestValidateCheckInAcceptsVideoUnderVideoLimit(t *testing.T) {
	f := memUpload("a.mov", "video/quicktime", "x")
	f.Size = MaxImageBytes + 1
	v, err := ValidateCheckIn(CheckInRequest{RouteID: uuid.New(), Distance: "5", Duration: "2h", Files: []MediaUpload{f}})
	if err != nil {
		t.Fatalf("ValidateCheckIn: %v", err)
	}
	if v.Files[0].Kind != types.MediaVideo || v.Files[0].Ext != "mov" {
		t.Fatalf("media: got kind=%q ext=%q", v.Files[0].Kind, v.Files[0].Ext)
	}
}

func TestValidateCheckInSniffsMissingContentType(t *testing.T) {
	v, err := ValidateCheckIn(CheckInRequest{
		RouteID: uuid.New(), Distance: "5", Duration: "2h",
		Files: []MediaUpload{memUpload("upload", "application/octet-stream", pngHeader)},
	})
	if err != nil {
		t.Fatalf("ValidateCheckIn: %v", err)
	}
	if v.Files[0].MIME != "image/png" || v.Files[0].Ext != "png" {
		t.Fatalf("sniffed: got mime=%q ext=%q", v.Files[0].MIME, v.Files[0].Ext)
	}
}

func TestValidateCheckInTrimsBeforeValidating(t *testing.T) {
	files := make([]MediaUpload, 0, 10)
	for i := 0; i < MaxCheckInFiles; i++ {
		files = append(files, memUpload("a.jpg", "image/jpeg", "x"))
	}
	// the tenth file is invalid but is dropped before validation
	files = append(files, memUpload("bad.gif", "image/gif", "x"))
	v, err := ValidateCheckIn(CheckInRequest{RouteID: uuid.New(), Distance: "5", Duration: "2h", Files: files})
	if err != nil {
		t.Fatalf("ValidateCheckIn: %v", err)
	}
	if len(v.Files) != MaxCheckInFiles || len(v.Warnings) != 1 {
		t.Fatalf("trim: want files=%d warnings=1 got files=%d warnings=%d", MaxCheckInFiles, len(v.Files), len(v.Warnings))
	}
}

func TestMediaObjectKey(t *testing.T) {
	user, rec := uuid.New(), uuid.New()
	now := time.UnixMilli(1714000000123)
	got := MediaObjectKey(user, rec, 3, ".JPG", now)
	want := user.String() + "/hiking_media/" + rec.String() + "/1714000000123_3.jpg"
	if got != want {
		t.Fatalf("MediaObjectKey: want=%q got=%q", want, got)
	}
	if !strings.HasPrefix(got, MediaRecordPrefix(user, rec)) {
		t.Fatalf("prefix mismatch")
	}
}
