package gcp

import (
	"strings"
	"testing"

	"github.com/yungbote/trailhead-backend/internal/platform/objectstore"
)

func TestGetPublicURLGCSDefault(t *testing.T) {
	bs := &bucketService{avatarBucket: bucketConfig{name: "avatar-bucket"}}

	got := bs.GetPublicURL(objectstore.CategoryAvatar, "avatars/user.png")
	want := "https://storage.googleapis.com/avatar-bucket/avatars/user.png"
	if got != want {
		t.Fatalf("GetPublicURL: want=%q got=%q", want, got)
	}
}

func TestGetPublicURLUsesCDNDomain(t *testing.T) {
	bs := &bucketService{mediaBucket: bucketConfig{name: "media-bucket", cdnDomain: "cdn.example.com"}}

	got := bs.GetPublicURL(objectstore.CategoryMedia, "u/hiking_media/r/1_0.jpg")
	want := "https://cdn.example.com/u/hiking_media/r/1_0.jpg"
	if got != want {
		t.Fatalf("GetPublicURL: want=%q got=%q", want, got)
	}
}

func TestGetPublicURLUsesPublicBaseURL(t *testing.T) {
	bs := &bucketService{
		publicBaseURL: "http://localhost:4443",
		mediaBucket:   bucketConfig{name: "media-bucket"},
	}

	got := bs.GetPublicURL(objectstore.CategoryMedia, "/u/hiking_media/r/1_0.jpg")
	want := "http://localhost:4443/media-bucket/u/hiking_media/r/1_0.jpg"
	if got != want {
		t.Fatalf("GetPublicURL: want=%q got=%q", want, got)
	}
}

func TestGetPublicURLUsesEmulatorMediaEndpoint(t *testing.T) {
	bs := &bucketService{
		storageMode:  objectstore.ModeGCSEmulator,
		emulatorHost: "http://fake-gcs:4443",
		mediaBucket:  bucketConfig{name: "media-bucket"},
	}

	got := bs.GetPublicURL(objectstore.CategoryMedia, "/u/hiking_media/r/1_0.mp4")
	want := "http://fake-gcs:4443/storage/v1/b/media-bucket/o/u%2Fhiking_media%2Fr%2F1_0.mp4?alt=media"
	if got != want {
		t.Fatalf("GetPublicURL: want=%q got=%q", want, got)
	}
	if !strings.Contains(got, "alt=media") {
		t.Fatalf("emulator URL should request object bytes: %s", got)
	}
}

func TestGetPublicURLUnknownCategoryReturnsKey(t *testing.T) {
	bs := &bucketService{}
	if got := bs.GetPublicURL(objectstore.Category("material"), "k"); got != "k" {
		t.Fatalf("GetPublicURL: want=%q got=%q", "k", got)
	}
}
