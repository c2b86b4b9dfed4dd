package services

import (
	"fmt"
	"io"
	"mime"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	types "github.com/yungbote/trailhead-backend/internal/domain"
)

const (
	MaxCheckInFiles  = 9
	MaxImageBytes    = 5 << 20
	MaxVideoBytes    = 50 << 20
	MaxFeelingsRunes = 500
	MinDistanceKM    = 0.1
	MaxDistanceKM    = 100.0

	// MaxCheckInBodyBytes fits a full check-in of videos plus the form fields.
	MaxCheckInBodyBytes = MaxCheckInFiles*MaxVideoBytes + 8<<20

	WarningFilesTrimmed = "only the first 9 files were kept"

	sniffBytes = 3072
)

var distancePattern = regexp.MustCompile(`^\d+(\.\d)?$`)

type mediaFormat struct {
	kind string
	ext  string
}

var allowedMedia = map[string]mediaFormat{
	"image/jpeg":      {kind: types.MediaImage, ext: "jpg"},
	"image/png":       {kind: types.MediaImage, ext: "png"},
	"video/mp4":       {kind: types.MediaVideo, ext: "mp4"},
	"video/quicktime": {kind: types.MediaVideo, ext: "mov"},
}

// MediaUpload is one file of a check-in. Open may be called more than once.
type MediaUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

type CheckInRequest struct {
	UserID         uuid.UUID
	RouteID        uuid.UUID
	ItineraryID    uuid.UUID
	CompletedAt    time.Time
	Feelings       string
	Distance       string
	Duration       string
	Files          []MediaUpload
	IdempotencyKey string
}

type ValidatedMedia struct {
	Upload MediaUpload
	MIME   string
	Kind   string
	Ext    string
}

type ValidatedCheckIn struct {
	Distance float64
	Duration string
	Feelings string
	Files    []ValidatedMedia
	Warnings []string
}

// ValidateDistance accepts at most one decimal place within [0.1, 100].
func ValidateDistance(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if !distancePattern.MatchString(raw) {
		return 0, ValidationError("distance %q must be a number with at most one decimal place", raw)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, ValidationError("distance %q is not a number", raw)
	}
	if v < MinDistanceKM || v > MaxDistanceKM {
		return 0, ValidationError("distance must be between %.1f and %.0f km", MinDistanceKM, MaxDistanceKM)
	}
	return v, nil
}

// ValidateCheckIn runs every check that must pass before anything is written. Extra
// files beyond the limit are dropped with a warning rather than failing the request.
func ValidateCheckIn(req CheckInRequest) (*ValidatedCheckIn, error) {
	if req.RouteID == uuid.Nil && req.ItineraryID == uuid.Nil {
		return nil, ValidationError("route_id or itinerary_id is required")
	}
	distance, err := ValidateDistance(req.Distance)
	if err != nil {
		return nil, err
	}
	duration := strings.TrimSpace(req.Duration)
	if duration == "" {
		return nil, ValidationError("duration is required")
	}
	feelings := strings.TrimSpace(req.Feelings)
	if utf8.RuneCountInString(feelings) > MaxFeelingsRunes {
		return nil, ValidationError("feelings must be at most %d characters", MaxFeelingsRunes)
	}

	out := &ValidatedCheckIn{Distance: distance, Duration: duration, Feelings: feelings}
	files := req.Files
	if len(files) > MaxCheckInFiles {
		files = files[:MaxCheckInFiles]
		out.Warnings = append(out.Warnings, WarningFilesTrimmed)
	}
	for i, f := range files {
		vm, err := validateMedia(f)
		if err != nil {
			return nil, ValidationError("file %d (%s): %v", i+1, f.Filename, err)
		}
		out.Files = append(out.Files, vm)
	}
	return out, nil
}

func validateMedia(f MediaUpload) (ValidatedMedia, error) {
	mt, err := resolveMIME(f)
	if err != nil {
		return ValidatedMedia{}, err
	}
	format, ok := allowedMedia[mt]
	if !ok {
		return ValidatedMedia{}, fmt.Errorf("unsupported type %q (jpeg, png, mp4 or quicktime only)", mt)
	}
	limit := int64(MaxImageBytes)
	if format.kind == types.MediaVideo {
		limit = MaxVideoBytes
	}
	if f.Size > limit {
		return ValidatedMedia{}, fmt.Errorf("%d bytes exceeds the %d MB limit", f.Size, limit>>20)
	}
	return ValidatedMedia{Upload: f, MIME: mt, Kind: format.kind, Ext: format.ext}, nil
}

// resolveMIME trusts a declared type and falls back to sniffing the header bytes
// when the client sent none.
func resolveMIME(f MediaUpload) (string, error) {
	declared := strings.TrimSpace(f.ContentType)
	if declared != "" {
		if mt, _, err := mime.ParseMediaType(declared); err == nil {
			declared = strings.ToLower(mt)
		}
	}
	if declared != "" && declared != "application/octet-stream" {
		return declared, nil
	}
	if f.Open == nil {
		return "", fmt.Errorf("missing content type")
	}
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open: %w", err)
	}
	defer rc.Close()
	head := make([]byte, sniffBytes)
	n, err := io.ReadFull(rc, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("read: %w", err)
	}
	return mimetype.Detect(head[:n]).String(), nil
}
