package services

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"math/rand/v2"
	"os"
	"strings"
	"time"
	"unicode"

	_ "image/jpeg"
	_ "image/png"

	"github.com/fogleman/gg"
	"github.com/gabriel-vasile/mimetype"
	"github.com/golang/freetype/truetype"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	types "github.com/yungbote/trailhead-backend/internal/domain"
	"github.com/yungbote/trailhead-backend/internal/platform/dbctx"
	"github.com/yungbote/trailhead-backend/internal/platform/logger"
	"github.com/yungbote/trailhead-backend/internal/platform/objectstore"
)

const (
	AvatarSize        = 512
	MaxAvatarUploadMB = 5
)

// Trail colors used when AVATAR_COLORS_JSON_PATH is not set.
var defaultAvatarColors = []color.NRGBA{
	{R: 0x2F, G: 0x6B, B: 0x4F, A: 0xFF},
	{R: 0x3E, G: 0x7C, B: 0xB1, A: 0xFF},
	{R: 0x8C, G: 0x5A, B: 0x3C, A: 0xFF},
	{R: 0xC9, G: 0x6B, B: 0x2C, A: 0xFF},
	{R: 0x5B, G: 0x4B, B: 0x8A, A: 0xFF},
	{R: 0x4A, G: 0x8C, B: 0x7F, A: 0xFF},
	{R: 0xA2, G: 0x3E, B: 0x48, A: 0xFF},
	{R: 0x6B, G: 0x70, B: 0x5C, A: 0xFF},
}

type AvatarConfig struct {
	ColorsJSONPath string
	FontPath       string
}

// AvatarService renders and stores profile pictures. Both operations set AvatarKey,
// AvatarURL and AvatarColor on the profile; persisting them is the caller's job.
type AvatarService interface {
	GenerateInitials(ctx context.Context, profile *types.Profile) error
	ReplaceFromImage(ctx context.Context, profile *types.Profile, raw []byte) error
}

type avatarService struct {
	log    *logger.Logger
	bucket objectstore.Bucket

	bgColors   []color.NRGBA
	colorByHex map[string]color.NRGBA

	fontFace font.Face
	now      func() time.Time
}

func NewAvatarService(baseLog *logger.Logger, bucket objectstore.Bucket, cfg AvatarConfig) (AvatarService, error) {
	serviceLog := baseLog.With("service", "AvatarService")

	bgColors := defaultAvatarColors
	if p := strings.TrimSpace(cfg.ColorsJSONPath); p != "" {
		serviceLog.Info("Loading avatar colors...", "path", p)
		loaded, err := loadColorsFromFile(p)
		if err != nil {
			return nil, fmt.Errorf("could not load avatar colors: %w", err)
		}
		if len(loaded) == 0 {
			return nil, fmt.Errorf("avatar colors list is empty")
		}
		bgColors = loaded
	}
	colorByHex := make(map[string]color.NRGBA, len(bgColors))
	for _, c := range bgColors {
		colorByHex[nrgbaToHex(c)] = c
	}

	fontBytes := goregular.TTF
	if p := strings.TrimSpace(cfg.FontPath); p != "" {
		serviceLog.Info("Loading avatar font", "font", p)
		raw, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read font file: %w", err)
		}
		fontBytes = raw
	}
	face, err := loadFontFace(fontBytes, 206)
	if err != nil {
		return nil, fmt.Errorf("could not load avatar font: %w", err)
	}

	return &avatarService{
		log:        serviceLog,
		bucket:     bucket,
		bgColors:   bgColors,
		colorByHex: colorByHex,
		fontFace:   face,
		now:        time.Now,
	}, nil
}

func (as *avatarService) GenerateInitials(ctx context.Context, profile *types.Profile) error {
	if profile == nil || profile.ID == uuid.Nil {
		return fmt.Errorf("profile required")
	}
	as.ensureAvatarColor(profile)
	buf, err := as.renderInitials(profile)
	if err != nil {
		return err
	}
	return as.store(ctx, profile, buf.Bytes())
}

func (as *avatarService) ReplaceFromImage(ctx context.Context, profile *types.Profile, raw []byte) error {
	if profile == nil || profile.ID == uuid.Nil {
		return fmt.Errorf("profile required")
	}
	if len(raw) > MaxAvatarUploadMB<<20 {
		return ValidationError("avatar exceeds %d MB", MaxAvatarUploadMB)
	}
	processed, err := processUploadedAvatar(raw, AvatarSize)
	if err != nil {
		return ValidationError("avatar: %v", err)
	}
	return as.store(ctx, profile, processed.Bytes())
}

// store uploads under a fresh versioned key, then drops the previous object (best effort).
func (as *avatarService) store(ctx context.Context, profile *types.Profile, png []byte) error {
	if as.bucket == nil {
		return fmt.Errorf("object storage unavailable")
	}
	oldKey := strings.TrimSpace(profile.AvatarKey)
	newKey := AvatarObjectKey(profile.ID, as.now())

	dbc := dbctx.Context{Ctx: ctx}
	if err := as.bucket.UploadFile(dbc, objectstore.CategoryAvatar, newKey, bytes.NewReader(png)); err != nil {
		return fmt.Errorf("failed to upload avatar: %w", err)
	}
	profile.AvatarKey = newKey
	profile.AvatarURL = as.bucket.GetPublicURL(objectstore.CategoryAvatar, newKey)

	if oldKey != "" && oldKey != newKey {
		if err := as.bucket.DeleteFile(dbc, objectstore.CategoryAvatar, oldKey); err != nil && !objectstore.IsNotFound(err) {
			as.log.Warn("failed to delete old avatar (ignored)", "old_key", oldKey, "error", err)
		}
	}
	return nil
}

func (as *avatarService) renderInitials(profile *types.Profile) (bytes.Buffer, error) {
	const size = AvatarSize
	dc := gg.NewContext(size, size)

	dc.DrawCircle(float64(size)/2, float64(size)/2, float64(size)/2)
	dc.Clip()

	dc.SetColor(as.pickColor(profile.AvatarColor))
	dc.DrawRectangle(0, 0, float64(size), float64(size))
	dc.Fill()

	initials := computeInitials(profile.Username)
	dc.SetFontFace(as.fontFace)
	dc.SetColor(color.White)
	dc.DrawStringAnchored(initials, float64(size)/2, float64(size)/2, 0.5, 0.35)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return buf, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf, nil
}

// processUploadedAvatar center-crops to a square, scales to size and clips a circle.
func processUploadedAvatar(raw []byte, size int) (bytes.Buffer, error) {
	var out bytes.Buffer

	if mt := mimetype.Detect(raw); !mt.Is("image/png") && !mt.Is("image/jpeg") {
		return out, fmt.Errorf("unsupported type %s", mt.String())
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return out, fmt.Errorf("decode image: %w", err)
	}

	b := img.Bounds()
	side := min(b.Dx(), b.Dy())
	if side == 0 {
		return out, fmt.Errorf("empty image")
	}
	x0 := b.Min.X + (b.Dx()-side)/2
	y0 := b.Min.Y + (b.Dy()-side)/2

	cropRect := image.Rect(0, 0, side, side)
	cropped := image.NewRGBA(cropRect)
	draw.Draw(cropped, cropRect, img, image.Point{X: x0, Y: y0}, draw.Src)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), cropped, cropped.Bounds(), draw.Over, nil)

	dc := gg.NewContext(size, size)
	dc.DrawCircle(float64(size)/2, float64(size)/2, float64(size)/2)
	dc.Clip()
	dc.DrawImage(dst, 0, 0)

	if err := dc.EncodePNG(&out); err != nil {
		return out, fmt.Errorf("encode png: %w", err)
	}
	return out, nil
}

func (as *avatarService) ensureAvatarColor(profile *types.Profile) {
	if n := normalizeHex(profile.AvatarColor); n != "" {
		if _, ok := as.colorByHex[n]; ok {
			profile.AvatarColor = n
			return
		}
	}
	profile.AvatarColor = nrgbaToHex(as.bgColors[rand.IntN(len(as.bgColors))])
}

func (as *avatarService) pickColor(hexStr string) color.NRGBA {
	if c, ok := as.colorByHex[normalizeHex(hexStr)]; ok {
		return c
	}
	return as.bgColors[rand.IntN(len(as.bgColors))]
}

func normalizeHex(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	if len(s) != 7 {
		return ""
	}
	if _, err := hex.DecodeString(s[1:]); err != nil {
		return ""
	}
	return s
}

func nrgbaToHex(c color.NRGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// computeInitials takes the first letter of the first two words. A single-word CJK
// name yields one character.
func computeInitials(username string) string {
	words := strings.FieldsFunc(username, func(r rune) bool {
		return unicode.IsSpace(r) || r == '_' || r == '-' || r == '.'
	})
	var out []rune
	for _, w := range words {
		r := []rune(w)[0]
		out = append(out, unicode.ToUpper(r))
		if len(out) == 2 {
			break
		}
	}
	if len(out) == 0 {
		return "?"
	}
	return string(out)
}

func loadColorsFromFile(jsonPath string) ([]color.NRGBA, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("read file error: %w", err)
	}
	var colors []color.NRGBA
	if err := json.Unmarshal(data, &colors); err != nil {
		return nil, fmt.Errorf("json unmarshal error: %w", err)
	}
	return colors, nil
}

func loadFontFace(fontBytes []byte, size float64) (font.Face, error) {
	parsedFont, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	return truetype.NewFace(parsedFont, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	}), nil
}
