package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/trailhead-backend/internal/domain"
)

func SeedAccount(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.UserAccount {
	tb.Helper()
	u := &types.UserAccount{
		ID:       uuid.New(),
		Email:    email,
		Password: "pw",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed account: %v", err)
	}
	return u
}

func SeedProfile(tb testing.TB, ctx context.Context, tx *gorm.DB, id uuid.UUID, username, role string) *types.Profile {
	tb.Helper()
	p := &types.Profile{
		ID:       id,
		Username: username,
		Role:     role,
		Status:   types.ProfileStatusActive,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed profile: %v", err)
	}
	return p
}

func SeedCity(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.City {
	tb.Helper()
	c := &types.City{
		ID:       uuid.New(),
		Name:     name,
		District: name + " district",
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed city: %v", err)
	}
	return c
}

func SeedRoute(tb testing.TB, ctx context.Context, tx *gorm.DB, cityID uuid.UUID, name string) *types.Route {
	tb.Helper()
	r := &types.Route{
		ID:            uuid.New(),
		CityID:        cityID,
		Name:          name,
		Difficulty:    3,
		DistanceKM:    8.5,
		DurationHours: 3,
		Status:        types.RouteStatusActive,
	}
	if err := tx.WithContext(ctx).Omit("Tags", "Sections", "City").Create(r).Error; err != nil {
		tb.Fatalf("seed route: %v", err)
	}
	return r
}

func SeedTag(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.Tag {
	tb.Helper()
	t := &types.Tag{ID: uuid.New(), Name: name}
	if err := tx.WithContext(ctx).Create(t).Error; err != nil {
		tb.Fatalf("seed tag: %v", err)
	}
	return t
}

func SeedItinerary(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, routeID uuid.UUID, status string) *types.Itinerary {
	tb.Helper()
	it := &types.Itinerary{
		ID:          uuid.New(),
		UserID:      userID,
		RouteID:     routeID,
		PlannedDate: time.Now().UTC().Truncate(24 * time.Hour),
		Status:      status,
	}
	if err := tx.WithContext(ctx).Omit("Route").Create(it).Error; err != nil {
		tb.Fatalf("seed itinerary: %v", err)
	}
	return it
}

func SeedRecord(tb testing.TB, ctx context.Context, tx *gorm.DB, it *types.Itinerary, distance float64) *types.HikingRecord {
	tb.Helper()
	rec := &types.HikingRecord{
		ID:          uuid.New(),
		ItineraryID: it.ID,
		UserID:      it.UserID,
		RouteID:     it.RouteID,
		CompletedAt: time.Now().UTC(),
		Distance:    distance,
		Duration:    "2h",
	}
	if err := tx.WithContext(ctx).Omit("Itinerary", "Media").Create(rec).Error; err != nil {
		tb.Fatalf("seed record: %v", err)
	}
	return rec
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrTime(v time.Time) *time.Time { return &v }
