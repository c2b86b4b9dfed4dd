package services

import (
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/trailhead-backend/internal/data/repos"
	"github.com/yungbote/trailhead-backend/internal/data/repos/testutil"
	types "github.com/yungbote/trailhead-backend/internal/domain"
	"github.com/yungbote/trailhead-backend/internal/platform/apierr"
)

func (h *harness) adminUsers() AdminUserService {
	return NewAdminUserService(h.db, h.log, h.accounts, h.profiles, h.tokens, h.itineraries, nil, nil)
}

func (h *harness) adminCatalog() AdminCatalogService {
	return NewAdminCatalogService(h.db, h.log, h.cities, h.routes, h.tags, h.routeTags, h.sections, nil)
}

func TestAdminCreateUserDefaults(t *testing.T) {
	h := newHarness(t)
	svc := h.adminUsers()

	u, err := svc.Create(h.ctx, AdminUserInput{Email: "new@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.Role != types.RoleUser || u.Status != types.ProfileStatusActive || u.Username != "new" {
		t.Fatalf("Create defaults: role=%q status=%q username=%q", u.Role, u.Status, u.Username)
	}
	if _, err := svc.Create(h.ctx, AdminUserInput{Email: "new@example.com", Password: "secret1"}); apierr.CodeOf(err) != CodeEmailTaken {
		t.Fatalf("duplicate Create: want code=%q got=%v", CodeEmailTaken, err)
	}
	if _, err := svc.Create(h.ctx, AdminUserInput{Email: "x@example.com", Password: "secret1", Role: "root"}); apierr.StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("bad role: want 400 got=%v", err)
	}
	if _, err := h.authService().Login(h.ctx, "new@example.com", "secret1"); err != nil {
		t.Fatalf("Login as created user: %v", err)
	}
}

func TestAdminDisableBansAndRevokesSessions(t *testing.T) {
	h := newHarness(t)
	svc := h.adminUsers()
	auth := h.authService()
	u, err := svc.Create(h.ctx, AdminUserInput{Email: "ban@example.com", Password: "secret1", Username: "ban me"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	pair, err := auth.Login(h.ctx, "ban@example.com", "secret1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	disabled, err := svc.Update(h.ctx, u.ID, AdminUserUpdate{Status: strPtr(types.ProfileStatusDisabled)})
	if err != nil {
		t.Fatalf("Update disabled: %v", err)
	}
	if disabled.BannedUntil == nil || disabled.Status != types.ProfileStatusDisabled {
		t.Fatalf("Update disabled: banned_until=%v status=%q", disabled.BannedUntil, disabled.Status)
	}
	if _, err := auth.SetContextFromToken(h.ctx, pair.AccessToken); apierr.StatusOf(err) != http.StatusUnauthorized {
		t.Fatalf("token after ban: want 401 got=%v", err)
	}
	if _, err := auth.Login(h.ctx, "ban@example.com", "secret1"); apierr.CodeOf(err) != CodeAccountBanned {
		t.Fatalf("Login banned: want code=%q got=%v", CodeAccountBanned, err)
	}

	active, err := svc.Update(h.ctx, u.ID, AdminUserUpdate{Status: strPtr(types.ProfileStatusActive)})
	if err != nil {
		t.Fatalf("Update active: %v", err)
	}
	if active.BannedUntil != nil {
		t.Fatalf("Update active: banned_until=%v", active.BannedUntil)
	}
	if _, err := auth.Login(h.ctx, "ban@example.com", "secret1"); err != nil {
		t.Fatalf("Login after unban: %v", err)
	}

	if _, err := svc.Update(h.ctx, uuid.New(), AdminUserUpdate{Username: strPtr("ghost")}); apierr.StatusOf(err) != http.StatusNotFound {
		t.Fatalf("Update unknown: want 404 got=%v", err)
	}
}

func TestAdminUpdatePasswordAndDelete(t *testing.T) {
	h := newHarness(t)
	svc := h.adminUsers()
	auth := h.authService()
	u, err := svc.Create(h.ctx, AdminUserInput{Email: "pw@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Update(h.ctx, u.ID, AdminUserUpdate{Password: strPtr("changed1")}); err != nil {
		t.Fatalf("Update password: %v", err)
	}
	if _, err := auth.Login(h.ctx, "pw@example.com", "changed1"); err != nil {
		t.Fatalf("Login with new password: %v", err)
	}

	route := seedRoute(t, h)
	plan := testutil.SeedItinerary(t, h.ctx, h.db, u.ID, route.ID, types.ItineraryPending)

	if err := svc.Delete(h.ctx, u.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := auth.Login(h.ctx, "pw@example.com", "changed1"); apierr.StatusOf(err) != http.StatusUnauthorized {
		t.Fatalf("Login after delete: want 401 got=%v", err)
	}
	got, err := h.itineraries.GetByIDUnscoped(dbcFor(h), plan.ID)
	if err != nil {
		t.Fatalf("GetByIDUnscoped: %v", err)
	}
	if !got.DeletedAt.Valid {
		t.Fatalf("itinerary was not soft deleted")
	}
	if err := svc.Delete(h.ctx, u.ID); apierr.StatusOf(err) != http.StatusNotFound {
		t.Fatalf("Delete twice: want 404 got=%v", err)
	}
}

func TestAdminListUsersPaginates(t *testing.T) {
	h := newHarness(t)
	svc := h.adminUsers()
	for _, email := range []string{"u1@example.com", "u2@example.com", "u3@example.com"} {
		if _, err := svc.Create(h.ctx, AdminUserInput{Email: email, Password: "secret1"}); err != nil {
			t.Fatalf("Create %s: %v", email, err)
		}
	}
	page, err := svc.List(h.ctx, repos.ListQuery{Page: 2, Limit: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Pagination.Total != 3 || page.Pagination.TotalPages != 2 || len(page.Data) != 1 {
		t.Fatalf("List: got=%+v rows=%d", page.Pagination, len(page.Data))
	}
	if page.Data[0].Email == "" {
		t.Fatalf("List: email not joined")
	}

	filtered, err := svc.List(h.ctx, repos.ListQuery{Search: "U2"})
	if err != nil {
		t.Fatalf("List search: %v", err)
	}
	if filtered.Pagination.Total != 1 || filtered.Data[0].Email != "u2@example.com" {
		t.Fatalf("List search: got=%+v", filtered.Pagination)
	}
}

func TestAdminRouteWithTagsAndSections(t *testing.T) {
	h := newHarness(t)
	svc := h.adminCatalog()
	city := testutil.SeedCity(t, h.ctx, h.db, "Taichung")
	forest := testutil.SeedTag(t, h.ctx, h.db, "forest")
	ridge := testutil.SeedTag(t, h.ctx, h.db, "ridge")

	name := "Dakeng No. 4"
	difficulty := 9
	tags := []uuid.UUID{forest.ID, ridge.ID}
	sections := []SectionInput{{Title: "Trailhead"}, {Title: "Summit"}}
	route, err := svc.CreateRoute(h.ctx, RouteInput{CityID: &city.ID, Name: &name, Difficulty: &difficulty, TagIDs: &tags, Sections: &sections})
	if err != nil {
		t.Fatalf("CreateRoute: %v", err)
	}
	if route.Difficulty != types.MaxDifficulty {
		t.Fatalf("difficulty: want clamped %d got=%d", types.MaxDifficulty, route.Difficulty)
	}
	if len(route.Tags) != 2 || len(route.Sections) != 2 || route.Sections[0].Title != "Trailhead" {
		t.Fatalf("CreateRoute: tags=%d sections=%d", len(route.Tags), len(route.Sections))
	}

	bogus := []uuid.UUID{uuid.New()}
	if _, err := svc.UpdateRoute(h.ctx, route.ID, RouteInput{Name: strPtr("renamed"), TagIDs: &bogus}); apierr.StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("UpdateRoute unknown tag: want 400 got=%v", err)
	}
	again, err := svc.UpdateRoute(h.ctx, route.ID, RouteInput{})
	if err != nil {
		t.Fatalf("UpdateRoute no-op: %v", err)
	}
	if again.Name != name {
		t.Fatalf("failed update leaked: name=%q", again.Name)
	}

	only := []uuid.UUID{ridge.ID}
	updated, err := svc.UpdateRoute(h.ctx, route.ID, RouteInput{Status: strPtr(types.RouteStatusOffline), TagIDs: &only})
	if err != nil {
		t.Fatalf("UpdateRoute: %v", err)
	}
	if updated.Status != types.RouteStatusOffline || len(updated.Tags) != 1 || updated.Tags[0].ID != ridge.ID {
		t.Fatalf("UpdateRoute: status=%q tags=%d", updated.Status, len(updated.Tags))
	}

	if err := svc.DeleteCity(h.ctx, city.ID); apierr.StatusOf(err) != http.StatusConflict {
		t.Fatalf("DeleteCity with routes: want 409 got=%v", err)
	}
	if err := svc.DeleteRoute(h.ctx, route.ID); err != nil {
		t.Fatalf("DeleteRoute: %v", err)
	}
	left, err := h.routeTags.ListByRoute(dbcFor(h), route.ID)
	if err != nil || len(left) != 0 {
		t.Fatalf("route_tag after delete: rows=%d err=%v", len(left), err)
	}
	if err := svc.DeleteCity(h.ctx, city.ID); err != nil {
		t.Fatalf("DeleteCity: %v", err)
	}
}

func TestAdminDeleteTagDetachesRoutes(t *testing.T) {
	h := newHarness(t)
	svc := h.adminCatalog()
	route := seedRoute(t, h)
	tag, err := svc.CreateTag(h.ctx, TagInput{Name: strPtr("waterfall")})
	if err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	if _, err := svc.CreateTag(h.ctx, TagInput{Name: strPtr("waterfall")}); apierr.CodeOf(err) != CodeTagExists {
		t.Fatalf("duplicate tag: want code=%q got=%v", CodeTagExists, err)
	}
	if err := h.routeTags.ReplaceForRoute(dbcFor(h), route.ID, []uuid.UUID{tag.ID}); err != nil {
		t.Fatalf("ReplaceForRoute: %v", err)
	}

	if err := svc.DeleteTag(h.ctx, tag.ID); err != nil {
		t.Fatalf("DeleteTag: %v", err)
	}
	left, err := h.routeTags.ListByRoute(dbcFor(h), route.ID)
	if err != nil || len(left) != 0 {
		t.Fatalf("route_tag after tag delete: rows=%d err=%v", len(left), err)
	}
	all, err := svc.AllTags(h.ctx)
	if err != nil || len(all) != 0 {
		t.Fatalf("AllTags: rows=%d err=%v", len(all), err)
	}
	if err := svc.DeleteTag(h.ctx, tag.ID); apierr.StatusOf(err) != http.StatusNotFound {
		t.Fatalf("DeleteTag twice: want 404 got=%v", err)
	}
}

func TestAdminCityCRUD(t *testing.T) {
	h := newHarness(t)
	svc := h.adminCatalog()
	if _, err := svc.CreateCity(h.ctx, CityInput{}); apierr.StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("CreateCity without name: want 400 got=%v", err)
	}
	c, err := svc.CreateCity(h.ctx, CityInput{Name: strPtr("Yilan"), District: strPtr("Northeast")})
	if err != nil {
		t.Fatalf("CreateCity: %v", err)
	}
	updated, err := svc.UpdateCity(h.ctx, c.ID, CityInput{Description: strPtr("hot springs")})
	if err != nil {
		t.Fatalf("UpdateCity: %v", err)
	}
	if updated.Description != "hot springs" || updated.Name != "Yilan" {
		t.Fatalf("UpdateCity: got=%+v", updated)
	}
	page, err := svc.ListCities(h.ctx, repos.ListQuery{Filters: map[string]string{"district": "north"}})
	if err != nil {
		t.Fatalf("ListCities: %v", err)
	}
	if page.Pagination.Total != 1 || page.Pagination.Page != 1 || page.Pagination.Limit != 10 {
		t.Fatalf("ListCities: got=%+v", page.Pagination)
	}
}
