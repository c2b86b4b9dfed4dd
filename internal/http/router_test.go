package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/textproto"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/trailhead-backend/internal/data/repos"
	"github.com/yungbote/trailhead-backend/internal/data/repos/testutil"
	types "github.com/yungbote/trailhead-backend/internal/domain"
	"github.com/yungbote/trailhead-backend/internal/http/admin"
	httpH "github.com/yungbote/trailhead-backend/internal/http/handlers"
	httpMW "github.com/yungbote/trailhead-backend/internal/http/middleware"
	"github.com/yungbote/trailhead-backend/internal/platform/locks"
	"github.com/yungbote/trailhead-backend/internal/platform/objectstore"
	"github.com/yungbote/trailhead-backend/internal/realtime"
	"github.com/yungbote/trailhead-backend/internal/services"
)

type testServer struct {
	db    *gorm.DB
	api   *gin.Engine
	admin *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWith(t, nil)
}

// newTestServerWith lets a test adjust the router config before the engines are built.
func newTestServerWith(t *testing.T, tweak func(*RouterConfig)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.SQLite(t)
	log := testutil.Logger(t)
	bucket := objectstore.NewMemoryBucket("https://cdn.test")

	accounts := repos.NewUserAccountRepo(db, log)
	tokens := repos.NewUserTokenRepo(db, log)
	profiles := repos.NewProfileRepo(db, log)
	cities := repos.NewCityRepo(db, log)
	routes := repos.NewRouteRepo(db, log)
	tags := repos.NewTagRepo(db, log)
	routeTags := repos.NewRouteTagRepo(db, log)
	sections := repos.NewRouteSectionRepo(db, log)
	itineraries := repos.NewItineraryRepo(db, log)
	records := repos.NewHikingRecordRepo(db, log)
	media := repos.NewMediaRepo(db, log)
	favorites := repos.NewFavoriteRepo(db, log)

	hub := realtime.NewHub(log)
	notifier := services.NewHikingNotifier(&services.HubEmitter{Hub: hub})
	saga := services.NewSagaService(db, log, repos.NewSagaRunRepo(db, log), repos.NewSagaActionRepo(db, log), bucket, nil)

	auth := services.NewAuthService(db, log, accounts, profiles, tokens, nil, services.AuthConfig{JWTSecretKey: "router-test"})
	itinerary := services.NewItineraryService(db, log, itineraries, records, routes, notifier)
	checkIn := services.NewCheckInService(db, log, itinerary, itineraries, records, media, routes,
		repos.NewCheckInAttemptRepo(db, log), saga, bucket, locks.NewMemoryLocker(), notifier, nil, services.CheckInConfig{})
	record := services.NewRecordService(db, log, records, media, itineraries, itinerary, saga, notifier, nil)
	profile := services.NewProfileService(log, accounts, profiles, nil, notifier, services.ProfileConfig{})

	cfg := RouterConfig{
		AuthMiddleware: httpMW.NewAuthMiddleware(log, auth, profiles),

		HealthHandler:    httpH.NewHealthHandler(db),
		AuthHandler:      httpH.NewAuthHandler(auth),
		UserHandler:      httpH.NewUserHandler(profile, services.NewStatsService(log, records, itineraries, favorites)),
		CatalogHandler:   httpH.NewCatalogHandler(services.NewCatalogService(log, cities, routes, tags)),
		ItineraryHandler: httpH.NewItineraryHandler(itinerary),
		CheckInHandler:   httpH.NewCheckInHandler(checkIn),
		RecordHandler:    httpH.NewRecordHandler(record),
		FavoriteHandler:  httpH.NewFavoriteHandler(services.NewFavoriteService(log, favorites, routes)),
		RealtimeHandler:  httpH.NewRealtimeHandler(log, hub),

		AdminHandler: admin.NewHandler(
			log,
			services.NewAdminUserService(db, log, accounts, profiles, tokens, itineraries, nil, nil),
			services.NewAdminCatalogService(db, log, cities, routes, tags, routeTags, sections, nil),
			auth,
		),
	}
	if tweak != nil {
		tweak(&cfg)
	}
	return &testServer{db: db, api: NewRouter(cfg), admin: NewAdminRouter(cfg)}
}

func do(t *testing.T, h nethttp.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rdr = bytes.NewReader(raw)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

// signup registers and logs in, returning the profile id and access token.
func (s *testServer) signup(t *testing.T, email string) (string, string) {
	t.Helper()
	w := do(t, s.api, "POST", "/api/register", "", map[string]string{
		"email": email, "password": "hunter22", "username": "hiker",
	})
	if w.Code != nethttp.StatusCreated {
		t.Fatalf("register: want=201 got=%d body=%s", w.Code, w.Body.String())
	}
	var reg struct {
		Profile types.Profile `json:"profile"`
	}
	decode(t, w, &reg)

	w = do(t, s.api, "POST", "/api/login", "", map[string]string{"email": email, "password": "hunter22"})
	if w.Code != nethttp.StatusOK {
		t.Fatalf("login: want=200 got=%d body=%s", w.Code, w.Body.String())
	}
	var pair services.TokenPair
	decode(t, w, &pair)
	return reg.Profile.ID.String(), pair.AccessToken
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png: %v", err)
	}
	return buf.Bytes()
}

func checkInRequest(t *testing.T, token, itineraryID, idemKey string) *nethttp.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("itinerary_id", itineraryID)
	_ = mw.WriteField("distance", "5.5")
	_ = mw.WriteField("duration", "2h")
	_ = mw.WriteField("feelings", "windy on the ridge")
	fw, err := mw.CreateFormFile("files", "summit.png")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	_, _ = fw.Write(pngBytes(t))
	if err := mw.Close(); err != nil {
		t.Fatalf("multipart close: %v", err)
	}
	req := httptest.NewRequest("POST", "/api/check-ins", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Idempotency-Key", idemKey)
	return req
}

func TestHealthcheck(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s.api, "GET", "/healthcheck", "", nil)
	if w.Code != nethttp.StatusOK {
		t.Fatalf("healthcheck: want=200 got=%d", w.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/api/me", "/api/itineraries", "/api/records", "/api/favorites"} {
		w := do(t, s.api, "GET", path, "", nil)
		if w.Code != nethttp.StatusUnauthorized {
			t.Fatalf("%s: want=401 got=%d", path, w.Code)
		}
	}
}

func TestPlanCheckInDeleteFlow(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	_, token := s.signup(t, "flow@example.com")

	city := testutil.SeedCity(t, ctx, s.db, "Hangzhou")
	route := testutil.SeedRoute(t, ctx, s.db, city.ID, "Nine Creeks")

	w := do(t, s.api, "GET", "/api/cities/"+city.ID.String()+"/routes", "", nil)
	if w.Code != nethttp.StatusOK {
		t.Fatalf("city routes: want=200 got=%d body=%s", w.Code, w.Body.String())
	}

	w = do(t, s.api, "POST", "/api/itineraries", token, map[string]string{
		"route_id": route.ID.String(), "planned_date": "2026-05-01",
	})
	if w.Code != nethttp.StatusCreated {
		t.Fatalf("plan: want=201 got=%d body=%s", w.Code, w.Body.String())
	}
	var planned struct {
		Itinerary types.Itinerary `json:"itinerary"`
	}
	decode(t, w, &planned)

	w = httptest.NewRecorder()
	s.api.ServeHTTP(w, checkInRequest(t, token, planned.Itinerary.ID.String(), "idem-1"))
	if w.Code != nethttp.StatusCreated {
		t.Fatalf("check-in: want=201 got=%d body=%s", w.Code, w.Body.String())
	}
	var first services.CheckInResult
	decode(t, w, &first)
	if first.Record == nil || len(first.Media) != 1 {
		t.Fatalf("check-in: record=%v media=%d", first.Record, len(first.Media))
	}

	// Same key replays the stored outcome.
	w = httptest.NewRecorder()
	s.api.ServeHTTP(w, checkInRequest(t, token, planned.Itinerary.ID.String(), "idem-1"))
	if w.Code != nethttp.StatusOK {
		t.Fatalf("replay: want=200 got=%d body=%s", w.Code, w.Body.String())
	}
	var replay services.CheckInResult
	decode(t, w, &replay)
	if replay.Record == nil || replay.Record.ID != first.Record.ID {
		t.Fatalf("replay: want record %s", first.Record.ID)
	}

	w = do(t, s.api, "GET", "/api/me/stats", token, nil)
	if w.Code != nethttp.StatusOK {
		t.Fatalf("stats: want=200 got=%d", w.Code)
	}

	w = do(t, s.api, "DELETE", "/api/records/"+first.Record.ID.String(), token, nil)
	if w.Code != nethttp.StatusOK {
		t.Fatalf("delete record: want=200 got=%d body=%s", w.Code, w.Body.String())
	}
	var del services.RecordDeleteResult
	decode(t, w, &del)
	if !del.ItinerarySoftDeleted {
		t.Fatalf("delete record: last record should soft-delete the itinerary")
	}

	w = do(t, s.api, "GET", "/api/itineraries", token, nil)
	var list struct {
		Itineraries []types.Itinerary `json:"itineraries"`
	}
	decode(t, w, &list)
	if len(list.Itineraries) != 0 {
		t.Fatalf("itineraries after delete: want=0 got=%d", len(list.Itineraries))
	}
}

func TestCheckInValidationError(t *testing.T) {
	s := newTestServer(t)
	_, token := s.signup(t, "bad@example.com")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("route_id", "not-a-uuid")
	_ = mw.Close()
	req := httptest.NewRequest("POST", "/api/check-ins", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.api.ServeHTTP(w, req)
	if w.Code != nethttp.StatusBadRequest {
		t.Fatalf("check-in: want=400 got=%d", w.Code)
	}
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	decode(t, w, &env)
	if env.Error.Code != services.CodeValidation {
		t.Fatalf("code: want=%q got=%q", services.CodeValidation, env.Error.Code)
	}
}

func TestAdminMiddleware(t *testing.T) {
	s := newTestServer(t)
	userID, token := s.signup(t, "plain@example.com")

	w := do(t, s.admin, "GET", "/api/users", "", nil)
	if w.Code != nethttp.StatusUnauthorized {
		t.Fatalf("no token: want=401 got=%d", w.Code)
	}
	var env struct {
		Error string `json:"error"`
	}
	decode(t, w, &env)
	if env.Error == "" {
		t.Fatalf("no token: want error message")
	}

	w = do(t, s.admin, "GET", "/api/users", "garbage", nil)
	if w.Code != nethttp.StatusUnauthorized {
		t.Fatalf("bad token: want=401 got=%d", w.Code)
	}

	w = do(t, s.admin, "GET", "/api/users", token, nil)
	if w.Code != nethttp.StatusForbidden {
		t.Fatalf("non-admin: want=403 got=%d", w.Code)
	}

	if err := s.db.Model(&types.Profile{}).Where("id = ?", userID).Update("role", types.RoleAdmin).Error; err != nil {
		t.Fatalf("promote: %v", err)
	}
	w = do(t, s.admin, "GET", "/api/users?page=1&limit=5", token, nil)
	if w.Code != nethttp.StatusOK {
		t.Fatalf("admin: want=200 got=%d body=%s", w.Code, w.Body.String())
	}
	var page struct {
		Data       []map[string]any `json:"data"`
		Pagination struct {
			Page       int   `json:"page"`
			Limit      int   `json:"limit"`
			Total      int64 `json:"total"`
			TotalPages int64 `json:"totalPages"`
		} `json:"pagination"`
	}
	decode(t, w, &page)
	if page.Pagination.Total != 1 || page.Pagination.Limit != 5 || page.Pagination.TotalPages != 1 {
		t.Fatalf("pagination: got=%+v", page.Pagination)
	}
}

func TestAdminTagLifecycle(t *testing.T) {
	s := newTestServer(t)
	userID, token := s.signup(t, "boss@example.com")
	if err := s.db.Model(&types.Profile{}).Where("id = ?", userID).Update("role", types.RoleAdmin).Error; err != nil {
		t.Fatalf("promote: %v", err)
	}

	w := do(t, s.admin, "POST", "/api/tags", token, map[string]string{"name": "waterfall"})
	if w.Code != nethttp.StatusCreated {
		t.Fatalf("create tag: want=201 got=%d body=%s", w.Code, w.Body.String())
	}
	var created struct {
		Message string    `json:"message"`
		Tag     types.Tag `json:"tag"`
	}
	decode(t, w, &created)
	if created.Message == "" || created.Tag.Name != "waterfall" {
		t.Fatalf("create tag: got=%+v", created)
	}

	w = do(t, s.admin, "POST", "/api/tags", token, map[string]string{"name": "waterfall"})
	if w.Code != nethttp.StatusConflict {
		t.Fatalf("duplicate tag: want=409 got=%d", w.Code)
	}

	w = do(t, s.admin, "GET", "/api/tags/all", token, nil)
	var all struct {
		Data []types.Tag `json:"data"`
	}
	decode(t, w, &all)
	if len(all.Data) != 1 {
		t.Fatalf("tags/all: want=1 got=%d", len(all.Data))
	}

	w = do(t, s.admin, "DELETE", "/api/tags/"+created.Tag.ID.String(), token, nil)
	if w.Code != nethttp.StatusOK {
		t.Fatalf("delete tag: want=200 got=%d", w.Code)
	}
	w = do(t, s.admin, "DELETE", "/api/tags/"+created.Tag.ID.String(), token, nil)
	if w.Code != nethttp.StatusNotFound {
		t.Fatalf("delete missing tag: want=404 got=%d", w.Code)
	}
}

func TestAdminCheckEmail(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, "known@example.com")

	w := do(t, s.admin, "POST", "/api/auth/check-email", "", map[string]string{})
	if w.Code != nethttp.StatusBadRequest {
		t.Fatalf("missing email: want=400 got=%d", w.Code)
	}

	w = do(t, s.admin, "POST", "/api/auth/check-email", "", map[string]string{"email": "known@example.com"})
	var out struct {
		Exists bool `json:"exists"`
	}
	decode(t, w, &out)
	if !out.Exists {
		t.Fatalf("check-email: want exists=true")
	}

	w = do(t, s.admin, "POST", "/api/auth/check-email", "", map[string]string{"email": "nobody@example.com"})
	decode(t, w, &out)
	if out.Exists {
		t.Fatalf("check-email: want exists=false")
	}
}

// videoCheckIn builds a route check-in carrying n mp4 parts of size bytes each.
func videoCheckIn(t *testing.T, token, routeID string, n, size int) *nethttp.Request {
	t.Helper()
	clip := make([]byte, size)
	copy(clip, []byte("\x00\x00\x00\x18ftypisom\x00\x00\x02\x00isomiso2"))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("route_id", routeID)
	_ = mw.WriteField("distance", "12.5")
	_ = mw.WriteField("duration", "5h")
	for i := 0; i < n; i++ {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="clip%d.mp4"`, i))
		h.Set("Content-Type", "video/mp4")
		pw, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("CreatePart: %v", err)
		}
		_, _ = pw.Write(clip)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("multipart close: %v", err)
	}
	req := httptest.NewRequest("POST", "/api/check-ins", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestCheckInBodyCapIsSeparateFromGlobalCap(t *testing.T) {
	const (
		globalCap  = 1 << 20
		checkInCap = 12 << 20
	)
	s := newTestServerWith(t, func(cfg *RouterConfig) {
		cfg.MaxBodyBytes = globalCap
		cfg.CheckInMaxBodyBytes = checkInCap
	})
	ctx := context.Background()
	_, token := s.signup(t, "videos@example.com")
	city := testutil.SeedCity(t, ctx, s.db, "Lijiang")
	route := testutil.SeedRoute(t, ctx, s.db, city.ID, "Tiger Leaping Gorge")

	// Two 5 MB videos: far above the global cap, inside the check-in cap.
	w := httptest.NewRecorder()
	s.api.ServeHTTP(w, videoCheckIn(t, token, route.ID.String(), 2, 5<<20))
	if w.Code != nethttp.StatusCreated {
		t.Fatalf("video check-in: want=201 got=%d body=%s", w.Code, w.Body.String())
	}
	var res services.CheckInResult
	decode(t, w, &res)
	if len(res.Media) != 2 || len(res.FailedMedia) != 0 {
		t.Fatalf("video check-in: media=%d failed=%d", len(res.Media), len(res.FailedMedia))
	}
	for _, m := range res.Media {
		if m.Type != types.MediaVideo {
			t.Fatalf("media type: want=%q got=%q", types.MediaVideo, m.Type)
		}
	}

	// Past the check-in cap the form cannot be parsed.
	w = httptest.NewRecorder()
	s.api.ServeHTTP(w, videoCheckIn(t, token, route.ID.String(), 3, 5<<20))
	if w.Code != nethttp.StatusBadRequest {
		t.Fatalf("oversized check-in: want=400 got=%d", w.Code)
	}

	// Other routes keep the global cap.
	w = do(t, s.api, "PUT", "/api/me/profile", token, map[string]string{
		"username": "hiker", "avatar_url": strings.Repeat("a", globalCap),
	})
	if w.Code != nethttp.StatusBadRequest {
		t.Fatalf("oversized profile update: want=400 got=%d body=%s", w.Code, w.Body.String())
	}
}

func TestDefaultCheckInCapFitsNineVideos(t *testing.T) {
	if services.MaxCheckInBodyBytes <= services.MaxCheckInFiles*services.MaxVideoBytes {
		t.Fatalf("check-in cap %d does not fit %d videos of %d bytes",
			services.MaxCheckInBodyBytes, services.MaxCheckInFiles, services.MaxVideoBytes)
	}
}
