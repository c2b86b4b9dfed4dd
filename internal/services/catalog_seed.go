package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/trailhead-backend/internal/data/repos"
	types "github.com/yungbote/trailhead-backend/internal/domain"
	"github.com/yungbote/trailhead-backend/internal/platform/dbctx"
	"github.com/yungbote/trailhead-backend/internal/platform/logger"
)

// CatalogFile is the YAML layout accepted by the catalog seeder.
type CatalogFile struct {
	Tags   []string      `yaml:"tags"`
	Cities []CitySeedDoc `yaml:"cities"`
}

type CitySeedDoc struct {
	Name        string         `yaml:"name"`
	District    string         `yaml:"district"`
	Description string         `yaml:"description"`
	ImageURL    string         `yaml:"image_url"`
	Routes      []RouteSeedDoc `yaml:"routes"`
}

type RouteSeedDoc struct {
	Name          string         `yaml:"name"`
	Difficulty    int            `yaml:"difficulty"`
	DurationHours float64        `yaml:"duration_hours"`
	DistanceKM    float64        `yaml:"distance_km"`
	CoverImageURL string         `yaml:"cover_image_url"`
	Status        string         `yaml:"status"`
	StartPoint    string         `yaml:"start_point"`
	EndPoint      string         `yaml:"end_point"`
	Description   string         `yaml:"description"`
	Tags          []string       `yaml:"tags"`
	Waypoints     interface{}    `yaml:"waypoints"`
	Images        []string       `yaml:"images"`
	Sections      []SectionInput `yaml:"sections"`
}

type SeedResult struct {
	TagsCreated   int `json:"tags_created"`
	CitiesCreated int `json:"cities_created"`
	RoutesCreated int `json:"routes_created"`
}

// CatalogSeeder loads cities, routes and tags from YAML. Entries are matched by
// case-insensitive name; existing rows are left as they are, so reruns are no-ops.
type CatalogSeeder struct {
	db        *gorm.DB
	log       *logger.Logger
	cities    repos.CityRepo
	routes    repos.RouteRepo
	tags      repos.TagRepo
	routeTags repos.RouteTagRepo
	sections  repos.RouteSectionRepo
}

func NewCatalogSeeder(
	db *gorm.DB,
	baseLog *logger.Logger,
	cities repos.CityRepo,
	routes repos.RouteRepo,
	tags repos.TagRepo,
	routeTags repos.RouteTagRepo,
	sections repos.RouteSectionRepo,
) *CatalogSeeder {
	return &CatalogSeeder{
		db:        db,
		log:       baseLog.With("service", "CatalogSeeder"),
		cities:    cities,
		routes:    routes,
		tags:      tags,
		routeTags: routeTags,
		sections:  sections,
	}
}

func (s *CatalogSeeder) LoadFile(ctx context.Context, path string) (*SeedResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog seed: %w", err)
	}
	defer f.Close()
	return s.Load(ctx, f)
}

func (s *CatalogSeeder) Load(ctx context.Context, r io.Reader) (*SeedResult, error) {
	var doc CatalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode catalog seed: %w", err)
	}

	out := &SeedResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		tagIDs, err := s.ensureTags(dbc, doc, out)
		if err != nil {
			return err
		}
		existingCities, err := s.cities.ListAll(dbc)
		if err != nil {
			return fmt.Errorf("list cities: %w", err)
		}
		cityByName := map[string]*types.City{}
		for _, c := range existingCities {
			cityByName[seedKey(c.Name)] = c
		}
		for _, cd := range doc.Cities {
			if strings.TrimSpace(cd.Name) == "" {
				return fmt.Errorf("city without a name")
			}
			city := cityByName[seedKey(cd.Name)]
			if city == nil {
				city = &types.City{
					Name:        strings.TrimSpace(cd.Name),
					District:    strings.TrimSpace(cd.District),
					Description: cd.Description,
					ImageURL:    strings.TrimSpace(cd.ImageURL),
				}
				if _, err := s.cities.Create(dbc, city); err != nil {
					return fmt.Errorf("create city %q: %w", cd.Name, err)
				}
				cityByName[seedKey(cd.Name)] = city
				out.CitiesCreated++
			}
			if err := s.ensureRoutes(dbc, city, cd.Routes, tagIDs, out); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("catalog seed applied",
		"tags_created", out.TagsCreated,
		"cities_created", out.CitiesCreated,
		"routes_created", out.RoutesCreated,
	)
	return out, nil
}

func seedKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ensureTags creates every tag named at the top level or on a route and returns the
// full name to id index.
func (s *CatalogSeeder) ensureTags(dbc dbctx.Context, doc CatalogFile, out *SeedResult) (map[string]*types.Tag, error) {
	existing, err := s.tags.ListAll(dbc)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	byName := map[string]*types.Tag{}
	for _, t := range existing {
		byName[seedKey(t.Name)] = t
	}
	want := append([]string{}, doc.Tags...)
	for _, c := range doc.Cities {
		for _, r := range c.Routes {
			want = append(want, r.Tags...)
		}
	}
	for _, name := range want {
		key := seedKey(name)
		if key == "" || byName[key] != nil {
			continue
		}
		t := &types.Tag{Name: strings.TrimSpace(name)}
		if _, err := s.tags.Create(dbc, t); err != nil {
			return nil, fmt.Errorf("create tag %q: %w", name, err)
		}
		byName[key] = t
		out.TagsCreated++
	}
	return byName, nil
}

func (s *CatalogSeeder) ensureRoutes(dbc dbctx.Context, city *types.City, docs []RouteSeedDoc, tags map[string]*types.Tag, out *SeedResult) error {
	existing, err := s.routes.ListByCity(dbc, city.ID, false)
	if err != nil {
		return fmt.Errorf("list routes of %q: %w", city.Name, err)
	}
	have := map[string]bool{}
	for _, r := range existing {
		have[seedKey(r.Name)] = true
	}
	for _, rd := range docs {
		key := seedKey(rd.Name)
		if key == "" {
			return fmt.Errorf("route without a name in %q", city.Name)
		}
		if have[key] {
			continue
		}
		row := &types.Route{
			CityID:        city.ID,
			Name:          strings.TrimSpace(rd.Name),
			Difficulty:    rd.Difficulty,
			DurationHours: rd.DurationHours,
			DistanceKM:    rd.DistanceKM,
			CoverImageURL: strings.TrimSpace(rd.CoverImageURL),
			Status:        strings.TrimSpace(rd.Status),
			StartPoint:    rd.StartPoint,
			EndPoint:      rd.EndPoint,
			Description:   rd.Description,
		}
		if rd.Waypoints != nil {
			raw, err := json.Marshal(rd.Waypoints)
			if err != nil {
				return fmt.Errorf("route %q waypoints: %w", rd.Name, err)
			}
			row.Waypoints = datatypes.JSON(raw)
		}
		if len(rd.Images) > 0 {
			raw, _ := json.Marshal(rd.Images)
			row.Images = datatypes.JSON(raw)
		}
		if _, err := s.routes.Create(dbc, row); err != nil {
			return fmt.Errorf("create route %q: %w", rd.Name, err)
		}

		ids := make([]uuid.UUID, 0, len(rd.Tags))
		for _, name := range rd.Tags {
			if t := tags[seedKey(name)]; t != nil {
				ids = append(ids, t.ID)
			}
		}
		if err := s.routeTags.ReplaceForRoute(dbc, row.ID, ids); err != nil {
			return fmt.Errorf("tag route %q: %w", rd.Name, err)
		}

		sections := make([]*types.RouteSection, 0, len(rd.Sections))
		for i, sec := range rd.Sections {
			sections = append(sections, &types.RouteSection{
				RouteID:   row.ID,
				SortOrder: i + 1,
				Title:     strings.TrimSpace(sec.Title),
				Content:   sec.Content,
				ImageURL:  strings.TrimSpace(sec.ImageURL),
			})
		}
		if _, err := s.sections.Create(dbc, sections); err != nil {
			return fmt.Errorf("sections of %q: %w", rd.Name, err)
		}
		have[key] = true
		out.RoutesCreated++
	}
	return nil
}
