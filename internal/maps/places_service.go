// README: Google Maps geocoding and attraction text search used by the points-of-interest handlers.
package maps

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"googlemaps.github.io/maps"

	"wayfarer/internal/modules/provider"
)

var ErrNoResults = errors.New("maps: no results")

// MinRating drops low-rated attractions from text search results.
const MinRating = 3.5

// PlacesService handles interactions with Google Geocoding and Places APIs.
type PlacesService struct {
	client *maps.Client
	log    *zap.Logger
}

// NewPlacesService creates a new PlacesService with the given API Key.
// Extra options (for example maps.WithBaseURL) are passed to the client.
func NewPlacesService(apiKey string, log *zap.Logger, opts ...maps.ClientOption) (*PlacesService, error) {
	client, err := maps.NewClient(append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &PlacesService{client: client, log: log}, nil
}

// Geocode returns the coordinates of the first match for a place name.
func (s *PlacesService) Geocode(ctx context.Context, place string) (float64, float64, error) {
	results, err := s.client.Geocode(ctx, &maps.GeocodingRequest{Address: place})
	if err != nil {
		return 0, 0, fmt.Errorf("geocoding api error: %w", err)
	}
	if len(results) == 0 {
		return 0, 0, fmt.Errorf("%w: geocode %q", ErrNoResults, place)
	}
	loc := results[0].Geometry.Location
	return loc.Lat, loc.Lng, nil
}

// Attractions searches for sights in a city, ranked in the order Google returns them.
func (s *PlacesService) Attractions(ctx context.Context, city string) ([]provider.PointOfInterest, error) {
	r := &maps.TextSearchRequest{
		Query:    fmt.Sprintf("top tourist attractions in %s", city),
		Language: "en",
	}
	resp, err := s.client.TextSearch(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("places api error: %w", err)
	}

	seen := make(map[string]bool)
	var out []provider.PointOfInterest
	for _, result := range resp.Results {
		if result.Rating > 0 && result.Rating < MinRating {
			continue
		}
		if result.PlaceID != "" {
			if seen[result.PlaceID] {
				continue
			}
			seen[result.PlaceID] = true
		}
		out = append(out, provider.PointOfInterest{
			Name:     result.Name,
			Category: category(result.Types),
			Rank:     len(out) + 1,
			Tags:     tags(result.Types),
			GeoCode: provider.GeoCode{
				Latitude:  result.Geometry.Location.Lat,
				Longitude: result.Geometry.Location.Lng,
			},
		})
	}
	s.log.Debug("places text search", zap.String("city", city), zap.Int("results", len(resp.Results)), zap.Int("kept", len(out)))
	return out, nil
}

var categoryByType = map[string]string{
	"museum":             "SIGHTS",
	"art_gallery":        "SIGHTS",
	"church":             "SIGHTS",
	"tourist_attraction": "SIGHTS",
	"park":               "BEACH_PARK",
	"natural_feature":    "BEACH_PARK",
	"restaurant":         "RESTAURANT",
	"cafe":               "RESTAURANT",
	"bar":                "NIGHTLIFE",
	"night_club":         "NIGHTLIFE",
	"shopping_mall":      "SHOPPING",
	"store":              "SHOPPING",
}

// category maps Google place types onto the provider's POI categories.
func category(types []string) string {
	for _, t := range types {
		if c, ok := categoryByType[t]; ok {
			return c
		}
	}
	return "SIGHTS"
}

func tags(types []string) []string {
	var out []string
	for _, t := range types {
		if t == "point_of_interest" || t == "establishment" {
			continue
		}
		out = append(out, strings.ReplaceAll(t, "_", " "))
	}
	return out
}
