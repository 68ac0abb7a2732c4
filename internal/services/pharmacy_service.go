package services

import (
	"context"
	"errors"
	"os"
	"time"

	"googlemaps.github.io/maps"
)

var (
	mapsClient  *maps.Client
	ErrNoAPIKey = errors.New("GOOGLE_MAPS_API_KEY environment variable not set")
)

// Pharmacy is a nearby pharmacy result returned to the dashboard
type Pharmacy struct {
	PlaceID          string  `json:"place_id"`
	Name             string  `json:"name"`
	FormattedAddress string  `json:"formatted_address"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	Open             *bool   `json:"open,omitempty"`
}

// InitMapsClient initializes the Google Maps client
func InitMapsClient() error {
	apiKey := os.Getenv("GOOGLE_MAPS_API_KEY")
	if apiKey == "" {
		return ErrNoAPIKey
	}

	var err error
	mapsClient, err = maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return err
	}

	return nil
}

// SearchPharmacies finds pharmacies matching a query, optionally biased
// around the caller's coordinates
func SearchPharmacies(query string, lat, lng float64) ([]Pharmacy, error) {
	if mapsClient == nil {
		if err := InitMapsClient(); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	request := &maps.TextSearchRequest{
		Query: query + " pharmacy",
		Type:  maps.PlaceTypePharmacy,
	}
	if lat != 0 || lng != 0 {
		request.Location = &maps.LatLng{Lat: lat, Lng: lng}
		request.Radius = 5000
	}

	response, err := mapsClient.TextSearch(ctx, request)
	if err != nil {
		return nil, err
	}

	pharmacies := make([]Pharmacy, 0, len(response.Results))
	for _, result := range response.Results {
		pharmacy := Pharmacy{
			PlaceID:          result.PlaceID,
			Name:             result.Name,
			FormattedAddress: result.FormattedAddress,
			Latitude:         result.Geometry.Location.Lat,
			Longitude:        result.Geometry.Location.Lng,
		}
		if result.OpeningHours != nil {
			pharmacy.Open = result.OpeningHours.OpenNow
		}
		pharmacies = append(pharmacies, pharmacy)
	}

	return pharmacies, nil
}

// ValidatePharmacy fetches standardized details for a Place ID
func ValidatePharmacy(placeID string) (*Pharmacy, error) {
	if mapsClient == nil {
		if err := InitMapsClient(); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	request := &maps.PlaceDetailsRequest{
		PlaceID: placeID,
		Fields: []maps.PlaceDetailsFieldMask{
			maps.PlaceDetailsFieldMaskGeometry,
			maps.PlaceDetailsFieldMaskFormattedAddress,
			maps.PlaceDetailsFieldMaskName,
			maps.PlaceDetailsFieldMaskPlaceID,
		},
	}

	response, err := mapsClient.PlaceDetails(ctx, request)
	if err != nil {
		return nil, err
	}

	return &Pharmacy{
		PlaceID:          response.PlaceID,
		Name:             response.Name,
		FormattedAddress: response.FormattedAddress,
		Latitude:         response.Geometry.Location.Lat,
		Longitude:        response.Geometry.Location.Lng,
	}, nil
}
