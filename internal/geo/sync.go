package geo

import (
	"context"
	"fmt"
)

// Store is the slice of form state the map sync reads and writes: the
// shared {latitude, longitude, address} output.
type Store interface {
	Coordinates() (lat, lng float64)
	SetCoordinates(lat, lng float64)
	SetAddress(address string)
}

// MapState mirrors the map/marker pair shown to the user.
type MapState struct {
	CenterLat float64 `json:"center_lat"`
	CenterLng float64 `json:"center_lng"`
	Zoom      int     `json:"zoom"`
	MarkerLat float64 `json:"marker_lat"`
	MarkerLng float64 `json:"marker_lng"`
}

// Sync keeps latitude/longitude/address mutually consistent across the
// three input channels: marker drag, place search and device location.
// Failures leave previously-held state untouched.
type Sync struct {
	store       Store
	geocoder    Geocoder
	defaultZoom int
	searchZoom  int

	Map MapState
}

// NewSync creates a map sync over the given store. The map is centered on
// the record's current coordinates with one draggable marker there.
func NewSync(store Store, geocoder Geocoder, defaultZoom, searchZoom int) *Sync {
	s := &Sync{
		store:       store,
		geocoder:    geocoder,
		defaultZoom: defaultZoom,
		searchZoom:  searchZoom,
	}
	s.Init()
	return s
}

// Init recenters the map and marker on the record's coordinates. Called on
// first mount and again whenever coordinates are written from outside the
// map, which recreates the map instance.
func (s *Sync) Init() {
	lat, lng := s.store.Coordinates()
	s.Map = MapState{
		CenterLat: lat,
		CenterLng: lng,
		Zoom:      s.defaultZoom,
		MarkerLat: lat,
		MarkerLng: lng,
	}
}

// DragMarker handles a marker drag end: the new coordinates are written
// immediately (the marker is authoritative), then the address is
// overwritten from a reverse geocode. A geocode failure leaves the address
// untouched.
func (s *Sync) DragMarker(ctx context.Context, lat, lng float64) error {
	s.Map.MarkerLat, s.Map.MarkerLng = lat, lng
	s.store.SetCoordinates(lat, lng)

	address, err := s.geocoder.ReverseGeocode(ctx, lat, lng)
	if err != nil {
		return fmt.Errorf("reverse geocode: %w", err)
	}
	s.store.SetAddress(address)
	return nil
}

// SelectPlace handles a search-box selection: marker, center, zoom,
// coordinates and address all move to the selected place. The place carries
// its own formatted address, so no reverse geocode is needed.
func (s *Sync) SelectPlace(ctx context.Context, query string) (*Place, error) {
	place, err := s.geocoder.SearchPlace(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("place search: %w", err)
	}

	s.Map = MapState{
		CenterLat: place.Latitude,
		CenterLng: place.Longitude,
		Zoom:      s.searchZoom,
		MarkerLat: place.Latitude,
		MarkerLng: place.Longitude,
	}
	s.store.SetCoordinates(place.Latitude, place.Longitude)
	s.store.SetAddress(place.Address)
	return place, nil
}

// UseCurrentLocation moves the marker and map to the device position and
// writes the coordinates. The address is deliberately not updated on this
// path; only marker drags and place searches touch it. The locator is an
// input: the device reading arrives with each invocation.
func (s *Sync) UseCurrentLocation(ctx context.Context, locator DeviceLocator) error {
	lat, lng, err := locator.CurrentLocation(ctx)
	if err != nil {
		return fmt.Errorf("device location: %w", err)
	}

	s.Map.CenterLat, s.Map.CenterLng = lat, lng
	s.Map.MarkerLat, s.Map.MarkerLng = lat, lng
	s.store.SetCoordinates(lat, lng)
	return nil
}
