package config

const (
	// DefaultPort is the default HTTP server port.
	DefaultPort = "8080"

	// DefaultBackendURL is the upstream property API endpoint.
	DefaultBackendURL = "https://api.sakanhub.com/api"

	// DefaultGeocoderURL is the geocoding service endpoint.
	DefaultGeocoderURL = "https://nominatim.openstreetmap.org"

	// DefaultUploadOrigin is the origin the backend prepends to uploaded
	// asset paths. Create payloads carry the path with this prefix
	// stripped; update payloads carry the absolute URL as returned.
	DefaultUploadOrigin = "https://cdn.sakanhub.com"

	// DefaultDatabaseURL is empty; session autosave is disabled unless
	// provided via flag or environment.
	DefaultDatabaseURL = ""

	// FallbackLatitude and FallbackLongitude center new listings on
	// Riyadh when a record carries no coordinates.
	FallbackLatitude  = 24.7136
	FallbackLongitude = 46.6753

	// DefaultMapZoom is the initial map zoom level.
	DefaultMapZoom = 15

	// PlaceSelectZoom is applied after a successful place search.
	PlaceSelectZoom = 17

	// DefaultRateLimit is the default requests per minute per IP address.
	DefaultRateLimit = 100
)
