package geo

import (
	"cardbook/internal/models"
	"strings"

	"golang.org/x/text/cases"
)

// knownCities is the offline fallback used when the geocoding API fails.
// Keys are case-folded city names.
var knownCities = map[string]models.Coordinates{
	"new york":      {Lat: 40.7128, Lng: -74.0060},
	"los angeles":   {Lat: 34.0522, Lng: -118.2437},
	"chicago":       {Lat: 41.8781, Lng: -87.6298},
	"san francisco": {Lat: 37.7749, Lng: -122.4194},
	"boston":        {Lat: 42.3601, Lng: -71.0589},
	"seattle":       {Lat: 47.6062, Lng: -122.3321},
	"toronto":       {Lat: 43.6532, Lng: -79.3832},
	"vancouver":     {Lat: 49.2827, Lng: -123.1207},
	"mexico city":   {Lat: 19.4326, Lng: -99.1332},
	"são paulo":     {Lat: -23.5505, Lng: -46.6333},
	"sao paulo":     {Lat: -23.5505, Lng: -46.6333},
	"buenos aires":  {Lat: -34.6037, Lng: -58.3816},
	"london":        {Lat: 51.5074, Lng: -0.1278},
	"paris":         {Lat: 48.8566, Lng: 2.3522},
	"berlin":        {Lat: 52.5200, Lng: 13.4050},
	"munich":        {Lat: 48.1351, Lng: 11.5820},
	"madrid":        {Lat: 40.4168, Lng: -3.7038},
	"barcelona":     {Lat: 41.3874, Lng: 2.1686},
	"rome":          {Lat: 41.9028, Lng: 12.4964},
	"milan":         {Lat: 45.4642, Lng: 9.1900},
	"amsterdam":     {Lat: 52.3676, Lng: 4.9041},
	"brussels":      {Lat: 50.8503, Lng: 4.3517},
	"zurich":        {Lat: 47.3769, Lng: 8.5417},
	"vienna":        {Lat: 48.2082, Lng: 16.3738},
	"stockholm":     {Lat: 59.3293, Lng: 18.0686},
	"dublin":        {Lat: 53.3498, Lng: -6.2603},
	"lisbon":        {Lat: 38.7223, Lng: -9.1393},
	"warsaw":        {Lat: 52.2297, Lng: 21.0122},
	"istanbul":      {Lat: 41.0082, Lng: 28.9784},
	"moscow":        {Lat: 55.7558, Lng: 37.6173},
	"cairo":         {Lat: 30.0444, Lng: 31.2357},
	"lagos":         {Lat: 6.5244, Lng: 3.3792},
	"nairobi":       {Lat: -1.2921, Lng: 36.8219},
	"johannesburg":  {Lat: -26.2041, Lng: 28.0473},
	"dubai":         {Lat: 25.2048, Lng: 55.2708},
	"mumbai":        {Lat: 19.0760, Lng: 72.8777},
	"delhi":         {Lat: 28.7041, Lng: 77.1025},
	"bangalore":     {Lat: 12.9716, Lng: 77.5946},
	"singapore":     {Lat: 1.3521, Lng: 103.8198},
	"hong kong":     {Lat: 22.3193, Lng: 114.1694},
	"shanghai":      {Lat: 31.2304, Lng: 121.4737},
	"beijing":       {Lat: 39.9042, Lng: 116.4074},
	"seoul":         {Lat: 37.5665, Lng: 126.9780},
	"tokyo":         {Lat: 35.6762, Lng: 139.6503},
	"sydney":        {Lat: -33.8688, Lng: 151.2093},
	"melbourne":     {Lat: -37.8136, Lng: 144.9631},
	"auckland":      {Lat: -36.8485, Lng: 174.7633},
}

// worldCentroid is where callers drop a pin when nothing resolves.
var worldCentroid = models.Coordinates{Lat: 20, Lng: 0}

// LookupCity checks the fallback table.
func LookupCity(city string) (models.Coordinates, bool) {
	key := cases.Fold().String(strings.TrimSpace(city))
	if key == "" {
		return models.Coordinates{}, false
	}
	c, ok := knownCities[key]
	return c, ok
}

// DefaultLocation is the approximate pin for contacts nothing could place.
func DefaultLocation() models.GeocodeResult {
	return models.GeocodeResult{Coordinates: worldCentroid, Source: SourceDefault, Approximate: true}
}
