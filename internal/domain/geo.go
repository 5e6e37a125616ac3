package domain

import (
	"math"
	"sort"
)

const earthRadiusKm = 6371.0

// DistanceKm is the haversine great-circle distance in kilometers.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180.0
	dLon := (lon2 - lon1) * math.Pi / 180.0

	lat1Rad := lat1 * math.Pi / 180.0
	lat2Rad := lat2 * math.Pi / 180.0

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1Rad)*math.Cos(lat2Rad)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// SortByDistance returns copies of spots with Distance set, nearest first.
// Equal distances keep their input order. The input is left untouched.
func SortByDistance(spots []TouristSpot, origin Coordinates) []TouristSpot {
	out := make([]TouristSpot, len(spots))
	for i, s := range spots {
		d := DistanceKm(origin.Latitude, origin.Longitude, s.Coordinates.Latitude, s.Coordinates.Longitude)
		s.Distance = &d
		out[i] = s
	}
	sort.SliceStable(out, func(i, j int) bool { return *out[i].Distance < *out[j].Distance })
	return out
}

func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
