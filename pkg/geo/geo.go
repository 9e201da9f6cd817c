package geo

import (
	"errors"
	"math"
)

// EarthRadiusKM is the mean Earth radius used by the haversine formula.
const EarthRadiusKM = 6371.0

var (
	ErrLatitudeOutOfRange  = errors.New("latitude must be between -90 and 90")
	ErrLongitudeOutOfRange = errors.New("longitude must be between -180 and 180")
	ErrNullIsland          = errors.New("coordinates (0, 0) are not a valid location")
	ErrPartialCoordinates  = errors.New("latitude and longitude must both be set or both be empty")
)

// Point is a latitude/longitude pair in decimal degrees.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// DistanceKM returns the great-circle distance between two points in kilometres.
// Any finite input is accepted; range checks belong to the caller.
func DistanceKM(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := toRadians(lat1)
	phi2 := toRadians(lat2)
	dPhi := toRadians(lat2 - lat1)
	dLambda := toRadians(lon2 - lon1)

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	a := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda

	// Rounding can push a marginally above 1 for antipodal points.
	if a > 1 {
		a = 1
	}

	return 2 * EarthRadiusKM * math.Asin(math.Sqrt(a))
}

// Distance is DistanceKM over Points.
func Distance(from, to Point) float64 {
	return DistanceKM(from.Latitude, from.Longitude, to.Latitude, to.Longitude)
}

// ValidateRange checks that lat/lng fall inside their ranges.
func ValidateRange(lat, lng float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return ErrLatitudeOutOfRange
	}
	if math.IsNaN(lng) || lng < -180 || lng > 180 {
		return ErrLongitudeOutOfRange
	}
	return nil
}

// Validate checks ranges and rejects the (0, 0) placeholder pair.
func Validate(lat, lng float64) error {
	if err := ValidateRange(lat, lng); err != nil {
		return err
	}
	if lat == 0 && lng == 0 {
		return ErrNullIsland
	}
	return nil
}

// ValidateOptional validates a nullable coordinate pair: both nil, or both set and valid.
func ValidateOptional(lat, lng *float64) error {
	if lat == nil && lng == nil {
		return nil
	}
	if lat == nil || lng == nil {
		return ErrPartialCoordinates
	}
	return Validate(*lat, *lng)
}

// Validate applies Validate to the point.
func (p Point) Validate() error {
	return Validate(p.Latitude, p.Longitude)
}

// Equal reports whether both points have identical coordinates.
func (p Point) Equal(other Point) bool {
	return p.Latitude == other.Latitude && p.Longitude == other.Longitude
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
