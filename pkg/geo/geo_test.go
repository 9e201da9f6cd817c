package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestDistanceKM_KnownDistances checks the haversine result against known straight-line distances
func TestDistanceKM_KnownDistances(t *testing.T) {
	tests := []struct {
		name       string
		lat1, lon1 float64
		lat2, lon2 float64
		minKM      float64
		maxKM      float64
	}{
		{
			name: "New Delhi to Noida",
			lat1: 28.7041, lon1: 77.1025,
			lat2: 28.5355, lon2: 77.3910,
			minKM: 33, maxKM: 35,
		},
		{
			name: "Bangalore to Mysore",
			lat1: 12.9716, lon1: 77.5946,
			lat2: 12.2958, lon2: 76.6394,
			minKM: 118, maxKM: 138,
		},
		{
			name: "Bangalore drivers about 3km apart",
			lat1: 12.9716, lon1: 77.5946,
			lat2: 13.0000, lon2: 77.6000,
			minKM: 2.9, maxKM: 3.4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := DistanceKM(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			assert.GreaterOrEqual(t, d, tt.minKM)
			assert.LessOrEqual(t, d, tt.maxKM)
		})
	}
}

func TestDistanceKM_Symmetry(t *testing.T) {
	points := []Point{
		{28.7041, 77.1025},
		{28.5355, 77.3910},
		{-33.8688, 151.2093},
		{51.5074, -0.1278},
		{89.9, 179.9},
		{-89.9, -179.9},
	}

	for _, a := range points {
		assert.Equal(t, 0.0, Distance(a, a), "distance to self must be zero")
		for _, b := range points {
			assert.InDelta(t, Distance(a, b), Distance(b, a), 1e-9)
			assert.GreaterOrEqual(t, Distance(a, b), 0.0)
		}
	}
}

func TestDistanceKM_Antipodal(t *testing.T) {
	d := DistanceKM(0, 0, 0, 180)
	assert.InDelta(t, 3.141592653589793*EarthRadiusKM, d, 1e-6)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		lng     float64
		wantErr error
	}{
		{"valid", 12.9716, 77.5946, nil},
		{"bounds inclusive", 90, -180, nil},
		{"zero latitude only", 0, 77.5, nil},
		{"latitude too high", 91, 0, ErrLatitudeOutOfRange},
		{"latitude too low", -90.0001, 10, ErrLatitudeOutOfRange},
		{"longitude too high", 10, 180.5, ErrLongitudeOutOfRange},
		{"null island", 0, 0, ErrNullIsland},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.lat, tt.lng)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateRange_AllowsNullIsland(t *testing.T) {
	assert.NoError(t, ValidateRange(0, 0))
}

func TestValidateOptional(t *testing.T) {
	lat, lng := 12.97, 77.59
	zero := 0.0

	assert.NoError(t, ValidateOptional(nil, nil))
	assert.NoError(t, ValidateOptional(&lat, &lng))
	assert.ErrorIs(t, ValidateOptional(&lat, nil), ErrPartialCoordinates)
	assert.ErrorIs(t, ValidateOptional(nil, &lng), ErrPartialCoordinates)
	assert.ErrorIs(t, ValidateOptional(&zero, &zero), ErrNullIsland)
}
