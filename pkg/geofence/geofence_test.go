package geofence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arnavshah/staffmonitr-go/pkg/models"
)

func ptr(v float64) *float64 { return &v }

var blueHarbor = models.Geofence{Lat: 34.0522, Lon: -118.2437, RadiusMeters: 450}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon *float64
		fence    models.Geofence
		onSite   bool
		reason   string
	}{
		{"missing lat", nil, ptr(-118.2437), blueHarbor, false, ReasonLocationRequired},
		{"missing lon", ptr(34.0522), nil, blueHarbor, false, ReasonLocationRequired},
		{"missing both", nil, nil, blueHarbor, false, ReasonLocationRequired},
		{"at center", ptr(34.0522), ptr(-118.2437), blueHarbor, true, ReasonInside},
		{"about 111m north", ptr(34.0532), ptr(-118.2437), blueHarbor, true, ReasonInside},
		{"about 1.1km north", ptr(34.0622), ptr(-118.2437), blueHarbor, false, ReasonOutside},
		{"zero radius at center", ptr(1), ptr(1), models.Geofence{Lat: 1, Lon: 1}, true, ReasonInside},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.lat, tt.lon, tt.fence)
			assert.Equal(t, tt.onSite, got.IsOnSite)
			assert.Equal(t, tt.reason, got.Reason)
		})
	}
}

func TestEvaluate_MissingCoordinateSkipsDistance(t *testing.T) {
	got := Evaluate(nil, ptr(0), blueHarbor)
	assert.Zero(t, got.DistanceMeters)
}

func TestDistance(t *testing.T) {
	assert.Zero(t, Distance(10, 10, 10, 10))

	// One degree of latitude is roughly 111.19km on a 6371km sphere.
	assert.InDelta(t, 111195, Distance(0, 0, 1, 0), 5)

	assert.InDelta(t, Distance(34.0522, -118.2437, 40.7128, -74.0060),
		Distance(40.7128, -74.0060, 34.0522, -118.2437), 1e-6)
}

func TestEvaluate_BoundaryIsInclusive(t *testing.T) {
	lat, lon := 34.0532, -118.2437
	d := Distance(lat, lon, blueHarbor.Lat, blueHarbor.Lon)

	fence := blueHarbor
	fence.RadiusMeters = d
	assert.True(t, Evaluate(&lat, &lon, fence).IsOnSite)

	fence.RadiusMeters = d - 0.01
	assert.False(t, Evaluate(&lat, &lon, fence).IsOnSite)
}

func TestEvaluate_MonotonicInRadius(t *testing.T) {
	lat, lon := 34.0561, -118.2490
	wasInside := false
	for r := 0.0; r <= 2000; r += 25 {
		fence := blueHarbor
		fence.RadiusMeters = r
		inside := Evaluate(&lat, &lon, fence).IsOnSite
		if wasInside {
			assert.True(t, inside, "radius %.0f flipped back to outside", r)
		}
		wasInside = inside
	}
	assert.True(t, wasInside)
}

func TestEvaluate_OutwardWalkStaysOutside(t *testing.T) {
	tests := []struct {
		name       string
		dLat, dLon float64
	}{
		{"north", 1, 0},
		{"east", 0, 1},
		{"south", -1, 0},
		{"west", 0, -1},
		{"north east", 1, 1},
		{"south west", -0.6, -1},
	}

	const step = 0.0002
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			leftAt := -1
			prev := -1.0
			for i := 0; i <= 100; i++ {
				lat := blueHarbor.Lat + tt.dLat*step*float64(i)
				lon := blueHarbor.Lon + tt.dLon*step*float64(i)
				got := Evaluate(&lat, &lon, blueHarbor)

				assert.Greater(t, got.DistanceMeters, prev, "step %d did not move farther out", i)
				prev = got.DistanceMeters

				if leftAt >= 0 {
					assert.False(t, got.IsOnSite, "step %d is back inside after leaving at step %d", i, leftAt)
				} else if !got.IsOnSite {
					leftAt = i
				}
			}
			assert.Positive(t, leftAt, "walk never left the fence")
		})
	}
}
