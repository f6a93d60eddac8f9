package geofence

import (
	"math"

	"github.com/arnavshah/staffmonitr-go/pkg/models"
)

// EarthRadiusMeters is the mean earth radius used by the haversine formula
const EarthRadiusMeters = 6371000.0

const (
	ReasonLocationRequired = "Location required"
	ReasonInside           = "Inside site geofence"
	ReasonOutside          = "Outside assigned site (geo violation)"
)

// Result is the outcome of an on-site check
type Result struct {
	IsOnSite       bool    `json:"isOnSite"`
	Reason         string  `json:"reason"`
	DistanceMeters float64 `json:"distanceMeters,omitempty"`
}

// Distance returns the great-circle distance in meters between two points
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusMeters * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Evaluate decides whether the point lies within the fence.
// A nil coordinate short-circuits to "Location required".
func Evaluate(lat, lon *float64, fence models.Geofence) Result {
	if lat == nil || lon == nil {
		return Result{IsOnSite: false, Reason: ReasonLocationRequired}
	}

	d := Distance(*lat, *lon, fence.Lat, fence.Lon)
	if d <= fence.RadiusMeters {
		return Result{IsOnSite: true, Reason: ReasonInside, DistanceMeters: d}
	}
	return Result{IsOnSite: false, Reason: ReasonOutside, DistanceMeters: d}
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
