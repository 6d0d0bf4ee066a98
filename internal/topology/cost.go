package topology

import (
	"math"

	"switchwrapper/internal/model"
)

// LinearizeCost evaluates a plant's quadratic cost curve at its assumed minimum
// and maximum output and returns the cost at minimum ($/h) and the slope of the
// single segment between them ($/MWh). A flat segment (Pmax == Pmin) has slope 0.
func LinearizeCost(p model.Plant, a Assumptions) (costAtMin, slope float64) {
	pmin := assumedPmin(p, a)
	costAtMin = quadratic(p, pmin)
	costAtMax := quadratic(p, p.Pmax)
	slope = (costAtMax - costAtMin) / (p.Pmax - pmin)
	if math.IsNaN(slope) || math.IsInf(slope, 0) {
		slope = 0
	}
	return costAtMin, slope
}

func assumedPmin(p model.Plant, a Assumptions) float64 {
	if contains(a.KeepPminTypes, p.Type) {
		return p.Pmin
	}
	frac, ok := a.PminFractionByType[p.Type]
	if !ok {
		frac = a.PminFractionByType["default"]
	}
	return p.Pmax * frac
}

func quadratic(p model.Plant, x float64) float64 {
	return p.C0 + p.C1*x + p.C2*x*x
}

// haversineKm is the great-circle distance between two coordinates in km.
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371.0088
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}
