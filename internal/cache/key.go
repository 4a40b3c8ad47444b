package cache

import (
	"fmt"
	"math"
)

// Round4 rounds a coordinate to 4 decimal places. Both cache keys and
// upstream request parameters go through this, so near-duplicate floating
// point coordinates collapse to the same entry and the same request.
func Round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// CoordKey builds a cache key from a semantic prefix and a coordinate pair
// formatted to a fixed 4 decimal digits (e.g. "uv:40.7128,-74.0060").
func CoordKey(prefix string, lat, lon float64) string {
	return fmt.Sprintf("%s%.4f,%.4f", prefix, Round4(lat), Round4(lon))
}
