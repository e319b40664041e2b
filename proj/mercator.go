// Package proj converts between WGS84 coordinates, Web Mercator meters
// and slippy-map tile coordinates.
package proj

import "math"

const (
	// MaxLat is the latitude where Web Mercator tiles end, arctan(sinh(π)).
	MaxLat = 85.0511
	// MaxZoom is the deepest supported zoom level.
	MaxZoom = 21
	// MaxMeters is the half-width of the Web Mercator plane.
	MaxMeters = 20037508.34

	earthRadius = 6378137.0
	degToRad    = math.Pi / 180.0
	radToDeg    = 180.0 / math.Pi
)

// pow2 holds the tile count per axis for each zoom level.
var pow2 = [MaxZoom + 1]float64{
	1, 2, 4, 8, 16, 32, 64, 128, 256, 512,
	1024, 2048, 4096, 8192, 16384, 32768, 65536,
	131072, 262144, 524288, 1048576, 2097152,
}

// Tiles returns the number of tiles per axis at zoom, clamped to
// [0, MaxZoom].
func Tiles(zoom int) float64 {
	return pow2[min(max(zoom, 0), MaxZoom)]
}

// ClampLat limits lat to ±limit, and never past MaxLat.
func ClampLat(lat, limit float64) float64 {
	limit = min(math.Abs(limit), MaxLat)
	return max(-limit, min(limit, lat))
}

// LatLonToTile converts degrees to fractional tile coordinates at zoom.
// Latitude is clamped to ±MaxLat.
func LatLonToTile(lat, lon float64, zoom int) (x, y float64) {
	n := Tiles(zoom)
	x = (lon + 180.0) * (n / 360.0)
	switch {
	case lat >= MaxLat:
		return x, 0
	case lat <= -MaxLat:
		return x, n
	}
	sinLat := math.Sin(lat * degToRad)
	y = n * (0.5 - 0.25*math.Log((1.0+sinLat)/(1.0-sinLat))/math.Pi)
	return x, y
}

// TileToLatLon is the inverse of LatLonToTile.
func TileToLatLon(x, y float64, zoom int) (lat, lon float64) {
	n := Tiles(zoom)
	lon = x/n*360.0 - 180.0
	lat = math.Atan(math.Sinh(math.Pi*(1-2*y/n))) * radToDeg
	return lat, lon
}

// LatLonToMeters converts degrees to EPSG:3857 meters.
func LatLonToMeters(lat, lon float64) (x, y float64) {
	lat = ClampLat(lat, MaxLat)
	x = lon * degToRad * earthRadius
	y = math.Log(math.Tan(math.Pi/4+lat*degToRad/2)) * earthRadius
	return x, y
}

// MetersToLatLon converts EPSG:3857 meters to degrees.
func MetersToLatLon(x, y float64) (lat, lon float64) {
	lon = x / earthRadius * radToDeg
	lat = (2*math.Atan(math.Exp(y/earthRadius)) - math.Pi/2) * radToDeg
	return lat, lon
}

// MetersToTile converts EPSG:3857 meters to fractional tile coordinates.
func MetersToTile(x, y float64, zoom int) (tileX, tileY float64) {
	n := Tiles(zoom)
	tileX = (x + MaxMeters) / (2 * MaxMeters) * n
	tileY = (1 - (y+MaxMeters)/(2*MaxMeters)) * n
	return tileX, tileY
}
