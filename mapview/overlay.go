package mapview

import (
	"image/color"
	"path/filepath"
	"strings"

	earcut "github.com/flywave/go-earcut"
	"github.com/jonas-p/go-shp"

	"github.com/OpticalFlyer/screenkit/drawobj"
	"github.com/OpticalFlyer/screenkit/errors"
	"github.com/OpticalFlyer/screenkit/geom"
	"github.com/OpticalFlyer/screenkit/logging"
	"github.com/OpticalFlyer/screenkit/proj"
	"github.com/OpticalFlyer/screenkit/surface"
)

// LatLon is a WGS84 coordinate in degrees.
type LatLon struct {
	Lat, Lon float64
}

// FeatureKind is the geometry type of a Feature.
type FeatureKind int

const (
	FeaturePoint FeatureKind = iota
	FeatureLine
	FeaturePolygon
)

func (k FeatureKind) String() string {
	switch k {
	case FeaturePoint:
		return "point"
	case FeatureLine:
		return "line"
	case FeaturePolygon:
		return "polygon"
	}
	return "unknown"
}

// Polygon is an outer ring with optional holes.
type Polygon struct {
	Outer []LatLon
	Holes [][]LatLon
}

// Feature is one shape on an overlay layer.
type Feature struct {
	Kind  FeatureKind
	Name  string
	Attrs map[string]string

	Points   []LatLon
	Lines    [][]LatLon
	Polygons []Polygon

	// tris holds the polygon triangles in Web Mercator meters.
	tris [][3]geom.Vec
}

// NewPointFeature returns a point feature.
func NewPointFeature(name string, pts ...LatLon) *Feature {
	return &Feature{Kind: FeaturePoint, Name: name, Points: pts}
}

// NewLineFeature returns a polyline feature with one or more parts.
func NewLineFeature(name string, parts ...[]LatLon) *Feature {
	return &Feature{Kind: FeatureLine, Name: name, Lines: parts}
}

// NewPolygonFeature triangulates polys for hit testing. Rings need at
// least three points.
func NewPolygonFeature(name string, polys ...Polygon) (*Feature, error) {
	f := &Feature{Kind: FeaturePolygon, Name: name, Polygons: polys}
	for _, p := range polys {
		tris, err := triangulate(p)
		if err != nil {
			return nil, err
		}
		f.tris = append(f.tris, tris...)
	}
	return f, nil
}

func meters(ll LatLon) geom.Vec {
	return geom.V(proj.LatLonToMeters(ll.Lat, ll.Lon))
}

func triangulate(p Polygon) ([][3]geom.Vec, error) {
	const op = "mapview.triangulate"
	var (
		verts []geom.Vec
		holes []int
	)
	for i, ring := range append([][]LatLon{p.Outer}, p.Holes...) {
		if len(ring) < 3 {
			return nil, errors.InvalidArgument(op, "ring %d has %d points", i, len(ring))
		}
		if i > 0 {
			holes = append(holes, len(verts))
		}
		for _, ll := range ring {
			verts = append(verts, meters(ll))
		}
	}
	data := make([]float64, 0, 2*len(verts))
	for _, v := range verts {
		data = append(data, v.X, v.Y)
	}
	idx, err := earcut.Earcut(data, holes, 2)
	if err != nil {
		return nil, errors.Wrap(op, errors.KindInvalidArgument, err)
	}
	tris := make([][3]geom.Vec, 0, len(idx)/3)
	for i := 0; i+2 < len(idx); i += 3 {
		tris = append(tris, [3]geom.Vec{verts[idx[i]], verts[idx[i+1]], verts[idx[i+2]]})
	}
	return tris, nil
}

func inTriangle(p geom.Vec, t [3]geom.Vec) bool {
	cross := func(a, b, c geom.Vec) float64 {
		return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
	}
	d1, d2, d3 := cross(t[0], t[1], p), cross(t[1], t[2], p), cross(t[2], t[0], p)
	neg := d1 < 0 || d2 < 0 || d3 < 0
	pos := d1 > 0 || d2 > 0 || d3 > 0
	return !(neg && pos)
}

// segDist2 is the squared distance from p to the segment a-b.
func segDist2(p, a, b geom.Vec) float64 {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 == 0 {
		return p.Dist2(a)
	}
	t := max(0, min(1, p.Sub(a).Dot(ab)/l2))
	return p.Dist2(a.Add(ab.Scale(t)))
}

// Layer is a named set of features drawn over the tiles.
type Layer struct {
	Name     string
	Features []*Feature
	Fill     color.Color
	Stroke   color.Color
	// LineWidth and PointRadius are in pixels.
	LineWidth   float64
	PointRadius float64
	Visible     bool
}

// NewLayer returns a visible layer with default styling.
func NewLayer(name string, features ...*Feature) *Layer {
	return &Layer{
		Name:        name,
		Features:    features,
		Fill:        color.RGBA{255, 140, 0, 90},
		Stroke:      color.RGBA{255, 140, 0, 255},
		LineWidth:   2,
		PointRadius: 4,
		Visible:     true,
	}
}

// hitSlop widens lines and points for picking.
const hitSlop = 3.0

func (l *Layer) draw(dst *surface.Surface, m *Map) {
	if !l.Visible {
		return
	}
	pt := func(ll LatLon) geom.Vec { return m.tilePoint(proj.LatLonToTile(ll.Lat, ll.Lon, m.zoom)) }
	ring := func(lls []LatLon) []geom.Vec {
		out := make([]geom.Vec, len(lls))
		for i, ll := range lls {
			out[i] = pt(ll)
		}
		return out
	}
	for _, f := range l.Features {
		switch f.Kind {
		case FeaturePolygon:
			for _, p := range f.Polygons {
				outer := ring(p.Outer)
				holes := make([][]geom.Vec, len(p.Holes))
				for i, h := range p.Holes {
					holes[i] = ring(h)
				}
				drawobj.FilledPolygon(dst, l.Fill, outer, holes...)
				drawobj.Polygon(dst, l.Stroke, outer, 1)
			}
		case FeatureLine:
			for _, part := range f.Lines {
				pts := ring(part)
				for i := 1; i < len(pts); i++ {
					drawobj.Line(dst, l.Stroke, pts[i-1], pts[i], l.LineWidth)
				}
			}
		case FeaturePoint:
			for _, ll := range f.Points {
				drawobj.Circle(dst, l.Stroke, pt(ll), l.PointRadius, 0)
			}
		}
	}
}

// featureAt returns the topmost feature of l under the screen point p.
func (l *Layer) featureAt(m *Map, p geom.Vec) *Feature {
	if !l.Visible {
		return nil
	}
	lat, lon := m.LatLonAt(p)
	world := meters(LatLon{lat, lon})
	lineR := l.LineWidth/2 + hitSlop
	pointR := l.PointRadius + hitSlop
	for i := len(l.Features) - 1; i >= 0; i-- {
		f := l.Features[i]
		switch f.Kind {
		case FeaturePolygon:
			for _, t := range f.tris {
				if inTriangle(world, t) {
					return f
				}
			}
		case FeatureLine:
			for _, part := range f.Lines {
				for j := 1; j < len(part); j++ {
					a, b := m.PointOf(part[j-1].Lat, part[j-1].Lon), m.PointOf(part[j].Lat, part[j].Lon)
					if segDist2(p, a, b) <= lineR*lineR {
						return f
					}
				}
			}
		case FeaturePoint:
			for _, ll := range f.Points {
				if p.Dist2(m.PointOf(ll.Lat, ll.Lon)) <= pointR*pointR {
					return f
				}
			}
		}
	}
	return nil
}

// AddLayer draws l above the layers added before it.
func (m *Map) AddLayer(l *Layer) {
	m.layers = append(m.layers, l)
	m.MarkChanged()
}

// RemoveLayer reports whether l was on the map.
func (m *Map) RemoveLayer(l *Layer) bool {
	for i, x := range m.layers {
		if x == l {
			m.layers = append(m.layers[:i], m.layers[i+1:]...)
			m.MarkChanged()
			return true
		}
	}
	return false
}

func (m *Map) Layers() []*Layer { return m.layers }

// FeatureAt returns the topmost feature under the screen point p, or nil.
func (m *Map) FeatureAt(p geom.Vec) *Feature {
	for i := len(m.layers) - 1; i >= 0; i-- {
		if f := m.layers[i].featureAt(m, p); f != nil {
			return f
		}
	}
	return nil
}

// LoadShapefile reads the points, polylines and polygons of a .shp file
// into a layer named after the file. Attributes come from the .dbf file
// next to it when there is one; a "name" attribute names the feature.
// Coordinates must be WGS84 longitude and latitude.
func LoadShapefile(path string) (*Layer, error) {
	const op = "mapview.LoadShapefile"
	if !strings.EqualFold(filepath.Ext(path), ".shp") {
		return nil, errors.InvalidArgument(op, "%s is not a .shp file", path)
	}
	r, err := shp.Open(path)
	if err != nil {
		return nil, errors.Wrap(op, errors.KindIO, err)
	}
	defer r.Close()

	fields := r.Fields()
	layer := NewLayer(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	skipped := 0
	for r.Next() {
		row, s := r.Shape()
		f, err := featureOf(s)
		if err != nil {
			return nil, errors.Wrap(op, errors.KindInvalidArgument, err)
		}
		if f == nil {
			skipped++
			continue
		}
		f.Attrs = make(map[string]string, len(fields))
		for i, fl := range fields {
			v := strings.Trim(r.ReadAttribute(row, i), " \x00")
			name := fl.String()
			f.Attrs[name] = v
			if strings.EqualFold(name, "name") {
				f.Name = v
			}
		}
		layer.Features = append(layer.Features, f)
	}
	if err := r.Err(); err != nil {
		return nil, errors.Wrap(op, errors.KindIO, err)
	}
	logging.Logger().Info("shapefile loaded", "path", path, "features", len(layer.Features), "skipped", skipped)
	return layer, nil
}

// featureOf converts a shape, or returns nil for unsupported types.
func featureOf(s shp.Shape) (*Feature, error) {
	switch s := s.(type) {
	case *shp.Point:
		return NewPointFeature("", LatLon{s.Y, s.X}), nil
	case *shp.MultiPoint:
		f := NewPointFeature("")
		for _, p := range s.Points {
			f.Points = append(f.Points, LatLon{p.Y, p.X})
		}
		return f, nil
	case *shp.PolyLine:
		return NewLineFeature("", parts(s.Parts, s.Points)...), nil
	case *shp.Polygon:
		return NewPolygonFeature("", polygons(parts(s.Parts, s.Points))...)
	}
	return nil, nil
}

func parts(starts []int32, pts []shp.Point) [][]LatLon {
	out := make([][]LatLon, 0, len(starts))
	for i, start := range starts {
		end := len(pts)
		if i+1 < len(starts) {
			end = int(starts[i+1])
		}
		ring := make([]LatLon, 0, end-int(start))
		for _, p := range pts[start:end] {
			ring = append(ring, LatLon{p.Y, p.X})
		}
		if n := len(ring); n > 1 && ring[0] == ring[n-1] {
			ring = ring[:n-1]
		}
		out = append(out, ring)
	}
	return out
}

// polygons groups shapefile rings: clockwise rings start a polygon and
// counter-clockwise rings are holes of the polygon before them.
func polygons(rings [][]LatLon) []Polygon {
	var out []Polygon
	for _, r := range rings {
		if len(r) < 3 {
			continue
		}
		if signedArea(r) < 0 || len(out) == 0 {
			out = append(out, Polygon{Outer: r})
			continue
		}
		last := &out[len(out)-1]
		last.Holes = append(last.Holes, r)
	}
	return out
}

// signedArea is positive for counter-clockwise rings with longitude as x
// and latitude as y.
func signedArea(r []LatLon) float64 {
	var a float64
	for i := range r {
		j := (i + 1) % len(r)
		a += r[i].Lon*r[j].Lat - r[j].Lon*r[i].Lat
	}
	return a / 2
}
