package element

import (
	"image"
	"image/color"
	"strconv"
	"strings"

	"github.com/OpticalFlyer/screenkit/errors"
	"github.com/OpticalFlyer/screenkit/geom"
	"github.com/OpticalFlyer/screenkit/surface"
)

// Track sizes one grid row or column: a pixel count, a fraction of the
// grid's inner size, or an equal share of what is left (Auto).
type Track struct {
	Px   int
	Frac float64
	Auto bool
}

// ParseTemplate reads a space-separated track list such as
// "120px 30% auto".
func ParseTemplate(tpl string) ([]Track, error) {
	fields := strings.Fields(tpl)
	if len(fields) == 0 {
		return nil, errors.InvalidArgument("element.ParseTemplate", "empty template")
	}
	tracks := make([]Track, len(fields))
	for i, f := range fields {
		switch {
		case f == "auto":
			tracks[i] = Track{Auto: true}
		case strings.HasSuffix(f, "px"):
			v, err := strconv.Atoi(strings.TrimSuffix(f, "px"))
			if err != nil || v < 0 {
				return nil, errors.InvalidArgument("element.ParseTemplate", "bad track %q", f)
			}
			tracks[i] = Track{Px: v}
		case strings.HasSuffix(f, "%"):
			v, err := strconv.ParseFloat(strings.TrimSuffix(f, "%"), 64)
			if err != nil || v < 0 || v >= 100 {
				return nil, errors.InvalidArgument("element.ParseTemplate", "bad track %q", f)
			}
			tracks[i] = Track{Frac: v / 100}
		default:
			return nil, errors.InvalidArgument("element.ParseTemplate", "bad track %q", f)
		}
	}
	return tracks, nil
}

func autoTracks(n int) []Track {
	t := make([]Track, n)
	for i := range t {
		t[i].Auto = true
	}
	return t
}

type gridCell struct {
	e                          Element
	col, row, colSpan, rowSpan int
	rect                       image.Rectangle
}

// Grid places children in cells of a row and column layout. Every cell
// is sized to the tracks it spans. Grids re-render every cell whenever
// anything in them changes.
type Grid struct {
	Base
	cols, rows []Track
	cells      []*gridCell
	background color.Color

	surf      *surface.Surface
	absOffset geom.Vec
}

// NewGrid returns a grid of equal auto-sized tracks.
func NewGrid(cols, rows int) (*Grid, error) {
	if cols <= 0 || rows <= 0 {
		return nil, errors.InvalidArgument("element.NewGrid", "grid needs at least one row and column, got %dx%d", cols, rows)
	}
	g := &Grid{cols: autoTracks(cols), rows: autoTracks(rows)}
	g.Init(g)
	return g, nil
}

// NewGridTemplate returns a grid with tracks parsed by ParseTemplate.
func NewGridTemplate(colTpl, rowTpl string) (*Grid, error) {
	cols, err := ParseTemplate(colTpl)
	if err != nil {
		return nil, err
	}
	rows, err := ParseTemplate(rowTpl)
	if err != nil {
		return nil, err
	}
	g := &Grid{cols: cols, rows: rows}
	g.Init(g)
	return g, nil
}

func (g *Grid) Columns() int { return len(g.cols) }
func (g *Grid) Rows() int    { return len(g.rows) }

// SetBackground sets the fill color. Nil leaves the grid transparent.
func (g *Grid) SetBackground(c color.Color) {
	g.background = c
	g.changed = true
}

// Place puts e in the cell at col, row spanning colSpan by rowSpan tracks.
func (g *Grid) Place(e Element, col, row, colSpan, rowSpan int) error {
	if colSpan < 1 || rowSpan < 1 {
		return errors.InvalidArgument("element.Grid.Place", "span %dx%d must be positive", colSpan, rowSpan)
	}
	if col < 0 || col+colSpan > len(g.cols) || row < 0 || row+rowSpan > len(g.rows) {
		return errors.InvalidArgument("element.Grid.Place", "cell %d,%d span %dx%d outside %dx%d grid",
			col, row, colSpan, rowSpan, len(g.cols), len(g.rows))
	}
	g.cells = append(g.cells, &gridCell{e: e, col: col, row: row, colSpan: colSpan, rowSpan: rowSpan})
	g.changed = true
	return nil
}

// Remove detaches e without destructing it.
func (g *Grid) Remove(e Element) bool {
	for i, c := range g.cells {
		if c.e == e {
			g.cells = append(g.cells[:i:i], g.cells[i+1:]...)
			g.changed = true
			return true
		}
	}
	return false
}

// Children returns the placed elements in placement order.
func (g *Grid) Children() []Element {
	out := make([]Element, len(g.cells))
	for i, c := range g.cells {
		out[i] = c.e
	}
	return out
}

func trackSizes(tracks []Track, inner int) []int {
	sizes := make([]int, len(tracks))
	left, autos := inner, 0
	for i, t := range tracks {
		switch {
		case t.Auto:
			autos++
		case t.Frac > 0:
			sizes[i] = int(t.Frac * float64(inner))
		default:
			sizes[i] = t.Px
		}
		left -= sizes[i]
	}
	if autos > 0 {
		each := max(left, 0) / autos
		for i, t := range tracks {
			if t.Auto {
				sizes[i] = each
			}
		}
	}
	return sizes
}

// minTracks computes the smallest track sizes that fit every cell's
// natural size. span and natural select the axis.
func minTracks(tracks []Track, cells []*gridCell, start func(*gridCell) (int, int), natural func(Element) int) int {
	mins := make([]int, len(tracks))
	var multi []*gridCell
	for _, c := range cells {
		if !c.e.Visible() {
			continue
		}
		if i, n := start(c); n > 1 {
			multi = append(multi, c)
		} else {
			mins[i] = max(mins[i], natural(c.e))
		}
	}
	for _, c := range multi {
		i, n := start(c)
		have := 0
		for _, m := range mins[i : i+n] {
			have += m
		}
		if need := natural(c.e); need > have {
			mins[i+n-1] += need - have
		}
	}

	allAuto, biggest := true, 0
	for i, t := range tracks {
		allAuto = allAuto && t.Auto
		biggest = max(biggest, mins[i])
	}
	if allAuto {
		return biggest * len(tracks)
	}
	total, byFrac := 0, 0
	for i, t := range tracks {
		switch {
		case t.Auto:
		case t.Frac > 0:
			byFrac = max(byFrac, int(float64(mins[i])/t.Frac))
		default:
			mins[i] = t.Px
		}
		total += mins[i]
	}
	return max(total, byFrac)
}

func colSpan(c *gridCell) (int, int) { return c.col, c.colSpan }
func rowSpan(c *gridCell) (int, int) { return c.row, c.rowSpan }

func (g *Grid) CalcInnerWidth() int {
	return minTracks(g.cols, g.cells, colSpan, func(e Element) int {
		return e.Width() + e.Margin().Horizontal()
	})
}

func (g *Grid) CalcInnerHeight() int {
	return minTracks(g.rows, g.cells, rowSpan, func(e Element) int {
		return e.Height() + e.Margin().Vertical()
	})
}

// Changed reports whether the grid or any cell is dirty.
func (g *Grid) Changed() bool {
	if g.surf == nil || g.changed || g.sizeStale() {
		return true
	}
	for _, c := range g.cells {
		if c.e.Visible() && c.e.Changed() {
			return true
		}
	}
	return false
}

// Render lays out and composites every cell when anything changed.
func (g *Grid) Render(dst *surface.Surface) *surface.Surface {
	if g.Changed() {
		g.rebuild()
	}
	g.changed = false
	if dst != nil {
		dst.Blit(g.surf, g.BlitPoint())
	}
	return g.surf
}

func sum(v []int) int {
	t := 0
	for _, x := range v {
		t += x
	}
	return t
}

func (g *Grid) rebuild() {
	w, h := g.Width(), g.Height()
	g.surf = surface.New(w, h)
	if g.background != nil {
		g.surf.Fill(g.background)
	}
	colW := trackSizes(g.cols, g.InnerWidth())
	rowH := trackSizes(g.rows, g.InnerHeight())

	for _, c := range g.cells {
		if !c.e.Visible() {
			c.rect = image.Rectangle{}
			continue
		}
		m := c.e.Margin()
		cw := sum(colW[c.col:c.col+c.colSpan]) - m.Horizontal()
		ch := sum(rowH[c.row:c.row+c.rowSpan]) - m.Vertical()
		at := image.Pt(
			sum(colW[:c.col])+g.padding.Left()+m.Left(),
			sum(rowH[:c.row])+g.padding.Top()+m.Top(),
		)
		var s *surface.Surface
		c.e.ResetAfter(func() {
			_ = c.e.SetWidth(max(cw, 0))
			_ = c.e.SetHeight(max(ch, 0))
			s = c.e.Render(nil)
		})
		g.surf.Blit(s, at)
		c.rect = image.Rectangle{Min: at, Max: at.Add(s.Size())}
		if r, ok := c.e.(drawnRecorder); ok {
			r.recordDrawn(s.Size())
		}
		c.e.SetOffset(g.absOffset.Add(geom.FromPoint(at)))
	}
	g.commitDrawn(w, h)
}

// SetOffset places the grid inside a parent.
func (g *Grid) SetOffset(p geom.Vec) {
	g.absOffset = p
	g.offset = p
	for _, c := range g.cells {
		if !c.rect.Empty() {
			c.e.SetOffset(p.Add(geom.FromPoint(c.rect.Min)))
		}
	}
}

// SetPosition places a top-level grid.
func (g *Grid) SetPosition(p geom.Vec) {
	g.position = p
	g.SetOffset(geom.FromPoint(g.BlitPoint()))
}

// Destruct destructs every cell.
func (g *Grid) Destruct() {
	for _, c := range g.cells {
		c.e.Destruct()
	}
	g.cells = nil
	g.surf = nil
}
