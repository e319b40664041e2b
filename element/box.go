package element

import (
	"image"
	"image/color"
	"strings"

	"github.com/OpticalFlyer/screenkit/errors"
	"github.com/OpticalFlyer/screenkit/geom"
	"github.com/OpticalFlyer/screenkit/surface"
)

const (
	// BoxMinWidth and BoxMinHeight floor the main size given to a flex child.
	BoxMinWidth  = 10
	BoxMinHeight = 10
	// DefaultGap is the space between stacked children.
	DefaultGap = 1
)

// Align places children on a box's cross axis.
type Align int

const (
	// AlignStart is left in a vertical box and top in a horizontal one.
	AlignStart Align = iota
	AlignCenter
	// AlignEnd is right in a vertical box and bottom in a horizontal one.
	AlignEnd
	// AlignStretch sizes every child to the box's inner cross size.
	AlignStretch
)

// ParseAlign reads an alignment name. Vertical boxes accept left, right,
// center and stretch; horizontal boxes accept top, bottom, center and
// stretch.
func ParseAlign(name string, horizontal bool) (Align, error) {
	switch strings.ToLower(name) {
	case "center":
		return AlignCenter, nil
	case "stretch":
		return AlignStretch, nil
	}
	start, end := "left", "right"
	if horizontal {
		start, end = "top", "bottom"
	}
	switch strings.ToLower(name) {
	case start:
		return AlignStart, nil
	case end:
		return AlignEnd, nil
	}
	return 0, errors.InvalidArgument("element.ParseAlign", "bad alignment %q", name)
}

// Box stacks its children along one axis and composites them into a cached
// surface. A render either rebuilds the whole composite, when any size or
// the child list changed, or patches only the children that are dirty.
type Box struct {
	Base

	horizontal bool
	children   []Element
	gap        int
	align      Align
	background color.Color
	provider   SizeProvider

	surf     *surface.Surface
	sizes    []image.Point
	rects    []image.Rectangle
	flexMain []int
	placed   []bool

	absOffset  geom.Vec
	marginSelf bool

	rebuilds int
	patches  int
}

// NewBox returns a vertical box holding children. Children stretch to the
// box's inner width until SetAlign says otherwise.
func NewBox(children ...Element) *Box {
	b := &Box{gap: DefaultGap, align: AlignStretch, marginSelf: true}
	b.Init(b)
	b.children = append(b.children, children...)
	return b
}

// NewHorizontalBox returns a box that stacks children left to right.
func NewHorizontalBox(children ...Element) *Box {
	b := NewBox(children...)
	b.horizontal = true
	return b
}

// NewFlexbox returns a vertical box that takes its outer size from p,
// less its own margins, which also resolve against p.
func NewFlexbox(p SizeProvider, children ...Element) *Box {
	b := NewBox(children...)
	b.provider = p
	b.margin.SetProvider(p)
	return b
}

// NewHorizontalFlexbox is NewFlexbox stacking left to right.
func NewHorizontalFlexbox(p SizeProvider, children ...Element) *Box {
	b := NewFlexbox(p, children...)
	b.horizontal = true
	return b
}

// Horizontal reports whether children stack left to right.
func (b *Box) Horizontal() bool { return b.horizontal }

// Children returns the child list. Do not modify it.
func (b *Box) Children() []Element { return b.children }

// Add appends children.
func (b *Box) Add(children ...Element) {
	b.children = append(b.children, children...)
	b.changed = true
}

// Insert places c at index i.
func (b *Box) Insert(i int, c Element) error {
	if i < 0 || i > len(b.children) {
		return errors.InvalidArgument("element.Box.Insert", "index %d out of range", i)
	}
	b.children = append(b.children[:i], append([]Element{c}, b.children[i:]...)...)
	b.changed = true
	return nil
}

// Remove detaches c without destructing it.
func (b *Box) Remove(c Element) bool {
	for i, x := range b.children {
		if x == c {
			b.children = append(b.children[:i:i], b.children[i+1:]...)
			b.changed = true
			return true
		}
	}
	return false
}

// Clear destructs and removes every child.
func (b *Box) Clear() {
	for _, c := range b.children {
		c.Destruct()
	}
	b.children = nil
	b.changed = true
}

func (b *Box) Gap() int { return b.gap }

func (b *Box) SetGap(g int) error {
	if g < 0 {
		return errors.InvalidArgument("element.Box.SetGap", "negative gap %d", g)
	}
	b.gap = g
	b.changed = true
	return nil
}

func (b *Box) Align() Align { return b.align }

func (b *Box) SetAlign(a Align) {
	b.align = a
	b.changed = true
}

// SetBackground sets the fill color. Nil leaves the box transparent.
func (b *Box) SetBackground(c color.Color) {
	b.background = c
	b.changed = true
}

// Width is explicit, else taken from the size provider, else intrinsic.
func (b *Box) Width() int {
	if !b.visible || b.hasWidth || b.provider == nil {
		return b.Base.Width()
	}
	_, r, _, l := b.margin.Raw()
	return shrinkOuter(b.provider.Width(), l, r)
}

// Height is explicit, else taken from the size provider, else intrinsic.
func (b *Box) Height() int {
	if !b.visible || b.hasHeight || b.provider == nil {
		return b.Base.Height()
	}
	t, _, bo, _ := b.margin.Raw()
	return shrinkOuter(b.provider.Height(), t, bo)
}

// InnerWidth is the outer width less padding.
func (b *Box) InnerWidth() int {
	if b.provider != nil && !b.hasWidth {
		return max(b.Width()-b.padding.Horizontal(), 0)
	}
	return b.Base.InnerWidth()
}

// InnerHeight is the outer height less padding.
func (b *Box) InnerHeight() int {
	if b.provider != nil && !b.hasHeight {
		return max(b.Height()-b.padding.Vertical(), 0)
	}
	return b.Base.InnerHeight()
}

// Axis helpers: "main" is the stacking axis, "cross" the other one.

func (b *Box) mainOf(p image.Point) int {
	if b.horizontal {
		return p.X
	}
	return p.Y
}

func (b *Box) crossOf(p image.Point) int {
	if b.horizontal {
		return p.Y
	}
	return p.X
}

func (b *Box) pt(main, cross int) image.Point {
	if b.horizontal {
		return image.Pt(main, cross)
	}
	return image.Pt(cross, main)
}

func (b *Box) innerMain() int {
	if b.horizontal {
		return b.InnerWidth()
	}
	return b.InnerHeight()
}

func (b *Box) innerCross() int {
	if b.horizontal {
		return b.InnerHeight()
	}
	return b.InnerWidth()
}

// margins returns the leading and trailing margins of c on the main axis
// and the leading and trailing margins on the cross axis.
func (b *Box) margins(c Element) (lead, trail, crossLead, crossTrail int) {
	m := c.Margin()
	if b.horizontal {
		return m.Left(), m.Right(), m.Top(), m.Bottom()
	}
	return m.Top(), m.Bottom(), m.Left(), m.Right()
}

func (b *Box) size(c Element) image.Point { return image.Pt(c.Width(), c.Height()) }

func (b *Box) setMain(c Element, v int) {
	if b.horizontal {
		_ = c.SetWidth(max(v, 0))
	} else {
		_ = c.SetHeight(max(v, 0))
	}
}

func (b *Box) setCross(c Element, v int) {
	if b.horizontal {
		_ = c.SetHeight(max(v, 0))
	} else {
		_ = c.SetWidth(max(v, 0))
	}
}

// isFlex reports whether c shares out the box's leftover main size. Only
// child boxes and grids without an explicit main size do.
func (b *Box) isFlex(c Element) bool {
	switch c.(type) {
	case *Box, *Grid:
	default:
		return false
	}
	if b.horizontal {
		_, ok := c.ExplicitWidth()
		return !ok
	}
	_, ok := c.ExplicitHeight()
	return !ok
}

// container is implemented by elements that lay out children.
type container interface {
	Children() []Element
}

func (b *Box) calcMain() int {
	total, prevTrail, n := 0, 0, 0
	for _, c := range b.children {
		if !c.Visible() {
			continue
		}
		lead, trail, _, _ := b.margins(c)
		if n > 0 {
			total += b.gap
		}
		total += max(prevTrail, lead) + b.mainOf(b.size(c))
		prevTrail = trail
		n++
	}
	return total + prevTrail
}

func (b *Box) calcCross() int {
	m := 0
	for _, c := range b.children {
		if !c.Visible() {
			continue
		}
		_, _, lead, trail := b.margins(c)
		m = max(m, b.crossOf(b.size(c))+lead+trail)
	}
	return m
}

func (b *Box) CalcInnerWidth() int {
	if b.horizontal {
		return b.calcMain()
	}
	return b.calcCross()
}

func (b *Box) CalcInnerHeight() int {
	if b.horizontal {
		return b.calcCross()
	}
	return b.calcMain()
}

func (b *Box) structureChanged() bool {
	if b.surf == nil || b.changed || b.sizeStale() {
		return true
	}
	if len(b.children) != len(b.sizes) {
		return true
	}
	for i, c := range b.children {
		if b.size(c) != b.sizes[i] {
			return true
		}
	}
	return false
}

// Changed reports whether the box needs a rebuild or a patch.
func (b *Box) Changed() bool {
	if b.structureChanged() {
		return true
	}
	for _, c := range b.children {
		if c.Visible() && c.Changed() {
			return true
		}
	}
	return false
}

// Render brings the composite up to date and returns it, blitting it onto
// dst at the box's position when dst is not nil.
func (b *Box) Render(dst *surface.Surface) *surface.Surface {
	if b.structureChanged() {
		b.rebuild()
	} else if b.Changed() {
		b.patch()
	}
	b.changed = false
	if dst != nil {
		dst.Blit(b.surf, b.BlitPoint())
	}
	return b.surf
}

// renderChild renders a fixed-size child with the cross-axis forcing of
// the box's alignment, or a flex child at main size flexMain.
func (b *Box) renderChild(c Element, flexMain int) *surface.Surface {
	var s *surface.Surface
	c.ResetAfter(func() {
		_, _, cl, ct := b.margins(c)
		avail := b.innerCross() - cl - ct
		switch {
		case flexMain > 0:
			b.setMain(c, flexMain)
			b.setCross(c, avail)
		case b.align == AlignStretch:
			b.setCross(c, avail)
		case b.align == AlignCenter && b.crossOf(b.size(c)) > avail:
			b.setCross(c, avail)
		}
		s = c.Render(nil)
	})
	return s
}

func (b *Box) rebuild() {
	b.rebuilds++
	w, h := b.Width(), b.Height()
	b.surf = surface.New(w, h)
	if b.background != nil {
		b.surf.Fill(b.background)
	}

	n := len(b.children)
	b.sizes = make([]image.Point, n)
	b.rects = make([]image.Rectangle, n)
	b.flexMain = make([]int, n)
	b.placed = make([]bool, n)
	surfs := make([]*surface.Surface, n)

	var flex []int
	used := 0
	for i, c := range b.children {
		if !c.Visible() {
			continue
		}
		if b.isFlex(c) {
			flex = append(flex, i)
			continue
		}
		surfs[i] = b.renderChild(c, 0)
		used += b.mainOf(surfs[i].Size()) + b.gap
	}
	if len(flex) > 0 {
		// The remainder of the division is left unused.
		avail := b.innerMain() - used + b.gap
		minMain := BoxMinHeight
		if b.horizontal {
			minMain = BoxMinWidth
		}
		each := max(avail/len(flex)-b.gap, minMain)
		for _, i := range flex {
			b.flexMain[i] = each
			surfs[i] = b.renderChild(b.children[i], each)
		}
	}

	innerCross := b.innerCross()
	mainPad, crossPad := b.padding.Top(), b.padding.Left()
	if b.horizontal {
		mainPad, crossPad = crossPad, mainPad
	}
	pos, prevTrail := mainPad, 0
	for i, c := range b.children {
		b.sizes[i] = b.size(c)
		s := surfs[i]
		if s == nil {
			continue
		}
		lead, trail, crossLead, crossTrail := b.margins(c)
		collapse := max(prevTrail, lead)
		mainPos := pos + collapse

		cs := b.crossOf(s.Size())
		cross := crossLead
		switch b.align {
		case AlignCenter:
			if avail := innerCross - crossLead - crossTrail; cs < avail {
				cross += (avail - cs) / 2
			}
		case AlignEnd:
			cross = innerCross - crossTrail - cs
		}
		cross += crossPad

		at := b.pt(mainPos, cross)
		b.surf.Blit(s, at)
		b.rects[i] = image.Rectangle{Min: at, Max: at.Add(s.Size())}
		b.placed[i] = true
		if r, ok := c.(drawnRecorder); ok {
			r.recordDrawn(s.Size())
		}
		c.SetOffset(b.childOffset(at))

		pos = mainPos + b.mainOf(s.Size()) + b.gap
		prevTrail = trail
	}
	b.commitDrawn(w, h)
}

func (b *Box) patch() {
	b.patches++
	for i, c := range b.children {
		if !b.placed[i] || !c.Visible() || !c.Changed() {
			continue
		}
		r := b.rects[i]
		b.surf.FillRect(r, b.background)
		s := b.renderChild(c, b.flexMain[i])
		b.surf.Blit(s, r.Min)
	}
}

func (b *Box) childOffset(rel image.Point) geom.Vec {
	p := b.absOffset.Add(geom.FromPoint(rel))
	if b.marginSelf {
		p = p.Add(geom.V(float64(b.margin.Left()), float64(b.margin.Top())))
	}
	return p
}

// SetOffset places the box inside a parent. Child offsets follow at once.
func (b *Box) SetOffset(p geom.Vec) {
	b.absOffset = p
	b.offset = p
	b.marginSelf = false
	b.propagate()
}

// SetPosition places a top-level box; its children are offset by the
// box's own margin as well.
func (b *Box) SetPosition(p geom.Vec) {
	b.position = p
	b.absOffset = p
	b.offset = p
	b.marginSelf = true
	b.propagate()
}

func (b *Box) propagate() {
	for i, c := range b.children {
		if i < len(b.placed) && b.placed[i] {
			c.SetOffset(b.childOffset(b.rects[i].Min))
		}
	}
}

// Destruct destructs every child and drops the composite.
func (b *Box) Destruct() {
	b.Clear()
	b.surf = nil
}

// Stats returns how many rebuilds and patches the box has performed.
func (b *Box) Stats() (rebuilds, patches int) { return b.rebuilds, b.patches }
