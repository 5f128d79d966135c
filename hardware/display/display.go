package display

import (
	"image"
	"image/color"
	"strings"
	"sync"

	"github.com/juju/errors"
	"github.com/kilnworks/ovenpanel/hardware/display/framebuffer"
	"github.com/kilnworks/ovenpanel/helpers"
	"github.com/kilnworks/ovenpanel/internal/types"
)

// Indicator drives backlight and status LED, 0..1 each.
type Indicator interface {
	SetBacklight(level float64) error
	SetLED(r, g, b float64) error
}

type TextOp struct {
	Pos   image.Point
	Text  string
	Size  types.FontSize
	Color color.RGBA
}

// Display draws into memory, Present copies to framebuffer (if any) and to observers.
type Display struct {
	fb   *framebuffer.Framebuffer
	ind  Indicator
	pix  []color.RGBA
	size image.Point
	ops  []TextOp

	mu        sync.Mutex // guards presented state for observers
	shown     []color.RGBA
	shownOps  []TextOp
	backlight float64
	led       [3]float64
	onPresent []func()
}

func NewFb(dev string, byteOrder string, ind Indicator) (*Display, error) {
	order, err := framebuffer.ParseByteOrder(byteOrder)
	if err != nil {
		return nil, err
	}
	fb, err := framebuffer.New(dev, order)
	if err != nil {
		return nil, errors.Annotatef(err, "framebuffer device=%s", dev)
	}
	d := newDisplay(fb.Size(), ind)
	d.fb = fb
	return d, nil
}

// NewMock keeps pixels in memory only. ind may be nil.
func NewMock(size image.Point, ind Indicator) *Display {
	if ind == nil {
		ind = new(MockIndicator)
	}
	return newDisplay(size, ind)
}

func newDisplay(size image.Point, ind Indicator) *Display {
	return &Display{
		ind:   ind,
		pix:   make([]color.RGBA, size.X*size.Y),
		shown: make([]color.RGBA, size.X*size.Y),
		size:  size,
		ops:   make([]TextOp, 0, 16),
	}
}

func (d *Display) Size() image.Point { return d.size }

func (d *Display) FillRect(r image.Rectangle, c color.RGBA) {
	r = r.Canon().Intersect(image.Rectangle{Max: d.size})
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			d.set(x, y, c)
		}
	}
	if r.Min.X == 0 && r.Min.Y == 0 && r.Max == d.size {
		d.ops = d.ops[:0]
	}
}

func (d *Display) Text(pos image.Point, s string, size types.FontSize, c color.RGBA) {
	d.ops = append(d.ops, TextOp{Pos: pos, Text: s, Size: size, Color: c})
	writeText(pixelSink{d}, pos, s, size, c)
}

func (d *Display) Clear() error {
	d.FillRect(image.Rectangle{Max: d.size}, types.ColorBlack)
	return d.Present()
}

func (d *Display) Present() error {
	d.mu.Lock()
	copy(d.shown, d.pix)
	d.shownOps = append(d.shownOps[:0], d.ops...)
	fs := d.onPresent
	d.mu.Unlock()
	for _, f := range fs {
		f()
	}

	if d.fb != nil {
		if err := d.fb.Update(d.pix); err != nil {
			return err
		}
		return d.fb.Flush()
	}
	return nil
}

func (d *Display) SetBacklight(level float64) error {
	level = clamp01(level)
	d.mu.Lock()
	d.backlight = level
	d.mu.Unlock()
	return d.ind.SetBacklight(level)
}

func (d *Display) SetLED(r, g, b float64) error {
	r, g, b = clamp01(r), clamp01(g), clamp01(b)
	d.mu.Lock()
	d.led = [3]float64{r, g, b}
	d.mu.Unlock()
	return d.ind.SetLED(r, g, b)
}

// OnPresent registers observer, called after every Present outside of locks.
func (d *Display) OnPresent(f func()) {
	d.mu.Lock()
	d.onPresent = append(d.onPresent, f)
	d.mu.Unlock()
}

// Texts drawn in last presented frame, top to bottom.
func (d *Display) Texts() []TextOp {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]TextOp(nil), d.shownOps...)
}

func (d *Display) Lines() []string {
	ops := d.Texts()
	ss := make([]string, len(ops))
	for i, op := range ops {
		ss[i] = op.Text
	}
	return ss
}

func (d *Display) Backlight() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.backlight
}

func (d *Display) LED() (r, g, b float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.led[0], d.led[1], d.led[2]
}

// Snapshot copies last presented frame into img, dimmed by backlight.
func (d *Display) Snapshot(img *image.RGBA) {
	d.mu.Lock()
	defer d.mu.Unlock()
	k := 0.25 + 0.75*d.backlight
	for i, c := range d.shown {
		j := i * 4
		if j+3 >= len(img.Pix) {
			return
		}
		img.Pix[j+0] = uint8(float64(c.R) * k)
		img.Pix[j+1] = uint8(float64(c.G) * k)
		img.Pix[j+2] = uint8(float64(c.B) * k)
		img.Pix[j+3] = 0xff
	}
}

func (d *Display) Close() error {
	errs := make([]error, 0, 2)
	if d.fb != nil {
		errs = append(errs, errors.Annotate(d.fb.Close(), "framebuffer close"))
	}
	if c, ok := d.ind.(interface{ Close() error }); ok {
		errs = append(errs, c.Close())
	}
	return helpers.FoldErrors(errs)
}

// String2 renders presented frame as text, any non-black pixel is filled.
func (d *Display) String2() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	b := strings.Builder{}
	b.Grow((d.size.X + 1) * d.size.Y) // +1 for \n
	for y := 0; y < d.size.Y; y++ {
		for x := 0; x < d.size.X; x++ {
			c := d.shown[y*d.size.X+x]
			if c.R == 0 && c.G == 0 && c.B == 0 {
				b.WriteString("  ")
			} else {
				b.WriteString("██")
			}
		}
		b.WriteRune('\n')
	}
	return b.String()
}

func (d *Display) get(x, y int) color.RGBA    { return d.pix[y*d.size.X+x] }
func (d *Display) set(x, y int, c color.RGBA) { d.pix[y*d.size.X+x] = c }

func clamp01(f float64) float64 {
	if f < 0 || f != f {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
