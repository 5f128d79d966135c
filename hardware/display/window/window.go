// Package window shows display frames in a desktop window, keyboard acts as panel buttons.
package window

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/kilnworks/ovenpanel/hardware/display"
	"github.com/kilnworks/ovenpanel/internal/types"
)

var keymap = map[ebiten.Key]types.Button{
	ebiten.KeyA:          types.ButtonA,
	ebiten.KeyArrowUp:    types.ButtonA,
	ebiten.KeyB:          types.ButtonB,
	ebiten.KeyArrowDown:  types.ButtonB,
	ebiten.KeyX:          types.ButtonX,
	ebiten.KeyEnter:      types.ButtonX,
	ebiten.KeyY:          types.ButtonY,
	ebiten.KeyTab:        types.ButtonY,
	ebiten.KeyArrowRight: types.ButtonY,
}

// ErrClosed is returned from Update when stop channel is closed.
var ErrClosed = ebiten.Termination

type Window struct {
	d     *display.Display
	press func(types.Button) bool
	stop  <-chan struct{}

	img   *image.RGBA
	fbImg *ebiten.Image
}

// New window presents d. press is called from ebiten goroutine for every key press.
func New(d *display.Display, press func(types.Button) bool, stop <-chan struct{}) *Window {
	return &Window{d: d, press: press, stop: stop}
}

// Run blocks until window is closed or stop.
func (self *Window) Run(title string, scale int) error {
	if scale <= 0 {
		scale = 2
	}
	size := self.d.Size()
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(size.X*scale, size.Y*scale)
	ebiten.SetTPS(30)
	return ebiten.RunGame(self)
}

func (self *Window) Update() error {
	select {
	case <-self.stop:
		return ErrClosed
	default:
	}
	for key, b := range keymap {
		if inpututil.IsKeyJustPressed(key) {
			self.press(b)
		}
	}
	return nil
}

func (self *Window) Draw(screen *ebiten.Image) {
	size := self.d.Size()
	if self.img == nil {
		self.img = image.NewRGBA(image.Rectangle{Max: size})
		self.fbImg = ebiten.NewImage(size.X, size.Y)
	}
	self.d.Snapshot(self.img)
	self.fbImg.WritePixels(self.img.Pix)
	screen.DrawImage(self.fbImg, nil)
}

func (self *Window) Layout(outsideWidth, outsideHeight int) (int, int) {
	size := self.d.Size()
	return size.X, size.Y
}
