// Package framebuffer writes pixels to linux fbdev, rgb565 and 32bpp.
package framebuffer

//go:generate sh -ec "go tool cgo -godefs _defs.go >defs.gen.go && go fmt ."

import (
	"encoding/binary"
	"image"
	"image/color"
	"os"
	"strings"
	"syscall"
	"unsafe"

	"github.com/juju/errors"
)

type Framebuffer struct {
	buf   []byte
	dev   *os.File
	order binary.ByteOrder
	finfo fixedScreenInfo
	vinfo variableScreenInfo
}

// ParseByteOrder accepts "little", "big" or empty for little.
func ParseByteOrder(s string) (binary.ByteOrder, error) {
	switch strings.ToLower(s) {
	case "", "little":
		return binary.LittleEndian, nil
	case "big":
		return binary.BigEndian, nil
	}
	return nil, errors.NotValidf("framebuffer byte_order=%q", s)
}

func New(dev string, order binary.ByteOrder) (*Framebuffer, error) {
	devFile, err := os.OpenFile(dev, os.O_RDWR, os.ModeDevice)
	if err != nil {
		return nil, errors.Annotate(err, "open")
	}
	fb := &Framebuffer{dev: devFile, order: order}
	fd := fb.dev.Fd()

	if err = ioctl(fd, getFixedScreenInfo, uintptr(unsafe.Pointer(&fb.finfo))); err != nil {
		fb.dev.Close()
		return nil, errors.Annotate(err, "getFixedScreenInfo")
	}

	if err = ioctl(fd, getVariableScreenInfo, uintptr(unsafe.Pointer(&fb.vinfo))); err != nil {
		fb.dev.Close()
		return nil, errors.Annotate(err, "getVariableScreenInfo")
	}

	fb.buf = make([]byte, fb.lineLength()*fb.vinfo.Yres)

	return fb, nil
}

func (fb *Framebuffer) Close() error {
	return fb.dev.Close()
}

func (fb *Framebuffer) Flush() error {
	_, err := fb.dev.WriteAt(fb.buf, 0)
	return err
}

func (fb *Framebuffer) Size() image.Point {
	return image.Point{X: int(fb.vinfo.Xres), Y: int(fb.vinfo.Yres)}
}

func (fb *Framebuffer) lineLength() uint32 {
	if fb.finfo.Line_length != 0 {
		return fb.finfo.Line_length
	}
	return fb.vinfo.Xres * (fb.vinfo.Bits_per_pixel / 8)
}

// Sets all pixels in internal buffer, call Flush() to write to hardware.
// cs is row-major with width of Size().X.
func (fb *Framebuffer) Update(cs []color.RGBA) error {
	return encode(fb.buf, &fb.vinfo, fb.lineLength(), fb.order, cs)
}

func encode(buf []byte, vinfo *variableScreenInfo, stride uint32, order binary.ByteOrder, cs []color.RGBA) error {
	w, h := vinfo.Xres, vinfo.Yres
	if uint32(len(cs)) < w*h {
		return errors.Errorf("framebuffer update pixels=%d expected=%d", len(cs), w*h)
	}
	wordSize := vinfo.Bits_per_pixel / 8
	switch {
	case vinfo.Bits_per_pixel == 16 && vinfo.Red == rgb565.Red && vinfo.Green == rgb565.Green && vinfo.Blue == rgb565.Blue:
		for y := uint32(0); y < h; y++ {
			for x := uint32(0); x < w; x++ {
				offset := y*stride + x*wordSize
				order.PutUint16(buf[offset:], encode565(cs[y*w+x]))
			}
		}
		return nil

	case vinfo.Bits_per_pixel == 32:
		for y := uint32(0); y < h; y++ {
			for x := uint32(0); x < w; x++ {
				offset := y*stride + x*wordSize
				order.PutUint32(buf[offset:], encode32(cs[y*w+x], vinfo))
			}
		}
		return nil

	default:
		return errors.NotSupportedf("color model bpp=%d", vinfo.Bits_per_pixel)
	}
}

var rgb565 = variableScreenInfo{
	Red:   bitField{Offset: 11, Length: 5, Right: 0},
	Green: bitField{Offset: 5, Length: 6, Right: 0},
	Blue:  bitField{Offset: 0, Length: 5, Right: 0},
}

func encode565(c color.RGBA) uint16 {
	return (uint16(c.R) & 0xf8 << 8) | (uint16(c.G) & 0xfc << 3) | (uint16(c.B) & 0xf8 >> 3)
}

func encode32(c color.RGBA, vinfo *variableScreenInfo) uint32 {
	return channel(c.R, vinfo.Red) | channel(c.G, vinfo.Green) | channel(c.B, vinfo.Blue) | channel(0xff, vinfo.Transp)
}

func channel(v uint8, f bitField) uint32 {
	if f.Length == 0 {
		return 0
	}
	return (uint32(v) >> (8 - f.Length)) << f.Offset
}

func ioctl(fd uintptr, cmd uintptr, data uintptr) error {
	if _, _, errno := syscall.Syscall(syscall.SYS_IOCTL, fd, cmd, data); errno != 0 {
		return os.NewSyscallError("ioctl", errno)
	}
	return nil
}
