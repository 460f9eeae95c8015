// Copyright 2013 Konstantin Kulikov. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package framebuffer

import (
	"bytes"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/srlehn/kioskimg/internal/errors"
)

// ioctl requests from <linux/fb.h>
const (
	getVariableScreenInfo = 0x4600 // FBIOGET_VSCREENINFO
	getFixedScreenInfo    = 0x4602 // FBIOGET_FSCREENINFO
)

type bitfield struct {
	Offset   uint32
	Length   uint32
	MsbRight uint32
}

// variableScreenInfo mirrors struct fb_var_screeninfo.
type variableScreenInfo struct {
	Xres         uint32
	Yres         uint32
	XresVirtual  uint32
	YresVirtual  uint32
	Xoffset      uint32
	Yoffset      uint32
	BitsPerPixel uint32
	Grayscale    uint32
	Red          bitfield
	Green        bitfield
	Blue         bitfield
	Transp       bitfield
	Nonstd       uint32
	Activate     uint32
	Height       uint32
	Width        uint32
	AccelFlags   uint32
	Pixclock     uint32
	LeftMargin   uint32
	RightMargin  uint32
	UpperMargin  uint32
	LowerMargin  uint32
	HsyncLen     uint32
	VsyncLen     uint32
	Sync         uint32
	Vmode        uint32
	Rotate       uint32
	Colorspace   uint32
	Reserved     [4]uint32
}

// fixedScreenInfo mirrors struct fb_fix_screeninfo.
type fixedScreenInfo struct {
	ID           [16]byte
	SmemStart    uintptr
	SmemLen      uint32
	Type         uint32
	TypeAux      uint32
	Visual       uint32
	Xpanstep     uint16
	Ypanstep     uint16
	Ywrapstep    uint16
	LineLength   uint32
	MmioStart    uintptr
	MmioLen      uint32
	Accel        uint32
	Capabilities uint16
	Reserved     [2]uint16
}

type fileDevice struct {
	f *os.File
}

// OpenDevice opens a framebuffer device file.
func OpenDevice(path string) (Device, error) {
	f, err := os.OpenFile(path, os.O_RDWR, os.ModeDevice)
	if err != nil {
		return nil, errors.New(err)
	}
	return &fileDevice{f: f}, nil
}

func (d *fileDevice) Geometry() (Geometry, error) {
	if d == nil || d.f == nil {
		return Geometry{}, errors.NilReceiver()
	}
	var (
		vinfo variableScreenInfo
		finfo fixedScreenInfo
	)
	if err := ioctl(d.f.Fd(), getVariableScreenInfo, unsafe.Pointer(&vinfo)); err != nil {
		return Geometry{}, err
	}
	if err := ioctl(d.f.Fd(), getFixedScreenInfo, unsafe.Pointer(&finfo)); err != nil {
		return Geometry{}, err
	}
	id := finfo.ID[:]
	if i := bytes.IndexByte(id, 0); i >= 0 {
		id = id[:i]
	}
	return Geometry{
		ID:           string(id),
		Xres:         vinfo.Xres,
		Yres:         vinfo.Yres,
		XresVirtual:  vinfo.XresVirtual,
		YresVirtual:  vinfo.YresVirtual,
		BitsPerPixel: vinfo.BitsPerPixel,
		LineLength:   finfo.LineLength,
		SmemLen:      finfo.SmemLen,
		RedOffset:    vinfo.Red.Offset,
		BlueOffset:   vinfo.Blue.Offset,
	}, nil
}

func (d *fileDevice) Map(size int) ([]byte, error) {
	if d == nil || d.f == nil {
		return nil, errors.NilReceiver()
	}
	mem, err := unix.Mmap(int(d.f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, errors.New(err)
	}
	return mem, nil
}

func (d *fileDevice) Unmap(mem []byte) error {
	if len(mem) == 0 {
		return nil
	}
	if err := unix.Munmap(mem); err != nil {
		return errors.New(err)
	}
	return nil
}

func (d *fileDevice) Close() error {
	if d == nil || d.f == nil {
		return nil
	}
	f := d.f
	d.f = nil
	if err := f.Close(); err != nil {
		return errors.New(err)
	}
	return nil
}

func ioctl(fd uintptr, cmd uintptr, data unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, cmd, uintptr(data))
	if errno != 0 {
		return errors.New(os.NewSyscallError(`IOCTL`, errno))
	}
	return nil
}
