package hal

import (
	"minircore/kernel/driver/video/console"
	"minircore/kernel/hal/multiboot"
	"testing"
	"unsafe"
)

func TestInitTerminal(t *testing.T) {
	defer func() {
		getFramebufferInfoFn = multiboot.GetFramebufferInfo
	}()

	fb := make([]uint16, 80*25)
	fbAddr := uintptr(unsafe.Pointer(&fb[0]))

	specs := []struct {
		fbInfo        *multiboot.FramebufferInfo
		physMemOffset uintptr
		expErr        bool
		expW, expH    uint16
	}{
		// no framebuffer tag; fall back to the EGA buffer at 0xb8000
		{nil, fbAddr - console.EgaFramebufferAddr, false, 80, 25},
		{&multiboot.FramebufferInfo{PhysAddr: 0x1000, Width: 40, Height: 25, Type: multiboot.FramebufferTypeEGA}, fbAddr - 0x1000, false, 40, 25},
		{&multiboot.FramebufferInfo{PhysAddr: 0x1000, Width: 1024, Height: 768, Type: multiboot.FramebufferTypeRGB}, 0, true, 0, 0},
	}

	for specIndex, spec := range specs {
		getFramebufferInfoFn = func() *multiboot.FramebufferInfo { return spec.fbInfo }

		for i := range fb {
			fb[i] = 0xdead
		}

		err := InitTerminal(spec.physMemOffset)
		if spec.expErr {
			if err != errUnsupportedFramebuffer {
				t.Errorf("[spec %d] expected to get errUnsupportedFramebuffer; got %v", specIndex, err)
			}
			continue
		}

		if err != nil {
			t.Errorf("[spec %d] unexpected error: %v", specIndex, err)
			continue
		}

		if w, h := ActiveTerminal.Dimensions(); w != spec.expW || h != spec.expH {
			t.Errorf("[spec %d] expected terminal dimensions to be %dx%d; got %dx%d", specIndex, spec.expW, spec.expH, w, h)
		}

		// The terminal is cleared and writes land in the framebuffer
		ActiveTerminal.Write([]byte("ok"))
		if byte(fb[0]) != 'o' || byte(fb[1]) != 'k' || byte(fb[2]) != ' ' {
			t.Errorf("[spec %d] expected terminal output to be written to the framebuffer", specIndex)
		}
	}
}
