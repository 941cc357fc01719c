// Package hal sets up the hardware used by the kernel for its own output.
package hal

import (
	"minircore/kernel"
	"minircore/kernel/driver/tty"
	"minircore/kernel/driver/video/console"
	"minircore/kernel/hal/multiboot"
)

const (
	defaultConsoleWidth  = 80
	defaultConsoleHeight = 25
)

var (
	egaConsole = &console.Ega{}

	// ActiveTerminal points to the currently active terminal.
	ActiveTerminal = &tty.Vt{}

	errUnsupportedFramebuffer = &kernel.Error{Module: "hal", Message: "framebuffer is not in EGA text mode"}

	// getFramebufferInfoFn is mocked by tests.
	getFramebufferInfoFn = multiboot.GetFramebufferInfo
)

// InitTerminal attaches ActiveTerminal to an EGA text console that uses the
// framebuffer reported by the bootloader. If the bootloader did not report a
// framebuffer, the standard 80x25 text buffer at 0xb8000 is used. The
// framebuffer is accessed through the physical memory mapping that starts at
// physMemOffset.
func InitTerminal(physMemOffset uintptr) *kernel.Error {
	var (
		width, height uint16  = defaultConsoleWidth, defaultConsoleHeight
		fbPhysAddr    uintptr = console.EgaFramebufferAddr
	)

	if fbInfo := getFramebufferInfoFn(); fbInfo != nil {
		if fbInfo.Type != multiboot.FramebufferTypeEGA {
			return errUnsupportedFramebuffer
		}

		width, height = uint16(fbInfo.Width), uint16(fbInfo.Height)
		fbPhysAddr = uintptr(fbInfo.PhysAddr)
	}

	egaConsole.Init(width, height, physMemOffset+fbPhysAddr)
	ActiveTerminal.AttachTo(egaConsole)
	ActiveTerminal.Clear()

	return nil
}
