// Command memviz renders a firmware memory map, as seen by the kernel's boot
// memory allocator, to a PNG image. Each memory region is drawn as a bar and
// the frames that the allocator can hand out are highlighted.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fogleman/gg"

	"minircore/kernel/hal/multiboot"
	"minircore/kernel/mem"
	"minircore/kernel/mem/pmm"
	"minircore/kernel/mem/pmm/allocator"
)

const (
	rowHeight    = 28
	labelWidth   = 360
	barPadding   = 4
	imagePadding = 10
)

// defaultMemoryMap is the memory map reported by qemu-system-x86_64 with
// 128M of RAM.
const defaultMemoryMap = `
0x0000000000 0x000009fc00 available
0x000009fc00 0x00000a0000 reserved
0x00000f0000 0x0000100000 reserved
0x0000100000 0x0007fe0000 available
0x0007fe0000 0x0008000000 reserved
0x00fffc0000 0x0100000000 reserved
`

var typeColors = map[multiboot.MemoryEntryType]string{
	multiboot.MemAvailable:       "#9e9e9e",
	multiboot.MemReserved:        "#5c6bc0",
	multiboot.MemAcpiReclaimable: "#ffb74d",
	multiboot.MemNvs:             "#ba68c8",
}

const usableColor = "#66bb6a"

func exit(err error) {
	fmt.Fprintf(os.Stderr, "[memviz] error: %s\n", err.Error())
	os.Exit(1)
}

// parseMemoryMap reads a memory map where each non-empty line contains the
// start address, the end address (exclusive) and the region type.
func parseMemoryMap(r io.Reader) ([]multiboot.MemoryMapEntry, error) {
	var (
		entries []multiboot.MemoryMapEntry
		scanner = bufio.NewScanner(r)
		lineNum int
	)

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, fmt.Errorf("line %d: expected \"start end type\"; got %q", lineNum, line)
		}

		start, err := strconv.ParseUint(fields[0], 0, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid start address: %w", lineNum, err)
		}

		end, err := strconv.ParseUint(fields[1], 0, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid end address: %w", lineNum, err)
		}

		if end <= start {
			return nil, fmt.Errorf("line %d: region end must be greater than its start", lineNum)
		}

		entryType, err := parseEntryType(fields[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		entries = append(entries, multiboot.MemoryMapEntry{
			PhysAddress: start,
			Length:      end - start,
			Type:        entryType,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		return nil, errors.New("memory map is empty")
	}

	return entries, nil
}

func parseEntryType(name string) (multiboot.MemoryEntryType, error) {
	switch strings.ToLower(name) {
	case "available":
		return multiboot.MemAvailable, nil
	case "reserved":
		return multiboot.MemReserved, nil
	case "acpi":
		return multiboot.MemAcpiReclaimable, nil
	case "nvs":
		return multiboot.MemNvs, nil
	default:
		return 0, fmt.Errorf("unknown region type %q", name)
	}
}

// visitorFor adapts a list of entries to the allocator's memory map source.
func visitorFor(entries []multiboot.MemoryMapEntry) allocator.RegionVisitorFn {
	return func(visitor multiboot.MemRegionVisitor) {
		for i := range entries {
			if !visitor(&entries[i]) {
				return
			}
		}
	}
}

// render draws one row per memory region. The frames reported by the
// allocator as usable are painted over the region bars.
func render(entries []multiboot.MemoryMapEntry, alloc *allocator.BootMemAllocator, width int) *gg.Context {
	height := 2*imagePadding + (len(entries)+1)*rowHeight
	barWidth := float64(width - labelWidth - 2*imagePadding)

	dc := gg.NewContext(width, height)
	dc.SetHexColor("#ffffff")
	dc.Clear()

	for i, entry := range entries {
		y := float64(imagePadding + i*rowHeight)
		regionStart, regionEnd := entry.PhysAddress, entry.PhysAddress+entry.Length

		dc.SetHexColor("#000000")
		dc.DrawString(fmt.Sprintf("[0x%010x - 0x%010x] %s", regionStart, regionEnd, entry.Type), imagePadding, y+rowHeight/2+4)

		color, ok := typeColors[entry.Type]
		if !ok {
			color = typeColors[multiboot.MemReserved]
		}
		dc.SetHexColor(color)
		dc.DrawRectangle(labelWidth, y+barPadding, barWidth, rowHeight-2*barPadding)
		dc.Fill()

		// Overlay the usable frames that fall inside this region
		scale := barWidth / float64(entry.Length)
		alloc.VisitUsableRanges(func(start, end pmm.Frame) bool {
			from, to := uint64(start.Address()), uint64(end.Address())
			if from < regionStart || to > regionEnd {
				return true
			}

			dc.SetHexColor(usableColor)
			dc.DrawRectangle(labelWidth+float64(from-regionStart)*scale, y+barPadding, float64(to-from)*scale, rowHeight-2*barPadding)
			dc.Fill()
			return true
		})
	}

	dc.SetHexColor("#000000")
	dc.DrawString(
		fmt.Sprintf("usable frames: %d (%d Kb)", alloc.UsableFrames(), alloc.UsableFrames()*uint64(mem.PageSize/mem.Kb)),
		imagePadding,
		float64(imagePadding+len(entries)*rowHeight+rowHeight/2+4),
	)

	return dc
}

func main() {
	var (
		mapFile     = flag.String("map", "", "memory map file with \"start end type\" lines (default: qemu memory map)")
		kernelStart = flag.Uint64("kernel-start", 0x100000, "physical start address of the kernel image")
		kernelEnd   = flag.Uint64("kernel-end", 0x200000, "physical end address of the kernel image")
		outFile     = flag.String("out", "memmap.png", "output PNG file")
		width       = flag.Int("width", 1024, "image width in pixels")
	)
	flag.Parse()

	var src io.Reader = strings.NewReader(defaultMemoryMap)
	if *mapFile != "" {
		f, err := os.Open(*mapFile)
		if err != nil {
			exit(err)
		}
		defer f.Close()
		src = f
	}

	entries, err := parseMemoryMap(src)
	if err != nil {
		exit(err)
	}

	if *width <= labelWidth+2*imagePadding {
		exit(fmt.Errorf("image width must be greater than %d", labelWidth+2*imagePadding))
	}

	var alloc allocator.BootMemAllocator
	alloc.Init(visitorFor(entries), uintptr(*kernelStart), uintptr(*kernelEnd))

	if err = render(entries, &alloc, *width).SavePNG(*outFile); err != nil {
		exit(err)
	}
}
