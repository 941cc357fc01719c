package vmm

// pageTableWalker is a function that can be passed to the walk method. The
// function receives the current page level, the table for that level and the
// index of the entry that corresponds to the walked address. If the function
// returns false, then the page walk is aborted.
type pageTableWalker func(pteLevel uint8, table PageTable, index uintptr) bool

// walk performs a page table walk for the given virtual address starting at
// the active top-level table. It calls the supplied walkFn for each page
// table level and then descends into the table pointed to by the entry at
// that level. The entry is read after walkFn returns so walkFn may populate
// it.
func walk(virtAddr uintptr, walkFn pageTableWalker) {
	table := tableAt(activePDTFn())

	for level := uint8(0); level < pageLevels; level++ {
		// Extract the bits from virtual address that correspond to the
		// index in this level's page table
		entryIndex := (virtAddr >> pageLevelShifts[level]) & ((1 << pageLevelBits[level]) - 1)

		if !walkFn(level, table, entryIndex) || level == pageLevels-1 {
			return
		}

		table = tableAt(table.Entry(entryIndex).Frame().Address())
	}
}
