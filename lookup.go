package sixel

// cacheSize is the number of 15-bit colour keys.
const cacheSize = 1 << 15

func cacheKey(r, g, b uint8) int {
	return int(r>>3)<<10 | int(g>>3)<<5 | int(b>>3)
}

// CacheTable remembers the palette index chosen for each 15-bit colour
// cell. An entry also records the colour it was filled for, so a different
// colour in the same cell is searched again instead of reusing the index.
// It is only valid for the palette it was filled against and must be reset
// whenever that palette changes.
type CacheTable struct {
	entries []cacheEntry
}

// cacheEntry holds index+1, 0 marking an empty slot.
type cacheEntry struct {
	c   RGB
	idx uint16
}

// NewCacheTable returns an empty cache table.
func NewCacheTable() *CacheTable {
	return &CacheTable{entries: make([]cacheEntry, cacheSize)}
}

// Reset invalidates every entry.
func (c *CacheTable) Reset() {
	clear(c.entries)
}

// lookup returns the cached index for the colour, filling the entry with a
// full search on a miss.
func (c *CacheTable) lookup(palette []RGB, r, g, b uint8, complexion int) int {
	e := &c.entries[cacheKey(r, g, b)]
	if e.idx != 0 && e.c == (RGB{r, g, b}) {
		return int(e.idx) - 1
	}

	idx := nearest(palette, r, g, b, complexion)
	*e = cacheEntry{c: RGB{r, g, b}, idx: uint16(idx + 1)}
	return idx
}

// nearest returns the index of the palette colour closest to (r, g, b). The
// red term is weighted by complexion; ties go to the lowest index.
func nearest(palette []RGB, r, g, b uint8, complexion int) int {
	result := 0
	best := int(^uint(0) >> 1)

	for i, p := range palette {
		dr := int(r) - int(p.R)
		dg := int(g) - int(p.G)
		db := int(b) - int(p.B)
		d := dr*dr*complexion + dg*dg + db*db
		if d < best {
			best, result = d, i
			if d == 0 {
				break
			}
		}
	}

	return result
}
