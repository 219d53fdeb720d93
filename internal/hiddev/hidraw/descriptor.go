package hidraw

// Report-descriptor scanning. Only the items needed to discover which
// keyboard-page usages a device's input reports carry are interpreted;
// everything else is skipped by size.

const (
	itemTypeMain   = 0
	itemTypeGlobal = 1
	itemTypeLocal  = 2

	tagInput     = 0x8
	tagUsagePage = 0x0 // global
	tagUsage     = 0x0 // local
	tagUsageMin  = 0x1
	tagUsageMax  = 0x2

	longItemPrefix = 0xFE
)

// maxRangeSpan caps how many usages a single min/max pair may declare,
// guarding against corrupt descriptors.
const maxRangeSpan = 1024

// keyboardUsages scans a HID report descriptor and returns every
// keyboard/keypad-page usage referenced by an Input main item, in
// declaration order, without duplicates.
func keyboardUsages(desc []byte, page uint32) []uint32 {
	var (
		out       []uint32
		seen      = map[uint32]bool{}
		curPage   uint32
		usages    []uint32
		usageMin  uint32
		usageMax  uint32
		haveRange bool
	)

	clearLocals := func() {
		usages = usages[:0]
		usageMin, usageMax, haveRange = 0, 0, false
	}

	emit := func(u uint32) {
		if !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}

	for i := 0; i < len(desc); {
		prefix := desc[i]
		i++

		if prefix == longItemPrefix {
			// Long item: next byte is the data size, then the tag.
			if i >= len(desc) {
				break
			}
			i += int(desc[i]) + 2
			continue
		}

		size := int(prefix & 0x3)
		if size == 3 {
			size = 4
		}
		if i+size > len(desc) {
			break
		}

		var data uint32
		for b := 0; b < size; b++ {
			data |= uint32(desc[i+b]) << (8 * b)
		}
		i += size

		itemType := (prefix >> 2) & 0x3
		tag := prefix >> 4

		switch itemType {
		case itemTypeGlobal:
			if tag == tagUsagePage {
				curPage = data
			}
		case itemTypeLocal:
			switch tag {
			case tagUsage:
				usages = append(usages, data)
			case tagUsageMin:
				usageMin = data
			case tagUsageMax:
				usageMax = data
				haveRange = true
			}
		case itemTypeMain:
			if tag == tagInput && curPage == page {
				for _, u := range usages {
					emit(u)
				}
				if haveRange && usageMax >= usageMin &&
					usageMax-usageMin < maxRangeSpan {
					for u := usageMin; u <= usageMax; u++ {
						emit(u)
					}
				}
			}
			// Locals never survive a main item.
			clearLocals()
		}
	}
	return out
}
