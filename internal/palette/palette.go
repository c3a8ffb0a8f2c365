// Package palette assigns stable display colours to category and source labels.
package palette

import "unicode/utf16"

var (
	categoryColors = [7]string{"#FF5252", "#FF7043", "#FFCA28", "#66BB6A", "#26C6DA", "#5C6BC0", "#AB47BC"}
	sourceColors   = [7]string{"#4FC3F7", "#4DB6AC", "#7986CB", "#9575CD", "#4DD0E1", "#81C784", "#DCE775"}
)

// CategoryColor returns the expense palette colour for label.
func CategoryColor(label string) string {
	return pick(categoryColors, label)
}

// SourceColor returns the income palette colour for label.
func SourceColor(label string) string {
	return pick(sourceColors, label)
}

func pick(colors [7]string, label string) string {
	h := Hash(label)
	if h < 0 {
		h = -h
	}
	return colors[h%int64(len(colors))]
}

// Hash is the rolling label hash shared with the mobile client:
//
//	hash = unit + ((hash << 5) - hash)
//
// computed over UTF-16 code units. The shift operates on the accumulator
// truncated to a signed 32-bit value and wraps at 32 bits; the subtraction
// and addition do not, so the accumulator is carried in 64 bits.
func Hash(label string) int64 {
	var h int64
	for _, unit := range utf16.Encode([]rune(label)) {
		shifted := int64(int32(uint32(int32(h)) << 5))
		h = int64(unit) + (shifted - h)
	}
	return h
}
