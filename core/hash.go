package core

import (
	"unicode/utf16"

	. "github.com/stevegt/goadapt"
)

// Hash returns the bucket index of key in a table with size buckets.
//
// The accumulator is a signed 32-bit integer updated as h*31 + c for
// each UTF-16 code unit c of the key, wrapping on overflow.  The index
// is the absolute value of the accumulator modulo size.  The absolute
// value is taken in 64 bits so that math.MinInt32 stays positive.
func Hash(key string, size int) int {
	Assert(size > 0, "table size must be positive: %d", size)
	var h int32
	for _, c := range utf16.Encode([]rune(key)) {
		h = (h << 5) - h + int32(c)
	}
	abs := int64(h)
	if abs < 0 {
		abs = -abs
	}
	return int(abs % int64(size))
}

// Hash returns the bucket index of key in this table.
func (t *Table) Hash(key string) int {
	return Hash(key, len(t.buckets))
}
