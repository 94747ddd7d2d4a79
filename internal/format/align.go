package format

import "math/bits"

// Align16 returns n aligned up to the next 16-byte boundary.
//
// Example:
//
//	Align16(1)  = 16
//	Align16(16) = 16
//	Align16(17) = 32
func Align16(n int) int {
	return (n + AlignmentMask) & ^AlignmentMask
}

// AlignPage returns n aligned up to the next PageSize boundary.
//
// Example:
//
//	AlignPage(1)     = 65536
//	AlignPage(65536) = 65536
//	AlignPage(65537) = 131072
func AlignPage(n int) int {
	return (n + PageMask) & ^PageMask
}

// PagesFor returns the number of pages needed to hold n bytes.
func PagesFor(n int) int {
	return AlignPage(n) >> PageShift
}

// AlignUp returns n aligned up to a, which must be a power of two.
func AlignUp(n, a int) int {
	return (n + a - 1) & ^(a - 1)
}

// IsPow2 reports whether n is a positive power of two.
func IsPow2(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// CeilLog2 returns the smallest k with 1<<k >= n. CeilLog2 of values <= 1 is 0.
func CeilLog2(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}
