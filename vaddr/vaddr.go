// Package vaddr translates between 64-bit virtual addresses and the fields
// consumed by a 4-level page-table walk with 4KiB pages.
package vaddr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// pageLevels is the number of page-table levels walked for a translation.
	pageLevels = 4

	// indexBits is the number of virtual address bits that select an entry in
	// each page-table level. 9 bits amounts to 512 entries per table.
	indexBits = 9

	// offsetBits is the number of bits addressing a byte inside a 4KiB page.
	offsetBits = 12

	// vaRangeShift is the lowest bit of the sign-extended upper part of a
	// canonical 48-bit virtual address.
	vaRangeShift = 48

	indexMask  = (1 << indexBits) - 1
	offsetMask = (1 << offsetBits) - 1

	topRangeBits    = 0xFFFF
	bottomRangeBits = 0x0000
	topRangeBase    = uint64(topRangeBits) << vaRangeShift
)

const (
	// IndexBound is the exclusive upper bound of a page-table index.
	IndexBound uint64 = 1 << indexBits

	// OffsetBound is the exclusive upper bound of a page offset.
	OffsetBound uint64 = 1 << offsetBits
)

// levelShifts defines the shift required to access each page table index,
// from L3 down to L0.
var levelShifts = [pageLevels]uint{39, 30, 21, 12}

var (
	// ErrMalformedHex is returned when an address string is not hexadecimal.
	ErrMalformedHex = errors.New("malformed hex address")

	// ErrNonCanonicalAddress is returned when bits 63..48 of an address are
	// neither all zeros nor all ones.
	ErrNonCanonicalAddress = errors.New("non-canonical address")

	// ErrFieldOutOfRange is returned when a field is not a non-negative
	// decimal integer below its bound.
	ErrFieldOutOfRange = errors.New("field out of range")
)

// VARange selects the half of the virtual address space an address lives in.
type VARange int

// The two halves of a canonical 48-bit address space.
const (
	Bottom VARange = iota
	Top
)

func (r VARange) String() string {
	switch r {
	case Bottom:
		return "Bottom"
	case Top:
		return "Top"
	default:
		return fmt.Sprintf("VARange(%d)", int(r))
	}
}

// A DecomposedAddress holds the page-table-walk view of a virtual address.
type DecomposedAddress struct {
	VARange VARange
	L3      uint64
	L2      uint64
	L1      uint64
	L0      uint64
	Offset  uint64
}

// Indices returns the page-table indices ordered from L3 to L0.
func (d DecomposedAddress) Indices() [pageLevels]uint64 {
	return [pageLevels]uint64{d.L3, d.L2, d.L1, d.L0}
}

// Validate checks that every field fits in its bit width.
func (d DecomposedAddress) Validate() error {
	if d.VARange != Bottom && d.VARange != Top {
		return fmt.Errorf("va range %d: %w", int(d.VARange), ErrFieldOutOfRange)
	}

	names := [pageLevels]string{"l3", "l2", "l1", "l0"}
	for i, index := range d.Indices() {
		if index >= IndexBound {
			return fmt.Errorf("%s index %d: %w", names[i], index, ErrFieldOutOfRange)
		}
	}

	if d.Offset >= OffsetBound {
		return fmt.Errorf("offset %d: %w", d.Offset, ErrFieldOutOfRange)
	}

	return nil
}

func (d DecomposedAddress) String() string {
	return fmt.Sprintf("%s[%d:%d:%d:%d]+%d",
		d.VARange, d.L3, d.L2, d.L1, d.L0, d.Offset)
}

// Decompose splits an address into its VA range, page-table indices and page
// offset. It fails if the address is not canonical.
func Decompose(address uint64) (DecomposedAddress, error) {
	d := DecomposedAddress{}

	switch address >> vaRangeShift {
	case bottomRangeBits:
		d.VARange = Bottom
	case topRangeBits:
		d.VARange = Top
	default:
		return DecomposedAddress{},
			fmt.Errorf("address %#x: %w", address, ErrNonCanonicalAddress)
	}

	d.L3 = (address >> levelShifts[0]) & indexMask
	d.L2 = (address >> levelShifts[1]) & indexMask
	d.L1 = (address >> levelShifts[2]) & indexMask
	d.L0 = (address >> levelShifts[3]) & indexMask
	d.Offset = address & offsetMask

	return d, nil
}

// Compose combines the fields back into an address. The fields are expected to
// be in range already; out-of-range bits are masked off.
func Compose(d DecomposedAddress) uint64 {
	var address uint64

	if d.VARange == Top {
		address = topRangeBase
	}

	for i, index := range d.Indices() {
		address |= (index & indexMask) << levelShifts[i]
	}

	return address | (d.Offset & offsetMask)
}

// ParseField parses an unsigned decimal field value that must stay below
// bound.
func ParseField(text string, bound uint64) (uint64, error) {
	v, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a decimal number: %w",
			text, ErrFieldOutOfRange)
	}

	if v >= bound {
		return 0, fmt.Errorf("%d is not below %d: %w",
			v, bound, ErrFieldOutOfRange)
	}

	return v, nil
}

// ParseAddress parses a hexadecimal address with an optional 0x or 0X prefix.
func ParseAddress(text string) (uint64, error) {
	digits := text
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		digits = digits[2:]
	}

	address, err := strconv.ParseUint(digits, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", text, ErrMalformedHex)
	}

	return address, nil
}

// ParseVARange accepts the selector index (0 or 1) or the range name.
func ParseVARange(text string) (VARange, error) {
	switch strings.ToLower(text) {
	case "0", "bottom":
		return Bottom, nil
	case "1", "top":
		return Top, nil
	default:
		return Bottom, fmt.Errorf("va range %q: %w", text, ErrFieldOutOfRange)
	}
}

// FormatAddress renders an address the way it is shown in the address field:
// lower-case hex without a prefix.
func FormatAddress(address uint64) string {
	return strconv.FormatUint(address, 16)
}

// FormatField renders an index or offset the way it is parsed back.
func FormatField(v uint64) string {
	return strconv.FormatUint(v, 10)
}

// FormatVARange renders the selector index of a VA range.
func FormatVARange(r VARange) string {
	return strconv.Itoa(int(r))
}
