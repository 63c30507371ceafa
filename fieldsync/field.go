package fieldsync

import (
	"fmt"
	"strings"
)

// FieldID identifies one of the six editable fields of the form.
type FieldID int

// All the fields a presenter shows. The order is the display order.
const (
	FieldAddress FieldID = iota
	FieldVARange
	FieldL3
	FieldL2
	FieldL1
	FieldL0
	FieldOffset
	numFields
)

var fieldNames = [numFields]string{
	"address", "va_range", "l3", "l2", "l1", "l0", "offset",
}

// AllFields lists every field in display order.
func AllFields() []FieldID {
	ids := make([]FieldID, 0, numFields)
	for id := FieldAddress; id < numFields; id++ {
		ids = append(ids, id)
	}

	return ids
}

// DecomposedFields lists the fields that are derived from the address.
func DecomposedFields() []FieldID {
	return AllFields()[1:]
}

func (f FieldID) String() string {
	if !f.valid() {
		return fmt.Sprintf("FieldID(%d)", int(f))
	}

	return fieldNames[f]
}

func (f FieldID) valid() bool {
	return f >= FieldAddress && f < numFields
}

func (f FieldID) mustBeValid() {
	if !f.valid() {
		panic(fmt.Sprintf("unknown field %d", int(f)))
	}
}

// ParseFieldID finds a field by its name. The match is case-insensitive.
func ParseFieldID(name string) (FieldID, bool) {
	name = strings.ToLower(name)
	for id, n := range fieldNames {
		if n == name {
			return FieldID(id), true
		}
	}

	return 0, false
}

// FieldTexts is the current content of the decomposed fields, as typed by the
// user.
type FieldTexts struct {
	VARange string
	L3      string
	L2      string
	L1      string
	L0      string
	Offset  string
}

// Get returns the text of a decomposed field.
func (t FieldTexts) Get(id FieldID) string {
	switch id {
	case FieldVARange:
		return t.VARange
	case FieldL3:
		return t.L3
	case FieldL2:
		return t.L2
	case FieldL1:
		return t.L1
	case FieldL0:
		return t.L0
	case FieldOffset:
		return t.Offset
	default:
		panic(fmt.Sprintf("%s is not a decomposed field", id))
	}
}

// Set changes the text of a decomposed field.
func (t *FieldTexts) Set(id FieldID, text string) {
	switch id {
	case FieldVARange:
		t.VARange = text
	case FieldL3:
		t.L3 = text
	case FieldL2:
		t.L2 = text
	case FieldL1:
		t.L1 = text
	case FieldL0:
		t.L0 = text
	case FieldOffset:
		t.Offset = text
	default:
		panic(fmt.Sprintf("%s is not a decomposed field", id))
	}
}
