// Package terminal presents the address form as text and drives it with line
// commands.
package terminal

import (
	"fmt"
	"io"

	"github.com/sarchlab/postcode/fieldsync"
	"github.com/sarchlab/postcode/vaddr"
)

// A Form holds what the user sees. It is the presenter of a controller.
type Form struct {
	texts map[fieldsync.FieldID]string
	valid map[fieldsync.FieldID]bool
}

// NewForm creates an empty form with no error markers.
func NewForm() *Form {
	f := &Form{
		texts: make(map[fieldsync.FieldID]string),
		valid: make(map[fieldsync.FieldID]bool),
	}

	for _, id := range fieldsync.AllFields() {
		f.valid[id] = true
	}

	return f
}

// SetText replaces the text shown in a field.
func (f *Form) SetText(field fieldsync.FieldID, text string) {
	f.texts[field] = text
}

// SetValid shows or hides the error marker of a field.
func (f *Form) SetValid(field fieldsync.FieldID, valid bool) {
	f.valid[field] = valid
}

// Text returns the text shown in a field.
func (f *Form) Text(field fieldsync.FieldID) string {
	return f.texts[field]
}

// Valid tells whether a field is shown without an error marker.
func (f *Form) Valid(field fieldsync.FieldID) bool {
	return f.valid[field]
}

// Render writes one line per field.
func (f *Form) Render(w io.Writer) {
	for _, id := range fieldsync.AllFields() {
		text := f.texts[id]
		if id == fieldsync.FieldVARange {
			if r, err := vaddr.ParseVARange(text); err == nil {
				text = fmt.Sprintf("%s (%s)", text, r)
			}
		}

		marker := ""
		if !f.valid[id] {
			marker = "  <- invalid"
		}

		fmt.Fprintf(w, "  %-9s %s%s\n", id, text, marker)
	}
}
