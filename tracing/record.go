// Package tracing records the edits that a form controller processes.
package tracing

import (
	"time"

	"github.com/sarchlab/postcode/hooking"
)

// Kinds of edit records.
const (
	KindAddress    = "address"
	KindField      = "field"
	KindSuppressed = "suppressed"
)

// An EditRecord describes one edit event delivered to a controller.
type EditRecord struct {
	ID     string
	Domain string
	Kind   string
	Field  string
	Text   string

	// Valid tells whether the edited field held valid content afterwards.
	Valid bool

	// Address is the address field's text after the edit was processed.
	Address string
	Time    time.Time
}

// A TraceWriter stores edit records.
type TraceWriter interface {
	Init()
	Write(record EditRecord)
	Flush()
}

// NamedHookable represent something both have a name and can be hooked
type NamedHookable interface {
	hooking.Hookable
	Name() string
}
