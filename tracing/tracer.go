package tracing

import (
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/sarchlab/postcode/fieldsync"
	"github.com/sarchlab/postcode/hooking"
)

// An EditTracer is a hook that turns controller edits into records.
type EditTracer struct {
	lock   sync.Mutex
	writer TraceWriter
	now    func() time.Time
}

// NewEditTracer creates a tracer that sends its records to w.
func NewEditTracer(w TraceWriter) *EditTracer {
	return &EditTracer{
		writer: w,
		now:    time.Now,
	}
}

// CollectTrace let the tracer collect edits from a controller.
func CollectTrace(domain NamedHookable, tracer *EditTracer) {
	for _, hook := range domain.Hooks() {
		if hook == tracer {
			panic(fmt.Sprintf(
				"domain %s already has tracer %s",
				domain.Name(), reflect.TypeOf(tracer)))
		}
	}

	domain.AcceptHook(tracer)
}

// Func converts the hook context to a record and writes it.
func (t *EditTracer) Func(ctx hooking.HookCtx) {
	event, ok := ctx.Item.(fieldsync.EditEvent)
	if !ok {
		return
	}

	record := EditRecord{
		ID:    xid.New().String(),
		Field: event.Field.String(),
		Text:  event.Text,
		Time:  t.now(),
	}

	if c, ok := ctx.Domain.(*fieldsync.Controller); ok {
		record.Domain = c.Name()
		record.Address = c.Text(fieldsync.FieldAddress)
	}

	switch ctx.Pos {
	case fieldsync.HookPosAddressEdited:
		record.Kind = KindAddress
		record.Valid = ctx.Detail.(fieldsync.AddressEditResult).AddressValid
	case fieldsync.HookPosFieldEdited:
		record.Kind = KindField
		record.Valid = ctx.Detail.(fieldsync.FieldEditResult).Validity[event.Field]
	case fieldsync.HookPosEditSuppressed:
		record.Kind = KindSuppressed
	default:
		return
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	t.writer.Write(record)
}

// Flush makes the writer store the buffered records.
func (t *EditTracer) Flush() {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.writer.Flush()
}
