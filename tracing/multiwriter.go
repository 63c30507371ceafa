package tracing

// MultiTraceWriter sends every record to several writers.
type MultiTraceWriter struct {
	writers []TraceWriter
}

// NewMultiTraceWriter creates a writer that fans out to ws.
func NewMultiTraceWriter(ws ...TraceWriter) *MultiTraceWriter {
	return &MultiTraceWriter{writers: ws}
}

// Init initializes all the writers.
func (m *MultiTraceWriter) Init() {
	for _, w := range m.writers {
		w.Init()
	}
}

// Write passes the record to all the writers.
func (m *MultiTraceWriter) Write(record EditRecord) {
	for _, w := range m.writers {
		w.Write(record)
	}
}

// Flush flushes all the writers.
func (m *MultiTraceWriter) Flush() {
	for _, w := range m.writers {
		w.Flush()
	}
}
