package tracing

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// CSVTraceWriter is a trace writer that stores the edit records into a CSV
// file.
type CSVTraceWriter struct {
	path   string
	file   *os.File
	writer *csv.Writer

	records    []EditRecord
	bufferSize int
}

// NewCSVTraceWriter creates a new CSVTraceWriter. If path is empty, a unique
// file name is generated at Init.
func NewCSVTraceWriter(path string) *CSVTraceWriter {
	return &CSVTraceWriter{
		path:       path,
		bufferSize: 1000,
	}
}

// Path returns the path of the CSV file, without the extension.
func (t *CSVTraceWriter) Path() string {
	return t.path
}

// Init creates the trace csv file. It panics if the file already exists.
func (t *CSVTraceWriter) Init() {
	if t.path == "" {
		t.path = "postcode_trace_" + xid.New().String()
	}

	filename := t.path + ".csv"
	_, err := os.Stat(filename)
	if err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	file, err := os.Create(filename)
	if err != nil {
		panic(err)
	}
	t.file = file
	t.writer = csv.NewWriter(file)

	t.mustWrite([]string{
		"ID", "Domain", "Kind", "Field", "Text", "Valid", "Address", "Time",
	})

	atexit.Register(t.Close)
}

// Write buffers a record and flushes when the buffer is full.
func (t *CSVTraceWriter) Write(record EditRecord) {
	t.records = append(t.records, record)
	if len(t.records) >= t.bufferSize {
		t.Flush()
	}
}

// Flush writes the buffered records to the CSV file.
func (t *CSVTraceWriter) Flush() {
	for _, r := range t.records {
		t.mustWrite([]string{
			r.ID,
			r.Domain,
			r.Kind,
			r.Field,
			r.Text,
			strconv.FormatBool(r.Valid),
			r.Address,
			r.Time.Format(time.RFC3339Nano),
		})
	}

	t.records = nil

	t.writer.Flush()
	if err := t.writer.Error(); err != nil {
		panic(err)
	}
}

// Close flushes the remaining records and closes the file. Closing twice has
// no effect.
func (t *CSVTraceWriter) Close() {
	if t.file == nil {
		return
	}

	t.Flush()

	err := t.file.Close()
	if err != nil {
		panic(err)
	}

	t.file = nil
}

func (t *CSVTraceWriter) mustWrite(row []string) {
	err := t.writer.Write(row)
	if err != nil {
		panic(err)
	}
}
