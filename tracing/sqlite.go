package tracing

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"

	"github.com/rs/xid"
	log "github.com/sirupsen/logrus"
	"github.com/tebeka/atexit"
)

// SQLiteTraceWriter is a writer that writes edit records to a SQLite database.
type SQLiteTraceWriter struct {
	*sql.DB
	statement *sql.Stmt

	dbName    string
	toWrite   []EditRecord
	batchSize int
}

// NewSQLiteTraceWriter creates a new SQLiteTraceWriter. If path is empty, a
// unique database name is generated at Init.
func NewSQLiteTraceWriter(path string) *SQLiteTraceWriter {
	w := &SQLiteTraceWriter{
		dbName:    path,
		batchSize: 10000,
	}

	return w
}

// Path returns the database path, without the extension.
func (t *SQLiteTraceWriter) Path() string {
	return t.dbName
}

// Init establishes a connection to the database.
func (t *SQLiteTraceWriter) Init() {
	t.createDatabase()
	t.createTable()
	t.prepareStatement()

	atexit.Register(t.Close)
}

// Write buffers a record and flushes when the batch is full.
func (t *SQLiteTraceWriter) Write(record EditRecord) {
	t.toWrite = append(t.toWrite, record)
	if len(t.toWrite) >= t.batchSize {
		t.Flush()
	}
}

// Flush writes all the buffered records to the database.
func (t *SQLiteTraceWriter) Flush() {
	if len(t.toWrite) == 0 {
		return
	}

	tx, err := t.Begin()
	if err != nil {
		panic(err)
	}

	stmt := tx.Stmt(t.statement)
	for _, r := range t.toWrite {
		_, err := stmt.Exec(
			r.ID,
			r.Domain,
			r.Kind,
			r.Field,
			r.Text,
			r.Valid,
			r.Address,
			r.Time.UnixNano(),
		)
		if err != nil {
			_ = tx.Rollback()
			panic(err)
		}
	}

	err = tx.Commit()
	if err != nil {
		panic(err)
	}

	t.toWrite = nil
}

// Close flushes the remaining records and closes the database. Closing twice
// has no effect.
func (t *SQLiteTraceWriter) Close() {
	if t.DB == nil {
		return
	}

	t.Flush()

	err := t.statement.Close()
	if err != nil {
		panic(err)
	}

	err = t.DB.Close()
	if err != nil {
		panic(err)
	}

	t.DB = nil
}

func (t *SQLiteTraceWriter) createDatabase() {
	if t.dbName == "" {
		t.dbName = "postcode_trace_" + xid.New().String()
	}

	filename := t.dbName + ".sqlite3"
	_, err := os.Stat(filename)
	if err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	log.Infof("Edit trace is collected in database %s", filename)

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}

	t.DB = db
}

func (t *SQLiteTraceWriter) createTable() {
	t.mustExecute(`
		create table edit
		(
			record_id varchar(200) not null,
			domain    varchar(200),
			kind      varchar(20)  not null,
			field     varchar(20)  not null,
			text      text,
			valid     boolean      not null,
			address   text,
			time      integer      not null
		);
	`)

	t.mustExecute(`
		create index edit_time_index
			on edit (time);
	`)

	t.mustExecute(`
		create index edit_domain_index
			on edit (domain);
	`)
}

func (t *SQLiteTraceWriter) prepareStatement() {
	sqlStr := `
		INSERT INTO edit VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	stmt, err := t.Prepare(sqlStr)
	if err != nil {
		panic(err)
	}

	t.statement = stmt
}

func (t *SQLiteTraceWriter) mustExecute(query string) sql.Result {
	res, err := t.Exec(query)
	if err != nil {
		fmt.Printf("Failed to execute: %s\n", query)
		panic(err)
	}

	return res
}

// SQLiteTraceReader reads edit records back from a database written by a
// SQLiteTraceWriter.
type SQLiteTraceReader struct {
	*sql.DB

	filename string
}

// NewSQLiteTraceReader creates a reader for the given database file.
func NewSQLiteTraceReader(filename string) *SQLiteTraceReader {
	return &SQLiteTraceReader{filename: filename}
}

// Init opens the database.
func (r *SQLiteTraceReader) Init() {
	db, err := sql.Open("sqlite3", r.filename)
	if err != nil {
		panic(err)
	}

	r.DB = db
}

// ListEdits returns the records of a domain ordered by time. An empty domain
// returns the records of every domain.
func (r *SQLiteTraceReader) ListEdits(domain string) []EditRecord {
	query := `
		SELECT record_id, domain, kind, field, text, valid, address, time
		FROM edit
		WHERE ? = '' OR domain = ?
		ORDER BY time, rowid
	`

	rows, err := r.Query(query, domain, domain)
	if err != nil {
		panic(err)
	}
	defer rows.Close()

	var records []EditRecord
	for rows.Next() {
		var (
			rec  EditRecord
			nano int64
		)

		err := rows.Scan(
			&rec.ID,
			&rec.Domain,
			&rec.Kind,
			&rec.Field,
			&rec.Text,
			&rec.Valid,
			&rec.Address,
			&nano,
		)
		if err != nil {
			panic(err)
		}

		rec.Time = time.Unix(0, nano)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		panic(err)
	}

	return records
}
