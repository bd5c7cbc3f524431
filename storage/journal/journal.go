// Package journal keeps an audit trail of encryption changes and observed
// drive status in a DuckDB database.
package journal

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"
)

const (
	ACTION_SET    = "set"
	ACTION_STATUS = "status"
)

const schema = `CREATE TABLE IF NOT EXISTS events (
	time TIMESTAMP NOT NULL,
	device VARCHAR NOT NULL,
	action VARCHAR NOT NULL,
	mode VARCHAR NOT NULL,
	algorithm UTINYINT NOT NULL,
	key_instance UINTEGER NOT NULL,
	key_desc VARCHAR NOT NULL
)`

type Event struct {
	Time           time.Time
	Device         string
	Action         string
	Mode           string
	AlgorithmIndex uint8
	KeyInstance    uint32
	KeyDescription string
}

type Journal struct {
	db *sql.DB
}

// Open opens or creates the journal at path. An empty path keeps the journal
// in memory.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(schema)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) Record(ctx context.Context, e *Event) error {
	eventTime := e.Time
	if eventTime.IsZero() {
		eventTime = time.Now()
	}

	_, err := j.db.ExecContext(ctx,
		"INSERT INTO events (time, device, action, mode, algorithm, key_instance, key_desc) VALUES (?, ?, ?, ?, ?, ?, ?)",
		eventTime.UTC(), e.Device, e.Action, e.Mode, e.AlgorithmIndex, e.KeyInstance, e.KeyDescription,
	)
	return err
}

// List returns the events recorded for device, oldest first.
func (j *Journal) List(ctx context.Context, device string) ([]Event, error) {
	rows, err := j.db.QueryContext(ctx,
		"SELECT time, device, action, mode, algorithm, key_instance, key_desc FROM events WHERE device = ? ORDER BY time",
		device,
	)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var events []Event
	for rows.Next() {
		var e Event
		err = rows.Scan(&e.Time, &e.Device, &e.Action, &e.Mode, &e.AlgorithmIndex, &e.KeyInstance, &e.KeyDescription)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}

	return events, rows.Err()
}
