package sla

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func assign(dest, val any) {
	switch d := dest.(type) {
	case *int:
		*d = val.(int)
	case *string:
		*d = val.(string)
	case *bool:
		*d = val.(bool)
	case *float64:
		*d = val.(float64)
	case *time.Time:
		*d = val.(time.Time)
	case *Priority:
		*d = Priority(val.(string))
	case **string:
		if val == nil {
			*d = nil
		} else {
			s := val.(string)
			*d = &s
		}
	}
}

type fakeRow struct{ vals []any }

func (r fakeRow) Scan(dest ...any) error {
	for i := range dest {
		if i < len(r.vals) {
			assign(dest[i], r.vals[i])
		}
	}
	return nil
}

type fakeRows struct {
	data [][]any
	i    int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Next() bool                                   { return r.i < len(r.data) }
func (r *fakeRows) Values() ([]any, error)                       { return nil, nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }
func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.i]
	r.i++
	for i := range dest {
		if i < len(row) {
			assign(dest[i], row[i])
		}
	}
	return nil
}

// fakeDB serves canned rows keyed by a substring of the SQL and records the
// last statement it saw.
type fakeDB struct {
	rows     map[string][][]any
	lastSQL  string
	lastArgs []any
}

func (db *fakeDB) match(sql string) [][]any {
	for k, v := range db.rows {
		if strings.Contains(sql, k) {
			return v
		}
	}
	return nil
}

func (db *fakeDB) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	db.lastSQL, db.lastArgs = sql, args
	return &fakeRows{data: db.match(sql)}, nil
}

func (db *fakeDB) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	db.lastSQL, db.lastArgs = sql, args
	if data := db.match(sql); len(data) > 0 {
		return fakeRow{vals: data[0]}
	}
	return fakeRow{}
}

func (db *fakeDB) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	db.lastSQL, db.lastArgs = sql, args
	return pgconn.NewCommandTag("UPDATE 1"), nil
}
