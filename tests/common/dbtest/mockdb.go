//go:build unit || e2e

package dbtest

import (
	"context"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"
)

// MockDB is a testify mock of the pgx query surface used by repositories.
type MockDB struct {
	mock.Mock
}

func (m *MockDB) Exec(ctx context.Context, query string, args ...interface{}) (pgconn.CommandTag, error) {
	mockArgs := m.Called(ctx, query, args)
	return mockArgs.Get(0).(pgconn.CommandTag), mockArgs.Error(1)
}

func (m *MockDB) Query(ctx context.Context, query string, args ...interface{}) (pgx.Rows, error) {
	mockArgs := m.Called(ctx, query, args)
	rows, _ := mockArgs.Get(0).(pgx.Rows)
	return rows, mockArgs.Error(1)
}

func (m *MockDB) QueryRow(ctx context.Context, query string, args ...interface{}) pgx.Row {
	mockArgs := m.Called(ctx, query, args)
	return mockArgs.Get(0).(pgx.Row)
}

// FakeRow scans Values positionally into the destinations.
type FakeRow struct {
	Values []any
	Err    error
}

func (r FakeRow) Scan(dest ...any) error {
	if r.Err != nil {
		return r.Err
	}
	return scanInto(r.Values, dest)
}

// FakeRows iterates over Data, one FakeRow per element.
type FakeRows struct {
	Data   [][]any
	ErrVal error
	idx    int
	closed bool
}

func (r *FakeRows) Close() { r.closed = true }

func (r *FakeRows) Err() error { return r.ErrVal }

func (r *FakeRows) CommandTag() pgconn.CommandTag { return pgconn.NewCommandTag("SELECT") }

func (r *FakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }

func (r *FakeRows) Next() bool {
	if r.closed || r.idx >= len(r.Data) {
		r.closed = true
		return false
	}
	r.idx++
	return true
}

func (r *FakeRows) Scan(dest ...any) error {
	return scanInto(r.Data[r.idx-1], dest)
}

func (r *FakeRows) Values() ([]any, error) { return r.Data[r.idx-1], nil }

func (r *FakeRows) RawValues() [][]byte { return nil }

func (r *FakeRows) Conn() *pgx.Conn { return nil }

func (r *FakeRows) Closed() bool { return r.closed }

func scanInto(values []any, dest []any) error {
	for i, d := range dest {
		if i >= len(values) || values[i] == nil {
			continue
		}
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(values[i]))
	}
	return nil
}
