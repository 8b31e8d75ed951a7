package rowset

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStorage отдает одну и ту же таблицу на любой запрос
type memStorage struct {
	table   *Table
	queries []Query
	cursors []*closeTracker
}

type closeTracker struct {
	Cursor
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true

	return c.Cursor.Close()
}

func (s *memStorage) Close() error {
	return nil
}

func (s *memStorage) Iterate(_ context.Context, query Query) (Cursor, error) {
	s.queries = append(s.queries, query)

	c := &closeTracker{Cursor: s.table.Cursor()}
	s.cursors = append(s.cursors, c)

	return c, nil
}

func (s *memStorage) Exec(context.Context, Query) (sql.Result, error) {
	return nil, ErrUnsupported
}

func TestNewQuery(t *testing.T) {
	q := NewQuery("SELECT 1")
	assert.Equal(t, "SELECT 1", q.String())
	assert.Equal(t, "SELECT 1", q.Query())
	assert.Equal(t, []any{}, q.Params())

	q = NewQuery("SELECT ? + ?", 1, 2)
	assert.Equal(t, []any{1, 2}, q.Params())
}

func TestFetch(t *testing.T) {
	st := &memStorage{table: people()}

	got, err := Fetch(context.Background(), st, NewQuery("SELECT id, first_name FROM people"), Beans[account](DefaultProcessor()))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Eve", got[2].FirstName)

	require.Len(t, st.cursors, 1)
	assert.True(t, st.cursors[0].closed)
	assert.Equal(t, "SELECT id, first_name FROM people", st.queries[0].String())
}

func TestFetchTrimmed(t *testing.T) {
	st := &memStorage{table: newTable([]string{"first_name"}, []any{" Ann "})}

	got, err := Fetch(context.Background(), st, NewQuery("q"), Maps(DefaultProcessor()), Trimmed)
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"first_name": "Ann"}}, got)
}

func TestFetchOne(t *testing.T) {
	st := &memStorage{table: people()}

	got, err := FetchOne(context.Background(), st, NewQuery("q"), Arrays(DefaultProcessor()))
	require.NoError(t, err)
	assert.Equal(t, []any{"1", "Ann"}, got)
	assert.True(t, st.cursors[0].closed)

	empty := &memStorage{table: newTable([]string{"id"})}

	_, err = FetchOne(context.Background(), empty, NewQuery("q"), Arrays(DefaultProcessor()))
	require.ErrorIs(t, err, ErrEmptyResult)
	assert.True(t, empty.cursors[0].closed)
}

func TestFetchScalar(t *testing.T) {
	st := &memStorage{table: people()}

	id, ok, err := FetchScalar[int](context.Background(), st, NewQuery("q"), Label("id"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, id)
}

type rawQuery struct {
	query  any
	params any
}

func (q rawQuery) String() string      { return "raw" }
func (q rawQuery) Query() interface{}  { return q.query }
func (q rawQuery) Params() interface{} { return q.params }

func TestStatement(t *testing.T) {
	stmt, params, err := Statement(NewQuery("SELECT $1", 7))
	require.NoError(t, err)
	assert.Equal(t, "SELECT $1", stmt)
	assert.Equal(t, []any{7}, params)

	_, _, err = Statement(rawQuery{query: 1, params: []any{}})
	require.Error(t, err)

	_, _, err = Statement(rawQuery{query: "SELECT 1", params: map[string]any{}})
	require.Error(t, err)
}
