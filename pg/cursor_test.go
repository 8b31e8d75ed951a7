package pg

import (
	"math/big"
	"testing"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgproto3/v2"
	"github.com/jackc/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomisc/errors.v1"

	"gopkg.in/gomisc/rowset.v1"
)

const errRowsFailed = errors.Const("rows failed")

// fakeRows отдает фиксированные строки через интерфейс pgx.Rows
type fakeRows struct {
	fields []pgproto3.FieldDescription
	rows   [][]any
	pos    int
	closed bool
	err    error
}

func (r *fakeRows) Close()                                         { r.closed = true }
func (r *fakeRows) Err() error                                     { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                  { return nil }
func (r *fakeRows) FieldDescriptions() []pgproto3.FieldDescription { return r.fields }
func (r *fakeRows) Scan(...interface{}) error                      { return errRowsFailed }
func (r *fakeRows) RawValues() [][]byte                            { return nil }

func (r *fakeRows) Next() bool {
	if r.closed || r.pos >= len(r.rows) {
		return false
	}

	r.pos++

	return true
}

func (r *fakeRows) Values() ([]interface{}, error) {
	row := r.rows[r.pos-1]
	out := make([]interface{}, len(row))
	copy(out, row)

	return out, nil
}

func field(name string, oid uint32) pgproto3.FieldDescription {
	return pgproto3.FieldDescription{Name: []byte(name), DataTypeOID: oid}
}

type item struct {
	ID      int32 `db:"id"`
	Name    string
	Price   float64
	Created time.Time
	Ref     string
}

func itemRows() *fakeRows {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ref := [16]byte{0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0, 0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef}

	return &fakeRows{
		fields: []pgproto3.FieldDescription{
			field("id", pgtype.Int4OID),
			field("name", pgtype.TextOID),
			field("price", pgtype.NumericOID),
			field("created", pgtype.TimestamptzOID),
			field("ref", pgtype.UUIDOID),
			field("custom", 99999),
		},
		rows: [][]any{
			{int32(1), " Lamp ", pgtype.Numeric{Int: big.NewInt(1250), Exp: -2, Status: pgtype.Present}, created, ref, nil},
			{int32(2), "Desk", pgtype.Numeric{Status: pgtype.Null}, created, ref, nil},
		},
	}
}

func TestCursor(t *testing.T) {
	rows := itemRows()
	c := NewCursor(rows)

	infos, err := rowset.Columns(c)
	require.NoError(t, err)
	require.Len(t, infos, 6)
	assert.Equal(t, "int4", infos[0].Type)
	assert.Equal(t, "numeric", infos[2].Type)
	assert.Equal(t, "uuid", infos[4].Type)
	assert.Equal(t, "99999", infos[5].Type)

	require.True(t, c.Next())

	price, err := c.Value(rowset.Label("PRICE"))
	require.NoError(t, err)
	assert.Equal(t, "12.50", price)

	ref, err := c.String(rowset.Label("ref"))
	require.NoError(t, err)
	assert.Equal(t, "12345678-9abc-def0-0123-456789abcdef", ref)

	require.True(t, c.Next())

	price, err = c.Value(rowset.Ordinal(3))
	require.NoError(t, err)
	assert.Nil(t, price)

	require.False(t, c.Next())
	require.NoError(t, c.Err())

	require.NoError(t, c.Close())
	assert.True(t, rows.closed)

	_, err = c.ColumnCount()
	require.ErrorIs(t, err, rowset.ErrClosed)
}

func TestCursorBeans(t *testing.T) {
	got, err := rowset.Beans[item](rowset.DefaultProcessor()).All(rowset.TrimStrings(NewCursor(itemRows())))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, int32(1), got[0].ID)
	assert.Equal(t, "Lamp", got[0].Name)
	assert.InDelta(t, 12.5, got[0].Price, 1e-9)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), got[0].Created)
	assert.Equal(t, "12345678-9abc-def0-0123-456789abcdef", got[0].Ref)
	assert.Zero(t, got[1].Price)
}

func TestCursorErrors(t *testing.T) {
	rows := itemRows()
	rows.err = errRowsFailed
	c := NewCursor(rows)

	_, err := c.Value(rowset.Ordinal(1))
	require.ErrorIs(t, err, rowset.ErrNoRow)

	require.ErrorIs(t, c.Decode(&item{}), rowset.ErrNoRow)
	require.Error(t, c.Err())

	_, err = c.ColumnLabel(7)
	require.ErrorIs(t, err, rowset.ErrNoColumn)
}

func TestDecimalText(t *testing.T) {
	tests := []struct {
		unscaled int64
		exp      int32
		want     string
	}{
		{1250, -2, "12.50"},
		{-1250, -2, "-12.50"},
		{5, -3, "0.005"},
		{-5, -1, "-0.5"},
		{12, 0, "12"},
		{12, 2, "1200"},
		{0, 3, "0"},
		{0, -2, "0.00"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, decimalText(big.NewInt(tt.unscaled), tt.exp))
	}
}
