package rowset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomisc/errors.v1"
)

const errBroken = errors.Const("broken cursor")

// plainCursor скрывает необязательные возможности курсора
type plainCursor struct {
	Cursor
}

// brokenCursor возвращает ошибку на каждое чтение значения
type brokenCursor struct {
	Cursor
}

func (brokenCursor) Value(Column) (any, error)     { return nil, errBroken }
func (brokenCursor) String(Column) (string, error) { return "", errBroken }
func (brokenCursor) Err() error                    { return errBroken }
func (brokenCursor) Close() error                  { return errBroken }

// decodingCursor запоминает dst, переданный в Decode
type decodingCursor struct {
	Cursor
	dst any
}

func (c *decodingCursor) Decode(dst any) error {
	c.dst = dst

	return nil
}

func padded() *Table {
	return newTable([]string{" pad ", "n", "raw"},
		[]any{"  Ann \t", int64(5), []byte(" b ")},
		[]any{"Bob", int64(6), nil},
	)
}

func TestWrapTransparent(t *testing.T) {
	direct, err := ReadTable(padded().Cursor())
	require.NoError(t, err)

	wrapped, err := ReadTable(Wrap(padded().Cursor(), nil))
	require.NoError(t, err)
	assert.Equal(t, direct, wrapped)

	infos, err := Columns(Wrap(padded().Cursor(), Rules{}))
	require.NoError(t, err)
	assert.Equal(t, "string", infos[0].Type)

	plain, err := Columns(plainCursor{Cursor: padded().Cursor()})
	require.NoError(t, err)

	wrappedPlain, err := Columns(Wrap(plainCursor{Cursor: padded().Cursor()}, nil))
	require.NoError(t, err)
	assert.Equal(t, plain, wrappedPlain)
	assert.Empty(t, wrappedPlain[0].Type)
}

func TestTrimStrings(t *testing.T) {
	c := TrimStrings(padded().Cursor())
	require.True(t, c.Next())

	s, err := c.String(Ordinal(1))
	require.NoError(t, err)
	assert.Equal(t, "Ann", s)

	v, err := c.Value(Ordinal(1))
	require.NoError(t, err)
	assert.Equal(t, "Ann", v)

	v, err = c.Value(Label("n"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), v)

	v, err = c.Value(Label("raw"))
	require.NoError(t, err)
	assert.Equal(t, []byte(" b "), v, "only strings are trimmed")

	s, err = c.String(Label("raw"))
	require.NoError(t, err)
	assert.Equal(t, "b", s)

	label, err := c.ColumnLabel(1)
	require.NoError(t, err)
	assert.Equal(t, " pad ", label, "labels are not intercepted")

	require.True(t, c.Next())

	v, err = c.Value(Label("raw"))
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestTrimStringsIdempotent(t *testing.T) {
	once, err := ReadTable(TrimStrings(padded().Cursor()))
	require.NoError(t, err)

	twice, err := ReadTable(TrimStrings(TrimStrings(padded().Cursor())))
	require.NoError(t, err)

	assert.Equal(t, once, twice)
	assert.Equal(t, "Ann", once.Rows[0][0])
}

func TestTrimStringsRepeatedReads(t *testing.T) {
	counting := &countingCursor{Cursor: padded().Cursor()}
	c := TrimStrings(counting)
	require.True(t, c.Next())

	for i := 0; i < 3; i++ {
		v, err := c.Value(Ordinal(1))
		require.NoError(t, err)
		assert.Equal(t, "Ann", v)

		s, err := c.String(Ordinal(1))
		require.NoError(t, err)
		assert.Equal(t, "Ann", s)
	}

	assert.Equal(t, 1, counting.next)
}

func TestTrimStringsWithBeans(t *testing.T) {
	table := newTable([]string{"first_name", "note"}, []any{" Ann ", "  "})

	got, err := Beans[account](DefaultProcessor()).All(TrimStrings(table.Cursor()))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Ann", got[0].FirstName)
	assert.Equal(t, "", got[0].Note)
}

func TestWrapErrorsPassThrough(t *testing.T) {
	calls := 0
	rules := Intercept(func(v any) any {
		calls++

		return v
	}, OpValue, OpString)

	c := Wrap(brokenCursor{Cursor: padded().Cursor()}, rules)
	require.True(t, c.Next())

	_, err := c.Value(Ordinal(1))
	require.ErrorIs(t, err, errBroken)

	_, err = c.String(Ordinal(1))
	require.ErrorIs(t, err, errBroken)

	require.ErrorIs(t, c.Err(), errBroken)
	require.ErrorIs(t, c.Close(), errBroken)
	assert.Zero(t, calls)

	_, err = Wrap(padded().Cursor(), rules).ColumnLabel(9)
	require.ErrorIs(t, err, ErrNoColumn)
}

func TestWrapUnsupported(t *testing.T) {
	c := Wrap(plainCursor{Cursor: padded().Cursor()}, nil)

	_, err := c.ColumnType(1)
	require.ErrorIs(t, err, ErrUnsupported)

	require.ErrorIs(t, c.Decode(&account{}), ErrUnsupported)
}

func TestWrapTransformResults(t *testing.T) {
	c := Wrap(padded().Cursor(), Intercept(func(any) any { return 42 }, OpString).
		With(func(any) any { return nil }, OpValue).
		With(func(v any) any { return v.(int) + 1 }, OpColumnCount))
	require.True(t, c.Next())

	s, err := c.String(Ordinal(1))
	require.NoError(t, err)
	assert.Equal(t, "  Ann \t", s, "a result of another type is discarded")

	v, err := c.Value(Ordinal(2))
	require.NoError(t, err)
	assert.Nil(t, v)

	count, err := c.ColumnCount()
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestWrapNext(t *testing.T) {
	c := Wrap(padded().Cursor(), Intercept(func(any) any { return false }, OpNext))

	rows, err := Arrays(DefaultProcessor()).All(c)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestWrapDecode(t *testing.T) {
	inner := &decodingCursor{Cursor: padded().Cursor()}

	var seen any

	c := Wrap(inner, Intercept(func(v any) any {
		seen = v

		return v
	}, OpDecode))

	dst := &account{}
	require.NoError(t, c.Decode(dst))
	assert.Same(t, dst, inner.dst)
	assert.Same(t, dst, seen)
}

func TestRules(t *testing.T) {
	base := Intercept(TrimSpace, OpString)
	extended := base.With(TrimSpace, OpValue)

	assert.True(t, base.Has(OpString))
	assert.False(t, base.Has(OpValue))
	assert.True(t, extended.Has(OpValue))

	w := Wrap(padded().Cursor(), base)
	base[OpColumnLabel] = TrimSpace

	assert.False(t, w.Rules().Has(OpColumnLabel))

	label, err := w.ColumnLabel(1)
	require.NoError(t, err)
	assert.Equal(t, " pad ", label)

	assert.IsType(t, &tableCursor{}, w.Unwrap())
}

func TestTrimSpace(t *testing.T) {
	assert.Equal(t, "x", TrimSpace(" x\n"))
	assert.Equal(t, 3, TrimSpace(3))
	assert.Nil(t, TrimSpace(nil))
}
