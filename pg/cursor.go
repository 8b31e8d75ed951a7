package pg

import (
	"database/sql/driver"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/georgysavva/scany/pgxscan"
	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
	"gopkg.in/gomisc/errors.v1"

	"gopkg.in/gomisc/rowset.v1"
)

var (
	_ rowset.Cursor      = (*Cursor)(nil)
	_ rowset.ColumnTyper = (*Cursor)(nil)
	_ rowset.Decoder     = (*Cursor)(nil)
)

// types резолвит OID типов колонок в имена; только чтение
var types = pgtype.NewConnInfo()

// Cursor - курсор по результату запроса pgx
type Cursor struct {
	rows    pgx.Rows
	columns []string
	oids    []uint32
	values  []any
	onRow   bool
	closed  bool
	err     error
}

// NewCursor возвращает курсор по строкам rows
func NewCursor(rows pgx.Rows) *Cursor {
	fields := rows.FieldDescriptions()

	c := &Cursor{
		rows:    rows,
		columns: make([]string, len(fields)),
		oids:    make([]uint32, len(fields)),
	}

	for i, field := range fields {
		c.columns[i] = string(field.Name)
		c.oids[i] = field.DataTypeOID
	}

	return c
}

func (c *Cursor) Next() bool {
	c.onRow = false

	if c.closed || c.err != nil || !c.rows.Next() {
		return false
	}

	values, err := c.rows.Values()
	if err != nil {
		c.err = wrapPgErr(err, "get row values")

		return false
	}

	for i, v := range values {
		if values[i], err = normalize(v, c.oids[i]); err != nil {
			c.err = errors.Ctx().Str("column", c.columns[i]).Wrap(err, "convert column value")

			return false
		}
	}

	c.values = values
	c.onRow = true

	return true
}

func (c *Cursor) Err() error {
	if c.err != nil {
		return c.err
	}

	if err := c.rows.Err(); err != nil {
		return wrapPgErr(err, "iterate query result")
	}

	return nil
}

func (c *Cursor) Close() error {
	c.closed = true
	c.onRow = false
	c.rows.Close()

	return nil
}

func (c *Cursor) ColumnCount() (int, error) {
	if c.closed {
		return 0, rowset.ErrClosed
	}

	return len(c.columns), nil
}

func (c *Cursor) ColumnLabel(ordinal int) (string, error) {
	if c.closed {
		return "", rowset.ErrClosed
	}

	if ordinal < 1 || ordinal > len(c.columns) {
		return "", &rowset.ColumnError{Column: rowset.Ordinal(ordinal)}
	}

	return c.columns[ordinal-1], nil
}

// ColumnType возвращает имя типа PostgreSQL, для неизвестных типов - OID
func (c *Cursor) ColumnType(ordinal int) (string, error) {
	if _, err := c.ColumnLabel(ordinal); err != nil {
		return "", err
	}

	oid := c.oids[ordinal-1]

	if dt, ok := types.DataTypeForOID(oid); ok {
		return dt.Name, nil
	}

	return strconv.FormatUint(uint64(oid), 10), nil
}

func (c *Cursor) Value(col rowset.Column) (any, error) {
	if c.closed {
		return nil, rowset.ErrClosed
	}

	if !c.onRow {
		return nil, rowset.ErrNoRow
	}

	ordinal, err := col.Resolve(c.columns)
	if err != nil {
		return nil, err
	}

	return c.values[ordinal-1], nil
}

func (c *Cursor) String(col rowset.Column) (string, error) {
	v, err := c.Value(col)
	if err != nil {
		return "", err
	}

	return rowset.Text(v), nil
}

// Decode заполняет dst текущей строкой по правилам scany
func (c *Cursor) Decode(dst any) error {
	if c.closed {
		return rowset.ErrClosed
	}

	if !c.onRow {
		return rowset.ErrNoRow
	}

	if err := pgxscan.ScanRow(dst, c.rows); err != nil {
		return wrapPgErr(err, "decode row")
	}

	return nil
}

// normalize приводит значения pgtype (numeric, uuid) к простым типам Go
func normalize(v any, oid uint32) (any, error) {
	switch val := v.(type) {
	case [16]byte:
		if oid == pgtype.UUIDOID {
			return fmt.Sprintf("%x-%x-%x-%x-%x", val[0:4], val[4:6], val[6:8], val[8:10], val[10:16]), nil
		}
	case pgtype.Numeric:
		if val.Status == pgtype.Present && !val.NaN && val.InfinityModifier == pgtype.None && val.Int != nil {
			return decimalText(val.Int, val.Exp), nil
		}
	}

	if valuer, ok := v.(driver.Valuer); ok {
		return valuer.Value()
	}

	return v, nil
}

// decimalText записывает unscaled * 10^exp в десятичной записи: 1250, -2 -> "12.50"
func decimalText(unscaled *big.Int, exp int32) string {
	digits := new(big.Int).Abs(unscaled).String()

	sign := ""
	if unscaled.Sign() < 0 {
		sign = "-"
	}

	if exp >= 0 {
		if unscaled.Sign() == 0 {
			return "0"
		}

		return sign + digits + strings.Repeat("0", int(exp))
	}

	scale := int(-exp)
	if len(digits) <= scale {
		digits = strings.Repeat("0", scale-len(digits)+1) + digits
	}

	point := len(digits) - scale

	return sign + digits[:point] + "." + digits[point:]
}
