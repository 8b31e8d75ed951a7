package sqldb

import (
	"strings"

	"github.com/georgysavva/scany/sqlscan"
	"github.com/jmoiron/sqlx"
	"gopkg.in/gomisc/errors.v1"

	"gopkg.in/gomisc/rowset.v1"
)

var (
	_ rowset.Cursor      = (*Cursor)(nil)
	_ rowset.ColumnTyper = (*Cursor)(nil)
	_ rowset.Decoder     = (*Cursor)(nil)
)

// binaryTypes - типы колонок, значения которых остаются []byte
var binaryTypes = []string{"BLOB", "BINARY", "VARBINARY", "BYTEA", "IMAGE", "BIT"}

// Cursor - курсор по результату запроса database/sql
type Cursor struct {
	rows    *sqlx.Rows
	columns []string
	types   []string
	values  []any
	onRow   bool
	closed  bool
	err     error
}

// NewCursor возвращает курсор по строкам rows
func NewCursor(rows *sqlx.Rows) *Cursor {
	return &Cursor{rows: rows}
}

func (c *Cursor) Next() bool {
	c.onRow = false

	if c.closed || c.err != nil {
		return false
	}

	// после исчерпания строк database/sql закрывает rows и колонки недоступны
	if err := c.describe(); err != nil {
		c.err = err

		return false
	}

	if !c.rows.Next() {
		return false
	}

	values, err := c.rows.SliceScan()
	if err != nil {
		c.err = errors.Wrap(err, "scan row values")

		return false
	}

	c.values = values
	c.onRow = true

	return true
}

func (c *Cursor) Err() error {
	if c.err != nil {
		return c.err
	}

	return c.rows.Err()
}

func (c *Cursor) Close() error {
	c.closed = true
	c.onRow = false

	if err := c.rows.Close(); err != nil {
		return errors.Wrap(err, "close cursor rows")
	}

	return nil
}

func (c *Cursor) ColumnCount() (int, error) {
	if err := c.describe(); err != nil {
		return 0, err
	}

	return len(c.columns), nil
}

func (c *Cursor) ColumnLabel(ordinal int) (string, error) {
	if err := c.describe(); err != nil {
		return "", err
	}

	if ordinal < 1 || ordinal > len(c.columns) {
		return "", &rowset.ColumnError{Column: rowset.Ordinal(ordinal)}
	}

	return c.columns[ordinal-1], nil
}

// ColumnType возвращает имя типа колонки в СУБД
func (c *Cursor) ColumnType(ordinal int) (string, error) {
	if _, err := c.ColumnLabel(ordinal); err != nil {
		return "", err
	}

	return c.types[ordinal-1], nil
}

func (c *Cursor) Value(col rowset.Column) (any, error) {
	if err := c.describe(); err != nil {
		return nil, err
	}

	if !c.onRow {
		return nil, rowset.ErrNoRow
	}

	ordinal, err := col.Resolve(c.columns)
	if err != nil {
		return nil, err
	}

	v := c.values[ordinal-1]

	// драйверы с текстовым протоколом отдают текст как []byte
	if b, ok := v.([]byte); ok && !isBinary(c.types[ordinal-1]) {
		return string(b), nil
	}

	return v, nil
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

	if err := sqlscan.ScanRow(dst, c.rows.Rows); err != nil {
		return errors.Wrap(err, "decode row")
	}

	return nil
}

func (c *Cursor) describe() error {
	if c.closed {
		return rowset.ErrClosed
	}

	if c.columns != nil {
		return nil
	}

	columns, err := c.rows.Columns()
	if err != nil {
		return errors.Wrap(err, "get result columns")
	}

	types, err := c.rows.ColumnTypes()
	if err != nil {
		return errors.Wrap(err, "get result column types")
	}

	c.types = make([]string, len(types))
	for i, typ := range types {
		c.types[i] = typ.DatabaseTypeName()
	}

	c.columns = columns

	return nil
}

func isBinary(typeName string) bool {
	typeName = strings.ToUpper(typeName)

	for _, t := range binaryTypes {
		if strings.Contains(typeName, t) {
			return true
		}
	}

	return false
}
