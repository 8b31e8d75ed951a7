package xlsx

import (
	"io"
	"reflect"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"gopkg.in/gomisc/errors.v1"

	"gopkg.in/gomisc/rowset.v1"
)

// TypeText - тип колонки без пометки типа в заголовке
const TypeText = "TEXT"

var (
	_ rowset.Cursor      = (*Cursor)(nil)
	_ rowset.ColumnTyper = (*Cursor)(nil)
)

// valueTypes - типы из заголовков "name (TYPE)", значения которых приводятся
var valueTypes = map[string]reflect.Type{
	"INTEGER":   reflect.TypeOf(int64(0)),
	"INT":       reflect.TypeOf(int64(0)),
	"BIGINT":    reflect.TypeOf(int64(0)),
	"REAL":      reflect.TypeOf(float64(0)),
	"FLOAT":     reflect.TypeOf(float64(0)),
	"DOUBLE":    reflect.TypeOf(float64(0)),
	"DECIMAL":   reflect.TypeOf(float64(0)),
	"BOOLEAN":   reflect.TypeOf(false),
	"BOOL":      reflect.TypeOf(false),
	"DATE":      reflect.TypeOf(time.Time{}),
	"DATETIME":  reflect.TypeOf(time.Time{}),
	"TIMESTAMP": reflect.TypeOf(time.Time{}),
}

// Cursor - курсор по листу книги Excel
//
// Первая строка листа - заголовки колонок. Заголовок может указывать тип
// колонки в виде "amount (DECIMAL)", тогда значения приводятся к этому типу.
// Пустая ячейка читается как NULL.
type Cursor struct {
	file    *excelize.File
	owned   bool
	rows    *excelize.Rows
	columns []string
	types   []string
	values  []any
	onRow   bool
	closed  bool
	err     error
}

// Open открывает файл книги и возвращает курсор по листу sheet
//
// Пустое имя листа - первый лист книги.
func Open(path, sheet string) (*Cursor, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Ctx().Str("path", path).Wrap(err, "open workbook")
	}

	return own(f, sheet)
}

// Read читает книгу из r и возвращает курсор по листу sheet
func Read(r io.Reader, sheet string) (*Cursor, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "read workbook")
	}

	return own(f, sheet)
}

// NewCursor возвращает курсор по листу открытой книги; книгу закрывает вызывающий
func NewCursor(f *excelize.File, sheet string) (*Cursor, error) {
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, errors.Ctx().Str("sheet", sheet).Wrap(err, "read sheet rows")
	}

	c := &Cursor{file: f, rows: rows}

	if err = c.readHeader(); err != nil {
		_ = rows.Close()

		return nil, errors.Ctx().Str("sheet", sheet).Wrap(err, "read sheet header")
	}

	return c, nil
}

func own(f *excelize.File, sheet string) (*Cursor, error) {
	c, err := NewCursor(f, sheet)
	if err != nil {
		_ = f.Close()

		return nil, err
	}

	c.owned = true

	return c, nil
}

func (c *Cursor) Next() bool {
	c.onRow = false

	if c.closed || c.err != nil || !c.rows.Next() {
		return false
	}

	cells, err := c.rows.Columns()
	if err != nil {
		c.err = errors.Wrap(err, "read row cells")

		return false
	}

	values := make([]any, len(c.columns))

	for i := range values {
		if i >= len(cells) || cells[i] == "" {
			continue
		}

		if values[i], err = c.convert(i, cells[i]); err != nil {
			c.err = err

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

	if err := c.rows.Error(); err != nil {
		return errors.Wrap(err, "iterate sheet rows")
	}

	return nil
}

func (c *Cursor) Close() error {
	if c.closed {
		return nil
	}

	c.closed = true
	c.onRow = false

	if err := c.rows.Close(); err != nil {
		return errors.Wrap(err, "close sheet rows")
	}

	if c.owned {
		if err := c.file.Close(); err != nil {
			return errors.Wrap(err, "close workbook")
		}
	}

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

// ColumnType возвращает тип из заголовка колонки или TEXT
func (c *Cursor) ColumnType(ordinal int) (string, error) {
	if _, err := c.ColumnLabel(ordinal); err != nil {
		return "", err
	}

	return c.types[ordinal-1], nil
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

func (c *Cursor) readHeader() error {
	if !c.rows.Next() {
		return c.rows.Error()
	}

	header, err := c.rows.Columns()
	if err != nil {
		return err
	}

	c.columns = make([]string, len(header))
	c.types = make([]string, len(header))

	for i, h := range header {
		c.columns[i], c.types[i] = parseHeader(h)
	}

	return nil
}

func (c *Cursor) convert(i int, cell string) (any, error) {
	t, ok := valueTypes[c.types[i]]
	if !ok {
		return cell, nil
	}

	rv, err := rowset.Coerce(cell, t)
	if err != nil {
		return nil, &rowset.CoercionError{
			Column: c.columns[i],
			Value:  cell,
			Target: t,
			Err:    err,
		}
	}

	return rv.Interface(), nil
}

// parseHeader разбирает заголовок "name (TYPE)" или "name (TYPE) *"
func parseHeader(header string) (name, typ string) {
	header = strings.TrimSuffix(strings.TrimSpace(header), " *")
	name, typ = header, TypeText

	if open := strings.LastIndex(header, "("); open > 0 {
		if end := strings.LastIndex(header, ")"); end > open {
			name = strings.TrimSpace(header[:open])
			typ = strings.ToUpper(strings.TrimSpace(header[open+1 : end]))
		}
	}

	return name, typ
}
