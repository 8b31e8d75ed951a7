package rowset

import (
	"fmt"
	"time"
)

type (
	// Result - строки результата в виде map колонка -> значение
	Result []map[string]any

	// Table - результат запроса в виде заголовков и строк значений
	Table struct {
		Headers []string `json:"headers"`
		Rows    [][]any  `json:"rows"`
	}

	tableCursor struct {
		table  *Table
		row    int
		closed bool
	}
)

var _ ColumnTyper = (*tableCursor)(nil)

// Cursor возвращает курсор по строкам таблицы
//
// Строки короче заголовка дополняются NULL, лишние значения не видны.
func (t *Table) Cursor() Cursor {
	return &tableCursor{table: t}
}

func (c *tableCursor) Next() bool {
	if c.closed || c.row > len(c.table.Rows) {
		return false
	}

	c.row++

	return c.row <= len(c.table.Rows)
}

func (c *tableCursor) Err() error {
	return nil
}

func (c *tableCursor) Close() error {
	c.closed = true

	return nil
}

func (c *tableCursor) ColumnCount() (int, error) {
	if c.closed {
		return 0, ErrClosed
	}

	return len(c.table.Headers), nil
}

func (c *tableCursor) ColumnLabel(ordinal int) (string, error) {
	if c.closed {
		return "", ErrClosed
	}

	if ordinal < 1 || ordinal > len(c.table.Headers) {
		return "", &ColumnError{Column: Ordinal(ordinal)}
	}

	return c.table.Headers[ordinal-1], nil
}

// ColumnType возвращает Go-тип первого непустого значения колонки
func (c *tableCursor) ColumnType(ordinal int) (string, error) {
	if _, err := c.ColumnLabel(ordinal); err != nil {
		return "", err
	}

	for _, row := range c.table.Rows {
		if ordinal <= len(row) && row[ordinal-1] != nil {
			return fmt.Sprintf("%T", row[ordinal-1]), nil
		}
	}

	return "", nil
}

func (c *tableCursor) Value(col Column) (any, error) {
	if c.closed {
		return nil, ErrClosed
	}

	if c.row < 1 || c.row > len(c.table.Rows) {
		return nil, ErrNoRow
	}

	ordinal, err := col.Resolve(c.table.Headers)
	if err != nil {
		return nil, err
	}

	row := c.table.Rows[c.row-1]
	if ordinal > len(row) {
		return nil, nil
	}

	return row[ordinal-1], nil
}

func (c *tableCursor) String(col Column) (string, error) {
	v, err := c.Value(col)
	if err != nil {
		return "", err
	}

	return Text(v), nil
}

// Text возвращает текстовое представление значения колонки
func Text(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339Nano)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
