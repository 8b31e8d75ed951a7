package rowset

import (
	"reflect"
)

type (
	// RowFunc преобразует текущую строку курсора в значение T
	RowFunc[T any] func(c Cursor) (T, error)

	// Handler обходит курсор и преобразует строки с помощью RowFunc
	//
	// Handler не хранит состояния между вызовами и может использоваться
	// конкурентно с разными курсорами.
	Handler[T any] struct {
		convert RowFunc[T]
	}
)

// NewHandler конструктор Handler
func NewHandler[T any](convert RowFunc[T]) Handler[T] {
	return Handler[T]{convert: convert}
}

// Arrays - обработчик строк в виде массивов значений
func Arrays(p RowProcessor) Handler[[]any] {
	return NewHandler[[]any](p.ToArray)
}

// Maps - обработчик строк в виде map колонка -> значение
func Maps(p RowProcessor) Handler[map[string]any] {
	return NewHandler[map[string]any](p.ToMap)
}

// Beans - обработчик строк в виде структур типа T
func Beans[T any](p RowProcessor) Handler[T] {
	return NewHandler[T](func(c Cursor) (T, error) {
		return Bean[T](p, c)
	})
}

// Single перемещает курсор не более одного раза и преобразует строку
//
// Если строк нет, возвращает false без ошибки.
func (h Handler[T]) Single(c Cursor) (T, bool, error) {
	var zero T

	if !c.Next() {
		return zero, false, c.Err()
	}

	v, err := h.convert(c)
	if err != nil {
		return zero, false, err
	}

	return v, true, nil
}

// All преобразует все строки курсора в порядке обхода
//
// Для пустого курсора возвращает пустой (не nil) срез.
func (h Handler[T]) All(c Cursor) ([]T, error) {
	out := make([]T, 0)

	for c.Next() {
		v, err := h.convert(c)
		if err != nil {
			return nil, err
		}

		out = append(out, v)
	}

	if err := c.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

// Scalar перемещает курсор один раз и читает одну колонку без преобразования строки
func (h Handler[T]) Scalar(c Cursor, col Column) (any, bool, error) {
	return scalar(c, col)
}

func scalar(c Cursor, col Column) (any, bool, error) {
	if !c.Next() {
		return nil, false, c.Err()
	}

	v, err := c.Value(col)
	if err != nil {
		return nil, false, err
	}

	return v, true, nil
}

// ScalarOf читает одну колонку первой строки и приводит ее к типу T
func ScalarOf[T any](c Cursor, col Column) (T, bool, error) {
	var zero T

	v, ok, err := scalar(c, col)
	if err != nil || !ok {
		return zero, ok, err
	}

	out, err := coerceTo[T](v, labelOf(c, col))
	if err != nil {
		return zero, false, err
	}

	return out, true, nil
}

// ColumnList возвращает значения одной колонки всех строк
func ColumnList(c Cursor, col Column) ([]any, error) {
	return NewHandler[any](func(c Cursor) (any, error) {
		return c.Value(col)
	}).All(c)
}

// Keyed возвращает строки, преобразованные h, по значению колонки key
//
// При повторе ключа остается последняя строка.
func Keyed[K comparable, T any](h Handler[T], c Cursor, key Column) (map[K]T, error) {
	out := make(map[K]T)

	for c.Next() {
		raw, err := c.Value(key)
		if err != nil {
			return nil, err
		}

		k, err := coerceTo[K](raw, labelOf(c, key))
		if err != nil {
			return nil, err
		}

		if out[k], err = h.convert(c); err != nil {
			return nil, err
		}
	}

	if err := c.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

// ReadTable читает все строки курсора в Table
func ReadTable(c Cursor) (*Table, error) {
	table := &Table{Rows: make([][]any, 0)}
	p := DefaultProcessor()

	for c.Next() {
		if table.Headers == nil {
			headers, err := Labels(c)
			if err != nil {
				return nil, err
			}

			table.Headers = headers
		}

		row, err := p.ToArray(c)
		if err != nil {
			return nil, err
		}

		table.Rows = append(table.Rows, row)
	}

	if err := c.Err(); err != nil {
		return nil, err
	}

	if table.Headers == nil {
		// курсоры баз данных знают колонки и до первой строки
		if headers, err := Labels(c); err == nil {
			table.Headers = headers
		}
	}

	return table, nil
}

// ReadResult читает все строки курсора в Result
func ReadResult(c Cursor) (Result, error) {
	rows, err := Maps(DefaultProcessor()).All(c)
	if err != nil {
		return nil, err
	}

	return rows, nil
}

func coerceTo[T any](v any, column string) (T, error) {
	var zero T

	rt := reflect.TypeOf((*T)(nil)).Elem()

	rv, err := Coerce(v, rt)
	if err != nil {
		return zero, &CoercionError{Column: column, Property: rt.String(), Value: v, Target: rt, Err: err}
	}

	out, _ := rv.Interface().(T)

	return out, nil
}

// labelOf возвращает имя колонки col для ошибок приведения
func labelOf(c Cursor, col Column) string {
	if col.IsLabel() {
		return col.label
	}

	label, _ := c.ColumnLabel(col.ordinal)

	return label
}
