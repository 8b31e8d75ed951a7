package rowset

import (
	"fmt"
	"reflect"

	"gopkg.in/gomisc/errors.v1"
)

const (
	ErrConstruct   = errors.Const("cannot construct target structure")
	ErrCoercion    = errors.Const("cannot coerce column value")
	ErrNoColumn    = errors.Const("no such column")
	ErrNoRow       = errors.Const("cursor is not positioned on a row")
	ErrClosed      = errors.Const("cursor is closed")
	ErrUnsupported = errors.Const("operation is not supported by the cursor")
	ErrEmptyResult = errors.Const("empty result")

	ErrWrongQueryType  = errors.Const("query.Query must be string type")
	ErrWrongParameters = errors.Const("parameters must be []interface{} type")
)

type (
	// ColumnError - запрошенной колонки нет в текущей строке
	ColumnError struct {
		Column Column
	}

	// CoercionError - значение колонки не приводится к типу поля
	CoercionError struct {
		Column   string
		Property string
		Value    any
		Target   reflect.Type
		Err      error
	}
)

func (e *ColumnError) Error() string {
	return fmt.Sprintf("%s: %s", ErrNoColumn, e.Column)
}

func (e *ColumnError) Is(target error) bool {
	return target == ErrNoColumn
}

func (e *CoercionError) Error() string {
	msg := fmt.Sprintf("%s: column %q into property %q (%T -> %s)",
		ErrCoercion, e.Column, e.Property, e.Value, e.Target)

	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

func (e *CoercionError) Is(target error) bool {
	return target == ErrCoercion
}

func (e *CoercionError) Unwrap() error {
	return e.Err
}
