package rowset

import (
	"reflect"
)

// Операции курсора, результат которых может быть перехвачен
const (
	OpNext        Op = "Next"
	OpColumnCount Op = "ColumnCount"
	OpColumnLabel Op = "ColumnLabel"
	OpColumnType  Op = "ColumnType"
	OpValue       Op = "Value"
	OpString      Op = "String"
	OpDecode      Op = "Decode"
)

type (
	// Op - имя операции курсора
	Op string

	// Transform преобразует успешный результат перехваченной операции
	Transform func(value any) any

	// Rules - набор перехватываемых операций и их преобразований
	Rules map[Op]Transform

	// Wrapper - прозрачная обертка курсора
	//
	// Каждый вызов передается исходному курсору с теми же аргументами. Успешный
	// результат операции из Rules проходит через ее Transform; ошибки курсора
	// возвращаются как есть. Результат Err и Close - это ошибки, поэтому они
	// никогда не преобразуются.
	Wrapper struct {
		cursor Cursor
		rules  Rules
	}
)

var (
	_ Cursor      = (*Wrapper)(nil)
	_ ColumnTyper = (*Wrapper)(nil)
	_ Decoder     = (*Wrapper)(nil)
)

// Intercept возвращает правила, применяющие fn к результату операций ops
func Intercept(fn Transform, ops ...Op) Rules {
	return Rules(nil).With(fn, ops...)
}

// With возвращает копию правил с добавленным преобразованием fn для ops
func (r Rules) With(fn Transform, ops ...Op) Rules {
	out := make(Rules, len(r)+len(ops))

	for op, t := range r {
		out[op] = t
	}

	for _, op := range ops {
		out[op] = fn
	}

	return out
}

// Has - true, если операция op перехватывается
func (r Rules) Has(op Op) bool {
	_, ok := r[op]

	return ok
}

// Wrap создает обертку курсора c с правилами перехвата rules
//
// Правила копируются и после создания обертки не меняются.
func Wrap(c Cursor, rules Rules) *Wrapper {
	return &Wrapper{
		cursor: c,
		rules:  rules.With(nil),
	}
}

// Unwrap возвращает исходный курсор
func (w *Wrapper) Unwrap() Cursor {
	return w.cursor
}

// Rules возвращает копию правил перехвата
func (w *Wrapper) Rules() Rules {
	return w.rules.With(nil)
}

func (w *Wrapper) Next() bool {
	next, _ := intercept(w, OpNext, w.cursor.Next(), nil)

	return next
}

func (w *Wrapper) Err() error {
	return w.cursor.Err()
}

func (w *Wrapper) Close() error {
	return w.cursor.Close()
}

func (w *Wrapper) ColumnCount() (int, error) {
	count, err := w.cursor.ColumnCount()

	return intercept(w, OpColumnCount, count, err)
}

func (w *Wrapper) ColumnLabel(ordinal int) (string, error) {
	label, err := w.cursor.ColumnLabel(ordinal)

	return intercept(w, OpColumnLabel, label, err)
}

func (w *Wrapper) ColumnType(ordinal int) (string, error) {
	typer, ok := w.cursor.(ColumnTyper)
	if !ok {
		return "", ErrUnsupported
	}

	typ, err := typer.ColumnType(ordinal)

	return intercept(w, OpColumnType, typ, err)
}

func (w *Wrapper) Value(col Column) (any, error) {
	v, err := w.cursor.Value(col)

	return intercept(w, OpValue, v, err)
}

func (w *Wrapper) String(col Column) (string, error) {
	s, err := w.cursor.String(col)

	return intercept(w, OpString, s, err)
}

// Decode передает dst исходному курсору; преобразование OpDecode получает dst
func (w *Wrapper) Decode(dst any) error {
	decoder, ok := w.cursor.(Decoder)
	if !ok {
		return ErrUnsupported
	}

	if err := decoder.Decode(dst); err != nil {
		return err
	}

	if fn := w.rules[OpDecode]; fn != nil {
		fn(dst)
	}

	return nil
}

// intercept применяет правило op к успешному результату. Результат
// преобразования другого типа отбрасывается
func intercept[T any](w *Wrapper, op Op, v T, err error) (T, error) {
	if err != nil {
		return v, err
	}

	fn, ok := w.rules[op]
	if !ok || fn == nil {
		return v, nil
	}

	out := fn(v)
	if t, ok := out.(T); ok {
		return t, nil
	}

	// nil допустим только для операций с интерфейсным результатом, например Value
	if out == nil && reflect.TypeOf((*T)(nil)).Elem().Kind() == reflect.Interface {
		var zero T

		return zero, nil
	}

	return v, nil
}
