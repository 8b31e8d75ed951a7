package rowset

import (
	"database/sql"
	"math"
	"reflect"
	"strconv"
	"time"

	"gopkg.in/gomisc/errors.v1"
)

const (
	errOverflow     = errors.Const("value overflows target type")
	errIncompatible = errors.Const("incompatible value type")
)

var (
	scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
	timeType    = reflect.TypeOf(time.Time{})
)

// timeLayouts - форматы, в которых драйверы отдают дату и время текстом
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// Coerce приводит значение колонки к типу t
func Coerce(v any, t reflect.Type) (reflect.Value, error) {
	dst := reflect.New(t).Elem()

	if err := assign(dst, v); err != nil {
		return reflect.Value{}, err
	}

	return dst, nil
}

// assign записывает v в адресуемое значение dst с приведением типов
func assign(dst reflect.Value, v any) error {
	if reflect.PointerTo(dst.Type()).Implements(scannerType) {
		return dst.Addr().Interface().(sql.Scanner).Scan(v)
	}

	if v == nil {
		dst.Set(reflect.Zero(dst.Type()))

		return nil
	}

	if dst.Kind() == reflect.Ptr {
		elem := reflect.New(dst.Type().Elem())
		if err := assign(elem.Elem(), v); err != nil {
			return err
		}

		dst.Set(elem)

		return nil
	}

	src := reflect.ValueOf(v)
	if src.Type().AssignableTo(dst.Type()) {
		dst.Set(src)

		return nil
	}

	if dst.Type() == timeType {
		t, err := toTime(src)
		if err != nil {
			return err
		}

		dst.Set(reflect.ValueOf(t))

		return nil
	}

	switch dst.Kind() {
	case reflect.String:
		dst.SetString(Text(v))

		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := toInt64(src)
		if err != nil {
			return err
		}

		if dst.OverflowInt(n) {
			return errOverflow
		}

		dst.SetInt(n)

		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, err := toUint64(src)
		if err != nil {
			return err
		}

		if dst.OverflowUint(n) {
			return errOverflow
		}

		dst.SetUint(n)

		return nil
	case reflect.Float32, reflect.Float64:
		f, err := toFloat64(src)
		if err != nil {
			return err
		}

		if dst.OverflowFloat(f) {
			return errOverflow
		}

		dst.SetFloat(f)

		return nil
	case reflect.Bool:
		b, err := toBool(src)
		if err != nil {
			return err
		}

		dst.SetBool(b)

		return nil
	case reflect.Slice:
		if dst.Type().Elem().Kind() == reflect.Uint8 {
			if b, ok := bytesOf(src); ok {
				dst.SetBytes(append([]byte(nil), b...))

				return nil
			}
		}
	}

	if dst.Kind() == reflect.Array && src.Kind() == reflect.Slice && src.Len() != dst.Len() {
		return errIncompatible
	}

	if src.Type().ConvertibleTo(dst.Type()) {
		dst.Set(src.Convert(dst.Type()))

		return nil
	}

	return errIncompatible
}

func bytesOf(src reflect.Value) ([]byte, bool) {
	switch {
	case src.Kind() == reflect.String:
		return []byte(src.String()), true
	case src.Kind() == reflect.Slice && src.Type().Elem().Kind() == reflect.Uint8:
		return src.Bytes(), true
	}

	return nil, false
}

func toInt64(src reflect.Value) (int64, error) {
	switch src.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return src.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if src.Uint() > math.MaxInt64 {
			return 0, errOverflow
		}

		return int64(src.Uint()), nil
	case reflect.Float32, reflect.Float64:
		f := src.Float()
		if math.IsNaN(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, errOverflow
		}

		return int64(f), nil
	case reflect.Bool:
		if src.Bool() {
			return 1, nil
		}

		return 0, nil
	}

	if b, ok := bytesOf(src); ok {
		return strconv.ParseInt(string(b), 10, 64)
	}

	return 0, errIncompatible
}

func toUint64(src reflect.Value) (uint64, error) {
	switch src.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if src.Int() < 0 {
			return 0, errOverflow
		}

		return uint64(src.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return src.Uint(), nil
	case reflect.Float32, reflect.Float64:
		f := src.Float()
		if math.IsNaN(f) || f < 0 || f >= math.MaxUint64 {
			return 0, errOverflow
		}

		return uint64(f), nil
	case reflect.Bool:
		if src.Bool() {
			return 1, nil
		}

		return 0, nil
	}

	if b, ok := bytesOf(src); ok {
		return strconv.ParseUint(string(b), 10, 64)
	}

	return 0, errIncompatible
}

func toFloat64(src reflect.Value) (float64, error) {
	switch src.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(src.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(src.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return src.Float(), nil
	}

	if b, ok := bytesOf(src); ok {
		return strconv.ParseFloat(string(b), 64)
	}

	return 0, errIncompatible
}

func toBool(src reflect.Value) (bool, error) {
	switch src.Kind() {
	case reflect.Bool:
		return src.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return src.Int() != 0, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return src.Uint() != 0, nil
	}

	if b, ok := bytesOf(src); ok {
		return strconv.ParseBool(string(b))
	}

	return false, errIncompatible
}

func toTime(src reflect.Value) (time.Time, error) {
	switch src.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return time.Unix(src.Int(), 0).UTC(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return time.Unix(int64(src.Uint()), 0).UTC(), nil
	}

	b, ok := bytesOf(src)
	if !ok {
		return time.Time{}, errIncompatible
	}

	var err error

	for _, layout := range timeLayouts {
		var t time.Time

		if t, err = time.Parse(layout, string(b)); err == nil {
			return t, nil
		}
	}

	return time.Time{}, err
}
